package gateway

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/pkg/errors"
)

const (
	CodeAPIError        = "API_ERROR"
	CodeTimeout         = "TIMEOUT"
	CodeConnectionError = "CONNECTION_ERROR"
	CodeUnknownError    = "UNKNOWN_ERROR"
)

// PaymentError is the only error type that leaves the client.
type PaymentError struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	Details        any    `json:"details,omitempty"`
	Field          string `json:"field,omitempty"`
	ValidationType string `json:"validationType,omitempty"`
}

func (e *PaymentError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsPaymentError unwraps err into a *PaymentError.
func AsPaymentError(err error) (*PaymentError, bool) {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// APIError is the error object in a gateway response body.
type APIError struct {
	Cause          string `json:"cause,omitempty"`
	Explanation    string `json:"explanation,omitempty"`
	Field          string `json:"field,omitempty"`
	SupportCode    string `json:"supportCode,omitempty"`
	ValidationType string `json:"validationType,omitempty"`
}

func fromAPIError(status int, apiErr *APIError) *PaymentError {
	if apiErr == nil {
		return &PaymentError{
			Code:    CodeAPIError,
			Message: fmt.Sprintf("gateway returned HTTP %d", status),
			Details: map[string]any{"status": status},
		}
	}
	msg := apiErr.Explanation
	if msg == "" {
		msg = apiErr.Cause
	}
	if msg == "" {
		msg = fmt.Sprintf("gateway returned HTTP %d", status)
	}
	return &PaymentError{
		Code:           CodeAPIError,
		Message:        msg,
		Details:        apiErr,
		Field:          apiErr.Field,
		ValidationType: apiErr.ValidationType,
	}
}

func fromTransportError(err error) *PaymentError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &PaymentError{Code: CodeTimeout, Message: "gateway request timed out"}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &PaymentError{Code: CodeTimeout, Message: "gateway request timed out"}
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return &PaymentError{Code: CodeConnectionError, Message: "could not connect to the payment gateway", Details: err.Error()}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &PaymentError{Code: CodeUnknownError, Message: urlErr.Err.Error()}
	}
	return &PaymentError{Code: CodeUnknownError, Message: err.Error()}
}
