package gateway

import "encoding/json"

const ResultSuccess = "SUCCESS"

type Order struct {
	ID                    string  `json:"id"`
	Amount                float64 `json:"amount,omitempty"`
	Currency              string  `json:"currency,omitempty"`
	Description           string  `json:"description,omitempty"`
	Status                string  `json:"status,omitempty"`
	CreationTime          string  `json:"creationTime,omitempty"`
	TotalAuthorizedAmount float64 `json:"totalAuthorizedAmount,omitempty"`
	TotalCapturedAmount   float64 `json:"totalCapturedAmount,omitempty"`
}

// OrderResponse is the envelope returned by PUT /order/{id}.
type OrderResponse struct {
	Result   string    `json:"result"`
	Merchant string    `json:"merchant,omitempty"`
	Order    *Order    `json:"order,omitempty"`
	Error    *APIError `json:"error,omitempty"`
}

type Session struct {
	ID           string `json:"id"`
	Version      string `json:"version,omitempty"`
	UpdateStatus string `json:"updateStatus,omitempty"`
}

// SessionResponse is the envelope returned by POST /session.
type SessionResponse struct {
	Result           string    `json:"result"`
	Merchant         string    `json:"merchant,omitempty"`
	Session          Session   `json:"session"`
	SuccessIndicator string    `json:"successIndicator,omitempty"`
	Error            *APIError `json:"error,omitempty"`
}

type TransactionDetail struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type TransactionResponse struct {
	GatewayCode     string `json:"gatewayCode"`
	AcquirerCode    string `json:"acquirerCode,omitempty"`
	AcquirerMessage string `json:"acquirerMessage,omitempty"`
}

type Transaction struct {
	Result       string              `json:"result"`
	TimeOfRecord string              `json:"timeOfRecord,omitempty"`
	Transaction  TransactionDetail   `json:"transaction"`
	Response     TransactionResponse `json:"response"`
}

// Inquiry is the gateway's view of an order, returned by GET /order/{id}.
type Inquiry struct {
	Result                string          `json:"result"`
	ID                    string          `json:"id"`
	Status                string          `json:"status"`
	Amount                float64         `json:"amount"`
	Currency              string          `json:"currency"`
	Description           string          `json:"description,omitempty"`
	TotalAuthorizedAmount float64         `json:"totalAuthorizedAmount"`
	TotalCapturedAmount   float64         `json:"totalCapturedAmount"`
	TotalRefundedAmount   float64         `json:"totalRefundedAmount"`
	Transactions          []Transaction   `json:"transaction,omitempty"`
	Error                 *APIError       `json:"error,omitempty"`
	Raw                   json.RawMessage `json:"-"`
}

// PaymentRequest is the input to CreatePayment.
type PaymentRequest struct {
	OrderID       string
	Amount        float64
	Currency      string
	Description   string
	CustomerEmail string
	CustomerPhone string
	SuccessURL    string
	FailureURL    string
	CancelURL     string
	Metadata      map[string]string
}

// PaymentResult is what a customer needs to reach the hosted checkout.
type PaymentResult struct {
	OrderID     string           `json:"orderId"`
	SessionID   string           `json:"sessionId"`
	Amount      float64          `json:"amount"`
	Currency    string           `json:"currency"`
	RedirectURL string           `json:"redirectUrl"`
	CheckoutURL string           `json:"checkoutUrl"`
	Order       *OrderResponse   `json:"order"`
	Session     *SessionResponse `json:"session"`
}
