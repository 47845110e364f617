package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// OrphanRecorder is told about gateway orders that were created but never
// got a session, so a sweep job can reconcile them later.
type OrphanRecorder interface {
	RecordOrphan(ctx context.Context, orderID string, cause error) error
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithOrphanRecorder(r OrphanRecorder) Option {
	return func(c *Client) { c.orphans = r }
}

// Client talks to the bank's hosted checkout REST API.
type Client struct {
	cfg     Config
	http    *http.Client
	orphans OrphanRecorder
}

func New(cfg Config, opts ...Option) *Client {
	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	return c
}

// Config returns the client configuration with secrets redacted.
func (c *Client) Config() Config {
	return c.cfg.Redacted()
}

func (c *Client) endpoint(path string) string {
	return fmt.Sprintf("%s/api/rest/version/%s/merchant/%s%s",
		c.cfg.BaseURL, c.cfg.APIVersion, url.PathEscape(c.cfg.MerchantID), path)
}

// CreateOrder registers a pending charge with the gateway.
func (c *Client) CreateOrder(ctx context.Context, orderID string, amount float64, currency, description string) (*OrderResponse, error) {
	body := map[string]any{
		"order": map[string]any{
			"id":          orderID,
			"amount":      FormatAmount(amount, currency),
			"currency":    currency,
			"description": description,
		},
	}
	var out OrderResponse
	if err := c.do(ctx, http.MethodPut, "/order/"+url.PathEscape(orderID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSession opens a checkout session for an existing gateway order.
func (c *Client) CreateSession(ctx context.Context, orderID string) (*SessionResponse, error) {
	interaction := map[string]any{
		"operation": "PURCHASE",
		"returnUrl": c.cfg.ReturnURL,
	}
	if c.cfg.MerchantName != "" {
		interaction["merchant"] = map[string]any{"name": c.cfg.MerchantName}
	}
	body := map[string]any{
		"apiOperation": "CREATE_CHECKOUT_SESSION",
		"order":        map[string]any{"id": orderID},
		"interaction":  interaction,
	}
	var out SessionResponse
	if err := c.do(ctx, http.MethodPost, "/session", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InquirePayment fetches the current state of an order from the gateway.
func (c *Client) InquirePayment(ctx context.Context, orderID string) (*Inquiry, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/order/"+url.PathEscape(orderID), nil, &raw); err != nil {
		return nil, err
	}
	var out Inquiry
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &PaymentError{Code: CodeUnknownError, Message: "could not decode gateway response"}
	}
	out.Raw = raw
	return &out, nil
}

// CreatePayment creates the gateway order, then its session, then the URLs
// the customer is sent to. The session is never requested unless the order
// was created successfully.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	currency := req.Currency
	if currency == "" {
		currency = c.cfg.DefaultCurrency
	}
	description := req.Description
	if description == "" {
		description = "Order " + req.OrderID
	}

	logger := log.WithFields(log.Fields{"order_id": req.OrderID, "amount": req.Amount, "currency": currency})

	order, err := c.CreateOrder(ctx, req.OrderID, req.Amount, currency, description)
	if err != nil {
		logger.WithError(err).Error("gateway order creation failed")
		return nil, err
	}
	if order.Result != ResultSuccess {
		return nil, resultError("order creation", order.Result, order.Error)
	}

	session, err := c.CreateSession(ctx, req.OrderID)
	if err == nil && session.Result != ResultSuccess {
		err = resultError("session creation", session.Result, session.Error)
	}
	if err != nil {
		logger.WithError(err).Error("gateway session creation failed, order left open")
		c.recordOrphan(ctx, req.OrderID, err)
		return nil, err
	}

	logger.WithField("session_id", session.Session.ID).Info("gateway checkout session created")
	return &PaymentResult{
		OrderID:     req.OrderID,
		SessionID:   session.Session.ID,
		Amount:      req.Amount,
		Currency:    currency,
		RedirectURL: c.RedirectURL(session.Session.ID, req.SuccessURL, req.FailureURL, req.CancelURL),
		CheckoutURL: c.CheckoutURL(session.Session.ID),
		Order:       order,
		Session:     session,
	}, nil
}

func (c *Client) recordOrphan(ctx context.Context, orderID string, cause error) {
	if c.orphans == nil {
		return
	}
	if err := c.orphans.RecordOrphan(ctx, orderID, cause); err != nil {
		log.WithError(err).WithField("order_id", orderID).Error("could not record orphaned gateway order")
	}
}

func resultError(step, result string, apiErr *APIError) *PaymentError {
	if apiErr != nil {
		return fromAPIError(http.StatusOK, apiErr)
	}
	return &PaymentError{
		Code:    CodeAPIError,
		Message: fmt.Sprintf("gateway %s returned result %s", step, result),
		Details: map[string]any{"result": result},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &PaymentError{Code: CodeUnknownError, Message: "could not encode gateway request"}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return &PaymentError{Code: CodeUnknownError, Message: err.Error()}
	}
	req.SetBasicAuth(c.cfg.APIUsername, c.cfg.APIPassword)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fromTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fromTransportError(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope struct {
			Error *APIError `json:"error"`
		}
		_ = json.Unmarshal(data, &envelope)
		log.WithFields(log.Fields{"method": method, "path": path, "status": resp.StatusCode}).Warn("gateway returned an error")
		return fromAPIError(resp.StatusCode, envelope.Error)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &PaymentError{Code: CodeUnknownError, Message: "could not decode gateway response"}
	}
	return nil
}

// FormatAmount renders amount with the minor-unit precision of currency.
func FormatAmount(amount float64, currency string) string {
	return decimal.NewFromFloat(amount).StringFixed(AmountPlaces(currency))
}

// AmountPlaces is the number of minor-unit digits the gateway expects for
// currency.
func AmountPlaces(currency string) int32 {
	switch strings.ToUpper(currency) {
	case "OMR", "BHD", "KWD":
		return 3
	}
	return 2
}
