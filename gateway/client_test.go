package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Method string
	Path   string
	Body   map[string]any
}

type stubGateway struct {
	mu      sync.Mutex
	calls   []recordedCall
	order   string
	session string
}

func (s *stubGateway) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "merchant.TESTMID", user)
		assert.Equal(t, "secret", pass)

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.calls = append(s.calls, recordedCall{Method: r.Method, Path: r.URL.Path, Body: body})
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/order/ORDER_1"):
			_, _ = w.Write([]byte(s.order))
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/session"):
			_, _ = w.Write([]byte(s.session))
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/order/ORDER_1"):
			_, _ = w.Write([]byte(`{"result":"SUCCESS","id":"ORDER_1","status":"CAPTURED","amount":5,"currency":"OMR","totalCapturedAmount":5,"transaction":[{"result":"SUCCESS","transaction":{"id":"1","type":"PAYMENT","amount":5,"currency":"OMR"},"response":{"gatewayCode":"APPROVED"}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func (s *stubGateway) methods() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.calls {
		out = append(out, c.Method)
	}
	return out
}

func testConfig(baseURL string) Config {
	cfg := Config{
		MerchantID:  "TESTMID",
		APIPassword: "secret",
		BaseURL:     baseURL,
		APIVersion:  "100",
	}
	cfg.Normalize("https://shop.example")
	return cfg
}

type orphanSpy struct {
	orders []string
}

func (o *orphanSpy) RecordOrphan(_ context.Context, orderID string, _ error) error {
	o.orders = append(o.orders, orderID)
	return nil
}

func TestCreatePayment_Success(t *testing.T) {
	stub := &stubGateway{
		order:   `{"result":"SUCCESS","order":{"id":"ORDER_1","amount":5,"currency":"OMR"}}`,
		session: `{"result":"SUCCESS","session":{"id":"SESSION_1","version":"v1","updateStatus":"SUCCESS"}}`,
	}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	client := New(testConfig(srv.URL))
	res, err := client.CreatePayment(context.Background(), PaymentRequest{Amount: 5, Currency: "OMR", OrderID: "ORDER_1"})
	require.NoError(t, err)

	assert.Equal(t, []string{http.MethodPut, http.MethodPost}, stub.methods())
	assert.Equal(t, "SESSION_1", res.SessionID)
	assert.Contains(t, res.RedirectURL, "SESSION_1")
	assert.Contains(t, res.RedirectURL, "TESTMID")
	assert.Contains(t, res.CheckoutURL, "sessionId=SESSION_1")
	assert.True(t, strings.HasPrefix(res.CheckoutURL, "https://shop.example/api/payments/checkout?"))

	order := stub.calls[0].Body["order"].(map[string]any)
	assert.Equal(t, "5.000", order["amount"])
	assert.Equal(t, "OMR", order["currency"])
	assert.Contains(t, stub.calls[0].Path, "/api/rest/version/100/merchant/TESTMID/order/ORDER_1")
}

func TestCreatePayment_RedirectCarriesOptionalURLs(t *testing.T) {
	stub := &stubGateway{
		order:   `{"result":"SUCCESS"}`,
		session: `{"result":"SUCCESS","session":{"id":"SESSION_1"}}`,
	}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	client := New(testConfig(srv.URL))
	res, err := client.CreatePayment(context.Background(), PaymentRequest{
		Amount: 5, OrderID: "ORDER_1",
		SuccessURL: "https://shop.example/ok", CancelURL: "https://shop.example/cancel",
	})
	require.NoError(t, err)

	assert.Equal(t, "OMR", res.Currency)
	assert.Contains(t, res.RedirectURL, "successUrl=https%3A%2F%2Fshop.example%2Fok")
	assert.Contains(t, res.RedirectURL, "cancelUrl=")
	assert.NotContains(t, res.RedirectURL, "failureUrl=")
	assert.Contains(t, res.RedirectURL, "returnUrl=https%3A%2F%2Fshop.example%2Fapi%2Fpayments%2Fconfirm")
}

func TestCreatePayment_OrderNotSuccessSkipsSession(t *testing.T) {
	stub := &stubGateway{
		order:   `{"result":"FAILURE","error":{"cause":"REQUEST_REJECTED","explanation":"Merchant disabled"}}`,
		session: `{"result":"SUCCESS","session":{"id":"SESSION_1"}}`,
	}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	client := New(testConfig(srv.URL))
	_, err := client.CreatePayment(context.Background(), PaymentRequest{Amount: 5, Currency: "OMR", OrderID: "ORDER_1"})
	require.Error(t, err)

	pe, ok := AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, CodeAPIError, pe.Code)
	assert.Equal(t, "Merchant disabled", pe.Message)
	assert.Equal(t, []string{http.MethodPut}, stub.methods())
}

func TestCreatePayment_SessionFailureRecordsOrphan(t *testing.T) {
	stub := &stubGateway{
		order:   `{"result":"SUCCESS"}`,
		session: `{"result":"FAILURE"}`,
	}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	spy := &orphanSpy{}
	client := New(testConfig(srv.URL), WithOrphanRecorder(spy))
	_, err := client.CreatePayment(context.Background(), PaymentRequest{Amount: 5, Currency: "OMR", OrderID: "ORDER_1"})
	require.Error(t, err)

	assert.Equal(t, []string{http.MethodPut, http.MethodPost}, stub.methods())
	assert.Equal(t, []string{"ORDER_1"}, spy.orders)
}

func TestDo_HTTPErrorBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"result":"ERROR","error":{"cause":"INVALID_REQUEST","explanation":"Value must be positive","field":"order.amount","validationType":"INVALID"}}`))
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL))
	_, err := client.CreateOrder(context.Background(), "ORDER_1", -1, "OMR", "")
	pe, ok := AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, CodeAPIError, pe.Code)
	assert.Equal(t, "Value must be positive", pe.Message)
	assert.Equal(t, "order.amount", pe.Field)
	assert.Equal(t, "INVALID", pe.ValidationType)
}

func TestDo_UnparseableErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	client := New(testConfig(srv.URL))
	_, err := client.InquirePayment(context.Background(), "ORDER_1")
	pe, ok := AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, CodeAPIError, pe.Code)
	assert.Contains(t, pe.Message, "502")
}

func TestDo_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(testConfig(url))
	_, err := client.InquirePayment(context.Background(), "ORDER_1")
	pe, ok := AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, CodeConnectionError, pe.Code)
}

func TestDo_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 20 * time.Millisecond
	client := New(cfg)
	_, err := client.InquirePayment(context.Background(), "ORDER_1")
	pe, ok := AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, CodeTimeout, pe.Code)
}

func TestInquirePayment(t *testing.T) {
	stub := &stubGateway{}
	srv := httptest.NewServer(stub.handler(t))
	defer srv.Close()

	client := New(testConfig(srv.URL))
	inq, err := client.InquirePayment(context.Background(), "ORDER_1")
	require.NoError(t, err)

	assert.Equal(t, "CAPTURED", inq.Status)
	assert.Equal(t, 5.0, inq.TotalCapturedAmount)
	require.Len(t, inq.Transactions, 1)
	assert.Equal(t, "APPROVED", inq.Transactions[0].Response.GatewayCode)
	assert.NotEmpty(t, inq.Raw)
	assert.Equal(t, OutcomeSuccess, Outcome(inq))
}

func TestConfigIsRedacted(t *testing.T) {
	cfg := testConfig("https://gw.example")
	cfg.HMACSecret = "hmac"
	client := New(cfg)

	got := client.Config()
	assert.Equal(t, "***", got.APIPassword)
	assert.Equal(t, "***", got.HMACSecret)
	assert.Equal(t, "TESTMID", got.MerchantID)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "5.000", FormatAmount(5, "OMR"))
	assert.Equal(t, "12.35", FormatAmount(12.345, "USD"))
	assert.Equal(t, "0.10", FormatAmount(0.1, "SAR"))
}
