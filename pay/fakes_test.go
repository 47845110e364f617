package pay

import (
	"context"
	"sync"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/gateway"
)

type fakeGateway struct {
	mu       sync.Mutex
	created  []gateway.PaymentRequest
	inquired []string

	createFn  func(gateway.PaymentRequest) (*gateway.PaymentResult, error)
	inquireFn func(orderID string) (*gateway.Inquiry, error)
	sigValid  bool
	secretOK  bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sigValid: true, secretOK: true}
}

func (g *fakeGateway) CreatePayment(ctx context.Context, req gateway.PaymentRequest) (*gateway.PaymentResult, error) {
	g.mu.Lock()
	g.created = append(g.created, req)
	g.mu.Unlock()
	if g.createFn != nil {
		return g.createFn(req)
	}
	return &gateway.PaymentResult{
		OrderID:     req.OrderID,
		SessionID:   "SESSION_1",
		Amount:      req.Amount,
		Currency:    req.Currency,
		RedirectURL: "https://gw.test/checkout/pay/SESSION_1",
		CheckoutURL: "https://shop.test/api/payments/checkout?sessionId=SESSION_1",
	}, nil
}

func (g *fakeGateway) InquirePayment(ctx context.Context, orderID string) (*gateway.Inquiry, error) {
	g.mu.Lock()
	g.inquired = append(g.inquired, orderID)
	g.mu.Unlock()
	if g.inquireFn != nil {
		return g.inquireFn(orderID)
	}
	return &gateway.Inquiry{Result: "SUCCESS", ID: orderID, Status: "CAPTURED", Amount: 5, Currency: "OMR"}, nil
}

func (g *fakeGateway) inquiries() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inquired)
}

func (g *fakeGateway) ValidateWebhookSignature(payload []byte, signature string) bool {
	return g.sigValid
}

func (g *fakeGateway) ValidateNotificationSecret(secret string) bool {
	return g.secretOK
}

func (g *fakeGateway) CheckoutScriptURL() string {
	return "https://gw.test/static/checkout/checkout.min.js"
}

func (g *fakeGateway) Config() gateway.Config {
	return gateway.Config{
		MerchantID:   "TESTMID",
		MerchantName: "Spirit Hub Cafe",
		ReturnURL:    "https://shop.test/api/payments/confirm",
	}
}

type applied struct {
	orderID   string
	outcome   string
	reference string
	amount    float64
}

type fakeOrders struct {
	mu      sync.Mutex
	calls   int
	applied map[string]applied
	errs    []error
	// total, when set, is the OMR total every order expects to be paid.
	total float64
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{applied: make(map[string]applied)}
}

func (o *fakeOrders) ApplyPaymentOutcome(ctx context.Context, orderNumber string, settled gateway.Settlement) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if len(o.errs) > 0 {
		err := o.errs[0]
		o.errs = o.errs[1:]
		if err != nil {
			return false, err
		}
	}
	if orderNumber == "missing" {
		return false, db.ErrNotFound
	}
	if o.total > 0 && settled.Outcome == gateway.OutcomeSuccess && !settled.Covers(o.total, "OMR") {
		return false, gateway.ErrAmountMismatch
	}
	prev, ok := o.applied[orderNumber]
	if ok && prev.outcome == settled.Outcome {
		return false, nil
	}
	o.applied[orderNumber] = applied{orderID: orderNumber, outcome: settled.Outcome, reference: settled.Reference, amount: settled.Amount}
	return true, nil
}

func (o *fakeOrders) get(orderNumber string) (applied, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, ok := o.applied[orderNumber]
	return a, ok
}

func (o *fakeOrders) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}
