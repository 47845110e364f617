// Package orders turns carts into orders and records payment outcomes on
// them. An order's number doubles as the gateway order id.
package orders

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/cart"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/gateway"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/pricing"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

const numberPrefix = "SHC"

var ErrInvalidStatus = errors.New("invalid order status")

type CartSource interface {
	Priced(ctx context.Context, userID string) ([]cart.PricedItem, error)
	Clear(ctx context.Context, userID string) error
}

type SettingsSource interface {
	Current(ctx context.Context) db.Result[models.SiteSettings]
}

type Service struct {
	orders   db.Collection[models.Order]
	items    db.Collection[models.OrderItem]
	cart     CartSource
	settings SettingsSource
	now      func() time.Time
}

func NewService(orders db.Collection[models.Order], items db.Collection[models.OrderItem], cart CartSource, settings SettingsSource) *Service {
	return &Service{orders: orders, items: items, cart: cart, settings: settings, now: time.Now}
}

// CheckoutInput is what the customer supplies; everything priced comes
// from the cart.
type CheckoutInput struct {
	Currency        models.Currency
	ShippingAddress models.Address
	CustomerEmail   string
	CustomerPhone   string
	Notes           string
	PaymentMethod   string
}

// NewOrderNumber formats SHC-yyyymmdd-nnnnnn.
func NewOrderNumber(now time.Time) string {
	return numberPrefix + "-" + now.UTC().Format("20060102") + "-" + utils.GenerateRandomDigitString(6)
}

// Totals holds the amounts of an order in every currency.
type Totals struct {
	Subtotal models.Amounts
	Shipping models.Amounts
	Tax      models.Amounts
	Total    models.Amounts
}

// ComputeTotals sums priced lines per currency. Shipping is waived once the
// subtotal reaches a positive free-shipping threshold; tax applies to the
// subtotal only.
func ComputeTotals(priced []cart.PricedItem, site models.SiteSettings) Totals {
	var t Totals
	rate := decimal.NewFromFloat(site.TaxRate)
	for _, c := range models.Currencies {
		places := c.Places()
		subtotal := decimal.Zero
		for _, p := range priced {
			subtotal = subtotal.Add(decimal.NewFromFloat(pricing.LineTotal(p.Unit[c], p.Item.Quantity)))
		}
		shipping := decimal.NewFromFloat(site.ShippingFee.In(c))
		if threshold := site.FreeShippingThreshold.In(c); threshold > 0 && subtotal.GreaterThanOrEqual(decimal.NewFromFloat(threshold)) {
			shipping = decimal.Zero
		}
		tax := subtotal.Mul(rate).Round(places)
		total := subtotal.Add(shipping).Add(tax).Round(places)

		t.Subtotal.Set(c, subtotal.Round(places).InexactFloat64())
		t.Shipping.Set(c, shipping.Round(places).InexactFloat64())
		t.Tax.Set(c, tax.InexactFloat64())
		t.Total.Set(c, total.InexactFloat64())
	}
	return t
}

// Checkout places an order for everything in userID's cart and empties the
// cart.
func (s *Service) Checkout(ctx context.Context, userID string, in CheckoutInput) (models.Order, []models.OrderItem, error) {
	priced, err := s.cart.Priced(ctx, userID)
	if err != nil {
		return models.Order{}, nil, err
	}
	if len(priced) == 0 {
		return models.Order{}, nil, cart.ErrEmptyCart
	}

	site := s.settings.Current(ctx).Data
	currency := in.Currency
	if !currency.Valid() {
		currency = site.DefaultCurrency
	}
	if !currency.Valid() {
		currency = models.OMR
	}
	method := in.PaymentMethod
	if method == "" {
		method = "bank_muscat"
	}

	now := s.now().UTC()
	totals := ComputeTotals(priced, site)
	order := models.Order{
		ID:              utils.GetUUID(),
		OrderNumber:     NewOrderNumber(now),
		UserID:          userID,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
		PaymentMethod:   method,
		Currency:        currency,
		Subtotal:        totals.Subtotal,
		Shipping:        totals.Shipping,
		Tax:             totals.Tax,
		Total:           totals.Total,
		ShippingAddress: in.ShippingAddress,
		CustomerEmail:   strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	items := make([]models.OrderItem, 0, len(priced))
	for _, p := range priced {
		item := models.OrderItem{
			ID:            utils.GetUUID(),
			OrderID:       order.ID,
			ProductID:     p.Product.ID,
			ProductName:   p.Product.Name,
			ProductNameAr: p.Product.NameAr,
			ProductImage:  p.Product.Image,
			OptionID:      p.Item.OptionID,
			Quantity:      p.Item.Quantity,
			CreatedAt:     now,
		}
		if opt, ok := pricing.FindOption(p.Product, p.Item.OptionID); ok {
			item.OptionLabel = opt.Label
		}
		for _, c := range models.Currencies {
			item.UnitPrice.Set(c, p.Unit[c].Amount)
			item.TotalPrice.Set(c, pricing.LineTotal(p.Unit[c], p.Item.Quantity))
		}
		items = append(items, item)
	}

	if err := s.orders.Set(ctx, order.ID, order); err != nil {
		return models.Order{}, nil, errors.Wrap(err, "save order")
	}
	for _, item := range items {
		if err := s.items.Set(ctx, item.ID, item); err != nil {
			return models.Order{}, nil, errors.Wrapf(err, "save order item for %s", order.OrderNumber)
		}
	}
	if err := s.cart.Clear(ctx, userID); err != nil {
		log.WithError(err).WithField("order_number", order.OrderNumber).Warn("Order placed but cart not cleared")
	}

	log.WithFields(log.Fields{
		"order_number": order.OrderNumber,
		"user_id":      userID,
		"currency":     currency,
		"total":        order.Total.In(currency),
	}).Info("Order placed")
	return order, items, nil
}

// ForUser lists userID's orders, newest first.
func (s *Service) ForUser(ctx context.Context, userID string, limit int) db.Result[[]models.Order] {
	return db.Safe(ctx, "orders.for_user", []models.Order{}, func(ctx context.Context) ([]models.Order, error) {
		q := db.Query{OrderBy: "created_at", Desc: true, Limit: limit}.Where("user_id", db.OpEqual, userID)
		return s.orders.List(ctx, q)
	})
}

// Owned returns order id if it belongs to userID, otherwise ErrNotFound.
func (s *Service) Owned(ctx context.Context, userID, id string) (models.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return order, err
	}
	if order.UserID != userID {
		return models.Order{}, db.ErrNotFound
	}
	return order, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.Order, error) {
	return s.orders.Get(ctx, id)
}

func (s *Service) Items(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	return s.items.List(ctx, db.Query{}.Where("order_id", db.OpEqual, orderID))
}

// ByNumber finds an order by its order number.
func (s *Service) ByNumber(ctx context.Context, number string) (models.Order, error) {
	found, err := s.orders.List(ctx, db.Query{Limit: 1}.Where("order_number", db.OpEqual, number))
	if err != nil {
		return models.Order{}, err
	}
	if len(found) == 0 {
		return models.Order{}, db.ErrNotFound
	}
	return found[0], nil
}

// All lists orders for the admin, optionally by status.
func (s *Service) All(ctx context.Context, status models.OrderStatus, limit int) db.Result[[]models.Order] {
	return db.Safe(ctx, "orders.all", []models.Order{}, func(ctx context.Context) ([]models.Order, error) {
		q := db.Query{OrderBy: "created_at", Desc: true, Limit: limit}
		if status != "" {
			q = q.Where("status", db.OpEqual, string(status))
		}
		return s.orders.List(ctx, q)
	})
}

func validOrderStatus(st models.OrderStatus) bool {
	switch st {
	case models.OrderPending, models.OrderConfirmed, models.OrderProcessing,
		models.OrderShipped, models.OrderDelivered, models.OrderCancelled:
		return true
	}
	return false
}

func validPaymentStatus(st models.PaymentStatus) bool {
	switch st {
	case models.PaymentPending, models.PaymentPaid, models.PaymentFailed, models.PaymentRefunded:
		return true
	}
	return false
}

// SetStatus is the admin override for either status. Empty values are left
// unchanged.
func (s *Service) SetStatus(ctx context.Context, id string, status models.OrderStatus, payment models.PaymentStatus) (models.Order, error) {
	fields := map[string]any{}
	if status != "" {
		if !validOrderStatus(status) {
			return models.Order{}, errors.Wrapf(ErrInvalidStatus, "status %q", status)
		}
		fields["status"] = string(status)
	}
	if payment != "" {
		if !validPaymentStatus(payment) {
			return models.Order{}, errors.Wrapf(ErrInvalidStatus, "payment_status %q", payment)
		}
		fields["payment_status"] = string(payment)
	}
	if len(fields) == 0 {
		return models.Order{}, errors.Wrap(ErrInvalidStatus, "nothing to update")
	}
	fields["updated_at"] = s.now().UTC()
	if err := s.orders.Update(ctx, id, fields); err != nil {
		return models.Order{}, err
	}
	return s.orders.Get(ctx, id)
}

// ApplyPaymentOutcome records a settled gateway outcome on the order with
// number orderNumber. It is safe to repeat: an order already carrying the
// outcome is left alone and false is returned. A paid order is never moved
// back to failed. A success whose amount or currency differs from the order
// total leaves the order pending and returns gateway.ErrAmountMismatch.
func (s *Service) ApplyPaymentOutcome(ctx context.Context, orderNumber string, settled gateway.Settlement) (bool, error) {
	order, err := s.ByNumber(ctx, orderNumber)
	if err != nil {
		return false, err
	}

	now := s.now().UTC()
	fields := map[string]any{}
	switch settled.Outcome {
	case gateway.OutcomeSuccess:
		if order.PaymentStatus == models.PaymentPaid {
			return false, nil
		}
		total := order.Total.In(order.Currency)
		if !settled.Covers(total, string(order.Currency)) {
			log.WithFields(log.Fields{
				"order_number":     orderNumber,
				"order_total":      gateway.FormatAmount(total, string(order.Currency)),
				"order_currency":   order.Currency,
				"settled_amount":   settled.Amount,
				"settled_currency": settled.Currency,
				"reference":        settled.Reference,
			}).Error("Settled amount does not match order total; order left pending")
			return false, errors.Wrapf(gateway.ErrAmountMismatch, "order %s", orderNumber)
		}
		fields["payment_status"] = string(models.PaymentPaid)
		fields["paid_at"] = now
		if order.Status == models.OrderPending {
			fields["status"] = string(models.OrderConfirmed)
		}
	case gateway.OutcomeFailure:
		if order.PaymentStatus == models.PaymentFailed || order.PaymentStatus == models.PaymentPaid {
			return false, nil
		}
		fields["payment_status"] = string(models.PaymentFailed)
	default:
		return false, nil
	}
	if settled.Reference != "" {
		fields["payment_reference"] = settled.Reference
	}
	fields["updated_at"] = now

	if err := s.orders.Update(ctx, order.ID, fields); err != nil {
		return false, errors.Wrapf(err, "update order %s", orderNumber)
	}
	log.WithFields(log.Fields{
		"order_number": orderNumber,
		"outcome":      settled.Outcome,
		"reference":    settled.Reference,
	}).Info("Payment outcome applied")
	return true, nil
}
