// Package cart keeps each user's cart. Prices are never taken from the
// client; every read resolves them from the current product.
package cart

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/pricing"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/utils"
)

const MaxQuantity = 99

var (
	ErrInvalidQuantity    = errors.New("quantity must be between 1 and 99")
	ErrProductUnavailable = errors.New("product is not available")
	ErrUnknownOption      = errors.New("unknown product option")
	ErrEmptyCart          = errors.New("cart is empty")
)

// ProductLookup reads a product by id. products.Store satisfies it.
type ProductLookup interface {
	Lookup(ctx context.Context, id string) (models.Product, error)
}

// PricedItem is a cart item with its product and unit price in every
// supported currency, as needed to place an order.
type PricedItem struct {
	Item    models.CartItem
	Product models.Product
	Unit    map[models.Currency]pricing.Price
}

type Service struct {
	items    db.Collection[models.CartItem]
	products ProductLookup
	now      func() time.Time
}

func NewService(items db.Collection[models.CartItem], products ProductLookup) *Service {
	return &Service{items: items, products: products, now: time.Now}
}

// itemID is stable per user, product and option so re-adding the same
// selection lands on the same document.
func itemID(userID, productID, optionID string) string {
	return utils.StableID(userID, productID, optionID)
}

func (s *Service) Items(ctx context.Context, userID string) ([]models.CartItem, error) {
	items, err := s.items.List(ctx, db.Query{OrderBy: "created_at"}.Where("user_id", db.OpEqual, userID))
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	return items, nil
}

// Add puts quantity of productID (with optionID selected) in the cart,
// adding to the quantity already there for the same selection.
func (s *Service) Add(ctx context.Context, userID, productID, optionID string, quantity int) (models.CartItem, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return models.CartItem{}, ErrInvalidQuantity
	}
	product, err := s.products.Lookup(ctx, productID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return models.CartItem{}, ErrProductUnavailable
		}
		return models.CartItem{}, err
	}
	if !product.IsActive {
		return models.CartItem{}, ErrProductUnavailable
	}
	if optionID != "" {
		opt, ok := pricing.FindOption(product, optionID)
		if !ok {
			return models.CartItem{}, ErrUnknownOption
		}
		if opt.ID != "" {
			optionID = opt.ID
		}
	}

	now := s.now().UTC()
	id := itemID(userID, productID, optionID)
	item, err := s.items.Get(ctx, id)
	switch {
	case err == nil:
		item.Quantity += quantity
		if item.Quantity > MaxQuantity {
			return item, ErrInvalidQuantity
		}
	case errors.Is(err, db.ErrNotFound):
		item = models.CartItem{
			ID:        id,
			UserID:    userID,
			ProductID: productID,
			OptionID:  optionID,
			Quantity:  quantity,
			CreatedAt: now,
		}
	default:
		return models.CartItem{}, err
	}
	item.UpdatedAt = now
	if err := s.items.Set(ctx, id, item); err != nil {
		return models.CartItem{}, err
	}
	return item, nil
}

// SetQuantity changes the quantity of one of userID's items.
func (s *Service) SetQuantity(ctx context.Context, userID, id string, quantity int) (models.CartItem, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return models.CartItem{}, ErrInvalidQuantity
	}
	item, err := s.owned(ctx, userID, id)
	if err != nil {
		return item, err
	}
	item.Quantity = quantity
	item.UpdatedAt = s.now().UTC()
	return item, s.items.Set(ctx, id, item)
}

func (s *Service) Remove(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.items.Delete(ctx, id)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := s.items.Delete(ctx, item.ID); err != nil {
			return errors.Wrapf(err, "delete cart item %s", item.ID)
		}
	}
	return nil
}

func (s *Service) owned(ctx context.Context, userID, id string) (models.CartItem, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return item, err
	}
	if item.UserID != userID {
		return models.CartItem{}, db.ErrNotFound
	}
	return item, nil
}

// Priced joins every item with its product and resolves its unit price.
// Items whose product is gone or inactive are skipped.
func (s *Service) Priced(ctx context.Context, userID string) ([]PricedItem, error) {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]PricedItem, 0, len(items))
	for _, item := range items {
		product, err := s.products.Lookup(ctx, item.ProductID)
		if errors.Is(err, db.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "load product %s", item.ProductID)
		}
		if !product.IsActive {
			continue
		}
		out = append(out, PricedItem{
			Item:    item,
			Product: product,
			Unit:    pricing.ResolveAll(product, item.OptionID, now),
		})
	}
	return out, nil
}

// Summary is the cart as shown to the customer in one currency.
type Summary struct {
	Lines    []models.CartLine `json:"lines"`
	Currency models.Currency   `json:"currency"`
	Subtotal float64           `json:"subtotal"`
	Count    int               `json:"count"`
}

func (s *Service) Summary(ctx context.Context, userID string, currency models.Currency) (Summary, error) {
	if !currency.Valid() {
		currency = models.OMR
	}
	priced, err := s.Priced(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Lines: make([]models.CartLine, 0, len(priced)), Currency: currency}
	subtotal := decimal.Zero
	for _, p := range priced {
		unit := p.Unit[currency]
		line := models.CartLine{
			CartItem:     p.Item,
			ProductName:  p.Product.Name,
			ProductImage: p.Product.Image,
			Currency:     currency,
			UnitPrice:    unit.Amount,
			LineTotal:    pricing.LineTotal(unit, p.Item.Quantity),
		}
		if opt, ok := pricing.FindOption(p.Product, p.Item.OptionID); ok {
			line.OptionLabel = opt.Label
		}
		sum.Lines = append(sum.Lines, line)
		subtotal = subtotal.Add(decimal.NewFromFloat(line.LineTotal))
		sum.Count += p.Item.Quantity
	}
	sum.Subtotal, _ = subtotal.Round(currency.Places()).Float64()
	return sum, nil
}
