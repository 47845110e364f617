// Package pricing works out what a customer pays for a product and an
// optional selected option in a given currency.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
)

type Source string

const (
	SourceBase     Source = "base"
	SourceAbsolute Source = "absolute"
	SourceModifier Source = "modifier"
	// SourceNone means no candidate price was set; Amount is 0 and does not
	// mean the item is free.
	SourceNone Source = "none"
)

var SupportedCurrencies = models.Currencies

// Price is a resolved unit price.
type Price struct {
	Amount   float64         `json:"amount"`
	Regular  float64         `json:"regular"`
	Currency models.Currency `json:"currency"`
	Source   Source          `json:"source"`
	OnSale   bool            `json:"on_sale"`
	OptionID string          `json:"option_id,omitempty"`
}

// Discount is Regular - Amount while on sale. It can be zero or negative
// when the sale price is missing or not below the regular price.
func (p Price) Discount() float64 {
	if !p.OnSale {
		return 0
	}
	return Round(p.Regular-p.Amount, p.Currency)
}

// Resolve picks the unit price for product in currency. selectedOption is
// an option ID or value; empty means the default selection.
//
// Order of precedence:
//  1. a selected option on a price-affecting property: absolute price, then
//     the legacy modifier as a standalone price
//  2. no selection: the first option of the first price-affecting property
//  3. no price-affecting properties: product sale price or base price
func Resolve(product models.Product, selectedOption string, currency models.Currency, now time.Time) Price {
	if !currency.Valid() {
		currency = models.OMR
	}

	if props := pricingProperties(product); len(props) > 0 {
		opt, ok := findOption(props, selectedOption)
		if !ok {
			opt = props[0].Options[0]
		}
		return resolveOption(opt, currency, now)
	}
	return resolveProduct(product, currency, now)
}

func pricingProperties(product models.Product) []models.ProductProperty {
	var out []models.ProductProperty
	for _, prop := range product.Properties {
		if prop.AffectsPrice && len(prop.Options) > 0 {
			out = append(out, prop)
		}
	}
	return out
}

func findOption(props []models.ProductProperty, selected string) (models.ProductPropertyOption, bool) {
	if selected == "" {
		return models.ProductPropertyOption{}, false
	}
	for _, prop := range props {
		for _, opt := range prop.Options {
			if opt.ID != "" && opt.ID == selected {
				return opt, true
			}
		}
	}
	for _, prop := range props {
		for _, opt := range prop.Options {
			if opt.Value == selected {
				return opt, true
			}
		}
	}
	return models.ProductPropertyOption{}, false
}

// FindOption looks up an option on any property of product.
func FindOption(product models.Product, selected string) (models.ProductPropertyOption, bool) {
	return findOption(product.Properties, selected)
}

func resolveOption(opt models.ProductPropertyOption, currency models.Currency, now time.Time) Price {
	onSale := OptionOnSale(opt, now)
	for _, scheme := range Schemes(opt) {
		regular := scheme.Regular().For(currency)
		if regular == nil {
			continue
		}
		price := Price{
			Amount:   *regular,
			Regular:  *regular,
			Currency: currency,
			Source:   scheme.Source(),
			OnSale:   onSale,
			OptionID: opt.ID,
		}
		if sale := scheme.Sale().For(currency); onSale && sale != nil {
			price.Amount = *sale
		}
		return price
	}
	return Price{Currency: currency, Source: SourceNone, OptionID: opt.ID}
}

func resolveProduct(product models.Product, currency models.Currency, now time.Time) Price {
	base := product.BasePrice(currency)
	price := Price{Amount: base, Regular: base, Currency: currency, Source: SourceBase}
	if base == 0 {
		price.Source = SourceNone
	}

	if !product.IsOnSale || !windowOpen(product.SaleStartDate, product.SaleEndDate, now) {
		return price
	}
	price.OnSale = true
	if sale := product.SalePriceIn(currency); sale > 0 && sale < base {
		price.Amount = sale
	}
	return price
}

// Round rounds amount to the currency's minor unit.
func Round(amount float64, currency models.Currency) float64 {
	f, _ := decimal.NewFromFloat(amount).Round(currency.Places()).Float64()
	return f
}

// LineTotal is unit price times quantity, rounded to the currency.
func LineTotal(p Price, quantity int) float64 {
	total := decimal.NewFromFloat(p.Amount).Mul(decimal.NewFromInt(int64(quantity)))
	f, _ := total.Round(p.Currency.Places()).Float64()
	return f
}

// ResolveAll resolves the price in every supported currency.
func ResolveAll(product models.Product, selectedOption string, now time.Time) map[models.Currency]Price {
	out := make(map[models.Currency]Price, len(SupportedCurrencies))
	for _, c := range SupportedCurrencies {
		out[c] = Resolve(product, selectedOption, c, now)
	}
	return out
}
