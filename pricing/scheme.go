package pricing

import (
	"time"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
)

// PerCurrency holds an optional value per currency. nil means unset.
type PerCurrency struct {
	OMR, USD, SAR *float64
}

func (p PerCurrency) For(c models.Currency) *float64 {
	switch c {
	case models.USD:
		return p.USD
	case models.SAR:
		return p.SAR
	default:
		return p.OMR
	}
}

func (p PerCurrency) empty() bool {
	return p.OMR == nil && p.USD == nil && p.SAR == nil
}

// Scheme is one way an option can carry its price.
type Scheme interface {
	Source() Source
	Regular() PerCurrency
	Sale() PerCurrency
}

// AbsolutePrice replaces the product's base price outright.
type AbsolutePrice struct {
	RegularPrice PerCurrency
	SalePrice    PerCurrency
}

func (a AbsolutePrice) Source() Source       { return SourceAbsolute }
func (a AbsolutePrice) Regular() PerCurrency { return a.RegularPrice }
func (a AbsolutePrice) Sale() PerCurrency    { return a.SalePrice }

// LegacyModifierPrice is the older modifier field set. It was meant as a
// delta on the base price but is charged as a standalone price; the base is
// never added.
type LegacyModifierPrice struct {
	RegularPrice PerCurrency
	SalePrice    PerCurrency
}

func (l LegacyModifierPrice) Source() Source       { return SourceModifier }
func (l LegacyModifierPrice) Regular() PerCurrency { return l.RegularPrice }
func (l LegacyModifierPrice) Sale() PerCurrency    { return l.SalePrice }

// Schemes returns the pricing schemes present on opt, highest priority first.
func Schemes(opt models.ProductPropertyOption) []Scheme {
	var out []Scheme

	abs := AbsolutePrice{
		RegularPrice: PerCurrency{OMR: opt.PriceOMR, USD: opt.PriceUSD, SAR: opt.PriceSAR},
		SalePrice:    PerCurrency{OMR: opt.SalePriceOMR, USD: opt.SalePriceUSD, SAR: opt.SalePriceSAR},
	}
	if !abs.RegularPrice.empty() {
		out = append(out, abs)
	}

	legacy := LegacyModifierPrice{
		RegularPrice: PerCurrency{OMR: firstSet(opt.PriceModifierOMR, opt.PriceModifier), USD: opt.PriceModifierUSD, SAR: opt.PriceModifierSAR},
		SalePrice:    PerCurrency{OMR: firstSet(opt.SalePriceModifierOMR, opt.SalePriceModifier), USD: opt.SalePriceModifierUSD, SAR: opt.SalePriceModifierSAR},
	}
	if !legacy.RegularPrice.empty() {
		out = append(out, legacy)
	}
	return out
}

func firstSet(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// OptionOnSale reports whether the option's sale flag is set and now falls
// inside its (optional) sale window.
func OptionOnSale(opt models.ProductPropertyOption, now time.Time) bool {
	return opt.OnSale && windowOpen(opt.SaleStartDate, opt.SaleEndDate, now)
}

func windowOpen(start, end *time.Time, now time.Time) bool {
	if start != nil && start.After(now) {
		return false
	}
	if end != nil && end.Before(now) {
		return false
	}
	return true
}
