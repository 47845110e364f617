package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/models"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func f(v float64) *float64 { return &v }

func ts(t time.Time) *time.Time { return &t }

func plainProduct() models.Product {
	return models.Product{
		ID:       "p1",
		Price:    10,
		PriceUSD: 26,
		PriceSAR: 97.5,
	}
}

func optionProduct(opts ...models.ProductPropertyOption) models.Product {
	p := plainProduct()
	p.Properties = []models.ProductProperty{
		{ID: "grind", Name: "Grind", Type: models.PropertySelect},
		{ID: "weight", Name: "Weight", Type: models.PropertySize, AffectsPrice: true, Options: opts},
	}
	return p
}

func TestResolve_BasePriceWhenNotOnSale(t *testing.T) {
	p := plainProduct()
	p.SalePrice = 8

	for _, c := range models.Currencies {
		got := Resolve(p, "", c, now)
		assert.Equal(t, p.BasePrice(c), got.Amount, c)
		assert.Equal(t, SourceBase, got.Source)
		assert.False(t, got.OnSale)
	}
}

func TestResolve_ProductSalePrice(t *testing.T) {
	p := plainProduct()
	p.IsOnSale = true
	p.SalePrice = 8

	got := Resolve(p, "", models.OMR, now)
	assert.Equal(t, 8.0, got.Amount)
	assert.True(t, got.OnSale)
	assert.Equal(t, 2.0, got.Discount())
}

func TestResolve_SaleNotBelowBaseReportsNonPositiveDiscount(t *testing.T) {
	p := plainProduct()
	p.IsOnSale = true
	p.SalePrice = 12

	got := Resolve(p, "", models.OMR, now)
	assert.Equal(t, 10.0, got.Amount, "falls back to base price")
	assert.True(t, got.OnSale, "still reported as on sale")
	assert.LessOrEqual(t, got.Discount(), 0.0)
}

func TestResolve_SaleMissingForCurrencyFallsBackToBase(t *testing.T) {
	p := plainProduct()
	p.IsOnSale = true
	p.SalePrice = 8

	got := Resolve(p, "", models.USD, now)
	assert.Equal(t, 26.0, got.Amount)
	assert.True(t, got.OnSale)
}

func TestResolve_ProductSaleWindow(t *testing.T) {
	p := plainProduct()
	p.IsOnSale = true
	p.SalePrice = 8

	p.SaleStartDate = ts(now.Add(time.Hour))
	assert.Equal(t, 10.0, Resolve(p, "", models.OMR, now).Amount)

	p.SaleStartDate = ts(now.Add(-time.Hour))
	p.SaleEndDate = ts(now.Add(-time.Minute))
	assert.Equal(t, 10.0, Resolve(p, "", models.OMR, now).Amount)

	p.SaleEndDate = ts(now.Add(time.Hour))
	assert.Equal(t, 8.0, Resolve(p, "", models.OMR, now).Amount)
}

func TestResolve_ModifierIsStandalonePrice(t *testing.T) {
	p := optionProduct(
		models.ProductPropertyOption{ID: "250g", Value: "250g", PriceModifierOMR: f(4.5), PriceModifierUSD: f(11.7)},
		models.ProductPropertyOption{ID: "1kg", Value: "1kg", PriceModifier: f(15)},
	)

	got := Resolve(p, "250g", models.OMR, now)
	assert.Equal(t, 4.5, got.Amount, "modifier is never added to the base price")
	assert.NotEqual(t, p.Price+4.5, got.Amount)
	assert.Equal(t, SourceModifier, got.Source)

	assert.Equal(t, 11.7, Resolve(p, "250g", models.USD, now).Amount)
	assert.Equal(t, 15.0, Resolve(p, "1kg", models.OMR, now).Amount, "plain modifier counts as OMR")
}

func TestResolve_AbsoluteWinsOverModifier(t *testing.T) {
	p := optionProduct(models.ProductPropertyOption{
		ID: "500g", PriceOMR: f(7), PriceModifierOMR: f(3),
	})

	got := Resolve(p, "500g", models.OMR, now)
	assert.Equal(t, 7.0, got.Amount)
	assert.Equal(t, SourceAbsolute, got.Source)
}

func TestResolve_AbsoluteMissingForCurrencyUsesModifier(t *testing.T) {
	p := optionProduct(models.ProductPropertyOption{
		ID: "500g", PriceOMR: f(7), PriceModifierSAR: f(70),
	})

	got := Resolve(p, "500g", models.SAR, now)
	assert.Equal(t, 70.0, got.Amount)
	assert.Equal(t, SourceModifier, got.Source)
}

func TestResolve_OptionSale(t *testing.T) {
	opt := models.ProductPropertyOption{
		ID: "500g", PriceOMR: f(7), SalePriceOMR: f(6), OnSale: true,
	}
	p := optionProduct(opt)

	got := Resolve(p, "500g", models.OMR, now)
	assert.Equal(t, 6.0, got.Amount)
	assert.Equal(t, 1.0, got.Discount())

	p.Properties[1].Options[0].SaleEndDate = ts(now.Add(-time.Hour))
	assert.Equal(t, 7.0, Resolve(p, "500g", models.OMR, now).Amount)

	p.Properties[1].Options[0].SaleEndDate = nil
	p.Properties[1].Options[0].SaleStartDate = ts(now.Add(time.Hour))
	assert.Equal(t, 7.0, Resolve(p, "500g", models.OMR, now).Amount)
}

func TestResolve_ModifierSale(t *testing.T) {
	p := optionProduct(models.ProductPropertyOption{
		ID: "250g", PriceModifierOMR: f(5), SalePriceModifierOMR: f(4), OnSale: true,
	})
	assert.Equal(t, 4.0, Resolve(p, "250g", models.OMR, now).Amount)
}

func TestResolve_DefaultSelectionIsFirstOption(t *testing.T) {
	p := optionProduct(
		models.ProductPropertyOption{ID: "250g", PriceOMR: f(4)},
		models.ProductPropertyOption{ID: "1kg", PriceOMR: f(14)},
	)

	got := Resolve(p, "", models.OMR, now)
	assert.Equal(t, 4.0, got.Amount)
	assert.Equal(t, "250g", got.OptionID)

	assert.Equal(t, 4.0, Resolve(p, "does-not-exist", models.OMR, now).Amount)
}

func TestResolve_SelectByValue(t *testing.T) {
	p := optionProduct(
		models.ProductPropertyOption{ID: "a", Value: "250g", PriceOMR: f(4)},
		models.ProductPropertyOption{ID: "b", Value: "1kg", PriceOMR: f(14)},
	)
	assert.Equal(t, 14.0, Resolve(p, "1kg", models.OMR, now).Amount)
}

func TestResolve_FreeOptionIsNotUnset(t *testing.T) {
	p := optionProduct(models.ProductPropertyOption{ID: "sample", PriceOMR: f(0)})

	got := Resolve(p, "sample", models.OMR, now)
	assert.Equal(t, 0.0, got.Amount)
	assert.Equal(t, SourceAbsolute, got.Source)
}

func TestResolve_AllUnsetDegradesToZero(t *testing.T) {
	p := optionProduct(models.ProductPropertyOption{ID: "x"})
	got := Resolve(p, "x", models.OMR, now)
	assert.Equal(t, 0.0, got.Amount)
	assert.Equal(t, SourceNone, got.Source)

	empty := Resolve(models.Product{}, "", models.USD, now)
	assert.Equal(t, 0.0, empty.Amount)
	assert.Equal(t, SourceNone, empty.Source)
}

func TestResolve_NonPricingPropertiesIgnored(t *testing.T) {
	p := plainProduct()
	p.Properties = []models.ProductProperty{
		{ID: "grind", Options: []models.ProductPropertyOption{{ID: "fine", PriceOMR: f(99)}}},
		{ID: "empty", AffectsPrice: true},
	}
	got := Resolve(p, "fine", models.OMR, now)
	assert.Equal(t, 10.0, got.Amount)
	assert.Equal(t, SourceBase, got.Source)
}

func TestResolve_UnknownCurrencyUsesOMR(t *testing.T) {
	got := Resolve(plainProduct(), "", models.Currency("EUR"), now)
	assert.Equal(t, models.OMR, got.Currency)
	assert.Equal(t, 10.0, got.Amount)
}

func TestLineTotalAndRound(t *testing.T) {
	assert.Equal(t, 13.5, LineTotal(Price{Amount: 4.5, Currency: models.OMR}, 3))
	assert.Equal(t, 0.3, LineTotal(Price{Amount: 0.1, Currency: models.USD}, 3))
	assert.Equal(t, 1.235, Round(1.2345, models.OMR))
	assert.Equal(t, 1.23, Round(1.2345, models.SAR))
}

func TestResolveAll(t *testing.T) {
	all := ResolveAll(plainProduct(), "", now)
	assert.Len(t, all, 3)
	assert.Equal(t, 97.5, all[models.SAR].Amount)
}
