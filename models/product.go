package models

import "time"

type Currency string

const (
	OMR Currency = "OMR"
	USD Currency = "USD"
	SAR Currency = "SAR"
)

var Currencies = []Currency{OMR, USD, SAR}

// Places is the number of minor-unit digits the currency is settled in.
func (c Currency) Places() int32 {
	if c == OMR {
		return 3
	}
	return 2
}

func (c Currency) Valid() bool {
	switch c {
	case OMR, USD, SAR:
		return true
	}
	return false
}

// Amounts holds one value per supported currency. OMR is canonical.
type Amounts struct {
	OMR float64 `json:"omr" firestore:"omr"`
	USD float64 `json:"usd" firestore:"usd"`
	SAR float64 `json:"sar" firestore:"sar"`
}

func (a Amounts) In(c Currency) float64 {
	switch c {
	case USD:
		return a.USD
	case SAR:
		return a.SAR
	default:
		return a.OMR
	}
}

func (a *Amounts) Set(c Currency, v float64) {
	switch c {
	case USD:
		a.USD = v
	case SAR:
		a.SAR = v
	default:
		a.OMR = v
	}
}

type PropertyType string

const (
	PropertySelect   PropertyType = "select"
	PropertyRadio    PropertyType = "radio"
	PropertyCheckbox PropertyType = "checkbox"
	PropertyColor    PropertyType = "color"
	PropertySize     PropertyType = "size"
)

// Product is a catalog entry in the products collection.
type Product struct {
	ID            string `json:"id" firestore:"id"`
	CategoryID    string `json:"category_id" firestore:"category_id"`
	Slug          string `json:"slug" firestore:"slug"`
	Name          string `json:"name" firestore:"name"`
	NameAr        string `json:"name_ar" firestore:"name_ar"`
	Description   string `json:"description" firestore:"description"`
	DescriptionAr string `json:"description_ar" firestore:"description_ar"`

	Price    float64 `json:"price_omr" firestore:"price_omr"`
	PriceUSD float64 `json:"price_usd" firestore:"price_usd"`
	PriceSAR float64 `json:"price_sar" firestore:"price_sar"`

	SalePrice     float64    `json:"sale_price_omr" firestore:"sale_price_omr"`
	SalePriceUSD  float64    `json:"sale_price_usd" firestore:"sale_price_usd"`
	SalePriceSAR  float64    `json:"sale_price_sar" firestore:"sale_price_sar"`
	SaleStartDate *time.Time `json:"sale_start_date,omitempty" firestore:"sale_start_date"`
	SaleEndDate   *time.Time `json:"sale_end_date,omitempty" firestore:"sale_end_date"`

	Properties []ProductProperty `json:"properties" firestore:"properties"`

	Image  string   `json:"image" firestore:"image"`
	Images []string `json:"images" firestore:"images"`

	IsActive      bool `json:"is_active" firestore:"is_active"`
	IsFeatured    bool `json:"is_featured" firestore:"is_featured"`
	IsBestseller  bool `json:"is_bestseller" firestore:"is_bestseller"`
	IsOnSale      bool `json:"is_on_sale" firestore:"is_on_sale"`
	StockQuantity int  `json:"stock_quantity" firestore:"stock_quantity"`
	SortOrder     int  `json:"sort_order" firestore:"sort_order"`

	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updated_at"`
}

// BasePrice returns the regular price in c, 0 when unset.
func (p Product) BasePrice(c Currency) float64 {
	switch c {
	case USD:
		return p.PriceUSD
	case SAR:
		return p.PriceSAR
	default:
		return p.Price
	}
}

// SalePriceIn returns the sale price in c, 0 when unset.
func (p Product) SalePriceIn(c Currency) float64 {
	switch c {
	case USD:
		return p.SalePriceUSD
	case SAR:
		return p.SalePriceSAR
	default:
		return p.SalePrice
	}
}

type ProductProperty struct {
	ID           string                  `json:"id" firestore:"id"`
	Name         string                  `json:"name" firestore:"name"`
	NameAr       string                  `json:"name_ar" firestore:"name_ar"`
	Type         PropertyType            `json:"type" firestore:"type"`
	Required     bool                    `json:"required" firestore:"required"`
	AffectsPrice bool                    `json:"affects_price" firestore:"affects_price"`
	Options      []ProductPropertyOption `json:"options" firestore:"options"`
}

// ProductPropertyOption carries two pricing schemes side by side: the legacy
// modifier fields and the absolute price fields. A nil field is unset; an
// explicit zero is a free option.
type ProductPropertyOption struct {
	ID      string `json:"id" firestore:"id"`
	Value   string `json:"value" firestore:"value"`
	Label   string `json:"label" firestore:"label"`
	LabelAr string `json:"label_ar" firestore:"label_ar"`

	PriceModifier    *float64 `json:"price_modifier,omitempty" firestore:"price_modifier"`
	PriceModifierOMR *float64 `json:"price_modifier_omr,omitempty" firestore:"price_modifier_omr"`
	PriceModifierUSD *float64 `json:"price_modifier_usd,omitempty" firestore:"price_modifier_usd"`
	PriceModifierSAR *float64 `json:"price_modifier_sar,omitempty" firestore:"price_modifier_sar"`

	SalePriceModifier    *float64 `json:"sale_price_modifier,omitempty" firestore:"sale_price_modifier"`
	SalePriceModifierOMR *float64 `json:"sale_price_modifier_omr,omitempty" firestore:"sale_price_modifier_omr"`
	SalePriceModifierUSD *float64 `json:"sale_price_modifier_usd,omitempty" firestore:"sale_price_modifier_usd"`
	SalePriceModifierSAR *float64 `json:"sale_price_modifier_sar,omitempty" firestore:"sale_price_modifier_sar"`

	PriceOMR *float64 `json:"price_omr,omitempty" firestore:"price_omr"`
	PriceUSD *float64 `json:"price_usd,omitempty" firestore:"price_usd"`
	PriceSAR *float64 `json:"price_sar,omitempty" firestore:"price_sar"`

	SalePriceOMR *float64 `json:"sale_price_omr,omitempty" firestore:"sale_price_omr"`
	SalePriceUSD *float64 `json:"sale_price_usd,omitempty" firestore:"sale_price_usd"`
	SalePriceSAR *float64 `json:"sale_price_sar,omitempty" firestore:"sale_price_sar"`

	OnSale        bool       `json:"on_sale" firestore:"on_sale"`
	SaleStartDate *time.Time `json:"sale_start_date,omitempty" firestore:"sale_start_date"`
	SaleEndDate   *time.Time `json:"sale_end_date,omitempty" firestore:"sale_end_date"`
}

// Category groups products in the catalog.
type Category struct {
	ID            string    `json:"id" firestore:"id"`
	Slug          string    `json:"slug" firestore:"slug"`
	Name          string    `json:"name" firestore:"name"`
	NameAr        string    `json:"name_ar" firestore:"name_ar"`
	Description   string    `json:"description" firestore:"description"`
	DescriptionAr string    `json:"description_ar" firestore:"description_ar"`
	Image         string    `json:"image" firestore:"image"`
	IsActive      bool      `json:"is_active" firestore:"is_active"`
	SortOrder     int       `json:"sort_order" firestore:"sort_order"`
	CreatedAt     time.Time `json:"created_at" firestore:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" firestore:"updated_at"`
}
