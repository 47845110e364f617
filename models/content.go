package models

import "time"

// Page is editable storefront content such as the homepage.
type Page struct {
	ID              string         `json:"id" firestore:"id"`
	Slug            string         `json:"slug" firestore:"slug"`
	Title           string         `json:"title" firestore:"title"`
	TitleAr         string         `json:"title_ar" firestore:"title_ar"`
	Content         string         `json:"content" firestore:"content"`
	ContentAr       string         `json:"content_ar" firestore:"content_ar"`
	Sections        map[string]any `json:"sections,omitempty" firestore:"sections"`
	MetaDescription string         `json:"meta_description,omitempty" firestore:"meta_description"`
	IsPublished     bool           `json:"is_published" firestore:"is_published"`
	UpdatedAt       time.Time      `json:"updated_at" firestore:"updated_at"`
}

// SiteSettings is the single store-wide settings document.
type SiteSettings struct {
	ID                    string    `json:"id" firestore:"id"`
	StoreName             string    `json:"store_name" firestore:"store_name"`
	ContactEmail          string    `json:"contact_email" firestore:"contact_email"`
	ContactPhone          string    `json:"contact_phone" firestore:"contact_phone"`
	DefaultCurrency       Currency  `json:"default_currency" firestore:"default_currency"`
	ShippingFee           Amounts   `json:"shipping_fee" firestore:"shipping_fee"`
	FreeShippingThreshold Amounts   `json:"free_shipping_threshold" firestore:"free_shipping_threshold"`
	TaxRate               float64   `json:"tax_rate" firestore:"tax_rate"`
	MaintenanceMode       bool      `json:"maintenance_mode" firestore:"maintenance_mode"`
	UpdatedAt             time.Time `json:"updated_at" firestore:"updated_at"`
}

type Review struct {
	ID         string    `json:"id" firestore:"id"`
	ProductID  string    `json:"product_id" firestore:"product_id"`
	UserID     string    `json:"user_id" firestore:"user_id"`
	UserName   string    `json:"user_name" firestore:"user_name"`
	Rating     int       `json:"rating" firestore:"rating" validate:"min=1,max=5"`
	Title      string    `json:"title,omitempty" firestore:"title"`
	Comment    string    `json:"comment" firestore:"comment" validate:"required"`
	IsApproved bool      `json:"is_approved" firestore:"is_approved"`
	CreatedAt  time.Time `json:"created_at" firestore:"created_at"`
}

type Newsletter struct {
	ID           string    `json:"id" firestore:"id"`
	Email        string    `json:"email" firestore:"email"`
	IsActive     bool      `json:"is_active" firestore:"is_active"`
	SubscribedAt time.Time `json:"subscribed_at" firestore:"subscribed_at"`
}
