package models

import "time"

// CartItem represents a single line in the user's cart.
type CartItem struct {
	ID        string    `json:"id" firestore:"id"`
	UserID    string    `json:"user_id" firestore:"user_id"`
	ProductID string    `json:"product_id" firestore:"product_id"`
	OptionID  string    `json:"option_id,omitempty" firestore:"option_id"` // selected priced option, if any
	Quantity  int       `json:"quantity" firestore:"quantity"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updated_at"`
}

// CartLine is a cart item joined with its product and resolved unit price.
type CartLine struct {
	CartItem
	ProductName  string   `json:"product_name"`
	ProductImage string   `json:"product_image"`
	OptionLabel  string   `json:"option_label,omitempty"`
	Currency     Currency `json:"currency"`
	UnitPrice    float64  `json:"unit_price"`
	LineTotal    float64  `json:"line_total"`
}
