package models

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type Address struct {
	FullName   string `json:"full_name" firestore:"full_name" validate:"required"`
	Phone      string `json:"phone" firestore:"phone" validate:"required"`
	Line1      string `json:"line1" firestore:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty" firestore:"line2"`
	City       string `json:"city" firestore:"city" validate:"required"`
	State      string `json:"state,omitempty" firestore:"state"`
	PostalCode string `json:"postal_code,omitempty" firestore:"postal_code"`
	Country    string `json:"country" firestore:"country" validate:"required"`
}

// Order is the local record of a checkout. Status and PaymentStatus move
// independently of each other.
type Order struct {
	ID            string        `json:"id" firestore:"id"`
	OrderNumber   string        `json:"order_number" firestore:"order_number"`
	UserID        string        `json:"user_id" firestore:"user_id"`
	Status        OrderStatus   `json:"status" firestore:"status"`
	PaymentStatus PaymentStatus `json:"payment_status" firestore:"payment_status"`
	PaymentMethod string        `json:"payment_method" firestore:"payment_method"`
	Currency      Currency      `json:"currency" firestore:"currency"`

	Subtotal Amounts `json:"subtotal" firestore:"subtotal"`
	Shipping Amounts `json:"shipping" firestore:"shipping"`
	Tax      Amounts `json:"tax" firestore:"tax"`
	Total    Amounts `json:"total" firestore:"total"`

	ShippingAddress Address `json:"shipping_address" firestore:"shipping_address"`
	CustomerEmail   string  `json:"customer_email" firestore:"customer_email"`
	CustomerPhone   string  `json:"customer_phone" firestore:"customer_phone"`
	Notes           string  `json:"notes,omitempty" firestore:"notes"`

	PaymentReference string     `json:"payment_reference,omitempty" firestore:"payment_reference"`
	PaidAt           *time.Time `json:"paid_at,omitempty" firestore:"paid_at"`

	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updated_at"`
}

// OrderItem denormalizes the product at time of purchase.
type OrderItem struct {
	ID            string    `json:"id" firestore:"id"`
	OrderID       string    `json:"order_id" firestore:"order_id"`
	ProductID     string    `json:"product_id" firestore:"product_id"`
	ProductName   string    `json:"product_name" firestore:"product_name"`
	ProductNameAr string    `json:"product_name_ar" firestore:"product_name_ar"`
	ProductImage  string    `json:"product_image" firestore:"product_image"`
	OptionID      string    `json:"option_id,omitempty" firestore:"option_id"`
	OptionLabel   string    `json:"option_label,omitempty" firestore:"option_label"`
	Quantity      int       `json:"quantity" firestore:"quantity"`
	UnitPrice     Amounts   `json:"unit_price" firestore:"unit_price"`
	TotalPrice    Amounts   `json:"total_price" firestore:"total_price"`
	CreatedAt     time.Time `json:"created_at" firestore:"created_at"`
}
