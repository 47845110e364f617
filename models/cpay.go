package models

import (
	"time"
)

// WebhookEvent is an append-only record of a gateway notification, written
// before the webhook is acknowledged.
type WebhookEvent struct {
	ID               string    `bson:"_id" json:"id"`
	OrderID          string    `bson:"order_id" json:"order_id"`
	Payload          string    `bson:"payload" json:"payload"`
	SignaturePresent bool      `bson:"signature_present" json:"signature_present"`
	SignatureValid   bool      `bson:"signature_valid" json:"signature_valid"`
	ReceivedAt       time.Time `bson:"received_at" json:"received_at"`
	Processed        bool      `bson:"processed" json:"processed"`
	ProcessedAt      time.Time `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
	Outcome          string    `bson:"outcome,omitempty" json:"outcome,omitempty"`
	Attempts         int       `bson:"attempts" json:"attempts"`
	LastError        string    `bson:"last_error,omitempty" json:"last_error,omitempty"`
}

// OrphanOrder is a gateway order whose session could not be created.
type OrphanOrder struct {
	OrderID    string    `bson:"order_id" json:"order_id"`
	Cause      string    `bson:"cause" json:"cause"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	Resolved   bool      `bson:"resolved" json:"resolved"`
	Status     string    `bson:"status,omitempty" json:"status,omitempty"`
	ResolvedAt time.Time `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
}

// IdempotencyRecord represents an idempotency key record stored in Mongo.
type IdempotencyRecord struct {
	Key         string                 `bson:"key" json:"key"`
	Method      string                 `bson:"method" json:"method"`
	Path        string                 `bson:"path" json:"path"`
	UserID      string                 `bson:"user_id,omitempty" json:"user_id,omitempty"`
	RequestHash string                 `bson:"request_hash" json:"request_hash"`
	Response    map[string]interface{} `bson:"response,omitempty" json:"response,omitempty"`
	CreatedAt   time.Time              `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time              `bson:"expires_at" json:"expires_at"`
}
