package models

import "time"

// User is the storefront profile. Credentials live with the identity
// provider, never here.
type User struct {
	ID        string    `json:"id" firestore:"id"`
	Email     string    `json:"email" firestore:"email"`
	FullName  string    `json:"full_name" firestore:"full_name"`
	Phone     string    `json:"phone,omitempty" firestore:"phone"`
	Role      string    `json:"role" firestore:"role"`
	Address   *Address  `json:"address,omitempty" firestore:"address"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updated_at"`
}
