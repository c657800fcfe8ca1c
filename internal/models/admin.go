package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Admin is a staff identity. Reservations submitted from an admin email take
// the privileged path: auto-approved, pre-empting overlapping requests.
type Admin struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// SessionClaims is the JWT payload for admin sessions and one-time approver
// link tokens.
type SessionClaims struct {
	AdminID int64  `json:"adminId"`
	Email   string `json:"email"`
	Scope   string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}
