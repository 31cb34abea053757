package auth

import "time"

// Role IDs are fixed reference data seeded by migration.
const (
	RoleAdmin   int64 = 1
	RoleManager int64 = 2
	RoleViewer  int64 = 3
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleID       int64     `json:"role"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`

	// Reset fields travel together: a token always has an expiry and an
	// issuance time.
	ResetToken          *string    `json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	ResetTokenIssuedAt  *time.Time `json:"-"`
}

// BlacklistedToken is one row of the revoked-token ledger.
type BlacklistedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
