package auth

import (
	"errors"
	"time"
)

// Credential binds a bcrypt password hash to an account number. Credentials
// are created at account-opening time and never exposed outside this package.
type Credential struct {
	AccountNumber string
	PasswordHash  []byte
	CreatedAt     time.Time
}

var (
	// ErrInvalidCredentials covers both unknown accounts and wrong passwords,
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken indicates a missing or expired session token.
	ErrInvalidToken = errors.New("invalid or expired session token")
)
