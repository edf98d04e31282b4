package account

import "errors"

var (
	// ErrInvalidAmount occurs when a non-positive amount is supplied to a
	// deposit, withdrawal or transfer.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientFunds is the business rejection of a withdrawal or
	// transfer the account cannot cover. It is an expected outcome, not a
	// system fault, and must never leave a partial mutation behind.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotFound indicates the caller supplied an unknown account number.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInvalidAccountType indicates an unknown account subtype was requested.
	ErrInvalidAccountType = errors.New("invalid account type")

	// ErrInvalidCurrency indicates a currency outside the supported set.
	ErrInvalidCurrency = errors.New("invalid currency")
)
