package account

import "context"

// Repository owns the mapping from account number to Account aggregate and is
// the only component that materializes or discards aggregate instances.
// Implementations must hand out one aggregate instance per account number so
// the per-account lock stays meaningful across callers.
type Repository interface {
	// Save is an idempotent upsert of the account's scalar fields plus the
	// append of any transactions not yet persisted. It either fully applies
	// or fails with a storage error; it never partially applies. The caller
	// holds the account lock (or has exclusive access to a fresh aggregate).
	Save(ctx context.Context, a *Account) error

	// SavePair persists two mutated accounts in one storage transaction, so
	// a transfer's debit and credit become durable atomically. Both locks
	// are held by the caller.
	SavePair(ctx context.Context, a, b *Account) error

	// FindByID returns the aggregate for the account number, or
	// ErrAccountNotFound.
	FindByID(ctx context.Context, number string) (*Account, error)

	// FindAll returns every known account. The result is unbounded;
	// pagination is a documented limitation, not solved here.
	FindAll(ctx context.Context) ([]*Account, error)
}
