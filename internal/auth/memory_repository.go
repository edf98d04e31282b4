package auth

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewMemoryRepository builds an in-memory credential store for dev mode and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{creds: make(map[string]Credential)}
}

func (r *memoryRepository) Create(_ context.Context, cred Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.creds[cred.AccountNumber]; exists {
		return errors.New("credential exists")
	}
	r.creds[cred.AccountNumber] = cred
	return nil
}

func (r *memoryRepository) FindByAccount(_ context.Context, accountNumber string) (Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cred, ok := r.creds[accountNumber]
	if !ok {
		return Credential{}, ErrInvalidCredentials
	}
	return cred, nil
}
