package account

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

// NewMemoryRepository constructs a volatile, process-lifetime repository. The
// map holds the canonical aggregate instances, so every caller shares each
// account's lock. State is lost on restart.
func NewMemoryRepository() Repository {
	return &memoryRepository{accounts: make(map[string]*Account)}
}

func (r *memoryRepository) Save(_ context.Context, a *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[a.number] = a
	a.markPersisted()
	return nil
}

func (r *memoryRepository) SavePair(ctx context.Context, a, b *Account) error {
	if err := r.Save(ctx, a); err != nil {
		return err
	}
	return r.Save(ctx, b)
}

func (r *memoryRepository) FindByID(_ context.Context, number string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[number]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

func (r *memoryRepository) FindAll(_ context.Context) ([]*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].number < out[j].number })
	return out, nil
}
