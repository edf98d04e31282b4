package account

import (
	"context"
	"testing"
)

func TestMemoryRepositorySaveIsIdempotent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	a := newSavings(t, "1000")
	if err := a.Deposit(dec(t, "50.00")); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	if err := repo.Save(ctx, a); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := repo.Save(ctx, a); err != nil {
		t.Fatalf("second save: %v", err)
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 account after double save, got %d", len(all))
	}
	if !all[0].Snapshot().Balance.Equal(dec(t, "50.00")) {
		t.Fatalf("persisted state changed across idempotent saves")
	}
}

func TestMemoryRepositoryReturnsCanonicalInstance(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	a := newSavings(t, "1000")
	if err := repo.Save(ctx, a); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.FindByID(ctx, "1000")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got != a {
		t.Fatalf("repository must hand out the same aggregate instance")
	}
}

func TestMemoryRepositoryFindByIDNotFound(t *testing.T) {
	repo := NewMemoryRepository()
	if _, err := repo.FindByID(context.Background(), "9999"); err != ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestMemoryRepositoryFindAllOrdered(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for _, n := range []string{"1002", "1000", "1001"} {
		if err := repo.Save(ctx, newSavings(t, n)); err != nil {
			t.Fatalf("save %s: %v", n, err)
		}
	}

	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	want := []string{"1000", "1001", "1002"}
	for i, a := range all {
		if a.Number() != want[i] {
			t.Fatalf("expected order %v, got %s at %d", want, a.Number(), i)
		}
	}
}
