package auth

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fincore/fincore/internal/account"
	"github.com/fincore/fincore/internal/bank"
	"github.com/fincore/fincore/internal/logging"
)

func newTestAuth(t *testing.T) *Service {
	t.Helper()
	repo := account.NewMemoryRepository()
	bankSvc := bank.NewService(repo, bank.NewCounter(1000), account.DefaultTerms(), nil, logging.Discard())
	return NewService(NewMemoryRepository(), NewMemorySessionStore(time.Minute), bankSvc)
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	svc := newTestAuth(t)
	ctx := context.Background()

	snap, err := svc.Register(ctx, RegisterInput{
		Type:     "savings",
		Owner:    "Alice Engineer",
		Currency: "USD",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if snap.Number == "" {
		t.Fatalf("register must return the opened account")
	}

	token, err := svc.Login(ctx, snap.Number, "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	accountID, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if accountID != snap.Number {
		t.Fatalf("expected account %s, got %s", snap.Number, accountID)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newTestAuth(t)
	ctx := context.Background()

	snap, err := svc.Register(ctx, RegisterInput{Type: "checking", Owner: "Bob Builder", Currency: "EUR", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, snap.Number, "not the password"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "4242", "hunter2hunter2"); err != ErrInvalidCredentials {
		t.Fatalf("unknown account must look like bad credentials, got %v", err)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newTestAuth(t)
	if _, err := svc.Register(context.Background(), RegisterInput{Type: "savings", Owner: "x", Currency: "USD", Password: "short"}); err == nil {
		t.Fatalf("expected short password rejection")
	}
}

func TestAuthenticateRejectsUnknownToken(t *testing.T) {
	svc := newTestAuth(t)
	if _, err := svc.Authenticate(context.Background(), "bogus"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), ""); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore(-time.Second)
	ctx := context.Background()

	if err := store.Put(ctx, "tok", "1000"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Get(ctx, "tok"); err != ErrInvalidToken {
		t.Fatalf("expected expired token rejection, got %v", err)
	}
}

func TestRedisSessionStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisSessionStore(client, time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, "tok", "1000"); err != nil {
		t.Fatalf("put: %v", err)
	}
	accountID, err := store.Get(ctx, "tok")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if accountID != "1000" {
		t.Fatalf("expected account 1000, got %s", accountID)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, "tok"); err != ErrInvalidToken {
		t.Fatalf("expected expired token rejection, got %v", err)
	}
}
