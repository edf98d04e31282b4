package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fincore/fincore/internal/account"
	"github.com/fincore/fincore/internal/bank"
)

const minPasswordLength = 8

// Service manages registration, login and session resolution.
type Service struct {
	repo     Repository
	sessions SessionStore
	bank     *bank.Service
}

// NewService creates the auth service.
func NewService(repo Repository, sessions SessionStore, bankSvc *bank.Service) *Service {
	return &Service{repo: repo, sessions: sessions, bank: bankSvc}
}

// RegisterInput captures data required to open an account with credentials.
type RegisterInput struct {
	Type     string
	Owner    string
	Currency string
	Password string
}

// Register opens the ledger account and stores the bcrypt hash of the
// password against its number.
func (s *Service) Register(ctx context.Context, input RegisterInput) (account.Snapshot, error) {
	if len(input.Password) < minPasswordLength {
		return account.Snapshot{}, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return account.Snapshot{}, err
	}

	snap, err := s.bank.CreateAccount(ctx, input.Type, input.Owner, input.Currency)
	if err != nil {
		return account.Snapshot{}, err
	}

	cred := Credential{
		AccountNumber: snap.Number,
		PasswordHash:  hash,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, cred); err != nil {
		return account.Snapshot{}, err
	}
	return snap, nil
}

// Login verifies the password and mints an opaque session token.
func (s *Service) Login(ctx context.Context, accountNumber, password string) (string, error) {
	cred, err := s.repo.FindByAccount(ctx, accountNumber)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword(cred.PasswordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.sessions.Put(ctx, token, accountNumber); err != nil {
		return "", err
	}
	return token, nil
}

// Authenticate resolves a session token to the account number it belongs to.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	return s.sessions.Get(ctx, token)
}
