package bank

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/fincore/fincore/internal/account"
	"github.com/fincore/fincore/internal/notification"
)

// NumberSource allocates fresh, collision-free account numbers. It is an
// opaque dependency injected at construction.
type NumberSource interface {
	Next() string
}

// Counter is the default NumberSource: a monotonic atomic counter.
type Counter struct {
	next int64
}

// NewCounter returns a counter issuing numbers from start upwards.
func NewCounter(start int64) *Counter {
	return &Counter{next: start - 1}
}

// Next returns the next account number.
func (c *Counter) Next() string {
	return strconv.FormatInt(atomic.AddInt64(&c.next, 1), 10)
}

// Service wraps the repository and the transfer engine behind a single API:
// account opening, lookup, the four balance mutations and the end-of-period
// batch.
type Service struct {
	repo     account.Repository
	numbers  NumberSource
	terms    account.Terms
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds the account service. notifier may be nil.
func NewService(repo account.Repository, numbers NumberSource, terms account.Terms, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, numbers: numbers, terms: terms, notifier: notifier, logger: logger}
}

// CreateAccount opens a savings or checking account with zero balance and
// empty history, persists it and returns its read model.
func (s *Service) CreateAccount(ctx context.Context, subtype, owner, currency string) (account.Snapshot, error) {
	typ, err := account.ParseType(subtype)
	if err != nil {
		return account.Snapshot{}, err
	}
	cur, err := account.ParseCurrency(currency)
	if err != nil {
		return account.Snapshot{}, err
	}

	a, err := account.New(s.numbers.Next(), owner, typ, cur, s.terms)
	if err != nil {
		return account.Snapshot{}, err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		return account.Snapshot{}, err
	}
	s.logger.Info("account opened", "account", a.Number(), "type", typ, "owner", owner)
	return a.Snapshot(), nil
}

// GetAccount returns the read model for an account number.
func (s *Service) GetAccount(ctx context.Context, id string) (account.Snapshot, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return account.Snapshot{}, err
	}
	return a.Snapshot(), nil
}

// Deposit adds amount to the account. The account lock is held for the
// mutation and across the persistence call, so readers never observe a saved
// state diverging from the in-memory one.
func (s *Service) Deposit(ctx context.Context, id string, amount decimal.Decimal) error {
	return s.mutate(ctx, id, func(a *account.Account) error {
		return a.Deposit(amount)
	})
}

// Withdraw removes amount from the account under its subtype policy.
func (s *Service) Withdraw(ctx context.Context, id string, amount decimal.Decimal) error {
	return s.mutate(ctx, id, func(a *account.Account) error {
		return a.Withdraw(amount)
	})
}

func (s *Service) mutate(ctx context.Context, id string, op func(*account.Account) error) error {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	a.Lock()
	defer a.Unlock()
	mark := a.HistoryLength()
	if err := op(a); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, a); err != nil {
		a.RollbackTo(mark)
		return err
	}
	return nil
}

// BatchResult reports the outcome of end-of-period processing for one account.
type BatchResult struct {
	AccountID string
	Err       error
}

// RunEndOfPeriod applies interest and fees to every account. A failure on one
// account does not abort the others; failures are collected for reporting.
func (s *Service) RunEndOfPeriod(ctx context.Context) ([]BatchResult, error) {
	accounts, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]BatchResult, 0, len(accounts))
	for _, a := range accounts {
		err := func() error {
			a.Lock()
			defer a.Unlock()
			mark := a.HistoryLength()
			a.ApplyEndOfPeriod()
			if err := s.repo.Save(ctx, a); err != nil {
				a.RollbackTo(mark)
				return err
			}
			return nil
		}()
		if err != nil {
			s.logger.Error("end of period processing failed", "account", a.Number(), "error", err)
		}
		results = append(results, BatchResult{AccountID: a.Number(), Err: err})
	}
	return results, nil
}

func (s *Service) notifyCredit(ctx context.Context, to, from string, amount decimal.Decimal) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindTransferCredit,
		Destination: to,
		Body:        fmt.Sprintf("You received %s from account %s", amount.StringFixed(2), from),
	})
}
