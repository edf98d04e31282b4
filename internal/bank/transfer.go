package bank

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fincore/fincore/internal/account"
)

// Transfer moves amount from one account to another as a single unit: either
// both the debit and the credit are observable, or neither is.
//
// Deadlock avoidance: the two account locks are always acquired in
// lexicographic account-number order, regardless of transfer direction. Any
// two concurrent transfers touching the same pair therefore take the locks in
// the same relative order, so no cycle of waiting locks can form. Every
// operation that ever holds more than one account lock must use this order.
//
// Both locks are held across persistence; SavePair commits both accounts in
// one storage transaction, so the durable debit and credit appear atomically
// as well.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return account.ErrInvalidAmount
	}

	from, err := s.repo.FindByID(ctx, fromID)
	if err != nil {
		return err
	}
	to, err := s.repo.FindByID(ctx, toID)
	if err != nil {
		return err
	}

	// A self-transfer would acquire the same lock twice; Go mutexes are not
	// reentrant, so it is special-cased to a validated no-op before locking.
	if fromID == toID {
		return nil
	}

	first, second := from, to
	if toID < fromID {
		first, second = to, from
	}
	first.Lock()
	defer first.Unlock()
	second.Lock()
	defer second.Unlock()

	fromMark := from.HistoryLength()
	toMark := to.HistoryLength()

	// SendTransfer performs the funds check before any mutation, so a
	// failure here leaves both accounts untouched.
	if err := from.SendTransfer(amount, toID); err != nil {
		return err
	}
	if err := to.ReceiveTransfer(amount, fromID); err != nil {
		from.RollbackTo(fromMark)
		return err
	}

	if err := s.repo.SavePair(ctx, from, to); err != nil {
		from.RollbackTo(fromMark)
		to.RollbackTo(toMark)
		return err
	}

	s.logger.Info("transfer completed", "from", fromID, "to", toID, "amount", amount.StringFixed(2))
	s.notifyCredit(ctx, toID, fromID, amount)
	return nil
}
