package account

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Currency is one of the fixed set of supported currencies.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyINR Currency = "INR"
	CurrencyGBP Currency = "GBP"
)

// ParseCurrency validates a currency code, accepting any casing.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(s)) {
	case CurrencyUSD, CurrencyEUR, CurrencyINR, CurrencyGBP:
		return Currency(strings.ToUpper(s)), nil
	default:
		return "", ErrInvalidCurrency
	}
}

// Type tags the account subtype. The subtype determines the withdrawal policy
// and the end-of-period behavior.
type Type string

const (
	TypeSavings  Type = "savings"
	TypeChecking Type = "checking"
)

// ParseType validates an account subtype, accepting any casing.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(s)) {
	case TypeSavings, TypeChecking:
		return Type(strings.ToLower(s)), nil
	default:
		return "", ErrInvalidAccountType
	}
}

// minorUnitPlaces is the decimal precision of the supported currencies.
const minorUnitPlaces = 2

// Terms carries the subtype-specific parameters. They are fixed at
// construction time and shared by every account of the same subtype.
type Terms struct {
	// InterestRate is the savings end-of-period rate, e.g. 0.03 for 3%.
	InterestRate decimal.Decimal
	// OverdraftLimit bounds how far a checking balance may go negative.
	OverdraftLimit decimal.Decimal
	// MaintenanceFee is deducted from checking accounts each period.
	MaintenanceFee decimal.Decimal
}

// DefaultTerms returns the standard product parameters.
func DefaultTerms() Terms {
	return Terms{
		InterestRate:   decimal.NewFromFloat(0.03),
		OverdraftLimit: decimal.RequireFromString("500.00"),
		MaintenanceFee: decimal.RequireFromString("12.00"),
	}
}

// policy is the capability interface dispatching subtype-specific rules.
// Adding a third subtype means adding a policy implementation, not touching
// the aggregate.
type policy interface {
	// withdrawable reports the maximum amount a withdrawal may take from the
	// given balance.
	withdrawable(balance decimal.Decimal) decimal.Decimal
	// endOfPeriod applies interest or fees to the account. The account lock
	// is already held.
	endOfPeriod(a *Account)
}

type savingsPolicy struct {
	rate decimal.Decimal
}

func (p savingsPolicy) withdrawable(balance decimal.Decimal) decimal.Decimal {
	return balance
}

func (p savingsPolicy) endOfPeriod(a *Account) {
	interest := a.balance.Mul(p.rate).Round(minorUnitPlaces)
	if !interest.IsPositive() {
		return
	}
	a.apply(newTransaction(KindDeposit, interest, "interest credit"))
}

type checkingPolicy struct {
	overdraft decimal.Decimal
	fee       decimal.Decimal
}

func (p checkingPolicy) withdrawable(balance decimal.Decimal) decimal.Decimal {
	return balance.Add(p.overdraft)
}

// endOfPeriod always collects the maintenance fee, even past the overdraft
// limit. Fees bypass the withdrawal funds check.
func (p checkingPolicy) endOfPeriod(a *Account) {
	a.apply(newTransaction(KindWithdrawal, p.fee.Neg(), "maintenance fee"))
}

// Account is the mutable ledger aggregate: one balance plus its append-only
// transaction history, guarded by its own lock.
//
// The lock is exposed through Lock/Unlock so the two-lock transfer protocol
// and its ordering rule stay auditable at the call site. Every mutating
// method and Balance assume the caller holds the lock; Snapshot acquires it
// itself.
type Account struct {
	mu sync.Mutex

	number   string
	owner    string
	currency Currency
	typ      Type
	balance  decimal.Decimal
	history  []Transaction
	policy   policy

	// persisted counts the history prefix already written by the durable
	// repository, so Save appends only new rows.
	persisted int
}

// New constructs a zero-balance account of the given subtype.
func New(number, owner string, typ Type, currency Currency, terms Terms) (*Account, error) {
	a := &Account{
		number:   number,
		owner:    owner,
		currency: currency,
		typ:      typ,
		balance:  decimal.Zero,
	}
	switch typ {
	case TypeSavings:
		a.policy = savingsPolicy{rate: terms.InterestRate}
	case TypeChecking:
		a.policy = checkingPolicy{overdraft: terms.OverdraftLimit, fee: terms.MaintenanceFee}
	default:
		return nil, ErrInvalidAccountType
	}
	return a, nil
}

// restore rebuilds an aggregate from persisted state. Only the repository
// materializes accounts this way; the full history is marked persisted.
func restore(number, owner string, typ Type, currency Currency, terms Terms, balance decimal.Decimal, history []Transaction) (*Account, error) {
	a, err := New(number, owner, typ, currency, terms)
	if err != nil {
		return nil, err
	}
	a.balance = balance
	a.history = history
	a.persisted = len(history)
	return a, nil
}

// Lock acquires the account's mutual-exclusion lock.
func (a *Account) Lock() { a.mu.Lock() }

// Unlock releases the account's mutual-exclusion lock.
func (a *Account) Unlock() { a.mu.Unlock() }

// Number returns the account number, stable for the account's lifetime.
func (a *Account) Number() string { return a.number }

// Owner returns the account holder's name.
func (a *Account) Owner() string { return a.owner }

// Currency returns the account currency.
func (a *Account) Currency() Currency { return a.currency }

// Type returns the account subtype tag.
func (a *Account) Type() Type { return a.typ }

// Balance returns the current balance. Caller holds the lock.
func (a *Account) Balance() decimal.Decimal { return a.balance }

// apply commits a balance mutation and its transaction record together, so
// the balance always equals the signed sum of the history.
func (a *Account) apply(tx Transaction) {
	a.balance = a.balance.Add(tx.Amount)
	a.history = append(a.history, tx)
}

// Deposit adds a positive amount to the balance. Caller holds the lock.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	a.apply(newTransaction(KindDeposit, amount, "cash deposit"))
	return nil
}

// Withdraw removes a positive amount, subject to the subtype's policy:
// savings balances never go negative, checking balances may go as low as the
// negated overdraft limit. Caller holds the lock.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if a.policy.withdrawable(a.balance).LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.apply(newTransaction(KindWithdrawal, amount.Neg(), "cash withdrawal"))
	return nil
}

// ReceiveTransfer credits an incoming transfer. Caller holds the lock.
func (a *Account) ReceiveTransfer(amount decimal.Decimal, from string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	a.apply(newTransaction(KindTransferIn, amount, fmt.Sprintf("from %s", from)))
	return nil
}

// SendTransfer debits an outgoing transfer under the same overdraft policy as
// Withdraw. Caller holds the lock.
func (a *Account) SendTransfer(amount decimal.Decimal, to string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if a.policy.withdrawable(a.balance).LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.apply(newTransaction(KindTransferOut, amount.Neg(), fmt.Sprintf("to %s", to)))
	return nil
}

// ApplyEndOfPeriod runs the subtype's interest or fee processing.
// Caller holds the lock.
func (a *Account) ApplyEndOfPeriod() {
	a.policy.endOfPeriod(a)
}

// Snapshot is the read model handed to callers outside the package: a value
// copy of the scalar fields and the ordered history. It acquires the account
// lock itself, so callers must not hold it.
type Snapshot struct {
	Number       string          `json:"id"`
	Owner        string          `json:"owner"`
	Currency     Currency        `json:"currency"`
	Type         Type            `json:"subtype"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
}

// Snapshot returns a consistent copy of the account state.
func (a *Account) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	history := make([]Transaction, len(a.history))
	copy(history, a.history)
	return Snapshot{
		Number:       a.number,
		Owner:        a.owner,
		Currency:     a.currency,
		Type:         a.typ,
		Balance:      a.balance,
		Transactions: history,
	}
}

// HistoryLength returns the number of committed transactions. Together with
// RollbackTo it lets callers undo in-memory mutations whose persistence
// failed. Caller holds the lock.
func (a *Account) HistoryLength() int {
	return len(a.history)
}

// RollbackTo discards every transaction appended after length n and restores
// the balance accordingly, so a failed persistence call leaves the aggregate
// as if no mutation occurred. It never crosses the persisted watermark.
// Caller holds the lock.
func (a *Account) RollbackTo(n int) {
	if n < a.persisted {
		n = a.persisted
	}
	for i := len(a.history) - 1; i >= n; i-- {
		a.balance = a.balance.Sub(a.history[i].Amount)
	}
	a.history = a.history[:n]
}

// unsaved returns the history suffix not yet persisted. Caller holds the lock.
func (a *Account) unsaved() []Transaction {
	return a.history[a.persisted:]
}

// markPersisted advances the persisted watermark after a successful save.
// Caller holds the lock.
func (a *Account) markPersisted() {
	a.persisted = len(a.history)
}
