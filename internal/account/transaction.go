package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind classifies a ledger transaction.
type Kind string

const (
	KindDeposit     Kind = "deposit"
	KindWithdrawal  Kind = "withdrawal"
	KindTransferIn  Kind = "transfer_in"
	KindTransferOut Kind = "transfer_out"
)

// Transaction is an immutable ledger record. It is created once, appended to
// exactly one account's history at the moment the balance mutation commits,
// and never mutated or shared afterwards.
//
// Amount is signed: positive for deposit/transfer_in, negative for
// withdrawal/transfer_out. The sign records direction; the magnitude is the
// economic amount moved.
type Transaction struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      Kind            `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

func newTransaction(kind Kind, amount decimal.Decimal, reference string) Transaction {
	return Transaction{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Amount:    amount,
		Reference: reference,
	}
}
