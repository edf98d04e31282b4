package account

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresRepository is the durable repository variant. Expected schema:
//
//	CREATE TABLE accounts (
//	    number   TEXT PRIMARY KEY,
//	    owner    TEXT NOT NULL,
//	    currency TEXT NOT NULL,
//	    type     TEXT NOT NULL,
//	    balance  NUMERIC NOT NULL
//	);
//	CREATE TABLE transactions (
//	    id             UUID PRIMARY KEY,
//	    account_number TEXT NOT NULL REFERENCES accounts (number),
//	    pos            INTEGER NOT NULL,
//	    ts             TIMESTAMPTZ NOT NULL,
//	    kind           TEXT NOT NULL,
//	    amount         NUMERIC NOT NULL,
//	    reference      TEXT NOT NULL,
//	    UNIQUE (account_number, pos)
//	);
//
// Amounts travel as text so they never pass through binary floats.
//
// The repository keeps an identity map of materialized aggregates: FindByID
// returns the same *Account instance for the same number for the lifetime of
// the process, which is what keeps the per-account lock meaningful with
// durable storage underneath.
type PostgresRepository struct {
	db    *pgxpool.Pool
	terms Terms

	mu     sync.Mutex
	loaded map[string]*Account
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool, terms Terms) *PostgresRepository {
	return &PostgresRepository{db: db, terms: terms, loaded: make(map[string]*Account)}
}

// Save upserts the account's scalar fields and appends its unsaved
// transactions in one storage transaction.
func (r *PostgresRepository) Save(ctx context.Context, a *Account) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := saveTx(ctx, tx, a); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	a.markPersisted()
	r.remember(a)
	return nil
}

// SavePair persists both accounts atomically, so a transfer's debit and
// credit commit together or not at all.
func (r *PostgresRepository) SavePair(ctx context.Context, a, b *Account) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin save pair: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := saveTx(ctx, tx, a); err != nil {
		return err
	}
	if err := saveTx(ctx, tx, b); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save pair: %w", err)
	}
	a.markPersisted()
	b.markPersisted()
	r.remember(a)
	r.remember(b)
	return nil
}

func saveTx(ctx context.Context, tx pgx.Tx, a *Account) error {
	_, err := tx.Exec(ctx, `INSERT INTO accounts (number, owner, currency, type, balance)
        VALUES ($1, $2, $3, $4, $5::numeric)
        ON CONFLICT (number) DO UPDATE SET balance = EXCLUDED.balance`,
		a.number, a.owner, string(a.currency), string(a.typ), a.balance.String())
	if err != nil {
		return fmt.Errorf("upsert account %s: %w", a.number, err)
	}

	pos := a.persisted
	for _, t := range a.unsaved() {
		_, err := tx.Exec(ctx, `INSERT INTO transactions (id, account_number, pos, ts, kind, amount, reference)
            VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)
            ON CONFLICT (id) DO NOTHING`,
			t.ID, a.number, pos, t.Timestamp, string(t.Kind), t.Amount.String(), t.Reference)
		if err != nil {
			return fmt.Errorf("append transaction %s: %w", t.ID, err)
		}
		pos++
	}
	return nil
}

// FindByID returns the canonical aggregate for the number, materializing it
// from storage on first access.
func (r *PostgresRepository) FindByID(ctx context.Context, number string) (*Account, error) {
	r.mu.Lock()
	if a, ok := r.loaded[number]; ok {
		r.mu.Unlock()
		return a, nil
	}
	r.mu.Unlock()

	a, err := r.load(ctx, number)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// A concurrent FindByID may have materialized the same account; keep the
	// first instance so locks stay shared.
	if existing, ok := r.loaded[number]; ok {
		return existing, nil
	}
	r.loaded[number] = a
	return a, nil
}

// FindAll materializes every known account. Unbounded by design.
func (r *PostgresRepository) FindAll(ctx context.Context) ([]*Account, error) {
	rows, err := r.db.Query(ctx, `SELECT number FROM accounts ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	numbers := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan account number: %w", err)
		}
		numbers = append(numbers, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	out := make([]*Account, 0, len(numbers))
	for _, n := range numbers {
		a, err := r.FindByID(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *PostgresRepository) load(ctx context.Context, number string) (*Account, error) {
	var (
		owner, currency, typ, balance string
	)
	err := r.db.QueryRow(ctx, `SELECT owner, currency, type, balance::text
        FROM accounts WHERE number = $1`, number).Scan(&owner, &currency, &typ, &balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", number, err)
	}

	bal, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("account %s balance: %w", number, err)
	}

	rows, err := r.db.Query(ctx, `SELECT id, ts, kind, amount::text, reference
        FROM transactions WHERE account_number = $1 ORDER BY pos`, number)
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", number, err)
	}
	defer rows.Close()

	var history []Transaction
	for rows.Next() {
		var (
			t      Transaction
			ts     time.Time
			kind   string
			amount string
		)
		if err := rows.Scan(&t.ID, &ts, &kind, &amount, &t.Reference); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Timestamp = ts.UTC()
		t.Kind = Kind(kind)
		t.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %s amount: %w", t.ID, err)
		}
		history = append(history, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load history %s: %w", number, err)
	}

	return restore(number, owner, Type(typ), Currency(currency), r.terms, bal, history)
}

// HighestNumber returns the largest numeric account number on record, or
// fallback when the ledger is empty. The account service seeds its number
// counter above it so restarts never reissue a number.
func (r *PostgresRepository) HighestNumber(ctx context.Context, fallback int64) (int64, error) {
	var highest int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(number::bigint), $1) FROM accounts`, fallback).Scan(&highest)
	if err != nil {
		return 0, fmt.Errorf("highest account number: %w", err)
	}
	return highest, nil
}

func (r *PostgresRepository) remember(a *Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loaded[a.number]; !ok {
		r.loaded[a.number] = a
	}
}
