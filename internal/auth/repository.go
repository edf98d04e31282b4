package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists account credentials.
type Repository interface {
	Create(ctx context.Context, cred Credential) error
	FindByAccount(ctx context.Context, accountNumber string) (Credential, error)
}

// PostgresRepository stores credentials in PostgreSQL. Expected schema:
//
//	CREATE TABLE credentials (
//	    account_number TEXT PRIMARY KEY,
//	    password_hash  BYTEA NOT NULL,
//	    created_at     TIMESTAMPTZ NOT NULL
//	);
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a credential repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a credential record.
func (r *PostgresRepository) Create(ctx context.Context, cred Credential) error {
	_, err := r.db.Exec(ctx, `INSERT INTO credentials (account_number, password_hash, created_at)
        VALUES ($1, $2, $3)`, cred.AccountNumber, cred.PasswordHash, cred.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	return nil
}

// FindByAccount fetches the credential for an account number.
func (r *PostgresRepository) FindByAccount(ctx context.Context, accountNumber string) (Credential, error) {
	row := r.db.QueryRow(ctx, `SELECT account_number, password_hash, created_at
        FROM credentials WHERE account_number = $1`, accountNumber)
	var cred Credential
	var createdAt time.Time
	if err := row.Scan(&cred.AccountNumber, &cred.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credential{}, ErrInvalidCredentials
		}
		return Credential{}, fmt.Errorf("load credential: %w", err)
	}
	cred.CreatedAt = createdAt.UTC()
	return cred, nil
}
