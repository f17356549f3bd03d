// Package postgres mirrors committed ledger records into a journal table.
// The journal is write-only; requests are always answered from memory.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
	_ "github.com/lib/pq"
)

const insertTransaction = `INSERT INTO transactions
	(id, user_id, type, amount, account_id, from_account_id, to_account_id, recipient_email, description, balance_after, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO NOTHING`

type Storage struct {
	db *sql.DB
}

func New(dbUrl string) (*Storage, error) {
	db, err := sql.Open("postgres", dbUrl)
	if err != nil {
		return nil, fmt.Errorf("database connection error %s", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect database error %s", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Stop() error {
	return s.db.Close()
}

func (s *Storage) Name() string {
	return "postgres"
}

func (s *Storage) SaveTransaction(ctx context.Context, tx models.Transaction) error {
	const op = "storage.postgres.SaveTransaction"

	stmt, err := s.db.PrepareContext(ctx, insertTransaction)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, transactionArgs(tx)...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// transactionArgs orders tx the way insertTransaction expects. Unused account
// references are stored as NULL.
func transactionArgs(tx models.Transaction) []any {
	return []any{
		tx.ID,
		tx.UserID,
		string(tx.Type),
		tx.Amount,
		nullable(tx.AccountID),
		nullable(tx.FromAccountID),
		nullable(tx.ToAccountID),
		nullable(tx.RecipientEmail),
		tx.Description,
		tx.BalanceAfter,
		tx.Date,
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
