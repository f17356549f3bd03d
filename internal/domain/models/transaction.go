package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDeposit    TransactionType = "Deposit"
	TransactionWithdrawal TransactionType = "Withdrawal"
	TransactionTransfer   TransactionType = "Transfer"
)

// Transaction is an immutable ledger record. AccountID is set for deposits and
// withdrawals; transfers carry FromAccountID plus ToAccountID or RecipientEmail.
type Transaction struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	Type           TransactionType `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	AccountID      string          `json:"accountId,omitempty"`
	FromAccountID  string          `json:"fromAccountId,omitempty"`
	ToAccountID    string          `json:"toAccountId,omitempty"`
	RecipientEmail string          `json:"recipientEmail,omitempty"`
	Description    string          `json:"description"`
	Date           time.Time       `json:"date"`
	BalanceAfter   decimal.Decimal `json:"balanceAfter"`
}

// BalanceChange is one account write inside a commit.
type BalanceChange struct {
	AccountID  string
	NewBalance decimal.Decimal
}
