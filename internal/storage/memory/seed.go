package memory

import (
	"fmt"
	"time"

	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	user models.User
	pin  string
}

// NewSeeded returns a store loaded with the demo dataset. PINs are hashed
// with the given bcrypt cost.
func NewSeeded(pinCost int) (*Storage, error) {
	const op = "storage.memory.NewSeeded"

	s := New()

	for _, su := range seedUsers() {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.pin), pinCost)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		su.user.PINHash = string(hash)
		if err := s.SaveUser(su.user); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	// seedTransactions is in ledger order, so insert it back to front.
	txs := seedTransactions()
	for i := len(txs) - 1; i >= 0; i-- {
		s.AppendTransaction(txs[i])
	}

	return s, nil
}

func seedUsers() []seedUser {
	return []seedUser{
		{
			pin: "5555",
			user: models.User{
				ID:        "1",
				Username:  "rishav",
				Email:     "rishav@gmail.com",
				Firstname: "Rishav",
				Lastname:  "Chatterjee",
				Accounts: []models.Account{
					{ID: "acc-1", Type: models.AccountChequing, Balance: decimal.NewFromInt(5000), AccountNumber: "****5555"},
					{ID: "acc-2", Type: models.AccountSavings, Balance: decimal.NewFromInt(12500), AccountNumber: "****5678"},
					{ID: "acc-3", Type: models.AccountGIC, Balance: decimal.NewFromInt(25000), AccountNumber: "****9012"},
				},
				Cards: []models.Card{
					{ID: "card-1", Type: models.CardVisa, Number: "****4532", Expiry: "12/26"},
					{ID: "card-2", Type: models.CardMastercard, Number: "****8901", Expiry: "03/27"},
				},
				Contact:       1234567890,
				Address:       "123 Main St",
				AccountID:     "acc-1",
				AccountStatus: models.AccountStatusActive,
				Verified:      true,
			},
		},
		{
			pin: "1234",
			user: models.User{
				ID:        "2",
				Username:  "todd",
				Email:     "Todd@yahoo.com",
				Firstname: "Todd",
				Lastname:  "H",
				Accounts: []models.Account{
					{ID: "acc-1", Type: models.AccountChequing, Balance: decimal.NewFromInt(7500), AccountNumber: "****1234"},
					{ID: "acc-2", Type: models.AccountSavings, Balance: decimal.NewFromInt(22350), AccountNumber: "****4125"},
				},
				Cards: []models.Card{
					{ID: "card-1", Type: models.CardVisa, Number: "****4532", Expiry: "09/27"},
				},
				Contact:       9876543210,
				Address:       "456 Oak Ave",
				AccountID:     "acc-1",
				AccountStatus: models.AccountStatusActive,
				Verified:      false,
			},
		},
	}
}

func seedTransactions() []models.Transaction {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	bal := decimal.NewFromInt(5000)

	return []models.Transaction{
		{ID: "tx-1", UserID: "1", Type: models.TransactionDeposit, Amount: decimal.NewFromInt(500),
			AccountID: "acc-1", Description: "Cash deposit", Date: day(2024, time.November, 10), BalanceAfter: bal},
		{ID: "tx-2", UserID: "1", Type: models.TransactionWithdrawal, Amount: decimal.NewFromInt(200),
			AccountID: "acc-1", Description: "ATM withdrawal", Date: day(2024, time.November, 9), BalanceAfter: bal},
		{ID: "tx-3", UserID: "1", Type: models.TransactionTransfer, Amount: decimal.NewFromInt(150),
			FromAccountID: "acc-1", ToAccountID: "acc-2", Description: "Transfer to Savings", Date: day(2024, time.November, 8), BalanceAfter: bal},
		{ID: "tx-4", UserID: "2", Type: models.TransactionWithdrawal, Amount: decimal.NewFromInt(5000),
			AccountID: "acc-1", Description: "ATM withdrawal", Date: day(2024, time.August, 12), BalanceAfter: bal},
		{ID: "tx-5", UserID: "2", Type: models.TransactionTransfer, Amount: decimal.NewFromInt(350),
			FromAccountID: "acc-2", ToAccountID: "acc-1", Description: "Transfer to Chequing", Date: day(2025, time.November, 6), BalanceAfter: bal},
	}
}
