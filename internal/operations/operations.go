// Package operations implements deposit, withdraw and transfer over a user's
// own accounts. Every operation runs under the acting user's lock from the
// first balance read until its ledger record is committed.
package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IlyasAtabaev731/atm-server/internal/domain"
	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
	"github.com/shopspring/decimal"
)

type Store interface {
	FindUser(id string) (*models.User, error)
	FindAccount(userID, accountID string) (models.Account, error)
}

type Ledger interface {
	Post(ctx context.Context, userID string, changes []models.BalanceChange, tx models.Transaction) (models.Transaction, error)
}

type Service struct {
	store  Store
	ledger Ledger
	logger *slog.Logger
	locks  sync.Map
}

func New(store Store, ledger Ledger, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		ledger: ledger,
		logger: logger,
	}
}

type Result struct {
	Transaction models.Transaction
	NewBalance  decimal.Decimal
}

// TransferResult has no ToAccountBalance for transfers to an external payee.
type TransferResult struct {
	Transaction        models.Transaction
	FromAccountBalance decimal.Decimal
	ToAccountBalance   *decimal.Decimal
}

func (s *Service) Deposit(ctx context.Context, userID string, req DepositRequest) (*Result, error) {
	const op = "operations.Deposit"

	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}

	unlock, err := s.begin(userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	account, err := s.account(userID, req.AccountID, domain.RoleAccount)
	if err != nil {
		return nil, err
	}

	newBalance := account.Balance.Add(req.Amount.Decimal)

	tx, err := s.ledger.Post(ctx, userID,
		[]models.BalanceChange{{AccountID: account.ID, NewBalance: newBalance}},
		models.Transaction{
			Type:         models.TransactionDeposit,
			Amount:       req.Amount.Decimal,
			AccountID:    account.ID,
			Description:  fmt.Sprintf("Deposit to %s", account.Type),
			BalanceAfter: newBalance,
		})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("Deposit",
		slog.String("user_id", userID),
		slog.String("account_id", account.ID),
		slog.String("amount", req.Amount.StringFixed(2)),
	)

	return &Result{Transaction: tx, NewBalance: newBalance}, nil
}

func (s *Service) Withdraw(ctx context.Context, userID string, req WithdrawRequest) (*Result, error) {
	const op = "operations.Withdraw"

	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}

	unlock, err := s.begin(userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	account, err := s.account(userID, req.AccountID, domain.RoleAccount)
	if err != nil {
		return nil, err
	}

	if err := checkBalance(account, req.Amount.Decimal); err != nil {
		return nil, err
	}

	newBalance := account.Balance.Sub(req.Amount.Decimal)

	tx, err := s.ledger.Post(ctx, userID,
		[]models.BalanceChange{{AccountID: account.ID, NewBalance: newBalance}},
		models.Transaction{
			Type:         models.TransactionWithdrawal,
			Amount:       req.Amount.Decimal,
			AccountID:    account.ID,
			Description:  fmt.Sprintf("Withdrawal from %s", account.Type),
			BalanceAfter: newBalance,
		})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("Withdrawal",
		slog.String("user_id", userID),
		slog.String("account_id", account.ID),
		slog.String("amount", req.Amount.StringFixed(2)),
	)

	return &Result{Transaction: tx, NewBalance: newBalance}, nil
}

// Transfer debits FromAccountID. A self transfer credits ToAccountID in the
// same commit; a transfer to RecipientEmail credits nothing in this system.
func (s *Service) Transfer(ctx context.Context, userID string, req TransferRequest) (*TransferResult, error) {
	const op = "operations.Transfer"

	if err := checkAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.IsSelfTransfer == nil {
		return nil, domain.NewValidationError(domain.Issue{Field: "isSelfTransfer", Message: "isSelfTransfer is required"})
	}

	unlock, err := s.begin(userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	from, err := s.account(userID, req.FromAccountID, domain.RoleFrom)
	if err != nil {
		return nil, err
	}

	if err := checkBalance(from, req.Amount.Decimal); err != nil {
		return nil, err
	}

	fromNew := from.Balance.Sub(req.Amount.Decimal)

	if !*req.IsSelfTransfer {
		if req.RecipientEmail == "" {
			return nil, domain.NewValidationError(domain.Issue{
				Field:   "recipientEmail",
				Message: "Recipient email is required for transfer to others",
			})
		}

		tx, err := s.ledger.Post(ctx, userID,
			[]models.BalanceChange{{AccountID: from.ID, NewBalance: fromNew}},
			models.Transaction{
				Type:           models.TransactionTransfer,
				Amount:         req.Amount.Decimal,
				FromAccountID:  from.ID,
				RecipientEmail: req.RecipientEmail,
				Description:    fmt.Sprintf("Transfer to %s", req.RecipientEmail),
				BalanceAfter:   fromNew,
			})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		s.logger.Info("Transfer to recipient",
			slog.String("user_id", userID),
			slog.String("from", from.ID),
			slog.String("recipient", req.RecipientEmail),
			slog.String("amount", req.Amount.StringFixed(2)),
		)

		return &TransferResult{Transaction: tx, FromAccountBalance: fromNew}, nil
	}

	if req.ToAccountID == "" {
		return nil, domain.NewValidationError(domain.Issue{
			Field:   "toAccountId",
			Message: "To account ID is required for self transfer",
		})
	}

	to, err := s.account(userID, req.ToAccountID, domain.RoleTo)
	if err != nil {
		return nil, err
	}

	if from.ID == to.ID {
		return nil, domain.ErrSameAccountTransfer
	}

	toNew := to.Balance.Add(req.Amount.Decimal)

	tx, err := s.ledger.Post(ctx, userID,
		[]models.BalanceChange{
			{AccountID: from.ID, NewBalance: fromNew},
			{AccountID: to.ID, NewBalance: toNew},
		},
		models.Transaction{
			Type:          models.TransactionTransfer,
			Amount:        req.Amount.Decimal,
			FromAccountID: from.ID,
			ToAccountID:   to.ID,
			Description:   fmt.Sprintf("Transfer from %s to %s", from.Type, to.Type),
			BalanceAfter:  fromNew,
		})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("Self transfer",
		slog.String("user_id", userID),
		slog.String("from", from.ID),
		slog.String("to", to.ID),
		slog.String("amount", req.Amount.StringFixed(2)),
	)

	return &TransferResult{Transaction: tx, FromAccountBalance: fromNew, ToAccountBalance: &toNew}, nil
}

// begin takes the user's lock after checking the user exists. The returned
// func releases it.
func (s *Service) begin(userID string) (func(), error) {
	if userID == "" {
		return nil, domain.ErrMissingIdentity
	}
	if _, err := s.store.FindUser(userID); err != nil {
		return nil, err
	}

	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock, nil
}

func (s *Service) account(userID, accountID string, role domain.AccountRole) (models.Account, error) {
	a, err := s.store.FindAccount(userID, accountID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return models.Account{}, &domain.AccountNotFoundError{Role: role, AccountID: accountID}
	}
	return a, err
}

func checkAmount(amount models.Amount) error {
	if !amount.IsPositive() {
		return domain.NewValidationError(domain.Issue{Field: "amount", Message: "amount must be positive"})
	}
	if !amount.HasCents() {
		return domain.NewValidationError(domain.Issue{Field: "amount", Message: "amount must have at most 2 decimal places"})
	}
	return nil
}

func checkBalance(a models.Account, amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return &domain.InsufficientBalanceError{
			AccountID:      a.ID,
			CurrentBalance: a.Balance,
			Requested:      amount,
		}
	}
	return nil
}
