// Package memory is the in-process entity store. It owns every user, account,
// card and transaction for the lifetime of the process and hands out copies.
package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/IlyasAtabaev731/atm-server/internal/domain"
	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
	"github.com/shopspring/decimal"
)

var ErrUserExists = errors.New("user already exists")

type Storage struct {
	mu    sync.RWMutex
	users map[string]*models.User
	// transactions is kept oldest-first; readers walk it backwards.
	transactions []models.Transaction
}

func New() *Storage {
	return &Storage{users: make(map[string]*models.User)}
}

func (s *Storage) SaveUser(user models.User) error {
	const op = "storage.memory.SaveUser"

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("%s: %w", op, ErrUserExists)
	}
	u := user.Clone()
	s.users[u.ID] = &u

	return nil
}

func (s *Storage) FindUser(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := u.Clone()
	return &cp, nil
}

// FindAccount looks the account up inside the user's own list only.
func (s *Storage) FindAccount(userID, accountID string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return models.Account{}, domain.ErrUserNotFound
	}
	a, ok := u.Account(accountID)
	if !ok {
		return models.Account{}, &domain.AccountNotFoundError{Role: domain.RoleAccount, AccountID: accountID}
	}
	return *a, nil
}

// SetAccountBalance does not check the sign of newBalance.
func (s *Storage) SetAccountBalance(userID, accountID string, newBalance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	a, ok := u.Account(accountID)
	if !ok {
		return &domain.AccountNotFoundError{Role: domain.RoleAccount, AccountID: accountID}
	}
	a.Balance = newBalance

	return nil
}

func (s *Storage) AppendTransaction(tx models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, tx)
}

// TransactionsForUser returns the user's records newest-first. The result is
// never nil.
func (s *Storage) TransactionsForUser(userID string) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Transaction, 0)
	for i := len(s.transactions) - 1; i >= 0; i-- {
		if s.transactions[i].UserID == userID {
			out = append(out, s.transactions[i])
		}
	}
	return out
}

func (s *Storage) UpdateUserProfile(userID string, update models.ProfileUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	update.Apply(u)

	cp := u.Clone()
	return &cp, nil
}

// Commit writes every balance change and appends tx as one unit. If any change
// names an account the user doesn't own nothing is written.
func (s *Storage) Commit(userID string, changes []models.BalanceChange, tx models.Transaction) error {
	const op = "storage.memory.Commit"

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("%s: %w", op, domain.ErrUserNotFound)
	}

	accounts := make([]*models.Account, len(changes))
	for i, c := range changes {
		a, ok := u.Account(c.AccountID)
		if !ok {
			return fmt.Errorf("%s: %w", op, &domain.AccountNotFoundError{Role: domain.RoleAccount, AccountID: c.AccountID})
		}
		accounts[i] = a
	}

	for i, c := range changes {
		accounts[i].Balance = c.NewBalance
	}
	s.transactions = append(s.transactions, tx)

	return nil
}
