package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingIdentity     = errors.New("user ID is required")
	ErrUserNotFound        = errors.New("user not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")
	ErrInvalidPIN          = errors.New("invalid PIN")
	ErrInvalidToken        = errors.New("invalid token")
)

// AccountRole names which side of an operation an account was looked up for.
type AccountRole string

const (
	RoleAccount AccountRole = "Account"
	RoleFrom    AccountRole = "From account"
	RoleTo      AccountRole = "To account"
)

// AccountNotFoundError matches ErrAccountNotFound and remembers the role so the
// caller can say which account was missing.
type AccountNotFoundError struct {
	Role      AccountRole
	AccountID string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Role)
}

func (e *AccountNotFoundError) Is(target error) bool {
	return target == ErrAccountNotFound
}

type InsufficientBalanceError struct {
	AccountID      string
	CurrentBalance decimal.Decimal
	Requested      decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on %s: have %s, need %s",
		e.AccountID, e.CurrentBalance.StringFixed(2), e.Requested.StringFixed(2))
}

type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Issues []Issue
}

func NewValidationError(issues ...Issue) *ValidationError {
	return &ValidationError{Issues: issues}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		msgs = append(msgs, is.Field+": "+is.Message)
	}
	return "validation error: " + strings.Join(msgs, "; ")
}
