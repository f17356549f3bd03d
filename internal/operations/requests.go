package operations

import (
	"github.com/IlyasAtabaev731/atm-server/internal/domain"
	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
)

const transferTargetMessage = "Either toAccountId (for self transfer) or recipientEmail (for transfer to others) must be provided"

type DepositRequest struct {
	AccountID string          `json:"accountId" validate:"required"`
	Amount    models.Amount   `json:"amount" validate:"gt=0,cents"`
}

type WithdrawRequest struct {
	AccountID string          `json:"accountId" validate:"required"`
	Amount    models.Amount   `json:"amount" validate:"gt=0,cents"`
}

// TransferRequest moves money out of FromAccountID either into another
// account of the same user (IsSelfTransfer) or to an external payee.
type TransferRequest struct {
	FromAccountID  string          `json:"fromAccountId" validate:"required"`
	ToAccountID    string          `json:"toAccountId,omitempty"`
	RecipientEmail string          `json:"recipientEmail,omitempty" validate:"omitempty,email"`
	Amount         models.Amount   `json:"amount" validate:"gt=0,cents"`
	IsSelfTransfer *bool           `json:"isSelfTransfer" validate:"required"`
}

// Rules reports the destination disjunction as a single issue.
func (r TransferRequest) Rules() []domain.Issue {
	if r.IsSelfTransfer == nil {
		return nil
	}
	if *r.IsSelfTransfer && r.ToAccountID != "" {
		return nil
	}
	if !*r.IsSelfTransfer && r.RecipientEmail != "" {
		return nil
	}
	return []domain.Issue{{Field: "toAccountId|recipientEmail", Message: transferTargetMessage}}
}
