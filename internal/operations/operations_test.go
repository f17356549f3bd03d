package operations

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/IlyasAtabaev731/atm-server/internal/domain"
	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
	"github.com/IlyasAtabaev731/atm-server/internal/ledger"
	"github.com/IlyasAtabaev731/atm-server/internal/storage/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type OperationsTestSuite struct {
	suite.Suite
	store  *memory.Storage
	ledger *ledger.Ledger
	svc    *Service
	ctx    context.Context
}

func (suite *OperationsTestSuite) SetupTest() {
	store, err := memory.NewSeeded(bcrypt.MinCost)
	require.NoError(suite.T(), err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.store = store
	suite.ledger = ledger.New(store, logger, time.Second)
	suite.svc = New(store, suite.ledger, logger)
	suite.ctx = context.Background()
}

func (suite *OperationsTestSuite) TearDownTest() {
	suite.ledger.Close()
}

func (suite *OperationsTestSuite) balance(userID, accountID string) decimal.Decimal {
	a, err := suite.store.FindAccount(userID, accountID)
	require.NoError(suite.T(), err)
	return a.Balance
}

func (suite *OperationsTestSuite) historyLen(userID string) int {
	return len(suite.store.TransactionsForUser(userID))
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func money(v string) models.Amount {
	return models.NewAmount(dec(v))
}

func boolPtr(b bool) *bool {
	return &b
}

func (suite *OperationsTestSuite) TestDeposit() {
	res, err := suite.svc.Deposit(suite.ctx, "1", DepositRequest{AccountID: "acc-1", Amount: money("500")})
	require.NoError(suite.T(), err)

	assert.True(suite.T(), res.NewBalance.Equal(dec("5500")))
	assert.True(suite.T(), suite.balance("1", "acc-1").Equal(dec("5500")))

	tx := res.Transaction
	assert.Equal(suite.T(), models.TransactionDeposit, tx.Type)
	assert.Equal(suite.T(), "acc-1", tx.AccountID)
	assert.Equal(suite.T(), "Deposit to Chequing", tx.Description)
	assert.True(suite.T(), tx.BalanceAfter.Equal(dec("5500")))

	history := suite.store.TransactionsForUser("1")
	require.Len(suite.T(), history, 4)
	assert.Equal(suite.T(), tx.ID, history[0].ID)
}

func (suite *OperationsTestSuite) TestDepositThenWithdrawRestoresBalance() {
	start := suite.balance("1", "acc-2")

	dep, err := suite.svc.Deposit(suite.ctx, "1", DepositRequest{AccountID: "acc-2", Amount: money("123.45")})
	require.NoError(suite.T(), err)
	wd, err := suite.svc.Withdraw(suite.ctx, "1", WithdrawRequest{AccountID: "acc-2", Amount: money("123.45")})
	require.NoError(suite.T(), err)

	assert.True(suite.T(), suite.balance("1", "acc-2").Equal(start))
	assert.True(suite.T(), dep.Transaction.BalanceAfter.Equal(start.Add(dec("123.45"))))
	assert.True(suite.T(), wd.Transaction.BalanceAfter.Equal(start))
	assert.NotEqual(suite.T(), dep.Transaction.ID, wd.Transaction.ID)
}

func (suite *OperationsTestSuite) TestWithdrawInsufficientBalance() {
	_, err := suite.svc.Deposit(suite.ctx, "1", DepositRequest{AccountID: "acc-1", Amount: money("500")})
	require.NoError(suite.T(), err)
	before := suite.historyLen("1")

	_, err = suite.svc.Withdraw(suite.ctx, "1", WithdrawRequest{AccountID: "acc-1", Amount: money("6000")})

	var insufficient *domain.InsufficientBalanceError
	require.ErrorAs(suite.T(), err, &insufficient)
	assert.True(suite.T(), insufficient.CurrentBalance.Equal(dec("5500")))
	assert.True(suite.T(), suite.balance("1", "acc-1").Equal(dec("5500")))
	assert.Equal(suite.T(), before, suite.historyLen("1"))
}

func (suite *OperationsTestSuite) TestWithdrawWholeBalance() {
	res, err := suite.svc.Withdraw(suite.ctx, "2", WithdrawRequest{AccountID: "acc-1", Amount: money("7500")})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), res.NewBalance.IsZero())
}

func (suite *OperationsTestSuite) TestSelfTransfer() {
	_, err := suite.svc.Deposit(suite.ctx, "1", DepositRequest{AccountID: "acc-1", Amount: money("500")})
	require.NoError(suite.T(), err)
	totalBefore := suite.balance("1", "acc-1").Add(suite.balance("1", "acc-2"))

	res, err := suite.svc.Transfer(suite.ctx, "1", TransferRequest{
		FromAccountID:  "acc-1",
		ToAccountID:    "acc-2",
		Amount:         money("150"),
		IsSelfTransfer: boolPtr(true),
	})
	require.NoError(suite.T(), err)

	assert.True(suite.T(), res.FromAccountBalance.Equal(dec("5350")))
	require.NotNil(suite.T(), res.ToAccountBalance)
	assert.True(suite.T(), res.ToAccountBalance.Equal(dec("12650")))
	assert.True(suite.T(), suite.balance("1", "acc-1").Equal(dec("5350")))
	assert.True(suite.T(), suite.balance("1", "acc-2").Equal(dec("12650")))

	totalAfter := suite.balance("1", "acc-1").Add(suite.balance("1", "acc-2"))
	assert.True(suite.T(), totalBefore.Equal(totalAfter))

	tx := res.Transaction
	assert.Equal(suite.T(), models.TransactionTransfer, tx.Type)
	assert.Equal(suite.T(), "acc-1", tx.FromAccountID)
	assert.Equal(suite.T(), "acc-2", tx.ToAccountID)
	assert.Equal(suite.T(), "Transfer from Chequing to Savings", tx.Description)
	assert.True(suite.T(), tx.BalanceAfter.Equal(dec("5350")))
}

func (suite *OperationsTestSuite) TestRecipientTransferDebitsOnly() {
	require.NoError(suite.T(), suite.store.SetAccountBalance("1", "acc-1", dec("5350")))
	todd := []decimal.Decimal{suite.balance("2", "acc-1"), suite.balance("2", "acc-2")}
	others := []decimal.Decimal{suite.balance("1", "acc-2"), suite.balance("1", "acc-3")}

	// todd's email exists in the store; he still isn't credited
	res, err := suite.svc.Transfer(suite.ctx, "1", TransferRequest{
		FromAccountID:  "acc-1",
		RecipientEmail: "Todd@yahoo.com",
		Amount:         money("100"),
		IsSelfTransfer: boolPtr(false),
	})
	require.NoError(suite.T(), err)

	assert.True(suite.T(), res.FromAccountBalance.Equal(dec("5250")))
	assert.Nil(suite.T(), res.ToAccountBalance)
	assert.Equal(suite.T(), "Todd@yahoo.com", res.Transaction.RecipientEmail)
	assert.Empty(suite.T(), res.Transaction.ToAccountID)
	assert.Equal(suite.T(), "Transfer to Todd@yahoo.com", res.Transaction.Description)

	assert.True(suite.T(), suite.balance("2", "acc-1").Equal(todd[0]))
	assert.True(suite.T(), suite.balance("2", "acc-2").Equal(todd[1]))
	assert.True(suite.T(), suite.balance("1", "acc-2").Equal(others[0]))
	assert.True(suite.T(), suite.balance("1", "acc-3").Equal(others[1]))
	assert.Equal(suite.T(), 2, suite.historyLen("2"))
}

func (suite *OperationsTestSuite) TestTransferRejections() {
	tests := []struct {
		name    string
		userID  string
		req     TransferRequest
		wantErr error
	}{
		{
			name:    "same account",
			userID:  "1",
			req:     TransferRequest{FromAccountID: "acc-1", ToAccountID: "acc-1", Amount: money("10"), IsSelfTransfer: boolPtr(true)},
			wantErr: domain.ErrSameAccountTransfer,
		},
		{
			name:    "unknown from account",
			userID:  "1",
			req:     TransferRequest{FromAccountID: "acc-9", ToAccountID: "acc-1", Amount: money("10"), IsSelfTransfer: boolPtr(true)},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "to account of another user",
			userID:  "2",
			req:     TransferRequest{FromAccountID: "acc-1", ToAccountID: "acc-3", Amount: money("10"), IsSelfTransfer: boolPtr(true)},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name:    "unknown user",
			userID:  "77",
			req:     TransferRequest{FromAccountID: "acc-1", ToAccountID: "acc-2", Amount: money("10"), IsSelfTransfer: boolPtr(true)},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name:    "missing identity",
			userID:  "",
			req:     TransferRequest{FromAccountID: "acc-1", ToAccountID: "acc-2", Amount: money("10"), IsSelfTransfer: boolPtr(true)},
			wantErr: domain.ErrMissingIdentity,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			before1 := suite.balance("1", "acc-1")
			before2 := suite.balance("2", "acc-1")

			_, err := suite.svc.Transfer(suite.ctx, tt.userID, tt.req)
			assert.ErrorIs(suite.T(), err, tt.wantErr)

			assert.True(suite.T(), suite.balance("1", "acc-1").Equal(before1))
			assert.True(suite.T(), suite.balance("2", "acc-1").Equal(before2))
		})
	}
}

func (suite *OperationsTestSuite) TestTransferAccountRoles() {
	_, err := suite.svc.Transfer(suite.ctx, "1", TransferRequest{
		FromAccountID: "acc-1", ToAccountID: "acc-9", Amount: money("1"), IsSelfTransfer: boolPtr(true),
	})
	var notFound *domain.AccountNotFoundError
	require.ErrorAs(suite.T(), err, &notFound)
	assert.Equal(suite.T(), domain.RoleTo, notFound.Role)
	assert.Equal(suite.T(), "To account not found", err.Error())

	_, err = suite.svc.Transfer(suite.ctx, "1", TransferRequest{
		FromAccountID: "acc-9", RecipientEmail: "x@y.com", Amount: money("1"), IsSelfTransfer: boolPtr(false),
	})
	require.ErrorAs(suite.T(), err, &notFound)
	assert.Equal(suite.T(), domain.RoleFrom, notFound.Role)
}

func (suite *OperationsTestSuite) TestTransferInsufficientBalance() {
	_, err := suite.svc.Transfer(suite.ctx, "2", TransferRequest{
		FromAccountID: "acc-1", RecipientEmail: "x@y.com", Amount: money("7500.01"), IsSelfTransfer: boolPtr(false),
	})
	var insufficient *domain.InsufficientBalanceError
	require.ErrorAs(suite.T(), err, &insufficient)
	assert.True(suite.T(), insufficient.CurrentBalance.Equal(dec("7500")))
	assert.True(suite.T(), suite.balance("2", "acc-1").Equal(dec("7500")))
	assert.Equal(suite.T(), 2, suite.historyLen("2"))
}

func (suite *OperationsTestSuite) TestTransferMissingCounterpart() {
	var verr *domain.ValidationError

	_, err := suite.svc.Transfer(suite.ctx, "1", TransferRequest{
		FromAccountID: "acc-1", Amount: money("1"), IsSelfTransfer: boolPtr(true),
	})
	require.ErrorAs(suite.T(), err, &verr)

	_, err = suite.svc.Transfer(suite.ctx, "1", TransferRequest{
		FromAccountID: "acc-1", Amount: money("1"), IsSelfTransfer: boolPtr(false),
	})
	require.ErrorAs(suite.T(), err, &verr)

	_, err = suite.svc.Transfer(suite.ctx, "1", TransferRequest{FromAccountID: "acc-1", Amount: money("1")})
	require.ErrorAs(suite.T(), err, &verr)

	assert.True(suite.T(), suite.balance("1", "acc-1").Equal(dec("5000")))
}

func (suite *OperationsTestSuite) TestNonPositiveAmountRejected() {
	var verr *domain.ValidationError

	_, err := suite.svc.Deposit(suite.ctx, "1", DepositRequest{AccountID: "acc-1", Amount: money("-10")})
	require.ErrorAs(suite.T(), err, &verr)
	_, err = suite.svc.Withdraw(suite.ctx, "1", WithdrawRequest{AccountID: "acc-1", Amount: models.Amount{}})
	require.ErrorAs(suite.T(), err, &verr)

	assert.True(suite.T(), suite.balance("1", "acc-1").Equal(dec("5000")))
	assert.Equal(suite.T(), 3, suite.historyLen("1"))
}

func (suite *OperationsTestSuite) TestSubCentAmountsRejected() {
	tests := []struct {
		name string
		call func() error
	}{
		{"deposit", func() error {
			_, err := suite.svc.Deposit(suite.ctx, "1", DepositRequest{AccountID: "acc-1", Amount: money("0.001")})
			return err
		}},
		{"withdraw", func() error {
			_, err := suite.svc.Withdraw(suite.ctx, "1", WithdrawRequest{AccountID: "acc-1", Amount: money("1.005")})
			return err
		}},
		{"self transfer", func() error {
			_, err := suite.svc.Transfer(suite.ctx, "1", TransferRequest{
				FromAccountID: "acc-1", ToAccountID: "acc-2", Amount: money("0.125"), IsSelfTransfer: boolPtr(true),
			})
			return err
		}},
		{"recipient transfer", func() error {
			_, err := suite.svc.Transfer(suite.ctx, "1", TransferRequest{
				FromAccountID: "acc-1", RecipientEmail: "x@y.com", Amount: money("99.999"), IsSelfTransfer: boolPtr(false),
			})
			return err
		}},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			var verr *domain.ValidationError
			require.ErrorAs(suite.T(), tt.call(), &verr)
			require.Len(suite.T(), verr.Issues, 1)
			assert.Equal(suite.T(), "amount", verr.Issues[0].Field)
		})
	}

	assert.True(suite.T(), suite.balance("1", "acc-1").Equal(dec("5000")))
	assert.True(suite.T(), suite.balance("1", "acc-2").Equal(dec("12500")))
	assert.Equal(suite.T(), 3, suite.historyLen("1"))
}

func (suite *OperationsTestSuite) TestDepositUnknownAccount() {
	_, err := suite.svc.Deposit(suite.ctx, "2", DepositRequest{AccountID: "acc-3", Amount: money("1")})
	assert.ErrorIs(suite.T(), err, domain.ErrAccountNotFound)
	assert.Equal(suite.T(), "Account not found", err.Error())
}

func (suite *OperationsTestSuite) TestAdversarialSequenceNeverNegative() {
	amounts := []string{"4999.99", "0.02", "0.01", "12500", "100", "25000.50", "7"}
	for i, amt := range amounts {
		_, _ = suite.svc.Withdraw(suite.ctx, "1", WithdrawRequest{AccountID: "acc-1", Amount: money(amt)})
		_, _ = suite.svc.Transfer(suite.ctx, "1", TransferRequest{
			FromAccountID: "acc-2", ToAccountID: "acc-1", Amount: money(amt), IsSelfTransfer: boolPtr(true),
		})
		_, _ = suite.svc.Transfer(suite.ctx, "1", TransferRequest{
			FromAccountID: "acc-3", RecipientEmail: "x@y.com", Amount: money(amt), IsSelfTransfer: boolPtr(i%2 == 0),
			ToAccountID: "acc-2",
		})

		u, err := suite.store.FindUser("1")
		require.NoError(suite.T(), err)
		for _, a := range u.Accounts {
			assert.False(suite.T(), a.Balance.IsNegative(), "account %s went negative", a.ID)
		}
	}
}

func (suite *OperationsTestSuite) TestConcurrentOperationsLoseNothing() {
	const workers = 50
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, err := suite.svc.Deposit(suite.ctx, "2", DepositRequest{AccountID: "acc-1", Amount: money("10")})
			assert.NoError(suite.T(), err)
		}()
		go func() {
			defer wg.Done()
			_, err := suite.svc.Withdraw(suite.ctx, "2", WithdrawRequest{AccountID: "acc-1", Amount: money("5")})
			assert.NoError(suite.T(), err)
		}()
		go func() {
			defer wg.Done()
			_, err := suite.svc.Transfer(suite.ctx, "2", TransferRequest{
				FromAccountID: "acc-2", ToAccountID: "acc-1", Amount: money("1"), IsSelfTransfer: boolPtr(true),
			})
			assert.NoError(suite.T(), err)
		}()
	}
	wg.Wait()

	// 7500 + 50*10 - 50*5 + 50*1
	assert.True(suite.T(), suite.balance("2", "acc-1").Equal(dec("7800")))
	assert.True(suite.T(), suite.balance("2", "acc-2").Equal(dec("22300")))
	assert.Equal(suite.T(), 2+3*workers, suite.historyLen("2"))
}

func TestOperationsSuite(t *testing.T) {
	suite.Run(t, new(OperationsTestSuite))
}
