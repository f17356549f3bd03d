package api

import (
	"net/http"

	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
	"github.com/IlyasAtabaev731/atm-server/internal/operations"
	"github.com/IlyasAtabaev731/atm-server/internal/session"
	"github.com/IlyasAtabaev731/atm-server/internal/users"
	"github.com/shopspring/decimal"
)

const (
	msgInvalidRequest  = "Invalid request data"
	msgValidationError = "Validation error"
)

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *APIServer) healthHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "ATM server is running"})
	}
}

type LoginResponse struct {
	envelope
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (s *APIServer) loginHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.LoginRequest
		if err := s.decode(w, r, &req); err != nil {
			s.writeInvalid(w, err, msgInvalidRequest)
			return
		}

		res, err := s.users.Login(r.Context(), req)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, LoginResponse{
			envelope: success("Login successful"),
			User:     res.User,
			Token:    res.Token,
		})
	}
}

type ProfileResponse struct {
	envelope
	User *models.User `json:"user"`
}

func (s *APIServer) profileHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		acting, _ := session.FromContext(r.Context())

		user, err := s.users.Profile(r.Context(), acting.ID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, ProfileResponse{envelope: success("Profile retrieved successfully"), User: user})
	}
}

func (s *APIServer) updateProfileHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		acting, _ := session.FromContext(r.Context())

		var update models.ProfileUpdate
		if err := s.decode(w, r, &update); err != nil {
			s.writeInvalid(w, err, msgInvalidRequest)
			return
		}

		user, err := s.users.UpdateProfile(r.Context(), acting.ID, update)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, ProfileResponse{envelope: success("Profile updated successfully"), User: user})
	}
}

type TransactionsResponse struct {
	envelope
	Transactions []models.Transaction `json:"transactions"`
}

func (s *APIServer) transactionsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		acting, _ := session.FromContext(r.Context())

		s.writeJSON(w, http.StatusOK, TransactionsResponse{
			envelope:     success("Transactions retrieved successfully"),
			Transactions: s.history.History(r.Context(), acting.ID),
		})
	}
}

type BalanceResponse struct {
	envelope
	Transaction models.Transaction `json:"transaction"`
	NewBalance  decimal.Decimal    `json:"newBalance"`
}

func (s *APIServer) depositHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		acting, _ := session.FromContext(r.Context())

		var req operations.DepositRequest
		if err := s.decode(w, r, &req); err != nil {
			s.writeInvalid(w, err, msgValidationError)
			return
		}

		res, err := s.operations.Deposit(r.Context(), acting.ID, req)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, BalanceResponse{
			envelope:    success("Deposit successful"),
			Transaction: res.Transaction,
			NewBalance:  res.NewBalance,
		})
	}
}

func (s *APIServer) withdrawHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		acting, _ := session.FromContext(r.Context())

		var req operations.WithdrawRequest
		if err := s.decode(w, r, &req); err != nil {
			s.writeInvalid(w, err, msgValidationError)
			return
		}

		res, err := s.operations.Withdraw(r.Context(), acting.ID, req)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, BalanceResponse{
			envelope:    success("Withdrawal successful"),
			Transaction: res.Transaction,
			NewBalance:  res.NewBalance,
		})
	}
}

// TransferResponse omits toAccountBalance for transfers to another person.
type TransferResponse struct {
	envelope
	Transaction        models.Transaction `json:"transaction"`
	FromAccountBalance decimal.Decimal    `json:"fromAccountBalance"`
	ToAccountBalance   *decimal.Decimal   `json:"toAccountBalance,omitempty"`
}

func (s *APIServer) transferHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		acting, _ := session.FromContext(r.Context())

		var req operations.TransferRequest
		if err := s.decode(w, r, &req); err != nil {
			s.writeInvalid(w, err, msgValidationError)
			return
		}

		res, err := s.operations.Transfer(r.Context(), acting.ID, req)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		s.writeJSON(w, http.StatusOK, TransferResponse{
			envelope:           success("Transfer successful"),
			Transaction:        res.Transaction,
			FromAccountBalance: res.FromAccountBalance,
			ToAccountBalance:   res.ToAccountBalance,
		})
	}
}
