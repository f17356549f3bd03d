package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/IlyasAtabaev731/atm-server/internal/domain"
	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func success(message string) envelope {
	return envelope{Success: true, Message: message}
}

type ErrorResponse struct {
	envelope
	Errors         []domain.Issue   `json:"errors,omitempty"`
	CurrentBalance *decimal.Decimal `json:"currentBalance,omitempty"`
}

// decode reads a JSON body into dst and runs its validate tags. Both kinds of
// failure come back as *domain.ValidationError.
func (s *APIServer) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.NewValidationError(domain.Issue{
				Field:   typeErr.Field,
				Message: typeMessage(typeErr),
			})
		}
		return domain.NewValidationError(domain.Issue{
			Field:   "body",
			Message: "Request body must be a valid JSON object",
		})
	}

	return s.validator.Struct(dst)
}

func typeMessage(err *json.UnmarshalTypeError) string {
	switch err.Type {
	case reflect.TypeOf(models.Amount{}), reflect.TypeOf(decimal.Decimal{}):
		return err.Field + " must be a number"
	}
	return fmt.Sprintf("%s must not be a %s", err.Field, err.Value)
}

func (s *APIServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

func (s *APIServer) writeFailure(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{envelope: envelope{Message: message}})
}

// writeInvalid reports a request that failed its schema. Anything other than a
// validation error is treated as internal.
func (s *APIServer) writeInvalid(w http.ResponseWriter, err error, message string) {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		s.logger.Error("Request validation failed", "error", err)
		s.writeFailure(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusBadRequest, ErrorResponse{
		envelope: envelope{Message: message},
		Errors:   verr.Issues,
	})
}

// writeError maps domain errors to status codes. Unknown errors are logged and
// reported as a bare 500.
func (s *APIServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr         *domain.ValidationError
		notFound     *domain.AccountNotFoundError
		insufficient *domain.InsufficientBalanceError
		resp         ErrorResponse
		status       int
	)

	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		resp.Message = msgValidationError
		if len(verr.Issues) == 1 {
			resp.Message = verr.Issues[0].Message
		}
		resp.Errors = verr.Issues
	case errors.As(err, &insufficient):
		status = http.StatusBadRequest
		resp.Message = "Insufficient balance"
		resp.CurrentBalance = &insufficient.CurrentBalance
	case errors.As(err, &notFound):
		status = http.StatusNotFound
		resp.Message = notFound.Error()
	case errors.Is(err, domain.ErrAccountNotFound):
		status = http.StatusNotFound
		resp.Message = "Account not found"
	case errors.Is(err, domain.ErrUserNotFound):
		status = http.StatusNotFound
		resp.Message = "User not found"
	case errors.Is(err, domain.ErrMissingIdentity):
		status = http.StatusBadRequest
		resp.Message = "User ID is required"
	case errors.Is(err, domain.ErrSameAccountTransfer):
		status = http.StatusBadRequest
		resp.Message = "Cannot transfer to the same account"
	case errors.Is(err, domain.ErrInvalidPIN):
		status = http.StatusUnauthorized
		resp.Message = "Invalid PIN"
	case errors.Is(err, domain.ErrInvalidToken):
		status = http.StatusUnauthorized
		resp.Message = "Invalid or expired token"
	default:
		s.logger.Error("Request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			"error", err,
		)
		s.writeFailure(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.logger.Warn("Request rejected",
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("reason", err.Error()),
	)

	s.writeJSON(w, status, resp)
}
