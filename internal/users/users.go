// Package users handles card login and the profile of the acting user.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IlyasAtabaev731/atm-server/internal/domain"
	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
	"github.com/IlyasAtabaev731/atm-server/internal/lib/jwt"
	"golang.org/x/crypto/bcrypt"
)

// cardUsers is the fixed card-to-user mapping of the demo dataset.
var cardUsers = map[string]string{
	"visa":       "1",
	"mastercard": "2",
}

type Store interface {
	FindUser(id string) (*models.User, error)
	UpdateUserProfile(userID string, update models.ProfileUpdate) (*models.User, error)
}

type LoginRequest struct {
	CardType string `json:"cardType" validate:"required,oneof=visa mastercard"`
	PIN      string `json:"pin" validate:"required,len=4,numeric"`
}

type LoginResult struct {
	User  *models.User
	Token string
}

type Service struct {
	store     Store
	logger    *slog.Logger
	jwtSecret string
	tokenTTL  time.Duration
}

func New(store Store, logger *slog.Logger, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{
		store:     store,
		logger:    logger,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func (s *Service) Login(_ context.Context, req LoginRequest) (*LoginResult, error) {
	const op = "users.Login"

	userID, ok := cardUsers[req.CardType]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	user, err := s.store.FindUser(userID)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(req.PIN)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Warn("Invalid PIN", slog.String("user_id", user.ID))
			return nil, domain.ErrInvalidPIN
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := jwt.NewToken(user, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("User logged in", slog.String("user_id", user.ID), slog.String("card_type", req.CardType))

	return &LoginResult{User: user, Token: token}, nil
}

func (s *Service) Profile(_ context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, domain.ErrMissingIdentity
	}
	return s.store.FindUser(userID)
}

func (s *Service) UpdateProfile(_ context.Context, userID string, update models.ProfileUpdate) (*models.User, error) {
	const op = "users.UpdateProfile"

	if userID == "" {
		return nil, domain.ErrMissingIdentity
	}

	user, err := s.store.UpdateUserProfile(userID, update)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("Profile updated", slog.String("user_id", userID))

	return user, nil
}
