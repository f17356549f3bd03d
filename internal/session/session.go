// Package session works out which user a request acts as.
package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/IlyasAtabaev731/atm-server/internal/domain"
	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
	"github.com/IlyasAtabaev731/atm-server/internal/lib/jwt"
)

const (
	UserIDHeader = "x-user-id"
	UserIDQuery  = "userId"
)

type UserFinder interface {
	FindUser(id string) (*models.User, error)
}

type Resolver struct {
	users       UserFinder
	jwtSecret   string
	trustHeader bool
}

// New returns a Resolver. With trustHeader set, the unverified x-user-id
// header and userId query parameter are accepted when no bearer token is sent.
func New(users UserFinder, jwtSecret string, trustHeader bool) *Resolver {
	return &Resolver{
		users:       users,
		jwtSecret:   jwtSecret,
		trustHeader: trustHeader,
	}
}

// UserID returns the claimed identity without checking that the user exists.
func (r *Resolver) UserID(req *http.Request) (string, error) {
	if auth := req.Header.Get("Authorization"); auth != "" {
		parts := strings.Split(auth, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", domain.ErrInvalidToken
		}
		uid, err := jwt.UserID(parts[1], r.jwtSecret)
		if err != nil {
			return "", domain.ErrInvalidToken
		}
		return uid, nil
	}

	if !r.trustHeader {
		return "", domain.ErrMissingIdentity
	}

	if id := strings.TrimSpace(req.Header.Get(UserIDHeader)); id != "" {
		return id, nil
	}
	if id := strings.TrimSpace(req.URL.Query().Get(UserIDQuery)); id != "" {
		return id, nil
	}

	return "", domain.ErrMissingIdentity
}

// Resolve returns the acting user.
func (r *Resolver) Resolve(req *http.Request) (*models.User, error) {
	id, err := r.UserID(req)
	if err != nil {
		return nil, err
	}
	return r.users.FindUser(id)
}

type ctxKey struct{}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// FromContext returns the user stored by WithUser.
func FromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*models.User)
	return u, ok && u != nil
}
