// Package auth implements credential verification and carries the
// authenticated principal through request contexts.
package auth

import (
	"context"
	"errors"

	"github.com/nuklias/crm/internal/model"
	"github.com/nuklias/crm/internal/password"
	"github.com/nuklias/crm/internal/store"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so callers cannot be used for user enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountDeactivated is distinct: the credentials may be right but
	// the account is switched off.
	ErrAccountDeactivated = errors.New("account is deactivated")
)

// Authenticator verifies credentials and produces a principal. Alternative
// strategies (OAuth etc.) would implement the same interface without
// touching the session or middleware layers.
type Authenticator interface {
	Authenticate(ctx context.Context, email, plaintext string) (*model.User, error)
}

// EmailPasswordAuthenticator checks an email/password pair against the
// user store via bcrypt.
type EmailPasswordAuthenticator struct {
	users *store.UserStore
}

func NewEmailPasswordAuthenticator(users *store.UserStore) *EmailPasswordAuthenticator {
	return &EmailPasswordAuthenticator{users: users}
}

// Authenticate looks the user up among non-deleted rows, rejects inactive
// accounts, then verifies the password. The returned principal has its
// password hash stripped. Session creation is the caller's job.
func (a *EmailPasswordAuthenticator) Authenticate(ctx context.Context, email, plaintext string) (*model.User, error) {
	u, err := a.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDeactivated
	}
	if !password.Verify(plaintext, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	u.PasswordHash = ""
	return u, nil
}
