package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/logging"
	"github.com/computeralex/easier-softer-meeting-manager/internal/positions"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed sign-in attempt.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInactiveUser is returned when a session names a deactivated account.
var ErrInactiveUser = errors.New("user is inactive")

// Store is the persistence the authenticator reads.
type Store interface {
	GetUser(ctx context.Context, id string) (storage.User, error)
	GetUserByEmail(ctx context.Context, email string) (storage.User, error)
	CurrentPositionsForUser(ctx context.Context, userID string) ([]positions.Position, error)
}

// Authenticator checks credentials and builds principals.
type Authenticator struct {
	store  Store
	logger logrus.FieldLogger
}

// NewAuthenticator builds an authenticator over store.
func NewAuthenticator(store Store, logger logrus.FieldLogger) *Authenticator {
	return &Authenticator{store: store, logger: logging.OrDiscard(logger)}
}

// Login returns the active user matching email and password.
func (a *Authenticator) Login(ctx context.Context, email, password string) (storage.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return storage.User{}, ErrInvalidCredentials
	}
	user, err := a.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		a.logger.WithField("email", email).Info("login rejected: unknown email")
		return storage.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return storage.User{}, fmt.Errorf("login: %w", err)
	}
	if !user.Active {
		a.logger.WithField("user", user.ID).Info("login rejected: inactive user")
		return storage.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		a.logger.WithField("user", user.ID).Info("login rejected: wrong password")
		return storage.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Principal loads userID with the grants of the positions they currently hold.
func (a *Authenticator) Principal(ctx context.Context, userID string) (access.Principal, error) {
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return access.Principal{}, fmt.Errorf("load user %s: %w", userID, err)
	}
	if !user.Active {
		return access.Principal{}, ErrInactiveUser
	}
	held, err := a.store.CurrentPositionsForUser(ctx, user.ID)
	if err != nil {
		return access.Principal{}, fmt.Errorf("load positions for %s: %w", user.ID, err)
	}
	return access.Principal{
		UserID:      user.ID,
		DisplayName: user.DisplayName(),
		Superuser:   user.Superuser,
		Grants:      positions.GrantsFor(held),
	}, nil
}
