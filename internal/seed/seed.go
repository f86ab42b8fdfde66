package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/id"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/logging"
	"github.com/computeralex/easier-softer-meeting-manager/internal/positions"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest admin password accepted.
const MinPasswordLength = 8

// Store is the persistence the seed writes to.
type Store interface {
	GetPositionByName(ctx context.Context, name string) (positions.Position, error)
	PutPosition(ctx context.Context, position positions.Position) error
	GetUserByEmail(ctx context.Context, email string) (storage.User, error)
	CreateUser(ctx context.Context, user storage.User) error
}

// Options controls one seed run.
type Options struct {
	// Catalog defaults to the embedded catalog when nil.
	Catalog []CatalogEntry
	// AdminEmail skips the admin bootstrap when blank.
	AdminEmail    string
	AdminPassword string
	// Overwrite rewrites catalog positions that already exist, keeping their IDs.
	Overwrite bool
	Logger    logrus.FieldLogger
}

// Result counts what a run changed.
type Result struct {
	PositionsCreated int
	PositionsUpdated int
	PositionsSkipped int
	AdminCreated     bool
}

// Run upserts the catalog positions by name and creates the admin superuser
// when it does not exist. Running twice leaves the second run with nothing
// to do.
func Run(ctx context.Context, store Store, opts Options) (Result, error) {
	if store == nil {
		return Result{}, errors.New("seed store is required")
	}
	logger := logging.OrDiscard(opts.Logger)
	catalog := opts.Catalog
	if catalog == nil {
		var err error
		catalog, err = DefaultCatalog()
		if err != nil {
			return Result{}, err
		}
	}

	var result Result
	for _, entry := range catalog {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		p := entry.Position()
		existing, err := store.GetPositionByName(ctx, p.Name)
		switch {
		case err == nil && !opts.Overwrite:
			result.PositionsSkipped++
			continue
		case err == nil:
			p.ID = existing.ID
		case errors.Is(err, storage.ErrNotFound):
			if p.ID, err = id.NewID(); err != nil {
				return result, fmt.Errorf("generate position id: %w", err)
			}
		default:
			return result, fmt.Errorf("get position %s: %w", p.Name, err)
		}
		if err := store.PutPosition(ctx, p); err != nil {
			return result, fmt.Errorf("put position %s: %w", p.Name, err)
		}
		if existing.ID != "" {
			result.PositionsUpdated++
			logger.WithField("position", p.Name).Info("position updated")
		} else {
			result.PositionsCreated++
			logger.WithField("position", p.Name).Info("position created")
		}
	}

	created, err := ensureAdmin(ctx, store, opts.AdminEmail, opts.AdminPassword)
	if err != nil {
		return result, err
	}
	result.AdminCreated = created
	if created {
		logger.WithField("email", strings.ToLower(strings.TrimSpace(opts.AdminEmail))).Info("admin user created")
	}
	return result, nil
}

func ensureAdmin(ctx context.Context, store Store, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}
	_, err := store.GetUserByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("get admin user: %w", err)
	}
	if len(password) < MinPasswordLength {
		return false, fmt.Errorf("admin password must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	userID, err := id.NewID()
	if err != nil {
		return false, fmt.Errorf("generate user id: %w", err)
	}
	if err := store.CreateUser(ctx, storage.User{
		ID:           userID,
		Email:        email,
		FirstName:    "Admin",
		PasswordHash: string(hash),
		Superuser:    true,
		Active:       true,
	}); err != nil {
		return false, fmt.Errorf("create admin user: %w", err)
	}
	return true, nil
}
