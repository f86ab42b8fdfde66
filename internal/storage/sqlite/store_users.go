package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
)

type userRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	FirstName    string `db:"first_name"`
	LastName     string `db:"last_name"`
	PasswordHash string `db:"password_hash"`
	Superuser    bool   `db:"superuser"`
	Active       bool   `db:"active"`
	CreatedAt    int64  `db:"created_at"`
	UpdatedAt    int64  `db:"updated_at"`
}

const userColumns = `id, email, first_name, last_name, password_hash, superuser, active, created_at, updated_at`

func (r userRow) user() storage.User {
	return storage.User{
		ID:           r.ID,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PasswordHash: r.PasswordHash,
		Superuser:    r.Superuser,
		Active:       r.Active,
		CreatedAt:    fromMillis(r.CreatedAt),
		UpdatedAt:    fromMillis(r.UpdatedAt),
	}
}

// CreateUser inserts one user. Emails are unique regardless of case.
func (s *Store) CreateUser(ctx context.Context, user storage.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	userID, err := requireID("user", user.ID)
	if err != nil {
		return err
	}
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if user.PasswordHash == "" {
		return fmt.Errorf("password hash is required")
	}
	now := s.nowMillis()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, email, strings.TrimSpace(user.FirstName), strings.TrimSpace(user.LastName),
		user.PasswordHash, user.Superuser, user.Active, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser returns one user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (storage.User, error) {
	if err := s.ready(ctx); err != nil {
		return storage.User{}, err
	}
	var row userRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = ?`, strings.TrimSpace(id)); err != nil {
		return storage.User{}, notFound(err)
	}
	return row.user(), nil
}

// GetUserByEmail returns one user by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (storage.User, error) {
	if err := s.ready(ctx); err != nil {
		return storage.User{}, err
	}
	var row userRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email))); err != nil {
		return storage.User{}, notFound(err)
	}
	return row.user(), nil
}

// ListUsers returns every user ordered by name then email.
func (s *Store) ListUsers(ctx context.Context) ([]storage.User, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM users ORDER BY first_name, last_name, email`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]storage.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.user())
	}
	return out, nil
}
