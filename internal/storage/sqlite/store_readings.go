package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/id"
	"github.com/computeralex/easier-softer-meeting-manager/internal/readings"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
)

type readingRow struct {
	ID        string `db:"id"`
	Title     string `db:"title"`
	ShortName string `db:"short_name"`
	Slug      string `db:"slug"`
	Content   string `db:"content"`
	Notes     string `db:"notes"`
	Copyright string `db:"copyright_notice"`
	Order     int    `db:"sort_order"`
	Active    bool   `db:"active"`
}

const readingColumns = `id, title, short_name, slug, content, notes, copyright_notice, sort_order, active`

func (r readingRow) reading() readings.Reading {
	return readings.Reading{
		ID:        r.ID,
		Title:     r.Title,
		ShortName: r.ShortName,
		Slug:      r.Slug,
		Content:   r.Content,
		Notes:     r.Notes,
		Copyright: r.Copyright,
		Order:     r.Order,
		Active:    r.Active,
	}
}

// ListReadings returns every reading ordered by order then title.
func (s *Store) ListReadings(ctx context.Context) ([]readings.Reading, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []readingRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+readingColumns+` FROM readings ORDER BY sort_order, title`); err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	out := make([]readings.Reading, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.reading())
	}
	return out, nil
}

// GetReading returns one reading by ID.
func (s *Store) GetReading(ctx context.Context, readingID string) (readings.Reading, error) {
	return s.getReading(ctx, `id = ?`, strings.TrimSpace(readingID))
}

// GetReadingBySlug returns one reading by slug, ignoring case.
func (s *Store) GetReadingBySlug(ctx context.Context, slug string) (readings.Reading, error) {
	return s.getReading(ctx, `slug = ?`, strings.ToLower(strings.TrimSpace(slug)))
}

func (s *Store) getReading(ctx context.Context, where string, arg any) (readings.Reading, error) {
	if err := s.ready(ctx); err != nil {
		return readings.Reading{}, err
	}
	var row readingRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+readingColumns+` FROM readings WHERE `+where, arg); err != nil {
		return readings.Reading{}, notFound(err)
	}
	return row.reading(), nil
}

// PutReading inserts or updates one reading. Slugs are unique.
func (s *Store) PutReading(ctx context.Context, r readings.Reading) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	readingID, err := requireID("reading", r.ID)
	if err != nil {
		return err
	}
	slug := strings.ToLower(strings.TrimSpace(r.Slug))
	if slug == "" {
		return fmt.Errorf("reading slug is required")
	}
	now := s.nowMillis()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (`+readingColumns+`, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   short_name = excluded.short_name,
		   slug = excluded.slug,
		   content = excluded.content,
		   notes = excluded.notes,
		   copyright_notice = excluded.copyright_notice,
		   sort_order = excluded.sort_order,
		   active = excluded.active,
		   updated_at = excluded.updated_at`,
		readingID, strings.TrimSpace(r.Title), strings.TrimSpace(r.ShortName), slug, r.Content,
		r.Notes, r.Copyright, r.Order, r.Active, now, now,
	); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put reading: %w", err)
	}
	return nil
}

// DeleteReading removes one reading.
func (s *Store) DeleteReading(ctx context.Context, readingID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM readings WHERE id = ?`, strings.TrimSpace(readingID))
	if err != nil {
		return fmt.Errorf("delete reading: %w", err)
	}
	return requireAffected(res)
}

// ReadingSlugTaken reports whether another reading uses slug.
func (s *Store) ReadingSlugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	var count int
	if err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM readings WHERE slug = ? AND id <> ?`,
		strings.ToLower(strings.TrimSpace(slug)), strings.TrimSpace(excludeID),
	); err != nil {
		return false, fmt.Errorf("check reading slug: %w", err)
	}
	return count > 0, nil
}

type readingsConfigRow struct {
	PublicEnabled bool   `db:"public_enabled"`
	ShareToken    string `db:"share_token"`
	UpdatedAt     int64  `db:"updated_at"`
}

func (r readingsConfigRow) config() storage.ReadingsConfig {
	return storage.ReadingsConfig{
		PublicEnabled: r.PublicEnabled,
		ShareToken:    r.ShareToken,
		UpdatedAt:     fromMillis(r.UpdatedAt),
	}
}

// GetReadingsConfig returns the readings configuration, creating it on first use.
func (s *Store) GetReadingsConfig(ctx context.Context) (storage.ReadingsConfig, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ReadingsConfig{}, err
	}
	var row readingsConfigRow
	const query = `SELECT public_enabled, share_token, updated_at FROM readings_config WHERE id = 1`
	err := s.db.GetContext(ctx, &row, query)
	if err == nil {
		return row.config(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return storage.ReadingsConfig{}, fmt.Errorf("get readings config: %w", err)
	}
	token, err := id.NewToken()
	if err != nil {
		return storage.ReadingsConfig{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO readings_config (id, public_enabled, share_token, updated_at) VALUES (1, 1, ?, ?)`,
		token, s.nowMillis(),
	); err != nil {
		return storage.ReadingsConfig{}, fmt.Errorf("create readings config: %w", err)
	}
	if err := s.db.GetContext(ctx, &row, query); err != nil {
		return storage.ReadingsConfig{}, fmt.Errorf("get readings config: %w", err)
	}
	return row.config(), nil
}

// PutReadingsConfig updates the readings configuration. An empty share token
// keeps the current one.
func (s *Store) PutReadingsConfig(ctx context.Context, cfg storage.ReadingsConfig) error {
	current, err := s.GetReadingsConfig(ctx)
	if err != nil {
		return err
	}
	token := strings.TrimSpace(cfg.ShareToken)
	if token == "" {
		token = current.ShareToken
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE readings_config SET public_enabled = ?, share_token = ?, updated_at = ? WHERE id = 1`,
		cfg.PublicEnabled, token, s.nowMillis(),
	); err != nil {
		return fmt.Errorf("put readings config: %w", err)
	}
	return nil
}

// GetReadingsConfigByToken returns the configuration whose share token is token.
func (s *Store) GetReadingsConfigByToken(ctx context.Context, token string) (storage.ReadingsConfig, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ReadingsConfig{}, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return storage.ReadingsConfig{}, storage.ErrNotFound
	}
	var row readingsConfigRow
	if err := s.db.GetContext(ctx, &row,
		`SELECT public_enabled, share_token, updated_at FROM readings_config WHERE share_token = ?`, token,
	); err != nil {
		return storage.ReadingsConfig{}, notFound(err)
	}
	return row.config(), nil
}
