package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
)

type meetingConfigRow struct {
	MeetingName string `db:"meeting_name"`
	Timezone    string `db:"timezone"`
	MeetingDay  string `db:"meeting_day"`
	MeetingTime string `db:"meeting_time"`
	Address     string `db:"address"`
	UpdatedAt   int64  `db:"updated_at"`
}

// GetMeetingConfig returns the stored configuration or the defaults.
func (s *Store) GetMeetingConfig(ctx context.Context) (storage.MeetingConfig, error) {
	if err := s.ready(ctx); err != nil {
		return storage.MeetingConfig{}, err
	}
	var row meetingConfigRow
	err := s.db.GetContext(ctx, &row,
		`SELECT meeting_name, timezone, meeting_day, meeting_time, address, updated_at FROM meeting_config WHERE id = 1`,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.MeetingConfig{
			MeetingName: storage.DefaultMeetingName,
			Timezone:    storage.DefaultTimezone,
		}, nil
	}
	if err != nil {
		return storage.MeetingConfig{}, fmt.Errorf("get meeting config: %w", err)
	}
	return storage.MeetingConfig{
		MeetingName: row.MeetingName,
		Timezone:    row.Timezone,
		MeetingDay:  row.MeetingDay,
		MeetingTime: row.MeetingTime,
		Address:     row.Address,
		UpdatedAt:   fromMillis(row.UpdatedAt),
	}, nil
}

// PutMeetingConfig stores the configuration, filling blank name and timezone
// with the defaults.
func (s *Store) PutMeetingConfig(ctx context.Context, cfg storage.MeetingConfig) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	name := strings.TrimSpace(cfg.MeetingName)
	if name == "" {
		name = storage.DefaultMeetingName
	}
	tz := strings.TrimSpace(cfg.Timezone)
	if tz == "" {
		tz = storage.DefaultTimezone
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO meeting_config (id, meeting_name, timezone, meeting_day, meeting_time, address, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   meeting_name = excluded.meeting_name,
		   timezone = excluded.timezone,
		   meeting_day = excluded.meeting_day,
		   meeting_time = excluded.meeting_time,
		   address = excluded.address,
		   updated_at = excluded.updated_at`,
		name, tz, strings.TrimSpace(cfg.MeetingDay), strings.TrimSpace(cfg.MeetingTime),
		strings.TrimSpace(cfg.Address), s.nowMillis(),
	); err != nil {
		return fmt.Errorf("put meeting config: %w", err)
	}
	return nil
}
