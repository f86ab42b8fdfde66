package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/phonelist"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/id"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/jmoiron/sqlx"
)

type contactRow struct {
	ID                 string         `db:"id"`
	Name               string         `db:"name"`
	Phone              string         `db:"phone"`
	WhatsApp           bool           `db:"has_whatsapp"`
	Email              string         `db:"email"`
	AvailableToSponsor bool           `db:"available_to_sponsor"`
	SobrietyDate       sql.NullString `db:"sobriety_date"`
	TimeZone           string         `db:"time_zone"`
	TimeZoneOther      string         `db:"time_zone_other"`
	Notes              string         `db:"notes"`
	Active             bool           `db:"active"`
	Order              int            `db:"display_order"`
}

const contactColumns = `id, name, phone, has_whatsapp, email, available_to_sponsor, sobriety_date, time_zone, time_zone_other, notes, active, display_order`

func (r contactRow) contact() (phonelist.Contact, error) {
	c := phonelist.Contact{
		ID:                 r.ID,
		Name:               r.Name,
		Phone:              r.Phone,
		WhatsApp:           r.WhatsApp,
		Email:              r.Email,
		AvailableToSponsor: r.AvailableToSponsor,
		TimeZone:           r.TimeZone,
		TimeZoneOther:      r.TimeZoneOther,
		Notes:              r.Notes,
		Active:             r.Active,
		Order:              r.Order,
	}
	if r.SobrietyDate.Valid && r.SobrietyDate.String != "" {
		day, err := parseDate(r.SobrietyDate.String)
		if err != nil {
			return phonelist.Contact{}, err
		}
		c.SobrietyDate = &day
	}
	return c, nil
}

// ListContacts returns every contact ordered by display order then name.
func (s *Store) ListContacts(ctx context.Context) ([]phonelist.Contact, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []contactRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT `+contactColumns+` FROM phone_contacts ORDER BY display_order, name COLLATE NOCASE`,
	); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	out := make([]phonelist.Contact, 0, len(rows))
	for _, row := range rows {
		c, err := row.contact()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// GetContact returns one contact.
func (s *Store) GetContact(ctx context.Context, contactID string) (phonelist.Contact, error) {
	if err := s.ready(ctx); err != nil {
		return phonelist.Contact{}, err
	}
	var row contactRow
	if err := s.db.GetContext(ctx, &row,
		`SELECT `+contactColumns+` FROM phone_contacts WHERE id = ?`, strings.TrimSpace(contactID),
	); err != nil {
		return phonelist.Contact{}, notFound(err)
	}
	return row.contact()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) putContact(ctx context.Context, db execer, c phonelist.Contact) error {
	contactID, err := requireID("contact", c.ID)
	if err != nil {
		return err
	}
	var sobriety sql.NullString
	if c.SobrietyDate != nil {
		sobriety = sql.NullString{String: formatDate(*c.SobrietyDate), Valid: true}
	}
	now := s.nowMillis()
	if _, err := db.ExecContext(ctx,
		`INSERT INTO phone_contacts (`+contactColumns+`, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   phone = excluded.phone,
		   has_whatsapp = excluded.has_whatsapp,
		   email = excluded.email,
		   available_to_sponsor = excluded.available_to_sponsor,
		   sobriety_date = excluded.sobriety_date,
		   time_zone = excluded.time_zone,
		   time_zone_other = excluded.time_zone_other,
		   notes = excluded.notes,
		   active = excluded.active,
		   display_order = excluded.display_order,
		   updated_at = excluded.updated_at`,
		contactID, strings.TrimSpace(c.Name), strings.TrimSpace(c.Phone), c.WhatsApp, strings.TrimSpace(c.Email),
		c.AvailableToSponsor, sobriety, strings.ToUpper(strings.TrimSpace(c.TimeZone)), strings.TrimSpace(c.TimeZoneOther),
		c.Notes, c.Active, c.Order, now, now,
	); err != nil {
		return fmt.Errorf("put contact: %w", err)
	}
	return nil
}

// PutContact inserts or updates one contact.
func (s *Store) PutContact(ctx context.Context, c phonelist.Contact) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.putContact(ctx, s.db, c)
}

// DeleteContact removes one contact.
func (s *Store) DeleteContact(ctx context.Context, contactID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM phone_contacts WHERE id = ?`, strings.TrimSpace(contactID))
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return requireAffected(res)
}

// ImportContacts applies an import. In update mode a row whose name matches
// an existing contact, ignoring case, overwrites it and keeps its ID and
// display order.
func (s *Store) ImportContacts(ctx context.Context, mode string, contacts []phonelist.Contact) (storage.ImportResult, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ImportResult{}, err
	}
	if !phonelist.ValidMode(mode) {
		return storage.ImportResult{}, fmt.Errorf("unknown import mode %q", mode)
	}
	var result storage.ImportResult
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		if mode == phonelist.ModeReplace {
			if _, err := tx.ExecContext(ctx, `DELETE FROM phone_contacts`); err != nil {
				return fmt.Errorf("clear contacts: %w", err)
			}
		}
		var maxOrder int
		if err := tx.GetContext(ctx, &maxOrder, `SELECT COALESCE(MAX(display_order), 0) FROM phone_contacts`); err != nil {
			return fmt.Errorf("max display order: %w", err)
		}
		for _, c := range contacts {
			if mode == phonelist.ModeUpdate {
				var existing contactRow
				err := tx.GetContext(ctx, &existing,
					`SELECT `+contactColumns+` FROM phone_contacts WHERE name = ? COLLATE NOCASE ORDER BY display_order LIMIT 1`,
					strings.TrimSpace(c.Name),
				)
				if err == nil {
					c.ID = existing.ID
					c.Order = existing.Order
					if err := s.putContact(ctx, tx, c); err != nil {
						return err
					}
					result.Updated++
					continue
				}
				if !errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("find contact: %w", err)
				}
			}
			contactID, err := id.NewID()
			if err != nil {
				return err
			}
			maxOrder++
			c.ID = contactID
			c.Order = maxOrder
			if err := s.putContact(ctx, tx, c); err != nil {
				return err
			}
			result.Added++
		}
		return nil
	})
	if err != nil {
		return storage.ImportResult{}, err
	}
	return result, nil
}

type timeZoneRow struct {
	Code        string `db:"code"`
	DisplayName string `db:"display_name"`
	Active      bool   `db:"active"`
	Order       int    `db:"sort_order"`
}

// ListTimeZones returns every zone in display order.
func (s *Store) ListTimeZones(ctx context.Context) ([]phonelist.TimeZone, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []timeZoneRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT code, display_name, active, sort_order FROM phone_time_zones ORDER BY sort_order, code`,
	); err != nil {
		return nil, fmt.Errorf("list time zones: %w", err)
	}
	out := make([]phonelist.TimeZone, 0, len(rows))
	for _, row := range rows {
		out = append(out, phonelist.TimeZone{Code: row.Code, DisplayName: row.DisplayName, Active: row.Active, Order: row.Order})
	}
	return out, nil
}

// ReplaceTimeZones swaps the zone list. Contacts keep their zone codes.
func (s *Store) ReplaceTimeZones(ctx context.Context, zones []phonelist.TimeZone) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM phone_time_zones`); err != nil {
			return fmt.Errorf("clear time zones: %w", err)
		}
		for _, z := range zones {
			code := strings.ToUpper(strings.TrimSpace(z.Code))
			if code == "" {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO phone_time_zones (code, display_name, active, sort_order) VALUES (?, ?, ?, ?)`,
				code, strings.TrimSpace(z.DisplayName), z.Active, z.Order,
			); err != nil {
				if isUniqueViolation(err) {
					return storage.ErrAlreadyExists
				}
				return fmt.Errorf("put time zone: %w", err)
			}
		}
		return nil
	})
}

type phoneListConfigRow struct {
	PublicEnabled bool   `db:"public_enabled"`
	ShareToken    string `db:"share_token"`
	UpdatedAt     int64  `db:"updated_at"`
}

func (r phoneListConfigRow) config() storage.PhoneListConfig {
	return storage.PhoneListConfig{
		PublicEnabled: r.PublicEnabled,
		ShareToken:    r.ShareToken,
		UpdatedAt:     fromMillis(r.UpdatedAt),
	}
}

const phoneListConfigQuery = `SELECT public_enabled, share_token, updated_at FROM phone_list_config`

// GetPhoneListConfig returns the phone list configuration, creating it on
// first use with sharing off.
func (s *Store) GetPhoneListConfig(ctx context.Context) (storage.PhoneListConfig, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PhoneListConfig{}, err
	}
	var row phoneListConfigRow
	err := s.db.GetContext(ctx, &row, phoneListConfigQuery+` WHERE id = 1`)
	if err == nil {
		return row.config(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return storage.PhoneListConfig{}, fmt.Errorf("get phone list config: %w", err)
	}
	token, err := id.NewToken()
	if err != nil {
		return storage.PhoneListConfig{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO phone_list_config (id, public_enabled, share_token, updated_at) VALUES (1, 0, ?, ?)`,
		token, s.nowMillis(),
	); err != nil {
		return storage.PhoneListConfig{}, fmt.Errorf("create phone list config: %w", err)
	}
	if err := s.db.GetContext(ctx, &row, phoneListConfigQuery+` WHERE id = 1`); err != nil {
		return storage.PhoneListConfig{}, fmt.Errorf("get phone list config: %w", err)
	}
	return row.config(), nil
}

// PutPhoneListConfig updates the configuration. An empty share token keeps
// the current one.
func (s *Store) PutPhoneListConfig(ctx context.Context, cfg storage.PhoneListConfig) error {
	current, err := s.GetPhoneListConfig(ctx)
	if err != nil {
		return err
	}
	token := strings.TrimSpace(cfg.ShareToken)
	if token == "" {
		token = current.ShareToken
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE phone_list_config SET public_enabled = ?, share_token = ?, updated_at = ? WHERE id = 1`,
		cfg.PublicEnabled, token, s.nowMillis(),
	); err != nil {
		return fmt.Errorf("put phone list config: %w", err)
	}
	return nil
}

// GetPhoneListConfigByToken returns the configuration whose share token is token.
func (s *Store) GetPhoneListConfigByToken(ctx context.Context, token string) (storage.PhoneListConfig, error) {
	if err := s.ready(ctx); err != nil {
		return storage.PhoneListConfig{}, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return storage.PhoneListConfig{}, storage.ErrNotFound
	}
	var row phoneListConfigRow
	if err := s.db.GetContext(ctx, &row, phoneListConfigQuery+` WHERE share_token = ?`, token); err != nil {
		return storage.PhoneListConfig{}, notFound(err)
	}
	return row.config(), nil
}
