package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/id"
	"github.com/computeralex/easier-softer-meeting-manager/internal/schedule"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/jmoiron/sqlx"
)

type blockRow struct {
	ID     string `db:"id"`
	Title  string `db:"title"`
	Order  int    `db:"sort_order"`
	Active bool   `db:"active"`
}

type variationRow struct {
	ID      string         `db:"id"`
	BlockID string         `db:"block_id"`
	TypeID  sql.NullString `db:"type_id"`
	Content string         `db:"content"`
	Order   int            `db:"sort_order"`
	Active  bool           `db:"active"`
	Default bool           `db:"is_default"`
}

func (r variationRow) variation() schedule.Variation {
	return schedule.Variation{
		ID:      r.ID,
		BlockID: r.BlockID,
		TypeID:  r.TypeID.String,
		Content: r.Content,
		Order:   r.Order,
		Active:  r.Active,
		Default: r.Default,
	}
}

type ruleRow struct {
	ID           string         `db:"id"`
	VariationID  string         `db:"variation_id"`
	Kind         string         `db:"kind"`
	Occurrence   sql.NullInt64  `db:"occurrence"`
	Weekday      sql.NullInt64  `db:"weekday"`
	SpecificDate sql.NullString `db:"specific_date"`
}

func (r ruleRow) rule() (schedule.Rule, error) {
	out := schedule.Rule{ID: r.ID, VariationID: r.VariationID, Kind: schedule.RuleKind(r.Kind)}
	if r.Occurrence.Valid {
		occ := int(r.Occurrence.Int64)
		out.Occurrence = &occ
	}
	if r.Weekday.Valid {
		w := schedule.Weekday(r.Weekday.Int64)
		out.Weekday = &w
	}
	if r.SpecificDate.Valid {
		d, err := parseDate(r.SpecificDate.String)
		if err != nil {
			return schedule.Rule{}, err
		}
		out.Date = &d
	}
	return out, nil
}

const (
	blockColumns     = `id, title, sort_order, active`
	variationColumns = `id, block_id, type_id, content, sort_order, active, is_default`
	ruleColumns      = `id, variation_id, kind, occurrence, weekday, specific_date`
)

// ListBlocks returns every block with its variations and their rules.
func (s *Store) ListBlocks(ctx context.Context) ([]schedule.Block, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var blocks []blockRow
	if err := s.db.SelectContext(ctx, &blocks, `SELECT `+blockColumns+` FROM format_blocks ORDER BY sort_order, created_at`); err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	var variations []variationRow
	if err := s.db.SelectContext(ctx, &variations, `SELECT `+variationColumns+` FROM block_variations ORDER BY sort_order, created_at`); err != nil {
		return nil, fmt.Errorf("list variations: %w", err)
	}
	var rules []ruleRow
	if err := s.db.SelectContext(ctx, &rules, `SELECT `+ruleColumns+` FROM variation_schedules ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return assembleBlocks(blocks, variations, rules)
}

// GetBlock returns one block with its variations and rules.
func (s *Store) GetBlock(ctx context.Context, blockID string) (schedule.Block, error) {
	if err := s.ready(ctx); err != nil {
		return schedule.Block{}, err
	}
	blockID = strings.TrimSpace(blockID)
	var block blockRow
	if err := s.db.GetContext(ctx, &block, `SELECT `+blockColumns+` FROM format_blocks WHERE id = ?`, blockID); err != nil {
		return schedule.Block{}, notFound(err)
	}
	var variations []variationRow
	if err := s.db.SelectContext(ctx, &variations,
		`SELECT `+variationColumns+` FROM block_variations WHERE block_id = ? ORDER BY sort_order, created_at`, blockID,
	); err != nil {
		return schedule.Block{}, fmt.Errorf("list variations: %w", err)
	}
	var rules []ruleRow
	if err := s.db.SelectContext(ctx, &rules,
		`SELECT s.id, s.variation_id, s.kind, s.occurrence, s.weekday, s.specific_date
		   FROM variation_schedules s
		   JOIN block_variations v ON v.id = s.variation_id
		  WHERE v.block_id = ?
		  ORDER BY s.created_at`, blockID,
	); err != nil {
		return schedule.Block{}, fmt.Errorf("list schedules: %w", err)
	}
	out, err := assembleBlocks([]blockRow{block}, variations, rules)
	if err != nil {
		return schedule.Block{}, err
	}
	return out[0], nil
}

func assembleBlocks(blocks []blockRow, variations []variationRow, rules []ruleRow) ([]schedule.Block, error) {
	rulesByVariation := make(map[string][]schedule.Rule)
	for _, row := range rules {
		r, err := row.rule()
		if err != nil {
			return nil, err
		}
		rulesByVariation[r.VariationID] = append(rulesByVariation[r.VariationID], r)
	}
	variationsByBlock := make(map[string][]schedule.Variation)
	for _, row := range variations {
		v := row.variation()
		v.Rules = rulesByVariation[v.ID]
		variationsByBlock[v.BlockID] = append(variationsByBlock[v.BlockID], v)
	}
	out := make([]schedule.Block, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, schedule.Block{
			ID:         b.ID,
			Title:      b.Title,
			Order:      b.Order,
			Active:     b.Active,
			Variations: variationsByBlock[b.ID],
		})
	}
	return out, nil
}

// PutBlock inserts or updates one block. Variations are saved separately.
func (s *Store) PutBlock(ctx context.Context, b schedule.Block) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	blockID, err := requireID("block", b.ID)
	if err != nil {
		return err
	}
	title := strings.TrimSpace(b.Title)
	if title == "" {
		return fmt.Errorf("block title is required")
	}
	now := s.nowMillis()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO format_blocks (id, title, sort_order, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title,
		   sort_order = excluded.sort_order,
		   active = excluded.active,
		   updated_at = excluded.updated_at`,
		blockID, title, b.Order, b.Active, now, now,
	); err != nil {
		return fmt.Errorf("put block: %w", err)
	}
	return nil
}

// NextBlockOrder returns one past the highest block order.
func (s *Store) NextBlockOrder(ctx context.Context) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var next int
	if err := s.db.GetContext(ctx, &next, `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM format_blocks`); err != nil {
		return 0, fmt.Errorf("next block order: %w", err)
	}
	return next, nil
}

// DeleteBlock removes a block with its variations and rules.
func (s *Store) DeleteBlock(ctx context.Context, blockID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM format_blocks WHERE id = ?`, strings.TrimSpace(blockID))
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return requireAffected(res)
}

// SetBlockOrders rewrites block orders in one transaction.
func (s *Store) SetBlockOrders(ctx context.Context, orders map[string]int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	now := s.nowMillis()
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for blockID, order := range orders {
			if _, err := tx.ExecContext(ctx,
				`UPDATE format_blocks SET sort_order = ?, updated_at = ? WHERE id = ?`, order, now, blockID,
			); err != nil {
				return fmt.Errorf("reorder block %s: %w", blockID, err)
			}
		}
		return nil
	})
}

// SaveVariation inserts or updates v. Saving a default clears the previous
// default of the block; a block without an active default adopts v, or its
// first active sibling when v is inactive.
func (s *Store) SaveVariation(ctx context.Context, v schedule.Variation) (schedule.Variation, error) {
	if err := s.ready(ctx); err != nil {
		return schedule.Variation{}, err
	}
	variationID, err := requireID("variation", v.ID)
	if err != nil {
		return schedule.Variation{}, err
	}
	v.ID = variationID
	v.BlockID = strings.TrimSpace(v.BlockID)

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM format_blocks WHERE id = ?`, v.BlockID); err != nil {
			return fmt.Errorf("check block: %w", err)
		}
		if exists == 0 {
			return storage.ErrNotFound
		}

		var siblings []variationRow
		if err := tx.SelectContext(ctx, &siblings,
			`SELECT `+variationColumns+` FROM block_variations WHERE block_id = ? AND id <> ?`, v.BlockID, v.ID,
		); err != nil {
			return fmt.Errorf("load sibling variations: %w", err)
		}
		others := make([]schedule.Variation, 0, len(siblings))
		for _, row := range siblings {
			others = append(others, row.variation())
		}
		var upd schedule.DefaultUpdate
		v, upd = schedule.ResolveDefault(v, others)

		now := s.nowMillis()
		for _, siblingID := range upd.Cleared {
			if _, err := tx.ExecContext(ctx,
				`UPDATE block_variations SET is_default = 0, updated_at = ? WHERE id = ?`, now, siblingID,
			); err != nil {
				return fmt.Errorf("clear default: %w", err)
			}
		}
		if upd.Promoted != "" {
			if _, err := tx.ExecContext(ctx,
				`UPDATE block_variations SET is_default = 1, updated_at = ? WHERE id = ?`, now, upd.Promoted,
			); err != nil {
				return fmt.Errorf("promote default: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO block_variations (id, block_id, type_id, content, sort_order, active, is_default, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   block_id = excluded.block_id,
			   type_id = excluded.type_id,
			   content = excluded.content,
			   sort_order = excluded.sort_order,
			   active = excluded.active,
			   is_default = excluded.is_default,
			   updated_at = excluded.updated_at`,
			v.ID, v.BlockID, nullString(v.TypeID), v.Content, v.Order, v.Active, v.Default, now, now,
		); err != nil {
			if isForeignKeyViolation(err) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("save variation: %w", err)
		}
		return nil
	})
	if err != nil {
		return schedule.Variation{}, err
	}
	return v, nil
}

// NextVariationOrder returns one past the highest variation order in a block.
func (s *Store) NextVariationOrder(ctx context.Context, blockID string) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	var next int
	if err := s.db.GetContext(ctx, &next,
		`SELECT COALESCE(MAX(sort_order) + 1, 0) FROM block_variations WHERE block_id = ?`, strings.TrimSpace(blockID),
	); err != nil {
		return 0, fmt.Errorf("next variation order: %w", err)
	}
	return next, nil
}

// GetVariation returns one variation with its rules.
func (s *Store) GetVariation(ctx context.Context, variationID string) (schedule.Variation, error) {
	if err := s.ready(ctx); err != nil {
		return schedule.Variation{}, err
	}
	variationID = strings.TrimSpace(variationID)
	var row variationRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+variationColumns+` FROM block_variations WHERE id = ?`, variationID); err != nil {
		return schedule.Variation{}, notFound(err)
	}
	var rules []ruleRow
	if err := s.db.SelectContext(ctx, &rules,
		`SELECT `+ruleColumns+` FROM variation_schedules WHERE variation_id = ? ORDER BY created_at`, variationID,
	); err != nil {
		return schedule.Variation{}, fmt.Errorf("list schedules: %w", err)
	}
	v := row.variation()
	for _, r := range rules {
		rule, err := r.rule()
		if err != nil {
			return schedule.Variation{}, err
		}
		v.Rules = append(v.Rules, rule)
	}
	return v, nil
}

// DeleteVariation removes a variation and its rules. When it was the block's
// default, the first remaining variation by order becomes the default.
func (s *Store) DeleteVariation(ctx context.Context, variationID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	variationID = strings.TrimSpace(variationID)
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var row variationRow
		if err := tx.GetContext(ctx, &row, `SELECT `+variationColumns+` FROM block_variations WHERE id = ?`, variationID); err != nil {
			return notFound(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM block_variations WHERE id = ?`, variationID); err != nil {
			return fmt.Errorf("delete variation: %w", err)
		}
		if !row.Default {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE block_variations SET is_default = 1, updated_at = ?
			  WHERE id = (SELECT id FROM block_variations WHERE block_id = ? ORDER BY active DESC, sort_order, created_at LIMIT 1)`,
			s.nowMillis(), row.BlockID,
		); err != nil {
			return fmt.Errorf("promote default: %w", err)
		}
		return nil
	})
}

// AddRule validates and stores a schedule rule.
func (s *Store) AddRule(ctx context.Context, rule schedule.Rule) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	ruleID, err := requireID("schedule", rule.ID)
	if err != nil {
		return err
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	rule = rule.Normalized()

	var occurrence, weekday sql.NullInt64
	var date sql.NullString
	if rule.Occurrence != nil {
		occurrence = sql.NullInt64{Int64: int64(*rule.Occurrence), Valid: true}
	}
	if rule.Weekday != nil {
		weekday = sql.NullInt64{Int64: int64(*rule.Weekday), Valid: true}
	}
	if rule.Date != nil {
		date = sql.NullString{String: formatDate(*rule.Date), Valid: true}
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO variation_schedules (`+ruleColumns+`, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ruleID, strings.TrimSpace(rule.VariationID), string(rule.Kind), occurrence, weekday, date, s.nowMillis(),
	); err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("add schedule: %w", err)
	}
	return nil
}

// DeleteRule removes one schedule rule.
func (s *Store) DeleteRule(ctx context.Context, ruleID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM variation_schedules WHERE id = ?`, strings.TrimSpace(ruleID))
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return requireAffected(res)
}

type meetingTypeRow struct {
	ID     string `db:"id"`
	Name   string `db:"name"`
	Order  int    `db:"sort_order"`
	Active bool   `db:"active"`
}

func (r meetingTypeRow) meetingType() schedule.MeetingType {
	return schedule.MeetingType{ID: r.ID, Name: r.Name, Order: r.Order, Active: r.Active}
}

// ListMeetingTypes returns every meeting type ordered by order then name.
func (s *Store) ListMeetingTypes(ctx context.Context) ([]schedule.MeetingType, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []meetingTypeRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name, sort_order, active FROM meeting_types ORDER BY sort_order, name`); err != nil {
		return nil, fmt.Errorf("list meeting types: %w", err)
	}
	out := make([]schedule.MeetingType, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.meetingType())
	}
	return out, nil
}

// GetMeetingType returns one meeting type.
func (s *Store) GetMeetingType(ctx context.Context, typeID string) (schedule.MeetingType, error) {
	if err := s.ready(ctx); err != nil {
		return schedule.MeetingType{}, err
	}
	var row meetingTypeRow
	if err := s.db.GetContext(ctx, &row, `SELECT id, name, sort_order, active FROM meeting_types WHERE id = ?`, strings.TrimSpace(typeID)); err != nil {
		return schedule.MeetingType{}, notFound(err)
	}
	return row.meetingType(), nil
}

// PutMeetingType inserts or updates one meeting type. Names are unique.
func (s *Store) PutMeetingType(ctx context.Context, t schedule.MeetingType) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	typeID, err := requireID("meeting type", t.ID)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return fmt.Errorf("meeting type name is required")
	}
	now := s.nowMillis()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO meeting_types (id, name, sort_order, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   sort_order = excluded.sort_order,
		   active = excluded.active,
		   updated_at = excluded.updated_at`,
		typeID, name, t.Order, t.Active, now, now,
	); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put meeting type: %w", err)
	}
	return nil
}

// DeleteMeetingType removes a meeting type. Its variations become untagged
// and a selection of it is cleared.
func (s *Store) DeleteMeetingType(ctx context.Context, typeID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM meeting_types WHERE id = ?`, strings.TrimSpace(typeID))
	if err != nil {
		return fmt.Errorf("delete meeting type: %w", err)
	}
	return requireAffected(res)
}

type formatConfigRow struct {
	PublicEnabled   bool           `db:"public_enabled"`
	ShareToken      string         `db:"share_token"`
	EditorFontSize  string         `db:"editor_font_size"`
	DisplayFontSize string         `db:"display_font_size"`
	SelectedTypeID  sql.NullString `db:"selected_type_id"`
	UpdatedAt       int64          `db:"updated_at"`
}

func (r formatConfigRow) config() storage.FormatConfig {
	return storage.FormatConfig{
		PublicEnabled:   r.PublicEnabled,
		ShareToken:      r.ShareToken,
		EditorFontSize:  r.EditorFontSize,
		DisplayFontSize: r.DisplayFontSize,
		SelectedTypeID:  r.SelectedTypeID.String,
		UpdatedAt:       fromMillis(r.UpdatedAt),
	}
}

const formatConfigColumns = `public_enabled, share_token, editor_font_size, display_font_size, selected_type_id, updated_at`

// GetFormatConfig returns the format configuration, creating it on first use.
func (s *Store) GetFormatConfig(ctx context.Context) (storage.FormatConfig, error) {
	if err := s.ready(ctx); err != nil {
		return storage.FormatConfig{}, err
	}
	var row formatConfigRow
	err := s.db.GetContext(ctx, &row, `SELECT `+formatConfigColumns+` FROM format_config WHERE id = 1`)
	if err == nil {
		return row.config(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return storage.FormatConfig{}, fmt.Errorf("get format config: %w", err)
	}
	token, err := id.NewToken()
	if err != nil {
		return storage.FormatConfig{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO format_config (id, public_enabled, share_token, editor_font_size, display_font_size, updated_at)
		 VALUES (1, 1, ?, ?, ?, ?)`,
		token, storage.DefaultFont, storage.DefaultFont, s.nowMillis(),
	); err != nil {
		return storage.FormatConfig{}, fmt.Errorf("create format config: %w", err)
	}
	if err := s.db.GetContext(ctx, &row, `SELECT `+formatConfigColumns+` FROM format_config WHERE id = 1`); err != nil {
		return storage.FormatConfig{}, fmt.Errorf("get format config: %w", err)
	}
	return row.config(), nil
}

// PutFormatConfig updates the format configuration. An empty share token
// keeps the current one.
func (s *Store) PutFormatConfig(ctx context.Context, cfg storage.FormatConfig) error {
	current, err := s.GetFormatConfig(ctx)
	if err != nil {
		return err
	}
	token := strings.TrimSpace(cfg.ShareToken)
	if token == "" {
		token = current.ShareToken
	}
	editor, display := cfg.EditorFontSize, cfg.DisplayFontSize
	if !storage.ValidFontSize(editor) {
		editor = current.EditorFontSize
	}
	if !storage.ValidFontSize(display) {
		display = current.DisplayFontSize
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE format_config
		    SET public_enabled = ?, share_token = ?, editor_font_size = ?, display_font_size = ?,
		        selected_type_id = ?, updated_at = ?
		  WHERE id = 1`,
		cfg.PublicEnabled, token, editor, display, nullString(cfg.SelectedTypeID), s.nowMillis(),
	); err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("put format config: %w", err)
	}
	return nil
}

// GetFormatConfigByToken returns the configuration whose share token is token.
func (s *Store) GetFormatConfigByToken(ctx context.Context, token string) (storage.FormatConfig, error) {
	if err := s.ready(ctx); err != nil {
		return storage.FormatConfig{}, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return storage.FormatConfig{}, storage.ErrNotFound
	}
	var row formatConfigRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+formatConfigColumns+` FROM format_config WHERE share_token = ?`, token); err != nil {
		return storage.FormatConfig{}, notFound(err)
	}
	return row.config(), nil
}
