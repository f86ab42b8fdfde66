package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/computeralex/easier-softer-meeting-manager/internal/treasury"
	"github.com/jmoiron/sqlx"
)

type treasurySettingsRow struct {
	StartingBalance int64 `db:"starting_balance"`
	PrudentReserve  int64 `db:"prudent_reserve"`
	Configured      bool  `db:"is_configured"`
	UpdatedAt       int64 `db:"updated_at"`
}

// GetTreasurySettings returns the treasury settings, creating them on first use.
func (s *Store) GetTreasurySettings(ctx context.Context) (treasury.Settings, error) {
	if err := s.ready(ctx); err != nil {
		return treasury.Settings{}, err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO treasury_settings (id, updated_at) VALUES (1, ?)`, s.nowMillis(),
	); err != nil {
		return treasury.Settings{}, fmt.Errorf("create treasury settings: %w", err)
	}
	var row treasurySettingsRow
	if err := s.db.GetContext(ctx, &row,
		`SELECT starting_balance, prudent_reserve, is_configured, updated_at FROM treasury_settings WHERE id = 1`,
	); err != nil {
		return treasury.Settings{}, fmt.Errorf("get treasury settings: %w", err)
	}
	return treasury.Settings{
		StartingBalance: treasury.Cents(row.StartingBalance),
		PrudentReserve:  treasury.Cents(row.PrudentReserve),
		Configured:      row.Configured,
		UpdatedAt:       fromMillis(row.UpdatedAt),
	}, nil
}

// PutTreasurySettings updates the treasury settings.
func (s *Store) PutTreasurySettings(ctx context.Context, settings treasury.Settings) error {
	if _, err := s.GetTreasurySettings(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE treasury_settings SET starting_balance = ?, prudent_reserve = ?, is_configured = ?, updated_at = ? WHERE id = 1`,
		int64(settings.StartingBalance), int64(settings.PrudentReserve), settings.Configured, s.nowMillis(),
	); err != nil {
		return fmt.Errorf("put treasury settings: %w", err)
	}
	return nil
}

type splitRow struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Default bool   `db:"is_default"`
}

type splitItemRow struct {
	SplitID string `db:"split_id"`
	Name    string `db:"name"`
	Share   int    `db:"share"`
}

// ListSplits returns every split ordered by name, with items loaded.
func (s *Store) ListSplits(ctx context.Context) ([]treasury.Split, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []splitRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name, is_default FROM treasury_splits ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list splits: %w", err)
	}
	var items []splitItemRow
	if err := s.db.SelectContext(ctx, &items,
		`SELECT split_id, name, share FROM treasury_split_items ORDER BY split_id, sort_order`,
	); err != nil {
		return nil, fmt.Errorf("list split items: %w", err)
	}
	bySplit := map[string][]treasury.SplitItem{}
	for _, item := range items {
		bySplit[item.SplitID] = append(bySplit[item.SplitID], treasury.SplitItem{Name: item.Name, Share: item.Share})
	}
	out := make([]treasury.Split, 0, len(rows))
	for _, row := range rows {
		out = append(out, treasury.Split{ID: row.ID, Name: row.Name, Default: row.Default, Items: bySplit[row.ID]})
	}
	return out, nil
}

// GetSplit returns one split with its items.
func (s *Store) GetSplit(ctx context.Context, splitID string) (treasury.Split, error) {
	if err := s.ready(ctx); err != nil {
		return treasury.Split{}, err
	}
	var row splitRow
	if err := s.db.GetContext(ctx, &row,
		`SELECT id, name, is_default FROM treasury_splits WHERE id = ?`, strings.TrimSpace(splitID),
	); err != nil {
		return treasury.Split{}, notFound(err)
	}
	var items []splitItemRow
	if err := s.db.SelectContext(ctx, &items,
		`SELECT split_id, name, share FROM treasury_split_items WHERE split_id = ? ORDER BY sort_order`, row.ID,
	); err != nil {
		return treasury.Split{}, fmt.Errorf("get split items: %w", err)
	}
	split := treasury.Split{ID: row.ID, Name: row.Name, Default: row.Default}
	for _, item := range items {
		split.Items = append(split.Items, treasury.SplitItem{Name: item.Name, Share: item.Share})
	}
	return split, nil
}

// PutSplit inserts or updates a split and replaces its items.
func (s *Store) PutSplit(ctx context.Context, split treasury.Split) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	splitID, err := requireID("split", split.ID)
	if err != nil {
		return err
	}
	now := s.nowMillis()
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if split.Default {
			if _, err := tx.ExecContext(ctx,
				`UPDATE treasury_splits SET is_default = 0 WHERE is_default = 1 AND id <> ?`, splitID,
			); err != nil {
				return fmt.Errorf("clear default split: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO treasury_splits (id, name, is_default, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   name = excluded.name,
			   is_default = excluded.is_default,
			   updated_at = excluded.updated_at`,
			splitID, strings.TrimSpace(split.Name), split.Default, now, now,
		); err != nil {
			if isUniqueViolation(err) {
				return storage.ErrAlreadyExists
			}
			return fmt.Errorf("put split: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM treasury_split_items WHERE split_id = ?`, splitID); err != nil {
			return fmt.Errorf("clear split items: %w", err)
		}
		for i, item := range split.Items {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO treasury_split_items (split_id, sort_order, name, share) VALUES (?, ?, ?, ?)`,
				splitID, i, strings.TrimSpace(item.Name), item.Share,
			); err != nil {
				return fmt.Errorf("put split item: %w", err)
			}
		}
		return nil
	})
}

// DeleteSplit removes a split. Records already split keep their amounts.
func (s *Store) DeleteSplit(ctx context.Context, splitID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM treasury_splits WHERE id = ?`, strings.TrimSpace(splitID))
	if err != nil {
		return fmt.Errorf("delete split: %w", err)
	}
	return requireAffected(res)
}

type recordRow struct {
	ID          string         `db:"id"`
	Date        string         `db:"record_date"`
	Type        string         `db:"record_type"`
	Amount      int64          `db:"amount"`
	Description string         `db:"description"`
	Category    string         `db:"category"`
	Notes       string         `db:"notes"`
	ParentID    sql.NullString `db:"parent_id"`
	SplitName   string         `db:"split_name"`
}

const recordColumns = `id, record_date, record_type, amount, description, category, notes, parent_id, split_name`

func (r recordRow) record() (treasury.Record, error) {
	day, err := parseDate(r.Date)
	if err != nil {
		return treasury.Record{}, err
	}
	return treasury.Record{
		ID:          r.ID,
		Date:        day,
		Type:        r.Type,
		Amount:      treasury.Cents(r.Amount),
		Description: r.Description,
		Category:    r.Category,
		Notes:       r.Notes,
		ParentID:    r.ParentID.String,
		SplitName:   r.SplitName,
	}, nil
}

// AddRecords inserts records in one transaction.
func (s *Store) AddRecords(ctx context.Context, records []treasury.Record, createdBy string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	now := s.nowMillis()
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, r := range records {
			recordID, err := requireID("record", r.ID)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO treasury_records (`+recordColumns+`, created_by, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				recordID, formatDate(r.Date), r.Type, int64(r.Amount), r.Description, r.Category, r.Notes,
				nullString(r.ParentID), r.SplitName, strings.TrimSpace(createdBy), now,
			); err != nil {
				if isUniqueViolation(err) {
					return storage.ErrAlreadyExists
				}
				if isForeignKeyViolation(err) {
					return storage.ErrNotFound
				}
				return fmt.Errorf("add record: %w", err)
			}
		}
		return nil
	})
}

// ListRecords returns every record, newest first.
func (s *Store) ListRecords(ctx context.Context) ([]treasury.Record, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT `+recordColumns+` FROM treasury_records ORDER BY record_date DESC, created_at DESC, parent_id IS NOT NULL, id`,
	); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]treasury.Record, 0, len(rows))
	for _, row := range rows {
		r, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// GetRecord returns one record.
func (s *Store) GetRecord(ctx context.Context, recordID string) (treasury.Record, error) {
	if err := s.ready(ctx); err != nil {
		return treasury.Record{}, err
	}
	var row recordRow
	if err := s.db.GetContext(ctx, &row,
		`SELECT `+recordColumns+` FROM treasury_records WHERE id = ?`, strings.TrimSpace(recordID),
	); err != nil {
		return treasury.Record{}, notFound(err)
	}
	return row.record()
}

// DeleteRecord removes a record; its split children cascade.
func (s *Store) DeleteRecord(ctx context.Context, recordID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM treasury_records WHERE id = ?`, strings.TrimSpace(recordID))
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return requireAffected(res)
}

type reportRow struct {
	ID             string `db:"id"`
	ReportDate     string `db:"report_date"`
	Start          string `db:"start_date"`
	End            string `db:"end_date"`
	Income         int64  `db:"total_income"`
	Expenses       int64  `db:"total_expenses"`
	PrudentReserve int64  `db:"prudent_reserve"`
	EndingBalance  int64  `db:"ending_balance"`
	Available      int64  `db:"available_balance"`
	Archived       bool   `db:"is_archived"`
}

const reportColumns = `id, report_date, start_date, end_date, total_income, total_expenses, prudent_reserve, ending_balance, available_balance, is_archived`

func (r reportRow) report() (treasury.Report, error) {
	out := treasury.Report{
		ID:             r.ID,
		Totals:         treasury.Totals{Income: treasury.Cents(r.Income), Expenses: treasury.Cents(r.Expenses)},
		PrudentReserve: treasury.Cents(r.PrudentReserve),
		EndingBalance:  treasury.Cents(r.EndingBalance),
		Available:      treasury.Cents(r.Available),
		Archived:       r.Archived,
	}
	var err error
	if out.ReportDate, err = parseDate(r.ReportDate); err != nil {
		return treasury.Report{}, err
	}
	if out.Start, err = parseDate(r.Start); err != nil {
		return treasury.Report{}, err
	}
	if out.End, err = parseDate(r.End); err != nil {
		return treasury.Report{}, err
	}
	return out, nil
}

// ListReports returns every report, latest period first.
func (s *Store) ListReports(ctx context.Context) ([]treasury.Report, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var rows []reportRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT `+reportColumns+` FROM treasury_reports ORDER BY end_date DESC, start_date DESC`,
	); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	out := make([]treasury.Report, 0, len(rows))
	for _, row := range rows {
		r, err := row.report()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// GetReport returns one report.
func (s *Store) GetReport(ctx context.Context, reportID string) (treasury.Report, error) {
	if err := s.ready(ctx); err != nil {
		return treasury.Report{}, err
	}
	var row reportRow
	if err := s.db.GetContext(ctx, &row,
		`SELECT `+reportColumns+` FROM treasury_reports WHERE id = ?`, strings.TrimSpace(reportID),
	); err != nil {
		return treasury.Report{}, notFound(err)
	}
	return row.report()
}

// CreateReport stores a new report.
func (s *Store) CreateReport(ctx context.Context, r treasury.Report) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	reportID, err := requireID("report", r.ID)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO treasury_reports (`+reportColumns+`, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reportID, formatDate(r.ReportDate), formatDate(r.Start), formatDate(r.End),
		int64(r.Income), int64(r.Expenses), int64(r.PrudentReserve), int64(r.EndingBalance), int64(r.Available),
		r.Archived, s.nowMillis(),
	); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// ArchiveReport marks a report archived, unlocking its period.
func (s *Store) ArchiveReport(ctx context.Context, reportID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE treasury_reports SET is_archived = 1 WHERE id = ?`, strings.TrimSpace(reportID))
	if err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	return requireAffected(res)
}
