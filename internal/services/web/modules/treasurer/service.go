package treasurer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/id"
	apperrors "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/errors"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formvalue"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/computeralex/easier-softer-meeting-manager/internal/treasury"
)

type service struct {
	store Store
	now   func() time.Time
}

// today is the current date in the meeting's timezone.
func (s service) today(ctx context.Context) (time.Time, error) {
	cfg, err := s.store.GetMeetingConfig(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("load meeting config: %w", err)
	}
	return cfg.Today(s.now()), nil
}

// books loads everything the balance and report views derive from.
func (s service) books(ctx context.Context) (treasury.Settings, []treasury.Record, []treasury.Report, error) {
	settings, err := s.store.GetTreasurySettings(ctx)
	if err != nil {
		return settings, nil, nil, fmt.Errorf("load treasury settings: %w", err)
	}
	records, err := s.store.ListRecords(ctx)
	if err != nil {
		return settings, nil, nil, fmt.Errorf("list treasury records: %w", err)
	}
	reports, err := s.store.ListReports(ctx)
	if err != nil {
		return settings, nil, nil, fmt.Errorf("list treasury reports: %w", err)
	}
	return settings, records, reports, nil
}

func (s service) summary(ctx context.Context) (treasury.Summary, error) {
	settings, records, _, err := s.books(ctx)
	if err != nil {
		return treasury.Summary{}, err
	}
	return treasury.Summarize(settings, records), nil
}

func amountField(form url.Values, name string) (treasury.Cents, error) {
	raw := formvalue.String(form, name)
	if raw == "" {
		return 0, nil
	}
	amount, err := treasury.ParseAmount(raw)
	if err != nil {
		return 0, apperrors.E(apperrors.KindInvalidInput, fmt.Sprintf("%q is not a valid amount.", raw))
	}
	return amount, nil
}

func dateField(form url.Values, name string) (time.Time, error) {
	d, err := formvalue.Date(form, name)
	if err != nil {
		return time.Time{}, apperrors.E(apperrors.KindInvalidInput, err.Error())
	}
	if d == nil {
		return time.Time{}, nil
	}
	return *d, nil
}

func recordFromForm(form url.Values) (treasury.Record, error) {
	rec := treasury.Record{
		Type:        formvalue.String(form, "type"),
		Description: formvalue.String(form, "description"),
		Category:    formvalue.String(form, "category"),
		Notes:       formvalue.String(form, "notes"),
	}
	var err error
	if rec.Date, err = dateField(form, "date"); err != nil {
		return rec, err
	}
	if rec.Amount, err = amountField(form, "amount"); err != nil {
		return rec, err
	}
	return rec.Normalize(), nil
}

func lockedError(report treasury.Report) error {
	return apperrors.E(apperrors.KindConflict, fmt.Sprintf(
		"The report for %s to %s covers this date. Archive it before changing its records.",
		report.Start.Format(formvalue.DateLayout), report.End.Format(formvalue.DateLayout)))
}

// addRecord stores a transaction. An expense paid through a split is stored
// with one child record per split item.
func (s service) addRecord(ctx context.Context, form url.Values, userID string) (treasury.Record, error) {
	rec, err := recordFromForm(form)
	if err != nil {
		return rec, err
	}
	if err := rec.Validate(); err != nil {
		return rec, err
	}
	reports, err := s.store.ListReports(ctx)
	if err != nil {
		return rec, fmt.Errorf("list treasury reports: %w", err)
	}
	if report, locked := treasury.LockingReport(reports, rec.Date); locked {
		return rec, lockedError(report)
	}
	if rec.ID, err = id.NewID(); err != nil {
		return rec, err
	}
	batch := []treasury.Record{rec}
	if splitID := formvalue.String(form, "split_id"); splitID != "" {
		if rec.Type != treasury.Expense {
			return rec, apperrors.E(apperrors.KindInvalidInput, "Only expenses can be split.")
		}
		split, err := s.store.GetSplit(ctx, splitID)
		if err != nil {
			return rec, err
		}
		for _, child := range treasury.Children(rec, split) {
			if child.ID, err = id.NewID(); err != nil {
				return rec, err
			}
			batch = append(batch, child)
		}
	}
	if err := s.store.AddRecords(ctx, batch, userID); err != nil {
		return rec, fmt.Errorf("add treasury records: %w", err)
	}
	return rec, nil
}

// deleteRecord removes a parent record and its split children.
func (s service) deleteRecord(ctx context.Context, recordID string) error {
	rec, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.ParentID != "" {
		return apperrors.E(apperrors.KindConflict, "Split lines are removed with their expense.")
	}
	reports, err := s.store.ListReports(ctx)
	if err != nil {
		return fmt.Errorf("list treasury reports: %w", err)
	}
	if report, locked := treasury.LockingReport(reports, rec.Date); locked {
		return lockedError(report)
	}
	return s.store.DeleteRecord(ctx, recordID)
}

func splitFromForm(base treasury.Split, form url.Values) (treasury.Split, error) {
	split := base
	split.Name = formvalue.String(form, "name")
	split.Default = formvalue.Bool(form, "is_default")
	items, err := treasury.ParseItems(form.Get("items"))
	if err != nil {
		return split, apperrors.E(apperrors.KindInvalidInput, err.Error())
	}
	split.Items = items
	return split, nil
}

func (s service) saveSplit(ctx context.Context, split treasury.Split) (treasury.Split, error) {
	if err := split.Validate(); err != nil {
		return split, err
	}
	if split.ID == "" {
		var err error
		if split.ID, err = id.NewID(); err != nil {
			return split, err
		}
	}
	if err := s.store.PutSplit(ctx, split); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return split, apperrors.E(apperrors.KindConflict, fmt.Sprintf("A split named %q already exists.", split.Name))
		}
		return split, fmt.Errorf("save split: %w", err)
	}
	return split, nil
}

func (s service) createSplit(ctx context.Context, form url.Values) (treasury.Split, error) {
	split, err := splitFromForm(treasury.Split{}, form)
	if err != nil {
		return split, err
	}
	return s.saveSplit(ctx, split)
}

func (s service) updateSplit(ctx context.Context, splitID string, form url.Values) (treasury.Split, error) {
	existing, err := s.store.GetSplit(ctx, splitID)
	if err != nil {
		return existing, err
	}
	split, err := splitFromForm(existing, form)
	if err != nil {
		return split, err
	}
	return s.saveSplit(ctx, split)
}

// createReport freezes the totals of the requested period.
func (s service) createReport(ctx context.Context, form url.Values) (treasury.Report, error) {
	var report treasury.Report
	start, err := dateField(form, "start_date")
	if err != nil {
		return report, err
	}
	end, err := dateField(form, "end_date")
	if err != nil {
		return report, err
	}
	if start.IsZero() || end.IsZero() {
		return report, apperrors.E(apperrors.KindInvalidInput, "Both the start and end dates are required.")
	}
	today, err := s.today(ctx)
	if err != nil {
		return report, err
	}
	settings, records, reports, err := s.books(ctx)
	if err != nil {
		return report, err
	}
	if err := treasury.CheckPeriod(reports, start, end, today); err != nil {
		return report, apperrors.E(apperrors.KindInvalidInput, "Cannot create the report: "+err.Error()+".")
	}
	report = treasury.NewReport(settings, records, start, end, today)
	if report.ID, err = id.NewID(); err != nil {
		return report, err
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		return report, fmt.Errorf("create treasury report: %w", err)
	}
	return report, nil
}

func (s service) saveSettings(ctx context.Context, form url.Values) error {
	settings, err := s.store.GetTreasurySettings(ctx)
	if err != nil {
		return fmt.Errorf("load treasury settings: %w", err)
	}
	if settings.StartingBalance, err = amountField(form, "starting_balance"); err != nil {
		return err
	}
	if settings.PrudentReserve, err = amountField(form, "prudent_reserve"); err != nil {
		return err
	}
	if settings.PrudentReserve < 0 {
		return apperrors.E(apperrors.KindInvalidInput, "The prudent reserve cannot be negative.")
	}
	settings.Configured = true
	if err := s.store.PutTreasurySettings(ctx, settings); err != nil {
		return fmt.Errorf("save treasury settings: %w", err)
	}
	return nil
}
