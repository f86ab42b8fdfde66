package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/computeralex/easier-softer-meeting-manager/internal/treasury"
)

func TestTreasurySettingsRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	settings, err := store.GetTreasurySettings(ctx)
	if err != nil {
		t.Fatalf("GetTreasurySettings() error = %v", err)
	}
	if settings.Configured || settings.StartingBalance != 0 {
		t.Fatalf("fresh settings = %+v", settings)
	}
	if err := store.PutTreasurySettings(ctx, treasury.Settings{StartingBalance: 12345, PrudentReserve: 5000, Configured: true}); err != nil {
		t.Fatalf("PutTreasurySettings() error = %v", err)
	}
	settings, err = store.GetTreasurySettings(ctx)
	if err != nil {
		t.Fatalf("GetTreasurySettings() error = %v", err)
	}
	if settings.StartingBalance != 12345 || settings.PrudentReserve != 5000 || !settings.Configured {
		t.Fatalf("settings = %+v", settings)
	}
}

func TestPutSplitKeepsSingleDefault(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	first := treasury.Split{ID: "s1", Name: "Quarterly", Default: true, Items: []treasury.SplitItem{{Name: "District", Share: 6000}, {Name: "GSO", Share: 4000}}}
	second := treasury.Split{ID: "s2", Name: "Annual", Default: true, Items: []treasury.SplitItem{{Name: "Area", Share: 10000}}}
	for _, split := range []treasury.Split{first, second} {
		if err := store.PutSplit(ctx, split); err != nil {
			t.Fatalf("PutSplit(%s) error = %v", split.ID, err)
		}
	}
	splits, err := store.ListSplits(ctx)
	if err != nil {
		t.Fatalf("ListSplits() error = %v", err)
	}
	if len(splits) != 2 || splits[0].Name != "Annual" || !splits[0].Default || splits[1].Default {
		t.Fatalf("splits = %+v", splits)
	}
	if len(splits[1].Items) != 2 || splits[1].Items[0].Name != "District" || splits[1].Items[1].Share != 4000 {
		t.Fatalf("items = %+v", splits[1].Items)
	}

	first.Items = []treasury.SplitItem{{Name: "GSO", Share: 10000}}
	if err := store.PutSplit(ctx, first); err != nil {
		t.Fatalf("PutSplit(update) error = %v", err)
	}
	got, err := store.GetSplit(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSplit() error = %v", err)
	}
	if len(got.Items) != 1 || !got.Default {
		t.Fatalf("updated split = %+v", got)
	}

	dup := treasury.Split{ID: "s3", Name: "Annual", Items: []treasury.SplitItem{{Name: "Area", Share: 10000}}}
	if err := store.PutSplit(ctx, dup); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("PutSplit(duplicate name) error = %v, want ErrAlreadyExists", err)
	}
	if err := store.DeleteSplit(ctx, "s2"); err != nil {
		t.Fatalf("DeleteSplit() error = %v", err)
	}
	if _, err := store.GetSplit(ctx, "s2"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetSplit(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestRecordsCascadeToChildren(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	parent := treasury.Record{ID: "p1", Date: date(2026, time.March, 3), Type: treasury.Expense, Amount: 1001, Description: "Contributions"}
	split := treasury.Split{Items: []treasury.SplitItem{{Name: "District", Share: 5000}, {Name: "GSO", Share: 5000}}}
	children := treasury.Children(parent, split)
	children[0].ID, children[1].ID = "c1", "c2"
	income := treasury.Record{ID: "i1", Date: date(2026, time.March, 1), Type: treasury.Income, Amount: 2500, Description: treasury.DefaultIncomeDescription}

	if err := store.AddRecords(ctx, append([]treasury.Record{parent}, children...), "u1"); err != nil {
		t.Fatalf("AddRecords() error = %v", err)
	}
	if err := store.AddRecords(ctx, []treasury.Record{income}, "u1"); err != nil {
		t.Fatalf("AddRecords(income) error = %v", err)
	}
	records, err := store.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 4 || records[0].ID != "p1" || records[3].ID != "i1" {
		t.Fatalf("records = %+v", records)
	}
	got, err := store.GetRecord(ctx, "c1")
	if err != nil {
		t.Fatalf("GetRecord() error = %v", err)
	}
	if got.ParentID != "p1" || got.SplitName != "District" || got.Amount != 501 || !got.Date.Equal(parent.Date) {
		t.Fatalf("child = %+v", got)
	}

	orphan := treasury.Record{ID: "o1", Date: date(2026, time.March, 4), Type: treasury.Expense, Amount: 1, Description: "x", ParentID: "missing"}
	if err := store.AddRecords(ctx, []treasury.Record{orphan}, ""); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("AddRecords(orphan) error = %v, want ErrNotFound", err)
	}

	if err := store.DeleteRecord(ctx, "p1"); err != nil {
		t.Fatalf("DeleteRecord() error = %v", err)
	}
	records, err = store.ListRecords(ctx)
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != "i1" {
		t.Fatalf("after delete = %+v, want only the income", records)
	}
}

func TestReportsArchive(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	report := treasury.Report{
		ID:             "r1",
		ReportDate:     date(2026, time.March, 31),
		Start:          date(2026, time.March, 1),
		End:            date(2026, time.March, 31),
		Totals:         treasury.Totals{Income: 4000, Expenses: 1000},
		PrudentReserve: 500,
		EndingBalance:  3000,
		Available:      2500,
	}
	if err := store.CreateReport(ctx, report); err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}
	later := report
	later.ID, later.Start, later.End = "r2", date(2026, time.April, 1), date(2026, time.April, 30)
	if err := store.CreateReport(ctx, later); err != nil {
		t.Fatalf("CreateReport(later) error = %v", err)
	}
	reports, err := store.ListReports(ctx)
	if err != nil {
		t.Fatalf("ListReports() error = %v", err)
	}
	if len(reports) != 2 || reports[0].ID != "r2" {
		t.Fatalf("reports = %+v", reports)
	}
	if err := store.ArchiveReport(ctx, "r1"); err != nil {
		t.Fatalf("ArchiveReport() error = %v", err)
	}
	got, err := store.GetReport(ctx, "r1")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if !got.Archived || got.Income != 4000 || got.Available != 2500 || !got.End.Equal(report.End) {
		t.Fatalf("report = %+v", got)
	}
	if err := store.ArchiveReport(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("ArchiveReport(missing) error = %v, want ErrNotFound", err)
	}
}
