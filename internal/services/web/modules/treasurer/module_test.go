package treasurer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/webctx"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage/sqlite"
	"github.com/computeralex/easier-softer-meeting-manager/internal/treasury"
)

var (
	treasurer = access.Principal{UserID: "t1", Grants: []access.Grant{{Position: "treasurer"}}}
	member    = access.Principal{UserID: "u1"}
)

type fixture struct {
	store   *sqlite.Store
	module  *Module
	handler http.Handler
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "meeting.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	reg := registry.New()
	now := func() time.Time { return time.Date(2026, time.April, 15, 16, 0, 0, 0, time.UTC) }
	m := New(store, reg, module.Runtime{Now: now})
	if err := reg.Register(m); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	mount, err := m.Mount()
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	return fixture{store: store, module: m, handler: mount.Handler}
}

func (f fixture) serve(p access.Principal, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(webctx.WithPrincipal(req.Context(), p))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f fixture) records(t *testing.T) []treasury.Record {
	t.Helper()
	all, err := f.store.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	return all
}

func (f fixture) mustPost(t *testing.T, target string, form url.Values) {
	t.Helper()
	if rec := f.serve(treasurer, http.MethodPost, target, form); rec.Code != http.StatusSeeOther {
		t.Fatalf("POST %s status = %d, want %d: %s", target, rec.Code, http.StatusSeeOther, rec.Body.String())
	}
}

func TestExpenseThroughSplitKeepsEveryCent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.mustPost(t, "/splits", url.Values{"name": {"Quarterly"}, "items": {"District: 60\nGSO: 40"}, "is_default": {"on"}})
	splits, err := f.store.ListSplits(context.Background())
	if err != nil || len(splits) != 1 {
		t.Fatalf("ListSplits() = %+v, %v", splits, err)
	}

	f.mustPost(t, "/records", url.Values{
		"type": {"expense"}, "date": {"2026-04-01"}, "amount": {"$10.01"},
		"description": {"Contributions"}, "split_id": {splits[0].ID},
	})
	all := f.records(t)
	if len(all) != 3 {
		t.Fatalf("records = %+v, want parent and two children", all)
	}
	amounts := map[string]treasury.Cents{}
	for _, rec := range all {
		if rec.ParentID != "" {
			amounts[rec.SplitName] = rec.Amount
		}
	}
	if amounts["District"] != 601 || amounts["GSO"] != 400 {
		t.Fatalf("split amounts = %v, want District 601 and GSO 400", amounts)
	}

	rec := f.serve(member, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("index status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Contributions - District") || !strings.Contains(body, "$10.01") {
		t.Fatalf("index does not list the split expense: %s", body)
	}
}

func TestRecordValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tests := []struct {
		name string
		form url.Values
		want int
	}{
		{name: "bad amount", form: url.Values{"type": {"income"}, "date": {"2026-04-01"}, "amount": {"ten"}}, want: http.StatusBadRequest},
		{name: "zero amount", form: url.Values{"type": {"income"}, "date": {"2026-04-01"}, "amount": {"0"}}, want: http.StatusBadRequest},
		{name: "expense without description", form: url.Values{"type": {"expense"}, "date": {"2026-04-01"}, "amount": {"5"}}, want: http.StatusBadRequest},
		{name: "split income", form: url.Values{"type": {"income"}, "date": {"2026-04-01"}, "amount": {"5"}, "split_id": {"s1"}}, want: http.StatusBadRequest},
		{name: "unknown split", form: url.Values{"type": {"expense"}, "date": {"2026-04-01"}, "amount": {"5"}, "description": {"x"}, "split_id": {"missing"}}, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := f.serve(treasurer, http.MethodPost, "/records", tt.form); rec.Code != tt.want {
			t.Fatalf("%s: status = %d, want %d", tt.name, rec.Code, tt.want)
		}
	}
	if n := len(f.records(t)); n != 0 {
		t.Fatalf("records = %d, want 0", n)
	}

	f.mustPost(t, "/records", url.Values{"type": {"income"}, "date": {"2026-04-02"}, "amount": {"12.50"}})
	if got := f.records(t)[0]; got.Description != treasury.DefaultIncomeDescription || got.Amount != 1250 {
		t.Fatalf("income = %+v", got)
	}
}

func TestSplitMustTotalFullShare(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.serve(treasurer, http.MethodPost, "/splits", url.Values{"name": {"Short"}, "items": {"District: 50\nGSO: 40"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "must add up to 100%, not 90%") {
		t.Fatalf("body lacks the share total error: %s", rec.Body.String())
	}
	rec = f.serve(treasurer, http.MethodPost, "/splits", url.Values{"name": {"Bad"}, "items": {"District"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed items status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdateAndDeleteSplit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.mustPost(t, "/splits", url.Values{"name": {"Quarterly"}, "items": {"GSO: 100"}})
	split := mustSplits(t, f)[0]

	if rec := f.serve(member, http.MethodGet, "/splits/"+split.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("show status = %d, want %d", rec.Code, http.StatusOK)
	}
	f.mustPost(t, "/splits/"+split.ID, url.Values{"name": {"Quarterly"}, "items": {"District: 33.33\nArea: 33.33\nGSO: 33.34"}})
	if got := mustSplits(t, f)[0]; len(got.Items) != 3 || got.Items[2].Share != 3334 {
		t.Fatalf("updated split = %+v", got)
	}
	f.mustPost(t, "/splits/"+split.ID+"/delete", url.Values{})
	if got := mustSplits(t, f); len(got) != 0 {
		t.Fatalf("splits = %+v, want none", got)
	}
	if rec := f.serve(treasurer, http.MethodPost, "/splits/"+split.ID, url.Values{"name": {"x"}, "items": {"a: 100"}}); rec.Code != http.StatusNotFound {
		t.Fatalf("update deleted status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func mustSplits(t *testing.T, f fixture) []treasury.Split {
	t.Helper()
	splits, err := f.store.ListSplits(context.Background())
	if err != nil {
		t.Fatalf("ListSplits() error = %v", err)
	}
	return splits
}

func TestReportLocksItsPeriod(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	f.mustPost(t, "/records", url.Values{"type": {"income"}, "date": {"2026-03-10"}, "amount": {"25"}})
	f.mustPost(t, "/records", url.Values{"type": {"expense"}, "date": {"2026-03-20"}, "amount": {"5"}, "description": {"Coffee"}})

	f.mustPost(t, "/reports", url.Values{"start_date": {"2026-05-01"}, "end_date": {"2026-05-31"}})
	reports, err := f.store.ListReports(ctx)
	if err != nil || len(reports) != 0 {
		t.Fatalf("future report created: %+v, %v", reports, err)
	}

	f.mustPost(t, "/reports", url.Values{"start_date": {"2026-03-01"}, "end_date": {"2026-03-31"}})
	reports, err = f.store.ListReports(ctx)
	if err != nil || len(reports) != 1 {
		t.Fatalf("ListReports() = %+v, %v", reports, err)
	}
	report := reports[0]
	if report.Income != 2500 || report.Expenses != 500 || report.EndingBalance != 2000 {
		t.Fatalf("report = %+v", report)
	}

	rec := f.serve(treasurer, http.MethodPost, "/records", url.Values{"type": {"income"}, "date": {"2026-03-15"}, "amount": {"1"}})
	if rec.Code != http.StatusConflict {
		t.Fatalf("locked add status = %d, want %d", rec.Code, http.StatusConflict)
	}
	var income treasury.Record
	for _, r := range f.records(t) {
		if r.Type == treasury.Income {
			income = r
		}
	}
	f.mustPost(t, "/records/"+income.ID+"/delete", url.Values{})
	if n := len(f.records(t)); n != 2 {
		t.Fatalf("records = %d, want the locked income kept", n)
	}

	csv := f.serve(member, http.MethodGet, "/reports/"+report.ID+"/csv", nil)
	if csv.Code != http.StatusOK {
		t.Fatalf("csv status = %d, want %d", csv.Code, http.StatusOK)
	}
	if got := csv.Header().Get("Content-Disposition"); got != `attachment; filename="report_2026-03-01_2026-03-31.csv"` {
		t.Fatalf("Content-Disposition = %q", got)
	}
	if body := csv.Body.String(); !strings.Contains(body, "2026-03-10,income,7th Tradition,,25.00,") || !strings.Contains(body, "Net:,20.00") {
		t.Fatalf("csv body = %q", body)
	}

	f.mustPost(t, "/reports/"+report.ID+"/archive", url.Values{})
	f.mustPost(t, "/records/"+income.ID+"/delete", url.Values{})
	if n := len(f.records(t)); n != 1 {
		t.Fatalf("records = %d, want 1 after archiving", n)
	}
	if rec := f.serve(member, http.MethodGet, "/reports/"+report.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("report page status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestMemberCannotRecord(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.serve(member, http.MethodPost, "/records", url.Values{"type": {"income"}, "date": {"2026-04-01"}, "amount": {"5"}})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if rec := f.serve(member, http.MethodGet, "/splits/new", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("new split status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestYearSummaryPage(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.mustPost(t, "/records", url.Values{"type": {"expense"}, "date": {"2026-02-01"}, "amount": {"40"}, "description": {"Rent"}, "category": {"Rent"}})
	rec := f.serve(member, http.MethodGet, "/year?year=2026", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "$40.00") {
		t.Fatalf("year page lacks the expense total")
	}
	if rec := f.serve(member, http.MethodGet, "/year?year=soon", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad year status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSettingsAndWidget(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	if err := f.module.OnReady(ctx); err != nil {
		t.Fatalf("OnReady() error = %v", err)
	}
	widgets, err := f.module.DashboardWidgets(ctx, member)
	if err != nil {
		t.Fatalf("DashboardWidgets() error = %v", err)
	}
	if widgets[0].Context["configured"] != false {
		t.Fatalf("fresh widget context = %+v", widgets[0].Context)
	}

	form := url.Values{"starting_balance": {"1,000"}, "prudent_reserve": {"250.50"}}
	if _, err := f.module.HandleSettingsPost(ctx, treasurer, settingsSection, form); err != nil {
		t.Fatalf("HandleSettingsPost() error = %v", err)
	}
	values, err := f.module.SettingsContext(ctx, treasurer, settingsSection)
	if err != nil {
		t.Fatalf("SettingsContext() error = %v", err)
	}
	if values["starting_balance"] != "1000.00" || values["prudent_reserve"] != "250.50" {
		t.Fatalf("settings context = %+v", values)
	}
	widgets, err = f.module.DashboardWidgets(ctx, member)
	if err != nil {
		t.Fatalf("DashboardWidgets() error = %v", err)
	}
	got := widgets[0].Context
	if got["balance"] != "$1,000.00" || got["available"] != "$749.50" || got["configured"] != true {
		t.Fatalf("widget context = %+v", got)
	}

	if _, err := f.module.HandleSettingsPost(ctx, treasurer, settingsSection, url.Values{"prudent_reserve": {"-5"}}); err == nil {
		t.Fatal("expected error for a negative reserve")
	}
	if _, err := f.module.HandleSettingsPost(ctx, treasurer, settingsSection, url.Values{"starting_balance": {"lots"}}); err == nil {
		t.Fatal("expected error for an invalid amount")
	}
	if _, err := f.module.HandleSettingsPost(ctx, treasurer, "other", url.Values{}); err == nil {
		t.Fatal("expected error for unknown section")
	}
}
