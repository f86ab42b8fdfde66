package readings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	domain "github.com/computeralex/easier-softer-meeting-manager/internal/readings"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/webctx"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage/sqlite"
)

var (
	groupRep = access.Principal{UserID: "g1", Grants: []access.Grant{{Position: "group_rep"}}}
	member   = access.Principal{UserID: "u1"}
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
	m := New(store, reg, module.Runtime{})
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

func (f fixture) list(t *testing.T) []domain.Reading {
	t.Helper()
	all, err := f.store.ListReadings(context.Background())
	if err != nil {
		t.Fatalf("ListReadings() error = %v", err)
	}
	return all
}

func TestCreateGeneratesUniqueSlugs(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	form := url.Values{"title": {"How It Works"}, "content": {"Rarely have we seen..."}, "is_active": {"on"}}
	for i := 0; i < 2; i++ {
		if rec := f.serve(groupRep, http.MethodPost, "/", form); rec.Code != http.StatusSeeOther {
			t.Fatalf("create %d status = %d, want %d: %s", i, rec.Code, http.StatusSeeOther, rec.Body.String())
		}
	}
	slugs := map[string]bool{}
	for _, r := range f.list(t) {
		slugs[r.Slug] = true
	}
	if !slugs["how-it-works"] || !slugs["how-it-works-1"] {
		t.Fatalf("slugs = %v, want how-it-works and how-it-works-1", slugs)
	}
}

func TestCreateRejectsTakenSlugAndMissingContent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	base := url.Values{"title": {"Serenity Prayer"}, "slug": {"serenity"}, "content": {"God grant me"}, "is_active": {"on"}}
	if rec := f.serve(groupRep, http.MethodPost, "/", base); rec.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	rec := f.serve(groupRep, http.MethodPost, "/", base)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want %d", rec.Code, http.StatusConflict)
	}
	rec = f.serve(groupRep, http.MethodPost, "/", url.Values{"title": {"Empty"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing content status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if n := len(f.list(t)); n != 1 {
		t.Fatalf("readings = %d, want 1", n)
	}
}

func TestShowRendersMarkdown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	form := url.Values{"title": {"Promises"}, "content": {"We are going to know a **new freedom**.\n\n<script>x</script>"}, "is_active": {"on"}}
	if rec := f.serve(groupRep, http.MethodPost, "/", form); rec.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d", rec.Code)
	}
	reading := f.list(t)[0]

	rec := f.serve(member, http.MethodGet, "/"+reading.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("show status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>new freedom</strong>") {
		t.Fatalf("markdown not rendered")
	}
	if strings.Contains(body, "<script>x</script>") {
		t.Fatalf("script not sanitized")
	}
	if strings.Contains(body, "Edit reading") {
		t.Fatalf("member sees the edit form")
	}
}

func TestUpdateAndDelete(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	create := url.Values{"title": {"Traditions"}, "content": {"One"}, "is_active": {"on"}}
	if rec := f.serve(groupRep, http.MethodPost, "/", create); rec.Code != http.StatusSeeOther {
		t.Fatalf("create status = %d", rec.Code)
	}
	reading := f.list(t)[0]

	update := url.Values{"title": {"The Twelve Traditions"}, "short_name": {"Traditions"}, "content": {"Two"}, "is_active": {"on"}}
	if rec := f.serve(groupRep, http.MethodPost, "/"+reading.ID, update); rec.Code != http.StatusSeeOther {
		t.Fatalf("update status = %d", rec.Code)
	}
	got := f.list(t)[0]
	if got.Slug != "traditions" || got.Title != "The Twelve Traditions" || got.Content != "Two" {
		t.Fatalf("updated = %+v", got)
	}

	if rec := f.serve(member, http.MethodPost, "/"+reading.ID+"/delete", url.Values{}); rec.Code != http.StatusForbidden {
		t.Fatalf("member delete status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if rec := f.serve(groupRep, http.MethodPost, "/"+reading.ID+"/delete", url.Values{}); rec.Code != http.StatusSeeOther {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if n := len(f.list(t)); n != 0 {
		t.Fatalf("readings = %d, want 0", n)
	}
	if rec := f.serve(groupRep, http.MethodGet, "/"+reading.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("deleted show status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSettingsAndWidget(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	if err := f.module.OnReady(ctx); err != nil {
		t.Fatalf("OnReady() error = %v", err)
	}
	values, err := f.module.SettingsContext(ctx, groupRep, settingsSection)
	if err != nil {
		t.Fatalf("SettingsContext() error = %v", err)
	}
	if values["public_enabled"] != true || !strings.HasPrefix(values["public_url"].(string), "/public/readings/") {
		t.Fatalf("context = %+v", values)
	}

	if _, err := f.module.HandleSettingsPost(ctx, groupRep, settingsSection, url.Values{}); err != nil {
		t.Fatalf("HandleSettingsPost() error = %v", err)
	}
	widgets, err := f.module.DashboardWidgets(ctx, member)
	if err != nil {
		t.Fatalf("DashboardWidgets() error = %v", err)
	}
	if widgets[0].Context["public"] != false || widgets[0].Context["readings"] != 0 {
		t.Fatalf("widget context = %+v", widgets[0].Context)
	}
	if _, err := f.module.HandleSettingsPost(ctx, groupRep, "other", url.Values{}); err == nil {
		t.Fatal("expected error for unknown section")
	}
}
