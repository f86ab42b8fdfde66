package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/webctx"
)

type fakeWidgets struct {
	entries []registry.WidgetEntry
	seen    access.Principal
}

func (f *fakeWidgets) DashboardWidgetsForUser(_ context.Context, p access.Principal) []registry.WidgetEntry {
	f.seen = p
	return f.entries
}

func mount(t *testing.T, widgets WidgetSource) http.Handler {
	t.Helper()
	m, err := New(widgets, module.Runtime{}).Mount()
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if m.Prefix != "/app/dashboard/" {
		t.Fatalf("Prefix = %q, want %q", m.Prefix, "/app/dashboard/")
	}
	return m.Handler
}

func TestMountRequiresWidgetSource(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, module.Runtime{}).Mount(); err == nil {
		t.Fatal("Mount() error = nil, want error")
	}
}

func TestIndexRendersWidgetsWithGenericFallback(t *testing.T) {
	t.Parallel()

	widgets := &fakeWidgets{entries: []registry.WidgetEntry{
		{Module: "readings", Widget: registry.Widget{Name: "readings_count", Context: map[string]any{"readings": 4, "public": false}}},
		{Module: "custom", Widget: registry.Widget{Name: "mystery", Context: map[string]any{"answer": 42}}},
	}}
	h := mount(t, widgets)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(webctx.WithPrincipal(req.Context(), access.Principal{UserID: "u1"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{"4 readings", "answer: 42", `id="widget-custom-mystery"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
	if widgets.seen.UserID != "u1" {
		t.Fatalf("widgets composed for %q, want %q", widgets.seen.UserID, "u1")
	}
}

func TestIndexShowsEmptyState(t *testing.T) {
	t.Parallel()

	h := mount(t, &fakeWidgets{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(webctx.WithPrincipal(req.Context(), access.Principal{UserID: "u1"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !strings.Contains(rec.Body.String(), "No widgets available.") {
		t.Fatalf("body = %q, want empty state", rec.Body.String())
	}
}
