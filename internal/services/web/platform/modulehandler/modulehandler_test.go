package modulehandler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	flashnotice "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/flash"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/webctx"
)

type fakeChecker struct {
	read, write bool
}

func (f fakeChecker) CheckAccess(string, access.Principal) bool      { return f.read }
func (f fakeChecker) CheckWriteAccess(string, access.Principal) bool { return f.write }

func withPrincipal(r *http.Request) *http.Request {
	return r.WithContext(webctx.WithPrincipal(r.Context(), access.Principal{UserID: "user-1"}))
}

func TestRequireModuleAccess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		method  string
		checker fakeChecker
		signed  bool
		want    int
	}{
		{name: "read allowed", method: http.MethodGet, checker: fakeChecker{read: true}, signed: true, want: http.StatusNoContent},
		{name: "read denied", method: http.MethodGet, checker: fakeChecker{}, signed: true, want: http.StatusForbidden},
		{name: "write needs write access", method: http.MethodPost, checker: fakeChecker{read: true}, signed: true, want: http.StatusForbidden},
		{name: "write allowed", method: http.MethodPost, checker: fakeChecker{read: true, write: true}, signed: true, want: http.StatusNoContent},
		{name: "anonymous", method: http.MethodGet, checker: fakeChecker{read: true, write: true}, want: http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			base := NewTestBase()
			h := base.RequireModuleAccess(tc.checker, "positions")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			}))
			req := httptest.NewRequest(tc.method, "/app/positions/", nil)
			if tc.signed {
				req = withPrincipal(req)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestRedirectWritesFlash(t *testing.T) {
	t.Parallel()

	base := NewBase(module.Runtime{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/app/readings/", nil)
	notice := flashnotice.Success("Saved")
	base.Redirect(rec, req, "/app/readings/", &notice)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := rec.Header().Get("Location"); got != "/app/readings/" {
		t.Fatalf("Location = %q, want %q", got, "/app/readings/")
	}
	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashnotice.CookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("flash cookie not written")
	}
}

func TestCanWriteRequiresPrincipal(t *testing.T) {
	t.Parallel()

	base := NewTestBase()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if base.CanWrite(fakeChecker{write: true}, "positions", req) {
		t.Fatal("CanWrite() = true for anonymous request")
	}
	if !base.CanWrite(fakeChecker{write: true}, "positions", withPrincipal(req)) {
		t.Fatal("CanWrite() = false, want true")
	}
}
