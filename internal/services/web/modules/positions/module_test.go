package positions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	domain "github.com/computeralex/easier-softer-meeting-manager/internal/positions"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/webctx"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
)

type fakeStore struct {
	positions   []domain.Position
	assignments []domain.Assignment
	users       []storage.User
	ended       map[string]time.Time
}

func (f *fakeStore) ListHoldings(context.Context) ([]domain.Holding, error) {
	out := make([]domain.Holding, 0, len(f.positions))
	for _, p := range f.positions {
		h := domain.Holding{Position: p}
		for _, a := range f.assignments {
			if a.PositionID == p.ID {
				a.TermMonths = p.Term()
				h.Assignments = append(h.Assignments, a)
			}
		}
		out = append(out, h)
	}
	return out, nil
}

func (f *fakeStore) GetPosition(_ context.Context, id string) (domain.Position, error) {
	for _, p := range f.positions {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Position{}, storage.ErrNotFound
}

func (f *fakeStore) PutPosition(_ context.Context, position domain.Position) error {
	for i, p := range f.positions {
		if p.ID == position.ID {
			f.positions[i] = position
			return nil
		}
	}
	f.positions = append(f.positions, position)
	return nil
}

func (f *fakeStore) PositionNameTaken(_ context.Context, name, excludeID string) (bool, error) {
	for _, p := range f.positions {
		if p.Name == name && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateAssignment(_ context.Context, a domain.Assignment) error {
	f.assignments = append(f.assignments, a)
	return nil
}

func (f *fakeStore) EndAssignment(_ context.Context, id string, endDate time.Time) error {
	if f.ended == nil {
		f.ended = map[string]time.Time{}
	}
	for i, a := range f.assignments {
		if a.ID == id {
			end := endDate
			f.assignments[i].EndDate = &end
			f.ended[id] = endDate
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeStore) ListUsers(context.Context) ([]storage.User, error) { return f.users, nil }

func (f *fakeStore) GetMeetingConfig(context.Context) (storage.MeetingConfig, error) {
	return storage.MeetingConfig{MeetingName: "Tuesday Group", Timezone: "UTC"}, nil
}

type fakeModule struct{ cfg registry.Config }

func (m fakeModule) Config() registry.Config { return m.cfg }

var (
	fixedNow  = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	secretary = access.Principal{UserID: "s1", Grants: []access.Grant{{Position: "secretary"}}}
	member    = access.Principal{UserID: "u1", Grants: []access.Grant{{Position: "coffee"}}}
)

func newStore() *fakeStore {
	return &fakeStore{
		positions: []domain.Position{
			{ID: "p1", Name: "treasurer", DisplayName: "Treasurer", Active: true, TermMonths: 6},
			{ID: "p2", Name: "coffee", DisplayName: "Coffee Maker", Active: true, TermMonths: 3},
		},
		assignments: []domain.Assignment{
			{ID: "a1", UserID: "u9", UserName: "Pat Doe", PositionID: "p1", Primary: true, StartDate: time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC)},
		},
		users: []storage.User{{ID: "u9", FirstName: "Pat", LastName: "Doe", Active: true}, {ID: "u2", FirstName: "Sam", Active: true}},
	}
}

func newModule(t *testing.T, store Store) (*Module, http.Handler) {
	t.Helper()
	reg := registry.New()
	rt := module.Runtime{Now: func() time.Time { return fixedNow }}
	m := New(store, reg, reg, rt)
	if err := reg.Register(m); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := reg.Register(fakeModule{cfg: registry.Config{Name: "readings", VerboseName: "Readings"}}); err != nil {
		t.Fatalf("Register(readings) error = %v", err)
	}
	mount, err := m.Mount()
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if mount.Prefix != "/app/positions/" {
		t.Fatalf("Prefix = %q, want %q", mount.Prefix, "/app/positions/")
	}
	return m, mount.Handler
}

func serve(h http.Handler, p access.Principal, method, target string, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(webctx.WithPrincipal(req.Context(), p))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMountRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, registry.New(), nil, module.Runtime{}).Mount(); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestIndexListsHoldersAndVacancies(t *testing.T) {
	t.Parallel()

	_, h := newModule(t, newStore())
	rec := serve(h, member, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{"Treasurer", "Pat Doe", "2026-03-20", "Vacant"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
	if strings.Contains(body, "Add position") {
		t.Fatalf("read-only member sees the add button")
	}
}

func TestIndexShowsViewerAccess(t *testing.T) {
	t.Parallel()

	viewer := access.Principal{UserID: "v1", Grants: []access.Grant{
		{Position: "coffee", Modules: map[string]access.Level{"readings": access.LevelRead}},
		{Position: "literature", Modules: map[string]access.Level{"readings": access.LevelWrite, "positions": access.LevelRead}},
	}}
	_, h := newModule(t, newStore())
	rec := serve(h, viewer, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Your access (coffee, literature)",
		"<td>Service Positions</td>\n<td>read</td>\n<td>read</td>",
		"<td>Readings</td>\n<td>write</td>\n<td>write <small>(can edit)</small></td>",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}

	admin := access.Principal{UserID: "root", Superuser: true}
	body = serve(h, admin, http.MethodGet, "/", nil).Body.String()
	for _, want := range []string{
		"Administrators have write access everywhere.",
		"<td>Readings</td>\n<td>none</td>\n<td>write <small>(can edit)</small></td>",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("admin body missing %q", want)
		}
	}
}

func TestMemberCannotWrite(t *testing.T) {
	t.Parallel()

	store := newStore()
	_, h := newModule(t, store)

	if rec := serve(h, member, http.MethodGet, "/new", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("new status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	rec := serve(h, member, http.MethodPost, "/", url.Values{"display_name": {"Greeter"}})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("create status = %d, want %d", rec.Code, http.StatusForbidden)
	}
	if len(store.positions) != 2 {
		t.Fatalf("positions = %d, want 2", len(store.positions))
	}
}

func TestCreatePositionDerivesSlugAndPermissions(t *testing.T) {
	t.Parallel()

	store := newStore()
	_, h := newModule(t, store)

	form := url.Values{
		"display_name":  {"Coffee Maker"},
		"is_active":     {"on"},
		"term_months":   {"12"},
		"perm_readings": {"write"},
		"perm_unknown":  {"write"},
	}
	rec := serve(h, secretary, http.MethodPost, "/", form)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusSeeOther, rec.Body.String())
	}
	created := store.positions[len(store.positions)-1]
	if created.Name != "coffee_maker" {
		t.Fatalf("Name = %q, want %q", created.Name, "coffee_maker")
	}
	if created.TermMonths != 12 || !created.Active {
		t.Fatalf("created = %+v", created)
	}
	if got := created.ModulePermissions["readings"]; got != access.LevelWrite {
		t.Fatalf("readings level = %v, want write", got)
	}
	if _, ok := created.ModulePermissions["unknown"]; ok {
		t.Fatalf("unregistered module permission was stored")
	}
	if loc := rec.Header().Get("Location"); loc != "/app/positions/"+created.ID {
		t.Fatalf("Location = %q", loc)
	}
}

func TestCreatePositionRejectsTakenName(t *testing.T) {
	t.Parallel()

	store := newStore()
	_, h := newModule(t, store)

	rec := serve(h, secretary, http.MethodPost, "/", url.Values{"display_name": {"Other"}, "name": {"treasurer"}})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if !strings.Contains(rec.Body.String(), "already exists") {
		t.Fatalf("body missing conflict message")
	}

	rec = serve(h, secretary, http.MethodPost, "/", url.Values{"display_name": {""}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdateKeepsName(t *testing.T) {
	t.Parallel()

	store := newStore()
	_, h := newModule(t, store)

	rec := serve(h, secretary, http.MethodPost, "/p1", url.Values{"display_name": {"Group Treasurer"}, "name": {"bank"}, "is_active": {"on"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := store.positions[0]; got.Name != "treasurer" || got.DisplayName != "Group Treasurer" {
		t.Fatalf("position = %+v", got)
	}

	if rec := serve(h, secretary, http.MethodPost, "/missing", url.Values{"display_name": {"X"}}); rec.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestAssignAndEnd(t *testing.T) {
	t.Parallel()

	store := newStore()
	_, h := newModule(t, store)

	rec := serve(h, secretary, http.MethodPost, "/p2/assignments", url.Values{"user_id": {"u2"}, "is_primary": {"on"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("assign status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	added := store.assignments[len(store.assignments)-1]
	if added.PositionID != "p2" || !added.Primary || !added.StartDate.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("assignment = %+v", added)
	}

	rec = serve(h, secretary, http.MethodPost, "/p2/assignments", url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("blank assign status = %d, want redirect with notice", rec.Code)
	}
	if len(store.assignments) != 2 {
		t.Fatalf("assignments = %d, want 2", len(store.assignments))
	}

	rec = serve(h, secretary, http.MethodPost, "/p1/assignments/a1/end", url.Values{"end_date": {"2026-03-01"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("end status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if got := store.ended["a1"]; !got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end date = %v", got)
	}
}

func TestEditShowsPermissionRows(t *testing.T) {
	t.Parallel()

	_, h := newModule(t, newStore())
	rec := serve(h, secretary, http.MethodGet, "/p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{`name="perm_readings"`, `name="perm_positions"`, "End term", "Sam"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}

func TestDashboardWidget(t *testing.T) {
	t.Parallel()

	m, _ := newModule(t, newStore())
	widgets, err := m.DashboardWidgets(context.Background(), member)
	if err != nil {
		t.Fatalf("DashboardWidgets() error = %v", err)
	}
	if len(widgets) != 1 || widgets[0].Name != "positions_summary" {
		t.Fatalf("widgets = %+v", widgets)
	}
	ctx := widgets[0].Context
	if ctx["positions"] != 2 || ctx["vacant"] != 1 || ctx["expiring"] != 1 {
		t.Fatalf("context = %+v", ctx)
	}
	if ctx["next_end"] == "" {
		t.Fatalf("next_end is empty")
	}
}
