package web

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage/sqlite"
	"golang.org/x/crypto/bcrypt"
)

var (
	testSecret = []byte("0123456789abcdef0123456789abcdef")
	fixedNow   = time.Date(2025, 1, 21, 18, 0, 0, 0, time.UTC)
	csrfField  = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)
)

func newTestServer(t *testing.T, sources ...string) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	clock := func() time.Time { return fixedNow }
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "meeting.db"), sqlite.WithClock(clock))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.PutMeetingConfig(ctx, storage.MeetingConfig{MeetingName: "Tuesday Group", Timezone: "UTC"}); err != nil {
		t.Fatalf("PutMeetingConfig() error = %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := store.CreateUser(ctx, storage.User{ID: "u1", Email: "ada@example.com", FirstName: "Ada", PasswordHash: string(hash), Superuser: true, Active: true}); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	handler, err := NewHandler(ctx, Config{Store: store, Sources: sources, SessionSecret: testSecret, Now: clock})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, client *http.Client, target string) (*http.Response, string) {
	t.Helper()
	resp, err := client.Get(target)
	if err != nil {
		t.Fatalf("GET %s: %v", target, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func signIn(t *testing.T, srv *httptest.Server, client *http.Client) {
	t.Helper()
	_, body := get(t, client, srv.URL+"/login")
	match := csrfField.FindStringSubmatch(body)
	if match == nil {
		t.Fatalf("login form has no csrf token:\n%s", body)
	}
	form := url.Values{
		"csrf_token": {html.UnescapeString(match[1])},
		"email":      {"ada@example.com"},
		"password":   {"correct horse"},
	}
	resp, err := client.PostForm(srv.URL+"/login", form)
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if got := resp.Header.Get("Location"); got != "/app/dashboard" {
		t.Fatalf("login Location = %q, want %q", got, "/app/dashboard")
	}
}

func TestNewHandlerRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := NewHandler(context.Background(), Config{SessionSecret: testSecret}); err == nil {
		t.Fatal("expected error for missing store")
	}
}

func TestNewServerRequiresAddress(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing address")
	}
}

func TestHealthAndRootRedirect(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	client := newClient(t)

	resp, body := get(t, client, srv.URL+"/up")
	if resp.StatusCode != http.StatusOK || body != "ok" {
		t.Fatalf("/up = %d %q, want 200 ok", resp.StatusCode, body)
	}
	resp, _ = get(t, client, srv.URL+"/")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/app/dashboard" {
		t.Fatalf("/ = %d %q, want redirect to dashboard", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	resp, _ := get(t, newClient(t), srv.URL+"/app/format/")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if got := resp.Header.Get("Location"); !strings.HasPrefix(got, "/login?next=") {
		t.Fatalf("Location = %q, want login with next", got)
	}
}

func TestLoginRequiresCSRFToken(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	resp, err := newClient(t).PostForm(srv.URL+"/login", url.Values{"email": {"ada@example.com"}, "password": {"correct horse"}})
	if err != nil {
		t.Fatalf("POST /login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

func TestSignedInUserReachesDiscoveredModules(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	client := newClient(t)
	signIn(t, srv, client)

	resp, body := get(t, client, srv.URL+"/app/dashboard")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	for _, want := range []string{"Tuesday Group", "/app/positions", "/app/readings", "/app/format", "/app/treasurer", "/app/phone-list"} {
		if !strings.Contains(body, want) {
			t.Fatalf("dashboard missing %q", want)
		}
	}
	for _, target := range []string{"/app/positions/", "/app/readings/", "/app/format/", "/app/treasurer/", "/app/phone-list/", "/app/settings/"} {
		if resp, _ := get(t, client, srv.URL+target); resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", target, resp.StatusCode, http.StatusOK)
		}
	}
}

func TestConfiguredSourcesLimitModules(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, "readings")
	client := newClient(t)
	signIn(t, srv, client)

	if resp, _ := get(t, client, srv.URL+"/app/readings/"); resp.StatusCode != http.StatusOK {
		t.Fatalf("readings status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp, body := get(t, client, srv.URL+"/app/format/")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("format status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if strings.Contains(body, "/app/dashboard") {
		t.Fatalf("not found page links into the app")
	}
}

func TestUnknownShareTokenIsNotFound(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	if resp, _ := get(t, newClient(t), srv.URL+"/public/format/nope"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}
