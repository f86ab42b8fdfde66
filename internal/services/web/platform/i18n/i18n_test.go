package i18n

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResolveUsesAcceptLanguage(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "es-MX,es;q=0.9")
	_, lang := Resolve(req)
	if !strings.HasPrefix(lang, "es") {
		t.Fatalf("lang = %q, want es", lang)
	}
}

func TestResolveQueryOverridesHeader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/?lang=en-US", nil)
	req.Header.Set("Accept-Language", "es")
	_, lang := Resolve(req)
	if lang != "en-US" {
		t.Fatalf("lang = %q, want en-US", lang)
	}
}

func TestResolveFallsBackToBaseLocale(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ja")
	p, lang := Resolve(req)
	if lang != "en-US" {
		t.Fatalf("lang = %q, want en-US", lang)
	}
	if got := p.Sprintf("core.nav.dashboard"); got != "Dashboard" {
		t.Fatalf("dashboard label = %q, want %q", got, "Dashboard")
	}
}
