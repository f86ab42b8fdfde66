package webctx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
)

func TestPrincipalRoundTrip(t *testing.T) {
	t.Parallel()

	if _, ok := Principal(context.Background()); ok {
		t.Fatal("empty context has a principal")
	}
	ctx := WithPrincipal(context.Background(), access.Principal{UserID: "u1", DisplayName: "Ann"})
	p, ok := Principal(ctx)
	if !ok || p.UserID != "u1" {
		t.Fatalf("Principal() = %+v, %v", p, ok)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if SignedIn(req) {
		t.Fatal("anonymous request signed in")
	}
	if !SignedIn(req.WithContext(ctx)) {
		t.Fatal("request with principal not signed in")
	}
	if SignedIn(nil) {
		t.Fatal("nil request signed in")
	}
}

func TestAnonymousPrincipalIsIgnored(t *testing.T) {
	t.Parallel()

	ctx := WithPrincipal(context.Background(), access.Principal{})
	if _, ok := Principal(ctx); ok {
		t.Fatal("anonymous principal treated as signed in")
	}
}
