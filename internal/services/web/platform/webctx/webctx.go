// Package webctx provides shared web request context helpers.
package webctx

import (
	"context"
	"net/http"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
)

type principalKey struct{}

// WithPrincipal returns ctx carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// Principal returns the principal resolved for ctx, if any.
func Principal(ctx context.Context) (access.Principal, bool) {
	if ctx == nil {
		return access.Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(access.Principal)
	if !ok || !p.Authenticated() {
		return access.Principal{}, false
	}
	return p, true
}

// RequestPrincipal returns the principal attached to r.
func RequestPrincipal(r *http.Request) (access.Principal, bool) {
	if r == nil {
		return access.Principal{}, false
	}
	return Principal(r.Context())
}

// SignedIn reports whether r carries an authenticated principal.
func SignedIn(r *http.Request) bool {
	_, ok := RequestPrincipal(r)
	return ok
}
