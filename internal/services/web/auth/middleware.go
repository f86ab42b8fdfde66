package auth

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/logging"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/httpx"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/requestmeta"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/sessioncookie"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/webctx"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/sirupsen/logrus"
)

// NextQueryKey carries the page to return to after signing in.
const NextQueryKey = "next"

// ResolvePrincipal attaches the principal named by the session cookie to the
// request context. Invalid sessions are cleared and the request continues
// anonymously.
func ResolvePrincipal(sessions *Sessions, authn *Authenticator, policy requestmeta.SchemePolicy, logger logrus.FieldLogger) httpx.Middleware {
	logger = logging.OrDiscard(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := sessioncookie.Read(r)
			if !ok || sessions == nil || authn == nil {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := sessions.Verify(token)
			if err != nil {
				logger.WithError(err).Debug("discarding session cookie")
				sessioncookie.Clear(w, r, policy)
				next.ServeHTTP(w, r)
				return
			}
			p, err := authn.Principal(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, ErrInactiveUser) {
					logger.WithError(err).WithField("user", userID).Error("resolve principal")
				}
				sessioncookie.Clear(w, r, policy)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(webctx.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAuth redirects anonymous requests to the sign-in page.
func RequireAuth(next http.Handler) http.Handler {
	if next == nil {
		next = http.NotFoundHandler()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !webctx.SignedIn(r) {
			httpx.WriteRedirect(w, r, LoginURL(r))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginURL returns the sign-in path that returns to r after success.
func LoginURL(r *http.Request) string {
	if r == nil || r.Method != http.MethodGet {
		return routepath.Login
	}
	target := r.URL.RequestURI()
	if !SafeNext(target) || target == routepath.AppDashboard {
		return routepath.Login
	}
	return routepath.Login + "?" + url.Values{NextQueryKey: {target}}.Encode()
}

// SafeNext reports whether target is a local app path safe to redirect to.
func SafeNext(target string) bool {
	if !strings.HasPrefix(target, routepath.AppPrefix) {
		return false
	}
	if strings.Contains(target, "//") || strings.Contains(target, `\`) {
		return false
	}
	return true
}
