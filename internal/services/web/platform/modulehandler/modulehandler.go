// Package modulehandler provides a composable base for protected web module handlers.
//
// Protected modules (those mounted under /app/) share common handler infrastructure
// for principal resolution, localization, page rendering, and error handling. This
// package extracts that shared scaffold so modules embed it rather than duplicating it.
package modulehandler

import (
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/logging"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	flashnotice "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/flash"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/httpx"
	webi18n "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/i18n"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/pagerender"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/webctx"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/weberror"
	"github.com/justinas/nosurf"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/message"
)

// AccessChecker answers module-level read and write checks.
type AccessChecker interface {
	CheckAccess(name string, p access.Principal) bool
	CheckWriteAccess(name string, p access.Principal) bool
}

// Base carries the shared runtime used by protected module handlers.
// Embed this in module handler structs to get standard principal resolution,
// localization, page rendering, and error writing without duplicating boilerplate.
type Base struct {
	rt module.Runtime
}

// NewBase builds a handler base from the module runtime.
func NewBase(rt module.Runtime) Base {
	return Base{rt: rt}
}

// NewTestBase builds a handler base with no-op resolvers suitable for tests.
func NewTestBase() Base {
	return Base{rt: module.Runtime{Logger: logging.Discard()}}
}

// Runtime returns the runtime the base was built with.
func (b Base) Runtime() module.Runtime { return b.rt }

// Logger returns the runtime logger, never nil.
func (b Base) Logger() logrus.FieldLogger { return logging.OrDiscard(b.rt.Logger) }

// Now returns the runtime clock reading.
func (b Base) Now() time.Time { return b.rt.Clock() }

// Printer resolves the message printer for r.
func (b Base) Printer(r *http.Request) *message.Printer { return webi18n.Printer(r) }

// Principal returns the signed-in principal of r.
func (b Base) Principal(r *http.Request) (access.Principal, bool) {
	return webctx.RequestPrincipal(r)
}

// CSRF returns the form token for r.
func (b Base) CSRF(r *http.Request) string {
	if r == nil {
		return ""
	}
	return nosurf.Token(r)
}

// WritePage renders a full module page (HTMX-aware) with the given title and fragment.
func (b Base) WritePage(w http.ResponseWriter, r *http.Request, title string, statusCode int, fragment templ.Component) {
	if err := pagerender.WriteModulePage(w, r, b.rt, pagerender.ModulePage{
		Title:      title,
		StatusCode: statusCode,
		Fragment:   fragment,
	}); err != nil {
		b.WriteError(w, r, err)
	}
}

// WriteError renders a localized module error response.
func (b Base) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	weberror.WriteModuleError(w, r, err, b.rt)
}

// WriteNotFound renders a 404 error page within the app shell.
func (b Base) WriteNotFound(w http.ResponseWriter, r *http.Request) {
	weberror.WriteAppError(w, r, http.StatusNotFound, b.rt)
}

// WriteForbidden renders a 403 error page within the app shell.
func (b Base) WriteForbidden(w http.ResponseWriter, r *http.Request) {
	weberror.WriteAppError(w, r, http.StatusForbidden, b.rt)
}

// Redirect sends a see-other redirect after a mutation, with an optional notice.
func (b Base) Redirect(w http.ResponseWriter, r *http.Request, location string, notice *flashnotice.Notice) {
	if notice != nil {
		flashnotice.WriteWithPolicy(w, r, *notice, b.rt.SchemePolicy)
	}
	httpx.WriteRedirect(w, r, location)
}

// RequireModuleAccess gates next on module permissions: safe methods need
// read access, everything else write access.
func (b Base) RequireModuleAccess(checker AccessChecker, name string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := b.Principal(r)
			if !ok || checker == nil {
				b.WriteForbidden(w, r)
				return
			}
			allowed := checker.CheckAccess(name, p)
			if !isSafeMethod(r.Method) {
				allowed = checker.CheckWriteAccess(name, p)
			}
			if !allowed {
				b.Logger().WithFields(logrus.Fields{
					"module": name,
					"user":   p.UserID,
					"method": r.Method,
				}).Info("module access denied")
				b.WriteForbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CanWrite reports whether the principal of r may write to module name.
func (b Base) CanWrite(checker AccessChecker, name string, r *http.Request) bool {
	p, ok := b.Principal(r)
	return ok && checker != nil && checker.CheckWriteAccess(name, p)
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
