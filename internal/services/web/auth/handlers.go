package auth

import (
	"errors"
	"net/http"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/logging"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/httpx"
	webi18n "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/i18n"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/pagerender"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/requestmeta"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/sessioncookie"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/webctx"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	webtemplates "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/templates"
	"github.com/justinas/nosurf"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/message"
)

// LoginPage is the sign-in form view.
type LoginPage struct {
	Email string
	Error string
	Next  string
	CSRF  string
	P     *message.Printer
}

// Handler serves sign-in and sign-out.
type Handler struct {
	sessions *Sessions
	authn    *Authenticator
	policy   requestmeta.SchemePolicy
	logger   logrus.FieldLogger
}

// NewHandler builds the sign-in handler.
func NewHandler(sessions *Sessions, authn *Authenticator, policy requestmeta.SchemePolicy, logger logrus.FieldLogger) *Handler {
	return &Handler{sessions: sessions, authn: authn, policy: policy, logger: logging.OrDiscard(logger)}
}

// ServeLogin renders the form on GET and signs in on POST.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if webctx.SignedIn(r) {
			httpx.WriteRedirect(w, r, routepath.AppDashboard)
			return
		}
		h.renderLogin(w, r, http.StatusOK, LoginPage{Next: r.URL.Query().Get(NextQueryKey)})
	case http.MethodPost:
		h.login(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	page := LoginPage{Email: r.PostFormValue("email"), Next: r.PostFormValue(NextQueryKey)}
	user, err := h.authn.Login(r.Context(), page.Email, r.PostFormValue("password"))
	if errors.Is(err, ErrInvalidCredentials) {
		page.Error = webi18n.Printer(r).Sprintf("core.login.invalid")
		h.renderLogin(w, r, http.StatusUnauthorized, page)
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("login failed")
		httpx.WriteError(w, err)
		return
	}
	token, expires, err := h.sessions.Issue(user.ID)
	if err != nil {
		h.logger.WithError(err).Error("issue session")
		httpx.WriteError(w, err)
		return
	}
	sessioncookie.Write(w, r, token, expires, h.policy)
	h.logger.WithField("user", user.ID).Info("user signed in")

	target := routepath.AppDashboard
	if SafeNext(page.Next) {
		target = page.Next
	}
	httpx.WriteRedirect(w, r, target)
}

// ServeLogout clears the session cookie.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	sessioncookie.Clear(w, r, h.policy)
	httpx.WriteRedirect(w, r, routepath.Login)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, page LoginPage) {
	printer := webi18n.Printer(r)
	page.P = printer
	page.CSRF = nosurf.Token(r)
	if !SafeNext(page.Next) {
		page.Next = ""
	}
	if err := pagerender.WriteBarePage(w, r, printer.Sprintf("core.login.title"), status, webtemplates.Page("login", page)); err != nil {
		h.logger.WithError(err).Error("render login page")
	}
}
