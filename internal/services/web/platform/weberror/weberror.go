// Package weberror renders shared app-shell error responses for web modules.
package weberror

import (
	"net/http"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/logging"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	apperrors "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/errors"
	webi18n "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/i18n"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/pagerender"
	webtemplates "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/templates"
	"golang.org/x/text/message"
)

// ErrorState is the data behind the error page fragment.
type ErrorState struct {
	Status  int
	Message string
}

// ShouldRenderAppError reports whether status should use app error-page UX.
func ShouldRenderAppError(statusCode int) bool {
	return statusCode == http.StatusNotFound ||
		statusCode == http.StatusForbidden ||
		statusCode >= http.StatusInternalServerError
}

// PublicMessage resolves a user-safe localized error message.
func PublicMessage(p *message.Printer, statusCode int) string {
	key := ""
	switch {
	case statusCode == http.StatusNotFound:
		key = "core.error.not_found"
	case statusCode == http.StatusForbidden:
		key = "core.error.forbidden"
	case statusCode >= http.StatusInternalServerError:
		key = "core.error.internal"
	}
	if key != "" && p != nil {
		if localized := strings.TrimSpace(p.Sprintf(key)); localized != "" && localized != key {
			return localized
		}
	}
	return http.StatusText(statusCode)
}

// WriteAppError writes a localized app-shell error response for full-page and HTMX requests.
func WriteAppError(w http.ResponseWriter, r *http.Request, statusCode int, rt module.Runtime) {
	if w == nil {
		return
	}
	if !ShouldRenderAppError(statusCode) {
		statusCode = http.StatusInternalServerError
	}
	printer := webi18n.Printer(r)
	state := ErrorState{Status: statusCode, Message: PublicMessage(printer, statusCode)}
	err := pagerender.WriteModulePage(w, r, rt, pagerender.ModulePage{
		Title:      state.Message,
		StatusCode: statusCode,
		Fragment:   webtemplates.Page("error", state),
	})
	if err != nil {
		logging.OrDiscard(rt.Logger).WithError(err).Error("render error page")
	}
}

// WriteModuleError writes a module-safe localized error response.
func WriteModuleError(w http.ResponseWriter, r *http.Request, err error, rt module.Runtime) {
	if w == nil {
		return
	}
	statusCode := apperrors.HTTPStatus(err)
	if statusCode >= http.StatusInternalServerError {
		entry := logging.OrDiscard(rt.Logger).WithError(err)
		if r != nil {
			entry = entry.WithField("path", r.URL.Path)
		}
		entry.Error("module request failed")
	}
	if ShouldRenderAppError(statusCode) {
		WriteAppError(w, r, statusCode, rt)
		return
	}
	http.Error(w, apperrors.PublicMessage(err), statusCode)
}

// WritePublicError writes a localized error page in the public shell. Store
// failures are logged; missing and disabled share links read as not found.
func WritePublicError(w http.ResponseWriter, r *http.Request, err error, rt module.Runtime) {
	if w == nil {
		return
	}
	statusCode := apperrors.HTTPStatus(err)
	if statusCode >= http.StatusInternalServerError {
		entry := logging.OrDiscard(rt.Logger).WithError(err)
		if r != nil {
			entry = entry.WithField("path", r.URL.Path)
		}
		entry.Error("public request failed")
	}
	if !ShouldRenderAppError(statusCode) {
		statusCode = http.StatusNotFound
	}
	printer, lang := webi18n.Resolve(r)
	state := ErrorState{Status: statusCode, Message: PublicMessage(printer, statusCode)}
	data := webtemplates.PublicData{Title: state.Message, Lang: lang}
	if renderErr := pagerender.WritePublicPage(w, r, data, statusCode, webtemplates.Page("public_error", state)); renderErr != nil {
		logging.OrDiscard(rt.Logger).WithError(renderErr).Error("render public error page")
	}
}
