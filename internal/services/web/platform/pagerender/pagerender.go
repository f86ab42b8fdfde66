// Package pagerender centralizes module page rendering behavior.
package pagerender

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	flashnotice "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/flash"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/httpx"
	webi18n "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/i18n"
	webtemplates "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/templates"
	"github.com/justinas/nosurf"
)

// ModulePage describes a module page response for both full-page and HTMX flows.
type ModulePage struct {
	Title      string
	StatusCode int
	Fragment   templ.Component
}

// WriteModulePage writes a module page inside the app shell. HTMX requests
// receive the fragment alone.
func WriteModulePage(w http.ResponseWriter, r *http.Request, rt module.Runtime, page ModulePage) error {
	if w == nil {
		return nil
	}
	fragment := page.Fragment
	if fragment == nil {
		fragment = templ.NopComponent
	}
	ctx := httpx.RequestContext(r)

	var buf bytes.Buffer
	if httpx.IsHTMXRequest(r) {
		if err := fragment.Render(ctx, &buf); err != nil {
			return err
		}
		return write(w, page.StatusCode, buf.Bytes())
	}

	printer, lang := webi18n.Resolve(r)
	data := webtemplates.LayoutData{
		Title:  page.Title,
		Viewer: rt.Viewer(r),
		Toast:  resolveFlashToast(w, r),
		Lang:   lang,
		P:      printer,
	}
	if r != nil {
		data.CSRF = nosurf.Token(r)
		data.Path = r.URL.Path
	}
	if err := webtemplates.Layout(data).Render(templ.WithChildren(ctx, fragment), &buf); err != nil {
		return err
	}
	return write(w, page.StatusCode, buf.Bytes())
}

// WritePublicPage writes an unauthenticated shareable page.
func WritePublicPage(w http.ResponseWriter, r *http.Request, data webtemplates.PublicData, statusCode int, body templ.Component) error {
	if w == nil {
		return nil
	}
	if body == nil {
		body = templ.NopComponent
	}
	if data.Lang == "" {
		_, data.Lang = webi18n.Resolve(r)
	}
	var buf bytes.Buffer
	if err := webtemplates.PublicLayout(data).Render(templ.WithChildren(httpx.RequestContext(r), body), &buf); err != nil {
		return err
	}
	return write(w, statusCode, buf.Bytes())
}

// WriteBarePage writes a page without app chrome, such as sign-in.
func WriteBarePage(w http.ResponseWriter, r *http.Request, title string, statusCode int, body templ.Component) error {
	if w == nil {
		return nil
	}
	if body == nil {
		body = templ.NopComponent
	}
	printer, lang := webi18n.Resolve(r)
	var buf bytes.Buffer
	if err := webtemplates.BareLayout(title, lang, printer).Render(templ.WithChildren(httpx.RequestContext(r), body), &buf); err != nil {
		return err
	}
	return write(w, statusCode, buf.Bytes())
}

func write(w http.ResponseWriter, statusCode int, body []byte) error {
	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_, err := w.Write(body)
	return err
}

func resolveFlashToast(w http.ResponseWriter, r *http.Request) *webtemplates.Toast {
	notice, ok := flashnotice.ReadAndClear(w, r)
	if !ok {
		return nil
	}
	return &webtemplates.Toast{Kind: string(notice.Kind), Message: notice.Message}
}
