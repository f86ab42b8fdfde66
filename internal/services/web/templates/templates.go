// Package templates renders the web pages. Page bodies are html/template
// definitions embedded from html/ and exposed as templ components so layouts
// can wrap them as children.
package templates

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"golang.org/x/text/message"
)

//go:embed html/*.html
var files embed.FS

var pages *template.Template

func init() {
	pages = template.Must(template.New("pages").Funcs(template.FuncMap{
		"t":       translate,
		"trusted": func(html string) template.HTML { return template.HTML(html) },
		"date":    formatDate,
		"datep":   formatDatePtr,
		"level":   levelOf,
		"add":     func(a, b int) int { return a + b },
		"include": include,
		"join":    strings.Join,
	}).ParseFS(files, "html/*.html"))
}

// Has reports whether a template named name exists.
func Has(name string) bool {
	return pages.Lookup(name) != nil
}

// Page returns the template name rendered with data.
func Page(name string, data any) templ.Component {
	t := pages.Lookup(name)
	if t == nil {
		return templ.ComponentFunc(func(context.Context, io.Writer) error {
			return fmt.Errorf("template %q not found", name)
		})
	}
	return templ.FromGoHTML(t, data)
}

// Toast is a one-time notice shown above the page body.
type Toast struct {
	Kind    string
	Message string
}

// LayoutData is the app shell around authenticated pages.
type LayoutData struct {
	Title  string
	Viewer module.Viewer
	Toast  *Toast
	Lang   string
	P      *message.Printer
	CSRF   string
	Path   string
}

// Layout wraps the children of ctx in the app shell.
func Layout(data LayoutData) templ.Component {
	return wrap("layout_open", "layout_close", data)
}

// PublicData is the shell around shareable pages.
type PublicData struct {
	Title       string
	MeetingName string
	Lang        string
	FontSize    string
	Print       bool
}

// PublicLayout wraps the children of ctx in the public shell.
func PublicLayout(data PublicData) templ.Component {
	return wrap("public_open", "public_close", data)
}

// BareLayout wraps the children of ctx in a minimal shell for sign-in and
// error pages shown without a session.
func BareLayout(title, lang string, p *message.Printer) templ.Component {
	return wrap("bare_open", "bare_close", LayoutData{Title: title, Lang: lang, P: p})
}

func wrap(open, close string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := pages.ExecuteTemplate(w, open, data); err != nil {
			return err
		}
		if err := templ.GetChildren(ctx).Render(templ.ClearChildren(ctx), w); err != nil {
			return err
		}
		return pages.ExecuteTemplate(w, close, data)
	})
}

func translate(p *message.Printer, key string) string {
	if p == nil {
		return key
	}
	return p.Sprintf(key)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func levelOf(perms map[string]access.Level, module string) string {
	return perms[module].String()
}

func include(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
