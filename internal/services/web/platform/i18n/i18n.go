// Package i18n resolves the message printer for a web request.
package i18n

import (
	"net/http"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/i18n/catalog"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/requestmeta"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LangQueryKey overrides Accept-Language for one request.
const LangQueryKey = "lang"

// Resolve returns the printer and language tag for r. Unknown languages fall
// back to the base locale.
func Resolve(r *http.Request) (*message.Printer, string) {
	bundle, err := catalog.Default()
	if err != nil {
		tag := language.MustParse(catalog.BaseLocale)
		return message.NewPrinter(tag), tag.String()
	}
	prefs := requestmeta.Languages(r)
	if r != nil {
		if lang := r.URL.Query().Get(LangQueryKey); lang != "" {
			prefs = append([]string{lang}, prefs...)
		}
	}
	tag := bundle.Match(prefs...)
	return message.NewPrinter(tag), tag.String()
}

// Printer returns only the printer for r.
func Printer(r *http.Request) *message.Printer {
	p, _ := Resolve(r)
	return p
}
