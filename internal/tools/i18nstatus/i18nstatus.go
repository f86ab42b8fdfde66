// Package i18nstatus reports how complete each message catalog is against
// the base locale.
package i18nstatus

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/i18n/catalog"
)

// Report is the status of every locale.
type Report struct {
	BaseLocale string         `json:"base_locale"`
	Locales    []LocaleStatus `json:"locales"`
}

// LocaleStatus counts the keys of one locale.
type LocaleStatus struct {
	Locale      string            `json:"locale"`
	BaseKeys    int               `json:"base_keys"`
	Translated  int               `json:"translated"`
	Missing     int               `json:"missing"`
	Extra       int               `json:"extra"`
	Completion  float64           `json:"completion"`
	Namespaces  []NamespaceStatus `json:"namespaces"`
	MissingKeys []string          `json:"missing_keys"`
	ExtraKeys   []string          `json:"extra_keys"`
}

// NamespaceStatus counts the keys of one namespace within a locale.
type NamespaceStatus struct {
	Namespace  string  `json:"namespace"`
	BaseKeys   int     `json:"base_keys"`
	Translated int     `json:"translated"`
	Missing    int     `json:"missing"`
	Completion float64 `json:"completion"`
}

// Complete reports whether no locale is missing a base key.
func (r Report) Complete() bool {
	for _, l := range r.Locales {
		if l.Missing > 0 {
			return false
		}
	}
	return true
}

// Build compares every locale of bundle with baseLocale.
func Build(bundle *catalog.Bundle, baseLocale string) (Report, error) {
	base := bundle.LocaleMessages(baseLocale)
	if len(base) == 0 {
		return Report{}, fmt.Errorf("base locale %q has no messages", baseLocale)
	}
	baseByNamespace := groupByNamespace(base)

	rep := Report{BaseLocale: baseLocale}
	for _, locale := range bundle.Locales() {
		messages := bundle.LocaleMessages(locale)
		missing := difference(base, messages)
		extra := difference(messages, base)
		status := LocaleStatus{
			Locale:      locale,
			BaseKeys:    len(base),
			Translated:  len(base) - len(missing),
			Missing:     len(missing),
			Extra:       len(extra),
			Completion:  percent(len(base)-len(missing), len(base)),
			MissingKeys: missing,
			ExtraKeys:   extra,
		}
		for _, ns := range sortedKeys(baseByNamespace) {
			nsMissing := difference(baseByNamespace[ns], messages)
			nsBase := len(baseByNamespace[ns])
			status.Namespaces = append(status.Namespaces, NamespaceStatus{
				Namespace:  ns,
				BaseKeys:   nsBase,
				Translated: nsBase - len(nsMissing),
				Missing:    len(nsMissing),
				Completion: percent(nsBase-len(nsMissing), nsBase),
			})
		}
		rep.Locales = append(rep.Locales, status)
	}
	return rep, nil
}

// WriteJSON writes rep as indented JSON.
func WriteJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// WriteMarkdown writes rep as a translator-friendly markdown page.
func WriteMarkdown(w io.Writer, rep Report) error {
	var b strings.Builder
	b.WriteString("# Translation status\n\n")
	fmt.Fprintf(&b, "Base locale: `%s`.\n\n", rep.BaseLocale)
	b.WriteString("| Locale | Base keys | Translated | Missing | Extra | Completion |\n")
	b.WriteString("| --- | ---: | ---: | ---: | ---: | ---: |\n")
	for _, l := range rep.Locales {
		fmt.Fprintf(&b, "| `%s` | %d | %d | %d | %d | %.1f%% |\n", l.Locale, l.BaseKeys, l.Translated, l.Missing, l.Extra, l.Completion)
	}
	for _, l := range rep.Locales {
		if l.Locale == rep.BaseLocale {
			continue
		}
		fmt.Fprintf(&b, "\n## `%s`\n\n", l.Locale)
		b.WriteString("| Namespace | Base keys | Translated | Missing | Completion |\n")
		b.WriteString("| --- | ---: | ---: | ---: | ---: |\n")
		for _, ns := range l.Namespaces {
			fmt.Fprintf(&b, "| `%s` | %d | %d | %d | %.1f%% |\n", ns.Namespace, ns.BaseKeys, ns.Translated, ns.Missing, ns.Completion)
		}
		writeKeyList(&b, "Missing keys", l.MissingKeys)
		writeKeyList(&b, "Extra keys", l.ExtraKeys)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeKeyList(b *strings.Builder, title string, keys []string) {
	if len(keys) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n\n", title)
	for _, key := range keys {
		fmt.Fprintf(b, "- `%s`\n", key)
	}
}

func groupByNamespace(messages map[string]string) map[string]map[string]string {
	out := map[string]map[string]string{}
	for key, value := range messages {
		ns, _, _ := strings.Cut(key, ".")
		if out[ns] == nil {
			out[ns] = map[string]string{}
		}
		out[ns][key] = value
	}
	return out
}

// difference returns the keys of a absent from b, sorted.
func difference(a, b map[string]string) []string {
	out := make([]string, 0)
	for key := range a {
		if _, ok := b[key]; !ok {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for key := range m {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func percent(numerator, denominator int) float64 {
	if denominator <= 0 {
		return 100
	}
	return math.Round(float64(numerator)*1000/float64(denominator)) / 10
}
