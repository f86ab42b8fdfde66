package readings

import (
	"html/template"
	"regexp"
	"strings"
)

var referencePattern = regexp.MustCompile(`(?i)\[([a-z0-9_-]+)\]`)

// LinkFunc returns the public URL of a reading slug.
type LinkFunc func(slug string) string

// Referencer replaces [slug] markers in content with the named reading.
type Referencer struct {
	names map[string]string
	link  LinkFunc
}

// NewReferencer indexes the active readings by slug. With a nil link the
// references render as plain labels instead of links.
func NewReferencer(all []Reading, link LinkFunc) *Referencer {
	names := make(map[string]string, len(all))
	for _, r := range all {
		if !r.Active || r.Slug == "" {
			continue
		}
		names[strings.ToLower(r.Slug)] = r.DisplayName()
	}
	return &Referencer{names: names, link: link}
}

// Render replaces every known [slug] in content. Unknown slugs are left as
// written.
func (r *Referencer) Render(content string) string {
	if content == "" || r == nil || len(r.names) == 0 {
		return content
	}
	return referencePattern.ReplaceAllStringFunc(content, func(match string) string {
		slug := strings.ToLower(referencePattern.FindStringSubmatch(match)[1])
		name, ok := r.names[slug]
		if !ok {
			return match
		}
		label := template.HTMLEscapeString(name)
		if r.link == nil {
			return `<span class="reading-ref">` + label + `</span>`
		}
		href := template.HTMLEscapeString(r.link(slug))
		return `<a href="` + href + `" class="reading-link" target="_blank">` + label + `</a>`
	})
}

// Slugs returns the known slugs in no particular order.
func (r *Referencer) Slugs() []string {
	out := make([]string, 0, len(r.names))
	for slug := range r.names {
		out = append(out, slug)
	}
	return out
}
