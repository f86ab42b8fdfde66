// Package readings holds the library of texts read at meetings and renders
// [slug] references to them inside other content.
package readings

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/htmlsafe"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/validate"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Reading is one text such as "Serenity Prayer" or "How It Works". Content is
// markdown.
type Reading struct {
	ID        string
	Title     string `form:"title" validate:"required,max=200"`
	ShortName string `form:"short_name" validate:"max=50"`
	Slug      string `form:"slug" validate:"omitempty,slug,max=200"`
	Content   string `form:"content" validate:"required"`
	Notes     string `form:"notes"`
	Copyright string `form:"copyright_notice"`
	Order     int    `form:"order" validate:"min=0"`
	Active    bool   `form:"is_active"`
}

// Validate checks the declared field constraints.
func (r Reading) Validate() error {
	return validate.Struct(r)
}

// DisplayName is the name used where the reading is referenced: the short
// name when set, otherwise the title.
func (r Reading) DisplayName() string {
	if name := strings.TrimSpace(r.ShortName); name != "" {
		return name
	}
	return r.Title
}

var (
	slugStrip    = regexp.MustCompile(`[^\w\s-]`)
	slugCollapse = regexp.MustCompile(`[-\s]+`)
)

// Slugify derives a URL slug from a title: lowercase, punctuation dropped,
// whitespace and dash runs collapsed to "-".
func Slugify(title string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "")
	return strings.Trim(slugCollapse.ReplaceAllString(s, "-"), "-_")
}

// UniqueSlug returns Slugify(title), suffixed -1, -2, ... until taken reports
// it free.
func UniqueSlug(title string, taken func(string) bool) string {
	base := Slugify(title)
	if base == "" {
		base = "reading"
	}
	if taken == nil || !taken(base) {
		return base
	}
	for i := 1; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func markdownRenderer() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(
			goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
		)
	})
	return markdown
}

// RenderBody converts markdown source to sanitized HTML.
func RenderBody(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer().Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render reading: %w", err)
	}
	return htmlsafe.Sanitize(buf.String()), nil
}
