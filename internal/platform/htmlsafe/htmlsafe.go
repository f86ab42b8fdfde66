// Package htmlsafe sanitizes user-authored rich text before it is stored or
// rendered.
package htmlsafe

import (
	"regexp"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// embedHosts are the iframe sources allowed for video embeds.
var embedHosts = regexp.MustCompile(`^https://(www\.)?(youtube\.com|youtube-nocookie\.com|player\.vimeo\.com|vimeo\.com)/`)

// Policy returns the shared rich-text policy: basic formatting, headings,
// lists, tables, links, images and iframes from known video hosts.
func Policy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("u", "s", "span", "div", "figure", "figcaption")
		p.AllowAttrs("class").Globally()
		p.AllowStyles("text-align", "font-weight", "font-style", "text-decoration").Globally()
		p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
		p.AllowAttrs("src").Matching(embedHosts).OnElements("iframe")
		p.AllowAttrs("width", "height", "frameborder", "allowfullscreen", "allow", "title").OnElements("iframe")
		p.RequireNoFollowOnLinks(true)
		p.AddTargetBlankToFullyQualifiedLinks(true)
		policy = p
	})
	return policy
}

// Sanitize returns html with everything outside Policy removed.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return Policy().Sanitize(html)
}
