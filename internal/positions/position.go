// Package positions models service positions, who holds them and for how
// long, and the permission grants a holder carries.
package positions

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/validate"
)

// DefaultTermMonths is the term length of a position that does not set one.
const DefaultTermMonths = 6

// Position is a service role such as treasurer or secretary. Name is the
// permission tag modules list in their required and read positions.
type Position struct {
	ID                    string
	Name                  string `form:"name" validate:"required,slug,max=50"`
	DisplayName           string `form:"display_name" validate:"required,max=100"`
	Description           string `form:"description"`
	Order                 int    `form:"order" validate:"min=0"`
	Active                bool   `form:"is_active"`
	TermMonths            int    `form:"term_months" validate:"min=1,max=120"`
	CanManageUsers        bool   `form:"can_manage_users"`
	ModulePermissions     map[string]access.Level
	ShowOnPublicSite      bool `form:"show_on_public_site"`
	WarnOnMultipleHolders bool `form:"warn_on_multiple_holders"`
}

// Validate checks the declared field constraints.
func (p Position) Validate() error {
	return validate.Struct(p)
}

// Term returns the term length in months, falling back to the default.
func (p Position) Term() int {
	if p.TermMonths <= 0 {
		return DefaultTermMonths
	}
	return p.TermMonths
}

// Grant returns the permission bundle a holder of p carries.
func (p Position) Grant() access.Grant {
	modules := make(map[string]access.Level, len(p.ModulePermissions))
	for module, level := range p.ModulePermissions {
		modules[module] = level
	}
	return access.Grant{Position: p.Name, Modules: modules, CanManageUsers: p.CanManageUsers}
}

// GrantsFor converts the positions a user currently holds into grants,
// skipping inactive positions and repeated tags.
func GrantsFor(held []Position) []access.Grant {
	seen := make(map[string]struct{}, len(held))
	out := make([]access.Grant, 0, len(held))
	for _, p := range held {
		if !p.Active {
			continue
		}
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		out = append(out, p.Grant())
	}
	return out
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a position tag from a display name: lowercase, runs of
// other characters collapsed to "_", trimmed.
func Slugify(displayName string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(displayName), "_"), "_")
}

// UniqueSlug returns Slugify(displayName), suffixed _2, _3, ... until taken
// reports it free.
func UniqueSlug(displayName string, taken func(string) bool) string {
	base := Slugify(displayName)
	if base == "" {
		base = "position"
	}
	if taken == nil || !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := base + "_" + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}
