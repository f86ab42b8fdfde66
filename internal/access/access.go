// Package access evaluates what a principal may do with a module.
//
// A principal holds zero or more position grants. Each grant is identified by
// an open-ended position tag ("treasurer", "secretary", ...) and maps module
// names to permission levels. Superusers bypass every check.
package access

import (
	"strings"
)

// Level is a module-scoped permission level. Levels are ordered so that
// LevelWrite satisfies any LevelRead requirement.
type Level int

const (
	LevelNone Level = iota
	LevelRead
	LevelWrite
)

// ParseLevel maps "read" and "write" to their levels; anything else is none.
func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "read":
		return LevelRead
	case "write":
		return LevelWrite
	default:
		return LevelNone
	}
}

// String returns the storage form of l.
func (l Level) String() string {
	switch l {
	case LevelRead:
		return "read"
	case LevelWrite:
		return "write"
	default:
		return "none"
	}
}

// Grant is the permission bundle carried by one held position.
type Grant struct {
	Position       string
	Modules        map[string]Level
	CanManageUsers bool
}

// Principal is the authenticated actor a request runs as.
type Principal struct {
	UserID      string
	DisplayName string
	Superuser   bool
	Grants      []Grant
}

// Authenticated reports whether p identifies a signed-in user.
func (p Principal) Authenticated() bool {
	return strings.TrimSpace(p.UserID) != ""
}

// Tags returns the position tags p holds, in grant order.
func (p Principal) Tags() []string {
	out := make([]string, 0, len(p.Grants))
	for _, g := range p.Grants {
		if tag := strings.TrimSpace(g.Position); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// HoldsAny reports whether p holds at least one of tags.
func (p Principal) HoldsAny(tags []string) bool {
	if len(tags) == 0 {
		return false
	}
	for _, g := range p.Grants {
		for _, tag := range tags {
			if g.Position == tag {
				return true
			}
		}
	}
	return false
}

// ModuleLevel returns the highest level any held grant gives on module.
func (p Principal) ModuleLevel(module string) Level {
	if p.Superuser {
		return LevelWrite
	}
	level := LevelNone
	for _, g := range p.Grants {
		if granted := g.Modules[module]; granted > level {
			level = granted
		}
	}
	return level
}

// HasModulePermission reports whether p reaches at least level on module.
func (p Principal) HasModulePermission(module string, level Level) bool {
	if p.Superuser {
		return true
	}
	return p.ModuleLevel(module) >= level
}

// ModulePermissions merges the module maps of all grants, keeping the higher
// level when grants disagree.
func (p Principal) ModulePermissions() map[string]Level {
	out := map[string]Level{}
	for _, g := range p.Grants {
		for module, level := range g.Modules {
			if level > out[module] {
				out[module] = level
			}
		}
	}
	return out
}

// CanManageUsers reports whether p may administer users and core settings.
func (p Principal) CanManageUsers() bool {
	if p.Superuser {
		return true
	}
	for _, g := range p.Grants {
		if g.CanManageUsers {
			return true
		}
	}
	return false
}

// Allows evaluates a tag set: superusers and empty sets always pass,
// otherwise p must hold one of the tags.
func Allows(p Principal, tags []string) bool {
	if p.Superuser || len(tags) == 0 {
		return true
	}
	return p.HoldsAny(tags)
}
