// Package registry catalogs the pluggable feature modules of the meeting
// manager and composes permission-filtered navigation, settings sections and
// dashboard widgets for a principal.
package registry

import (
	"context"
	"net/url"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
)

// DefaultVersion is reported for modules that do not declare one.
const DefaultVersion = "1.0.0"

// NavItem is one navigation entry a module contributes.
type NavItem struct {
	Label     string
	Route     string
	Icon      string
	Order     int
	Badge     string
	Namespace string
	Children  []NavItem
}

// SettingsSection is one tab a module contributes to the settings page.
type SettingsSection struct {
	Name        string
	Title       string
	Icon        string
	Order       int
	Description string
}

// Widget is one dashboard card a module contributes.
type Widget struct {
	Name    string
	Order   int
	Context map[string]any
}

// Config is the static declaration of a module. It is read once at
// registration and treated as immutable afterwards.
type Config struct {
	Name        string
	VerboseName string
	Description string
	Version     string
	URLPrefix   string
	// RequiredPositions gates write access; empty lets any principal write.
	RequiredPositions []string
	// ReadPositions gates read access; empty lets any principal read.
	ReadPositions []string
	NavItems      []NavItem
	SettingsURL   string
	Icon          string
	Order         int
	// Disabled hides the module from every per-user view.
	Disabled bool
}

// Enabled reports whether the module participates in per-user views.
func (c Config) Enabled() bool { return !c.Disabled }

// CheckAccess reports whether p may read the module.
func (c Config) CheckAccess(p access.Principal) bool {
	return access.Allows(p, c.ReadPositions)
}

// CheckWriteAccess reports whether p may write to the module.
func (c Config) CheckWriteAccess(p access.Principal) bool {
	return access.Allows(p, c.RequiredPositions)
}

// normalize trims identifiers, fills defaults and widens a non-empty read
// set with the write set so write access always implies read access.
func (c Config) normalize() Config {
	c.Name = strings.TrimSpace(c.Name)
	c.Version = strings.TrimSpace(c.Version)
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.VerboseName == "" {
		c.VerboseName = c.Name
	}
	c.RequiredPositions = cleanTags(c.RequiredPositions)
	c.ReadPositions = cleanTags(c.ReadPositions)
	if len(c.ReadPositions) > 0 {
		c.ReadPositions = union(c.ReadPositions, c.RequiredPositions)
	}
	c.NavItems = append([]NavItem(nil), c.NavItems...)
	return c
}

func cleanTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func union(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, tag := range list {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

// Module is the contract every feature module satisfies. The optional
// interfaces below add hooks; a module implements only the ones it needs.
type Module interface {
	Config() Config
}

// RegisterHook runs once, synchronously, when the module is registered.
type RegisterHook interface {
	OnRegister()
}

// ReadyHook runs once after autodiscovery completes.
type ReadyHook interface {
	OnReady(ctx context.Context) error
}

// NavProvider computes navigation per principal instead of using Config.NavItems.
type NavProvider interface {
	NavItems(ctx context.Context, p access.Principal) []NavItem
}

// WidgetProvider contributes dashboard widgets.
type WidgetProvider interface {
	DashboardWidgets(ctx context.Context, p access.Principal) ([]Widget, error)
}

// SettingsProvider contributes settings sections and their render context.
type SettingsProvider interface {
	SettingsSections(ctx context.Context, p access.Principal) []SettingsSection
	SettingsContext(ctx context.Context, p access.Principal, section string) (map[string]any, error)
}

// SettingsHandler accepts a settings form submission for one of its sections
// and returns an optional user-facing confirmation.
type SettingsHandler interface {
	HandleSettingsPost(ctx context.Context, p access.Principal, section string, form url.Values) (string, error)
}
