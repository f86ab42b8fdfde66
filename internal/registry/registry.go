package registry

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"sync"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/logging"
	"github.com/sirupsen/logrus"
)

// NavEntry is a navigation item annotated with the module that owns it.
type NavEntry struct {
	Module string
	NavItem
}

// SettingsEntry pairs a settings section with the owning module's context.
type SettingsEntry struct {
	Module  string
	Section SettingsSection
	Context map[string]any
}

// WidgetEntry is a dashboard widget annotated with the module that owns it.
type WidgetEntry struct {
	Module string
	Widget
}

type entry struct {
	module Module
	config Config
}

// Registry is the catalog of registered modules. Registration normally
// happens at startup; lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]*entry
	ordered []*entry

	discoverMu sync.Mutex
	discovered bool

	logger logrus.FieldLogger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration and discovery events.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Registry) { r.logger = logger }
}

// New returns an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{byName: map[string]*entry{}}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrDiscard(r.logger)
	return r
}

// Register adds m keyed by its declared name. Registering a name twice is a
// no-op that logs a warning; the first registration wins.
func (r *Registry) Register(m Module) error {
	if m == nil {
		return fmt.Errorf("register: %w: module is nil", ErrInvalidModule)
	}
	cfg := m.Config().normalize()
	if cfg.Name == "" {
		return fmt.Errorf("register %T: %w: name is required", m, ErrInvalidModule)
	}

	r.mu.Lock()
	if _, exists := r.byName[cfg.Name]; exists {
		r.mu.Unlock()
		r.logger.WithField("module", cfg.Name).Warn("module already registered, ignoring duplicate")
		return nil
	}
	e := &entry{module: m, config: cfg}
	r.byName[cfg.Name] = e
	r.ordered = append(r.ordered, e)
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{"module": cfg.Name, "version": cfg.Version}).Info("module registered")
	if hook, ok := m.(RegisterHook); ok {
		hook.OnRegister()
	}
	return nil
}

// Get returns the module registered under name.
func (r *Registry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return e.module, true
}

// ConfigOf returns the normalized declaration registered under name.
func (r *Registry) ConfigOf(name string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byName[name]
	if !ok {
		return Config{}, false
	}
	return e.config, true
}

// All returns every registered module in registration order.
func (r *Registry) All() []Module {
	return modulesOf(r.snapshot())
}

// Enabled returns enabled modules in registration order.
func (r *Registry) Enabled() []Module {
	var out []Module
	for _, e := range r.snapshot() {
		if e.config.Enabled() {
			out = append(out, e.module)
		}
	}
	return out
}

// CheckAccess reports whether p may read the enabled module name.
func (r *Registry) CheckAccess(name string, p access.Principal) bool {
	cfg, ok := r.ConfigOf(name)
	return ok && cfg.Enabled() && cfg.CheckAccess(p)
}

// CheckWriteAccess reports whether p may read and write the enabled module name.
func (r *Registry) CheckWriteAccess(name string, p access.Principal) bool {
	cfg, ok := r.ConfigOf(name)
	return ok && cfg.Enabled() && cfg.CheckAccess(p) && cfg.CheckWriteAccess(p)
}

// ModulesForUser returns the enabled modules p may read, ordered by declared
// order with registration order breaking ties.
func (r *Registry) ModulesForUser(p access.Principal) []Module {
	return modulesOf(r.accessible(p))
}

// NavigationForUser flattens the navigation of every module p may read into
// one list ordered by item order.
func (r *Registry) NavigationForUser(ctx context.Context, p access.Principal) []NavEntry {
	var out []NavEntry
	for _, e := range r.accessible(p) {
		items := e.config.NavItems
		if provider, ok := e.module.(NavProvider); ok {
			items = provider.NavItems(ctx, p)
		}
		for _, item := range items {
			out = append(out, NavEntry{Module: e.config.Name, NavItem: sortedChildren(item)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// SettingsSectionsForUser returns the settings sections of every module p may
// read and write, each paired with the module's settings context.
func (r *Registry) SettingsSectionsForUser(ctx context.Context, p access.Principal) []SettingsEntry {
	var out []SettingsEntry
	for _, e := range r.accessible(p) {
		if !e.config.CheckWriteAccess(p) {
			continue
		}
		provider, ok := e.module.(SettingsProvider)
		if !ok {
			continue
		}
		for _, section := range provider.SettingsSections(ctx, p) {
			if section.Icon == "" {
				section.Icon = e.config.Icon
			}
			settingsCtx, err := provider.SettingsContext(ctx, p, section.Name)
			if err != nil {
				r.logger.WithError(err).WithFields(logrus.Fields{
					"module":  e.config.Name,
					"section": section.Name,
				}).Warn("settings context failed")
				settingsCtx = nil
			}
			if settingsCtx == nil {
				settingsCtx = map[string]any{}
			}
			out = append(out, SettingsEntry{Module: e.config.Name, Section: section, Context: settingsCtx})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Section.Order < out[j].Section.Order })
	return out
}

// DashboardWidgetsForUser collects the widgets of every module p may read,
// ordered by widget order. A failing module is logged and left out.
func (r *Registry) DashboardWidgetsForUser(ctx context.Context, p access.Principal) []WidgetEntry {
	var out []WidgetEntry
	for _, e := range r.accessible(p) {
		provider, ok := e.module.(WidgetProvider)
		if !ok {
			continue
		}
		widgets, err := provider.DashboardWidgets(ctx, p)
		if err != nil {
			r.logger.WithError(err).WithField("module", e.config.Name).Warn("dashboard widgets failed")
			continue
		}
		for _, w := range widgets {
			out = append(out, WidgetEntry{Module: e.config.Name, Widget: w})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// HandleSettingsPost routes a settings submission to the module owning
// section after checking p may write to it.
func (r *Registry) HandleSettingsPost(ctx context.Context, p access.Principal, moduleName, section string, form url.Values) (string, error) {
	r.mu.RLock()
	e, ok := r.byName[moduleName]
	r.mu.RUnlock()
	if !ok || !e.config.Enabled() {
		return "", fmt.Errorf("settings post %q: %w", moduleName, ErrModuleNotFound)
	}
	if !e.config.CheckAccess(p) || !e.config.CheckWriteAccess(p) {
		return "", fmt.Errorf("settings post %q: %w", moduleName, ErrAccessDenied)
	}
	handler, ok := e.module.(SettingsHandler)
	if !ok || !declaresSection(ctx, e.module, p, section) {
		return "", fmt.Errorf("settings post %s/%s: %w", moduleName, section, ErrSectionNotFound)
	}
	return handler.HandleSettingsPost(ctx, p, section, form)
}

func declaresSection(ctx context.Context, m Module, p access.Principal, section string) bool {
	provider, ok := m.(SettingsProvider)
	if !ok {
		return false
	}
	for _, s := range provider.SettingsSections(ctx, p) {
		if s.Name == section {
			return true
		}
	}
	return false
}

func (r *Registry) accessible(p access.Principal) []*entry {
	var out []*entry
	for _, e := range r.snapshot() {
		if e.config.Enabled() && e.config.CheckAccess(p) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].config.Order < out[j].config.Order })
	return out
}

func (r *Registry) snapshot() []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*entry(nil), r.ordered...)
}

func modulesOf(entries []*entry) []Module {
	out := make([]Module, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.module)
	}
	return out
}

func sortedChildren(item NavItem) NavItem {
	if len(item.Children) == 0 {
		return item
	}
	children := make([]NavItem, len(item.Children))
	for i, child := range item.Children {
		children[i] = sortedChildren(child)
	}
	sort.SliceStable(children, func(i, j int) bool { return children[i].Order < children[j].Order })
	item.Children = children
	return item
}
