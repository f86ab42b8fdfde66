// Package readings is the readings library feature: texts read aloud at
// meetings, referenced from the format with [slug].
package readings

import (
	"context"
	"fmt"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	domain "github.com/computeralex/easier-softer-meeting-manager/internal/readings"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/modulehandler"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Name is the registry name of the module.
const Name = "readings"

// Store is the persistence the readings module needs.
type Store interface {
	ListReadings(ctx context.Context) ([]domain.Reading, error)
	GetReading(ctx context.Context, id string) (domain.Reading, error)
	PutReading(ctx context.Context, r domain.Reading) error
	DeleteReading(ctx context.Context, id string) error
	ReadingSlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	GetReadingsConfig(ctx context.Context) (storage.ReadingsConfig, error)
	PutReadingsConfig(ctx context.Context, cfg storage.ReadingsConfig) error
}

// Module serves the readings library.
type Module struct {
	svc    service
	access modulehandler.AccessChecker
	rt     module.Runtime
}

// New returns the readings module.
func New(store Store, checker modulehandler.AccessChecker, rt module.Runtime) *Module {
	return &Module{svc: service{store: store}, access: checker, rt: rt}
}

// Config declares the module to the registry.
func (m *Module) Config() registry.Config {
	return registry.Config{
		Name:              Name,
		VerboseName:       "Readings",
		Description:       "Readings used at meetings, shareable by link.",
		URLPrefix:         routepath.ReadingsPrefix,
		RequiredPositions: []string{"secretary", "group_rep"},
		NavItems:          []registry.NavItem{{Label: "Readings", Route: routepath.ReadingsPrefix, Order: 35}},
		SettingsURL:       routepath.AppSettings + "#settings-" + Name + "-" + settingsSection,
		Icon:              "book",
		Order:             35,
	}
}

// ID returns a stable module identifier.
func (m *Module) ID() string { return Name }

// OnReady creates the readings configuration and its share token.
func (m *Module) OnReady(ctx context.Context) error {
	if m.svc.store == nil {
		return nil
	}
	if _, err := m.svc.store.GetReadingsConfig(ctx); err != nil {
		return fmt.Errorf("%s: load config: %w", Name, err)
	}
	return nil
}

// Mount wires the readings routes behind the module access guard.
func (m *Module) Mount() (module.Mount, error) {
	if m.svc.store == nil {
		return module.Mount{}, fmt.Errorf("%s: store is required", Name)
	}
	h := handlers{Base: modulehandler.NewBase(m.rt), svc: m.svc, access: m.access}
	r := chi.NewRouter()
	r.Use(h.RequireModuleAccess(m.access, Name))
	r.Get("/", h.handleIndex)
	r.Post("/", h.handleCreate)
	r.Get("/new", h.handleNew)
	r.Get("/{readingID}", h.handleShow)
	r.Post("/{readingID}", h.handleUpdate)
	r.Post("/{readingID}/delete", h.handleDelete)
	r.NotFound(h.WriteNotFound)
	return module.Mount{Prefix: routepath.ReadingsPrefix, Handler: r}, nil
}

// DashboardWidgets reports the number of active readings.
func (m *Module) DashboardWidgets(ctx context.Context, _ access.Principal) ([]registry.Widget, error) {
	all, err := m.svc.store.ListReadings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	count := 0
	for _, r := range all {
		if r.Active {
			count++
		}
	}
	cfg, err := m.svc.store.GetReadingsConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load readings config: %w", err)
	}
	return []registry.Widget{{
		Name:    "readings_count",
		Order:   35,
		Context: map[string]any{"readings": count, "public": cfg.PublicEnabled},
	}}, nil
}
