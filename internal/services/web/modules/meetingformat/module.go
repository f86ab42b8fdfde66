// Package meetingformat is the meeting format feature: ordered blocks of
// script content whose variations rotate by date or by meeting type.
package meetingformat

import (
	"context"
	"fmt"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/readings"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/modulehandler"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Name is the registry name of the module.
const Name = "meeting_format"

// Store is the persistence the meeting format module needs.
type Store interface {
	storage.FormatStore
	NextBlockOrder(ctx context.Context) (int, error)
	NextVariationOrder(ctx context.Context, blockID string) (int, error)
	GetMeetingConfig(ctx context.Context) (storage.MeetingConfig, error)
	ListReadings(ctx context.Context) ([]readings.Reading, error)
	GetReadingsConfig(ctx context.Context) (storage.ReadingsConfig, error)
}

// Module serves the format editor and display pages.
type Module struct {
	svc    service
	access modulehandler.AccessChecker
	rt     module.Runtime
}

// New returns the meeting format module.
func New(store Store, checker modulehandler.AccessChecker, rt module.Runtime) *Module {
	return &Module{svc: service{store: store, now: rt.Clock}, access: checker, rt: rt}
}

// Config declares the module to the registry.
func (m *Module) Config() registry.Config {
	return registry.Config{
		Name:              Name,
		VerboseName:       "Meeting Format",
		Description:       "The meeting script, with content that rotates by date or meeting type.",
		URLPrefix:         routepath.FormatPrefix,
		RequiredPositions: []string{"secretary", "group_rep"},
		NavItems: []registry.NavItem{{
			Label: "Format",
			Route: routepath.FormatPrefix,
			Order: 40,
			Children: []registry.NavItem{
				{Label: "Edit", Route: routepath.FormatPrefix, Order: 1},
				{Label: "Display", Route: routepath.FormatPrefix + "display", Order: 2},
			},
		}},
		SettingsURL: routepath.AppSettings + "#settings-" + Name + "-" + settingsSection,
		Icon:        "list",
		Order:       40,
	}
}

// ID returns a stable module identifier.
func (m *Module) ID() string { return Name }

// OnReady creates the format configuration so a share token exists before
// the first public request.
func (m *Module) OnReady(ctx context.Context) error {
	if m.svc.store == nil {
		return nil
	}
	if _, err := m.svc.store.GetFormatConfig(ctx); err != nil {
		return fmt.Errorf("%s: load config: %w", Name, err)
	}
	return nil
}

// Mount wires the editor routes behind the module access guard.
func (m *Module) Mount() (module.Mount, error) {
	if m.svc.store == nil {
		return module.Mount{}, fmt.Errorf("%s: store is required", Name)
	}
	h := handlers{Base: modulehandler.NewBase(m.rt), svc: m.svc, access: m.access}
	r := chi.NewRouter()
	r.Use(h.RequireModuleAccess(m.access, Name))
	r.Get("/", h.handleEditor)
	r.Get("/display", h.handleDisplay)
	r.Post("/select-type", h.handleSelectType)

	r.Post("/blocks", h.handleCreateBlock)
	r.Post("/blocks/{blockID}", h.handleUpdateBlock)
	r.Post("/blocks/{blockID}/delete", h.handleDeleteBlock)
	r.Post("/blocks/{blockID}/move", h.handleMoveBlock)
	r.Post("/blocks/{blockID}/variations", h.handleCreateVariation)

	r.Post("/variations/{variationID}", h.handleUpdateVariation)
	r.Post("/variations/{variationID}/delete", h.handleDeleteVariation)
	r.Post("/variations/{variationID}/rules", h.handleAddRule)
	r.Post("/rules/{ruleID}/delete", h.handleDeleteRule)

	r.Post("/types", h.handleCreateType)
	r.Post("/types/{typeID}", h.handleUpdateType)
	r.Post("/types/{typeID}/delete", h.handleDeleteType)
	r.NotFound(h.WriteNotFound)
	return module.Mount{Prefix: routepath.FormatPrefix, Handler: r}, nil
}

// DashboardWidgets reports how many blocks are active and the selected type.
func (m *Module) DashboardWidgets(ctx context.Context, _ access.Principal) ([]registry.Widget, error) {
	blocks, err := m.svc.store.ListBlocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	active := 0
	for _, b := range blocks {
		if b.Active {
			active++
		}
	}
	selected := ""
	cfg, err := m.svc.store.GetFormatConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load format config: %w", err)
	}
	if cfg.SelectedTypeID != "" {
		if t, err := m.svc.store.GetMeetingType(ctx, cfg.SelectedTypeID); err == nil {
			selected = t.Name
		} else {
			m.logger().WithError(err).WithField("type_id", cfg.SelectedTypeID).Debug("selected meeting type missing")
		}
	}
	return []registry.Widget{{
		Name:    "format_blocks",
		Order:   40,
		Context: map[string]any{"active_blocks": active, "selected_type": selected},
	}}, nil
}

func (m *Module) logger() logrus.FieldLogger {
	return modulehandler.NewBase(m.rt).Logger()
}
