// Package positions is the service positions feature: who holds which
// position, term tracking and the permissions each position grants.
package positions

import (
	"context"
	"fmt"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	domain "github.com/computeralex/easier-softer-meeting-manager/internal/positions"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/modulehandler"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
)

// Name is the registry name of the module.
const Name = "positions"

// Store is the persistence the positions module needs.
type Store interface {
	ListHoldings(ctx context.Context) ([]domain.Holding, error)
	GetPosition(ctx context.Context, id string) (domain.Position, error)
	PutPosition(ctx context.Context, position domain.Position) error
	PositionNameTaken(ctx context.Context, name, excludeID string) (bool, error)
	CreateAssignment(ctx context.Context, assignment domain.Assignment) error
	EndAssignment(ctx context.Context, id string, endDate time.Time) error
	ListUsers(ctx context.Context) ([]storage.User, error)
	GetMeetingConfig(ctx context.Context) (storage.MeetingConfig, error)
}

// ModuleLister enumerates registered modules for the permission editor.
type ModuleLister interface {
	All() []registry.Module
}

// Module serves the positions pages and contributes a dashboard widget.
type Module struct {
	svc     service
	access  modulehandler.AccessChecker
	modules ModuleLister
	rt      module.Runtime
}

// New returns the positions module.
func New(store Store, checker modulehandler.AccessChecker, modules ModuleLister, rt module.Runtime) *Module {
	return &Module{svc: service{store: store, now: rt.Clock}, access: checker, modules: modules, rt: rt}
}

// Config declares the module to the registry.
func (m *Module) Config() registry.Config {
	return registry.Config{
		Name:              Name,
		VerboseName:       "Service Positions",
		Description:       "Track who holds each service position and when terms end.",
		URLPrefix:         routepath.PositionsPrefix,
		RequiredPositions: []string{"treasurer", "secretary"},
		NavItems:          []registry.NavItem{{Label: "Positions", Route: routepath.PositionsPrefix, Order: 15}},
		Icon:              "people",
		Order:             15,
	}
}

// ID returns a stable module identifier.
func (m *Module) ID() string { return Name }

// Mount wires the positions routes behind the module access guard.
func (m *Module) Mount() (module.Mount, error) {
	if m.svc.store == nil {
		return module.Mount{}, fmt.Errorf("%s: store is required", Name)
	}
	h := handlers{Base: modulehandler.NewBase(m.rt), svc: m.svc, access: m.access, modules: m.modules}
	r := chi.NewRouter()
	r.Use(h.RequireModuleAccess(m.access, Name))
	r.Get("/", h.handleIndex)
	r.Post("/", h.handleCreate)
	r.Get("/new", h.handleNew)
	r.Get("/{positionID}", h.handleEdit)
	r.Post("/{positionID}", h.handleUpdate)
	r.Post("/{positionID}/assignments", h.handleAssign)
	r.Post("/{positionID}/assignments/{assignmentID}/end", h.handleEndAssignment)
	r.NotFound(h.WriteNotFound)
	return module.Mount{Prefix: routepath.PositionsPrefix, Handler: r}, nil
}

// DashboardWidgets reports position coverage and upcoming term ends.
func (m *Module) DashboardWidgets(ctx context.Context, _ access.Principal) ([]registry.Widget, error) {
	holdings, today, err := m.svc.holdings(ctx)
	if err != nil {
		return nil, err
	}
	summary := domain.Summarize(holdings, today)
	nextEnd := ""
	if summary.NextEnd != nil {
		nextEnd = humanize.RelTime(today, *summary.NextEnd, "from now", "ago")
		if summary.NextEnd.Equal(today) {
			nextEnd = "today"
		}
	}
	return []registry.Widget{{
		Name:  "positions_summary",
		Order: 15,
		Context: map[string]any{
			"positions": summary.Positions,
			"available": summary.Available,
			"vacant":    summary.Vacant,
			"expiring":  summary.Expiring,
			"overdue":   summary.Overdue,
			"next_end":  nextEnd,
		},
	}}, nil
}
