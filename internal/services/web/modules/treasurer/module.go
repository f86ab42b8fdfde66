// Package treasurer is the treasury feature: the group's income and expense
// records, disbursement splits and business meeting reports.
package treasurer

import (
	"context"
	"fmt"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/modulehandler"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Name is the registry name of the module.
const Name = "treasurer"

// Store is the persistence the treasurer module needs.
type Store interface {
	storage.TreasuryStore
	GetMeetingConfig(ctx context.Context) (storage.MeetingConfig, error)
}

// Module serves the treasury pages.
type Module struct {
	svc    service
	access modulehandler.AccessChecker
	rt     module.Runtime
}

// New returns the treasurer module.
func New(store Store, checker modulehandler.AccessChecker, rt module.Runtime) *Module {
	return &Module{svc: service{store: store, now: rt.Clock}, access: checker, rt: rt}
}

// Config declares the module to the registry. Everyone may read the books;
// only the treasurer records transactions.
func (m *Module) Config() registry.Config {
	return registry.Config{
		Name:              Name,
		VerboseName:       "Treasury",
		Description:       "Income, expenses, disbursement splits and business meeting reports.",
		URLPrefix:         routepath.TreasurerPrefix,
		RequiredPositions: []string{"treasurer"},
		NavItems:          []registry.NavItem{{Label: "Treasury", Route: routepath.TreasurerPrefix, Order: 30}},
		SettingsURL:       routepath.AppSettings + "#settings-" + Name + "-" + settingsSection,
		Icon:              "currency-dollar",
		Order:             30,
	}
}

// ID returns a stable module identifier.
func (m *Module) ID() string { return Name }

// OnReady creates the treasury settings row.
func (m *Module) OnReady(ctx context.Context) error {
	if m.svc.store == nil {
		return nil
	}
	if _, err := m.svc.store.GetTreasurySettings(ctx); err != nil {
		return fmt.Errorf("%s: load settings: %w", Name, err)
	}
	return nil
}

// Mount wires the treasury routes behind the module access guard.
func (m *Module) Mount() (module.Mount, error) {
	if m.svc.store == nil {
		return module.Mount{}, fmt.Errorf("%s: store is required", Name)
	}
	h := handlers{Base: modulehandler.NewBase(m.rt), svc: m.svc, access: m.access}
	r := chi.NewRouter()
	r.Use(h.RequireModuleAccess(m.access, Name))
	r.Get("/", h.handleIndex)
	r.Post("/records", h.handleAddRecord)
	r.Post("/records/{recordID}/delete", h.handleDeleteRecord)
	r.Get("/splits/new", h.handleNewSplit)
	r.Post("/splits", h.handleCreateSplit)
	r.Get("/splits/{splitID}", h.handleShowSplit)
	r.Post("/splits/{splitID}", h.handleUpdateSplit)
	r.Post("/splits/{splitID}/delete", h.handleDeleteSplit)
	r.Post("/reports", h.handleCreateReport)
	r.Get("/reports/{reportID}", h.handleShowReport)
	r.Get("/reports/{reportID}/csv", h.handleReportCSV)
	r.Post("/reports/{reportID}/archive", h.handleArchiveReport)
	r.Get("/year", h.handleYear)
	r.NotFound(h.WriteNotFound)
	return module.Mount{Prefix: routepath.TreasurerPrefix, Handler: r}, nil
}

// DashboardWidgets reports the current and available balance.
func (m *Module) DashboardWidgets(ctx context.Context, _ access.Principal) ([]registry.Widget, error) {
	summary, err := m.svc.summary(ctx)
	if err != nil {
		return nil, err
	}
	return []registry.Widget{{
		Name:  "treasurer_summary",
		Order: 10,
		Context: map[string]any{
			"balance":    summary.Balance.String(),
			"available":  summary.Available.String(),
			"reserve":    summary.PrudentReserve.String(),
			"low":        summary.Available < 0,
			"configured": summary.Configured,
		},
	}}, nil
}
