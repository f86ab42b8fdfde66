// Package phonelist serves the group's member phone list.
package phonelist

import (
	"context"
	"fmt"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	domain "github.com/computeralex/easier-softer-meeting-manager/internal/phonelist"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/modulehandler"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Name is the registry name of the module.
const Name = "phone_list"

// Store is the persistence the phone list module needs.
type Store interface {
	storage.PhoneListStore
}

// Module serves the phone list pages.
type Module struct {
	svc    service
	access modulehandler.AccessChecker
	rt     module.Runtime
}

// New returns the phone list module.
func New(store Store, checker modulehandler.AccessChecker, rt module.Runtime) *Module {
	return &Module{svc: service{store: store}, access: checker, rt: rt}
}

// Config declares the module to the registry. Any member may keep the list.
func (m *Module) Config() registry.Config {
	return registry.Config{
		Name:        Name,
		VerboseName: "Phone List",
		Description: "Member contacts with CSV import and export.",
		URLPrefix:   routepath.PhoneListPrefix,
		NavItems:    []registry.NavItem{{Label: "Phone List", Route: routepath.PhoneListPrefix, Order: 20}},
		SettingsURL: routepath.AppSettings + "#settings-" + Name + "-" + settingsSection,
		Icon:        "telephone",
		Order:       20,
	}
}

// ID returns a stable module identifier.
func (m *Module) ID() string { return Name }

// OnReady creates the sharing configuration.
func (m *Module) OnReady(ctx context.Context) error {
	if m.svc.store == nil {
		return nil
	}
	if _, err := m.svc.store.GetPhoneListConfig(ctx); err != nil {
		return fmt.Errorf("%s: load config: %w", Name, err)
	}
	return nil
}

// Mount wires the phone list routes behind the module access guard.
func (m *Module) Mount() (module.Mount, error) {
	if m.svc.store == nil {
		return module.Mount{}, fmt.Errorf("%s: store is required", Name)
	}
	h := handlers{Base: modulehandler.NewBase(m.rt), svc: m.svc, access: m.access}
	r := chi.NewRouter()
	r.Use(h.RequireModuleAccess(m.access, Name))
	r.Get("/", h.handleIndex)
	r.Get("/new", h.handleNew)
	r.Post("/", h.handleCreate)
	r.Get("/export.csv", h.handleExport)
	r.Post("/import", h.handleImport)
	r.Get("/{contactID}", h.handleShow)
	r.Post("/{contactID}", h.handleUpdate)
	r.Post("/{contactID}/delete", h.handleDelete)
	r.NotFound(h.WriteNotFound)
	return module.Mount{Prefix: routepath.PhoneListPrefix, Handler: r}, nil
}

// DashboardWidgets reports the size of the list.
func (m *Module) DashboardWidgets(ctx context.Context, _ access.Principal) ([]registry.Widget, error) {
	contacts, err := m.svc.store.ListContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	active := domain.Active(contacts)
	sponsors := 0
	for _, c := range active {
		if c.AvailableToSponsor {
			sponsors++
		}
	}
	return []registry.Widget{{
		Name:    "phone_list_count",
		Order:   20,
		Context: map[string]any{"contacts": len(contacts), "active": len(active), "sponsors": sponsors},
	}}, nil
}
