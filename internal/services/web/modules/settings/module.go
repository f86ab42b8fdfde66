// Package settings serves the settings page: the core meeting configuration,
// the sections contributed by feature modules and user management.
package settings

import (
	"context"
	"fmt"
	"net/url"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/modulehandler"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/go-chi/chi/v5"
)

// CoreModule names the built-in settings owner in section routes.
const CoreModule = "core"

// GeneralSection is the core meeting configuration section.
const GeneralSection = "general"

// Sections composes module settings sections and routes their submissions.
type Sections interface {
	SettingsSectionsForUser(ctx context.Context, p access.Principal) []registry.SettingsEntry
	HandleSettingsPost(ctx context.Context, p access.Principal, moduleName, section string, form url.Values) (string, error)
}

// Store is the persistence the settings page needs.
type Store interface {
	storage.MeetingStore
	CreateUser(ctx context.Context, user storage.User) error
	ListUsers(ctx context.Context) ([]storage.User, error)
}

// Module provides the settings routes.
type Module struct {
	sections Sections
	store    Store
	rt       module.Runtime
}

// New returns a settings module.
func New(sections Sections, store Store, rt module.Runtime) Module {
	return Module{sections: sections, store: store, rt: rt}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "settings" }

// Mount wires settings route handlers.
func (m Module) Mount() (module.Mount, error) {
	if m.sections == nil || m.store == nil {
		return module.Mount{}, fmt.Errorf("settings: sections and store are required")
	}
	h := handlers{Base: modulehandler.NewBase(m.rt), sections: m.sections, store: m.store}
	r := chi.NewRouter()
	r.Get("/", h.handleIndex)
	r.Get("/users", h.handleUsers)
	r.Post("/users", h.handleCreateUser)
	r.Post("/{module}/{section}", h.handleSectionPost)
	r.NotFound(h.WriteNotFound)
	return module.Mount{Prefix: routepath.SettingsPrefix, Handler: r}, nil
}

// canManage reports whether p may edit core settings and users.
func canManage(p access.Principal) bool {
	return p.Superuser || p.CanManageUsers()
}
