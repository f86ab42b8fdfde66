// Package dashboard renders the signed-in landing page from the widgets of
// every module the viewer may read.
package dashboard

import (
	"context"
	"fmt"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/modulehandler"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	"github.com/go-chi/chi/v5"
)

// WidgetSource composes the dashboard widgets visible to a principal.
type WidgetSource interface {
	DashboardWidgetsForUser(ctx context.Context, p access.Principal) []registry.WidgetEntry
}

// Module provides authenticated dashboard routes.
type Module struct {
	widgets WidgetSource
	rt      module.Runtime
}

// New returns a dashboard module.
func New(widgets WidgetSource, rt module.Runtime) Module {
	return Module{widgets: widgets, rt: rt}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "dashboard" }

// Mount wires dashboard route handlers.
func (m Module) Mount() (module.Mount, error) {
	if m.widgets == nil {
		return module.Mount{}, fmt.Errorf("dashboard: widget source is required")
	}
	r := chi.NewRouter()
	h := handlers{Base: modulehandler.NewBase(m.rt), widgets: m.widgets}
	r.Get("/", h.handleIndex)
	r.NotFound(h.WriteNotFound)
	return module.Mount{Prefix: routepath.DashboardPrefix, Handler: r}, nil
}
