package dashboard

import (
	"net/http"

	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/modulehandler"
	webtemplates "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/templates"
	"golang.org/x/text/message"
)

const genericWidget = "widget_generic"

// WidgetView is one dashboard card ready for rendering.
type WidgetView struct {
	Module   string
	Name     string
	Template string
	Context  map[string]any
}

// Page is the dashboard view.
type Page struct {
	Widgets []WidgetView
	P       *message.Printer
}

type handlers struct {
	modulehandler.Base
	widgets WidgetSource
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(r)
	if !ok {
		h.WriteForbidden(w, r)
		return
	}
	printer := h.Printer(r)
	page := Page{P: printer}
	for _, entry := range h.widgets.DashboardWidgetsForUser(r.Context(), p) {
		tmpl := "widget_" + entry.Name
		if !webtemplates.Has(tmpl) {
			h.Logger().WithField("widget", entry.Name).Debug("no template for widget, using generic card")
			tmpl = genericWidget
		}
		page.Widgets = append(page.Widgets, WidgetView{
			Module:   entry.Module,
			Name:     entry.Name,
			Template: tmpl,
			Context:  entry.Context,
		})
	}
	h.WritePage(w, r, printer.Sprintf("core.dashboard.title"), http.StatusOK, webtemplates.Page("dashboard", page))
}
