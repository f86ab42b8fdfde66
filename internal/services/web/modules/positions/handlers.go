package positions

import (
	"net/http"
	"sort"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/validate"
	domain "github.com/computeralex/easier-softer-meeting-manager/internal/positions"
	apperrors "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/errors"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/flash"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/modulehandler"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	webtemplates "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/templates"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// HolderView is one assignment row.
type HolderView struct {
	ID          string
	UserName    string
	Primary     bool
	StartDate   time.Time
	ExpectedEnd time.Time
	EndDate     *time.Time
	EndingSoon  bool
	Overdue     bool
	DaysLeft    int
	Current     bool
	Notes       string
}

// HoldingView is one position row on the index.
type HoldingView struct {
	Position        domain.Position
	Holders         []HolderView
	Available       bool
	Vacant          bool
	MultiplePrimary bool
	Warn            bool
}

// AccessRow is the viewer's level on one module.
type AccessRow struct {
	Module   string
	Label    string
	Level    string
	Writable bool
}

// IndexPage lists positions with their current holders.
type IndexPage struct {
	Rows     []HoldingView
	Summary  domain.Summary
	Today    time.Time
	CanWrite bool
	CSRF     string
	// Tags are the position tags the viewer holds.
	Tags []string
	// Granted merges the module levels of the viewer's positions.
	Granted   map[string]access.Level
	Access    []AccessRow
	Superuser bool
}

// PermissionRow is one module level select on the position form.
type PermissionRow struct {
	Module string
	Label  string
	Level  string
}

// FormPage edits one position and its assignments.
type FormPage struct {
	Position    domain.Position
	IsNew       bool
	Action      string
	Permissions []PermissionRow
	Holders     []HolderView
	Users       []storage.User
	Today       time.Time
	CanWrite    bool
	Error       string
	CSRF        string
}

type handlers struct {
	modulehandler.Base
	svc     service
	access  modulehandler.AccessChecker
	modules ModuleLister
}

func (h handlers) moduleNames() []PermissionRow {
	if h.modules == nil {
		return nil
	}
	var rows []PermissionRow
	for _, m := range h.modules.All() {
		cfg := m.Config()
		rows = append(rows, PermissionRow{Module: cfg.Name, Label: cfg.VerboseName})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Module < rows[j].Module })
	return rows
}

// accessRows reports the effective level of p on every registered module.
func (h handlers) accessRows(p access.Principal) []AccessRow {
	rows := h.moduleNames()
	out := make([]AccessRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, AccessRow{
			Module:   row.Module,
			Label:    row.Label,
			Level:    p.ModuleLevel(row.Module).String(),
			Writable: p.HasModulePermission(row.Module, access.LevelWrite),
		})
	}
	return out
}

func (h handlers) permissionModules() []string {
	rows := h.moduleNames()
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Module)
	}
	return out
}

func holderViews(assignments []domain.Assignment, today time.Time, currentOnly bool) []HolderView {
	var out []HolderView
	for _, a := range assignments {
		if currentOnly && !a.Current() {
			continue
		}
		days, _ := a.DaysUntilEnd(today)
		out = append(out, HolderView{
			ID:          a.ID,
			UserName:    a.UserName,
			Primary:     a.Primary,
			StartDate:   a.StartDate,
			ExpectedEnd: a.ExpectedEnd(),
			EndDate:     a.EndDate,
			EndingSoon:  a.EndingSoon(today),
			Overdue:     a.Overdue(today),
			DaysLeft:    days,
			Current:     a.Current(),
			Notes:       a.Notes,
		})
	}
	return out
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	holdings, today, err := h.svc.holdings(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	page := IndexPage{
		Summary:  domain.Summarize(holdings, today),
		Today:    today,
		CanWrite: h.CanWrite(h.access, Name, r),
		CSRF:     h.CSRF(r),
	}
	if p, ok := h.Principal(r); ok {
		page.Tags = p.Tags()
		page.Granted = p.ModulePermissions()
		page.Superuser = p.Superuser
		page.Access = h.accessRows(p)
	}
	for _, holding := range holdings {
		page.Rows = append(page.Rows, HoldingView{
			Position:        holding.Position,
			Holders:         holderViews(holding.Current(), today, true),
			Available:       holding.Available(),
			Vacant:          holding.Vacant(),
			MultiplePrimary: holding.MultiplePrimary(),
			Warn:            holding.Warn(),
		})
	}
	h.WritePage(w, r, "Service positions", http.StatusOK, webtemplates.Page("positions_index", page))
}

func (h handlers) handleNew(w http.ResponseWriter, r *http.Request) {
	if !h.CanWrite(h.access, Name, r) {
		h.WriteForbidden(w, r)
		return
	}
	h.renderForm(w, r, http.StatusOK, FormPage{
		Position: domain.Position{Active: true, TermMonths: domain.DefaultTermMonths, WarnOnMultipleHolders: true},
		IsNew:    true,
	})
}

func (h handlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	p, err := h.svc.createPosition(r.Context(), r.PostForm, h.permissionModules())
	if err != nil {
		h.renderFormError(w, r, FormPage{Position: p, IsNew: true}, err)
		return
	}
	h.logChange(r, "position created", p.ID)
	notice := flash.Success(p.DisplayName + " created.")
	h.Redirect(w, r, routepath.Position(p.ID), &notice)
}

func (h handlers) handleEdit(w http.ResponseWriter, r *http.Request) {
	holding, today, err := h.svc.holding(r.Context(), chi.URLParam(r, "positionID"))
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.renderForm(w, r, http.StatusOK, FormPage{
		Position: holding.Position,
		Holders:  holderViews(holding.Assignments, today, false),
		Today:    today,
	})
}

func (h handlers) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	positionID := chi.URLParam(r, "positionID")
	p, err := h.svc.updatePosition(r.Context(), positionID, r.PostForm, h.permissionModules())
	if err != nil {
		if apperrors.HTTPStatus(err) == http.StatusNotFound {
			h.WriteError(w, r, err)
			return
		}
		h.renderFormError(w, r, FormPage{Position: p}, err)
		return
	}
	h.logChange(r, "position updated", p.ID)
	notice := flash.Success(p.DisplayName + " saved.")
	h.Redirect(w, r, routepath.Position(p.ID), &notice)
}

func (h handlers) handleAssign(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	positionID := chi.URLParam(r, "positionID")
	a, err := h.svc.assign(r.Context(), positionID, r.PostForm)
	if err != nil {
		if fields, ok := validate.AsErrors(err); ok {
			notice := flash.Error(fields.Error())
			h.Redirect(w, r, routepath.Position(positionID), &notice)
			return
		}
		h.WriteError(w, r, err)
		return
	}
	h.logChange(r, "position assigned", a.ID)
	notice := flash.Success("Assignment added.")
	h.Redirect(w, r, routepath.Position(positionID), &notice)
}

func (h handlers) handleEndAssignment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	assignmentID := chi.URLParam(r, "assignmentID")
	if err := h.svc.endAssignment(r.Context(), assignmentID, r.PostForm); err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.logChange(r, "assignment ended", assignmentID)
	notice := flash.Success("Assignment ended.")
	h.Redirect(w, r, routepath.Position(chi.URLParam(r, "positionID")), &notice)
}

func (h handlers) renderFormError(w http.ResponseWriter, r *http.Request, page FormPage, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.WriteError(w, r, err)
		return
	}
	page.Error = apperrors.PublicMessage(err)
	h.renderForm(w, r, status, page)
}

func (h handlers) renderForm(w http.ResponseWriter, r *http.Request, status int, page FormPage) {
	page.CanWrite = h.CanWrite(h.access, Name, r)
	page.CSRF = h.CSRF(r)
	if page.IsNew {
		page.Action = routepath.PositionsPrefix
	} else {
		page.Action = routepath.Position(page.Position.ID)
		users, err := h.svc.store.ListUsers(r.Context())
		if err != nil {
			h.WriteError(w, r, err)
			return
		}
		for _, u := range users {
			if u.Active {
				page.Users = append(page.Users, u)
			}
		}
	}
	for _, row := range h.moduleNames() {
		row.Level = page.Position.ModulePermissions[row.Module].String()
		page.Permissions = append(page.Permissions, row)
	}
	title := "New position"
	if !page.IsNew {
		title = page.Position.DisplayName
	}
	h.WritePage(w, r, title, status, webtemplates.Page("position_form", page))
}

func (h handlers) logChange(r *http.Request, msg, subject string) {
	entry := h.Logger().WithFields(logrus.Fields{"module": Name, "id": subject})
	if p, ok := h.Principal(r); ok {
		entry = entry.WithField("user", p.UserID)
	}
	entry.Info(msg)
}
