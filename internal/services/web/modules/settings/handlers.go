package settings

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/id"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/validate"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/flash"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formvalue"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/modulehandler"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	webtemplates "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/templates"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/message"
)

// MinPasswordLength is the shortest password accepted for new users.
const MinPasswordLength = 8

const genericSection = "settings_generic"

// SectionView is one settings form ready for rendering.
type SectionView struct {
	Module      string
	Name        string
	Title       string
	Icon        string
	Description string
	Action      string
	Template    string
	Context     map[string]any
	CSRF        string
	P           *message.Printer
}

// Page is the settings index view.
type Page struct {
	Sections       []SectionView
	CanManageUsers bool
	CSRF           string
	P              *message.Printer
}

// UsersPage is the user management view.
type UsersPage struct {
	Users             []storage.User
	Form              storage.User
	Error             string
	CanGrantSuperuser bool
	CSRF              string
	P                 *message.Printer
}

type handlers struct {
	modulehandler.Base
	sections Sections
	store    Store
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(r)
	if !ok {
		h.WriteForbidden(w, r)
		return
	}
	printer := h.Printer(r)
	csrf := h.CSRF(r)
	page := Page{CanManageUsers: canManage(p), CSRF: csrf, P: printer}

	if page.CanManageUsers {
		cfg, err := h.store.GetMeetingConfig(r.Context())
		if err != nil {
			h.WriteError(w, r, err)
			return
		}
		page.Sections = append(page.Sections, SectionView{
			Module:   CoreModule,
			Name:     GeneralSection,
			Title:    printer.Sprintf("core.settings.general"),
			Action:   routepath.SettingsSection(CoreModule, GeneralSection),
			Template: "settings_core_general",
			Context:  meetingContext(cfg),
			CSRF:     csrf,
			P:        printer,
		})
	}
	for _, entry := range h.sections.SettingsSectionsForUser(r.Context(), p) {
		tmpl := "settings_" + entry.Module + "_" + entry.Section.Name
		if !webtemplates.Has(tmpl) {
			tmpl = genericSection
		}
		page.Sections = append(page.Sections, SectionView{
			Module:      entry.Module,
			Name:        entry.Section.Name,
			Title:       entry.Section.Title,
			Icon:        entry.Section.Icon,
			Description: entry.Section.Description,
			Action:      routepath.SettingsSection(entry.Module, entry.Section.Name),
			Template:    tmpl,
			Context:     entry.Context,
			CSRF:        csrf,
			P:           printer,
		})
	}
	h.WritePage(w, r, printer.Sprintf("core.settings.title"), http.StatusOK, webtemplates.Page("settings", page))
}

func meetingContext(cfg storage.MeetingConfig) map[string]any {
	return map[string]any{
		"meeting_name": cfg.MeetingName,
		"timezone":     cfg.Timezone,
		"meeting_day":  cfg.MeetingDay,
		"meeting_time": cfg.MeetingTime,
		"address":      cfg.Address,
	}
}

func (h handlers) handleSectionPost(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(r)
	if !ok {
		h.WriteForbidden(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	moduleName := chi.URLParam(r, "module")
	section := chi.URLParam(r, "section")

	var (
		msg string
		err error
	)
	if moduleName == CoreModule {
		if !canManage(p) {
			h.WriteForbidden(w, r)
			return
		}
		msg, err = h.saveGeneral(r)
	} else {
		msg, err = h.sections.HandleSettingsPost(r.Context(), p, moduleName, section, r.PostForm)
	}

	switch {
	case err == nil:
		if msg == "" {
			msg = h.Printer(r).Sprintf("core.settings.saved")
		}
		notice := flash.Success(msg)
		h.Logger().WithFields(logrus.Fields{"module": moduleName, "section": section, "user": p.UserID}).Info("settings saved")
		h.Redirect(w, r, routepath.AppSettings, &notice)
	case errors.Is(err, registry.ErrAccessDenied):
		h.WriteForbidden(w, r)
	case errors.Is(err, registry.ErrModuleNotFound), errors.Is(err, registry.ErrSectionNotFound):
		h.WriteNotFound(w, r)
	default:
		if fields, ok := validate.AsErrors(err); ok {
			notice := flash.Error(fields.Error())
			h.Redirect(w, r, routepath.AppSettings, &notice)
			return
		}
		h.WriteError(w, r, err)
	}
}

func (h handlers) saveGeneral(r *http.Request) (string, error) {
	if section := chi.URLParam(r, "section"); section != GeneralSection {
		return "", fmt.Errorf("core settings %q: %w", section, registry.ErrSectionNotFound)
	}
	cfg := storage.MeetingConfig{
		MeetingName: formvalue.String(r.PostForm, "meeting_name"),
		Timezone:    formvalue.String(r.PostForm, "timezone"),
		MeetingDay:  formvalue.String(r.PostForm, "meeting_day"),
		MeetingTime: formvalue.String(r.PostForm, "meeting_time"),
		Address:     formvalue.String(r.PostForm, "address"),
	}
	if err := validate.Struct(cfg); err != nil {
		return "", err
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return "", validate.Errors{{Field: "timezone", Tag: "timezone"}}
	}
	if err := h.store.PutMeetingConfig(r.Context(), cfg); err != nil {
		return "", err
	}
	return "", nil
}

func (h handlers) handleUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(r)
	if !ok || !canManage(p) {
		h.WriteForbidden(w, r)
		return
	}
	h.renderUsers(w, r, http.StatusOK, UsersPage{CanGrantSuperuser: p.Superuser})
}

func (h handlers) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Principal(r)
	if !ok || !canManage(p) {
		h.WriteForbidden(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	page := UsersPage{CanGrantSuperuser: p.Superuser}
	page.Form = storage.User{
		Email:     strings.ToLower(formvalue.String(r.PostForm, "email")),
		FirstName: formvalue.String(r.PostForm, "first_name"),
		LastName:  formvalue.String(r.PostForm, "last_name"),
		Superuser: p.Superuser && formvalue.Bool(r.PostForm, "is_superuser"),
		Active:    true,
	}
	password := r.PostFormValue("password")

	if err := validate.Struct(page.Form); err != nil {
		page.Error = err.Error()
		h.renderUsers(w, r, http.StatusBadRequest, page)
		return
	}
	if len(password) < MinPasswordLength {
		page.Error = fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength)
		h.renderUsers(w, r, http.StatusBadRequest, page)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.WriteError(w, r, fmt.Errorf("hash password: %w", err))
		return
	}
	userID, err := id.NewID()
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	user := page.Form
	user.ID = userID
	user.PasswordHash = string(hash)
	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			page.Error = "A user with that email already exists."
			h.renderUsers(w, r, http.StatusConflict, page)
			return
		}
		h.WriteError(w, r, err)
		return
	}
	h.Logger().WithFields(logrus.Fields{"user": user.ID, "by": p.UserID}).Info("user created")
	notice := flash.Success("User " + user.DisplayName() + " created.")
	h.Redirect(w, r, routepath.AppUsers, &notice)
}

func (h handlers) renderUsers(w http.ResponseWriter, r *http.Request, status int, page UsersPage) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	page.Users = users
	page.CSRF = h.CSRF(r)
	page.P = h.Printer(r)
	h.WritePage(w, r, "Users", status, webtemplates.Page("users", page))
}
