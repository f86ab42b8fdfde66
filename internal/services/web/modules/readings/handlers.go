package readings

import (
	"html/template"
	"net/http"

	domain "github.com/computeralex/easier-softer-meeting-manager/internal/readings"
	apperrors "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/errors"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/flash"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/modulehandler"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	webtemplates "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/templates"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// IndexPage lists the library.
type IndexPage struct {
	Readings  []domain.Reading
	PublicURL string
	CanWrite  bool
}

// ReadingPage shows one reading and, for writers, its edit form.
type ReadingPage struct {
	Reading  domain.Reading
	Body     template.HTML
	IsNew    bool
	Action   string
	CanWrite bool
	Error    string
	CSRF     string
}

type handlers struct {
	modulehandler.Base
	svc    service
	access modulehandler.AccessChecker
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.store.ListReadings(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	cfg, err := h.svc.store.GetReadingsConfig(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	page := IndexPage{Readings: all, CanWrite: h.CanWrite(h.access, Name, r)}
	if cfg.PublicEnabled {
		page.PublicURL = routepath.PublicReadings(cfg.ShareToken)
	}
	h.WritePage(w, r, "Readings", http.StatusOK, webtemplates.Page("readings_index", page))
}

func (h handlers) handleNew(w http.ResponseWriter, r *http.Request) {
	if !h.CanWrite(h.access, Name, r) {
		h.WriteForbidden(w, r)
		return
	}
	h.render(w, r, http.StatusOK, ReadingPage{Reading: domain.Reading{Active: true}, IsNew: true})
}

func (h handlers) handleShow(w http.ResponseWriter, r *http.Request) {
	reading, err := h.svc.store.GetReading(r.Context(), chi.URLParam(r, "readingID"))
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, ReadingPage{Reading: reading})
}

func (h handlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	reading, err := h.svc.create(r.Context(), r.PostForm)
	if err != nil {
		h.renderError(w, r, ReadingPage{Reading: reading, IsNew: true}, err)
		return
	}
	h.logChange(r, "reading created", reading.ID)
	notice := flash.Success(reading.Title + " added.")
	h.Redirect(w, r, routepath.Reading(reading.ID), &notice)
}

func (h handlers) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	reading, err := h.svc.update(r.Context(), chi.URLParam(r, "readingID"), r.PostForm)
	if err != nil {
		if apperrors.HTTPStatus(err) == http.StatusNotFound {
			h.WriteError(w, r, err)
			return
		}
		h.renderError(w, r, ReadingPage{Reading: reading}, err)
		return
	}
	h.logChange(r, "reading updated", reading.ID)
	notice := flash.Success(reading.Title + " saved.")
	h.Redirect(w, r, routepath.Reading(reading.ID), &notice)
}

func (h handlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	readingID := chi.URLParam(r, "readingID")
	if err := h.svc.store.DeleteReading(r.Context(), readingID); err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.logChange(r, "reading deleted", readingID)
	notice := flash.Success("Reading deleted.")
	h.Redirect(w, r, routepath.ReadingsPrefix, &notice)
}

func (h handlers) renderError(w http.ResponseWriter, r *http.Request, page ReadingPage, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.WriteError(w, r, err)
		return
	}
	page.Error = apperrors.PublicMessage(err)
	h.render(w, r, status, page)
}

func (h handlers) render(w http.ResponseWriter, r *http.Request, status int, page ReadingPage) {
	page.CanWrite = h.CanWrite(h.access, Name, r)
	page.CSRF = h.CSRF(r)
	title := "New reading"
	if page.IsNew {
		page.Action = routepath.ReadingsPrefix
	} else {
		title = page.Reading.Title
		page.Action = routepath.Reading(page.Reading.ID)
		body, err := domain.RenderBody(page.Reading.Content)
		if err != nil {
			h.WriteError(w, r, err)
			return
		}
		page.Body = template.HTML(body)
	}
	h.WritePage(w, r, title, status, webtemplates.Page("reading_form", page))
}

func (h handlers) logChange(r *http.Request, msg, subject string) {
	entry := h.Logger().WithFields(logrus.Fields{"module": Name, "id": subject})
	if p, ok := h.Principal(r); ok {
		entry = entry.WithField("user", p.UserID)
	}
	entry.Info(msg)
}
