package phonelist

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	domain "github.com/computeralex/easier-softer-meeting-manager/internal/phonelist"
	apperrors "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/errors"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/flash"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formvalue"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/modulehandler"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	webtemplates "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/templates"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const (
	// maxImportSize bounds an uploaded CSV file.
	maxImportSize = 1 << 20
	// skippedShown caps the skipped rows listed in the import notice.
	skippedShown = 3
)

// IndexPage lists the contacts.
type IndexPage struct {
	Contacts  []domain.Contact
	PublicURL string
	Modes     []string
	CanWrite  bool
	CSRF      string
}

// ContactPage shows one contact and, for writers, its edit form.
type ContactPage struct {
	Contact  domain.Contact
	Zones    []domain.TimeZone
	IsNew    bool
	Action   string
	CanWrite bool
	CSRF     string
	Error    string
}

type handlers struct {
	modulehandler.Base
	svc    service
	access modulehandler.AccessChecker
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.svc.store.ListContacts(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	cfg, err := h.svc.store.GetPhoneListConfig(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	page := IndexPage{
		Contacts: contacts,
		Modes:    []string{domain.ModeAdd, domain.ModeUpdate, domain.ModeReplace},
		CanWrite: h.CanWrite(h.access, Name, r),
		CSRF:     h.CSRF(r),
	}
	if cfg.PublicEnabled {
		page.PublicURL = routepath.PublicPhoneList(cfg.ShareToken)
	}
	h.WritePage(w, r, "Phone List", http.StatusOK, webtemplates.Page("phone_list_index", page))
}

func (h handlers) handleNew(w http.ResponseWriter, r *http.Request) {
	if !h.CanWrite(h.access, Name, r) {
		h.WriteForbidden(w, r)
		return
	}
	h.render(w, r, http.StatusOK, ContactPage{Contact: domain.Contact{Active: true}, IsNew: true})
}

func (h handlers) handleShow(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.store.GetContact(r.Context(), chi.URLParam(r, "contactID"))
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, ContactPage{Contact: c})
}

func (h handlers) handleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	c, err := h.svc.create(r.Context(), r.PostForm)
	if err != nil {
		h.renderError(w, r, ContactPage{Contact: c, IsNew: true}, err)
		return
	}
	h.logChange(r, "contact created", c.ID)
	notice := flash.Success(c.Name + " added to the phone list.")
	h.Redirect(w, r, routepath.PhoneListPrefix, &notice)
}

func (h handlers) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	c, err := h.svc.update(r.Context(), chi.URLParam(r, "contactID"), r.PostForm)
	if err != nil {
		if apperrors.HTTPStatus(err) == http.StatusNotFound {
			h.WriteError(w, r, err)
			return
		}
		h.renderError(w, r, ContactPage{Contact: c}, err)
		return
	}
	h.logChange(r, "contact updated", c.ID)
	notice := flash.Success(c.Name + " saved.")
	h.Redirect(w, r, routepath.PhoneListPrefix, &notice)
}

func (h handlers) handleDelete(w http.ResponseWriter, r *http.Request) {
	contactID := chi.URLParam(r, "contactID")
	if err := h.svc.store.DeleteContact(r.Context(), contactID); err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.logChange(r, "contact deleted", contactID)
	notice := flash.Success("Contact deleted.")
	h.Redirect(w, r, routepath.PhoneListPrefix, &notice)
}

func (h handlers) handleExport(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.svc.store.ListContacts(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="phone_list.csv"`)
	if err := domain.WriteCSV(w, domain.Active(contacts)); err != nil {
		h.Logger().WithError(err).WithField("module", Name).Warn("write phone list csv")
	}
}

// handleImport accepts an uploaded file or pasted CSV text.
func (h handlers) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	var src io.Reader = strings.NewReader(r.PostForm.Get("csv"))
	if file, _, err := r.FormFile("file"); err == nil {
		defer file.Close()
		src = file
	}
	result, err := h.svc.importCSV(r.Context(), formvalue.String(r.PostForm, "mode"), src)
	if err != nil {
		if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
			h.WriteError(w, r, err)
			return
		}
		notice := flash.Error(apperrors.PublicMessage(err) + skippedSummary(result.Skipped))
		h.Redirect(w, r, routepath.PhoneListPrefix, &notice)
		return
	}
	h.Logger().WithFields(logrus.Fields{
		"module":  Name,
		"added":   result.Added,
		"updated": result.Updated,
		"skipped": len(result.Skipped),
	}).Info("contacts imported")
	msg := fmt.Sprintf("Imported %d new and %d updated contacts.", result.Added, result.Updated)
	notice := flash.Success(msg + skippedSummary(result.Skipped))
	h.Redirect(w, r, routepath.PhoneListPrefix, &notice)
}

func skippedSummary(skipped []string) string {
	if len(skipped) == 0 {
		return ""
	}
	shown := skipped
	if len(shown) > skippedShown {
		shown = shown[:skippedShown]
	}
	out := fmt.Sprintf(" Skipped %d rows: %s", len(skipped), strings.Join(shown, "; "))
	if len(skipped) > skippedShown {
		out += "; ..."
	}
	return out
}

func (h handlers) renderError(w http.ResponseWriter, r *http.Request, page ContactPage, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.WriteError(w, r, err)
		return
	}
	page.Error = apperrors.PublicMessage(err)
	h.render(w, r, status, page)
}

func (h handlers) render(w http.ResponseWriter, r *http.Request, status int, page ContactPage) {
	zones, err := h.svc.store.ListTimeZones(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	for _, z := range zones {
		if z.Active || strings.EqualFold(z.Code, page.Contact.TimeZone) {
			page.Zones = append(page.Zones, z)
		}
	}
	page.CanWrite = h.CanWrite(h.access, Name, r)
	page.CSRF = h.CSRF(r)
	title := "New contact"
	if page.IsNew {
		page.Action = routepath.PhoneListPrefix
	} else {
		title = page.Contact.Name
		page.Action = routepath.Contact(page.Contact.ID)
	}
	h.WritePage(w, r, title, status, webtemplates.Page("phone_list_contact", page))
}

func (h handlers) logChange(r *http.Request, msg, subject string) {
	entry := h.Logger().WithFields(logrus.Fields{"module": Name, "id": subject})
	if p, ok := h.Principal(r); ok {
		entry = entry.WithField("user", p.UserID)
	}
	entry.Info(msg)
}
