package public

import (
	"html/template"
	"net/http"

	"github.com/computeralex/easier-softer-meeting-manager/internal/phonelist"
	"github.com/computeralex/easier-softer-meeting-manager/internal/readings"
	"github.com/computeralex/easier-softer-meeting-manager/internal/schedule"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formatview"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/pagerender"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/weberror"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	webtemplates "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/templates"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/go-chi/chi/v5"
)

// TypeLink is one meeting type a visitor can preview.
type TypeLink struct {
	Name     string
	URL      string
	Selected bool
}

// FormatPage is the shared meeting format.
type FormatPage struct {
	Sections []formatview.Section
	Types    []TypeLink
	TypeName string
	PrintURL string
	Print    bool
}

// ReadingLink is one entry of the shared library.
type ReadingLink struct {
	Title string
	URL   string
}

// ReadingsPage lists the shared readings.
type ReadingsPage struct {
	Readings []ReadingLink
}

// ReadingPage shows one shared reading.
type ReadingPage struct {
	Reading readings.Reading
	Body    template.HTML
	BackURL string
}

// PhoneListPage is the shared phone list.
type PhoneListPage struct {
	Contacts []phonelist.Contact
}

type handlers struct {
	store Store
	rt    module.Runtime
}

func (h handlers) handleFormat(w http.ResponseWriter, r *http.Request) {
	h.renderFormat(w, r, false)
}

func (h handlers) handleFormatPrint(w http.ResponseWriter, r *http.Request) {
	h.renderFormat(w, r, true)
}

// renderFormat shows untagged content plus content of the selected meeting
// type. ?type= previews another active type without changing the selection.
func (h handlers) renderFormat(w http.ResponseWriter, r *http.Request, printView bool) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")
	cfg, err := h.store.GetFormatConfigByToken(ctx, token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !cfg.PublicEnabled {
		h.writeError(w, r, storage.ErrNotFound)
		return
	}
	meeting, err := h.store.GetMeetingConfig(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	blocks, err := h.store.ListBlocks(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	types, err := h.store.ListMeetingTypes(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	refs, err := formatview.References(ctx, h.store)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	typeID := cfg.SelectedTypeID
	if preview := r.URL.Query().Get("type"); preview != "" && activeType(types, preview) != nil {
		typeID = preview
	}
	page := FormatPage{Print: printView, PrintURL: routepath.PublicFormatPrint(token)}
	if t := activeType(types, typeID); t != nil {
		page.TypeName = t.Name
		page.PrintURL += "?type=" + t.ID
	} else {
		typeID = ""
	}
	for _, t := range types {
		if t.Active {
			page.Types = append(page.Types, TypeLink{
				Name:     t.Name,
				URL:      routepath.PublicFormat(token) + "?type=" + t.ID,
				Selected: t.ID == typeID,
			})
		}
	}
	page.Sections = formatview.ForType(ctx, blocks, typeID, meeting.Today(h.rt.Clock()), refs)

	data := webtemplates.PublicData{
		Title:       "Meeting format",
		MeetingName: meeting.MeetingName,
		FontSize:    cfg.DisplayFontSize,
		Print:       printView,
	}
	if err := pagerender.WritePublicPage(w, r, data, http.StatusOK, webtemplates.Page("public_format", page)); err != nil {
		h.writeError(w, r, err)
	}
}

func activeType(types []schedule.MeetingType, id string) *schedule.MeetingType {
	if id == "" {
		return nil
	}
	for i := range types {
		if types[i].ID == id && types[i].Active {
			return &types[i]
		}
	}
	return nil
}

func (h handlers) readingsConfig(r *http.Request) (storage.ReadingsConfig, error) {
	cfg, err := h.store.GetReadingsConfigByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		return cfg, err
	}
	if !cfg.PublicEnabled {
		return cfg, storage.ErrNotFound
	}
	return cfg, nil
}

func (h handlers) handleReadings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.readingsConfig(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	all, err := h.store.ListReadings(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var page ReadingsPage
	for _, reading := range all {
		if reading.Active {
			page.Readings = append(page.Readings, ReadingLink{
				Title: reading.Title,
				URL:   routepath.PublicReading(cfg.ShareToken, reading.Slug),
			})
		}
	}
	h.writePage(w, r, "Readings", page, "public_readings")
}

func (h handlers) handleReading(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.readingsConfig(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	reading, err := h.store.GetReadingBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !reading.Active {
		h.writeError(w, r, storage.ErrNotFound)
		return
	}
	body, err := readings.RenderBody(reading.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page := ReadingPage{Reading: reading, Body: template.HTML(body), BackURL: routepath.PublicReadings(cfg.ShareToken)}
	h.writePage(w, r, reading.Title, page, "public_reading")
}

// handlePhoneList shows the active contacts while sharing is on. The link is
// meant for members only, so the page asks search engines to stay away.
func (h handlers) handlePhoneList(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.GetPhoneListConfigByToken(r.Context(), chi.URLParam(r, "token"))
	if err == nil && !cfg.PublicEnabled {
		err = storage.ErrNotFound
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	contacts, err := h.store.ListContacts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Robots-Tag", "noindex, nofollow")
	h.writePage(w, r, "Phone List", PhoneListPage{Contacts: phonelist.Active(contacts)}, "public_phone_list")
}

func (h handlers) writePage(w http.ResponseWriter, r *http.Request, title string, page any, name string) {
	data := webtemplates.PublicData{Title: title}
	if meeting, err := h.store.GetMeetingConfig(r.Context()); err == nil {
		data.MeetingName = meeting.MeetingName
	}
	if err := pagerender.WritePublicPage(w, r, data, http.StatusOK, webtemplates.Page(name, page)); err != nil {
		h.writeError(w, r, err)
	}
}

func (h handlers) handleNotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, storage.ErrNotFound)
}

func (h handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	weberror.WritePublicError(w, r, err, h.rt)
}
