package meetingformat

import (
	"net/http"
	"strconv"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/schedule"
	apperrors "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/errors"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/flash"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formatview"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formvalue"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/modulehandler"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	webtemplates "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/templates"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// RuleView is one schedule rule with its description.
type RuleView struct {
	ID    string
	Label string
}

// VariationView is one variation on the editor.
type VariationView struct {
	schedule.Variation
	TypeName string
	Rules    []RuleView
	// Today marks the variation the date-based selection picks today.
	Today bool
}

// BlockView is one block on the editor.
type BlockView struct {
	schedule.Block
	First      bool
	Last       bool
	Variations []VariationView
}

// Option is one select choice.
type Option struct {
	Value string
	Label string
}

// EditorPage is the format editor.
type EditorPage struct {
	Today          time.Time
	Blocks         []BlockView
	Types          []schedule.MeetingType
	SelectedTypeID string
	FontSize       string
	Kinds          []Option
	Weekdays       []Option
	Occurrences    []Option
	CanWrite       bool
	CSRF           string
}

// DisplayPage presents the format for one date.
type DisplayPage struct {
	Date     time.Time
	Sections []formatview.Section
	TypeName string
	FontSize string
}

type handlers struct {
	modulehandler.Base
	svc    service
	access modulehandler.AccessChecker
}

func (h handlers) handleEditor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today, err := h.svc.today(ctx)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	blocks, err := h.svc.store.ListBlocks(ctx)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	types, err := h.svc.store.ListMeetingTypes(ctx)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	cfg, err := h.svc.store.GetFormatConfig(ctx)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	typeNames := make(map[string]string, len(types))
	for _, t := range types {
		typeNames[t.ID] = t.Name
	}
	picked := make(map[string]string, len(blocks))
	for _, e := range schedule.AssembleFormat(blocks, today) {
		if e.Active != nil {
			picked[e.Block.ID] = e.Active.ID
		}
	}

	printer := h.Printer(r)
	page := EditorPage{
		Today:          today,
		Types:          types,
		SelectedTypeID: cfg.SelectedTypeID,
		FontSize:       cfg.EditorFontSize,
		Kinds: []Option{
			{Value: string(schedule.KindWeekdayOccurrence), Label: "Weekday of the month"},
			{Value: string(schedule.KindDayOfWeek), Label: "Every week"},
			{Value: string(schedule.KindSpecificDate), Label: "Specific date"},
		},
		CanWrite: h.CanWrite(h.access, Name, r),
		CSRF:     h.CSRF(r),
	}
	for day := schedule.Monday; day <= schedule.Sunday; day++ {
		page.Weekdays = append(page.Weekdays, Option{Value: strconv.Itoa(int(day)), Label: day.String()})
	}
	for n := 1; n <= 5; n++ {
		page.Occurrences = append(page.Occurrences, Option{Value: strconv.Itoa(n), Label: strconv.Itoa(n)})
	}
	for i, b := range blocks {
		view := BlockView{Block: b, First: i == 0, Last: i == len(blocks)-1}
		for _, v := range b.Variations {
			vv := VariationView{Variation: v, TypeName: typeNames[v.TypeID], Today: picked[b.ID] == v.ID}
			for _, rule := range v.Rules {
				vv.Rules = append(vv.Rules, RuleView{ID: rule.ID, Label: schedule.Describe(rule, printer)})
			}
			view.Variations = append(view.Variations, vv)
		}
		page.Blocks = append(page.Blocks, view)
	}
	h.WritePage(w, r, "Meeting format", http.StatusOK, webtemplates.Page("format_editor", page))
}

func (h handlers) handleDisplay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := formvalue.Date(r.URL.Query(), "date")
	if err != nil {
		h.WriteError(w, r, apperrors.E(apperrors.KindInvalidInput, err.Error()))
		return
	}
	if date == nil {
		today, err := h.svc.today(ctx)
		if err != nil {
			h.WriteError(w, r, err)
			return
		}
		date = &today
	}
	blocks, err := h.svc.store.ListBlocks(ctx)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	cfg, err := h.svc.store.GetFormatConfig(ctx)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	refs, err := formatview.References(ctx, h.svc.store)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	page := DisplayPage{Date: *date, FontSize: cfg.DisplayFontSize}
	if cfg.SelectedTypeID != "" {
		if t, err := h.svc.store.GetMeetingType(ctx, cfg.SelectedTypeID); err == nil {
			page.TypeName = t.Name
		}
	}
	page.Sections = formatview.ForDate(ctx, blocks, *date, refs)
	h.WritePage(w, r, "Tonight's format", http.StatusOK, webtemplates.Page("format_display", page))
}

func (h handlers) handleSelectType(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	name, err := h.svc.selectType(r.Context(), r.PostForm)
	msg := "Meeting type cleared."
	if name != "" {
		msg = "Tonight is a " + name + " meeting."
	}
	h.finish(w, r, err, msg, "meeting type selected", formvalue.String(r.PostForm, "type_id"))
}

func (h handlers) handleCreateBlock(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	b, err := h.svc.createBlock(r.Context(), r.PostForm)
	h.finish(w, r, err, "Block "+b.Title+" added.", "block created", b.ID)
}

func (h handlers) handleUpdateBlock(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	b, err := h.svc.updateBlock(r.Context(), chi.URLParam(r, "blockID"), r.PostForm)
	h.finish(w, r, err, "Block "+b.Title+" saved.", "block updated", b.ID)
}

func (h handlers) handleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	blockID := chi.URLParam(r, "blockID")
	err := h.svc.store.DeleteBlock(r.Context(), blockID)
	h.finish(w, r, err, "Block deleted.", "block deleted", blockID)
}

func (h handlers) handleMoveBlock(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	blockID := chi.URLParam(r, "blockID")
	err := h.svc.moveBlock(r.Context(), blockID, r.PostForm)
	h.finish(w, r, err, "Block moved.", "block moved", blockID)
}

func (h handlers) handleCreateVariation(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	v, err := h.svc.createVariation(r.Context(), chi.URLParam(r, "blockID"), r.PostForm)
	h.finish(w, r, err, "Variation added.", "variation created", v.ID)
}

func (h handlers) handleUpdateVariation(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	v, err := h.svc.updateVariation(r.Context(), chi.URLParam(r, "variationID"), r.PostForm)
	h.finish(w, r, err, "Variation saved.", "variation updated", v.ID)
}

func (h handlers) handleDeleteVariation(w http.ResponseWriter, r *http.Request) {
	variationID := chi.URLParam(r, "variationID")
	err := h.svc.store.DeleteVariation(r.Context(), variationID)
	h.finish(w, r, err, "Variation deleted.", "variation deleted", variationID)
}

func (h handlers) handleAddRule(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	rule, err := h.svc.addRule(r.Context(), chi.URLParam(r, "variationID"), r.PostForm)
	msg := ""
	if err == nil {
		msg = "Schedule " + schedule.Describe(rule, h.Printer(r)) + " added."
	}
	h.finish(w, r, err, msg, "schedule added", rule.ID)
}

func (h handlers) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "ruleID")
	err := h.svc.store.DeleteRule(r.Context(), ruleID)
	h.finish(w, r, err, "Schedule removed.", "schedule deleted", ruleID)
}

func (h handlers) handleCreateType(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	t, err := h.svc.createType(r.Context(), r.PostForm)
	h.finish(w, r, err, "Meeting type "+t.Name+" added.", "meeting type created", t.ID)
}

func (h handlers) handleUpdateType(w http.ResponseWriter, r *http.Request) {
	if !h.parse(w, r) {
		return
	}
	t, err := h.svc.updateType(r.Context(), chi.URLParam(r, "typeID"), r.PostForm)
	h.finish(w, r, err, "Meeting type "+t.Name+" saved.", "meeting type updated", t.ID)
}

func (h handlers) handleDeleteType(w http.ResponseWriter, r *http.Request) {
	typeID := chi.URLParam(r, "typeID")
	err := h.svc.store.DeleteMeetingType(r.Context(), typeID)
	h.finish(w, r, err, "Meeting type deleted.", "meeting type deleted", typeID)
}

func (h handlers) parse(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return false
	}
	return true
}

// finish redirects back to the editor. Input and conflict failures come
// back as an error notice; missing records and store failures render an
// error page.
func (h handlers) finish(w http.ResponseWriter, r *http.Request, err error, success, event, subject string) {
	if err != nil {
		switch apperrors.HTTPStatus(err) {
		case http.StatusBadRequest, http.StatusConflict:
			notice := flash.Error(apperrors.PublicMessage(err))
			h.Redirect(w, r, routepath.FormatPrefix, &notice)
		default:
			h.WriteError(w, r, err)
		}
		return
	}
	entry := h.Logger().WithFields(logrus.Fields{"module": Name, "id": subject})
	if p, ok := h.Principal(r); ok {
		entry = entry.WithField("user", p.UserID)
	}
	entry.Info(event)
	notice := flash.Success(success)
	h.Redirect(w, r, routepath.FormatPrefix, &notice)
}
