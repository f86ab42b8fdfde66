package treasurer

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/errors"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/flash"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formvalue"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/modulehandler"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	webtemplates "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/templates"
	"github.com/computeralex/easier-softer-meeting-manager/internal/treasury"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// recentRecords caps the transactions listed on the index page.
const recentRecords = 50

// RecordView is a parent record with its split lines.
type RecordView struct {
	treasury.Record
	Children []treasury.Record
	Locked   bool
}

// SplitView is a split with a one-line description of its items.
type SplitView struct {
	treasury.Split
	Shares string
}

// IndexPage is the treasury overview.
type IndexPage struct {
	Summary   treasury.Summary
	Records   []RecordView
	Splits    []SplitView
	Reports   []treasury.Report
	Form      treasury.Record
	SplitID   string
	NextStart string
	NextEnd   string
	Today     string
	CanWrite  bool
	CSRF      string
	Error     string
}

// SplitPage edits one split.
type SplitPage struct {
	Split     treasury.Split
	ItemsText string
	IsNew     bool
	Action    string
	CanWrite  bool
	CSRF      string
	Error     string
}

// ReportPage shows a saved report and the records it covers.
type ReportPage struct {
	Report   treasury.Report
	Records  []treasury.Record
	CanWrite bool
	CSRF     string
}

// YearPage is the annual summary.
type YearPage struct {
	Summary  treasury.YearSummary
	Previous int
	Next     int
}

type handlers struct {
	modulehandler.Base
	svc    service
	access modulehandler.AccessChecker
}

func (h handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderIndex(w, r, http.StatusOK, IndexPage{})
}

func (h handlers) renderIndex(w http.ResponseWriter, r *http.Request, status int, page IndexPage) {
	ctx := r.Context()
	settings, records, reports, err := h.svc.books(ctx)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	splits, err := h.svc.store.ListSplits(ctx)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	today, err := h.svc.today(ctx)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}

	page.Summary = treasury.Summarize(settings, records)
	page.Records = recordViews(records, reports, recentRecords)
	page.Reports = reports
	page.Today = today.Format(formvalue.DateLayout)
	start, end := treasury.NextPeriod(reports, records, today)
	page.NextStart, page.NextEnd = start.Format(formvalue.DateLayout), end.Format(formvalue.DateLayout)
	for _, split := range splits {
		page.Splits = append(page.Splits, SplitView{Split: split, Shares: shareSummary(split)})
		if page.SplitID == "" && page.Form.Type == "" && split.Default {
			page.SplitID = split.ID
		}
	}
	if page.Form.Date.IsZero() {
		page.Form.Date = today
	}
	page.CanWrite = h.CanWrite(h.access, Name, r)
	page.CSRF = h.CSRF(r)
	h.WritePage(w, r, "Treasury", status, webtemplates.Page("treasurer_index", page))
}

// recordViews groups split children under their parents, newest first.
func recordViews(records []treasury.Record, reports []treasury.Report, limit int) []RecordView {
	children := map[string][]treasury.Record{}
	for _, rec := range records {
		if rec.ParentID != "" {
			children[rec.ParentID] = append(children[rec.ParentID], rec)
		}
	}
	var out []RecordView
	for _, rec := range records {
		if rec.ParentID != "" {
			continue
		}
		if len(out) == limit {
			break
		}
		_, locked := treasury.LockingReport(reports, rec.Date)
		out = append(out, RecordView{Record: rec, Children: children[rec.ID], Locked: locked})
	}
	return out
}

func shareSummary(split treasury.Split) string {
	parts := make([]string, 0, len(split.Items))
	for _, item := range split.Items {
		parts = append(parts, item.Name+" "+treasury.FormatShare(item.Share))
	}
	return strings.Join(parts, ", ")
}

func (h handlers) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	p, _ := h.Principal(r)
	rec, err := h.svc.addRecord(r.Context(), r.PostForm, p.UserID)
	if err != nil {
		status := apperrors.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			h.WriteError(w, r, err)
			return
		}
		page := IndexPage{Form: rec, SplitID: formvalue.String(r.PostForm, "split_id"), Error: apperrors.PublicMessage(err)}
		h.renderIndex(w, r, status, page)
		return
	}
	h.logChange(r, "treasury record added", rec.ID)
	notice := flash.Success(fmt.Sprintf("%s of %s recorded.", titleType(rec.Type), rec.Amount))
	h.Redirect(w, r, routepath.TreasurerPrefix, &notice)
}

func titleType(recordType string) string {
	if recordType == treasury.Expense {
		return "Expense"
	}
	return "Income"
}

func (h handlers) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "recordID")
	if err := h.svc.deleteRecord(r.Context(), recordID); err != nil {
		h.redirectOnConflict(w, r, routepath.TreasurerPrefix, err)
		return
	}
	h.logChange(r, "treasury record deleted", recordID)
	notice := flash.Success("Record deleted.")
	h.Redirect(w, r, routepath.TreasurerPrefix, &notice)
}

// redirectOnConflict sends rule violations back to location as an error
// notice and writes any other failure as an error page.
func (h handlers) redirectOnConflict(w http.ResponseWriter, r *http.Request, location string, err error) {
	if apperrors.HTTPStatus(err) != http.StatusConflict {
		h.WriteError(w, r, err)
		return
	}
	notice := flash.Error(apperrors.PublicMessage(err))
	h.Redirect(w, r, location, &notice)
}

func (h handlers) handleNewSplit(w http.ResponseWriter, r *http.Request) {
	if !h.CanWrite(h.access, Name, r) {
		h.WriteForbidden(w, r)
		return
	}
	h.renderSplit(w, r, http.StatusOK, SplitPage{IsNew: true})
}

func (h handlers) handleShowSplit(w http.ResponseWriter, r *http.Request) {
	split, err := h.svc.store.GetSplit(r.Context(), chi.URLParam(r, "splitID"))
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.renderSplit(w, r, http.StatusOK, SplitPage{Split: split, ItemsText: treasury.FormatItems(split.Items)})
}

func (h handlers) handleCreateSplit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	split, err := h.svc.createSplit(r.Context(), r.PostForm)
	if err != nil {
		h.renderSplitError(w, r, SplitPage{Split: split, ItemsText: r.PostForm.Get("items"), IsNew: true}, err)
		return
	}
	h.logChange(r, "split created", split.ID)
	notice := flash.Success(split.Name + " split added.")
	h.Redirect(w, r, routepath.TreasurerPrefix, &notice)
}

func (h handlers) handleUpdateSplit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	split, err := h.svc.updateSplit(r.Context(), chi.URLParam(r, "splitID"), r.PostForm)
	if err != nil {
		if apperrors.HTTPStatus(err) == http.StatusNotFound {
			h.WriteError(w, r, err)
			return
		}
		h.renderSplitError(w, r, SplitPage{Split: split, ItemsText: r.PostForm.Get("items")}, err)
		return
	}
	h.logChange(r, "split updated", split.ID)
	notice := flash.Success(split.Name + " split saved.")
	h.Redirect(w, r, routepath.TreasurerPrefix, &notice)
}

func (h handlers) handleDeleteSplit(w http.ResponseWriter, r *http.Request) {
	splitID := chi.URLParam(r, "splitID")
	if err := h.svc.store.DeleteSplit(r.Context(), splitID); err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.logChange(r, "split deleted", splitID)
	notice := flash.Success("Split deleted.")
	h.Redirect(w, r, routepath.TreasurerPrefix, &notice)
}

func (h handlers) renderSplitError(w http.ResponseWriter, r *http.Request, page SplitPage, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.WriteError(w, r, err)
		return
	}
	page.Error = apperrors.PublicMessage(err)
	h.renderSplit(w, r, status, page)
}

func (h handlers) renderSplit(w http.ResponseWriter, r *http.Request, status int, page SplitPage) {
	page.CanWrite = h.CanWrite(h.access, Name, r)
	page.CSRF = h.CSRF(r)
	title := "New split"
	if page.IsNew {
		page.Action = routepath.TreasurerPrefix + "splits"
	} else {
		title = page.Split.Name
		page.Action = routepath.TreasurerSplit(page.Split.ID)
	}
	h.WritePage(w, r, title, status, webtemplates.Page("treasurer_split", page))
}

func (h handlers) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	report, err := h.svc.createReport(r.Context(), r.PostForm)
	if err != nil {
		if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
			h.WriteError(w, r, err)
			return
		}
		notice := flash.Error(apperrors.PublicMessage(err))
		h.Redirect(w, r, routepath.TreasurerPrefix, &notice)
		return
	}
	h.logChange(r, "treasury report created", report.ID)
	notice := flash.Success("Report saved. Records in its period are now locked.")
	h.Redirect(w, r, routepath.TreasurerReport(report.ID), &notice)
}

func (h handlers) handleShowReport(w http.ResponseWriter, r *http.Request) {
	report, records, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	page := ReportPage{Report: report, Records: report.InPeriod(records), CanWrite: h.CanWrite(h.access, Name, r), CSRF: h.CSRF(r)}
	title := fmt.Sprintf("Report %s to %s", report.Start.Format(formvalue.DateLayout), report.End.Format(formvalue.DateLayout))
	h.WritePage(w, r, title, http.StatusOK, webtemplates.Page("treasurer_report", page))
}

func (h handlers) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	report, records, ok := h.loadReport(w, r)
	if !ok {
		return
	}
	filename := fmt.Sprintf("report_%s_%s.csv", report.Start.Format(formvalue.DateLayout), report.End.Format(formvalue.DateLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := report.WriteCSV(w, records); err != nil {
		h.Logger().WithError(err).WithField("module", Name).Warn("write report csv")
	}
}

func (h handlers) loadReport(w http.ResponseWriter, r *http.Request) (treasury.Report, []treasury.Record, bool) {
	report, err := h.svc.store.GetReport(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		h.WriteError(w, r, err)
		return report, nil, false
	}
	records, err := h.svc.store.ListRecords(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return report, nil, false
	}
	return report, records, true
}

func (h handlers) handleArchiveReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	if err := h.svc.store.ArchiveReport(r.Context(), reportID); err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.logChange(r, "treasury report archived", reportID)
	notice := flash.Success("Report archived. Its records can be edited again.")
	h.Redirect(w, r, routepath.TreasurerReport(reportID), &notice)
}

func (h handlers) handleYear(w http.ResponseWriter, r *http.Request) {
	year := h.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1900 || parsed > 9999 {
			h.WriteError(w, r, apperrors.E(apperrors.KindInvalidInput, "Invalid year."))
			return
		}
		year = parsed
	}
	records, err := h.svc.store.ListRecords(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	page := YearPage{Summary: treasury.SummarizeYear(records, year), Previous: year - 1, Next: year + 1}
	h.WritePage(w, r, fmt.Sprintf("Treasury %d", year), http.StatusOK, webtemplates.Page("treasurer_year", page))
}

func (h handlers) logChange(r *http.Request, msg, subject string) {
	entry := h.Logger().WithFields(logrus.Fields{"module": Name, "id": subject})
	if p, ok := h.Principal(r); ok {
		entry = entry.WithField("user", p.UserID)
	}
	entry.Info(msg)
}
