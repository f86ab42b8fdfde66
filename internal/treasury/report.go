package treasury

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"
)

// Report freezes the figures of one period for the business meeting. An
// archived report no longer locks its period.
type Report struct {
	ID         string
	ReportDate time.Time
	Start      time.Time
	End        time.Time
	Totals
	PrudentReserve Cents
	EndingBalance  Cents
	Available      Cents
	Archived       bool
}

// Covers reports whether day falls within the report period.
func (r Report) Covers(day time.Time) bool {
	return !day.Before(r.Start) && !day.After(r.End)
}

// Overlaps reports whether [start, end] shares a day with the report period.
func (r Report) Overlaps(start, end time.Time) bool {
	return !start.After(r.End) && !end.Before(r.Start)
}

// LockingReport returns the non-archived report whose period covers day.
// Records dated inside such a period cannot change.
func LockingReport(reports []Report, day time.Time) (Report, bool) {
	for _, r := range reports {
		if !r.Archived && r.Covers(day) {
			return r, true
		}
	}
	return Report{}, false
}

// OverlappingReport returns a report other than excludeID whose period
// overlaps [start, end].
func OverlappingReport(reports []Report, start, end time.Time, excludeID string) (Report, bool) {
	for _, r := range reports {
		if r.ID != excludeID && r.Overlaps(start, end) {
			return r, true
		}
	}
	return Report{}, false
}

// NextPeriod proposes the next report period ending today. It starts the day
// after the latest non-archived report, or at the earliest record, or today.
func NextPeriod(reports []Report, records []Record, today time.Time) (time.Time, time.Time) {
	var last *Report
	for i := range reports {
		if reports[i].Archived {
			continue
		}
		if last == nil || reports[i].End.After(last.End) {
			last = &reports[i]
		}
	}
	if last != nil {
		return last.End.AddDate(0, 0, 1), today
	}
	start := today
	for _, r := range records {
		if r.Date.Before(start) {
			start = r.Date
		}
	}
	return start, today
}

// CheckPeriod validates a requested report period.
func CheckPeriod(reports []Report, start, end, today time.Time) error {
	if end.Before(start) {
		return fmt.Errorf("the end date must not be before the start date")
	}
	if end.After(today) {
		return fmt.Errorf("the end date cannot be in the future")
	}
	if other, ok := OverlappingReport(reports, start, end, ""); ok {
		return fmt.Errorf("the period overlaps the report for %s to %s",
			other.Start.Format("2006-01-02"), other.End.Format("2006-01-02"))
	}
	return nil
}

// NewReport computes the report of [start, end] from the current books.
func NewReport(settings Settings, records []Record, start, end, today time.Time) Report {
	summary := Summarize(settings, records)
	return Report{
		ReportDate:     today,
		Start:          start,
		End:            end,
		Totals:         Sum(records, start, end),
		PrudentReserve: settings.PrudentReserve,
		EndingBalance:  summary.Balance,
		Available:      summary.Available,
	}
}

// InPeriod returns the parent records of the report period ordered by date.
func (r Report) InPeriod(records []Record) []Record {
	var out []Record
	for _, rec := range records {
		if rec.ParentID == "" && r.Covers(rec.Date) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// WriteCSV writes the report's records followed by its totals.
func (r Report) WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	rows := [][]string{{"Date", "Type", "Description", "Category", "Amount", "Notes"}}
	for _, rec := range r.InPeriod(records) {
		rows = append(rows, []string{
			rec.Date.Format("2006-01-02"), rec.Type, rec.Description, rec.Category, rec.Amount.Decimal(), rec.Notes,
		})
	}
	rows = append(rows,
		[]string{},
		[]string{"", "", "", "Total Income:", r.Income.Decimal(), ""},
		[]string{"", "", "", "Total Expenses:", r.Expenses.Decimal(), ""},
		[]string{"", "", "", "Net:", r.Net().Decimal(), ""},
	)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write report csv: %w", err)
	}
	return nil
}
