package schedule

import (
	"fmt"
	"strconv"

	"golang.org/x/text/message"
)

var occurrenceNames = [...]string{"", "1st", "2nd", "3rd", "4th", "5th"}

// Describe renders r for people ("3rd Tuesday", "Every Tuesday",
// "2025-01-21"). With a nil printer the English names are used; otherwise
// the schedule.* catalog keys are resolved through p.
func Describe(r Rule, p *message.Printer) string {
	tr := func(key, fallback string) string {
		if p == nil {
			return fallback
		}
		return p.Sprintf(key)
	}
	trf := func(key, fallback string, args ...any) string {
		if p == nil {
			return fmt.Sprintf(fallback, args...)
		}
		return p.Sprintf(key, args...)
	}

	switch r.Kind {
	case KindWeekdayOccurrence:
		if r.Occurrence == nil || r.Weekday == nil || *r.Occurrence < 1 || *r.Occurrence > 5 || !r.Weekday.Valid() {
			break
		}
		occ := tr("schedule.occurrence."+strconv.Itoa(*r.Occurrence), occurrenceNames[*r.Occurrence])
		day := tr(weekdayKey(*r.Weekday), r.Weekday.String())
		return trf("schedule.rule.weekday_occurrence", "%s %s", occ, day)
	case KindDayOfWeek:
		if r.Weekday == nil || !r.Weekday.Valid() {
			break
		}
		return trf("schedule.rule.day_of_week", "Every %s", tr(weekdayKey(*r.Weekday), r.Weekday.String()))
	case KindSpecificDate:
		if r.Date == nil {
			break
		}
		return trf("schedule.rule.specific_date", "%s", r.Date.Format("2006-01-02"))
	}
	return tr("schedule.rule.unknown", "Schedule")
}

// String describes r in English.
func (r Rule) String() string { return Describe(r, nil) }

func weekdayKey(w Weekday) string {
	return "schedule.weekday." + strconv.Itoa(int(w))
}
