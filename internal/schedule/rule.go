// Package schedule picks which content variation of a meeting-format block
// is shown on a given date.
//
// Everything here is pure: callers pass the full block, its variations and
// their rules, and receive values. No function keeps state between calls.
package schedule

import (
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/validate"
	"github.com/go-playground/validator/v10"
)

// Weekday numbers days Monday=0 through Sunday=6.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// WeekdayOf returns the Monday-based weekday of t.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// Valid reports whether w names a day.
func (w Weekday) Valid() bool { return w >= Monday && w <= Sunday }

// String returns the English day name.
func (w Weekday) String() string {
	if !w.Valid() {
		return ""
	}
	return weekdayNames[w]
}

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// RuleKind selects how a rule matches dates.
type RuleKind string

const (
	// KindWeekdayOccurrence matches the nth weekday of a month ("3rd Tuesday").
	KindWeekdayOccurrence RuleKind = "weekday_occurrence"
	// KindDayOfWeek matches a weekday every week.
	KindDayOfWeek RuleKind = "day_of_week"
	// KindSpecificDate matches one calendar date.
	KindSpecificDate RuleKind = "specific_date"
)

// Kinds lists the rule kinds in display order.
var Kinds = []RuleKind{KindWeekdayOccurrence, KindDayOfWeek, KindSpecificDate}

// Rule is one date predicate attached to a variation. Only the fields used by
// Kind are meaningful.
type Rule struct {
	ID          string
	VariationID string
	Kind        RuleKind   `form:"schedule_type" validate:"required,oneof=weekday_occurrence day_of_week specific_date"`
	Occurrence  *int       `form:"occurrence" validate:"omitempty,min=1,max=5"`
	Weekday     *Weekday   `form:"weekday" validate:"omitempty,min=0,max=6"`
	Date        *time.Time `form:"specific_date"`
}

func init() {
	validate.RegisterStructRules(ruleFieldsForKind, Rule{})
}

// ruleFieldsForKind requires the fields each kind reads.
func ruleFieldsForKind(sl validator.StructLevel) {
	r := sl.Current().Interface().(Rule)
	switch r.Kind {
	case KindWeekdayOccurrence:
		if r.Occurrence == nil {
			sl.ReportError(r.Occurrence, "occurrence", "Occurrence", "required_for_kind", string(r.Kind))
		}
		if r.Weekday == nil {
			sl.ReportError(r.Weekday, "weekday", "Weekday", "required_for_kind", string(r.Kind))
		}
	case KindDayOfWeek:
		if r.Weekday == nil {
			sl.ReportError(r.Weekday, "weekday", "Weekday", "required_for_kind", string(r.Kind))
		}
	case KindSpecificDate:
		if r.Date == nil || r.Date.IsZero() {
			sl.ReportError(r.Date, "specific_date", "Date", "required_for_kind", string(r.Kind))
		}
	}
}

// Validate rejects rules missing the fields their kind needs. Rules must pass
// Validate before they are stored.
func (r Rule) Validate() error {
	return validate.Struct(r)
}

// Normalized returns r with fields its kind ignores cleared and the date
// truncated to midnight UTC.
func (r Rule) Normalized() Rule {
	switch r.Kind {
	case KindWeekdayOccurrence:
		r.Date = nil
	case KindDayOfWeek:
		r.Occurrence, r.Date = nil, nil
	case KindSpecificDate:
		r.Occurrence, r.Weekday = nil, nil
		if r.Date != nil {
			d := DateOf(*r.Date)
			r.Date = &d
		}
	}
	return r
}

// Matches reports whether date satisfies r. Only the calendar date of date is
// considered, in date's own location.
func (r Rule) Matches(date time.Time) bool {
	switch r.Kind {
	case KindWeekdayOccurrence:
		if r.Weekday == nil || r.Occurrence == nil {
			return false
		}
		return WeekdayOf(date) == *r.Weekday && Occurrence(date) == *r.Occurrence
	case KindDayOfWeek:
		return r.Weekday != nil && WeekdayOf(date) == *r.Weekday
	case KindSpecificDate:
		return r.Date != nil && SameDate(*r.Date, date)
	default:
		return false
	}
}

// Occurrence returns which occurrence of its weekday date is within its
// month: days 1-7 are the first, 8-14 the second, and so on.
func Occurrence(date time.Time) int {
	return (date.Day()-1)/7 + 1
}

// SameDate compares calendar dates, ignoring clock and location.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateOf returns the calendar date of t as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AnyMatch reports whether any of rules matches date.
func AnyMatch(rules []Rule, date time.Time) bool {
	for _, r := range rules {
		if r.Matches(date) {
			return true
		}
	}
	return false
}
