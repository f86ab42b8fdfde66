package positions

import (
	"sort"
	"time"
)

// EndingSoonWindow is how close to its expected end a term counts as ending soon.
const EndingSoonWindow = 30 * 24 * time.Hour

// Assignment records a user holding a position for a period. A nil EndDate
// marks a current holder. TermMonths is copied from the position when the
// assignment is loaded.
type Assignment struct {
	ID         string
	UserID     string
	UserName   string
	PositionID string
	Primary    bool       `form:"is_primary"`
	StartDate  time.Time  `form:"start_date" validate:"required"`
	EndDate    *time.Time `form:"end_date"`
	Notes      string     `form:"notes"`
	TermMonths int
}

// Current reports whether the assignment has not ended.
func (a Assignment) Current() bool { return a.EndDate == nil }

// ExpectedEnd returns the end date, or start plus the term for current holders.
func (a Assignment) ExpectedEnd() time.Time {
	if a.EndDate != nil {
		return *a.EndDate
	}
	months := a.TermMonths
	if months <= 0 {
		months = DefaultTermMonths
	}
	return AddMonths(a.StartDate, months)
}

// EndingSoon reports whether a current term ends within EndingSoonWindow of today.
func (a Assignment) EndingSoon(today time.Time) bool {
	return a.Current() && !a.ExpectedEnd().After(dateOnly(today).Add(EndingSoonWindow))
}

// Overdue reports whether a current term has passed its expected end.
func (a Assignment) Overdue(today time.Time) bool {
	return a.Current() && a.ExpectedEnd().Before(dateOnly(today))
}

// DaysUntilEnd returns whole days from today to the expected end, negative
// when overdue. It reports false for ended assignments.
func (a Assignment) DaysUntilEnd(today time.Time) (int, bool) {
	if !a.Current() {
		return 0, false
	}
	return int(dateOnly(a.ExpectedEnd()).Sub(dateOnly(today)).Hours() / 24), true
}

// AddMonths adds months to t, clamping the day to the target month's last day
// so Jan 31 + 1 month is Feb 28 (or 29).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Holding is a position with its assignments.
type Holding struct {
	Position    Position
	Assignments []Assignment
}

// Current returns the current assignments, primary holders first.
func (h Holding) Current() []Assignment {
	var out []Assignment
	for _, a := range h.Assignments {
		if a.Current() {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Primary && !out[j].Primary })
	return out
}

func (h Holding) primaryCount() int {
	n := 0
	for _, a := range h.Assignments {
		if a.Current() && a.Primary {
			n++
		}
	}
	return n
}

// Available reports whether the position still needs a primary holder. A
// secondary holder covering it does not fill it.
func (h Holding) Available() bool { return h.primaryCount() == 0 }

// Vacant reports whether nobody currently holds the position.
func (h Holding) Vacant() bool { return len(h.Current()) == 0 }

// MultiplePrimary reports whether more than one user claims the position as primary.
func (h Holding) MultiplePrimary() bool { return h.primaryCount() > 1 }

// Warn reports whether the multiple-holder warning should be shown.
func (h Holding) Warn() bool {
	return h.Position.WarnOnMultipleHolders && len(h.Current()) > 1
}

// Summary aggregates holdings for the dashboard.
type Summary struct {
	Positions int
	Available int
	Vacant    int
	Expiring  int
	Overdue   int
	// NextEnd is the soonest expected end among current terms.
	NextEnd *time.Time
}

// Summarize counts active positions and upcoming term ends as of today.
func Summarize(holdings []Holding, today time.Time) Summary {
	var s Summary
	for _, h := range holdings {
		if !h.Position.Active {
			continue
		}
		s.Positions++
		if h.Available() {
			s.Available++
		}
		if h.Vacant() {
			s.Vacant++
		}
		for _, a := range h.Current() {
			end := a.ExpectedEnd()
			if a.Overdue(today) {
				s.Overdue++
			} else if a.EndingSoon(today) {
				s.Expiring++
			}
			if !end.Before(dateOnly(today)) && (s.NextEnd == nil || end.Before(*s.NextEnd)) {
				next := end
				s.NextEnd = &next
			}
		}
	}
	return s
}
