package treasury

import (
	"sort"
	"strings"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/validate"
)

// Record types.
const (
	Income  = "income"
	Expense = "expense"
)

// DefaultIncomeDescription names income recorded without a description.
const DefaultIncomeDescription = "7th Tradition"

// Record is one transaction. Expenses paid through a split are stored as a
// parent carrying the full amount plus one child per split item; balances
// and totals only count parents.
type Record struct {
	ID          string
	Date        time.Time `form:"date" validate:"required"`
	Type        string    `form:"type" validate:"oneof=income expense"`
	Amount      Cents     `form:"amount" validate:"gt=0"`
	Description string    `form:"description" validate:"required_if=Type expense,max=255"`
	Category    string    `form:"category" validate:"max=100"`
	Notes       string    `form:"notes"`
	ParentID    string
	SplitName   string
}

// Validate checks the declared field constraints.
func (r Record) Validate() error {
	return validate.Struct(r)
}

// Normalize fills the income description default.
func (r Record) Normalize() Record {
	r.Description = strings.TrimSpace(r.Description)
	r.Category = strings.TrimSpace(r.Category)
	if r.Type == Income && r.Description == "" {
		r.Description = r.Category
		if r.Description == "" {
			r.Description = DefaultIncomeDescription
		}
	}
	return r
}

// Children builds the split records of an expense parent. Descriptions read
// "Parent - Item".
func Children(parent Record, split Split) []Record {
	parts := split.Calculate(parent.Amount)
	out := make([]Record, 0, len(parts))
	for _, part := range parts {
		out = append(out, Record{
			Date:        parent.Date,
			Type:        Expense,
			Amount:      part.Amount,
			Description: parent.Description + " - " + part.Name,
			Category:    parent.Category,
			Notes:       parent.Notes,
			ParentID:    parent.ID,
			SplitName:   part.Name,
		})
	}
	return out
}

// Settings are the treasurer's opening figures.
type Settings struct {
	StartingBalance Cents
	PrudentReserve  Cents
	Configured      bool
	UpdatedAt       time.Time
}

// Totals are the income and expenses over some records.
type Totals struct {
	Income   Cents
	Expenses Cents
}

// Net is income minus expenses.
func (t Totals) Net() Cents { return t.Income - t.Expenses }

// Sum totals the parent records dated within [start, end]. Zero bounds are
// open.
func Sum(records []Record, start, end time.Time) Totals {
	var t Totals
	for _, r := range records {
		if r.ParentID != "" {
			continue
		}
		if !start.IsZero() && r.Date.Before(start) {
			continue
		}
		if !end.IsZero() && r.Date.After(end) {
			continue
		}
		switch r.Type {
		case Income:
			t.Income += r.Amount
		case Expense:
			t.Expenses += r.Amount
		}
	}
	return t
}

// Summary is the treasurer's dashboard figure set.
type Summary struct {
	Totals
	StartingBalance Cents
	PrudentReserve  Cents
	Balance         Cents
	Available       Cents
	Configured      bool
}

// Summarize computes the current balance, starting balance plus income
// minus expenses, and what is available above the prudent reserve.
func Summarize(settings Settings, records []Record) Summary {
	totals := Sum(records, time.Time{}, time.Time{})
	balance := settings.StartingBalance + totals.Net()
	return Summary{
		Totals:          totals,
		StartingBalance: settings.StartingBalance,
		PrudentReserve:  settings.PrudentReserve,
		Balance:         balance,
		Available:       balance - settings.PrudentReserve,
		Configured:      settings.Configured,
	}
}

// CategoryTotal is the expense total of one category.
type CategoryTotal struct {
	Category string
	Total    Cents
}

// YearSummary is the annual figure set reported to the group.
type YearSummary struct {
	Year int
	Totals
	ByCategory []CategoryTotal
}

// SummarizeYear totals the parent records of year and breaks expenses down by
// category, largest first. Uncategorized expenses are grouped under "".
func SummarizeYear(records []Record, year int) YearSummary {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	out := YearSummary{Year: year, Totals: Sum(records, start, end)}
	byCategory := map[string]Cents{}
	for _, r := range records {
		if r.ParentID != "" || r.Type != Expense || r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		byCategory[r.Category] += r.Amount
	}
	for category, total := range byCategory {
		out.ByCategory = append(out.ByCategory, CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(out.ByCategory, func(i, j int) bool {
		if out.ByCategory[i].Total != out.ByCategory[j].Total {
			return out.ByCategory[i].Total > out.ByCategory[j].Total
		}
		return out.ByCategory[i].Category < out.ByCategory[j].Category
	})
	return out
}
