package treasury

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/validate"
)

func day(month time.Month, d int) time.Time {
	return time.Date(2026, month, d, 0, 0, 0, 0, time.UTC)
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Cents
	}{
		{"12", 1200},
		{"12.5", 1250},
		{"$1,234.56", 123456},
		{".75", 75},
		{"-3.10", -310},
	}
	for _, tc := range tests {
		got, err := ParseAmount(tc.in)
		if err != nil {
			t.Fatalf("ParseAmount(%q) error = %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAmount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "1.234", "ten", "1.x"} {
		if _, err := ParseAmount(bad); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("ParseAmount(%q) error = %v, want ErrInvalidAmount", bad, err)
		}
	}
}

func TestCentsFormatting(t *testing.T) {
	t.Parallel()

	if got := Cents(123456).String(); got != "$1,234.56" {
		t.Fatalf("String() = %q, want %q", got, "$1,234.56")
	}
	if got := Cents(-5).String(); got != "-$0.05" {
		t.Fatalf("String() = %q, want %q", got, "-$0.05")
	}
	if got := Cents(100005).Decimal(); got != "1000.05" {
		t.Fatalf("Decimal() = %q, want %q", got, "1000.05")
	}
}

func TestSplitCalculateKeepsEveryCent(t *testing.T) {
	t.Parallel()

	thirds := Split{Items: []SplitItem{{"District", 3333}, {"Area", 3333}, {"GSO", 3334}}}
	tests := []struct {
		name  string
		split Split
		total Cents
		want  []Cents
	}{
		{name: "even", split: Split{Items: []SplitItem{{"A", 6000}, {"B", 4000}}}, total: 10000, want: []Cents{6000, 4000}},
		{name: "thirds of a dollar", split: thirds, total: 100, want: []Cents{33, 33, 34}},
		{name: "thirds of ten cents", split: thirds, total: 10, want: []Cents{3, 3, 4}},
		{name: "tie goes to the first item", split: Split{Items: []SplitItem{{"A", 5000}, {"B", 5000}}}, total: 1, want: []Cents{1, 0}},
		{name: "largest remainder wins", split: Split{Items: []SplitItem{{"A", 1000}, {"B", 9000}}}, total: 3, want: []Cents{0, 3}},
		{name: "negative", split: Split{Items: []SplitItem{{"A", 5000}, {"B", 5000}}}, total: -3, want: []Cents{-2, -1}},
	}
	for _, tc := range tests {
		parts := tc.split.Calculate(tc.total)
		var sum Cents
		for i, part := range parts {
			if part.Amount != tc.want[i] {
				t.Fatalf("%s: part[%d] = %d, want %d", tc.name, i, part.Amount, tc.want[i])
			}
			sum += part.Amount
		}
		if sum != tc.total {
			t.Fatalf("%s: parts sum = %d, want %d", tc.name, sum, tc.total)
		}
	}
}

func TestSplitValidate(t *testing.T) {
	t.Parallel()

	ok := Split{Name: "Seventh Tradition", Items: []SplitItem{{"District", 3000}, {"GSO", 7000}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	short := Split{Name: "Short", Items: []SplitItem{{"District", 3000}, {"GSO", 6000}}}
	errs, ok2 := validate.AsErrors(short.Validate())
	if !ok2 {
		t.Fatalf("Validate() = %v, want field errors", short.Validate())
	}
	fe, found := errs.Field("items")
	if !found || fe.Param != "90%" {
		t.Fatalf("items error = %+v, want shares_total 90%%", fe)
	}
	if err := (Split{Name: "Empty"}).Validate(); err == nil {
		t.Fatal("expected error for a split without items")
	}
}

func TestParseItemsRoundTrip(t *testing.T) {
	t.Parallel()

	items, err := ParseItems("District 12: 33.33\n\nArea: 33.3\nGeneral Service Office: 33.37%\n")
	if err != nil {
		t.Fatalf("ParseItems() error = %v", err)
	}
	want := []SplitItem{{"District 12", 3333}, {"Area", 3330}, {"General Service Office", 3337}}
	if len(items) != len(want) {
		t.Fatalf("items = %+v, want %+v", items, want)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("item[%d] = %+v, want %+v", i, items[i], want[i])
		}
	}
	if got := FormatItems(items); got != "District 12: 33.33\nArea: 33.3\nGeneral Service Office: 33.37" {
		t.Fatalf("FormatItems() = %q", got)
	}
	if _, err := ParseItems("no percent here"); err == nil {
		t.Fatal("expected error for a line without a percentage")
	}
}

func TestRecordValidateAndNormalize(t *testing.T) {
	t.Parallel()

	expense := Record{Date: day(3, 1), Type: Expense, Amount: 500}
	errs, ok := validate.AsErrors(expense.Validate())
	if !ok {
		t.Fatalf("Validate() = %v, want field errors", expense.Validate())
	}
	if _, found := errs.Field("description"); !found {
		t.Fatalf("errors = %v, want description", errs)
	}
	income := Record{Date: day(3, 1), Type: Income, Amount: 2000}.Normalize()
	if err := income.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if income.Description != DefaultIncomeDescription {
		t.Fatalf("Description = %q, want %q", income.Description, DefaultIncomeDescription)
	}
	if err := (Record{Date: day(3, 1), Type: Income, Amount: 0, Description: "x"}).Validate(); err == nil {
		t.Fatal("expected error for a zero amount")
	}
}

func TestSummarizeCountsParentsOnly(t *testing.T) {
	t.Parallel()

	split := Split{Items: []SplitItem{{"District", 5000}, {"GSO", 5000}}}
	parent := Record{ID: "e1", Date: day(3, 8), Type: Expense, Amount: 3001, Description: "Contributions"}
	records := append([]Record{
		{ID: "i1", Date: day(3, 1), Type: Income, Amount: 10000},
		parent,
	}, Children(parent, split)...)

	summary := Summarize(Settings{StartingBalance: 5000, PrudentReserve: 2500}, records)
	if summary.Income != 10000 || summary.Expenses != 3001 {
		t.Fatalf("totals = %+v, want income 10000 expenses 3001", summary.Totals)
	}
	if summary.Balance != 11999 || summary.Available != 9499 {
		t.Fatalf("balance = %d available = %d, want 11999 and 9499", summary.Balance, summary.Available)
	}
	children := Children(parent, split)
	if children[0].Description != "Contributions - District" || children[0].ParentID != "e1" {
		t.Fatalf("child = %+v", children[0])
	}
	if children[0].Amount+children[1].Amount != 3001 {
		t.Fatalf("children sum = %d, want 3001", children[0].Amount+children[1].Amount)
	}
}

func TestNextPeriodAndChecks(t *testing.T) {
	t.Parallel()

	today := day(3, 31)
	records := []Record{{Date: day(2, 14), Type: Income, Amount: 100}}
	start, end := NextPeriod(nil, records, today)
	if !start.Equal(day(2, 14)) || !end.Equal(today) {
		t.Fatalf("NextPeriod() = %v..%v, want first record..today", start, end)
	}
	start, _ = NextPeriod(nil, nil, today)
	if !start.Equal(today) {
		t.Fatalf("NextPeriod(empty) start = %v, want today", start)
	}

	reports := []Report{
		{ID: "r1", Start: day(2, 1), End: day(2, 28)},
		{ID: "r0", Start: day(1, 1), End: day(3, 15), Archived: true},
	}
	start, _ = NextPeriod(reports, records, today)
	if !start.Equal(day(3, 1)) {
		t.Fatalf("NextPeriod() start = %v, want day after the last open report", start)
	}

	if _, locked := LockingReport(reports, day(2, 10)); !locked {
		t.Fatal("expected Feb 10 to be locked by r1")
	}
	if _, locked := LockingReport(reports, day(3, 10)); locked {
		t.Fatal("archived reports must not lock their period")
	}
	if err := CheckPeriod(reports[:1], day(3, 1), day(3, 31), today); err != nil {
		t.Fatalf("CheckPeriod() error = %v", err)
	}
	for name, period := range map[string][2]time.Time{
		"reversed": {day(3, 10), day(3, 1)},
		"future":   {day(3, 1), day(4, 1)},
		"overlap":  {day(2, 20), day(3, 5)},
	} {
		if err := CheckPeriod(reports[:1], period[0], period[1], today); err == nil {
			t.Fatalf("CheckPeriod(%s) expected error", name)
		}
	}
}

func TestReportCSV(t *testing.T) {
	t.Parallel()

	records := []Record{
		{ID: "b", Date: day(3, 9), Type: Expense, Amount: 1500, Description: "Coffee, cups", Category: "Supplies"},
		{ID: "a", Date: day(3, 2), Type: Income, Amount: 4200, Description: DefaultIncomeDescription},
		{ID: "c", Date: day(3, 9), Type: Expense, Amount: 750, Description: "Coffee - half", ParentID: "b"},
		{ID: "d", Date: day(4, 2), Type: Income, Amount: 999, Description: "Later"},
	}
	report := NewReport(Settings{PrudentReserve: 1000}, records, day(3, 1), day(3, 31), day(3, 31))
	if report.Income != 4200 || report.Expenses != 1500 || report.EndingBalance != 3699 || report.Available != 2699 {
		t.Fatalf("report = %+v", report)
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	want := strings.Join([]string{
		"Date,Type,Description,Category,Amount,Notes",
		"2026-03-02,income,7th Tradition,,42.00,",
		`2026-03-09,expense,"Coffee, cups",Supplies,15.00,`,
		"",
		",,,Total Income:,42.00,",
		",,,Total Expenses:,15.00,",
		",,,Net:,27.00,",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Fatalf("csv =\n%s\nwant\n%s", got, want)
	}
}

func TestSummarizeYear(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Date: day(1, 5), Type: Expense, Amount: 300, Category: "Rent"},
		{Date: day(6, 5), Type: Expense, Amount: 300, Category: "Rent"},
		{Date: day(6, 6), Type: Expense, Amount: 200, Category: "Literature"},
		{Date: day(6, 6), Type: Expense, Amount: 100, Category: "Literature", ParentID: "x"},
		{Date: day(6, 7), Type: Income, Amount: 1000},
		{Date: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), Type: Expense, Amount: 5000, Category: "Rent"},
	}
	got := SummarizeYear(records, 2026)
	if got.Income != 1000 || got.Expenses != 800 {
		t.Fatalf("year totals = %+v", got.Totals)
	}
	if len(got.ByCategory) != 2 || got.ByCategory[0].Category != "Rent" || got.ByCategory[0].Total != 600 {
		t.Fatalf("by category = %+v", got.ByCategory)
	}
}
