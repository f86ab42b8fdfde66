package treasury

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/validate"
)

// FullShare is 100% in basis points.
const FullShare = 10000

// SplitItem is one destination of a split. Share is in basis points, so 25%
// is 2500 and 0.01% is 1.
type SplitItem struct {
	Name  string `form:"name" validate:"required,max=100"`
	Share int    `form:"share" validate:"min=1,max=10000"`
}

// Split divides an expense between destinations, for example the group's
// contributions to district, area and the general service office.
type Split struct {
	ID      string
	Name    string      `form:"name" validate:"required,max=100"`
	Default bool        `form:"is_default"`
	Items   []SplitItem `form:"items" validate:"required,min=1,dive"`
}

// Validate checks the fields and that the shares add up to 100%.
func (s Split) Validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	total := 0
	for _, item := range s.Items {
		total += item.Share
	}
	if total != FullShare {
		return validate.Errors{{Field: "items", Tag: "shares_total", Param: FormatShare(total)}}
	}
	return nil
}

// Part is the amount one split item receives.
type Part struct {
	Name   string
	Share  int
	Amount Cents
}

// Calculate divides total between the items. Each item gets its share rounded
// down to the cent, then the leftover cents go one at a time to the items
// with the largest remainders, earlier items first on ties. When the shares
// add up to 100% the parts always add up to total.
func (s Split) Calculate(total Cents) []Part {
	if len(s.Items) == 0 {
		return nil
	}
	negative := total < 0
	if negative {
		total = -total
	}
	parts := make([]Part, len(s.Items))
	remainders := make([]int64, len(s.Items))
	var sum Cents
	shares := 0
	for i, item := range s.Items {
		shares += item.Share
		exact := int64(total) * int64(item.Share)
		parts[i] = Part{Name: item.Name, Share: item.Share, Amount: Cents(exact / FullShare)}
		remainders[i] = exact % FullShare
		sum += parts[i].Amount
	}
	order := make([]int, len(parts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return remainders[order[a]] > remainders[order[b]] })
	target := Cents(int64(total) * int64(shares) / FullShare)
	for i := 0; sum < target; i = (i + 1) % len(order) {
		parts[order[i]].Amount++
		sum++
	}
	if negative {
		for i := range parts {
			parts[i].Amount = -parts[i].Amount
		}
	}
	return parts
}

// ParseShare reads a percentage such as "25" or "33.33" into basis points.
func ParseShare(value string) (int, error) {
	s := strings.TrimSuffix(strings.TrimSpace(value), "%")
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	if whole == "" || len(frac) > 2 {
		return 0, fmt.Errorf("invalid percentage %q", value)
	}
	frac += strings.Repeat("0", 2-len(frac))
	w, err := strconv.Atoi(whole)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q", value)
	}
	f, err := strconv.Atoi(frac)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("invalid percentage %q", value)
	}
	return w*100 + f, nil
}

// FormatShare renders basis points as a percentage without trailing zeros.
func FormatShare(share int) string {
	whole, frac := share/100, share%100
	switch {
	case frac == 0:
		return strconv.Itoa(whole) + "%"
	case frac%10 == 0:
		return fmt.Sprintf("%d.%d%%", whole, frac/10)
	default:
		return fmt.Sprintf("%d.%02d%%", whole, frac)
	}
}

// ParseItems reads one "Name: percent" item per line. Blank lines are skipped.
func ParseItems(text string) ([]SplitItem, error) {
	var items []SplitItem
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		i := strings.LastIndex(line, ":")
		if i < 0 {
			return nil, fmt.Errorf("line %d: want \"Name: percent\"", n+1)
		}
		share, err := ParseShare(line[i+1:])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		items = append(items, SplitItem{Name: strings.TrimSpace(line[:i]), Share: share})
	}
	return items, nil
}

// FormatItems is the inverse of ParseItems.
func FormatItems(items []SplitItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, item.Name+": "+strings.TrimSuffix(FormatShare(item.Share), "%"))
	}
	return strings.Join(lines, "\n")
}
