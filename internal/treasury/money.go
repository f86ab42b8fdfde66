// Package treasury keeps the group's books: income and expense records,
// disbursement splits, balances and business meeting reports. Amounts are
// whole cents.
package treasury

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Cents is an amount of money in hundredths of a dollar.
type Cents int64

// ErrInvalidAmount is returned for amounts that cannot be parsed.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount reads a decimal dollar amount such as "12", "12.5" or
// "$1,234.56". More than two decimal places is an error.
func ParseAmount(value string) (Cents, error) {
	s := strings.TrimSpace(value)
	s = strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: %q has more than two decimal places", ErrInvalidAmount, value)
	}
	frac += strings.Repeat("0", 2-len(frac))
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	total := Cents(dollars*100 + cents)
	if negative {
		total = -total
	}
	return total, nil
}

// String formats c as "$1,234.56", with a leading minus when negative.
func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s$%s.%02d", sign, humanize.Comma(int64(c/100)), int64(c%100))
}

// Decimal formats c as a plain decimal for inputs and CSV cells.
func (c Cents) Decimal() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, int64(c/100), int64(c%100))
}
