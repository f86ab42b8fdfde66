// Package formvalue reads typed values out of submitted HTML forms.
package formvalue

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the value format of <input type="date">.
const DateLayout = "2006-01-02"

// String returns the trimmed value of name.
func String(form url.Values, name string) string {
	return strings.TrimSpace(form.Get(name))
}

// Bool reports whether a checkbox named name was checked.
func Bool(form url.Values, name string) bool {
	switch strings.ToLower(String(form, name)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// Int parses name as an integer, returning fallback when it is blank.
func Int(form url.Values, name string, fallback int) (int, error) {
	raw := String(form, name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", name)
	}
	return n, nil
}

// OptionalInt parses name as an integer, returning nil when it is blank.
func OptionalInt(form url.Values, name string) (*int, error) {
	if String(form, name) == "" {
		return nil, nil
	}
	n, err := Int(form, name, 0)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Date parses name as a calendar date in UTC, returning nil when it is blank.
func Date(form url.Values, name string) (*time.Time, error) {
	raw := String(form, name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a date (YYYY-MM-DD)", name)
	}
	return &t, nil
}
