// Package phonelist holds the group's member contacts, their time zones and
// the CSV exchange format used to import and export them.
package phonelist

import (
	"sort"
	"strings"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/validate"
)

// Contact is one member on the phone list. TimeZone is the code of a known
// zone; TimeZoneOther keeps a free-form value that matched none.
type Contact struct {
	ID                 string
	Name               string     `form:"name" validate:"required,max=100"`
	Phone              string     `form:"phone" validate:"max=20"`
	WhatsApp           bool       `form:"has_whatsapp"`
	Email              string     `form:"email" validate:"omitempty,email,max=254"`
	AvailableToSponsor bool       `form:"available_to_sponsor"`
	SobrietyDate       *time.Time `form:"sobriety_date"`
	TimeZone           string     `form:"time_zone" validate:"max=10"`
	TimeZoneOther      string     `form:"time_zone_other" validate:"max=50"`
	Notes              string     `form:"notes"`
	Active             bool       `form:"is_active"`
	Order              int        `form:"display_order" validate:"min=0"`
}

// Validate checks the declared field constraints.
func (c Contact) Validate() error {
	return validate.Struct(c)
}

// ZoneLabel is the time zone shown next to the contact.
func (c Contact) ZoneLabel() string {
	if c.TimeZone != "" {
		return c.TimeZone
	}
	return c.TimeZoneOther
}

// Sort orders contacts by display order then name.
func Sort(contacts []Contact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		if contacts[i].Order != contacts[j].Order {
			return contacts[i].Order < contacts[j].Order
		}
		return strings.ToLower(contacts[i].Name) < strings.ToLower(contacts[j].Name)
	})
}

// Active returns the active contacts, keeping their order.
func Active(contacts []Contact) []Contact {
	var out []Contact
	for _, c := range contacts {
		if c.Active {
			out = append(out, c)
		}
	}
	return out
}

// TimeZone is a zone offered on the contact form, such as "PST".
type TimeZone struct {
	Code        string
	DisplayName string
	Active      bool
	Order       int
}

// DefaultTimeZones seed a fresh phone list.
var DefaultTimeZones = []TimeZone{
	{Code: "EST", DisplayName: "Eastern", Active: true, Order: 1},
	{Code: "CST", DisplayName: "Central", Active: true, Order: 2},
	{Code: "MST", DisplayName: "Mountain", Active: true, Order: 3},
	{Code: "PST", DisplayName: "Pacific", Active: true, Order: 4},
}

// ParseTimeZones reads one "CODE Display name" zone per line, in order.
// A line starting with "#" is kept but inactive.
func ParseTimeZones(text string) []TimeZone {
	var out []TimeZone
	seen := map[string]bool{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		active := !strings.HasPrefix(line, "#")
		line = strings.TrimSpace(strings.TrimPrefix(line, "#"))
		if line == "" {
			continue
		}
		code, name, _ := strings.Cut(line, " ")
		code = strings.ToUpper(code)
		if seen[code] {
			continue
		}
		seen[code] = true
		name = strings.TrimSpace(name)
		if name == "" {
			name = code
		}
		out = append(out, TimeZone{Code: code, DisplayName: name, Active: active, Order: len(out) + 1})
	}
	return out
}

// FormatTimeZones is the inverse of ParseTimeZones.
func FormatTimeZones(zones []TimeZone) string {
	lines := make([]string, 0, len(zones))
	for _, z := range zones {
		line := z.Code + " " + z.DisplayName
		if !z.Active {
			line = "# " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
