package phonelist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Import modes.
const (
	// ModeAdd appends every row as a new contact.
	ModeAdd = "add"
	// ModeUpdate updates contacts matched by name and adds the rest.
	ModeUpdate = "update"
	// ModeReplace deletes every contact before adding the rows.
	ModeReplace = "replace"
)

// ValidMode reports whether mode is one of the import modes.
func ValidMode(mode string) bool {
	switch mode {
	case ModeAdd, ModeUpdate, ModeReplace:
		return true
	}
	return false
}

// Field names a column can map to.
const (
	FieldName         = "name"
	FieldPhone        = "phone"
	FieldEmail        = "email"
	FieldWhatsApp     = "has_whatsapp"
	FieldSponsor      = "available_to_sponsor"
	FieldSobrietyDate = "sobriety_date"
	FieldTimeZone     = "time_zone"
	FieldNotes        = "notes"
)

var headerVariations = []struct {
	field string
	names []string
}{
	{FieldName, []string{"name", "full name", "fullname", "contact", "member"}},
	{FieldPhone, []string{"phone", "phone number", "mobile", "cell", "telephone", "tel"}},
	{FieldEmail, []string{"email", "e-mail", "email address"}},
	{FieldWhatsApp, []string{"whatsapp", "has whatsapp", "whats app"}},
	{FieldSponsor, []string{"sponsor", "available to sponsor", "sponsors", "can sponsor"}},
	{FieldSobrietyDate, []string{"sobriety date", "sobriety", "clean date", "sober date"}},
	{FieldTimeZone, []string{"timezone", "time zone", "tz", "zone"}},
	{FieldNotes, []string{"notes", "note", "comments", "comment"}},
}

// DetectMapping maps fields to column indexes by matching common header
// names, ignoring case and surrounding space.
func DetectMapping(headers []string) map[string]int {
	index := map[string]int{}
	for i, h := range headers {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	mapping := map[string]int{}
	for _, v := range headerVariations {
		for _, name := range v.names {
			if i, ok := index[name]; ok {
				mapping[v.field] = i
				break
			}
		}
	}
	return mapping
}

// ErrNoNameColumn is returned when no header maps to the name field.
var ErrNoNameColumn = errors.New("no name column found")

// Parsed is the result of reading an import file.
type Parsed struct {
	Contacts []Contact
	// Errors lists rejected rows as "Row N: reason", N counting data rows from 1.
	Errors []string
}

var sobrietyLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "1/2/06", "Jan 2, 2006", "January 2, 2006", "2006/01/02"}

// ParseCSV reads contacts from a CSV file with a header row. Unknown time
// zone values are kept in TimeZoneOther and unreadable sobriety dates are
// dropped. Rows without a name are reported and skipped.
func ParseCSV(r io.Reader, zones []TimeZone) (Parsed, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	headers, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Parsed{}, ErrNoNameColumn
		}
		return Parsed{}, fmt.Errorf("read csv header: %w", err)
	}
	mapping := DetectMapping(headers)
	if _, ok := mapping[FieldName]; !ok {
		return Parsed{}, ErrNoNameColumn
	}
	known := map[string]string{}
	for _, z := range zones {
		if z.Active {
			known[strings.ToUpper(z.Code)] = z.Code
		}
	}

	var out Parsed
	for row := 1; ; row++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("read csv row %d: %w", row, err)
		}
		cell := func(field string) string {
			i, ok := mapping[field]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		c := Contact{
			Name:               cell(FieldName),
			Phone:              cell(FieldPhone),
			Email:              cell(FieldEmail),
			Notes:              cell(FieldNotes),
			WhatsApp:           truthy(cell(FieldWhatsApp)),
			AvailableToSponsor: truthy(cell(FieldSponsor)),
			Active:             true,
		}
		if c.Name == "" {
			out.Errors = append(out.Errors, fmt.Sprintf("Row %d: Name is required", row))
			continue
		}
		if d, ok := parseSobriety(cell(FieldSobrietyDate)); ok {
			c.SobrietyDate = &d
		}
		if tz := cell(FieldTimeZone); tz != "" {
			if code, ok := known[strings.ToUpper(tz)]; ok {
				c.TimeZone = code
			} else {
				c.TimeZoneOther = tz
			}
		}
		if err := c.Validate(); err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("Row %d: %v", row, err))
			continue
		}
		out.Contacts = append(out.Contacts, c)
	}
	return out, nil
}

func truthy(value string) bool {
	switch strings.ToLower(value) {
	case "yes", "true", "1", "y", "x":
		return true
	}
	return false
}

func parseSobriety(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range sobrietyLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExportHeader is the first row of an export.
var ExportHeader = []string{"Name", "Phone", "WhatsApp", "Email", "Available to Sponsor", "Sobriety Date", "Time Zone", "Notes"}

// WriteCSV writes contacts in the export format, which ParseCSV reads back.
func WriteCSV(w io.Writer, contacts []Contact) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for _, c := range contacts {
		sobriety := ""
		if c.SobrietyDate != nil {
			sobriety = c.SobrietyDate.Format("2006-01-02")
		}
		if err := cw.Write([]string{
			c.Name, c.Phone, yesNo(c.WhatsApp), c.Email, yesNo(c.AvailableToSponsor), sobriety, c.ZoneLabel(), c.Notes,
		}); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
