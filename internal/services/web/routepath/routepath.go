// Package routepath stores canonical HTTP paths for web modules.
package routepath

import (
	"net/url"
	"strings"
)

const (
	Root            = "/"
	Login           = "/login"
	Logout          = "/logout"
	Health          = "/up"
	AppPrefix       = "/app/"
	AppDashboard    = "/app/dashboard"
	DashboardPrefix = "/app/dashboard/"
	AppSettings     = "/app/settings"
	SettingsPrefix  = "/app/settings/"
	AppUsers        = "/app/settings/users"
	PositionsPrefix = "/app/positions/"
	FormatPrefix    = "/app/format/"
	ReadingsPrefix  = "/app/readings/"
	TreasurerPrefix = "/app/treasurer/"
	PhoneListPrefix = "/app/phone-list/"
	PublicPrefix    = "/public/"
)

// SettingsSection returns the settings form target for one module section.
func SettingsSection(module, section string) string {
	return SettingsPrefix + escapeSegment(module) + "/" + escapeSegment(section)
}

// Position returns the edit route of one position.
func Position(positionID string) string {
	return PositionsPrefix + escapeSegment(positionID)
}

// Reading returns the staff view of one reading.
func Reading(readingID string) string {
	return ReadingsPrefix + escapeSegment(readingID)
}

// TreasurerReport returns the page of one business meeting report.
func TreasurerReport(reportID string) string {
	return TreasurerPrefix + "reports/" + escapeSegment(reportID)
}

// TreasurerSplit returns the edit route of one disbursement split.
func TreasurerSplit(splitID string) string {
	return TreasurerPrefix + "splits/" + escapeSegment(splitID)
}

// Contact returns the edit route of one phone list contact.
func Contact(contactID string) string {
	return PhoneListPrefix + escapeSegment(contactID)
}

// PublicPhoneList returns the shareable phone list.
func PublicPhoneList(token string) string {
	return PublicPrefix + "phone-list/" + escapeSegment(token)
}

// PublicFormat returns the shareable meeting format page.
func PublicFormat(token string) string {
	return PublicPrefix + "format/" + escapeSegment(token)
}

// PublicFormatPrint returns the printable variant of the shareable format page.
func PublicFormatPrint(token string) string {
	return PublicFormat(token) + "/print"
}

// PublicReadings returns the shareable readings index.
func PublicReadings(token string) string {
	return PublicPrefix + "readings/" + escapeSegment(token)
}

// PublicReading returns one shareable reading.
func PublicReading(token, slug string) string {
	return PublicReadings(token) + "/" + escapeSegment(slug)
}

func escapeSegment(value string) string {
	return url.PathEscape(strings.TrimSpace(value))
}
