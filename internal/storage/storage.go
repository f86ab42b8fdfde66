package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/phonelist"
	"github.com/computeralex/easier-softer-meeting-manager/internal/positions"
	"github.com/computeralex/easier-softer-meeting-manager/internal/readings"
	"github.com/computeralex/easier-softer-meeting-manager/internal/schedule"
	"github.com/computeralex/easier-softer-meeting-manager/internal/treasury"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// User is an account that can sign in.
type User struct {
	ID           string
	Email        string `form:"email" validate:"required,email,max=254"`
	FirstName    string `form:"first_name" validate:"max=100"`
	LastName     string `form:"last_name" validate:"max=100"`
	PasswordHash string
	Superuser    bool
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns the full name, falling back to the email address.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Email
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// PositionStore persists service positions and their assignments.
type PositionStore interface {
	PutPosition(ctx context.Context, position positions.Position) error
	GetPosition(ctx context.Context, id string) (positions.Position, error)
	GetPositionByName(ctx context.Context, name string) (positions.Position, error)
	ListPositions(ctx context.Context) ([]positions.Position, error)
	// PositionNameTaken reports whether name is used by a position other than excludeID.
	PositionNameTaken(ctx context.Context, name, excludeID string) (bool, error)
	CreateAssignment(ctx context.Context, assignment positions.Assignment) error
	EndAssignment(ctx context.Context, id string, endDate time.Time) error
	// ListHoldings returns every position with all of its assignments.
	ListHoldings(ctx context.Context) ([]positions.Holding, error)
	// CurrentPositionsForUser returns the positions userID holds today.
	CurrentPositionsForUser(ctx context.Context, userID string) ([]positions.Position, error)
}

// Font sizes offered by the editor and public pages.
const (
	FontSmall   = "small"
	FontMedium  = "medium"
	FontLarge   = "large"
	FontXLarge  = "x-large"
	DefaultFont = FontMedium
)

// FontSizes lists the valid font sizes in display order.
var FontSizes = []string{FontSmall, FontMedium, FontLarge, FontXLarge}

// ValidFontSize reports whether size is one of FontSizes.
func ValidFontSize(size string) bool {
	for _, s := range FontSizes {
		if s == size {
			return true
		}
	}
	return false
}

// FormatConfig is the meeting format module configuration.
type FormatConfig struct {
	PublicEnabled   bool
	ShareToken      string
	EditorFontSize  string
	DisplayFontSize string
	// SelectedTypeID is the meeting type chosen for tonight; empty when none.
	SelectedTypeID string
	UpdatedAt      time.Time
}

// FormatStore persists blocks, variations, schedule rules, meeting types and
// the format configuration.
type FormatStore interface {
	// ListBlocks returns every block ordered by order, with variations and rules loaded.
	ListBlocks(ctx context.Context) ([]schedule.Block, error)
	GetBlock(ctx context.Context, id string) (schedule.Block, error)
	PutBlock(ctx context.Context, block schedule.Block) error
	DeleteBlock(ctx context.Context, id string) error
	SetBlockOrders(ctx context.Context, orders map[string]int) error
	// SaveVariation writes v and keeps exactly one default in its block.
	SaveVariation(ctx context.Context, v schedule.Variation) (schedule.Variation, error)
	GetVariation(ctx context.Context, id string) (schedule.Variation, error)
	DeleteVariation(ctx context.Context, id string) error
	AddRule(ctx context.Context, rule schedule.Rule) error
	DeleteRule(ctx context.Context, id string) error
	ListMeetingTypes(ctx context.Context) ([]schedule.MeetingType, error)
	GetMeetingType(ctx context.Context, id string) (schedule.MeetingType, error)
	PutMeetingType(ctx context.Context, t schedule.MeetingType) error
	DeleteMeetingType(ctx context.Context, id string) error
	// GetFormatConfig returns the configuration, creating it with a share token on first use.
	GetFormatConfig(ctx context.Context) (FormatConfig, error)
	PutFormatConfig(ctx context.Context, cfg FormatConfig) error
	GetFormatConfigByToken(ctx context.Context, token string) (FormatConfig, error)
}

// ReadingsConfig is the readings module configuration.
type ReadingsConfig struct {
	PublicEnabled bool
	ShareToken    string
	UpdatedAt     time.Time
}

// ReadingStore persists readings and the readings configuration.
type ReadingStore interface {
	ListReadings(ctx context.Context) ([]readings.Reading, error)
	GetReading(ctx context.Context, id string) (readings.Reading, error)
	GetReadingBySlug(ctx context.Context, slug string) (readings.Reading, error)
	PutReading(ctx context.Context, r readings.Reading) error
	DeleteReading(ctx context.Context, id string) error
	// ReadingSlugTaken reports whether slug is used by a reading other than excludeID.
	ReadingSlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	// GetReadingsConfig returns the configuration, creating it with a share token on first use.
	GetReadingsConfig(ctx context.Context) (ReadingsConfig, error)
	PutReadingsConfig(ctx context.Context, cfg ReadingsConfig) error
	GetReadingsConfigByToken(ctx context.Context, token string) (ReadingsConfig, error)
}

// TreasuryStore persists the books: settings, splits, records and reports.
type TreasuryStore interface {
	// GetTreasurySettings returns the settings, creating zeroed ones on first use.
	GetTreasurySettings(ctx context.Context) (treasury.Settings, error)
	PutTreasurySettings(ctx context.Context, settings treasury.Settings) error
	// ListSplits returns every split ordered by name, with items loaded.
	ListSplits(ctx context.Context) ([]treasury.Split, error)
	GetSplit(ctx context.Context, id string) (treasury.Split, error)
	// PutSplit writes split and its items. A default split clears the
	// previous default. Names are unique.
	PutSplit(ctx context.Context, split treasury.Split) error
	DeleteSplit(ctx context.Context, id string) error
	// AddRecords inserts records atomically, parents before their children.
	AddRecords(ctx context.Context, records []treasury.Record, createdBy string) error
	// ListRecords returns every record, newest first.
	ListRecords(ctx context.Context) ([]treasury.Record, error)
	GetRecord(ctx context.Context, id string) (treasury.Record, error)
	// DeleteRecord removes a record and its split children.
	DeleteRecord(ctx context.Context, id string) error
	// ListReports returns every report, latest period first.
	ListReports(ctx context.Context) ([]treasury.Report, error)
	GetReport(ctx context.Context, id string) (treasury.Report, error)
	CreateReport(ctx context.Context, report treasury.Report) error
	ArchiveReport(ctx context.Context, id string) error
}

// PhoneListConfig is the phone list module configuration. Sharing is off
// until enabled.
type PhoneListConfig struct {
	PublicEnabled bool
	ShareToken    string
	UpdatedAt     time.Time
}

// ImportResult counts what an import changed.
type ImportResult struct {
	Added   int
	Updated int
}

// PhoneListStore persists contacts, time zones and the phone list configuration.
type PhoneListStore interface {
	// ListContacts returns every contact ordered by display order then name.
	ListContacts(ctx context.Context) ([]phonelist.Contact, error)
	GetContact(ctx context.Context, id string) (phonelist.Contact, error)
	PutContact(ctx context.Context, c phonelist.Contact) error
	DeleteContact(ctx context.Context, id string) error
	// ImportContacts applies an import in one transaction. New contacts are
	// appended after the current last display order.
	ImportContacts(ctx context.Context, mode string, contacts []phonelist.Contact) (ImportResult, error)
	// ListTimeZones returns every zone in display order.
	ListTimeZones(ctx context.Context) ([]phonelist.TimeZone, error)
	// ReplaceTimeZones swaps the zone list for zones.
	ReplaceTimeZones(ctx context.Context, zones []phonelist.TimeZone) error
	// GetPhoneListConfig returns the configuration, creating it with a share token on first use.
	GetPhoneListConfig(ctx context.Context) (PhoneListConfig, error)
	PutPhoneListConfig(ctx context.Context, cfg PhoneListConfig) error
	GetPhoneListConfigByToken(ctx context.Context, token string) (PhoneListConfig, error)
}

// Defaults for a fresh meeting configuration.
const (
	DefaultMeetingName = "Easier Softer Group"
	DefaultTimezone    = "America/Los_Angeles"
)

// MeetingConfig is the singleton general configuration of the meeting.
type MeetingConfig struct {
	MeetingName string `form:"meeting_name" validate:"required,max=255"`
	Timezone    string `form:"timezone" validate:"required,max=50"`
	MeetingDay  string `form:"meeting_day" validate:"max=20"`
	MeetingTime string `form:"meeting_time" validate:"max=20"`
	Address     string `form:"address"`
	UpdatedAt   time.Time
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c MeetingConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone)); err == nil && c.Timezone != "" {
		return loc
	}
	return time.UTC
}

// Today returns the current calendar date in the meeting's timezone.
func (c MeetingConfig) Today(now time.Time) time.Time {
	return schedule.DateOf(now.In(c.Location()))
}

// MeetingStore persists the meeting configuration.
type MeetingStore interface {
	// GetMeetingConfig returns the configuration, or defaults when none is stored.
	GetMeetingConfig(ctx context.Context) (MeetingConfig, error)
	PutMeetingConfig(ctx context.Context, cfg MeetingConfig) error
}
