package phonelist

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	domain "github.com/computeralex/easier-softer-meeting-manager/internal/phonelist"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/id"
	apperrors "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/errors"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formvalue"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
)

type service struct {
	store Store
}

func contactFromForm(base domain.Contact, form url.Values) (domain.Contact, error) {
	c := base
	c.Name = formvalue.String(form, "name")
	c.Phone = formvalue.String(form, "phone")
	c.WhatsApp = formvalue.Bool(form, "has_whatsapp")
	c.Email = formvalue.String(form, "email")
	c.AvailableToSponsor = formvalue.Bool(form, "available_to_sponsor")
	c.TimeZone = strings.ToUpper(formvalue.String(form, "time_zone"))
	c.TimeZoneOther = formvalue.String(form, "time_zone_other")
	c.Notes = formvalue.String(form, "notes")
	c.Active = formvalue.Bool(form, "is_active")
	var err error
	if c.SobrietyDate, err = formvalue.Date(form, "sobriety_date"); err != nil {
		return c, apperrors.E(apperrors.KindInvalidInput, err.Error())
	}
	if c.Order, err = formvalue.Int(form, "display_order", base.Order); err != nil {
		return c, apperrors.E(apperrors.KindInvalidInput, err.Error())
	}
	return c, nil
}

// save validates c against the known time zones and stores it. New contacts
// go to the end of the list unless given an order.
func (s service) save(ctx context.Context, c domain.Contact, form url.Values) (domain.Contact, error) {
	if err := c.Validate(); err != nil {
		return c, err
	}
	if c.TimeZone != "" {
		zones, err := s.store.ListTimeZones(ctx)
		if err != nil {
			return c, fmt.Errorf("list time zones: %w", err)
		}
		if !knownZone(zones, c.TimeZone) {
			return c, apperrors.E(apperrors.KindInvalidInput, fmt.Sprintf("Unknown time zone %q.", c.TimeZone))
		}
		c.TimeZoneOther = ""
	}
	if c.ID == "" {
		if formvalue.String(form, "display_order") == "" {
			all, err := s.store.ListContacts(ctx)
			if err != nil {
				return c, fmt.Errorf("list contacts: %w", err)
			}
			for _, other := range all {
				if other.Order >= c.Order {
					c.Order = other.Order + 1
				}
			}
		}
		var err error
		if c.ID, err = id.NewID(); err != nil {
			return c, err
		}
	}
	if err := s.store.PutContact(ctx, c); err != nil {
		return c, fmt.Errorf("save contact: %w", err)
	}
	return c, nil
}

func knownZone(zones []domain.TimeZone, code string) bool {
	for _, z := range zones {
		if strings.EqualFold(z.Code, code) {
			return true
		}
	}
	return false
}

func (s service) create(ctx context.Context, form url.Values) (domain.Contact, error) {
	c, err := contactFromForm(domain.Contact{}, form)
	if err != nil {
		return c, err
	}
	return s.save(ctx, c, form)
}

func (s service) update(ctx context.Context, contactID string, form url.Values) (domain.Contact, error) {
	existing, err := s.store.GetContact(ctx, contactID)
	if err != nil {
		return existing, err
	}
	c, err := contactFromForm(existing, form)
	if err != nil {
		return c, err
	}
	return s.save(ctx, c, form)
}

// importResult is an applied import plus the rows it skipped.
type importResult struct {
	storage.ImportResult
	Skipped []string
}

// importCSV reads contacts from src and applies them in mode.
func (s service) importCSV(ctx context.Context, mode string, src io.Reader) (importResult, error) {
	if !domain.ValidMode(mode) {
		return importResult{}, apperrors.E(apperrors.KindInvalidInput, fmt.Sprintf("Unknown import mode %q.", mode))
	}
	zones, err := s.store.ListTimeZones(ctx)
	if err != nil {
		return importResult{}, fmt.Errorf("list time zones: %w", err)
	}
	parsed, err := domain.ParseCSV(src, zones)
	if err != nil {
		if errors.Is(err, domain.ErrNoNameColumn) {
			return importResult{}, apperrors.E(apperrors.KindInvalidInput, "The file needs a Name column.")
		}
		return importResult{}, apperrors.E(apperrors.KindInvalidInput, "The file is not valid CSV: "+err.Error())
	}
	if len(parsed.Contacts) == 0 {
		return importResult{Skipped: parsed.Errors}, apperrors.E(apperrors.KindInvalidInput, "The file has no contacts to import.")
	}
	result, err := s.store.ImportContacts(ctx, mode, parsed.Contacts)
	if err != nil {
		return importResult{}, fmt.Errorf("import contacts: %w", err)
	}
	return importResult{ImportResult: result, Skipped: parsed.Errors}, nil
}
