package positions

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/id"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/validate"
	domain "github.com/computeralex/easier-softer-meeting-manager/internal/positions"
	apperrors "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/errors"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formvalue"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
)

// permissionField prefixes the per-module level selects of the position form.
const permissionField = "perm_"

type service struct {
	store Store
	now   func() time.Time
}

// today is the current date in the meeting's timezone.
func (s service) today(ctx context.Context) (time.Time, error) {
	cfg, err := s.store.GetMeetingConfig(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("load meeting config: %w", err)
	}
	return cfg.Today(s.now()), nil
}

func (s service) holdings(ctx context.Context) ([]domain.Holding, time.Time, error) {
	today, err := s.today(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	holdings, err := s.store.ListHoldings(ctx)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("list holdings: %w", err)
	}
	return holdings, today, nil
}

func (s service) holding(ctx context.Context, positionID string) (domain.Holding, time.Time, error) {
	holdings, today, err := s.holdings(ctx)
	if err != nil {
		return domain.Holding{}, time.Time{}, err
	}
	for _, h := range holdings {
		if h.Position.ID == positionID {
			return h, today, nil
		}
	}
	return domain.Holding{}, time.Time{}, apperrors.E(apperrors.KindNotFound, "position not found")
}

// positionFromForm overlays the submitted fields on base. The slug name is
// only read for new positions.
func positionFromForm(base domain.Position, form url.Values, modules []string) (domain.Position, error) {
	p := base
	p.DisplayName = formvalue.String(form, "display_name")
	p.Description = formvalue.String(form, "description")
	p.Active = formvalue.Bool(form, "is_active")
	p.CanManageUsers = formvalue.Bool(form, "can_manage_users")
	p.ShowOnPublicSite = formvalue.Bool(form, "show_on_public_site")
	p.WarnOnMultipleHolders = formvalue.Bool(form, "warn_on_multiple_holders")
	if p.ID == "" {
		p.Name = strings.ToLower(formvalue.String(form, "name"))
	}

	var err error
	if p.Order, err = formvalue.Int(form, "order", base.Order); err != nil {
		return p, apperrors.E(apperrors.KindInvalidInput, err.Error())
	}
	if p.TermMonths, err = formvalue.Int(form, "term_months", domain.DefaultTermMonths); err != nil {
		return p, apperrors.E(apperrors.KindInvalidInput, err.Error())
	}

	perms := make(map[string]access.Level, len(modules))
	for _, name := range modules {
		if level := access.ParseLevel(formvalue.String(form, permissionField+name)); level > access.LevelNone {
			perms[name] = level
		}
	}
	p.ModulePermissions = perms
	return p, nil
}

func (s service) createPosition(ctx context.Context, form url.Values, modules []string) (domain.Position, error) {
	p, err := positionFromForm(domain.Position{}, form, modules)
	if err != nil {
		return p, err
	}
	if p.Name == "" {
		var lookupErr error
		p.Name = domain.UniqueSlug(p.DisplayName, func(candidate string) bool {
			taken, err := s.store.PositionNameTaken(ctx, candidate, "")
			if err != nil && lookupErr == nil {
				lookupErr = err
			}
			return taken
		})
		if lookupErr != nil {
			return p, fmt.Errorf("check position name: %w", lookupErr)
		}
	} else {
		taken, err := s.store.PositionNameTaken(ctx, p.Name, "")
		if err != nil {
			return p, fmt.Errorf("check position name: %w", err)
		}
		if taken {
			return p, apperrors.E(apperrors.KindConflict, fmt.Sprintf("A position named %q already exists.", p.Name))
		}
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	if p.ID, err = id.NewID(); err != nil {
		return p, err
	}
	if err := s.store.PutPosition(ctx, p); err != nil {
		return p, mapConflict(err, "A position with that name already exists.")
	}
	return p, nil
}

func (s service) updatePosition(ctx context.Context, positionID string, form url.Values, modules []string) (domain.Position, error) {
	existing, err := s.store.GetPosition(ctx, positionID)
	if err != nil {
		return domain.Position{}, err
	}
	p, err := positionFromForm(existing, form, modules)
	if err != nil {
		return p, err
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	if err := s.store.PutPosition(ctx, p); err != nil {
		return p, mapConflict(err, "A position with that name already exists.")
	}
	return p, nil
}

func (s service) assign(ctx context.Context, positionID string, form url.Values) (domain.Assignment, error) {
	if _, err := s.store.GetPosition(ctx, positionID); err != nil {
		return domain.Assignment{}, err
	}
	a := domain.Assignment{
		PositionID: positionID,
		UserID:     formvalue.String(form, "user_id"),
		Primary:    formvalue.Bool(form, "is_primary"),
		Notes:      formvalue.String(form, "notes"),
	}
	if a.UserID == "" {
		return a, validate.Errors{{Field: "user_id", Tag: "required"}}
	}
	start, err := formvalue.Date(form, "start_date")
	if err != nil {
		return a, apperrors.E(apperrors.KindInvalidInput, err.Error())
	}
	if start == nil {
		today, err := s.today(ctx)
		if err != nil {
			return a, err
		}
		start = &today
	}
	a.StartDate = *start
	if err := validate.Struct(a); err != nil {
		return a, err
	}
	if a.ID, err = id.NewID(); err != nil {
		return a, err
	}
	if err := s.store.CreateAssignment(ctx, a); err != nil {
		return a, err
	}
	return a, nil
}

func (s service) endAssignment(ctx context.Context, assignmentID string, form url.Values) error {
	end, err := formvalue.Date(form, "end_date")
	if err != nil {
		return apperrors.E(apperrors.KindInvalidInput, err.Error())
	}
	if end == nil {
		today, err := s.today(ctx)
		if err != nil {
			return err
		}
		end = &today
	}
	return s.store.EndAssignment(ctx, assignmentID, *end)
}

func mapConflict(err error, message string) error {
	if errors.Is(err, storage.ErrAlreadyExists) {
		return apperrors.E(apperrors.KindConflict, message)
	}
	return err
}
