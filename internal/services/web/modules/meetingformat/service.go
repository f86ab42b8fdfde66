package meetingformat

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/htmlsafe"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/id"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/validate"
	"github.com/computeralex/easier-softer-meeting-manager/internal/schedule"
	apperrors "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/errors"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formvalue"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
)

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

func invalid(err error) error {
	return apperrors.E(apperrors.KindInvalidInput, err.Error())
}

func (s service) createBlock(ctx context.Context, form url.Values) (schedule.Block, error) {
	b := schedule.Block{
		Title:  formvalue.String(form, "title"),
		Active: formvalue.Bool(form, "is_active"),
	}
	next, err := s.store.NextBlockOrder(ctx)
	if err != nil {
		return b, err
	}
	if b.Order, err = formvalue.Int(form, "order", next); err != nil {
		return b, invalid(err)
	}
	if err := validate.Struct(b); err != nil {
		return b, err
	}
	if b.ID, err = id.NewID(); err != nil {
		return b, err
	}
	return b, s.store.PutBlock(ctx, b)
}

func (s service) updateBlock(ctx context.Context, blockID string, form url.Values) (schedule.Block, error) {
	b, err := s.store.GetBlock(ctx, blockID)
	if err != nil {
		return b, err
	}
	b.Title = formvalue.String(form, "title")
	b.Active = formvalue.Bool(form, "is_active")
	if b.Order, err = formvalue.Int(form, "order", b.Order); err != nil {
		return b, invalid(err)
	}
	if err := validate.Struct(b); err != nil {
		return b, err
	}
	return b, s.store.PutBlock(ctx, b)
}

// moveBlock swaps the block with its neighbour and renumbers every block.
func (s service) moveBlock(ctx context.Context, blockID string, form url.Values) error {
	dir := schedule.Direction(formvalue.String(form, "direction"))
	if dir != schedule.Up && dir != schedule.Down {
		return validate.Errors{{Field: "direction", Tag: "oneof", Param: "up down"}}
	}
	blocks, err := s.store.ListBlocks(ctx)
	if err != nil {
		return fmt.Errorf("list blocks: %w", err)
	}
	orders, ok := schedule.Reorder(blocks, blockID, dir)
	if !ok {
		return storage.ErrNotFound
	}
	return s.store.SetBlockOrders(ctx, orders)
}

// variationFromForm overlays the submitted fields on base. Content is
// sanitized before it is stored.
func (s service) variationFromForm(ctx context.Context, base schedule.Variation, form url.Values, fallbackOrder int) (schedule.Variation, error) {
	v := base
	v.Content = htmlsafe.Sanitize(form.Get("content"))
	v.Active = formvalue.Bool(form, "is_active")
	v.Default = formvalue.Bool(form, "is_default")
	v.TypeID = formvalue.String(form, "type_id")
	var err error
	if v.Order, err = formvalue.Int(form, "order", fallbackOrder); err != nil {
		return v, invalid(err)
	}
	if v.TypeID != "" {
		if _, err := s.store.GetMeetingType(ctx, v.TypeID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return v, validate.Errors{{Field: "type_id", Tag: "exists"}}
			}
			return v, err
		}
	}
	if err := validate.Struct(v); err != nil {
		return v, err
	}
	return v, nil
}

func (s service) createVariation(ctx context.Context, blockID string, form url.Values) (schedule.Variation, error) {
	if _, err := s.store.GetBlock(ctx, blockID); err != nil {
		return schedule.Variation{}, err
	}
	next, err := s.store.NextVariationOrder(ctx, blockID)
	if err != nil {
		return schedule.Variation{}, err
	}
	v, err := s.variationFromForm(ctx, schedule.Variation{BlockID: blockID}, form, next)
	if err != nil {
		return v, err
	}
	if v.ID, err = id.NewID(); err != nil {
		return v, err
	}
	return s.store.SaveVariation(ctx, v)
}

func (s service) updateVariation(ctx context.Context, variationID string, form url.Values) (schedule.Variation, error) {
	existing, err := s.store.GetVariation(ctx, variationID)
	if err != nil {
		return existing, err
	}
	v, err := s.variationFromForm(ctx, existing, form, existing.Order)
	if err != nil {
		return v, err
	}
	return s.store.SaveVariation(ctx, v)
}

// ruleFromForm reads a schedule rule. Validation rejects fields missing for
// the chosen kind before anything is stored.
func ruleFromForm(variationID string, form url.Values) (schedule.Rule, error) {
	r := schedule.Rule{
		VariationID: variationID,
		Kind:        schedule.RuleKind(formvalue.String(form, "schedule_type")),
	}
	occurrence, err := formvalue.OptionalInt(form, "occurrence")
	if err != nil {
		return r, invalid(err)
	}
	r.Occurrence = occurrence
	weekday, err := formvalue.OptionalInt(form, "weekday")
	if err != nil {
		return r, invalid(err)
	}
	if weekday != nil {
		w := schedule.Weekday(*weekday)
		r.Weekday = &w
	}
	if r.Date, err = formvalue.Date(form, "specific_date"); err != nil {
		return r, invalid(err)
	}
	r = r.Normalized()
	if err := r.Validate(); err != nil {
		return r, err
	}
	return r, nil
}

func (s service) addRule(ctx context.Context, variationID string, form url.Values) (schedule.Rule, error) {
	if _, err := s.store.GetVariation(ctx, variationID); err != nil {
		return schedule.Rule{}, err
	}
	r, err := ruleFromForm(variationID, form)
	if err != nil {
		return r, err
	}
	if r.ID, err = id.NewID(); err != nil {
		return r, err
	}
	return r, s.store.AddRule(ctx, r)
}

func typeFromForm(base schedule.MeetingType, form url.Values) (schedule.MeetingType, error) {
	t := base
	t.Name = formvalue.String(form, "name")
	t.Active = formvalue.Bool(form, "is_active")
	var err error
	if t.Order, err = formvalue.Int(form, "order", base.Order); err != nil {
		return t, invalid(err)
	}
	if err := validate.Struct(t); err != nil {
		return t, err
	}
	return t, nil
}

func (s service) createType(ctx context.Context, form url.Values) (schedule.MeetingType, error) {
	t, err := typeFromForm(schedule.MeetingType{}, form)
	if err != nil {
		return t, err
	}
	if t.ID, err = id.NewID(); err != nil {
		return t, err
	}
	return t, mapConflict(s.store.PutMeetingType(ctx, t), t.Name)
}

func (s service) updateType(ctx context.Context, typeID string, form url.Values) (schedule.MeetingType, error) {
	existing, err := s.store.GetMeetingType(ctx, typeID)
	if err != nil {
		return existing, err
	}
	t, err := typeFromForm(existing, form)
	if err != nil {
		return t, err
	}
	return t, mapConflict(s.store.PutMeetingType(ctx, t), t.Name)
}

// selectType stores the meeting type chosen for tonight. A blank value clears it.
func (s service) selectType(ctx context.Context, form url.Values) (string, error) {
	typeID := formvalue.String(form, "type_id")
	name := ""
	if typeID != "" {
		t, err := s.store.GetMeetingType(ctx, typeID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return "", validate.Errors{{Field: "type_id", Tag: "exists"}}
			}
			return "", err
		}
		name = t.Name
	}
	cfg, err := s.store.GetFormatConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load format config: %w", err)
	}
	cfg.SelectedTypeID = typeID
	if err := s.store.PutFormatConfig(ctx, cfg); err != nil {
		return "", fmt.Errorf("save format config: %w", err)
	}
	return name, nil
}

func mapConflict(err error, name string) error {
	if errors.Is(err, storage.ErrAlreadyExists) {
		return apperrors.E(apperrors.KindConflict, fmt.Sprintf("A meeting type named %q already exists.", name))
	}
	return err
}
