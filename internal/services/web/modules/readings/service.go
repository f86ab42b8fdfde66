package readings

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/id"
	domain "github.com/computeralex/easier-softer-meeting-manager/internal/readings"
	apperrors "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/errors"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formvalue"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
)

type service struct {
	store Store
}

func readingFromForm(base domain.Reading, form url.Values) (domain.Reading, error) {
	r := base
	r.Title = formvalue.String(form, "title")
	r.ShortName = formvalue.String(form, "short_name")
	r.Content = form.Get("content")
	r.Notes = formvalue.String(form, "notes")
	r.Copyright = formvalue.String(form, "copyright_notice")
	r.Active = formvalue.Bool(form, "is_active")
	if slug := strings.ToLower(formvalue.String(form, "slug")); slug != "" {
		r.Slug = slug
	}
	var err error
	if r.Order, err = formvalue.Int(form, "order", base.Order); err != nil {
		return r, apperrors.E(apperrors.KindInvalidInput, err.Error())
	}
	return r, nil
}

// save validates r, fills a unique slug when none was given and stores it.
// An explicit slug used by another reading is a conflict.
func (s service) save(ctx context.Context, r domain.Reading) (domain.Reading, error) {
	if err := r.Validate(); err != nil {
		return r, err
	}
	if r.Slug == "" {
		var lookupErr error
		r.Slug = domain.UniqueSlug(r.Title, func(candidate string) bool {
			taken, err := s.store.ReadingSlugTaken(ctx, candidate, r.ID)
			if err != nil && lookupErr == nil {
				lookupErr = err
			}
			return taken
		})
		if lookupErr != nil {
			return r, fmt.Errorf("check reading slug: %w", lookupErr)
		}
	} else {
		taken, err := s.store.ReadingSlugTaken(ctx, r.Slug, r.ID)
		if err != nil {
			return r, fmt.Errorf("check reading slug: %w", err)
		}
		if taken {
			return r, slugConflict(r.Slug)
		}
	}
	if r.ID == "" {
		var err error
		if r.ID, err = id.NewID(); err != nil {
			return r, err
		}
	}
	if err := s.store.PutReading(ctx, r); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return r, slugConflict(r.Slug)
		}
		return r, err
	}
	return r, nil
}

func (s service) create(ctx context.Context, form url.Values) (domain.Reading, error) {
	r, err := readingFromForm(domain.Reading{}, form)
	if err != nil {
		return r, err
	}
	return s.save(ctx, r)
}

func (s service) update(ctx context.Context, readingID string, form url.Values) (domain.Reading, error) {
	existing, err := s.store.GetReading(ctx, readingID)
	if err != nil {
		return existing, err
	}
	r, err := readingFromForm(existing, form)
	if err != nil {
		return r, err
	}
	return s.save(ctx, r)
}

func slugConflict(slug string) error {
	return apperrors.E(apperrors.KindConflict, fmt.Sprintf("Another reading already uses the slug %q.", slug))
}
