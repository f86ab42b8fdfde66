package phonelist

import (
	"context"
	"fmt"
	"net/url"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	domain "github.com/computeralex/easier-softer-meeting-manager/internal/phonelist"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/id"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	apperrors "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/errors"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formvalue"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
)

const settingsSection = "phone_list"

// SettingsSections declares the sharing and time zone section.
func (m *Module) SettingsSections(context.Context, access.Principal) []registry.SettingsSection {
	return []registry.SettingsSection{{
		Name:        settingsSection,
		Title:       "Phone List",
		Order:       45,
		Description: "Private sharing link and the time zones offered for contacts.",
	}}
}

// SettingsContext returns the sharing state and the zone list as text.
func (m *Module) SettingsContext(ctx context.Context, _ access.Principal, section string) (map[string]any, error) {
	if section != settingsSection {
		return nil, registry.ErrSectionNotFound
	}
	cfg, err := m.svc.store.GetPhoneListConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load phone list config: %w", err)
	}
	zones, err := m.svc.store.ListTimeZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("list time zones: %w", err)
	}
	publicURL := ""
	if cfg.PublicEnabled {
		publicURL = routepath.PublicPhoneList(cfg.ShareToken)
	}
	return map[string]any{
		"public_enabled": cfg.PublicEnabled,
		"public_url":     publicURL,
		"time_zones":     domain.FormatTimeZones(zones),
	}, nil
}

// HandleSettingsPost saves sharing, optionally issues a new link, and
// replaces the time zone list.
func (m *Module) HandleSettingsPost(ctx context.Context, _ access.Principal, section string, form url.Values) (string, error) {
	if section != settingsSection {
		return "", registry.ErrSectionNotFound
	}
	zones := domain.ParseTimeZones(form.Get("time_zones"))
	if len(zones) == 0 {
		return "", apperrors.E(apperrors.KindInvalidInput, "Keep at least one time zone.")
	}
	cfg, err := m.svc.store.GetPhoneListConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load phone list config: %w", err)
	}
	cfg.PublicEnabled = formvalue.Bool(form, "public_enabled")
	msg := "Phone list settings saved."
	if formvalue.Bool(form, "regenerate_token") {
		if cfg.ShareToken, err = id.NewToken(); err != nil {
			return "", err
		}
		msg = "Phone list settings saved with a new link."
	}
	if err := m.svc.store.PutPhoneListConfig(ctx, cfg); err != nil {
		return "", fmt.Errorf("save phone list config: %w", err)
	}
	if err := m.svc.store.ReplaceTimeZones(ctx, zones); err != nil {
		return "", fmt.Errorf("save time zones: %w", err)
	}
	return msg, nil
}
