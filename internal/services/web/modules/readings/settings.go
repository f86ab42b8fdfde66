package readings

import (
	"context"
	"fmt"
	"net/url"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/id"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formvalue"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
)

const settingsSection = "readings"

// SettingsSections declares the public sharing section.
func (m *Module) SettingsSections(context.Context, access.Principal) []registry.SettingsSection {
	return []registry.SettingsSection{{
		Name:        settingsSection,
		Title:       "Readings",
		Order:       35,
		Description: "Share the readings library with a public link.",
	}}
}

// SettingsContext returns the sharing state for the form.
func (m *Module) SettingsContext(ctx context.Context, _ access.Principal, section string) (map[string]any, error) {
	if section != settingsSection {
		return nil, registry.ErrSectionNotFound
	}
	cfg, err := m.svc.store.GetReadingsConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load readings config: %w", err)
	}
	publicURL := ""
	if cfg.PublicEnabled {
		publicURL = routepath.PublicReadings(cfg.ShareToken)
	}
	return map[string]any{"public_enabled": cfg.PublicEnabled, "public_url": publicURL}, nil
}

// HandleSettingsPost toggles sharing and optionally issues a new link.
func (m *Module) HandleSettingsPost(ctx context.Context, _ access.Principal, section string, form url.Values) (string, error) {
	if section != settingsSection {
		return "", registry.ErrSectionNotFound
	}
	cfg, err := m.svc.store.GetReadingsConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load readings config: %w", err)
	}
	cfg.PublicEnabled = formvalue.Bool(form, "public_enabled")
	msg := "Readings settings saved."
	if formvalue.Bool(form, "regenerate_token") {
		if cfg.ShareToken, err = id.NewToken(); err != nil {
			return "", err
		}
		msg = "Readings settings saved with a new public link."
	}
	if err := m.svc.store.PutReadingsConfig(ctx, cfg); err != nil {
		return "", fmt.Errorf("save readings config: %w", err)
	}
	return msg, nil
}
