package treasurer

import (
	"context"
	"fmt"
	"net/url"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
)

const settingsSection = "treasurer"

// SettingsSections declares the opening balance section.
func (m *Module) SettingsSections(context.Context, access.Principal) []registry.SettingsSection {
	return []registry.SettingsSection{{
		Name:        settingsSection,
		Title:       "Treasury",
		Order:       40,
		Description: "Starting balance and prudent reserve.",
	}}
}

// SettingsContext returns the amounts as form values.
func (m *Module) SettingsContext(ctx context.Context, _ access.Principal, section string) (map[string]any, error) {
	if section != settingsSection {
		return nil, registry.ErrSectionNotFound
	}
	settings, err := m.svc.store.GetTreasurySettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load treasury settings: %w", err)
	}
	return map[string]any{
		"starting_balance": settings.StartingBalance.Decimal(),
		"prudent_reserve":  settings.PrudentReserve.Decimal(),
		"configured":       settings.Configured,
	}, nil
}

// HandleSettingsPost stores the amounts and marks the books as set up.
func (m *Module) HandleSettingsPost(ctx context.Context, _ access.Principal, section string, form url.Values) (string, error) {
	if section != settingsSection {
		return "", registry.ErrSectionNotFound
	}
	if err := m.svc.saveSettings(ctx, form); err != nil {
		return "", err
	}
	return "Treasury settings saved.", nil
}
