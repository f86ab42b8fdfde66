package meetingformat

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/id"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/validate"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formvalue"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
)

const settingsSection = "meeting_format"

// SettingsSections declares the sharing and font settings.
func (m *Module) SettingsSections(context.Context, access.Principal) []registry.SettingsSection {
	return []registry.SettingsSection{{
		Name:        settingsSection,
		Title:       "Meeting Format",
		Order:       40,
		Description: "Public sharing and font sizes of the format pages.",
	}}
}

// SettingsContext returns the current format configuration for the form.
func (m *Module) SettingsContext(ctx context.Context, _ access.Principal, section string) (map[string]any, error) {
	if section != settingsSection {
		return nil, registry.ErrSectionNotFound
	}
	cfg, err := m.svc.store.GetFormatConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load format config: %w", err)
	}
	publicURL := ""
	if cfg.PublicEnabled {
		publicURL = routepath.PublicFormat(cfg.ShareToken)
	}
	return map[string]any{
		"public_enabled":    cfg.PublicEnabled,
		"public_url":        publicURL,
		"editor_font_size":  cfg.EditorFontSize,
		"display_font_size": cfg.DisplayFontSize,
		"font_sizes":        storage.FontSizes,
	}, nil
}

// HandleSettingsPost saves the sharing and font settings. Checking
// regenerate_token issues a new share link and retires the old one.
func (m *Module) HandleSettingsPost(ctx context.Context, _ access.Principal, section string, form url.Values) (string, error) {
	if section != settingsSection {
		return "", registry.ErrSectionNotFound
	}
	cfg, err := m.svc.store.GetFormatConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("load format config: %w", err)
	}
	editor := formvalue.String(form, "editor_font_size")
	display := formvalue.String(form, "display_font_size")
	var fields validate.Errors
	for _, f := range [...]struct{ name, size string }{{"editor_font_size", editor}, {"display_font_size", display}} {
		if f.size != "" && !storage.ValidFontSize(f.size) {
			fields = append(fields, validate.FieldError{Field: f.name, Tag: "oneof", Param: strings.Join(storage.FontSizes, " ")})
		}
	}
	if len(fields) > 0 {
		return "", fields
	}

	cfg.PublicEnabled = formvalue.Bool(form, "public_enabled")
	if editor != "" {
		cfg.EditorFontSize = editor
	}
	if display != "" {
		cfg.DisplayFontSize = display
	}
	msg := "Meeting format settings saved."
	if formvalue.Bool(form, "regenerate_token") {
		if cfg.ShareToken, err = id.NewToken(); err != nil {
			return "", err
		}
		msg = "Meeting format settings saved with a new public link."
	}
	if err := m.svc.store.PutFormatConfig(ctx, cfg); err != nil {
		return "", fmt.Errorf("save format config: %w", err)
	}
	return msg, nil
}
