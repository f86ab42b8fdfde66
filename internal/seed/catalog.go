// Package seed bootstraps a fresh meeting database with the default service
// positions and an administrator account.
package seed

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/access"
	"github.com/computeralex/easier-softer-meeting-manager/internal/positions"
	"gopkg.in/yaml.v3"
)

//go:embed positions.yaml
var defaultCatalog string

// CatalogEntry is one position in a seed catalog.
type CatalogEntry struct {
	Name             string            `yaml:"name"`
	DisplayName      string            `yaml:"display_name"`
	Description      string            `yaml:"description"`
	Order            int               `yaml:"order"`
	TermMonths       int               `yaml:"term_months"`
	CanManageUsers   bool              `yaml:"can_manage_users"`
	ShowOnPublicSite bool              `yaml:"show_on_public_site"`
	Modules          map[string]string `yaml:"modules"`
}

// Position converts e to an active position without an ID.
func (e CatalogEntry) Position() positions.Position {
	perms := make(map[string]access.Level, len(e.Modules))
	for module, raw := range e.Modules {
		if level := access.ParseLevel(raw); level != access.LevelNone {
			perms[strings.TrimSpace(module)] = level
		}
	}
	name := strings.TrimSpace(e.Name)
	if name == "" {
		name = positions.Slugify(e.DisplayName)
	}
	return positions.Position{
		Name:                  name,
		DisplayName:           strings.TrimSpace(e.DisplayName),
		Description:           strings.TrimSpace(e.Description),
		Order:                 e.Order,
		Active:                true,
		TermMonths:            positions.Position{TermMonths: e.TermMonths}.Term(),
		CanManageUsers:        e.CanManageUsers,
		ModulePermissions:     perms,
		ShowOnPublicSite:      e.ShowOnPublicSite,
		WarnOnMultipleHolders: true,
	}
}

type catalogFile struct {
	Positions []CatalogEntry `yaml:"positions"`
}

// LoadCatalog decodes a YAML catalog. Every entry must yield a valid position
// and names must not repeat.
func LoadCatalog(r io.Reader) ([]CatalogEntry, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode positions catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(file.Positions))
	for i, entry := range file.Positions {
		p := entry.Position()
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d (%s): %w", i, p.Name, err)
		}
		if _, ok := seen[p.Name]; ok {
			return nil, fmt.Errorf("catalog entry %d: duplicate position %q", i, p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return file.Positions, nil
}

// DefaultCatalog returns the embedded positions catalog.
func DefaultCatalog() ([]CatalogEntry, error) {
	return LoadCatalog(strings.NewReader(defaultCatalog))
}
