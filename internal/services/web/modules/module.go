// Package modules composes the web module sets: the feature modules the
// registry discovers and the core modules every deployment serves.
package modules

import (
	"fmt"

	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/modules/dashboard"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/modules/meetingformat"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/modules/phonelist"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/modules/positions"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/modules/public"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/modules/readings"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/modules/settings"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/modules/treasurer"
)

// Store is the union of the persistence every module needs. The sqlite store
// satisfies it.
type Store interface {
	positions.Store
	readings.Store
	meetingformat.Store
	treasurer.Store
	phonelist.Store
	settings.Store
	public.Store
}

// Dependencies carries what module factories share.
type Dependencies struct {
	Store    Store
	Registry *registry.Registry
	Runtime  module.Runtime
}

// DefaultSources is the autodiscovery order used when none is configured.
var DefaultSources = []string{positions.Name, readings.Name, meetingformat.Name, treasurer.Name, phonelist.Name}

// Catalog maps discovery sources to the feature module factories.
func Catalog(deps Dependencies) registry.Catalog {
	return registry.Catalog{
		positions.Name: func() (registry.Module, error) {
			if err := deps.check(positions.Name); err != nil {
				return nil, err
			}
			return positions.New(deps.Store, deps.Registry, deps.Registry, deps.Runtime), nil
		},
		readings.Name: func() (registry.Module, error) {
			if err := deps.check(readings.Name); err != nil {
				return nil, err
			}
			return readings.New(deps.Store, deps.Registry, deps.Runtime), nil
		},
		meetingformat.Name: func() (registry.Module, error) {
			if err := deps.check(meetingformat.Name); err != nil {
				return nil, err
			}
			return meetingformat.New(deps.Store, deps.Registry, deps.Runtime), nil
		},
		treasurer.Name: func() (registry.Module, error) {
			if err := deps.check(treasurer.Name); err != nil {
				return nil, err
			}
			return treasurer.New(deps.Store, deps.Registry, deps.Runtime), nil
		},
		phonelist.Name: func() (registry.Module, error) {
			if err := deps.check(phonelist.Name); err != nil {
				return nil, err
			}
			return phonelist.New(deps.Store, deps.Registry, deps.Runtime), nil
		},
	}
}

func (d Dependencies) check(source string) error {
	if d.Store == nil || d.Registry == nil {
		return fmt.Errorf("%s: store and registry are required", source)
	}
	return nil
}

// DefaultPublicModules returns the modules served without signing in.
func DefaultPublicModules(deps Dependencies) []module.Module {
	return []module.Module{
		public.New(deps.Store, deps.Runtime),
	}
}

// DefaultProtectedModules returns the core authenticated modules followed by
// every enabled feature module of the registry that serves routes.
func DefaultProtectedModules(deps Dependencies) []module.Module {
	out := []module.Module{
		dashboard.New(deps.Registry, deps.Runtime),
		settings.New(deps.Registry, deps.Store, deps.Runtime),
	}
	if deps.Registry == nil {
		return out
	}
	for _, m := range deps.Registry.Enabled() {
		if feature, ok := m.(module.Module); ok {
			out = append(out, feature)
		}
	}
	return out
}
