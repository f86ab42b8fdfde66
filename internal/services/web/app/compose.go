// Package app composes web modules into the root HTTP handler.
package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	"github.com/go-chi/chi/v5"
)

// ComposeInput carries module groups and shared composition contracts.
type ComposeInput struct {
	// RequireAuth wraps every protected module; nil leaves them unguarded.
	RequireAuth      func(http.Handler) http.Handler
	PublicModules    []module.Module
	ProtectedModules []module.Module
	NotFound         http.Handler
}

// Compose builds a router from module groups. Each module is mounted at its
// prefix without the trailing slash, so "/app/readings" and
// "/app/readings/..." reach the same handler with paths relative to it.
func Compose(input ComposeInput) (chi.Router, error) {
	root := chi.NewRouter()
	if input.NotFound != nil {
		root.NotFound(input.NotFound.ServeHTTP)
	}
	seen := make(map[string]string)

	for _, feature := range input.PublicModules {
		if feature == nil {
			return nil, fmt.Errorf("public module is nil")
		}
		if err := mountPublicModule(root, feature, seen); err != nil {
			return nil, err
		}
	}

	wrap := input.RequireAuth
	for _, feature := range input.ProtectedModules {
		if feature == nil {
			return nil, fmt.Errorf("protected module is nil")
		}
		if err := mountProtectedModule(root, feature, seen, wrap); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func mountModule(root chi.Router, feature module.Module, mount module.Mount, prefix string, seen map[string]string, wrap func(http.Handler) http.Handler) error {
	if previous, ok := seen[prefix]; ok {
		return fmt.Errorf("module %q duplicates prefix %q owned by module %q", feature.ID(), prefix, previous)
	}
	seen[prefix] = feature.ID()

	handler := mount.Handler
	if wrap != nil {
		handler = wrap(handler)
	}
	root.Mount(strings.TrimSuffix(prefix, "/"), handler)
	return nil
}

func mountPublicModule(root chi.Router, feature module.Module, seen map[string]string) error {
	mount, prefix, err := resolveMount(feature)
	if err != nil {
		return err
	}
	if isProtectedPrefix(prefix) {
		return fmt.Errorf("module %q has protected prefix %q in public group", feature.ID(), prefix)
	}
	return mountModule(root, feature, mount, prefix, seen, nil)
}

func mountProtectedModule(root chi.Router, feature module.Module, seen map[string]string, wrap func(http.Handler) http.Handler) error {
	mount, prefix, err := resolveMount(feature)
	if err != nil {
		return err
	}
	if !isProtectedPrefix(prefix) || prefix == routepath.AppPrefix {
		return fmt.Errorf("module %q must mount under %s, got %q", feature.ID(), routepath.AppPrefix, prefix)
	}
	return mountModule(root, feature, mount, prefix, seen, wrap)
}

func isProtectedPrefix(prefix string) bool {
	return strings.HasPrefix(prefix, routepath.AppPrefix)
}

func resolveMount(feature module.Module) (module.Mount, string, error) {
	mount, err := feature.Mount()
	if err != nil {
		return module.Mount{}, "", fmt.Errorf("mount module %q: %w", feature.ID(), err)
	}
	prefix := mount.Prefix
	if err := validatePrefix(prefix); err != nil {
		return module.Mount{}, "", fmt.Errorf("mount module %q has invalid prefix %q: %w", feature.ID(), mount.Prefix, err)
	}
	if mount.Handler == nil {
		return module.Mount{}, "", fmt.Errorf("mount module %q: handler is required", feature.ID())
	}
	return mount, prefix, nil
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("prefix is required")
	}
	if strings.TrimSpace(prefix) != prefix {
		return fmt.Errorf("prefix must not include surrounding whitespace")
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("prefix must begin with /")
	}
	if !strings.HasSuffix(prefix, "/") {
		return fmt.Errorf("prefix must end with /")
	}
	if prefix == "/" {
		return fmt.Errorf("prefix must name a path segment")
	}
	return nil
}
