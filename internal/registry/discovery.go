package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Factory builds one module. Returning an error wrapping ErrSourceNotFound
// marks the module as not installed.
type Factory func() (Module, error)

// Catalog maps source names to the factories that build them.
type Catalog map[string]Factory

// Autodiscover builds and registers the modules named in sources, in order,
// using catalog. Unknown sources are skipped quietly; a failing source is
// logged and skipped without affecting the others. The scan runs at most once
// per registry; afterwards every registered module's ready hook runs once in
// registration order.
func (r *Registry) Autodiscover(ctx context.Context, sources []string, catalog Catalog) {
	r.discoverMu.Lock()
	defer r.discoverMu.Unlock()
	if r.discovered {
		return
	}
	r.discovered = true
	if ctx == nil {
		ctx = context.Background()
	}

	for _, source := range sources {
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}
		log := r.logger.WithField("source", source)

		factory, ok := catalog[source]
		if !ok || factory == nil {
			log.Debug("module source not found, skipping")
			continue
		}
		m, err := build(factory)
		if errors.Is(err, ErrSourceNotFound) {
			log.WithError(err).Debug("module source not installed, skipping")
			continue
		}
		if err != nil {
			log.WithError(err).Error("module source failed to load, skipping")
			continue
		}
		if err := r.register(m); err != nil {
			log.WithError(err).Error("module source produced an invalid declaration, skipping")
		}
	}

	for _, e := range r.snapshot() {
		hook, ok := e.module.(ReadyHook)
		if !ok {
			continue
		}
		if err := ready(ctx, hook); err != nil {
			r.logger.WithError(err).WithField("module", e.config.Name).Error("module ready hook failed")
		}
	}
}

// Discovered reports whether Autodiscover has run.
func (r *Registry) Discovered() bool {
	r.discoverMu.Lock()
	defer r.discoverMu.Unlock()
	return r.discovered
}

func build(factory Factory) (m Module, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			m, err = nil, fmt.Errorf("factory panic: %v", recovered)
		}
	}()
	m, err = factory()
	if err == nil && m == nil {
		err = fmt.Errorf("%w: factory returned no module", ErrInvalidModule)
	}
	return m, err
}

// register wraps Register so a declaration that panics counts as malformed.
func (r *Registry) register(m Module) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: declaration panic: %v", ErrInvalidModule, recovered)
		}
	}()
	return r.Register(m)
}

func ready(ctx context.Context, hook ReadyHook) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("ready hook panic: %v", recovered)
		}
	}()
	return hook.OnReady(ctx)
}
