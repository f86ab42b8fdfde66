// Package module defines the feature contract used by web composition.
package module

import (
	"net/http"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/requestmeta"
	"github.com/sirupsen/logrus"
)

// Viewer contains user-facing chrome data for authenticated app pages.
type Viewer struct {
	DisplayName    string
	MeetingName    string
	Superuser      bool
	CanManageUsers bool
	Nav            []registry.NavEntry
}

// ResolveViewer resolves app chrome viewer state for a request.
type ResolveViewer func(*http.Request) Viewer

// Mount describes a module route mount.
type Mount struct {
	Prefix  string
	Handler http.Handler
}

// Module declares the minimum contract required by web composition.
type Module interface {
	ID() string
	Mount() (Mount, error)
}

// Runtime carries the request-scoped resolvers and shared services every web
// module receives.
type Runtime struct {
	ResolveViewer ResolveViewer
	SchemePolicy  requestmeta.SchemePolicy
	Logger        logrus.FieldLogger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Clock returns the configured clock.
func (rt Runtime) Clock() time.Time {
	if rt.Now == nil {
		return time.Now()
	}
	return rt.Now()
}

// Viewer resolves the chrome for r, tolerating a missing resolver.
func (rt Runtime) Viewer(r *http.Request) Viewer {
	if rt.ResolveViewer == nil {
		return Viewer{}
	}
	return rt.ResolveViewer(r)
}
