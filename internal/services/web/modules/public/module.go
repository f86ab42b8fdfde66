// Package public serves the share-link pages: the meeting format, the
// readings library and the phone list, reachable without signing in.
package public

import (
	"context"
	"fmt"

	"github.com/computeralex/easier-softer-meeting-manager/internal/phonelist"
	"github.com/computeralex/easier-softer-meeting-manager/internal/readings"
	"github.com/computeralex/easier-softer-meeting-manager/internal/schedule"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Store is the read-only persistence behind the share pages.
type Store interface {
	GetMeetingConfig(ctx context.Context) (storage.MeetingConfig, error)
	GetFormatConfigByToken(ctx context.Context, token string) (storage.FormatConfig, error)
	ListBlocks(ctx context.Context) ([]schedule.Block, error)
	ListMeetingTypes(ctx context.Context) ([]schedule.MeetingType, error)
	GetReadingsConfig(ctx context.Context) (storage.ReadingsConfig, error)
	GetReadingsConfigByToken(ctx context.Context, token string) (storage.ReadingsConfig, error)
	ListReadings(ctx context.Context) ([]readings.Reading, error)
	GetReadingBySlug(ctx context.Context, slug string) (readings.Reading, error)
	GetPhoneListConfigByToken(ctx context.Context, token string) (storage.PhoneListConfig, error)
	ListContacts(ctx context.Context) ([]phonelist.Contact, error)
}

// Module serves /public/.
type Module struct {
	store Store
	rt    module.Runtime
}

// New returns the public module.
func New(store Store, rt module.Runtime) Module {
	return Module{store: store, rt: rt}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "public" }

// Mount wires the share-link routes.
func (m Module) Mount() (module.Mount, error) {
	if m.store == nil {
		return module.Mount{}, fmt.Errorf("public: store is required")
	}
	h := handlers{store: m.store, rt: m.rt}
	r := chi.NewRouter()
	r.Get("/format/{token}", h.handleFormat)
	r.Get("/format/{token}/print", h.handleFormatPrint)
	r.Get("/readings/{token}", h.handleReadings)
	r.Get("/readings/{token}/{slug}", h.handleReading)
	r.Get("/phone-list/{token}", h.handlePhoneList)
	r.NotFound(h.handleNotFound)
	return module.Mount{Prefix: routepath.PublicPrefix, Handler: r}, nil
}
