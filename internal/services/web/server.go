package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/branding"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/logging"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/timeouts"
	"github.com/computeralex/easier-softer-meeting-manager/internal/registry"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/app"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/auth"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/module"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/modules"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/httpx"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/requestmeta"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/webctx"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/weberror"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/justinas/nosurf"
	"github.com/sirupsen/logrus"
)

// Store is everything the web service reads and writes.
type Store interface {
	modules.Store
	auth.Store
	Ping(ctx context.Context) error
}

// Config defines the inputs for the web server.
type Config struct {
	HTTPAddr string
	Store    Store
	// Sources is the ordered module autodiscovery list; empty uses
	// modules.DefaultSources.
	Sources       []string
	SessionSecret []byte
	SessionTTL    time.Duration
	SchemePolicy  requestmeta.SchemePolicy
	Logger        logrus.FieldLogger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server hosts the web HTTP server.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	registry   *registry.Registry
	logger     logrus.FieldLogger
}

// NewServer builds a configured web server.
func NewServer(ctx context.Context, config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, reg, err := newHandler(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
			IdleTimeout:       timeouts.Idle,
		},
		registry: reg,
		logger:   logging.OrDiscard(config.Logger),
	}, nil
}

// NewHandler builds the root HTTP handler: it discovers the configured
// modules, composes their routes and wraps them in the shared middleware.
func NewHandler(ctx context.Context, config Config) (http.Handler, error) {
	handler, _, err := newHandler(ctx, config)
	return handler, err
}

func newHandler(ctx context.Context, config Config) (http.Handler, *registry.Registry, error) {
	if ctx == nil {
		return nil, nil, errors.New("context is required")
	}
	if config.Store == nil {
		return nil, nil, errors.New("store is required")
	}
	logger := logging.OrDiscard(config.Logger)

	sessions, err := auth.NewSessions(config.SessionSecret, config.SessionTTL, config.Now)
	if err != nil {
		return nil, nil, fmt.Errorf("init sessions: %w", err)
	}
	authn := auth.NewAuthenticator(config.Store, logger)

	reg := registry.New(registry.WithLogger(logger))
	rt := module.Runtime{
		ResolveViewer: viewerResolver(reg, config.Store, logger),
		SchemePolicy:  config.SchemePolicy,
		Logger:        logger,
		Now:           config.Now,
	}
	deps := modules.Dependencies{Store: config.Store, Registry: reg, Runtime: rt}
	sources := config.Sources
	if len(sources) == 0 {
		sources = modules.DefaultSources
	}
	reg.Autodiscover(ctx, sources, modules.Catalog(deps))

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		weberror.WritePublicError(w, r, storage.ErrNotFound, rt)
	})
	root, err := app.Compose(app.ComposeInput{
		RequireAuth:      auth.RequireAuth,
		PublicModules:    modules.DefaultPublicModules(deps),
		ProtectedModules: modules.DefaultProtectedModules(deps),
		NotFound:         notFound,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("compose modules: %w", err)
	}

	login := auth.NewHandler(sessions, authn, config.SchemePolicy, logger)
	root.HandleFunc(routepath.Login, login.ServeLogin)
	root.HandleFunc(routepath.Logout, login.ServeLogout)
	root.Get(routepath.Health, healthHandler(config.Store, logger))
	toDashboard := func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, routepath.AppDashboard, http.StatusFound)
	}
	root.Get(routepath.Root, toDashboard)
	root.Get(strings.TrimSuffix(routepath.AppPrefix, "/"), toDashboard)
	root.Get(routepath.AppPrefix, toDashboard)

	csrf := nosurf.New(root)
	csrf.SetBaseCookie(http.Cookie{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	csrf.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.WithFields(logrus.Fields{"path": r.URL.Path, "reason": fmt.Sprint(nosurf.Reason(r))}).Warn("csrf check failed")
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	}))

	handler := httpx.Chain(csrf,
		middleware.RequestID,
		middleware.RealIP,
		httpx.AccessLog(logger),
		httpx.RecoverPanic(logger),
		auth.ResolvePrincipal(sessions, authn, config.SchemePolicy, logger),
	)
	return handler, reg, nil
}

// viewerResolver builds the app chrome: the meeting name plus the navigation
// the signed-in principal may see.
func viewerResolver(reg *registry.Registry, store Store, logger logrus.FieldLogger) module.ResolveViewer {
	return func(r *http.Request) module.Viewer {
		viewer := module.Viewer{MeetingName: branding.AppName}
		ctx := httpx.RequestContext(r)
		if cfg, err := store.GetMeetingConfig(ctx); err != nil {
			logger.WithError(err).Warn("resolve meeting name")
		} else if cfg.MeetingName != "" {
			viewer.MeetingName = cfg.MeetingName
		}
		p, ok := webctx.RequestPrincipal(r)
		if !ok {
			return viewer
		}
		viewer.DisplayName = p.DisplayName
		viewer.Superuser = p.Superuser
		viewer.CanManageUsers = p.CanManageUsers()
		viewer.Nav = reg.NavigationForUser(ctx, p)
		return viewer
	}
}

func healthHandler(store Store, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.StoreOpen)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			logger.WithError(err).Warn("health check failed")
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}
}

// Registry returns the module registry the server discovered.
func (s *Server) Registry() *registry.Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

// ListenAndServe serves HTTP until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	s.logger.WithField("addr", s.httpAddr).Info("web server listening")
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
