// Package web parses web service flags and launches the meeting manager.
package web

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	entrypoint "github.com/computeralex/easier-softer-meeting-manager/internal/platform/cmd"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/config"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/logging"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/auth"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/requestmeta"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage/sqlite"
	"github.com/sirupsen/logrus"
)

// Config holds web command configuration. Variables are read with the
// MEETING_MANAGER_ prefix.
type Config struct {
	HTTPAddr            string        `env:"HTTP_ADDR" envDefault:"localhost:8080"`
	DBPath              string        `env:"DB_PATH" envDefault:"data/meeting.db"`
	Modules             []string      `env:"MODULES" envDefault:"positions,readings,meeting_format,treasurer,phone_list" envSeparator:","`
	SessionSecret       string        `env:"SESSION_SECRET"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"text"`
	TrustForwardedProto bool          `env:"TRUST_FORWARDED_PROTO"`
}

// ParseConfig loads .env, then the environment, then flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	modules := strings.Join(cfg.Modules, ",")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&modules, "modules", modules, "Comma-separated module discovery order")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Modules = splitList(modules)
	return cfg, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Run opens the store and serves HTTP until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(cfg.LogLevel, logging.Format(cfg.LogFormat))
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceWeb, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		return serve(ctx, cfg, logger)
	})
}

func serve(ctx context.Context, cfg Config, logger logrus.FieldLogger) error {
	secret, err := sessionSecret(cfg.SessionSecret, logger)
	if err != nil {
		return err
	}
	store, err := openStore(cfg.DBPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("close store")
		}
	}()

	server, err := web.NewServer(ctx, web.Config{
		HTTPAddr:      cfg.HTTPAddr,
		Store:         store,
		Sources:       cfg.Modules,
		SessionSecret: secret,
		SessionTTL:    cfg.SessionTTL,
		SchemePolicy:  requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto},
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("init web server: %w", err)
	}
	return server.ListenAndServe(ctx)
}

// sessionSecret returns the configured secret or a random one. Sessions
// signed with a random secret do not survive a restart.
func sessionSecret(configured string, logger logrus.FieldLogger) ([]byte, error) {
	if configured = strings.TrimSpace(configured); configured != "" {
		if len(configured) < auth.MinSecretLength {
			return nil, fmt.Errorf("session secret must be at least %d bytes", auth.MinSecretLength)
		}
		return []byte(configured), nil
	}
	logger.Warn("MEETING_MANAGER_SESSION_SECRET is not set; using a random secret")
	return auth.RandomSecret()
}

func openStore(path string, logger logrus.FieldLogger) (*sqlite.Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	store, err := sqlite.Open(path, sqlite.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}
