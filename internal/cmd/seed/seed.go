// Package seed parses seed flags and bootstraps a meeting database.
package seed

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	entrypoint "github.com/computeralex/easier-softer-meeting-manager/internal/platform/cmd"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/config"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/logging"
	"github.com/computeralex/easier-softer-meeting-manager/internal/seed"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage/sqlite"
)

// Config holds seed command configuration. Variables are read with the
// MEETING_MANAGER_ prefix.
type Config struct {
	DBPath        string `env:"DB_PATH" envDefault:"data/meeting.db"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text"`
	// CatalogPath replaces the embedded positions catalog when set.
	CatalogPath string `env:"SEED_CATALOG"`
	Overwrite   bool
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
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.AdminEmail, "admin-email", cfg.AdminEmail, "Admin account email (skipped when blank)")
	fs.StringVar(&cfg.AdminPassword, "admin-password", cfg.AdminPassword, "Admin account password")
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "YAML positions catalog (default: built-in)")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "rewrite positions that already exist")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run seeds the database and writes a summary to out.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return errors.New("database path is required")
	}
	logger, err := logging.New(cfg.LogLevel, logging.Format(cfg.LogFormat))
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}

	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceSeed, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
		}
		store, err := sqlite.Open(cfg.DBPath, sqlite.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		result, err := seed.Run(ctx, store, seed.Options{
			Catalog:       catalog,
			AdminEmail:    cfg.AdminEmail,
			AdminPassword: cfg.AdminPassword,
			Overwrite:     cfg.Overwrite,
			Logger:        logger,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "positions: %d created, %d updated, %d unchanged\n",
			result.PositionsCreated, result.PositionsUpdated, result.PositionsSkipped)
		if result.AdminCreated {
			fmt.Fprintf(out, "admin user %s created\n", strings.ToLower(strings.TrimSpace(cfg.AdminEmail)))
		}
		return nil
	})
}

func loadCatalog(path string) ([]seed.CatalogEntry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	entries, err := seed.LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return entries, nil
}
