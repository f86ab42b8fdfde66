package seed

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("MEETING_MANAGER_DB_PATH", "env.db")
	t.Setenv("MEETING_MANAGER_ADMIN_EMAIL", "env@example.com")

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-admin-email", "flag@example.com", "-overwrite"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.DBPath != "env.db" {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, "env.db")
	}
	if cfg.AdminEmail != "flag@example.com" {
		t.Fatalf("AdminEmail = %q, want %q", cfg.AdminEmail, "flag@example.com")
	}
	if !cfg.Overwrite {
		t.Fatal("Overwrite = false, want true")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := Config{
		DBPath:        filepath.Join(t.TempDir(), "data", "meeting.db"),
		AdminEmail:    "Admin@Example.com",
		AdminPassword: "long enough",
		LogLevel:      "error",
		LogFormat:     "text",
	}

	var first bytes.Buffer
	if err := Run(context.Background(), cfg, &first); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if !strings.Contains(first.String(), "admin user admin@example.com created") {
		t.Fatalf("first run output = %q", first.String())
	}
	if strings.Contains(first.String(), " 0 created") {
		t.Fatalf("first run created no positions: %q", first.String())
	}

	var second bytes.Buffer
	if err := Run(context.Background(), cfg, &second); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if !strings.Contains(second.String(), "positions: 0 created, 0 updated") {
		t.Fatalf("second run output = %q", second.String())
	}
	if strings.Contains(second.String(), "admin user") {
		t.Fatalf("second run recreated the admin: %q", second.String())
	}
}

func TestRunUsesCatalogFile(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "positions.yaml")
	yaml := "positions:\n  - name: greeter\n    display_name: Greeter\n"
	if err := os.WriteFile(catalog, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	var out bytes.Buffer
	cfg := Config{DBPath: filepath.Join(dir, "meeting.db"), CatalogPath: catalog, LogLevel: "error"}
	if err := Run(context.Background(), cfg, &out); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out.String(), "positions: 1 created") {
		t.Fatalf("output = %q, want one position", out.String())
	}
}

func TestRunRejectsMissingCatalog(t *testing.T) {
	cfg := Config{DBPath: filepath.Join(t.TempDir(), "meeting.db"), CatalogPath: "/does/not/exist.yaml", LogLevel: "error"}
	if err := Run(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for missing catalog")
	}
}
