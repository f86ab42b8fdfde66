package web

import (
	"flag"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/logging"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "localhost:8080" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "localhost:8080")
	}
	if cfg.DBPath != "data/meeting.db" {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, "data/meeting.db")
	}
	if want := []string{"positions", "readings", "meeting_format", "treasurer", "phone_list"}; !reflect.DeepEqual(cfg.Modules, want) {
		t.Fatalf("Modules = %v, want %v", cfg.Modules, want)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("SessionTTL = %v, want %v", cfg.SessionTTL, 12*time.Hour)
	}
}

func TestParseConfigEnvAndFlags(t *testing.T) {
	t.Setenv("MEETING_MANAGER_HTTP_ADDR", "env:9000")
	t.Setenv("MEETING_MANAGER_MODULES", "readings, positions")
	t.Setenv("MEETING_MANAGER_TRUST_FORWARDED_PROTO", "true")

	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-db", "/tmp/x.db", "-modules", "meeting_format,,readings"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "env:9000" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "env:9000")
	}
	if cfg.DBPath != "/tmp/x.db" {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, "/tmp/x.db")
	}
	if want := []string{"meeting_format", "readings"}; !reflect.DeepEqual(cfg.Modules, want) {
		t.Fatalf("Modules = %v, want %v", cfg.Modules, want)
	}
	if !cfg.TrustForwardedProto {
		t.Fatal("TrustForwardedProto = false, want true")
	}
}

func TestSessionSecret(t *testing.T) {
	t.Parallel()

	if _, err := sessionSecret("short", logging.Discard()); err == nil {
		t.Fatal("expected error for short secret")
	}
	secret, err := sessionSecret("", logging.Discard())
	if err != nil || len(secret) == 0 {
		t.Fatalf("sessionSecret(\"\") = %d bytes, %v", len(secret), err)
	}
	configured := "0123456789abcdef0123456789abcdef"
	if got, err := sessionSecret(configured, logging.Discard()); err != nil || string(got) != configured {
		t.Fatalf("sessionSecret() = %q, %v", got, err)
	}
}

func TestOpenStoreCreatesDataDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "meeting.db")
	store, err := openStore(path, logging.Discard())
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	_ = store.Close()
	if _, err := openStore(" ", nil); err == nil {
		t.Fatal("expected error for blank path")
	}
}
