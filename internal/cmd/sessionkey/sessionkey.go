// Package sessionkey prints a fresh session signing secret in .env form.
package sessionkey

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"io"

	entrypoint "github.com/computeralex/easier-softer-meeting-manager/internal/platform/cmd"
	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/config"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/auth"
)

// EnvName is the variable the web command reads the secret from.
const EnvName = config.EnvPrefix + "SESSION_SECRET"

// Config holds key generation options.
type Config struct {
	Bytes int
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{Bytes: auth.MinSecretLength}
	fs.IntVar(&cfg.Bytes, "bytes", cfg.Bytes, "number of random bytes")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run writes one NAME=hex line to out. A nil reader uses crypto/rand.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	// Hex doubles the length, so half the minimum still yields a valid secret.
	if cfg.Bytes*2 < auth.MinSecretLength {
		return fmt.Errorf("bytes must be at least %d", auth.MinSecretLength/2)
	}
	if out == nil {
		return fmt.Errorf("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}
	buf := make([]byte, cfg.Bytes)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return fmt.Errorf("generate random bytes: %w", err)
	}
	_, err := fmt.Fprintf(out, "%s=%s\n", EnvName, hex.EncodeToString(buf))
	return err
}
