package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewWithWriterParsesLevel(t *testing.T) {
	t.Parallel()

	logger, err := NewWithWriter(&bytes.Buffer{}, "debug", FormatText)
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v, want %v", logger.GetLevel(), logrus.DebugLevel)
	}
}

func TestNewWithWriterDefaultsToInfo(t *testing.T) {
	t.Parallel()

	logger, err := NewWithWriter(&bytes.Buffer{}, " ", "")
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}
	if logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v, want %v", logger.GetLevel(), logrus.InfoLevel)
	}
}

func TestNewWithWriterRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	if _, err := NewWithWriter(&bytes.Buffer{}, "loud", FormatText); err == nil {
		t.Fatal("expected invalid level error")
	}
	if _, err := NewWithWriter(&bytes.Buffer{}, "info", Format("xml")); err == nil {
		t.Fatal("expected invalid format error")
	}
}

func TestJSONFormatWritesFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "info", FormatJSON)
	if err != nil {
		t.Fatalf("NewWithWriter() error = %v", err)
	}
	logger.WithField("module", "readings").Info("module registered")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode entry %q: %v", buf.String(), err)
	}
	if entry["module"] != "readings" {
		t.Fatalf("module field = %v, want readings", entry["module"])
	}
	if entry["msg"] != "module registered" {
		t.Fatalf("msg = %v, want %q", entry["msg"], "module registered")
	}
}

func TestDiscardDropsEntries(t *testing.T) {
	t.Parallel()

	logger := OrDiscard(nil)
	logger.Error("nothing to see")
	l, ok := logger.(*logrus.Logger)
	if !ok {
		t.Fatalf("OrDiscard(nil) = %T, want *logrus.Logger", logger)
	}
	if l.Out != io.Discard {
		t.Fatal("expected logger output to be io.Discard")
	}
}
