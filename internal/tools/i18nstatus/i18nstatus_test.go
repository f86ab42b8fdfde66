package i18nstatus

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/i18n/catalog"
)

func loadBundle(t *testing.T) *catalog.Bundle {
	t.Helper()
	fsys := fstest.MapFS{
		"locales/en-US/core.yaml":     {Data: []byte("locale: en-US\nnamespace: core\nmessages:\n  core.a: A\n  core.b: B\n")},
		"locales/en-US/schedule.yaml": {Data: []byte("locale: en-US\nnamespace: schedule\nmessages:\n  schedule.c: C\n  schedule.d: D\n")},
		"locales/es/core.yaml":        {Data: []byte("locale: es\nnamespace: core\nmessages:\n  core.a: A\n  core.b: B\n  core.z: Z\n")},
		"locales/es/schedule.yaml":    {Data: []byte("locale: es\nnamespace: schedule\nmessages:\n  schedule.c: C\n")},
	}
	bundle, err := catalog.LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS() error = %v", err)
	}
	return bundle
}

func TestBuildCountsMissingAndExtraKeys(t *testing.T) {
	t.Parallel()

	rep, err := Build(loadBundle(t), catalog.BaseLocale)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(rep.Locales) != 2 {
		t.Fatalf("locales = %d, want 2", len(rep.Locales))
	}
	es := rep.Locales[1]
	if es.Locale != "es" || es.Missing != 1 || es.Extra != 1 || es.Completion != 75 {
		t.Fatalf("es status = %+v", es)
	}
	if strings.Join(es.MissingKeys, ",") != "schedule.d" || strings.Join(es.ExtraKeys, ",") != "core.z" {
		t.Fatalf("es keys missing=%v extra=%v", es.MissingKeys, es.ExtraKeys)
	}
	if got := es.Namespaces[1]; got.Namespace != "schedule" || got.Completion != 50 {
		t.Fatalf("schedule namespace = %+v", got)
	}
	if rep.Complete() {
		t.Fatal("Complete() = true, want false")
	}
}

func TestBuildRejectsUnknownBase(t *testing.T) {
	t.Parallel()

	if _, err := Build(loadBundle(t), "fr"); err == nil {
		t.Fatal("expected error for unknown base locale")
	}
}

func TestWriters(t *testing.T) {
	t.Parallel()

	rep, err := Build(loadBundle(t), catalog.BaseLocale)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	var md bytes.Buffer
	if err := WriteMarkdown(&md, rep); err != nil {
		t.Fatalf("WriteMarkdown() error = %v", err)
	}
	for _, want := range []string{"| `es` | 4 | 3 | 1 | 1 | 75.0% |", "### Missing keys", "- `schedule.d`"} {
		if !strings.Contains(md.String(), want) {
			t.Fatalf("markdown missing %q:\n%s", want, md.String())
		}
	}

	var out bytes.Buffer
	if err := WriteJSON(&out, rep); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	var decoded Report
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded.BaseLocale != catalog.BaseLocale {
		t.Fatalf("base locale = %q", decoded.BaseLocale)
	}
}

func TestEmbeddedCatalogsAreComplete(t *testing.T) {
	t.Parallel()

	bundle, err := catalog.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	rep, err := Build(bundle, catalog.BaseLocale)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !rep.Complete() {
		t.Fatalf("embedded catalogs are incomplete: %+v", rep.Locales)
	}
}
