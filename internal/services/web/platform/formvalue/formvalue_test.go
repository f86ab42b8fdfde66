package formvalue

import (
	"net/url"
	"testing"
	"time"
)

func TestBool(t *testing.T) {
	t.Parallel()

	form := url.Values{"a": {"on"}, "b": {"true"}, "c": {"off"}, "d": {""}}
	tests := map[string]bool{"a": true, "b": true, "c": false, "d": false, "missing": false}
	for name, want := range tests {
		if got := Bool(form, name); got != want {
			t.Fatalf("Bool(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestInt(t *testing.T) {
	t.Parallel()

	form := url.Values{"n": {" 12 "}, "bad": {"x"}}
	if got, err := Int(form, "n", 0); err != nil || got != 12 {
		t.Fatalf("Int(n) = %d, %v, want 12", got, err)
	}
	if got, err := Int(form, "missing", 6); err != nil || got != 6 {
		t.Fatalf("Int(missing) = %d, %v, want fallback 6", got, err)
	}
	if _, err := Int(form, "bad", 0); err == nil {
		t.Fatal("Int(bad) error = nil, want error")
	}
	if got, err := OptionalInt(form, "missing"); err != nil || got != nil {
		t.Fatalf("OptionalInt(missing) = %v, %v, want nil", got, err)
	}
	if got, err := OptionalInt(form, "n"); err != nil || got == nil || *got != 12 {
		t.Fatalf("OptionalInt(n) = %v, %v, want 12", got, err)
	}
}

func TestDate(t *testing.T) {
	t.Parallel()

	form := url.Values{"d": {"2025-01-21"}, "bad": {"21/01/2025"}}
	got, err := Date(form, "d")
	if err != nil {
		t.Fatalf("Date(d) error = %v", err)
	}
	if want := time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("Date(d) = %v, want %v", got, want)
	}
	if _, err := Date(form, "bad"); err == nil {
		t.Fatal("Date(bad) error = nil, want error")
	}
	if got, err := Date(form, "missing"); err != nil || got != nil {
		t.Fatalf("Date(missing) = %v, %v, want nil", got, err)
	}
}
