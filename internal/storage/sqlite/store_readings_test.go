package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/computeralex/easier-softer-meeting-manager/internal/readings"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
)

func TestReadingsRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	r := readings.Reading{ID: "r1", Title: "Serenity Prayer", Slug: "serenity-prayer", Content: "God grant me", Active: true}
	if err := store.PutReading(ctx, r); err != nil {
		t.Fatalf("put reading: %v", err)
	}
	if err := store.PutReading(ctx, readings.Reading{ID: "r2", Title: "Dup", Slug: "serenity-prayer", Content: "x"}); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate slug error = %v, want %v", err, storage.ErrAlreadyExists)
	}

	got, err := store.GetReadingBySlug(ctx, "Serenity-Prayer")
	if err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if got.ID != "r1" || got.Content != "God grant me" {
		t.Fatalf("reading = %+v", got)
	}

	r.ShortName = "Serenity"
	if err := store.PutReading(ctx, r); err != nil {
		t.Fatalf("update reading: %v", err)
	}
	all, err := store.ListReadings(ctx)
	if err != nil {
		t.Fatalf("list readings: %v", err)
	}
	if len(all) != 1 || all[0].ShortName != "Serenity" {
		t.Fatalf("readings = %+v", all)
	}

	taken, err := store.ReadingSlugTaken(ctx, "serenity-prayer", "r1")
	if err != nil || taken {
		t.Fatalf("ReadingSlugTaken(self) = %v, %v", taken, err)
	}
	taken, err = store.ReadingSlugTaken(ctx, "serenity-prayer", "")
	if err != nil || !taken {
		t.Fatalf("ReadingSlugTaken = %v, %v", taken, err)
	}

	if err := store.DeleteReading(ctx, "r1"); err != nil {
		t.Fatalf("delete reading: %v", err)
	}
	if _, err := store.GetReading(ctx, "r1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("deleted reading error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestReadingsConfig(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	cfg, err := store.GetReadingsConfig(ctx)
	if err != nil {
		t.Fatalf("get readings config: %v", err)
	}
	if !cfg.PublicEnabled || cfg.ShareToken == "" {
		t.Fatalf("default config = %+v", cfg)
	}
	if err := store.PutReadingsConfig(ctx, storage.ReadingsConfig{PublicEnabled: false}); err != nil {
		t.Fatalf("put readings config: %v", err)
	}
	got, err := store.GetReadingsConfigByToken(ctx, cfg.ShareToken)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got.PublicEnabled {
		t.Fatal("public toggle not saved")
	}
	if _, err := store.GetReadingsConfigByToken(ctx, ""); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("blank token error = %v, want %v", err, storage.ErrNotFound)
	}
}
