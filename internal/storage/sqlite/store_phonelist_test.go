package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/phonelist"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
)

func TestContactsRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	sober := date(2018, time.May, 20)
	c := phonelist.Contact{ID: "c1", Name: "Pat Doe", Phone: "555-0100", WhatsApp: true, SobrietyDate: &sober, TimeZone: "pst", Active: true, Order: 2}
	if err := store.PutContact(ctx, c); err != nil {
		t.Fatalf("PutContact() error = %v", err)
	}
	if err := store.PutContact(ctx, phonelist.Contact{ID: "c2", Name: "al", Active: true, Order: 2}); err != nil {
		t.Fatalf("PutContact() error = %v", err)
	}
	all, err := store.ListContacts(ctx)
	if err != nil {
		t.Fatalf("ListContacts() error = %v", err)
	}
	if len(all) != 2 || all[0].Name != "al" {
		t.Fatalf("contacts = %+v", all)
	}
	got, err := store.GetContact(ctx, "c1")
	if err != nil {
		t.Fatalf("GetContact() error = %v", err)
	}
	if got.TimeZone != "PST" || got.SobrietyDate == nil || !got.SobrietyDate.Equal(sober) || !got.WhatsApp {
		t.Fatalf("contact = %+v", got)
	}
	if err := store.DeleteContact(ctx, "c1"); err != nil {
		t.Fatalf("DeleteContact() error = %v", err)
	}
	if _, err := store.GetContact(ctx, "c1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetContact(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestImportContactsModes(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.PutContact(ctx, phonelist.Contact{ID: "c1", Name: "Pat Doe", Phone: "old", Active: true, Order: 5}); err != nil {
		t.Fatalf("PutContact() error = %v", err)
	}

	rows := []phonelist.Contact{{Name: "pat doe", Phone: "new", Active: true}, {Name: "Sam", Active: true}}
	result, err := store.ImportContacts(ctx, phonelist.ModeUpdate, rows)
	if err != nil {
		t.Fatalf("ImportContacts(update) error = %v", err)
	}
	if result.Added != 1 || result.Updated != 1 {
		t.Fatalf("result = %+v, want 1 added 1 updated", result)
	}
	pat, err := store.GetContact(ctx, "c1")
	if err != nil {
		t.Fatalf("GetContact() error = %v", err)
	}
	if pat.Phone != "new" || pat.Order != 5 {
		t.Fatalf("updated contact = %+v", pat)
	}
	all, err := store.ListContacts(ctx)
	if err != nil {
		t.Fatalf("ListContacts() error = %v", err)
	}
	if len(all) != 2 || all[1].Name != "Sam" || all[1].Order != 6 {
		t.Fatalf("contacts = %+v", all)
	}

	result, err = store.ImportContacts(ctx, phonelist.ModeAdd, []phonelist.Contact{{Name: "Sam", Active: true}})
	if err != nil || result.Added != 1 {
		t.Fatalf("ImportContacts(add) = %+v, %v", result, err)
	}
	result, err = store.ImportContacts(ctx, phonelist.ModeReplace, []phonelist.Contact{{Name: "Only", Active: true}})
	if err != nil || result.Added != 1 {
		t.Fatalf("ImportContacts(replace) = %+v, %v", result, err)
	}
	all, err = store.ListContacts(ctx)
	if err != nil {
		t.Fatalf("ListContacts() error = %v", err)
	}
	if len(all) != 1 || all[0].Name != "Only" || all[0].Order != 1 {
		t.Fatalf("after replace = %+v", all)
	}
	if _, err := store.ImportContacts(ctx, "merge", nil); err == nil {
		t.Fatal("expected error for an unknown mode")
	}
}

func TestTimeZonesSeedAndReplace(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	zones, err := store.ListTimeZones(ctx)
	if err != nil {
		t.Fatalf("ListTimeZones() error = %v", err)
	}
	if len(zones) != len(phonelist.DefaultTimeZones) || zones[0].Code != "EST" || zones[3].Code != "PST" {
		t.Fatalf("seeded zones = %+v", zones)
	}
	if err := store.ReplaceTimeZones(ctx, phonelist.ParseTimeZones("hst Hawaii\n# AKST Alaska")); err != nil {
		t.Fatalf("ReplaceTimeZones() error = %v", err)
	}
	zones, err = store.ListTimeZones(ctx)
	if err != nil {
		t.Fatalf("ListTimeZones() error = %v", err)
	}
	if len(zones) != 2 || zones[0].Code != "HST" || zones[1].Active {
		t.Fatalf("zones = %+v", zones)
	}
}

func TestPhoneListConfigSharing(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	cfg, err := store.GetPhoneListConfig(ctx)
	if err != nil {
		t.Fatalf("GetPhoneListConfig() error = %v", err)
	}
	if cfg.PublicEnabled || cfg.ShareToken == "" {
		t.Fatalf("fresh config = %+v, want sharing off with a token", cfg)
	}
	if err := store.PutPhoneListConfig(ctx, storage.PhoneListConfig{PublicEnabled: true}); err != nil {
		t.Fatalf("PutPhoneListConfig() error = %v", err)
	}
	byToken, err := store.GetPhoneListConfigByToken(ctx, cfg.ShareToken)
	if err != nil {
		t.Fatalf("GetPhoneListConfigByToken() error = %v", err)
	}
	if !byToken.PublicEnabled {
		t.Fatalf("config = %+v, want sharing on", byToken)
	}
	if _, err := store.GetPhoneListConfigByToken(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetPhoneListConfigByToken(unknown) error = %v, want ErrNotFound", err)
	}
}
