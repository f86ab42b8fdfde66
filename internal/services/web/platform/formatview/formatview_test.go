package formatview

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/readings"
	"github.com/computeralex/easier-softer-meeting-manager/internal/schedule"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
)

type fakeSource struct {
	readings []readings.Reading
	cfg      storage.ReadingsConfig
}

func (f fakeSource) ListReadings(context.Context) ([]readings.Reading, error) { return f.readings, nil }

func (f fakeSource) GetReadingsConfig(context.Context) (storage.ReadingsConfig, error) {
	return f.cfg, nil
}

func weekday(w schedule.Weekday) *schedule.Weekday { return &w }

func blocks() []schedule.Block {
	return []schedule.Block{
		{ID: "b2", Title: "Readings", Order: 2, Active: true, Variations: []schedule.Variation{
			{ID: "v1", Content: "<p>Read [serenity]</p>", Active: true, Default: true},
		}},
		{ID: "b1", Title: "Opening", Order: 1, Active: true, Variations: []schedule.Variation{
			{ID: "v2", Content: "<p>Welcome</p>", Order: 1, Active: true, Default: true},
			{ID: "v3", Content: "<p>Tuesday welcome</p>", Order: 2, Active: true, Rules: []schedule.Rule{{Kind: schedule.KindDayOfWeek, Weekday: weekday(schedule.Tuesday)}}},
			{ID: "v4", Content: "<p>Speaker intro</p>", Order: 3, Active: true, TypeID: "speaker"},
		}},
		{ID: "b3", Title: "Hidden", Order: 3, Active: false},
		{ID: "b4", Title: "Empty", Order: 4, Active: true},
	}
}

func TestReferencesLinkOnlyWhenPublic(t *testing.T) {
	t.Parallel()

	src := fakeSource{
		readings: []readings.Reading{{Slug: "serenity", Title: "Serenity Prayer", Active: true}},
		cfg:      storage.ReadingsConfig{PublicEnabled: true, ShareToken: "tok"},
	}
	refs, err := References(context.Background(), src)
	if err != nil {
		t.Fatalf("References() error = %v", err)
	}
	if got := refs.Render("[serenity]"); !strings.Contains(got, `href="/public/readings/tok/serenity"`) {
		t.Fatalf("Render() = %q, want public link", got)
	}

	src.cfg.PublicEnabled = false
	refs, err = References(context.Background(), src)
	if err != nil {
		t.Fatalf("References() error = %v", err)
	}
	if got := refs.Render("[serenity]"); got != `<span class="reading-ref">Serenity Prayer</span>` {
		t.Fatalf("Render() = %q, want label span", got)
	}
}

func TestForDatePicksOneVariationPerBlock(t *testing.T) {
	t.Parallel()

	tuesday := time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC)
	refs := readings.NewReferencer([]readings.Reading{{Slug: "serenity", Title: "Serenity Prayer", Active: true}}, nil)

	got := ForDate(context.Background(), blocks(), tuesday, refs)
	if len(got) != 3 {
		t.Fatalf("sections = %d, want 3", len(got))
	}
	if got[0].Title != "Opening" || len(got[0].Contents) != 1 || got[0].Contents[0] != "<p>Tuesday welcome</p>" {
		t.Fatalf("opening = %+v", got[0])
	}
	if !got[0].Rotating {
		t.Fatalf("opening should rotate")
	}
	if !strings.Contains(string(got[1].Contents[0]), "Serenity Prayer") {
		t.Fatalf("reference not rendered: %q", got[1].Contents[0])
	}
	if !got[2].Empty() {
		t.Fatalf("empty block = %+v", got[2])
	}
}

func TestForTypeIsAdditive(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC)
	got := ForType(context.Background(), blocks(), "speaker", date, nil)
	if n := len(got[0].Contents); n != 3 {
		t.Fatalf("speaker opening contents = %d, want 3", n)
	}

	got = ForType(context.Background(), blocks(), "topic", date, nil)
	if n := len(got[0].Contents); n != 2 {
		t.Fatalf("topic opening contents = %d, want 2", n)
	}
}
