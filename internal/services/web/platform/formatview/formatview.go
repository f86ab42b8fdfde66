// Package formatview turns stored format blocks into render-ready sections
// for the editor preview, the display page and the public share page.
package formatview

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/computeralex/easier-softer-meeting-manager/internal/readings"
	"github.com/computeralex/easier-softer-meeting-manager/internal/schedule"
	"github.com/computeralex/easier-softer-meeting-manager/internal/services/web/routepath"
	"github.com/computeralex/easier-softer-meeting-manager/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/computeralex/easier-softer-meeting-manager/internal/services/web/platform/formatview"

// ReferenceSource loads what [slug] references resolve against.
type ReferenceSource interface {
	ListReadings(ctx context.Context) ([]readings.Reading, error)
	GetReadingsConfig(ctx context.Context) (storage.ReadingsConfig, error)
}

// References builds the reading referencer. References link to the public
// reading pages only while readings are shared.
func References(ctx context.Context, src ReferenceSource) (*readings.Referencer, error) {
	if src == nil {
		return readings.NewReferencer(nil, nil), nil
	}
	all, err := src.ListReadings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	cfg, err := src.GetReadingsConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load readings config: %w", err)
	}
	var link readings.LinkFunc
	if cfg.PublicEnabled && cfg.ShareToken != "" {
		token := cfg.ShareToken
		link = func(slug string) string { return routepath.PublicReading(token, slug) }
	}
	return readings.NewReferencer(all, link), nil
}

// Section is one block ready for rendering.
type Section struct {
	BlockID  string
	Title    string
	Contents []template.HTML
	Rotating bool
}

// Empty reports whether the section has nothing to show.
func (s Section) Empty() bool { return len(s.Contents) == 0 }

// ForDate assembles the one-winner format shown on date.
func ForDate(ctx context.Context, blocks []schedule.Block, date time.Time, refs *readings.Referencer) []Section {
	_, span := startSpan(ctx, len(blocks), date, attribute.String("format.mode", "date"))
	defer span.End()

	entries := schedule.AssembleFormat(blocks, date)
	out := make([]Section, 0, len(entries))
	for _, e := range entries {
		s := Section{BlockID: e.Block.ID, Title: e.Block.Title, Rotating: e.Rotating}
		if e.Active != nil {
			s.Contents = []template.HTML{render(e.Active.Content, refs)}
		}
		out = append(out, s)
	}
	return out
}

// ForType assembles the additive format for the selected meeting type:
// untagged content plus content tagged typeID.
func ForType(ctx context.Context, blocks []schedule.Block, typeID string, date time.Time, refs *readings.Referencer) []Section {
	_, span := startSpan(ctx, len(blocks), date,
		attribute.String("format.mode", "type"),
		attribute.String("format.type_id", typeID),
	)
	defer span.End()

	entries := schedule.AssembleForType(blocks, typeID)
	out := make([]Section, 0, len(entries))
	for _, e := range entries {
		s := Section{BlockID: e.Block.ID, Title: e.Block.Title, Rotating: len(e.AllActive) > 1}
		for _, v := range e.Shown {
			s.Contents = append(s.Contents, render(v.Content, refs))
		}
		out = append(out, s)
	}
	return out
}

func startSpan(ctx context.Context, blocks int, date time.Time, extra ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs := append([]attribute.KeyValue{
		attribute.Int("format.blocks", blocks),
		attribute.String("format.date", date.Format("2006-01-02")),
	}, extra...)
	return otel.Tracer(tracerName).Start(ctx, "meetingformat.assemble", trace.WithAttributes(attrs...))
}

// render expands reading references in content that was sanitized on save.
func render(content string, refs *readings.Referencer) template.HTML {
	return template.HTML(refs.Render(content))
}
