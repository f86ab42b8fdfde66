package schedule

import (
	"sort"
	"time"
)

// MeetingType names a kind of meeting ("Speaker", "Topic"). Variations tagged
// with a type are shown on the public page only when that type is selected.
type MeetingType struct {
	ID     string
	Name   string `form:"name" validate:"required,max=50"`
	Order  int    `form:"order" validate:"min=0"`
	Active bool   `form:"is_active"`
}

// Block is one ordered slot of the meeting format.
type Block struct {
	ID         string
	Title      string `form:"title" validate:"required,max=100"`
	Order      int    `form:"order" validate:"min=0"`
	Active     bool   `form:"is_active"`
	Variations []Variation
}

// Variation is one content payload of a block. TypeID is empty for base
// content shown regardless of the selected meeting type.
type Variation struct {
	ID      string
	BlockID string
	TypeID  string
	Content string `form:"content"`
	Order   int    `form:"order" validate:"min=0"`
	Active  bool   `form:"is_active"`
	Default bool   `form:"is_default"`
	Rules   []Rule
}

// ActiveVariations returns the active variations of b ordered by Order, with
// their stored sequence breaking ties.
func (b Block) ActiveVariations() []Variation {
	out := make([]Variation, 0, len(b.Variations))
	for _, v := range b.Variations {
		if v.Active {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Rotating reports whether b has more than one active variation.
func (b Block) Rotating() bool {
	return len(b.ActiveVariations()) > 1
}

// SelectActiveVariation picks the variation of b shown on date: the first
// active variation (by order) with a matching rule, else the active default,
// else the first active variation. It returns nil when b has no active
// variations.
func SelectActiveVariation(b Block, date time.Time) *Variation {
	return selectFrom(b.ActiveVariations(), date)
}

func selectFrom(active []Variation, date time.Time) *Variation {
	if len(active) == 0 {
		return nil
	}
	for i := range active {
		if AnyMatch(active[i].Rules, date) {
			return &active[i]
		}
	}
	for i := range active {
		if active[i].Default {
			return &active[i]
		}
	}
	return &active[0]
}

// FormatEntry is one block of an assembled format.
type FormatEntry struct {
	Block     Block
	Active    *Variation
	AllActive []Variation
	Rotating  bool
}

// AssembleFormat selects the variation for every active block on date. Blocks
// keep their position even when they have nothing to show.
func AssembleFormat(blocks []Block, date time.Time) []FormatEntry {
	ordered := activeBlocks(blocks)
	out := make([]FormatEntry, 0, len(ordered))
	for _, b := range ordered {
		all := b.ActiveVariations()
		out = append(out, FormatEntry{
			Block:     b,
			Active:    selectFrom(all, date),
			AllActive: all,
			Rotating:  len(all) > 1,
		})
	}
	return out
}

// SelectForType returns the active variations of b shown when typeID is the
// selected meeting type: every untagged variation plus every variation tagged
// typeID, in order. An empty typeID selects only untagged content.
func SelectForType(b Block, typeID string) []Variation {
	var out []Variation
	for _, v := range b.ActiveVariations() {
		if v.TypeID == "" || (typeID != "" && v.TypeID == typeID) {
			out = append(out, v)
		}
	}
	return out
}

// TypedEntry is one block of a format assembled for a meeting type.
type TypedEntry struct {
	Block     Block
	Shown     []Variation
	AllActive []Variation
}

// AssembleForType runs SelectForType over every active block in order.
func AssembleForType(blocks []Block, typeID string) []TypedEntry {
	ordered := activeBlocks(blocks)
	out := make([]TypedEntry, 0, len(ordered))
	for _, b := range ordered {
		out = append(out, TypedEntry{
			Block:     b,
			Shown:     SelectForType(b, typeID),
			AllActive: b.ActiveVariations(),
		})
	}
	return out
}

func activeBlocks(blocks []Block) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Active {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// DefaultUpdate lists the sibling flag changes that must be written together
// with a saved variation.
type DefaultUpdate struct {
	// Cleared siblings lose their default flag.
	Cleared []string
	// Promoted is the sibling that becomes default, if any.
	Promoted string
}

// ResolveDefault applies the single-default rule when saved is written into a
// block whose other variations are siblings: while any variation of the block
// is active, exactly one active variation carries the default flag. An
// inactive variation never keeps the flag; when it held it, the first active
// sibling by order takes over.
func ResolveDefault(saved Variation, siblings []Variation) (Variation, DefaultUpdate) {
	others := make([]Variation, 0, len(siblings))
	for _, s := range siblings {
		if s.ID != saved.ID {
			others = append(others, s)
		}
	}
	if !saved.Active {
		saved.Default = false
	}

	var upd DefaultUpdate
	keeper := ""
	switch {
	case saved.Default:
	case hasActiveDefault(others):
		return saved, upd
	case saved.Active:
		saved.Default = true
	default:
		active := sortedActive(others)
		if len(active) == 0 {
			return saved, upd
		}
		keeper = active[0].ID
		if !active[0].Default {
			upd.Promoted = keeper
		}
	}
	for _, s := range others {
		if s.Default && s.ID != keeper {
			upd.Cleared = append(upd.Cleared, s.ID)
		}
	}
	return saved, upd
}

func hasActiveDefault(variations []Variation) bool {
	for _, v := range variations {
		if v.Active && v.Default {
			return true
		}
	}
	return false
}

func sortedActive(variations []Variation) []Variation {
	out := make([]Variation, 0, len(variations))
	for _, v := range variations {
		if v.Active {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Direction moves a block within the format.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Reorder moves the block with id one step in dir and renumbers every block
// 0..n-1. It returns the new order keyed by block ID and reports whether id
// was found. Moving past either end leaves the order unchanged.
func Reorder(blocks []Block, id string, dir Direction) (map[string]int, bool) {
	ordered := append([]Block(nil), blocks...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	idx := -1
	for i, b := range ordered {
		if b.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	switch {
	case dir == Up && idx > 0:
		ordered[idx], ordered[idx-1] = ordered[idx-1], ordered[idx]
	case dir == Down && idx < len(ordered)-1:
		ordered[idx], ordered[idx+1] = ordered[idx+1], ordered[idx]
	}
	out := make(map[string]int, len(ordered))
	for i, b := range ordered {
		out[b.ID] = i
	}
	return out, true
}
