// Package lore implements the trigger engine: lore entries with keyword and
// regex activation, logic gates over secondary keys, temporal windows (delay,
// cooldown, sticky), probabilistic gating, and bounded recursive scanning.
//
// The engine is pure computation: no I/O and no package-level state. Callers
// own a Book (the entry collection) and a State (per-session temporal
// counters) and construct a Scanner over both. A State instance belongs to
// exactly one writing session; concurrent scans over a shared State are not
// supported.
package lore

import (
	"encoding/json"
	"fmt"

	"github.com/pkeller/loregate/internal/types"
)

// LogicGate combines primary and secondary key matches during trigger
// evaluation. Values are the persisted lorebook spellings.
type LogicGate string

const (
	// LogicAndAny activates on primary match plus any secondary match.
	LogicAndAny LogicGate = "and_any"
	// LogicAndAll activates on primary match plus every secondary match.
	LogicAndAll LogicGate = "and_all"
	// LogicNotAny activates on primary match with no secondary match.
	LogicNotAny LogicGate = "not_any"
	// LogicNotAll activates on primary match with at least one secondary
	// key absent.
	LogicNotAll LogicGate = "not_all"
)

// Position selects the prompt section where an activated entry is spliced.
// Consumed by prompt assembly; the scanner itself never evaluates it.
type Position string

const (
	PositionBeforeWorld  Position = "before_world"  // very top of context
	PositionAfterWorld   Position = "after_world"   // after world settings
	PositionAfterChars   Position = "after_chars"   // after character descriptions
	PositionBeforeRecent Position = "before_recent" // just before recent prose
	PositionDepth        Position = "depth"         // N paragraphs from the end
)

// Entry is a single lore fact with trigger-based activation.
//
// The field set mirrors the lorebook JSON schema so books written elsewhere
// round-trip losslessly; json tags are the persisted names.
type Entry struct {
	// UID identifies the entry within its book. Immutable once assigned.
	UID types.EntryID `json:"uid"`

	// Keys are the primary triggers: case-insensitive literal substrings
	// or /pattern/flags regexes.
	Keys []string `json:"key"`
	// SecondaryKeys refine activation through the Logic gate.
	SecondaryKeys []string `json:"keysecondary"`
	// Logic combines primary and secondary matches.
	Logic LogicGate `json:"logic"`

	// Content is the lore text injected on activation.
	Content string `json:"content"`
	// Comment is a private author note, never injected.
	Comment string `json:"comment"`

	// Constant entries are always active, bypassing the trigger scan.
	Constant bool `json:"constant"`
	// Selective marks entries that lie dormant until triggered. Informational;
	// activation is governed by Constant and Disabled.
	Selective bool `json:"selective"`
	// Disabled entries never activate, constant or not.
	Disabled bool `json:"disabled"`

	// Order positions the entry in scan output; lower sorts earlier.
	Order int `json:"order"`
	// Position selects the prompt section for injection.
	Position Position `json:"position"`
	// Depth is paragraphs-from-end when Position is PositionDepth.
	Depth int `json:"depth"`

	// Probability is the percent chance (0-100) of activation once every
	// other gate passes.
	Probability int `json:"probability"`

	// Group tags the entry for bulk operations.
	Group string `json:"group"`
	// GroupWeight ranks entries within a group.
	GroupWeight int `json:"group_weight"`

	// Sticky keeps the entry active for N scans after its last trigger.
	Sticky int `json:"sticky"`
	// Cooldown suppresses re-triggering for N scans after firing.
	Cooldown int `json:"cooldown"`
	// Delay blocks triggering until the session tick counter reaches N.
	Delay int `json:"delay"`

	// ExcludeRecursion keeps this entry's content out of recursive scans.
	ExcludeRecursion bool `json:"exclude_recursion"`
}

// NewEntry creates an entry with a fresh ID and schema defaults: and_any
// logic, selective, order 100, probability 100, injected after world info.
func NewEntry(keys ...string) *Entry {
	return &Entry{
		UID:           types.NewEntryID(),
		Keys:          append([]string{}, keys...),
		SecondaryKeys: []string{},
		Logic:         LogicAndAny,
		Selective:     true,
		Order:         types.DefaultOrder,
		Position:      PositionAfterWorld,
		Depth:         types.DefaultInsertDepth,
		Probability:   types.DefaultProbability,
	}
}

// UnmarshalJSON decodes over schema defaults so books that omit defaulted
// fields load identically to fully-specified ones. A missing uid gets a
// fresh ID.
func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	tmp := plain(*NewEntry())
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*e = Entry(tmp)
	return nil
}

// Validate checks field ranges and enum spellings. Runtime evaluation
// tolerates out-of-range values (an unknown gate never matches, probability
// saturates at its bounds); validation applies at load and API boundaries
// where bad data should be rejected loudly.
func (e *Entry) Validate() error {
	if e.UID == "" {
		return fmt.Errorf("%w: empty uid", types.ErrInvalidEntry)
	}
	if e.Probability < 0 || e.Probability > 100 {
		return fmt.Errorf("%w: probability %d outside [0,100]", types.ErrInvalidEntry, e.Probability)
	}
	if e.Sticky < 0 {
		return fmt.Errorf("%w: negative sticky %d", types.ErrInvalidEntry, e.Sticky)
	}
	if e.Cooldown < 0 {
		return fmt.Errorf("%w: negative cooldown %d", types.ErrInvalidEntry, e.Cooldown)
	}
	if e.Delay < 0 {
		return fmt.Errorf("%w: negative delay %d", types.ErrInvalidEntry, e.Delay)
	}
	switch e.Logic {
	case LogicAndAny, LogicAndAll, LogicNotAny, LogicNotAll:
	default:
		return fmt.Errorf("%w: unknown logic gate %q", types.ErrInvalidEntry, e.Logic)
	}
	switch e.Position {
	case PositionBeforeWorld, PositionAfterWorld, PositionAfterChars, PositionBeforeRecent, PositionDepth:
	default:
		return fmt.Errorf("%w: unknown position %q", types.ErrInvalidEntry, e.Position)
	}
	return nil
}
