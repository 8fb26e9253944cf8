// internal/lore/state.go
package lore

import "github.com/pkeller/loregate/internal/types"

/*
 * Temporal bookkeeping across scan cycles.
 *
 * One record per entry holds both decaying counters (cooldown, sticky), so a
 * single decrement pass serves both and a record drops out once both windows
 * are exhausted.
 *
 * Decay ordering: Advance decrements before the scanner runs its eligibility
 * checks, so a cooldown of N armed on the scan where an entry fires blocks
 * the next N-1 scans and the entry fires again on scan N+1. Session replays
 * depend on this exact window; do not widen it to the intuitive N-scan block.
 */

// ticks holds the remaining suppression and persistence windows for one entry.
type ticks struct {
	Cooldown int
	Sticky   int
}

// State tracks scan-cycle counters for one writing session. Not safe for
// concurrent use; give each session its own State. Never persisted: a new
// session starts with fresh counters.
type State struct {
	// MessageCount is the number of completed Advance calls. Delay gating
	// compares against it.
	MessageCount int

	counters map[types.EntryID]ticks
}

// NewState returns a State at tick zero with no active counters.
func NewState() *State {
	return &State{counters: make(map[types.EntryID]ticks)}
}

// Advance opens a new scan cycle: increments the tick counter, then decays
// every counter by one, dropping records whose windows are both exhausted.
func (s *State) Advance() {
	s.MessageCount++
	for id, t := range s.counters {
		if t.Cooldown > 0 {
			t.Cooldown--
		}
		if t.Sticky > 0 {
			t.Sticky--
		}
		if t.Cooldown <= 0 && t.Sticky <= 0 {
			delete(s.counters, id)
			continue
		}
		s.counters[id] = t
	}
}

// IsOnCooldown reports whether the entry is inside its suppression window.
func (s *State) IsOnCooldown(id types.EntryID) bool {
	return s.counters[id].Cooldown > 0
}

// IsStickyActive reports whether the entry is inside its persistence window.
func (s *State) IsStickyActive(id types.EntryID) bool {
	return s.counters[id].Sticky > 0
}

// SetCooldown arms the entry's suppression window. No-op for n <= 0.
func (s *State) SetCooldown(id types.EntryID, n int) {
	if n <= 0 {
		return
	}
	if s.counters == nil {
		s.counters = make(map[types.EntryID]ticks)
	}
	t := s.counters[id]
	t.Cooldown = n
	s.counters[id] = t
}

// RefreshSticky arms or extends the entry's persistence window, replacing
// any remaining count rather than stacking. No-op for n <= 0.
func (s *State) RefreshSticky(id types.EntryID, n int) {
	if n <= 0 {
		return
	}
	if s.counters == nil {
		s.counters = make(map[types.EntryID]ticks)
	}
	t := s.counters[id]
	t.Sticky = n
	s.counters[id] = t
}
