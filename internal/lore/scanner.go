// internal/lore/scanner.go
package lore

import (
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/pkeller/loregate/internal/types"
)

/*
 * One scan cycle over a book.
 *
 * Scan assembles four activation sources, in order:
 *   1. Constant entries (probability gate only).
 *   2. Sticky carry-overs from earlier cycles (probability gate; no text
 *      match required, counters not re-armed).
 *   3. Fresh text matches from the scan-eligible pool, each passing
 *      cooldown, delay, trigger evaluation, then probability. Activation
 *      arms the entry's cooldown and sticky counters.
 *   4. Recursive matches: the combined content of step-3 activations is
 *      re-scanned (minus exclude_recursion entries) up to the book's scan
 *      depth, threading the exclusion set through every level so A->B->A
 *      cycles cannot loop.
 *
 * Output sorts by order ascending, stable, so equal-order entries keep
 * discovery order. Only the State is mutated; the book is read-only for the
 * duration of a scan (structural changes concurrent with a scan must be
 * serialized by the caller).
 *
 * Randomness: the probability gate draws from the Scanner's own source.
 * NewScannerRand injects a seeded source for deterministic replays and tests.
 */

// Scanner evaluates scan cycles for one book and one session's State.
// Not safe for concurrent use.
type Scanner struct {
	book  *Book
	state *State
	rng   *rand.Rand
}

// NewScanner returns a scanner with a time-seeded random source. A nil
// state gets a fresh one.
func NewScanner(book *Book, state *State) *Scanner {
	return NewScannerRand(book, state, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewScannerRand returns a scanner drawing probability rolls from rng.
func NewScannerRand(book *Book, state *State, rng *rand.Rand) *Scanner {
	if state == nil {
		state = NewState()
	}
	return &Scanner{book: book, state: state, rng: rng}
}

// State returns the session state the scanner mutates.
func (s *Scanner) State() *State { return s.state }

// Scan opens a new cycle, advancing temporal counters, and returns the
// activated entries sorted by order.
func (s *Scanner) Scan(text string) []*Entry {
	return s.scan(text, true)
}

// ScanNoAdvance runs a cycle without consuming a tick. Previews must not
// age cooldowns or stickies.
func (s *Scanner) ScanNoAdvance(text string) []*Entry {
	return s.scan(text, false)
}

func (s *Scanner) scan(text string, advance bool) []*Entry {
	if advance {
		s.state.Advance()
	}

	var triggered []*Entry
	seen := make(map[types.EntryID]struct{})

	for _, e := range s.book.ConstantEntries() {
		if s.passesProbability(e) {
			triggered = append(triggered, e)
			seen[e.UID] = struct{}{}
		}
	}

	for _, e := range s.book.ActiveEntries() {
		if _, dup := seen[e.UID]; dup {
			continue
		}
		if s.state.IsStickyActive(e.UID) && s.passesProbability(e) {
			triggered = append(triggered, e)
			seen[e.UID] = struct{}{}
		}
	}

	fresh := s.scanText(text, seen)
	triggered = append(triggered, fresh...)
	for _, e := range fresh {
		seen[e.UID] = struct{}{}
	}

	if s.book.ScanDepth > 0 {
		triggered = append(triggered, s.recursiveScan(fresh, seen, 1)...)
	}

	sort.SliceStable(triggered, func(i, j int) bool {
		return triggered[i].Order < triggered[j].Order
	})
	return triggered
}

// scanText matches the scan-eligible pool against text, applying temporal
// and probability gates. Activations arm cooldown and sticky counters.
func (s *Scanner) scanText(text string, exclude map[types.EntryID]struct{}) []*Entry {
	var triggered []*Entry
	for _, e := range s.book.ActiveEntries() {
		if _, dup := exclude[e.UID]; dup {
			continue
		}
		if !s.passesTemporal(e) {
			continue
		}
		if !e.EvaluateTrigger(text) {
			continue
		}
		if !s.passesProbability(e) {
			continue
		}
		triggered = append(triggered, e)
		s.state.SetCooldown(e.UID, e.Cooldown)
		s.state.RefreshSticky(e.UID, e.Sticky)
	}
	return triggered
}

// recursiveScan re-scans the combined content of just-triggered entries for
// further matches. exclude accumulates activations across levels; each level
// scans only what the previous level found.
func (s *Scanner) recursiveScan(entries []*Entry, exclude map[types.EntryID]struct{}, depth int) []*Entry {
	if depth > s.book.ScanDepth {
		return nil
	}

	var combined strings.Builder
	for _, e := range entries {
		if e.ExcludeRecursion {
			continue
		}
		combined.WriteString(" ")
		combined.WriteString(e.Content)
	}
	if strings.TrimSpace(combined.String()) == "" {
		return nil
	}

	found := s.scanText(combined.String(), exclude)
	for _, e := range found {
		exclude[e.UID] = struct{}{}
	}

	result := found
	if len(found) > 0 && depth < s.book.ScanDepth {
		result = append(result, s.recursiveScan(found, exclude, depth+1)...)
	}
	return result
}

// passesTemporal gates on delay and cooldown. An entry with delay N cannot
// fire before the session's N-th scan.
func (s *Scanner) passesTemporal(e *Entry) bool {
	if e.Delay > 0 && s.state.MessageCount < e.Delay {
		return false
	}
	return !s.state.IsOnCooldown(e.UID)
}

// passesProbability draws the activation gate: 100 and above always fires,
// 0 and below never, otherwise a uniform roll in [1,100] against the
// configured percentage.
func (s *Scanner) passesProbability(e *Entry) bool {
	if e.Probability >= 100 {
		return true
	}
	if e.Probability <= 0 {
		return false
	}
	return s.rng.Intn(100)+1 <= e.Probability
}
