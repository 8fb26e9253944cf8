// internal/lore/book.go
package lore

import (
	"encoding/json"
	"fmt"

	"github.com/pkeller/loregate/internal/types"
)

// UngroupedLabel is the sentinel bucket for entries without a group tag.
const UngroupedLabel = "(ungrouped)"

// Book is an ordered collection of lore entries plus the recursion budget
// for scanning. Insertion order is preserved by every mutation; priority
// ordering applies only to scan output.
type Book struct {
	Entries   []*Entry `json:"entries"`
	ScanDepth int      `json:"scan_depth"`
}

// NewBook returns an empty book with the default recursion budget.
func NewBook() *Book {
	return &Book{Entries: []*Entry{}, ScanDepth: types.DefaultScanDepth}
}

// UnmarshalJSON decodes over defaults so a book that omits scan_depth loads
// with the standard recursion budget.
func (b *Book) UnmarshalJSON(data []byte) error {
	type plain Book
	tmp := plain{Entries: []*Entry{}, ScanDepth: types.DefaultScanDepth}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*b = Book(tmp)
	return nil
}

// ParseBook decodes and validates a serialized book. Failures wrap
// types.ErrInvalidBook so callers can distinguish corrupt data from an
// empty book, which is valid and produces no activations.
func ParseBook(data []byte) (*Book, error) {
	var b Book
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidBook, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidBook, err)
	}
	return &b, nil
}

// Encode serializes the book for persistence. Indented: lorebooks are
// hand-edited.
func (b *Book) Encode() ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// Validate checks scan depth bounds, per-entry ranges, and uid uniqueness.
func (b *Book) Validate() error {
	if b.ScanDepth < 0 || b.ScanDepth > types.MaxScanDepth {
		return fmt.Errorf("%w: scan depth %d outside [0,%d]", types.ErrInvalidBook, b.ScanDepth, types.MaxScanDepth)
	}
	seen := make(map[types.EntryID]struct{}, len(b.Entries))
	for _, e := range b.Entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("entry %s: %w", e.UID, err)
		}
		if _, dup := seen[e.UID]; dup {
			return fmt.Errorf("%w: %s", types.ErrDuplicateEntry, e.UID)
		}
		seen[e.UID] = struct{}{}
	}
	return nil
}

// Add appends an entry, assigning a fresh ID when it has none. Returns
// types.ErrDuplicateEntry when the ID is already present.
func (b *Book) Add(e *Entry) (types.EntryID, error) {
	if e.UID == "" {
		e.UID = types.NewEntryID()
	}
	if _, exists := b.Entry(e.UID); exists {
		return "", fmt.Errorf("%w: %s", types.ErrDuplicateEntry, e.UID)
	}
	b.Entries = append(b.Entries, e)
	return e.UID, nil
}

// Entry returns the entry with the given ID.
func (b *Book) Entry(id types.EntryID) (*Entry, bool) {
	for _, e := range b.Entries {
		if e.UID == id {
			return e, true
		}
	}
	return nil, false
}

// Delete removes the entry with the given ID, preserving the order of the
// remaining entries. Reports whether an entry was removed.
func (b *Book) Delete(id types.EntryID) bool {
	for i, e := range b.Entries {
		if e.UID == id {
			b.Entries = append(b.Entries[:i], b.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// ByGroup returns all entries with exactly the given group tag, regardless
// of disabled or constant status.
func (b *Book) ByGroup(group string) []*Entry {
	var out []*Entry
	for _, e := range b.Entries {
		if e.Group == group {
			out = append(out, e)
		}
	}
	return out
}

// Groups returns entry counts per group. Entries without a group count
// under UngroupedLabel.
func (b *Book) Groups() map[string]int {
	groups := make(map[string]int)
	for _, e := range b.Entries {
		name := e.Group
		if name == "" {
			name = UngroupedLabel
		}
		groups[name]++
	}
	return groups
}

// SetGroupDisabled toggles every entry in the group and returns the number
// of entries affected.
func (b *Book) SetGroupDisabled(group string, disabled bool) int {
	count := 0
	for _, e := range b.Entries {
		if e.Group == group {
			e.Disabled = disabled
			count++
		}
	}
	return count
}

// ConstantEntries returns the always-on entries: constant and not disabled.
func (b *Book) ConstantEntries() []*Entry {
	var out []*Entry
	for _, e := range b.Entries {
		if e.Constant && !e.Disabled {
			out = append(out, e)
		}
	}
	return out
}

// ActiveEntries returns the scan-eligible pool: not constant, not disabled.
func (b *Book) ActiveEntries() []*Entry {
	var out []*Entry
	for _, e := range b.Entries {
		if !e.Constant && !e.Disabled {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of entries, disabled included.
func (b *Book) Len() int { return len(b.Entries) }
