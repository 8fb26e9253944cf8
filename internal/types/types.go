// Package types provides domain primitives shared across Loregate components.
//
// Zero-dependency design: types.go and errors.go use only the standard library
// so that embedding packages (the lore engine, the prompt assembler) stay free
// of transitive deps. ID utilities in ids.go import uuid but are isolated for
// selective inclusion.
package types

// EntryID identifies a lore entry within a book.
// String alias enables type safety while maintaining JSON string serialization.
// IDs are 8 lowercase hex characters; short enough to type in a CLI, wide
// enough (32 bits) that collisions within a single book are negligible.
type EntryID string

// CharacterID identifies a character in a story bible.
// Same 8-hex shape as EntryID but a distinct type: a character id must
// never be handed to a lore lookup by accident.
type CharacterID string

// SceneID identifies a scene in an outline.
type SceneID string

// ChapterID identifies a chapter in a bible's chapter map.
type ChapterID string

// Resource limits and defaults enforced across the engine and its services.
const (
	// MaxScanDepth caps recursive re-scan passes. Each level scans the text
	// produced by the previous level's activations; 5 levels bounds worst-case
	// work on pathological mutually-triggering books.
	MaxScanDepth = 5

	// DefaultScanDepth is the recursion budget assigned to new books.
	// One re-scan pass covers the common "entry mentions another entry" case.
	DefaultScanDepth = 2

	// DefaultOrder is the insertion priority assigned to new entries.
	// Mid-range so authors can slot entries both before and after defaults.
	DefaultOrder = 100

	// DefaultProbability is the activation chance assigned to new entries.
	// 100 means deterministic activation; authors opt in to randomness.
	DefaultProbability = 100

	// DefaultInsertDepth is how many paragraphs from the end of the prompt
	// depth-positioned text (lore entries, author notes) is inserted.
	// 4 keeps it close to the generation point without displacing the
	// final exchange.
	DefaultInsertDepth = 4

	// MaxScanTextSize limits scan request bodies to prevent OOM during
	// recursive scanning. 1MB covers any realistic context window.
	MaxScanTextSize = 1024 * 1024
)
