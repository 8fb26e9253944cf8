package types

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// idLength is the hex-character width of every generated identifier.
const idLength = 8

// newHexID derives a random 8-character hex string from the leading
// bytes of a UUIDv4, which are fully random.
func newHexID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:idLength/2])
}

// NewEntryID generates a random lore entry identifier.
func NewEntryID() EntryID { return EntryID(newHexID()) }

// NewCharacterID generates a random character identifier.
func NewCharacterID() CharacterID { return CharacterID(newHexID()) }

// NewSceneID generates a random scene identifier.
func NewSceneID() SceneID { return SceneID(newHexID()) }

// NewChapterID generates a random chapter identifier.
func NewChapterID() ChapterID { return ChapterID(newHexID()) }

// ParseEntryID validates and converts a string to EntryID.
// Rejects anything but 8 lowercase hex characters so malformed IDs
// never enter a book.
func ParseEntryID(s string) (EntryID, error) {
	if len(s) != idLength {
		return "", fmt.Errorf("entry id %q: want %d characters, got %d", s, idLength, len(s))
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("entry id %q: invalid character %q", s, c)
		}
	}
	return EntryID(s), nil
}
