package types

import "errors"

// Sentinel errors for Loregate operations.
var (
	// ErrInvalidBook indicates serialized book data that is corrupt or
	// violates store invariants. Distinct from an empty book, which is valid.
	ErrInvalidBook = errors.New("invalid lore book")

	// ErrInvalidEntry indicates an entry field outside its legal range.
	ErrInvalidEntry = errors.New("invalid lore entry")

	// ErrDuplicateEntry indicates an entry ID already present in the book.
	ErrDuplicateEntry = errors.New("duplicate entry id")

	// ErrBookNotFound indicates the named book does not exist in the store.
	ErrBookNotFound = errors.New("book not found")

	// ErrEntryNotFound indicates the entry ID does not exist in the book.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrGroupNotFound indicates no entry in the book carries the group tag.
	ErrGroupNotFound = errors.New("group not found")

	// ErrScanTextTooLarge indicates scan input exceeds MaxScanTextSize.
	ErrScanTextTooLarge = errors.New("scan text exceeds maximum size")

	// ErrInvalidBible indicates a story bible file that is corrupt or
	// fails validation on load.
	ErrInvalidBible = errors.New("invalid story bible")

	// ErrInvalidOutline indicates an outline file that is corrupt or
	// fails validation on load.
	ErrInvalidOutline = errors.New("invalid outline")

	// ErrSceneNotFound indicates the scene ID does not exist in the outline.
	ErrSceneNotFound = errors.New("scene not found")

	// ErrNoActiveChapter indicates a chapter operation with no chapter selected.
	ErrNoActiveChapter = errors.New("no active chapter")

	// ErrNotInitialized indicates a project directory without a story bible.
	ErrNotInitialized = errors.New("project not initialized")
)
