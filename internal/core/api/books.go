package api

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/pkeller/loregate/internal/core/store"
	"github.com/pkeller/loregate/internal/lore"
	"github.com/pkeller/loregate/internal/types"
)

// SaveBook validates and persists a book under the given name, replacing any
// existing version wholesale.
func (s *Service) SaveBook(name string, book *lore.Book) error {
	if name == "" {
		return fmt.Errorf("%w: book name is required", ErrValidation)
	}
	mu := s.bookMutex(name)
	mu.Lock()
	defer mu.Unlock()
	return s.store.SaveBook(name, book)
}

// GetBook loads a book and its content-addressable ETag. The same entries in
// the same order always hash to the same tag, so clients can poll cheaply
// with If-None-Match.
func (s *Service) GetBook(name string) (*lore.Book, string, error) {
	book, err := s.store.LoadBook(name)
	if err != nil {
		return nil, "", err
	}
	etag, err := BookETag(book)
	if err != nil {
		return nil, "", err
	}
	return book, etag, nil
}

// ListBooks returns summary rows for every stored book.
func (s *Service) ListBooks() ([]store.BookInfo, error) {
	return s.store.ListBooks()
}

// DeleteBook removes the book and every session scoped to it.
func (s *Service) DeleteBook(name string) error {
	mu := s.bookMutex(name)
	mu.Lock()
	defer mu.Unlock()

	if err := s.store.DeleteBook(name); err != nil {
		return err
	}
	s.dropBookSessions(name)
	return nil
}

// AddEntry appends an entry to the named book and persists the result.
// Validation happens on save: a rejected entry leaves the stored book
// untouched.
func (s *Service) AddEntry(name string, e *lore.Entry) (types.EntryID, error) {
	mu := s.bookMutex(name)
	mu.Lock()
	defer mu.Unlock()

	book, err := s.store.LoadBook(name)
	if err != nil {
		return "", err
	}
	uid, err := book.Add(e)
	if err != nil {
		return "", err
	}
	if err := s.store.SaveBook(name, book); err != nil {
		return "", err
	}
	return uid, nil
}

// DeleteEntry removes one entry from the named book.
func (s *Service) DeleteEntry(name string, uid types.EntryID) error {
	mu := s.bookMutex(name)
	mu.Lock()
	defer mu.Unlock()

	book, err := s.store.LoadBook(name)
	if err != nil {
		return err
	}
	if !book.Delete(uid) {
		return fmt.Errorf("%w: %s", types.ErrEntryNotFound, uid)
	}
	return s.store.SaveBook(name, book)
}

// Groups returns entry counts per group tag for the named book.
func (s *Service) Groups(name string) (map[string]int, error) {
	book, err := s.store.LoadBook(name)
	if err != nil {
		return nil, err
	}
	return book.Groups(), nil
}

// SetGroupDisabled toggles every entry in the group and persists the result,
// reporting how many entries changed.
func (s *Service) SetGroupDisabled(name, group string, disabled bool) (int, error) {
	mu := s.bookMutex(name)
	mu.Lock()
	defer mu.Unlock()

	book, err := s.store.LoadBook(name)
	if err != nil {
		return 0, err
	}
	affected := book.SetGroupDisabled(group, disabled)
	if affected == 0 {
		return 0, fmt.Errorf("%w: %s", types.ErrGroupNotFound, group)
	}
	if err := s.store.SaveBook(name, book); err != nil {
		return 0, err
	}
	return affected, nil
}

// BookETag computes a content-addressable hash of the book. Identical content
// always produces the same tag; any entry edit, reorder, or scan-depth change
// produces a new one.
func BookETag(b *lore.Book) (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("hash book: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}
