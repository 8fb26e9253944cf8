// Package store persists named lorebooks in the relational database.
//
// A book maps to one lorebooks row plus one lore_entries row per entry.
// Entry list order survives round-trips via the seq column; list-valued
// key fields are stored as JSON arrays.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pkeller/loregate/internal/core/db"
	"github.com/pkeller/loregate/internal/lore"
	"github.com/pkeller/loregate/internal/types"
)

// Store reads and writes lorebooks through the shared named-query set.
// Safe for concurrent use; every write runs in its own transaction.
type Store struct {
	queries *db.Queries
}

// New creates a store over loaded queries.
func New(queries *db.Queries) *Store {
	return &Store{queries: queries}
}

// BookInfo is a listing row: book name plus shape metadata.
type BookInfo struct {
	Name       string    `db:"name" json:"name"`
	ScanDepth  int       `db:"scan_depth" json:"scan_depth"`
	EntryCount int       `db:"entry_count" json:"entry_count"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

type entryRow struct {
	UID              string `db:"uid"`
	Keys             string `db:"keys"`
	SecondaryKeys    string `db:"secondary_keys"`
	Logic            string `db:"logic"`
	Content          string `db:"content"`
	Comment          string `db:"comment"`
	Constant         bool   `db:"constant"`
	Selective        bool   `db:"selective"`
	Disabled         bool   `db:"disabled"`
	SortOrder        int    `db:"sort_order"`
	InsertPosition   string `db:"insert_position"`
	InsertDepth      int    `db:"insert_depth"`
	Probability      int    `db:"probability"`
	GroupName        string `db:"group_name"`
	GroupWeight      int    `db:"group_weight"`
	Sticky           int    `db:"sticky"`
	Cooldown         int    `db:"cooldown"`
	Delay            int    `db:"delay"`
	ExcludeRecursion bool   `db:"exclude_recursion"`
}

// SaveBook upserts the book row and replaces its entries in one
// transaction. The book is validated first; invalid books never reach
// the database.
func (s *Store) SaveBook(name string, book *lore.Book) error {
	if name == "" {
		return fmt.Errorf("%w: empty book name", types.ErrInvalidBook)
	}
	if err := book.Validate(); err != nil {
		return err
	}

	tx, err := s.queries.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}

	now := time.Now().UTC()
	if _, err := s.queries.ExecTx(tx, "upsert-lorebook", name, book.ScanDepth, now, now); err != nil {
		tx.Rollback()
		return fmt.Errorf("upsert book %s: %w", name, err)
	}

	if _, err := s.queries.ExecTx(tx, "delete-book-entries", name); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear entries for %s: %w", name, err)
	}

	for i, e := range book.Entries {
		keys, err := marshalStrings(e.Keys)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encode keys for %s: %w", e.UID, err)
		}
		secondary, err := marshalStrings(e.SecondaryKeys)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encode secondary keys for %s: %w", e.UID, err)
		}

		_, err = s.queries.ExecTx(tx, "insert-entry",
			name, string(e.UID), i,
			keys, secondary, string(e.Logic),
			e.Content, e.Comment,
			e.Constant, e.Selective, e.Disabled,
			e.Order, string(e.Position), e.Depth,
			e.Probability, e.Group, e.GroupWeight,
			e.Sticky, e.Cooldown, e.Delay, e.ExcludeRecursion,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert entry %s: %w", e.UID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save of %s: %w", name, err)
	}
	return nil
}

// LoadBook reassembles a stored book, entries in their original order.
// Returns types.ErrBookNotFound for unknown names.
func (s *Store) LoadBook(name string) (*lore.Book, error) {
	var row struct {
		Name      string    `db:"name"`
		ScanDepth int       `db:"scan_depth"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	err := s.queries.Get("get-lorebook", &row, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", types.ErrBookNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load book %s: %w", name, err)
	}

	var rows []entryRow
	if err := s.queries.Select("list-entries", &rows, name); err != nil {
		return nil, fmt.Errorf("load entries for %s: %w", name, err)
	}

	book := &lore.Book{Entries: make([]*lore.Entry, 0, len(rows)), ScanDepth: row.ScanDepth}
	for _, r := range rows {
		e, err := r.toEntry()
		if err != nil {
			return nil, fmt.Errorf("decode entry %s in %s: %w", r.UID, name, err)
		}
		book.Entries = append(book.Entries, e)
	}

	if err := book.Validate(); err != nil {
		return nil, fmt.Errorf("stored book %s: %w", name, err)
	}
	return book, nil
}

// ListBooks returns metadata for every stored book, ordered by name.
func (s *Store) ListBooks() ([]BookInfo, error) {
	var infos []BookInfo
	if err := s.queries.Select("list-lorebooks", &infos); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return infos, nil
}

// DeleteBook removes a book and its entries. Returns
// types.ErrBookNotFound for unknown names.
func (s *Store) DeleteBook(name string) error {
	tx, err := s.queries.Begin()
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}

	if _, err := s.queries.ExecTx(tx, "delete-book-entries", name); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete entries for %s: %w", name, err)
	}

	res, err := s.queries.ExecTx(tx, "delete-lorebook", name)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("delete book %s: %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("delete book %s: %w", name, err)
	}
	if affected == 0 {
		tx.Rollback()
		return fmt.Errorf("%w: %s", types.ErrBookNotFound, name)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete of %s: %w", name, err)
	}
	return nil
}

func (r entryRow) toEntry() (*lore.Entry, error) {
	keys, err := unmarshalStrings(r.Keys)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	secondary, err := unmarshalStrings(r.SecondaryKeys)
	if err != nil {
		return nil, fmt.Errorf("secondary keys: %w", err)
	}

	return &lore.Entry{
		UID:              types.EntryID(r.UID),
		Keys:             keys,
		SecondaryKeys:    secondary,
		Logic:            lore.LogicGate(r.Logic),
		Content:          r.Content,
		Comment:          r.Comment,
		Constant:         r.Constant,
		Selective:        r.Selective,
		Disabled:         r.Disabled,
		Order:            r.SortOrder,
		Position:         lore.Position(r.InsertPosition),
		Depth:            r.InsertDepth,
		Probability:      r.Probability,
		Group:            r.GroupName,
		GroupWeight:      r.GroupWeight,
		Sticky:           r.Sticky,
		Cooldown:         r.Cooldown,
		Delay:            r.Delay,
		ExcludeRecursion: r.ExcludeRecursion,
	}, nil
}

// marshalStrings encodes a key list as a JSON array, nil as [].
func marshalStrings(ss []string) (string, error) {
	if ss == nil {
		ss = []string{}
	}
	data, err := json.Marshal(ss)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unmarshalStrings decodes a JSON array column, treating empty and null
// as an empty list.
func unmarshalStrings(s string) ([]string, error) {
	out := []string{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
