package api

import (
	"context"
	"fmt"

	"github.com/pkeller/loregate/internal/lore"
	"github.com/pkeller/loregate/internal/types"
)

// maxReplayMessages caps the history a single scan request may replay.
// Prevents one request from holding a session lock through an unbounded
// replay loop.
const maxReplayMessages = 200

// ScanRequest is one scan cycle against a stored book.
//
// Messages replay prior history in order before the final text is scanned;
// each replayed message advances the session clock so delay, cooldown, and
// sticky counters land where a live session would have put them. Advance
// controls only the final scan: omitted or true consumes a tick, false is a
// preview that leaves counters untouched.
type ScanRequest struct {
	Book     string   `json:"book"`
	Session  string   `json:"session,omitempty"`
	Text     string   `json:"text"`
	Messages []string `json:"messages,omitempty"`
	Advance  *bool    `json:"advance,omitempty"`
}

// ScanResponse reports the activated entries in injection order plus their
// formatted payload.
type ScanResponse struct {
	Book      string        `json:"book"`
	Session   string        `json:"session,omitempty"`
	Activated []*lore.Entry `json:"activated"`
	Payload   string        `json:"payload"`
}

// Scan loads the named book, replays any history, and runs one scan cycle.
// Without a session ID the scan is stateless: counters start fresh and are
// discarded with the response.
func (s *Service) Scan(ctx context.Context, req ScanRequest) (*ScanResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Book == "" {
		return nil, fmt.Errorf("%w: book is required", ErrValidation)
	}
	if len(req.Messages) > maxReplayMessages {
		return nil, fmt.Errorf("%w: %d replay messages exceeds maximum of %d", ErrValidation, len(req.Messages), maxReplayMessages)
	}
	if len(req.Text) > s.cfg.MaxScanTextSize {
		return nil, fmt.Errorf("%w: text is %d bytes (limit %d)", types.ErrScanTextTooLarge, len(req.Text), s.cfg.MaxScanTextSize)
	}
	for i, msg := range req.Messages {
		if len(msg) > s.cfg.MaxScanTextSize {
			return nil, fmt.Errorf("%w: message %d is %d bytes (limit %d)", types.ErrScanTextTooLarge, i, len(msg), s.cfg.MaxScanTextSize)
		}
	}

	book, err := s.store.LoadBook(req.Book)
	if err != nil {
		return nil, err
	}

	state := lore.NewState()
	if req.Session != "" {
		sess, err := s.acquireSession(sessionKey{book: req.Book, id: req.Session})
		if err != nil {
			return nil, err
		}
		sess.mu.Lock()
		defer sess.mu.Unlock()
		state = sess.state
	}

	scanner := lore.NewScanner(book, state)
	for _, msg := range req.Messages {
		scanner.Scan(msg)
	}

	var activated []*lore.Entry
	if req.Advance == nil || *req.Advance {
		activated = scanner.Scan(req.Text)
	} else {
		activated = scanner.ScanNoAdvance(req.Text)
	}
	if activated == nil {
		activated = []*lore.Entry{}
	}

	return &ScanResponse{
		Book:      req.Book,
		Session:   req.Session,
		Activated: activated,
		Payload:   lore.FormatEntries(activated),
	}, nil
}
