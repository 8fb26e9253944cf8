// Package api implements the lorebook service operations behind the HTTP API:
// scan cycles against per-session state, and book management on top of the
// store. A thin orchestration layer; all engine semantics live in lore.
package api

import (
	"fmt"
	"sync"
	"time"

	"github.com/pkeller/loregate/internal/core/config"
	"github.com/pkeller/loregate/internal/core/store"
	"github.com/pkeller/loregate/internal/lore"
)

// sessionTTL bounds how long an idle session keeps its temporal counters.
// Expired sessions are pruned lazily when new ones are created.
const sessionTTL = time.Hour

// sessionKey scopes scan state to one book and one caller-chosen session ID.
// The same session ID against two books never shares counters.
type sessionKey struct {
	book string
	id   string
}

// session holds one writing session's scan state. The mutex serializes scan
// cycles: State mutation is not concurrency-safe.
type session struct {
	mu       sync.Mutex
	state    *lore.State
	lastSeen time.Time
}

// Service wires the store and the session registry together.
type Service struct {
	store *store.Store
	cfg   *config.ServerConfig

	// mu guards both maps and every lastSeen stamp.
	mu       sync.Mutex
	sessions map[sessionKey]*session
	books    map[string]*sync.Mutex
}

// NewService creates the service with its dependencies.
func NewService(st *store.Store, cfg *config.ServerConfig) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	return &Service{
		store:    st,
		cfg:      cfg,
		sessions: make(map[sessionKey]*session),
		books:    make(map[string]*sync.Mutex),
	}, nil
}

// acquireSession returns the session for key, creating it if the registry has
// room. Scan state is in-memory only: a restart, eviction, or TTL expiry
// resets counters to a fresh session.
func (s *Service) acquireSession(key sessionKey) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[key]; ok {
		sess.lastSeen = time.Now()
		return sess, nil
	}

	s.pruneSessionsLocked()
	if len(s.sessions) >= s.cfg.MaxSessions {
		return nil, ErrSessionLimit
	}

	sess := &session{state: lore.NewState(), lastSeen: time.Now()}
	s.sessions[key] = sess
	return sess, nil
}

// pruneSessionsLocked drops sessions idle past sessionTTL. Caller holds s.mu.
func (s *Service) pruneSessionsLocked() {
	cutoff := time.Now().Add(-sessionTTL)
	for key, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, key)
		}
	}
}

// dropBookSessions removes every session scoped to the named book. Called on
// book deletion so stale counters cannot leak into a recreated book.
func (s *Service) dropBookSessions(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.sessions {
		if key.book == name {
			delete(s.sessions, key)
		}
	}
}

// SessionCount reports live sessions, expired ones included until pruned.
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// bookMutex returns the write lock for the named book, creating it on first
// use. Per-book locks serialize read-modify-write cycles (entry add/delete,
// group toggles) without stalling writers of unrelated books. The map grows
// by one entry per book name ever written (acceptable memory footprint).
func (s *Service) bookMutex(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[name]; !ok {
		s.books[name] = &sync.Mutex{}
	}
	return s.books[name]
}
