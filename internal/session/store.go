// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session tracks upload-process-download cycles in memory. Each
// session owns a directory under the work dir for its files; sessions
// and their directories are removed by explicit cleanup or the TTL
// sweeper. Nothing survives a restart.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/camera-ready/pkg/types"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// now is a test substitution point.
var now = time.Now

// Store is the in-memory session table. Safe for concurrent use; all
// accessors work on copies so callers never share mutable state.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session
	baseDir  string
}

// NewStore returns a store rooting session directories at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{
		sessions: make(map[string]*types.Session),
		baseDir:  baseDir,
	}
}

// New creates a session with the given settings, an 8-character id and
// a fresh directory.
func (s *Store) New(settings types.Settings) (types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var id string
	for {
		id = uuid.NewString()[:8]
		if _, taken := s.sessions[id]; !taken {
			break
		}
	}

	if err := os.MkdirAll(s.dir(id), 0o755); err != nil {
		return types.Session{}, fmt.Errorf("creating session directory: %w", err)
	}

	ts := now()
	sess := &types.Session{
		ID:        id,
		Status:    types.StatusUploaded,
		Settings:  settings,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	s.sessions[id] = sess
	return *sess, nil
}

// Get returns a copy of the session.
func (s *Store) Get(id string) (types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return types.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *sess, nil
}

// Update applies fn to the session under the write lock and stamps
// UpdatedAt. It returns the resulting state.
func (s *Store) Update(id string, fn func(*types.Session)) (types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return types.Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(sess)
	sess.UpdatedAt = now()
	return *sess, nil
}

// Delete removes the session and its directory.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.sessions, id)

	if err := os.RemoveAll(s.dir(id)); err != nil {
		return fmt.Errorf("removing session files: %w", err)
	}
	return nil
}

// Sweep removes sessions idle longer than ttl, with their directories,
// and returns the removed ids.
func (s *Store) Sweep(ttl time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now().Add(-ttl)
	var removed []string
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			os.RemoveAll(s.dir(id))
			removed = append(removed, id)
		}
	}
	return removed
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Dir returns the directory holding the session's files.
func (s *Store) Dir(id string) string {
	return s.dir(id)
}

func (s *Store) dir(id string) string {
	return filepath.Join(s.baseDir, id)
}
