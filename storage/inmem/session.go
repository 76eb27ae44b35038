package inmemdb

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/marksboard/core/portal"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrStoreClosed     = errors.New("session store closed")

	nowFunc = time.Now // mockable
)

type session struct {
	shell     *portal.Shell
	expiresAt time.Time
}

// SessionStore keeps the portal shell of every browser session in memory.
// Sessions expire after `ttl` without activity. Nothing is persisted.
type SessionStore struct {
	ttl      time.Duration
	newShell func() *portal.Shell

	mutex  sync.RWMutex
	table  map[string]*session
	closed bool

	stop     chan struct{}
	stopOnce sync.Once
	sweeping sync.WaitGroup
}

func NewSessionStore(ttl time.Duration, newShell func() *portal.Shell) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		newShell: newShell,
		table:    make(map[string]*session),
		stop:     make(chan struct{}),
	}
}

// Create starts a new session and returns its ID.
// No session can be created once the store is closed.
func (s *SessionStore) Create() (string, *portal.Shell, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.closed {
		return "", nil, ErrStoreClosed
	}

	id := uuid.New().String()
	shell := s.newShell()
	s.table[id] = &session{shell: shell, expiresAt: nowFunc().Add(s.ttl)}
	return id, shell, nil
}

// Get returns the shell of the session `id` and extends its lifetime.
func (s *SessionStore) Get(id string) (*portal.Shell, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	sess, ok := s.table[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := nowFunc()
	if !now.Before(sess.expiresAt) {
		delete(s.table, id)
		sess.shell.Close()
		return nil, ErrSessionNotFound
	}
	sess.expiresAt = now.Add(s.ttl)
	return sess.shell, nil
}

// Delete ends the session `id`, if it exists.
func (s *SessionStore) Delete(id string) {
	s.mutex.Lock()
	sess, ok := s.table[id]
	delete(s.table, id)
	s.mutex.Unlock()

	if ok {
		sess.shell.Close()
	}
}

func (s *SessionStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.table)
}

// Sweep ends the expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	now := nowFunc()
	var expired []*session

	s.mutex.Lock()
	for id, sess := range s.table {
		if !now.Before(sess.expiresAt) {
			expired = append(expired, sess)
			delete(s.table, id)
		}
	}
	s.mutex.Unlock()

	for _, sess := range expired {
		sess.shell.Close()
	}
	return len(expired)
}

// StartSweeper sweeps the expired sessions every `interval` until Close is called.
func (s *SessionStore) StartSweeper(interval time.Duration) {
	s.sweeping.Add(1)
	go func() {
		defer s.sweeping.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Close stops the sweeper and ends every session.
func (s *SessionStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.sweeping.Wait()

	s.mutex.Lock()
	sessions := s.table
	s.table = make(map[string]*session)
	s.closed = true
	s.mutex.Unlock()

	for _, sess := range sessions {
		sess.shell.Close()
	}
}
