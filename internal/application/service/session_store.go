package service

import (
	"sync"

	"qutebrowser-agent/internal/application/port/output"
	"qutebrowser-agent/internal/domain/entity"

	"github.com/google/uuid"
)

var _ output.SessionStore = (*SessionStoreImpl)(nil)

// SessionStoreImpl guards the id→session map with one mutex; each session
// carries its own lock so distinct sessions can run concurrently.
type SessionStoreImpl struct {
	mu       sync.Mutex
	sessions map[string]*entity.Session
	newID    func() string
}

func NewSessionStore() *SessionStoreImpl {
	return &SessionStoreImpl{
		sessions: make(map[string]*entity.Session),
		newID:    uuid.NewString,
	}
}

func (s *SessionStoreImpl) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for s.sessions[id] != nil {
		id = s.newID()
	}
	s.sessions[id] = entity.NewSession(id)
	return id
}

func (s *SessionStoreImpl) Get(id string) (*entity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStoreImpl) With(id string, fn func(*entity.Session) error) error {
	session, err := s.Get(id)
	if err != nil {
		return err
	}

	session.Lock()
	defer session.Unlock()

	// Removed while we were waiting for the lock.
	if !s.contains(id, session) {
		return entity.ErrSessionNotFound
	}

	return fn(session)
}

// Remove detaches the session and waits for any in-flight operation on it
// to finish.
func (s *SessionStoreImpl) Remove(id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return entity.ErrSessionNotFound
	}

	session.Lock()
	session.Unlock()
	return nil
}

func (s *SessionStoreImpl) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStoreImpl) contains(id string, session *entity.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id] == session
}
