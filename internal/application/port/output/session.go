package output

import "qutebrowser-agent/internal/domain/entity"

type SessionStore interface {
	Create() string
	Get(id string) (*entity.Session, error)
	// With runs fn while holding the session lock.
	With(id string, fn func(*entity.Session) error) error
	Remove(id string) error
	Len() int
}
