package entity

import "sync"

// Session is the conversation state of one user. Callers must hold the
// session lock (see SessionStore.With) before reading or mutating it.
type Session struct {
	ID       string
	Messages []Message
	Images   []string

	mu sync.Mutex
}

func NewSession(id string) *Session {
	return &Session{ID: id}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

func (s *Session) AddUserMessage(content string) {
	s.Messages = append(s.Messages, NewMessage(RoleUser, content))
}

func (s *Session) AddAssistantMessage(content string) {
	s.Messages = append(s.Messages, NewMessage(RoleAssistant, content))
}

// AddImage appends a base64-encoded PNG.
func (s *Session) AddImage(base64Image string) {
	s.Images = append(s.Images, base64Image)
}

// LatestImage returns the most recently added image.
func (s *Session) LatestImage() (string, bool) {
	if len(s.Images) == 0 {
		return "", false
	}
	return s.Images[len(s.Images)-1], true
}
