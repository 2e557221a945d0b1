package agent

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"radsim/internal/chat"
	"radsim/internal/logging"
)

// Session is one conversation, optionally persisted to a store.
type Session struct {
	mu    sync.RWMutex
	id    string
	conv  *chat.Conversation
	store *chat.Store
}

// NewSession starts an empty session. store may be nil.
func NewSession(store *chat.Store) *Session {
	return &Session{
		id:    uuid.New().String(),
		conv:  chat.NewConversation(),
		store: store,
	}
}

// ResumeSession continues the most recently active session in store, or
// starts a new one when the store is empty.
func ResumeSession(store *chat.Store) (*Session, error) {
	id, turns, err := store.LoadLast()
	if errors.Is(err, chat.ErrNoSession) {
		return NewSession(store), nil
	}
	if err != nil {
		return nil, err
	}
	return &Session{id: id, conv: chat.NewConversation(turns...), store: store}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Turns returns a copy of the conversation.
func (s *Session) Turns() []chat.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conv.Snapshot()
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conv.Len()
}

// Reset starts a new conversation under a new ID. The previous session
// stays in the store.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = uuid.New().String()
	s.conv = chat.NewConversation()
}

// append adds turns in memory and persists them. A store failure is logged,
// not returned: the in-memory conversation stays authoritative for the turn.
func (s *Session) append(turns ...chat.Turn) {
	s.mu.Lock()
	s.conv.Append(turns...)
	id, store := s.id, s.store
	s.mu.Unlock()

	if store == nil {
		return
	}
	if err := store.Append(id, turns...); err != nil {
		logging.Warn("failed to persist turns", "session", id, "error", err)
	}
}
