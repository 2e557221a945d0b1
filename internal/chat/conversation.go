package chat

import "sync"

// Conversation is an append-only sequence of turns owned by one session.
// Readers get deep copies, so earlier turns can never be changed in place.
type Conversation struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewConversation returns a conversation seeded with turns, e.g. from a store.
func NewConversation(turns ...Turn) *Conversation {
	return &Conversation{turns: CloneTurns(turns)}
}

// Append adds turns at the end. Several turns are appended atomically.
func (c *Conversation) Append(turns ...Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range turns {
		c.turns = append(c.turns, t.Clone())
	}
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.turns)
}

// Snapshot returns a deep copy of all turns.
func (c *Conversation) Snapshot() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CloneTurns(c.turns)
}

// Last returns the final turn.
func (c *Conversation) Last() (Turn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return c.turns[len(c.turns)-1].Clone(), true
}

// Reset drops every turn. Used for an explicit new conversation.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = nil
}
