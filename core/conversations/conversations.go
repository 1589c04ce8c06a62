// Package conversations holds the message log shared by the grounded chat,
// media analysis, and live session surfaces.
package conversations

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind records which surface produced a message.
type Kind string

const (
	KindChat     Kind = "chat"
	KindLive     Kind = "live"
	KindAnalysis Kind = "analysis"
)

// GroundingSource is one web citation attached to a grounded response.
type GroundingSource struct {
	Title string
	URI   string
}

// MessageV0 is one finalised entry in a conversation. Messages are immutable
// once appended.
type MessageV0 struct {
	ID        string
	Role      Role
	Kind      Kind
	Text      string
	Timestamp time.Time

	// Grounding is populated only on assistant chat messages whose response
	// cited web sources.
	Grounding []GroundingSource
}

func NewMessage(role Role, kind Kind, text string) MessageV0 {
	return MessageV0{
		ID:        uuid.NewString(),
		Role:      role,
		Kind:      kind,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// ActiveContextV0 exposes a read-only view of a conversation for handlers
// that must not mutate it.
type ActiveContextV0 interface {
	// Past messages only. Ordering: oldest -> newest.
	History() []MessageV0
}

// Conversation is an append-only, concurrency-safe message log.
type Conversation struct {
	mu       sync.RWMutex
	messages []MessageV0
}

var _ ActiveContextV0 = (*Conversation)(nil)

func (c *Conversation) Append(msg MessageV0) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msg)
}

// History returns a deep copy of the log so callers can hold it across later
// appends.
func (c *Conversation) History() []MessageV0 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	history := []MessageV0{}
	if err := copier.CopyWithOption(&history, &c.messages, copier.Option{DeepCopy: true}); err != nil {
		history = make([]MessageV0, len(c.messages))
		copy(history, c.messages)
		for i := range history {
			history[i].Grounding = append([]GroundingSource(nil), history[i].Grounding...)
		}
	}
	return history
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.messages)
}
