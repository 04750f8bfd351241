package advisor

import (
	"sync"

	"github.com/nhle/financeai/internal/model"
)

// defaultMaxMessages bounds the in-memory conversation.
const defaultMaxMessages = 50

// Conversation is an ordered advisor transcript that drops the oldest
// turns once it grows past its limit.
type Conversation struct {
	mu          sync.Mutex
	messages    []model.ChatMessage
	maxMessages int
}

// NewConversation creates a conversation holding at most maxMessages
// turns. A non-positive limit uses the default.
func NewConversation(maxMessages int) *Conversation {
	if maxMessages <= 0 {
		maxMessages = defaultMaxMessages
	}
	return &Conversation{
		messages:    make([]model.ChatMessage, 0, 16),
		maxMessages: maxMessages,
	}
}

// Add appends msg, trimming from the front when over the limit.
func (c *Conversation) Add(msg model.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages, msg)
	if excess := len(c.messages) - c.maxMessages; excess > 0 {
		c.messages = append(c.messages[:0:0], c.messages[excess:]...)
	}
}

// Replace swaps the transcript for msgs (e.g. history loaded from disk).
func (c *Conversation) Replace(msgs []model.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = append(c.messages[:0], msgs...)
	if excess := len(c.messages) - c.maxMessages; excess > 0 {
		c.messages = append(c.messages[:0:0], c.messages[excess:]...)
	}
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]model.ChatMessage, len(c.messages))
	copy(result, c.messages)
	return result
}

// Reset clears the transcript.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.messages = c.messages[:0]
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.messages)
}
