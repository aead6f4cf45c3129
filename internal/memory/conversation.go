package memory

import "sync"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of the conversation log.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is an in-memory, append-only message buffer. It is not
// persisted.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
}

func NewConversation() *Conversation {
	return &Conversation{}
}

func (c *Conversation) Add(role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{Role: role, Content: content})
}

// Messages returns a copy of the log.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message{}, c.messages...)
}

func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}
