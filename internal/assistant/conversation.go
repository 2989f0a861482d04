package assistant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	Greeting = "Hi! I can help you understand weather conditions. Ask me anything!"

	// MaxMessages bounds the transcript; the oldest messages are dropped first.
	MaxMessages = 200
)

// Message is one line of the chat transcript.
type Message struct {
	ID      uuid.UUID `json:"id"`
	Text    string    `json:"text"`
	FromBot bool      `json:"fromBot"`
	At      time.Time `json:"at"`
}

// Conversation is a chat transcript backed by an Assistant.
type Conversation struct {
	assistant *Assistant
	now       func() time.Time

	// sendMu keeps each question next to its reply.
	sendMu sync.Mutex

	mu       sync.RWMutex
	messages []Message
}

// NewConversation starts a transcript seeded with the greeting.
func NewConversation(a *Assistant) *Conversation {
	c := &Conversation{assistant: a, now: time.Now}
	c.messages = []Message{c.newMessage(Greeting, true)}
	return c
}

// Send records text, asks the assistant and records the reply. Concurrent sends
// wait for the reply in progress, as the chat accepts one question at a time.
func (c *Conversation) Send(ctx context.Context, text string) (Message, Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, Message{}, weather.ErrEmptyInput
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	question := c.newMessage(text, false)
	c.append(question)

	reply := c.newMessage(c.assistant.Respond(ctx, text), true)
	c.append(reply)

	return question, reply, nil
}

// Messages returns a copy of the transcript, oldest first.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) append(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, m)
	if over := len(c.messages) - MaxMessages; over > 0 {
		c.messages = c.messages[over:]
	}
}

func (c *Conversation) newMessage(text string, fromBot bool) Message {
	return Message{
		ID:      uuid.New(),
		Text:    text,
		FromBot: fromBot,
		At:      c.now().UTC(),
	}
}
