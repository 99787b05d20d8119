package chat

import "time"

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DocLink points at a documentation page referenced by an answer.
type DocLink struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Meta carries the answer attributes returned by the backend alongside
// the assistant's text.
type Meta struct {
	Confidence float64   `json:"confidence"`
	IsSAPAI    bool      `json:"isSapAi"`
	Services   []string  `json:"services,omitempty"`
	Links      []DocLink `json:"links,omitempty"`
	Pipeline   []string  `json:"pipeline,omitempty"`
}

// Message is a single turn in a conversation. Messages are immutable once
// appended to the store.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	Meta      *Meta     `json:"meta,omitempty"`
	// ErrorKind marks synthetic assistant messages that stand in for a
	// failed backend call, so the UI can render them as an error card.
	ErrorKind string `json:"errorKind,omitempty"`
}

// IsError reports whether the message is a synthetic failure reply.
func (m Message) IsError() bool { return m.ErrorKind != "" }
