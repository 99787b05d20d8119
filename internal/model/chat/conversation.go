package chat

import "time"

// Conversation is one independent question/answer thread within a session.
// Its messages live in the session store, keyed by the conversation id.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary is the listing row exposed to conversation pickers.
type Summary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"createdAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}
