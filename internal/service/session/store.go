package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/limjiahao/docs-assistant/internal/model/chat"
)

// ErrConversationNotFound signals a stale or deleted conversation id.
// Conversation ids are controller-internal, so seeing this outside tests
// usually means a caller kept an id across a delete.
var ErrConversationNotFound = errors.New("conversation not found")

const titleLimit = 60

// Store holds every conversation of a single session in memory. State is
// session-scoped and disposable; nothing survives the process.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*chat.Conversation
	messages      map[string][]chat.Message
	order         []string
	activeID      string
}

// NewStore bootstraps an empty store.
func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*chat.Conversation),
		messages:      make(map[string][]chat.Message),
	}
}

// CreateConversation provisions a new empty conversation and makes it
// active. Identifiers are generated here, never supplied by callers.
func (s *Store) CreateConversation() chat.Conversation {
	conv := chat.Conversation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.conversations[conv.ID] = &conv
	s.messages[conv.ID] = make([]chat.Message, 0, 8)
	s.order = append(s.order, conv.ID)
	s.activeID = conv.ID
	s.mu.Unlock()

	return conv
}

// AppendMessage appends one turn to a conversation, assigning the message
// id and timestamp. The first user message derives the conversation title.
func (s *Store) AppendMessage(conversationID string, message chat.Message) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return chat.Message{}, ErrConversationNotFound
	}

	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	if conv.Title == "" && message.Role == chat.RoleUser {
		conv.Title = deriveTitle(message.Text)
	}

	s.messages[conversationID] = append(s.messages[conversationID], message)
	return message, nil
}

// Messages returns a conversation's turns in append order.
func (s *Store) Messages(conversationID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[conversationID]
	if !ok {
		return nil, ErrConversationNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// Conversation looks up a conversation by id.
func (s *Store) Conversation(conversationID string) (chat.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok {
		return chat.Conversation{}, ErrConversationNotFound
	}
	return *conv, nil
}

// ListConversations returns summaries in creation order. Presentation
// ordering (most-recent-first and the like) is the caller's concern.
func (s *Store) ListConversations() []chat.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]chat.Summary, 0, len(s.order))
	for _, id := range s.order {
		conv := s.conversations[id]
		summary := chat.Summary{
			ID:        conv.ID,
			Title:     conv.Title,
			CreatedAt: conv.CreatedAt,
		}
		if msgs := s.messages[id]; len(msgs) > 0 {
			summary.LastMessageAt = msgs[len(msgs)-1].CreatedAt
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// SwitchActive moves the active pointer to an existing conversation.
func (s *Store) SwitchActive(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return ErrConversationNotFound
	}
	s.activeID = conversationID
	return nil
}

// DeleteConversation removes a conversation. When the active conversation
// is deleted the pointer moves to the most recently created remaining one,
// or becomes unset if none remain; it never dangles.
func (s *Store) DeleteConversation(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return ErrConversationNotFound
	}

	delete(s.conversations, conversationID)
	delete(s.messages, conversationID)
	for i, id := range s.order {
		if id == conversationID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	if s.activeID == conversationID {
		s.activeID = ""
		if len(s.order) > 0 {
			s.activeID = s.order[len(s.order)-1]
		}
	}
	return nil
}

// ActiveID returns the active conversation id, if one is set.
func (s *Store) ActiveID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID, s.activeID != ""
}

// MessageCount reports how many turns a conversation holds.
func (s *Store) MessageCount(conversationID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages[conversationID])
}

// deriveTitle condenses the first user message into a display title.
func deriveTitle(text string) string {
	title := strings.Join(strings.Fields(text), " ")
	runes := []rune(title)
	if len(runes) <= titleLimit {
		return title
	}
	return strings.TrimSpace(string(runes[:titleLimit])) + "..."
}
