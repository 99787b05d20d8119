package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/limjiahao/docs-assistant/internal/analysis/masking"
	"github.com/limjiahao/docs-assistant/internal/model/chat"
	"github.com/limjiahao/docs-assistant/internal/service/backend"
)

// State tags the conversation-lifecycle position of a session.
type State string

const (
	StateNoConversation    State = "no_conversation"
	StateActiveEmpty       State = "active_empty"
	StateActiveWithHistory State = "active_with_history"
)

// ErrNoActiveConversation is returned when a question is submitted while no
// conversation is active.
var ErrNoActiveConversation = errors.New("no active conversation")

// contextTurnLimit caps how many prior turns accompany a question.
const contextTurnLimit = 10

// Asker is the slice of the backend client the controller depends on.
type Asker interface {
	Ask(ctx context.Context, question string, opts backend.AskOptions) (backend.Answer, error)
}

// Controller orchestrates one session: it resolves the active conversation,
// calls the backend, masks the answer and appends the exchange. Each user
// action runs to completion before the next is accepted.
type Controller struct {
	mu    sync.Mutex
	store *Store

	client      Asker
	clientTypes masking.TypeSet
	maxQuestion int
	suggested   []string
	log         *zap.Logger

	showPipeline bool
	// generation is bumped whenever a conversation's history may diverge
	// from an in-flight ask, so a late answer can be discarded instead of
	// landing as a stale duplicate.
	generation map[string]uint64
}

// ControllerOptions carries the configuration slice the controller needs.
type ControllerOptions struct {
	MaxQuestionLength  int
	ClientMaskedTypes  []string
	SuggestedQuestions []string
}

// NewController builds a controller with its own private store.
func NewController(client Asker, opts ControllerOptions, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		store:       NewStore(),
		client:      client,
		clientTypes: masking.NewTypeSet(opts.ClientMaskedTypes),
		maxQuestion: opts.MaxQuestionLength,
		suggested:   append([]string(nil), opts.SuggestedQuestions...),
		log:         log,
		generation:  make(map[string]uint64),
	}
}

// NewChat creates a fresh conversation and makes it active.
func (c *Controller) NewChat() chat.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.CreateConversation()
}

// SwitchChat makes an existing conversation active.
func (c *Controller) SwitchChat(conversationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.SwitchActive(conversationID)
}

// DeleteChat removes a conversation; the store reassigns the active
// pointer when the deleted conversation was active.
func (c *Controller) DeleteChat(conversationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.generation, conversationID)
	return c.store.DeleteConversation(conversationID)
}

// SetShowPipeline toggles whether answers include orchestration details.
func (c *Controller) SetShowPipeline(enabled bool) {
	c.mu.Lock()
	c.showPipeline = enabled
	c.mu.Unlock()
}

// SubmitQuestion runs one exchange in the active conversation. Local
// validation failures return a backend.Error of kind InvalidInput without
// touching the conversation or the network. Backend failures are converted
// into a synthetic assistant message so the user's question stays visible
// and the session remains continuable; the returned message is the
// assistant reply in both the success and the failure case.
func (c *Controller) SubmitQuestion(ctx context.Context, text string) (chat.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	convID, ok := c.store.ActiveID()
	if !ok {
		return chat.Message{}, ErrNoActiveConversation
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return chat.Message{}, &backend.Error{Kind: backend.KindInvalidInput, Message: "question must not be empty"}
	}
	if len([]rune(trimmed)) > c.maxQuestion {
		return chat.Message{}, &backend.Error{
			Kind:    backend.KindInvalidInput,
			Message: fmt.Sprintf("question is too long (max %d characters)", c.maxQuestion),
		}
	}

	history, err := c.store.Messages(convID)
	if err != nil {
		return chat.Message{}, err
	}

	if _, err := c.store.AppendMessage(convID, chat.Message{Role: chat.RoleUser, Text: trimmed}); err != nil {
		return chat.Message{}, err
	}

	c.generation[convID]++
	gen := c.generation[convID]

	answer, askErr := c.client.Ask(ctx, trimmed, backend.AskOptions{
		Context:      contextFromHistory(history),
		ShowPipeline: c.showPipeline,
	})

	// A cancelled interaction keeps the user's question but must not
	// append a late reply; same for a conversation whose history moved on.
	if ctx.Err() != nil {
		c.log.Info("ask cancelled", zap.String("conversation", convID))
		return chat.Message{}, ctx.Err()
	}
	if c.generation[convID] != gen {
		c.log.Warn("discarding stale answer", zap.String("conversation", convID))
		return chat.Message{}, nil
	}

	var reply chat.Message
	if askErr != nil {
		apiErr, ok := backend.AsError(askErr)
		if !ok {
			apiErr = &backend.Error{Kind: backend.KindUnreachable, Message: askErr.Error()}
		}
		c.log.Warn("ask failed",
			zap.String("conversation", convID),
			zap.String("kind", string(apiErr.Kind)),
			zap.Error(askErr))
		reply = chat.Message{
			Role:      chat.RoleAssistant,
			Text:      apiErr.Message,
			ErrorKind: string(apiErr.Kind),
		}
	} else {
		annotations := append([]masking.Annotation(nil), answer.Entities...)
		annotations = append(annotations, masking.DetectNRIC(answer.Answer, answer.Entities)...)
		reply = chat.Message{
			Role: chat.RoleAssistant,
			Text: masking.Render(answer.Answer, annotations, c.clientTypes),
			Meta: &chat.Meta{
				Confidence: answer.Confidence,
				IsSAPAI:    answer.IsSAPAI,
				Services:   answer.Services,
				Links:      answer.Links,
				Pipeline:   answer.Pipeline,
			},
		}
	}

	appended, err := c.store.AppendMessage(convID, reply)
	if err != nil {
		// The conversation vanished mid-flight; the guard above should have
		// caught this, so treat it as an invariant violation worth logging.
		c.log.Error("conversation disappeared during ask", zap.String("conversation", convID), zap.Error(err))
		return chat.Message{}, err
	}
	return appended, nil
}

// Snapshot is the pull-based view for any rendering surface: current state
// tag, conversation picker rows, the active conversation's masked messages
// and starter questions when the thread is still empty.
type Snapshot struct {
	State         State          `json:"state"`
	ActiveID      string         `json:"activeId,omitempty"`
	Conversations []chat.Summary `json:"conversations"`
	Messages      []chat.Message `json:"messages"`
	Suggested     []string       `json:"suggestedQuestions,omitempty"`
}

// Snapshot returns the session's current renderable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:         StateNoConversation,
		Conversations: c.store.ListConversations(),
		Messages:      []chat.Message{},
	}

	convID, ok := c.store.ActiveID()
	if !ok {
		return snap
	}

	snap.ActiveID = convID
	messages, err := c.store.Messages(convID)
	if err != nil {
		// The active pointer always references an existing conversation.
		c.log.Error("active conversation missing", zap.String("conversation", convID), zap.Error(err))
		return snap
	}

	snap.Messages = messages
	if len(messages) == 0 {
		snap.State = StateActiveEmpty
		snap.Suggested = append([]string(nil), c.suggested...)
	} else {
		snap.State = StateActiveWithHistory
	}
	return snap
}

// State reports the controller's lifecycle state.
func (c *Controller) State() State {
	return c.Snapshot().State
}

// Transcript returns a conversation and its turns, for export.
func (c *Controller) Transcript(conversationID string) (chat.Conversation, []chat.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conv, err := c.store.Conversation(conversationID)
	if err != nil {
		return chat.Conversation{}, nil, err
	}
	messages, err := c.store.Messages(conversationID)
	if err != nil {
		return chat.Conversation{}, nil, err
	}
	return conv, messages, nil
}

// ActiveID exposes the active conversation id, if any.
func (c *Controller) ActiveID() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.ActiveID()
}

// contextFromHistory converts prior turns into the wire context, newest
// turns last, skipping synthetic error replies.
func contextFromHistory(history []chat.Message) []backend.ContextMessage {
	turns := make([]backend.ContextMessage, 0, len(history))
	for _, msg := range history {
		if msg.IsError() {
			continue
		}
		turns = append(turns, backend.ContextMessage{Role: string(msg.Role), Content: msg.Text})
	}
	if len(turns) > contextTurnLimit {
		turns = turns[len(turns)-contextTurnLimit:]
	}
	return turns
}
