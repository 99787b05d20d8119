package backend

import (
	"github.com/limjiahao/docs-assistant/internal/analysis/masking"
	"github.com/limjiahao/docs-assistant/internal/model/chat"
)

// Health is the payload of GET /health.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// ContextMessage is one prior turn sent along with a question so the
// backend can resolve follow-ups.
type ContextMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskOptions tunes a single Ask call.
type AskOptions struct {
	// Context carries the active conversation's prior turns, oldest first.
	Context []ContextMessage
	// ShowPipeline asks the backend to include orchestration step labels.
	ShowPipeline bool
}

type askRequest struct {
	Question     string           `json:"question"`
	Context      []ContextMessage `json:"context,omitempty"`
	ShowPipeline bool             `json:"show_pipeline"`
}

// Answer is the decoded response of POST /api/v1/ask.
type Answer struct {
	Answer     string               `json:"answer"`
	Confidence float64              `json:"confidence"`
	IsSAPAI    bool                 `json:"is_sap_ai"`
	Services   []string             `json:"services"`
	Links      []chat.DocLink       `json:"links"`
	Entities   []masking.Annotation `json:"entities"`
	Pipeline   []string             `json:"pipeline"`
}

type errorBody struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (b errorBody) message() string {
	if b.Detail != "" {
		return b.Detail
	}
	return b.Error
}
