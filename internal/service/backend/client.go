package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/limjiahao/docs-assistant/internal/model/kb"
)

// Client is a typed, stateless client for the documentation-assistant API.
// Every operation maps transport and HTTP outcomes onto the Kind taxonomy;
// it never retries.
type Client struct {
	baseURL           string
	httpClient        *http.Client
	maxQuestionLength int
}

// NewClient builds a client for the API at baseURL. Every call is bounded
// by timeout regardless of the caller's context.
func NewClient(baseURL string, timeout time.Duration, maxQuestionLength int) *Client {
	return &Client{
		baseURL:           strings.TrimRight(baseURL, "/"),
		httpClient:        &http.Client{Timeout: timeout},
		maxQuestionLength: maxQuestionLength,
	}
}

// CheckHealth probes GET /health.
func (c *Client) CheckHealth(ctx context.Context) (Health, error) {
	var health Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return Health{}, err
	}
	return health, nil
}

// FetchServices lists the services tracked by the knowledge base. Callers
// that can degrade gracefully should fall back to their configured display
// map instead of surfacing the error.
func (c *Client) FetchServices(ctx context.Context) ([]kb.Service, error) {
	var services []kb.Service
	if err := c.do(ctx, http.MethodGet, "/api/v1/kb/services", nil, &services); err != nil {
		return nil, err
	}
	return services, nil
}

// Ask submits a question and returns the full answer payload. An empty or
// over-length question fails locally with KindInvalidInput before any
// network I/O.
func (c *Client) Ask(ctx context.Context, question string, opts AskOptions) (Answer, error) {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return Answer{}, &Error{Kind: KindInvalidInput, Message: "question must not be empty"}
	}
	if len([]rune(trimmed)) > c.maxQuestionLength {
		return Answer{}, &Error{
			Kind:    KindInvalidInput,
			Message: fmt.Sprintf("question is too long (max %d characters)", c.maxQuestionLength),
		}
	}

	payload := askRequest{
		Question:     trimmed,
		Context:      opts.Context,
		ShowPipeline: opts.ShowPipeline,
	}

	var answer Answer
	if err := c.do(ctx, http.MethodPost, "/api/v1/ask", payload, &answer); err != nil {
		return Answer{}, err
	}
	return answer, nil
}

// FetchEntries lists knowledge-base entries, optionally filtered by service key.
func (c *Client) FetchEntries(ctx context.Context, service string) ([]kb.Entry, error) {
	path := "/api/v1/kb/entries"
	if service != "" {
		path += "?service=" + url.QueryEscape(service)
	}

	var entries []kb.Entry
	if err := c.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateEntry adds a documentation entry.
func (c *Client) CreateEntry(ctx context.Context, entry kb.Entry) (kb.Entry, error) {
	var created kb.Entry
	if err := c.do(ctx, http.MethodPost, "/api/v1/kb/entries", entry, &created); err != nil {
		return kb.Entry{}, err
	}
	return created, nil
}

// UpdateEntry partially updates an entry; only the patch's set fields change.
func (c *Client) UpdateEntry(ctx context.Context, id string, patch kb.EntryPatch) (kb.Entry, error) {
	if id == "" {
		return kb.Entry{}, &Error{Kind: KindInvalidInput, Message: "entry id is required"}
	}
	if patch.IsEmpty() {
		return kb.Entry{}, &Error{Kind: KindInvalidInput, Message: "update contains no changes"}
	}

	var updated kb.Entry
	if err := c.do(ctx, http.MethodPut, "/api/v1/kb/entries/"+url.PathEscape(id), patch, &updated); err != nil {
		return kb.Entry{}, err
	}
	return updated, nil
}

// DeleteEntry removes an entry.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	if id == "" {
		return &Error{Kind: KindInvalidInput, Message: "entry id is required"}
	}
	return c.do(ctx, http.MethodDelete, "/api/v1/kb/entries/"+url.PathEscape(id), nil, nil)
}

// do executes one request and normalizes every failure path. out may be nil
// when the response body is irrelevant.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf("encode request: %v", err)}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf("build request: %v", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{
			Kind:    KindUnreachable,
			Message: "cannot reach the documentation API - is the backend running?",
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindUnreachable, Message: "connection lost while reading the response"}
	}

	switch {
	case resp.StatusCode >= 500:
		return &Error{
			Kind:    KindServerError,
			Message: fmt.Sprintf("the API failed with status %d", resp.StatusCode),
			Status:  resp.StatusCode,
		}
	case resp.StatusCode >= 400:
		message := fmt.Sprintf("the API rejected the request with status %d", resp.StatusCode)
		var decoded errorBody
		if json.Unmarshal(raw, &decoded) == nil && decoded.message() != "" {
			message = decoded.message()
		}
		return &Error{Kind: KindClientError, Message: message, Status: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{
			Kind:    KindDecodeError,
			Message: fmt.Sprintf("unexpected response shape from %s: %v", path, err),
		}
	}
	return nil
}
