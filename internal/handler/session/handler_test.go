package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/limjiahao/docs-assistant/internal/model/kb"
	"github.com/limjiahao/docs-assistant/internal/service/backend"
	sessionService "github.com/limjiahao/docs-assistant/internal/service/session"
)

type fakeAsker struct {
	answer backend.Answer
	err    error
}

func (f *fakeAsker) Ask(_ context.Context, _ string, _ backend.AskOptions) (backend.Answer, error) {
	if f.err != nil {
		return backend.Answer{}, f.err
	}
	return f.answer, nil
}

type offlineFetcher struct{}

func (offlineFetcher) FetchServices(_ context.Context) ([]kb.Service, error) {
	return nil, &backend.Error{Kind: backend.KindUnreachable, Message: "down"}
}

func setupRouter(asker sessionService.Asker) (*chi.Mux, *sessionService.Registry) {
	registry := sessionService.NewRegistry(func() *sessionService.Controller {
		return sessionService.NewController(asker, sessionService.ControllerOptions{
			MaxQuestionLength:  2000,
			ClientMaskedTypes:  []string{"NRIC"},
			SuggestedQuestions: []string{"How do I deploy a model on SAP AI Core?"},
		}, nil)
	})
	directory := sessionService.NewServiceDirectory(offlineFetcher{}, time.Minute, map[string]string{"ai_core": "SAP AI Core"}, nil)
	handler := New(registry, directory, nil)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, registry
}

func createSession(t *testing.T, r *chi.Mux) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/sessions", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return body.ID
}

func postJSON(r *chi.Mux, path string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	_ = json.NewEncoder(&body).Encode(payload)
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestAskRoundTrip(t *testing.T) {
	r, _ := setupRouter(&fakeAsker{answer: backend.Answer{Answer: "Use a serving template.", Confidence: 0.9}})
	sessionID := createSession(t, r)

	if resp := postJSON(r, "/sessions/"+sessionID+"/conversations", nil); resp.Code != http.StatusCreated {
		t.Fatalf("new chat: expected 201, got %d", resp.Code)
	}

	resp := postJSON(r, "/sessions/"+sessionID+"/ask", map[string]string{"question": "How do I deploy?"})
	if resp.Code != http.StatusOK {
		t.Fatalf("ask: expected 200, got %d (%s)", resp.Code, resp.Body.String())
	}

	var body struct {
		Snapshot sessionService.Snapshot `json:"snapshot"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode ask response: %v", err)
	}
	if body.Snapshot.State != sessionService.StateActiveWithHistory {
		t.Fatalf("expected active_with_history, got %s", body.Snapshot.State)
	}
	if len(body.Snapshot.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(body.Snapshot.Messages))
	}
}

func TestAskWithoutConversationConflicts(t *testing.T) {
	r, _ := setupRouter(&fakeAsker{})
	sessionID := createSession(t, r)

	resp := postJSON(r, "/sessions/"+sessionID+"/ask", map[string]string{"question": "hello"})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestAskEmptyQuestionRejected(t *testing.T) {
	r, _ := setupRouter(&fakeAsker{})
	sessionID := createSession(t, r)
	postJSON(r, "/sessions/"+sessionID+"/conversations", nil)

	resp := postJSON(r, "/sessions/"+sessionID+"/ask", map[string]string{"question": "  "})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	r, _ := setupRouter(&fakeAsker{})

	req := httptest.NewRequest(http.MethodGet, "/sessions/nope", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestDeleteConversationReturnsSnapshot(t *testing.T) {
	r, registry := setupRouter(&fakeAsker{})
	sessionID := createSession(t, r)
	postJSON(r, "/sessions/"+sessionID+"/conversations", nil)

	session, err := registry.Get(sessionID)
	if err != nil {
		t.Fatalf("Get err: %v", err)
	}
	convID, _ := session.Controller.ActiveID()

	req := httptest.NewRequest(http.MethodDelete, "/sessions/"+sessionID+"/conversations/"+convID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var snap sessionService.Snapshot
	if err := json.Unmarshal(resp.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.State != sessionService.StateNoConversation {
		t.Fatalf("expected no_conversation, got %s", snap.State)
	}
}

func TestExportActiveConversation(t *testing.T) {
	r, _ := setupRouter(&fakeAsker{answer: backend.Answer{Answer: "An AI runtime.", Confidence: 0.8}})
	sessionID := createSession(t, r)
	postJSON(r, "/sessions/"+sessionID+"/conversations", nil)
	postJSON(r, "/sessions/"+sessionID+"/ask", map[string]string{"question": "What is AI Core?"})

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+sessionID+"/export", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Type"); got != "text/markdown; charset=utf-8" {
		t.Fatalf("unexpected content type: %q", got)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte("## Q1: What is AI Core?")) {
		t.Fatalf("export missing question heading:\n%s", resp.Body.String())
	}
}

func TestEndSessionDiscardsState(t *testing.T) {
	r, registry := setupRouter(&fakeAsker{})
	sessionID := createSession(t, r)

	req := httptest.NewRequest(http.MethodDelete, "/sessions/"+sessionID, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if _, err := registry.Get(sessionID); err == nil {
		t.Fatal("session should be gone after delete")
	}
}
