package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/limjiahao/docs-assistant/internal/export"
	"github.com/limjiahao/docs-assistant/internal/service/backend"
	sessionService "github.com/limjiahao/docs-assistant/internal/service/session"
	"github.com/limjiahao/docs-assistant/pkg/utils"
)

// Handler exposes session operations to the rendering surface. The surface
// pulls snapshots and redraws on its own schedule; the websocket in
// events.go only tells it when a pull is worthwhile.
type Handler struct {
	registry  *sessionService.Registry
	directory *sessionService.ServiceDirectory
	notifier  *notifier
	log       *zap.Logger
}

// New creates the session handler.
func New(registry *sessionService.Registry, directory *sessionService.ServiceDirectory, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		registry:  registry,
		directory: directory,
		notifier:  newNotifier(log),
		log:       log,
	}
}

// RegisterRoutes mounts the session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleSnapshot)
		r.Delete("/", h.handleEndSession)
		r.Put("/settings", h.handleSettings)
		r.Post("/ask", h.handleAsk)
		r.Post("/conversations", h.handleNewChat)
		r.Post("/conversations/{conversationID}/activate", h.handleActivate)
		r.Delete("/conversations/{conversationID}", h.handleDeleteChat)
		r.Get("/export", h.handleExport)
		r.Get("/ws", h.handleEvents)
	})
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.registry.Create()
	h.log.Info("session created", zap.String("session", session.ID))
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"id":        session.ID,
		"createdAt": session.CreatedAt,
		"snapshot":  session.Controller.Snapshot(),
	})
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	utils.RespondJSON(w, http.StatusOK, session.Controller.Snapshot())
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.registry.Delete(sessionID); err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	h.notifier.closeSession(sessionID)
	h.log.Info("session ended", zap.String("session", sessionID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var payload struct {
		ShowPipeline bool `json:"showPipeline"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session.Controller.SetShowPipeline(payload.ShowPipeline)
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"showPipeline": payload.ShowPipeline})
}

func (h *Handler) handleNewChat(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	conv := session.Controller.NewChat()
	h.notifier.broadcast(session.ID)
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"conversation": conv,
		"snapshot":     session.Controller.Snapshot(),
	})
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	var payload struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := session.Controller.SubmitQuestion(r.Context(), payload.Question)
	if err != nil {
		h.respondAskError(w, err)
		return
	}

	h.notifier.broadcast(session.ID)
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"reply":    reply,
		"snapshot": session.Controller.Snapshot(),
	})
}

// respondAskError maps controller failures onto HTTP statuses. Backend
// failures never land here - the controller converts them into assistant
// messages - so this only covers local validation and lifecycle misuse.
func (h *Handler) respondAskError(w http.ResponseWriter, err error) {
	if errors.Is(err, sessionService.ErrNoActiveConversation) {
		utils.RespondError(w, http.StatusConflict, "start a conversation before asking")
		return
	}
	if apiErr, ok := backend.AsError(err); ok && apiErr.Kind == backend.KindInvalidInput {
		utils.RespondError(w, http.StatusBadRequest, apiErr.Message)
		return
	}
	if errors.Is(err, sessionService.ErrConversationNotFound) {
		utils.RespondError(w, http.StatusNotFound, "conversation not found")
		return
	}
	h.log.Error("ask failed unexpectedly", zap.Error(err))
	utils.RespondError(w, http.StatusInternalServerError, "failed to process the question")
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := session.Controller.SwitchChat(chi.URLParam(r, "conversationID")); err != nil {
		utils.RespondError(w, http.StatusNotFound, "conversation not found")
		return
	}
	h.notifier.broadcast(session.ID)
	utils.RespondJSON(w, http.StatusOK, session.Controller.Snapshot())
}

func (h *Handler) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := session.Controller.DeleteChat(chi.URLParam(r, "conversationID")); err != nil {
		utils.RespondError(w, http.StatusNotFound, "conversation not found")
		return
	}
	h.notifier.broadcast(session.ID)
	utils.RespondJSON(w, http.StatusOK, session.Controller.Snapshot())
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	conversationID := r.URL.Query().Get("conversation")
	if conversationID == "" {
		active, ok := session.Controller.ActiveID()
		if !ok {
			utils.RespondError(w, http.StatusConflict, "no conversation to export")
			return
		}
		conversationID = active
	}

	conv, messages, err := session.Controller.Transcript(conversationID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "conversation not found")
		return
	}

	doc := export.Markdown(conv, messages, func(key string) string {
		return h.directory.DisplayName(r.Context(), key)
	})

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(time.Now())+`"`)
	if _, err := w.Write([]byte(doc)); err != nil {
		h.log.Warn("failed to write export", zap.Error(err))
	}
}

// session resolves the sessionID route parameter, responding 404 on a miss.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*sessionService.Session, bool) {
	session, err := h.registry.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return session, true
}
