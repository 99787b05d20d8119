package kb

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/limjiahao/docs-assistant/internal/model/kb"
	"github.com/limjiahao/docs-assistant/internal/service/backend"
	"github.com/limjiahao/docs-assistant/internal/service/session"
	"github.com/limjiahao/docs-assistant/pkg/utils"
)

// Handler passes knowledge-base operations through to the backend with the
// client's error taxonomy mapped onto HTTP statuses. The editing screens
// themselves live in the rendering surface.
type Handler struct {
	client    *backend.Client
	directory *session.ServiceDirectory
	log       *zap.Logger
}

// New creates the knowledge-base handler.
func New(client *backend.Client, directory *session.ServiceDirectory, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{client: client, directory: directory, log: log}
}

// RegisterRoutes mounts the knowledge-base routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/kb/services", h.handleListServices)
	r.Get("/kb/entries", h.handleListEntries)
	r.Post("/kb/entries", h.handleCreateEntry)
	r.Put("/kb/entries/{entryID}", h.handleUpdateEntry)
	r.Delete("/kb/entries/{entryID}", h.handleDeleteEntry)
}

func (h *Handler) handleListServices(w http.ResponseWriter, r *http.Request) {
	// The directory degrades to its fallback list, so this never fails.
	utils.RespondJSON(w, http.StatusOK, h.directory.Services(r.Context()))
}

func (h *Handler) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.client.FetchEntries(r.Context(), r.URL.Query().Get("service"))
	if err != nil {
		h.respondBackendError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var entry kb.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if entry.Title == "" {
		utils.RespondError(w, http.StatusBadRequest, "title is required")
		return
	}

	created, err := h.client.CreateEntry(r.Context(), entry)
	if err != nil {
		h.respondBackendError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var patch kb.EntryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.client.UpdateEntry(r.Context(), chi.URLParam(r, "entryID"), patch)
	if err != nil {
		h.respondBackendError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.client.DeleteEntry(r.Context(), chi.URLParam(r, "entryID")); err != nil {
		h.respondBackendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondBackendError translates the client's failure kinds.
func (h *Handler) respondBackendError(w http.ResponseWriter, err error) {
	apiErr, ok := backend.AsError(err)
	if !ok {
		h.log.Error("unclassified backend failure", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "knowledge base operation failed")
		return
	}

	switch apiErr.Kind {
	case backend.KindInvalidInput:
		utils.RespondError(w, http.StatusBadRequest, apiErr.Message)
	case backend.KindClientError:
		status := apiErr.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		utils.RespondError(w, status, apiErr.Message)
	case backend.KindUnreachable:
		utils.RespondError(w, http.StatusServiceUnavailable, apiErr.Message)
	default:
		utils.RespondError(w, http.StatusBadGateway, apiErr.Message)
	}
}
