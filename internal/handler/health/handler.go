package health

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/limjiahao/docs-assistant/internal/service/backend"
	"github.com/limjiahao/docs-assistant/pkg/utils"
)

// Handler proxies the backend health probe so front ends can show an
// online/offline indicator without talking to the backend directly.
type Handler struct {
	client *backend.Client
}

// New creates the health handler.
func New(client *backend.Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes mounts the health route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := h.client.CheckHealth(r.Context())
	if err != nil {
		message := "backend offline"
		if apiErr, ok := backend.AsError(err); ok {
			message = apiErr.Message
		}
		utils.RespondError(w, http.StatusServiceUnavailable, message)
		return
	}
	utils.RespondJSON(w, http.StatusOK, health)
}
