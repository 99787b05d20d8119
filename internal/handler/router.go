package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	healthHandler "github.com/limjiahao/docs-assistant/internal/handler/health"
	kbHandler "github.com/limjiahao/docs-assistant/internal/handler/kb"
	sessionHandler "github.com/limjiahao/docs-assistant/internal/handler/session"
	middlewarePkg "github.com/limjiahao/docs-assistant/internal/middleware"
	"github.com/limjiahao/docs-assistant/internal/service/backend"
	sessionService "github.com/limjiahao/docs-assistant/internal/service/session"
)

// NewRouter wires HTTP routes to the assistant core.
func NewRouter(registry *sessionService.Registry, client *backend.Client, directory *sessionService.ServiceDirectory, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	sessions := sessionHandler.New(registry, directory, log)
	knowledgeBase := kbHandler.New(client, directory, log)
	health := healthHandler.New(client)

	r.Route("/api", func(api chi.Router) {
		sessions.RegisterRoutes(api)
		knowledgeBase.RegisterRoutes(api)
		health.RegisterRoutes(api)
	})

	return r
}
