package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	historyHandler "github.com/refloapp/reflo/backend/internal/handler/history"
	journalHandler "github.com/refloapp/reflo/backend/internal/handler/journal"
	settingsHandler "github.com/refloapp/reflo/backend/internal/handler/settings"
	"github.com/refloapp/reflo/backend/internal/handler/stream"
	middlewarePkg "github.com/refloapp/reflo/backend/internal/middleware"
	"github.com/refloapp/reflo/backend/internal/service/conversation"
	"github.com/refloapp/reflo/backend/internal/service/enrichment"
	historyService "github.com/refloapp/reflo/backend/internal/service/history"
	"github.com/refloapp/reflo/backend/internal/service/session"
	settingsService "github.com/refloapp/reflo/backend/internal/service/settings"
	"github.com/refloapp/reflo/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services. The conversation and
// enrichment services are nil when the model provider is unconfigured; the
// affected endpoints then answer 503 while settings and history keep working.
// streaming additionally gates the SSE and websocket endpoints.
func NewRouter(sessions *session.Service, prefs *settingsService.Service, history *historyService.Service, conv *conversation.Service, enrich *enrichment.Service, streaming bool) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	journal := journalHandler.New(sessions, prefs, conv, enrich)
	settings := settingsHandler.New(prefs)
	calendar := historyHandler.New(history)

	var streamHandler *stream.Handler
	var wsHandler *journalHandler.WebSocketHandler
	if conv != nil && streaming {
		streamHandler = stream.New(conv)
		wsHandler = journalHandler.NewWebSocketHandler(conv)
	}

	r.Route("/api", func(api chi.Router) {
		journal.RegisterRoutes(api)
		settings.RegisterRoutes(api)
		calendar.RegisterRoutes(api)

		api.Get("/journal/stream", func(w http.ResponseWriter, r *http.Request) {
			userMessage := r.URL.Query().Get("message")

			if streamHandler == nil {
				utils.RespondError(w, http.StatusServiceUnavailable, "streaming unavailable")
				return
			}
			if userMessage == "" {
				utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
				return
			}

			if err := streamHandler.HandleStreamRequest(r.Context(), w, userMessage); err != nil {
				log.Printf("[stream] error handling request: %v", err)
			}
		})

		if wsHandler != nil {
			wsHandler.RegisterWebSocketRoutes(api)
		}
	})

	return r
}
