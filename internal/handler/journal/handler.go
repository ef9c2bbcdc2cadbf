package journal

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/refloapp/reflo/backend/internal/service/conversation"
	"github.com/refloapp/reflo/backend/internal/service/enrichment"
	"github.com/refloapp/reflo/backend/internal/service/session"
	settingsservice "github.com/refloapp/reflo/backend/internal/service/settings"
	"github.com/refloapp/reflo/backend/pkg/utils"
)

// Handler serves the journal entry screen: loading the day's session,
// submitting entries and signalling session end.
type Handler struct {
	sessions *session.Service
	prefs    *settingsservice.Service
	conv     *conversation.Service // nil when the model is unconfigured
	enrich   *enrichment.Service   // nil when the model is unconfigured
}

// New creates the journal handler.
func New(sessions *session.Service, prefs *settingsservice.Service, conv *conversation.Service, enrich *enrichment.Service) *Handler {
	return &Handler{
		sessions: sessions,
		prefs:    prefs,
		conv:     conv,
		enrich:   enrich,
	}
}

// RegisterRoutes wires the journal endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/journal", h.handleLoadSession)
	r.Post("/journal/turns", h.handleSubmit)
	r.Post("/journal/close", h.handleClose)
	r.Get("/greeting", h.handleGreeting)
}

// handleLoadSession applies the day rollover, adds the opening prompt to a
// fresh transcript and returns the result.
func (h *Handler) handleLoadSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	transcript, err := h.sessions.Load(ctx)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	wasEmpty := transcript.Empty()
	prefs := h.prefs.Current(ctx)
	transcript = conversation.EnsureOpeningPrompt(transcript, h.sessions.Hour(), prefs.Language)

	if wasEmpty && !transcript.Empty() {
		if err := h.sessions.Save(ctx, transcript); err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "failed to persist opening prompt")
			return
		}
	}

	utils.RespondJSON(w, http.StatusOK, transcript)
}

// handleSubmit appends one user entry and the model's reply.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if h.conv == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "journaling replies unavailable")
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	transcript, err := h.conv.Submit(r.Context(), payload.Text)
	switch {
	case errors.Is(err, conversation.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	case errors.Is(err, conversation.ErrReplyPending):
		utils.RespondError(w, http.StatusConflict, "a reply is already pending")
		return
	case err != nil:
		// The client keeps the submitted text so the user can retry.
		log.Printf("[journal] submit failed: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "failed to get a reply, please try again")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, transcript)
}

// handleClose is the explicit session-end event: the app calls it when the
// user navigates away, and it kicks the enrichment run in the background.
func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	if h.enrich == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "enrichment unavailable")
		return
	}

	language := h.prefs.Current(r.Context()).Language

	// Detached from the request context: navigating away must not cancel
	// the run it just triggered.
	go func() {
		if err := h.enrich.Run(context.Background(), language); err != nil {
			log.Printf("[journal] enrichment run failed: %v", err)
		}
	}()

	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "enriching"})
}

// handleGreeting returns the home-screen greeting for the current hour and
// configured language.
func (h *Handler) handleGreeting(w http.ResponseWriter, r *http.Request) {
	prefs := h.prefs.Current(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"greeting": conversation.Greeting(h.sessions.Hour(), prefs.Language),
		"language": string(prefs.Language),
		"locale":   prefs.Language.Locale(),
		"theme":    string(prefs.Theme),
	})
}
