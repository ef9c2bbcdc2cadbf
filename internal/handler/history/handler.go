package history

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	historyservice "github.com/refloapp/reflo/backend/internal/service/history"
	"github.com/refloapp/reflo/backend/pkg/utils"
)

// Handler serves the mood-calendar screen.
type Handler struct {
	history *historyservice.Service
}

// New creates the history handler.
func New(history *historyservice.Service) *Handler {
	return &Handler{history: history}
}

// RegisterRoutes wires the history endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/history", h.handleCalendar)
	r.Get("/history/{date}", h.handleDescribe)
}

// handleCalendar returns every marked day plus today's detail, matching what
// the calendar screen shows on open.
func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days, err := h.history.Calendar(ctx)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}

	today, err := h.history.DescribeToday(ctx)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load today's summary")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"days":  days,
		"today": today,
	})
}

// handleDescribe returns the mood and topic records for one date.
func (h *Handler) handleDescribe(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	detail, err := h.history.Describe(r.Context(), date)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if detail.Mood == nil && detail.Topic == "" {
		utils.RespondError(w, http.StatusNotFound, "no records for this day")
		return
	}

	utils.RespondJSON(w, http.StatusOK, detail)
}
