package settings

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	settingsservice "github.com/refloapp/reflo/backend/internal/service/settings"
	"github.com/refloapp/reflo/backend/pkg/utils"
)

// Handler serves the settings screen.
type Handler struct {
	prefs *settingsservice.Service
}

// New creates the settings handler.
func New(prefs *settingsservice.Service) *Handler {
	return &Handler{prefs: prefs}
}

// RegisterRoutes wires the settings endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/settings", h.handleGet)
	r.Put("/settings", h.handleUpdate)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.prefs.Current(r.Context()))
}

// handleUpdate accepts either or both fields; omitted fields keep their
// stored value.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Theme    string `json:"theme"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Theme == "" && payload.Language == "" {
		utils.RespondError(w, http.StatusBadRequest, "theme or language is required")
		return
	}

	ctx := r.Context()
	if payload.Theme != "" {
		if _, err := h.prefs.UpdateTheme(ctx, payload.Theme); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if payload.Language != "" {
		if _, err := h.prefs.UpdateLanguage(ctx, payload.Language); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	utils.RespondJSON(w, http.StatusOK, h.prefs.Current(ctx))
}
