package handler

import (
	"log/slog"
	"net/http"

	"latentchat/internal/httputil"
	"latentchat/internal/router"
	"latentchat/internal/service"
)

// SettingsHandler handles generation settings HTTP requests
type SettingsHandler struct {
	settings *service.SettingsStore
	router   *router.Router
	logger   *slog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *service.SettingsStore, r *router.Router, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, router: r, logger: logger}
}

// GetSettings returns the current settings and the model registry
// GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"settings": h.settings.Get(),
		"models":   h.router.Models(),
	})
}

// UpdateSettings applies a validated partial update
// PATCH /api/settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateSettingsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	settings, err := h.settings.Update(&req)
	if err != nil {
		handleError(w, err)
		return
	}

	h.logger.Info("settings updated", "model", settings.Model, "size",
		settings.Width, "count", settings.Count)
	httputil.RespondJSON(w, http.StatusOK, settings)
}
