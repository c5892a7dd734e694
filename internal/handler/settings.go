package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/service"
)

// SettingsHandler serves the preference map and the theme.
type SettingsHandler struct {
	settings *service.SettingsService
	logger   *slog.Logger
}

func NewSettingsHandler(settings *service.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// HandleAll - GET /api/settings
func (h *SettingsHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.All(r.Context()))
}

type settingRequest struct {
	Value any `json:"value"`
}

// HandleSet - PUT /api/settings/{key}
// REQUEST BODY: {"value": true}
func (h *SettingsHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	var req settingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	all, err := h.settings.Set(r.Context(), chi.URLParam(r, "key"), req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// HandleReset - POST /api/settings/reset
func (h *SettingsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	all, err := h.settings.ResetToDefaults(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

type themeBody struct {
	Mode model.ThemeMode `json:"mode"`
}

// HandleTheme - GET /api/theme
func (h *SettingsHandler) HandleTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, themeBody{Mode: h.settings.Theme(r.Context())})
}

// HandleSetTheme - PUT /api/theme
// REQUEST BODY: {"mode":"dark"}
func (h *SettingsHandler) HandleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeBody
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.settings.SetTheme(r.Context(), req.Mode); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// HandleToggleTheme - POST /api/theme/toggle
func (h *SettingsHandler) HandleToggleTheme(w http.ResponseWriter, r *http.Request) {
	mode, err := h.settings.ToggleTheme(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Mode: mode})
}
