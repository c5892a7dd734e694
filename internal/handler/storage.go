package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/service"
)

type StorageHandler struct {
	storage *service.StorageService
	notes   *service.NotificationService
	logger  *slog.Logger
}

func NewStorageHandler(
	storage *service.StorageService,
	notes *service.NotificationService,
	logger *slog.Logger,
) *StorageHandler {
	return &StorageHandler{storage: storage, notes: notes, logger: logger}
}

// HandleUsage - GET /api/storage
func (h *StorageHandler) HandleUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.storage.Usage(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

// HandleClearLearning - DELETE /api/storage/learning
func (h *StorageHandler) HandleClearLearning(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.ClearLearningData(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	notifyBestEffort(r.Context(), h.notes, h.logger, "All learning data was cleared", model.SeverityWarning)
	w.WriteHeader(http.StatusNoContent)
}

// HandleClearAll - DELETE /api/storage
//
// Wipes every key, so the session is gone afterwards too.
func (h *StorageHandler) HandleClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
