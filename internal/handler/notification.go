package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/service"
)

type NotificationHandler struct {
	notes  *service.NotificationService
	logger *slog.Logger
}

func NewNotificationHandler(notes *service.NotificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notes: notes, logger: logger}
}

// NotificationList is the notification centre: history plus badge count.
type NotificationList struct {
	Notifications []model.Notification `json:"notifications"`
	Unread        int                  `json:"unread"`
}

// HandleList - GET /api/notifications
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NotificationList{
		Notifications: h.notes.List(),
		Unread:        h.notes.UnreadCount(),
	})
}

type recordRequest struct {
	Message    string         `json:"message"`
	Severity   model.Severity `json:"severity"`
	DurationMS int64          `json:"durationMs"`
}

// HandleRecord - POST /api/notifications
// REQUEST BODY: {"message":"Saved","severity":"success","durationMs":3000}
func (h *NotificationHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	n, err := h.notes.Record(r.Context(), req.Message, req.Severity, time.Duration(req.DurationMS)*time.Millisecond)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// HandleMarkAllRead - POST /api/notifications/read-all
func (h *NotificationHandler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.MarkAllRead(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRemove - DELETE /api/notifications/{id}
func (h *NotificationHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	removed, err := h.notes.Remove(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeError(w, apperror.NotFound("notification", strconv.FormatInt(id, 10)))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleClear - DELETE /api/notifications
func (h *NotificationHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.ClearAll(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
