package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/service"
)

// TechnologyHandler exposes the record store over HTTP.
//
// Successful mutations also record a notification, the way the web UI shows
// a toast after every change. A failed notification never fails the request.
type TechnologyHandler struct {
	techs  *service.TechnologyService
	notes  *service.NotificationService
	logger *slog.Logger
}

func NewTechnologyHandler(
	techs *service.TechnologyService,
	notes *service.NotificationService,
	logger *slog.Logger,
) *TechnologyHandler {
	return &TechnologyHandler{techs: techs, notes: notes, logger: logger}
}

// HandleList returns every technology, or the matches for ?q=.
//
// HTTP: GET /api/technologies[?q=react]
func (h *TechnologyHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		techs []model.Technology
		err   error
	)
	if q, ok := r.URL.Query()["q"]; ok {
		techs, err = h.techs.Search(r.Context(), q[0])
	} else {
		techs, err = h.techs.Load(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, techs)
}

// HandleCreate appends a technology.
//
// HTTP: POST /api/technologies
// REQUEST BODY: {"title":"Go","category":"language","deadline":"2026-12-31","resources":["https://go.dev"]}
func (h *TechnologyHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.TechnologyInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	tech, err := h.techs.Append(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	h.notify(r.Context(), fmt.Sprintf("Technology %q added", tech.Title), model.SeveritySuccess)
	writeJSON(w, http.StatusCreated, tech)
}

// HandleReplaceAll overwrites the whole collection with the request body,
// a JSON array in the export format.
//
// HTTP: PUT /api/technologies (admin only)
func (h *TechnologyHandler) HandleReplaceAll(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.techs.Restore(r.Context(), data)
	if err != nil {
		writeError(w, err)
		return
	}

	h.notify(r.Context(), fmt.Sprintf("Collection replaced with %d technologies", result.Added), model.SeverityWarning)
	writeJSON(w, http.StatusOK, importResponse(result))
}

// HandleStats returns the aggregate counters.
//
// HTTP: GET /api/technologies/stats
func (h *TechnologyHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.techs.Statistics(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type bulkStatusRequest struct {
	IDs    []int64      `json:"ids"`
	Status model.Status `json:"status"`
}

// HandleBulkStatus sets one status on many technologies.
//
// HTTP: POST /api/technologies/bulk-status
// REQUEST BODY: {"ids":[1,2,3],"status":"completed"}
func (h *TechnologyHandler) HandleBulkStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.techs.BulkSetStatus(r.Context(), req.IDs, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	if updated > 0 {
		h.notify(r.Context(), fmt.Sprintf("Status updated for %d technologies", updated), model.SeveritySuccess)
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// HandleGet returns one technology.
//
// HTTP: GET /api/technologies/{id}
func (h *TechnologyHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	tech, err := h.techs.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tech)
}

// HandleUpdate applies a partial update.
//
// HTTP: PATCH /api/technologies/{id}
// REQUEST BODY: any subset of the create fields, plus {"clearDeadline":true}
func (h *TechnologyHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var patch service.TechnologyPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	tech, err := h.techs.UpdateByID(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	if tech == nil {
		writeError(w, apperror.NotFound("technology", strconv.FormatInt(id, 10)))
		return
	}

	if patch.Status != nil {
		h.notify(r.Context(), fmt.Sprintf("%q is now %s", tech.Title, tech.Status), model.SeverityInfo)
	}
	writeJSON(w, http.StatusOK, tech)
}

// HandleDelete removes a technology.
//
// HTTP: DELETE /api/technologies/{id}
func (h *TechnologyHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	removed, err := h.techs.RemoveByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeError(w, apperror.NotFound("technology", strconv.FormatInt(id, 10)))
		return
	}

	h.notify(r.Context(), "Technology removed", model.SeverityInfo)
	w.WriteHeader(http.StatusNoContent)
}

type resourceRequest struct {
	URL string `json:"url"`
}

// HandleAddResource attaches a URL.
//
// HTTP: POST /api/technologies/{id}/resources
// REQUEST BODY: {"url":"https://go.dev/doc"}
func (h *TechnologyHandler) HandleAddResource(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req resourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	tech, err := h.techs.AddResource(r.Context(), id, req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	if tech == nil {
		writeError(w, apperror.NotFound("technology", strconv.FormatInt(id, 10)))
		return
	}
	writeJSON(w, http.StatusOK, tech)
}

// HandleRemoveResource detaches a URL.
//
// HTTP: DELETE /api/technologies/{id}/resources?url=https://go.dev/doc
func (h *TechnologyHandler) HandleRemoveResource(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		writeError(w, apperror.ValidationFailed("url", "url query parameter is required"))
		return
	}

	tech, err := h.techs.RemoveResource(r.Context(), id, url)
	if err != nil {
		writeError(w, err)
		return
	}
	if tech == nil {
		writeError(w, apperror.NotFound("technology", strconv.FormatInt(id, 10)))
		return
	}
	writeJSON(w, http.StatusOK, tech)
}

func (h *TechnologyHandler) notify(ctx context.Context, message string, severity model.Severity) {
	notifyBestEffort(ctx, h.notes, h.logger, message, severity)
}

// notifyBestEffort records a notification and only logs a failure.
func notifyBestEffort(ctx context.Context, notes *service.NotificationService, logger *slog.Logger, message string, severity model.Severity) {
	if notes == nil {
		return
	}
	if _, err := notes.Record(ctx, message, severity, 0); err != nil {
		logger.Warn("failed to record notification", slog.String("error", err.Error()))
	}
}
