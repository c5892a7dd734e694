package handler

import (
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/sakif/learning-tracker/internal/apperror"
	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/service"
)

// TransferHandler moves the collection in and out as a JSON file.
type TransferHandler struct {
	techs  *service.TechnologyService
	notes  *service.NotificationService
	logger *slog.Logger
}

func NewTransferHandler(
	techs *service.TechnologyService,
	notes *service.NotificationService,
	logger *slog.Logger,
) *TransferHandler {
	return &TransferHandler{techs: techs, notes: notes, logger: logger}
}

// ImportResponse is what the client shows after an import.
type ImportResponse struct {
	Message    string              `json:"message"`
	Added      int                 `json:"added"`
	Duplicates int                 `json:"duplicates"`
	Rejected   []service.Rejection `json:"rejected"`
}

func importResponse(r service.ImportResult) ImportResponse {
	rejected := r.Rejected
	if rejected == nil {
		rejected = []service.Rejection{}
	}
	return ImportResponse{
		Message:    r.Message(),
		Added:      r.Added,
		Duplicates: r.Duplicates,
		Rejected:   rejected,
	}
}

// HandleExport downloads the collection.
//
// HTTP: GET /api/export
//
// Content-Disposition makes the browser save it as technologies_YYYY-MM-DD.json.
func (h *TransferHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	data, name, err := h.techs.Export(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("export write failed", slog.String("error", err.Error()))
	}
}

// HandleImport merges a JSON file into the collection.
//
// HTTP: POST /api/import
//
// TWO WAYS IN:
// The file picker and drag-and-drop both post multipart/form-data with the
// file under "file". Scripts can post the raw JSON array as the body. Both
// end up in the same validator.
func (h *TransferHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.techs.Import(r.Context(), data)
	if err != nil {
		notifyBestEffort(r.Context(), h.notes, h.logger, "Import failed: "+errorMessage(err), model.SeverityError)
		writeError(w, err)
		return
	}

	severity := model.SeveritySuccess
	if len(result.Rejected) > 0 {
		severity = model.SeverityWarning
	}
	notifyBestEffort(r.Context(), h.notes, h.logger, result.Message(), severity)
	writeJSON(w, http.StatusOK, importResponse(result))
}

// readBody returns the uploaded file for multipart requests and the raw
// body otherwise.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, apperror.MalformedImport("could not read the uploaded form", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, apperror.ValidationFailed("file", "choose a JSON file to import")
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return nil, apperror.MalformedImport("could not read the uploaded file", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, apperror.MalformedImport(fmt.Sprintf("could not read request body (limit %d bytes)", maxBodyBytes), err)
	}
	return data, nil
}

func errorMessage(err error) string {
	if msg := apperror.MessageOf(err); msg != "" {
		return msg
	}
	return "unexpected error"
}
