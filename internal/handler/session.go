package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/learning-tracker/internal/model"
	"github.com/sakif/learning-tracker/internal/service"
)

// SessionHandler drives the demo session.
//
// HANDLER RESPONSIBILITIES:
//   - HandleCurrent  → who is logged in (if anyone)
//   - HandleLogin    → check demo credentials
//   - HandleRegister → synthesize and log in a new user
//   - HandleLogout   → clear the session
//
// Wrong credentials answer 401 with the typed LoginResult body, so a client
// gets {"success":false,"error":"..."} either way.
type SessionHandler struct {
	session *service.SessionService
	notes   *service.NotificationService
	logger  *slog.Logger
}

func NewSessionHandler(
	session *service.SessionService,
	notes *service.NotificationService,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{session: session, notes: notes, logger: logger}
}

// SessionState is the body of GET /api/session.
type SessionState struct {
	Authenticated bool            `json:"authenticated"`
	User          *model.Identity `json:"user,omitempty"`
}

// HandleCurrent - GET /api/session
func (h *SessionHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	who, ok := h.session.Current()
	state := SessionState{Authenticated: ok}
	if ok {
		state.User = &who
	}
	writeJSON(w, http.StatusOK, state)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin - POST /api/session/login
// REQUEST BODY: {"username":"admin","password":"admin123"}
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.session.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	if !result.Success {
		writeJSON(w, http.StatusUnauthorized, result)
		return
	}

	notifyBestEffort(r.Context(), h.notes, h.logger, "Welcome, "+result.User.DisplayName(), model.SeveritySuccess)
	writeJSON(w, http.StatusOK, result)
}

// HandleRegister - POST /api/session/register
// REQUEST BODY: {"username":"ann","name":"Ann","email":"ann@example.com","password":"..."}
func (h *SessionHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var profile model.RegisterProfile
	if err := decodeJSON(w, r, &profile); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.session.Register(r.Context(), profile)
	if err != nil {
		writeError(w, err)
		return
	}

	notifyBestEffort(r.Context(), h.notes, h.logger, "Account created for "+result.User.DisplayName(), model.SeveritySuccess)
	writeJSON(w, http.StatusCreated, result)
}

// HandleLogout - POST /api/session/logout
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
