package middleware

import (
	"net/http"

	"github.com/sakif/learning-tracker/internal/model"
)

// PermissionChecker answers "may the current session do this?".
// service.SessionService implements it.
type PermissionChecker interface {
	Authenticated() bool
	HasPermission(required model.Role) bool
}

// RequireRole gates a route on the process-wide demo session.
//
// There is no per-request credential: the session is whatever the last
// login/register left behind. Anonymous gets 401, a logged-in identity with
// the wrong role gets 403.
func RequireRole(session PermissionChecker, role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !session.Authenticated() {
				writeDenied(w, http.StatusUnauthorized, "unauthorized", "log in first")
				return
			}
			if !session.HasPermission(role) {
				writeDenied(w, http.StatusForbidden, "forbidden", "requires role "+string(role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeDenied(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + kind + `","message":"` + message + `"}` + "\n"))
}
