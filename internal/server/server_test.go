package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/learning-tracker/internal/config"
)

func newTestServer(t *testing.T, seed bool) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = ":memory:"
	cfg.SeedDemoData = seed

	srv, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func (s *Server) serve(method, path, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func (s *Server) login(t *testing.T, username, password string) {
	t.Helper()
	result, err := s.Session.Login(context.Background(), username, password)
	require.NoError(t, err)
	require.True(t, result.Success)
}

func TestRoutes_AnonymousClearLeavesData(t *testing.T) {
	srv := newTestServer(t, true)

	rec := srv.serve(http.MethodDelete, "/api/storage/learning", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	techs, err := srv.Technologies.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, techs, 3)
}

func TestNew_SeedsDemoData(t *testing.T) {
	srv := newTestServer(t, true)

	techs, err := srv.Technologies.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, techs, 3)

	empty := newTestServer(t, false)
	techs, err = empty.Technologies.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, techs)
}

// ===== PERMISSION TESTS =====

func TestRoutes_Permissions(t *testing.T) {
	tests := []struct {
		name   string
		login  string // "", "user" or "admin"
		method string
		path   string
		body   string
		want   int
	}{
		{"anonymous can read", "", http.MethodGet, "/api/technologies", "", http.StatusOK},
		{"anonymous can read stats", "", http.MethodGet, "/api/technologies/stats", "", http.StatusOK},
		{"anonymous cannot create", "", http.MethodPost, "/api/technologies", `{"title":"Go"}`, http.StatusUnauthorized},
		{"anonymous cannot list notifications", "", http.MethodGet, "/api/notifications", "", http.StatusUnauthorized},
		{"user can create", "user", http.MethodPost, "/api/technologies", `{"title":"Go"}`, http.StatusCreated},
		{"user can delete", "user", http.MethodDelete, "/api/technologies/1", "", http.StatusNoContent},
		{"user cannot replace all", "user", http.MethodPut, "/api/technologies", `[{"title":"Go"}]`, http.StatusForbidden},
		{"admin can replace all", "admin", http.MethodPut, "/api/technologies", `[{"title":"Go"}]`, http.StatusOK},
		{"anonymous can read settings", "", http.MethodGet, "/api/settings", "", http.StatusOK},
		{"anonymous cannot wipe storage", "", http.MethodDelete, "/api/storage", "", http.StatusUnauthorized},
		{"anonymous cannot clear learning data", "", http.MethodDelete, "/api/storage/learning", "", http.StatusUnauthorized},
		{"user can clear learning data", "user", http.MethodDelete, "/api/storage/learning", "", http.StatusNoContent},
		{"anonymous cannot import", "", http.MethodPost, "/api/import", `[{"title":"Go"}]`, http.StatusUnauthorized},
		{"user can import", "user", http.MethodPost, "/api/import", `[{"title":"Go"}]`, http.StatusOK},
		{"anonymous cannot record notifications", "", http.MethodPost, "/api/notifications", `{"message":"hi"}`, http.StatusUnauthorized},
		{"user can record notifications", "user", http.MethodPost, "/api/notifications", `{"message":"hi"}`, http.StatusCreated},
		{"anonymous cannot delete", "", http.MethodDelete, "/api/technologies/1", "", http.StatusUnauthorized},
		{"anonymous can export", "", http.MethodGet, "/api/export", "", http.StatusOK},
		{"anonymous can toggle theme", "", http.MethodPost, "/api/theme/toggle", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, true)
			if tt.login == "admin" {
				srv.login(t, "admin", "admin123")
			} else if tt.login == "user" {
				srv.login(t, "user", "user123")
			}

			rec := srv.serve(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRoutes_CORSPreflight(t *testing.T) {
	srv := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/technologies", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCheckOrigin(t *testing.T) {
	srv := newTestServer(t, false)
	assert.Nil(t, srv.checkOrigin(), "wildcard allows everything")

	srv.config.CORSOrigins = []string{"http://localhost:5173"}
	check := srv.checkOrigin()
	require.NotNil(t, check)

	req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
	assert.True(t, check(req), "no Origin header")

	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))
}
