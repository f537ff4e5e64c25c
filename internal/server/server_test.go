package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/lesson-portal/internal/access"
	"github.com/sakif/lesson-portal/internal/auth"
	"github.com/sakif/lesson-portal/internal/config"
	"github.com/sakif/lesson-portal/internal/model"
)

const testSecret = "server-test-secret-0123456789"

func testConfig() *config.Config {
	return &config.Config{
		Port: 8080,
		Seed: true,
		Log:  config.LogConfig{Level: "info", Format: "text"},
		Store: config.StoreConfig{
			Driver: config.DriverMemory,
		},
		Auth: config.AuthConfig{JWTSecret: testSecret},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	srv, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func tokenFor(t *testing.T, v access.Viewer) string {
	t.Helper()
	tokens, err := auth.NewTokenService(testSecret, 0)
	require.NoError(t, err)
	token, err := tokens.Generate(v)
	require.NoError(t, err)
	return token
}

func do(t *testing.T, srv *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRoutes_Permissions(t *testing.T) {
	srv := newTestServer(t, testConfig())

	adminToken := tokenFor(t, access.Viewer{UserID: 1, Role: model.RoleAdmin})
	memberToken := tokenFor(t, access.Viewer{UserID: 3, Role: model.RoleMember})

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       string
		wantStatus int
	}{
		{"anonymous lists videos", http.MethodGet, "/api/videos", "", "", http.StatusOK},
		{"anonymous reads home", http.MethodGet, "/api/home", "", "", http.StatusOK},
		{"anonymous lists testimonials", http.MethodGet, "/api/testimonials", "", "", http.StatusOK},
		{"bad token still reads as anonymous", http.MethodGet, "/api/posts", "garbage", "", http.StatusOK},
		{"anonymous cannot post testimonial", http.MethodPost, "/api/testimonials", "", `{"content":"hi"}`, http.StatusUnauthorized},
		{"bad token cannot post testimonial", http.MethodPost, "/api/testimonials", "garbage", `{"content":"hi"}`, http.StatusUnauthorized},
		{"member posts testimonial", http.MethodPost, "/api/testimonials", memberToken, `{"content":"hi"}`, http.StatusCreated},
		{"anonymous me", http.MethodGet, "/api/me", "", "", http.StatusUnauthorized},
		{"member me", http.MethodGet, "/api/me", memberToken, "", http.StatusOK},
		{"anonymous users", http.MethodGet, "/api/users", "", "", http.StatusUnauthorized},
		{"member users", http.MethodGet, "/api/users", memberToken, "", http.StatusForbidden},
		{"admin users", http.MethodGet, "/api/users", adminToken, "", http.StatusOK},
		{"member stats", http.MethodGet, "/api/admin/stats", memberToken, "", http.StatusForbidden},
		{"admin stats", http.MethodGet, "/api/admin/stats", adminToken, "", http.StatusOK},
		{"member cannot delete video", http.MethodDelete, "/api/videos/1", memberToken, "", http.StatusForbidden},
		{"admin deletes video", http.MethodDelete, "/api/videos/1", adminToken, "", http.StatusNoContent},
		{"member cannot delete testimonial", http.MethodDelete, "/api/testimonials/1", memberToken, "", http.StatusForbidden},
		{"github login not mounted", http.MethodGet, "/auth/github/login", "", "", http.StatusNotFound},
		{"logout", http.MethodPost, "/auth/logout", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestRoutes_TokenCookie(t *testing.T) {
	srv := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tokenFor(t, access.Viewer{UserID: 2, Role: model.RoleFree})})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "guest@example.com")
}

func TestRoutes_AuthDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	srv := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/videos", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/users", "", "").Code)
}

func TestRoutes_GitHubMounted(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.GitHubClientID = "id"
	cfg.Auth.GitHubClientSecret = "secret"
	cfg.Auth.GitHubCallbackURL = "http://localhost:8080/auth/github/callback"
	srv := newTestServer(t, cfg)

	rec := do(t, srv, http.MethodGet, "/auth/github/login", "", "")
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "github.com")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())

	do(t, srv, http.MethodGet, "/api/videos", "", "")
	rec := do(t, srv, http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `route="/api/videos`)
	assert.Contains(t, body, "content_locked_total")
}

func TestSQLiteDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Driver = config.DriverSQLite
	cfg.Store.DBPath = filepath.Join(t.TempDir(), "nested", "portal.db")
	srv := newTestServer(t, cfg)

	adminToken := tokenFor(t, access.Viewer{UserID: 1, Role: model.RoleAdmin})

	rec := do(t, srv, http.MethodGet, "/api/users", adminToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "admin@example.com")

	rec = do(t, srv, http.MethodPost, "/api/users", adminToken, `{"email":"admin@example.com","role":"free"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestNew_RejectsShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "short"

	_, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

// Tier changes and deletions apply to tokens already handed out.
func TestRoutes_UserChangesApplyToIssuedTokens(t *testing.T) {
	srv := newTestServer(t, testConfig())

	adminToken := tokenFor(t, access.Viewer{UserID: 1, Role: model.RoleAdmin})
	userToken := tokenFor(t, access.Viewer{UserID: 2, Role: model.RoleAdmin})

	assert.Equal(t, http.StatusForbidden, do(t, srv, http.MethodGet, "/api/users", userToken, "").Code,
		"a token cannot claim more than the stored role")

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/api/users/2", adminToken, `{"role":"admin"}`).Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/users", userToken, "").Code)

	require.Equal(t, http.StatusOK, do(t, srv, http.MethodPut, "/api/users/2", adminToken, `{"role":"free"}`).Code)
	assert.Equal(t, http.StatusForbidden, do(t, srv, http.MethodGet, "/api/users", userToken, "").Code)

	require.Equal(t, http.StatusNoContent, do(t, srv, http.MethodDelete, "/api/users/2", adminToken, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/users", userToken, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodPost, "/api/videos", userToken,
		`{"title":"x","allowedRoles":["free"],"category":"membership"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/me", userToken, "").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/videos", userToken, "").Code,
		"public pages still serve the stale token as anonymous")
}
