package auth

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/sakif/lesson-portal/internal/access"
	"github.com/sakif/lesson-portal/internal/model"
)

// contextKey is unexported so no other package can read or shadow the viewer.
type contextKey string

const viewerKey contextKey = "viewer"

// CookieName is where the GitHub login stores the viewer token.
const CookieName = "token"

// Users looks up the account behind a token. *service.UserService satisfies it.
//
// When set, a token only counts while its subject still exists, and the
// stored role replaces the role in the token.
type Users interface {
	GetByID(ctx context.Context, id int64) (model.User, error)
}

// OptionalAuth resolves the viewer when a valid token is present and falls
// back to the anonymous viewer otherwise. It never rejects a request.
// A nil TokenService (auth disabled) makes every request anonymous.
// users may be nil, in which case the token is trusted as signed.
func OptionalAuth(tokens *TokenService, users Users) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v, err := extractViewer(r, tokens, users); err == nil {
				r = r.WithContext(WithViewer(r.Context(), v))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests without a valid token with 401.
func RequireAuth(tokens *TokenService, users Users) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, err := extractViewer(r, tokens, users)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), v)))
		})
	}
}

// RequireRole lets the request through when the viewer holds one of roles.
// Admin always passes. Mount it after RequireAuth or OptionalAuth.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := ViewerFromContext(r.Context())
			if !v.IsAuthenticated() {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
				return
			}
			if v.IsAdmin() || slices.Contains(roles, v.Role) {
				next.ServeHTTP(w, r)
				return
			}
			writeAuthError(w, http.StatusForbidden, "forbidden", "you lack the required role")
		})
	}
}

// WithViewer stores v in ctx. Exported for handler tests.
func WithViewer(ctx context.Context, v access.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey, v)
}

// ViewerFromContext returns the request's viewer, or the anonymous viewer
// when none was resolved.
func ViewerFromContext(ctx context.Context) access.Viewer {
	if v, ok := ctx.Value(viewerKey).(access.Viewer); ok {
		return v
	}
	return access.Anonymous()
}

// extractViewer verifies the request's token and, with users set, checks it
// against the stored account.
func extractViewer(r *http.Request, tokens *TokenService, users Users) (access.Viewer, error) {
	v, err := verifyToken(r, tokens)
	if err != nil || users == nil {
		return v, err
	}

	u, err := users.GetByID(r.Context(), v.UserID)
	if err != nil {
		return access.Viewer{}, fmt.Errorf("%w: %w", errUnknownUser, err)
	}
	return access.Viewer{UserID: u.ID, Role: u.Role}, nil
}

// verifyToken prefers the Authorization header and falls back to the cookie.
func verifyToken(r *http.Request, tokens *TokenService) (access.Viewer, error) {
	if tokens == nil {
		return access.Viewer{}, errAuthDisabled
	}
	if h := r.Header.Get("Authorization"); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			return access.Viewer{}, errBadHeader
		}
		return tokens.Validate(strings.TrimSpace(token))
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return access.Viewer{}, err
	}
	return tokens.Validate(cookie.Value)
}

func writeAuthError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + kind + `","message":"` + message + `"}` + "\n"))
}
