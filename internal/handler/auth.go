package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/lesson-portal/internal/apperror"
	"github.com/sakif/lesson-portal/internal/auth"
	"github.com/sakif/lesson-portal/internal/model"
	"github.com/sakif/lesson-portal/internal/service"
)

const stateCookie = "oauth_state"

// IdentityProvider is the OAuth side of sign-in. *auth.GitHubProvider
// satisfies it; tests use a fake.
type IdentityProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (auth.GitHubIdentity, error)
}

// AuthHandler runs the GitHub login flow and answers "who am I".
//
//   - HandleGitHubLogin    redirect to GitHub with a CSRF state cookie
//   - HandleGitHubCallback check state, exchange code, sign in, set token cookie
//   - HandleLogout         clear the token cookie
//   - HandleMe             the signed-in user's record
type AuthHandler struct {
	provider IdentityProvider
	signIn   *service.AuthService
	users    *service.UserService
	tokens   *auth.TokenService
	logger   *slog.Logger
}

// NewAuthHandler wires the login flow. provider may be nil when GitHub is not
// configured; the login routes are then simply not mounted.
func NewAuthHandler(
	provider IdentityProvider,
	signIn *service.AuthService,
	users *service.UserService,
	tokens *auth.TokenService,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		provider: provider,
		signIn:   signIn,
		users:    users,
		tokens:   tokens,
		logger:   orDiscard(logger),
	}
}

// HandleGitHubLogin: GET /auth/github/login.
//
// The state value lives in a short-lived HttpOnly cookie and must come back
// unchanged on the callback.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback: GET /auth/github/callback?code=...&state=...
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		writeError(w, h.logger, apperror.InvalidInput("state", "invalid OAuth state"))
		return
	}

	// single use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, h.logger, apperror.InvalidInput("code", "missing OAuth code"))
		return
	}

	identity, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeError(w, h.logger, apperror.Unauthorized("authentication failed"))
		return
	}

	result, err := h.signIn.SignIn(r.Context(), identity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout: POST /auth/logout. Tokens are stateless, so this only drops
// the cookie; a copied token stays valid until it expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

type meResponse struct {
	model.User
	RoleLabel string `json:"roleLabel"`
}

// HandleMe: GET /api/me (authenticated).
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	viewer := auth.ViewerFromContext(r.Context())
	if !viewer.IsAuthenticated() {
		writeError(w, h.logger, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.users.GetByID(r.Context(), viewer.UserID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: user, RoleLabel: user.Role.Label()})
}
