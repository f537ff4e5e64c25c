package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/lesson-portal/internal/access"
	"github.com/sakif/lesson-portal/internal/apperror"
	"github.com/sakif/lesson-portal/internal/auth"
	"github.com/sakif/lesson-portal/internal/model"
)

// AuthService maps an external identity onto a portal user and issues the
// viewer token. New accounts start on the free tier.
type AuthService struct {
	users  *UserService
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthService(users *UserService, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// AuthResult is returned after a successful sign-in.
type AuthResult struct {
	User    model.User
	Token   string
	Created bool // true when this sign-in registered the account
}

// SignIn finds the user with the identity's e-mail, registering a free-tier
// user if there is none, and signs a token carrying the user's current role.
func (s *AuthService) SignIn(ctx context.Context, id auth.GitHubIdentity) (AuthResult, error) {
	if id.Email == "" {
		return AuthResult{}, apperror.InvalidInput("email", "email is required")
	}

	created := false
	user, err := s.users.FindByEmail(ctx, id.Email)
	if errors.Is(err, apperror.ErrNotFound) {
		user, err = s.users.Create(ctx, model.UserDraft{Email: id.Email, Role: model.RoleFree})
		created = true
	}
	if err != nil {
		return AuthResult{}, fmt.Errorf("service/auth: resolving user %s: %w", id.Email, err)
	}

	token, err := s.tokens.Generate(access.Viewer{UserID: user.ID, Role: user.Role})
	if err != nil {
		return AuthResult{}, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}

	s.logger.Info("user signed in",
		slog.Int64("userID", user.ID),
		slog.Int64("githubID", id.ID),
		slog.String("login", id.Login),
		slog.Bool("created", created),
	)
	return AuthResult{User: user, Token: token, Created: created}, nil
}
