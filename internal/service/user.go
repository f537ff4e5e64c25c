package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/lesson-portal/internal/apperror"
	"github.com/sakif/lesson-portal/internal/model"
	"github.com/sakif/lesson-portal/internal/repository"
)

// UserService is the facade for accounts. On top of the shared CRUD it keeps
// e-mail addresses unique, since GitHub sign-in matches users by e-mail.
type UserService struct {
	crud[model.User, model.UserDraft, model.UserPatch]

	// emailMu serializes writes that claim an e-mail address, so the
	// uniqueness check and the write happen as one step.
	emailMu sync.Mutex
}

func NewUserService(repo repository.UserRepository, validate *validator.Validate, logger *slog.Logger, metrics Recorder) *UserService {
	return &UserService{crud: newCrud("user", repo, validate, logger, metrics)}
}

func (s *UserService) Create(ctx context.Context, draft model.UserDraft) (model.User, error) {
	draft = draft.Normalize()

	s.emailMu.Lock()
	defer s.emailMu.Unlock()

	if err := s.ensureEmailFree(ctx, draft.Email, 0); err != nil {
		return model.User{}, err
	}
	return s.crud.Create(ctx, draft)
}

func (s *UserService) Update(ctx context.Context, id int64, patch model.UserPatch) (model.User, error) {
	patch = patch.Normalize()
	if patch.Email != nil {
		s.emailMu.Lock()
		defer s.emailMu.Unlock()

		if err := s.ensureEmailFree(ctx, *patch.Email, id); err != nil {
			return model.User{}, err
		}
	}
	return s.crud.Update(ctx, id, patch)
}

// ChangeRole is the admin dashboard's tier reassignment.
func (s *UserService) ChangeRole(ctx context.Context, id int64, role model.Role) (model.User, error) {
	user, err := s.Update(ctx, id, model.UserPatch{Role: &role})
	if err != nil {
		return model.User{}, err
	}
	s.logger.Info("user role changed", slog.Int64("id", id), slog.String("role", string(role)))
	return user, nil
}

// FindByEmail matches case-insensitively.
func (s *UserService) FindByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return model.User{}, apperror.InvalidInput("email", "email is required")
	}

	users, err := s.repo.GetAll(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("looking up user by email: %w", err)
	}
	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, apperror.NotFoundBy("user", "email", email)
}

// ensureEmailFree fails with a Conflict if another user (not selfID) owns email.
func (s *UserService) ensureEmailFree(ctx context.Context, email string, selfID int64) error {
	if email == "" {
		return nil // left to validation
	}
	users, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("checking email uniqueness: %w", err)
	}
	for _, u := range users {
		if u.Email == email && u.ID != selfID {
			return apperror.Conflict("user", "email "+email)
		}
	}
	return nil
}
