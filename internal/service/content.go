package service

import (
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/lesson-portal/internal/apperror"
	"github.com/sakif/lesson-portal/internal/model"
	"github.com/sakif/lesson-portal/internal/repository"
)

// VideoService is the facade for video lessons.
type VideoService struct {
	crud[model.Video, model.VideoDraft, model.VideoPatch]
}

func NewVideoService(repo repository.VideoRepository, validate *validator.Validate, logger *slog.Logger, metrics Recorder) *VideoService {
	c := newCrud("video", repo, validate, logger, metrics)
	c.checkPatch = func(p model.VideoPatch) error {
		return requireRoles(p.AllowedRoles)
	}
	return &VideoService{crud: c}
}

// PostService is the facade for blog ("insight") posts.
type PostService struct {
	crud[model.BlogPost, model.PostDraft, model.PostPatch]
}

func NewPostService(repo repository.PostRepository, validate *validator.Validate, logger *slog.Logger, metrics Recorder) *PostService {
	c := newCrud("post", repo, validate, logger, metrics)
	c.checkPatch = func(p model.PostPatch) error {
		return requireRoles(p.AllowedRoles)
	}
	return &PostService{crud: c}
}

// TestimonialService is the facade for testimonials. Who may edit or
// moderate is decided by the caller with package access.
type TestimonialService struct {
	crud[model.Testimonial, model.TestimonialDraft, model.TestimonialPatch]
}

func NewTestimonialService(repo repository.TestimonialRepository, validate *validator.Validate, logger *slog.Logger, metrics Recorder) *TestimonialService {
	return &TestimonialService{crud: newCrud("testimonial", repo, validate, logger, metrics)}
}

// requireRoles keeps the allowed-roles set non-empty through updates.
// A nil slice means the patch does not touch the field.
func requireRoles(roles []model.Role) error {
	if roles != nil && len(roles) == 0 {
		return apperror.InvalidInput("allowedRoles", "allowedRoles needs at least 1 entries")
	}
	return nil
}
