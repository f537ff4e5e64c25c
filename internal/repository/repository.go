// Package repository defines the Collection Store contract shared by every
// entity kind. Two implementations exist:
//
//	repository/memory  the default: a slice per kind, seeded at start-up
//	repository/sqlite  the same contract backed by a SQLite file
//
// Services depend on these interfaces only, never on a concrete store.
package repository

import (
	"context"

	"github.com/sakif/lesson-portal/internal/model"
)

// Store is the CRUD contract for one collection.
//
//   - T is the stored record, D the draft used to create it, P the patch used to update it.
//   - Every returned value is a copy; mutating it never changes the store.
//   - GetAll returns most-recently-created first.
//   - GetByID, Update and Delete fail with apperror.ErrNotFound for an unknown id.
type Store[T, D, P any] interface {
	GetAll(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, draft D) (T, error)
	Update(ctx context.Context, id int64, patch P) (T, error)
	Delete(ctx context.Context, id int64) error
}

type (
	VideoRepository       = Store[model.Video, model.VideoDraft, model.VideoPatch]
	PostRepository        = Store[model.BlogPost, model.PostDraft, model.PostPatch]
	TestimonialRepository = Store[model.Testimonial, model.TestimonialDraft, model.TestimonialPatch]
	UserRepository        = Store[model.User, model.UserDraft, model.UserPatch]
)

// Repositories groups one store per kind so the server can swap backends in one place.
type Repositories struct {
	Videos       VideoRepository
	Posts        PostRepository
	Testimonials TestimonialRepository
	Users        UserRepository
}
