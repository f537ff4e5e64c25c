// Package service is the facade layer: one service per entity kind, each the
// only thing handlers are allowed to call.
//
// A service adds exactly two things on top of its store:
//   - input checks, returning apperror.ErrInvalidInput before the store is touched
//   - structured logs for every write
//
// Ordering and access gating are not done here; callers apply package listing
// and package access to what they get back.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/lesson-portal/internal/repository"
)

// Recorder counts writes. metrics.Recorder satisfies it.
type Recorder interface {
	RecordMutation(kind, op string)
}

type nopRecorder struct{}

func (nopRecorder) RecordMutation(string, string) {}

type keyed interface{ Key() int64 }

type normalizer[T any] interface{ Normalize() T }

// crud is the shared body of every facade. Each kind embeds one and may add
// a patch rule through checkPatch.
type crud[T keyed, D normalizer[D], P normalizer[P]] struct {
	kind       string
	repo       repository.Store[T, D, P]
	validate   *validator.Validate
	logger     *slog.Logger
	metrics    Recorder
	checkPatch func(P) error
}

func newCrud[T keyed, D normalizer[D], P normalizer[P]](
	kind string,
	repo repository.Store[T, D, P],
	validate *validator.Validate,
	logger *slog.Logger,
	metrics Recorder,
) crud[T, D, P] {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return crud[T, D, P]{
		kind:     kind,
		repo:     repo,
		validate: validate,
		logger:   logger,
		metrics:  metrics,
	}
}

// GetAll returns every record, newest first.
func (c crud[T, D, P]) GetAll(ctx context.Context) ([]T, error) {
	items, err := c.repo.GetAll(ctx)
	if err != nil {
		c.logger.Error("failed to list "+c.kind+"s", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing %ss: %w", c.kind, err)
	}
	return items, nil
}

// GetByID fails with apperror.ErrNotFound for an unknown id.
func (c crud[T, D, P]) GetByID(ctx context.Context, id int64) (T, error) {
	item, err := c.repo.GetByID(ctx, id)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("getting %s %d: %w", c.kind, id, err)
	}
	return item, nil
}

func (c crud[T, D, P]) Create(ctx context.Context, draft D) (T, error) {
	var zero T
	draft = draft.Normalize()
	if err := check(c.validate, draft); err != nil {
		return zero, err
	}

	item, err := c.repo.Create(ctx, draft)
	if err != nil {
		c.logger.Error("failed to create "+c.kind, slog.String("error", err.Error()))
		return zero, fmt.Errorf("creating %s: %w", c.kind, err)
	}

	c.metrics.RecordMutation(c.kind, "create")
	c.logger.Info(c.kind+" created", slog.Int64("id", item.Key()))
	return item, nil
}

func (c crud[T, D, P]) Update(ctx context.Context, id int64, patch P) (T, error) {
	var zero T
	patch = patch.Normalize()
	if c.checkPatch != nil {
		if err := c.checkPatch(patch); err != nil {
			return zero, err
		}
	}
	if err := check(c.validate, patch); err != nil {
		return zero, err
	}

	item, err := c.repo.Update(ctx, id, patch)
	if err != nil {
		return zero, fmt.Errorf("updating %s %d: %w", c.kind, id, err)
	}

	c.metrics.RecordMutation(c.kind, "update")
	c.logger.Info(c.kind+" updated", slog.Int64("id", id))
	return item, nil
}

func (c crud[T, D, P]) Delete(ctx context.Context, id int64) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting %s %d: %w", c.kind, id, err)
	}

	c.metrics.RecordMutation(c.kind, "delete")
	c.logger.Info(c.kind+" deleted", slog.Int64("id", id))
	return nil
}
