// Package memory is the in-process Collection Store: one slice per entity
// kind, guarded by a mutex, seeded once at start-up and lost on restart.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/lesson-portal/internal/apperror"
	"github.com/sakif/lesson-portal/internal/model"
	"github.com/sakif/lesson-portal/internal/repository"
	"github.com/sakif/lesson-portal/internal/seed"
)

// Record is what a stored entity must offer the collection.
type Record[T, P any] interface {
	Key() int64
	Clone() T
	Apply(patch P) T
}

// Draft builds a record once the collection has assigned id and timestamp.
type Draft[T any] interface {
	Build(id int64, createdAt time.Time) T
}

// Options tune a collection. The zero value is fine for tests.
type Options struct {
	// Latency is waited before every operation to mimic a remote store.
	Latency time.Duration
	// Now stamps CreatedAt. Defaults to time.Now in UTC.
	Now    func() time.Time
	Logger *slog.Logger
}

// Collection is a generic in-memory store for one entity kind.
//
// Newest records sit at the front of items, so GetAll needs no sort.
// Every operation holds mu for its whole read-modify-write, so concurrent
// HTTP requests never observe a half-applied update.
type Collection[T Record[T, P], D Draft[T], P any] struct {
	kind string

	mu        sync.Mutex
	items     []T
	highWater int64

	latency time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

var (
	_ repository.VideoRepository       = (*Collection[model.Video, model.VideoDraft, model.VideoPatch])(nil)
	_ repository.PostRepository        = (*Collection[model.BlogPost, model.PostDraft, model.PostPatch])(nil)
	_ repository.TestimonialRepository = (*Collection[model.Testimonial, model.TestimonialDraft, model.TestimonialPatch])(nil)
	_ repository.UserRepository        = (*Collection[model.User, model.UserDraft, model.UserPatch])(nil)
)

// NewCollection creates a collection holding a copy of initial, in the same order.
func NewCollection[T Record[T, P], D Draft[T], P any](kind string, initial []T, opts Options) *Collection[T, D, P] {
	c := &Collection[T, D, P]{
		kind:    kind,
		items:   make([]T, 0, len(initial)),
		latency: opts.Latency,
		now:     opts.Now,
		logger:  opts.Logger,
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	for _, item := range initial {
		c.items = append(c.items, item.Clone())
		if item.Key() > c.highWater {
			c.highWater = item.Key()
		}
	}
	return c
}

// NewRepositories builds one empty-or-seeded collection per kind.
func NewRepositories(data seed.Dataset, opts Options) repository.Repositories {
	return repository.Repositories{
		Videos:       NewCollection[model.Video, model.VideoDraft, model.VideoPatch]("video", data.Videos, opts),
		Posts:        NewCollection[model.BlogPost, model.PostDraft, model.PostPatch]("post", data.Posts, opts),
		Testimonials: NewCollection[model.Testimonial, model.TestimonialDraft, model.TestimonialPatch]("testimonial", data.Testimonials, opts),
		Users:        NewCollection[model.User, model.UserDraft, model.UserPatch]("user", data.Users, opts),
	}
}

func (c *Collection[T, D, P]) GetAll(ctx context.Context) ([]T, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]T, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item.Clone())
	}
	return out, nil
}

func (c *Collection[T, D, P]) GetByID(ctx context.Context, id int64) (T, error) {
	var zero T
	if err := c.wait(ctx); err != nil {
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return zero, apperror.NotFound(c.kind, id)
	}
	return c.items[i].Clone(), nil
}

func (c *Collection[T, D, P]) Create(ctx context.Context, draft D) (T, error) {
	var zero T
	if err := c.wait(ctx); err != nil {
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]int64, len(c.items))
	for i, item := range c.items {
		ids[i] = item.Key()
	}
	id := nextID(ids, c.highWater)
	c.highWater = id

	record := draft.Build(id, c.now())
	c.items = append([]T{record}, c.items...)

	c.logger.Debug("memory: record created", slog.String("kind", c.kind), slog.Int64("id", id))
	return record.Clone(), nil
}

func (c *Collection[T, D, P]) Update(ctx context.Context, id int64, patch P) (T, error) {
	var zero T
	if err := c.wait(ctx); err != nil {
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return zero, apperror.NotFound(c.kind, id)
	}
	c.items[i] = c.items[i].Apply(patch)
	return c.items[i].Clone(), nil
}

func (c *Collection[T, D, P]) Delete(ctx context.Context, id int64) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return apperror.NotFound(c.kind, id)
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

// indexOf must be called with mu held.
func (c *Collection[T, D, P]) indexOf(id int64) int {
	for i, item := range c.items {
		if item.Key() == id {
			return i
		}
	}
	return -1
}

// wait sleeps for the configured latency. It runs before the lock is taken,
// so a cancelled context leaves the collection untouched.
func (c *Collection[T, D, P]) wait(ctx context.Context) error {
	if c.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
