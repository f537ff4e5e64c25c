package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/lesson-portal/internal/apperror"
	"github.com/sakif/lesson-portal/internal/model"
	"github.com/sakif/lesson-portal/internal/repository/memory"
	"github.com/sakif/lesson-portal/internal/seed"
)

func TestUserService_CreateDefaultsToFree(t *testing.T) {
	s := newServices(t, seed.Dataset{})

	u, err := s.users.Create(context.Background(), model.UserDraft{Email: "  New@Example.COM "})
	require.NoError(t, err)

	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "new@example.com", u.Email)
	assert.Equal(t, model.RoleFree, u.Role)
}

func TestUserService_CreateValidation(t *testing.T) {
	s := newServices(t, seed.Dataset{})
	ctx := context.Background()

	_, err := s.users.Create(ctx, model.UserDraft{Email: "not-an-email"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = s.users.Create(ctx, model.UserDraft{Email: "a@b.co", Role: "owner"})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestUserService_DuplicateEmailIsConflict(t *testing.T) {
	s := newServices(t, seed.Dataset{})
	ctx := context.Background()

	first, err := s.users.Create(ctx, model.UserDraft{Email: "a@example.com"})
	require.NoError(t, err)
	second, err := s.users.Create(ctx, model.UserDraft{Email: "b@example.com"})
	require.NoError(t, err)

	_, err = s.users.Create(ctx, model.UserDraft{Email: "A@example.com"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = s.users.Update(ctx, second.ID, model.UserPatch{Email: ptr("a@example.com")})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	// Re-saving your own address is not a conflict.
	_, err = s.users.Update(ctx, first.ID, model.UserPatch{Email: ptr("a@example.com")})
	assert.NoError(t, err)
}

func TestUserService_ChangeRole(t *testing.T) {
	s := newServices(t, seed.Dataset{})
	ctx := context.Background()

	u, _ := s.users.Create(ctx, model.UserDraft{Email: "a@example.com"})

	changed, err := s.users.ChangeRole(ctx, u.ID, model.RoleBoth)
	require.NoError(t, err)
	assert.Equal(t, model.RoleBoth, changed.Role)
	assert.Equal(t, u.Email, changed.Email)

	_, err = s.users.ChangeRole(ctx, u.ID, model.Role("owner"))
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	_, err = s.users.ChangeRole(ctx, 404, model.RoleMember)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUserService_FindByEmail(t *testing.T) {
	data, err := seed.Load()
	require.NoError(t, err)
	s := newServices(t, data)
	ctx := context.Background()

	u, err := s.users.FindByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, model.RoleAdmin, u.Role)

	_, err = s.users.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = s.users.FindByEmail(ctx, " ")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestUserService_SeededIDsContinue(t *testing.T) {
	data, err := seed.Load()
	require.NoError(t, err)
	s := newServices(t, data)

	u, err := s.users.Create(context.Background(), model.UserDraft{Email: "fresh@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(len(data.Users)+1), u.ID)
}

// With store latency, a check-then-write would let every racer through.
func TestUserService_ConcurrentCreatesKeepEmailUnique(t *testing.T) {
	repos := memory.NewRepositories(seed.Dataset{}, memory.Options{Latency: 5 * time.Millisecond})
	users := NewUserService(repos.Users, NewValidator(), nil, nil)
	ctx := context.Background()

	const racers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := users.Create(ctx, model.UserDraft{Email: "dup@example.com"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, apperror.ErrConflict):
				conflicts++
			default:
				t.Errorf("Create() unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, racers-1, conflicts)

	all, err := users.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUserService_ConcurrentEmailChangesKeepEmailUnique(t *testing.T) {
	repos := memory.NewRepositories(seed.Dataset{}, memory.Options{Latency: 5 * time.Millisecond})
	users := NewUserService(repos.Users, NewValidator(), nil, nil)
	ctx := context.Background()

	a, err := users.Create(ctx, model.UserDraft{Email: "a@example.com"})
	require.NoError(t, err)
	b, err := users.Create(ctx, model.UserDraft{Email: "b@example.com"})
	require.NoError(t, err)

	target := "taken@example.com"
	var wg sync.WaitGroup
	for _, id := range []int64{a.ID, b.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = users.Update(ctx, id, model.UserPatch{Email: &target})
		}()
	}
	wg.Wait()

	all, err := users.GetAll(ctx)
	require.NoError(t, err)
	var owners int
	for _, u := range all {
		if u.Email == target {
			owners++
		}
	}
	assert.Equal(t, 1, owners)
}
