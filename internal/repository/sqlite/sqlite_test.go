package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sakif/lesson-portal/internal/apperror"
	"github.com/sakif/lesson-portal/internal/model"
	"github.com/sakif/lesson-portal/internal/seed"
)

// newTestDB opens a fresh in-memory database that is closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestVideo(t *testing.T, db *DB, title string) model.Video {
	t.Helper()
	v, err := db.videos.Create(context.Background(), model.VideoDraft{
		Title:          title,
		CurriculumURLs: []string{"https://youtu.be/a", "https://vimeo.com/2"},
		AllowedRoles:   []model.Role{model.RoleMember, model.RoleMaster},
		Category:       model.CategoryMembership,
	})
	if err != nil {
		t.Fatalf("failed to create test video: %v", err)
	}
	return v
}

// =========================================================================
// CREATE / GET
// =========================================================================

func TestCreate_AssignsSequentialIDs(t *testing.T) {
	db := newTestDB(t)

	for want := int64(1); want <= 3; want++ {
		v := createTestVideo(t, db, "lesson")
		if v.ID != want {
			t.Errorf("Create() id = %d, want %d", v.ID, want)
		}
	}
}

func TestCreate_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	created := createTestVideo(t, db, "Habit Stacking")

	got, err := db.videos.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if got.Title != created.Title {
		t.Errorf("Title = %q, want %q", got.Title, created.Title)
	}
	if len(got.CurriculumURLs) != 2 || got.CurriculumURLs[1] != "https://vimeo.com/2" {
		t.Errorf("CurriculumURLs = %v", got.CurriculumURLs)
	}
	if len(got.AllowedRoles) != 2 || got.AllowedRoles[0] != model.RoleMember {
		t.Errorf("AllowedRoles = %v", got.AllowedRoles)
	}
	if got.Category != model.CategoryMembership {
		t.Errorf("Category = %q", got.Category)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.posts.GetByID(context.Background(), 42)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetAll_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	createTestVideo(t, db, "first")
	createTestVideo(t, db, "second")
	createTestVideo(t, db, "third")

	all, err := db.videos.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(all) != 3 || all[0].Title != "third" || all[2].Title != "first" {
		t.Errorf("GetAll() order = %v", titles(all))
	}
}

func TestGetAll_EmptyIsNotNil(t *testing.T) {
	db := newTestDB(t)

	all, err := db.users.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if all == nil {
		t.Error("GetAll() on an empty table returned nil")
	}
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

func TestUpdate_MergesPatch(t *testing.T) {
	db := newTestDB(t)
	created := createTestVideo(t, db, "before")

	title := "after"
	pinned := true
	updated, err := db.videos.Update(context.Background(), created.ID, model.VideoPatch{Title: &title, IsPinned: &pinned})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "after" || !updated.IsPinned {
		t.Errorf("Update() = %+v", updated)
	}
	if len(updated.CurriculumURLs) != 2 {
		t.Errorf("Update() dropped curriculum: %v", updated.CurriculumURLs)
	}

	got, _ := db.videos.GetByID(context.Background(), created.ID)
	if got.Title != "after" || !got.IsPinned {
		t.Errorf("stored row not updated: %+v", got)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	hidden := true
	_, err := db.testimonials.Update(context.Background(), 9, model.TestimonialPatch{IsHidden: &hidden})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	v := createTestVideo(t, db, "doomed")

	if err := db.videos.Delete(ctx, v.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := db.videos.GetByID(ctx, v.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := db.videos.Delete(ctx, v.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestDelete_NewestIDIsNotReused(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	createTestVideo(t, db, "a")
	b := createTestVideo(t, db, "b")
	if err := db.videos.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	c := createTestVideo(t, db, "c")
	if c.ID <= b.ID {
		t.Errorf("new id %d reuses or precedes deleted id %d", c.ID, b.ID)
	}
}

func TestUsers_DuplicateEmailIsConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.users.Create(ctx, model.UserDraft{Email: "a@example.com"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := db.users.Create(ctx, model.UserDraft{Email: "a@example.com"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate Create() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// SEEDING
// =========================================================================

func TestSeed_KeepsIDsAndOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	data, err := seed.Load()
	if err != nil {
		t.Fatalf("seed.Load() error = %v", err)
	}

	if err := db.Seed(ctx, data); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	videos, _ := db.videos.GetAll(ctx)
	if len(videos) != len(data.Videos) {
		t.Fatalf("got %d videos, want %d", len(videos), len(data.Videos))
	}
	for i := range videos {
		if videos[i].ID != data.Videos[i].ID {
			t.Errorf("videos[%d].ID = %d, want %d", i, videos[i].ID, data.Videos[i].ID)
		}
	}

	ts, _ := db.testimonials.GetAll(ctx)
	if len(ts) != len(data.Testimonials) {
		t.Errorf("got %d testimonials, want %d", len(ts), len(data.Testimonials))
	}

	u, err := db.users.Create(ctx, model.UserDraft{Email: "new@example.com"})
	if err != nil {
		t.Fatalf("Create() after seed error = %v", err)
	}
	if want := int64(len(data.Users) + 1); u.ID != want {
		t.Errorf("first id after seed = %d, want %d", u.ID, want)
	}
}

func TestSeed_SkipsPopulatedTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.db")
	ctx := context.Background()
	data, _ := seed.Load()

	db, err := New(path, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := db.Seed(ctx, data); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	db.Close()

	// Reopening the same file and seeding again must not duplicate rows.
	db, err = New(path, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer db.Close()
	if err := db.Seed(ctx, data); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}

	posts, _ := db.posts.GetAll(ctx)
	if len(posts) != len(data.Posts) {
		t.Errorf("got %d posts after reseed, want %d", len(posts), len(data.Posts))
	}
}

func TestRepositoriesSatisfyStores(t *testing.T) {
	repos := newTestDB(t).Repositories()
	if repos.Videos == nil || repos.Posts == nil || repos.Testimonials == nil || repos.Users == nil {
		t.Fatalf("Repositories() left a store nil: %+v", repos)
	}
}

func titles(vs []model.Video) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Title
	}
	return out
}
