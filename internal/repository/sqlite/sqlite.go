// Package sqlite implements the repository stores on top of a SQLite file.
//
// It uses modernc.org/sqlite, a pure Go translation of SQLite, so the binary
// builds without CGo. Pass ":memory:" as the path for a throwaway database in
// tests.
//
// ROW ORDER:
// Every table uses INTEGER PRIMARY KEY AUTOINCREMENT. SQLite then never hands
// out an id at or below the largest one it has ever issued, even after that
// row is deleted, so "ORDER BY id DESC" is exactly most-recently-created first.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/lesson-portal/internal/model"
	"github.com/sakif/lesson-portal/internal/repository"
	"github.com/sakif/lesson-portal/internal/seed"
)

// DB wraps the connection pool and hands out one store per entity kind.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
	now    func() time.Time

	videos       *Table[model.Video, model.VideoDraft, model.VideoPatch]
	posts        *Table[model.BlogPost, model.PostDraft, model.PostPatch]
	testimonials *Table[model.Testimonial, model.TestimonialDraft, model.TestimonialPatch]
	users        *Table[model.User, model.UserDraft, model.UserPatch]
}

// New opens the database at dbPath and creates any missing tables.
//
//	db, err := sqlite.New("data/portal.db", logger)
//	if err != nil { ... }
//	defer db.Close()
func New(dbPath string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection: SQLite serialises writers anyway, and ":memory:" gives
	// every new connection its own empty database.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{
		conn:   conn,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	db.videos = newTable[model.Video, model.VideoDraft, model.VideoPatch](db, videoColumns)
	db.posts = newTable[model.BlogPost, model.PostDraft, model.PostPatch](db, postColumns)
	db.testimonials = newTable[model.Testimonial, model.TestimonialDraft, model.TestimonialPatch](db, testimonialColumns)
	db.users = newTable[model.User, model.UserDraft, model.UserPatch](db, userColumns)
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Repositories exposes the four tables through the store interfaces.
func (db *DB) Repositories() repository.Repositories {
	return repository.Repositories{
		Videos:       db.videos,
		Posts:        db.posts,
		Testimonials: db.testimonials,
		Users:        db.users,
	}
}

// Seed fills every empty table from data, keeping the dataset's ids.
// Tables that already hold rows are left alone, so restarting a file-backed
// server never duplicates the seed.
func (db *DB) Seed(ctx context.Context, data seed.Dataset) error {
	if err := seedTable(ctx, db.videos, data.Videos); err != nil {
		return err
	}
	if err := seedTable(ctx, db.posts, data.Posts); err != nil {
		return err
	}
	if err := seedTable(ctx, db.testimonials, data.Testimonials); err != nil {
		return err
	}
	return seedTable(ctx, db.users, data.Users)
}

// seedTable inserts oldest first so that AUTOINCREMENT ends at the seed's max id.
func seedTable[T record[T, P], D draft[T], P any](ctx context.Context, t *Table[T, D, P], items []T) error {
	n, err := t.count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		t.db.logger.Debug("sqlite: table already seeded", slog.String("table", t.cols.table), slog.Int("rows", n))
		return nil
	}

	tx, err := t.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: seeding %s: %w", t.cols.table, err)
	}
	defer tx.Rollback()

	for i := len(items) - 1; i >= 0; i-- {
		if _, err := t.insert(ctx, tx, items[i], true); err != nil {
			return fmt.Errorf("sqlite: seeding %s: %w", t.cols.table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: seeding %s: %w", t.cols.table, err)
	}

	t.db.logger.Info("sqlite: table seeded", slog.String("table", t.cols.table), slog.Int("rows", len(items)))
	return nil
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
//
// allowed_roles and curriculum_urls hold JSON arrays. created_at is RFC 3339
// text in UTC so it round-trips with nanosecond precision.
//
// testimonials.user_id carries no foreign key: deleting a user leaves their
// testimonials in place.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS videos (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			title               TEXT    NOT NULL,
			description         TEXT    NOT NULL DEFAULT '',
			is_html_description INTEGER NOT NULL DEFAULT 0,
			thumbnail_url       TEXT    NOT NULL DEFAULT '',
			curriculum_urls     TEXT    NOT NULL DEFAULT '[]',
			allowed_roles       TEXT    NOT NULL,
			is_pinned           INTEGER NOT NULL DEFAULT 0,
			category            TEXT    NOT NULL,
			created_at          TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_videos_category ON videos(category);
	`)
	if err != nil {
		return fmt.Errorf("creating videos table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			title           TEXT    NOT NULL,
			content         TEXT    NOT NULL,
			is_html_content INTEGER NOT NULL DEFAULT 0,
			excerpt         TEXT    NOT NULL DEFAULT '',
			thumbnail_url   TEXT    NOT NULL DEFAULT '',
			allowed_roles   TEXT    NOT NULL,
			created_at      TEXT    NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating posts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS testimonials (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL,
			content    TEXT    NOT NULL,
			is_hidden  INTEGER NOT NULL DEFAULT 0,
			created_at TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_testimonials_user_id ON testimonials(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating testimonials table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			email      TEXT    NOT NULL UNIQUE,
			role       TEXT    NOT NULL,
			created_at TEXT    NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite rejecting a duplicate key.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
