package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/lesson-portal/internal/apperror"
	"github.com/sakif/lesson-portal/internal/model"
	"github.com/sakif/lesson-portal/internal/repository"
)

var (
	_ repository.VideoRepository       = (*Table[model.Video, model.VideoDraft, model.VideoPatch])(nil)
	_ repository.PostRepository        = (*Table[model.BlogPost, model.PostDraft, model.PostPatch])(nil)
	_ repository.TestimonialRepository = (*Table[model.Testimonial, model.TestimonialDraft, model.TestimonialPatch])(nil)
	_ repository.UserRepository        = (*Table[model.User, model.UserDraft, model.UserPatch])(nil)
)

type record[T, P any] interface {
	Key() int64
	Apply(patch P) T
}

type draft[T any] interface {
	Build(id int64, createdAt time.Time) T
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// columns maps one entity kind onto its table. names excludes id, which is
// always the first selected column.
type columns[T any] struct {
	table  string
	kind   string
	names  []string
	values func(T) ([]any, error)
	scan   func(scanner) (T, error)
}

// Table is a store for one entity kind. All SQL is built once from cols.
type Table[T record[T, P], D draft[T], P any] struct {
	db   *DB
	cols columns[T]

	selectAll  string
	selectByID string
	insertRow  string
	insertSeed string
	updateRow  string
	deleteRow  string
}

func newTable[T record[T, P], D draft[T], P any](db *DB, cols columns[T]) *Table[T, D, P] {
	list := strings.Join(cols.names, ", ")
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols.names)), ", ")
	sets := make([]string, len(cols.names))
	for i, n := range cols.names {
		sets[i] = n + " = ?"
	}

	return &Table[T, D, P]{
		db:         db,
		cols:       cols,
		selectAll:  fmt.Sprintf(`SELECT id, %s FROM %s ORDER BY id DESC`, list, cols.table),
		selectByID: fmt.Sprintf(`SELECT id, %s FROM %s WHERE id = ?`, list, cols.table),
		insertRow:  fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, cols.table, list, marks),
		insertSeed: fmt.Sprintf(`INSERT INTO %s (id, %s) VALUES (?, %s)`, cols.table, list, marks),
		updateRow:  fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?`, cols.table, strings.Join(sets, ", ")),
		deleteRow:  fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, cols.table),
	}
}

// GetAll returns every row, newest first.
func (t *Table[T, D, P]) GetAll(ctx context.Context) ([]T, error) {
	rows, err := t.db.conn.QueryContext(ctx, t.selectAll)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s: %w", t.cols.table, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := t.cols.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s row: %w", t.cols.kind, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s: %w", t.cols.table, err)
	}
	return items, nil
}

func (t *Table[T, D, P]) GetByID(ctx context.Context, id int64) (T, error) {
	return t.get(ctx, t.db.conn, id)
}

// Create inserts the draft and returns the stored record with its new id.
// Build is pure, so building again with the real id yields the inserted row.
func (t *Table[T, D, P]) Create(ctx context.Context, d D) (T, error) {
	var zero T
	now := t.db.now()

	id, err := t.insert(ctx, t.db.conn, d.Build(0, now), false)
	if err != nil {
		return zero, err
	}
	return d.Build(id, now), nil
}

// Update reads, merges and writes inside one transaction.
func (t *Table[T, D, P]) Update(ctx context.Context, id int64, patch P) (T, error) {
	var zero T

	tx, err := t.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return zero, fmt.Errorf("sqlite: updating %s %d: %w", t.cols.kind, id, err)
	}
	defer tx.Rollback()

	current, err := t.get(ctx, tx, id)
	if err != nil {
		return zero, err
	}
	updated := current.Apply(patch)

	args, err := t.cols.values(updated)
	if err != nil {
		return zero, fmt.Errorf("sqlite: encoding %s %d: %w", t.cols.kind, id, err)
	}
	if _, err := tx.ExecContext(ctx, t.updateRow, append(args, id)...); err != nil {
		if isUniqueViolation(err) {
			return zero, apperror.Conflict(t.cols.kind, "unique key")
		}
		return zero, fmt.Errorf("sqlite: updating %s %d: %w", t.cols.kind, id, err)
	}

	if err := tx.Commit(); err != nil {
		return zero, fmt.Errorf("sqlite: committing %s %d: %w", t.cols.kind, id, err)
	}
	return updated, nil
}

func (t *Table[T, D, P]) Delete(ctx context.Context, id int64) error {
	result, err := t.db.conn.ExecContext(ctx, t.deleteRow, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting %s %d: %w", t.cols.kind, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound(t.cols.kind, id)
	}
	return nil
}

func (t *Table[T, D, P]) get(ctx context.Context, q execer, id int64) (T, error) {
	item, err := t.cols.scan(q.QueryRowContext(ctx, t.selectByID, id))
	if err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, apperror.NotFound(t.cols.kind, id)
		}
		return zero, fmt.Errorf("sqlite: getting %s %d: %w", t.cols.kind, id, err)
	}
	return item, nil
}

// insert writes item and returns its id. withID keeps item's own id; otherwise
// SQLite assigns one.
func (t *Table[T, D, P]) insert(ctx context.Context, q execer, item T, withID bool) (int64, error) {
	args, err := t.cols.values(item)
	if err != nil {
		return 0, fmt.Errorf("sqlite: encoding %s: %w", t.cols.kind, err)
	}

	query := t.insertRow
	if withID {
		query = t.insertSeed
		args = append([]any{item.Key()}, args...)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperror.Conflict(t.cols.kind, "unique key")
		}
		return 0, fmt.Errorf("sqlite: inserting %s: %w", t.cols.kind, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading %s id: %w", t.cols.kind, err)
	}
	return id, nil
}

func (t *Table[T, D, P]) count(ctx context.Context) (int, error) {
	var n int
	err := t.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+t.cols.table).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting %s: %w", t.cols.table, err)
	}
	return n, nil
}
