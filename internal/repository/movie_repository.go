// Package repository contains data access logic separated from HTTP handlers.
// This file implements persistence for catalog entries stored in the
// `movies` table.  Queries use only `?` placeholders and portable SQL so the
// same repository runs against MySQL in production and SQLite in tests.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"
	"strings"

	"github.com/iliyamo/movie-catalog/internal/model"
)

const movieColumns = `id, title, type, director, budget, location, duration, year,
	poster_url, description, created_at, updated_at`

// MovieRepo encapsulates all database queries related to catalog entries.
type MovieRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewMovieRepo constructs a MovieRepo with the provided DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo {
	return &MovieRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(s rowScanner) (*model.Movie, error) {
	m := new(model.Movie)
	if err := s.Scan(
		&m.ID, &m.Title, &m.Kind,
		&m.Director, &m.Budget, &m.Location, &m.Duration, &m.Year,
		&m.PosterURL, &m.Description, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return m, nil
}

// Create inserts a new entry.  On success m.ID is populated with the
// auto-generated value and a follow-up SELECT fills the database-maintained
// timestamps so callers receive a fully populated record.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	if m.Kind == "" {
		m.Kind = model.KindMovie
	}
	const qInsert = `INSERT INTO movies
		(title, type, director, budget, location, duration, year, poster_url, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert,
		m.Title, string(m.Kind), m.Director, m.Budget, m.Location, m.Duration, m.Year,
		nonEmpty(m.PosterURL), m.Description)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	created, err := r.FindByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*m = *created
	return nil
}

// FindByID fetches one entry.  It returns model.ErrMovieNotFound if no row exists.
func (r *MovieRepo) FindByID(ctx context.Context, id uint64) (*model.Movie, error) {
	q := "SELECT " + movieColumns + " FROM movies WHERE id = ?"
	m, err := scanMovie(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrMovieNotFound
		}
		return nil, err
	}
	return m, nil
}

// FindPage returns the total number of entries and one window of them,
// newest first.  Entries created within the same second are ordered by
// descending id so the most recently inserted still comes first.
func (r *MovieRepo) FindPage(ctx context.Context, limit, offset int) ([]*model.Movie, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT " + movieColumns + ` FROM movies
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*model.Movie, 0, min(limit, 256))
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update applies the present fields of in to the entry and returns the
// stored result.  Absent fields keep their prior values; id and created_at
// are never written.  It returns model.ErrMovieNotFound when no row matches.
func (r *MovieRepo) Update(ctx context.Context, id uint64, in model.MovieInput) (*model.Movie, error) {
	sets := make([]string, 0, 10)
	args := make([]any, 0, 11)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if in.Title != nil {
		add("title", *in.Title)
	}
	if in.Kind != nil {
		add("type", string(*in.Kind))
	}
	for _, f := range []struct {
		col string
		opt model.Optional
	}{
		{"director", in.Director},
		{"budget", in.Budget},
		{"location", in.Location},
		{"duration", in.Duration},
		{"year", in.Year},
		{"description", in.Description},
	} {
		if f.opt.Present {
			add(f.col, f.opt.Value)
		}
	}
	if p := nonEmpty(in.PosterURL); p != nil {
		add("poster_url", p)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	q := "UPDATE movies SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, model.ErrMovieNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes an entry permanently.  It returns model.ErrMovieNotFound
// if no row was deleted.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM movies WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrMovieNotFound
	}
	return nil
}

// PosterReferences lists every stored poster reference under prefix (for
// example "/uploads/").  The upload sweeper uses it to find orphaned files.
func (r *MovieRepo) PosterReferences(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT poster_url FROM movies WHERE poster_url LIKE ?", prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// nonEmpty maps an empty poster reference to NULL.
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
