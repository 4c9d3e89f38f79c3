// Package bookrepo owns book metadata. Copy counters live in the item
// ledger; creation seeds them, everything else goes through itemrepo.
package bookrepo

import (
	"context"
	"database/sql"
	"time"

	"booklend/model"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) (int64, error)
	Update(ctx context.Context, id int64, title, author, category, description string, now time.Time) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, b *model.Book) (int64, error) {
	const q = `
		INSERT INTO books (title, author, category, description, total_copies, available_copies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5, $6, $6)
		RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
		b.Title, b.Author, b.Category, b.Description, b.TotalCopies, b.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repo) Update(ctx context.Context, id int64, title, author, category, description string, now time.Time) error {
	const q = `
		UPDATE books
		SET title = $2, author = $3, category = $4, description = $5, updated_at = $6
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, title, author, category, description, now)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const bookCols = `id, title, author, category, description, total_copies, available_copies, created_at, updated_at`

func (r *repo) List(ctx context.Context) ([]model.Book, error) {
	q := `SELECT ` + bookCols + ` FROM books ORDER BY title, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Author, &b.Category, &b.Description,
			&b.TotalCopies, &b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Book, error) {
	q := `SELECT ` + bookCols + ` FROM books WHERE id = $1`
	var b model.Book
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.Title, &b.Author, &b.Category, &b.Description,
		&b.TotalCopies, &b.AvailableCopies, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
