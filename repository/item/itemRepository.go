// Package itemrepo is the item ledger: the copy counters on the books table.
// Every mutation is a single guarded UPDATE so the available_copies counter is
// never read-then-written across statement boundaries.
package itemrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	// ErrOutOfStock: reservation attempted with zero available copies.
	ErrOutOfStock = errors.New("no available copies")
	// ErrBelowOutstanding: resize target smaller than checked-out copies.
	ErrBelowOutstanding = errors.New("total below outstanding copies")
)

type Repo interface {
	// TryReserve atomically decrements available_copies if positive.
	// Returns ErrOutOfStock or sql.ErrNoRows otherwise.
	TryReserve(ctx context.Context, tx *sql.Tx, bookID int64) error

	// Release atomically increments available_copies, capped at total_copies.
	// Releasing an already-full book is not an error.
	Release(ctx context.Context, tx *sql.Tx, bookID int64) error

	// Resize sets total_copies and re-derives available_copies from the
	// delta. Fails with ErrBelowOutstanding when newTotal would leave the
	// available counter negative.
	Resize(ctx context.Context, bookID int64, newTotal int64, now time.Time) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) TryReserve(ctx context.Context, tx *sql.Tx, bookID int64) error {
	const q = `
		UPDATE books
		SET available_copies = available_copies - 1
		WHERE id = $1
		AND available_copies > 0`
	res, err := tx.ExecContext(ctx, q, bookID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Zero rows: either the book is gone or it has no free copy.
	var avail int64
	if err := tx.QueryRowContext(ctx,
		`SELECT available_copies FROM books WHERE id = $1`, bookID,
	).Scan(&avail); err != nil {
		return err
	}
	return ErrOutOfStock
}

func (r *repo) Release(ctx context.Context, tx *sql.Tx, bookID int64) error {
	const q = `
		UPDATE books
		SET available_copies = available_copies + 1
		WHERE id = $1
		AND available_copies < total_copies`
	res, err := tx.ExecContext(ctx, q, bookID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Already at capacity is fine; a missing book is not.
	var avail int64
	if err := tx.QueryRowContext(ctx,
		`SELECT available_copies FROM books WHERE id = $1`, bookID,
	).Scan(&avail); err != nil {
		return err
	}
	return nil
}

func (r *repo) Resize(ctx context.Context, bookID int64, newTotal int64, now time.Time) error {
	const q = `
		UPDATE books
		SET total_copies = $2,
			available_copies = available_copies + ($2 - total_copies),
			updated_at = $3
		WHERE id = $1
		AND available_copies + ($2 - total_copies) >= 0`
	res, err := r.db.ExecContext(ctx, q, bookID, newTotal, now)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var avail int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT available_copies FROM books WHERE id = $1`, bookID,
	).Scan(&avail); err != nil {
		return err
	}
	return ErrBelowOutstanding
}
