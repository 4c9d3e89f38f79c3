// Package requestrepo is the request ledger. Creation and status transitions
// are single conditional statements; the duplicate-active rule is additionally
// backed by a partial unique index so concurrent creates cannot both pass.
package requestrepo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"booklend/model"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateActive: the (borrower, book) pair already has a
	// non-terminal request.
	ErrDuplicateActive = errors.New("active request already exists")
	// ErrConflict: the row's status changed between read and transition.
	ErrConflict = errors.New("request already handled")
	// ErrNoFreeCopy: creation was refused because the book has no
	// available copy (stock-checked creation only).
	ErrNoFreeCopy = errors.New("no available copies")
)

type Repo interface {
	// Create inserts a PENDING_ISSUE request unless a non-terminal request
	// for the pair exists or the book is missing; with requireStock the
	// book must also have a free copy. All predicates and the insert are
	// one statement.
	Create(ctx context.Context, borrowerID, bookID int64, now time.Time, requireStock bool) (int64, error)

	Get(ctx context.Context, id int64) (*model.BorrowRequest, error)
	GetTx(ctx context.Context, tx *sql.Tx, id int64) (*model.BorrowRequest, error)

	// Transition moves id from one status to another, guarded on the
	// current status. The timestamp matching the target state is set on
	// first arrival only. Returns ErrConflict when the guard fails.
	Transition(ctx context.Context, tx *sql.Tx, id int64, from, to model.RequestStatus, now time.Time) error

	ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.BorrowRequest, error)

	// DeleteTerminal removes a REJECTED/CANCELLED row (legacy
	// retention-off behavior). Rows in other statuses are left alone.
	DeleteTerminal(ctx context.Context, tx *sql.Tx, id int64) error
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const requestCols = `id, borrower_id, book_id, status, requested_at, issued_at, return_requested_at, returned_at`

const createBase = `
	INSERT INTO borrow_requests (borrower_id, book_id, status, requested_at)
	SELECT $1, $2, 'PENDING_ISSUE', $3
	WHERE NOT EXISTS (
		SELECT 1 FROM borrow_requests
		WHERE borrower_id = $1
		AND book_id = $2
		AND status IN ('PENDING_ISSUE', 'ISSUED', 'PENDING_RETURN')
	)`

func (r *repo) Create(ctx context.Context, borrowerID, bookID int64, now time.Time, requireStock bool) (int64, error) {
	q := createBase + `
	AND EXISTS (SELECT 1 FROM books WHERE id = $2)
	RETURNING id`
	if requireStock {
		q = createBase + `
	AND EXISTS (SELECT 1 FROM books WHERE id = $2 AND available_copies > 0)
	RETURNING id`
	}
	var id int64
	err := r.db.QueryRowContext(ctx, q, borrowerID, bookID, now).Scan(&id)
	if err == nil {
		return id, nil
	}
	// A unique violation means two concurrent creates both passed the
	// NOT EXISTS check and the partial index caught the loser.
	if !errors.Is(err, sql.ErrNoRows) && !isUniqueViolation(err) {
		return 0, err
	}
	return 0, r.refusalCause(ctx, borrowerID, bookID, requireStock)
}

// refusalCause names the predicate that blocked the insert. The refusal
// itself already happened atomically; these reads only pick the error.
func (r *repo) refusalCause(ctx context.Context, borrowerID, bookID int64, requireStock bool) error {
	var active bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM borrow_requests
			WHERE borrower_id = $1
			AND book_id = $2
			AND status IN ('PENDING_ISSUE', 'ISSUED', 'PENDING_RETURN')
		)`, borrowerID, bookID).Scan(&active)
	if err != nil {
		return err
	}
	if active {
		return ErrDuplicateActive
	}
	var available int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT available_copies FROM books WHERE id = $1`, bookID,
	).Scan(&available); err != nil {
		return err
	}
	if requireStock && available <= 0 {
		return ErrNoFreeCopy
	}
	// The blocking row changed between the insert and these reads.
	return ErrConflict
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	// SQLite (tests) reports constraint failures by message only.
	return strings.Contains(strings.ToUpper(err.Error()), "UNIQUE")
}

func (r *repo) Get(ctx context.Context, id int64) (*model.BorrowRequest, error) {
	q := `SELECT ` + requestCols + ` FROM borrow_requests WHERE id = $1`
	return scanRequest(r.db.QueryRowContext(ctx, q, id))
}

func (r *repo) GetTx(ctx context.Context, tx *sql.Tx, id int64) (*model.BorrowRequest, error) {
	q := `SELECT ` + requestCols + ` FROM borrow_requests WHERE id = $1`
	return scanRequest(tx.QueryRowContext(ctx, q, id))
}

func scanRequest(row *sql.Row) (*model.BorrowRequest, error) {
	var br model.BorrowRequest
	err := row.Scan(
		&br.ID, &br.BorrowerID, &br.BookID, &br.Status,
		&br.RequestedAt, &br.IssuedAt, &br.ReturnRequestedAt, &br.ReturnedAt,
	)
	if err != nil {
		return nil, err
	}
	return &br, nil
}

// stampFor maps a target status to the timestamp column it sets.
func stampFor(to model.RequestStatus) string {
	switch to {
	case model.RequestIssued:
		return "issued_at"
	case model.RequestPendingReturn:
		return "return_requested_at"
	case model.RequestReturned:
		return "returned_at"
	}
	return ""
}

func (r *repo) Transition(ctx context.Context, tx *sql.Tx, id int64, from, to model.RequestStatus, now time.Time) error {
	var (
		res sql.Result
		err error
	)
	if col := stampFor(to); col != "" {
		// COALESCE keeps the first-set value: reverting PENDING_RETURN
		// back to ISSUED must not rewrite issued_at.
		q := `
			UPDATE borrow_requests
			SET status = $2, ` + col + ` = COALESCE(` + col + `, $4)
			WHERE id = $1
			AND status = $3`
		res, err = tx.ExecContext(ctx, q, id, to, from, now)
	} else {
		const q = `
			UPDATE borrow_requests
			SET status = $2
			WHERE id = $1
			AND status = $3`
		res, err = tx.ExecContext(ctx, q, id, to, from)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := r.GetTx(ctx, tx, id); err != nil {
		return err
	}
	return ErrConflict
}

func (r *repo) ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.BorrowRequest, error) {
	q := `
		SELECT ` + requestCols + `
		FROM borrow_requests
		WHERE status = $1
		ORDER BY requested_at, id`
	rows, err := r.db.QueryContext(ctx, q, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BorrowRequest
	for rows.Next() {
		var br model.BorrowRequest
		if err := rows.Scan(
			&br.ID, &br.BorrowerID, &br.BookID, &br.Status,
			&br.RequestedAt, &br.IssuedAt, &br.ReturnRequestedAt, &br.ReturnedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

func (r *repo) DeleteTerminal(ctx context.Context, tx *sql.Tx, id int64) error {
	const q = `
		DELETE FROM borrow_requests
		WHERE id = $1
		AND status IN ('REJECTED', 'CANCELLED')`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}
