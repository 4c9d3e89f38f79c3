// Package queryrepo is the read side: display-ready joins across requests,
// books and users. Never mutates. A request may outlive its book or borrower,
// so both joins are LEFT and render as "unknown" instead of failing the list.
package queryrepo

import (
	"context"
	"time"

	"booklend/model"

	"github.com/jmoiron/sqlx"
)

const UnknownPlaceholder = "unknown"

type RequestRow struct {
	RequestID         int64               `db:"request_id" json:"request_id"`
	BorrowerID        int64               `db:"borrower_id" json:"borrower_id"`
	BorrowerName      string              `db:"borrower_name" json:"borrower_name"`
	BookID            int64               `db:"book_id" json:"book_id"`
	BookTitle         string              `db:"book_title" json:"book_title"`
	BookAuthor        string              `db:"book_author" json:"book_author"`
	Status            model.RequestStatus `db:"status" json:"status"`
	RequestedAt       time.Time           `db:"requested_at" json:"requested_at"`
	IssuedAt          *time.Time          `db:"issued_at" json:"issued_at,omitempty"`
	ReturnRequestedAt *time.Time          `db:"return_requested_at" json:"return_requested_at,omitempty"`
	ReturnedAt        *time.Time          `db:"returned_at" json:"returned_at,omitempty"`
}

type Repo interface {
	QueueByStatus(ctx context.Context, status model.RequestStatus) ([]RequestRow, error)
	ActiveForUser(ctx context.Context, userID int64) ([]RequestRow, error)
	HistoryForUser(ctx context.Context, userID int64) ([]RequestRow, error)
}

type repo struct{ db *sqlx.DB }

func New(db *sqlx.DB) Repo { return &repo{db: db} }

const joinedCols = `
	r.id                  AS request_id,
	r.borrower_id         AS borrower_id,
	COALESCE(u.username, 'unknown') AS borrower_name,
	r.book_id             AS book_id,
	COALESCE(b.title, 'unknown')  AS book_title,
	COALESCE(b.author, 'unknown') AS book_author,
	r.status              AS status,
	r.requested_at        AS requested_at,
	r.issued_at           AS issued_at,
	r.return_requested_at AS return_requested_at,
	r.returned_at         AS returned_at`

func (r *repo) QueueByStatus(ctx context.Context, status model.RequestStatus) ([]RequestRow, error) {
	q := `
		SELECT ` + joinedCols + `
		FROM borrow_requests r
		LEFT JOIN users u ON u.id = r.borrower_id
		LEFT JOIN books b ON b.id = r.book_id
		WHERE r.status = $1
		ORDER BY r.requested_at, r.id`
	var out []RequestRow
	if err := r.db.SelectContext(ctx, &out, q, status); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) ActiveForUser(ctx context.Context, userID int64) ([]RequestRow, error) {
	q := `
		SELECT ` + joinedCols + `
		FROM borrow_requests r
		LEFT JOIN users u ON u.id = r.borrower_id
		LEFT JOIN books b ON b.id = r.book_id
		WHERE r.borrower_id = $1
		AND r.status IN ('PENDING_ISSUE', 'ISSUED', 'PENDING_RETURN')
		ORDER BY r.requested_at, r.id`
	var out []RequestRow
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) HistoryForUser(ctx context.Context, userID int64) ([]RequestRow, error) {
	q := `
		SELECT ` + joinedCols + `
		FROM borrow_requests r
		LEFT JOIN users u ON u.id = r.borrower_id
		LEFT JOIN books b ON b.id = r.book_id
		WHERE r.borrower_id = $1
		AND r.status IN ('RETURNED', 'REJECTED', 'CANCELLED')
		ORDER BY r.requested_at DESC, r.id DESC`
	var out []RequestRow
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}
