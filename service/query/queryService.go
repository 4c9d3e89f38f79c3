// Package query serves the read-only listing views. It never touches either
// ledger; rows joined against deleted books or users come back with the
// "unknown" placeholder instead of an error.
package query

import (
	"context"

	"booklend/model"
	queryrepo "booklend/repository/query"
)

// RequestRow = repository shape
type RequestRow = queryrepo.RequestRow

type Service interface {
	// PendingIssues and PendingReturns are the approver queues.
	PendingIssues(ctx context.Context) ([]RequestRow, error)
	PendingReturns(ctx context.Context) ([]RequestRow, error)

	// MyBorrows lists a borrower's non-terminal requests.
	MyBorrows(ctx context.Context, userID int64) ([]RequestRow, error)

	// MyHistory lists a borrower's terminal requests, newest first.
	MyHistory(ctx context.Context, userID int64) ([]RequestRow, error)
}

type service struct {
	r queryrepo.Repo
}

func New(r queryrepo.Repo) Service { return &service{r: r} }

func (s *service) PendingIssues(ctx context.Context) ([]RequestRow, error) {
	return s.r.QueueByStatus(ctx, model.RequestPendingIssue)
}

func (s *service) PendingReturns(ctx context.Context) ([]RequestRow, error) {
	return s.r.QueueByStatus(ctx, model.RequestPendingReturn)
}

func (s *service) MyBorrows(ctx context.Context, userID int64) ([]RequestRow, error) {
	return s.r.ActiveForUser(ctx, userID)
}

func (s *service) MyHistory(ctx context.Context, userID int64) ([]RequestRow, error) {
	return s.r.HistoryForUser(ctx, userID)
}
