// Package lifecycle is the engine behind the borrow workflow. It is the only
// code that mutates the item ledger and the request ledger together: each
// transition is one transaction, so a failed reservation can never leave a
// half-applied status change.
package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"booklend/model"
	itemrepo "booklend/repository/item"
	requestrepo "booklend/repository/request"
	"booklend/util/metrics"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrOutOfStock      ErrCode = "OUT_OF_STOCK"
	ErrDuplicateActive ErrCode = "DUPLICATE_ACTIVE"
	ErrConflict        ErrCode = "CONFLICT"
	ErrInvalid         ErrCode = "INVALID"
	ErrNotOwner        ErrCode = "NOT_OWNER"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts the error code, "" for uncoded errors.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Policy carries the behavior variants observed across deployments.
type Policy struct {
	// RetainTerminalRequests keeps REJECTED/CANCELLED rows as history
	// instead of deleting them. RETURNED rows are always kept.
	RetainTerminalRequests bool

	// BlockWhenOutOfStock refuses issue requests for books with no free
	// copy. Default behavior lets the request queue until approval.
	BlockWhenOutOfStock bool
}

// DefaultPolicy retains history and lets requests queue at zero stock.
func DefaultPolicy() Policy {
	return Policy{RetainTerminalRequests: true, BlockWhenOutOfStock: false}
}

type Service interface {
	// RequestIssue opens a PENDING_ISSUE request. No ledger mutation.
	RequestIssue(ctx context.Context, borrowerID, bookID int64) (int64, error)

	// ApproveIssue transitions PENDING_ISSUE -> ISSUED and reserves a
	// copy; out of stock aborts the whole transition.
	ApproveIssue(ctx context.Context, requestID int64) error

	// RejectIssue transitions PENDING_ISSUE -> REJECTED.
	RejectIssue(ctx context.Context, requestID int64) error

	// Cancel transitions PENDING_ISSUE -> CANCELLED, borrower-only.
	Cancel(ctx context.Context, borrowerID, requestID int64) error

	// RequestReturn transitions ISSUED -> PENDING_RETURN, borrower-only.
	RequestReturn(ctx context.Context, borrowerID, requestID int64) error

	// ApproveReturn transitions PENDING_RETURN -> RETURNED and releases
	// the copy back to the pool.
	ApproveReturn(ctx context.Context, requestID int64) error

	// RejectReturn transitions PENDING_RETURN back to ISSUED.
	RejectReturn(ctx context.Context, requestID int64) error

	Get(ctx context.Context, requestID int64) (*model.BorrowRequest, error)
}

type service struct {
	db     *sql.DB
	items  itemrepo.Repo
	reqs   requestrepo.Repo
	policy Policy
}

func New(db *sql.DB, items itemrepo.Repo, reqs requestrepo.Repo, policy Policy) Service {
	return &service{db: db, items: items, reqs: reqs, policy: policy}
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return makeErr(ErrNotFound)
	case errors.Is(err, itemrepo.ErrOutOfStock):
		return makeErr(ErrOutOfStock)
	case errors.Is(err, itemrepo.ErrBelowOutstanding):
		return makeErr(ErrInvalid)
	case errors.Is(err, requestrepo.ErrDuplicateActive):
		return makeErr(ErrDuplicateActive)
	case errors.Is(err, requestrepo.ErrNoFreeCopy):
		return makeErr(ErrOutOfStock)
	case errors.Is(err, requestrepo.ErrConflict):
		return makeErr(ErrConflict)
	}
	return err
}

func count(op string, err error) error {
	outcome := "ok"
	if err != nil {
		if c := Code(err); c != "" {
			outcome = string(c)
		} else {
			outcome = "error"
		}
	}
	metrics.Transitions.WithLabelValues(op, outcome).Inc()
	return err
}

func (s *service) RequestIssue(ctx context.Context, borrowerID, bookID int64) (int64, error) {
	// The duplicate, existence and (under the blocking policy) stock
	// predicates all live inside the conditional insert.
	id, err := s.reqs.Create(ctx, borrowerID, bookID, time.Now().UTC(), s.policy.BlockWhenOutOfStock)
	if err != nil {
		return 0, count("request_issue", mapRepoErr(err))
	}
	return id, count("request_issue", nil)
}

func (s *service) ApproveIssue(ctx context.Context, requestID int64) (err error) {
	defer func() { err = count("approve_issue", err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req, err := s.reqs.GetTx(ctx, tx, requestID)
	if err != nil {
		return mapRepoErr(err)
	}
	if err = s.reqs.Transition(ctx, tx, requestID, model.RequestPendingIssue, model.RequestIssued, time.Now().UTC()); err != nil {
		return mapRepoErr(err)
	}
	// Reservation failure rolls back the status change with it.
	if err = s.items.TryReserve(ctx, tx, req.BookID); err != nil {
		return mapRepoErr(err)
	}
	return tx.Commit()
}

func (s *service) RejectIssue(ctx context.Context, requestID int64) (err error) {
	defer func() { err = count("reject_issue", err) }()
	return s.terminalTransition(ctx, requestID, model.RequestPendingIssue, model.RequestRejected)
}

func (s *service) Cancel(ctx context.Context, borrowerID, requestID int64) (err error) {
	defer func() { err = count("cancel", err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req, err := s.reqs.GetTx(ctx, tx, requestID)
	if err != nil {
		return mapRepoErr(err)
	}
	if req.BorrowerID != borrowerID {
		return makeErr(ErrNotOwner)
	}
	if err = s.reqs.Transition(ctx, tx, requestID, model.RequestPendingIssue, model.RequestCancelled, time.Now().UTC()); err != nil {
		return mapRepoErr(err)
	}
	if !s.policy.RetainTerminalRequests {
		if err = s.reqs.DeleteTerminal(ctx, tx, requestID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *service) RequestReturn(ctx context.Context, borrowerID, requestID int64) (err error) {
	defer func() { err = count("request_return", err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req, err := s.reqs.GetTx(ctx, tx, requestID)
	if err != nil {
		return mapRepoErr(err)
	}
	if req.BorrowerID != borrowerID {
		return makeErr(ErrNotOwner)
	}
	if err = s.reqs.Transition(ctx, tx, requestID, model.RequestIssued, model.RequestPendingReturn, time.Now().UTC()); err != nil {
		return mapRepoErr(err)
	}
	return tx.Commit()
}

func (s *service) ApproveReturn(ctx context.Context, requestID int64) (err error) {
	defer func() { err = count("approve_return", err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	req, err := s.reqs.GetTx(ctx, tx, requestID)
	if err != nil {
		return mapRepoErr(err)
	}
	if err = s.reqs.Transition(ctx, tx, requestID, model.RequestPendingReturn, model.RequestReturned, time.Now().UTC()); err != nil {
		return mapRepoErr(err)
	}
	if err = s.items.Release(ctx, tx, req.BookID); err != nil {
		return mapRepoErr(err)
	}
	return tx.Commit()
}

func (s *service) RejectReturn(ctx context.Context, requestID int64) (err error) {
	defer func() { err = count("reject_return", err) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.reqs.Transition(ctx, tx, requestID, model.RequestPendingReturn, model.RequestIssued, time.Now().UTC()); err != nil {
		return mapRepoErr(err)
	}
	return tx.Commit()
}

// terminalTransition is the shared reject/cancel path: guard the transition,
// then honor the retention policy inside the same transaction.
func (s *service) terminalTransition(ctx context.Context, requestID int64, from, to model.RequestStatus) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.reqs.Transition(ctx, tx, requestID, from, to, time.Now().UTC()); err != nil {
		return mapRepoErr(err)
	}
	if !s.policy.RetainTerminalRequests {
		if err = s.reqs.DeleteTerminal(ctx, tx, requestID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *service) Get(ctx context.Context, requestID int64) (*model.BorrowRequest, error) {
	req, err := s.reqs.Get(ctx, requestID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return req, nil
}
