// Package usersvc is the admin-facing account management: list members,
// block or re-activate, delete. Requests referencing a deleted user are kept;
// listings render them with the "unknown" placeholder.
package usersvc

import (
	"context"
	"database/sql"
	"errors"

	"booklend/model"
	userrepo "booklend/repository/user"
)

var (
	ErrNotFound = errors.New("user not found")
	// ErrProtected: status changes and deletes never touch admin accounts.
	ErrProtected = errors.New("cannot modify an admin account")
	ErrBadStatus = errors.New("status must be active or blocked")
)

type Service interface {
	ListMembers(ctx context.Context) ([]model.User, error)
	SetStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
}

type service struct{ ur userrepo.Repo }

func New(ur userrepo.Repo) Service { return &service{ur: ur} }

func (s *service) ListMembers(ctx context.Context) ([]model.User, error) {
	return s.ur.ListMembers(ctx)
}

func (s *service) SetStatus(ctx context.Context, id int64, status string) error {
	if status != model.AccountActive && status != model.AccountBlocked {
		return ErrBadStatus
	}
	err := s.ur.SetStatus(ctx, id, status)
	if errors.Is(err, sql.ErrNoRows) {
		return s.notFoundOrProtected(ctx, id)
	}
	return err
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.ur.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return s.notFoundOrProtected(ctx, id)
	}
	return err
}

// The guarded UPDATE/DELETE cannot tell a missing user from an admin; one
// follow-up read disambiguates for the caller.
func (s *service) notFoundOrProtected(ctx context.Context, id int64) error {
	u, err := s.ur.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if u.Role == model.RoleAdmin {
		return ErrProtected
	}
	return ErrNotFound
}
