// Package catalog manages book metadata and the size of each copy pool.
// Counter changes go through the item ledger so resize obeys the same
// atomicity rules as the borrow flow.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"booklend/model"
	bookrepo "booklend/repository/book"
	itemrepo "booklend/repository/item"
)

var (
	ErrNotFound = errors.New("book not found")
	// ErrInvalid: bad payload, or resize below currently outstanding copies.
	ErrInvalid = errors.New("invalid")
)

type Service interface {
	Create(ctx context.Context, title, author, category, description string, copies int64) (int64, error)
	Update(ctx context.Context, id int64, title, author, category, description string) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
	Delete(ctx context.Context, id int64) error

	// Resize changes total_copies; available_copies follows the delta.
	// Shrinking below the checked-out count fails with ErrInvalid.
	Resize(ctx context.Context, id int64, newTotal int64) error
}

type service struct {
	books bookrepo.Repo
	items itemrepo.Repo
}

func New(books bookrepo.Repo, items itemrepo.Repo) Service {
	return &service{books: books, items: items}
}

func (s *service) Create(ctx context.Context, title, author, category, description string, copies int64) (int64, error) {
	if title == "" || author == "" || category == "" || copies <= 0 {
		return 0, ErrInvalid
	}
	now := time.Now().UTC()
	return s.books.Create(ctx, &model.Book{
		Title:       title,
		Author:      author,
		Category:    category,
		Description: description,
		TotalCopies: copies,
		CreatedAt:   now,
	})
}

func (s *service) Update(ctx context.Context, id int64, title, author, category, description string) error {
	if title == "" || author == "" || category == "" {
		return ErrInvalid
	}
	err := s.books.Update(ctx, id, title, author, category, description, time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *service) List(ctx context.Context) ([]model.Book, error) { return s.books.List(ctx) }

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.books.Detail(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.books.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *service) Resize(ctx context.Context, id int64, newTotal int64) error {
	if newTotal < 0 {
		return ErrInvalid
	}
	err := s.items.Resize(ctx, id, newTotal, time.Now().UTC())
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, itemrepo.ErrBelowOutstanding):
		return ErrInvalid
	}
	return err
}
