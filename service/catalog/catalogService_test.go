package catalog_test

import (
	"context"
	"database/sql"
	"testing"

	bookrepo "booklend/repository/book"
	itemrepo "booklend/repository/item"
	"booklend/service/catalog"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func memdb(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?_time_format=sqlite")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
	CREATE TABLE books(
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  title TEXT NOT NULL,
	  author TEXT NOT NULL,
	  category TEXT NOT NULL,
	  description TEXT NOT NULL DEFAULT '',
	  total_copies INTEGER NOT NULL DEFAULT 0,
	  available_copies INTEGER NOT NULL DEFAULT 0,
	  created_at TIMESTAMP,
	  updated_at TIMESTAMP,
	  CHECK (available_copies >= 0 AND available_copies <= total_copies)
	)`)
	require.NoError(t, err)
	return db
}

func newCatalog(t *testing.T) (catalog.Service, *sql.DB) {
	t.Helper()
	db := memdb(t)
	return catalog.New(bookrepo.New(db), itemrepo.New(db)), db
}

func checkout(t *testing.T, db *sql.DB, bookID, n int64) {
	t.Helper()
	_, err := db.Exec(`UPDATE books SET available_copies = available_copies - $2 WHERE id = $1`, bookID, n)
	require.NoError(t, err)
}

func counters(t *testing.T, db *sql.DB, bookID int64) (total, avail int64) {
	t.Helper()
	err := db.QueryRow(`SELECT total_copies, available_copies FROM books WHERE id = $1`, bookID).
		Scan(&total, &avail)
	require.NoError(t, err)
	return total, avail
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	svc, db := newCatalog(t)

	id, err := svc.Create(ctx, "Clean Architecture", "Martin", "software", "", 4)
	require.NoError(t, err)

	// a new title starts fully available
	total, avail := counters(t, db, id)
	require.Equal(t, int64(4), total)
	require.Equal(t, int64(4), avail)

	b, err := svc.Detail(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Clean Architecture", b.Title)
	require.Zero(t, b.Outstanding())

	_, err = svc.Create(ctx, "", "Martin", "software", "", 4)
	require.ErrorIs(t, err, catalog.ErrInvalid)
	_, err = svc.Create(ctx, "Clean Architecture", "Martin", "software", "", 0)
	require.ErrorIs(t, err, catalog.ErrInvalid)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, db := newCatalog(t)

	id, err := svc.Create(ctx, "Clean Architecture", "Martin", "software", "", 2)
	require.NoError(t, err)
	checkout(t, db, id, 1)

	// metadata edits never touch the counters
	require.NoError(t, svc.Update(ctx, id, "Clean Architecture", "Robert C. Martin", "software", "2nd print"))
	total, avail := counters(t, db, id)
	require.Equal(t, int64(2), total)
	require.Equal(t, int64(1), avail)

	require.ErrorIs(t, svc.Update(ctx, id+999, "x", "y", "z", ""), catalog.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, id+999), catalog.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, id))
	_, err = svc.Detail(ctx, id)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestResize(t *testing.T) {
	ctx := context.Background()
	svc, db := newCatalog(t)

	id, err := svc.Create(ctx, "The Mythical Man-Month", "Brooks", "software", "", 5)
	require.NoError(t, err)
	checkout(t, db, id, 2) // 3 of 5 on the shelf

	// grow: the delta lands on the shelf
	require.NoError(t, svc.Resize(ctx, id, 8))
	total, avail := counters(t, db, id)
	require.Equal(t, int64(8), total)
	require.Equal(t, int64(6), avail)

	// shrink down to exactly the outstanding count is allowed
	require.NoError(t, svc.Resize(ctx, id, 2))
	total, avail = counters(t, db, id)
	require.Equal(t, int64(2), total)
	require.Equal(t, int64(0), avail)

	// below outstanding would strand checked-out copies
	err = svc.Resize(ctx, id, 1)
	require.ErrorIs(t, err, catalog.ErrInvalid)
	total, avail = counters(t, db, id)
	require.Equal(t, int64(2), total)
	require.Equal(t, int64(0), avail)

	require.ErrorIs(t, svc.Resize(ctx, id, -1), catalog.ErrInvalid)
	require.ErrorIs(t, svc.Resize(ctx, id+999, 3), catalog.ErrNotFound)
}
