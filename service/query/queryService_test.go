package query_test

import (
	"context"
	"testing"
	"time"

	queryrepo "booklend/repository/query"
	"booklend/service/query"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", "file::memory:?_time_format=sqlite")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
	CREATE TABLE users(
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  username TEXT NOT NULL,
	  email TEXT NOT NULL,
	  password_hash TEXT NOT NULL DEFAULT '',
	  role TEXT NOT NULL DEFAULT 'member',
	  account_status TEXT NOT NULL DEFAULT 'active',
	  created_at TIMESTAMP
	);
	CREATE TABLE books(
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  title TEXT NOT NULL,
	  author TEXT NOT NULL,
	  category TEXT NOT NULL,
	  description TEXT NOT NULL DEFAULT '',
	  total_copies INTEGER NOT NULL DEFAULT 0,
	  available_copies INTEGER NOT NULL DEFAULT 0,
	  created_at TIMESTAMP,
	  updated_at TIMESTAMP
	);
	CREATE TABLE borrow_requests(
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  borrower_id INTEGER NOT NULL,
	  book_id INTEGER NOT NULL,
	  status TEXT NOT NULL,
	  requested_at TIMESTAMP NOT NULL,
	  issued_at TIMESTAMP,
	  return_requested_at TIMESTAMP,
	  returned_at TIMESTAMP
	)`)
	require.NoError(t, err)
	return db
}

func seed(t *testing.T, db *sqlx.DB) {
	t.Helper()
	now := time.Now().UTC()
	mustExec := func(q string, args ...any) {
		t.Helper()
		_, err := db.Exec(q, args...)
		require.NoError(t, err)
	}
	mustExec(`INSERT INTO users (id, username, email, created_at) VALUES
		(1, 'andi', 'andi@example.com', $1),
		(2, 'budi', 'budi@example.com', $1)`, now)
	mustExec(`INSERT INTO books (id, title, author, category, total_copies, available_copies, created_at, updated_at) VALUES
		(10, 'The Go Programming Language', 'Donovan', 'programming', 2, 1, $1, $1)`, now)
	mustExec(`INSERT INTO borrow_requests (id, borrower_id, book_id, status, requested_at, issued_at, returned_at) VALUES
		(100, 1, 10, 'PENDING_ISSUE', $1, NULL, NULL),
		(101, 2, 10, 'ISSUED',        $2, $1, NULL),
		(102, 1, 10, 'RETURNED',      $3, $3, $2),
		(103, 1, 99, 'PENDING_ISSUE', $2, NULL, NULL),
		(104, 9, 10, 'PENDING_ISSUE', $3, NULL, NULL)`,
		now, now.Add(-time.Hour), now.Add(-2*time.Hour))
}

func TestQueues(t *testing.T) {
	ctx := context.Background()
	db := memdb(t)
	seed(t, db)
	svc := query.New(queryrepo.New(db))

	rows, err := svc.PendingIssues(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// oldest first
	require.Equal(t, int64(104), rows[0].RequestID)
	require.Equal(t, int64(103), rows[1].RequestID)
	require.Equal(t, int64(100), rows[2].RequestID)

	// rows come back display-ready
	last := rows[2]
	require.Equal(t, "andi", last.BorrowerName)
	require.Equal(t, "The Go Programming Language", last.BookTitle)
	require.Equal(t, "Donovan", last.BookAuthor)
	require.Nil(t, last.IssuedAt)

	returns, err := svc.PendingReturns(ctx)
	require.NoError(t, err)
	require.Empty(t, returns)
}

func TestUnknownPlaceholders(t *testing.T) {
	ctx := context.Background()
	db := memdb(t)
	seed(t, db)
	svc := query.New(queryrepo.New(db))

	rows, err := svc.PendingIssues(ctx)
	require.NoError(t, err)

	byID := map[int64]query.RequestRow{}
	for _, r := range rows {
		byID[r.RequestID] = r
	}

	// request 103 points at a book that no longer exists
	require.Equal(t, queryrepo.UnknownPlaceholder, byID[103].BookTitle)
	require.Equal(t, queryrepo.UnknownPlaceholder, byID[103].BookAuthor)
	require.Equal(t, "andi", byID[103].BorrowerName)

	// request 104 belongs to a deleted account
	require.Equal(t, queryrepo.UnknownPlaceholder, byID[104].BorrowerName)
	require.Equal(t, "The Go Programming Language", byID[104].BookTitle)
}

func TestMyBorrowsAndHistory(t *testing.T) {
	ctx := context.Background()
	db := memdb(t)
	seed(t, db)
	svc := query.New(queryrepo.New(db))

	active, err := svc.MyBorrows(ctx, 1)
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, r := range active {
		require.Contains(t, []int64{100, 103}, r.RequestID)
	}

	history, err := svc.MyHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, int64(102), history[0].RequestID)
	require.NotNil(t, history[0].ReturnedAt)

	// user 2 has the issued copy and no history
	active, err = svc.MyBorrows(ctx, 2)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, int64(101), active[0].RequestID)
	require.NotNil(t, active[0].IssuedAt)

	history, err = svc.MyHistory(ctx, 2)
	require.NoError(t, err)
	require.Empty(t, history)
}
