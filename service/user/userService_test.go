package usersvc_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"booklend/model"
	userrepo "booklend/repository/user"
	usersvc "booklend/service/user"

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
	CREATE TABLE users(
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  username TEXT NOT NULL,
	  email TEXT NOT NULL,
	  password_hash TEXT NOT NULL DEFAULT '',
	  role TEXT NOT NULL DEFAULT 'member',
	  account_status TEXT NOT NULL DEFAULT 'active',
	  created_at TIMESTAMP
	)`)
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO users (id, username, email, role, created_at) VALUES
		(1, 'root', 'root@example.com', 'admin', $1),
		(2, 'andi', 'andi@example.com', 'member', $1),
		(3, 'budi', 'budi@example.com', 'member', $1)`, now)
	require.NoError(t, err)
	return db
}

func TestListMembers(t *testing.T) {
	ctx := context.Background()
	db := memdb(t)
	svc := usersvc.New(userrepo.New(db))

	members, err := svc.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	for _, m := range members {
		require.NotEqual(t, model.RoleAdmin, m.Role)
	}
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	db := memdb(t)
	svc := usersvc.New(userrepo.New(db))

	require.NoError(t, svc.SetStatus(ctx, 2, model.AccountBlocked))
	var got string
	require.NoError(t, db.QueryRow(`SELECT account_status FROM users WHERE id = 2`).Scan(&got))
	require.Equal(t, model.AccountBlocked, got)

	require.NoError(t, svc.SetStatus(ctx, 2, model.AccountActive))

	require.ErrorIs(t, svc.SetStatus(ctx, 2, "suspended"), usersvc.ErrBadStatus)
	require.ErrorIs(t, svc.SetStatus(ctx, 1, model.AccountBlocked), usersvc.ErrProtected)
	require.ErrorIs(t, svc.SetStatus(ctx, 99, model.AccountBlocked), usersvc.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	db := memdb(t)
	svc := usersvc.New(userrepo.New(db))

	require.NoError(t, svc.Delete(ctx, 3))
	members, err := svc.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)

	require.ErrorIs(t, svc.Delete(ctx, 3), usersvc.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, 1), usersvc.ErrProtected)
}
