package authsvc_test

import (
	"context"
	"database/sql"
	"testing"

	"booklend/model"
	authsvc "booklend/service/auth"
	"booklend/util/hash"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type mockUserRepo struct {
	createFn  func(ctx context.Context, u *model.User) error
	byEmailFn func(ctx context.Context, email string) (*model.User, error)
	byIDFn    func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *model.User) error { return m.createFn(ctx, u) }
func (m *mockUserRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.byEmailFn(ctx, email)
}
func (m *mockUserRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	return m.byIDFn(ctx, id)
}
func (m *mockUserRepo) ListMembers(ctx context.Context) ([]model.User, error) { return nil, nil }
func (m *mockUserRepo) SetStatus(ctx context.Context, id int64, status string) error {
	return nil
}
func (m *mockUserRepo) Delete(ctx context.Context, id int64) error { return nil }

const testSecret = "test-secret"

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		var saved *model.User
		repo := &mockUserRepo{
			createFn: func(_ context.Context, u *model.User) error {
				u.ID = 7
				saved = u
				return nil
			},
		}
		svc := authsvc.New(repo, testSecret)

		u, token, err := svc.Register(ctx, model.RegisterReq{
			Username: "andi",
			Email:    "Andi@Example.com",
			Password: "secret1",
		})
		require.NoError(t, err)
		require.NotEmpty(t, token)
		require.Equal(t, int64(7), u.ID)
		require.Equal(t, model.RoleMember, u.Role)
		require.Equal(t, model.AccountActive, u.AccountStatus)

		// stored lowercased, never in the clear
		require.Equal(t, "andi@example.com", saved.Email)
		require.NotEqual(t, "secret1", saved.PasswordHash)
		require.True(t, hash.Check(saved.PasswordHash, "secret1"))
	})

	t.Run("short password", func(t *testing.T) {
		svc := authsvc.New(&mockUserRepo{}, testSecret)
		_, _, err := svc.Register(ctx, model.RegisterReq{
			Username: "andi",
			Email:    "andi@example.com",
			Password: "abc",
		})
		require.ErrorIs(t, err, authsvc.ErrBadInput)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := &mockUserRepo{
			createFn: func(_ context.Context, _ *model.User) error {
				return &pgconn.PgError{
					Code:           pgerrcode.UniqueViolation,
					ConstraintName: "users_email_key",
				}
			},
		}
		svc := authsvc.New(repo, testSecret)
		_, _, err := svc.Register(ctx, model.RegisterReq{
			Username: "andi",
			Email:    "andi@example.com",
			Password: "secret1",
		})
		require.ErrorIs(t, err, authsvc.ErrEmailTaken)
	})

	t.Run("duplicate username", func(t *testing.T) {
		repo := &mockUserRepo{
			createFn: func(_ context.Context, _ *model.User) error {
				return &pgconn.PgError{
					Code:           pgerrcode.UniqueViolation,
					ConstraintName: "users_username_key",
				}
			},
		}
		svc := authsvc.New(repo, testSecret)
		_, _, err := svc.Register(ctx, model.RegisterReq{
			Username: "andi",
			Email:    "other@example.com",
			Password: "secret1",
		})
		require.ErrorIs(t, err, authsvc.ErrUsernameTaken)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hashed, err := hash.HashPassword("secret1")
	require.NoError(t, err)

	stored := &model.User{
		ID:            7,
		Username:      "andi",
		Email:         "andi@example.com",
		PasswordHash:  hashed,
		Role:          model.RoleMember,
		AccountStatus: model.AccountActive,
	}
	repo := &mockUserRepo{
		byEmailFn: func(_ context.Context, email string) (*model.User, error) {
			if email != stored.Email {
				return nil, sql.ErrNoRows
			}
			u := *stored
			return &u, nil
		},
	}
	svc := authsvc.New(repo, testSecret)

	t.Run("success", func(t *testing.T) {
		u, token, err := svc.Login(ctx, model.LoginReq{Email: "andi@example.com", Password: "secret1"})
		require.NoError(t, err)
		require.NotEmpty(t, token)
		require.Equal(t, int64(7), u.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, model.LoginReq{Email: "andi@example.com", Password: "nope"})
		require.ErrorIs(t, err, authsvc.ErrInvalidCreds)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, model.LoginReq{Email: "ghost@example.com", Password: "secret1"})
		require.ErrorIs(t, err, authsvc.ErrInvalidCreds)
	})

	t.Run("blocked account", func(t *testing.T) {
		blocked := *stored
		blocked.AccountStatus = model.AccountBlocked
		svc := authsvc.New(&mockUserRepo{
			byEmailFn: func(_ context.Context, _ string) (*model.User, error) {
				u := blocked
				return &u, nil
			},
		}, testSecret)
		_, _, err := svc.Login(ctx, model.LoginReq{Email: "andi@example.com", Password: "secret1"})
		require.ErrorIs(t, err, authsvc.ErrBlocked)
	})
}

func TestIsApprover(t *testing.T) {
	ctx := context.Background()
	repo := &mockUserRepo{
		byIDFn: func(_ context.Context, id int64) (*model.User, error) {
			switch id {
			case 1:
				return &model.User{ID: 1, Role: model.RoleAdmin}, nil
			case 2:
				return &model.User{ID: 2, Role: model.RoleMember}, nil
			}
			return nil, sql.ErrNoRows
		},
	}
	svc := authsvc.New(repo, testSecret)

	ok, err := svc.IsApprover(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.IsApprover(ctx, 2)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.IsApprover(ctx, 99)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.ResolveBorrower(ctx, 99)
	require.ErrorIs(t, err, authsvc.ErrNotFound)
}
