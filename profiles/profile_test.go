package profiles_test

import (
	"context"
	"errors"
	"testing"

	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
	"github.com/jpilocastillo/m8bizz-sub004/profiles"
	fakeprofilerepo "github.com/jpilocastillo/m8bizz-sub004/profiles/repofakes"
	"github.com/stretchr/testify/require"
)

func TestRoleLookup(t *testing.T) {
	repo := fakeprofilerepo.NewFakeProfileRepo(
		profiles.Profile{ID: "admin-1", Email: "ops@example.com", Role: profiles.RoleAdmin},
		profiles.Profile{ID: "user-1", Email: "advisor@example.com"},
	)
	lookup := profiles.RoleLookup{Repo: repo}
	ctx := context.Background()

	t.Run("admin role", func(t *testing.T) {
		role, err := lookup.RoleFor(ctx, "admin-1")
		require.NoError(t, err)
		require.Equal(t, profiles.RoleAdmin, role)
	})

	t.Run("profile without role", func(t *testing.T) {
		role, err := lookup.RoleFor(ctx, "user-1")
		require.NoError(t, err)
		require.Empty(t, role)
	})

	t.Run("missing profile", func(t *testing.T) {
		_, err := lookup.RoleFor(ctx, "ghost")
		require.ErrorIs(t, err, apperrors.ErrProfileNotFound)
	})

	t.Run("backend failure", func(t *testing.T) {
		repo.FailWith(errors.New("connection reset"))
		defer repo.FailWith(nil)

		_, err := lookup.RoleFor(ctx, "admin-1")
		require.Error(t, err)
		require.Contains(t, err.Error(), "connection reset")
	})
}

func TestInMemoryRepo(t *testing.T) {
	repo := profiles.NewInMemoryRepo()
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "user-1")
	require.ErrorIs(t, err, apperrors.ErrProfileNotFound)

	require.NoError(t, repo.Upsert(ctx, &profiles.Profile{ID: "user-1", Email: "advisor@example.com", Role: profiles.RoleAdmin}))
	got, err := repo.GetByID(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, profiles.RoleAdmin, got.Role)
}
