package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/cashpilot-bot/internal/database"
	"gitlab.com/yelinaung/cashpilot-bot/internal/models"
)

func TestUserRepository_UpsertProfile(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()

	repo := NewUserRepository(tx)

	t.Run("creates new user", func(t *testing.T) {
		user := &models.User{
			ID:        12345,
			Username:  "testuser",
			FirstName: "Test",
			LastName:  "User",
		}

		err := repo.UpsertProfile(ctx, user)
		require.NoError(t, err)

		fetched, err := repo.GetUser(ctx, 12345)
		require.NoError(t, err)
		require.Equal(t, "testuser", fetched.Username)
		require.Equal(t, "Test", fetched.FirstName)
		require.Equal(t, "User", fetched.LastName)
		require.False(t, fetched.HasBusiness())
		require.False(t, fetched.HasOpenSession())
	})

	t.Run("updates profile without touching branch state", func(t *testing.T) {
		require.NoError(t, repo.SetBusiness(ctx, 12345, "biz-1", "Farmacia Central"))
		require.NoError(t, repo.SetOpenSession(ctx, 12345, "sess-1"))

		err := repo.UpsertProfile(ctx, &models.User{ID: 12345, Username: "updateduser", FirstName: "Updated"})
		require.NoError(t, err)

		fetched, err := repo.GetUser(ctx, 12345)
		require.NoError(t, err)
		require.Equal(t, "updateduser", fetched.Username)
		require.Equal(t, "Updated", fetched.FirstName)
		require.Equal(t, "biz-1", fetched.BusinessID)
		require.Equal(t, "Farmacia Central", fetched.BusinessName)
		require.Equal(t, "sess-1", fetched.OpenSessionID)
	})
}

func TestUserRepository_GetUser_NotFound(t *testing.T) {
	tx := database.TestTx(t)
	repo := NewUserRepository(tx)

	_, err := repo.GetUser(context.Background(), 99999)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_SetBusiness_UnknownUser(t *testing.T) {
	tx := database.TestTx(t)
	repo := NewUserRepository(tx)

	err := repo.SetBusiness(context.Background(), 99999, "biz-1", "Farmacia")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_OpenSessions(t *testing.T) {
	tx := database.TestTx(t)
	ctx := context.Background()

	repo := NewUserRepository(tx)

	t.Run("returns empty when no sessions are open", func(t *testing.T) {
		users, err := repo.ListWithOpenSession(ctx)
		require.NoError(t, err)
		require.Empty(t, users)
	})

	t.Run("lists only users with open sessions", func(t *testing.T) {
		for _, id := range []int64{1001, 1002, 1003} {
			require.NoError(t, repo.UpsertProfile(ctx, &models.User{ID: id}))
		}
		require.NoError(t, repo.SetOpenSession(ctx, 1003, "sess-c"))
		require.NoError(t, repo.SetOpenSession(ctx, 1001, "sess-a"))

		users, err := repo.ListWithOpenSession(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		require.Equal(t, int64(1001), users[0].ID)
		require.Equal(t, "sess-a", users[0].OpenSessionID)
		require.Equal(t, int64(1003), users[1].ID)
	})

	t.Run("clear removes the user from the list", func(t *testing.T) {
		require.NoError(t, repo.ClearOpenSession(ctx, 1001))

		users, err := repo.ListWithOpenSession(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		require.Equal(t, int64(1003), users[0].ID)
	})

	t.Run("unknown user is a no-op", func(t *testing.T) {
		require.NoError(t, repo.SetOpenSession(ctx, 424242, "sess-x"))
		require.NoError(t, repo.ClearOpenSession(ctx, 424242))

		_, err := repo.GetUser(ctx, 424242)
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}
