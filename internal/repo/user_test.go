package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelmuhia/booking-website/internal/domain"
)

func userFixture(email string) domain.User {
	return domain.User{
		ID:           uuid.New(),
		Username:     "amina",
		Email:        email,
		PasswordHash: "$2a$04$hash",
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC),
	}
}

func TestUserRepo_CreateAndGetByEmail(t *testing.T) {
	eachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()
		u := userFixture("amina@example.com")
		require.NoError(t, s.users.Create(ctx, u))

		got, err := s.users.GetByEmail(ctx, "amina@example.com")

		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, u.PasswordHash, got.PasswordHash)
		assert.Equal(t, domain.RoleAdmin, got.Role)
		assert.True(t, u.CreatedAt.Equal(got.CreatedAt))
	})
}

func TestUserRepo_Create_DuplicateEmail(t *testing.T) {
	eachBackend(t, func(t *testing.T, s stores) {
		ctx := context.Background()
		require.NoError(t, s.users.Create(ctx, userFixture("amina@example.com")))

		err := s.users.Create(ctx, userFixture("amina@example.com"))

		require.ErrorIs(t, err, domain.ErrEmailTaken)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestUserRepo_GetByEmail_NotFound(t *testing.T) {
	eachBackend(t, func(t *testing.T, s stores) {
		_, err := s.users.GetByEmail(context.Background(), "nobody@example.com")

		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}
