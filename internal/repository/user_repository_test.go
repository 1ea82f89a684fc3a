package repository

import (
	"context"
	"testing"

	"wms-storefront/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Feature: storefront, Property 11: Seeded accounts store hashed passwords
func TestProperty_SeededUsersHaveHashedPasswords(t *testing.T) {
	users, err := SeedUsers(bcrypt.MinCost)
	require.NoError(t, err)

	passwords := map[string]string{
		"admin@example.com": "admin123",
		"user@example.com":  "user123",
	}

	for _, u := range users {
		password := passwords[u.Email]
		assert.NotEqual(t, password, u.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)))
	}

	properties := gopter.NewProperties(nil)
	properties.Property("no other password matches a seeded hash", prop.ForAll(
		func(guess string) bool {
			for _, u := range users {
				if guess == passwords[u.Email] {
					continue
				}
				if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(guess)) == nil {
					return false
				}
			}
			return true
		},
		gen.AlphaString(),
	))
	properties.TestingRun(t)
}

func TestUserRepository(t *testing.T) {
	users, err := SeedUsers(bcrypt.MinCost)
	require.NoError(t, err)
	repo := NewUserRepository(users...)
	ctx := context.Background()

	admin, err := repo.FindByEmail(ctx, "ADMIN@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", admin.ID)
	assert.True(t, admin.IsAdmin())

	byID, err := repo.FindByID(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", byID.Email)
	assert.Equal(t, domain.RoleUser, byID.Role)

	_, err = repo.FindByID(ctx, "99")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.FindByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = repo.Create(ctx, &domain.User{ID: "3", Email: "User@Example.com"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	require.NoError(t, repo.Create(ctx, &domain.User{ID: "3", Email: "new@example.com", Role: domain.RoleUser}))
	created, err := repo.FindByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "3", created.ID)
}
