package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chatline/errors"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t))

	id, err := repo.CreateUser("alice", "$argon2id$fake-hash")
	req.NoError(err)
	req.NotEmpty(id)

	user, err := repo.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal("alice", user.Username)
	req.Equal("$argon2id$fake-hash", user.PasswordHash)
	req.Equal(id, user.ID)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t))

	_, err := repo.CreateUser("alice", "hash-1")
	req.NoError(err)

	_, err = repo.CreateUser("alice", "hash-2")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	// The original hash must be untouched by the failed attempt.
	user, err := repo.GetUserByUsername("alice")
	req.NoError(err)
	req.Equal("hash-1", user.PasswordHash)
}

func TestUserRepository_UnknownUser(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t))

	_, err := repo.GetUserByUsername("nobody")
	req.ErrorIs(err, errors.ErrUserNotFound)
}
