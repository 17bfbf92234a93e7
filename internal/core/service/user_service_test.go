package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miralles/users-api/internal/core/domain"
	"github.com/miralles/users-api/internal/core/ports"
)

func newTestUserService() (*UserService, *failingRepo) {
	repo := newFailingRepo()
	return NewUserService(repo, testHasher, discardLogger), repo
}

func TestUserService_CreateUser(t *testing.T) {
	svc, _ := newTestUserService()

	user, err := svc.CreateUser(context.Background(), ports.CreateUserInput{
		Username: "testUser",
		Email:    "test@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.False(t, user.IsAdmin)
	assert.NoError(t, testHasher.Compare(user.Password, "password123"))
}

func TestUserService_CreateUser_WithoutPassword(t *testing.T) {
	svc, _ := newTestUserService()

	user, err := svc.CreateUser(context.Background(), ports.CreateUserInput{Username: "nopw", Email: "nopw@example.com"})
	require.NoError(t, err)
	assert.Empty(t, user.Password)
}

func TestUserService_CreateUser_DuplicateEmail(t *testing.T) {
	svc, repo := newTestUserService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, ports.CreateUserInput{Username: "first", Email: "dup@example.com"})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, ports.CreateUserInput{Username: "second", Email: "dup@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
	assert.Equal(t, 1, repo.Len())

	_, err = svc.CreateUser(ctx, ports.CreateUserInput{Username: "third", Email: "DUP@example.com"})
	assert.NoError(t, err, "uniqueness follows the case-sensitive lookup")
}

func TestUserService_CreateUser_SaveError(t *testing.T) {
	svc, repo := newTestUserService()
	repo.saveErr = errBackend

	_, err := svc.CreateUser(context.Background(), ports.CreateUserInput{Username: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, errBackend)
}

func TestUserService_GetUser(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()
	created, err := svc.CreateUser(ctx, ports.CreateUserInput{Username: "testUser", Email: "test@example.com"})
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *created, *got)

	_, err = svc.GetUser(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserService_ListUsers(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()
	for _, name := range []string{"user1", "user2"} {
		_, err := svc.CreateUser(ctx, ports.CreateUserInput{Username: name, Email: name + "@example.com"})
		require.NoError(t, err)
	}

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserService_UpdateUser_MergesProfile(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()
	created, err := svc.CreateUser(ctx, ports.CreateUserInput{Username: "oldUser", Email: "old@example.com", Password: "password123"})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, created.ID, ports.UpdateUserInput{Username: "newUser", Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "newUser", updated.Username)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, created.Password, updated.Password, "password survives an update")

	stored, err := svc.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *updated, *stored)
}

func TestUserService_UpdateUser_KeepsAdminFlag(t *testing.T) {
	svc, repo := newTestUserService()
	ctx := context.Background()
	admin, err := repo.Save(ctx, domain.User{Username: "admin", Email: "admin@example.com", IsAdmin: true})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, admin.ID, ports.UpdateUserInput{Username: "root", Email: "admin@example.com"})
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin)
}

func TestUserService_UpdateUser_NotFound(t *testing.T) {
	svc, repo := newTestUserService()

	_, err := svc.UpdateUser(context.Background(), 42, ports.UpdateUserInput{Username: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, 0, repo.saves)
}

func TestUserService_UpdateUser_EmailTaken(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()
	_, err := svc.CreateUser(ctx, ports.CreateUserInput{Username: "a", Email: "a@example.com"})
	require.NoError(t, err)
	b, err := svc.CreateUser(ctx, ports.CreateUserInput{Username: "b", Email: "b@example.com"})
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, b.ID, ports.UpdateUserInput{Username: "b", Email: "a@example.com"})
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestUserService_DeleteUser_Idempotent(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()
	created, err := svc.CreateUser(ctx, ports.CreateUserInput{Username: "a", Email: "a@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, created.ID))
	require.NoError(t, svc.DeleteUser(ctx, created.ID))

	_, err = svc.GetUser(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserService_GetUserByEmail(t *testing.T) {
	svc, _ := newTestUserService()
	ctx := context.Background()
	created, err := svc.CreateUser(ctx, ports.CreateUserInput{Username: "test", Email: "Test@Example.com"})
	require.NoError(t, err)

	got, err := svc.GetUserByEmail(ctx, "Test@Example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetUserByEmail(ctx, "test@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
