package users

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eion/userhub/internal/zerrors"
)

func newTestService(store UserStore, now time.Time, id uuid.UUID) *UserServiceImpl {
	s := NewUserService(store)
	s.hashCost = bcrypt.MinCost
	s.now = func() time.Time { return now }
	s.generateID = func() uuid.UUID { return id }
	return s
}

func TestServiceCreateUser(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	id := uuid.New()
	svc := newTestService(store, now, id)

	user, err := svc.CreateUser(ctx, &CreateUserRequest{Username: "rick", Password: "pickle"})
	require.NoError(t, err)
	assert.Equal(t, &User{ID: id, Username: "rick", IsActive: true, CreatedDate: now, UpdatedDate: now}, user)

	stored, err := store.GetUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, checkPassword(stored, "pickle"))
	assert.False(t, checkPassword(stored, "Pickle"))
}

func TestServiceCreateUserValidation(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	svc := newTestService(store, time.Now(), uuid.New())

	_, err := svc.CreateUser(ctx, &CreateUserRequest{Username: "   ", Password: "pickle"})
	assert.True(t, zerrors.IsValidation(err))

	_, err = svc.CreateUser(ctx, &CreateUserRequest{Username: "  rick  ", Password: "pickle"})
	assert.True(t, zerrors.IsValidation(err), "surrounding whitespace is rejected, not trimmed")

	_, err = svc.CreateUser(ctx, &CreateUserRequest{Username: "rick"})
	assert.True(t, zerrors.IsValidation(err))

	_, err = svc.CreateUser(ctx, &CreateUserRequest{Username: "rick", Password: strings.Repeat("p", 73)})
	assert.True(t, zerrors.IsValidation(err), "bcrypt input limit surfaces as a validation error")

	assert.Zero(t, store.writeCount())
}

func TestServiceUpdateUser(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	id := uuid.New()
	_, err := newTestService(store, created, id).CreateUser(ctx, &CreateUserRequest{Username: "rick", Password: "pickle"})
	require.NoError(t, err)

	later := created.Add(24 * time.Hour)
	svc := newTestService(store, later, uuid.New())
	inactive := false

	user, err := svc.UpdateUser(ctx, id, &UpdateUserRequest{Username: "morty", IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "morty", user.Username)
	assert.False(t, user.IsActive)
	assert.Equal(t, created, user.CreatedDate)
	assert.Equal(t, later, user.UpdatedDate)

	stored, err := store.GetUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, checkPassword(stored, "pickle"), "password kept when omitted")

	password := "aw-jeez"
	_, err = svc.UpdateUser(ctx, id, &UpdateUserRequest{Username: "morty", Password: &password})
	require.NoError(t, err)

	stored, err = store.GetUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, checkPassword(stored, "aw-jeez"))
	assert.True(t, stored.IsActive, "omitted is_active resets to true")
}

func TestServiceUpdateMissingUser(t *testing.T) {
	svc := newTestService(newRecordingStore(), time.Now(), uuid.New())

	_, err := svc.UpdateUser(context.Background(), uuid.New(), &UpdateUserRequest{Username: "rick"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestServiceListUsersNeverNil(t *testing.T) {
	svc := newTestService(newRecordingStore(), time.Now(), uuid.New())

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}
