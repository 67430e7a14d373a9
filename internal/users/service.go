package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eion/userhub/internal/query"
	"github.com/eion/userhub/internal/zerrors"
)

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	store      UserStore
	hashCost   int
	now        func() time.Time
	generateID func() uuid.UUID
}

// NewUserService creates a new user service instance
func NewUserService(store UserStore) *UserServiceImpl {
	return &UserServiceImpl{
		store:      store,
		hashCost:   bcrypt.DefaultCost,
		now:        func() time.Time { return time.Now().UTC() },
		generateID: uuid.New,
	}
}

// CreateUser hashes the password and stores a new user
func (s *UserServiceImpl) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	username, err := checkUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, zerrors.NewValidationError("password is required", nil)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &UserSchema{
		ID:           s.generateID(),
		Username:     username,
		PasswordHash: hash,
		IsActive:     req.isActive(),
		CreatedDate:  now,
		UpdatedDate:  now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return UserSchemaToUser(user), nil
}

// GetUser retrieves a user
func (s *UserServiceImpl) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return UserSchemaToUser(user), nil
}

// UpdateUser replaces every field of an existing user. The password hash is
// only replaced when a new password is given.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, id uuid.UUID, req *UpdateUserRequest) (*User, error) {
	username, err := checkUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if req.Password != nil && *req.Password == "" {
		return nil, zerrors.NewValidationError("password must not be empty", nil)
	}

	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Password != nil {
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	user.Username = username
	user.IsActive = req.isActive()
	user.UpdatedDate = s.now()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return UserSchemaToUser(user), nil
}

// DeleteUser removes a user and returns its last state
func (s *UserServiceImpl) DeleteUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.store.DeleteUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return UserSchemaToUser(user), nil
}

// ListUsers lists users matching every filter
func (s *UserServiceImpl) ListUsers(ctx context.Context, filters ...query.Filter) ([]*User, error) {
	rows, err := s.store.ListUsers(ctx, filters...)
	if err != nil {
		return nil, err
	}
	return UserSchemasToUsers(rows), nil
}

func (s *UserServiceImpl) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		// bcrypt rejects passwords longer than 72 bytes
		return "", zerrors.NewValidationError("password cannot be hashed", err)
	}
	return string(hash), nil
}

// checkUsername rejects blank usernames and usernames with surrounding
// whitespace. Usernames are stored exactly as submitted.
func checkUsername(username string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", zerrors.NewValidationError("username is required", nil)
	}
	if strings.TrimSpace(username) != username {
		return "", zerrors.NewValidationError("username must not start or end with whitespace", nil)
	}
	return username, nil
}
