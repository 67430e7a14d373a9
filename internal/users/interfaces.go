package users

import (
	"context"

	"github.com/google/uuid"

	"github.com/eion/userhub/internal/query"
)

// UserStore defines the interface for user storage operations
type UserStore interface {
	CreateUser(ctx context.Context, user *UserSchema) error
	GetUser(ctx context.Context, id uuid.UUID) (*UserSchema, error)
	UpdateUser(ctx context.Context, user *UserSchema) error
	// DeleteUser removes the row and returns it as it was before deletion
	DeleteUser(ctx context.Context, id uuid.UUID) (*UserSchema, error)
	// ListUsers applies every filter to a single query; filters compose with AND
	ListUsers(ctx context.Context, filters ...query.Filter) ([]UserSchema, error)
}

// UserService defines the interface for user service operations
type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req *UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context, filters ...query.Filter) ([]*User, error)
}
