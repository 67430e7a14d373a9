package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserSchema represents the users table
type UserSchema struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	Username     string    `bun:"username,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	IsActive     bool      `bun:"is_active,notnull"`
	CreatedDate  time.Time `bun:"created_date,notnull"`
	UpdatedDate  time.Time `bun:"updated_date,notnull"`
}

// UserIndexes back the list ordering and the updated_date range filter
var UserIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_users_created_date ON users(created_date, id)",
	"CREATE INDEX IF NOT EXISTS idx_users_updated_date ON users(updated_date)",
	"CREATE INDEX IF NOT EXISTS idx_users_is_active ON users(is_active)",
}

// User is the public representation of a user. It has no password field, so
// no response can ever carry one.
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	IsActive    bool      `json:"is_active"`
	CreatedDate time.Time `json:"-"`
	UpdatedDate time.Time `json:"-"`
}

// CreateUserRequest represents the request to create a user.
// An id in the payload is ignored; the server assigns one.
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Password string `json:"password" binding:"required"`
	IsActive *bool  `json:"is_active"`
}

// UpdateUserRequest fully replaces a user. IsActive defaults to true when
// omitted; the stored password is kept when Password is omitted.
type UpdateUserRequest struct {
	Username string  `json:"username" binding:"required,max=150"`
	Password *string `json:"password"`
	IsActive *bool   `json:"is_active"`
}

func (r *UpdateUserRequest) isActive() bool {
	return r.IsActive == nil || *r.IsActive
}

func (r *CreateUserRequest) isActive() bool {
	return r.IsActive == nil || *r.IsActive
}

// UserSchemaToUser converts a row to its public representation
func UserSchemaToUser(schema *UserSchema) *User {
	return &User{
		ID:          schema.ID,
		Username:    schema.Username,
		IsActive:    schema.IsActive,
		CreatedDate: schema.CreatedDate,
		UpdatedDate: schema.UpdatedDate,
	}
}

// UserSchemasToUsers converts rows, never returning nil
func UserSchemasToUsers(schemas []UserSchema) []*User {
	result := make([]*User, 0, len(schemas))
	for i := range schemas {
		result = append(result, UserSchemaToUser(&schemas[i]))
	}
	return result
}
