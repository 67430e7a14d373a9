package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/eion/userhub/internal/query"
	"github.com/eion/userhub/internal/zerrors"
)

// ErrUserNotFound is returned by every lookup on a missing id
var ErrUserNotFound = zerrors.NewNotFoundError("user")

// postgres unique_violation
const pgUniqueViolation = "23505"

// UserStoreImpl implements the UserStore interface on bun
type UserStoreImpl struct {
	db *bun.DB
}

// NewUserStore creates a new user store instance
func NewUserStore(db *bun.DB) *UserStoreImpl {
	return &UserStoreImpl{
		db: db,
	}
}

// CreateUser inserts a new row
func (s *UserStoreImpl) CreateUser(ctx context.Context, user *UserSchema) error {
	_, err := s.db.NewInsert().
		Model(user).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return usernameTaken(user.Username, err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id
func (s *UserStoreImpl) GetUser(ctx context.Context, id uuid.UUID) (*UserSchema, error) {
	user := &UserSchema{ID: id}
	err := s.db.NewSelect().
		Model(user).
		WherePK().
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateUser overwrites the mutable columns of an existing row
func (s *UserStoreImpl) UpdateUser(ctx context.Context, user *UserSchema) error {
	res, err := s.db.NewUpdate().
		Model(user).
		Column("username", "password_hash", "is_active", "updated_date").
		WherePK().
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return usernameTaken(user.Username, err)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser reads and deletes the row in one transaction
func (s *UserStoreImpl) DeleteUser(ctx context.Context, id uuid.UUID) (*UserSchema, error) {
	user := &UserSchema{ID: id}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := tx.NewSelect().Model(user).WherePK().Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to get user: %w", err)
		}

		if _, err := tx.NewDelete().Model(user).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers lists users ordered by creation, narrowed by filters
func (s *UserStoreImpl) ListUsers(ctx context.Context, filters ...query.Filter) ([]UserSchema, error) {
	var rows []UserSchema

	q := s.db.NewSelect().
		Model(&rows).
		Order("created_date ASC", "id ASC")
	for _, f := range filters {
		q = f.Apply(q)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return rows, nil
}

func usernameTaken(username string, cause error) error {
	return zerrors.NewConflictError(fmt.Sprintf("username %q is already taken", username), cause)
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == pgUniqueViolation
	}

	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
