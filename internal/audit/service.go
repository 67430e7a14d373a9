package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/eion/userhub/internal/zerrors"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Service validates and records request logs
type Service struct {
	store Store
}

// NewService creates a new audit service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Record persists one request log
func (s *Service) Record(ctx context.Context, log *RequestLog) error {
	if err := log.Validate(); err != nil {
		return zerrors.NewValidationError("invalid request log", err)
	}

	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}

	if err := s.store.CreateRequestLog(ctx, log); err != nil {
		return zerrors.NewStorageError("insert", "request_logs", err)
	}
	return nil
}

// Recent returns the newest entries. A non-positive limit means the default.
func (s *Service) Recent(ctx context.Context, limit int) ([]*RequestLog, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		return nil, zerrors.NewValidationError(fmt.Sprintf("invalid limit: must not exceed %d", MaxListLimit), nil)
	}

	logs, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list request logs: %w", err)
	}
	return logs, nil
}

// Prune deletes entries older than retention
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, zerrors.NewValidationError("retention must be positive", nil)
	}

	deleted, err := s.store.DeleteOlderThan(ctx, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, zerrors.NewStorageError("delete", "request_logs", err)
	}
	return deleted, nil
}
