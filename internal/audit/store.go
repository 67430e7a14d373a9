package audit

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Store defines the interface for request log persistence
type Store interface {
	CreateRequestLog(ctx context.Context, log *RequestLog) error
	// ListRecent returns up to limit entries, newest first
	ListRecent(ctx context.Context, limit int) ([]*RequestLog, error)
	// DeleteOlderThan removes entries written before cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// BunStore implements Store on bun
type BunStore struct {
	db *bun.DB
}

// NewBunStore creates a new request log store
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

func (s *BunStore) CreateRequestLog(ctx context.Context, log *RequestLog) error {
	_, err := s.db.NewInsert().Model(log).Exec(ctx)
	return err
}

func (s *BunStore) ListRecent(ctx context.Context, limit int) ([]*RequestLog, error) {
	logs := make([]*RequestLog, 0)
	err := s.db.NewSelect().
		Model(&logs).
		Order("timestamp DESC").
		Limit(limit).
		Scan(ctx)
	return logs, err
}

func (s *BunStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*RequestLog)(nil)).
		Where("timestamp < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
