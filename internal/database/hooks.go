package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// QueryHook logs every statement bun executes
type QueryHook struct {
	logger *zap.Logger
}

var _ bun.QueryHook = (*QueryHook)(nil)

// NewQueryHook creates a hook writing to logger
func NewQueryHook(logger *zap.Logger) *QueryHook {
	return &QueryHook{logger: logger.Named("bun")}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

// AfterQuery logs successful statements at debug level and failures at warn.
// sql.ErrNoRows is an expected outcome for lookups and is not treated as a failure.
func (h *QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	fields := []zap.Field{
		zap.String("operation", event.Operation()),
		zap.String("query", event.Query),
		zap.Duration("duration", time.Since(event.StartTime)),
	}

	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		h.logger.Warn("query failed", append(fields, zap.Error(event.Err))...)
		return
	}
	h.logger.Debug("query executed", fields...)
}
