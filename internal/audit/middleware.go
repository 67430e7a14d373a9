package audit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eion/userhub/internal/zerrors"
)

const recordTimeout = 5 * time.Second

// Recorder persists request logs; *Service satisfies it
type Recorder interface {
	Record(ctx context.Context, log *RequestLog) error
}

// Middleware records one RequestLog per request. Requests whose path starts
// with one of skipPrefixes are not recorded. Entries are written in the
// background so a slow store never delays the response.
func Middleware(recorder Recorder, logger *zap.Logger, skipPrefixes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path

		for _, prefix := range skipPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		requestLog := &RequestLog{
			LogID:      uuid.New().String(),
			Operation:  c.Request.Method + " " + route,
			Endpoint:   path,
			Method:     c.Request.Method,
			Query:      c.Request.URL.RawQuery,
			StatusCode: status,
			Success:    status < http.StatusBadRequest,
			ClientIP:   c.ClientIP(),
			LatencyMs:  time.Since(startTime).Milliseconds(),
			Timestamp:  startTime.UTC(),
		}
		if !requestLog.Success {
			requestLog.ErrorMsg = errorMessage(c, status)
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()

			if err := recorder.Record(ctx, requestLog); err != nil {
				logger.Error("Failed to record request log",
					zap.String("operation", requestLog.Operation),
					zap.Int("status", status),
					zap.Error(err))
			}
		}()
	}
}

// errorMessage prefers the client-facing message of the last error a handler
// attached to the context. Server errors keep their causes out of the log.
func errorMessage(c *gin.Context, status int) string {
	if status >= http.StatusInternalServerError {
		return "internal server error"
	}

	last := c.Errors.Last()
	if last == nil {
		return fmt.Sprintf("HTTP %d", status)
	}

	var appErr *zerrors.Error
	if errors.As(last.Err, &appErr) {
		return appErr.Message
	}
	return last.Error()
}
