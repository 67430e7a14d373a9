package audit

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// RequestLog is the audit entry written for every API request
type RequestLog struct {
	bun.BaseModel `bun:"table:request_logs,alias:rl"`

	LogID      string    `bun:"id,pk" json:"log_id"`
	Operation  string    `bun:"operation,notnull" json:"operation"` // e.g. "PUT /users/:id"
	Endpoint   string    `bun:"endpoint,notnull" json:"endpoint"`   // concrete request path
	Method     string    `bun:"method,notnull" json:"method"`
	Query      string    `bun:"query" json:"query,omitempty"`
	StatusCode int       `bun:"status_code,notnull" json:"status_code"`
	Success    bool      `bun:"success,notnull" json:"success"`
	ErrorMsg   string    `bun:"error_msg" json:"error_msg,omitempty"`
	ClientIP   string    `bun:"client_ip" json:"client_ip,omitempty"`
	LatencyMs  int64     `bun:"latency_ms,notnull" json:"latency_ms"`
	Timestamp  time.Time `bun:"timestamp,notnull" json:"timestamp"`
}

// RequestLogIndexes back the most-recent-first listing
var RequestLogIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_request_logs_timestamp ON request_logs(timestamp)",
}

// Validate validates the log entry
func (l *RequestLog) Validate() error {
	if l.LogID == "" {
		return fmt.Errorf("log ID cannot be empty")
	}
	if l.Method == "" {
		return fmt.Errorf("method cannot be empty")
	}
	if l.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}
	if l.StatusCode <= 0 {
		return fmt.Errorf("status code must be positive, got %d", l.StatusCode)
	}
	return nil
}
