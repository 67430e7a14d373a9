package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Checker reports the health of one dependency
type Checker interface {
	HealthCheck(ctx context.Context) error
	IsCritical() bool // critical checkers block startup and mark the service unhealthy
	Name() string
}

// Manager runs the registered checkers
type Manager struct {
	checkers []Checker
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewManager creates a new health manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		checkers: make([]Checker, 0),
		logger:   logger,
	}
}

// AddChecker adds a health checker to the manager
func (m *Manager) AddChecker(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
}

// StartupHealthCheck fails if any critical checker fails; other failures are logged
func (m *Manager) StartupHealthCheck(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var criticalFailures []error

	for _, checker := range m.checkers {
		err := checker.HealthCheck(ctx)
		switch {
		case err == nil:
			m.logger.Info("Service health check passed",
				zap.String("service", checker.Name()),
				zap.Bool("critical", checker.IsCritical()))
		case checker.IsCritical():
			criticalFailures = append(criticalFailures, fmt.Errorf("%s: %w", checker.Name(), err))
			m.logger.Error("Critical service health check failed",
				zap.String("service", checker.Name()),
				zap.Error(err))
		default:
			m.logger.Warn("Non-critical service health check failed",
				zap.String("service", checker.Name()),
				zap.Error(err))
		}
	}

	if len(criticalFailures) > 0 {
		return fmt.Errorf("critical services failed health check: %v", criticalFailures)
	}
	return nil
}

// RuntimeHealthCheck runs every checker and returns each result by name
func (m *Manager) RuntimeHealthCheck(ctx context.Context) map[string]error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make(map[string]error, len(m.checkers))
	for _, checker := range m.checkers {
		results[checker.Name()] = checker.HealthCheck(ctx)
	}
	return results
}

func (m *Manager) isCritical(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, checker := range m.checkers {
		if checker.Name() == name {
			return checker.IsCritical()
		}
	}
	return false
}

// Handler serves GET /health. Any failing critical checker yields 503.
func Handler(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		results := m.RuntimeHealthCheck(c.Request.Context())

		healthy := true
		services := gin.H{}
		errs := gin.H{}
		for name, err := range results {
			if err == nil {
				services[name] = "healthy"
				continue
			}
			services[name] = "unhealthy"
			errs[name] = err.Error()
			if m.isCritical(name) {
				healthy = false
			}
		}

		body := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"services":  services,
		}
		if len(errs) > 0 {
			body["errors"] = errs
		}
		if !healthy {
			body["status"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		c.JSON(http.StatusOK, body)
	}
}

// Pinger is satisfied by *bun.DB and *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// DatabaseChecker checks database connectivity
type DatabaseChecker struct {
	db Pinger
}

// NewDatabaseChecker creates a database health checker
func NewDatabaseChecker(db Pinger) *DatabaseChecker {
	return &DatabaseChecker{db: db}
}

func (d *DatabaseChecker) HealthCheck(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DatabaseChecker) IsCritical() bool {
	return true
}

func (d *DatabaseChecker) Name() string {
	return "database"
}

// Validator is satisfied by *config.Config
type Validator interface {
	Validate() error
}

// ConfigChecker checks configuration validity
type ConfigChecker struct {
	config Validator
}

// NewConfigChecker creates a config health checker
func NewConfigChecker(config Validator) *ConfigChecker {
	return &ConfigChecker{config: config}
}

func (c *ConfigChecker) HealthCheck(_ context.Context) error {
	if c.config == nil {
		return fmt.Errorf("configuration is nil")
	}
	return c.config.Validate()
}

func (c *ConfigChecker) IsCritical() bool {
	return true
}

func (c *ConfigChecker) Name() string {
	return "configuration"
}
