package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeChecker struct {
	name     string
	critical bool
	err      error
}

func (f fakeChecker) HealthCheck(context.Context) error { return f.err }
func (f fakeChecker) IsCritical() bool                  { return f.critical }
func (f fakeChecker) Name() string                      { return f.name }

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type fakeConfig struct{ err error }

func (c fakeConfig) Validate() error { return c.err }

func TestStartupHealthCheck(t *testing.T) {
	ctx := context.Background()

	m := NewManager(zap.NewNop())
	m.AddChecker(fakeChecker{name: "cache", critical: false, err: errors.New("down")})
	m.AddChecker(NewDatabaseChecker(fakePinger{}))
	assert.NoError(t, m.StartupHealthCheck(ctx), "non-critical failures do not block startup")

	m.AddChecker(NewConfigChecker(fakeConfig{err: errors.New("bad port")}))
	err := m.StartupHealthCheck(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration")
	assert.Contains(t, err.Error(), "bad port")
}

func TestRuntimeHealthCheck(t *testing.T) {
	m := NewManager(zap.NewNop())
	m.AddChecker(NewDatabaseChecker(fakePinger{err: errors.New("refused")}))
	m.AddChecker(NewConfigChecker(fakeConfig{}))

	results := m.RuntimeHealthCheck(context.Background())
	assert.Len(t, results, 2)
	assert.EqualError(t, results["database"], "refused")
	assert.NoError(t, results["configuration"])
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		checkers   []Checker
		wantStatus int
		wantState  string
	}{
		{
			name:       "all healthy",
			checkers:   []Checker{NewDatabaseChecker(fakePinger{}), NewConfigChecker(fakeConfig{})},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
		},
		{
			name:       "degraded optional dependency",
			checkers:   []Checker{NewDatabaseChecker(fakePinger{}), fakeChecker{name: "cache", err: errors.New("down")}},
			wantStatus: http.StatusOK,
			wantState:  "healthy",
		},
		{
			name:       "database down",
			checkers:   []Checker{NewDatabaseChecker(fakePinger{err: errors.New("refused")})},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(zap.NewNop())
			for _, c := range tt.checkers {
				m.AddChecker(c)
			}

			router := gin.New()
			router.GET("/health", Handler(m))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body["status"])
			assert.Len(t, body["services"], len(tt.checkers))
		})
	}
}
