package audit

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eion/userhub/internal/zerrors"
)

// Handlers exposes the audit log over HTTP
type Handlers struct {
	service *Service
	logger  *zap.Logger
}

// NewHandlers creates audit handlers
func NewHandlers(service *Service, logger *zap.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// RegisterRoutes registers the monitoring routes
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	monitoring := router.Group("/monitoring")
	{
		monitoring.GET("/requests", h.ListRequests)
	}
}

// ListRequests handles GET /monitoring/requests?limit=N
func (h *Handlers) ListRequests(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit: expected a positive integer"})
			return
		}
		limit = n
	}

	logs, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		status := zerrors.HTTPStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to list request logs", zap.Error(err))
			c.JSON(status, gin.H{"error": "internal server error"})
			return
		}

		message := err.Error()
		var appErr *zerrors.Error
		if errors.As(err, &appErr) {
			message = appErr.Message
		}
		c.JSON(status, gin.H{"error": message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": logs,
		"count":    len(logs),
	})
}
