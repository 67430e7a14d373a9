package users

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eion/userhub/internal/query"
	"github.com/eion/userhub/internal/zerrors"
)

// UpdatedDateField is the column the updated-before/updated-after parameters bound
const UpdatedDateField = "updated_date"

var registerJSONNames sync.Once

// Handlers provides HTTP handlers for the users resource
type Handlers struct {
	service    UserService
	pagination query.PaginationConfig
	logger     *zap.Logger
}

// NewHandlers creates users handlers. pagination holds the page size limits
// used when a request does not give its own.
func NewHandlers(service UserService, pagination query.PaginationConfig, logger *zap.Logger) *Handlers {
	registerJSONNames.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(jsonFieldName)
		}
	})

	return &Handlers{
		service:    service,
		pagination: pagination,
		logger:     logger,
	}
}

// RegisterRoutes registers all user routes
func (h *Handlers) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}

// ListUsers handles GET /users
func (h *Handlers) ListUsers(c *gin.Context) {
	values := c.Request.URL.Query()

	updated, err := query.BeforeAfterFromValues(values, UpdatedDateField, query.ParamUpdatedBefore, query.ParamUpdatedAfter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	page, err := query.LimitOffsetFromValues(values, h.pagination)
	if err != nil {
		h.respondError(c, err)
		return
	}
	active, err := query.BoolFromValues(values, query.ParamIsActive, true)
	if err != nil {
		h.respondError(c, err)
		return
	}

	users, err := h.service.ListUsers(c.Request.Context(), updated, page, query.Equals{"is_active": active})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}

	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// CreateUser handles POST /users
func (h *Handlers) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrorBody(err))
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.Info("user created", zap.String("user_id", user.ID.String()))
	c.JSON(http.StatusCreated, user)
}

// UpdateUser handles PUT /users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrorBody(err))
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), id, &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /users/:id
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, ok := h.userID(c)
	if !ok {
		return
	}

	user, err := h.service.DeleteUser(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.Info("user deleted", zap.String("user_id", id.String()))
	c.JSON(http.StatusOK, user)
}

func (h *Handlers) userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondError(c, zerrors.NewValidationError("invalid user id: expected a UUID", err))
		return uuid.Nil, false
	}
	return id, true
}

// respondError writes the status mapped from err. Unexpected errors are
// logged and hidden behind a generic message.
func (h *Handlers) respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := zerrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	message := err.Error()
	var appErr *zerrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	c.JSON(status, gin.H{"error": message})
}

func bindingErrorBody(err error) gin.H {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return gin.H{"error": "invalid request body"}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = describeFieldError(fe)
	}
	return gin.H{"error": "validation failed", "fields": fields}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}
