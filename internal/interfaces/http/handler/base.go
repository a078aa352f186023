// Package handler holds the gin handlers of the pharmacy API.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pharmacy/backend/internal/domain/sales"
	"github.com/pharmacy/backend/internal/infrastructure/logger"
	"github.com/pharmacy/backend/internal/interfaces/http/dto"
	"github.com/pharmacy/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct {
	// Production masks the detail of server errors
	Production bool
}

func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDContextKey)
}

// Success sends a success envelope
func (h *BaseHandler) Success(c *gin.Context, status int, message string, data any) {
	c.JSON(status, dto.NewSuccessResponse(status, message, data))
}

// HandleError maps err to its envelope. Server errors are logged with the request context.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	resp := dto.FromError(err, h.Production).WithRequestID(getRequestID(c))
	if resp.Status >= http.StatusInternalServerError {
		logger.L(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		_ = c.Error(err)
	}
	c.JSON(resp.Status, resp)
}

// BindError answers a failed ShouldBind call
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	resp := dto.FromBindError(err).WithRequestID(getRequestID(c))
	c.JSON(resp.Status, resp)
}

// ValidationError answers with a single rejected field
func (h *BaseHandler) ValidationError(c *gin.Context, field, message string) {
	h.HandleError(c, sales.NewValidationError(sales.Violation{Field: field, Message: message}))
}

// uuidParam parses the path parameter name. On failure the response is already written.
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.ValidationError(c, name, "Must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
