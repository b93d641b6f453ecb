package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/moderation-service/internal/services"
	"github.com/SAP-F-2025/moderation-service/internal/utils"
	"github.com/SAP-F-2025/moderation-service/internal/validator"
)

type ErrorResponse struct {
	Error            string                     `json:"error"`
	Message          string                     `json:"message"`
	Details          interface{}                `json:"details,omitempty"`
	ValidationErrors validator.ValidationErrors `json:"validation_errors,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c).Info(msg, args...)
}

func (h BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.FromContext(c).Error(msg, append(args, "error", err)...)
}

// CallerID returns the authenticated user id set by the auth middleware.
func (h BaseHandler) CallerID(c *gin.Context) (string, bool) {
	userID := c.GetString("user_id")
	return userID, userID != ""
}

// handleServiceError maps a service error to the HTTP response. Everything
// not deliberately classified by the services ends up as 500 with the
// original message attached.
func (h BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:            string(services.CodeInvalidArgument),
			Message:          "Request validation failed",
			ValidationErrors: validationErrs,
		})
		return
	}

	code := services.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case services.CodeUnauthenticated:
		status = http.StatusUnauthorized
	case services.CodePermissionDenied:
		status = http.StatusForbidden
	case services.CodeInvalidArgument:
		status = http.StatusBadRequest
	case services.CodeNotFound:
		status = http.StatusNotFound
	case services.CodeFailedPrecondition:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.LogError(c, err, "request failed")
	}

	c.JSON(status, ErrorResponse{
		Error:   string(code),
		Message: err.Error(),
	})
}
