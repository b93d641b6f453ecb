package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/moderation-service/internal/models"
	"github.com/SAP-F-2025/moderation-service/internal/repositories"
	"github.com/SAP-F-2025/moderation-service/internal/services"
	"github.com/SAP-F-2025/moderation-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// Register creates a new account. Unauthenticated; the account stays
// unapproved (and unclaimed) until an admin approves it.
func (h *UserHandler) Register(c *gin.Context) {
	h.LogRequest(c, "Registering user")

	var req services.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(services.CodeInvalidArgument),
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user_id": user.ID})
}

// CreateFirstAdmin bootstraps the first admin account. Unauthenticated;
// fails once any admin exists.
func (h *UserHandler) CreateFirstAdmin(c *gin.Context) {
	h.LogRequest(c, "Creating first admin")

	var req services.CreateFirstAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(services.CodeInvalidArgument),
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user, err := h.userService.CreateFirstAdmin(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user_id": user.ID})
}

// GetProfile returns the caller's profile, or any profile for admins.
func (h *UserHandler) GetProfile(c *gin.Context) {
	callerID, _ := h.CallerID(c)

	user, err := h.userService.GetProfile(c.Request.Context(), callerID, c.Query("user_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListUsers lists users with optional role/approved filters. Admin only.
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")
	callerID, _ := h.CallerID(c)

	var filters repositories.UserFilters
	if roleStr := c.Query("role"); roleStr != "" {
		role := models.UserRole(roleStr)
		if !role.Valid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   string(services.CodeInvalidArgument),
				Message: "Invalid role filter",
				Details: roleStr,
			})
			return
		}
		filters.Role = &role
	}
	if approvedStr := c.Query("approved"); approvedStr != "" {
		approved, err := strconv.ParseBool(approvedStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   string(services.CodeInvalidArgument),
				Message: "Invalid approved filter",
				Details: approvedStr,
			})
			return
		}
		filters.Approved = &approved
	}

	users, err := h.userService.List(c.Request.Context(), callerID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

type ApproveUserRequest struct {
	Approved *bool `json:"approved"`
}

// ApproveUser sets the approval flag of an account. Admin only.
func (h *UserHandler) ApproveUser(c *gin.Context) {
	userID := c.Param("id")
	h.LogRequest(c, "Updating user approval", "target_user_id", userID)
	callerID, _ := h.CallerID(c)

	var req ApproveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Approved == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(services.CodeInvalidArgument),
			Message: "Field 'approved' is required",
		})
		return
	}

	if err := h.userService.Approve(c.Request.Context(), callerID, userID, *req.Approved); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "User approval updated"})
}

type UpdateUserRoleRequest struct {
	Role models.UserRole `json:"role"`
}

// UpdateUserRole changes an account's role. Admin only.
func (h *UserHandler) UpdateUserRole(c *gin.Context) {
	userID := c.Param("id")
	h.LogRequest(c, "Updating user role", "target_user_id", userID)
	callerID, _ := h.CallerID(c)

	var req UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   string(services.CodeInvalidArgument),
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.userService.UpdateRole(c.Request.Context(), callerID, userID, req.Role); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "User role updated"})
}
