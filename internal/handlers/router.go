package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/moderation-service/internal/config"
	"github.com/SAP-F-2025/moderation-service/internal/models"
	"github.com/SAP-F-2025/moderation-service/internal/services"
	"github.com/SAP-F-2025/moderation-service/internal/utils"
)

type HandlerManager struct {
	assessmentHandler *AssessmentHandler
	userHandler       *UserHandler
	authMiddleware    *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
) *HandlerManager {
	return &HandlerManager{
		assessmentHandler: NewAssessmentHandler(serviceManager.Assessment(), serviceManager.Report(), logger),
		userHandler:       NewUserHandler(serviceManager.User(), logger),
		authMiddleware:    NewCasdoorAuthMiddleware(casdoorConfig, serviceManager.User()),
	}
}

// SetupRoutes sets up all API routes.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	// Unauthenticated bootstrap and registration endpoints.
	router.POST("/api/v1/auth/register", hm.userHandler.Register)
	router.POST("/api/v1/bootstrap/admin", hm.userHandler.CreateFirstAdmin)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		assessments := v1.Group("/assessments")
		{
			// Submit assessments - approved lecturers and admins; the
			// service enforces the role, the middleware short-circuits.
			assessments.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleLecturer, models.RoleAdmin), hm.assessmentHandler.CreateAssessment)

			// Moderate - approved moderators and admins.
			assessments.POST("/:id/moderate", hm.authMiddleware.RequireRoleMiddleware(models.RoleModerator, models.RoleAdmin), hm.assessmentHandler.ModerateAssessment)

			// View - all authenticated users.
			assessments.GET("", hm.assessmentHandler.ListAssessments)
			assessments.GET("/:id", hm.assessmentHandler.GetAssessment)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/assessments", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.assessmentHandler.ExportAssessments)
		}

		users := v1.Group("/users")
		{
			users.GET("/profile", hm.userHandler.GetProfile)

			// Account administration - admins only.
			users.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.ListUsers)
			users.PUT("/:id/approval", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.ApproveUser)
			users.PUT("/:id/role", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.UpdateUserRole)
		}
	}
}

// HealthCheck endpoint.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "moderation-service",
	})
}
