package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/moderation-service/internal/config"
	"github.com/SAP-F-2025/moderation-service/internal/models"
	"github.com/SAP-F-2025/moderation-service/internal/services"
)

// CasdoorAuthMiddleware provides authentication using the Casdoor SDK. It
// only establishes the caller identity; role and approval checks are the
// user service's job and run against the user document, not the token.
type CasdoorAuthMiddleware struct {
	client      *casdoorsdk.Client
	userService services.UserService
	config      config.CasdoorConfig
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, userService services.UserService) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return &CasdoorAuthMiddleware{
		client:      client,
		userService: userService,
		config:      cfg,
	}
}

// AuthMiddleware returns a Gin middleware function for Casdoor
// authentication.
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   string(services.CodeUnauthenticated),
				Message: "authorization header missing",
			})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   string(services.CodeUnauthenticated),
				Message: "invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims, err := cam.client.ParseJwtToken(tokenParts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   string(services.CodeUnauthenticated),
				Message: fmt.Sprintf("invalid token: %v", err),
			})
			c.Abort()
			return
		}

		if claims.User.Id == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   string(services.CodeUnauthenticated),
				Message: "token carries no user identity",
			})
			c.Abort()
			return
		}

		c.Set("user_id", claims.User.Id)
		c.Set("user_email", claims.User.Email)

		c.Next()
	}
}

// RequireRoleMiddleware rejects callers that do not hold one of the roles
// (with the approval gate applied). Consults the role authority, which
// fails closed.
func (cam *CasdoorAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   string(services.CodeUnauthenticated),
				Message: "caller identity required",
			})
			c.Abort()
			return
		}

		if !cam.userService.VerifyUserRole(c.Request.Context(), userID, requiredRoles...) {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   string(services.CodePermissionDenied),
				Message: "insufficient role or account not approved",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
