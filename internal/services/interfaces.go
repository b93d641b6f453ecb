package services

import (
	"context"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/moderation-service/internal/models"
	"github.com/SAP-F-2025/moderation-service/internal/repositories"
)

// ===== REQUEST DTOs =====

type RegisterUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
	// Role defaults to lecturer when empty; admin is rejected here, the
	// bootstrap endpoint and role changes are the only ways to mint one.
	Role models.UserRole `json:"role" validate:"omitempty,user_role"`
}

type CreateFirstAdminRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
}

type CreateAssessmentRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Content     string  `json:"content" validate:"required"`
	Type        string  `json:"type" validate:"required,min=1,max=50"`
}

type ModerateAssessmentRequest struct {
	Status   models.AssessmentStatus `json:"status" validate:"required,moderation_status"`
	Feedback *string                 `json:"feedback" validate:"omitempty,max=2000"`
}

// ===== SERVICE INTERFACES =====

// UserService is the role and approval authority plus the admin-facing
// account operations.
type UserService interface {
	// VerifyUserRole reports whether the user holds one of the roles and
	// passes the approval gate. It fails closed: any lookup error is false.
	VerifyUserRole(ctx context.Context, userID string, roles ...models.UserRole) bool

	// IsUserApproved applies the approval rule without a role check.
	IsUserApproved(ctx context.Context, userID string) bool

	Register(ctx context.Context, req *RegisterUserRequest) (*models.User, error)
	CreateFirstAdmin(ctx context.Context, req *CreateFirstAdminRequest) (*models.User, error)
	GetProfile(ctx context.Context, callerID, userID string) (*models.User, error)
	List(ctx context.Context, callerID string, filters repositories.UserFilters) ([]*models.User, error)
	Approve(ctx context.Context, callerID, userID string, approved bool) error
	UpdateRole(ctx context.Context, callerID, userID string, role models.UserRole) error
}

// ClaimsSynchronizer keeps identity-provider claims consistent with the
// user document's role and approval fields.
type ClaimsSynchronizer interface {
	// Sync loads the user and synchronizes its claims.
	Sync(ctx context.Context, userID string) error

	// SyncUser synchronizes claims for an already-loaded user document.
	SyncUser(ctx context.Context, user *models.User) error
}

// AssessmentService is the moderation workflow over assessments.
type AssessmentService interface {
	Create(ctx context.Context, req *CreateAssessmentRequest, callerID string) (*models.Assessment, error)
	Moderate(ctx context.Context, id string, req *ModerateAssessmentRequest, callerID string) (*models.Assessment, error)
	GetByID(ctx context.Context, id, callerID string) (*models.Assessment, error)
	List(ctx context.Context, filters repositories.AssessmentFilters, callerID string) ([]*models.Assessment, error)
}

// ReportService exports assessment data for admins.
type ReportService interface {
	ExportAssessments(ctx context.Context, callerID string, filters repositories.AssessmentFilters) (*excelize.File, error)
}

// ServiceManager aggregates all services and owns their lifecycle.
type ServiceManager interface {
	User() UserService
	Assessment() AssessmentService
	Report() ReportService
	Propagation() *PropagationService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
