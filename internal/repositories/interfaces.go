package repositories

import (
	"context"

	"github.com/SAP-F-2025/moderation-service/internal/models"
)

// ===== DOCUMENT QUERY CONDITIONS =====

// Condition is a single field comparison; a query ANDs all of its
// conditions. Operator is one of =, !=, >, >=, <, <=.
type Condition struct {
	Field    string
	Operator string
	Value    interface{}
}

func Eq(field string, value interface{}) Condition {
	return Condition{Field: field, Operator: "=", Value: value}
}

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Role     *models.UserRole `json:"role"`
	Approved *bool            `json:"approved"`
}

type AssessmentFilters struct {
	Status      *models.AssessmentStatus `json:"status"`
	LecturerID  *string                  `json:"lecturer_id"`
	ModeratorID *string                  `json:"moderator_id"`
}

// ===== COLLECTION REPOSITORIES =====

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// Update patches the named fields only; fails with a not-found error
	// when the document is absent.
	Update(ctx context.Context, id string, patch map[string]interface{}) error
	List(ctx context.Context, filters UserFilters) ([]*models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
}

type AssessmentRepository interface {
	GetByID(ctx context.Context, id string) (*models.Assessment, error)
	Create(ctx context.Context, assessment *models.Assessment) error
	Update(ctx context.Context, id string, patch map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters AssessmentFilters) ([]*models.Assessment, error)
}

// ===== IDENTITY PROVIDER =====

// Identity is the provider-side view of an account.
type Identity struct {
	ID          string
	Name        string
	Email       string
	DisplayName string
}

// IdentityProvider is the consumed slice of the external identity service.
// Claims attached here are what active sessions see; the document store
// only mirrors them.
type IdentityProvider interface {
	CreateUser(ctx context.Context, email, password, displayName string) (*Identity, error)
	GetUserByEmail(ctx context.Context, email string) (*Identity, error)
	AttachClaims(ctx context.Context, userID string, claims models.Claims) error
}
