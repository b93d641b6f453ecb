package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/moderation-service/internal/models"
	"github.com/SAP-F-2025/moderation-service/internal/repositories"
)

type UserPostgreSQL struct {
	docs *collection[models.User]
}

func NewUserPostgreSQL(db *gorm.DB, logger *slog.Logger) repositories.UserRepository {
	return &UserPostgreSQL{
		docs: newCollection[models.User](db, models.User{}.TableName(), logger),
	}
}

func (r *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.docs.get(ctx, id)
}

func (r *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := r.docs.query(ctx, []repositories.Condition{repositories.Eq("email", email)})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, repositories.NewNotFoundError(models.User{}.TableName(), email)
	}
	return users[0], nil
}

func (r *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	if err := r.docs.create(ctx, user); err != nil {
		if IsDuplicateEmail(err) {
			return repositories.NewDuplicateError(models.User{}.TableName(), "email", user.Email)
		}
		return err
	}
	return nil
}

func (r *UserPostgreSQL) Update(ctx context.Context, id string, patch map[string]interface{}) error {
	return r.docs.update(ctx, id, patch)
}

func (r *UserPostgreSQL) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, error) {
	var conditions []repositories.Condition
	if filters.Role != nil {
		if !filters.Role.Valid() {
			return nil, fmt.Errorf("invalid role filter %q", *filters.Role)
		}
		conditions = append(conditions, repositories.Eq("role", *filters.Role))
	}
	if filters.Approved != nil {
		conditions = append(conditions, repositories.Eq("approved", *filters.Approved))
	}
	return r.docs.query(ctx, conditions)
}

func (r *UserPostgreSQL) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	return r.docs.count(ctx, []repositories.Condition{repositories.Eq("role", role)})
}

// IsDuplicateEmail reports whether the error is the unique-index violation
// on users.email.
func IsDuplicateEmail(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
