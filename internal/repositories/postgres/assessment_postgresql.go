package postgres

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/moderation-service/internal/models"
	"github.com/SAP-F-2025/moderation-service/internal/repositories"
)

type AssessmentPostgreSQL struct {
	docs *collection[models.Assessment]
}

func NewAssessmentPostgreSQL(db *gorm.DB, logger *slog.Logger) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{
		docs: newCollection[models.Assessment](db, models.Assessment{}.TableName(), logger),
	}
}

func (r *AssessmentPostgreSQL) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	return r.docs.get(ctx, id)
}

func (r *AssessmentPostgreSQL) Create(ctx context.Context, assessment *models.Assessment) error {
	return r.docs.create(ctx, assessment)
}

func (r *AssessmentPostgreSQL) Update(ctx context.Context, id string, patch map[string]interface{}) error {
	return r.docs.update(ctx, id, patch)
}

func (r *AssessmentPostgreSQL) Delete(ctx context.Context, id string) error {
	return r.docs.remove(ctx, id)
}

func (r *AssessmentPostgreSQL) List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, error) {
	var conditions []repositories.Condition
	if filters.Status != nil {
		conditions = append(conditions, repositories.Eq("status", *filters.Status))
	}
	if filters.LecturerID != nil {
		conditions = append(conditions, repositories.Eq("lecturer_id", *filters.LecturerID))
	}
	if filters.ModeratorID != nil {
		conditions = append(conditions, repositories.Eq("moderator_id", *filters.ModeratorID))
	}
	return r.docs.query(ctx, conditions)
}
