package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/moderation-service/internal/events"
	"github.com/SAP-F-2025/moderation-service/internal/models"
	"github.com/SAP-F-2025/moderation-service/internal/repositories"
	"github.com/SAP-F-2025/moderation-service/internal/validator"
)

type assessmentService struct {
	repo        repositories.Repository
	userService UserService
	publisher   events.EventPublisher
	logger      *slog.Logger
	validator   *validator.Validator
}

func NewAssessmentService(repo repositories.Repository, userService UserService, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) AssessmentService {
	return &assessmentService{
		repo:        repo,
		userService: userService,
		publisher:   publisher,
		logger:      logger,
		validator:   v,
	}
}

func (s *assessmentService) Create(ctx context.Context, req *CreateAssessmentRequest, callerID string) (*models.Assessment, error) {
	if callerID == "" {
		return nil, NewUnauthenticatedError()
	}
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.userService.VerifyUserRole(ctx, callerID, models.RoleLecturer, models.RoleAdmin) {
		return nil, NewPermissionError(callerID, "assessment", "create", "approved lecturer or admin required")
	}

	assessment := &models.Assessment{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Type:        req.Type,
		Status:      models.StatusDraft,
		LecturerID:  callerID,
	}
	if err := s.repo.Assessments().Create(ctx, assessment); err != nil {
		return nil, NewInternalError("failed to create assessment", err)
	}

	s.publishAssessmentEvent(ctx, events.TypeAssessmentCreated, events.AssessmentChange{
		AssessmentID: assessment.ID,
		LecturerID:   assessment.LecturerID,
		Status:       assessment.Status,
	})

	s.logger.InfoContext(ctx, "assessment created",
		"assessment_id", assessment.ID,
		"lecturer_id", callerID,
		"title", req.Title)
	return assessment, nil
}

// Moderate writes a moderation decision. Any current status may be
// overwritten and the moderator id follows the last decision; concurrent
// moderations are last-write-wins by design.
func (s *assessmentService) Moderate(ctx context.Context, id string, req *ModerateAssessmentRequest, callerID string) (*models.Assessment, error) {
	if callerID == "" {
		return nil, NewUnauthenticatedError()
	}
	if !req.Status.IsModerationDecision() {
		return nil, NewValidationError("status must be one of approved, rejected, pending_changes")
	}
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	if !s.userService.VerifyUserRole(ctx, callerID, models.RoleModerator, models.RoleAdmin) {
		return nil, NewPermissionError(callerID, "assessment", "moderate", "approved moderator or admin required")
	}

	assessment, err := s.repo.Assessments().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assessment", id)
		}
		return nil, NewInternalError("failed to load assessment", err)
	}

	prevStatus := assessment.Status
	prevModeratorID := assessment.ModeratorID
	now := time.Now().UTC()

	patch := map[string]interface{}{
		"status":       req.Status,
		"moderator_id": callerID,
		"updated_at":   now,
	}
	if req.Feedback != nil {
		patch["feedback"] = *req.Feedback
	}
	if err := s.repo.Assessments().Update(ctx, id, patch); err != nil {
		return nil, NewInternalError("failed to write moderation decision", err)
	}

	assessment.Status = req.Status
	assessment.ModeratorID = &callerID
	if req.Feedback != nil {
		assessment.Feedback = req.Feedback
	}
	assessment.UpdatedAt = now

	s.publishAssessmentEvent(ctx, events.TypeAssessmentUpdated, events.AssessmentChange{
		AssessmentID:    assessment.ID,
		LecturerID:      assessment.LecturerID,
		Status:          assessment.Status,
		ModeratorID:     assessment.ModeratorID,
		PrevStatus:      &prevStatus,
		PrevModeratorID: prevModeratorID,
	})

	s.logger.InfoContext(ctx, "assessment moderated",
		"assessment_id", id,
		"status", req.Status,
		"moderator_id", callerID,
		"previous_status", prevStatus)
	return assessment, nil
}

func (s *assessmentService) GetByID(ctx context.Context, id, callerID string) (*models.Assessment, error) {
	if callerID == "" {
		return nil, NewUnauthenticatedError()
	}

	assessment, err := s.repo.Assessments().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("assessment", id)
		}
		return nil, NewInternalError("failed to load assessment", err)
	}
	return assessment, nil
}

func (s *assessmentService) List(ctx context.Context, filters repositories.AssessmentFilters, callerID string) ([]*models.Assessment, error) {
	if callerID == "" {
		return nil, NewUnauthenticatedError()
	}

	assessments, err := s.repo.Assessments().List(ctx, filters)
	if err != nil {
		return nil, NewInternalError("failed to list assessments", err)
	}
	return assessments, nil
}

func (s *assessmentService) publishAssessmentEvent(ctx context.Context, eventType string, change events.AssessmentChange) {
	event, err := events.NewEvent(eventType, change)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build assessment event", "event_type", eventType, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, events.TopicAssessments, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish assessment event", "event_type", eventType, "error", err)
	}
}
