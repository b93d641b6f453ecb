package services

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/SAP-F-2025/moderation-service/internal/events"
	"github.com/SAP-F-2025/moderation-service/internal/models"
	"github.com/SAP-F-2025/moderation-service/internal/repositories"
)

// PropagationService reacts to document-change events. Delivery is
// at-least-once and unordered; every handler is idempotent and swallows its
// own failures — a trigger must never fail the mutation that caused it,
// and nothing here is retried.
type PropagationService struct {
	repo   repositories.Repository
	syncer ClaimsSynchronizer
	logger *slog.Logger
}

func NewPropagationService(repo repositories.Repository, syncer ClaimsSynchronizer, logger *slog.Logger) *PropagationService {
	return &PropagationService{
		repo:   repo,
		syncer: syncer,
		logger: logger,
	}
}

// RegisterHandlers attaches the propagation handlers to the router.
func (s *PropagationService) RegisterHandlers(router *message.Router, subscriber message.Subscriber) {
	router.AddNoPublisherHandler(
		"user-change-propagation",
		events.TopicUsers,
		subscriber,
		s.HandleUserChange,
	)
	router.AddNoPublisherHandler(
		"assessment-change-propagation",
		events.TopicAssessments,
		subscriber,
		s.HandleAssessmentChange,
	)
}

// HandleUserChange re-runs the claims synchronizer when a role changed. The
// synchronizer writes only the claims mirror and timestamp, so its write is
// not observed as another role change and the handler cannot loop.
func (s *PropagationService) HandleUserChange(msg *message.Message) error {
	ctx := msg.Context()

	event, err := events.DecodeMessage(msg)
	if err != nil {
		s.logger.ErrorContext(ctx, "dropping malformed user event", "message_id", msg.UUID, "error", err)
		return nil
	}

	var change events.UserChange
	if err := event.DecodeData(&change); err != nil {
		s.logger.ErrorContext(ctx, "dropping user event with bad payload", "event_id", event.ID, "error", err)
		return nil
	}

	switch event.Type {
	case events.TypeUserCreated:
		// Admin claims were attached synchronously at creation; any other
		// role stays unclaimed until approved.
		s.logger.InfoContext(ctx, "user created",
			"user_id", change.UserID,
			"role", change.Role,
			"approved", change.Approved)

	case events.TypeUserUpdated:
		if change.RoleChanged() {
			if err := s.syncer.Sync(ctx, change.UserID); err != nil {
				s.logger.ErrorContext(ctx, "claims re-sync failed",
					"user_id", change.UserID,
					"role", change.Role,
					"error", err)
			}
		}
	}

	return nil
}

// HandleAssessmentChange records moderation activity for notification
// purposes. User lookups are best-effort; a failed lookup is logged and the
// event is still acknowledged.
func (s *PropagationService) HandleAssessmentChange(msg *message.Message) error {
	ctx := msg.Context()

	event, err := events.DecodeMessage(msg)
	if err != nil {
		s.logger.ErrorContext(ctx, "dropping malformed assessment event", "message_id", msg.UUID, "error", err)
		return nil
	}

	var change events.AssessmentChange
	if err := event.DecodeData(&change); err != nil {
		s.logger.ErrorContext(ctx, "dropping assessment event with bad payload", "event_id", event.ID, "error", err)
		return nil
	}

	switch event.Type {
	case events.TypeAssessmentCreated:
		lecturer := s.lookupUser(ctx, change.LecturerID)
		s.logger.InfoContext(ctx, "assessment submitted",
			"assessment_id", change.AssessmentID,
			"lecturer_id", change.LecturerID,
			"lecturer_name", displayName(lecturer))

	case events.TypeAssessmentUpdated:
		if !change.StatusChanged() {
			return nil
		}
		lecturer := s.lookupUser(ctx, change.LecturerID)
		fields := []any{
			"assessment_id", change.AssessmentID,
			"status", change.Status,
			"lecturer_id", change.LecturerID,
			"lecturer_name", displayName(lecturer),
		}
		if change.ModeratorChanged() {
			moderator := s.lookupUser(ctx, *change.ModeratorID)
			fields = append(fields,
				"moderator_id", *change.ModeratorID,
				"moderator_name", displayName(moderator))
		}
		s.logger.InfoContext(ctx, "assessment moderated", fields...)
	}

	return nil
}

func (s *PropagationService) lookupUser(ctx context.Context, id string) *models.User {
	user, err := s.repo.Users().GetByID(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "notification lookup failed",
			"user_id", id,
			"error", err)
		return nil
	}
	return user
}

func displayName(user *models.User) string {
	if user == nil {
		return "unknown"
	}
	return user.DisplayName
}
