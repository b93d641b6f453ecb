package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/SAP-F-2025/moderation-service/internal/events"
	"github.com/SAP-F-2025/moderation-service/internal/models"
)

func newTestPropagationService(repo *MockRepository) *PropagationService {
	logger := testLogger()
	return NewPropagationService(repo, NewClaimsSynchronizer(repo, logger), logger)
}

func eventMessage(t *testing.T, eventType string, data interface{}) *message.Message {
	t.Helper()
	event, err := events.NewEvent(eventType, data)
	if err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return message.NewMessage(event.ID, payload)
}

func TestPropagationService_HandleUserChange(t *testing.T) {
	t.Run("role change re-synchronizes claims", func(t *testing.T) {
		repo := NewMockRepository()
		// The document already carries the new role; the event only
		// signals that it changed.
		repo.seedUser(&models.User{ID: "u-1", Email: "u1@uni.edu", Role: models.RoleModerator, Approved: true, Active: true})
		svc := newTestPropagationService(repo)

		prevRole := models.RoleLecturer
		msg := eventMessage(t, events.TypeUserUpdated, events.UserChange{
			UserID:   "u-1",
			Role:     models.RoleModerator,
			Approved: true,
			PrevRole: &prevRole,
		})
		if err := svc.HandleUserChange(msg); err != nil {
			t.Fatalf("HandleUserChange failed: %v", err)
		}

		claims, ok := repo.identity.attachedClaims("u-1")
		if !ok {
			t.Fatal("claims should be re-attached after a role change")
		}
		if !claims.Moderator || claims.Lecturer {
			t.Errorf("unexpected claims after role change: %+v", claims)
		}

		// The mirror write must not look like another role change.
		patches := repo.users.recordedPatches()
		if len(patches) != 1 {
			t.Fatalf("expected 1 mirror patch, got %d", len(patches))
		}
		if _, ok := patches[0]["role"]; ok {
			t.Error("mirror patch must not carry the role field")
		}
	})

	t.Run("no role change leaves claims alone", func(t *testing.T) {
		repo := NewMockRepository()
		repo.seedUser(&models.User{ID: "u-1", Email: "u1@uni.edu", Role: models.RoleLecturer, Approved: true, Active: true})
		svc := newTestPropagationService(repo)

		sameRole := models.RoleLecturer
		msg := eventMessage(t, events.TypeUserUpdated, events.UserChange{
			UserID:   "u-1",
			Role:     models.RoleLecturer,
			Approved: true,
			PrevRole: &sameRole,
		})
		if err := svc.HandleUserChange(msg); err != nil {
			t.Fatalf("HandleUserChange failed: %v", err)
		}
		if repo.identity.attachedCount() != 0 {
			t.Error("claims must not be touched when the role did not change")
		}
	})

	t.Run("creation event does not attach claims", func(t *testing.T) {
		repo := NewMockRepository()
		svc := newTestPropagationService(repo)

		msg := eventMessage(t, events.TypeUserCreated, events.UserChange{
			UserID: "u-1",
			Role:   models.RoleLecturer,
		})
		if err := svc.HandleUserChange(msg); err != nil {
			t.Fatalf("HandleUserChange failed: %v", err)
		}
		if repo.identity.attachedCount() != 0 {
			t.Error("creation events must not attach claims")
		}
	})

	t.Run("malformed payload is acknowledged", func(t *testing.T) {
		repo := NewMockRepository()
		svc := newTestPropagationService(repo)

		msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
		if err := svc.HandleUserChange(msg); err != nil {
			t.Fatalf("malformed payload must not be retried, got %v", err)
		}
	})

	t.Run("sync failure is swallowed", func(t *testing.T) {
		repo := NewMockRepository()
		repo.seedUser(&models.User{ID: "u-1", Email: "u1@uni.edu", Role: models.RoleModerator, Approved: true, Active: true})
		repo.identity.attachErr = errors.New("provider unavailable")
		svc := newTestPropagationService(repo)

		prevRole := models.RoleLecturer
		msg := eventMessage(t, events.TypeUserUpdated, events.UserChange{
			UserID:   "u-1",
			Role:     models.RoleModerator,
			Approved: true,
			PrevRole: &prevRole,
		})
		if err := svc.HandleUserChange(msg); err != nil {
			t.Fatalf("a failed re-sync must still acknowledge the event, got %v", err)
		}
	})
}

func TestPropagationService_HandleAssessmentChange(t *testing.T) {
	t.Run("status change with missing users is acknowledged", func(t *testing.T) {
		repo := NewMockRepository()
		svc := newTestPropagationService(repo)

		prevStatus := models.StatusPending
		moderatorID := "mod-1"
		msg := eventMessage(t, events.TypeAssessmentUpdated, events.AssessmentChange{
			AssessmentID: "a-1",
			LecturerID:   "ghost-lecturer",
			Status:       models.StatusApproved,
			ModeratorID:  &moderatorID,
			PrevStatus:   &prevStatus,
		})
		if err := svc.HandleAssessmentChange(msg); err != nil {
			t.Fatalf("HandleAssessmentChange failed: %v", err)
		}
	})

	t.Run("creation event is acknowledged", func(t *testing.T) {
		repo := NewMockRepository()
		repo.seedUser(&models.User{ID: "lect-1", Email: "lect@uni.edu", DisplayName: "Ana Lima", Role: models.RoleLecturer, Approved: true, Active: true})
		svc := newTestPropagationService(repo)

		msg := eventMessage(t, events.TypeAssessmentCreated, events.AssessmentChange{
			AssessmentID: "a-1",
			LecturerID:   "lect-1",
			Status:       models.StatusDraft,
		})
		if err := svc.HandleAssessmentChange(msg); err != nil {
			t.Fatalf("HandleAssessmentChange failed: %v", err)
		}
	})

	t.Run("malformed payload is acknowledged", func(t *testing.T) {
		repo := NewMockRepository()
		svc := newTestPropagationService(repo)

		msg := message.NewMessage(watermill.NewUUID(), []byte("{"))
		if err := svc.HandleAssessmentChange(msg); err != nil {
			t.Fatalf("malformed payload must not be retried, got %v", err)
		}
	})
}

// End-to-end over the in-process bus: publish a role change, the router
// delivers it, the handler re-synchronizes claims.
func TestPropagationService_OverGoChannelBus(t *testing.T) {
	repo := NewMockRepository()
	repo.seedUser(&models.User{ID: "u-1", Email: "u1@uni.edu", Role: models.RoleModerator, Approved: true, Active: true})
	svc := newTestPropagationService(repo)

	bus := events.NewGoChannelBus(watermill.NopLogger{})
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("failed to create router: %v", err)
	}
	svc.RegisterHandlers(router, bus)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go func() {
		if err := router.Run(ctx); err != nil {
			t.Logf("router stopped: %v", err)
		}
	}()
	<-router.Running()
	defer router.Close()

	publisher := events.NewPublisher(bus, nil, testLogger())
	prevRole := models.RoleLecturer
	event, err := events.NewEvent(events.TypeUserUpdated, events.UserChange{
		UserID:   "u-1",
		Role:     models.RoleModerator,
		Approved: true,
		PrevRole: &prevRole,
	})
	if err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	if err := publisher.Publish(ctx, events.TopicUsers, event); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-deadline:
			t.Fatal("claims were not re-synchronized through the bus")
		case <-ticker.C:
			if claims, ok := repo.identity.attachedClaims("u-1"); ok {
				if !claims.Moderator {
					t.Fatalf("unexpected claims: %+v", claims)
				}
				return
			}
		}
	}
}
