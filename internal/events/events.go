package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/moderation-service/internal/models"
)

const (
	Source  = "moderation-service"
	Version = "1.0"
)

// Topics carrying document-change events.
const (
	TopicUsers       = "moderation.users"
	TopicAssessments = "moderation.assessments"
)

// Event types.
const (
	TypeUserCreated       = "user.created"
	TypeUserUpdated       = "user.updated"
	TypeAssessmentCreated = "assessment.created"
	TypeAssessmentUpdated = "assessment.updated"
)

// Event is the envelope published for every document change. Delivery is
// at-least-once and unordered; handlers must tolerate duplicates.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func NewEvent(eventType string, data interface{}) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    Source,
		Version:   Version,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}, nil
}

// DecodeData unmarshals the event payload into dest.
func (e *Event) DecodeData(dest interface{}) error {
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("failed to decode %s event data: %w", e.Type, err)
	}
	return nil
}

// UserChange is the payload of user.* events. Prev fields are nil on
// creation.
type UserChange struct {
	UserID       string           `json:"user_id"`
	Role         models.UserRole  `json:"role"`
	Approved     bool             `json:"approved"`
	PrevRole     *models.UserRole `json:"prev_role,omitempty"`
	PrevApproved *bool            `json:"prev_approved,omitempty"`
}

func (c UserChange) RoleChanged() bool {
	return c.PrevRole != nil && *c.PrevRole != c.Role
}

func (c UserChange) ApprovalChanged() bool {
	return c.PrevApproved != nil && *c.PrevApproved != c.Approved
}

// AssessmentChange is the payload of assessment.* events.
type AssessmentChange struct {
	AssessmentID    string                   `json:"assessment_id"`
	LecturerID      string                   `json:"lecturer_id"`
	Status          models.AssessmentStatus  `json:"status"`
	ModeratorID     *string                  `json:"moderator_id,omitempty"`
	PrevStatus      *models.AssessmentStatus `json:"prev_status,omitempty"`
	PrevModeratorID *string                  `json:"prev_moderator_id,omitempty"`
}

func (c AssessmentChange) StatusChanged() bool {
	return c.PrevStatus != nil && *c.PrevStatus != c.Status
}

func (c AssessmentChange) ModeratorChanged() bool {
	if c.ModeratorID == nil {
		return false
	}
	return c.PrevModeratorID == nil || *c.PrevModeratorID != *c.ModeratorID
}

// EventPublisher publishes document-change events to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Close() error
}
