package models

import (
	"time"
)

type AssessmentStatus string

const (
	StatusDraft          AssessmentStatus = "draft"
	StatusPending        AssessmentStatus = "pending"
	StatusApproved       AssessmentStatus = "approved"
	StatusRejected       AssessmentStatus = "rejected"
	StatusPendingChanges AssessmentStatus = "pending_changes"
	StatusCompleted      AssessmentStatus = "completed"
)

func (s AssessmentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected, StatusPendingChanges, StatusCompleted:
		return true
	}
	return false
}

// IsModerationDecision reports whether the status is one a moderator may
// write. Everything else (including "completed") is out of reach of the
// moderation call.
func (s AssessmentStatus) IsModerationDecision() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusPendingChanges:
		return true
	}
	return false
}

type Assessment struct {
	ID          string           `json:"id" gorm:"primaryKey;size:36"`
	Title       string           `json:"title" gorm:"not null;size:200;index"`
	Description *string          `json:"description" gorm:"type:text"`
	Content     string           `json:"content" gorm:"not null;type:text"`
	Type        string           `json:"type" gorm:"not null;size:50"`
	Status      AssessmentStatus `json:"status" gorm:"not null;default:draft;index"`

	// LecturerID is the owner; ModeratorID is whoever moderated last.
	// Moderation is last-write-wins, so ModeratorID may be overwritten.
	LecturerID  string  `json:"lecturer_id" gorm:"not null;index;size:255"`
	ModeratorID *string `json:"moderator_id" gorm:"index;size:255"`
	Feedback    *string `json:"feedback" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Assessment) TableName() string {
	return "assessments"
}
