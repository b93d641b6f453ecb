package models

import (
	"time"

	"gorm.io/datatypes"
)

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleModerator UserRole = "moderator"
	RoleLecturer  UserRole = "lecturer"
)

// DefaultRole is assigned at registration when no role is supplied.
const DefaultRole = RoleLecturer

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleLecturer:
		return true
	}
	return false
}

// User is the document-store record for an account. The identity provider
// holds the matching identity (same ID) plus the attached claims; the Claims
// column mirrors those claims for bookkeeping only.
type User struct {
	ID          string   `json:"id" gorm:"primaryKey;size:255"`
	DisplayName string   `json:"display_name" gorm:"not null;size:100"`
	Email       string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Role        UserRole `json:"role" gorm:"not null;size:20;index"`

	// Approved gates every non-admin operation. Admins are approved by
	// construction; see EffectiveApproved.
	Approved bool `json:"approved" gorm:"not null;default:false"`
	Active   bool `json:"active" gorm:"not null;default:true"`

	// Claims mirrors the claims attached to the identity provider. The
	// provider side is authoritative; this column is best-effort.
	Claims datatypes.JSONMap `json:"claims,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// EffectiveApproved reports whether the user passes the approval gate.
// An admin role implies approval regardless of the stored flag, so the
// first admin never needs a second admin to approve it.
func (u *User) EffectiveApproved() bool {
	return u.Approved || u.Role == RoleAdmin
}

// Claims is the flag set attached to an identity-provider session. Exactly
// one role flag is true for a synchronized user.
type Claims struct {
	Admin     bool `json:"admin"`
	Moderator bool `json:"moderator"`
	Lecturer  bool `json:"lecturer"`
	Approved  bool `json:"approved"`
}

// BuildClaims derives the claim set for a role and approval flag. This is
// the single place claims are constructed; every synchronization path goes
// through it.
func BuildClaims(role UserRole, approved bool) Claims {
	return Claims{
		Admin:     role == RoleAdmin,
		Moderator: role == RoleModerator,
		Lecturer:  role == RoleLecturer,
		Approved:  approved || role == RoleAdmin,
	}
}

// Map converts the claims to the JSON column representation stored on the
// user document.
func (c Claims) Map() datatypes.JSONMap {
	return datatypes.JSONMap{
		"admin":     c.Admin,
		"moderator": c.Moderator,
		"lecturer":  c.Lecturer,
		"approved":  c.Approved,
	}
}
