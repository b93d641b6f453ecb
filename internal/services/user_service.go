package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/SAP-F-2025/moderation-service/internal/events"
	"github.com/SAP-F-2025/moderation-service/internal/models"
	"github.com/SAP-F-2025/moderation-service/internal/repositories"
	"github.com/SAP-F-2025/moderation-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	syncer    ClaimsSynchronizer
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, syncer ClaimsSynchronizer, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		syncer:    syncer,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

// ===== ROLE & APPROVAL AUTHORITY =====

// VerifyUserRole fails closed: a missing user, a store error, anything at
// all yields false rather than an error.
func (s *userService) VerifyUserRole(ctx context.Context, userID string, roles ...models.UserRole) bool {
	if userID == "" || len(roles) == 0 {
		return false
	}

	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "role check failed, denying",
			"user_id", userID,
			"error", err)
		return false
	}

	return slices.Contains(roles, user.Role) && user.EffectiveApproved()
}

func (s *userService) IsUserApproved(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}
	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "approval check failed, denying",
			"user_id", userID,
			"error", err)
		return false
	}
	return user.EffectiveApproved()
}

// ===== ACCOUNT OPERATIONS =====

func (s *userService) Register(ctx context.Context, req *RegisterUserRequest) (*models.User, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	role := req.Role
	if role == "" {
		role = models.DefaultRole
	}
	// Self-registration is unauthenticated; an admin account here would
	// skip the bootstrap gate and approve itself. Admins come from the
	// bootstrap endpoint or an admin role change.
	if role == models.RoleAdmin {
		return nil, NewValidationError("admin accounts cannot be self-registered")
	}

	return s.createUser(ctx, req.Email, req.Password, req.DisplayName, role)
}

// CreateFirstAdmin bootstraps the only way to mint an admin without an
// existing one. The admin-exists check and the create below are two separate
// store calls, so two racing bootstrap requests can both pass the check;
// closing that window needs a store-side conditional write, which this layer
// does not use.
func (s *userService) CreateFirstAdmin(ctx context.Context, req *CreateFirstAdminRequest) (*models.User, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	count, err := s.repo.Users().CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, NewInternalError("failed to check for existing admins", err)
	}
	if count > 0 {
		return nil, NewPreconditionError("an admin account already exists")
	}

	return s.createUser(ctx, req.Email, req.Password, req.DisplayName, models.RoleAdmin)
}

func (s *userService) createUser(ctx context.Context, email, password, displayName string, role models.UserRole) (*models.User, error) {
	if existing, err := s.repo.Identity().GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, NewPreconditionError(fmt.Sprintf("email %s is already registered", email))
	} else if err != nil && !repositories.IsNotFoundError(err) {
		return nil, NewInternalError("failed to check identity provider", err)
	}

	identity, err := s.repo.Identity().CreateUser(ctx, email, password, displayName)
	if err != nil {
		return nil, NewInternalError("failed to create identity", err)
	}

	user := &models.User{
		ID:          identity.ID,
		DisplayName: displayName,
		Email:       email,
		Role:        role,
		Approved:    role == models.RoleAdmin, // admin is approved by construction
		Active:      true,
	}
	if err := s.repo.Users().Create(ctx, user); err != nil {
		// The identity-provider check above can miss a racing registration;
		// the unique index on email is the backstop.
		if repositories.IsDuplicateError(err) {
			return nil, NewPreconditionError(fmt.Sprintf("email %s is already registered", email))
		}
		return nil, NewInternalError("failed to create user document", err)
	}

	// Admins get claims immediately; everyone else stays unclaimed until
	// an admin approves them.
	if role == models.RoleAdmin {
		if err := s.syncer.SyncUser(ctx, user); err != nil {
			return nil, NewInternalError("failed to synchronize admin claims", err)
		}
	}

	s.publishUserEvent(ctx, events.TypeUserCreated, events.UserChange{
		UserID:   user.ID,
		Role:     user.Role,
		Approved: user.Approved,
	})

	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID,
		"role", user.Role,
		"approved", user.Approved)
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, callerID, userID string) (*models.User, error) {
	if callerID == "" {
		return nil, NewUnauthenticatedError()
	}

	target := userID
	if target == "" {
		target = callerID
	}
	if target != callerID && !s.VerifyUserRole(ctx, callerID, models.RoleAdmin) {
		return nil, NewPermissionError(callerID, "user", "view", "only admins may view other profiles")
	}

	user, err := s.repo.Users().GetByID(ctx, target)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("user", target)
		}
		return nil, NewInternalError("failed to load user", err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, callerID string, filters repositories.UserFilters) ([]*models.User, error) {
	if callerID == "" {
		return nil, NewUnauthenticatedError()
	}
	if !s.VerifyUserRole(ctx, callerID, models.RoleAdmin) {
		return nil, NewPermissionError(callerID, "users", "list", "admin role required")
	}

	users, err := s.repo.Users().List(ctx, filters)
	if err != nil {
		return nil, NewInternalError("failed to list users", err)
	}
	return users, nil
}

func (s *userService) Approve(ctx context.Context, callerID, userID string, approved bool) error {
	if callerID == "" {
		return NewUnauthenticatedError()
	}
	if !s.VerifyUserRole(ctx, callerID, models.RoleAdmin) {
		return NewPermissionError(callerID, "user", "approve", "admin role required")
	}

	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("user", userID)
		}
		return NewInternalError("failed to load user", err)
	}

	// An admin cannot be un-approved; the role implies approval.
	effective := approved || user.Role == models.RoleAdmin

	prevApproved := user.Approved
	patch := map[string]interface{}{
		"approved":   effective,
		"updated_at": time.Now().UTC(),
	}
	if err := s.repo.Users().Update(ctx, userID, patch); err != nil {
		return NewInternalError("failed to update approval", err)
	}

	user.Approved = effective
	if err := s.syncer.SyncUser(ctx, user); err != nil {
		return NewInternalError("failed to synchronize claims", err)
	}

	s.publishUserEvent(ctx, events.TypeUserUpdated, events.UserChange{
		UserID:       user.ID,
		Role:         user.Role,
		Approved:     user.Approved,
		PrevRole:     &user.Role,
		PrevApproved: &prevApproved,
	})

	s.logger.InfoContext(ctx, "user approval updated",
		"user_id", userID,
		"approved", effective,
		"caller_id", callerID)
	return nil
}

func (s *userService) UpdateRole(ctx context.Context, callerID, userID string, role models.UserRole) error {
	if callerID == "" {
		return NewUnauthenticatedError()
	}
	if !role.Valid() {
		return NewValidationError(fmt.Sprintf("invalid role %q", role))
	}
	if !s.VerifyUserRole(ctx, callerID, models.RoleAdmin) {
		return NewPermissionError(callerID, "user", "change role of", "admin role required")
	}

	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return NewNotFoundError("user", userID)
		}
		return NewInternalError("failed to load user", err)
	}

	prevRole := user.Role
	prevApproved := user.Approved

	approved := user.Approved
	if role == models.RoleAdmin {
		approved = true
	}

	patch := map[string]interface{}{
		"role":       role,
		"approved":   approved,
		"updated_at": time.Now().UTC(),
	}
	if err := s.repo.Users().Update(ctx, userID, patch); err != nil {
		return NewInternalError("failed to update role", err)
	}

	user.Role = role
	user.Approved = approved
	if err := s.syncer.SyncUser(ctx, user); err != nil {
		return NewInternalError("failed to synchronize claims", err)
	}

	s.publishUserEvent(ctx, events.TypeUserUpdated, events.UserChange{
		UserID:       user.ID,
		Role:         user.Role,
		Approved:     user.Approved,
		PrevRole:     &prevRole,
		PrevApproved: &prevApproved,
	})

	s.logger.InfoContext(ctx, "user role updated",
		"user_id", userID,
		"role", role,
		"previous_role", prevRole,
		"caller_id", callerID)
	return nil
}

// publishUserEvent is fire-and-forget: a bus failure is logged, never
// surfaced to the caller.
func (s *userService) publishUserEvent(ctx context.Context, eventType string, change events.UserChange) {
	event, err := events.NewEvent(eventType, change)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build user event", "event_type", eventType, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, events.TopicUsers, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user event", "event_type", eventType, "error", err)
	}
}
