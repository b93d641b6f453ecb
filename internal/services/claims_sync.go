package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/moderation-service/internal/models"
	"github.com/SAP-F-2025/moderation-service/internal/repositories"
)

// claimsSynchronizer is the single place claims reach the identity provider.
// Every mutation path that touches role or approval runs through it, and it
// is idempotent, so at-least-once trigger delivery is safe.
type claimsSynchronizer struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewClaimsSynchronizer(repo repositories.Repository, logger *slog.Logger) ClaimsSynchronizer {
	return &claimsSynchronizer{repo: repo, logger: logger}
}

func (s *claimsSynchronizer) Sync(ctx context.Context, userID string) error {
	user, err := s.repo.Users().GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user for claims sync: %w", err)
	}
	return s.SyncUser(ctx, user)
}

// SyncUser attaches claims to the identity provider first, then persists
// the document mirror. The ordering matters: if the mirror write fails, the
// provider-side claims (what active sessions see) are already correct and
// the mirror is only stale bookkeeping.
//
// The mirror write deliberately omits the role field so a user-update
// trigger observing this write sees no role change and does not fire the
// synchronizer again.
func (s *claimsSynchronizer) SyncUser(ctx context.Context, user *models.User) error {
	claims := models.BuildClaims(user.Role, user.Approved)

	if err := s.repo.Identity().AttachClaims(ctx, user.ID, claims); err != nil {
		s.logger.ErrorContext(ctx, "failed to attach claims",
			"user_id", user.ID,
			"role", user.Role,
			"error", err)
		return fmt.Errorf("failed to attach claims for user %s: %w", user.ID, err)
	}

	patch := map[string]interface{}{
		"claims":     claims.Map(),
		"updated_at": time.Now().UTC(),
	}
	if err := s.repo.Users().Update(ctx, user.ID, patch); err != nil {
		s.logger.ErrorContext(ctx, "claims attached but mirror write failed",
			"user_id", user.ID,
			"error", err)
		return fmt.Errorf("failed to persist claims mirror for user %s: %w", user.ID, err)
	}

	s.logger.InfoContext(ctx, "claims synchronized",
		"user_id", user.ID,
		"role", user.Role,
		"approved", claims.Approved)
	return nil
}
