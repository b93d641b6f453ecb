package casdoor

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/moderation-service/internal/cache"
	"github.com/SAP-F-2025/moderation-service/internal/models"
	"github.com/SAP-F-2025/moderation-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection.
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

// IdentityCasdoor implements repositories.IdentityProvider on top of the
// Casdoor SDK, with a redis cache in front of lookups. Claims are written
// into the user's Properties (plus the IsAdmin flag) so that issued tokens
// carry them.
type IdentityCasdoor struct {
	client *casdoorsdk.Client
	config CasdoorConfig
	cache  *cache.CacheHelper
	logger *slog.Logger
}

func NewIdentityCasdoor(config CasdoorConfig, redisClient *redis.Client, logger *slog.Logger) repositories.IdentityProvider {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return &IdentityCasdoor{
		client: client,
		config: config,
		cache:  cache.NewCacheHelper(redisClient, cache.IdentityCacheConfig.Prefix),
		logger: logger,
	}
}

// CreateUser registers a new identity with the provider and returns it.
// No claims are attached here; that is the synchronizer's job.
func (p *IdentityCasdoor) CreateUser(ctx context.Context, email, password, displayName string) (*repositories.Identity, error) {
	user := casdoorsdk.User{
		Owner:       p.config.OrganizationName,
		Name:        nameFromEmail(email),
		Email:       email,
		Password:    password,
		DisplayName: displayName,
	}

	if _, err := p.client.AddUser(&user); err != nil {
		p.logFailure(ctx, "create", email, err)
		return nil, fmt.Errorf("failed to create identity for %s: %w", email, err)
	}

	// Casdoor assigns the id; read the created user back.
	created, err := p.client.GetUserByEmail(email)
	if err != nil || created == nil {
		p.logFailure(ctx, "create-readback", email, err)
		return nil, fmt.Errorf("failed to read back identity for %s: %w", email, err)
	}

	identity := convertCasdoorUser(created)
	p.setIdentityCache(ctx, identity)
	return identity, nil
}

// GetUserByEmail looks up an identity by email, returning a not-found error
// when the provider has no such user.
func (p *IdentityCasdoor) GetUserByEmail(ctx context.Context, email string) (*repositories.Identity, error) {
	cacheKey := fmt.Sprintf("email:%s", email)
	var cached repositories.Identity
	if err := p.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	user, err := p.client.GetUserByEmail(email)
	if err != nil {
		p.logFailure(ctx, "get-by-email", email, err)
		return nil, fmt.Errorf("failed to get identity by email: %w", err)
	}
	if user == nil {
		return nil, repositories.NewNotFoundError("identities", email)
	}

	identity := convertCasdoorUser(user)
	p.setIdentityCache(ctx, identity)
	return identity, nil
}

// AttachClaims writes the claim flags onto the provider-side user. The
// write replaces any previously attached claims.
func (p *IdentityCasdoor) AttachClaims(ctx context.Context, userID string, claims models.Claims) error {
	user, err := p.client.GetUserByUserId(userID)
	if err != nil {
		p.logFailure(ctx, "attach-claims", userID, err)
		return fmt.Errorf("failed to load identity %s: %w", userID, err)
	}
	if user == nil {
		return repositories.NewNotFoundError("identities", userID)
	}

	if user.Properties == nil {
		user.Properties = make(map[string]string)
	}
	user.Properties["claim_admin"] = strconv.FormatBool(claims.Admin)
	user.Properties["claim_moderator"] = strconv.FormatBool(claims.Moderator)
	user.Properties["claim_lecturer"] = strconv.FormatBool(claims.Lecturer)
	user.Properties["claim_approved"] = strconv.FormatBool(claims.Approved)
	user.IsAdmin = claims.Admin

	if _, err := p.client.UpdateUser(user); err != nil {
		p.logFailure(ctx, "attach-claims", userID, err)
		return fmt.Errorf("failed to attach claims to identity %s: %w", userID, err)
	}

	// Stale cached identities are harmless (claims are not cached), but
	// drop them anyway so the next lookup sees the fresh record.
	p.cache.Delete(ctx, fmt.Sprintf("email:%s", user.Email), fmt.Sprintf("id:%s", user.Id))

	return nil
}

func (p *IdentityCasdoor) setIdentityCache(ctx context.Context, identity *repositories.Identity) {
	p.cache.Set(ctx, fmt.Sprintf("email:%s", identity.Email), identity, cache.IdentityCacheConfig.TTL)
	p.cache.Set(ctx, fmt.Sprintf("id:%s", identity.ID), identity, cache.IdentityCacheConfig.TTL)
}

func (p *IdentityCasdoor) logFailure(ctx context.Context, operation, id string, err error) {
	if p.logger == nil {
		return
	}
	p.logger.ErrorContext(ctx, "identity provider operation failed",
		"operation", operation,
		"identity", id,
		"error", err)
}

func convertCasdoorUser(user *casdoorsdk.User) *repositories.Identity {
	return &repositories.Identity{
		ID:          user.Id,
		Name:        user.Name,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
}

// nameFromEmail derives a Casdoor account name from the email local part.
func nameFromEmail(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}
	return local
}
