package repositories

import "context"

// Repository aggregates the data-access surface of the service: the two
// document collections plus the external identity provider.
type Repository interface {
	Users() UserRepository
	Assessments() AssessmentRepository
	Identity() IdentityProvider

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager manages repository lifecycle.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
