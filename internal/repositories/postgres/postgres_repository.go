package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/moderation-service/internal/repositories"
	"github.com/SAP-F-2025/moderation-service/internal/repositories/casdoor"
)

// PostgreSQLRepository implements the main Repository interface.
type PostgreSQLRepository struct {
	db          *gorm.DB
	redisClient *redis.Client

	user       repositories.UserRepository
	assessment repositories.AssessmentRepository
	identity   repositories.IdentityProvider
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	DB            *gorm.DB
	RedisClient   *redis.Client
	Logger        *slog.Logger
	CasdoorConfig casdoor.CasdoorConfig
}

// NewPostgreSQLRepository creates a repository aggregate with all
// sub-repositories wired.
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	repo := &PostgreSQLRepository{
		db:          config.DB,
		redisClient: config.RedisClient,
	}

	repo.user = NewUserPostgreSQL(config.DB, config.Logger)
	repo.assessment = NewAssessmentPostgreSQL(config.DB, config.Logger)

	// Identity lives in Casdoor, fronted by the redis cache.
	repo.identity = casdoor.NewIdentityCasdoor(config.CasdoorConfig, config.RedisClient, config.Logger)

	return repo
}

func (r *PostgreSQLRepository) Users() repositories.UserRepository {
	return r.user
}

func (r *PostgreSQLRepository) Assessments() repositories.AssessmentRepository {
	return r.assessment
}

func (r *PostgreSQLRepository) Identity() repositories.IdentityProvider {
	return r.identity
}

// Ping checks the health of database and cache connections.
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
	}
	return nil
}

func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// repositoryManager implements repositories.RepositoryManager.
type repositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &repositoryManager{config: config}
}

func (m *repositoryManager) Initialize() error {
	if m.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}
	m.repo = NewPostgreSQLRepository(m.config)
	return nil
}

func (m *repositoryManager) GetRepository() repositories.Repository {
	return m.repo
}

func (m *repositoryManager) HealthCheck(ctx context.Context) error {
	if m.repo == nil {
		return fmt.Errorf("repositories not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.repo.Ping(ctx)
}

func (m *repositoryManager) Shutdown(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	return m.repo.Close()
}
