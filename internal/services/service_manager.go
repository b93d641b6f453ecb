package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/moderation-service/internal/events"
	"github.com/SAP-F-2025/moderation-service/internal/repositories"
	"github.com/SAP-F-2025/moderation-service/internal/validator"
)

// serviceManager implements ServiceManager.
type serviceManager struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator

	syncer             ClaimsSynchronizer
	userService        UserService
	assessmentService  AssessmentService
	reportService      ReportService
	propagationService *PropagationService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a service manager with all dependencies.
func NewServiceManager(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) ServiceManager {
	return &serviceManager{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

func (m *serviceManager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return fmt.Errorf("service manager already initialized")
	}

	m.syncer = NewClaimsSynchronizer(m.repo, m.logger)
	m.userService = NewUserService(m.repo, m.syncer, m.publisher, m.logger, m.validator)
	m.assessmentService = NewAssessmentService(m.repo, m.userService, m.publisher, m.logger, m.validator)
	m.reportService = NewReportService(m.repo, m.userService, m.logger)
	m.propagationService = NewPropagationService(m.repo, m.syncer, m.logger)

	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	m.initialized = true
	m.logger.InfoContext(ctx, "services initialized")
	return nil
}

func (m *serviceManager) User() UserService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userService
}

func (m *serviceManager) Assessment() AssessmentService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.assessmentService
}

func (m *serviceManager) Report() ReportService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reportService
}

func (m *serviceManager) Propagation() *PropagationService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.propagationService
}

func (m *serviceManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown {
		return nil
	}
	m.shutdown = true

	if err := m.publisher.Close(); err != nil {
		m.logger.ErrorContext(ctx, "failed to close event publisher", "error", err)
		return err
	}

	m.logger.InfoContext(ctx, "services shut down")
	return nil
}
