package services

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/moderation-service/internal/models"
	"github.com/SAP-F-2025/moderation-service/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// callLog records store and identity operations in order, shared by all
// mocks of one MockRepository so tests can assert write ordering.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// MockUserRepository is an in-memory UserRepository with injectable errors.
type MockUserRepository struct {
	mu        sync.Mutex
	users     map[string]*models.User
	patches   []map[string]interface{}
	getErr    error
	createErr error
	updateErr error
	log       *callLog
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	user, ok := m.users[id]
	if !ok {
		return nil, repositories.NewNotFoundError("users", id)
	}
	clone := *user
	return &clone, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, user := range m.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repositories.NewNotFoundError("users", email)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	clone := *user
	m.users[user.ID] = &clone
	m.log.record("users.create " + user.ID)
	return nil
}

func (m *MockUserRepository) Update(ctx context.Context, id string, patch map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	user, ok := m.users[id]
	if !ok {
		return repositories.NewNotFoundError("users", id)
	}
	for field, value := range patch {
		switch field {
		case "role":
			user.Role = value.(models.UserRole)
		case "approved":
			user.Approved = value.(bool)
		case "active":
			user.Active = value.(bool)
		case "claims":
			user.Claims = value.(datatypes.JSONMap)
		case "updated_at":
			user.UpdatedAt = value.(time.Time)
		}
	}
	m.patches = append(m.patches, patch)
	m.log.record("users.update " + id)
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []*models.User
	for _, user := range m.users {
		if filters.Role != nil && user.Role != *filters.Role {
			continue
		}
		if filters.Approved != nil && user.Approved != *filters.Approved {
			continue
		}
		clone := *user
		out = append(out, &clone)
	}
	return out, nil
}

func (m *MockUserRepository) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return 0, m.getErr
	}
	var count int64
	for _, user := range m.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func (m *MockUserRepository) recordedPatches() []map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]map[string]interface{}(nil), m.patches...)
}

func (m *MockUserRepository) stored(id string) (*models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, false
	}
	clone := *user
	return &clone, true
}

// MockAssessmentRepository is an in-memory AssessmentRepository.
type MockAssessmentRepository struct {
	mu          sync.Mutex
	assessments map[string]*models.Assessment
	getErr      error
	updateErr   error
	log         *callLog
}

func (m *MockAssessmentRepository) GetByID(ctx context.Context, id string) (*models.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	assessment, ok := m.assessments[id]
	if !ok {
		return nil, repositories.NewNotFoundError("assessments", id)
	}
	clone := *assessment
	return &clone, nil
}

func (m *MockAssessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *assessment
	m.assessments[assessment.ID] = &clone
	m.log.record("assessments.create " + assessment.ID)
	return nil
}

func (m *MockAssessmentRepository) Update(ctx context.Context, id string, patch map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	assessment, ok := m.assessments[id]
	if !ok {
		return repositories.NewNotFoundError("assessments", id)
	}
	for field, value := range patch {
		switch field {
		case "status":
			assessment.Status = value.(models.AssessmentStatus)
		case "moderator_id":
			moderatorID := value.(string)
			assessment.ModeratorID = &moderatorID
		case "feedback":
			feedback := value.(string)
			assessment.Feedback = &feedback
		case "updated_at":
			assessment.UpdatedAt = value.(time.Time)
		}
	}
	m.log.record("assessments.update " + id)
	return nil
}

func (m *MockAssessmentRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assessments[id]; !ok {
		return repositories.NewNotFoundError("assessments", id)
	}
	delete(m.assessments, id)
	return nil
}

func (m *MockAssessmentRepository) List(ctx context.Context, filters repositories.AssessmentFilters) ([]*models.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []*models.Assessment
	for _, assessment := range m.assessments {
		if filters.Status != nil && assessment.Status != *filters.Status {
			continue
		}
		if filters.LecturerID != nil && assessment.LecturerID != *filters.LecturerID {
			continue
		}
		if filters.ModeratorID != nil && (assessment.ModeratorID == nil || *assessment.ModeratorID != *filters.ModeratorID) {
			continue
		}
		clone := *assessment
		out = append(out, &clone)
	}
	return out, nil
}

func (m *MockAssessmentRepository) stored(id string) (*models.Assessment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	assessment, ok := m.assessments[id]
	if !ok {
		return nil, false
	}
	clone := *assessment
	return &clone, true
}

// MockIdentityProvider is an in-memory identity provider keyed by email.
type MockIdentityProvider struct {
	mu         sync.Mutex
	identities map[string]*repositories.Identity
	attached   map[string]models.Claims
	createErr  error
	attachErr  error
	log        *callLog
}

func (m *MockIdentityProvider) CreateUser(ctx context.Context, email, password, displayName string) (*repositories.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	name, _, _ := strings.Cut(email, "@")
	identity := &repositories.Identity{
		ID:          "cas-" + name,
		Name:        name,
		Email:       email,
		DisplayName: displayName,
	}
	m.identities[email] = identity
	clone := *identity
	return &clone, nil
}

func (m *MockIdentityProvider) GetUserByEmail(ctx context.Context, email string) (*repositories.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identity, ok := m.identities[email]
	if !ok {
		return nil, repositories.NewNotFoundError("identities", email)
	}
	clone := *identity
	return &clone, nil
}

func (m *MockIdentityProvider) AttachClaims(ctx context.Context, userID string, claims models.Claims) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attachErr != nil {
		return m.attachErr
	}
	m.attached[userID] = claims
	m.log.record("identity.attach " + userID)
	return nil
}

func (m *MockIdentityProvider) attachedClaims(userID string) (models.Claims, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	claims, ok := m.attached[userID]
	return claims, ok
}

func (m *MockIdentityProvider) attachedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attached)
}

// MockRepository aggregates the in-memory mocks behind the Repository
// interface.
type MockRepository struct {
	users       *MockUserRepository
	assessments *MockAssessmentRepository
	identity    *MockIdentityProvider
	log         *callLog
}

func NewMockRepository() *MockRepository {
	log := &callLog{}
	return &MockRepository{
		users:       &MockUserRepository{users: map[string]*models.User{}, log: log},
		assessments: &MockAssessmentRepository{assessments: map[string]*models.Assessment{}, log: log},
		identity:    &MockIdentityProvider{identities: map[string]*repositories.Identity{}, attached: map[string]models.Claims{}, log: log},
		log:         log,
	}
}

func (m *MockRepository) Users() repositories.UserRepository             { return m.users }
func (m *MockRepository) Assessments() repositories.AssessmentRepository { return m.assessments }
func (m *MockRepository) Identity() repositories.IdentityProvider        { return m.identity }
func (m *MockRepository) Ping(ctx context.Context) error                 { return nil }
func (m *MockRepository) Close() error                                   { return nil }

func (m *MockRepository) seedUser(user *models.User) {
	m.users.mu.Lock()
	defer m.users.mu.Unlock()
	clone := *user
	m.users.users[user.ID] = &clone
}

func (m *MockRepository) seedAssessment(assessment *models.Assessment) {
	m.assessments.mu.Lock()
	defer m.assessments.mu.Unlock()
	clone := *assessment
	m.assessments.assessments[assessment.ID] = &clone
}
