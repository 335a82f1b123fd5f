package usecases_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chamado.backend/internal/domain/entities"
	"chamado.backend/internal/domain/repositories"
)

// Mock IdentityStore
type MockIdentityStore struct {
	mock.Mock
}

func (m *MockIdentityStore) Load(ctx context.Context) ([]*entities.UserProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.UserProfile), args.Error(1)
}

func (m *MockIdentityStore) Upsert(ctx context.Context, profile *entities.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockIdentityStore) Filter(ctx context.Context, predicate repositories.ProfilePredicate) ([]*entities.UserProfile, error) {
	args := m.Called(ctx, predicate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if fn, ok := args.Get(0).(func(repositories.ProfilePredicate) []*entities.UserProfile); ok {
		return fn(predicate), args.Error(1)
	}
	return args.Get(0).([]*entities.UserProfile), args.Error(1)
}

func (m *MockIdentityStore) GetByID(ctx context.Context, id string) (*entities.UserProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.UserProfile), args.Error(1)
}

func (m *MockIdentityStore) FindByEmail(ctx context.Context, email string) (*entities.UserProfile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.UserProfile), args.Error(1)
}

func (m *MockIdentityStore) Update(ctx context.Context, id string, mutate func(*entities.UserProfile)) (*entities.UserProfile, error) {
	args := m.Called(ctx, id, mutate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.UserProfile), args.Error(1)
}

// Mock AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Append(ctx context.Context, account *entities.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) List(ctx context.Context) ([]*entities.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*entities.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

// Mock SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Save(ctx context.Context, session *entities.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Get(ctx context.Context, id string) (*entities.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Session), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Session), args.Error(1)
}

// Mock MissionCatalog
type MockMissionCatalog struct {
	mock.Mock
}

func (m *MockMissionCatalog) List(ctx context.Context) ([]*entities.Mission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Mission), args.Error(1)
}

// Mock StatusChanger
type MockStatusChanger struct {
	mock.Mock
}

func (m *MockStatusChanger) SetEnrollmentStatus(ctx context.Context, userID string, status entities.EnrollmentStatus) (*entities.UserProfile, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.UserProfile), args.Error(1)
}

// stubGenerator returns fixed texts and records its inputs.
type stubGenerator struct {
	consent     string
	insights    string
	lastDraft   entities.EnrollmentData
	lastStats   entities.InsightStats
	consentHits int
}

func (g *stubGenerator) GenerateConsentTerm(_ context.Context, draft entities.EnrollmentData) string {
	g.consentHits++
	g.lastDraft = draft
	return g.consent
}

func (g *stubGenerator) GenerateAdminInsights(_ context.Context, stats entities.InsightStats) string {
	g.lastStats = stats
	return g.insights
}
