package tenancy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/tenancy"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/mock"
)

// MockTeamRepository is a mock implementation of tenancy.TeamRepository
type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.Team), args.Error(1)
}

func (m *MockTeamRepository) FindByUsername(ctx context.Context, username string) (*tenancy.Team, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.Team), args.Error(1)
}

func (m *MockTeamRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockTeamRepository) Create(ctx context.Context, team *tenancy.Team) error {
	return m.Called(ctx, team).Error(0)
}

func (m *MockTeamRepository) Save(ctx context.Context, team *tenancy.Team) error {
	return m.Called(ctx, team).Error(0)
}

// MockSessionStore is a mock implementation of SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Token, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.Token), args.Error(1)
}

func (m *MockSessionStore) Create(ctx context.Context, token *tenancy.Token) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockSessionStore) Save(ctx context.Context, token *tenancy.Token) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockSessionStore) DeleteExpired(ctx context.Context, teamID uuid.UUID) (int64, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).(int64), args.Error(1)
}

// MockTokenIssuer is a mock implementation of TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Issue(in auth.IssueInput) (string, error) {
	args := m.Called(in)
	return args.String(0), args.Error(1)
}

// MockRevocationList is a mock implementation of auth.RevocationList
type MockRevocationList struct {
	mock.Mock
}

func (m *MockRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return m.Called(ctx, jti, ttl).Error(0)
}

func (m *MockRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

// MockImageStore is a mock implementation of tenancy.ImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Put(ctx context.Context, teamID uuid.UUID, img tenancy.Image) (string, error) {
	args := m.Called(ctx, teamID, img)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Get(ctx context.Context, key string) (*tenancy.Image, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenancy.Image), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}
