package tenancy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/tenancy"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	svc      *AuthService
	teams    *MockTeamRepository
	sessions *MockSessionStore
	issuer   *MockTokenIssuer
	revoked  *MockRevocationList
	hasher   *auth.BcryptHasher
	logs     *observer.ObservedLogs
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	f := &authFixture{
		teams:    new(MockTeamRepository),
		sessions: new(MockSessionStore),
		issuer:   new(MockTokenIssuer),
		revoked:  new(MockRevocationList),
		hasher:   auth.NewBcryptHasher(bcrypt.MinCost),
		logs:     logs,
	}
	f.svc = NewAuthService(f.teams, f.sessions, f.hasher, f.issuer, f.revoked,
		AuthServiceConfig{SessionTTL: time.Hour}, zap.New(core))
	return f
}

func (f *authFixture) existingTeam(t *testing.T, password string) *tenancy.Team {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	team, err := tenancy.NewTeam("Acme", "acme", hash)
	require.NoError(t, err)
	return team
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.teams.On("ExistsByUsername", mock.Anything, "acme").Return(false, nil)
	f.teams.On("Create", mock.Anything, mock.MatchedBy(func(team *tenancy.Team) bool {
		return team.Username == "acme" && team.PasswordHash != "" && team.PasswordHash != "password123"
	})).Return(nil)
	f.sessions.On("Create", mock.Anything, mock.AnythingOfType("*tenancy.Token")).Return(nil)
	f.issuer.On("Issue", mock.MatchedBy(func(in auth.IssueInput) bool {
		return in.Username == "acme" && in.TeamID != uuid.Nil && in.TokenID != uuid.Nil
	})).Return("signed-token", nil)

	result, err := f.svc.Register(ctx, RegisterInput{Name: "Acme", Username: "acme", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "signed-token", result.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, time.Minute)

	f.teams.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
	f.issuer.AssertExpectations(t)
}

func TestAuthService_Register_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
		code string
	}{
		{"short password", RegisterInput{Name: "Acme", Username: "acme", Password: "short"}, "INVALID_PASSWORD"},
		{"bad username", RegisterInput{Name: "Acme", Username: "ac me", Password: "password123"}, "INVALID_USERNAME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			_, err := f.svc.Register(context.Background(), tt.in)
			var de *shared.DomainError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.code, de.Code)
			assert.Equal(t, shared.KindBadRequest, de.Kind)
			f.teams.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}

	t.Run("blank name", func(t *testing.T) {
		f := newAuthFixture(t)
		f.teams.On("ExistsByUsername", mock.Anything, "acme").Return(false, nil)
		_, err := f.svc.Register(context.Background(), RegisterInput{Name: "  ", Username: "acme", Password: "password123"})
		assert.Equal(t, shared.KindBadRequest, shared.KindOf(err))
	})
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	t.Run("already registered", func(t *testing.T) {
		f := newAuthFixture(t)
		f.teams.On("ExistsByUsername", mock.Anything, "acme").Return(true, nil)

		_, err := f.svc.Register(context.Background(), RegisterInput{Name: "Acme", Username: "acme", Password: "password123"})
		assert.ErrorIs(t, err, ErrUsernameTaken)
		assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	})

	t.Run("concurrent registration", func(t *testing.T) {
		f := newAuthFixture(t)
		f.teams.On("ExistsByUsername", mock.Anything, "acme").Return(false, nil)
		f.teams.On("Create", mock.Anything, mock.Anything).Return(shared.ErrAlreadyExists)

		_, err := f.svc.Register(context.Background(), RegisterInput{Name: "Acme", Username: "acme", Password: "password123"})
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	team := f.existingTeam(t, "password123")

	f.teams.On("FindByUsername", mock.Anything, "acme").Return(team, nil)
	f.sessions.On("DeleteExpired", mock.Anything, team.ID).Return(int64(2), nil)
	f.sessions.On("Create", mock.Anything, mock.MatchedBy(func(tok *tenancy.Token) bool {
		return tok.TeamID == team.ID && !tok.IsRevoked
	})).Return(nil)
	f.issuer.On("Issue", mock.Anything).Return("signed-token", nil)

	result, err := f.svc.Login(context.Background(), LoginInput{Username: "acme", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "signed-token", result.Token)
	f.sessions.AssertExpectations(t)
	assert.Equal(t, 1, f.logs.FilterMessage("Purged stale sessions").Len())
}

func TestAuthService_Login_PurgeFailureIsNotFatal(t *testing.T) {
	f := newAuthFixture(t)
	team := f.existingTeam(t, "password123")

	f.teams.On("FindByUsername", mock.Anything, "acme").Return(team, nil)
	f.sessions.On("DeleteExpired", mock.Anything, team.ID).Return(int64(0), errors.New("timeout"))
	f.sessions.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.issuer.On("Issue", mock.Anything).Return("signed-token", nil)

	_, err := f.svc.Login(context.Background(), LoginInput{Username: "acme", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, 1, f.logs.FilterMessage("Failed to purge stale sessions").Len())
}

func TestAuthService_Login_Failures(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t)
		f.teams.On("FindByUsername", mock.Anything, "acme").Return(f.existingTeam(t, "password123"), nil)

		_, err := f.svc.Login(context.Background(), LoginInput{Username: "acme", Password: "wrong-password"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown user fails the same way", func(t *testing.T) {
		f := newAuthFixture(t)
		f.teams.On("FindByUsername", mock.Anything, "ghost").Return(nil, shared.ErrNotFound)

		_, err := f.svc.Login(context.Background(), LoginInput{Username: "ghost", Password: "password123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, shared.KindUnauthorized, shared.KindOf(err))
	})

	t.Run("store failure", func(t *testing.T) {
		f := newAuthFixture(t)
		f.teams.On("FindByUsername", mock.Anything, "acme").Return(nil, errors.New("connection refused"))

		_, err := f.svc.Login(context.Background(), LoginInput{Username: "acme", Password: "password123"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	teamID := uuid.New()
	token, err := tenancy.NewToken(teamID, time.Hour)
	require.NoError(t, err)

	f.sessions.On("FindByID", mock.Anything, token.ID).Return(token, nil)
	f.sessions.On("Save", mock.Anything, mock.MatchedBy(func(tok *tenancy.Token) bool { return tok.IsRevoked })).Return(nil)
	f.revoked.On("Revoke", mock.Anything, token.ID.String(), mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 50*time.Minute && ttl <= time.Hour
	})).Return(nil)

	err = f.svc.Logout(context.Background(), auth.Session{TeamID: teamID, TokenID: token.ID})
	require.NoError(t, err)
	f.sessions.AssertExpectations(t)
	f.revoked.AssertExpectations(t)
}

func TestAuthService_Logout_RevocationListDown(t *testing.T) {
	f := newAuthFixture(t)
	teamID := uuid.New()
	token, err := tenancy.NewToken(teamID, time.Hour)
	require.NoError(t, err)

	f.sessions.On("FindByID", mock.Anything, token.ID).Return(token, nil)
	f.sessions.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.revoked.On("Revoke", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	require.NoError(t, f.svc.Logout(context.Background(), auth.Session{TeamID: teamID, TokenID: token.ID}))
	assert.Equal(t, 1, f.logs.FilterMessage("Failed to add session to the revocation list").Len())
}

func TestAuthService_Logout_ForeignSession(t *testing.T) {
	f := newAuthFixture(t)
	token, err := tenancy.NewToken(uuid.New(), time.Hour)
	require.NoError(t, err)
	f.sessions.On("FindByID", mock.Anything, token.ID).Return(token, nil)

	err = f.svc.Logout(context.Background(), auth.Session{TeamID: uuid.New(), TokenID: token.ID})
	assert.ErrorIs(t, err, shared.ErrForbidden)
	f.sessions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
