// Package tenancy implements registration, sessions and the profile of a
// team.
package tenancy

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/tenancy"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Errors returned by the auth service
var (
	ErrInvalidCredentials = shared.NewKindError(shared.KindUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
	ErrUsernameTaken      = shared.NewKindError(shared.KindConflict, "USERNAME_TAKEN", "Username is already registered")
)

// PasswordHasher hashes and verifies team passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify must take as long for an empty hash as for a wrong password
	Verify(hash, password string) bool
}

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Issue(in auth.IssueInput) (string, error)
}

// SessionStore persists sessions
type SessionStore interface {
	tenancy.TokenRepository
	// DeleteExpired removes the expired and revoked sessions of a team
	DeleteExpired(ctx context.Context, teamID uuid.UUID) (int64, error)
}

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	SessionTTL time.Duration
}

// AuthService handles registration, login and logout
type AuthService struct {
	teams    tenancy.TeamRepository
	sessions SessionStore
	hasher   PasswordHasher
	issuer   TokenIssuer
	revoked  auth.RevocationList
	config   AuthServiceConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service. revoked may be nil.
func NewAuthService(
	teams tenancy.TeamRepository,
	sessions SessionStore,
	hasher PasswordHasher,
	issuer TokenIssuer,
	revoked auth.RevocationList,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	if config.SessionTTL <= 0 {
		config.SessionTTL = 7 * 24 * time.Hour
	}
	return &AuthService{
		teams:    teams,
		sessions: sessions,
		hasher:   hasher,
		issuer:   issuer,
		revoked:  revoked,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a team and opens its first session
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*SessionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "teams", "register")
	defer span.End()

	if err := tenancy.ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := tenancy.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	exists, err := s.teams.ExistsByUsername(ctx, in.Username)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	team, err := tenancy.NewTeam(in.Name, in.Username, hash)
	if err != nil {
		return nil, err
	}
	if err := s.teams.Create(ctx, team); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Team registered",
		zap.String("team_id", team.ID.String()),
		zap.String("username", team.Username),
	)
	return s.openSession(ctx, team)
}

// Login verifies credentials and opens a session. Unknown usernames and
// wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*SessionResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "teams", "login")
	defer span.End()

	team, err := s.teams.FindByUsername(ctx, in.Username)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, err)
			return nil, err
		}
		s.hasher.Verify("", in.Password)
		s.logger.Warn("Login attempt for unknown username", zap.String("username", in.Username))
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(team.PasswordHash, in.Password) {
		s.logger.Warn("Login attempt with wrong password", zap.String("team_id", team.ID.String()))
		return nil, ErrInvalidCredentials
	}

	if n, err := s.sessions.DeleteExpired(ctx, team.ID); err != nil {
		s.logger.Warn("Failed to purge stale sessions", zap.String("team_id", team.ID.String()), zap.Error(err))
	} else if n > 0 {
		s.logger.Debug("Purged stale sessions", zap.String("team_id", team.ID.String()), zap.Int64("count", n))
	}

	return s.openSession(ctx, team)
}

// Logout revokes the session the request was authenticated with
func (s *AuthService) Logout(ctx context.Context, session auth.Session) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "teams", "logout", telemetry.Tenant(session.TeamID))
	defer span.End()

	token, err := s.sessions.FindByID(ctx, session.TokenID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if token.TeamID != session.TeamID {
		return shared.ErrForbidden
	}

	token.Revoke()
	if err := s.sessions.Save(ctx, token); err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	if s.revoked != nil {
		if err := s.revoked.Revoke(ctx, token.ID.String(), token.Remaining(s.now())); err != nil {
			// the revoked row still rejects the token
			s.logger.Warn("Failed to add session to the revocation list",
				zap.String("jti", token.ID.String()),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Session revoked",
		zap.String("team_id", session.TeamID.String()),
		zap.String("jti", token.ID.String()),
	)
	return nil
}

func (s *AuthService) openSession(ctx context.Context, team *tenancy.Team) (*SessionResult, error) {
	token, err := tenancy.NewToken(team.ID, s.config.SessionTTL)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, token); err != nil {
		return nil, err
	}

	signed, err := s.issuer.Issue(auth.IssueInput{
		TeamID:    team.ID,
		Username:  team.Username,
		TokenID:   token.ID,
		ExpiresAt: token.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}
	return &SessionResult{Token: signed, ExpiresAt: token.ExpiresAt}, nil
}
