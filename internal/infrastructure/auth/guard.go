package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/tenancy"
	"go.uber.org/zap"
)

// TokenState is the outcome of checking a presented session token
type TokenState int

const (
	StateUnauthenticated TokenState = iota
	StateValid
	StateExpired
	StateRevoked
	StateMalformed
)

// String returns the state name
func (s TokenState) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateExpired:
		return "expired"
	case StateRevoked:
		return "revoked"
	case StateMalformed:
		return "malformed"
	default:
		return "unauthenticated"
	}
}

// Code returns the error code reported for a rejected state
func (s TokenState) Code() string {
	switch s {
	case StateValid:
		return ""
	case StateExpired:
		return "ERR_TOKEN_EXPIRED"
	case StateRevoked:
		return "ERR_TOKEN_REVOKED"
	case StateMalformed:
		return "ERR_TOKEN_INVALID"
	default:
		return "ERR_UNAUTHORIZED"
	}
}

// Message returns the client message for a rejected state
func (s TokenState) Message() string {
	switch s {
	case StateExpired:
		return "Token has expired"
	case StateRevoked:
		return "Token has been revoked"
	case StateMalformed:
		return "Invalid token"
	default:
		return "Authentication required"
	}
}

// Session is an authenticated caller
type Session struct {
	TeamID    uuid.UUID
	TokenID   uuid.UUID
	Username  string
	ExpiresAt time.Time
}

// Guard decides the state of presented session tokens
type Guard struct {
	jwt     *JWTService
	tokens  tenancy.TokenRepository
	revoked RevocationList
	log     *zap.Logger
	now     func() time.Time
}

// NewGuard creates a guard. revoked may be nil, the tokens table is
// consulted on every request either way.
func NewGuard(jwt *JWTService, tokens tenancy.TokenRepository, revoked RevocationList, log *zap.Logger) *Guard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Guard{
		jwt:     jwt,
		tokens:  tokens,
		revoked: revoked,
		log:     log,
		now:     time.Now,
	}
}

// Authenticate checks raw and returns the session when it is valid. The
// error is only set when the state could not be decided.
func (g *Guard) Authenticate(ctx context.Context, raw string) (Session, TokenState, error) {
	if raw == "" {
		return Session{}, StateUnauthenticated, nil
	}

	claims, err := g.jwt.Parse(raw)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return Session{}, StateExpired, nil
		}
		return Session{}, StateMalformed, nil
	}
	teamID, _ := claims.TenantUUID()
	tokenID, _ := claims.TokenUUID()

	if g.revoked != nil {
		revoked, err := g.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			g.log.Warn("Revocation list unavailable, falling back to the tokens table",
				zap.String("jti", claims.ID),
				zap.Error(err),
			)
		} else if revoked {
			return Session{}, StateRevoked, nil
		}
	}

	row, err := g.tokens.FindByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Session{}, StateRevoked, nil
		}
		return Session{}, StateUnauthenticated, fmt.Errorf("load session: %w", err)
	}
	if row.TeamID != teamID {
		return Session{}, StateMalformed, nil
	}
	now := g.now()
	if row.IsRevoked {
		return Session{}, StateRevoked, nil
	}
	if row.IsExpired(now) {
		return Session{}, StateExpired, nil
	}

	return Session{
		TeamID:    teamID,
		TokenID:   tokenID,
		Username:  claims.Username,
		ExpiresAt: row.ExpiresAt,
	}, StateValid, nil
}
