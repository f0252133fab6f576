package tenancy

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// Token is a session issued to a team on login. Its ID is the jti of the
// signed token handed to the client.
type Token struct {
	shared.BaseEntity
	TeamID    uuid.UUID `gorm:"type:uuid;not null;index" json:"team_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	IsRevoked bool      `gorm:"not null" json:"is_revoked"`
}

// TableName returns the table name for GORM
func (Token) TableName() string {
	return "tokens"
}

// NewToken creates a session for teamID that expires after ttl
func NewToken(teamID uuid.UUID, ttl time.Duration) (*Token, error) {
	if teamID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TEAM", "Token must belong to a team")
	}
	if ttl <= 0 {
		return nil, shared.NewDomainError("INVALID_TTL", "Token lifetime must be positive")
	}
	base := shared.NewBaseEntity()
	return &Token{
		BaseEntity: base,
		TeamID:     teamID,
		ExpiresAt:  base.CreatedAt.Add(ttl),
	}, nil
}

// IsExpired reports whether the token expired at now
func (t *Token) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// IsValid reports whether the token can still authenticate requests
func (t *Token) IsValid(now time.Time) bool {
	return !t.IsExpired(now) && !t.IsRevoked
}

// Revoke invalidates the token
func (t *Token) Revoke() {
	t.IsRevoked = true
	t.Touch()
}

// Remaining returns how long the token stays valid, zero once expired
func (t *Token) Remaining(now time.Time) time.Duration {
	if t.IsExpired(now) {
		return 0
	}
	return t.ExpiresAt.Sub(now)
}
