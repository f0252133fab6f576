package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Errors returned while parsing session tokens
var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Claims are the claims of a session token. The JWT ID names the stored
// session row.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
	Username string `json:"username"`
}

// TenantUUID returns the team the token was issued to
func (c *Claims) TenantUUID() (uuid.UUID, error) {
	return uuid.Parse(c.TenantID)
}

// TokenUUID returns the id of the stored session
func (c *Claims) TokenUUID() (uuid.UUID, error) {
	return uuid.Parse(c.ID)
}

// ExpiresAtTime returns the expiry of the token
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// IssueInput describes the session a token is signed for
type IssueInput struct {
	TeamID    uuid.UUID
	Username  string
	TokenID   uuid.UUID
	ExpiresAt time.Time
}

// JWTService signs and parses HS256 session tokens
type JWTService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTService creates a JWT service signing with secret
func NewJWTService(secret []byte, issuer string) *JWTService {
	return &JWTService{
		secret: secret,
		issuer: issuer,
		now:    time.Now,
	}
}

// Issue signs a token for a stored session
func (s *JWTService) Issue(in IssueInput) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        in.TokenID.String(),
			Issuer:    s.issuer,
			Subject:   in.TeamID.String(),
			ExpiresAt: jwt.NewNumericDate(in.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		TenantID: in.TeamID.String(),
		Username: in.Username,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies a token and returns its claims. An expired token yields
// ErrExpiredToken; every other failure is ErrInvalidToken or ErrInvalidClaims.
func (s *JWTService) Parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.TenantUUID(); err != nil {
		return nil, ErrInvalidClaims
	}
	if claims.Subject != claims.TenantID {
		return nil, ErrInvalidClaims
	}
	if _, err := claims.TokenUUID(); err != nil {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
