package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-that-is-at-least-32-characters")

func newTestJWT(at time.Time) *JWTService {
	s := NewJWTService(testSecret, "invoicer-test")
	s.now = func() time.Time { return at }
	return s
}

func issueInput(expires time.Time) IssueInput {
	return IssueInput{
		TeamID:    uuid.New(),
		Username:  "acme",
		TokenID:   uuid.New(),
		ExpiresAt: expires,
	}
}

func TestJWTService_IssueAndParse(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	s := newTestJWT(now)
	in := issueInput(now.Add(time.Hour))

	raw, err := s.Issue(in)
	require.NoError(t, err)

	claims, err := s.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, in.TeamID.String(), claims.TenantID)
	assert.Equal(t, in.TeamID.String(), claims.Subject)
	assert.Equal(t, in.TokenID.String(), claims.ID)
	assert.Equal(t, "acme", claims.Username)
	assert.Equal(t, "invoicer-test", claims.Issuer)
	assert.True(t, claims.ExpiresAtTime().Equal(in.ExpiresAt))

	teamID, err := claims.TenantUUID()
	require.NoError(t, err)
	assert.Equal(t, in.TeamID, teamID)
}

func TestJWTService_Parse_Expired(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	raw, err := newTestJWT(now.Add(-2 * time.Hour)).Issue(issueInput(now.Add(-time.Hour)))
	require.NoError(t, err)

	_, err = newTestJWT(now).Parse(raw)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_Parse_Rejects(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	s := newTestJWT(now)

	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
		t.Helper()
		raw, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return raw
	}
	valid := func() *Claims {
		id := uuid.New().String()
		return &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.New().String(),
				Issuer:    "invoicer-test",
				Subject:   id,
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			TenantID: id,
		}
	}

	tests := []struct {
		name string
		raw  func(t *testing.T) string
		want error
	}{
		{
			name: "garbage",
			raw:  func(*testing.T) string { return "not-a-token" },
			want: ErrInvalidToken,
		},
		{
			name: "wrong secret",
			raw: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte("another-secret"), valid())
			},
			want: ErrInvalidToken,
		},
		{
			name: "wrong algorithm",
			raw: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS512, testSecret, valid())
			},
			want: ErrInvalidToken,
		},
		{
			name: "wrong issuer",
			raw: func(t *testing.T) string {
				c := valid()
				c.Issuer = "someone-else"
				return sign(t, jwt.SigningMethodHS256, testSecret, c)
			},
			want: ErrInvalidToken,
		},
		{
			name: "missing expiry",
			raw: func(t *testing.T) string {
				c := valid()
				c.ExpiresAt = nil
				return sign(t, jwt.SigningMethodHS256, testSecret, c)
			},
			want: ErrInvalidToken,
		},
		{
			name: "subject differs from tenant",
			raw: func(t *testing.T) string {
				c := valid()
				c.Subject = uuid.New().String()
				return sign(t, jwt.SigningMethodHS256, testSecret, c)
			},
			want: ErrInvalidClaims,
		},
		{
			name: "tenant is not a uuid",
			raw: func(t *testing.T) string {
				c := valid()
				c.TenantID = "acme"
				c.Subject = "acme"
				return sign(t, jwt.SigningMethodHS256, testSecret, c)
			},
			want: ErrInvalidClaims,
		},
		{
			name: "jti is not a uuid",
			raw: func(t *testing.T) string {
				c := valid()
				c.ID = "42"
				return sign(t, jwt.SigningMethodHS256, testSecret, c)
			},
			want: ErrInvalidClaims,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Parse(tt.raw(t))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
