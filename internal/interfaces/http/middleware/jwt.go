package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/metrics"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// AuthHeaderKey is the header carrying the session token
	AuthHeaderKey = "Authorization"
	// BearerPrefix precedes the token in the header
	BearerPrefix = "Bearer "
	// SessionKey stores the authenticated session in the gin context
	SessionKey = "jwt_session"
)

// Authenticator decides the state of a presented session token
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (auth.Session, auth.TokenState, error)
}

// JWTMiddlewareConfig configures the session middleware
type JWTMiddlewareConfig struct {
	Guard Authenticator
	// SkipPaths are full route paths served without a session
	SkipPaths []string
	Logger    *zap.Logger
	Metrics   *metrics.Registry
	// OnError replaces the default rejection response
	OnError func(c *gin.Context, state auth.TokenState)
}

// JWTAuth rejects requests without a valid session token and stores the
// session of accepted ones
func JWTAuth(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	onError := cfg.OnError
	if onError == nil {
		onError = rejectToken
	}

	return func(c *gin.Context) {
		if skip[c.FullPath()] || skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		session, state, err := cfg.Guard.Authenticate(c.Request.Context(), bearerToken(c))
		if err != nil {
			log.Error("Failed to authenticate session", zap.Error(err))
			abort(c, http.StatusInternalServerError, dto.ErrCodeInternal, "Internal server error")
			return
		}
		if state != auth.StateValid {
			if cfg.Metrics != nil {
				cfg.Metrics.TokenRejected(state.String())
			}
			logger.GetGinLogger(c).Debug("Session token rejected", zap.String("state", state.String()))
			onError(c, state)
			return
		}

		tenant := session.TeamID.String()
		c.Set(logger.GinTenantIDKey, tenant)
		c.Set(SessionKey, session)
		ctx := logger.WithTenantID(c.Request.Context(), tenant)
		ctx = logger.WithContext(ctx, logger.GetGinLogger(c).With(zap.String("tenant_id", tenant)))
		c.Request = c.Request.WithContext(ctx)
		trace.SpanFromContext(ctx).SetAttributes(telemetry.Tenant(session.TeamID))

		c.Next()
	}
}

// bearerToken returns the token of the Authorization header, empty when
// the header is missing or uses another scheme
func bearerToken(c *gin.Context) string {
	header := c.GetHeader(AuthHeaderKey)
	if len(header) < len(BearerPrefix) || !strings.EqualFold(header[:len(BearerPrefix)], BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(BearerPrefix):])
}

func rejectToken(c *gin.Context, state auth.TokenState) {
	abort(c, http.StatusUnauthorized, state.Code(), state.Message())
}

// GetSession returns the authenticated session
func GetSession(c *gin.Context) (auth.Session, bool) {
	if v, ok := c.Get(SessionKey); ok {
		if s, ok := v.(auth.Session); ok {
			return s, true
		}
	}
	return auth.Session{}, false
}

// GetTenantID returns the authenticated tenant, uuid.Nil without one
func GetTenantID(c *gin.Context) uuid.UUID {
	if s, ok := GetSession(c); ok {
		return s.TeamID
	}
	id, err := uuid.Parse(c.GetString(logger.GinTenantIDKey))
	if err != nil {
		return uuid.Nil
	}
	return id
}
