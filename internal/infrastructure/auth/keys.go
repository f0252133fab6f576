package auth

import (
	"crypto/rand"
	"fmt"

	"github.com/invoicer/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// developmentKey signs tokens outside production when no secret is configured
const developmentKey = "invoicer-development-signing-key-do-not-use"

// SigningKey returns the HS256 key for session tokens. A configured secret
// always wins. Without one, development uses a fixed key and production a
// random key that lives as long as the process.
func SigningKey(cfg config.JWTConfig, app config.AppConfig, log *zap.Logger) ([]byte, error) {
	if cfg.Secret != "" {
		return []byte(cfg.Secret), nil
	}
	if !app.IsProduction() {
		log.Warn("jwt.secret is not set, using the development signing key")
		return []byte(developmentKey), nil
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	log.Warn("jwt.secret is not set, generated a random signing key; " +
		"sessions issued before a restart will be rejected")
	return key, nil
}
