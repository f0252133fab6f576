package tenancy

import "time"

// RegisterInput is the registration payload
type RegisterInput struct {
	Name     string `json:"name" binding:"required,max=200"`
	Username string `json:"username" binding:"required,alphanum,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginInput carries login credentials
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionResult is returned on registration and login
type SessionResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
