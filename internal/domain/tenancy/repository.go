package tenancy

import (
	"context"

	"github.com/google/uuid"
)

// TeamRepository persists teams
type TeamRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Team, error)
	FindByUsername(ctx context.Context, username string) (*Team, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, team *Team) error
	Save(ctx context.Context, team *Team) error
}

// TokenRepository persists sessions
type TokenRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Token, error)
	Create(ctx context.Context, token *Token) error
	Save(ctx context.Context, token *Token) error
}

// Image is a stored profile picture
type Image struct {
	ContentType string
	Data        []byte
}

// ImageStore keeps team profile images. Keys are opaque to callers.
type ImageStore interface {
	Put(ctx context.Context, teamID uuid.UUID, img Image) (key string, err error)
	Get(ctx context.Context, key string) (*Image, error)
	Delete(ctx context.Context, key string) error
}
