package tenancy

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/tenancy"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"github.com/invoicer/backend/internal/resource"
	"go.uber.org/zap"
)

// Errors returned by the profile service
var (
	ErrUnsupportedImage = shared.NewDomainError("UNSUPPORTED_IMAGE", "Image must be a PNG, JPEG, GIF or WebP file")
	ErrEmptyImage       = shared.NewDomainError("EMPTY_IMAGE", "Image is empty")
	ErrNoImage          = shared.ErrNotFound.WithMessage("Team has no profile image")
)

var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// NewTeamResource declares the team as a resource. A team is its own
// tenant: only its profile can be read and patched.
func NewTeamResource(store resource.Store[tenancy.Team]) *resource.Descriptor[tenancy.Team] {
	d := resource.Define("teams", store, func(struct{}) (*tenancy.Team, error) {
		return nil, resource.ErrUnsupported
	})
	d = resource.WithPatch(d, func(t *tenancy.Team, u tenancy.ProfileUpdate) error {
		return t.ApplyProfile(u)
	})
	d = resource.WithOutput(d, func(t *tenancy.Team) tenancy.Profile {
		return t.ToProfile()
	})
	return d.Expose(resource.OpRead | resource.OpUpdate)
}

// ProfileService handles the profile image of a team
type ProfileService struct {
	teams  tenancy.TeamRepository
	images tenancy.ImageStore
	logger *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(teams tenancy.TeamRepository, images tenancy.ImageStore, logger *zap.Logger) *ProfileService {
	return &ProfileService{teams: teams, images: images, logger: logger}
}

// UploadImage stores data as the profile image of the team. The content
// type is sniffed from the data, not taken from the client.
func (s *ProfileService) UploadImage(ctx context.Context, teamID uuid.UUID, data []byte) (*tenancy.Profile, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "teams", "upload_image", telemetry.Tenant(teamID))
	defer span.End()

	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	contentType := http.DetectContentType(data)
	if !imageTypes[contentType] {
		return nil, ErrUnsupportedImage
	}

	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}

	key, err := s.images.Put(ctx, team.ID, tenancy.Image{ContentType: contentType, Data: data})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	previous := team.ImageKey
	team.SetImage(key)
	if err := s.teams.Save(ctx, team); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if previous != "" && previous != key {
		if err := s.images.Delete(ctx, previous); err != nil {
			s.logger.Warn("Failed to delete replaced profile image",
				zap.String("team_id", team.ID.String()),
				zap.String("key", previous),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Profile image stored",
		zap.String("team_id", team.ID.String()),
		zap.String("content_type", contentType),
		zap.Int("size", len(data)),
	)
	profile := team.ToProfile()
	return &profile, nil
}

// Image returns the profile image of any team. Images are public.
func (s *ProfileService) Image(ctx context.Context, teamID uuid.UUID) (*tenancy.Image, error) {
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !team.HasImage() {
		return nil, ErrNoImage
	}

	img, err := s.images.Get(ctx, team.ImageKey)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrNoImage
		}
		return nil, err
	}
	return img, nil
}
