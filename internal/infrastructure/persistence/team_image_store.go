package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/tenancy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// teamImage is the row of a database stored profile image
type teamImage struct {
	TeamID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	ContentType string    `gorm:"size:100;not null"`
	Data        []byte    `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (teamImage) TableName() string {
	return "team_images"
}

// DBImageStore keeps one profile image per team in the database. The key of
// an image is the id of its team.
type DBImageStore struct {
	db *gorm.DB
}

// NewDBImageStore creates a new DBImageStore
func NewDBImageStore(db *gorm.DB) *DBImageStore {
	return &DBImageStore{db: db}
}

var _ tenancy.ImageStore = (*DBImageStore)(nil)

// Put stores or replaces the image of a team
func (s *DBImageStore) Put(ctx context.Context, teamID uuid.UUID, img tenancy.Image) (string, error) {
	row := teamImage{
		TeamID:      teamID,
		ContentType: img.ContentType,
		Data:        img.Data,
		UpdatedAt:   time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "team_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content_type", "data", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return "", TranslateError(err)
	}
	return teamID.String(), nil
}

// Get loads the image stored under key
func (s *DBImageStore) Get(ctx context.Context, key string) (*tenancy.Image, error) {
	teamID, err := uuid.Parse(key)
	if err != nil {
		return nil, shared.ErrNotFound
	}
	var row teamImage
	if err := s.db.WithContext(ctx).Where("team_id = ?", teamID).Take(&row).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &tenancy.Image{ContentType: row.ContentType, Data: row.Data}, nil
}

// Delete removes the image stored under key
func (s *DBImageStore) Delete(ctx context.Context, key string) error {
	teamID, err := uuid.Parse(key)
	if err != nil {
		return fmt.Errorf("invalid image key %q: %w", key, shared.ErrInvalidInput)
	}
	return TranslateError(s.db.WithContext(ctx).Where("team_id = ?", teamID).Delete(&teamImage{}).Error)
}
