package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/tenancy"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTeamRepository implements tenancy.TeamRepository using GORM
type GormTeamRepository struct {
	*GormStore[tenancy.Team]
	db *gorm.DB
}

// NewGormTeamRepository creates a new GormTeamRepository
func NewGormTeamRepository(db *gorm.DB) *GormTeamRepository {
	return &GormTeamRepository{GormStore: NewGormStore[tenancy.Team](db), db: db}
}

var _ tenancy.TeamRepository = (*GormTeamRepository)(nil)

// FindByID finds a team by its ID
func (r *GormTeamRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Team, error) {
	return r.Find(ctx, id)
}

// FindByUsername finds a team by its login name
func (r *GormTeamRepository) FindByUsername(ctx context.Context, username string) (*tenancy.Team, error) {
	var team tenancy.Team
	if err := r.db.WithContext(ctx).Where("username = ?", username).Take(&team).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &team, nil
}

// ExistsByUsername checks if a login name is taken
func (r *GormTeamRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&tenancy.Team{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, TranslateError(err)
	}
	return count > 0, nil
}

// GormTokenRepository implements tenancy.TokenRepository using GORM
type GormTokenRepository struct {
	db *gorm.DB
}

// NewGormTokenRepository creates a new GormTokenRepository
func NewGormTokenRepository(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

var _ tenancy.TokenRepository = (*GormTokenRepository)(nil)

// FindByID finds a session by its ID
func (r *GormTokenRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Token, error) {
	var token tenancy.Token
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&token).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &token, nil
}

// Create stores a new session
func (r *GormTokenRepository) Create(ctx context.Context, token *tenancy.Token) error {
	return TranslateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(token).Error)
}

// Save updates a session
func (r *GormTokenRepository) Save(ctx context.Context, token *tenancy.Token) error {
	return TranslateError(r.db.WithContext(ctx).Omit(clause.Associations).Save(token).Error)
}

// DeleteExpired removes the expired and revoked sessions of a team and
// returns how many were removed
func (r *GormTokenRepository) DeleteExpired(ctx context.Context, teamID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("team_id = ? AND (expires_at < ? OR is_revoked = ?)", teamID, r.db.NowFunc(), true).
		Delete(&tenancy.Token{})
	return result.RowsAffected, TranslateError(result.Error)
}
