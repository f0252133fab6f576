package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/billing"
)

// GormChartsSource reads dashboard data with GORM
type GormChartsSource struct {
	db *Database
}

// NewGormChartsSource creates a new GormChartsSource
func NewGormChartsSource(db *Database) *GormChartsSource {
	return &GormChartsSource{db: db}
}

var _ billing.ChartsSource = (*GormChartsSource)(nil)

// InvoicesWithFields returns every invoice of the team with its line items
func (s *GormChartsSource) InvoicesWithFields(ctx context.Context, teamID uuid.UUID) ([]billing.Invoice, error) {
	var invoices []billing.Invoice
	err := s.db.WithTeam(ctx, teamID).
		Preload("Fields").
		Order("created_at").
		Find(&invoices).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return invoices, nil
}

// CountCustomers returns the number of customers owned by the team
func (s *GormChartsSource) CountCustomers(ctx context.Context, teamID uuid.UUID) (int64, error) {
	var count int64
	if err := s.db.WithTeam(ctx, teamID).Model(&billing.Customer{}).Count(&count).Error; err != nil {
		return 0, TranslateError(err)
	}
	return count, nil
}
