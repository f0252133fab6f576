package billing

import (
	"context"

	"github.com/google/uuid"
)

// ChartsSource reads the data the dashboard charts are built from
type ChartsSource interface {
	// InvoicesWithFields returns every invoice of the team with its line items
	InvoicesWithFields(ctx context.Context, teamID uuid.UUID) ([]Invoice, error)
	// CountCustomers returns the number of customers owned by the team
	CountCustomers(ctx context.Context, teamID uuid.UUID) (int64, error)
}
