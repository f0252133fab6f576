package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
)

// ChartsService builds the dashboard of a team
type ChartsService struct {
	source billing.ChartsSource
	now    func() time.Time
}

// NewChartsService creates a new charts service
func NewChartsService(source billing.ChartsSource) *ChartsService {
	return &ChartsService{source: source, now: time.Now}
}

// Charts aggregates the invoices and customers of teamID
func (s *ChartsService) Charts(ctx context.Context, teamID uuid.UUID) (*billing.Charts, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "charts", "build", telemetry.Tenant(teamID))
	defer span.End()

	invoices, err := s.source.InvoicesWithFields(ctx, teamID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	customers, err := s.source.CountCustomers(ctx, teamID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	charts := billing.BuildCharts(s.now(), invoices, customers)
	return &charts, nil
}
