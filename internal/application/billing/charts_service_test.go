package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChartsSource is a mock implementation of billing.ChartsSource
type MockChartsSource struct {
	mock.Mock
}

func (m *MockChartsSource) InvoicesWithFields(ctx context.Context, teamID uuid.UUID) ([]billing.Invoice, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockChartsSource) CountCustomers(ctx context.Context, teamID uuid.UUID) (int64, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).(int64), args.Error(1)
}

func TestChartsService_Charts(t *testing.T) {
	source := new(MockChartsSource)
	svc := NewChartsService(source)
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	teamID := uuid.New()

	invoices := []billing.Invoice{
		{Type: billing.InvoiceTypeInvoice, Status: billing.InvoiceStatusWaiting},
		{Type: billing.InvoiceTypeInvoice, Status: billing.InvoiceStatusWaiting},
	}
	source.On("InvoicesWithFields", mock.Anything, teamID).Return(invoices, nil)
	source.On("CountCustomers", mock.Anything, teamID).Return(int64(3), nil)

	charts, err := svc.Charts(context.Background(), teamID)
	require.NoError(t, err)

	want := billing.BuildCharts(now, invoices, 3)
	assert.Equal(t, want, *charts)
	source.AssertExpectations(t)
}

func TestChartsService_SourceErrors(t *testing.T) {
	teamID := uuid.New()

	t.Run("invoices", func(t *testing.T) {
		source := new(MockChartsSource)
		source.On("InvoicesWithFields", mock.Anything, teamID).Return(nil, errors.New("db down"))

		_, err := NewChartsService(source).Charts(context.Background(), teamID)
		require.Error(t, err)
		source.AssertNotCalled(t, "CountCustomers", mock.Anything, mock.Anything)
	})

	t.Run("customers", func(t *testing.T) {
		source := new(MockChartsSource)
		source.On("InvoicesWithFields", mock.Anything, teamID).Return([]billing.Invoice{}, nil)
		source.On("CountCustomers", mock.Anything, teamID).Return(int64(0), errors.New("db down"))

		_, err := NewChartsService(source).Charts(context.Background(), teamID)
		require.Error(t, err)
	})
}
