package billing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceField is a line item of an invoice. VAT is an integer percentage.
// Neither VAT nor price is bounded.
type InvoiceField struct {
	shared.BaseEntity
	InvoiceID uuid.UUID       `gorm:"type:uuid;not null;index" json:"invoice_id"`
	Name      string          `gorm:"size:500;not null" json:"name"`
	VAT       int             `gorm:"column:vat;not null" json:"vat"`
	Price     decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"price"`
}

// TableName returns the table name for GORM
func (InvoiceField) TableName() string {
	return "invoice_fields"
}

// InvoiceFieldInput is the payload accepted when adding a line item
type InvoiceFieldInput struct {
	Name  string          `json:"name" binding:"required,max=500"`
	VAT   int             `json:"vat"`
	Price decimal.Decimal `json:"price"`
}

// InvoiceFieldUpdate is a partial change; nil fields keep their stored value
type InvoiceFieldUpdate struct {
	Name  *string          `json:"name" binding:"omitempty,max=500"`
	VAT   *int             `json:"vat"`
	Price *decimal.Decimal `json:"price"`
}

// NewInvoiceField creates a line item from its creation payload
func NewInvoiceField(in InvoiceFieldInput) (*InvoiceField, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_FIELD", "Line item name cannot be empty")
	}
	return &InvoiceField{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		VAT:        in.VAT,
		Price:      in.Price,
	}, nil
}

// Apply applies the fields present in u
func (f *InvoiceField) Apply(u InvoiceFieldUpdate) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return shared.NewDomainError("INVALID_FIELD", "Line item name cannot be empty")
		}
		f.Name = name
	}
	if u.VAT != nil {
		f.VAT = *u.VAT
	}
	if u.Price != nil {
		f.Price = *u.Price
	}
	f.Touch()
	return nil
}
