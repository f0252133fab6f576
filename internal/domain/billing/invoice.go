package billing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/tenancy"
	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes invoices from quotes
type InvoiceType string

const (
	InvoiceTypeInvoice InvoiceType = "invoice"
	InvoiceTypeQuote   InvoiceType = "quote"
)

// IsValid checks if the type is a known value
func (t InvoiceType) IsValid() bool {
	return t == InvoiceTypeInvoice || t == InvoiceTypeQuote
}

// InvoiceStatus is the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPaid     InvoiceStatus = "paid"
	InvoiceStatusWaiting  InvoiceStatus = "waiting"
	InvoiceStatusCanceled InvoiceStatus = "canceled"
)

// IsValid checks if the status is a known value
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPaid, InvoiceStatusWaiting, InvoiceStatusCanceled:
		return true
	}
	return false
}

// Invoice is a bill or quote sent to a customer. Totals are never stored:
// they are derived from Fields on every read.
type Invoice struct {
	shared.BaseEntity
	TeamID         uuid.UUID           `gorm:"type:uuid;not null;index" json:"team_id"`
	CustomerID     uuid.UUID           `gorm:"type:uuid;not null;index" json:"customer_id"`
	AddressID      uuid.UUID           `gorm:"type:uuid;not null" json:"address_id"`
	DueDate        *string             `gorm:"size:10" json:"due_date"`
	Type           InvoiceType         `gorm:"size:20;not null" json:"type"`
	Status         InvoiceStatus       `gorm:"size:20;not null" json:"status"`
	Number         *string             `gorm:"size:50" json:"number"`
	Deposit        decimal.NullDecimal `gorm:"type:decimal(14,4)" json:"deposit"`
	Promotion      *int                `json:"promotion"`
	AdditionalText string              `gorm:"type:text" json:"additional_text"`

	Fields   []InvoiceField `gorm:"foreignKey:InvoiceID" json:"fields"`
	Team     *tenancy.Team  `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Customer *Customer      `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Address  *Address       `gorm:"foreignKey:AddressID" json:"address,omitempty"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceInput is the payload accepted when creating an invoice
type InvoiceInput struct {
	CustomerID     uuid.UUID           `json:"customer_id" binding:"required"`
	AddressID      uuid.UUID           `json:"address_id" binding:"required"`
	DueDate        *string             `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Type           InvoiceType         `json:"type" binding:"required,oneof=invoice quote"`
	Status         InvoiceStatus       `json:"status" binding:"required,oneof=paid waiting canceled"`
	Number         *string             `json:"number" binding:"omitempty,max=50"`
	Deposit        decimal.NullDecimal `json:"deposit"`
	Promotion      *int                `json:"promotion"`
	AdditionalText string              `json:"additional_text" binding:"max=5000"`
}

// InvoiceUpdate is a partial change; nil fields keep their stored value
type InvoiceUpdate struct {
	CustomerID     *uuid.UUID       `json:"customer_id"`
	AddressID      *uuid.UUID       `json:"address_id"`
	DueDate        *string          `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Type           *InvoiceType     `json:"type" binding:"omitempty,oneof=invoice quote"`
	Status         *InvoiceStatus   `json:"status" binding:"omitempty,oneof=paid waiting canceled"`
	Number         *string          `json:"number" binding:"omitempty,max=50"`
	Deposit        *decimal.Decimal `json:"deposit"`
	Promotion      *int             `json:"promotion"`
	AdditionalText *string          `json:"additional_text" binding:"omitempty,max=5000"`
}

// NewInvoice creates an invoice from its creation payload. The owning team
// is assigned by the caller.
func NewInvoice(in InvoiceInput) (*Invoice, error) {
	if in.CustomerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Invoice must reference a customer")
	}
	if in.AddressID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Invoice must reference an address")
	}
	if !in.Type.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Invoice type must be invoice or quote")
	}
	if !in.Status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", "Invoice status must be paid, waiting or canceled")
	}

	return &Invoice{
		BaseEntity:     shared.NewBaseEntity(),
		CustomerID:     in.CustomerID,
		AddressID:      in.AddressID,
		DueDate:        trimmed(in.DueDate),
		Type:           in.Type,
		Status:         in.Status,
		Number:         trimmed(in.Number),
		Deposit:        in.Deposit,
		Promotion:      in.Promotion,
		AdditionalText: in.AdditionalText,
	}, nil
}

// Apply applies the fields present in u
func (i *Invoice) Apply(u InvoiceUpdate) error {
	if u.Type != nil && !u.Type.IsValid() {
		return shared.NewDomainError("INVALID_TYPE", "Invoice type must be invoice or quote")
	}
	if u.Status != nil && !u.Status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Invoice status must be paid, waiting or canceled")
	}
	if u.CustomerID != nil {
		if *u.CustomerID == uuid.Nil {
			return shared.NewDomainError("INVALID_CUSTOMER", "Invoice must reference a customer")
		}
		i.CustomerID = *u.CustomerID
		i.Customer = nil
	}
	if u.AddressID != nil {
		if *u.AddressID == uuid.Nil {
			return shared.NewDomainError("INVALID_ADDRESS", "Invoice must reference an address")
		}
		i.AddressID = *u.AddressID
		i.Address = nil
	}
	if u.DueDate != nil {
		i.DueDate = trimmed(u.DueDate)
	}
	if u.Type != nil {
		i.Type = *u.Type
	}
	if u.Status != nil {
		i.Status = *u.Status
	}
	if u.Number != nil {
		i.Number = trimmed(u.Number)
	}
	if u.Deposit != nil {
		i.Deposit = decimal.NewNullDecimal(*u.Deposit)
	}
	if u.Promotion != nil {
		i.Promotion = u.Promotion
	}
	if u.AdditionalText != nil {
		i.AdditionalText = *u.AdditionalText
	}
	i.Touch()
	return nil
}

// Prices computes the price breakdown from the loaded fields
func (i *Invoice) Prices() Prices {
	return CalculatePrices(i.Fields, i.Promotion, i.Deposit)
}

// InvoiceView is the external representation of an invoice: stored
// attributes, eager-loaded relations, and the computed prices.
type InvoiceView struct {
	Invoice
	Prices Prices `json:"prices"`
}

// View projects the invoice into its external representation
func (i *Invoice) View() InvoiceView {
	view := InvoiceView{Invoice: *i, Prices: i.Prices()}
	if view.Fields == nil {
		view.Fields = []InvoiceField{}
	}
	return view
}

// trimmed normalises optional text: blank values become nil
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
