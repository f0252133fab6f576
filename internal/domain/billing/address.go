package billing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// Address is a postal address of a customer. Addresses are removed with
// their customer but cannot be removed while an invoice or contract uses them.
type Address struct {
	shared.BaseEntity
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	Line       string    `gorm:"size:500;not null" json:"line"`
	Zip        string    `gorm:"size:20;not null" json:"zip"`
	City       string    `gorm:"size:100;not null" json:"city"`
}

// ErrForeignAddress rejects a document whose address belongs to another
// customer than the document's own
var ErrForeignAddress = shared.NewDomainError("ADDRESS_NOT_OF_CUSTOMER", "Address does not belong to the customer")

// BelongsTo returns ErrForeignAddress unless the address is one of customer's
func (a *Address) BelongsTo(customer uuid.UUID) error {
	if a.CustomerID != customer {
		return ErrForeignAddress
	}
	return nil
}

// TableName returns the table name for GORM
func (Address) TableName() string {
	return "addresses"
}

// AddressInput is the payload accepted when creating an address
type AddressInput struct {
	Line string `json:"line" binding:"required,max=500"`
	Zip  string `json:"zip" binding:"required,max=20"`
	City string `json:"city" binding:"required,max=100"`
}

// NewAddress creates an address from its creation payload
func NewAddress(in AddressInput) (*Address, error) {
	a := &Address{
		BaseEntity: shared.NewBaseEntity(),
		Line:       strings.TrimSpace(in.Line),
		Zip:        strings.TrimSpace(in.Zip),
		City:       strings.TrimSpace(in.City),
	}
	switch {
	case a.Line == "":
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Address line cannot be empty")
	case a.Zip == "":
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Zip code cannot be empty")
	case a.City == "":
		return nil, shared.NewDomainError("INVALID_ADDRESS", "City cannot be empty")
	}
	return a, nil
}
