package billing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// Customer is a client of a team. At least one of LastName and Company is
// always set so the customer can be addressed on documents.
type Customer struct {
	shared.BaseEntity
	TeamID    uuid.UUID `gorm:"type:uuid;not null;index" json:"team_id"`
	FirstName string    `gorm:"size:100" json:"first_name"`
	LastName  string    `gorm:"size:100" json:"last_name"`
	Company   string    `gorm:"size:200" json:"company"`
	Phone     string    `gorm:"size:50" json:"phone"`
	Email     string    `gorm:"size:200" json:"email"`

	Addresses []Address  `gorm:"foreignKey:CustomerID" json:"addresses,omitempty"`
	Invoices  []Invoice  `gorm:"foreignKey:CustomerID" json:"invoices,omitempty"`
	Contracts []Contract `gorm:"foreignKey:CustomerID" json:"contracts,omitempty"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// CustomerInput is the payload accepted when creating a customer
type CustomerInput struct {
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Company   string `json:"company" binding:"max=200"`
	Phone     string `json:"phone" binding:"max=50"`
	Email     string `json:"email" binding:"omitempty,email,max=200"`
}

// CustomerUpdate is a partial change; nil fields keep their stored value
type CustomerUpdate struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name" binding:"omitempty,max=100"`
	Company   *string `json:"company" binding:"omitempty,max=200"`
	Phone     *string `json:"phone" binding:"omitempty,max=50"`
	Email     *string `json:"email" binding:"omitempty,email,max=200"`
}

// NewCustomer creates a customer from its creation payload
func NewCustomer(in CustomerInput) (*Customer, error) {
	c := &Customer{
		BaseEntity: shared.NewBaseEntity(),
		FirstName:  strings.TrimSpace(in.FirstName),
		LastName:   strings.TrimSpace(in.LastName),
		Company:    strings.TrimSpace(in.Company),
		Phone:      strings.TrimSpace(in.Phone),
		Email:      strings.TrimSpace(in.Email),
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply applies the fields present in u and re-checks the naming invariant.
// The customer is left unchanged when the result would be invalid.
func (c *Customer) Apply(u CustomerUpdate) error {
	next := *c
	if u.FirstName != nil {
		next.FirstName = strings.TrimSpace(*u.FirstName)
	}
	if u.LastName != nil {
		next.LastName = strings.TrimSpace(*u.LastName)
	}
	if u.Company != nil {
		next.Company = strings.TrimSpace(*u.Company)
	}
	if u.Phone != nil {
		next.Phone = strings.TrimSpace(*u.Phone)
	}
	if u.Email != nil {
		next.Email = strings.TrimSpace(*u.Email)
	}
	if err := next.validate(); err != nil {
		return err
	}
	next.Touch()
	*c = next
	return nil
}

// DisplayName returns the name printed on documents
func (c *Customer) DisplayName() string {
	if c.Company != "" {
		return c.Company
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c *Customer) validate() error {
	if c.LastName == "" && c.Company == "" {
		return shared.NewDomainError("INVALID_CUSTOMER", "Either last name or company is required")
	}
	return nil
}

// CustomerView is the external representation of a customer. Its invoices
// carry their computed prices.
type CustomerView struct {
	Customer
	Invoices []InvoiceView `json:"invoices,omitempty"`
}

// View projects the customer with its eager-loaded relations
func (c *Customer) View() CustomerView {
	view := CustomerView{Customer: *c}
	view.Customer.Invoices = nil
	if len(c.Invoices) > 0 {
		view.Invoices = make([]InvoiceView, 0, len(c.Invoices))
		for i := range c.Invoices {
			view.Invoices = append(view.Invoices, c.Invoices[i].View())
		}
	}
	return view
}
