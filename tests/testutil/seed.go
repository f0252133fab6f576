package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/tenancy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func insert(t *testing.T, db *gorm.DB, row any) {
	t.Helper()
	require.NoError(t, db.Omit(clause.Associations).Create(row).Error)
}

// SeedTeam stores a team. The password hash is not a valid bcrypt hash.
func SeedTeam(t *testing.T, db *gorm.DB) *tenancy.Team {
	t.Helper()
	team, err := tenancy.NewTeam("Team "+UniqueName(""), UniqueName("team"), "not-a-hash")
	require.NoError(t, err)
	insert(t, db, team)
	return team
}

// SeedCustomer stores a customer of team
func SeedCustomer(t *testing.T, db *gorm.DB, teamID uuid.UUID) *billing.Customer {
	t.Helper()
	c, err := billing.NewCustomer(billing.CustomerInput{FirstName: "Ada", LastName: "Lovelace"})
	require.NoError(t, err)
	c.TeamID = teamID
	insert(t, db, c)
	return c
}

// SeedAddress stores an address of customer
func SeedAddress(t *testing.T, db *gorm.DB, customerID uuid.UUID) *billing.Address {
	t.Helper()
	a, err := billing.NewAddress(billing.AddressInput{Line: "12 Analytical Row", Zip: "1815", City: "London"})
	require.NoError(t, err)
	a.CustomerID = customerID
	insert(t, db, a)
	return a
}

// SeedInvoice stores a waiting invoice for the customer at address
func SeedInvoice(t *testing.T, db *gorm.DB, teamID, customerID, addressID uuid.UUID) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(billing.InvoiceInput{
		CustomerID: customerID,
		AddressID:  addressID,
		Type:       billing.InvoiceTypeInvoice,
		Status:     billing.InvoiceStatusWaiting,
	})
	require.NoError(t, err)
	inv.TeamID = teamID
	insert(t, db, inv)
	return inv
}

// SeedField stores a line item of invoice
func SeedField(t *testing.T, db *gorm.DB, invoiceID uuid.UUID, price string, vat int) *billing.InvoiceField {
	t.Helper()
	f, err := billing.NewInvoiceField(billing.InvoiceFieldInput{Name: "Consulting", VAT: vat, Price: decimal.RequireFromString(price)})
	require.NoError(t, err)
	f.InvoiceID = invoiceID
	insert(t, db, f)
	return f
}
