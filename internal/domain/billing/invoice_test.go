package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInvoiceInput() InvoiceInput {
	return InvoiceInput{
		CustomerID: uuid.New(),
		AddressID:  uuid.New(),
		Type:       InvoiceTypeInvoice,
		Status:     InvoiceStatusWaiting,
		Number:     strPtr(" F-2020-001 "),
	}
}

func TestNewInvoice(t *testing.T) {
	inv, err := NewInvoice(validInvoiceInput())
	require.NoError(t, err)
	assert.Equal(t, "F-2020-001", *inv.Number)
	assert.False(t, inv.Deposit.Valid)
	assert.Nil(t, inv.Promotion)

	in := validInvoiceInput()
	in.Type = "receipt"
	_, err = NewInvoice(in)
	assert.Error(t, err)

	in = validInvoiceInput()
	in.Status = "lost"
	_, err = NewInvoice(in)
	assert.Error(t, err)

	in = validInvoiceInput()
	in.AddressID = uuid.Nil
	_, err = NewInvoice(in)
	assert.Error(t, err)
}

func TestInvoice_Apply(t *testing.T) {
	inv, err := NewInvoice(validInvoiceInput())
	require.NoError(t, err)
	customer := inv.CustomerID

	paid := InvoiceStatusPaid
	deposit := decimal.NewFromInt(30)
	require.NoError(t, inv.Apply(InvoiceUpdate{Status: &paid, Deposit: &deposit, Promotion: intPtr(5)}))

	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.Equal(t, customer, inv.CustomerID)
	assert.True(t, inv.Deposit.Valid)
	assert.True(t, inv.Deposit.Decimal.Equal(deposit))
	assert.Equal(t, 5, *inv.Promotion)
	assert.Equal(t, "F-2020-001", *inv.Number)

	bad := InvoiceType("receipt")
	assert.Error(t, inv.Apply(InvoiceUpdate{Type: &bad}))
	assert.Equal(t, InvoiceTypeInvoice, inv.Type)
}

func TestInvoiceField(t *testing.T) {
	f, err := NewInvoiceField(InvoiceFieldInput{Name: " Design ", VAT: 20, Price: decimal.NewFromInt(500)})
	require.NoError(t, err)
	assert.Equal(t, "Design", f.Name)

	vat := 0
	require.NoError(t, f.Apply(InvoiceFieldUpdate{VAT: &vat}))
	assert.Equal(t, 0, f.VAT)
	assert.True(t, f.Price.Equal(decimal.NewFromInt(500)))

	assert.Error(t, f.Apply(InvoiceFieldUpdate{Name: strPtr("")}))

	_, err = NewInvoiceField(InvoiceFieldInput{Name: ""})
	assert.Error(t, err)
}

func TestContract(t *testing.T) {
	c, err := NewContract(ContractInput{
		CustomerID: uuid.New(),
		AddressID:  uuid.New(),
		Serial:     "C-1",
		Status:     ContractStatusOngoing,
	})
	require.NoError(t, err)
	assert.NotNil(t, c.Changes)
	assert.Empty(t, c.Changes)

	changes := []ContractChange{{Date: "2020-09-01", Description: "signed"}}
	canceled := ContractStatusCanceled
	require.NoError(t, c.Apply(ContractUpdate{Changes: &changes, Status: &canceled}))
	assert.Len(t, c.Changes, 1)
	assert.Equal(t, "C-1", c.Serial)
	assert.Equal(t, ContractStatusCanceled, c.Status)

	assert.Error(t, c.Apply(ContractUpdate{Serial: strPtr(" ")}))

	_, err = NewContract(ContractInput{CustomerID: uuid.New(), AddressID: uuid.New(), Status: ContractStatusOngoing})
	assert.Error(t, err)
}
