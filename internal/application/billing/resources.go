// Package billing declares the billing resources and the dashboard charts.
package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/resource"
)

// Stores holds the persistence of every billing entity
type Stores struct {
	Customers resource.Store[billing.Customer]
	Addresses resource.Store[billing.Address]
	Invoices  resource.Store[billing.Invoice]
	Fields    resource.Store[billing.InvoiceField]
	Contracts resource.Store[billing.Contract]
}

// Resources are the declared billing resources
type Resources struct {
	Customers *resource.Descriptor[billing.Customer]
	Addresses *resource.Descriptor[billing.Address]
	Invoices  *resource.Descriptor[billing.Invoice]
	Fields    *resource.Descriptor[billing.InvoiceField]
	Contracts *resource.Descriptor[billing.Contract]
}

// NewResources declares the billing resources under teams
func NewResources(teams resource.Owner, stores Stores) *Resources {
	r := &Resources{}

	r.Customers = resource.Define("customers", stores.Customers, billing.NewCustomer).
		ChildOf(resource.Parent[billing.Customer]{
			Owner:       teams,
			TenantOwned: true,
			Column:      "team_id",
			Get:         func(c *billing.Customer) uuid.UUID { return c.TeamID },
			Set:         func(c *billing.Customer, id uuid.UUID) { c.TeamID = id },
		}).
		EagerLoad("Addresses", "Contracts", "Invoices", "Invoices.Fields").
		Sortable("first_name", "last_name", "company", "email")
	resource.WithPatch(r.Customers, (*billing.Customer).Apply)
	resource.WithOutput(r.Customers, (*billing.Customer).View)

	r.Addresses = resource.Define("addresses", stores.Addresses, billing.NewAddress).
		ChildOf(resource.Parent[billing.Address]{
			Owner:  r.Customers,
			Column: "customer_id",
			Get:    func(a *billing.Address) uuid.UUID { return a.CustomerID },
			Set:    func(a *billing.Address, id uuid.UUID) { a.CustomerID = id },
		}).
		Sortable("city", "zip").
		Expose(resource.OpList | resource.OpCreate | resource.OpRead | resource.OpDelete)

	r.Invoices = resource.Define("invoices", stores.Invoices, billing.NewInvoice).
		ChildOf(resource.Parent[billing.Invoice]{
			Owner:       teams,
			TenantOwned: true,
			Column:      "team_id",
			Get:         func(i *billing.Invoice) uuid.UUID { return i.TeamID },
			Set:         func(i *billing.Invoice, id uuid.UUID) { i.TeamID = id },
		}).
		References(r.Customers, func(i *billing.Invoice) uuid.UUID { return i.CustomerID }).
		References(r.Addresses, func(i *billing.Invoice) uuid.UUID { return i.AddressID }).
		Check(addressOfCustomer(stores.Addresses, func(i *billing.Invoice) (uuid.UUID, uuid.UUID) {
			return i.CustomerID, i.AddressID
		})).
		EagerLoad("Fields", "Team", "Customer", "Address").
		Sortable("number", "type", "status", "due_date")
	resource.WithPatch(r.Invoices, (*billing.Invoice).Apply)
	resource.WithOutput(r.Invoices, (*billing.Invoice).View)

	r.Fields = resource.Define("invoice_fields", stores.Fields, billing.NewInvoiceField).
		At("fields").
		ChildOf(resource.Parent[billing.InvoiceField]{
			Owner:  r.Invoices,
			Column: "invoice_id",
			Get:    func(f *billing.InvoiceField) uuid.UUID { return f.InvoiceID },
			Set:    func(f *billing.InvoiceField, id uuid.UUID) { f.InvoiceID = id },
		}).
		Sortable("name", "vat", "price")
	resource.WithPatch(r.Fields, (*billing.InvoiceField).Apply)

	r.Contracts = resource.Define("contracts", stores.Contracts, billing.NewContract).
		ChildOf(resource.Parent[billing.Contract]{
			Owner:       teams,
			TenantOwned: true,
			Column:      "team_id",
			Get:         func(c *billing.Contract) uuid.UUID { return c.TeamID },
			Set:         func(c *billing.Contract, id uuid.UUID) { c.TeamID = id },
		}).
		References(r.Customers, func(c *billing.Contract) uuid.UUID { return c.CustomerID }).
		References(r.Addresses, func(c *billing.Contract) uuid.UUID { return c.AddressID }).
		Check(addressOfCustomer(stores.Addresses, func(c *billing.Contract) (uuid.UUID, uuid.UUID) {
			return c.CustomerID, c.AddressID
		})).
		EagerLoad("Customer", "Address").
		Sortable("serial", "type", "status", "date")
	resource.WithPatch(r.Contracts, (*billing.Contract).Apply)

	return r
}

// addressOfCustomer rejects documents addressed to another customer
func addressOfCustomer[E any](addresses resource.Store[billing.Address], ids func(*E) (customer, address uuid.UUID)) func(context.Context, *E) error {
	return func(ctx context.Context, e *E) error {
		customer, address := ids(e)
		a, err := addresses.Find(ctx, address)
		if err != nil {
			return err
		}
		return a.BelongsTo(customer)
	}
}
