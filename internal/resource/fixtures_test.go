package resource

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

type team struct {
	shared.BaseEntity
	Name string
}

type customer struct {
	shared.BaseEntity
	TeamID uuid.UUID
	Name   string
}

type customerInput struct {
	Name string
}

type customerPatch struct {
	Name *string
}

type address struct {
	shared.BaseEntity
	CustomerID uuid.UUID
	City       string
}

type addressInput struct {
	City string
}

type invoice struct {
	shared.BaseEntity
	TeamID     uuid.UUID
	CustomerID uuid.UUID
	Total      int
}

type invoiceInput struct {
	CustomerID uuid.UUID
	Total      int
}

type invoicePatch struct {
	CustomerID *uuid.UUID
	Total      *int
}

type invoiceView struct {
	ID    uuid.UUID
	Total int
	Gross int
}

// bindValue returns a Binder that copies v into the target payload
func bindValue[T any](v T) Binder {
	return func(obj any) error {
		target, ok := obj.(*T)
		if !ok {
			return errors.New("unexpected payload type")
		}
		*target = v
		return nil
	}
}

func bindFailure(obj any) error {
	return errors.New("malformed json")
}

type fixture struct {
	teams     *memStore[team]
	customers *memStore[customer]
	addresses *memStore[address]
	invoices  *memStore[invoice]

	teamRes     *Descriptor[team]
	customerRes *Descriptor[customer]
	addressRes  *Descriptor[address]
	invoiceRes  *Descriptor[invoice]

	tenantA, tenantB uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		teams: newMemStore(func(e *team, column string) uuid.UUID { return e.ID }),
		customers: newMemStore(func(e *customer, column string) uuid.UUID {
			if column == "team_id" {
				return e.TeamID
			}
			return e.ID
		}),
		addresses: newMemStore(func(e *address, column string) uuid.UUID {
			if column == "customer_id" {
				return e.CustomerID
			}
			return e.ID
		}),
		invoices: newMemStore(func(e *invoice, column string) uuid.UUID {
			if column == "team_id" {
				return e.TeamID
			}
			return e.ID
		}),
	}

	f.teamRes = Define("teams", f.teams, func(in struct{}) (*team, error) {
		return &team{BaseEntity: shared.NewBaseEntity()}, nil
	}).Expose(OpRead | OpUpdate)
	WithPatch(f.teamRes, func(t *team, name string) error {
		t.Name = name
		return nil
	})

	f.customerRes = Define("customers", f.customers, func(in customerInput) (*customer, error) {
		if strings.TrimSpace(in.Name) == "" {
			return nil, shared.NewDomainError("INVALID_CUSTOMER", "name required")
		}
		return &customer{BaseEntity: shared.NewBaseEntity(), Name: in.Name}, nil
	}).ChildOf(Parent[customer]{
		Owner:       f.teamRes,
		TenantOwned: true,
		Column:      "team_id",
		Get:         func(c *customer) uuid.UUID { return c.TeamID },
		Set:         func(c *customer, id uuid.UUID) { c.TeamID = id },
	}).EagerLoad("Addresses").Sortable("name")
	WithPatch(f.customerRes, func(c *customer, p customerPatch) error {
		if p.Name != nil {
			if *p.Name == "" {
				return shared.NewDomainError("INVALID_CUSTOMER", "name required")
			}
			c.Name = *p.Name
		}
		return nil
	})

	f.addressRes = Define("addresses", f.addresses, func(in addressInput) (*address, error) {
		return &address{BaseEntity: shared.NewBaseEntity(), City: in.City}, nil
	}).ChildOf(Parent[address]{
		Owner:  f.customerRes,
		Column: "customer_id",
		Get:    func(a *address) uuid.UUID { return a.CustomerID },
		Set:    func(a *address, id uuid.UUID) { a.CustomerID = id },
	}).Expose(OpList | OpCreate | OpRead | OpDelete)

	f.invoiceRes = Define("invoices", f.invoices, func(in invoiceInput) (*invoice, error) {
		return &invoice{BaseEntity: shared.NewBaseEntity(), CustomerID: in.CustomerID, Total: in.Total}, nil
	}).ChildOf(Parent[invoice]{
		Owner:       f.teamRes,
		TenantOwned: true,
		Column:      "team_id",
		Get:         func(i *invoice) uuid.UUID { return i.TeamID },
		Set:         func(i *invoice, id uuid.UUID) { i.TeamID = id },
	}).References(f.customerRes, func(i *invoice) uuid.UUID { return i.CustomerID })
	WithPatch(f.invoiceRes, func(i *invoice, p invoicePatch) error {
		if p.CustomerID != nil {
			i.CustomerID = *p.CustomerID
		}
		if p.Total != nil {
			i.Total = *p.Total
		}
		return nil
	})
	WithOutput(f.invoiceRes, func(i *invoice) invoiceView {
		return invoiceView{ID: i.ID, Total: i.Total, Gross: i.Total * 2}
	})

	a := team{BaseEntity: shared.NewBaseEntity(), Name: "A"}
	b := team{BaseEntity: shared.NewBaseEntity(), Name: "B"}
	f.teams.rows[a.ID] = a
	f.teams.rows[b.ID] = b
	f.tenantA, f.tenantB = a.ID, b.ID
	return f
}

func (f *fixture) addCustomer(tenant uuid.UUID, name string) customer {
	c := customer{BaseEntity: shared.NewBaseEntity(), TeamID: tenant, Name: name}
	f.customers.rows[c.ID] = c
	return c
}

func (f *fixture) addAddress(customerID uuid.UUID, city string) address {
	a := address{BaseEntity: shared.NewBaseEntity(), CustomerID: customerID, City: city}
	f.addresses.rows[a.ID] = a
	return a
}

func (f *fixture) addInvoice(tenant, customerID uuid.UUID, total int) invoice {
	i := invoice{BaseEntity: shared.NewBaseEntity(), TeamID: tenant, CustomerID: customerID, Total: total}
	f.invoices.rows[i.ID] = i
	return i
}
