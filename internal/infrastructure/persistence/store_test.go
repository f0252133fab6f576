package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/domain/tenancy"
	"github.com/invoicer/backend/internal/resource"
	"github.com/invoicer/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStore_CRUD(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	team := testutil.SeedTeam(t, db)
	store := NewGormStore[billing.Customer](db)

	c, err := billing.NewCustomer(billing.CustomerInput{Company: "Analytical Engines Ltd"})
	require.NoError(t, err)
	c.TeamID = team.ID
	require.NoError(t, store.Create(ctx, c))

	found, err := store.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Analytical Engines Ltd", found.Company)

	found.Phone = "+44 20 7946 0000"
	require.NoError(t, store.Save(ctx, found))
	found, err = store.Find(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "+44 20 7946 0000", found.Phone)

	require.NoError(t, store.Delete(ctx, found))
	_, err = store.Find(ctx, c.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, found), shared.ErrNotFound)
}

func TestGormStore_List(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	team := testutil.SeedTeam(t, db)
	other := testutil.SeedTeam(t, db)
	for range 3 {
		testutil.SeedCustomer(t, db, team.ID)
	}
	testutil.SeedCustomer(t, db, other.ID)

	store := NewGormStore[billing.Customer](db)
	scope := resource.Scope{Column: "team_id", Value: team.ID}

	page, total, err := store.List(ctx, scope, shared.Filter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)

	rest, _, err := store.List(ctx, scope, shared.Filter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	for _, c := range append(page, rest...) {
		assert.Equal(t, team.ID, c.TeamID)
	}
	assert.NotContains(t, []any{page[0].ID, page[1].ID}, rest[0].ID)

	empty, total, err := store.List(ctx, resource.Scope{Column: "team_id", Value: testutil.NewTestUUID("nobody")}, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestGormStore_OrderedPreload(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	team := testutil.SeedTeam(t, db)
	customer := testutil.SeedCustomer(t, db, team.ID)
	address := testutil.SeedAddress(t, db, customer.ID)
	invoice := testutil.SeedInvoice(t, db, team.ID, customer.ID, address.ID)

	base := time.Now().UTC()
	fields := NewGormStore[billing.InvoiceField](db)
	for i, name := range []string{"third", "first", "second"} {
		f, err := billing.NewInvoiceField(billing.InvoiceFieldInput{Name: name, VAT: 20, Price: decimal.NewFromInt(10)})
		require.NoError(t, err)
		f.InvoiceID = invoice.ID
		f.CreatedAt = base.Add(time.Duration([]int{3, 1, 2}[i]) * time.Second)
		require.NoError(t, fields.Create(ctx, f))
	}

	store := NewGormStore[billing.Invoice](db, OrderPreload("Fields", "created_at"))
	loaded, err := store.Find(ctx, invoice.ID, "Fields", "Customer", "Address", "Team")
	require.NoError(t, err)

	require.Len(t, loaded.Fields, 3)
	assert.Equal(t, "first", loaded.Fields[0].Name)
	assert.Equal(t, "second", loaded.Fields[1].Name)
	assert.Equal(t, "third", loaded.Fields[2].Name)
	require.NotNil(t, loaded.Customer)
	assert.Equal(t, customer.ID, loaded.Customer.ID)
	require.NotNil(t, loaded.Address)
	require.NotNil(t, loaded.Team)
	assert.Equal(t, team.Username, loaded.Team.Username)

	// the computed totals follow the stored line items
	assert.True(t, loaded.Prices().Total.Equal(decimal.NewFromInt(36)))
}

func TestGormStore_CustomerDeleteCascades(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	team := testutil.SeedTeam(t, db)
	customer := testutil.SeedCustomer(t, db, team.ID)
	address := testutil.SeedAddress(t, db, customer.ID)
	invoice := testutil.SeedInvoice(t, db, team.ID, customer.ID, address.ID)
	testutil.SeedField(t, db, invoice.ID, "100", 20)

	require.NoError(t, NewGormStore[billing.Customer](db).Delete(ctx, customer))

	for _, table := range []string{"addresses", "invoices", "invoice_fields"} {
		var count int64
		require.NoError(t, db.Table(table).Count(&count).Error)
		assert.Zero(t, count, table)
	}
}

func TestGormStore_ReferencedAddressCannotBeDeleted(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	team := testutil.SeedTeam(t, db)
	customer := testutil.SeedCustomer(t, db, team.ID)
	address := testutil.SeedAddress(t, db, customer.ID)
	testutil.SeedInvoice(t, db, team.ID, customer.ID, address.ID)

	addresses := NewGormStore[billing.Address](db)
	err := addresses.Delete(ctx, address)
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))

	_, err = addresses.Find(ctx, address.ID)
	assert.NoError(t, err)

	unused := testutil.SeedAddress(t, db, customer.ID)
	assert.NoError(t, addresses.Delete(ctx, unused))
}

func TestGormStore_ConstraintViolations(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	team := testutil.SeedTeam(t, db)

	t.Run("duplicate username", func(t *testing.T) {
		dup, err := tenancy.NewTeam("Copy", team.Username, "hash")
		require.NoError(t, err)
		err = NewGormStore[tenancy.Team](db).Create(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	})

	t.Run("missing parent", func(t *testing.T) {
		a, err := billing.NewAddress(billing.AddressInput{Line: "1 Nowhere", Zip: "0", City: "Void"})
		require.NoError(t, err)
		a.CustomerID = testutil.NewTestUUID("missing-customer")
		err = NewGormStore[billing.Address](db).Create(ctx, a)
		assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	})
}
