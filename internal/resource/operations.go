package resource

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// List returns a page of entities under the resolved parent
func (d *Descriptor[E]) List(ctx context.Context, tenant uuid.UUID, params PathParams, filter shared.Filter) (shared.Paginated[any], error) {
	filter = filter.Normalize()
	if !d.sortable[filter.OrderBy] {
		return shared.Paginated[any]{}, ErrInvalidSort.WithMessage("Cannot sort " + d.name + " by " + filter.OrderBy)
	}

	parent, err := d.ResolveParent(ctx, tenant, params)
	if err != nil {
		return shared.Paginated[any]{}, err
	}

	scope := Scope{Column: "id", Value: parent}
	if d.parent != nil {
		scope.Column = d.parent.Column
	}

	rows, total, err := d.store.List(ctx, scope, filter, d.eager...)
	if err != nil {
		return shared.Paginated[any]{}, err
	}

	items := make([]any, 0, len(rows))
	for i := range rows {
		items = append(items, d.Project(&rows[i]))
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Create decodes a new entity, attaches it to the resolved parent and
// returns its projection with relations loaded
func (d *Descriptor[E]) Create(ctx context.Context, tenant uuid.UUID, params PathParams, bind Binder) (any, error) {
	e, err := d.create(bind)
	if err != nil {
		return nil, err
	}

	parent, err := d.ResolveParent(ctx, tenant, params)
	if err != nil {
		return nil, err
	}
	if d.parent != nil {
		d.parent.Set(e, parent)
	}

	if err := d.checkReferences(ctx, e, tenant); err != nil {
		return nil, err
	}
	if err := d.store.Create(ctx, e); err != nil {
		return nil, err
	}

	created, err := d.store.Find(ctx, (*e).GetID(), d.eager...)
	if err != nil {
		return nil, err
	}
	return d.Project(created), nil
}

// Read returns the projection of a single entity
func (d *Descriptor[E]) Read(ctx context.Context, tenant uuid.UUID, params PathParams) (any, error) {
	e, _, err := d.fetch(ctx, tenant, params, d.eager...)
	if err != nil {
		return nil, err
	}
	return d.Project(e), nil
}

// Update applies a partial payload to a stored entity
func (d *Descriptor[E]) Update(ctx context.Context, tenant uuid.UUID, params PathParams, bind Binder) (any, error) {
	if d.patch == nil || !d.Operations().Has(OpUpdate) {
		return nil, ErrUnsupported
	}
	apply, err := d.patch(bind)
	if err != nil {
		return nil, err
	}

	e, parent, err := d.fetch(ctx, tenant, params)
	if err != nil {
		return nil, err
	}
	if err := apply(e); err != nil {
		return nil, err
	}
	if err := d.checkReferences(ctx, e, tenant); err != nil {
		return nil, err
	}

	stored, err := d.store.Find(ctx, (*e).GetID())
	if err != nil {
		return nil, err
	}
	if err := d.VerifyOwnership(ctx, stored, tenant, parent); err != nil {
		return nil, err
	}
	if err := d.VerifyOwnership(ctx, e, tenant, parent); err != nil {
		return nil, err
	}

	if err := d.store.Save(ctx, e); err != nil {
		return nil, err
	}

	updated, err := d.store.Find(ctx, (*e).GetID(), d.eager...)
	if err != nil {
		return nil, err
	}
	return d.Project(updated), nil
}

// Delete removes a stored entity
func (d *Descriptor[E]) Delete(ctx context.Context, tenant uuid.UUID, params PathParams) error {
	e, _, err := d.fetch(ctx, tenant, params)
	if err != nil {
		return err
	}
	return d.store.Delete(ctx, e)
}

// fetch resolves the parent and id of a request, loads the row and checks
// that it belongs to the tenant
func (d *Descriptor[E]) fetch(ctx context.Context, tenant uuid.UUID, params PathParams, preload ...string) (*E, uuid.UUID, error) {
	parent, err := d.ResolveParent(ctx, tenant, params)
	if err != nil {
		return nil, uuid.Nil, err
	}
	id, err := d.ResolveID(params)
	if err != nil {
		return nil, uuid.Nil, err
	}

	e, err := d.store.Find(ctx, id, preload...)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if err := d.VerifyOwnership(ctx, e, tenant, parent); err != nil {
		return nil, uuid.Nil, err
	}
	return e, parent, nil
}
