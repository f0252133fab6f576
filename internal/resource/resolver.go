package resource

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// TenantOf returns the tenant owning the row id. An entity without a parent
// is a tenant itself.
func (d *Descriptor[E]) TenantOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if d.parent == nil {
		return id, nil
	}
	e, err := d.store.Find(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	return d.tenantOfEntity(ctx, e)
}

func (d *Descriptor[E]) tenantOfEntity(ctx context.Context, e *E) (uuid.UUID, error) {
	if d.parent == nil {
		return (*e).GetID(), nil
	}
	parentID := d.parent.Get(e)
	if d.parent.TenantOwned {
		return parentID, nil
	}
	return d.parent.Owner.TenantOf(ctx, parentID)
}

// ResolveParent returns the id of the parent the request acts under
func (d *Descriptor[E]) ResolveParent(ctx context.Context, tenant uuid.UUID, params PathParams) (uuid.UUID, error) {
	if !d.Nested() {
		return tenant, nil
	}

	parentID, err := parseParam(params, ParentParam)
	if err != nil {
		return uuid.Nil, err
	}

	owner, err := d.parent.Owner.TenantOf(ctx, parentID)
	if err != nil {
		if shared.KindOf(err) == shared.KindNotFound {
			return uuid.Nil, shared.ErrNotFound.WithMessage(d.parent.Owner.Name() + " not found")
		}
		return uuid.Nil, err
	}
	if owner != tenant {
		return uuid.Nil, ErrNotOwned
	}
	return parentID, nil
}

// ResolveID returns the id of the addressed entity
func (d *Descriptor[E]) ResolveID(params PathParams) (uuid.UUID, error) {
	if d.Nested() {
		return parseParam(params, ChildParam)
	}
	return parseParam(params, ParentParam)
}

// VerifyOwnership checks a stored row against the resolved parent and the
// tenant
func (d *Descriptor[E]) VerifyOwnership(ctx context.Context, e *E, tenant, parent uuid.UUID) error {
	if d.parent == nil {
		if (*e).GetID() != tenant {
			return ErrNotOwned
		}
		return nil
	}
	if d.parent.Get(e) != parent {
		return ErrNotOwned
	}
	owner, err := d.tenantOfEntity(ctx, e)
	if err != nil {
		if shared.KindOf(err) == shared.KindNotFound {
			return ErrNotOwned
		}
		return err
	}
	if owner != tenant {
		return ErrNotOwned
	}
	return nil
}

// checkReferences rejects references to rows of other tenants, then runs
// the declared checks
func (d *Descriptor[E]) checkReferences(ctx context.Context, e *E, tenant uuid.UUID) error {
	for _, ref := range d.refs {
		id := ref.get(e)
		owner, err := ref.owner.TenantOf(ctx, id)
		if err != nil {
			if shared.KindOf(err) == shared.KindNotFound {
				return ErrInvalidReference.WithMessage(ref.owner.Name() + " " + id.String() + " does not exist")
			}
			return err
		}
		if owner != tenant {
			return ErrNotOwned
		}
	}
	for _, check := range d.checks {
		if err := check(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func parseParam(params PathParams, key string) (uuid.UUID, error) {
	raw := params.Param(key)
	if raw == "" {
		return uuid.Nil, ErrMissingID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Join(ErrInvalidID, err)
	}
	return id, nil
}
