package resource

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// Owner is anything other entities can belong to
type Owner interface {
	Name() string
	// TenantOf returns the tenant that transitively owns the row id
	TenantOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// Parent declares the owner of an entity.
// A TenantOwned parent is always the authenticated tenant and is never read
// from the path. Any other parent is read from the ParentParam segment and
// the entity's own id moves to ChildParam.
type Parent[E any] struct {
	Owner       Owner
	TenantOwned bool
	Column      string
	Get         func(*E) uuid.UUID
	Set         func(*E, uuid.UUID)
}

type reference[E any] struct {
	owner Owner
	get   func(*E) uuid.UUID
}

// Descriptor describes a stored entity type and the traits composed
// operations may use
type Descriptor[E shared.Entity] struct {
	name     string
	segment  string
	store    Store[E]
	create   func(bind Binder) (*E, error)
	parent   *Parent[E]
	patch    func(bind Binder) (func(*E) error, error)
	output   func(*E) any
	eager    []string
	refs     []reference[E]
	checks   []func(ctx context.Context, e *E) error
	sortable map[string]bool
	exposed  Operation
}

// Define creates a descriptor. construct turns a decoded create payload into
// a new entity and enforces its invariants.
func Define[E shared.Entity, In any](name string, store Store[E], construct func(In) (*E, error)) *Descriptor[E] {
	return &Descriptor[E]{
		name:    name,
		segment: name,
		store:   store,
		create: func(bind Binder) (*E, error) {
			var in In
			if err := bind(&in); err != nil {
				return nil, &BindError{Err: err}
			}
			return construct(in)
		},
		sortable: map[string]bool{"created_at": true, "updated_at": true},
	}
}

// At overrides the path segment the descriptor is mounted on
func (d *Descriptor[E]) At(segment string) *Descriptor[E] {
	d.segment = segment
	return d
}

// ChildOf declares the owner of the entity
func (d *Descriptor[E]) ChildOf(p Parent[E]) *Descriptor[E] {
	if p.Get == nil || p.Set == nil || p.Column == "" {
		panic(fmt.Sprintf("resource %s: parent needs a column and accessors", d.name))
	}
	if !p.TenantOwned && p.Owner == nil {
		panic(fmt.Sprintf("resource %s: a path parent needs an owner", d.name))
	}
	d.parent = &p
	return d
}

// WithPatch makes the entity patchable. The update payload U is decoded and
// validated before any stored row is read; apply receives the stored entity.
func WithPatch[E shared.Entity, U any](d *Descriptor[E], apply func(*E, U) error) *Descriptor[E] {
	d.patch = func(bind Binder) (func(*E) error, error) {
		var u U
		if err := bind(&u); err != nil {
			return nil, &BindError{Err: err}
		}
		return func(e *E) error { return apply(e, u) }, nil
	}
	return d
}

// WithOutput replaces the default output of the entity with project
func WithOutput[E shared.Entity, O any](d *Descriptor[E], project func(*E) O) *Descriptor[E] {
	d.output = func(e *E) any { return project(e) }
	return d
}

// EagerLoad names relations that are loaded with every returned entity
func (d *Descriptor[E]) EagerLoad(relations ...string) *Descriptor[E] {
	d.eager = append(d.eager, relations...)
	return d
}

// References declares a referenced entity that must belong to the caller
// whenever the entity is created or patched
func (d *Descriptor[E]) References(owner Owner, get func(*E) uuid.UUID) *Descriptor[E] {
	d.refs = append(d.refs, reference[E]{owner: owner, get: get})
	return d
}

// Check adds a rule run on created and patched entities once their
// references are known to belong to the caller
func (d *Descriptor[E]) Check(rule func(ctx context.Context, e *E) error) *Descriptor[E] {
	d.checks = append(d.checks, rule)
	return d
}

// Sortable allows listings to be ordered by columns
func (d *Descriptor[E]) Sortable(columns ...string) *Descriptor[E] {
	for _, c := range columns {
		d.sortable[c] = true
	}
	return d
}

// Expose restricts the composed operations to ops
func (d *Descriptor[E]) Expose(ops Operation) *Descriptor[E] {
	d.exposed = ops
	return d
}

// Name returns the schema name
func (d *Descriptor[E]) Name() string {
	return d.name
}

// Segment returns the path segment
func (d *Descriptor[E]) Segment() string {
	return d.segment
}

// Nested reports whether the entity lives under its parent in the path
func (d *Descriptor[E]) Nested() bool {
	return d.parent != nil && !d.parent.TenantOwned
}

// Operations returns the operations that may be mounted. Update requires
// the Patchable trait.
func (d *Descriptor[E]) Operations() Operation {
	ops := OpList | OpCreate | OpRead | OpDelete
	if d.patch != nil {
		ops |= OpUpdate
	}
	if d.exposed != 0 {
		ops &= d.exposed
	}
	return ops
}

// Capabilities summarises the declared traits
type Capabilities struct {
	Name         string
	Parent       string
	TenantOwned  bool
	Patchable    bool
	CustomOutput bool
	EagerLoad    []string
	References   []string
}

// Capabilities returns the declared trait matrix
func (d *Descriptor[E]) Capabilities() Capabilities {
	c := Capabilities{
		Name:         d.name,
		Patchable:    d.patch != nil,
		CustomOutput: d.output != nil,
		EagerLoad:    append([]string(nil), d.eager...),
	}
	if d.parent != nil {
		c.TenantOwned = d.parent.TenantOwned
		if d.parent.Owner != nil {
			c.Parent = d.parent.Owner.Name()
		}
	}
	for _, r := range d.refs {
		c.References = append(c.References, r.owner.Name())
	}
	return c
}

// Project returns the external representation of e
func (d *Descriptor[E]) Project(e *E) any {
	if d.output != nil {
		return d.output(e)
	}
	return e
}
