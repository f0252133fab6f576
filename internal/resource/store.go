package resource

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

// Scope restricts a listing to the rows whose Column equals Value
type Scope struct {
	Column string
	Value  uuid.UUID
}

// Store persists entities of a single type. Implementations return
// DomainErrors: a missing row is shared.ErrNotFound.
type Store[E any] interface {
	Find(ctx context.Context, id uuid.UUID, preload ...string) (*E, error)
	List(ctx context.Context, scope Scope, filter shared.Filter, preload ...string) ([]E, int64, error)
	Create(ctx context.Context, entity *E) error
	Save(ctx context.Context, entity *E) error
	Delete(ctx context.Context, entity *E) error
}

// Binder decodes and validates the request payload into obj
type Binder func(obj any) error

// PathParams gives access to named path segments. *gin.Context satisfies it.
type PathParams interface {
	Param(key string) string
}

// Params is a fixed set of path parameters
type Params map[string]string

// Param returns the value of key
func (p Params) Param(key string) string {
	return p[key]
}

// Path parameter names. A nested entity keeps the parent id in ParentParam
// and its own id in ChildParam.
const (
	ParentParam = "id"
	ChildParam  = "children"
)
