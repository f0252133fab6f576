package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/billing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/resource"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the gorm implementation of resource.Store. Writes never
// cascade into associations: related rows are managed by their own store.
type GormStore[E shared.Entity] struct {
	db       *gorm.DB
	preloads map[string]func(*gorm.DB) *gorm.DB
}

// StoreOption configures a GormStore
type StoreOption func(*storeOptions)

type storeOptions struct {
	preloads map[string]func(*gorm.DB) *gorm.DB
}

// OrderPreload orders the rows of a preloaded relation
func OrderPreload(relation, order string) StoreOption {
	return func(o *storeOptions) {
		o.preloads[relation] = func(db *gorm.DB) *gorm.DB {
			return db.Order(order)
		}
	}
}

// NewGormStore creates a store for E
func NewGormStore[E shared.Entity](db *gorm.DB, opts ...StoreOption) *GormStore[E] {
	o := storeOptions{preloads: map[string]func(*gorm.DB) *gorm.DB{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &GormStore[E]{db: db, preloads: o.preloads}
}

var _ resource.Store[shared.BaseEntity] = (*GormStore[shared.BaseEntity])(nil)

func (s *GormStore[E]) preload(q *gorm.DB, relations []string) *gorm.DB {
	for _, rel := range relations {
		if scope, ok := s.preloads[rel]; ok {
			q = q.Preload(rel, scope)
			continue
		}
		q = q.Preload(rel)
	}
	return q
}

// Find loads the row id with the given relations
func (s *GormStore[E]) Find(ctx context.Context, id uuid.UUID, preload ...string) (*E, error) {
	var e E
	q := s.preload(s.db.WithContext(ctx), preload)
	if err := q.Where("id = ?", id).Take(&e).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &e, nil
}

// List loads a page of rows in scope
func (s *GormStore[E]) List(ctx context.Context, scope resource.Scope, filter shared.Filter, preload ...string) ([]E, int64, error) {
	filter = filter.Normalize()
	base := s.db.WithContext(ctx).Model(new(E)).
		Where(clause.Eq{Column: clause.Column{Name: scope.Column}, Value: scope.Value})

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}

	rows := make([]E, 0, filter.PageSize)
	q := s.preload(base.Session(&gorm.Session{}), preload).
		Order(clause.OrderByColumn{Column: clause.Column{Name: filter.OrderBy}, Desc: filter.OrderDir == "desc"}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Offset(filter.Offset()).
		Limit(filter.PageSize)
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	return rows, total, nil
}

// Create inserts a new row
func (s *GormStore[E]) Create(ctx context.Context, entity *E) error {
	return TranslateError(s.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error)
}

// Save updates every column of an existing row
func (s *GormStore[E]) Save(ctx context.Context, entity *E) error {
	return TranslateError(s.db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error)
}

// Delete removes a row; dependent rows follow the schema's cascade rules
func (s *GormStore[E]) Delete(ctx context.Context, entity *E) error {
	result := s.db.WithContext(ctx).Delete(entity)
	if result.Error != nil {
		return TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// NewCustomerStore returns the customer store. Eager-loaded invoices and
// their fields come in creation order.
func NewCustomerStore(db *gorm.DB) *GormStore[billing.Customer] {
	return NewGormStore[billing.Customer](db,
		OrderPreload("Invoices", "created_at"),
		OrderPreload("Invoices.Fields", "created_at"),
	)
}

// NewInvoiceStore returns the invoice store with fields in creation order
func NewInvoiceStore(db *gorm.DB) *GormStore[billing.Invoice] {
	return NewGormStore[billing.Invoice](db, OrderPreload("Fields", "created_at"))
}
