package resource

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
)

type memStore[E shared.Entity] struct {
	rows    map[uuid.UUID]E
	column  func(e *E, column string) uuid.UUID
	finds   int
	preload [][]string
	listed  [][]string
	saved   int
}

func newMemStore[E shared.Entity](column func(e *E, column string) uuid.UUID) *memStore[E] {
	return &memStore[E]{rows: map[uuid.UUID]E{}, column: column}
}

func (s *memStore[E]) Find(_ context.Context, id uuid.UUID, preload ...string) (*E, error) {
	s.finds++
	s.preload = append(s.preload, preload)
	e, ok := s.rows[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &e, nil
}

func (s *memStore[E]) List(_ context.Context, scope Scope, filter shared.Filter, preload ...string) ([]E, int64, error) {
	s.listed = append(s.listed, preload)
	var out []E
	for _, e := range s.rows {
		if s.column(&e, scope.Column) == scope.Value {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GetID().String() < out[j].GetID().String() })
	total := int64(len(out))
	start := filter.Offset()
	if start > len(out) {
		start = len(out)
	}
	end := start + filter.PageSize
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (s *memStore[E]) Create(_ context.Context, e *E) error {
	if _, ok := s.rows[(*e).GetID()]; ok {
		return shared.ErrAlreadyExists
	}
	s.rows[(*e).GetID()] = *e
	return nil
}

func (s *memStore[E]) Save(_ context.Context, e *E) error {
	s.saved++
	s.rows[(*e).GetID()] = *e
	return nil
}

func (s *memStore[E]) Delete(_ context.Context, e *E) error {
	delete(s.rows, (*e).GetID())
	return nil
}
