// Package sortorder compiles requested sort fields into engine sort clauses.
package sortorder

import (
	"fmt"

	"github.com/kailas-cloud/searchc/internal/domain"
	"github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/domain/search/sort"
)

// Sub-properties filtering scoped sorts.
const (
	priceGroupProperty = "group_id"
	categoryIDProperty = "id"
)

// Builder compiles sort orders. It is stateless and safe for concurrent use.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder { return &Builder{} }

// Build compiles requested, falling back to defaults and then to relevance. A request may sort
// on one field at most; defaults may list several.
func (b *Builder) Build(
	m mapping.Mapping, requested, defaults []sort.Spec, sctx container.Context,
) ([]sort.Order, error) {
	if len(requested) > 1 {
		return nil, fmt.Errorf("%w: got %d fields", domain.ErrMultiFieldSortNotSupported, len(requested))
	}
	specs := requested
	if len(specs) == 0 {
		specs = defaults
	}
	if len(specs) == 0 {
		specs = []sort.Spec{{Field: sort.ScoreField, Direction: sort.Desc}}
	}

	orders := make([]sort.Order, 0, len(specs))
	for _, s := range specs {
		o, err := b.order(m, s, sctx)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (b *Builder) order(m mapping.Mapping, s sort.Spec, sctx container.Context) (sort.Order, error) {
	if s.Field == sort.ScoreField {
		dir := s.Direction
		if dir == "" {
			dir = sort.Desc
		}
		return sort.NewStandard(sort.ScoreField, dir), nil
	}

	dir, err := sort.ParseDirection(string(s.Direction))
	if err != nil {
		return nil, err
	}
	f, ok := m.Field(s.Field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrFieldNotFound, s.Field)
	}
	if !f.IsSortable() {
		return nil, fmt.Errorf("%w: %q", domain.ErrFieldNotSortable, s.Field)
	}

	switch {
	case f.Type() == mapping.Price:
		return sort.Nested{
			Name: f.SortProperty(),
			Dir:  dir,
			Path: f.NestedPath(),
			Filter: query.Term{
				Field: f.Name() + "." + priceGroupProperty,
				Value: sctx.PriceGroupOrDefault(),
			},
			Mode: modeFor(dir),
		}, nil
	case f.Type() == mapping.Category:
		if sctx.CurrentCategory == "" {
			return nil, fmt.Errorf("%w: sorting on %q needs a current category", domain.ErrMissingContext, f.Name())
		}
		return sort.Nested{
			Name:   f.SortProperty(),
			Dir:    dir,
			Path:   f.NestedPath(),
			Filter: query.Term{Field: f.Name() + "." + categoryIDProperty, Value: sctx.CurrentCategory},
			Mode:   sort.ModeMin,
		}, nil
	case f.IsGeo():
		if sctx.ReferenceLocation == nil {
			return nil, fmt.Errorf("%w: sorting on %q needs a reference location", domain.ErrMissingContext, f.Name())
		}
		return sort.Distance{
			Name:     f.Name(),
			Location: *sctx.ReferenceLocation,
			Mode:     modeFor(dir),
			Dir:      dir,
		}, nil
	case f.IsNested():
		return sort.Nested{
			Name: f.SortProperty(),
			Dir:  dir,
			Path: f.NestedPath(),
			Mode: modeFor(dir),
		}, nil
	default:
		return sort.NewStandard(f.SortProperty(), dir), nil
	}
}

// modeFor picks the value of multi-valued fields that sorts first in dir.
func modeFor(dir sort.Direction) string {
	if dir == sort.Desc {
		return sort.ModeMax
	}
	return sort.ModeMin
}
