// Package filter compiles catalog filter conditions into engine queries.
//
// A condition is keyed by field code and is either a scalar, a list of values, a map of
// operator to value, or a prebuilt query.Node passed through as is.
package filter

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/searchc/internal/domain"
	"github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
)

// Builder compiles filter conditions. It is stateless and safe for concurrent use.
type Builder struct {
	handlers []Handler
}

// NewBuilder creates a builder with the given handlers, DefaultHandlers when none is given.
func NewBuilder(handlers ...Handler) *Builder {
	if len(handlers) == 0 {
		handlers = DefaultHandlers()
	}
	return &Builder{handlers: handlers}
}

// Build compiles conditions into one query, nil when there are none. Fields are visited in
// sorted order; nested fields sharing a path are grouped under one nested query placed at the
// position of the first of them. Inside a nested context (nestedPath set) only fields of that
// path are accepted and no nested wrapper is added.
func (b *Builder) Build(
	m mapping.Mapping, conditions map[string]any, nestedPath string, sctx container.Context,
) (query.Node, error) {
	names := make([]string, 0, len(conditions))
	for name := range conditions {
		names = append(names, name)
	}
	slices.Sort(names)

	type slot struct {
		node query.Node
		path string // nested group collected at this slot
	}
	var (
		slots  []slot
		groups = map[string][]query.Node{}
	)
	for _, name := range names {
		cond := conditions[name]

		if raw, ok := cond.(query.Node); ok {
			if nestedPath != "" {
				if err := query.CheckScope(nestedPath, raw); err != nil {
					return nil, err
				}
			}
			slots = append(slots, slot{node: raw})
			continue
		}

		f, ok := m.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrFieldNotFound, name)
		}
		if nestedPath != "" {
			if !f.IsNested() {
				return nil, domain.NewInvalidNesting(name, nestedPath)
			}
			if f.NestedPath() != nestedPath {
				return nil, domain.NewNestingConflict(name, f.NestedPath(), nestedPath)
			}
		}

		n, err := b.field(f, cond, sctx)
		if err != nil {
			return nil, err
		}
		if nestedPath == "" && f.IsNested() {
			path := f.NestedPath()
			if _, seen := groups[path]; !seen {
				slots = append(slots, slot{path: path})
			}
			groups[path] = append(groups[path], n)
			continue
		}
		slots = append(slots, slot{node: n})
	}

	nodes := make([]query.Node, 0, len(slots))
	for _, s := range slots {
		if s.path == "" {
			nodes = append(nodes, s.node)
			continue
		}
		nested, err := query.NewNested(s.path, query.And(groups[s.path]...))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, nested)
	}
	return query.And(nodes...), nil
}

// BuildField compiles the condition of a single field, nested wrapper included.
func (b *Builder) BuildField(
	m mapping.Mapping, name string, cond any, sctx container.Context,
) (query.Node, error) {
	return b.Build(m, map[string]any{name: cond}, "", sctx)
}

func (b *Builder) field(f mapping.Field, cond any, sctx container.Context) (query.Node, error) {
	if cond == nil {
		return query.Missing{Field: f.FilterProperty()}, nil
	}
	return b.handler(f).Build(f, cond, sctx)
}

func (b *Builder) handler(f mapping.Field) Handler {
	for _, h := range b.handlers {
		if h.Supports(f) {
			return h
		}
	}
	return defaultHandler{}
}
