package searchc

import (
	"context"
	"fmt"
)

// SearchBuilder is a fluent builder for typed searches.
type SearchBuilder[T any] struct {
	tc *TypedContainer[T]
	q  Query
}

// Text sets the fulltext search text.
func (b *SearchBuilder[T]) Text(text string) *SearchBuilder[T] {
	b.q.Text = text
	return b
}

// Where filters field on any of values.
func (b *SearchBuilder[T]) Where(field string, values ...any) *SearchBuilder[T] {
	if len(values) == 1 {
		return b.Filter(field, values[0])
	}
	return b.Filter(field, values)
}

// Filter sets the condition of field: a value, a list or an operator object.
func (b *SearchBuilder[T]) Filter(field string, condition any) *SearchBuilder[T] {
	if b.q.Filters == nil {
		b.q.Filters = make(map[string]any)
	}
	b.q.Filters[field] = condition
	return b
}

// Facet adds a facet on top of the container defaults.
func (b *SearchBuilder[T]) Facet(f Facet) *SearchBuilder[T] {
	b.q.Facets = append(b.q.Facets, f)
	return b
}

// SortBy sorts on field. Only one sort field is supported.
func (b *SearchBuilder[T]) SortBy(field, direction string) *SearchBuilder[T] {
	b.q.Sort = append(b.q.Sort, Sort{Field: field, Direction: direction})
	return b
}

// Page sets the offset and page size.
func (b *SearchBuilder[T]) Page(from, size int) *SearchBuilder[T] {
	b.q.From, b.q.Size = from, size
	return b
}

// Rule restricts the results to a serialized rule tree.
func (b *SearchBuilder[T]) Rule(rule map[string]any) *SearchBuilder[T] {
	b.q.Rule = rule
	return b
}

// In sets the shopper context.
func (b *SearchBuilder[T]) In(c Context) *SearchBuilder[T] {
	b.q.Context = c
	return b
}

// Query returns the query built so far.
func (b *SearchBuilder[T]) Query() Query {
	return b.q
}

// Compile compiles the search without running it.
func (b *SearchBuilder[T]) Compile(ctx context.Context) (Compiled, error) {
	return b.tc.client.Compile(ctx, b.tc.name, b.tc.catalog, b.q)
}

// Do runs the search and decodes the hits.
func (b *SearchBuilder[T]) Do(ctx context.Context) (TypedResult[T], error) {
	res, err := b.tc.client.Search(ctx, b.tc.name, b.tc.catalog, b.q)
	if err != nil {
		return TypedResult[T]{}, fmt.Errorf("search %q: %w", b.tc.name, err)
	}
	return decodeResult[T](res)
}
