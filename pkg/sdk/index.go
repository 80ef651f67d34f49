package searchc

import (
	"encoding/json"
	"fmt"
)

// TypedContainer is a generic handle on one container and catalog. Hit sources are decoded
// into T with encoding/json, so T uses json struct tags.
type TypedContainer[T any] struct {
	client  *Client
	name    string
	catalog string
}

// NewContainer creates a typed handle. It fails when the container is not loaded.
func NewContainer[T any](client *Client, name, catalog string) (*TypedContainer[T], error) {
	if _, err := client.containers.Get(name, catalog); err != nil {
		return nil, fmt.Errorf("new container %q: %w", name, err)
	}
	return &TypedContainer[T]{client: client, name: name, catalog: catalog}, nil
}

// Search returns a fluent search builder for this container.
func (tc *TypedContainer[T]) Search() *SearchBuilder[T] {
	return &SearchBuilder[T]{tc: tc}
}

// TypedHit is a search hit with its source decoded.
type TypedHit[T any] struct {
	ID    string
	Score float64
	Item  T
}

// TypedResult is a search result with decoded hits.
type TypedResult[T any] struct {
	Total        int64
	Exact        bool
	Hits         []TypedHit[T]
	Aggregations map[string]Aggregation
}

func decodeResult[T any](res Result) (TypedResult[T], error) {
	out := TypedResult[T]{
		Total:        res.Total,
		Exact:        res.Exact,
		Hits:         make([]TypedHit[T], len(res.Hits)),
		Aggregations: res.Aggregations,
	}
	for i, h := range res.Hits {
		item, err := decodeSource[T](h.Source)
		if err != nil {
			return TypedResult[T]{}, fmt.Errorf("hit %q: %w", h.ID, err)
		}
		out.Hits[i] = TypedHit[T]{ID: h.ID, Score: h.Score, Item: item}
	}
	return out, nil
}

func decodeSource[T any](src map[string]any) (T, error) {
	var item T
	if src == nil {
		return item, nil
	}
	data, err := json.Marshal(src)
	if err != nil {
		return item, fmt.Errorf("encode source: %w", err)
	}
	if err := json.Unmarshal(data, &item); err != nil {
		return item, fmt.Errorf("decode source: %w", err)
	}
	return item, nil
}
