// Package response holds the typed view of an engine search response.
package response

import "github.com/kailas-cloud/searchc/internal/domain/search/aggregation"

// Document is one search hit.
type Document struct {
	ID     string
	Index  string
	Score  float64
	Source map[string]any
	Sort   []any
}

// Bucket is one aggregation bucket. Keys holds the parts of a composite (multi_terms) key.
type Bucket struct {
	Key      string
	Keys     []string
	DocCount int64
	Children map[string]Aggregation
}

// RootCount returns the parent document count of a nested bucket: the reverse_nested child
// count when present, else the bucket's own count.
func (b Bucket) RootCount() int64 {
	if child, ok := b.Children[aggregation.ReverseNestedName]; ok && child.DocCount != nil {
		return *child.DocCount
	}
	return b.DocCount
}

// Aggregation is one unwrapped aggregation result.
type Aggregation struct {
	Name    string
	Buckets []Bucket
	// DocCount is set for single-bucket aggregations (filter, nested, reverse_nested).
	DocCount *int64
	// Value is set for single-value metrics.
	Value *float64
	// Stats holds multi-value metrics and pipeline outputs.
	Stats    map[string]any
	Children map[string]Aggregation
}

// Bucket returns the bucket with the given key.
func (a Aggregation) Bucket(key string) (Bucket, bool) {
	for _, b := range a.Buckets {
		if b.Key == key {
			return b, true
		}
	}
	return Bucket{}, false
}

// Response is a parsed engine response.
type Response struct {
	documents    []Document
	total        int64
	exact        bool
	took         int64
	aggregations map[string]Aggregation
}

// New creates a response.
func New(docs []Document, total int64, exact bool, took int64, aggs map[string]Aggregation) Response {
	if aggs == nil {
		aggs = map[string]Aggregation{}
	}
	return Response{documents: docs, total: total, exact: exact, took: took, aggregations: aggs}
}

// Documents returns the hits in engine order.
func (r *Response) Documents() []Document { return r.documents }

// Total returns the hit count.
func (r *Response) Total() int64 { return r.total }

// IsExact reports whether Total is exact or a lower bound.
func (r *Response) IsExact() bool { return r.exact }

// Took returns the engine time in milliseconds.
func (r *Response) Took() int64 { return r.took }

// Aggregations returns the aggregations by name.
func (r *Response) Aggregations() map[string]Aggregation { return r.aggregations }

// Aggregation returns the aggregation with the given name.
func (r *Response) Aggregation(name string) (Aggregation, bool) {
	a, ok := r.aggregations[name]
	return a, ok
}
