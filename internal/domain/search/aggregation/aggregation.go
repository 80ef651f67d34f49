package aggregation

import (
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
)

// Bucket size limits.
const (
	DefaultBucketSize = 10
	MaxBucketSize     = 10000
)

// CapSize returns size bounded to (0, MaxBucketSize], DefaultBucketSize when size <= 0.
func CapSize(size int) int {
	switch {
	case size <= 0:
		return DefaultBucketSize
	case size > MaxBucketSize:
		return MaxBucketSize
	}
	return size
}

// Node is a compiled aggregation: a bucket, metric or pipeline.
type Node interface {
	Name() string
	// Source renders the aggregation body, wrappers included.
	Source() map[string]any
}

// Sources renders nodes keyed by name.
func Sources(nodes []Node) map[string]any {
	out := make(map[string]any, len(nodes))
	for _, n := range nodes {
		out[n.Name()] = n.Source()
	}
	return out
}

// Common holds what every bucket carries besides its own parameters.
//
// Wrapping, outermost first: Filter, then the nested scope, then NestedFilter, then the
// bucket itself. Every wrapper names its single child after the aggregation, so a response
// is unwrapped by descending into agg[name] while that key exists.
type Common struct {
	AggName      string
	NestedPath   string
	NestedFilter query.Node
	Filter       query.Node
	Children     []Node
}

// Name implements Node.
func (c Common) Name() string { return c.AggName }

// IsNested reports whether the bucket runs inside a nested scope.
func (c Common) IsNested() bool { return c.NestedPath != "" }

func (c Common) wrap(body map[string]any) map[string]any {
	if len(c.Children) > 0 {
		body["aggregations"] = Sources(c.Children)
	}
	agg := body
	if c.NestedFilter != nil {
		agg = map[string]any{
			"filter":       c.NestedFilter.Source(),
			"aggregations": map[string]any{c.AggName: agg},
		}
	}
	if c.NestedPath != "" {
		agg = map[string]any{
			"nested":       map[string]any{"path": c.NestedPath},
			"aggregations": map[string]any{c.AggName: agg},
		}
	}
	if c.Filter != nil {
		agg = map[string]any{
			"filter":       c.Filter.Source(),
			"aggregations": map[string]any{c.AggName: agg},
		}
	}
	return agg
}

// Bucket orderings.
const (
	OrderCount = "_count"
	OrderKey   = "_key"
)

// Int returns a pointer to n, for optional integer parameters.
func Int(n int) *int { return &n }

// Terms buckets documents by distinct value.
type Terms struct {
	Common
	Field       string
	Size        int
	OrderBy     string // OrderCount or OrderKey, empty means OrderCount
	OrderDir    string // "asc" or "desc", empty means desc for count and asc for key
	MinDocCount *int
}

// Source implements Node.
func (a Terms) Source() map[string]any {
	by := a.OrderBy
	if by == "" {
		by = OrderCount
	}
	dir := a.OrderDir
	if dir == "" {
		dir = "desc"
		if by == OrderKey {
			dir = "asc"
		}
	}
	body := map[string]any{
		"field": a.Field,
		"size":  CapSize(a.Size),
		"order": map[string]any{by: dir},
	}
	if a.MinDocCount != nil {
		body["min_doc_count"] = *a.MinDocCount
	}
	return a.wrap(map[string]any{"terms": body})
}

// RangeItem is one bucket of a range-like aggregation. Nil From/To are open.
type RangeItem struct {
	Key  string
	From any
	To   any
}

func rangeItems(items []RangeItem) []any {
	out := make([]any, len(items))
	for i, r := range items {
		m := map[string]any{}
		if r.Key != "" {
			m["key"] = r.Key
		}
		if r.From != nil {
			m["from"] = r.From
		}
		if r.To != nil {
			m["to"] = r.To
		}
		out[i] = m
	}
	return out
}

// Range buckets a numeric field by explicit ranges.
type Range struct {
	Common
	Field  string
	Ranges []RangeItem
}

// Source implements Node.
func (a Range) Source() map[string]any {
	return a.wrap(map[string]any{"range": map[string]any{
		"field":  a.Field,
		"ranges": rangeItems(a.Ranges),
	}})
}

// DateRange buckets a date field by explicit ranges parsed with Format.
type DateRange struct {
	Common
	Field  string
	Format string
	Ranges []RangeItem
}

// Source implements Node.
func (a DateRange) Source() map[string]any {
	body := map[string]any{
		"field":  a.Field,
		"ranges": rangeItems(a.Ranges),
	}
	if a.Format != "" {
		body["format"] = a.Format
	}
	return a.wrap(map[string]any{"date_range": body})
}

// Histogram buckets a numeric field by fixed Interval.
type Histogram struct {
	Common
	Field       string
	Interval    float64
	MinDocCount *int
}

// Source implements Node.
func (a Histogram) Source() map[string]any {
	body := map[string]any{"field": a.Field, "interval": a.Interval}
	if a.MinDocCount != nil {
		body["min_doc_count"] = *a.MinDocCount
	}
	return a.wrap(map[string]any{"histogram": body})
}

// DateHistogram buckets a date field by calendar interval.
type DateHistogram struct {
	Common
	Field            string
	CalendarInterval string
	Format           string
	MinDocCount      *int
}

// Source implements Node.
func (a DateHistogram) Source() map[string]any {
	body := map[string]any{"field": a.Field, "calendar_interval": a.CalendarInterval}
	if a.Format != "" {
		body["format"] = a.Format
	}
	if a.MinDocCount != nil {
		body["min_doc_count"] = *a.MinDocCount
	}
	return a.wrap(map[string]any{"date_histogram": body})
}

// Dynamic buckets a numeric field into intervals picked by the engine.
type Dynamic struct {
	Common
	Field   string
	Buckets int
}

// Source implements Node.
func (a Dynamic) Source() map[string]any {
	return a.wrap(map[string]any{"variable_width_histogram": map[string]any{
		"field":   a.Field,
		"buckets": CapSize(a.Buckets),
	}})
}

// MultiTerms buckets by the combination of several fields.
type MultiTerms struct {
	Common
	Fields []string
	Size   int
}

// Source implements Node.
func (a MultiTerms) Source() map[string]any {
	terms := make([]any, len(a.Fields))
	for i, f := range a.Fields {
		terms[i] = map[string]any{"field": f}
	}
	return a.wrap(map[string]any{"multi_terms": map[string]any{
		"terms": terms,
		"size":  CapSize(a.Size),
	}})
}

// NamedQuery is one bucket of a QueryGroup.
type NamedQuery struct {
	Name  string
	Query query.Node
}

// QueryGroup buckets documents by named queries.
type QueryGroup struct {
	Common
	Queries []NamedQuery
}

// Source implements Node.
func (a QueryGroup) Source() map[string]any {
	filters := make(map[string]any, len(a.Queries))
	for _, q := range a.Queries {
		filters[q.Name] = q.Query.Source()
	}
	return a.wrap(map[string]any{"filters": map[string]any{"filters": filters}})
}

// SignificantTerms buckets values unusually frequent in the result set.
type SignificantTerms struct {
	Common
	Field       string
	Size        int
	MinDocCount *int
}

// Source implements Node.
func (a SignificantTerms) Source() map[string]any {
	body := map[string]any{"field": a.Field, "size": CapSize(a.Size)}
	if a.MinDocCount != nil {
		body["min_doc_count"] = *a.MinDocCount
	}
	return a.wrap(map[string]any{"significant_terms": body})
}

// ReverseNestedName is the name the aggregation builder gives reverse-nested children.
const ReverseNestedName = "reverse_nested"

// ReverseNested joins back from nested documents to their parents (or to Path).
type ReverseNested struct {
	Common
	Path string
}

// Source implements Node.
func (a ReverseNested) Source() map[string]any {
	body := map[string]any{}
	if a.Path != "" {
		body["path"] = a.Path
	}
	return a.wrap(map[string]any{"reverse_nested": body})
}
