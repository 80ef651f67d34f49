// Package facet declares the facets a search request asks the engine to count.
package facet

import (
	"fmt"

	"github.com/kailas-cloud/searchc/internal/domain/geo"
	"github.com/kailas-cloud/searchc/internal/domain/search/aggregation"
)

// Type is an explicit bucket type hint. Auto picks the bucket from the field type.
type Type string

// Facet type hints.
const (
	Auto             Type = ""
	Terms            Type = "terms"
	Range            Type = "range"
	Histogram        Type = "histogram"
	Dynamic          Type = "dynamic"
	DateHistogram    Type = "date_histogram"
	DateRange        Type = "date_range"
	GeoDistance      Type = "geo_distance"
	MultiTerms       Type = "multi_terms"
	SignificantTerms Type = "significant_terms"
	Metric           Type = "metric"
)

// Valid reports whether t is a known hint.
func (t Type) Valid() bool {
	switch t {
	case Auto, Terms, Range, Histogram, Dynamic, DateHistogram, DateRange,
		GeoDistance, MultiTerms, SignificantTerms, Metric:
		return true
	}
	return false
}

// Bucket orderings.
const (
	OrderCount = "count"
	OrderKey   = "key"
)

// DefaultCalendarInterval is the date histogram interval when none is declared.
const DefaultCalendarInterval = "1d"

// Spec declares one facet. Name doubles as the aggregation name and as the filter key that
// activates it; Field defaults to Name.
type Spec struct {
	Name             string
	Field            string
	Type             Type
	Size             int
	Order            string
	MinDocCount      *int
	Interval         float64
	CalendarInterval string
	Format           string
	Ranges           []aggregation.RangeItem
	Fields           []string // extra fields of a multi_terms facet
	Origin           *geo.Point
	Unit             string
	Metric           aggregation.MetricType
	Pipelines        []aggregation.Node
}

// FieldName returns the mapped field the facet counts.
func (s Spec) FieldName() string {
	if s.Field == "" {
		return s.Name
	}
	return s.Field
}

// Validate checks what can be checked without a mapping.
func (s Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("facet name is required")
	}
	if !s.Type.Valid() {
		return fmt.Errorf("facet %q: unknown type %q", s.Name, s.Type)
	}
	switch s.Order {
	case "", OrderCount, OrderKey:
	default:
		return fmt.Errorf("facet %q: unknown order %q", s.Name, s.Order)
	}
	if s.Interval < 0 {
		return fmt.Errorf("facet %q: interval must not be negative", s.Name)
	}
	switch s.Type {
	case Metric:
		if !s.Metric.Valid() {
			return fmt.Errorf("facet %q: unknown metric %q", s.Name, s.Metric)
		}
	case Range, DateRange:
		if len(s.Ranges) == 0 {
			return fmt.Errorf("facet %q: %s facet requires ranges", s.Name, s.Type)
		}
	case MultiTerms:
		if len(s.Fields) == 0 {
			return fmt.Errorf("facet %q: multi_terms facet requires extra fields", s.Name)
		}
	}
	return nil
}

// Merge overlays requested on top of defaults. A requested facet replaces the default of the
// same name in place; new names are appended in request order.
func Merge(defaults, requested []Spec) []Spec {
	out := make([]Spec, 0, len(defaults)+len(requested))
	index := make(map[string]int, len(defaults)+len(requested))
	for _, s := range defaults {
		if i, ok := index[s.Name]; ok {
			out[i] = s
			continue
		}
		index[s.Name] = len(out)
		out = append(out, s)
	}
	for _, s := range requested {
		if i, ok := index[s.Name]; ok {
			out[i] = s
			continue
		}
		index[s.Name] = len(out)
		out = append(out, s)
	}
	return out
}
