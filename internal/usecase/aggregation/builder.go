// Package aggregation compiles facet declarations into engine aggregations.
package aggregation

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/searchc/internal/domain"
	"github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	domagg "github.com/kailas-cloud/searchc/internal/domain/search/aggregation"
	"github.com/kailas-cloud/searchc/internal/domain/search/facet"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
)

const priceGroupProperty = "group_id"

// DefaultDistanceRanges are the rings of a geo facet that declares none, in kilometers.
var DefaultDistanceRanges = []domagg.RangeItem{
	{To: 1.0}, {From: 1.0, To: 5.0}, {From: 5.0, To: 10.0}, {From: 10.0, To: 50.0}, {From: 50.0},
}

// Builder compiles facets. It is stateless and safe for concurrent use.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder { return &Builder{} }

// Build compiles facets in order. active maps facet names to their compiled filters: every
// aggregation is restricted by the filters of all other active facets, never by its own, so
// a facet still counts the values a visitor could switch to.
func (b *Builder) Build(
	m mapping.Mapping, facets []facet.Spec, active map[string]query.Node, sctx container.Context,
) ([]domagg.Node, error) {
	names := make([]string, 0, len(active))
	for name := range active {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]domagg.Node, 0, len(facets))
	for _, spec := range facets {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		f, ok := m.Field(spec.FieldName())
		if !ok {
			return nil, fmt.Errorf("facet %q: %w: %q", spec.Name, domain.ErrFieldNotFound, spec.FieldName())
		}
		n, err := b.facet(m, f, spec, facetFilter(spec.Name, names, active), sctx)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// facetFilter ANDs the filters of every active facet but name.
func facetFilter(name string, names []string, active map[string]query.Node) query.Node {
	var others []query.Node
	for _, n := range names {
		if n != name {
			others = append(others, active[n])
		}
	}
	return query.And(others...)
}

func (b *Builder) facet(
	m mapping.Mapping, f mapping.Field, spec facet.Spec, filter query.Node, sctx container.Context,
) (domagg.Node, error) {
	common := domagg.Common{AggName: spec.Name, Filter: filter}
	if f.IsNested() {
		common.NestedPath = f.NestedPath()
	}
	if f.Type() == mapping.Price {
		common.NestedFilter = query.Term{Field: f.Name() + "." + priceGroupProperty, Value: sctx.PriceGroupOrDefault()}
	}

	typ := spec.Type
	if typ == facet.Auto {
		typ = autoType(f, spec)
	}
	if typ != facet.Metric && f.IsNested() {
		common.Children = append(common.Children, domagg.ReverseNested{
			Common: domagg.Common{AggName: domagg.ReverseNestedName},
		})
	}
	common.Children = append(common.Children, spec.Pipelines...)

	property := f.FilterProperty()
	switch typ {
	case facet.Terms:
		return domagg.Terms{
			Common:      common,
			Field:       property,
			Size:        domagg.CapSize(spec.Size),
			OrderBy:     orderBy(spec.Order),
			MinDocCount: spec.MinDocCount,
		}, nil
	case facet.SignificantTerms:
		return domagg.SignificantTerms{
			Common: common, Field: property, Size: domagg.CapSize(spec.Size), MinDocCount: spec.MinDocCount,
		}, nil
	case facet.MultiTerms:
		fields := []string{property}
		for _, name := range spec.Fields {
			extra, ok := m.Field(name)
			if !ok {
				return nil, fmt.Errorf("facet %q: %w: %q", spec.Name, domain.ErrFieldNotFound, name)
			}
			fields = append(fields, extra.FilterProperty())
		}
		return domagg.MultiTerms{Common: common, Fields: fields, Size: domagg.CapSize(spec.Size)}, nil
	case facet.Range:
		return domagg.Range{Common: common, Field: property, Ranges: spec.Ranges}, nil
	case facet.Histogram:
		if spec.Interval <= 0 {
			return nil, fmt.Errorf("facet %q: histogram needs a positive interval", spec.Name)
		}
		return domagg.Histogram{Common: common, Field: property, Interval: spec.Interval, MinDocCount: spec.MinDocCount}, nil
	case facet.Dynamic:
		return domagg.Dynamic{Common: common, Field: property, Buckets: spec.Size}, nil
	case facet.DateRange:
		return domagg.DateRange{Common: common, Field: property, Format: dateFormat(f, spec), Ranges: spec.Ranges}, nil
	case facet.DateHistogram:
		interval := spec.CalendarInterval
		if interval == "" {
			interval = facet.DefaultCalendarInterval
		}
		return domagg.DateHistogram{
			Common: common, Field: property, CalendarInterval: interval,
			Format: dateFormat(f, spec), MinDocCount: spec.MinDocCount,
		}, nil
	case facet.GeoDistance:
		origin := spec.Origin
		if origin == nil {
			origin = sctx.ReferenceLocation
		}
		if origin == nil {
			return nil, fmt.Errorf("facet %q: %w: distance facet needs an origin", spec.Name, domain.ErrMissingContext)
		}
		ranges := spec.Ranges
		if len(ranges) == 0 {
			ranges = DefaultDistanceRanges
		}
		return domagg.GeoDistance{Common: common, Field: property, Origin: *origin, Unit: spec.Unit, Ranges: ranges}, nil
	case facet.Metric:
		return domagg.Metric{Common: common, Type: spec.Metric, Field: property}, nil
	}
	return nil, fmt.Errorf("facet %q: unsupported facet type %q", spec.Name, typ)
}

// autoType picks the bucket type of a facet from its field type.
func autoType(f mapping.Field, spec facet.Spec) facet.Type {
	switch f.Type() {
	case mapping.Integer, mapping.Float, mapping.Price:
		switch {
		case len(spec.Ranges) > 0:
			return facet.Range
		case spec.Interval > 0:
			return facet.Histogram
		default:
			return facet.Dynamic
		}
	case mapping.Date:
		if len(spec.Ranges) > 0 {
			return facet.DateRange
		}
		return facet.DateHistogram
	case mapping.GeoPoint, mapping.Location:
		return facet.GeoDistance
	case mapping.Keyword, mapping.Text, mapping.Boolean, mapping.Nested, mapping.Category,
		mapping.Stock, mapping.Select, mapping.Reference:
		return facet.Terms
	}
	return facet.Terms
}

func orderBy(order string) string {
	if order == facet.OrderKey {
		return domagg.OrderKey
	}
	return domagg.OrderCount
}

func dateFormat(f mapping.Field, spec facet.Spec) string {
	if spec.Format != "" {
		return spec.Format
	}
	return f.DateFormat()
}
