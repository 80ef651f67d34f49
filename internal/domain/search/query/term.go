package query

import (
	"strconv"

	"github.com/kailas-cloud/searchc/internal/domain/geo"
)

// Term matches an exact value.
type Term struct {
	Meta
	Field string
	Value any
}

// Kind implements Node.
func (Term) Kind() Kind { return KindTerm }

// Source implements Node.
func (q Term) Source() map[string]any {
	return map[string]any{"term": map[string]any{
		q.Field: q.decorate(map[string]any{"value": q.Value}),
	}}
}

// Terms matches any of Values.
type Terms struct {
	Meta
	Field  string
	Values []any
}

// NewTerms creates a Terms node, copying values.
func NewTerms(field string, values ...any) Terms {
	v := make([]any, len(values))
	copy(v, values)
	return Terms{Field: field, Values: v}
}

// Kind implements Node.
func (Terms) Kind() Kind { return KindTerms }

// Source implements Node.
func (q Terms) Source() map[string]any {
	values := q.Values
	if values == nil {
		values = []any{}
	}
	return map[string]any{"terms": q.decorate(map[string]any{q.Field: values})}
}

// Bounds holds range limits. Nil members are open.
type Bounds struct {
	Gt  any
	Gte any
	Lt  any
	Lte any
}

// IsEmpty reports whether no limit is set.
func (b Bounds) IsEmpty() bool {
	return b.Gt == nil && b.Gte == nil && b.Lt == nil && b.Lte == nil
}

func (b Bounds) into(body map[string]any) map[string]any {
	if b.Gt != nil {
		body["gt"] = b.Gt
	}
	if b.Gte != nil {
		body["gte"] = b.Gte
	}
	if b.Lt != nil {
		body["lt"] = b.Lt
	}
	if b.Lte != nil {
		body["lte"] = b.Lte
	}
	return body
}

// Range bounds a numeric or keyword field.
type Range struct {
	Meta
	Field string
	Bounds
}

// Kind implements Node.
func (Range) Kind() Kind { return KindRange }

// Source implements Node.
func (q Range) Source() map[string]any {
	return map[string]any{"range": map[string]any{
		q.Field: q.decorate(q.into(map[string]any{})),
	}}
}

// DateRange bounds a date field, parsing limits with Format.
type DateRange struct {
	Meta
	Field  string
	Format string
	Bounds
}

// Kind implements Node.
func (DateRange) Kind() Kind { return KindDateRange }

// Source implements Node.
func (q DateRange) Source() map[string]any {
	body := q.into(map[string]any{})
	if q.Format != "" {
		body["format"] = q.Format
	}
	return map[string]any{"range": map[string]any{q.Field: q.decorate(body)}}
}

// Distance units.
const (
	UnitKilometers = "km"
	UnitMeters     = "m"
)

// GeoDistance matches points within Distance of Location.
type GeoDistance struct {
	Meta
	Field        string
	Distance     float64
	Unit         string // empty means UnitKilometers
	Location     geo.Point
	DistanceType string
}

// Kind implements Node.
func (GeoDistance) Kind() Kind { return KindGeoDistance }

// DistanceString renders the radius with its unit, e.g. "10km".
func (q GeoDistance) DistanceString() string {
	unit := q.Unit
	if unit == "" {
		unit = UnitKilometers
	}
	return strconv.FormatFloat(q.Distance, 'f', -1, 64) + unit
}

// Source implements Node.
func (q GeoDistance) Source() map[string]any {
	body := map[string]any{
		"distance": q.DistanceString(),
		q.Field:    q.Location.Source(),
	}
	if q.DistanceType != "" {
		body["distance_type"] = q.DistanceType
	}
	return map[string]any{"geo_distance": q.decorate(body)}
}

// Exists matches documents with a value for Field.
type Exists struct {
	Meta
	Field string
}

// Kind implements Node.
func (Exists) Kind() Kind { return KindExists }

// Source implements Node.
func (q Exists) Source() map[string]any {
	return map[string]any{"exists": q.decorate(map[string]any{"field": q.Field})}
}

// Missing matches documents without a value for Field.
type Missing struct {
	Meta
	Field string
}

// Kind implements Node.
func (Missing) Kind() Kind { return KindMissing }

// Source implements Node.
func (q Missing) Source() map[string]any {
	return map[string]any{"bool": q.decorate(map[string]any{
		"must_not": []any{Exists{Field: q.Field}.Source()},
	})}
}
