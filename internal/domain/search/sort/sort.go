package sort

import (
	"fmt"

	"github.com/kailas-cloud/searchc/internal/domain/geo"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
)

// Direction is a sort direction.
type Direction string

// Directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection validates a direction, defaulting to Asc for an empty string.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "":
		return Asc, nil
	case Asc, Desc:
		return Direction(s), nil
	}
	return "", fmt.Errorf("invalid sort direction %q", s)
}

// Missing policies.
const (
	MissingFirst = "_first"
	MissingLast  = "_last"
)

// DefaultMissing returns the missing policy of a direction: _last for asc, _first for desc.
func DefaultMissing(d Direction) string {
	if d == Desc {
		return MissingFirst
	}
	return MissingLast
}

// ScoreField is the pseudo field sorting by relevance.
const ScoreField = "_score"

// Modes picking one value out of multi-valued fields.
const (
	ModeMin = "min"
	ModeMax = "max"
	ModeAvg = "avg"
)

// Order is one compiled sort clause.
type Order interface {
	// Field returns the sorted property.
	Field() string
	Direction() Direction
	// Source renders the clause into engine DSL.
	Source() map[string]any
}

// Standard sorts on a plain field.
type Standard struct {
	Name    string
	Dir     Direction
	Missing string // empty means DefaultMissing(Dir)
}

// NewStandard creates a Standard order with the default missing policy.
func NewStandard(field string, d Direction) Standard {
	return Standard{Name: field, Dir: d}
}

// Field implements Order.
func (o Standard) Field() string { return o.Name }

// Direction implements Order.
func (o Standard) Direction() Direction { return orDefault(o.Dir) }

// Source implements Order.
func (o Standard) Source() map[string]any {
	body := map[string]any{"order": string(o.Direction())}
	if o.Name != ScoreField {
		body["missing"] = missingOr(o.Missing, o.Direction())
	}
	return map[string]any{o.Name: body}
}

// Nested sorts on a field of nested documents, optionally restricted by Filter.
type Nested struct {
	Name    string
	Dir     Direction
	Missing string
	Path    string
	Filter  query.Node
	Mode    string
}

// Field implements Order.
func (o Nested) Field() string { return o.Name }

// Direction implements Order.
func (o Nested) Direction() Direction { return orDefault(o.Dir) }

// Source implements Order.
func (o Nested) Source() map[string]any {
	nested := map[string]any{"path": o.Path}
	if o.Filter != nil {
		nested["filter"] = o.Filter.Source()
	}
	body := map[string]any{
		"order":   string(o.Direction()),
		"missing": missingOr(o.Missing, o.Direction()),
		"nested":  nested,
	}
	if o.Mode != "" {
		body["mode"] = o.Mode
	}
	return map[string]any{o.Name: body}
}

// Script sorts on a computed value.
type Script struct {
	Type   string // "number" or "string", empty means "number"
	Code   string
	Lang   string
	Params map[string]any
	Dir    Direction
}

// Field implements Order.
func (o Script) Field() string { return "_script" }

// Direction implements Order.
func (o Script) Direction() Direction { return orDefault(o.Dir) }

// Source implements Order.
func (o Script) Source() map[string]any {
	script := map[string]any{"source": o.Code}
	if o.Lang != "" {
		script["lang"] = o.Lang
	}
	if len(o.Params) > 0 {
		script["params"] = o.Params
	}
	typ := o.Type
	if typ == "" {
		typ = "number"
	}
	return map[string]any{"_script": map[string]any{
		"type":   typ,
		"script": script,
		"order":  string(o.Direction()),
	}}
}

// Distance sorts by distance from Location.
type Distance struct {
	Name           string
	Location       geo.Point
	Unit           string
	Mode           string
	DistanceType   string
	IgnoreUnmapped bool
	Dir            Direction
}

// Field implements Order.
func (o Distance) Field() string { return o.Name }

// Direction implements Order.
func (o Distance) Direction() Direction { return orDefault(o.Dir) }

// Source implements Order.
func (o Distance) Source() map[string]any {
	body := map[string]any{
		o.Name:            o.Location.Source(),
		"order":           string(o.Direction()),
		"ignore_unmapped": o.IgnoreUnmapped,
	}
	unit := o.Unit
	if unit == "" {
		unit = query.UnitKilometers
	}
	body["unit"] = unit
	if o.Mode != "" {
		body["mode"] = o.Mode
	}
	if o.DistanceType != "" {
		body["distance_type"] = o.DistanceType
	}
	return map[string]any{"_geo_distance": body}
}

func orDefault(d Direction) Direction {
	if d == "" {
		return Asc
	}
	return d
}

func missingOr(m string, d Direction) string {
	if m == "" {
		return DefaultMissing(d)
	}
	return m
}

// Sources renders a list of orders.
func Sources(orders []Order) []any {
	out := make([]any, len(orders))
	for i, o := range orders {
		out[i] = o.Source()
	}
	return out
}

// Spec is a requested sort: a field code and a direction.
type Spec struct {
	Field     string
	Direction Direction
}
