// Package rule compiles product rule trees into filter queries.
package rule

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/searchc/internal/domain"
	"github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	domrule "github.com/kailas-cloud/searchc/internal/domain/rule"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
)

const priceGroupProperty = "group_id"

// Engine compiles rule trees. It is pure and safe for concurrent use: the same tree and
// mapping always compile to the same query.
type Engine struct{}

// NewEngine creates an Engine.
func NewEngine() *Engine { return &Engine{} }

// Compile validates root against the container mapping and compiles it. A tree without
// conditions compiles to nil.
func (e *Engine) Compile(root domrule.Combination, cfg container.Configuration) (query.Node, error) {
	return e.combination(root, cfg.Mapping())
}

func (e *Engine) node(n domrule.Node, m mapping.Mapping) (query.Node, error) {
	switch t := n.(type) {
	case domrule.Combination:
		return e.combination(t, m)
	case domrule.Attribute:
		return e.attribute(t, m)
	}
	return nil, domain.NewRuleError(domain.ErrInvalidRule, "", fmt.Sprintf("unknown node %T", n))
}

func (e *Engine) combination(c domrule.Combination, m mapping.Mapping) (query.Node, error) {
	var children []query.Node
	for _, ch := range c.Children {
		q, err := e.node(ch, m)
		if err != nil {
			return nil, err
		}
		if q == nil {
			continue
		}
		if !c.Value {
			q = query.Bool{MustNot: []query.Node{q}}
		}
		children = append(children, q)
	}
	if len(children) == 0 {
		return nil, nil
	}
	if c.Aggregator == domrule.Any {
		return query.Bool{Should: children, MinimumShouldMatch: "1"}, nil
	}
	return query.Bool{Must: children}, nil
}

func (e *Engine) attribute(a domrule.Attribute, m mapping.Mapping) (query.Node, error) {
	f, ok := m.Field(a.Field)
	if !ok {
		return nil, domain.NewRuleError(domain.ErrFieldNotFound, a.Field, "field does not exist")
	}
	if !domrule.IsRuleEnabled(f.Type()) {
		return nil, domain.NewRuleError(domain.ErrFieldNotRuleEnabled, a.Field,
			fmt.Sprintf("%s fields cannot be used in rules", f.Type()))
	}
	if a.AttributeType != string(f.Type()) {
		return nil, domain.NewRuleError(domain.ErrAttributeTypeMismatch, a.Field,
			fmt.Sprintf("rule expects %s, field is %s", a.AttributeType, f.Type()))
	}
	if !domrule.Allows(f.Type(), a.Operator) {
		return nil, domain.NewRuleError(domain.ErrUnsupportedOperator, a.Field,
			fmt.Sprintf("operator %q is not allowed on %s fields", a.Operator, f.Type()))
	}

	base, negated := domrule.SplitOperator(a.Operator)
	q, err := e.condition(f, base, a.Value)
	if err != nil {
		return nil, err
	}
	if f.Type() == mapping.Price {
		q = query.Bool{Must: []query.Node{
			query.Term{Field: f.Name() + "." + priceGroupProperty, Value: container.DefaultPriceGroup},
			q,
		}}
	}
	if f.IsNested() {
		if q, err = query.NewNested(f.NestedPath(), q); err != nil {
			return nil, err
		}
	}
	if negated {
		q = query.Bool{MustNot: []query.Node{q}}
	}
	return q, nil
}

func (e *Engine) condition(f mapping.Field, op string, value any) (query.Node, error) {
	property := f.FilterProperty()

	if op == domrule.OpIn {
		list, ok := value.([]any)
		if !ok || len(list) == 0 {
			return nil, domain.NewRuleError(domain.ErrInvalidValueType, f.Name(), "in expects a non-empty list")
		}
		values := make([]any, len(list))
		for i, v := range list {
			s, err := scalar(f, v)
			if err != nil {
				return nil, err
			}
			values[i] = s
		}
		return query.Terms{Field: property, Values: values}, nil
	}

	v, err := scalar(f, value)
	if err != nil {
		return nil, err
	}
	switch op {
	case domrule.OpEq:
		if f.Type() == mapping.Boolean || f.Type() == mapping.Stock {
			return query.Term{Field: property, Value: v}, nil
		}
		return query.Terms{Field: property, Values: []any{v}}, nil
	case domrule.OpMatch:
		return query.Match{Field: f.Name(), Query: v}, nil
	case domrule.OpGt:
		return rangeOf(f, property, query.Bounds{Gt: v}), nil
	case domrule.OpGte:
		return rangeOf(f, property, query.Bounds{Gte: v}), nil
	case domrule.OpLt:
		return rangeOf(f, property, query.Bounds{Lt: v}), nil
	case domrule.OpLte:
		return rangeOf(f, property, query.Bounds{Lte: v}), nil
	}
	return nil, domain.NewRuleError(domain.ErrUnsupportedOperator, f.Name(), fmt.Sprintf("operator %q", op))
}

func rangeOf(f mapping.Field, property string, b query.Bounds) query.Node {
	if f.IsDate() {
		return query.DateRange{Field: property, Format: f.DateFormat(), Bounds: b}
	}
	return query.Range{Field: property, Bounds: b}
}

// scalar checks v against the value kind of f and normalizes it to its JSON form: float64
// for numbers, string for text and ids, bool for flags.
func scalar(f mapping.Field, v any) (any, error) {
	invalid := func(want string) error {
		return domain.NewRuleError(domain.ErrInvalidValueType, f.Name(), fmt.Sprintf("expected %s, got %T", want, v))
	}
	switch f.Type() {
	case mapping.Integer, mapping.Float, mapping.Price:
		switch t := v.(type) {
		case float64:
			return t, nil
		case int:
			return float64(t), nil
		case string:
			n, err := strconv.ParseFloat(t, 64)
			if err != nil {
				return nil, invalid("a number")
			}
			return n, nil
		}
		return nil, invalid("a number")
	case mapping.Boolean, mapping.Stock:
		switch t := v.(type) {
		case bool:
			return t, nil
		case string:
			b, err := strconv.ParseBool(t)
			if err != nil {
				return nil, invalid("a boolean")
			}
			return b, nil
		case float64:
			return t != 0, nil
		}
		return nil, invalid("a boolean")
	case mapping.Date:
		if s, ok := v.(string); ok && s != "" {
			return s, nil
		}
		return nil, invalid("a date string")
	case mapping.Text, mapping.Keyword, mapping.Reference, mapping.Select, mapping.Category:
		switch t := v.(type) {
		case string:
			return t, nil
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), nil
		case int:
			return strconv.Itoa(t), nil
		}
		return nil, invalid("a string")
	case mapping.GeoPoint, mapping.Location, mapping.Nested:
	}
	return nil, invalid("a scalar")
}
