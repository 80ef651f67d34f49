package filter

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"github.com/kailas-cloud/searchc/internal/domain"
	"github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
)

// Condition operators.
const (
	OpEq    = "eq"
	OpNeq   = "neq"
	OpIn    = "in"
	OpNin   = "nin"
	OpLt    = "lt"
	OpLte   = "lte"
	OpGt    = "gt"
	OpGte   = "gte"
	OpMoreq = "moreq"
	OpLike  = "like"
	OpExist = "exist"
)

// condition compiles a scalar, a list or an operator map on property. normalize, when set,
// converts every term value.
func condition(
	f mapping.Field, property string, cond any, sctx container.Context, normalize func(any) any,
) (query.Node, error) {
	ops, ok := cond.(map[string]any)
	if !ok {
		return terms(property, cond, normalize), nil
	}

	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var (
		clauses []query.Node
		bounds  query.Bounds
	)
	for _, op := range keys {
		v := ops[op]
		switch op {
		case OpEq, OpIn:
			clauses = append(clauses, terms(property, v, normalize))
		case OpNeq, OpNin:
			clauses = append(clauses, query.Not{Query: terms(property, v, normalize)})
		case OpLt:
			bounds.Lt = v
		case OpLte:
			bounds.Lte = v
		case OpGt:
			bounds.Gt = v
		case OpGte, OpMoreq:
			bounds.Gte = v
		case OpLike:
			if f.IsSearchable() {
				clauses = append(clauses, query.Match{Field: f.Name(), Query: v})
			} else {
				clauses = append(clauses, terms(property, v, normalize))
			}
		case OpExist:
			exists, err := toBool(v)
			if err != nil {
				return nil, fmt.Errorf("field %q: exist: %w", f.Name(), err)
			}
			if exists {
				clauses = append(clauses, query.Exists{Field: property})
			} else {
				clauses = append(clauses, query.Missing{Field: property})
			}
		default:
			return nil, domain.NewUnsupportedCondition(f.Name(), op)
		}
	}

	if !bounds.IsEmpty() {
		r, err := rangeNode(f, property, bounds, sctx)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, r)
	}
	if len(clauses) == 0 {
		return nil, fmt.Errorf("field %q: empty condition", f.Name())
	}
	return query.And(clauses...), nil
}

func rangeNode(f mapping.Field, property string, b query.Bounds, sctx container.Context) (query.Node, error) {
	switch {
	case f.IsGeo():
		if b.Gt != nil {
			return nil, domain.NewUnsupportedCondition(f.Name(), OpGt)
		}
		if b.Gte != nil {
			return nil, domain.NewUnsupportedCondition(f.Name(), OpGte)
		}
		if sctx.ReferenceLocation == nil {
			return nil, fmt.Errorf("field %q: %w: distance filter needs a reference location",
				f.Name(), domain.ErrMissingContext)
		}
		radius := b.Lte
		if radius == nil {
			radius = b.Lt
		}
		d, err := toFloat(radius)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name(), err)
		}
		return query.GeoDistance{Field: property, Distance: d, Location: *sctx.ReferenceLocation}, nil
	case f.IsDate():
		return query.DateRange{Field: property, Format: f.DateFormat(), Bounds: b}, nil
	default:
		return query.Range{Field: property, Bounds: b}, nil
	}
}

// terms builds a Terms node, a scalar becoming a one element list.
func terms(property string, v any, normalize func(any) any) query.Terms {
	values := toList(v)
	if normalize != nil {
		for i := range values {
			values[i] = normalize(values[i])
		}
	}
	return query.Terms{Field: property, Values: values}
}

// toList flattens any slice into []any, keeping order.
func toList(v any) []any {
	if l, ok := v.([]any); ok {
		out := make([]any, len(l))
		copy(out, l)
		return out
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(t, 64)
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}
