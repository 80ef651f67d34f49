package filter

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
)

// Handler compiles the condition of the field types it supports.
type Handler interface {
	Supports(f mapping.Field) bool
	Build(f mapping.Field, cond any, sctx container.Context) (query.Node, error)
}

// DefaultHandlers returns the registry in resolution order. The last handler supports every
// field.
func DefaultHandlers() []Handler {
	return []Handler{
		priceHandler{},
		stockHandler{},
		keywordHandler{types: []mapping.Type{mapping.Category, mapping.Select}},
		defaultHandler{},
	}
}

// defaultHandler compiles operators on the field's filter property.
type defaultHandler struct{}

func (defaultHandler) Supports(mapping.Field) bool { return true }

func (defaultHandler) Build(f mapping.Field, cond any, sctx container.Context) (query.Node, error) {
	return condition(f, f.FilterProperty(), cond, sctx, nil)
}

// priceHandler restricts price conditions to the price group of the request.
type priceHandler struct{}

// PriceGroupProperty is the sub-property holding the customer group of a price row.
const PriceGroupProperty = "group_id"

func (priceHandler) Supports(f mapping.Field) bool { return f.Type() == mapping.Price }

func (priceHandler) Build(f mapping.Field, cond any, sctx container.Context) (query.Node, error) {
	inner, err := condition(f, f.FilterProperty(), cond, sctx, nil)
	if err != nil {
		return nil, err
	}
	group := query.Term{Field: f.Name() + "." + PriceGroupProperty, Value: sctx.PriceGroupOrDefault()}
	return query.Bool{Must: []query.Node{group, inner}}, nil
}

// stockHandler turns a scalar into a boolean term on the stock status.
type stockHandler struct{}

func (stockHandler) Supports(f mapping.Field) bool { return f.Type() == mapping.Stock }

func (stockHandler) Build(f mapping.Field, cond any, sctx container.Context) (query.Node, error) {
	if _, ok := cond.(map[string]any); ok {
		return condition(f, f.FilterProperty(), cond, sctx, nil)
	}
	b, err := toBool(cond)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.Name(), err)
	}
	return query.Term{Field: f.FilterProperty(), Value: b}, nil
}

// keywordHandler normalizes option and category ids to strings, the way they are indexed.
type keywordHandler struct {
	types []mapping.Type
}

func (h keywordHandler) Supports(f mapping.Field) bool {
	for _, t := range h.types {
		if f.Type() == t {
			return true
		}
	}
	return false
}

func (keywordHandler) Build(f mapping.Field, cond any, sctx container.Context) (query.Node, error) {
	return condition(f, f.FilterProperty(), cond, sctx, stringify)
}

func stringify(v any) any {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return v
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(t)
	case int:
		return t != 0, nil
	case float64:
		return t != 0, nil
	}
	return false, fmt.Errorf("expected a boolean, got %T", v)
}
