// Package rule holds the product rule tree: nested all/any combinations of attribute
// conditions, as authored in the back office.
package rule

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/searchc/internal/domain"
)

// Node types of the serialized tree.
const (
	TypeCombination = "combination"
	TypeAttribute   = "attribute"
)

// Aggregator joins the children of a combination.
type Aggregator string

// Aggregators.
const (
	All Aggregator = "all"
	Any Aggregator = "any"
)

// Node is a Combination or an Attribute.
type Node interface {
	// Source renders the node back into its serialized form.
	Source() map[string]any
}

// Combination joins children with All or Any. A false Value negates every child.
type Combination struct {
	Aggregator Aggregator
	Value      bool
	Children   []Node
}

// Source implements Node.
func (c Combination) Source() map[string]any {
	children := make([]any, len(c.Children))
	for i, ch := range c.Children {
		children[i] = ch.Source()
	}
	return map[string]any{
		"type":     TypeCombination,
		"operator": string(c.Aggregator),
		"value":    c.Value,
		"children": children,
	}
}

// Attribute is a condition on one field.
type Attribute struct {
	Field         string `json:"field" validate:"required"`
	AttributeType string `json:"attribute_type" validate:"required"`
	Operator      string `json:"operator" validate:"required"`
	Value         any    `json:"value"`
}

// Source implements Node.
func (a Attribute) Source() map[string]any {
	return map[string]any{
		"type":           TypeAttribute,
		"field":          a.Field,
		"attribute_type": a.AttributeType,
		"operator":       a.Operator,
		"value":          a.Value,
	}
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}()

// ParseJSON decodes a serialized rule tree.
func ParseJSON(data []byte) (Combination, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Combination{}, domain.NewRuleError(domain.ErrInvalidRule, "", err.Error())
	}
	return Parse(raw)
}

// Parse builds a rule tree from plain nested maps. The root must be a combination.
func Parse(raw map[string]any) (Combination, error) {
	n, err := parseNode(raw)
	if err != nil {
		return Combination{}, err
	}
	root, ok := n.(Combination)
	if !ok {
		return Combination{}, domain.NewRuleError(domain.ErrInvalidRule, "", "root must be a combination")
	}
	return root, nil
}

func parseNode(raw map[string]any) (Node, error) {
	typ, _ := raw["type"].(string)
	switch typ {
	case TypeCombination:
		return parseCombination(raw)
	case TypeAttribute:
		return parseAttribute(raw)
	default:
		return nil, domain.NewRuleError(domain.ErrInvalidRule, "", fmt.Sprintf("unknown node type %q", typ))
	}
}

func parseCombination(raw map[string]any) (Node, error) {
	c := Combination{Aggregator: All, Value: true}
	if op, ok := raw["operator"]; ok {
		s, _ := op.(string)
		switch Aggregator(s) {
		case All, Any:
			c.Aggregator = Aggregator(s)
		default:
			return nil, domain.NewRuleError(domain.ErrInvalidRule, "", fmt.Sprintf("unknown combination operator %v", op))
		}
	}
	if v, ok := raw["value"]; ok {
		b, err := parseBool(v)
		if err != nil {
			return nil, domain.NewRuleError(domain.ErrInvalidRule, "", err.Error())
		}
		c.Value = b
	}

	switch children := raw["children"].(type) {
	case nil:
	case []any:
		for i, ch := range children {
			m, ok := ch.(map[string]any)
			if !ok {
				return nil, domain.NewRuleError(domain.ErrInvalidRule, "", fmt.Sprintf("child %d is not an object", i))
			}
			n, err := parseNode(m)
			if err != nil {
				return nil, err
			}
			c.Children = append(c.Children, n)
		}
	default:
		return nil, domain.NewRuleError(domain.ErrInvalidRule, "", "children must be a list")
	}
	return c, nil
}

func parseAttribute(raw map[string]any) (Node, error) {
	a := Attribute{Value: raw["value"]}
	a.Field, _ = raw["field"].(string)
	a.AttributeType, _ = raw["attribute_type"].(string)
	a.Operator, _ = raw["operator"].(string)
	if err := validate.Struct(a); err != nil {
		return nil, formatValidationError(a.Field, err)
	}
	return a, nil
}

func formatValidationError(field string, err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return domain.NewRuleError(domain.ErrInvalidRule, field, err.Error())
	}
	for _, e := range validationErrs {
		if e.Field() == "field" {
			return domain.NewRuleError(domain.ErrMissingField, "", "attribute has no field")
		}
	}
	e := validationErrs[0]
	return domain.NewRuleError(domain.ErrInvalidRule, field, e.Field()+" is "+e.Tag())
}

func parseBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, fmt.Errorf("invalid combination value %q", t)
		}
		return b, nil
	case float64:
		return t != 0, nil
	}
	return false, fmt.Errorf("invalid combination value %v", v)
}

// Canonical renders a tree as deterministic JSON: same tree, same bytes.
func Canonical(root Combination) ([]byte, error) {
	return json.Marshal(root.Source())
}
