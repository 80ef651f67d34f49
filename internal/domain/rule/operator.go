package rule

import (
	"strings"

	"github.com/kailas-cloud/searchc/internal/domain/mapping"
)

// Attribute operators. Each one may be prefixed with NegationPrefix.
const (
	OpEq    = "eq"
	OpIn    = "in"
	OpMatch = "match"
	OpGt    = "gt"
	OpGte   = "gte"
	OpLt    = "lt"
	OpLte   = "lte"
)

// NegationPrefix turns an operator into its negation ("!in").
const NegationPrefix = "!"

// SplitOperator separates the negation prefix from the base operator.
func SplitOperator(op string) (base string, negated bool) {
	if strings.HasPrefix(op, NegationPrefix) {
		return strings.TrimPrefix(op, NegationPrefix), true
	}
	return op, false
}

// Operators returns the base operators rules may use on a field type, nil when the type
// cannot be targeted by rules.
func Operators(t mapping.Type) []string {
	switch t {
	case mapping.Text, mapping.Keyword, mapping.Reference:
		return []string{OpEq, OpIn, OpMatch}
	case mapping.Select, mapping.Category:
		return []string{OpEq, OpIn}
	case mapping.Integer, mapping.Float, mapping.Price:
		return []string{OpEq, OpIn, OpGt, OpGte, OpLt, OpLte}
	case mapping.Date:
		return []string{OpEq, OpGt, OpGte, OpLt, OpLte}
	case mapping.Boolean, mapping.Stock:
		return []string{OpEq}
	case mapping.GeoPoint, mapping.Location, mapping.Nested:
		return nil
	}
	return nil
}

// IsRuleEnabled reports whether rules can target a field type.
func IsRuleEnabled(t mapping.Type) bool { return len(Operators(t)) > 0 }

// Allows reports whether op (negated or not) is valid on t. Boolean-like types have no
// negated form.
func Allows(t mapping.Type, op string) bool {
	base, negated := SplitOperator(op)
	if negated && (t == mapping.Boolean || t == mapping.Stock) {
		return false
	}
	for _, allowed := range Operators(t) {
		if allowed == base {
			return true
		}
	}
	return false
}
