package query

import (
	"strings"

	"github.com/kailas-cloud/searchc/internal/domain"
)

// Fields returns every document field referenced by n, in tree order.
// Multi-match boosts ("name^2") are stripped.
func Fields(n Node) []string {
	var out []string
	collectFields(n, &out)
	return out
}

func collectFields(n Node, out *[]string) {
	switch q := n.(type) {
	case nil:
	case MatchAll:
	case Bool:
		for _, group := range [][]Node{q.Must, q.Should, q.MustNot, q.Filter} {
			for _, c := range group {
				collectFields(c, out)
			}
		}
	case Filtered:
		collectFields(q.Query, out)
		collectFields(q.Filter, out)
	case Not:
		collectFields(q.Query, out)
	case Nested:
		collectFields(q.Query, out)
	case FunctionScore:
		collectFields(q.Query, out)
		for _, f := range q.Functions {
			collectFields(f.Filter, out)
			if f.FieldValueFactor != nil {
				*out = append(*out, f.FieldValueFactor.Field)
			}
		}
	case SpanNear:
		for _, c := range q.Clauses {
			collectFields(c, out)
		}
	case Match:
		*out = append(*out, q.Field)
	case Term:
		*out = append(*out, q.Field)
	case Terms:
		*out = append(*out, q.Field)
	case Range:
		*out = append(*out, q.Field)
	case DateRange:
		*out = append(*out, q.Field)
	case GeoDistance:
		*out = append(*out, q.Field)
	case Exists:
		*out = append(*out, q.Field)
	case Missing:
		*out = append(*out, q.Field)
	case Common:
		*out = append(*out, q.Field)
	case MatchPhrasePrefix:
		*out = append(*out, q.Field)
	case SpanTerm:
		*out = append(*out, q.Field)
	case MultiMatch:
		for _, f := range q.Fields {
			*out = append(*out, stripBoost(f))
		}
	case MoreLikeThis:
		for _, f := range q.Fields {
			*out = append(*out, stripBoost(f))
		}
	}
}

func stripBoost(field string) string {
	name, _, _ := strings.Cut(field, "^")
	return name
}

// InScope reports whether field lives under the nested path.
func InScope(path, field string) bool {
	return field == path || strings.HasPrefix(field, path+".")
}

// CheckScope verifies that every field referenced by n lives under path.
func CheckScope(path string, n Node) error {
	for _, f := range Fields(n) {
		if !InScope(path, f) {
			return domain.NewInvalidNesting(f, path)
		}
	}
	return nil
}
