// Package spelling classifies how well a search text matches the indexed vocabulary.
package spelling

import "fmt"

// Type is the spelling classification of a search text.
type Type int

// Spelling types, from best to worst match.
const (
	Exact Type = iota
	MostExact
	PureStopwords
	MostFuzzy
	Fuzzy
)

var names = map[Type]string{
	Exact:         "exact",
	MostExact:     "most_exact",
	PureStopwords: "pure_stopwords",
	MostFuzzy:     "most_fuzzy",
	Fuzzy:         "fuzzy",
}

// String returns the snake_case name of t.
func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("spelling(%d)", int(t))
}

// Parse converts a snake_case name back to a Type.
func Parse(s string) (Type, error) {
	for t, n := range names {
		if n == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown spelling type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// IsExactLike reports whether the text can be searched without fuzziness.
func (t Type) IsExactLike() bool { return t == Exact || t == MostExact }

// Counts are the per-position statistics of a text. A found position that is neither a stopword
// nor an exact match only matched through the stemming analyzer.
type Counts struct {
	Total   int
	Missing int
	Stop    int
	Exact   int
}

// Classify derives the spelling type of a text from its position counts.
func Classify(c Counts) Type {
	switch {
	case c.Total == 0:
		return Exact
	case c.Stop == c.Total:
		return PureStopwords
	case c.Stop+c.Exact == c.Total:
		return Exact
	case c.Missing == 0:
		return MostExact
	case c.Missing < c.Total:
		return MostFuzzy
	default:
		return Fuzzy
	}
}
