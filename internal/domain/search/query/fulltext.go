package query

// Match operators.
const (
	OperatorOr  = "or"
	OperatorAnd = "and"
)

// Match runs an analyzed fulltext match on one field.
type Match struct {
	Meta
	Field              string
	Query              any
	Operator           string
	MinimumShouldMatch string
}

// Kind implements Node.
func (Match) Kind() Kind { return KindMatch }

// Source implements Node.
func (q Match) Source() map[string]any {
	body := map[string]any{"query": q.Query}
	if q.Operator != "" {
		body["operator"] = q.Operator
	}
	if q.MinimumShouldMatch != "" {
		body["minimum_should_match"] = q.MinimumShouldMatch
	}
	return map[string]any{"match": map[string]any{q.Field: q.decorate(body)}}
}

// Multi-match types.
const (
	MultiMatchBestFields  = "best_fields"
	MultiMatchMostFields  = "most_fields"
	MultiMatchCrossFields = "cross_fields"
	MultiMatchPhrase      = "phrase"
)

// MultiMatch runs a match over several weighted fields ("name^2").
type MultiMatch struct {
	Meta
	Query              string
	Fields             []string
	Type               string
	TieBreaker         float64
	MinimumShouldMatch string
	CutoffFrequency    float64
	Fuzziness          string
	PrefixLength       int
	MaxExpansions      int
	Operator           string
}

// Kind implements Node.
func (MultiMatch) Kind() Kind { return KindMultiMatch }

// Source implements Node.
func (q MultiMatch) Source() map[string]any {
	fields := make([]any, len(q.Fields))
	for i, f := range q.Fields {
		fields[i] = f
	}
	body := map[string]any{"query": q.Query, "fields": fields}
	if q.Type != "" {
		body["type"] = q.Type
	}
	if q.TieBreaker != 0 {
		body["tie_breaker"] = q.TieBreaker
	}
	if q.MinimumShouldMatch != "" {
		body["minimum_should_match"] = q.MinimumShouldMatch
	}
	if q.CutoffFrequency != 0 {
		body["cutoff_frequency"] = q.CutoffFrequency
	}
	if q.Fuzziness != "" {
		body["fuzziness"] = q.Fuzziness
	}
	if q.PrefixLength != 0 {
		body["prefix_length"] = q.PrefixLength
	}
	if q.MaxExpansions != 0 {
		body["max_expansions"] = q.MaxExpansions
	}
	if q.Operator != "" {
		body["operator"] = q.Operator
	}
	return map[string]any{"multi_match": q.decorate(body)}
}

// Common splits query terms into low and high frequency groups around CutoffFrequency.
type Common struct {
	Meta
	Field              string
	Query              string
	CutoffFrequency    float64
	MinimumShouldMatch string
}

// Kind implements Node.
func (Common) Kind() Kind { return KindCommon }

// Source implements Node.
func (q Common) Source() map[string]any {
	body := map[string]any{
		"query":            q.Query,
		"cutoff_frequency": q.CutoffFrequency,
	}
	if q.MinimumShouldMatch != "" {
		body["minimum_should_match"] = q.MinimumShouldMatch
	}
	return map[string]any{"common": map[string]any{q.Field: q.decorate(body)}}
}

// MatchPhrasePrefix matches a phrase whose last term is a prefix.
type MatchPhrasePrefix struct {
	Meta
	Field         string
	Query         string
	MaxExpansions int
}

// Kind implements Node.
func (MatchPhrasePrefix) Kind() Kind { return KindMatchPhrasePrefix }

// Source implements Node.
func (q MatchPhrasePrefix) Source() map[string]any {
	body := map[string]any{"query": q.Query}
	if q.MaxExpansions != 0 {
		body["max_expansions"] = q.MaxExpansions
	}
	return map[string]any{"match_phrase_prefix": map[string]any{q.Field: q.decorate(body)}}
}

// MoreLikeThis finds documents similar to Like items (texts or {"_id": id} objects).
type MoreLikeThis struct {
	Meta
	Fields             []string
	Like               []any
	MinTermFreq        int
	MinDocFreq         int
	MaxQueryTerms      int
	MinimumShouldMatch string
	BoostTerms         float64
	Include            bool
}

// Kind implements Node.
func (MoreLikeThis) Kind() Kind { return KindMoreLikeThis }

// Source implements Node.
func (q MoreLikeThis) Source() map[string]any {
	fields := make([]any, len(q.Fields))
	for i, f := range q.Fields {
		fields[i] = f
	}
	like := make([]any, len(q.Like))
	copy(like, q.Like)
	body := map[string]any{"fields": fields, "like": like}
	if q.MinTermFreq != 0 {
		body["min_term_freq"] = q.MinTermFreq
	}
	if q.MinDocFreq != 0 {
		body["min_doc_freq"] = q.MinDocFreq
	}
	if q.MaxQueryTerms != 0 {
		body["max_query_terms"] = q.MaxQueryTerms
	}
	if q.MinimumShouldMatch != "" {
		body["minimum_should_match"] = q.MinimumShouldMatch
	}
	if q.BoostTerms != 0 {
		body["boost_terms"] = q.BoostTerms
	}
	if q.Include {
		body["include"] = true
	}
	return map[string]any{"more_like_this": q.decorate(body)}
}

// SpanTerm is the span form of Term.
type SpanTerm struct {
	Meta
	Field string
	Value string
}

// Kind implements Node.
func (SpanTerm) Kind() Kind { return KindSpanTerm }

// Source implements Node.
func (q SpanTerm) Source() map[string]any {
	return map[string]any{"span_term": map[string]any{
		q.Field: q.decorate(map[string]any{"value": q.Value}),
	}}
}

// SpanNear matches span clauses within Slop positions of each other.
type SpanNear struct {
	Meta
	Clauses []Node
	Slop    int
	InOrder bool
}

// Kind implements Node.
func (SpanNear) Kind() Kind { return KindSpanNear }

// Source implements Node.
func (q SpanNear) Source() map[string]any {
	return map[string]any{"span_near": q.decorate(map[string]any{
		"clauses":  sources(q.Clauses),
		"slop":     q.Slop,
		"in_order": q.InOrder,
	})}
}
