package query

// Bool combines clauses: must and filter are AND, should is OR bounded by MinimumShouldMatch,
// must_not excludes.
type Bool struct {
	Meta
	Must               []Node
	Should             []Node
	MustNot            []Node
	Filter             []Node
	MinimumShouldMatch string
}

// Kind implements Node.
func (Bool) Kind() Kind { return KindBool }

// Source implements Node.
func (q Bool) Source() map[string]any {
	body := map[string]any{}
	if len(q.Must) > 0 {
		body["must"] = sources(q.Must)
	}
	if len(q.Should) > 0 {
		body["should"] = sources(q.Should)
	}
	if len(q.MustNot) > 0 {
		body["must_not"] = sources(q.MustNot)
	}
	if len(q.Filter) > 0 {
		body["filter"] = sources(q.Filter)
	}
	if q.MinimumShouldMatch != "" {
		body["minimum_should_match"] = q.MinimumShouldMatch
	}
	return map[string]any{"bool": q.decorate(body)}
}

// Filtered scores documents with Query and restricts them with Filter.
// Without Query it renders as constant_score.
type Filtered struct {
	Meta
	Query  Node
	Filter Node
}

// Kind implements Node.
func (Filtered) Kind() Kind { return KindFiltered }

// Source implements Node.
func (q Filtered) Source() map[string]any {
	switch {
	case q.Filter == nil && q.Query == nil:
		return MatchAll{Meta: q.Meta}.Source()
	case q.Filter == nil:
		return Bool{Meta: q.Meta, Must: []Node{q.Query}}.Source()
	case q.Query == nil:
		return map[string]any{"constant_score": q.decorate(map[string]any{
			"filter": q.Filter.Source(),
		})}
	}
	return map[string]any{"bool": q.decorate(map[string]any{
		"must":   []any{q.Query.Source()},
		"filter": q.Filter.Source(),
	})}
}

// Not excludes documents matched by Query.
type Not struct {
	Meta
	Query Node
}

// Kind implements Node.
func (Not) Kind() Kind { return KindNot }

// Source implements Node.
func (q Not) Source() map[string]any {
	return map[string]any{"bool": q.decorate(map[string]any{
		"must_not": []any{q.Query.Source()},
	})}
}

// Score modes of nested queries.
const (
	ScoreModeNone = "none"
	ScoreModeAvg  = "avg"
	ScoreModeMax  = "max"
	ScoreModeMin  = "min"
	ScoreModeSum  = "sum"
)

// Nested runs Query against the nested documents under Path.
// Build it with NewNested so the scope invariant is checked.
type Nested struct {
	Meta
	Path      string
	Query     Node
	ScoreMode string // empty means ScoreModeNone
}

// NewNested creates a Nested node. Every field referenced by inner must live under path.
func NewNested(path string, inner Node) (Nested, error) {
	if err := CheckScope(path, inner); err != nil {
		return Nested{}, err
	}
	return Nested{Path: path, Query: inner}, nil
}

// Kind implements Node.
func (Nested) Kind() Kind { return KindNested }

// Source implements Node.
func (q Nested) Source() map[string]any {
	mode := q.ScoreMode
	if mode == "" {
		mode = ScoreModeNone
	}
	return map[string]any{"nested": q.decorate(map[string]any{
		"path":       q.Path,
		"query":      q.Query.Source(),
		"score_mode": mode,
	})}
}

// FieldValueFactor scores with a numeric document field.
type FieldValueFactor struct {
	Field    string
	Factor   float64
	Modifier string
	Missing  float64
}

// Function is one scoring function of a FunctionScore query.
type Function struct {
	Filter           Node
	Weight           float64
	FieldValueFactor *FieldValueFactor
	Script           string
}

func (f Function) source() map[string]any {
	out := map[string]any{}
	if f.Filter != nil {
		out["filter"] = f.Filter.Source()
	}
	if f.Weight != 0 {
		out["weight"] = f.Weight
	}
	if fvf := f.FieldValueFactor; fvf != nil {
		body := map[string]any{"field": fvf.Field}
		if fvf.Factor != 0 {
			body["factor"] = fvf.Factor
		}
		if fvf.Modifier != "" {
			body["modifier"] = fvf.Modifier
		}
		if fvf.Missing != 0 {
			body["missing"] = fvf.Missing
		}
		out["field_value_factor"] = body
	}
	if f.Script != "" {
		out["script_score"] = map[string]any{"script": map[string]any{"source": f.Script}}
	}
	return out
}

// FunctionScore rescores Query with Functions.
type FunctionScore struct {
	Meta
	Query     Node
	Functions []Function
	ScoreMode string
	BoostMode string
}

// Kind implements Node.
func (FunctionScore) Kind() Kind { return KindFunctionScore }

// Source implements Node.
func (q FunctionScore) Source() map[string]any {
	body := map[string]any{}
	if q.Query != nil {
		body["query"] = q.Query.Source()
	}
	fns := make([]any, len(q.Functions))
	for i, f := range q.Functions {
		fns[i] = f.source()
	}
	body["functions"] = fns
	if q.ScoreMode != "" {
		body["score_mode"] = q.ScoreMode
	}
	if q.BoostMode != "" {
		body["boost_mode"] = q.BoostMode
	}
	return map[string]any{"function_score": q.decorate(body)}
}
