// Package query holds the compiled query tree. Nodes are immutable values; each one knows how
// to render itself into the Elasticsearch/OpenSearch query DSL through Source.
package query

import "encoding/json"

// Kind identifies a query node type.
type Kind string

// Node kinds.
const (
	KindMatchAll          Kind = "match_all"
	KindMatch             Kind = "match"
	KindBool              Kind = "bool"
	KindFiltered          Kind = "filtered"
	KindNested            Kind = "nested"
	KindRange             Kind = "range"
	KindDateRange         Kind = "date_range"
	KindGeoDistance       Kind = "geo_distance"
	KindTerm              Kind = "term"
	KindTerms             Kind = "terms"
	KindNot               Kind = "not"
	KindMultiMatch        Kind = "multi_match"
	KindCommon            Kind = "common"
	KindExists            Kind = "exists"
	KindMissing           Kind = "missing"
	KindFunctionScore     Kind = "function_score"
	KindMoreLikeThis      Kind = "more_like_this"
	KindMatchPhrasePrefix Kind = "match_phrase_prefix"
	KindSpanNear          Kind = "span_near"
	KindSpanTerm          Kind = "span_term"
)

// Node is a compiled query tree node.
type Node interface {
	Kind() Kind
	// Source renders the node into engine DSL.
	Source() map[string]any
}

// DefaultBoost is the boost of a node that does not set one.
const DefaultBoost = 1.0

// Meta carries the name and boost every node accepts. A zero Boost means DefaultBoost.
type Meta struct {
	Name  string
	Boost float64
}

// BoostValue returns the effective boost.
func (m Meta) BoostValue() float64 {
	if m.Boost == 0 {
		return DefaultBoost
	}
	return m.Boost
}

func (m Meta) decorate(body map[string]any) map[string]any {
	body["boost"] = m.BoostValue()
	if m.Name != "" {
		body["_name"] = m.Name
	}
	return body
}

// Encode renders n as JSON. A nil node encodes as null.
func Encode(n Node) ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n.Source())
}

// And combines nodes with AND semantics, skipping nils. It returns nil for no nodes and the
// node itself for one.
func And(nodes ...Node) Node {
	var must []Node
	for _, n := range nodes {
		if n != nil {
			must = append(must, n)
		}
	}
	switch len(must) {
	case 0:
		return nil
	case 1:
		return must[0]
	default:
		return Bool{Must: must}
	}
}

func sources(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = n.Source()
	}
	return out
}

// MatchAll matches every document.
type MatchAll struct {
	Meta
}

// Kind implements Node.
func (MatchAll) Kind() Kind { return KindMatchAll }

// Source implements Node.
func (q MatchAll) Source() map[string]any {
	return map[string]any{"match_all": q.decorate(map[string]any{})}
}
