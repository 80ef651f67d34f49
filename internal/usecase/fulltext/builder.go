// Package fulltext compiles a search text into a relevance query, picking the strategy from
// the spelling type of the text.
package fulltext

import (
	"strings"

	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	"github.com/kailas-cloud/searchc/internal/domain/relevance"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/domain/search/spelling"
)

// PureStopwordsMinimumShouldMatch requires every term of a stopword-only text.
const PureStopwordsMinimumShouldMatch = "100%"

// Builder compiles fulltext queries. It is stateless and safe for concurrent use.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder { return &Builder{} }

// Build returns the query of text, nil for a blank text.
func (b *Builder) Build(m mapping.Mapping, text string, typ spelling.Type, cfg relevance.Config) query.Node {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	switch typ {
	case spelling.PureStopwords:
		return b.pureStopwords(m, text)
	case spelling.MostFuzzy:
		should := []query.Node{b.weighted(m, text, cfg)}
		should = append(should, b.fuzzyClauses(text, cfg)...)
		return query.Bool{Should: should, MinimumShouldMatch: "1"}
	case spelling.Fuzzy:
		should := b.fuzzyClauses(text, cfg)
		if len(should) == 0 {
			return b.weighted(m, text, cfg)
		}
		return query.Bool{Should: should, MinimumShouldMatch: "1"}
	case spelling.Exact, spelling.MostExact:
		return b.weighted(m, text, cfg)
	}
	return b.weighted(m, text, cfg)
}

// weighted matches the text on the catch-all field and scores it on the weighted searchable
// fields, with optional phrase and span boosts.
func (b *Builder) weighted(m mapping.Mapping, text string, cfg relevance.Config) query.Node {
	should := []query.Node{query.MultiMatch{
		Query:      text,
		Fields:     m.WeightedSearchProperties(mapping.AnalyzerStandard),
		Type:       query.MultiMatchBestFields,
		TieBreaker: cfg.TieBreaker,
	}}
	if cfg.PhraseMatchBoost > 0 {
		should = append(should, query.MultiMatch{
			Meta:               query.Meta{Boost: cfg.PhraseMatchBoost},
			Query:              text,
			Fields:             m.WeightedSearchProperties(mapping.AnalyzerShingle),
			Type:               query.MultiMatchBestFields,
			TieBreaker:         cfg.TieBreaker,
			MinimumShouldMatch: "1",
		})
	}
	if cfg.SpanMatch.Enabled {
		if span := spanNear(text, cfg.SpanMatch); span != nil {
			should = append(should, span)
		}
	}
	return query.Bool{
		Filter: []query.Node{query.Common{
			Field:              mapping.DefaultSearchField,
			Query:              text,
			CutoffFrequency:    cfg.CutoffFrequency,
			MinimumShouldMatch: cfg.MinimumShouldMatch,
		}},
		Should:             should,
		MinimumShouldMatch: "1",
	}
}

func spanNear(text string, cfg relevance.SpanMatchConfig) query.Node {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) > cfg.Size {
		tokens = tokens[:cfg.Size]
	}
	if len(tokens) == 0 {
		return nil
	}
	field := mapping.DefaultSearchField + "." + mapping.AnalyzerWhitespace
	clauses := make([]query.Node, len(tokens))
	for i, tok := range tokens {
		clauses[i] = query.SpanTerm{Field: field, Value: tok}
	}
	return query.SpanNear{
		Meta:    query.Meta{Boost: cfg.Boost},
		Clauses: clauses,
		InOrder: true,
	}
}

// pureStopwords matches stopword-only texts on unstemmed fields, requiring every term.
func (b *Builder) pureStopwords(m mapping.Mapping, text string) query.Node {
	return query.MultiMatch{
		Query:              text,
		Fields:             m.WeightedSearchProperties(mapping.AnalyzerWhitespace),
		Type:               query.MultiMatchBestFields,
		MinimumShouldMatch: PureStopwordsMinimumShouldMatch,
	}
}

// fuzzyClauses returns the enabled fuzzy and phonetic queries on the spelling field.
func (b *Builder) fuzzyClauses(text string, cfg relevance.Config) []query.Node {
	var out []query.Node
	if cfg.Fuzziness.Enabled {
		out = append(out, query.MultiMatch{
			Query:              text,
			Fields:             []string{mapping.DefaultSpellingField + "." + mapping.AnalyzerWhitespace},
			Type:               query.MultiMatchBestFields,
			MinimumShouldMatch: cfg.MinimumShouldMatch,
			Fuzziness:          cfg.Fuzziness.Value,
			PrefixLength:       cfg.Fuzziness.PrefixLength,
			MaxExpansions:      cfg.Fuzziness.MaxExpansions,
		})
	}
	if cfg.Phonetic.Enabled {
		out = append(out, query.MultiMatch{
			Query:              text,
			Fields:             []string{mapping.DefaultSpellingField + "." + mapping.AnalyzerPhonetic},
			Type:               query.MultiMatchBestFields,
			MinimumShouldMatch: cfg.MinimumShouldMatch,
		})
	}
	return out
}
