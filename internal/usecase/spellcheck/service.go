// Package spellcheck classifies a search text against the vocabulary of an index.
package spellcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	"github.com/kailas-cloud/searchc/internal/domain/search/spelling"
)

// Analyzed spelling properties.
var (
	stemmedField = mapping.DefaultSpellingField
	exactField   = mapping.DefaultSpellingField + "." + mapping.AnalyzerWhitespace
)

// Request is a text to classify in one index.
type Request struct {
	Index string
	Text  string
	// Cutoff is the document frequency ratio above which a term counts as a stopword.
	Cutoff float64
}

// Service classifies search texts.
type Service struct {
	client    TermVectorsClient
	typeTotal *prometheus.CounterVec
	logger    *zap.Logger
}

// New creates a spellcheck service.
// typeTotal is a counter vec with label "type", passed explicitly; nil disables it.
func New(client TermVectorsClient, typeTotal *prometheus.CounterVec, logger *zap.Logger) *Service {
	return &Service{client: client, typeTotal: typeTotal, logger: logger}
}

// SpellingType classifies req.Text. A blank text is exact without asking the engine.
func (s *Service) SpellingType(ctx context.Context, req Request) (spelling.Type, error) {
	if strings.TrimSpace(req.Text) == "" {
		return spelling.Exact, nil
	}

	body, err := json.Marshal(map[string]any{
		"doc":              map[string]any{mapping.DefaultSpellingField: req.Text},
		"fields":           []string{stemmedField, exactField},
		"term_statistics":  true,
		"field_statistics": true,
		"offsets":          true,
		"positions":        false,
		"payloads":         false,
	})
	if err != nil {
		return spelling.Exact, fmt.Errorf("encode termvectors: %w", err)
	}

	raw, err := s.client.TermVectors(ctx, req.Index, body)
	if err != nil {
		return spelling.Exact, fmt.Errorf("termvectors: %w", err)
	}

	counts, err := countPositions(raw, req.Cutoff)
	if err != nil {
		return spelling.Exact, err
	}
	typ := spelling.Classify(counts)

	if s.typeTotal != nil {
		s.typeTotal.WithLabelValues(typ.String()).Inc()
	}
	s.logger.Debug("spellcheck",
		zap.String("index", req.Index),
		zap.String("type", typ.String()),
		zap.Int("total", counts.Total),
		zap.Int("missing", counts.Missing),
		zap.Int("stop", counts.Stop),
	)
	return typ, nil
}

type termVectorsResponse struct {
	TermVectors map[string]struct {
		FieldStatistics struct {
			DocCount int64 `json:"doc_count"`
		} `json:"field_statistics"`
		Terms map[string]struct {
			DocFreq int64 `json:"doc_freq"`
			Tokens  []struct {
				StartOffset int `json:"start_offset"`
				EndOffset   int `json:"end_offset"`
			} `json:"tokens"`
		} `json:"terms"`
	} `json:"term_vectors"`
}

type position struct {
	docFreq  int64
	docCount int64
	exact    bool
}

// countPositions merges the analyzers per token position, keeping the highest document
// frequency, and counts missing, stopword and exact positions.
func countPositions(raw []byte, cutoff float64) (spelling.Counts, error) {
	var resp termVectorsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return spelling.Counts{}, fmt.Errorf("decode termvectors: %w", err)
	}

	positions := map[string]*position{}
	for field, fv := range resp.TermVectors {
		for _, term := range fv.Terms {
			for _, tok := range term.Tokens {
				key := strconv.Itoa(tok.StartOffset) + "_" + strconv.Itoa(tok.EndOffset)
				p, ok := positions[key]
				if !ok {
					p = &position{}
					positions[key] = p
				}
				if term.DocFreq > p.docFreq {
					p.docFreq = term.DocFreq
					p.docCount = fv.FieldStatistics.DocCount
				}
				if field == exactField && term.DocFreq > 0 {
					p.exact = true
				}
			}
		}
	}

	var c spelling.Counts
	for _, p := range positions {
		c.Total++
		switch {
		case p.docFreq == 0:
			c.Missing++
		case p.docCount > 0 && float64(p.docFreq)/float64(p.docCount) > cutoff:
			c.Stop++
		case p.exact:
			c.Exact++
		}
	}
	return c, nil
}
