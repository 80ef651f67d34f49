package search

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/search/facet"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/domain/search/request"
	"github.com/kailas-cloud/searchc/internal/domain/search/response"
	"github.com/kailas-cloud/searchc/internal/domain/search/sort"
	"github.com/kailas-cloud/searchc/internal/domain/search/spelling"
	"github.com/kailas-cloud/searchc/internal/logger"
	"github.com/kailas-cloud/searchc/internal/metrics"
	"github.com/kailas-cloud/searchc/internal/usecase/aggregation"
	"github.com/kailas-cloud/searchc/internal/usecase/filter"
	"github.com/kailas-cloud/searchc/internal/usecase/fulltext"
	"github.com/kailas-cloud/searchc/internal/usecase/sortorder"
	"github.com/kailas-cloud/searchc/internal/usecase/spellcheck"
)

// Params is one search as asked by a caller, before compilation.
type Params struct {
	Text string
	// Filters maps field codes (or facet names) to conditions.
	Filters map[string]any
	// Facets are added to the container defaults; a facet with a default's name replaces it.
	Facets []facet.Spec
	Sort   []sort.Spec
	From   int
	// Size is the page size, 0 for the configured default.
	Size           int
	TrackTotalHits *request.TrackTotalHits
	// Rule is a serialized rule tree restricting the result set, as virtual categories do.
	Rule    map[string]any
	Context container.Context
}

// Options are the service-wide defaults.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	TrackTotalHits  request.TrackTotalHits
}

// DefaultOptions returns the engine-compatible defaults.
func DefaultOptions() Options {
	return Options{
		DefaultPageSize: request.DefaultPageSize,
		MaxPageSize:     request.MaxPageSize,
		TrackTotalHits:  request.DefaultTrackTotalHits(),
	}
}

// Service compiles search requests and runs them.
type Service struct {
	repo  Repository
	spell Spellchecker
	rules RuleCompiler
	opts  Options

	filters  *filter.Builder
	aggs     *aggregation.Builder
	sorts    *sortorder.Builder
	fulltext *fulltext.Builder
}

// New creates a search service. spell may be nil, every text is then treated as exact.
func New(repo Repository, spell Spellchecker, rules RuleCompiler, opts Options) *Service {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = request.DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = request.MaxPageSize
	}
	return &Service{
		repo:     repo,
		spell:    spell,
		rules:    rules,
		opts:     opts,
		filters:  filter.NewBuilder(),
		aggs:     aggregation.NewBuilder(),
		sorts:    sortorder.NewBuilder(),
		fulltext: fulltext.NewBuilder(),
	}
}

// Search compiles p for cfg and executes it.
func (s *Service) Search(ctx context.Context, cfg container.Configuration, p Params) (response.Response, error) {
	req, err := s.Build(ctx, cfg, p)
	if err != nil {
		return response.Response{}, err
	}
	return s.Run(ctx, &req)
}

// Run executes an already compiled request.
func (s *Service) Run(ctx context.Context, req *request.Request) (response.Response, error) {
	resp, err := s.repo.Search(ctx, req)
	if err != nil {
		return response.Response{}, fmt.Errorf("search %s: %w", req.Index(), err)
	}
	return resp, nil
}

// Build compiles p into a request for cfg. The only I/O is spellchecking the text.
func (s *Service) Build(ctx context.Context, cfg container.Configuration, p Params) (req request.Request, err error) {
	start := time.Now()
	defer func() {
		metrics.CompileDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.CompileErrorsTotal.WithLabelValues("search", metrics.ErrorType(err)).Inc()
		}
	}()

	if len(p.Text) > request.MaxQueryLength {
		return request.Request{}, fmt.Errorf("search text exceeds %d characters", request.MaxQueryLength)
	}
	m := cfg.Mapping()
	facets := facet.Merge(cfg.DefaultFacets(), p.Facets)

	facetFields := make(map[string]string, len(facets))
	for _, f := range facets {
		facetFields[f.Name] = f.FieldName()
	}
	active := map[string]query.Node{}
	plain := map[string]any{}
	for name, cond := range p.Filters {
		field, isFacet := facetFields[name]
		if !isFacet {
			plain[name] = cond
			continue
		}
		q, err := s.filters.BuildField(m, field, cond, p.Context)
		if err != nil {
			return request.Request{}, fmt.Errorf("facet filter %q: %w", name, err)
		}
		active[name] = q
	}

	queryFilter, err := s.filters.Build(m, plain, "", p.Context)
	if err != nil {
		return request.Request{}, fmt.Errorf("filters: %w", err)
	}

	var ruleFilter query.Node
	if len(p.Rule) > 0 {
		if s.rules == nil {
			return request.Request{}, errors.New("rule filters are not available")
		}
		if ruleFilter, err = s.rules.TransformRuleToFilters(ctx, p.Rule, cfg); err != nil {
			return request.Request{}, fmt.Errorf("rule: %w", err)
		}
	}

	rel := cfg.Relevance()
	typ := s.spellingType(ctx, cfg.Index(), p.Text, rel.CutoffFrequency)
	text := s.fulltext.Build(m, p.Text, typ, rel)

	filters := slices.Clone(cfg.ScopeFilters())
	filters = append(filters, queryFilter, ruleFilter)
	var main query.Node
	if f := query.And(filters...); text != nil || f != nil {
		main = query.Filtered{Query: text, Filter: f}
	}

	orders, err := s.sorts.Build(m, p.Sort, cfg.DefaultSort(), p.Context)
	if err != nil {
		return request.Request{}, fmt.Errorf("sort: %w", err)
	}

	aggs, err := s.aggs.Build(m, facets, active, p.Context)
	if err != nil {
		return request.Request{}, fmt.Errorf("aggregations: %w", err)
	}

	return request.New(request.Params{
		Name:           cfg.Name(),
		Index:          cfg.Index(),
		From:           p.From,
		Size:           s.pageSize(p.Size),
		Query:          main,
		PostFilter:     postFilter(active),
		Sort:           orders,
		Aggregations:   aggs,
		Spelling:       typ,
		TrackTotalHits: s.trackTotalHits(cfg, p),
	})
}

// spellingType degrades to exact when the spellchecker fails: a search without typo tolerance
// beats no search.
func (s *Service) spellingType(ctx context.Context, index, text string, cutoff float64) spelling.Type {
	if s.spell == nil || strings.TrimSpace(text) == "" {
		return spelling.Exact
	}
	typ, err := s.spell.SpellingType(ctx, spellcheck.Request{Index: index, Text: text, Cutoff: cutoff})
	if err != nil {
		logger.FromContext(ctx).Warn("spellcheck failed, using exact matching",
			zap.String("index", index), zap.Error(err))
		return spelling.Exact
	}
	return typ
}

func (s *Service) pageSize(size int) int {
	switch {
	case size <= 0:
		return s.opts.DefaultPageSize
	case size > s.opts.MaxPageSize:
		return s.opts.MaxPageSize
	}
	return size
}

func (s *Service) trackTotalHits(cfg container.Configuration, p Params) *request.TrackTotalHits {
	if p.TrackTotalHits != nil {
		return p.TrackTotalHits
	}
	if t := cfg.TrackTotalHits(); t != nil {
		return t
	}
	t := s.opts.TrackTotalHits
	return &t
}

// postFilter ANDs every active facet filter in name order.
func postFilter(active map[string]query.Node) query.Node {
	names := make([]string, 0, len(active))
	for name := range active {
		names = append(names, name)
	}
	slices.Sort(names)
	nodes := make([]query.Node, len(names))
	for i, name := range names {
		nodes[i] = active[name]
	}
	return query.And(nodes...)
}
