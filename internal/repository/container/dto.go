package container

import (
	"encoding/json"
	"fmt"

	domcontainer "github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/geo"
	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	"github.com/kailas-cloud/searchc/internal/domain/relevance"
	"github.com/kailas-cloud/searchc/internal/domain/search/aggregation"
	"github.com/kailas-cloud/searchc/internal/domain/search/facet"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/domain/search/request"
	"github.com/kailas-cloud/searchc/internal/domain/search/sort"
)

// fileDTO is one container YAML file.
type fileDTO struct {
	Name           string           `yaml:"name" validate:"required"`
	EntityType     string           `yaml:"entity_type"`
	Index          string           `yaml:"index" validate:"required"`
	TrackTotalHits any              `yaml:"track_total_hits"`
	Fields         []fieldDTO       `yaml:"fields" validate:"required,min=1,dive"`
	DefaultFacets  []facetDTO       `yaml:"default_facets" validate:"dive"`
	DefaultSort    []sortDTO        `yaml:"default_sort" validate:"dive"`
	ScopeFilters   []map[string]any `yaml:"scope_filters"`
	Relevance      relevanceSetDTO  `yaml:"relevance"`
}

type fieldDTO struct {
	Name         string  `yaml:"name" validate:"required"`
	Type         string  `yaml:"type" validate:"required"`
	NestedPath   string  `yaml:"nested_path"`
	Searchable   bool    `yaml:"searchable"`
	Weight       float64 `yaml:"weight" validate:"gte=0"`
	Filterable   bool    `yaml:"filterable"`
	Sortable     bool    `yaml:"sortable"`
	Spellchecked bool    `yaml:"spellchecked"`
	DateFormat   string  `yaml:"date_format"`
}

type rangeDTO struct {
	Key  string `yaml:"key"`
	From any    `yaml:"from"`
	To   any    `yaml:"to"`
}

type pointDTO struct {
	Lat float64 `yaml:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `yaml:"lon" validate:"gte=-180,lte=180"`
}

type facetDTO struct {
	Name             string     `yaml:"name" validate:"required"`
	Field            string     `yaml:"field"`
	Type             string     `yaml:"type"`
	Size             int        `yaml:"size" validate:"gte=0"`
	Order            string     `yaml:"order" validate:"omitempty,oneof=count key"`
	MinDocCount      *int       `yaml:"min_doc_count" validate:"omitempty,gte=0"`
	Interval         float64    `yaml:"interval" validate:"gte=0"`
	CalendarInterval string     `yaml:"calendar_interval"`
	Format           string     `yaml:"format"`
	Ranges           []rangeDTO `yaml:"ranges"`
	Fields           []string   `yaml:"fields"`
	Origin           *pointDTO  `yaml:"origin"`
	Unit             string     `yaml:"unit"`
	Metric           string     `yaml:"metric"`
}

type sortDTO struct {
	Field     string `yaml:"field" validate:"required"`
	Direction string `yaml:"direction" validate:"omitempty,oneof=asc desc"`
}

type relevanceSetDTO struct {
	Default  *relevanceDTO           `yaml:"default"`
	Catalogs map[string]relevanceDTO `yaml:"catalogs" validate:"dive"`
}

// relevanceDTO overlays relevance.Default(): unset fields keep their default.
type relevanceDTO struct {
	MinimumShouldMatch string   `yaml:"minimum_should_match"`
	TieBreaker         *float64 `yaml:"tie_breaker" validate:"omitempty,gte=0,lte=1"`
	PhraseMatchBoost   *float64 `yaml:"phrase_match_boost" validate:"omitempty,gte=0"`
	CutoffFrequency    *float64 `yaml:"cutoff_frequency" validate:"omitempty,gt=0,lt=1"`
	Fuzziness          *struct {
		Enabled       bool   `yaml:"enabled"`
		Value         string `yaml:"value"`
		PrefixLength  int    `yaml:"prefix_length"`
		MaxExpansions int    `yaml:"max_expansions"`
	} `yaml:"fuzziness"`
	Phonetic  *bool `yaml:"phonetic"`
	SpanMatch *struct {
		Enabled bool    `yaml:"enabled"`
		Boost   float64 `yaml:"boost"`
		Size    int     `yaml:"size"`
	} `yaml:"span_match"`
}

func (d relevanceDTO) toDomain() relevance.Config {
	cfg := relevance.Default()
	if d.MinimumShouldMatch != "" {
		cfg.MinimumShouldMatch = d.MinimumShouldMatch
	}
	if d.TieBreaker != nil {
		cfg.TieBreaker = *d.TieBreaker
	}
	if d.PhraseMatchBoost != nil {
		cfg.PhraseMatchBoost = *d.PhraseMatchBoost
	}
	if d.CutoffFrequency != nil {
		cfg.CutoffFrequency = *d.CutoffFrequency
	}
	if f := d.Fuzziness; f != nil {
		cfg.Fuzziness = relevance.FuzzinessConfig{
			Enabled:       f.Enabled,
			Value:         f.Value,
			PrefixLength:  f.PrefixLength,
			MaxExpansions: f.MaxExpansions,
		}
	}
	if d.Phonetic != nil {
		cfg.Phonetic.Enabled = *d.Phonetic
	}
	if s := d.SpanMatch; s != nil {
		cfg.SpanMatch = relevance.SpanMatchConfig{Enabled: s.Enabled, Boost: s.Boost, Size: s.Size}
	}
	return cfg
}

func (d fieldDTO) toDomain() (mapping.Field, error) {
	var opts []mapping.Option
	if d.NestedPath != "" {
		opts = append(opts, mapping.WithNestedPath(d.NestedPath))
	}
	if d.Searchable {
		w := d.Weight
		if w == 0 {
			w = mapping.DefaultWeight
		}
		opts = append(opts, mapping.Searchable(w))
	}
	if d.Filterable {
		opts = append(opts, mapping.Filterable())
	}
	if d.Sortable {
		opts = append(opts, mapping.Sortable())
	}
	if d.Spellchecked {
		opts = append(opts, mapping.Spellchecked())
	}
	if d.DateFormat != "" {
		opts = append(opts, mapping.WithDateFormat(d.DateFormat))
	}
	return mapping.NewField(d.Name, mapping.Type(d.Type), opts...)
}

func (d facetDTO) toDomain() (facet.Spec, error) {
	s := facet.Spec{
		Name:             d.Name,
		Field:            d.Field,
		Type:             facet.Type(d.Type),
		Size:             d.Size,
		Order:            d.Order,
		MinDocCount:      d.MinDocCount,
		Interval:         d.Interval,
		CalendarInterval: d.CalendarInterval,
		Format:           d.Format,
		Fields:           d.Fields,
		Unit:             d.Unit,
		Metric:           aggregation.MetricType(d.Metric),
	}
	for _, r := range d.Ranges {
		s.Ranges = append(s.Ranges, aggregation.RangeItem{Key: r.Key, From: r.From, To: r.To})
	}
	if d.Origin != nil {
		p, err := geo.NewPoint(d.Origin.Lat, d.Origin.Lon)
		if err != nil {
			return facet.Spec{}, fmt.Errorf("facet %q origin: %w", d.Name, err)
		}
		s.Origin = &p
	}
	return s, s.Validate()
}

// scopeFilter decodes a filter written in engine DSL. It goes through JSON so numbers reach
// the query decoder as float64, like any engine payload.
func scopeFilter(raw map[string]any) (query.Node, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode scope filter: %w", err)
	}
	return query.Decode(data)
}

func (d fileDTO) toDomain() (domcontainer.Configuration, *relevance.Resolver, error) {
	fields := make([]mapping.Field, 0, len(d.Fields))
	for _, fd := range d.Fields {
		f, err := fd.toDomain()
		if err != nil {
			return domcontainer.Configuration{}, nil, err
		}
		fields = append(fields, f)
	}
	m, err := mapping.New(fields...)
	if err != nil {
		return domcontainer.Configuration{}, nil, err
	}

	p := domcontainer.Params{
		Name:       d.Name,
		EntityType: d.EntityType,
		Index:      d.Index,
		Mapping:    m,
		Relevance:  relevance.Default(),
	}
	for _, fd := range d.DefaultFacets {
		s, err := fd.toDomain()
		if err != nil {
			return domcontainer.Configuration{}, nil, err
		}
		p.DefaultFacets = append(p.DefaultFacets, s)
	}
	for _, sd := range d.DefaultSort {
		dir, err := sort.ParseDirection(sd.Direction)
		if err != nil {
			return domcontainer.Configuration{}, nil, err
		}
		p.DefaultSort = append(p.DefaultSort, sort.Spec{Field: sd.Field, Direction: dir})
	}
	for i, raw := range d.ScopeFilters {
		n, err := scopeFilter(raw)
		if err != nil {
			return domcontainer.Configuration{}, nil, fmt.Errorf("scope filter %d: %w", i, err)
		}
		p.ScopeFilters = append(p.ScopeFilters, n)
	}
	if d.TrackTotalHits != nil {
		tth, err := request.ParseTrackTotalHits(d.TrackTotalHits)
		if err != nil {
			return domcontainer.Configuration{}, nil, err
		}
		p.TrackTotalHits = &tth
	}

	resolver := relevance.NewResolver(relevance.Default())
	if d.Relevance.Default != nil {
		p.Relevance = d.Relevance.Default.toDomain()
		if err := resolver.Set(relevance.Scope{}, p.Relevance); err != nil {
			return domcontainer.Configuration{}, nil, err
		}
	}
	for catalog, rd := range d.Relevance.Catalogs {
		scope := relevance.Scope{Catalog: catalog, RequestType: d.Name}
		if err := resolver.Set(scope, rd.toDomain()); err != nil {
			return domcontainer.Configuration{}, nil, err
		}
	}

	cfg, err := domcontainer.New(p)
	if err != nil {
		return domcontainer.Configuration{}, nil, err
	}
	return cfg, resolver, nil
}
