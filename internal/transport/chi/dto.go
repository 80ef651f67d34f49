package chi

import (
	"fmt"

	"github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/geo"
	"github.com/kailas-cloud/searchc/internal/domain/search/aggregation"
	"github.com/kailas-cloud/searchc/internal/domain/search/facet"
	"github.com/kailas-cloud/searchc/internal/domain/search/request"
	"github.com/kailas-cloud/searchc/internal/domain/search/response"
	"github.com/kailas-cloud/searchc/internal/domain/search/sort"
	searchuc "github.com/kailas-cloud/searchc/internal/usecase/search"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type pointJSON struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p *pointJSON) toDomain() (*geo.Point, error) {
	if p == nil {
		return nil, nil
	}
	pt, err := geo.NewPoint(p.Lat, p.Lon)
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

type contextJSON struct {
	PriceGroup      string     `json:"price_group"`
	Location        *pointJSON `json:"location"`
	CurrentCategory string     `json:"current_category"`
}

type rangeJSON struct {
	Key  string `json:"key,omitempty"`
	From any    `json:"from,omitempty"`
	To   any    `json:"to,omitempty"`
}

type facetJSON struct {
	Name             string      `json:"name"`
	Field            string      `json:"field"`
	Type             string      `json:"type"`
	Size             int         `json:"size"`
	Order            string      `json:"order"`
	MinDocCount      *int        `json:"min_doc_count"`
	Interval         float64     `json:"interval"`
	CalendarInterval string      `json:"calendar_interval"`
	Format           string      `json:"format"`
	Ranges           []rangeJSON `json:"ranges"`
	Fields           []string    `json:"fields"`
	Origin           *pointJSON  `json:"origin"`
	Unit             string      `json:"unit"`
	Metric           string      `json:"metric"`
}

type sortJSON struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// searchRequest is the body of the compile and search endpoints.
type searchRequest struct {
	Catalog        string         `json:"catalog"`
	Text           string         `json:"text"`
	Filters        map[string]any `json:"filters"`
	Facets         []facetJSON    `json:"facets"`
	Sort           []sortJSON     `json:"sort"`
	From           int            `json:"from"`
	Size           int            `json:"size"`
	TrackTotalHits any            `json:"track_total_hits"`
	Rule           map[string]any `json:"rule"`
	Context        contextJSON    `json:"context"`
}

func (r searchRequest) toParams() (searchuc.Params, error) {
	p := searchuc.Params{
		Text:    r.Text,
		Filters: r.Filters,
		From:    r.From,
		Size:    r.Size,
		Rule:    r.Rule,
		Context: container.Context{
			PriceGroup:      r.Context.PriceGroup,
			CurrentCategory: r.Context.CurrentCategory,
		},
	}
	loc, err := r.Context.Location.toDomain()
	if err != nil {
		return searchuc.Params{}, fmt.Errorf("context location: %w", err)
	}
	p.Context.ReferenceLocation = loc

	for _, f := range r.Facets {
		s := facet.Spec{
			Name:             f.Name,
			Field:            f.Field,
			Type:             facet.Type(f.Type),
			Size:             f.Size,
			Order:            f.Order,
			MinDocCount:      f.MinDocCount,
			Interval:         f.Interval,
			CalendarInterval: f.CalendarInterval,
			Format:           f.Format,
			Fields:           f.Fields,
			Unit:             f.Unit,
			Metric:           aggregation.MetricType(f.Metric),
		}
		for _, rg := range f.Ranges {
			s.Ranges = append(s.Ranges, aggregation.RangeItem{Key: rg.Key, From: rg.From, To: rg.To})
		}
		if s.Origin, err = f.Origin.toDomain(); err != nil {
			return searchuc.Params{}, fmt.Errorf("facet %q origin: %w", f.Name, err)
		}
		if err := s.Validate(); err != nil {
			return searchuc.Params{}, err
		}
		p.Facets = append(p.Facets, s)
	}

	for _, s := range r.Sort {
		dir, err := sort.ParseDirection(s.Direction)
		if err != nil {
			return searchuc.Params{}, err
		}
		p.Sort = append(p.Sort, sort.Spec{Field: s.Field, Direction: dir})
	}

	if r.TrackTotalHits != nil {
		tth, err := request.ParseTrackTotalHits(r.TrackTotalHits)
		if err != nil {
			return searchuc.Params{}, err
		}
		p.TrackTotalHits = &tth
	}
	return p, nil
}

type compileResponse struct {
	Container    string         `json:"container"`
	Index        string         `json:"index"`
	SpellingType string         `json:"spelling_type"`
	Body         map[string]any `json:"body"`
}

type documentJSON struct {
	ID     string         `json:"id"`
	Index  string         `json:"index"`
	Score  float64        `json:"score"`
	Source map[string]any `json:"source,omitempty"`
	Sort   []any          `json:"sort,omitempty"`
}

type bucketJSON struct {
	Key          string                     `json:"key"`
	Keys         []string                   `json:"keys,omitempty"`
	DocCount     int64                      `json:"doc_count"`
	RootCount    int64                      `json:"root_count"`
	Aggregations map[string]aggregationJSON `json:"aggregations,omitempty"`
}

type aggregationJSON struct {
	Buckets      []bucketJSON               `json:"buckets,omitempty"`
	DocCount     *int64                     `json:"doc_count,omitempty"`
	Value        *float64                   `json:"value,omitempty"`
	Stats        map[string]any             `json:"stats,omitempty"`
	Aggregations map[string]aggregationJSON `json:"aggregations,omitempty"`
}

type searchResponse struct {
	Total        int64                      `json:"total"`
	Exact        bool                       `json:"exact"`
	Took         int64                      `json:"took"`
	Documents    []documentJSON             `json:"documents"`
	Aggregations map[string]aggregationJSON `json:"aggregations"`
}

func aggregationsToJSON(aggs map[string]response.Aggregation) map[string]aggregationJSON {
	if len(aggs) == 0 {
		return nil
	}
	out := make(map[string]aggregationJSON, len(aggs))
	for name, a := range aggs {
		j := aggregationJSON{
			DocCount:     a.DocCount,
			Value:        a.Value,
			Stats:        a.Stats,
			Aggregations: aggregationsToJSON(a.Children),
		}
		for _, b := range a.Buckets {
			j.Buckets = append(j.Buckets, bucketJSON{
				Key:          b.Key,
				Keys:         b.Keys,
				DocCount:     b.DocCount,
				RootCount:    b.RootCount(),
				Aggregations: aggregationsToJSON(b.Children),
			})
		}
		out[name] = j
	}
	return out
}

func searchResponseToJSON(resp *response.Response) searchResponse {
	docs := make([]documentJSON, len(resp.Documents()))
	for i, d := range resp.Documents() {
		docs[i] = documentJSON{ID: d.ID, Index: d.Index, Score: d.Score, Source: d.Source, Sort: d.Sort}
	}
	aggs := aggregationsToJSON(resp.Aggregations())
	if aggs == nil {
		aggs = map[string]aggregationJSON{}
	}
	return searchResponse{
		Total:        resp.Total(),
		Exact:        resp.IsExact(),
		Took:         resp.Took(),
		Documents:    docs,
		Aggregations: aggs,
	}
}

type ruleCompileRequest struct {
	Container string         `json:"container"`
	Catalog   string         `json:"catalog"`
	Rule      map[string]any `json:"rule"`
}

type ruleCompileResponse struct {
	Filter map[string]any `json:"filter"`
}

type fieldChangeJSON struct {
	EntityType string `json:"entity_type"`
	Kind       string `json:"kind"`
	Field      string `json:"field"`
	Catalog    string `json:"catalog"`
}

type invalidateRequest struct {
	Tags        []string         `json:"tags"`
	FieldChange *fieldChangeJSON `json:"field_change"`
}
