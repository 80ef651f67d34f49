package searchc

import (
	"fmt"

	"github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/geo"
	domrule "github.com/kailas-cloud/searchc/internal/domain/rule"
	"github.com/kailas-cloud/searchc/internal/domain/search/aggregation"
	"github.com/kailas-cloud/searchc/internal/domain/search/facet"
	"github.com/kailas-cloud/searchc/internal/domain/search/request"
	"github.com/kailas-cloud/searchc/internal/domain/search/response"
	"github.com/kailas-cloud/searchc/internal/domain/search/sort"
	searchuc "github.com/kailas-cloud/searchc/internal/usecase/search"
)

func toPoint(p *Point) (*geo.Point, error) {
	if p == nil {
		return nil, nil
	}
	pt, err := geo.NewPoint(p.Lat, p.Lon)
	if err != nil {
		return nil, err
	}
	return &pt, nil
}

func toFacet(f Facet) (facet.Spec, error) {
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
	for _, r := range f.Ranges {
		s.Ranges = append(s.Ranges, aggregation.RangeItem{Key: r.Key, From: r.From, To: r.To})
	}
	origin, err := toPoint(f.Origin)
	if err != nil {
		return facet.Spec{}, fmt.Errorf("facet %q origin: %w", f.Name, err)
	}
	s.Origin = origin
	return s, s.Validate()
}

func toParams(q Query) (searchuc.Params, error) {
	p := searchuc.Params{
		Text:    q.Text,
		Filters: q.Filters,
		From:    q.From,
		Size:    q.Size,
		Rule:    q.Rule,
		Context: container.Context{
			PriceGroup:      q.Context.PriceGroup,
			CurrentCategory: q.Context.CurrentCategory,
		},
	}
	loc, err := toPoint(q.Context.Location)
	if err != nil {
		return searchuc.Params{}, fmt.Errorf("context location: %w", err)
	}
	p.Context.ReferenceLocation = loc

	for _, f := range q.Facets {
		s, err := toFacet(f)
		if err != nil {
			return searchuc.Params{}, err
		}
		p.Facets = append(p.Facets, s)
	}
	for _, s := range q.Sort {
		dir, err := sort.ParseDirection(s.Direction)
		if err != nil {
			return searchuc.Params{}, err
		}
		p.Sort = append(p.Sort, sort.Spec{Field: s.Field, Direction: dir})
	}
	if q.TrackTotalHits != nil {
		tth, err := request.ParseTrackTotalHits(q.TrackTotalHits)
		if err != nil {
			return searchuc.Params{}, err
		}
		p.TrackTotalHits = &tth
	}
	return p, nil
}

func fromRequest(name string, req *request.Request) Compiled {
	return Compiled{
		Container:    name,
		Index:        req.Index(),
		SpellingType: req.SpellingType().String(),
		Body:         req.Source(),
	}
}

func fromAggregations(aggs map[string]response.Aggregation) map[string]Aggregation {
	if len(aggs) == 0 {
		return nil
	}
	out := make(map[string]Aggregation, len(aggs))
	for name, a := range aggs {
		agg := Aggregation{
			DocCount:     a.DocCount,
			Value:        a.Value,
			Stats:        a.Stats,
			Aggregations: fromAggregations(a.Children),
		}
		for _, b := range a.Buckets {
			agg.Buckets = append(agg.Buckets, Bucket{
				Key:          b.Key,
				Keys:         b.Keys,
				DocCount:     b.DocCount,
				RootCount:    b.RootCount(),
				Aggregations: fromAggregations(b.Children),
			})
		}
		out[name] = agg
	}
	return out
}

func fromResponse(resp response.Response) Result {
	docs := resp.Documents()
	hits := make([]Hit, len(docs))
	for i, d := range docs {
		hits[i] = Hit{ID: d.ID, Index: d.Index, Score: d.Score, Source: d.Source, Sort: d.Sort}
	}
	return Result{
		Total:        resp.Total(),
		Exact:        resp.IsExact(),
		Took:         resp.Took(),
		Hits:         hits,
		Aggregations: fromAggregations(resp.Aggregations()),
	}
}

func toFieldChange(c FieldChange) domrule.FieldChange {
	return domrule.FieldChange{
		EntityType: c.EntityType,
		Kind:       domrule.ChangeKind(c.Kind),
		Field:      c.Field,
		Catalog:    c.Catalog,
	}
}
