package request

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/searchc/internal/domain/search/aggregation"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/domain/search/sort"
	"github.com/kailas-cloud/searchc/internal/domain/search/spelling"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search text length.
	MaxQueryLength  = 4096
	DefaultPageSize = 20
	MaxPageSize     = 1000
	// DefaultTrackLimit is the engine's own default hit counting bound.
	DefaultTrackLimit = 10000
)

// TrackTotalHits is the hit counting policy: exact, disabled or bounded by a limit.
type TrackTotalHits struct {
	enabled bool
	limit   int
}

// TrackExact counts every hit.
func TrackExact() TrackTotalHits { return TrackTotalHits{enabled: true} }

// TrackNone disables hit counting.
func TrackNone() TrackTotalHits { return TrackTotalHits{} }

// TrackUpTo counts hits exactly up to limit. A non-positive limit means exact.
func TrackUpTo(limit int) TrackTotalHits {
	if limit <= 0 {
		return TrackExact()
	}
	return TrackTotalHits{enabled: true, limit: limit}
}

// DefaultTrackTotalHits is the policy of requests that do not set one.
func DefaultTrackTotalHits() TrackTotalHits { return TrackUpTo(DefaultTrackLimit) }

// ParseTrackTotalHits accepts a bool, an integer or their string forms.
func ParseTrackTotalHits(v any) (TrackTotalHits, error) {
	switch t := v.(type) {
	case bool:
		if t {
			return TrackExact(), nil
		}
		return TrackNone(), nil
	case int:
		return TrackUpTo(t), nil
	case int64:
		return TrackUpTo(int(t)), nil
	case float64:
		if t != float64(int(t)) {
			return TrackTotalHits{}, fmt.Errorf("track_total_hits must be an integer, got %v", t)
		}
		return TrackUpTo(int(t)), nil
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return ParseTrackTotalHits(b)
		}
		n, err := strconv.Atoi(t)
		if err != nil {
			return TrackTotalHits{}, fmt.Errorf("invalid track_total_hits %q", t)
		}
		return TrackUpTo(n), nil
	}
	return TrackTotalHits{}, fmt.Errorf("invalid track_total_hits type %T", v)
}

// Enabled reports whether hits are counted at all.
func (t TrackTotalHits) Enabled() bool { return t.enabled }

// Limit returns the counting bound, 0 when counting is exact or disabled.
func (t TrackTotalHits) Limit() int { return t.limit }

// Value returns the wire value: a bool or the integer limit.
func (t TrackTotalHits) Value() any {
	if t.enabled && t.limit > 0 {
		return t.limit
	}
	return t.enabled
}

// IsExact reports whether a total reported under this policy is exact.
func (t TrackTotalHits) IsExact(total int) bool {
	if !t.enabled {
		return false
	}
	return t.limit == 0 || total < t.limit
}

// Params holds the parts of a compiled request.
type Params struct {
	Name           string
	Index          string
	From           int
	Size           int
	Query          query.Node
	PostFilter     query.Node
	Sort           []sort.Order
	Aggregations   []aggregation.Node
	Spelling       spelling.Type
	TrackTotalHits *TrackTotalHits
}

// Request is a compiled search request, ready to be sent to one index.
type Request struct {
	name           string
	index          string
	from           int
	size           int
	query          query.Node
	postFilter     query.Node
	sort           []sort.Order
	aggregations   []aggregation.Node
	spelling       spelling.Type
	trackTotalHits TrackTotalHits
}

// New validates and assembles a request. A nil query matches all documents.
func New(p Params) (Request, error) {
	if p.Index == "" {
		return Request{}, fmt.Errorf("index is required")
	}
	if p.From < 0 {
		return Request{}, fmt.Errorf("from must not be negative")
	}
	if p.Size < 0 {
		return Request{}, fmt.Errorf("size must not be negative")
	}
	seen := make(map[string]struct{}, len(p.Aggregations))
	for _, a := range p.Aggregations {
		if _, dup := seen[a.Name()]; dup {
			return Request{}, fmt.Errorf("duplicate aggregation %q", a.Name())
		}
		seen[a.Name()] = struct{}{}
	}

	q := p.Query
	if q == nil {
		q = query.MatchAll{}
	}
	tth := DefaultTrackTotalHits()
	if p.TrackTotalHits != nil {
		tth = *p.TrackTotalHits
	}
	return Request{
		name:           p.Name,
		index:          p.Index,
		from:           p.From,
		size:           p.Size,
		query:          q,
		postFilter:     p.PostFilter,
		sort:           p.Sort,
		aggregations:   p.Aggregations,
		spelling:       p.Spelling,
		trackTotalHits: tth,
	}, nil
}

// Name returns the container the request was compiled for.
func (r *Request) Name() string { return r.name }

// Index returns the target index.
func (r *Request) Index() string { return r.index }

// From returns the pagination offset.
func (r *Request) From() int { return r.from }

// Size returns the page size.
func (r *Request) Size() int { return r.size }

// Query returns the main query.
func (r *Request) Query() query.Node { return r.query }

// PostFilter returns the filter applied after aggregations, nil when no facet is filtered.
func (r *Request) PostFilter() query.Node { return r.postFilter }

// Sort returns the sort orders.
func (r *Request) Sort() []sort.Order { return r.sort }

// Aggregations returns the aggregations in declaration order.
func (r *Request) Aggregations() []aggregation.Node { return r.aggregations }

// SpellingType returns the classification of the search text.
func (r *Request) SpellingType() spelling.Type { return r.spelling }

// TrackTotalHits returns the hit counting policy.
func (r *Request) TrackTotalHits() TrackTotalHits { return r.trackTotalHits }

// Source renders the request body.
func (r *Request) Source() map[string]any {
	body := map[string]any{
		"query":            r.query.Source(),
		"sort":             sort.Sources(r.sort),
		"from":             r.from,
		"size":             r.size,
		"track_total_hits": r.trackTotalHits.Value(),
	}
	if r.postFilter != nil {
		body["post_filter"] = r.postFilter.Source()
	}
	if len(r.aggregations) > 0 {
		body["aggregations"] = aggregation.Sources(r.aggregations)
	}
	return body
}

// MarshalJSON implements json.Marshaler.
func (r Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Source())
}
