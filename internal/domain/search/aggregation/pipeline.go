package aggregation

import (
	"github.com/kailas-cloud/searchc/internal/domain/geo"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
)

// GeoDistance buckets documents by distance rings around Origin.
type GeoDistance struct {
	Common
	Field  string
	Origin geo.Point
	Unit   string
	Ranges []RangeItem
}

// Source implements Node.
func (a GeoDistance) Source() map[string]any {
	unit := a.Unit
	if unit == "" {
		unit = query.UnitKilometers
	}
	return a.wrap(map[string]any{"geo_distance": map[string]any{
		"field":  a.Field,
		"origin": a.Origin.Source(),
		"unit":   unit,
		"ranges": rangeItems(a.Ranges),
	}})
}

// MetricType is a single-value or stats metric.
type MetricType string

// Metric types.
const (
	MetricMin         MetricType = "min"
	MetricMax         MetricType = "max"
	MetricAvg         MetricType = "avg"
	MetricSum         MetricType = "sum"
	MetricStats       MetricType = "stats"
	MetricCardinality MetricType = "cardinality"
)

// Valid reports whether t is a known metric.
func (t MetricType) Valid() bool {
	switch t {
	case MetricMin, MetricMax, MetricAvg, MetricSum, MetricStats, MetricCardinality:
		return true
	}
	return false
}

// Metric computes a value over Field.
type Metric struct {
	Common
	Type  MetricType
	Field string
}

// Source implements Node.
func (a Metric) Source() map[string]any {
	return a.wrap(map[string]any{string(a.Type): map[string]any{"field": a.Field}})
}

// DefaultGapPolicy is the gap policy of pipelines that do not set one.
const DefaultGapPolicy = "skip"

// BucketSelector keeps the parent buckets for which Script returns true.
type BucketSelector struct {
	AggName     string
	BucketsPath map[string]string
	Script      string
	GapPolicy   string
}

// Name implements Node.
func (p BucketSelector) Name() string { return p.AggName }

// Source implements Node.
func (p BucketSelector) Source() map[string]any {
	paths := make(map[string]any, len(p.BucketsPath))
	for k, v := range p.BucketsPath {
		paths[k] = v
	}
	return map[string]any{"bucket_selector": map[string]any{
		"buckets_path": paths,
		"script":       p.Script,
		"gap_policy":   gapPolicy(p.GapPolicy),
	}}
}

// MaxBucket finds the sibling bucket with the highest BucketsPath value.
type MaxBucket struct {
	AggName     string
	BucketsPath string
	GapPolicy   string
	Format      string
}

// Name implements Node.
func (p MaxBucket) Name() string { return p.AggName }

// Source implements Node.
func (p MaxBucket) Source() map[string]any {
	body := map[string]any{
		"buckets_path": p.BucketsPath,
		"gap_policy":   gapPolicy(p.GapPolicy),
	}
	if p.Format != "" {
		body["format"] = p.Format
	}
	return map[string]any{"max_bucket": body}
}

func gapPolicy(p string) string {
	if p == "" {
		return DefaultGapPolicy
	}
	return p
}
