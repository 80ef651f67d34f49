package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchc/internal/domain/search/request"
)

func TestParse_Total(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		policy request.TrackTotalHits
		total  int64
		exact  bool
	}{
		{"relation eq", `{"hits":{"total":{"value":5,"relation":"eq"}}}`, request.TrackNone(), 5, true},
		{"relation gte", `{"hits":{"total":{"value":10000,"relation":"gte"}}}`, request.TrackExact(), 10000, false},
		{"int under limit", `{"hits":{"total":12}}`, request.TrackUpTo(100), 12, true},
		{"int at limit", `{"hits":{"total":100}}`, request.TrackUpTo(100), 100, false},
		{"int tracking disabled", `{"hits":{"total":3}}`, request.TrackNone(), 3, false},
		{"missing", `{"hits":{}}`, request.TrackExact(), 0, false},
		{"object without relation", `{"hits":{"total":{"value":2}}}`, request.TrackUpTo(100), 2, true},
		{"object without relation at limit", `{"hits":{"total":{"value":100}}}`, request.TrackUpTo(100), 100, false},
		{"object without relation untracked", `{"hits":{"total":{"value":2}}}`, request.TrackNone(), 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Parse([]byte(tt.raw), tt.policy)
			require.NoError(t, err)
			assert.Equal(t, tt.total, resp.Total())
			assert.Equal(t, tt.exact, resp.IsExact())
		})
	}
}

func TestParse_TotalWithoutRelationKeepsHits(t *testing.T) {
	raw := `{"hits":{"total":{"value":2},"hits":[
	  {"_id":"b","_index":"catalog_fr","_score":2.5,"_source":{"name":"bag"}},
	  {"_id":"a","_index":"catalog_fr","_score":1.5,"_source":{"name":"belt"}}
	]}}`
	resp, err := Parse([]byte(raw), request.DefaultTrackTotalHits())
	require.NoError(t, err)

	assert.Equal(t, int64(2), resp.Total())
	assert.True(t, resp.IsExact())
	docs := resp.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "b", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
	assert.Equal(t, 2.5, docs[0].Score)
}

func TestParse_NestedFacet(t *testing.T) {
	raw := `{"hits":{"total":1,"hits":[]},"aggregations":{
	  "size": {"doc_count": 4, "size": {"doc_count": 9, "size": {"buckets": [
	    {"key": "M", "doc_count": 5, "reverse_nested": {"doc_count": 3}},
	    {"key": "L", "doc_count": 4, "reverse_nested": {"doc_count": 2}}
	  ]}}}}}`
	resp, err := Parse([]byte(raw), request.TrackExact())
	require.NoError(t, err)

	size, ok := resp.Aggregation("size")
	require.True(t, ok)
	require.Len(t, size.Buckets, 2)
	assert.Equal(t, "M", size.Buckets[0].Key)
	assert.Equal(t, int64(5), size.Buckets[0].DocCount)
	assert.Equal(t, int64(3), size.Buckets[0].RootCount())
	assert.Equal(t, int64(2), size.Buckets[1].RootCount())
}

func TestParse_KeyedBucketsKeepOrder(t *testing.T) {
	raw := `{"hits":{"total":0,"hits":[]},"aggregations":{
	  "stock": {"buckets": {"zeta": {"doc_count": 1}, "alpha": {"doc_count": 0}, "mid": {"doc_count": 7}}}}}`
	resp, err := Parse([]byte(raw), request.TrackExact())
	require.NoError(t, err)

	stock, _ := resp.Aggregation("stock")
	keys := make([]string, len(stock.Buckets))
	for i, b := range stock.Buckets {
		keys[i] = b.Key
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)
	assert.Zero(t, stock.Buckets[1].DocCount)
}

func TestParse_BucketKeys(t *testing.T) {
	raw := `{"hits":{"total":0,"hits":[]},"aggregations":{
	  "combo": {"buckets": [{"key": ["red", 42], "key_as_string": "red|42", "doc_count": 2}]},
	  "price": {"buckets": [{"key": 10.0, "doc_count": 1}, {"key": 1700000000000, "key_as_string": "2023-11-14", "doc_count": 1}]},
	  "range": {"buckets": [{"key": "*-10.0", "to": 10.0, "doc_count": 3}]}}}`
	resp, err := Parse([]byte(raw), request.TrackExact())
	require.NoError(t, err)

	combo, _ := resp.Aggregation("combo")
	assert.Equal(t, "red|42", combo.Buckets[0].Key)
	assert.Equal(t, []string{"red", "42"}, combo.Buckets[0].Keys)

	price, _ := resp.Aggregation("price")
	assert.Equal(t, "10", price.Buckets[0].Key)
	assert.Equal(t, "2023-11-14", price.Buckets[1].Key)

	rng, _ := resp.Aggregation("range")
	assert.Equal(t, "*-10.0", rng.Buckets[0].Key)
}

func TestParse_Metrics(t *testing.T) {
	raw := `{"hits":{"total":0,"hits":[]},"aggregations":{
	  "max_price": {"value": 99.5},
	  "empty_max": {"value": null},
	  "price_stats": {"count": 2, "min": 1.0, "max": 3.0, "avg": 2.0, "sum": 4.0}}}`
	resp, err := Parse([]byte(raw), request.TrackExact())
	require.NoError(t, err)

	maxPrice, _ := resp.Aggregation("max_price")
	require.NotNil(t, maxPrice.Value)
	assert.InDelta(t, 99.5, *maxPrice.Value, 1e-9)

	empty, _ := resp.Aggregation("empty_max")
	assert.Nil(t, empty.Value)

	st, _ := resp.Aggregation("price_stats")
	assert.Equal(t, 3.0, st.Stats["max"])
	assert.Equal(t, 2.0, st.Stats["count"])
}

func TestParse_SubAggregations(t *testing.T) {
	raw := `{"hits":{"total":0,"hits":[]},"aggregations":{
	  "brand": {"buckets": [{"key": "acme", "doc_count": 4, "avg_price": {"value": 12.5}}]}}}`
	resp, err := Parse([]byte(raw), request.TrackExact())
	require.NoError(t, err)

	brand, _ := resp.Aggregation("brand")
	avg, ok := brand.Buckets[0].Children["avg_price"]
	require.True(t, ok)
	assert.InDelta(t, 12.5, *avg.Value, 1e-9)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`not json`), request.TrackExact())
	assert.Error(t, err)

	_, err = Parse([]byte(`{"hits":{"total":"x"}}`), request.TrackExact())
	assert.Error(t, err)
}
