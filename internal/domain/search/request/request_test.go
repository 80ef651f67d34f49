package request

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchc/internal/domain/search/aggregation"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/domain/search/sort"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New(Params{Index: "catalog_default_product", Size: 10})
	require.NoError(t, err)

	assert.Equal(t, query.MatchAll{}, r.Query())
	assert.Nil(t, r.PostFilter())
	assert.Equal(t, DefaultTrackTotalHits(), r.TrackTotalHits())
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"no index", Params{}},
		{"negative from", Params{Index: "i", From: -1}},
		{"negative size", Params{Index: "i", Size: -1}},
		{"duplicate aggregation", Params{Index: "i", Aggregations: []aggregation.Node{
			aggregation.Terms{Common: aggregation.Common{AggName: "color"}, Field: "color"},
			aggregation.Terms{Common: aggregation.Common{AggName: "color"}, Field: "colour"},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.p)
			assert.Error(t, err)
		})
	}
}

func TestRequest_MarshalJSON(t *testing.T) {
	exact := TrackExact()
	r, err := New(Params{
		Index:          "catalog_default_product",
		From:           20,
		Size:           10,
		Query:          query.Terms{Field: "sku", Values: []any{"a"}},
		PostFilter:     query.Terms{Field: "color", Values: []any{"red"}},
		Sort:           []sort.Order{sort.NewStandard(sort.ScoreField, sort.Desc)},
		Aggregations:   []aggregation.Node{aggregation.Terms{Common: aggregation.Common{AggName: "color"}, Field: "color"}},
		TrackTotalHits: &exact,
	})
	require.NoError(t, err)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	var want map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"query":{"terms":{"sku":["a"],"boost":1}},
		"post_filter":{"terms":{"color":["red"],"boost":1}},
		"sort":[{"_score":{"order":"desc"}}],
		"aggregations":{"color":{"terms":{"field":"color","size":10,"order":{"_count":"desc"}}}},
		"from":20,"size":10,"track_total_hits":true}`), &want))
	assert.Equal(t, want, got)
}

func TestParseTrackTotalHits(t *testing.T) {
	tests := []struct {
		in      any
		want    any
		wantErr bool
	}{
		{true, true, false},
		{false, false, false},
		{500, 500, false},
		{float64(100), 100, false},
		{"true", true, false},
		{"250", 250, false},
		{0, true, false},
		{1.5, nil, true},
		{"lots", nil, true},
		{[]int{1}, nil, true},
	}
	for _, tt := range tests {
		got, err := ParseTrackTotalHits(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "%v", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Value(), "%v", tt.in)
	}
}

func TestTrackTotalHits_IsExact(t *testing.T) {
	assert.True(t, TrackExact().IsExact(1_000_000))
	assert.False(t, TrackNone().IsExact(0))
	assert.True(t, TrackUpTo(100).IsExact(99))
	assert.False(t, TrackUpTo(100).IsExact(100))
}
