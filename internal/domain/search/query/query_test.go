package query

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchc/internal/domain"
	"github.com/kailas-cloud/searchc/internal/domain/geo"
)

// wire renders n through JSON so assertions compare what the engine receives.
func wire(t *testing.T, n Node) map[string]any {
	t.Helper()
	data, err := Encode(n)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &out))
	return out
}

func TestSource_Terms(t *testing.T) {
	got := wire(t, Terms{Meta: Meta{Name: "color"}, Field: "color.value", Values: []any{"red", "blue"}})
	assert.Equal(t, decodeJSON(t, `{"terms":{"color.value":["red","blue"],"boost":1,"_name":"color"}}`), got)
}

func TestSource_Range(t *testing.T) {
	got := wire(t, Range{Field: "price", Bounds: Bounds{Gte: 10, Lte: 50}})
	assert.Equal(t, decodeJSON(t, `{"range":{"price":{"gte":10,"lte":50,"boost":1}}}`), got)
}

func TestSource_DateRange(t *testing.T) {
	got := wire(t, DateRange{Field: "created_at", Format: "yyyy-MM-dd", Bounds: Bounds{Gt: "2024-01-01"}})
	assert.Equal(t, decodeJSON(t,
		`{"range":{"created_at":{"gt":"2024-01-01","format":"yyyy-MM-dd","boost":1}}}`), got)
}

func TestSource_NotAndMissing(t *testing.T) {
	not := wire(t, Not{Query: Terms{Field: "sku", Values: []any{"a"}}})
	assert.Equal(t, decodeJSON(t,
		`{"bool":{"must_not":[{"terms":{"sku":["a"],"boost":1}}],"boost":1}}`), not)

	missing := wire(t, Missing{Field: "sku"})
	assert.Equal(t, decodeJSON(t,
		`{"bool":{"must_not":[{"exists":{"field":"sku","boost":1}}],"boost":1}}`), missing)
}

func TestSource_Filtered(t *testing.T) {
	filter := Term{Field: "stock.status", Value: true}
	match := Match{Field: "name", Query: "bag"}

	assert.Equal(t, decodeJSON(t,
		`{"constant_score":{"filter":{"term":{"stock.status":{"value":true,"boost":1}}},"boost":1}}`),
		wire(t, Filtered{Filter: filter}))

	assert.Equal(t, decodeJSON(t, `{"bool":{
		"must":[{"match":{"name":{"query":"bag","boost":1}}}],
		"filter":{"term":{"stock.status":{"value":true,"boost":1}}},
		"boost":1}}`), wire(t, Filtered{Query: match, Filter: filter}))

	assert.Equal(t, decodeJSON(t, `{"match_all":{"boost":1}}`), wire(t, Filtered{}))
}

func TestSource_GeoDistance(t *testing.T) {
	p, _ := geo.NewPoint(48.85, 2.35)
	got := wire(t, GeoDistance{Field: "store", Distance: 10, Location: p})
	assert.Equal(t, decodeJSON(t,
		`{"geo_distance":{"distance":"10km","store":{"lat":48.85,"lon":2.35},"boost":1}}`), got)
}

func TestSource_SpanNear(t *testing.T) {
	got := wire(t, SpanNear{
		Meta:    Meta{Boost: 10},
		Clauses: []Node{SpanTerm{Field: "name.whitespace", Value: "red"}, SpanTerm{Field: "name.whitespace", Value: "bag"}},
		Slop:    2,
		InOrder: true,
	})
	assert.Equal(t, decodeJSON(t, `{"span_near":{"clauses":[
		{"span_term":{"name.whitespace":{"value":"red","boost":1}}},
		{"span_term":{"name.whitespace":{"value":"bag","boost":1}}}],
		"slop":2,"in_order":true,"boost":10}}`), got)
}

func TestNewNested_Scope(t *testing.T) {
	n, err := NewNested("variants", Terms{Field: "variants.size", Values: []any{"M"}})
	require.NoError(t, err)
	assert.Equal(t, decodeJSON(t,
		`{"nested":{"path":"variants","query":{"terms":{"variants.size":["M"],"boost":1}},"score_mode":"none","boost":1}}`),
		wire(t, n))

	_, err = NewNested("variants", Bool{Must: []Node{
		Terms{Field: "variants.size", Values: []any{"M"}},
		Terms{Field: "color", Values: []any{"red"}},
	}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidNesting))
}

func TestFields(t *testing.T) {
	n := Bool{
		Must:   []Node{MultiMatch{Fields: []string{"name^2", "search"}}},
		Filter: []Node{Not{Query: Exists{Field: "sku"}}},
	}
	assert.Equal(t, []string{"name", "search", "sku"}, Fields(n))
}

func TestAnd(t *testing.T) {
	a := Terms{Field: "a", Values: []any{1}}
	b := Terms{Field: "b", Values: []any{2}}
	assert.Nil(t, And())
	assert.Nil(t, And(nil, nil))
	assert.Equal(t, a, And(nil, a))
	assert.Equal(t, Bool{Must: []Node{a, b}}, And(a, nil, b))
}

func TestDecode_RoundTrip(t *testing.T) {
	p, _ := geo.NewPoint(10, 20)
	nested, _ := NewNested("category", Terms{Field: "category.id", Values: []any{"c1"}})
	nodes := []Node{
		Bool{
			Must: []Node{Match{Field: "sku", Query: "bag"}},
			Should: []Node{
				Range{Field: "qty", Bounds: Bounds{Gte: 1.0}},
				DateRange{Field: "created_at", Format: "yyyy-MM-dd", Bounds: Bounds{Lt: "2024-01-01"}},
			},
			MustNot:            []Node{Bool{MustNot: []Node{Exists{Field: "ean"}}}},
			MinimumShouldMatch: "1",
		},
		Term{Meta: Meta{Name: "in_stock", Boost: 2}, Field: "stock.status", Value: true},
		nested,
		GeoDistance{Field: "store", Distance: 2.5, Location: p},
		MatchAll{},
	}
	for _, n := range nodes {
		t.Run(string(n.Kind()), func(t *testing.T) {
			data, err := Encode(n)
			require.NoError(t, err)
			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, n, got)
		})
	}
}

func TestDecode_Null(t *testing.T) {
	n, err := Decode([]byte("null"))
	require.NoError(t, err)
	assert.Nil(t, n)

	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestDecode_Unsupported(t *testing.T) {
	_, err := Decode([]byte(`{"script":{"source":"1"}}`))
	assert.Error(t, err)
}
