package chi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchc/internal/domain"
	"github.com/kailas-cloud/searchc/internal/domain/container"
	domrule "github.com/kailas-cloud/searchc/internal/domain/rule"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/domain/search/request"
	"github.com/kailas-cloud/searchc/internal/domain/search/response"
	"github.com/kailas-cloud/searchc/internal/domain/search/sort"
	healthuc "github.com/kailas-cloud/searchc/internal/usecase/health"
	searchuc "github.com/kailas-cloud/searchc/internal/usecase/search"
)

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode(t, rr.Body.Bytes())["status"])

	ts.health.report = healthuc.Report{
		Status: healthuc.Unhealthy,
		Checks: map[string]healthuc.CheckResult{"engine": healthuc.CheckError},
	}
	rr = ts.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestListContainers(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(http.MethodGet, "/v1/containers", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{"catalog_view"}, decode(t, rr.Body.Bytes())["items"])
}

func TestCompileRequest(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(http.MethodPost, "/v1/containers/catalog_view/compile", `{
		"catalog": "fr",
		"text": "bag",
		"filters": {"sku": "A"},
		"sort": [{"field": "sku", "direction": "desc"}],
		"size": 5,
		"track_total_hits": 100,
		"context": {"price_group": "2", "location": {"lat": 48.85, "lon": 2.35}}
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	got := decode(t, rr.Body.Bytes())
	assert.Equal(t, "fr_product", got["index"])
	assert.Equal(t, "exact", got["spelling_type"])
	assert.Contains(t, got["body"], "query")

	assert.Equal(t, "fr", ts.lastCfg.Catalog())
	assert.Equal(t, "bag", ts.lastArgs.Text)
	assert.Equal(t, map[string]any{"sku": "A"}, ts.lastArgs.Filters)
	assert.Equal(t, []sort.Spec{{Field: "sku", Direction: sort.Desc}}, ts.lastArgs.Sort)
	assert.Equal(t, 5, ts.lastArgs.Size)
	require.NotNil(t, ts.lastArgs.TrackTotalHits)
	assert.Equal(t, 100, ts.lastArgs.TrackTotalHits.Limit())
	assert.Equal(t, "2", ts.lastArgs.Context.PriceGroup)
	require.NotNil(t, ts.lastArgs.Context.ReferenceLocation)
}

func TestCompileRequest_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		buildErr error
		status   int
		code     string
	}{
		{"bad json", "/v1/containers/catalog_view/compile", `{`, nil, http.StatusBadRequest, codeBadRequest},
		{"bad direction", "/v1/containers/catalog_view/compile", `{"sort":[{"field":"sku","direction":"up"}]}`,
			nil, http.StatusBadRequest, codeInvalidQuery},
		{"bad facet", "/v1/containers/catalog_view/compile", `{"facets":[{"name":"p","type":"range"}]}`,
			nil, http.StatusBadRequest, codeInvalidQuery},
		{"unknown container", "/v1/containers/nope/compile", `{}`, nil, http.StatusNotFound, codeContainerNotFound},
		{"compile error", "/v1/containers/catalog_view/compile", `{}`,
			fmt.Errorf("filters: %w", domain.ErrFieldNotFound), http.StatusBadRequest, codeInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			if tt.buildErr != nil {
				ts.search.buildFn = func(context.Context, container.Configuration, searchuc.Params) (request.Request, error) {
					return request.Request{}, tt.buildErr
				}
			}
			rr := ts.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, decode(t, rr.Body.Bytes())["code"])
		})
	}
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t)
	n := int64(3)
	ts.search.runFn = func(_ context.Context, req *request.Request) (response.Response, error) {
		assert.Equal(t, "fr_product", req.Index())
		docs := []response.Document{{ID: "p1", Index: "fr_product", Score: 2, Source: map[string]any{"sku": "A"}}}
		aggs := map[string]response.Aggregation{
			"color": {Name: "color", Buckets: []response.Bucket{{Key: "red", DocCount: 4, Children: map[string]response.Aggregation{
				"reverse_nested": {Name: "reverse_nested", DocCount: &n},
			}}}},
		}
		return response.New(docs, 1, true, 6, aggs), nil
	}

	rr := ts.do(http.MethodPost, "/v1/containers/catalog_view/search", `{"catalog":"fr"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var got searchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.Total)
	assert.True(t, got.Exact)
	require.Len(t, got.Documents, 1)
	assert.Equal(t, "p1", got.Documents[0].ID)
	require.Len(t, got.Aggregations["color"].Buckets, 1)
	assert.Equal(t, int64(3), got.Aggregations["color"].Buckets[0].RootCount)
}

func TestSearch_EngineUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.search.runFn = func(context.Context, *request.Request) (response.Response, error) {
		return response.Response{}, fmt.Errorf("search fr_product: %w", domain.ErrEngineUnavailable)
	}
	rr := ts.do(http.MethodPost, "/v1/containers/catalog_view/search", `{"catalog":"fr"}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, codeEngineUnavailable, decode(t, rr.Body.Bytes())["code"])
}

func TestCompileRule(t *testing.T) {
	ts := newTestServer(t)
	ts.rules.compileFn = func(_ context.Context, raw map[string]any, cfg container.Configuration) (query.Node, error) {
		assert.Equal(t, "fr", cfg.Catalog())
		assert.Equal(t, "combination", raw["type"])
		return query.Terms{Field: "sku", Values: []any{"A"}}, nil
	}
	rr := ts.do(http.MethodPost, "/v1/rules/compile",
		`{"container":"catalog_view","catalog":"fr","rule":{"type":"combination","operator":"all"}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, map[string]any{"terms": map[string]any{"sku": []any{"A"}, "boost": 1.0}},
		decode(t, rr.Body.Bytes())["filter"])
}

func TestCompileRule_Errors(t *testing.T) {
	ts := newTestServer(t)
	ts.rules.compileFn = func(context.Context, map[string]any, container.Configuration) (query.Node, error) {
		return nil, domain.NewRuleError(domain.ErrFieldNotFound, "color", "not in mapping")
	}

	rr := ts.do(http.MethodPost, "/v1/rules/compile", `{"catalog":"fr","rule":{}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.do(http.MethodPost, "/v1/rules/compile", `{"container":"catalog_view","rule":{}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, codeInvalidQuery, decode(t, rr.Body.Bytes())["code"])

	rr = ts.do(http.MethodPost, "/v1/rules/compile", `{"container":"nope","rule":{}}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCompileRule_EmptyRule(t *testing.T) {
	ts := newTestServer(t)
	ts.rules.compileFn = func(context.Context, map[string]any, container.Configuration) (query.Node, error) {
		return nil, nil
	}
	rr := ts.do(http.MethodPost, "/v1/rules/compile", `{"container":"catalog_view","rule":{}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decode(t, rr.Body.Bytes())["filter"])
}

func TestInvalidateRuleCache(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do(http.MethodPost, "/v1/rule-cache/invalidate", `{"tags":["rule_engine_fr"]}`)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"rule_engine_fr"}, ts.rules.invalidated)

	rr = ts.do(http.MethodPost, "/v1/rule-cache/invalidate",
		`{"field_change":{"entity_type":"product","kind":"option_changed","field":"color","catalog":"fr"}}`)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	require.Len(t, ts.rules.fieldChanges, 1)
	assert.Equal(t, domrule.OptionChanged, ts.rules.fieldChanges[0].Kind)

	rr = ts.do(http.MethodPost, "/v1/rule-cache/invalidate", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	ts.rules.err = fmt.Errorf("read tag: boom")
	rr = ts.do(http.MethodPost, "/v1/rule-cache/invalidate", `{"tags":["rule_engine"]}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
