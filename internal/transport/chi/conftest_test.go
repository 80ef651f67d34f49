package chi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchc/internal/domain"
	"github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	"github.com/kailas-cloud/searchc/internal/domain/relevance"
	domrule "github.com/kailas-cloud/searchc/internal/domain/rule"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/domain/search/request"
	"github.com/kailas-cloud/searchc/internal/domain/search/response"
	healthuc "github.com/kailas-cloud/searchc/internal/usecase/health"
	searchuc "github.com/kailas-cloud/searchc/internal/usecase/search"
)

// --- Mocks ---

type mockContainers struct {
	cfg container.Configuration
}

func (m *mockContainers) Get(name, catalog string) (container.Configuration, error) {
	if name != m.cfg.Name() {
		return container.Configuration{}, fmt.Errorf("%w: %q", domain.ErrContainerNotFound, name)
	}
	return m.cfg.ForCatalog(catalog, m.cfg.Relevance()), nil
}

func (m *mockContainers) Names() []string { return []string{m.cfg.Name()} }

type mockSearcher struct {
	buildFn func(ctx context.Context, cfg container.Configuration, p searchuc.Params) (request.Request, error)
	runFn   func(ctx context.Context, req *request.Request) (response.Response, error)
}

func (m *mockSearcher) Build(ctx context.Context, cfg container.Configuration, p searchuc.Params) (request.Request, error) {
	return m.buildFn(ctx, cfg, p)
}

func (m *mockSearcher) Run(ctx context.Context, req *request.Request) (response.Response, error) {
	return m.runFn(ctx, req)
}

type mockRules struct {
	compileFn    func(ctx context.Context, raw map[string]any, cfg container.Configuration) (query.Node, error)
	invalidated  []string
	fieldChanges []domrule.FieldChange
	err          error
}

func (m *mockRules) TransformRuleToFilters(
	ctx context.Context, raw map[string]any, cfg container.Configuration,
) (query.Node, error) {
	return m.compileFn(ctx, raw, cfg)
}

func (m *mockRules) Invalidate(_ context.Context, tags ...string) error {
	m.invalidated = append(m.invalidated, tags...)
	return m.err
}

func (m *mockRules) InvalidateFieldChange(_ context.Context, change domrule.FieldChange) error {
	m.fieldChanges = append(m.fieldChanges, change)
	return m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

// --- Helpers ---

func testContainer(t *testing.T) container.Configuration {
	t.Helper()
	sku, err := mapping.NewField("sku", mapping.Keyword, mapping.Filterable(), mapping.Searchable(2))
	require.NoError(t, err)
	cfg, err := container.New(container.Params{
		Name:      "catalog_view",
		Index:     "{catalog}_product",
		Mapping:   mapping.MustNew(sku),
		Relevance: relevance.Default(),
	})
	require.NoError(t, err)
	return cfg
}

type testServer struct {
	router   http.Handler
	search   *mockSearcher
	rules    *mockRules
	health   *mockHealth
	lastCfg  container.Configuration
	lastArgs searchuc.Params
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		rules:  &mockRules{},
		health: &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}},
	}
	ts.search = &mockSearcher{
		buildFn: func(_ context.Context, cfg container.Configuration, p searchuc.Params) (request.Request, error) {
			ts.lastCfg, ts.lastArgs = cfg, p
			return request.New(request.Params{Name: cfg.Name(), Index: cfg.Index(), Size: 20})
		},
		runFn: func(context.Context, *request.Request) (response.Response, error) {
			return response.New(nil, 0, true, 1, nil), nil
		},
	}
	srv := NewServer(&mockContainers{cfg: testContainer(t)}, ts.search, ts.rules, ts.health, zap.NewNop())
	r := chi.NewRouter()
	srv.Routes(r)
	ts.router = r
	return ts
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	ts.router.ServeHTTP(rr, req)
	return rr
}
