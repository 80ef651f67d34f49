package searchc

import (
	"context"
	"fmt"
	"testing"

	"github.com/kailas-cloud/searchc/internal/domain"
	domcontainer "github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	"github.com/kailas-cloud/searchc/internal/domain/relevance"
	domrule "github.com/kailas-cloud/searchc/internal/domain/rule"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/domain/search/request"
	"github.com/kailas-cloud/searchc/internal/domain/search/response"
	healthuc "github.com/kailas-cloud/searchc/internal/usecase/health"
	searchuc "github.com/kailas-cloud/searchc/internal/usecase/search"
)

// --- containerSource mock ---

type mockContainers struct {
	cfg domcontainer.Configuration
}

func (m *mockContainers) Get(name, catalog string) (domcontainer.Configuration, error) {
	if name != m.cfg.Name() {
		return domcontainer.Configuration{}, fmt.Errorf("%w: %q", domain.ErrContainerNotFound, name)
	}
	return m.cfg.ForCatalog(catalog, m.cfg.Relevance()), nil
}

func (m *mockContainers) Names() []string { return []string{m.cfg.Name()} }

// --- searchUseCase mock ---

type mockSearchUC struct {
	buildFn func(ctx context.Context, cfg domcontainer.Configuration, p searchuc.Params) (request.Request, error)
	runFn   func(ctx context.Context, req *request.Request) (response.Response, error)
}

func (m *mockSearchUC) Build(
	ctx context.Context, cfg domcontainer.Configuration, p searchuc.Params,
) (request.Request, error) {
	return m.buildFn(ctx, cfg, p)
}

func (m *mockSearchUC) Run(ctx context.Context, req *request.Request) (response.Response, error) {
	return m.runFn(ctx, req)
}

// --- ruleUseCase mock ---

type mockRuleUC struct {
	compileFn    func(ctx context.Context, raw map[string]any, cfg domcontainer.Configuration) (query.Node, error)
	invalidated  []string
	fieldChanges []domrule.FieldChange
}

func (m *mockRuleUC) TransformRuleToFilters(
	ctx context.Context, raw map[string]any, cfg domcontainer.Configuration,
) (query.Node, error) {
	return m.compileFn(ctx, raw, cfg)
}

func (m *mockRuleUC) Invalidate(_ context.Context, tags ...string) error {
	m.invalidated = append(m.invalidated, tags...)
	return nil
}

func (m *mockRuleUC) InvalidateFieldChange(_ context.Context, change domrule.FieldChange) error {
	m.fieldChanges = append(m.fieldChanges, change)
	return nil
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

// --- helpers ---

func testContainer(t *testing.T) domcontainer.Configuration {
	t.Helper()
	sku, err := mapping.NewField("sku", mapping.Keyword, mapping.Filterable(), mapping.Searchable(2))
	if err != nil {
		t.Fatalf("new field: %v", err)
	}
	cfg, err := domcontainer.New(domcontainer.Params{
		Name:      "catalog_view",
		Index:     "{catalog}_product",
		Mapping:   mapping.MustNew(sku),
		Relevance: relevance.Default(),
	})
	if err != nil {
		t.Fatalf("new container: %v", err)
	}
	return cfg
}

func testClient(t *testing.T, searchSvc searchUseCase, rules ruleUseCase) *Client {
	t.Helper()
	return &Client{
		containers: &mockContainers{cfg: testContainer(t)},
		searchSvc:  searchSvc,
		rules:      rules,
	}
}
