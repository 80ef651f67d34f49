package rulecache

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/searchc/internal/db"
	"github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/mapping"
	"github.com/kailas-cloud/searchc/internal/domain/relevance"
	domrule "github.com/kailas-cloud/searchc/internal/domain/rule"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/usecase/rule"
)

// memStore is an in-memory store; the *Fn hooks override single operations.
type memStore struct {
	mu   sync.Mutex
	kv   map[string][]byte
	sets map[string]map[string]struct{}

	getFn   func(ctx context.Context, key string) ([]byte, error)
	setFn   func(ctx context.Context, key string, value []byte) error
	setNXFn func(ctx context.Context, key string) (bool, error)
	gets    int
}

func newMemStore() *memStore {
	return &memStore{kv: map[string][]byte{}, sets: map[string]map[string]struct{}{}}
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	m.gets++
	m.mu.Unlock()
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value
	return nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.kv, k)
		delete(m.sets, k)
	}
	return nil
}

func (m *memStore) Expire(_ context.Context, _ string, _ time.Duration) error { return nil }

func (m *memStore) SAdd(_ context.Context, key string, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sets[key] == nil {
		m.sets[key] = map[string]struct{}{}
	}
	for _, mem := range members {
		m.sets[key][mem] = struct{}{}
	}
	return nil
}

func (m *memStore) SMembers(_ context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sets[key]))
	for mem := range m.sets[key] {
		out = append(out, mem)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) SetNX(ctx context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	if m.setNXFn != nil {
		return m.setNXFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.kv[key]; ok {
		return false, nil
	}
	m.kv[key] = value
	return true, nil
}

func (m *memStore) entries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.kv)
}

// countingEngine counts compilations of the real engine.
type countingEngine struct {
	mu    sync.Mutex
	inner *rule.Engine
	calls int
}

func (e *countingEngine) Compile(root domrule.Combination, cfg container.Configuration) (query.Node, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return e.inner.Compile(root, cfg)
}

func (e *countingEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func testContainer(t *testing.T, catalog string) container.Configuration {
	t.Helper()
	sku, err := mapping.NewField("sku", mapping.Keyword, mapping.Filterable())
	if err != nil {
		t.Fatal(err)
	}
	m, err := mapping.New(sku)
	if err != nil {
		t.Fatal(err)
	}
	c, err := container.New(container.Params{
		Name:      "product_catalog",
		Index:     "gally_{catalog}_product",
		Mapping:   m,
		Relevance: relevance.Default(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return c.ForCatalog(catalog, relevance.Default())
}

func skuRule(value string) map[string]any {
	return map[string]any{
		"type": "combination", "operator": "all", "value": "true",
		"children": []any{map[string]any{
			"type": "attribute", "field": "sku", "operator": "match",
			"attribute_type": "keyword", "value": value,
		}},
	}
}

func newTestCompiler(t *testing.T, s store) (*Compiler, *countingEngine) {
	t.Helper()
	eng := &countingEngine{inner: rule.NewEngine()}
	opts := DefaultOptions()
	opts.PollInterval = time.Millisecond
	opts.PollAttempts = 3
	return New(eng, s, opts, nil, zap.NewNop()), eng
}
