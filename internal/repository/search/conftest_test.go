package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/searchc/internal/domain/search/request"
)

type mockEngine struct {
	searchFn func(ctx context.Context, index string, body []byte) ([]byte, error)
}

func (m *mockEngine) Search(ctx context.Context, index string, body []byte) ([]byte, error) {
	return m.searchFn(ctx, index, body)
}

func newTestRepo(fn func(ctx context.Context, index string, body []byte) ([]byte, error)) *Repo {
	return New(&mockEngine{searchFn: fn})
}

func newTestRequest(t *testing.T, p request.Params) *request.Request {
	t.Helper()
	if p.Index == "" {
		p.Index = "products_fr"
	}
	req, err := request.New(p)
	require.NoError(t, err)
	return &req
}
