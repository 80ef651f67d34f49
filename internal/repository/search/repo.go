// Package search runs compiled requests on the engine and parses the responses.
package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/searchc/internal/domain/search/request"
	"github.com/kailas-cloud/searchc/internal/domain/search/response"
)

// engine is the consumer interface for the search engine (ISP).
type engine interface {
	Search(ctx context.Context, index string, body []byte) ([]byte, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	engine engine
}

// New creates a search repository.
func New(e engine) *Repo {
	return &Repo{engine: e}
}

// Search sends req to its index and parses the response.
func (r *Repo) Search(ctx context.Context, req *request.Request) (response.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return response.Response{}, fmt.Errorf("encode request: %w", err)
	}
	raw, err := r.engine.Search(ctx, req.Index(), body)
	if err != nil {
		return response.Response{}, fmt.Errorf("search %s: %w", req.Index(), err)
	}
	return Parse(raw, req.TrackTotalHits())
}
