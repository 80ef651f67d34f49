package search

import (
	"context"

	"github.com/kailas-cloud/searchc/internal/domain/container"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/domain/search/request"
	"github.com/kailas-cloud/searchc/internal/domain/search/response"
	"github.com/kailas-cloud/searchc/internal/domain/search/spelling"
	"github.com/kailas-cloud/searchc/internal/usecase/spellcheck"
)

// Repository executes compiled requests against the search engine.
type Repository interface {
	Search(ctx context.Context, req *request.Request) (response.Response, error)
}

// Spellchecker classifies search texts.
type Spellchecker interface {
	SpellingType(ctx context.Context, req spellcheck.Request) (spelling.Type, error)
}

// RuleCompiler turns a serialized rule tree into a filter.
type RuleCompiler interface {
	TransformRuleToFilters(ctx context.Context, raw map[string]any, cfg container.Configuration) (query.Node, error)
}
