// Package chi exposes the compiler over HTTP for operators and integration tests.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/searchc/internal/domain"
	"github.com/kailas-cloud/searchc/internal/domain/container"
	domrule "github.com/kailas-cloud/searchc/internal/domain/rule"
	"github.com/kailas-cloud/searchc/internal/domain/search/query"
	"github.com/kailas-cloud/searchc/internal/domain/search/request"
	"github.com/kailas-cloud/searchc/internal/domain/search/response"
	logpkg "github.com/kailas-cloud/searchc/internal/logger"
	healthuc "github.com/kailas-cloud/searchc/internal/usecase/health"
	searchuc "github.com/kailas-cloud/searchc/internal/usecase/search"
)

// Error codes.
const (
	codeBadRequest        = "bad_request"
	codeInvalidQuery      = "invalid_query"
	codeContainerNotFound = "container_not_found"
	codeEngineUnavailable = "engine_unavailable"
	codeInternal          = "internal_error"
)

// Containers resolves container configurations.
type Containers interface {
	Get(name, catalog string) (container.Configuration, error)
	Names() []string
}

// Searcher compiles and runs search requests.
type Searcher interface {
	Build(ctx context.Context, cfg container.Configuration, p searchuc.Params) (request.Request, error)
	Run(ctx context.Context, req *request.Request) (response.Response, error)
}

// Rules compiles rule trees and invalidates their cache.
type Rules interface {
	TransformRuleToFilters(ctx context.Context, raw map[string]any, cfg container.Configuration) (query.Node, error)
	Invalidate(ctx context.Context, tags ...string) error
	InvalidateFieldChange(ctx context.Context, change domrule.FieldChange) error
}

// Health reports component availability.
type Health interface {
	Check(ctx context.Context) healthuc.Report
}

// Server serves the HTTP API.
type Server struct {
	containers Containers
	search     Searcher
	rules      Rules
	health     Health
	logger     *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(containers Containers, search Searcher, rules Rules, health Health, logger *zap.Logger) *Server {
	return &Server{
		containers: containers,
		search:     search,
		rules:      rules,
		health:     health,
		logger:     logger,
	}
}

// Routes registers the endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/containers", s.ListContainers)
		r.Post("/containers/{name}/compile", s.CompileRequest)
		r.Post("/containers/{name}/search", s.Search)
		r.Post("/rules/compile", s.CompileRule)
		r.Post("/rule-cache/invalidate", s.InvalidateRuleCache)
	})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// ListContainers handles GET /v1/containers.
func (s *Server) ListContainers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.containers.Names()})
}

// CompileRequest handles POST /v1/containers/{name}/compile: it returns the engine request
// without running it.
func (s *Server) CompileRequest(w http.ResponseWriter, r *http.Request) {
	cfg, req, ok := s.build(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, compileResponse{
		Container:    cfg.Name(),
		Index:        req.Index(),
		SpellingType: req.SpellingType().String(),
		Body:         req.Source(),
	})
}

// Search handles POST /v1/containers/{name}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	_, req, ok := s.build(w, r)
	if !ok {
		return
	}
	resp, err := s.search.Run(r.Context(), &req)
	if err != nil {
		s.handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponseToJSON(&resp))
}

func (s *Server) build(w http.ResponseWriter, r *http.Request) (container.Configuration, request.Request, bool) {
	var body searchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return container.Configuration{}, request.Request{}, false
	}
	params, err := body.toParams()
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidQuery, err.Error())
		return container.Configuration{}, request.Request{}, false
	}
	name := chi.URLParam(r, "name")
	cfg, err := s.containers.Get(name, body.Catalog)
	if err != nil {
		s.handleError(w, err)
		return container.Configuration{}, request.Request{}, false
	}
	ctx := logpkg.WithFields(r.Context(), zap.String("container", name), zap.String("catalog", body.Catalog))
	req, err := s.search.Build(ctx, cfg, params)
	if err != nil {
		s.handleCompileError(w, err)
		return container.Configuration{}, request.Request{}, false
	}
	return cfg, req, true
}

// CompileRule handles POST /v1/rules/compile.
func (s *Server) CompileRule(w http.ResponseWriter, r *http.Request) {
	var body ruleCompileRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if body.Container == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "container is required")
		return
	}
	cfg, err := s.containers.Get(body.Container, body.Catalog)
	if err != nil {
		s.handleError(w, err)
		return
	}
	n, err := s.rules.TransformRuleToFilters(r.Context(), body.Rule, cfg)
	if err != nil {
		s.handleCompileError(w, err)
		return
	}
	resp := ruleCompileResponse{}
	if n != nil {
		resp.Filter = n.Source()
	}
	writeJSON(w, http.StatusOK, resp)
}

// InvalidateRuleCache handles POST /v1/rule-cache/invalidate.
func (s *Server) InvalidateRuleCache(w http.ResponseWriter, r *http.Request) {
	var body invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	var err error
	switch {
	case body.FieldChange != nil:
		fc := body.FieldChange
		err = s.rules.InvalidateFieldChange(r.Context(), domrule.FieldChange{
			EntityType: fc.EntityType,
			Kind:       domrule.ChangeKind(fc.Kind),
			Field:      fc.Field,
			Catalog:    fc.Catalog,
		})
	case len(body.Tags) > 0:
		err = s.rules.Invalidate(r.Context(), body.Tags...)
	default:
		writeError(w, http.StatusBadRequest, codeBadRequest, "tags or field_change is required")
		return
	}
	if err != nil {
		s.handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// handleCompileError answers a compilation failure: apart from the infrastructure sentinels
// every failure is the caller's.
func (s *Server) handleCompileError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrContainerNotFound) || errors.Is(err, domain.ErrEngineUnavailable) {
		s.handleError(w, err)
		return
	}
	s.logger.Debug("compile error", zap.Error(err))
	writeError(w, http.StatusBadRequest, codeInvalidQuery, err.Error())
}

func (s *Server) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrContainerNotFound):
		writeError(w, http.StatusNotFound, codeContainerNotFound, err.Error())
	case errors.Is(err, domain.ErrEngineUnavailable):
		s.logger.Warn("engine unavailable", zap.Error(err))
		writeError(w, http.StatusBadGateway, codeEngineUnavailable, domain.ErrEngineUnavailable.Error())
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
