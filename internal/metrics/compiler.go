package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/searchc/internal/domain"
)

// Compiler Prometheus metrics.
var (
	CompileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchc",
			Name:      "compile_duration_seconds",
			Help:      "Search request compilation duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"kind"}, // "search" / "rule"
	)

	CompileErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchc",
			Name:      "compile_errors_total",
			Help:      "Total compilation errors",
		},
		[]string{"kind", "error_type"},
	)

	RuleCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchc",
			Name:      "rule_cache_total",
			Help:      "Rule cache hits, misses and backend errors",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)

	SpellingTypeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchc",
			Name:      "spelling_type_total",
			Help:      "Search texts by spelling classification",
		},
		[]string{"type"},
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchc",
			Name:      "engine_request_duration_seconds",
			Help:      "Search engine request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation", "status"},
	)
)

var compilerMetricsRegistered bool

// RegisterCompilerMetrics registers Prometheus compiler metrics. Must be called once from main.
func RegisterCompilerMetrics() {
	if compilerMetricsRegistered {
		return
	}
	prometheus.MustRegister(CompileDuration)
	prometheus.MustRegister(CompileErrorsTotal)
	prometheus.MustRegister(RuleCacheTotal)
	prometheus.MustRegister(SpellingTypeTotal)
	prometheus.MustRegister(EngineRequestDuration)
	compilerMetricsRegistered = true
}

// ErrorType returns a low-cardinality label for err.
func ErrorType(err error) string {
	if err == nil {
		return "none"
	}
	for _, c := range errorClasses {
		if errors.Is(err, c.sentinel) {
			return c.label
		}
	}
	return "other"
}

var errorClasses = []struct {
	sentinel error
	label    string
}{
	{domain.ErrFieldNotFound, "field_not_found"},
	{domain.ErrInvalidNesting, "invalid_nesting"},
	{domain.ErrNestingConflict, "nesting_conflict"},
	{domain.ErrUnsupportedCondition, "unsupported_condition"},
	{domain.ErrMultiFieldSortNotSupported, "multi_field_sort"},
	{domain.ErrFieldNotSortable, "field_not_sortable"},
	{domain.ErrMissingContext, "missing_context"},
	{domain.ErrFieldNotRuleEnabled, "field_not_rule_enabled"},
	{domain.ErrAttributeTypeMismatch, "attribute_type_mismatch"},
	{domain.ErrUnsupportedOperator, "unsupported_operator"},
	{domain.ErrInvalidValueType, "invalid_value_type"},
	{domain.ErrMissingField, "missing_field"},
	{domain.ErrInvalidRule, "invalid_rule"},
	{domain.ErrContainerNotFound, "container_not_found"},
	{domain.ErrEngineUnavailable, "engine_unavailable"},
}
