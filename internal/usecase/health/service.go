package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	cache  Pinger
	engine Pinger
}

// New creates a Service. cache can be nil when rule caching is disabled.
func New(cache Pinger, engine Pinger) *Service {
	return &Service{cache: cache, engine: engine}
}

// Check runs health checks against all components. An engine failure makes the service
// unhealthy; a cache failure only degrades it, compiles then run uncached.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if s.cache != nil {
		checks["cache"] = result(s.cache.Ping(ctx))
		if checks["cache"] == CheckError {
			status = Degraded
		}
	}

	checks["engine"] = result(s.engine.Ping(ctx))
	if checks["engine"] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
