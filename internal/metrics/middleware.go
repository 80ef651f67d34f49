package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// containerParam is the route parameter naming a container.
const containerParam = "name"

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchc",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by route and container",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "container", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchc",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and container",
		},
		[]string{"method", "route", "container", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
}

// Middleware records request duration and count per chi route pattern. Container routes
// are also labelled with the container name, which is bounded by the loaded configuration.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route, container := routeLabels(r)
			status := strconv.Itoa(ww.status)

			httpRequestDuration.WithLabelValues(r.Method, route, container, status).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, route, container, status).Inc()
		})
	}
}

// routeLabels reads the matched pattern and container after the router has run.
// Unmatched requests share one label so raw paths never reach the metrics.
func routeLabels(r *http.Request) (route, container string) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return normalizeRoute(""), ""
	}
	return normalizeRoute(rctx.RoutePattern()), rctx.URLParam(containerParam)
}

func normalizeRoute(pattern string) string {
	if pattern == "" {
		return "unmatched"
	}
	return pattern
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b) //nolint:wrapcheck // delegating to underlying ResponseWriter
}
