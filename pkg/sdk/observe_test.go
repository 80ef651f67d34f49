package searchc

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/searchc/internal/domain"
)

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs.observe("compile", "catalog_view", time.Now(), nil)
	obs.observe("compile", "catalog_view", time.Now(), domain.ErrFieldNotSortable)

	ok := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("compile", "ok", ""))
	if ok != 1 {
		t.Errorf("ok = %v, want 1", ok)
	}
	failed := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("compile", "error", "field_not_sortable"))
	if failed != 1 {
		t.Errorf("failed = %v, want 1", failed)
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second registration: %v", err)
	}
	if first.metrics.operations != second.metrics.operations {
		t.Error("expected the registered counter to be reused")
	}
}

func TestObserver_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs, err := newObserver(logger, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs.observe("search", "catalog_view", time.Now(), errors.New("boom"))
	out := buf.String()
	for _, want := range []string{"operation failed", "op=search", "container=catalog_view", "error=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q does not contain %q", out, want)
		}
	}
}

func TestObserver_Nil(t *testing.T) {
	var obs *observer
	obs.observe("ping", "", time.Now(), nil)
}
