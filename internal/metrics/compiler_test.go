package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/searchc/internal/domain"
)

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{fmt.Errorf("compile: %w", domain.ErrFieldNotFound), "field_not_found"},
		{domain.NewNestingConflict("a.b", "a", "c"), "nesting_conflict"},
		{domain.NewUnsupportedCondition("sku", "regexp"), "unsupported_condition"},
		{domain.NewRuleError(domain.ErrInvalidValueType, "qty", "expected a number"), "invalid_value_type"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		if got := ErrorType(tt.err); got != tt.want {
			t.Errorf("ErrorType(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRegisterCompilerMetrics_Idempotent(t *testing.T) {
	RegisterCompilerMetrics()
	RegisterCompilerMetrics()
}
