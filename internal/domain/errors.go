package domain

import (
	"errors"
	"fmt"
)

// Compilation errors. All of them are deterministic: retrying the same input fails the same way.
var (
	// ErrInvalidNesting signals a non-nested field filtered inside a nested scope.
	ErrInvalidNesting = errors.New("invalid nesting")
	// ErrNestingConflict signals a nested field filtered inside a different nested scope.
	ErrNestingConflict = errors.New("nesting conflict")
	// ErrUnsupportedCondition signals an unknown filter operator.
	ErrUnsupportedCondition = errors.New("unsupported condition")
	// ErrMultiFieldSortNotSupported signals a request sorting on more than one field.
	ErrMultiFieldSortNotSupported = errors.New("multi-field sort not supported")
	// ErrFieldNotSortable signals a sort on a field without the sortable flag.
	ErrFieldNotSortable = errors.New("field not sortable")
	// ErrMissingContext signals a scoped field used without the matching search context value.
	ErrMissingContext = errors.New("missing search context")

	// ErrFieldNotFound signals a reference to a field absent from the mapping.
	ErrFieldNotFound = errors.New("field not found")
	// ErrFieldNotRuleEnabled signals a rule on a field type that rules cannot target.
	ErrFieldNotRuleEnabled = errors.New("field not rule enabled")
	// ErrAttributeTypeMismatch signals a rule authored for a different field type.
	ErrAttributeTypeMismatch = errors.New("attribute type mismatch")
	// ErrUnsupportedOperator signals a rule operator not allowed for the field type.
	ErrUnsupportedOperator = errors.New("unsupported operator")
	// ErrInvalidValueType signals a rule value with the wrong shape or kind.
	ErrInvalidValueType = errors.New("invalid value type")
	// ErrMissingField signals a rule attribute without a field.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidRule signals a malformed rule tree.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrInvalidMapping signals an invalid field or mapping definition.
	ErrInvalidMapping = errors.New("invalid mapping")
	// ErrContainerNotFound signals an unknown container configuration.
	ErrContainerNotFound = errors.New("container not found")
	// ErrEngineUnavailable signals a search engine transport failure.
	ErrEngineUnavailable = errors.New("search engine unavailable")
)

// NestingError describes a field filtered outside its nested scope.
type NestingError struct {
	Field   string
	Path    string // nested path of the field, empty when not nested
	Context string // nested path the builder was in
	err     error
}

func (e *NestingError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: field %q is not nested but filtered inside %q", e.err, e.Field, e.Context)
	}
	return fmt.Sprintf("%s: field %q belongs to %q, cannot filter it inside %q", e.err, e.Field, e.Path, e.Context)
}

func (e *NestingError) Unwrap() error { return e.err }

// NewInvalidNesting creates an ErrInvalidNesting error.
func NewInvalidNesting(field, context string) error {
	return &NestingError{Field: field, Context: context, err: ErrInvalidNesting}
}

// NewNestingConflict creates an ErrNestingConflict error.
func NewNestingConflict(field, path, context string) error {
	return &NestingError{Field: field, Path: path, Context: context, err: ErrNestingConflict}
}

// ConditionError wraps ErrUnsupportedCondition with the offending operator.
type ConditionError struct {
	Field    string
	Operator string
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("%s: operator %q on field %q", ErrUnsupportedCondition, e.Operator, e.Field)
}

func (e *ConditionError) Unwrap() error { return ErrUnsupportedCondition }

// NewUnsupportedCondition creates a condition error.
func NewUnsupportedCondition(field, operator string) error {
	return &ConditionError{Field: field, Operator: operator}
}

// RuleError attaches the rule field and a reason to a rule validation sentinel.
type RuleError struct {
	Field  string
	Reason string
	err    error
}

func (e *RuleError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.err, e.Reason)
	}
	return fmt.Sprintf("%s: field %q: %s", e.err, e.Field, e.Reason)
}

func (e *RuleError) Unwrap() error { return e.err }

// NewRuleError creates a rule validation error wrapping sentinel.
func NewRuleError(sentinel error, field, reason string) error {
	return &RuleError{Field: field, Reason: reason, err: sentinel}
}
