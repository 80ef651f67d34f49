package searchc

import "github.com/kailas-cloud/searchc/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidNesting             = domain.ErrInvalidNesting
	ErrNestingConflict            = domain.ErrNestingConflict
	ErrUnsupportedCondition       = domain.ErrUnsupportedCondition
	ErrMultiFieldSortNotSupported = domain.ErrMultiFieldSortNotSupported
	ErrFieldNotSortable           = domain.ErrFieldNotSortable
	ErrMissingContext             = domain.ErrMissingContext
	ErrFieldNotFound              = domain.ErrFieldNotFound
	ErrFieldNotRuleEnabled        = domain.ErrFieldNotRuleEnabled
	ErrAttributeTypeMismatch      = domain.ErrAttributeTypeMismatch
	ErrUnsupportedOperator        = domain.ErrUnsupportedOperator
	ErrInvalidValueType           = domain.ErrInvalidValueType
	ErrMissingField               = domain.ErrMissingField
	ErrInvalidRule                = domain.ErrInvalidRule
	ErrContainerNotFound          = domain.ErrContainerNotFound
	ErrEngineUnavailable          = domain.ErrEngineUnavailable
)
