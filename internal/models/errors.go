package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingReference    = errors.New("reference is required")
	ErrMissingTitle        = errors.New("title is required")
	ErrMissingCounterparty = errors.New("counterparty_name is required")
	ErrInvalidDateRange    = errors.New("end_date precedes start_date")
	ErrInvalidSequence     = errors.New("expected_sequence must not be negative")
)

// Sentinel errors for entity lookups.
var (
	ErrContractNotFound = errors.New("contract not found")
	ErrVersionNotFound  = errors.New("version not found")
)

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrForbidden indicates the actor lacks the permission required by the
// attempted operation. Never retried; surfaced verbatim.
var ErrForbidden = errors.New("forbidden")

// ErrNoPendingApproval indicates no open approval record of the expected
// type exists: either a concurrent request already acted on it or the
// workflow is out of step. Callers should refresh and re-inspect.
var ErrNoPendingApproval = errors.New("no pending approval")

// ErrVersionConflict indicates the optimistic concurrency check failed on
// version creation. The one error callers are expected to retry (bounded).
var ErrVersionConflict = errors.New("version conflict")

// InvalidTransitionError reports that the requested action is not legal
// from the contract's current status, carrying the allowed actions so the
// caller can surface them.
type InvalidTransitionError struct {
	Status  Status
	Action  string
	Allowed []string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("action %q is not valid in status %q (allowed: %v)", e.Action, e.Status, e.Allowed)
}

// IsInvalidTransition reports whether err is an InvalidTransitionError.
func IsInvalidTransition(err error) (*InvalidTransitionError, bool) {
	var ite *InvalidTransitionError
	ok := errors.As(err, &ite)
	return ite, ok
}

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
