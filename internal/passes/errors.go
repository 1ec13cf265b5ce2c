package passes

import (
	"errors"
	"fmt"
)

// PassError represents an error detected while running a pass.
type PassError struct {
	// Code identifies the error category.
	Code PassErrorCode

	// Message is a human-readable description.
	Message string

	// Dispatch names the dispatch being processed.
	Dispatch string

	// Op names the affected op, if any.
	Op string

	// Err is the underlying cause, if any.
	Err error
}

// PassErrorCode categorizes pass errors.
type PassErrorCode string

const (
	// ErrCodeInvalidOverride indicates a compilation_info failed verification.
	ErrCodeInvalidOverride PassErrorCode = "INVALID_OVERRIDE"

	// ErrCodeConflictingOverride indicates two overrides in one dispatch
	// disagree on the entry point's translation info or workgroup size.
	ErrCodeConflictingOverride PassErrorCode = "CONFLICTING_OVERRIDE"

	// ErrCodeMissingEntryPoint indicates a dispatch without an entry point.
	ErrCodeMissingEntryPoint PassErrorCode = "MISSING_ENTRY_POINT"

	// ErrCodeInconsistentDistribution indicates co-distributed ops disagree.
	ErrCodeInconsistentDistribution PassErrorCode = "INCONSISTENT_DISTRIBUTION"
)

// Error implements the error interface.
func (e *PassError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (dispatch=%s, op=%s)", e.Code, msg, e.Dispatch, e.Op)
	}
	return fmt.Sprintf("%s: %s (dispatch=%s)", e.Code, msg, e.Dispatch)
}

// Unwrap returns the underlying cause.
func (e *PassError) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is (or wraps) a PassError with the given code.
func IsCode(err error, code PassErrorCode) bool {
	var pe *PassError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
