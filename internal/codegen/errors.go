package codegen

import (
	"errors"
	"fmt"
)

// Code categorizes a configuration diagnostic.
type Code string

const (
	// ErrMissingPipeline: translation info has no pass pipeline.
	ErrMissingPipeline Code = "MISSING_PIPELINE"
	// ErrInvalidPipeline: pass pipeline ordinal outside [0, None].
	ErrInvalidPipeline Code = "INVALID_PIPELINE"
	// ErrMissingTileSizes: lowering config has no tile_sizes field.
	ErrMissingTileSizes Code = "MISSING_TILE_SIZES"
	// ErrMalformedTileSizes: a tile_sizes level is not a list of integers.
	ErrMalformedTileSizes Code = "MALFORMED_TILE_SIZES"
	// ErrMalformedInterchange: a tile_interchange level is not a list of integers.
	ErrMalformedInterchange Code = "MALFORMED_INTERCHANGE"
	// ErrMalformedNativeVectorSize: native_vector_size holds a non-integer.
	ErrMalformedNativeVectorSize Code = "MALFORMED_NATIVE_VECTOR_SIZE"
	// ErrMissingLoweringConfig: compilation info has no lowering config.
	ErrMissingLoweringConfig Code = "MISSING_LOWERING_CONFIG"
	// ErrMissingTranslationInfo: compilation info has no translation info.
	ErrMissingTranslationInfo Code = "MISSING_TRANSLATION_INFO"
	// ErrMalformedWorkgroupSize: workgroup_size holds a non-integer.
	ErrMalformedWorkgroupSize Code = "MALFORMED_WORKGROUP_SIZE"
	// ErrInconsistentDistribution: co-distributed ops disagree on level-0 tiling.
	ErrInconsistentDistribution Code = "INCONSISTENT_DISTRIBUTION"
)

// Diagnostic is a structured validation failure, optionally attributed to
// the operation it was reported on.
type Diagnostic struct {
	Code    Code
	Message string
	Op      string
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Op != "" {
		return fmt.Sprintf("%s: '%s' op %s", d.Code, d.Op, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// On returns a copy of d attributed to the named operation.
func (d *Diagnostic) On(op string) *Diagnostic {
	c := *d
	c.Op = op
	return &c
}

func newDiagnostic(code Code, format string, args ...any) *Diagnostic {
	return &Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsCode reports whether err is (or wraps) a Diagnostic with the given code.
func IsCode(err error, code Code) bool {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d.Code == code
	}
	return false
}

// attributeTo attributes a Diagnostic error to op, leaving other errors as is.
func attributeTo(err error, op string) error {
	var d *Diagnostic
	if errors.As(err, &d) {
		return d.On(op)
	}
	return err
}
