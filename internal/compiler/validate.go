package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/lowering/internal/attr"
	"github.com/roach88/lowering/internal/codegen"
	"github.com/roach88/lowering/internal/program"
)

// Validation error codes (E200-E299)
const (
	// General validation errors (E200)
	ErrUnsupportedType = "E200" // unsupported type for validation

	// Dispatch structure errors (E201-E202)
	ErrDispatchNoOps   = "E201" // dispatch has no ops
	ErrDuplicateOpName = "E202" // two ops share a name

	// Record errors (E203-E208)
	ErrTranslationInfo  = "E203" // missing or invalid pass pipeline
	ErrTileSizes        = "E204" // tile_sizes missing or malformed
	ErrTileInterchange  = "E205" // tile_interchange malformed
	ErrNativeVectorSize = "E206" // native_vector_size malformed
	ErrCompilationInfo  = "E207" // compilation_info missing a sub-record
	ErrWorkgroupSize    = "E208" // workgroup_size malformed

	// Distribution errors (E209-E210)
	ErrInconsistentDistribution = "E209" // co-distributed ops disagree
	ErrWorkgroupRank            = "E210" // workgroup_size has too many dims
)

// diagnosticCodes maps record diagnostics onto validation codes.
var diagnosticCodes = map[codegen.Code]string{
	codegen.ErrMissingPipeline:           ErrTranslationInfo,
	codegen.ErrInvalidPipeline:           ErrTranslationInfo,
	codegen.ErrMissingTileSizes:          ErrTileSizes,
	codegen.ErrMalformedTileSizes:        ErrTileSizes,
	codegen.ErrMalformedInterchange:      ErrTileInterchange,
	codegen.ErrMalformedNativeVectorSize: ErrNativeVectorSize,
	codegen.ErrMissingLoweringConfig:     ErrCompilationInfo,
	codegen.ErrMissingTranslationInfo:    ErrCompilationInfo,
	codegen.ErrMalformedWorkgroupSize:    ErrWorkgroupSize,
	codegen.ErrInconsistentDistribution:  ErrInconsistentDistribution,
}

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates compiled dispatches: every attached record, the entry
// point's workgroup size, and the agreement of co-distributed ops.
// Returns all errors found (does not fail-fast).
// Supports *program.Module and *program.Dispatch.
func Validate(v any) []ValidationError {
	switch p := v.(type) {
	case *program.Module:
		var errs []ValidationError
		for _, d := range p.Dispatches {
			errs = append(errs, validateDispatch(d)...)
		}
		return errs
	case *program.Dispatch:
		return validateDispatch(p)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported type: %T", v),
			Code:    ErrUnsupportedType,
		}}
	}
}

func validateDispatch(d *program.Dispatch) []ValidationError {
	var errs []ValidationError
	prefix := "dispatch." + d.Name

	// E201: at least one op
	if len(d.Ops) == 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".ops",
			Message: "dispatch must have at least one op",
			Code:    ErrDispatchNoOps,
		})
	}

	if ep := d.EntryPoint; ep != nil {
		errs = append(errs, validateEntryPoint(prefix+".entry_point", ep)...)
	}

	names := make(map[string]bool)
	for i, op := range d.Ops {
		field := fmt.Sprintf("%s.ops[%d]", prefix, i)

		// E202: duplicate op name
		if names[op.Name()] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate op name: %q", op.Name()),
				Code:    ErrDuplicateOpName,
			})
		}
		names[op.Name()] = true

		if cfg := codegen.GetLoweringConfig(op); cfg != nil {
			if err := cfg.Verify(); err != nil {
				errs = append(errs, fromDiagnostic(field+"."+codegen.LoweringConfigKey, err))
			}
		}
		if ci := codegen.GetCompilationInfo(op); ci != nil {
			if err := ci.Verify(); err != nil {
				errs = append(errs, fromDiagnostic(field+"."+codegen.CompilationInfoKey, err))
			}
		}
	}

	// E209: co-distributed ops must agree on level-0 tiling
	if _, _, err := codegen.DistributionTileConfig(d.ComputeOps()); err != nil {
		errs = append(errs, fromDiagnostic(prefix+".ops", err))
	}

	return errs
}

func validateEntryPoint(field string, ep *program.EntryPoint) []ValidationError {
	var errs []ValidationError

	if info := codegen.GetTranslationInfo(ep); info != nil {
		if err := info.Verify(); err != nil {
			errs = append(errs, fromDiagnostic(field+"."+codegen.TranslationInfoKey, err))
		}
	}

	size, ok := ep.WorkgroupSize()
	if !ok {
		return errs
	}
	// E208: workgroup size entries must be integers
	if !attr.IsIntegerArray(size) {
		errs = append(errs, ValidationError{
			Field:   field + ".workgroup_size",
			Message: "expected workgroup_size to be a list of integers",
			Code:    ErrWorkgroupSize,
		})
	}
	// E210: at most MaxParallelDims dimensions
	if len(size) > codegen.MaxParallelDims {
		errs = append(errs, ValidationError{
			Field:   field + ".workgroup_size",
			Message: fmt.Sprintf("workgroup_size has %d dimensions, at most %d are supported", len(size), codegen.MaxParallelDims),
			Code:    ErrWorkgroupRank,
		})
	}
	return errs
}

// fromDiagnostic converts a record diagnostic into a ValidationError.
func fromDiagnostic(field string, err error) ValidationError {
	var diag *codegen.Diagnostic
	if !errors.As(err, &diag) {
		return ValidationError{Field: field, Message: err.Error(), Code: ErrUnsupportedType}
	}
	msg := diag.Message
	if diag.Op != "" {
		msg = fmt.Sprintf("'%s' op %s", diag.Op, diag.Message)
	}
	return ValidationError{Field: field, Message: msg, Code: diagnosticCodes[diag.Code]}
}
