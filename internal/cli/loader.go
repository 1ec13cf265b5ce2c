package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/lowering/internal/compiler"
	"github.com/roach88/lowering/internal/program"
)

// LoadResult contains the results of loading dispatches from a directory.
type LoadResult struct {
	Module    *program.Module
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred while loading dispatches.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadModule loads the CUE files in dir and compiles every dispatch under
// the top-level "dispatch" field.
//
// A nil result means the directory itself could not be loaded. A non-nil
// result with an error means the CUE was read but a dispatch failed to
// compile; Module is nil in that case.
func LoadModule(dir string, gen program.IDGenerator) (*LoadResult, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("dispatch directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing dispatch directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	result := &LoadResult{CUEValue: value, FileCount: len(cueFiles)}

	m, err := compiler.CompileModule(value, gen)
	if err != nil {
		return result, convertCompileError(err)
	}
	if len(m.Dispatches) == 0 {
		return result, &LoadError{Code: ErrCodeGeneric, Message: "no dispatches found"}
	}
	result.Module = m
	return result, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStore       = "E008" // Tuning database error
	ErrCodeOverrides   = "E009" // Override file or target error
	ErrCodePass        = "E010" // Pass failure (materialization, distribution)
	ErrCodeInvalidArgs = "E011" // Malformed command argument

	// Dispatch shape errors
	ErrCodeUnknownField = "E101" // Field not in the dispatch schema
	ErrCodeOps          = "E102" // Missing ops or op name
	ErrCodeLoops        = "E103" // Malformed parallel_loops
	ErrCodeInvalidType  = "E104" // Float, non-concrete or mistyped record value
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeBuildFailed
	case field == "dispatch", field == "entry_point", strings.HasPrefix(field, "ops["):
		return ErrCodeUnknownField
	case field == "ops", field == "name":
		return ErrCodeOps
	case field == "parallel_loops":
		return ErrCodeLoops
	case strings.HasPrefix(field, "lowering_config"),
		strings.HasPrefix(field, "translation_info"),
		strings.HasPrefix(field, "compilation_info"),
		strings.HasPrefix(field, "workgroup_size"):
		return ErrCodeInvalidType
	default:
		return ErrCodeGeneric
	}
}

// loadOrFail loads dir and reports load failures through f. It returns a
// nil module after reporting.
func loadOrFail(f *OutputFormatter, dir string, gen program.IDGenerator) (*program.Module, error) {
	result, err := LoadModule(dir, gen)
	if err != nil {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			return nil, commandError(f, ErrCodeGeneric, err.Error())
		}
		return nil, commandError(f, loadErr.Code, loadErr.Error())
	}
	f.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)
	return result.Module, nil
}
