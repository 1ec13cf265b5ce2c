package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lowering/internal/compiler"
	"github.com/roach88/lowering/internal/program"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	Dispatches int                        `json:"dispatches"`
	Errors     []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <dispatch-dir>",
		Short: "Validate dispatch lowering configuration",
		Long: `Validate the lowering configuration of every dispatch in a directory
of CUE files.

Checks every lowering_config, translation_info and compilation_info record,
entry point workgroup sizes, and that ops distributed together agree on
their first-level tiling. All problems are reported, not just the first.

Exit codes:
  0 - All dispatches valid
  1 - Validation failed
  2 - Command error (directory not found, CUE build failure, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	result, err := LoadModule(dir, program.UUIDv7Generator{})
	if result == nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return commandError(formatter, loadErr.Code, loadErr.Message)
		}
		return commandError(formatter, ErrCodeGeneric, err.Error())
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)

	// A dispatch that fails to compile is reported like any other finding.
	if err != nil {
		var loadErr *LoadError
		if !errors.As(err, &loadErr) {
			loadErr = &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
		}
		return outputValidationErrors(formatter, []compiler.ValidationError{{
			Field:   "load",
			Message: loadErr.Message,
			Code:    loadErr.Code,
			Line:    lineOf(loadErr),
		}}, 0)
	}

	for _, d := range result.Module.Dispatches {
		formatter.VerboseLog("Validating dispatch: %s (%d op(s))", d.Name, len(d.Ops))
	}

	errs := compiler.Validate(result.Module)
	if len(errs) > 0 {
		return outputValidationErrors(formatter, errs, len(result.Module.Dispatches))
	}

	n := len(result.Module.Dispatches)
	return formatter.Success(
		ValidationResult{Valid: true, Dispatches: n},
		fmt.Sprintf("✓ All dispatches valid (%d dispatch(es))\n", n),
	)
}

// lineOf extracts the line number of a load error, 0 if unknown.
func lineOf(e *LoadError) int {
	if e != nil && e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// outputValidationErrors outputs every validation error and returns an
// exit-code-1 error.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError, dispatches int) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Dispatches: dispatches, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		})
		if err != nil {
			return err
		}
		return failure
	}

	var sb strings.Builder
	sb.WriteString("✗ Validation failed\n\n")
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(&sb, "line %d\n", err.Line)
		}
		fmt.Fprintf(&sb, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	if _, err := fmt.Fprint(formatter.Writer, sb.String()); err != nil {
		return err
	}
	return failure
}
