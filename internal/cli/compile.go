package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lowering/internal/attr"
	"github.com/roach88/lowering/internal/codegen"
	"github.com/roach88/lowering/internal/program"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	DispatchCount int
	OpCount       int
	ConfigCount   int // ops with a lowering_config
	OverrideCount int // ops with a pending compilation_info
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <dispatch-dir>",
		Short: "Compile CUE dispatches to canonical JSON",
		Long: `Compile the dispatches described in a directory of CUE files and print
their lowering metadata.

With --output, the module is also written as canonical JSON, the same form
the tuning database stores records in.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	m, err := loadOrFail(formatter, dir, program.UUIDv7Generator{})
	if err != nil {
		return err
	}

	canonical, err := attr.MarshalCanonical(m.Attr())
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("encoding module: %v", err))
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, append(canonical, '\n'), 0644); err != nil {
			return commandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
		formatter.VerboseLog("Wrote %d bytes to %s", len(canonical)+1, opts.Output)
	}

	stats := calculateStats(m)
	var sb strings.Builder
	fmt.Fprintf(&sb, "✓ Compiled %d dispatch(es), %d op(s)\n\n", stats.DispatchCount, stats.OpCount)
	sb.WriteString(renderModule(m))
	if opts.Output != "" {
		fmt.Fprintf(&sb, "Wrote canonical JSON to %s\n", opts.Output)
	}
	return formatter.Success(json.RawMessage(canonical), sb.String())
}

// calculateStats computes summary statistics for a compiled module.
func calculateStats(m *program.Module) CompilationStats {
	stats := CompilationStats{DispatchCount: len(m.Dispatches)}
	for _, d := range m.Dispatches {
		stats.OpCount += len(d.Ops)
		for _, op := range d.Ops {
			if codegen.GetLoweringConfig(op) != nil {
				stats.ConfigCount++
			}
			if codegen.GetCompilationInfo(op) != nil {
				stats.OverrideCount++
			}
		}
	}
	return stats
}

// renderModule prints every dispatch with its attached records:
//
//	matmul
//	  entry_point workgroup_size = [64 : index, 2 : index, 1 : index]
//	    translation_info = #iree_codegen.translation_info<...>
//	  mm (linalg.matmul)
//	    lowering_config = #iree_codegen.lowering_config<...>
func renderModule(m *program.Module) string {
	var sb strings.Builder
	for _, d := range m.Dispatches {
		sb.WriteString(d.Name)
		sb.WriteByte('\n')
		if ep := d.EntryPoint; ep != nil {
			sb.WriteString("  entry_point")
			if size, ok := ep.WorkgroupSize(); ok {
				sb.WriteString(" workgroup_size = ")
				sb.WriteString(attr.Print(size))
			}
			sb.WriteByte('\n')
			renderAttrs(&sb, ep)
		}
		for _, op := range d.Ops {
			fmt.Fprintf(&sb, "  %s (%s)\n", op.Name(), op.Kind())
			renderAttrs(&sb, op)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func renderAttrs(sb *strings.Builder, op program.Operation) {
	for _, name := range op.AttrNames() {
		a, _ := op.Attr(name)
		fmt.Fprintf(sb, "    %s = %s\n", name, attr.Print(a))
	}
}
