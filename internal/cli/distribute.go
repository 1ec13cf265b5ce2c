package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lowering/internal/passes"
	"github.com/roach88/lowering/internal/program"
)

// DistributeResult holds the distribution plan of every dispatch.
type DistributeResult struct {
	Materialized int            `json:"materialized"`
	Plans        []*passes.Plan `json:"plans"`
}

// NewDistributeCommand creates the distribute command.
func NewDistributeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "distribute <dispatch-dir>",
		Short: "Plan workgroup and thread distribution",
		Long: `Apply pending compilation_info overrides, verify every dispatch and print
how each one is distributed: the reconciled first-level tile sizes and, per
op, the tile sizes computed by each thread, warp and reduction step.

Exit codes:
  0 - Every dispatch planned
  1 - Verification or distribution failed
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDistribute(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDistribute(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	m, err := loadOrFail(formatter, dir, program.UUIDv7Generator{})
	if err != nil {
		return err
	}
	return planAndOutput(formatter, m)
}

// planAndOutput materializes, verifies and plans every dispatch of m.
func planAndOutput(formatter *OutputFormatter, m *program.Module) error {
	n, err := passes.MaterializeModule(m)
	if err != nil {
		_ = formatter.Error(ErrCodePass, err.Error(), nil)
		return WrapExitError(ExitFailure, "materialization failed", err)
	}
	formatter.VerboseLog("Materialized %d override(s)", n)

	result := DistributeResult{Materialized: n, Plans: []*passes.Plan{}}
	for _, d := range m.Dispatches {
		if errs := passes.VerifyDispatch(d); len(errs) > 0 {
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			_ = formatter.Error(ErrCodePass, fmt.Sprintf("dispatch %s failed verification", d.Name), msgs)
			return NewExitError(ExitFailure, fmt.Sprintf("dispatch %s failed verification with %d error(s)", d.Name, len(errs)))
		}
		plan, err := passes.PlanDistribution(d)
		if err != nil {
			_ = formatter.Error(ErrCodePass, err.Error(), nil)
			return WrapExitError(ExitFailure, "distribution failed", err)
		}
		result.Plans = append(result.Plans, plan)
	}

	return formatter.Success(result, renderPlans(result))
}

// renderPlans formats plans for text output.
func renderPlans(result DistributeResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✓ Planned %d dispatch(es), %d override(s) applied\n\n", len(result.Plans), result.Materialized)
	for _, p := range result.Plans {
		fmt.Fprintf(&sb, "%s (%s)\n", p.Dispatch, p.Pipeline)
		fmt.Fprintf(&sb, "  workgroup_size: %v  promote: %t\n", p.WorkgroupSize, p.Promote)
		fmt.Fprintf(&sb, "  tile_sizes: %v  interchange: %v\n", p.TileSizes, p.Interchange)
		for _, op := range p.Ops {
			fmt.Fprintf(&sb, "  %s: thread %v", op.Name, op.ThreadTiles)
			if op.WarpTiles != nil {
				fmt.Fprintf(&sb, "  warp %v", op.WarpTiles)
			}
			fmt.Fprintf(&sb, "  reduction %v\n", op.ReductionTiles)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
