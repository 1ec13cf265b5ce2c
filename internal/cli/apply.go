package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lowering/internal/attr"
	"github.com/roach88/lowering/internal/passes"
	"github.com/roach88/lowering/internal/program"
	"github.com/roach88/lowering/internal/store"
	"github.com/roach88/lowering/internal/tuning"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	Overrides string // override YAML file
	Database  string // tuning database
	RunID     string // run to read from the database (latest when empty)
}

// ApplyResult summarizes an apply.
type ApplyResult struct {
	Source       string          `json:"source"`
	Applied      int             `json:"applied"`
	Shared       int             `json:"shared"` // distinct records after interning
	Materialized int             `json:"materialized"`
	Module       json.RawMessage `json:"module"` // canonical JSON
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <dispatch-dir>",
		Short: "Apply auto-tuner overrides to dispatches",
		Long: `Attach tuned compilation_info overrides to the named ops, then
materialize them: each op takes the tuned lowering config, and the entry
point takes the tuned translation info and workgroup size.

Overrides come from a YAML file (--overrides) or from a tuning database
(--db), in which case the latest run is used unless --run is given.

Examples:
  lowering apply ./dispatches --overrides tuned.yaml
  lowering apply ./dispatches --db tuning.db --run 0190c7e0-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Overrides, "overrides", "", "path to override YAML file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to tuning database")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "tuning run ID (default: latest run)")
	cmd.MarkFlagsOneRequired("overrides", "db")
	cmd.MarkFlagsMutuallyExclusive("overrides", "db")

	return cmd
}

func runApply(opts *ApplyOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	m, err := loadOrFail(formatter, dir, program.UUIDv7Generator{})
	if err != nil {
		return err
	}

	var resolved []tuning.Resolved
	var source string
	if opts.Overrides != "" {
		resolved, err = overridesFromFile(opts.Overrides)
		source = opts.Overrides
	} else {
		resolved, source, err = overridesFromStore(cmdContext(cmd), opts.Database, opts.RunID)
	}
	if err != nil {
		return commandError(formatter, ErrCodeOverrides, err.Error())
	}

	pool := attr.NewPool()
	if err := tuning.Apply(m, resolved, pool); err != nil {
		return commandError(formatter, ErrCodeOverrides, err.Error())
	}
	formatter.VerboseLog("Attached %d override(s) from %s", len(resolved), source)

	n, err := passes.MaterializeModule(m)
	if err != nil {
		_ = formatter.Error(ErrCodePass, err.Error(), nil)
		return WrapExitError(ExitFailure, "materialization failed", err)
	}

	canonical, err := attr.MarshalCanonical(m.Attr())
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("encoding module: %v", err))
	}

	result := ApplyResult{
		Source:       source,
		Applied:      len(resolved),
		Shared:       pool.Len(),
		Materialized: n,
		Module:       canonical,
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "✓ Applied %d override(s) from %s (%d distinct)\n\n", result.Applied, source, result.Shared)
	sb.WriteString(renderModule(m))
	return formatter.Success(result, sb.String())
}

func overridesFromFile(path string) ([]tuning.Resolved, error) {
	f, err := tuning.LoadOverrides(path)
	if err != nil {
		return nil, err
	}
	return f.Resolve()
}

// overridesFromStore reads the overrides of runID, or of the latest run.
func overridesFromStore(ctx context.Context, path, runID string) ([]tuning.Resolved, string, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	var run store.Run
	if runID == "" {
		run, err = st.LatestRun(ctx)
	} else {
		run, err = st.ReadRun(ctx, runID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("no tuning run found in %s", path)
	}
	if err != nil {
		return nil, "", err
	}

	stored, err := st.ReadOverrides(ctx, run.ID)
	if err != nil {
		return nil, "", err
	}
	resolved := make([]tuning.Resolved, len(stored))
	for i, o := range stored {
		resolved[i] = tuning.Resolved{
			Target: tuning.Target{Dispatch: o.Dispatch, Op: o.Op},
			Info:   o.Info,
		}
	}
	return resolved, fmt.Sprintf("run %s (%s)", run.Name, run.ID), nil
}

// cmdContext returns the command's context, or Background when unset.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
