package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/lowering/internal/attr"
	"github.com/roach88/lowering/internal/store"
	"github.com/roach88/lowering/internal/tuning"
)

// TuneOptions holds flags shared by the tune subcommands.
type TuneOptions struct {
	*RootOptions
	Database string
	RunID    string // import: run to add to; export: run to read (latest when empty)
	Output   string // export only; stdout when empty
}

// ImportResult summarizes a tune import.
type ImportResult struct {
	RunID     string `json:"run_id"`
	Name      string `json:"name"`
	Overrides int    `json:"overrides"`
	Inserted  int    `json:"inserted"`
}

// ShowResult describes the latest stored override of one op.
type ShowResult struct {
	Dispatch   string          `json:"dispatch"`
	Op         string          `json:"op"`
	RunID      string          `json:"run_id"`
	InfoHash   string          `json:"info_hash"`
	Info       json.RawMessage `json:"compilation_info"` // canonical JSON
	SharedWith []string        `json:"shared_with"`      // other run/dispatch/op using the same record
}

// NewTuneCommand creates the tune command and its subcommands.
func NewTuneCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TuneOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Manage the tuning database",
		Long: `Record auto-tuner results as tuning runs and read them back.

Every import creates a new run; the latest run is what "lowering apply --db"
uses by default.`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to tuning database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newTuneImportCommand(opts))
	cmd.AddCommand(newTuneExportCommand(opts))
	cmd.AddCommand(newTuneListCommand(opts))
	cmd.AddCommand(newTuneShowCommand(opts))

	return cmd
}

func newTuneImportCommand(opts *TuneOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <overrides.yaml>",
		Short: "Store an override file as a new tuning run",
		Long: `Store an override file as a new tuning run, or with --run add its
overrides to an existing run. Either every override is stored or none is.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTuneImport(opts, args[0], cmd)
		},
	}
	cmd.Flags().StringVar(&opts.RunID, "run", "", "existing run to add the overrides to")
	return cmd
}

func newTuneExportCommand(opts *TuneOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "export",
		Short:         "Write a tuning run back out as an override file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTuneExport(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.RunID, "run", "", "tuning run ID (default: latest run)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path (default: stdout)")
	return cmd
}

func newTuneListCommand(opts *TuneOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List tuning runs, oldest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTuneList(opts, cmd)
		},
	}
}

// openStore opens the tuning database and reports failures through f.
func openStore(f *OutputFormatter, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, commandError(f, ErrCodeStore, fmt.Sprintf("failed to open database: %v", err))
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

func runTuneImport(opts *TuneOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmdContext(cmd)

	f, err := tuning.LoadOverrides(path)
	if err != nil {
		return commandError(formatter, ErrCodeOverrides, err.Error())
	}
	resolved, err := f.Resolve()
	if err != nil {
		return commandError(formatter, ErrCodeOverrides, err.Error())
	}

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	batch := make([]store.RunOverride, len(resolved))
	for i, o := range resolved {
		batch[i] = store.RunOverride{Dispatch: o.Dispatch, Op: o.Op, Info: o.Info}
	}
	var run store.Run
	var inserted int
	if opts.RunID == "" {
		run, inserted, err = st.ImportRun(ctx, f.Name, f.Description, batch)
	} else {
		run, err = st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, sql.ErrNoRows) {
			return commandError(formatter, ErrCodeNotFound, "tuning run not found")
		}
		if err == nil {
			inserted, err = st.AppendOverrides(ctx, run.ID, batch)
		}
	}
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error())
	}
	formatter.VerboseLog("Stored %d override(s) in run %s", inserted, run.ID)

	result := ImportResult{RunID: run.ID, Name: run.Name, Overrides: len(resolved), Inserted: inserted}
	return formatter.Success(result,
		fmt.Sprintf("✓ Imported %d override(s) into run %s (%s)\n", result.Inserted, run.Name, run.ID))
}

func runTuneExport(opts *TuneOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmdContext(cmd)

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	var run store.Run
	if opts.RunID == "" {
		run, err = st.LatestRun(ctx)
	} else {
		run, err = st.ReadRun(ctx, opts.RunID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return commandError(formatter, ErrCodeNotFound, "tuning run not found")
	}
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error())
	}

	stored, err := st.ReadOverrides(ctx, run.ID)
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error())
	}

	file := tuning.File{Name: run.Name, Description: run.Description}
	for _, o := range stored {
		t := tuning.Target{Dispatch: o.Dispatch, Op: o.Op}
		file.Overrides = append(file.Overrides, tuning.FromCompilationInfo(t, o.Info))
	}
	data, err := file.Marshal()
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("encoding overrides: %v", err))
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			return commandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
		return formatter.Success(file, fmt.Sprintf("Wrote %d override(s) to %s\n", len(file.Overrides), opts.Output))
	}
	return formatter.Success(file, string(data))
}

func runTuneList(opts *TuneOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmdContext(cmd)

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error())
	}

	var sb strings.Builder
	if len(runs) == 0 {
		sb.WriteString("No tuning runs found in database.\n")
	}
	for _, r := range runs {
		fmt.Fprintf(&sb, "%d  %s  %s", r.Seq, r.ID, r.Name)
		if r.Description != "" {
			fmt.Fprintf(&sb, "  %s", r.Description)
		}
		sb.WriteByte('\n')
	}
	return formatter.Success(runs, sb.String())
}

func newTuneShowCommand(opts *TuneOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <dispatch>/<op>",
		Short: "Show the latest tuned record of an op",
		Long: `Show the compilation_info most recently stored for an op, across all
runs, and every other stored override that uses the same record.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTuneShow(opts, args[0], cmd)
		},
	}
}

func runTuneShow(opts *TuneOptions, target string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmdContext(cmd)

	dispatch, op, ok := strings.Cut(target, "/")
	if !ok || dispatch == "" || op == "" {
		return commandError(formatter, ErrCodeInvalidArgs, fmt.Sprintf("expected <dispatch>/<op>, got %q", target))
	}

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer closeStore(st)

	latest, err := st.LatestOverride(ctx, dispatch, op)
	if errors.Is(err, sql.ErrNoRows) {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("no override stored for %s", target))
	}
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error())
	}

	same, err := st.OverridesWithInfo(ctx, latest.InfoHash)
	if err != nil {
		return commandError(formatter, ErrCodeStore, err.Error())
	}
	canonical, err := attr.MarshalCanonical(latest.Info)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("encoding record: %v", err))
	}

	result := ShowResult{
		Dispatch:   dispatch,
		Op:         op,
		RunID:      latest.RunID,
		InfoHash:   latest.InfoHash,
		Info:       canonical,
		SharedWith: []string{},
	}
	for _, o := range same {
		if o.ID == latest.ID {
			continue
		}
		result.SharedWith = append(result.SharedWith, o.RunID+"/"+o.Dispatch+"/"+o.Op)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (run %s)\n", target, latest.RunID)
	fmt.Fprintf(&sb, "  compilation_info = %s\n", attr.Print(latest.Info))
	for _, shared := range result.SharedWith {
		fmt.Fprintf(&sb, "  shared with %s\n", shared)
	}
	return formatter.Success(result, sb.String())
}
