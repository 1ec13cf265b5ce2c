package passes

import (
	"log/slog"

	"github.com/roach88/lowering/internal/codegen"
	"github.com/roach88/lowering/internal/program"
)

// VerifyDispatch checks the entry point, every op's attached records and
// the distribution agreement across ops. It collects every failure rather
// than stopping at the first; an empty (non-nil) slice means d is valid.
func VerifyDispatch(d *program.Dispatch) []error {
	errs := []error{}
	if d.EntryPoint != nil {
		if err := codegen.VerifyEntryPoint(d.EntryPoint); err != nil {
			errs = append(errs, err)
		}
	}
	for _, op := range d.Ops {
		if err := codegen.VerifyOp(op); err != nil {
			errs = append(errs, err)
		}
	}
	if _, _, err := codegen.DistributionTileConfig(d.ComputeOps()); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		slog.Warn("dispatch verification failed",
			"dispatch", d.Name,
			"errors", len(errs),
		)
	}
	return errs
}
