package passes

import (
	"log/slog"
	"slices"

	"github.com/roach88/lowering/internal/codegen"
	"github.com/roach88/lowering/internal/program"
)

// MaterializeCompilationInfo applies every compilation_info override in d.
// For each op carrying one, the bundled lowering config replaces the op's
// own, the translation info and workgroup size move to the entry point,
// and the override is erased.
//
// All overrides of a dispatch must agree on translation info and workgroup
// size, since they share one entry point. Nothing is modified unless every
// override verifies and agrees.
//
// Returns the number of overrides applied.
func MaterializeCompilationInfo(d *program.Dispatch) (int, error) {
	type pending struct {
		op   codegen.Operation
		info *codegen.CompilationInfo
	}

	var todo []pending
	var first *codegen.CompilationInfo
	for _, op := range d.Ops {
		info := codegen.GetCompilationInfo(op)
		if info == nil {
			continue
		}
		if err := info.Verify(); err != nil {
			return 0, &PassError{
				Code:     ErrCodeInvalidOverride,
				Message:  "invalid compilation_info",
				Dispatch: d.Name,
				Op:       op.Name(),
				Err:      err,
			}
		}
		if first == nil {
			first = info
		} else if !first.TranslationInfo().Equal(info.TranslationInfo()) ||
			!slices.Equal(first.WorkgroupSizeVals(), info.WorkgroupSizeVals()) {
			return 0, &PassError{
				Code:     ErrCodeConflictingOverride,
				Message:  "compilation_info disagrees with an earlier override on translation info or workgroup size",
				Dispatch: d.Name,
				Op:       op.Name(),
			}
		}
		todo = append(todo, pending{op: op, info: info})
	}

	if len(todo) == 0 {
		return 0, nil
	}
	if d.EntryPoint == nil {
		return 0, &PassError{
			Code:     ErrCodeMissingEntryPoint,
			Message:  "overrides need an entry point to carry translation info",
			Dispatch: d.Name,
		}
	}

	for _, p := range todo {
		codegen.SetLoweringConfig(p.op, p.info.LoweringConfig())
		codegen.EraseCompilationInfo(p.op)
		slog.Debug("compilation_info materialized",
			"dispatch", d.Name,
			"op", p.op.Name(),
		)
	}
	codegen.SetTranslationInfo(d.EntryPoint, first.TranslationInfo(), first.WorkgroupSizeVals())

	slog.Info("overrides materialized",
		"dispatch", d.Name,
		"count", len(todo),
		"pipeline", first.TranslationInfo().DispatchLoweringPassPipeline().String(),
	)
	return len(todo), nil
}

// MaterializeModule runs MaterializeCompilationInfo over every dispatch,
// stopping at the first failure.
func MaterializeModule(m *program.Module) (int, error) {
	total := 0
	for _, d := range m.Dispatches {
		n, err := MaterializeCompilationInfo(d)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
