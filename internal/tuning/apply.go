package tuning

import (
	"fmt"
	"log/slog"

	"github.com/roach88/lowering/internal/attr"
	"github.com/roach88/lowering/internal/codegen"
	"github.com/roach88/lowering/internal/program"
)

// ApplyError reports an override whose target does not exist.
type ApplyError struct {
	Target  Target
	Message string
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("override %s: %s", e.Target, e.Message)
}

// Apply attaches each override to its op as compilation_info. Equal
// records are interned in pool so that ops tuned identically share one
// instance; pool may be nil. Every target is resolved and every record
// interned before any op is modified.
func Apply(m *program.Module, overrides []Resolved, pool *attr.Pool) error {
	ops := make([]program.Operation, len(overrides))
	infos := make([]*codegen.CompilationInfo, len(overrides))
	for i, o := range overrides {
		d, ok := m.Dispatch(o.Dispatch)
		if !ok {
			return &ApplyError{Target: o.Target, Message: "unknown dispatch"}
		}
		op, ok := d.Op(o.Op)
		if !ok {
			return &ApplyError{Target: o.Target, Message: "unknown op"}
		}
		ops[i] = op

		infos[i] = o.Info
		if pool != nil {
			interned, err := pool.Intern(o.Info)
			if err != nil {
				return fmt.Errorf("override %s: %w", o.Target, err)
			}
			infos[i] = interned.(*codegen.CompilationInfo)
		}
	}

	for i, o := range overrides {
		codegen.SetCompilationInfo(ops[i], infos[i])
		slog.Debug("attached override", "dispatch", o.Dispatch, "op", o.Op)
	}
	return nil
}
