package program

import (
	"github.com/roach88/lowering/internal/attr"
)

// Attr renders the module as a dictionary attribute, the form written by
// `lowering compile -o`. Op IDs are left out so the output depends only on
// content.
func (m *Module) Attr() attr.DictAttr {
	dispatches := attr.Array()
	for _, d := range m.Dispatches {
		dispatches = append(dispatches, d.Attr())
	}
	return attr.DictAttr{"dispatches": dispatches}
}

// Attr renders the dispatch as a dictionary attribute.
func (d *Dispatch) Attr() attr.DictAttr {
	ops := attr.Array()
	for _, op := range d.Ops {
		ops = append(ops, opAttr(op))
	}
	out := attr.DictAttr{
		"name": attr.StringAttr(d.Name),
		"ops":  ops,
	}
	if d.EntryPoint != nil {
		ep := opAttr(d.EntryPoint)
		if size, ok := d.EntryPoint.WorkgroupSize(); ok {
			ep["workgroup_size"] = size
		}
		out["entry_point"] = ep
	}
	return out
}

func opAttr(op Operation) attr.DictAttr {
	out := attr.DictAttr{
		"name": attr.StringAttr(op.Name()),
		"kind": attr.StringAttr(op.Kind()),
	}
	if l, ok := op.(*LoopOp); ok {
		loops := make([]int64, len(l.parallelLoops))
		for i, d := range l.parallelLoops {
			loops[i] = int64(d)
		}
		out["parallel_loops"] = attr.EncodeInts(loops, attr.I64)
	}

	attrs := attr.DictAttr{}
	for _, name := range op.AttrNames() {
		if a, ok := op.Attr(name); ok && a != nil {
			attrs[name] = a
		}
	}
	if len(attrs) > 0 {
		out["attributes"] = attrs
	}
	return out
}
