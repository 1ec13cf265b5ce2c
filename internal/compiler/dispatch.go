package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/lowering/internal/attr"
	"github.com/roach88/lowering/internal/codegen"
	"github.com/roach88/lowering/internal/program"
)

// DefaultOpKind is used for ops that do not name a kind.
const DefaultOpKind = "linalg.generic"

// CompileDispatch parses a CUE value into a Dispatch.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value should be the dispatch struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`dispatch: matmul: { ops: [...] }`)
//	d, err := CompileDispatch(v.LookupPath(cue.ParsePath("dispatch.matmul")), gen)
//
// Records are checked only for shape (lists where lists are expected, known
// parameter names). Element kinds are left for Validate so they are
// reported with a code. Float values are always rejected.
func CompileDispatch(v cue.Value, gen program.IDGenerator) (*program.Dispatch, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	d := &program.Dispatch{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		d.Name = labels[len(labels)-1].String()
	}
	if err := checkFields(v, "dispatch", "entry_point", "ops"); err != nil {
		return nil, err
	}

	d.EntryPoint = program.NewEntryPoint(gen, d.Name)
	if epVal := v.LookupPath(cue.ParsePath("entry_point")); epVal.Exists() {
		if err := compileEntryPoint(epVal, d.EntryPoint); err != nil {
			return nil, err
		}
	}

	opsVal := v.LookupPath(cue.ParsePath("ops"))
	if !opsVal.Exists() {
		return nil, &CompileError{
			Field:   "ops",
			Message: "ops are required",
			Pos:     v.Pos(),
		}
	}
	iter, err := opsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		op, err := compileOp(iter.Value(), gen, i)
		if err != nil {
			return nil, err
		}
		d.Ops = append(d.Ops, op)
	}

	return d, nil
}

// CompileModule compiles every dispatch under the top-level "dispatch"
// field, stopping at the first error.
func CompileModule(v cue.Value, gen program.IDGenerator) (*program.Module, error) {
	m := &program.Module{}
	dispatchVal := v.LookupPath(cue.ParsePath("dispatch"))
	if !dispatchVal.Exists() {
		return m, nil
	}
	iter, err := dispatchVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		d, err := CompileDispatch(iter.Value(), gen)
		if err != nil {
			return nil, err
		}
		if err := m.Add(d); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func compileEntryPoint(v cue.Value, ep *program.EntryPoint) error {
	if err := checkFields(v, "entry_point", "workgroup_size", "translation_info"); err != nil {
		return err
	}

	if wgVal := v.LookupPath(cue.ParsePath("workgroup_size")); wgVal.Exists() {
		a, err := attrFromCUE(wgVal, "workgroup_size")
		if err != nil {
			return err
		}
		size, ok := a.(attr.ArrayAttr)
		if !ok {
			return &CompileError{
				Field:   "workgroup_size",
				Message: "workgroup_size must be a list",
				Pos:     wgVal.Pos(),
			}
		}
		ep.SetWorkgroupSize(asIndex(size))
	}

	if infoVal := v.LookupPath(cue.ParsePath("translation_info")); infoVal.Exists() {
		params, err := recordParams(infoVal, "translation_info")
		if err != nil {
			return err
		}
		info, err := codegen.TranslationInfoFromDict(params)
		if err != nil {
			return &CompileError{Field: "translation_info", Message: err.Error(), Pos: infoVal.Pos()}
		}
		ep.SetAttr(codegen.TranslationInfoKey, info)
	}
	return nil
}

func compileOp(v cue.Value, gen program.IDGenerator, idx int) (program.Operation, error) {
	field := fmt.Sprintf("ops[%d]", idx)
	if err := checkFields(v, field, "name", "kind", "parallel_loops", "lowering_config", "compilation_info"); err != nil {
		return nil, err
	}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if !nameVal.Exists() {
		return nil, &CompileError{
			Field:   "name",
			Message: field + ": op name is required",
			Pos:     v.Pos(),
		}
	}
	name, err := nameVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}

	kind := DefaultOpKind
	if kindVal := v.LookupPath(cue.ParsePath("kind")); kindVal.Exists() {
		kind, err = kindVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
	}

	var op program.Operation
	if loopsVal := v.LookupPath(cue.ParsePath("parallel_loops")); loopsVal.Exists() {
		loops, err := parseLoops(loopsVal)
		if err != nil {
			return nil, err
		}
		op = program.NewLoopOp(gen, name, kind, loops)
	} else {
		op = program.NewOp(gen, name, kind)
	}

	if cfgVal := v.LookupPath(cue.ParsePath("lowering_config")); cfgVal.Exists() {
		params, err := recordParams(cfgVal, "lowering_config")
		if err != nil {
			return nil, err
		}
		cfg, err := codegen.LoweringConfigFromDict(params)
		if err != nil {
			return nil, &CompileError{Field: "lowering_config", Message: err.Error(), Pos: cfgVal.Pos()}
		}
		codegen.SetLoweringConfig(op, cfg)
	}

	if ciVal := v.LookupPath(cue.ParsePath("compilation_info")); ciVal.Exists() {
		params, err := recordParams(ciVal, "compilation_info")
		if err != nil {
			return nil, err
		}
		ci, err := codegen.CompilationInfoFromDict(params)
		if err != nil {
			return nil, &CompileError{Field: "compilation_info", Message: err.Error(), Pos: ciVal.Pos()}
		}
		codegen.SetCompilationInfo(op, ci)
	}

	return op, nil
}

func parseLoops(v cue.Value) ([]int, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var loops []int
	for iter.Next() {
		elem := iter.Value()
		n, err := elem.Int64()
		if err != nil || n < 0 {
			return nil, &CompileError{
				Field:   "parallel_loops",
				Message: "parallel_loops must be a list of non-negative integers",
				Pos:     elem.Pos(),
			}
		}
		loops = append(loops, int(n))
	}
	return loops, nil
}

// recordParams converts a CUE struct into record parameters.
func recordParams(v cue.Value, field string) (attr.DictAttr, error) {
	a, err := attrFromCUE(v, field)
	if err != nil {
		return nil, err
	}
	params, ok := a.(attr.DictAttr)
	if !ok {
		return nil, &CompileError{
			Field:   field,
			Message: field + " must be a struct",
			Pos:     v.Pos(),
		}
	}
	return params, nil
}

// attrFromCUE converts a concrete CUE value into an attribute.
// Floats are forbidden; use int instead.
func attrFromCUE(v cue.Value, field string) (attr.Attribute, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	switch v.IncompleteKind() {
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   field,
			Message: "float values are forbidden - use int instead",
			Pos:     v.Pos(),
		}
	}
	if !v.IsConcrete() {
		return nil, &CompileError{
			Field:   field,
			Message: "value must be concrete",
			Pos:     v.Pos(),
		}
	}

	switch v.Kind() {
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return attr.I64Attr(n), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return attr.StringAttr(s), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return attr.BoolAttr(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := attr.Array()
		for iter.Next() {
			elem, err := attrFromCUE(iter.Value(), field)
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		d := attr.DictAttr{}
		for iter.Next() {
			elem, err := attrFromCUE(iter.Value(), field+"."+iter.Label())
			if err != nil {
				return nil, err
			}
			d[iter.Label()] = elem
		}
		return d, nil
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

// asIndex retypes the integers of a workgroup size as index integers.
// Non-integer entries are kept so that Validate can report them.
func asIndex(size attr.ArrayAttr) attr.ArrayAttr {
	out := make(attr.ArrayAttr, len(size))
	for i, elem := range size {
		if n, ok := elem.(attr.IntegerAttr); ok {
			out[i] = attr.IndexAttr(n.Value)
			continue
		}
		out[i] = elem
	}
	return out
}

// checkFields rejects struct fields other than the allowed ones.
func checkFields(v cue.Value, field string, allowed ...string) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Label()
		known := false
		for _, a := range allowed {
			if label == a {
				known = true
				break
			}
		}
		if !known {
			return &CompileError{
				Field:   field,
				Message: fmt.Sprintf("unknown field %q", label),
				Pos:     iter.Value().Pos(),
			}
		}
	}
	return nil
}
