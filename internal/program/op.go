package program

import (
	"slices"
	"sort"

	"github.com/roach88/lowering/internal/attr"
	"github.com/roach88/lowering/internal/codegen"
)

// Operation is a compute op as seen by passes: a codegen.Operation with a
// stable ID and a kind such as "linalg.matmul".
type Operation interface {
	codegen.Operation
	ID() string
	Kind() string
	AttrNames() []string
}

// Op is a compute op carrying named metadata attributes.
type Op struct {
	id    string
	name  string
	kind  string
	attrs map[string]attr.Attribute
}

// NewOp creates an op with an ID from gen.
func NewOp(gen IDGenerator, name, kind string) *Op {
	return &Op{
		id:    gen.Generate(),
		name:  name,
		kind:  kind,
		attrs: make(map[string]attr.Attribute),
	}
}

// ID returns the op's identifier.
func (o *Op) ID() string { return o.id }

// Name returns the op's name, used in diagnostics.
func (o *Op) Name() string { return o.name }

// Kind returns the op's kind.
func (o *Op) Kind() string { return o.kind }

// Attr returns the attribute stored under name.
func (o *Op) Attr(name string) (attr.Attribute, bool) {
	a, ok := o.attrs[name]
	return a, ok
}

// SetAttr stores value under name, replacing any previous value.
func (o *Op) SetAttr(name string, value attr.Attribute) {
	o.attrs[name] = value
}

// RemoveAttr deletes the attribute stored under name, if any.
func (o *Op) RemoveAttr(name string) {
	delete(o.attrs, name)
}

// AttrNames returns the names of all attached attributes, sorted.
func (o *Op) AttrNames() []string {
	names := make([]string, 0, len(o.attrs))
	for k := range o.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LoopOp is a compute op with a loop nest, some of whose loops are
// parallel and may be distributed.
type LoopOp struct {
	Op
	parallelLoops []int
}

// NewLoopOp creates a loop op whose parallel loops are the given dimensions.
func NewLoopOp(gen IDGenerator, name, kind string, parallelLoops []int) *LoopOp {
	loops := append([]int{}, parallelLoops...)
	slices.Sort(loops)
	return &LoopOp{
		Op:            *NewOp(gen, name, kind),
		parallelLoops: slices.Compact(loops),
	}
}

// ParallelLoops returns every parallel loop dimension in ascending order.
func (o *LoopOp) ParallelLoops() []int {
	return slices.Clone(o.parallelLoops)
}

// PartitionableLoops returns the innermost maxDims parallel loops in
// ascending order. A non-positive maxDims returns every parallel loop.
func (o *LoopOp) PartitionableLoops(maxDims int) []int {
	loops := o.parallelLoops
	if maxDims > 0 && len(loops) > maxDims {
		loops = loops[len(loops)-maxDims:]
	}
	return slices.Clone(loops)
}

// EntryPoint is the externally invocable unit of a dispatch. Its workgroup
// size lives in a dedicated field, not in the attribute map.
type EntryPoint struct {
	Op
	workgroupSize attr.ArrayAttr
}

// NewEntryPoint creates an entry point with no workgroup size.
func NewEntryPoint(gen IDGenerator, name string) *EntryPoint {
	return &EntryPoint{Op: *NewOp(gen, name, "entry_point")}
}

// WorkgroupSize returns the workgroup size and whether it has been set.
func (e *EntryPoint) WorkgroupSize() (attr.ArrayAttr, bool) {
	return e.workgroupSize, e.workgroupSize.Present()
}

// SetWorkgroupSize replaces the workgroup size.
func (e *EntryPoint) SetWorkgroupSize(size attr.ArrayAttr) {
	e.workgroupSize = size
}

var (
	_ Operation                           = (*Op)(nil)
	_ Operation                           = (*LoopOp)(nil)
	_ codegen.PartitionableLoopsInterface = (*LoopOp)(nil)
	_ codegen.EntryPoint                  = (*EntryPoint)(nil)
)
