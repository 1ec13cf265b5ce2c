package testutil

import (
	"github.com/roach88/lowering/internal/attr"
	"github.com/roach88/lowering/internal/codegen"
	"github.com/roach88/lowering/internal/program"
)

// DispatchBuilder assembles a program.Dispatch for tests.
//
//	d := testutil.NewDispatch("matmul").
//		WorkgroupSize(64, 2, 1).
//		Pipeline(codegen.LLVMGPUMatmulSimt).
//		LoopOp("mm", []int{0, 1}, []int64{32, 32, 16}).
//		Build()
type DispatchBuilder struct {
	gen program.IDGenerator
	d   *program.Dispatch
}

// NewDispatch starts a dispatch with an entry point named after it.
func NewDispatch(name string) *DispatchBuilder {
	gen := NewFixedIDGenerator("")
	return &DispatchBuilder{
		gen: gen,
		d: &program.Dispatch{
			Name:       name,
			EntryPoint: program.NewEntryPoint(gen, name),
		},
	}
}

// WithoutEntryPoint drops the entry point.
func (b *DispatchBuilder) WithoutEntryPoint() *DispatchBuilder {
	b.d.EntryPoint = nil
	return b
}

// WorkgroupSize sets the entry point's workgroup size.
func (b *DispatchBuilder) WorkgroupSize(size ...int64) *DispatchBuilder {
	b.d.EntryPoint.SetWorkgroupSize(attr.EncodeInts(size, attr.Index))
	return b
}

// Pipeline attaches a translation info with the given pipeline.
func (b *DispatchBuilder) Pipeline(p codegen.PassPipeline) *DispatchBuilder {
	codegen.SetTranslationInfo(b.d.EntryPoint, codegen.NewTranslationInfo(p, nil), nil)
	return b
}

// Op adds an op without partitionable loops.
func (b *DispatchBuilder) Op(name string) *DispatchBuilder {
	b.d.Ops = append(b.d.Ops, program.NewOp(b.gen, name, "linalg.fill"))
	return b
}

// LoopOp adds a distributable op. Each tileLevels entry becomes one tiling
// level of its lowering config; with none, the op has no config.
func (b *DispatchBuilder) LoopOp(name string, parallel []int, tileLevels ...[]int64) *DispatchBuilder {
	op := program.NewLoopOp(b.gen, name, "linalg.matmul", parallel)
	if len(tileLevels) > 0 {
		codegen.SetLoweringConfig(op, codegen.NewLoweringConfig(tileLevels, nil, nil))
	}
	b.d.Ops = append(b.d.Ops, op)
	return b
}

// CompilationInfo attaches info to the most recently added op.
func (b *DispatchBuilder) CompilationInfo(info *codegen.CompilationInfo) *DispatchBuilder {
	codegen.SetCompilationInfo(b.d.Ops[len(b.d.Ops)-1], info)
	return b
}

// Build returns the dispatch.
func (b *DispatchBuilder) Build() *program.Dispatch {
	return b.d
}

// Module wraps dispatches into a module. Names must be unique.
func Module(dispatches ...*program.Dispatch) *program.Module {
	m := &program.Module{}
	for _, d := range dispatches {
		if err := m.Add(d); err != nil {
			panic(err)
		}
	}
	return m
}
