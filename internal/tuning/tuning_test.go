package tuning

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lowering/internal/attr"
	"github.com/roach88/lowering/internal/codegen"
	"github.com/roach88/lowering/internal/program"
)

const validOverrides = `
name: matmul_sweep_42
description: "best of 128 candidates"
overrides:
  - dispatch: matmul_dispatch
    op: matmul
    tile_sizes: [[32, 32, 16]]
    pass_pipeline: LLVMGPUMatmulTensorCore
    workload_per_workgroup: [32, 32]
    workgroup_size: [64, 2, 1]
  - dispatch: matmul_dispatch
    op: fill
    tile_sizes: [[32, 32]]
    workgroup_size: [64, 2, 1]
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadOverrides_ValidFile(t *testing.T) {
	f, err := LoadOverrides(writeFile(t, validOverrides))
	require.NoError(t, err)

	assert.Equal(t, "matmul_sweep_42", f.Name)
	require.Len(t, f.Overrides, 2)
	assert.Equal(t, Target{Dispatch: "matmul_dispatch", Op: "matmul"}, f.Overrides[0].Target())
	assert.Equal(t, [][]int64{{32, 32, 16}}, f.Overrides[0].TileSizes)
	assert.Equal(t, "LLVMGPUMatmulTensorCore", f.Overrides[0].PassPipeline)
}

func TestLoadOverrides_MissingFile(t *testing.T) {
	_, err := LoadOverrides("/nonexistent/overrides.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read overrides file")
}

func TestParseOverrides_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		message string
	}{
		{"missing name", "overrides: [{dispatch: d, op: o, tile_sizes: [[1]]}]", "name is required"},
		{"no overrides", "name: x", "overrides list is required"},
		{"missing dispatch", "name: x\noverrides: [{op: o, tile_sizes: [[1]]}]", "dispatch is required"},
		{"missing op", "name: x\noverrides: [{dispatch: d, tile_sizes: [[1]]}]", "op is required"},
		{"missing tile sizes", "name: x\noverrides: [{dispatch: d, op: o}]", "tile_sizes is required"},
		{"unknown pipeline", "name: x\noverrides: [{dispatch: d, op: o, tile_sizes: [], pass_pipeline: Warp}]", "unknown pass pipeline"},
		{"duplicate", "name: x\noverrides: [{dispatch: d, op: o, tile_sizes: []}, {dispatch: d, op: o, tile_sizes: []}]", "duplicate override for d/o"},
		{"unknown field", "name: x\noverides: []", "failed to parse YAML"},
		{"float tile size", "name: x\noverrides: [{dispatch: d, op: o, tile_sizes: [[4.5]]}]", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOverrides([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestOverride_CompilationInfoPicksConstructor(t *testing.T) {
	f, err := ParseOverrides([]byte(validOverrides))
	require.NoError(t, err)

	tensorCore, err := f.Overrides[0].CompilationInfo()
	require.NoError(t, err)
	assert.Equal(t, codegen.LLVMGPUMatmulTensorCore, tensorCore.TranslationInfo().DispatchLoweringPassPipeline())
	assert.Equal(t, []int64{32, 32}, tensorCore.TranslationInfo().WorkloadPerWorkgroupVals())

	fill, err := f.Overrides[1].CompilationInfo()
	require.NoError(t, err)
	assert.Equal(t, codegen.None, fill.TranslationInfo().DispatchLoweringPassPipeline())
	assert.Equal(t, []int64{}, fill.TranslationInfo().WorkloadPerWorkgroupVals())
	assert.Equal(t, []int64{64, 2, 1}, fill.WorkgroupSizeVals())
}

func TestFromCompilationInfo_RoundTrip(t *testing.T) {
	o := Override{
		Dispatch:             "d",
		Op:                   "o",
		TileSizes:            [][]int64{{4, 8}, {1, 1}},
		TileInterchange:      [][]int64{{1, 0}},
		NativeVectorSize:     []int64{4},
		PassPipeline:         "CPUDoubleTilingExpert",
		WorkloadPerWorkgroup: []int64{8, 4},
		WorkgroupSize:        []int64{4, 1, 1},
	}
	ci, err := o.CompilationInfo()
	require.NoError(t, err)
	assert.Equal(t, o, FromCompilationInfo(o.Target(), ci))
}

func TestFromCompilationInfo_RoundTripDefaultPipelineWithWorkload(t *testing.T) {
	o := Override{
		Dispatch:             "d",
		Op:                   "o",
		TileSizes:            [][]int64{{4, 8}},
		WorkloadPerWorkgroup: []int64{8, 4},
	}
	ci, err := o.CompilationInfo()
	require.NoError(t, err)
	assert.Equal(t, codegen.None, ci.TranslationInfo().DispatchLoweringPassPipeline())
	assert.Equal(t, []int64{8, 4}, ci.TranslationInfo().WorkloadPerWorkgroupVals())

	exported := FromCompilationInfo(o.Target(), ci)
	assert.Equal(t, o, exported)

	again, err := exported.CompilationInfo()
	require.NoError(t, err)
	assert.True(t, attr.Equal(ci, again))
}

func TestFile_JSONUsesSnakeCase(t *testing.T) {
	f, err := ParseOverrides([]byte(validOverrides))
	require.NoError(t, err)

	data, err := json.Marshal(f)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"name":"matmul_sweep_42"`)
	assert.Contains(t, s, `"tile_sizes":[[32,32,16]]`)
	assert.Contains(t, s, `"workload_per_workgroup":[32,32]`)
	assert.NotContains(t, s, `"TileSizes"`)
}

func TestFile_MarshalParsesBack(t *testing.T) {
	f, err := ParseOverrides([]byte(validOverrides))
	require.NoError(t, err)

	data, err := f.Marshal()
	require.NoError(t, err)
	again, err := ParseOverrides(data)
	require.NoError(t, err)
	assert.Equal(t, f, again)
}

func newModule(t *testing.T) *program.Module {
	t.Helper()
	gen := program.NewSequenceGenerator("op")
	m := &program.Module{}
	require.NoError(t, m.Add(&program.Dispatch{
		Name:       "matmul_dispatch",
		EntryPoint: program.NewEntryPoint(gen, "matmul_dispatch"),
		Ops: []program.Operation{
			program.NewLoopOp(gen, "fill", "linalg.fill", []int{0, 1}),
			program.NewLoopOp(gen, "matmul", "linalg.matmul", []int{0, 1}),
		},
	}))
	return m
}

func TestApply_AttachesCompilationInfo(t *testing.T) {
	f, err := ParseOverrides([]byte(validOverrides))
	require.NoError(t, err)
	resolved, err := f.Resolve()
	require.NoError(t, err)

	m := newModule(t)
	require.NoError(t, Apply(m, resolved, nil))

	d, _ := m.Dispatch("matmul_dispatch")
	matmul, _ := d.Op("matmul")
	ci := codegen.GetCompilationInfo(matmul)
	require.NotNil(t, ci)
	assert.Equal(t, []int64{32, 32, 16}, ci.LoweringConfig().TileSizeValsAt(0))
}

func TestApply_InternsEqualRecords(t *testing.T) {
	ci, err := codegen.NewCompilationInfo([][]int64{{32, 32}}, nil, nil, nil)
	require.NoError(t, err)
	same, err := codegen.NewCompilationInfo([][]int64{{32, 32}}, nil, nil, nil)
	require.NoError(t, err)

	m := newModule(t)
	pool := attr.NewPool()
	require.NoError(t, Apply(m, []Resolved{
		{Target: Target{"matmul_dispatch", "fill"}, Info: ci},
		{Target: Target{"matmul_dispatch", "matmul"}, Info: same},
	}, pool))

	d, _ := m.Dispatch("matmul_dispatch")
	fill, _ := d.Op("fill")
	matmul, _ := d.Op("matmul")
	assert.Same(t, codegen.GetCompilationInfo(fill), codegen.GetCompilationInfo(matmul))
	assert.Equal(t, 1, pool.Len())
}

func TestApply_UnknownTargetLeavesModuleUntouched(t *testing.T) {
	ci, err := codegen.NewCompilationInfo([][]int64{{1}}, nil, nil, nil)
	require.NoError(t, err)

	m := newModule(t)
	err = Apply(m, []Resolved{
		{Target: Target{"matmul_dispatch", "matmul"}, Info: ci},
		{Target: Target{"matmul_dispatch", "softmax"}, Info: ci},
	}, nil)

	var applyErr *ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, "unknown op", applyErr.Message)

	d, _ := m.Dispatch("matmul_dispatch")
	matmul, _ := d.Op("matmul")
	assert.Nil(t, codegen.GetCompilationInfo(matmul))

	err = Apply(m, []Resolved{{Target: Target{"other", "x"}, Info: ci}}, nil)
	assert.ErrorContains(t, err, "override other/x: unknown dispatch")
}

func TestApply_UnserializableRecordLeavesModuleUntouched(t *testing.T) {
	ci, err := codegen.NewCompilationInfo([][]int64{{1}}, nil, nil, nil)
	require.NoError(t, err)
	broken := codegen.CompilationInfoFromAttrs(
		codegen.LoweringConfigFromAttrs(attr.Array(attr.Array(attr.I64Attr(1), nil)), nil, nil),
		codegen.NewTranslationInfo(codegen.None, nil),
		nil)

	m := newModule(t)
	pool := attr.NewPool()
	err = Apply(m, []Resolved{
		{Target: Target{"matmul_dispatch", "fill"}, Info: ci},
		{Target: Target{"matmul_dispatch", "matmul"}, Info: broken},
	}, pool)
	assert.ErrorContains(t, err, "override matmul_dispatch/matmul")

	d, _ := m.Dispatch("matmul_dispatch")
	fill, _ := d.Op("fill")
	assert.Nil(t, codegen.GetCompilationInfo(fill))
}
