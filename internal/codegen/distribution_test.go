package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lowering/internal/codegen"
	"github.com/roach88/lowering/internal/program"
)

func loopOp(gen program.IDGenerator, name string, parallel []int, tileSizes, interchange [][]int64) *program.LoopOp {
	op := program.NewLoopOp(gen, name, "linalg.generic", parallel)
	if tileSizes != nil {
		codegen.SetLoweringConfig(op, codegen.NewLoweringConfig(tileSizes, interchange, nil))
	}
	return op
}

func TestDistributionTileConfig_Empty(t *testing.T) {
	tiles, interchange, err := codegen.DistributionTileConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{}, tiles)
	assert.Equal(t, []int64{}, interchange)
}

func TestDistributionTileConfig_Agreement(t *testing.T) {
	gen := program.NewSequenceGenerator("op")
	ops := []codegen.Operation{
		loopOp(gen, "a", []int{0, 1}, [][]int64{{4, 8}}, nil),
		loopOp(gen, "b", []int{0, 1}, [][]int64{{4, 8}}, nil),
	}

	tiles, interchange, err := codegen.DistributionTileConfig(ops)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 8}, tiles)
	assert.Equal(t, []int64{}, interchange)
}

func TestDistributionTileConfig_Disagreement(t *testing.T) {
	gen := program.NewSequenceGenerator("op")
	ops := []codegen.Operation{
		loopOp(gen, "first", []int{0, 1}, [][]int64{{4, 8}}, nil),
		loopOp(gen, "second", []int{0, 1}, [][]int64{{4, 16}}, nil),
	}

	_, _, err := codegen.DistributionTileConfig(ops)
	require.Error(t, err)
	assert.True(t, codegen.IsCode(err, codegen.ErrInconsistentDistribution))

	var diag *codegen.Diagnostic
	require.ErrorAs(t, err, &diag)
	assert.Equal(t, "first", diag.Op)
	assert.Equal(t, "inconsistent distribution of ops for first level of distribution", diag.Message)
}

func TestDistributionTileConfig_AttributesToFirstInputOp(t *testing.T) {
	gen := program.NewSequenceGenerator("op")
	ops := []codegen.Operation{
		program.NewOp(gen, "fill", "linalg.fill"),
		loopOp(gen, "a", []int{0}, [][]int64{{4}}, nil),
		loopOp(gen, "b", []int{0}, [][]int64{{8}}, nil),
	}

	_, _, err := codegen.DistributionTileConfig(ops)
	var diag *codegen.Diagnostic
	require.ErrorAs(t, err, &diag)
	assert.Equal(t, "fill", diag.Op)
}

func TestDistributionTileConfig_InterchangeMismatch(t *testing.T) {
	gen := program.NewSequenceGenerator("op")
	ops := []codegen.Operation{
		loopOp(gen, "a", []int{0, 1}, [][]int64{{4, 8}}, [][]int64{{1, 0}}),
		loopOp(gen, "b", []int{0, 1}, [][]int64{{4, 8}}, [][]int64{{0, 1}}),
	}

	_, _, err := codegen.DistributionTileConfig(ops)
	assert.True(t, codegen.IsCode(err, codegen.ErrInconsistentDistribution))
}

func TestDistributionTileConfig_SkipsNonParticipants(t *testing.T) {
	gen := program.NewSequenceGenerator("op")

	plain := program.NewOp(gen, "copy", "linalg.copy")
	codegen.SetLoweringConfig(plain, codegen.NewLoweringConfig([][]int64{{99, 99}}, nil, nil))

	ops := []codegen.Operation{
		plain,
		loopOp(gen, "unconfigured", []int{0, 1}, nil, nil),
		loopOp(gen, "a", []int{0, 1}, [][]int64{{4, 8}}, nil),
	}

	tiles, _, err := codegen.DistributionTileConfig(ops)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 8}, tiles)
}

func TestDistributionTileConfig_NoContributors(t *testing.T) {
	gen := program.NewSequenceGenerator("op")
	ops := []codegen.Operation{program.NewOp(gen, "fill", "linalg.fill")}

	tiles, interchange, err := codegen.DistributionTileConfig(ops)
	require.NoError(t, err)
	assert.Empty(t, tiles)
	assert.Empty(t, interchange)
}

func TestDistributionTileConfig_ZeroFillsUncoveredDims(t *testing.T) {
	gen := program.NewSequenceGenerator("op")

	// Dims 0 and 2 are parallel; dim 1 is a reduction. Dim 3 is beyond
	// the op's tile sizes.
	ops := []codegen.Operation{
		loopOp(gen, "a", []int{0, 2, 3}, [][]int64{{4, 16, 8}}, nil),
	}

	tiles, _, err := codegen.DistributionTileConfig(ops)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 0, 8, 0}, tiles)
}

func TestDistributionTileConfig_CapsParallelDims(t *testing.T) {
	gen := program.NewSequenceGenerator("op")
	ops := []codegen.Operation{
		loopOp(gen, "batch", []int{0, 1, 2, 3}, [][]int64{{1, 2, 4, 8}}, nil),
	}

	tiles, _, err := codegen.DistributionTileConfig(ops)
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 2, 4, 8}, tiles, "only the innermost three loops are distributed")
}

func TestDistributionTileConfig_ReductionOnlyOpDoesNotFixResult(t *testing.T) {
	gen := program.NewSequenceGenerator("op")
	ops := []codegen.Operation{
		loopOp(gen, "sum", []int{}, [][]int64{{0, 64}}, nil),
		loopOp(gen, "mm", []int{0, 1}, [][]int64{{4, 8}}, nil),
	}

	tiles, interchange, err := codegen.DistributionTileConfig(ops)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 8}, tiles)
	assert.Equal(t, []int64{}, interchange)
}

func TestDistributionTileConfig_ZeroTilesStillCompared(t *testing.T) {
	gen := program.NewSequenceGenerator("op")
	ops := []codegen.Operation{
		loopOp(gen, "a", []int{0, 1}, [][]int64{{0, 0}}, nil),
		loopOp(gen, "b", []int{0, 1}, [][]int64{{4, 8}}, nil),
	}

	_, _, err := codegen.DistributionTileConfig(ops)
	assert.True(t, codegen.IsCode(err, codegen.ErrInconsistentDistribution))
}
