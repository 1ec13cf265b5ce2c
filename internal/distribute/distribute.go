// Package distribute derives the second-level tile sizes used when a
// workgroup's tile is split across threads or warps, from the level-0 tile
// sizes in an op's lowering config.
package distribute

import (
	"slices"

	"github.com/roach88/lowering/internal/codegen"
)

// WarpSize is the number of threads in one warp.
const WarpSize = 32

// TileSizes splits op's level-0 tile sizes across processors. numElements
// gives the processor count per dimension, x first; it is applied to the
// partitionable loops in reverse, so x maps to the innermost loop. The
// result has one entry per loop up to the last partitionable one, with 0
// for loops that are not distributed.
//
// Ops without partitionable loops yield an empty result.
func TileSizes(op codegen.Operation, numElements []int64) []int64 {
	loops := partitionableLoops(op)
	if len(loops) == 0 {
		return []int64{}
	}
	blockTile := codegen.GetTileSizes(op, 0)
	tiles := make([]int64, loops[len(loops)-1]+1)

	distributed := make([]int64, len(loops))
	copy(distributed, numElements)
	slices.Reverse(distributed)

	idx := 0
	for _, depth := range loops {
		if depth < 0 || depth >= len(blockTile) {
			continue
		}
		tiles[depth] = divideCeil(blockTile[depth], distributed[idx])
		idx++
		if idx == codegen.MaxParallelDims {
			break
		}
	}
	return tiles
}

// ThreadTileSizes returns the tile size each thread of a workgroup of the
// given size computes.
func ThreadTileSizes(op codegen.Operation, workgroupSize []int64) []int64 {
	return TileSizes(op, workgroupSize)
}

// WarpTileSizes returns the tile size each warp computes. The x dimension
// of the workgroup is counted in warps.
func WarpTileSizes(op codegen.Operation, workgroupSize []int64) []int64 {
	return TileSizes(op, WarpsPerWorkgroup(workgroupSize))
}

// WarpsPerWorkgroup converts a workgroup size in threads into warps along
// x. Missing dimensions count as 1.
func WarpsPerWorkgroup(workgroupSize []int64) []int64 {
	wg := padWorkgroup(workgroupSize)
	return []int64{wg[0] / WarpSize, wg[1], wg[2]}
}

// ShouldPromote reports whether a workgroup spans more than one warp, in
// which case operands are promoted to workgroup memory.
func ShouldPromote(workgroupSize []int64) bool {
	wg := padWorkgroup(workgroupSize)
	return wg[0]*wg[1]*wg[2] > WarpSize
}

// ReductionTileSizes returns op's level-0 tile sizes with every
// partitionable loop zeroed, so that only reduction loops are tiled again.
func ReductionTileSizes(op codegen.Operation) []int64 {
	if _, ok := op.(codegen.PartitionableLoopsInterface); !ok {
		return []int64{}
	}
	tiles := codegen.GetTileSizes(op, 0)
	for _, depth := range partitionableLoops(op) {
		if depth >= 0 && depth < len(tiles) {
			tiles[depth] = 0
		}
	}
	return tiles
}

func partitionableLoops(op codegen.Operation) []int {
	p, ok := op.(codegen.PartitionableLoopsInterface)
	if !ok {
		return nil
	}
	return p.PartitionableLoops(codegen.MaxParallelDims)
}

func padWorkgroup(workgroupSize []int64) [3]int64 {
	wg := [3]int64{1, 1, 1}
	copy(wg[:], workgroupSize)
	return wg
}

// divideCeil rounds n/d up. A non-positive processor count leaves the
// dimension undistributed.
func divideCeil(n, d int64) int64 {
	if d <= 0 {
		return n
	}
	q := n / d
	if n%d != 0 && n > 0 {
		q++
	}
	return q
}
