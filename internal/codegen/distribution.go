package codegen

import "slices"

// MaxParallelDims caps the number of loop dimensions distributed across the
// outermost level of parallelism.
const MaxParallelDims = 3

// DistributionTileConfig reconciles the level-0 tile sizes and interchange
// of ops that are distributed together. Ops without partitionable loops or
// without a lowering config are skipped. While the reconciled tile sizes are
// still empty, each contributing op replaces them (and the interchange); once
// they are non-empty, any disagreement fails with
// ErrInconsistentDistribution, attributed to ops[0]. An op with no
// partitionable loops therefore never fixes the result.
//
// A dimension that is not partitionable, or beyond an op's tile sizes, is
// reported as 0.
func DistributionTileConfig(ops []Operation) (tileSizes, interchange []int64, err error) {
	tileSizes, interchange = []int64{}, []int64{}
	for _, op := range ops {
		partitioned, ok := op.(PartitionableLoopsInterface)
		if !ok {
			continue
		}
		cfg := GetLoweringConfig(op)
		if cfg == nil {
			continue
		}

		loops := partitioned.PartitionableLoops(MaxParallelDims)
		opTileSizes := cfg.TileSizeValsAt(0)
		opInterchange := cfg.TileInterchangeValsAt(0)

		distributed := make([]int64, distributedLen(loops))
		for _, d := range loops {
			if d >= 0 && d < len(opTileSizes) {
				distributed[d] = opTileSizes[d]
			}
		}

		if len(tileSizes) == 0 {
			tileSizes, interchange = distributed, opInterchange
			continue
		}
		if !slices.Equal(tileSizes, distributed) || !slices.Equal(interchange, opInterchange) {
			return nil, nil, newDiagnostic(ErrInconsistentDistribution,
				"inconsistent distribution of ops for first level of distribution").On(ops[0].Name())
		}
	}
	return tileSizes, interchange, nil
}

func distributedLen(loops []int) int {
	n := 0
	for _, d := range loops {
		if d+1 > n {
			n = d + 1
		}
	}
	return n
}
