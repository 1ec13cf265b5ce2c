package passes

import (
	"log/slog"

	"github.com/roach88/lowering/internal/codegen"
	"github.com/roach88/lowering/internal/distribute"
	"github.com/roach88/lowering/internal/program"
)

// Plan is the distribution of one dispatch onto workgroups and threads.
type Plan struct {
	Dispatch      string   `json:"dispatch"`
	Pipeline      string   `json:"pipeline"`
	WorkgroupSize []int64  `json:"workgroup_size"`
	TileSizes     []int64  `json:"tile_sizes"`
	Interchange   []int64  `json:"interchange"`
	Promote       bool     `json:"promote"`
	Ops           []OpPlan `json:"ops"`
}

// OpPlan holds the second-level tile sizes of one distributed op.
// WarpTiles is only set for pipelines that distribute to warps.
type OpPlan struct {
	Name           string  `json:"name"`
	ThreadTiles    []int64 `json:"thread_tiles"`
	WarpTiles      []int64 `json:"warp_tiles,omitempty"`
	ReductionTiles []int64 `json:"reduction_tiles"`
}

// PlanDistribution reconciles the level-0 tiling of d's ops and derives,
// from the entry point's workgroup size, the tile sizes each thread (and
// warp, under LLVMGPUMatmulTensorCore) computes. Ops without partitionable
// loops or without a lowering config are not planned.
//
// Run MaterializeCompilationInfo first; pending overrides are ignored.
func PlanDistribution(d *program.Dispatch) (*Plan, error) {
	tileSizes, interchange, err := codegen.DistributionTileConfig(d.ComputeOps())
	if err != nil {
		return nil, &PassError{
			Code:     ErrCodeInconsistentDistribution,
			Message:  "cannot reconcile first-level tiling",
			Dispatch: d.Name,
			Err:      err,
		}
	}

	plan := &Plan{
		Dispatch:      d.Name,
		Pipeline:      codegen.None.String(),
		WorkgroupSize: []int64{},
		TileSizes:     tileSizes,
		Interchange:   interchange,
		Ops:           []OpPlan{},
	}

	pipeline := codegen.None
	if d.EntryPoint != nil {
		if info := codegen.GetTranslationInfo(d.EntryPoint); info != nil {
			pipeline = info.DispatchLoweringPassPipeline()
			plan.Pipeline = pipeline.String()
		}
		plan.WorkgroupSize = codegen.GetWorkgroupSize(d.EntryPoint)
	}
	plan.Promote = len(plan.WorkgroupSize) > 0 && distribute.ShouldPromote(plan.WorkgroupSize)

	for _, op := range d.Ops {
		if _, ok := op.(codegen.PartitionableLoopsInterface); !ok {
			continue
		}
		if codegen.GetLoweringConfig(op) == nil {
			continue
		}
		opPlan := OpPlan{
			Name:           op.Name(),
			ThreadTiles:    distribute.ThreadTileSizes(op, plan.WorkgroupSize),
			ReductionTiles: distribute.ReductionTileSizes(op),
		}
		if pipeline == codegen.LLVMGPUMatmulTensorCore {
			opPlan.WarpTiles = distribute.WarpTileSizes(op, plan.WorkgroupSize)
		}
		plan.Ops = append(plan.Ops, opPlan)
	}

	slog.Debug("distribution planned",
		"dispatch", d.Name,
		"pipeline", plan.Pipeline,
		"ops", len(plan.Ops),
		"promote", plan.Promote,
	)
	return plan, nil
}
