package codegen

import (
	"fmt"
	"math"

	"github.com/roach88/lowering/internal/attr"
)

// PassPipeline selects the lowering strategy used for a dispatch.
// None is the terminal value and means "use the default".
type PassPipeline int32

const (
	CPUDefault PassPipeline = iota
	CPUDoubleTilingExpert
	CPUDoubleTilingPadExpert
	CPUConvTileAndDecomposeExpert
	CPUTileFuseAndVectorize
	CPUBufferOpsTileAndVectorize
	CPUAArchDoubleTilingExpert
	LLVMGPUDistribute
	LLVMGPUVectorize
	LLVMGPUMatmulSimt
	LLVMGPUMatmulTensorCore
	SPIRVDistribute
	SPIRVDistributeCopy
	SPIRVVectorize
	SPIRVVectorizeToCooperativeOps
	None
)

var pipelineNames = [...]string{
	CPUDefault:                     "CPUDefault",
	CPUDoubleTilingExpert:          "CPUDoubleTilingExpert",
	CPUDoubleTilingPadExpert:       "CPUDoubleTilingPadExpert",
	CPUConvTileAndDecomposeExpert:  "CPUConvTileAndDecomposeExpert",
	CPUTileFuseAndVectorize:        "CPUTileFuseAndVectorize",
	CPUBufferOpsTileAndVectorize:   "CPUBufferOpsTileAndVectorize",
	CPUAArchDoubleTilingExpert:     "CPUAArchDoubleTilingExpert",
	LLVMGPUDistribute:              "LLVMGPUDistribute",
	LLVMGPUVectorize:               "LLVMGPUVectorize",
	LLVMGPUMatmulSimt:              "LLVMGPUMatmulSimt",
	LLVMGPUMatmulTensorCore:        "LLVMGPUMatmulTensorCore",
	SPIRVDistribute:                "SPIRVDistribute",
	SPIRVDistributeCopy:            "SPIRVDistributeCopy",
	SPIRVVectorize:                 "SPIRVVectorize",
	SPIRVVectorizeToCooperativeOps: "SPIRVVectorizeToCooperativeOps",
	None:                           "None",
}

// Valid reports whether p lies within [0, None].
func (p PassPipeline) Valid() bool {
	return p >= 0 && p <= None
}

func (p PassPipeline) String() string {
	if !p.Valid() {
		return fmt.Sprintf("PassPipeline(%d)", int32(p))
	}
	return pipelineNames[p]
}

// ParsePassPipeline returns the pipeline with the given name.
func ParsePassPipeline(name string) (PassPipeline, error) {
	for i, n := range pipelineNames {
		if n == name {
			return PassPipeline(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pass pipeline %q", name)
}

// PassPipelines returns every valid pipeline in ordinal order, None last.
func PassPipelines() []PassPipeline {
	all := make([]PassPipeline, 0, len(pipelineNames))
	for i := range pipelineNames {
		all = append(all, PassPipeline(i))
	}
	return all
}

// pipelineAttr serializes a pipeline by name, or by ordinal when it is out
// of range so that an invalid value survives a round trip to Verify.
func pipelineAttr(p *PassPipeline) attr.Attribute {
	if p == nil {
		return nil
	}
	if p.Valid() {
		return attr.StringAttr(p.String())
	}
	return attr.I64Attr(int64(*p))
}

// pipelineFromAttr is the inverse of pipelineAttr. Absent yields nil.
func pipelineFromAttr(a attr.Attribute) (*PassPipeline, error) {
	switch v := a.(type) {
	case nil:
		return nil, nil
	case attr.StringAttr:
		p, err := ParsePassPipeline(string(v))
		if err != nil {
			return nil, err
		}
		return &p, nil
	case attr.IntegerAttr:
		if v.Value < math.MinInt32 || v.Value > math.MaxInt32 {
			return nil, fmt.Errorf("pass pipeline ordinal %d out of range", v.Value)
		}
		p := PassPipeline(v.Value)
		return &p, nil
	default:
		return nil, fmt.Errorf("pass pipeline must be a name or ordinal, got %s", attr.Print(a))
	}
}
