package codegen

import "github.com/roach88/lowering/internal/attr"

// CompilationInfoMnemonic identifies serialized CompilationInfo records.
const CompilationInfoMnemonic = "iree_codegen.compilation_info"

// CompilationInfo bundles a LoweringConfig, a TranslationInfo and a
// workgroup size into one override of the default compilation of an op.
// It is typically produced by an auto-tuner, attached to the op, and erased
// once a pass has applied it.
type CompilationInfo struct {
	attr.Dialect
	loweringConfig  *LoweringConfig
	translationInfo *TranslationInfo
	workgroupSize   attr.ArrayAttr
}

// NewCompilationInfo builds an override from raw tile sizes with the default
// (None) pipeline and an empty workload per workgroup.
func NewCompilationInfo(tileSizes, tileInterchange [][]int64, nativeVectorSize, workgroupSize []int64) (*CompilationInfo, error) {
	return NewCompilationInfoWithPipeline(tileSizes, tileInterchange, nativeVectorSize, None, nil, workgroupSize)
}

// NewCompilationInfoWithPipeline builds an override with an explicit
// pipeline and workload per workgroup.
func NewCompilationInfoWithPipeline(
	tileSizes, tileInterchange [][]int64,
	nativeVectorSize []int64,
	pipeline PassPipeline,
	workloadPerWorkgroup, workgroupSize []int64,
) (*CompilationInfo, error) {
	cfg := NewLoweringConfig(tileSizes, tileInterchange, nativeVectorSize)
	info := NewTranslationInfo(pipeline, workloadPerWorkgroup)
	return NewCompilationInfoFromConfigs(cfg, info, workgroupSize)
}

// NewCompilationInfoFromConfigs combines already-built records. Every
// constructor ends here, so every override is verified before it is
// returned.
func NewCompilationInfoFromConfigs(cfg *LoweringConfig, info *TranslationInfo, workgroupSize []int64) (*CompilationInfo, error) {
	ci := CompilationInfoFromAttrs(cfg, info, attr.EncodeInts(workgroupSize, attr.I64))
	if err := ci.Verify(); err != nil {
		return nil, err
	}
	return ci, nil
}

// CompilationInfoFromAttrs builds a CompilationInfo from raw fields without
// checking them. Nil fields are absent.
func CompilationInfoFromAttrs(cfg *LoweringConfig, info *TranslationInfo, workgroupSize attr.ArrayAttr) *CompilationInfo {
	return &CompilationInfo{
		loweringConfig:  cfg,
		translationInfo: info,
		workgroupSize:   workgroupSize,
	}
}

// LoweringConfig returns the bundled lowering config (nil when absent).
func (c *CompilationInfo) LoweringConfig() *LoweringConfig { return c.loweringConfig }

// TranslationInfo returns the bundled translation info (nil when absent).
func (c *CompilationInfo) TranslationInfo() *TranslationInfo { return c.translationInfo }

// WorkgroupSizeAttr returns the raw workgroup_size field (nil when absent).
func (c *CompilationInfo) WorkgroupSizeAttr() attr.ArrayAttr { return c.workgroupSize }

// WorkgroupSizeVals returns the workgroup size, empty when absent.
func (c *CompilationInfo) WorkgroupSizeVals() []int64 {
	return intVals(c.workgroupSize)
}

// Verify checks both bundled records and the workgroup size. The first
// failure of a sub-record is returned unchanged.
func (c *CompilationInfo) Verify() error {
	if c.loweringConfig == nil {
		return newDiagnostic(ErrMissingLoweringConfig, "missing lowering config")
	}
	if err := c.loweringConfig.Verify(); err != nil {
		return err
	}
	if c.translationInfo == nil {
		return newDiagnostic(ErrMissingTranslationInfo, "missing translation info")
	}
	if err := c.translationInfo.Verify(); err != nil {
		return err
	}
	if c.workgroupSize.Present() && !attr.IsIntegerArray(c.workgroupSize) {
		return newDiagnostic(ErrMalformedWorkgroupSize,
			"expected workgroup_size to be a list of integers")
	}
	return nil
}

// Mnemonic implements attr.DialectAttribute.
func (c *CompilationInfo) Mnemonic() string { return CompilationInfoMnemonic }

// Params implements attr.DialectAttribute.
func (c *CompilationInfo) Params() []attr.Param {
	return []attr.Param{
		{Name: "lowering_config", Value: c.loweringConfig.orNil()},
		{Name: "translation_info", Value: c.translationInfo.orNil()},
		{Name: "workgroup_size", Value: c.workgroupSize},
	}
}

// Equal reports structural equality.
func (c *CompilationInfo) Equal(other *CompilationInfo) bool {
	var a, b attr.Attribute
	if c != nil {
		a = c
	}
	if other != nil {
		b = other
	}
	return attr.Equal(a, b)
}
