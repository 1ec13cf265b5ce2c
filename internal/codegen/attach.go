package codegen

import "github.com/roach88/lowering/internal/attr"

// Attribute keys shared with external tooling such as auto-tuners.
const (
	LoweringConfigKey  = "lowering_config"
	TranslationInfoKey = "translation_info"
	CompilationInfoKey = "compilation_info"
)

// Operation is anything that carries named metadata attributes.
type Operation interface {
	Name() string
	Attr(name string) (attr.Attribute, bool)
	SetAttr(name string, value attr.Attribute)
	RemoveAttr(name string)
}

// EntryPoint is an Operation with a dedicated workgroup-size field.
type EntryPoint interface {
	Operation
	WorkgroupSize() (attr.ArrayAttr, bool)
	SetWorkgroupSize(size attr.ArrayAttr)
}

// PartitionableLoopsInterface is implemented by compute ops whose loops can
// be distributed. It returns at most maxDims loop indices in ascending order.
type PartitionableLoopsInterface interface {
	PartitionableLoops(maxDims int) []int
}

// GetLoweringConfig returns the lowering config attached to op, or nil.
func GetLoweringConfig(op Operation) *LoweringConfig {
	a, _ := op.Attr(LoweringConfigKey)
	cfg, _ := a.(*LoweringConfig)
	return cfg
}

// SetLoweringConfig attaches cfg to op.
func SetLoweringConfig(op Operation, cfg *LoweringConfig) {
	op.SetAttr(LoweringConfigKey, cfg)
}

// GetTranslationInfo returns the translation info attached to entry, or nil.
func GetTranslationInfo(entry EntryPoint) *TranslationInfo {
	a, _ := entry.Attr(TranslationInfoKey)
	info, _ := a.(*TranslationInfo)
	return info
}

// SetTranslationInfo attaches info to entry. A non-empty workgroupSize also
// replaces the entry point's workgroup size, encoded as index integers; an
// empty one leaves the existing size untouched.
func SetTranslationInfo(entry EntryPoint, info *TranslationInfo, workgroupSize []int64) {
	entry.SetAttr(TranslationInfoKey, info)
	if len(workgroupSize) > 0 {
		entry.SetWorkgroupSize(attr.EncodeInts(workgroupSize, attr.Index))
	}
}

// GetWorkgroupSize returns the entry point's workgroup size, empty when unset.
func GetWorkgroupSize(entry EntryPoint) []int64 {
	size, ok := entry.WorkgroupSize()
	if !ok {
		return []int64{}
	}
	return intVals(size)
}

// GetCompilationInfo returns the compilation info attached to op, or nil.
func GetCompilationInfo(op Operation) *CompilationInfo {
	a, _ := op.Attr(CompilationInfoKey)
	info, _ := a.(*CompilationInfo)
	return info
}

// SetCompilationInfo attaches info to op.
func SetCompilationInfo(op Operation, info *CompilationInfo) {
	op.SetAttr(CompilationInfoKey, info)
}

// EraseCompilationInfo removes the compilation info from op, typically
// once a pass has applied it.
func EraseCompilationInfo(op Operation) {
	op.RemoveAttr(CompilationInfoKey)
}

// GetTileSizes returns op's tile sizes at level, empty when op has no
// lowering config.
func GetTileSizes(op Operation, level int) []int64 {
	cfg := GetLoweringConfig(op)
	if cfg == nil {
		return []int64{}
	}
	return cfg.TileSizeValsAt(level)
}

// VerifyOp verifies every record attached to op and returns the first
// failure attributed to op. Ops without records pass.
func VerifyOp(op Operation) error {
	if cfg := GetLoweringConfig(op); cfg != nil {
		if err := cfg.Verify(); err != nil {
			return attributeTo(err, op.Name())
		}
	}
	if info := GetCompilationInfo(op); info != nil {
		if err := info.Verify(); err != nil {
			return attributeTo(err, op.Name())
		}
	}
	return nil
}

// VerifyEntryPoint verifies the translation info and workgroup size of entry.
func VerifyEntryPoint(entry EntryPoint) error {
	if info := GetTranslationInfo(entry); info != nil {
		if err := info.Verify(); err != nil {
			return attributeTo(err, entry.Name())
		}
	}
	if size, ok := entry.WorkgroupSize(); ok && size.Present() && !attr.IsIntegerArray(size) {
		return newDiagnostic(ErrMalformedWorkgroupSize,
			"expected workgroup_size to be a list of integers").On(entry.Name())
	}
	return nil
}
