package codegen

import "github.com/roach88/lowering/internal/attr"

// TranslationInfoMnemonic identifies serialized TranslationInfo records.
const TranslationInfoMnemonic = "iree_codegen.translation_info"

// TranslationInfo selects the pass pipeline for a unit of work and an
// optional per-workgroup workload shape.
type TranslationInfo struct {
	attr.Dialect
	passPipeline         *PassPipeline
	workloadPerWorkgroup attr.ArrayAttr
}

// NewTranslationInfo builds a TranslationInfo. A nil workload encodes as a
// present, empty list.
func NewTranslationInfo(pipeline PassPipeline, workloadPerWorkgroup []int64) *TranslationInfo {
	return &TranslationInfo{
		passPipeline:         &pipeline,
		workloadPerWorkgroup: attr.EncodeInts(workloadPerWorkgroup, attr.I64),
	}
}

// TranslationInfoFromAttrs builds a TranslationInfo from raw fields without
// checking them. A nil pipeline is absent.
func TranslationInfoFromAttrs(pipeline *PassPipeline, workloadPerWorkgroup attr.ArrayAttr) *TranslationInfo {
	info := &TranslationInfo{workloadPerWorkgroup: workloadPerWorkgroup}
	if pipeline != nil {
		p := *pipeline
		info.passPipeline = &p
	}
	return info
}

// PassPipeline returns the pipeline and whether it is present.
func (t *TranslationInfo) PassPipeline() (PassPipeline, bool) {
	if t.passPipeline == nil {
		return None, false
	}
	return *t.passPipeline, true
}

// DispatchLoweringPassPipeline returns the pipeline, or None when absent.
func (t *TranslationInfo) DispatchLoweringPassPipeline() PassPipeline {
	p, _ := t.PassPipeline()
	return p
}

// WorkloadPerWorkgroupAttr returns the raw workload list (nil when absent).
func (t *TranslationInfo) WorkloadPerWorkgroupAttr() attr.ArrayAttr {
	return t.workloadPerWorkgroup
}

// WorkloadPerWorkgroupVals returns the decoded workload, empty when absent.
func (t *TranslationInfo) WorkloadPerWorkgroupVals() []int64 {
	return intVals(t.workloadPerWorkgroup)
}

// Verify checks that the pipeline is present and within [0, None].
func (t *TranslationInfo) Verify() error {
	if t.passPipeline == nil {
		return newDiagnostic(ErrMissingPipeline, "pass pipeline is not set")
	}
	if !t.passPipeline.Valid() {
		return newDiagnostic(ErrInvalidPipeline, "invalid pass pipeline value : %s", t.passPipeline)
	}
	return nil
}

// Mnemonic implements attr.DialectAttribute.
func (t *TranslationInfo) Mnemonic() string { return TranslationInfoMnemonic }

// Params implements attr.DialectAttribute.
func (t *TranslationInfo) Params() []attr.Param {
	return []attr.Param{
		{Name: "pass_pipeline", Value: pipelineAttr(t.passPipeline)},
		{Name: "workload_per_wg", Value: t.workloadPerWorkgroup},
	}
}

// Equal reports structural equality.
func (t *TranslationInfo) Equal(other *TranslationInfo) bool {
	return attr.Equal(t.orNil(), other.orNil())
}

func (t *TranslationInfo) orNil() attr.Attribute {
	if t == nil {
		return nil
	}
	return t
}

// intVals decodes a list of integers, returning an empty list when a is
// absent, not a list, or holds a non-integer. Accessors use it so that they
// never fail on unverified input.
func intVals(a attr.Attribute) []int64 {
	arr, ok := a.(attr.ArrayAttr)
	if !ok || !attr.IsIntegerArray(arr) {
		return []int64{}
	}
	return attr.DecodeInts(arr)
}
