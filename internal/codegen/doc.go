// Package codegen defines the lowering configuration attached to compute
// operations and entry points during code generation.
//
// Three records make up the schema:
//   - LoweringConfig: multi-level tile sizes, optional per-level interchange,
//     optional native vector size (key "lowering_config" on an op)
//   - TranslationInfo: pass pipeline and workload per workgroup (key
//     "translation_info" on an entry point, whose dedicated workgroup-size
//     field is written alongside)
//   - CompilationInfo: a LoweringConfig, a TranslationInfo and a workgroup
//     size bundled as one override (key "compilation_info" on an op)
//
// Records are immutable attr.DialectAttribute values. Constructors never
// validate the raw *FromAttrs forms; call Verify. Accessors never fail:
// absent or malformed fields decode to empty lists.
//
// DistributionTileConfig reconciles the first-level tile sizes of a group
// of co-distributed ops and rejects groups that disagree.
package codegen
