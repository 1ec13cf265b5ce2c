package codegen

import (
	"fmt"

	"github.com/roach88/lowering/internal/attr"
)

func init() {
	attr.RegisterDialect(LoweringConfigMnemonic, func(p attr.DictAttr) (attr.Attribute, error) {
		return LoweringConfigFromDict(p)
	})
	attr.RegisterDialect(TranslationInfoMnemonic, func(p attr.DictAttr) (attr.Attribute, error) {
		return TranslationInfoFromDict(p)
	})
	attr.RegisterDialect(CompilationInfoMnemonic, func(p attr.DictAttr) (attr.Attribute, error) {
		return CompilationInfoFromDict(p)
	})
}

// LoweringConfigFromDict rebuilds a LoweringConfig from its named
// parameters. Only the shape of each field (list or absent) is checked;
// element kinds are left for Verify.
func LoweringConfigFromDict(p attr.DictAttr) (*LoweringConfig, error) {
	if err := checkParams(p, "tile_sizes", "tile_interchange", "native_vector_size"); err != nil {
		return nil, fmt.Errorf("lowering_config: %w", err)
	}
	tileSizes, err := listParam(p, "tile_sizes")
	if err != nil {
		return nil, fmt.Errorf("lowering_config: %w", err)
	}
	interchange, err := listParam(p, "tile_interchange")
	if err != nil {
		return nil, fmt.Errorf("lowering_config: %w", err)
	}
	nvs, err := listParam(p, "native_vector_size")
	if err != nil {
		return nil, fmt.Errorf("lowering_config: %w", err)
	}
	return LoweringConfigFromAttrs(tileSizes, interchange, nvs), nil
}

// TranslationInfoFromDict rebuilds a TranslationInfo from its named
// parameters. The pipeline may be a name or an ordinal.
func TranslationInfoFromDict(p attr.DictAttr) (*TranslationInfo, error) {
	if err := checkParams(p, "pass_pipeline", "workload_per_wg"); err != nil {
		return nil, fmt.Errorf("translation_info: %w", err)
	}
	pipeline, err := pipelineFromAttr(p["pass_pipeline"])
	if err != nil {
		return nil, fmt.Errorf("translation_info: %w", err)
	}
	workload, err := listParam(p, "workload_per_wg")
	if err != nil {
		return nil, fmt.Errorf("translation_info: %w", err)
	}
	return TranslationInfoFromAttrs(pipeline, workload), nil
}

// CompilationInfoFromDict rebuilds a CompilationInfo. Nested records may be
// already decoded or given as plain parameter dictionaries.
func CompilationInfoFromDict(p attr.DictAttr) (*CompilationInfo, error) {
	if err := checkParams(p, "lowering_config", "translation_info", "workgroup_size"); err != nil {
		return nil, fmt.Errorf("compilation_info: %w", err)
	}

	var cfg *LoweringConfig
	switch v := p["lowering_config"].(type) {
	case nil:
	case *LoweringConfig:
		cfg = v
	case attr.DictAttr:
		c, err := LoweringConfigFromDict(v)
		if err != nil {
			return nil, fmt.Errorf("compilation_info: %w", err)
		}
		cfg = c
	default:
		return nil, fmt.Errorf("compilation_info: lowering_config must be a record, got %s", attr.Print(v))
	}

	var info *TranslationInfo
	switch v := p["translation_info"].(type) {
	case nil:
	case *TranslationInfo:
		info = v
	case attr.DictAttr:
		t, err := TranslationInfoFromDict(v)
		if err != nil {
			return nil, fmt.Errorf("compilation_info: %w", err)
		}
		info = t
	default:
		return nil, fmt.Errorf("compilation_info: translation_info must be a record, got %s", attr.Print(v))
	}

	wg, err := listParam(p, "workgroup_size")
	if err != nil {
		return nil, fmt.Errorf("compilation_info: %w", err)
	}
	return CompilationInfoFromAttrs(cfg, info, wg), nil
}

func checkParams(p attr.DictAttr, allowed ...string) error {
	for _, k := range p.SortedKeys() {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown parameter %q", k)
		}
	}
	return nil
}

func listParam(p attr.DictAttr, name string) (attr.ArrayAttr, error) {
	switch v := p[name].(type) {
	case nil:
		return nil, nil
	case attr.ArrayAttr:
		if v == nil {
			return attr.Array(), nil
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%s must be a list, got %s", name, attr.Print(v))
	}
}
