// Package tuning loads auto-tuner override files and attaches the
// overrides they describe to the ops of a compiled module.
package tuning

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/lowering/internal/codegen"
)

// File is one auto-tuner result: a named set of per-op overrides.
type File struct {
	// Name identifies the tuning run.
	Name string `yaml:"name" json:"name"`

	// Description explains how the overrides were produced.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Overrides lists one entry per tuned op.
	Overrides []Override `yaml:"overrides" json:"overrides"`
}

// Override is the tuned configuration of one op.
type Override struct {
	// Dispatch and Op name the tuned op.
	Dispatch string `yaml:"dispatch" json:"dispatch"`
	Op       string `yaml:"op" json:"op"`

	// TileSizes is required, one list per tiling level.
	TileSizes        [][]int64 `yaml:"tile_sizes" json:"tile_sizes"`
	TileInterchange  [][]int64 `yaml:"tile_interchange,omitempty" json:"tile_interchange,omitempty"`
	NativeVectorSize []int64   `yaml:"native_vector_size,omitempty" json:"native_vector_size,omitempty"`

	// PassPipeline names a pipeline; empty selects the default (None).
	PassPipeline         string  `yaml:"pass_pipeline,omitempty" json:"pass_pipeline,omitempty"`
	WorkloadPerWorkgroup []int64 `yaml:"workload_per_workgroup,omitempty" json:"workload_per_workgroup,omitempty"`
	WorkgroupSize        []int64 `yaml:"workgroup_size,omitempty" json:"workgroup_size,omitempty"`
}

// Target names an op within a module.
type Target struct {
	Dispatch string
	Op       string
}

func (t Target) String() string {
	return t.Dispatch + "/" + t.Op
}

// Resolved is a verified override ready to attach.
type Resolved struct {
	Target
	Info *codegen.CompilationInfo
}

// LoadOverrides reads and parses an override YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadOverrides(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}
	return ParseOverrides(data)
}

// ParseOverrides parses override YAML with strict field checking.
func ParseOverrides(data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateFile(&f); err != nil {
		return nil, fmt.Errorf("invalid overrides: %w", err)
	}
	return &f, nil
}

func validateFile(f *File) error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(f.Overrides) == 0 {
		return fmt.Errorf("overrides list is required and must be non-empty")
	}

	seen := make(map[Target]bool)
	for i, o := range f.Overrides {
		if o.Dispatch == "" {
			return fmt.Errorf("overrides[%d]: dispatch is required", i)
		}
		if o.Op == "" {
			return fmt.Errorf("overrides[%d]: op is required", i)
		}
		if o.TileSizes == nil {
			return fmt.Errorf("overrides[%d]: tile_sizes is required (even if empty)", i)
		}
		if o.PassPipeline != "" {
			if _, err := codegen.ParsePassPipeline(o.PassPipeline); err != nil {
				return fmt.Errorf("overrides[%d]: %w", i, err)
			}
		}
		t := o.Target()
		if seen[t] {
			return fmt.Errorf("overrides[%d]: duplicate override for %s", i, t)
		}
		seen[t] = true
	}
	return nil
}

// Target returns the op this override applies to.
func (o Override) Target() Target {
	return Target{Dispatch: o.Dispatch, Op: o.Op}
}

// CompilationInfo builds the verified record for this override. Without a
// pass_pipeline the default pipeline (None) is used; a workload given
// alongside it is kept.
func (o Override) CompilationInfo() (*codegen.CompilationInfo, error) {
	if o.PassPipeline == "" && len(o.WorkloadPerWorkgroup) == 0 {
		return codegen.NewCompilationInfo(o.TileSizes, o.TileInterchange, o.NativeVectorSize, o.WorkgroupSize)
	}
	p := codegen.None
	if o.PassPipeline != "" {
		var err error
		if p, err = codegen.ParsePassPipeline(o.PassPipeline); err != nil {
			return nil, err
		}
	}
	return codegen.NewCompilationInfoWithPipeline(
		o.TileSizes, o.TileInterchange, o.NativeVectorSize,
		p, o.WorkloadPerWorkgroup, o.WorkgroupSize)
}

// FromCompilationInfo is the inverse of CompilationInfo, used to export
// stored overrides back to YAML.
func FromCompilationInfo(t Target, ci *codegen.CompilationInfo) Override {
	o := Override{Dispatch: t.Dispatch, Op: t.Op}
	if cfg := ci.LoweringConfig(); cfg != nil {
		o.TileSizes = cfg.TileSizeVals()
		for level := 0; level < len(cfg.TileInterchangeAttr()); level++ {
			o.TileInterchange = append(o.TileInterchange, cfg.TileInterchangeValsAt(level))
		}
		if nvs := cfg.NativeVectorSizeVals(); len(nvs) > 0 {
			o.NativeVectorSize = nvs
		}
	}
	if info := ci.TranslationInfo(); info != nil {
		if p := info.DispatchLoweringPassPipeline(); p != codegen.None {
			o.PassPipeline = p.String()
		}
		if w := info.WorkloadPerWorkgroupVals(); len(w) > 0 {
			o.WorkloadPerWorkgroup = w
		}
	}
	if wg := ci.WorkgroupSizeVals(); len(wg) > 0 {
		o.WorkgroupSize = wg
	}
	return o
}

// Resolve builds and verifies the record of every override, in file order.
func (f *File) Resolve() ([]Resolved, error) {
	out := make([]Resolved, 0, len(f.Overrides))
	for _, o := range f.Overrides {
		ci, err := o.CompilationInfo()
		if err != nil {
			return nil, fmt.Errorf("override %s: %w", o.Target(), err)
		}
		out = append(out, Resolved{Target: o.Target(), Info: ci})
	}
	return out, nil
}

// Marshal renders f as YAML.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
