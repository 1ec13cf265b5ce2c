package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/lowering/internal/codegen"
	"github.com/roach88/lowering/internal/program"
)

// createTestStore creates a new store in a temp dir with deterministic run IDs.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithIDGenerator(program.NewSequenceGenerator("run")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestInfo builds a valid compilation info with a single tiling level.
func createTestInfo(t *testing.T, tiles []int64, workgroupSize []int64) *codegen.CompilationInfo {
	t.Helper()
	ci, err := codegen.NewCompilationInfoWithPipeline(
		[][]int64{tiles}, nil, nil,
		codegen.LLVMGPUVectorize, nil, workgroupSize,
	)
	if err != nil {
		t.Fatalf("NewCompilationInfoWithPipeline() failed: %v", err)
	}
	return ci
}
