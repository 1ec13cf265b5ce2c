package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// matmulDispatch is a valid dispatch with one distributable op.
const matmulDispatch = `package dispatches

dispatch: matmul: {
	entry_point: {
		workgroup_size: [64, 2, 1]
		translation_info: pass_pipeline: "LLVMGPUMatmulTensorCore"
	}
	ops: [
		{name: "fill", kind: "linalg.fill"},
		{
			name:           "mm"
			kind:           "linalg.matmul"
			parallel_loops: [0, 1]
			lowering_config: tile_sizes: [[32, 32, 16]]
		},
	]
}
`

// writeDispatchDir writes each source to its own .cue file in a temp dir.
func writeDispatchDir(t *testing.T, sources ...string) string {
	t.Helper()
	dir := t.TempDir()
	for i, src := range sources {
		name := filepath.Join(dir, "dispatch"+string(rune('a'+i))+".cue")
		require.NoError(t, os.WriteFile(name, []byte(src), 0644))
	}
	return dir
}

// writeFile writes content to name in a temp dir and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
