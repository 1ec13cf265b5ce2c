package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lowering/internal/attr"
)

func TestCompileText(t *testing.T) {
	out, err := execute(t, "compile", writeDispatchDir(t, matmulDispatch))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 1 dispatch(es), 2 op(s)")
	assert.Contains(t, out, "  entry_point workgroup_size = [64 : index, 2 : index, 1 : index]")
	assert.Contains(t, out, `    translation_info = #iree_codegen.translation_info<pass_pipeline = "LLVMGPUMatmulTensorCore">`)
	assert.Contains(t, out, "  mm (linalg.matmul)")
	assert.Contains(t, out, "    lowering_config = #iree_codegen.lowering_config<tile_sizes = [[32, 32, 16]]>")
}

func TestCompileJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "compile", writeDispatchDir(t, matmulDispatch))
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, string(resp.Data), `"dispatches"`)
}

func TestCompileOutputFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "module.json")

	out, err := execute(t, "compile", writeDispatchDir(t, matmulDispatch), "-o", outFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote canonical JSON to "+outFile)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	decoded, err := attr.Unmarshal(data)
	require.NoError(t, err)
	module, ok := decoded.(attr.DictAttr)
	require.True(t, ok, "module must decode to a dictionary, got %T", decoded)

	dispatches, ok := module["dispatches"].(attr.ArrayAttr)
	require.True(t, ok)
	require.Len(t, dispatches, 1)

	// Canonical output re-encodes byte for byte.
	again, err := attr.MarshalCanonical(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again)+"\n")
}

func TestCompileError(t *testing.T) {
	src := `package dispatches

dispatch: d: {
	ops: [{kind: "linalg.fill"}]
}
`
	out, err := execute(t, "compile", writeDispatchDir(t, src))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeOps)
	assert.Contains(t, out, "op name is required")
}

func TestCompileUnknownField(t *testing.T) {
	src := `package dispatches

dispatch: d: {
	ops: [{name: "a", tile_sizes: [[4]]}]
}
`
	out, err := execute(t, "compile", writeDispatchDir(t, src))
	require.Error(t, err)
	assert.Contains(t, out, ErrCodeUnknownField)
	assert.Contains(t, out, `unknown field "tile_sizes"`)
}
