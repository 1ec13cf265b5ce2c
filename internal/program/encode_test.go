package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lowering/internal/attr"
	"github.com/roach88/lowering/internal/codegen"
)

func TestModuleAttr_Canonical(t *testing.T) {
	gen := NewSequenceGenerator("")
	ep := NewEntryPoint(gen, "d")
	ep.SetWorkgroupSize(attr.EncodeInts([]int64{64, 1}, attr.Index))

	mm := NewLoopOp(gen, "mm", "linalg.matmul", []int{1, 0})
	codegen.SetLoweringConfig(mm, codegen.NewLoweringConfig([][]int64{{8, 8}}, nil, nil))

	m := &Module{}
	require.NoError(t, m.Add(&Dispatch{Name: "d", EntryPoint: ep, Ops: []Operation{mm}}))

	got, err := attr.MarshalCanonical(m.Attr())
	require.NoError(t, err)
	assert.Equal(t,
		`{"dispatches":[{"entry_point":{"kind":"entry_point","name":"d","workgroup_size":[{"index":64},{"index":1}]},`+
			`"name":"d","ops":[{"attributes":{"lowering_config":{"#":"iree_codegen.lowering_config","native_vector_size":[],"tile_interchange":[],"tile_sizes":[[8,8]]}},`+
			`"kind":"linalg.matmul","name":"mm","parallel_loops":[0,1]}]}]}`,
		string(got))
}

func TestDispatchAttr_OmitsIDs(t *testing.T) {
	build := func(prefix string) attr.DictAttr {
		gen := NewSequenceGenerator(prefix)
		d := &Dispatch{Name: "d", EntryPoint: NewEntryPoint(gen, "d"), Ops: []Operation{NewOp(gen, "fill", "linalg.fill")}}
		return d.Attr()
	}
	assert.True(t, attr.Equal(build("a"), build("b")))
}
