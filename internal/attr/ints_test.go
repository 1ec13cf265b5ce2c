package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntsRoundTrip(t *testing.T) {
	inputs := [][]int64{
		{},
		{0},
		{4, 8},
		{-1, 9223372036854775807, -9223372036854775808},
		{1, 1, 1},
	}

	for _, typ := range []IntegerType{I64, Index} {
		for _, in := range inputs {
			encoded := EncodeInts(in, typ)
			require.True(t, encoded.Present())
			for _, elem := range encoded {
				assert.Equal(t, typ, elem.(IntegerAttr).Type)
			}
			assert.Equal(t, in, DecodeInts(encoded), "type %s", typ)
		}
	}
}

func TestDecodeIntsAbsentIsEmpty(t *testing.T) {
	decoded := DecodeInts(nil)
	assert.NotNil(t, decoded)
	assert.Empty(t, decoded)
}

func TestEncodeIntListsPerLevel(t *testing.T) {
	levels := EncodeIntLists([][]int64{{4, 8}, {}, {1}})
	require.Len(t, levels, 3)

	assert.Equal(t, []int64{4, 8}, DecodeInts(levels[0].(ArrayAttr)))
	assert.True(t, levels[1].(ArrayAttr).Present())
	assert.Empty(t, DecodeInts(levels[1].(ArrayAttr)))
	assert.Equal(t, []int64{1}, DecodeInts(levels[2].(ArrayAttr)))
}

func TestIsIntegerArray(t *testing.T) {
	assert.True(t, IsIntegerArray(nil))
	assert.True(t, IsIntegerArray(Array()))
	assert.True(t, IsIntegerArray(Array(I64Attr(1), IndexAttr(2))))
	assert.False(t, IsIntegerArray(Array(I64Attr(1), StringAttr("2"))))
	assert.False(t, IsIntegerArray(Array(Array(I64Attr(1)))))
}

func TestIsIntegerArrayList(t *testing.T) {
	assert.True(t, IsIntegerArrayList(Array()))
	assert.True(t, IsIntegerArrayList(EncodeIntLists([][]int64{{1, 2}, {}})))
	assert.False(t, IsIntegerArrayList(Array(I64Attr(4))), "scalar where a list is expected")
	assert.False(t, IsIntegerArrayList(Array(Array(I64Attr(4), BoolAttr(true)))))
}
