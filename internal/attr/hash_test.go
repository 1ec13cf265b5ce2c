package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterminism(t *testing.T) {
	a := EncodeIntLists([][]int64{{4, 8}})

	h1, err := Hash(a)
	require.NoError(t, err)
	h2, err := Hash(EncodeIntLists([][]int64{{4, 8}}))
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestHashChangesWithContent(t *testing.T) {
	base := MustHash(EncodeInts([]int64{4, 8}, I64))

	assert.NotEqual(t, base, MustHash(EncodeInts([]int64{4, 16}, I64)))
	assert.NotEqual(t, base, MustHash(EncodeInts([]int64{4, 8}, Index)))
	assert.NotEqual(t, base, MustHash(EncodeInts([]int64{8, 4}, I64)))
}

func TestHashDomainSeparation(t *testing.T) {
	data := []byte("[4]")
	assert.NotEqual(t, hashWithDomain("a", data), hashWithDomain("b", data))
	assert.Equal(t, hashWithDomain(DomainAttribute, data), MustHash(Array(I64Attr(4))))
}

func TestMustHashPanics(t *testing.T) {
	assert.Panics(t, func() { MustHash(nil) })
}
