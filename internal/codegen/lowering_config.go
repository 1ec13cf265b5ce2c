package codegen

import "github.com/roach88/lowering/internal/attr"

// LoweringConfigMnemonic identifies serialized LoweringConfig records.
const LoweringConfigMnemonic = "iree_codegen.lowering_config"

// LoweringConfig carries, for one operation, the tile sizes to use at each
// tiling level (level 0 is outermost), an optional loop interchange per
// level, and an optional native vector size.
type LoweringConfig struct {
	attr.Dialect
	tileSizes        attr.ArrayAttr
	tileInterchange  attr.ArrayAttr
	nativeVectorSize attr.ArrayAttr
}

// NewLoweringConfig encodes the given lists. Every field of the result is
// present, even when the input is empty.
func NewLoweringConfig(tileSizes, tileInterchange [][]int64, nativeVectorSize []int64) *LoweringConfig {
	return &LoweringConfig{
		tileSizes:        attr.EncodeIntLists(tileSizes),
		tileInterchange:  attr.EncodeIntLists(tileInterchange),
		nativeVectorSize: attr.EncodeInts(nativeVectorSize, attr.I64),
	}
}

// LoweringConfigFromAttrs builds a LoweringConfig from raw fields without
// checking them. Nil fields are absent.
func LoweringConfigFromAttrs(tileSizes, tileInterchange, nativeVectorSize attr.ArrayAttr) *LoweringConfig {
	return &LoweringConfig{
		tileSizes:        tileSizes,
		tileInterchange:  tileInterchange,
		nativeVectorSize: nativeVectorSize,
	}
}

// TileSizesAttr returns the raw tile_sizes field (nil when absent).
func (c *LoweringConfig) TileSizesAttr() attr.ArrayAttr { return c.tileSizes }

// TileInterchangeAttr returns the raw tile_interchange field (nil when absent).
func (c *LoweringConfig) TileInterchangeAttr() attr.ArrayAttr { return c.tileInterchange }

// NativeVectorSizeAttr returns the raw native_vector_size field (nil when absent).
func (c *LoweringConfig) NativeVectorSizeAttr() attr.ArrayAttr { return c.nativeVectorSize }

// TileSizeVals returns the tile sizes of every level, empty when absent.
func (c *LoweringConfig) TileSizeVals() [][]int64 {
	levels := make([][]int64, 0, len(c.tileSizes))
	for _, level := range c.tileSizes {
		levels = append(levels, intVals(level))
	}
	return levels
}

// TileSizeValsAt returns the tile sizes of one level. Out-of-range levels
// and an absent field yield an empty list.
func (c *LoweringConfig) TileSizeValsAt(level int) []int64 {
	return levelVals(c.tileSizes, level)
}

// NumTilingLevels returns the number of configured tile-size levels.
func (c *LoweringConfig) NumTilingLevels() int {
	return len(c.tileSizes)
}

// TileInterchangeValsAt returns the interchange of one level, with the same
// absent and out-of-range policy as TileSizeValsAt.
func (c *LoweringConfig) TileInterchangeValsAt(level int) []int64 {
	return levelVals(c.tileInterchange, level)
}

// NativeVectorSizeVals returns the native vector size, empty when absent.
func (c *LoweringConfig) NativeVectorSizeVals() []int64 {
	return intVals(c.nativeVectorSize)
}

func levelVals(levels attr.ArrayAttr, level int) []int64 {
	if level < 0 || level >= len(levels) {
		return []int64{}
	}
	return intVals(levels[level])
}

// Verify checks that tile_sizes is present and that every level of
// tile_sizes and tile_interchange, and native_vector_size, hold only
// integers. Absent optional fields are valid.
func (c *LoweringConfig) Verify() error {
	if !c.tileSizes.Present() {
		return newDiagnostic(ErrMissingTileSizes,
			"expected tile_sizes to be specified (even if specified as empty)")
	}
	if !attr.IsIntegerArrayList(c.tileSizes) {
		return newDiagnostic(ErrMalformedTileSizes,
			"expected all elements of tile_sizes to be a list of integers")
	}
	if c.tileInterchange.Present() && !attr.IsIntegerArrayList(c.tileInterchange) {
		return newDiagnostic(ErrMalformedInterchange,
			"expected all elements of tile_interchange to be a list of integers")
	}
	if c.nativeVectorSize.Present() && !attr.IsIntegerArray(c.nativeVectorSize) {
		return newDiagnostic(ErrMalformedNativeVectorSize,
			"expected native_vector_size to be a list of integer values")
	}
	return nil
}

// Mnemonic implements attr.DialectAttribute.
func (c *LoweringConfig) Mnemonic() string { return LoweringConfigMnemonic }

// Params implements attr.DialectAttribute.
func (c *LoweringConfig) Params() []attr.Param {
	return []attr.Param{
		{Name: "tile_sizes", Value: c.tileSizes},
		{Name: "tile_interchange", Value: c.tileInterchange},
		{Name: "native_vector_size", Value: c.nativeVectorSize},
	}
}

// Equal reports structural equality.
func (c *LoweringConfig) Equal(other *LoweringConfig) bool {
	return attr.Equal(c.orNil(), other.orNil())
}

func (c *LoweringConfig) orNil() attr.Attribute {
	if c == nil {
		return nil
	}
	return c
}
