package attr

import (
	"slices"
	"unicode/utf16"
)

// Attribute is a sealed interface over immutable, structurally compared
// metadata values. The builtin kinds are IntegerAttr, ArrayAttr, StringAttr,
// BoolAttr and DictAttr. Other packages add record kinds by embedding Dialect
// and implementing DialectAttribute.
type Attribute interface {
	attribute() // Sealed
}

// IntegerType is the element type carried by an IntegerAttr.
type IntegerType uint8

const (
	// I64 is a signless 64-bit integer.
	I64 IntegerType = iota
	// Index is the target-width index type.
	Index
)

// String returns the textual form of the integer type.
func (t IntegerType) String() string {
	switch t {
	case I64:
		return "i64"
	case Index:
		return "index"
	default:
		return "unknown"
	}
}

// IntegerAttr is a typed 64-bit integer.
type IntegerAttr struct {
	Value int64
	Type  IntegerType
}

func (IntegerAttr) attribute() {}

// StringAttr is a string value.
type StringAttr string

func (StringAttr) attribute() {}

// BoolAttr is a boolean value.
type BoolAttr bool

func (BoolAttr) attribute() {}

// ArrayAttr is an ordered list of attributes.
// A nil ArrayAttr means "absent"; a non-nil empty one is present but empty.
type ArrayAttr []Attribute

func (ArrayAttr) attribute() {}

// Present reports whether the list was set, even if it is empty.
func (a ArrayAttr) Present() bool {
	return a != nil
}

// DictAttr maps string keys to attributes.
// Use SortedKeys() for deterministic iteration.
type DictAttr map[string]Attribute

func (DictAttr) attribute() {}

// Dialect is embedded by record attributes defined outside this package so
// that they satisfy the sealed Attribute interface.
type Dialect struct{}

func (Dialect) attribute() {}

// Param is one named parameter of a dialect attribute. A nil Value marks an
// absent optional parameter and is skipped when serializing.
type Param struct {
	Name  string
	Value Attribute
}

// DialectAttribute is a record attribute with a stable mnemonic such as
// "iree_codegen.lowering_config" and an ordered parameter list.
type DialectAttribute interface {
	Attribute
	Mnemonic() string
	Params() []Param
}

// I64Attr returns an IntegerAttr of type I64.
func I64Attr(v int64) IntegerAttr {
	return IntegerAttr{Value: v, Type: I64}
}

// IndexAttr returns an IntegerAttr of type Index.
func IndexAttr(v int64) IntegerAttr {
	return IntegerAttr{Value: v, Type: Index}
}

// Array creates an ArrayAttr from values. Array() with no arguments is
// present and empty.
func Array(vals ...Attribute) ArrayAttr {
	if vals == nil {
		return ArrayAttr{}
	}
	return ArrayAttr(vals)
}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
func (d DictAttr) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785. Go's string comparison uses UTF-8 bytes, which
// orders supplementary-plane characters differently.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}
