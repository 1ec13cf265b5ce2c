package attr

// EncodeInts returns an ArrayAttr whose elements are IntegerAttrs of type t
// holding values. The result is always present, even for an empty input.
func EncodeInts(values []int64, t IntegerType) ArrayAttr {
	attrs := make(ArrayAttr, len(values))
	for i, v := range values {
		attrs[i] = IntegerAttr{Value: v, Type: t}
	}
	return attrs
}

// EncodeIntLists encodes each inner list as an I64 ArrayAttr and wraps them
// in an outer ArrayAttr, one element per level.
func EncodeIntLists(lists [][]int64) ArrayAttr {
	attrs := make(ArrayAttr, len(lists))
	for i, l := range lists {
		attrs[i] = EncodeInts(l, I64)
	}
	return attrs
}

// DecodeInts assumes a is a list of IntegerAttrs and returns their values.
// An absent list decodes to an empty, non-nil slice. Validate with
// IsIntegerArray before calling on untrusted input.
func DecodeInts(a ArrayAttr) []int64 {
	if a == nil {
		return []int64{}
	}
	values := make([]int64, len(a))
	for i, elem := range a {
		values[i] = elem.(IntegerAttr).Value
	}
	return values
}

// IsIntegerArray reports whether every element of a is an IntegerAttr.
// An absent or empty list is trivially all-integer.
func IsIntegerArray(a ArrayAttr) bool {
	for _, elem := range a {
		if _, ok := elem.(IntegerAttr); !ok {
			return false
		}
	}
	return true
}

// IsIntegerArrayList reports whether every element of a is itself an
// ArrayAttr of integers.
func IsIntegerArrayList(a ArrayAttr) bool {
	for _, elem := range a {
		inner, ok := elem.(ArrayAttr)
		if !ok || !IsIntegerArray(inner) {
			return false
		}
	}
	return true
}
