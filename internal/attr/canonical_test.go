package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Attribute
		expected string
	}{
		{"string", StringAttr("hello"), `"hello"`},
		{"empty string", StringAttr(""), `""`},
		{"i64", I64Attr(42), "42"},
		{"negative", I64Attr(-100), "-100"},
		{"index", IndexAttr(64), `{"index":64}`},
		{"bool", BoolAttr(true), "true"},
		{"empty array", Array(), "[]"},
		{"ints", EncodeInts([]int64{1, 2, 3}, I64), "[1,2,3]"},
		{"levels", EncodeIntLists([][]int64{{4, 8}, {}}), "[[4,8],[]]"},
		{"dict", DictAttr{"zebra": I64Attr(1), "alpha": I64Attr(2)}, `{"alpha":2,"zebra":1}`},
		{"no html escape", StringAttr("a<b&c>"), `"a<b&c>"`},
		{"line separator", StringAttr("a\u2028b"), "\"a\u2028b\""},
		{"escaped backslash kept", StringAttr(`\u2028`), `"\\u2028"`},
		{"dialect", &testRecord{sizes: EncodeInts([]int64{4}, I64)}, `{"#":"test.record","sizes":[4]}`},
		{"dialect absent params", &testRecord{}, `{"#":"test.record"}`},
		{"dialect empty params", &testRecord{sizes: Array()}, `{"#":"test.record","sizes":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to the precomposed U+00E9.
	result, err := MarshalCanonical(StringAttr("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(result))
}

func TestMarshalCanonicalRejectsNil(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)

	_, err = MarshalCanonical(Array(I64Attr(1), nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array[1]")
}

func TestUnmarshalBuiltins(t *testing.T) {
	a, err := Unmarshal([]byte(`[4,{"index":2},"x",true,{"k":[1]}]`))
	require.NoError(t, err)

	expected := Array(
		I64Attr(4),
		IndexAttr(2),
		StringAttr("x"),
		BoolAttr(true),
		DictAttr{"k": Array(I64Attr(1))},
	)
	assert.True(t, Equal(expected, a), "got %s", Print(a))
}

func TestUnmarshalRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"float", `3.14`},
		{"exponent", `1e10`},
		{"nested float", `{"a":[1.5]}`},
		{"null", `null`},
		{"null in array", `[1,null]`},
		{"unknown dialect", `{"#":"nope.attr"}`},
		{"non-string tag", `{"#":3}`},
		{"non-integer index", `{"index":"x"}`},
		{"out of range", `99999999999999999999`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.input))
			require.Error(t, err)
		})
	}
}

func TestDialectRoundTrip(t *testing.T) {
	original := &testRecord{sizes: EncodeInts([]int64{4, 8}, I64), note: StringAttr("n")}

	data, err := MarshalCanonical(original)
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	require.IsType(t, &testRecord{}, decoded)
	assert.True(t, Equal(original, decoded))
	assert.Equal(t, MustHash(original), MustHash(decoded))
}

func TestRegisterDialectTwicePanics(t *testing.T) {
	assert.Panics(t, func() {
		RegisterDialect("test.record", func(DictAttr) (Attribute, error) { return nil, nil })
	})
}

func TestFromGoPlainInts(t *testing.T) {
	a, err := FromGo([]any{1, int64(2)})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, DecodeInts(a.(ArrayAttr)))

	_, err = FromGo(2.5)
	require.Error(t, err)
}
