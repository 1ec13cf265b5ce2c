package attr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MnemonicKey tags a serialized dialect attribute with its mnemonic.
const MnemonicKey = "#"

// indexKey wraps an Index-typed integer so it survives a round trip.
const indexKey = "index"

// MarshalCanonical produces RFC 8785 canonical JSON for an attribute.
// This is the only serialization used for content identity.
//
// Differences from encoding/json:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping
//  3. Strings are NFC normalized
//  4. I64 integers are bare numbers, Index integers are {"index":N}
//  5. Dialect attributes are objects tagged with "#": mnemonic
func MarshalCanonical(a Attribute) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, a Attribute) error {
	switch val := a.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case IntegerAttr:
		if val.Type == Index {
			buf.WriteString(`{"` + indexKey + `":`)
			buf.WriteString(strconv.FormatInt(val.Value, 10))
			buf.WriteByte('}')
			return nil
		}
		buf.WriteString(strconv.FormatInt(val.Value, 10))
		return nil
	case StringAttr:
		return writeCanonicalString(buf, string(val))
	case BoolAttr:
		buf.WriteString(strconv.FormatBool(bool(val)))
		return nil
	case ArrayAttr:
		return writeCanonicalArray(buf, val)
	case DictAttr:
		return writeCanonicalDict(buf, val)
	case DialectAttribute:
		obj := DictAttr{MnemonicKey: StringAttr(val.Mnemonic())}
		for _, p := range val.Params() {
			if p.Value == nil {
				continue
			}
			if arr, ok := p.Value.(ArrayAttr); ok && arr == nil {
				continue
			}
			obj[p.Name] = p.Value
		}
		return writeCanonicalDict(buf, obj)
	default:
		return fmt.Errorf("unsupported attribute for canonical JSON: %T", a)
	}
}

// writeCanonicalString writes a canonical JSON string with NFC normalization.
// Only control characters, backslash, and quote are escaped.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return err
	}

	// json.Encoder adds a trailing newline
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns \u2028 and \u2029 escapes back into literal
// characters, as RFC 8785 requires. An escape preceded by an odd number of
// backslashes is literal text and is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && data[i+1] == 'u' &&
			data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') {
			backslashes := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				backslashes++
			}
			if backslashes%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}

func writeCanonicalArray(buf *bytes.Buffer, arr ArrayAttr) error {
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonical(buf, elem); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeCanonicalDict(buf *bytes.Buffer, d DictAttr) error {
	buf.WriteByte('{')
	for i, k := range d.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonicalString(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := writeCanonical(buf, d[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}
