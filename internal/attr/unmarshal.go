package attr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// DialectDecoder rebuilds a dialect attribute from its decoded parameters.
type DialectDecoder func(params DictAttr) (Attribute, error)

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]DialectDecoder{}
)

// RegisterDialect installs the decoder used by Unmarshal for objects tagged
// with the given mnemonic. Registering the same mnemonic twice panics.
func RegisterDialect(mnemonic string, decode DialectDecoder) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	if _, dup := dialects[mnemonic]; dup {
		panic(fmt.Sprintf("attr: dialect %q registered twice", mnemonic))
	}
	dialects[mnemonic] = decode
}

func lookupDialect(mnemonic string) (DialectDecoder, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[mnemonic]
	return d, ok
}

// Unmarshal decodes canonical JSON into an attribute.
// Floats and null are rejected. Objects tagged with "#" are decoded through
// the registered dialect decoder; {"index":N} becomes an Index integer.
func Unmarshal(data []byte) (Attribute, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromGo(raw)
}

// FromGo converts a decoded JSON (or YAML) value into an attribute.
// Accepts the shapes produced by encoding/json with UseNumber as well as
// plain Go ints.
func FromGo(v any) (Attribute, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in attributes")
	case Attribute:
		return val, nil
	case bool:
		return BoolAttr(val), nil
	case string:
		return StringAttr(val), nil
	case int:
		return I64Attr(int64(val)), nil
	case int64:
		return I64Attr(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("floats are forbidden in attributes: %s", s)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return I64Attr(n), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in attributes: %v", val)
	case []any:
		arr := make(ArrayAttr, len(val))
		for i, elem := range val {
			a, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = a
		}
		return arr, nil
	case map[string]any:
		return fromGoObject(val)
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

func fromGoObject(m map[string]any) (Attribute, error) {
	if len(m) == 1 {
		if n, ok := m[indexKey]; ok {
			a, err := FromGo(n)
			if err != nil {
				return nil, fmt.Errorf("index: %w", err)
			}
			i, ok := a.(IntegerAttr)
			if !ok {
				return nil, fmt.Errorf("index: expected integer, got %T", a)
			}
			return IndexAttr(i.Value), nil
		}
	}

	d := make(DictAttr, len(m))
	for k, elem := range m {
		if k == MnemonicKey {
			continue
		}
		a, err := FromGo(elem)
		if err != nil {
			return nil, fmt.Errorf("object[%q]: %w", k, err)
		}
		d[k] = a
	}

	tag, tagged := m[MnemonicKey]
	if !tagged {
		return d, nil
	}
	mnemonic, ok := tag.(string)
	if !ok {
		return nil, fmt.Errorf("dialect tag must be a string, got %T", tag)
	}
	decode, ok := lookupDialect(mnemonic)
	if !ok {
		return nil, fmt.Errorf("unknown dialect attribute %q", mnemonic)
	}
	return decode(d)
}
