package attr

import (
	"strconv"
	"strings"
)

// Print renders an attribute in its textual form, for diagnostics:
//
//	[4, 8]                                        I64 list
//	[64 : index, 1 : index]                       Index list
//	#iree_codegen.lowering_config<tile_sizes = [[4, 8]]>
//
// Absent dialect parameters are omitted. A nil attribute prints as "<<NULL>>".
func Print(a Attribute) string {
	var sb strings.Builder
	printTo(&sb, a)
	return sb.String()
}

func printTo(sb *strings.Builder, a Attribute) {
	switch val := a.(type) {
	case nil:
		sb.WriteString("<<NULL>>")
	case IntegerAttr:
		sb.WriteString(strconv.FormatInt(val.Value, 10))
		if val.Type != I64 {
			sb.WriteString(" : ")
			sb.WriteString(val.Type.String())
		}
	case StringAttr:
		sb.WriteString(strconv.Quote(string(val)))
	case BoolAttr:
		sb.WriteString(strconv.FormatBool(bool(val)))
	case ArrayAttr:
		sb.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				sb.WriteString(", ")
			}
			printTo(sb, elem)
		}
		sb.WriteByte(']')
	case DictAttr:
		sb.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(" = ")
			printTo(sb, val[k])
		}
		sb.WriteByte('}')
	case DialectAttribute:
		sb.WriteByte('#')
		sb.WriteString(val.Mnemonic())
		sb.WriteByte('<')
		first := true
		for _, p := range val.Params() {
			if isAbsent(p.Value) {
				continue
			}
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(p.Name)
			sb.WriteString(" = ")
			printTo(sb, p.Value)
		}
		sb.WriteByte('>')
	default:
		sb.WriteString("<<UNKNOWN>>")
	}
}
