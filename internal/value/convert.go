package value

import (
	"fmt"
	"strconv"

	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/ast"
)

// FromLiteral converts a literal (non-deferred) ast.Expression into a
// Value, for use by the evaluator when a property's value is already
// fully resolved at parse time. It returns false for any Expression
// that requires evaluation context (variables, markers, @-operator
// calls, section references); those are the evaluator's job, not a
// plain conversion.
func FromLiteral(e ast.Expression) (cty.Value, bool) {
	switch n := e.(type) {
	case *ast.NullLit:
		return Null(), true
	case *ast.BoolLit:
		return Bool(n.Value), true
	case *ast.NumberLit:
		return Number(n.Value), true
	case *ast.StringLit:
		return String(n.Value), true
	case *ast.DurationLit:
		return Duration(n.Millis()), true
	case *ast.ArrayLit:
		elems := make([]cty.Value, 0, len(n.Elements))
		for _, el := range n.Elements {
			v, ok := FromLiteral(el)
			if !ok {
				return cty.NilVal, false
			}
			elems = append(elems, v)
		}
		return Array(elems), true
	case *ast.ObjectLit:
		fields := make(map[string]cty.Value, len(n.Entries))
		for _, entry := range n.Entries {
			v, ok := FromLiteral(entry.Value)
			if !ok {
				return cty.NilVal, false
			}
			fields[entry.Key] = v
		}
		return Object(fields), true
	default:
		return cty.NilVal, false
	}
}

// ToString renders v the way HLX's `+` operator does when concatenating
// a non-string operand onto a string (spec.md §4.5's "to_string"), and
// the way the pretty printer and binary decompiler render scalar values.
func ToString(v cty.Value) string {
	switch {
	case v.IsNull():
		return "null"
	case IsDuration(v):
		ms, _ := AsDuration(v)
		return strconv.FormatInt(ms, 10) + "ms"
	case IsBinary(v):
		b, _ := AsBinary(v)
		return fmt.Sprintf("<%d bytes>", len(b))
	case v.Type() == cty.Bool:
		return strconv.FormatBool(v.True())
	case v.Type() == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case v.Type() == cty.String:
		return v.AsString()
	case v.Type().IsTupleType() || v.Type().IsObjectType():
		return fmt.Sprintf("%s", ToGo(v))
	default:
		return v.GoString()
	}
}

// ToGo converts v into plain Go data (bool, float64, string, []any,
// map[string]any, nil) suitable for encoding/json, which is what
// internal/operator's `@json.stringify` needs.
func ToGo(v cty.Value) any {
	switch {
	case v.IsNull():
		return nil
	case IsDuration(v):
		ms, _ := AsDuration(v)
		return ms
	case IsBinary(v):
		b, _ := AsBinary(v)
		return b
	case v.Type() == cty.Bool:
		return v.True()
	case v.Type() == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f
	case v.Type() == cty.String:
		return v.AsString()
	case v.Type().IsTupleType() || v.Type().IsListType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, ToGo(ev))
		}
		return out
	case v.Type().IsObjectType() || v.Type().IsMapType():
		out := map[string]any{}
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			out[k.AsString()] = ToGo(ev)
		}
		return out
	default:
		return nil
	}
}
