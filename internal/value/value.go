// Package value is the runtime Value sum type spec.md §4.5 defines for
// the operator evaluator: Null, Bool, Number, String, Duration, Array,
// Object, Binary. It is backed by zclconf/go-cty the same way the
// teacher's bggohcl/bggoexpr packages lean on cty.Value/cty.Type for
// every value that crosses a decode boundary. cty's built-in kinds
// cover Null/Bool/Number/String/tuple-Array/object-Object directly;
// Duration and Binary, which cty has no native representation for, are
// carried as Capsule types, the mechanism cty itself recommends for
// embedding an opaque Go payload inside a cty.Value.
package value

import (
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
)

// durationType wraps a canonicalized millisecond count, per spec.md
// §3's "durations normalize to a canonical unit (milliseconds, i64)".
var durationType = cty.Capsule("duration", reflect.TypeOf(int64(0)))

// binaryType wraps a raw byte slice, spec.md §4.5's Value::Binary.
var binaryType = cty.Capsule("binary", reflect.TypeOf([]byte(nil)))

// Null returns the Value::Null.
func Null() cty.Value { return cty.NullVal(cty.DynamicPseudoType) }

// Bool wraps a boolean.
func Bool(b bool) cty.Value { return cty.BoolVal(b) }

// Number wraps a float64, spec.md §3's "stored as f64" rule for both
// integer and float source literals.
func Number(f float64) cty.Value { return cty.NumberFloatVal(f) }

// String wraps a UTF-8 string.
func String(s string) cty.Value { return cty.StringVal(s) }

// Duration wraps a canonical millisecond count.
func Duration(ms int64) cty.Value { return cty.CapsuleVal(durationType, &ms) }

// Binary wraps a raw byte slice.
func Binary(b []byte) cty.Value { return cty.CapsuleVal(binaryType, &b) }

// Array builds a tuple from heterogeneous element values. HLX arrays
// are not required to be homogeneously typed (`[1, "two", true]` is
// valid source), so cty.TupleVal is the correct constructor rather
// than cty.ListVal, which requires a single element type.
func Array(elems []cty.Value) cty.Value {
	if len(elems) == 0 {
		return cty.EmptyTupleVal
	}
	return cty.TupleVal(elems)
}

// Object builds an object value from named fields, preserving the
// insertion-ordered property semantics of spec.md §3 at the call site
// (cty.ObjectVal itself sorts attribute names internally for its type
// signature, but callers that need source order should consult the
// originating ast.ObjectLit/config.Section, not this Value).
func Object(fields map[string]cty.Value) cty.Value {
	if len(fields) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(fields)
}

// IsDuration reports whether v holds a Duration capsule.
func IsDuration(v cty.Value) bool {
	return !v.IsNull() && v.Type().Equals(durationType)
}

// AsDuration extracts the millisecond count from a Duration value.
func AsDuration(v cty.Value) (int64, bool) {
	if !IsDuration(v) {
		return 0, false
	}
	ptr := v.EncapsulatedValue().(*int64)
	return *ptr, true
}

// IsBinary reports whether v holds a Binary capsule.
func IsBinary(v cty.Value) bool {
	return !v.IsNull() && v.Type().Equals(binaryType)
}

// AsBinary extracts the byte slice from a Binary value.
func AsBinary(v cty.Value) ([]byte, bool) {
	if !IsBinary(v) {
		return nil, false
	}
	ptr := v.EncapsulatedValue().(*[]byte)
	return *ptr, true
}

// Kind names the dynamic shape of v for diagnostics and the binary
// codegen's value_tag (spec.md §4.6.2's Property value tag table).
func Kind(v cty.Value) string {
	switch {
	case v.IsNull():
		return "null"
	case IsDuration(v):
		return "duration"
	case IsBinary(v):
		return "binary"
	case v.Type() == cty.Bool:
		return "bool"
	case v.Type() == cty.Number:
		return "number"
	case v.Type() == cty.String:
		return "string"
	case v.Type().IsObjectType():
		return "object"
	case v.Type().IsTupleType() || v.Type().IsListType():
		return "array"
	default:
		return fmt.Sprintf("unknown(%s)", v.Type().FriendlyName())
	}
}
