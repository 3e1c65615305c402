package operator

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/value"
)

func elementsOf(v cty.Value) ([]cty.Value, bool) {
	switch {
	case v.Type().IsTupleType() || v.Type().IsListType():
		out := make([]cty.Value, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, ev)
		}
		return out, true
	case v.Type().IsObjectType() || v.Type().IsMapType():
		out := make([]cty.Value, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, ev)
		}
		return out, true
	default:
		return nil, false
	}
}

// registerArrayOps registers `@array.filter/map/values`. HLX's grammar
// has no function-literal expression, so `filter` and `map` take a
// mode/template string rather than a predicate closure:
//
//   - `@array.filter(arr, "non_null")` keeps elements that are not Null.
//   - `@array.filter(arr, "non_empty")` additionally drops empty
//     strings, empty arrays, and empty objects.
//   - `@array.map(arr, "<$_>")` renders each element via to_string and
//     substitutes it for the literal placeholder `$_` in the template,
//     producing an array of strings.
//   - `@array.values(x)` returns x's elements as a plain array: for an
//     array argument this is the identity; for an object argument it
//     discards the keys, mirroring Object.values in most host
//     languages.
func registerArrayOps(r *Registry) {
	// array.get is HLX's only concrete surface for spec.md §4.5's
	// "array indexing uses 0-based integers; out-of-range → Error": the
	// grammar's bracket syntax `@name[key]` is reserved for operator
	// calls and section references, so there is no generic `arr[0]`
	// expression form to give that rule a home in eval.go's tree walk.
	r.Register("array.get", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) != 2 {
			return cty.NilVal, fmt.Errorf("requires an array and an index")
		}
		elems, ok := elementsOf(positional[0])
		if !ok {
			return cty.NilVal, fmt.Errorf("first argument is not an array")
		}
		idx, ok := numArg(positional[1])
		if !ok {
			return cty.NilVal, fmt.Errorf("index must be a number")
		}
		i := int(idx)
		if i < 0 || i >= len(elems) {
			return cty.NilVal, &indexRangeError{index: i, length: len(elems)}
		}
		return elems[i], nil
	})

	r.Register("array.values", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) != 1 {
			return cty.NilVal, fmt.Errorf("requires exactly one array or object")
		}
		elems, ok := elementsOf(positional[0])
		if !ok {
			return cty.NilVal, fmt.Errorf("argument is not an array or object")
		}
		return value.Array(elems), nil
	})

	r.Register("array.filter", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) != 2 {
			return cty.NilVal, fmt.Errorf("requires an array and a filter mode")
		}
		elems, ok := elementsOf(positional[0])
		if !ok {
			return cty.NilVal, fmt.Errorf("first argument is not an array")
		}
		mode := value.ToString(positional[1])
		out := make([]cty.Value, 0, len(elems))
		for _, e := range elems {
			if keepElement(e, mode) {
				out = append(out, e)
			}
		}
		return value.Array(out), nil
	})

	r.Register("array.map", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) != 2 {
			return cty.NilVal, fmt.Errorf("requires an array and a template string")
		}
		elems, ok := elementsOf(positional[0])
		if !ok {
			return cty.NilVal, fmt.Errorf("first argument is not an array")
		}
		tmpl := value.ToString(positional[1])
		out := make([]cty.Value, len(elems))
		for i, e := range elems {
			out[i] = value.String(strings.ReplaceAll(tmpl, "$_", value.ToString(e)))
		}
		return value.Array(out), nil
	})
}

// indexRangeError lets evalAtCall tag the resulting Diagnostic with
// CodeEvalIndexRange instead of the generic CodeEvalBadArgs.
type indexRangeError struct {
	index, length int
}

func (e *indexRangeError) Error() string {
	return fmt.Sprintf("index %d out of range for array of length %d", e.index, e.length)
}

func keepElement(e cty.Value, mode string) bool {
	switch mode {
	case "non_null":
		return !e.IsNull()
	case "non_empty":
		if e.IsNull() {
			return false
		}
		if e.Type() == cty.String {
			return e.AsString() != ""
		}
		if e.Type().IsTupleType() || e.Type().IsListType() || e.Type().IsObjectType() || e.Type().IsMapType() {
			return e.LengthInt() > 0
		}
		return true
	default:
		return true
	}
}
