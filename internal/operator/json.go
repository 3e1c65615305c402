package operator

import (
	"encoding/json"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/value"
)

// registerJSONOps registers `@json.parse/stringify`. encoding/json is
// used rather than a third-party codec: none of the example repos pull
// in an alternative JSON library for anything beyond what the standard
// decoder already does, and `@json.parse`'s input is untrusted
// configuration text, exactly the boundary the standard library's
// streaming decoder is built for.
func registerJSONOps(r *Registry) {
	r.Register("json.parse", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) != 1 {
			return cty.NilVal, fmt.Errorf("requires exactly one string")
		}
		var decoded any
		if err := json.Unmarshal([]byte(value.ToString(positional[0])), &decoded); err != nil {
			return cty.NilVal, &jsonError{err}
		}
		return goToValue(decoded), nil
	})

	r.Register("json.stringify", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) != 1 {
			return cty.NilVal, fmt.Errorf("requires exactly one value")
		}
		encoded, err := json.Marshal(value.ToGo(positional[0]))
		if err != nil {
			return cty.NilVal, fmt.Errorf("%w", err)
		}
		return value.String(string(encoded)), nil
	})
}

// jsonError lets evalAtCall tag the resulting Diagnostic with
// CodeEvalJSON instead of the generic CodeEvalBadArgs.
type jsonError struct{ cause error }

func (e *jsonError) Error() string { return e.cause.Error() }
func (e *jsonError) Unwrap() error { return e.cause }

func goToValue(v any) cty.Value {
	switch n := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(n)
	case float64:
		return value.Number(n)
	case string:
		return value.String(n)
	case []any:
		elems := make([]cty.Value, len(n))
		for i, el := range n {
			elems[i] = goToValue(el)
		}
		return value.Array(elems)
	case map[string]any:
		fields := make(map[string]cty.Value, len(n))
		for k, fv := range n {
			fields[k] = goToValue(fv)
		}
		return value.Object(fields)
	default:
		return value.Null()
	}
}
