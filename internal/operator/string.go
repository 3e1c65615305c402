package operator

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/value"
)

// registerStringOps registers `@string.uppercase/lowercase/concat/trim`.
func registerStringOps(r *Registry) {
	r.Register("string.uppercase", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) != 1 {
			return cty.NilVal, fmt.Errorf("requires exactly one string")
		}
		return value.String(strings.ToUpper(value.ToString(positional[0]))), nil
	})

	r.Register("string.lowercase", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) != 1 {
			return cty.NilVal, fmt.Errorf("requires exactly one string")
		}
		return value.String(strings.ToLower(value.ToString(positional[0]))), nil
	})

	r.Register("string.trim", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) != 1 {
			return cty.NilVal, fmt.Errorf("requires exactly one string")
		}
		return value.String(strings.TrimSpace(value.ToString(positional[0]))), nil
	})

	r.Register("string.concat", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		var b strings.Builder
		for _, p := range positional {
			b.WriteString(value.ToString(p))
		}
		return value.String(b.String()), nil
	})
}
