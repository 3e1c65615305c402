package operator

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/value"
)

// registerVarOps registers `@var.get(name)` / `@var.set(name, value)`,
// reading and writing the runtime Context's identifier bindings
// directly (distinct from `$NAME`/`!NAME!`, which are dedicated
// expression variants resolved in eval.go, not operator calls).
func registerVarOps(r *Registry) {
	r.Register("var.get", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) == 0 {
			return cty.NilVal, fmt.Errorf("requires a variable name")
		}
		name := value.ToString(positional[0])
		if v, ok := ctx.Lookup(name); ok {
			return v, nil
		}
		if len(positional) >= 2 {
			return positional[1], nil
		}
		return cty.NilVal, fmt.Errorf("undefined variable %q", name)
	})

	r.Register("var.set", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) < 2 {
			return cty.NilVal, fmt.Errorf("requires a variable name and a value")
		}
		name := value.ToString(positional[0])
		ctx.Vars[name] = positional[1]
		return positional[1], nil
	})
}
