package operator

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/value"
)

// registerEnvOps registers the "env" family as a plain operator call,
// covering any `@env(...)` the semantic analyzer did not already lower
// to an ast.EnvRef (e.g. a call built programmatically by a caller of
// this package rather than parsed from source). The parsed-source path
// goes through Evaluator.evalEnvRef instead; see resolve.go's
// reduceAtCall.
func registerEnvOps(r *Registry) {
	r.Register("env", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) == 0 {
			return cty.NilVal, fmt.Errorf("requires a variable name")
		}
		name := value.ToString(positional[0])
		if v, ok := ctx.Lookup(name); ok {
			return v, nil
		}
		if d, ok := named["default"]; ok {
			return d, nil
		}
		if len(positional) >= 2 {
			return positional[1], nil
		}
		return cty.NilVal, fmt.Errorf("environment variable %q is not set and no default was given", name)
	})
}
