package operator

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/value"
)

// registerMemoryOps registers the mutating `@memory.store(key, val)` /
// `@memory.load(key)` operators against ctx.Memory. The read-only
// `@memory[path]` reference form and every parsed `@memory.load(...)`
// call, whatever its argument count, are reduced to ast.MemoryRef
// during semantic analysis (see resolve.go's reduceAtCall) and resolved
// directly in eval.go; the `memory.load` registration is reached only
// by an AtOperatorCall that did not go through that pass.
func registerMemoryOps(r *Registry) {
	r.Register("memory.store", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) != 2 {
			return cty.NilVal, fmt.Errorf("requires a key and a value")
		}
		key := value.ToString(positional[0])
		ctx.Memory.Store(key, positional[1])
		return positional[1], nil
	})

	r.Register("memory.load", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) == 0 {
			return cty.NilVal, fmt.Errorf("requires a key")
		}
		key := value.ToString(positional[0])
		v, ok := ctx.Memory.Load(key)
		if !ok {
			if len(positional) >= 2 {
				return positional[1], nil
			}
			return cty.NilVal, fmt.Errorf("no value stored in memory at %q", key)
		}
		return v, nil
	})
}
