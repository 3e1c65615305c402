package operator

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/value"
)

func numArg(v cty.Value) (float64, bool) {
	if v.Type() != cty.Number {
		return 0, false
	}
	f, _ := v.AsBigFloat().Float64()
	return f, true
}

// registerMathOps registers `@math.add/sub/mul/div/max/min`. Every
// operator requires at least two numeric arguments; `div` by zero is an
// Error, per spec.md §4.5.
func registerMathOps(r *Registry) {
	reduce := func(name string, fn func(acc, next float64) float64) Func {
		return func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
			if len(positional) < 2 {
				return cty.NilVal, fmt.Errorf("requires at least two numbers")
			}
			acc, ok := numArg(positional[0])
			if !ok {
				return cty.NilVal, fmt.Errorf("argument 1 is not a number")
			}
			for i := 1; i < len(positional); i++ {
				n, ok := numArg(positional[i])
				if !ok {
					return cty.NilVal, fmt.Errorf("argument %d is not a number", i+1)
				}
				acc = fn(acc, n)
			}
			return value.Number(acc), nil
		}
	}

	r.Register("math.add", reduce("add", func(a, b float64) float64 { return a + b }))
	r.Register("math.sub", reduce("sub", func(a, b float64) float64 { return a - b }))
	r.Register("math.mul", reduce("mul", func(a, b float64) float64 { return a * b }))
	r.Register("math.max", reduce("max", func(a, b float64) float64 {
		if b > a {
			return b
		}
		return a
	}))
	r.Register("math.min", reduce("min", func(a, b float64) float64 {
		if b < a {
			return b
		}
		return a
	}))

	r.Register("math.div", func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error) {
		if len(positional) < 2 {
			return cty.NilVal, fmt.Errorf("requires at least two numbers")
		}
		acc, ok := numArg(positional[0])
		if !ok {
			return cty.NilVal, fmt.Errorf("argument 1 is not a number")
		}
		for i := 1; i < len(positional); i++ {
			n, ok := numArg(positional[i])
			if !ok {
				return cty.NilVal, fmt.Errorf("argument %d is not a number", i+1)
			}
			if n == 0 {
				return cty.NilVal, &divByZeroError{}
			}
			acc /= n
		}
		return value.Number(acc), nil
	})
}

// divByZeroError lets evalAtCall tag the resulting Diagnostic with
// CodeEvalDivByZero instead of the generic CodeEvalBadArgs every other
// operator error maps to.
type divByZeroError struct{}

func (*divByZeroError) Error() string { return "division by zero" }
