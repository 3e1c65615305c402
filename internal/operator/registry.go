// Package operator implements HLX's `@`-operator evaluator: a stateful
// tree-walking interpreter over ast.Expression that resolves
// AtOperatorCall/EnvRef/MemoryRef/VariableExpr/VariableMarker nodes the
// semantic analyzer has already lowered, producing value.Value results
// or an EvaluationError.
//
// Grounded on the teacher's internal/registry package: a Registry is a
// plain struct of name→handler maps built by New() and populated by
// Register calls, not a package-level global, per spec.md §9's "modeled
// as a registry... populated at evaluator construction, not a global
// table; callers may register custom operators." original_source's
// src/ops.rs does define a type named "operator", but it is an unrelated
// concept (a Pest-grammar arithmetic calculator embedded in a dna.hlx
// config loader) that shares no contract with spec.md §4.5's `@env` /
// `@math` / `@string` / ... families; those families have no
// original_source counterpart and are implemented directly from
// spec.md's literal operator list, in the teacher's registry idiom.
package operator

import (
	"log/slog"

	"github.com/zclconf/go-cty/cty"
)

// Func is the shape every `@`-operator implements: positional arguments,
// named arguments (insertion order not significant at this layer), and
// the evaluation context they may read or write, per spec.md §4.5's
// "(positional[], named{}, ctx) → Value or Error".
type Func func(ctx *Context, positional []cty.Value, named map[string]cty.Value) (cty.Value, error)

// Registry is a mapping from operator name to Func, built fresh per
// Evaluator rather than held in a package-level variable.
type Registry struct {
	operators map[string]Func
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{operators: make(map[string]Func)}
}

// Register adds or replaces the handler for name. Unlike the teacher's
// RegisterRunner, re-registering is allowed rather than panicking:
// spec.md §9 explicitly invites callers to register custom operators,
// which includes overriding a built-in for testing.
func (r *Registry) Register(name string, fn Func) {
	slog.Debug("registering operator", "name", name)
	r.operators[name] = fn
}

// Lookup returns the handler for name, if any.
func (r *Registry) Lookup(name string) (Func, bool) {
	fn, ok := r.operators[name]
	return fn, ok
}

// Names returns the registered operator names, for diagnostics and
// "did you mean" suggestions on an unknown operator.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.operators))
	for n := range r.operators {
		names = append(names, n)
	}
	return names
}

// Default builds a Registry pre-populated with every built-in operator
// family spec.md §4.5 lists. It is a constructor, not a singleton: each
// call returns an independent Registry callers may further customize.
func Default() *Registry {
	r := New()
	registerEnvOps(r)
	registerVarOps(r)
	registerDateOps(r)
	registerMathOps(r)
	registerStringOps(r)
	registerArrayOps(r)
	registerJSONOps(r)
	registerCryptoOps(r)
	registerMemoryOps(r)
	registerTransformOps(r)
	return r
}
