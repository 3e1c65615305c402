// Package semantic implements the six validation passes spec.md §4.4
// runs over a parsed HelixAst: symbol collection, reference resolution
// (including lowering generic AtOperatorCall nodes into the dedicated
// EnvRef/MemoryRef/SectionReference variants ast.go reserves for this
// stage), type checking, constraint checking, cycle detection (via
// internal/dag), and duration normalization.
//
// Grounded on spec.md §4.4 directly; the retrieval pack surfaced no
// standalone semantic-analysis file in original_source/ (validation
// lives inline inside HelixLoader::load in types.rs), so pass structure
// here follows the spec's ordered list rather than a single Rust
// source file; cycle detection reuses the teacher's internal/dag
// three-color DFS nearly verbatim.
package semantic

import (
	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/hlxerr"
)

// Options configures analysis behavior.
type Options struct {
	// Strict promotes unknown-property warnings (pass 3) to errors,
	// per spec.md §4.4 pass 3's "warnings unless strict mode".
	Strict bool
}

// Analyzer runs the ordered validation passes over a HelixAst.
type Analyzer struct {
	opts Options
}

// New constructs an Analyzer with the given options.
func New(opts Options) *Analyzer {
	return &Analyzer{opts: opts}
}

// Analyze runs all six passes in order and returns the accumulated
// diagnostics. Per spec.md §4.4, "success" means HasErrors() is false;
// later passes still run even if earlier ones produced errors, so
// callers see as many problems as possible in one invocation, except
// for pass 2's lowering, which every later pass depends on structurally.
func (a *Analyzer) Analyze(tree *ast.HelixAst) hlxerr.Diagnostics {
	var diags hlxerr.Diagnostics

	idx, d := collectSymbols(tree)
	diags = append(diags, d...)

	d = resolveReferences(tree, idx)
	diags = append(diags, d...)

	d = checkTypes(tree, a.opts.Strict)
	diags = append(diags, d...)

	d = checkConstraints(tree)
	diags = append(diags, d...)

	d = detectCycles(tree)
	diags = append(diags, d...)

	d = normalizeDurations(tree)
	diags = append(diags, d...)

	return diags
}

// Validate is the package-level convenience entry point matching
// spec.md §6's `validate(AST) → Diagnostics` library surface.
func Validate(tree *ast.HelixAst, opts Options) hlxerr.Diagnostics {
	return New(opts).Analyze(tree)
}
