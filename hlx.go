// Package hlx is the library API surface spec.md §6 specifies:
// parse/validate/ast_to_config/compile/load/decompile/evaluate/
// pretty_print as free functions over the internal pipeline packages.
// None of it aborts the host process: every failure path returns a
// value, per spec.md §7.
//
// Grounded on original_source/src/lib.rs's pub fn parse/validate/...
// free-function surface, which this file mirrors one-for-one rather
// than wrapping in a client/handle type the original doesn't have.
package hlx

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/binary"
	"github.com/helixlang/hlx/internal/bundler"
	"github.com/helixlang/hlx/internal/codegen"
	"github.com/helixlang/hlx/internal/config"
	"github.com/helixlang/hlx/internal/hlxerr"
	"github.com/helixlang/hlx/internal/lexer"
	"github.com/helixlang/hlx/internal/loader"
	"github.com/helixlang/hlx/internal/operator"
	"github.com/helixlang/hlx/internal/parser"
	"github.com/helixlang/hlx/internal/semantic"
)

// Parse lexes and parses source into an AST, per spec.md §4.1-4.2.
// Diagnostics accumulate across both stages rather than stopping at the
// first lex error, so a caller sees as much of the file as recoverable.
func Parse(source []byte, fileID string) (*ast.HelixAst, hlxerr.Diagnostics) {
	toks, diags := lexer.Tokenize(source, fileID)
	tree, pdiags := parser.Parse(toks, fileID)
	diags = append(diags, pdiags...)
	return tree, diags
}

// Validate runs the semantic analyzer's passes over tree, per spec.md
// §4.4.
func Validate(tree *ast.HelixAst, opts semantic.Options) hlxerr.Diagnostics {
	return semantic.Validate(tree, opts)
}

// AstToConfig materializes tree into a typed Configuration, per spec.md
// §4.3. Callers normally Validate first; AstToConfig does not itself
// re-check constraints semantic analysis already covers.
func AstToConfig(tree *ast.HelixAst, opts config.Options) *config.Configuration {
	return config.AstToConfig(tree, opts)
}

// CompileOptions bundles the optimization level and output compression
// Compile needs, mirroring the CLI surface's `-O{0,1,2,3}`/`--format`
// flags (spec.md §6) without depending on any flag-parsing package.
type CompileOptions struct {
	OptLevel    int
	Compression binary.CompressionMethod
}

// Compile lowers tree to IR, optimizes it at opts.OptLevel, and
// serializes it into a complete `.hlxb` artifact, per spec.md §4.6.1-2.
func Compile(tree *ast.HelixAst, opts CompileOptions) ([]byte, error) {
	prog, pool := codegen.Lower(tree)
	codegen.Optimize(prog, pool, opts.OptLevel)
	return binary.Encode(prog, pool, opts.OptLevel, opts.Compression)
}

// LoadedConfig is the zero-copy, mmap-backed view spec.md §4.6.3
// describes over a compiled `.hlxb` artifact.
type LoadedConfig = loader.LoadedConfig

// Load memory-maps the artifact at path and verifies its header and
// checksum, per spec.md §4.6.3. Callers must Close the result.
func Load(path string) (*LoadedConfig, error) {
	return loader.Open(path)
}

// Decompile reconstructs an AST from a compiled artifact's raw bytes,
// per spec.md §4.6.3's round-trip contract (modulo comment loss and the
// two documented, deliberate relaxations recorded in DESIGN.md).
func Decompile(data []byte, fileID string) (*ast.HelixAst, error) {
	return loader.Decompile(data, fileID)
}

// PrettyPrint renders an AST back to canonical `.hlx` source text, per
// spec.md §4.3.
func PrettyPrint(tree *ast.HelixAst, style ast.PrintStyle) string {
	return ast.PrettyPrint(tree, style)
}

// EvalOptions carries the injectable environment/clock/variable context
// spec.md §9's "no global mutable state" requirement calls for; tests
// substitute FrozenEnv/FrozenClock instead of touching the real process
// environment or wall clock.
type EvalOptions struct {
	Vars     map[string]cty.Value
	Env      operator.EnvSource
	Clock    operator.Clock
	Registry *operator.Registry
}

// Evaluate evaluates a single expression against opts's context, per
// spec.md §4.5 and the library surface's `evaluate(expression, context)
// → Value | Error` entry. A nil opts.Env/Clock/Registry defaults to the
// real OS environment, the system clock, and the built-in operator set
// respectively, the same defaults operator.NewContext and
// operator.Default already provide.
func Evaluate(e ast.Expression, fileID string, opts EvalOptions) (cty.Value, error) {
	env := opts.Env
	if env == nil {
		env = operator.OSEnv{}
	}
	clock := opts.Clock
	if clock == nil {
		clock = operator.SystemClock{}
	}
	registry := opts.Registry
	if registry == nil {
		registry = operator.Default()
	}
	ctx := operator.NewContext(opts.Vars, env, clock)
	ev := operator.NewEvaluator(fileID, registry)
	return ev.Evaluate(e, ctx)
}

// BundleOptions controls Bundle's concurrency and the optimization
// level applied to the merged program, per spec.md §5.
type BundleOptions struct {
	OptLevel   int
	NumWorkers int
}

// Bundle compiles every `.hlx` file under dir into one merged IR
// program using the parallel-map/serial-merge pattern spec.md §5
// mandates, then serializes the result as Compile does, always without
// compression (binary.CompressionNone).
//
// Grounded on original_source/src/types.rs's HelixLoader::load_directory
// plus merge_configs, re-expressed over IR rather than Configuration so
// the merged artifact's string pool and declaration order are exactly
// what a single compiled file's would be.
func Bundle(ctx context.Context, dir string, opts BundleOptions) ([]byte, hlxerr.Diagnostics, error) {
	paths, err := bundler.CollectSources(dir)
	if err != nil {
		return nil, nil, err
	}
	prog, pool, diags, err := bundler.Bundle(ctx, paths, opts.OptLevel, opts.NumWorkers)
	if err != nil {
		return nil, diags, err
	}
	data, err := binary.Encode(prog, pool, opts.OptLevel, binary.CompressionNone)
	return data, diags, err
}
