// Package ast defines the HLX abstract syntax tree: the Expression sum
// type of spec.md §3, the Declaration variants, and HelixAst itself.
//
// Grounded on original_source/src/types.rs's Expression/Declaration
// enums and their inherent helper methods (to_value, as_object,
// as_number, as_string, as_bool); ast.rs itself was not retrieved by
// the pack, so the node shapes are reconstructed from how parser.rs
// and types.rs construct and match on them.
package ast

import "github.com/helixlang/hlx/internal/token"

// BinaryOperator is the closed set of binary operators spec.md §3 names.
type BinaryOperator int

const (
	Add BinaryOperator = iota
	Sub
	Mul
	Div
	Concat
)

func (op BinaryOperator) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Concat:
		return "++"
	default:
		return "?"
	}
}

// UnaryOperator is the closed set of unary operators.
type UnaryOperator int

const (
	Neg UnaryOperator = iota
)

// Expression is the sum type every HLX value-position node implements.
type Expression interface {
	// Loc returns the source location the expression was parsed from.
	Loc() token.Location
	exprNode()
}

type Base struct {
	Location token.Location
}

func (b Base) Loc() token.Location { return b.Location }
func (Base) exprNode()             {}

// NewBase constructs the embeddable Base every Expression variant
// carries, from a source location.
func NewBase(loc token.Location) Base { return Base{Location: loc} }

// StringLit is a string literal.
type StringLit struct {
	Base
	Value string
}

// NumberLit is a numeric literal (integer or float, both stored as f64
// per spec.md §3).
type NumberLit struct {
	Base
	Value float64
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Base
	Value bool
}

// NullLit is the literal `null`... spec.md's grammar has no lexical
// null keyword, but Null is a first-class Expression variant reachable
// from evaluation (e.g. a missing optional property) and from the
// binary decompiler.
type NullLit struct {
	Base
}

// DurationLit is a numeric literal with a time-unit suffix, e.g. `30m`.
type DurationLit struct {
	Base
	Value float64
	Unit  token.TimeUnit
}

// Millis returns the duration normalized to milliseconds, per spec.md's
// "durations normalize to a canonical unit (milliseconds, i64) for
// comparison but retain their original literal for round-trip" rule.
func (d *DurationLit) Millis() int64 {
	return int64(d.Value * float64(d.Unit.Millis()))
}

// ArrayLit is `[expr, expr, ...]`.
type ArrayLit struct {
	Base
	Elements []Expression
}

// ObjectEntry is one `identifier = expression` pair inside an ObjectLit
// or a Section's Properties, kept in insertion order.
type ObjectEntry struct {
	Key      string
	KeyLoc   token.Location
	Value    Expression
}

// ObjectLit is `{ id = expr, ... }` in expression position. Insertion
// order is preserved per spec.md §3.
type ObjectLit struct {
	Base
	Entries []ObjectEntry
}

// Get returns the value for key and whether it was present.
func (o *ObjectLit) Get(key string) (Expression, bool) {
	for _, e := range o.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// IdentifierExpr is a bare identifier in expression position (e.g. a
// pipeline stage name, or the left-hand side of a yet-unresolved
// section reference).
type IdentifierExpr struct {
	Base
	Name string
}

// VariableExpr is `$NAME`, resolved eagerly at evaluation time.
type VariableExpr struct {
	Base
	Name string
}

// VariableMarker is `!NAME!` (or the bare `NAME!` suffix form at value
// position), resolved lazily: the evaluator defers resolution until
// the expression is actually used, per spec.md §8's "Deferred
// evaluation (!VAR!)" law.
type VariableMarker struct {
	Base
	Name string
}

// EnvRef is `@env[NAME]` / `@env(NAME, default)` reduced specially so
// the semantic analyzer and evaluator can treat environment lookups
// distinctly from general @-operator calls; it is otherwise just sugar
// over AtOperatorCall{Name: "env", ...}. Both the bracket and call
// forms resolve to this node (see SPEC_FULL.md §E).
type EnvRef struct {
	Base
	Name    string
	Default Expression // nil if no default was given
}

// MemoryRef is `@memory[path]` / `@memory.load(path)`, a reference into
// the runtime memory store rather than a stored value.
type MemoryRef struct {
	Base
	Path string
}

// AtOperatorCall is the reduced form of every `@name...` call shape
// spec.md §4.2 lists: `@name`, `@name[key]`, `@name["key"]`,
// `@name(arg1, arg2, named=value)`, `@name.member[key]`.
type AtOperatorCall struct {
	Base
	Name       string
	Member     string // non-empty for `@name.member[...]`
	Positional []Expression
	Named      []ObjectEntry // named arguments, insertion order preserved
}

// BinaryExpr is `left op right`.
type BinaryExpr struct {
	Base
	Left  Expression
	Op    BinaryOperator
	Right Expression
}

// UnaryExpr is `op operand` (currently only unary minus).
type UnaryExpr struct {
	Base
	Op      UnaryOperator
	Operand Expression
}

// PipelineExpr is `identifier -> identifier -> ...`, valid only inside
// a `pipeline { ... }` block.
type PipelineExpr struct {
	Base
	Stages []string
	StageLocs []token.Location
}

// SectionReference is a reference expression of the shape
// `@section_name[...]` / `@section.prop[...]` that the semantic
// analyzer resolves against the symbol table (invariant in spec.md §3).
// It is produced by reducing an AtOperatorCall whose Name matches a
// known section kind during semantic analysis, not by the parser.
type SectionReference struct {
	Base
	Section  string
	Property string // empty if referencing the whole section
	Key      Expression
}
