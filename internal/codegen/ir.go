package codegen

import "github.com/helixlang/hlx/internal/ast"

// ValueTag is the one-byte discriminant spec.md §4.6.2's Property table
// enumerates for a Property's value bytes. Expr.Tag() returns one of
// these for every IR expression so internal/binary can write the wire
// form without re-deriving the mapping.
type ValueTag uint8

const (
	TagNull ValueTag = iota
	TagBool
	TagNumber
	TagString
	TagDuration
	TagArray
	TagObject
	TagAtOperatorCall
	TagBinaryOp
	TagVariable
	TagEnvRef
)

// lazyBit is OR'd into TagVariable's wire byte to distinguish a
// lazily-resolved `!NAME!` VariableMarker from an eagerly-resolved
// `$NAME` VariableExpr: spec.md §4.6.2's value_tag table defines 11
// tags (0-10) out of a full byte's range, and gives both expression
// shapes the same (u32 name_id) payload, so the spare high bit carries
// the one piece of information the table's tag alone can't: whether
// resolution is eager or deferred. Decoding masks it off before
// comparing against the ValueTag constants above.
const lazyBit ValueTag = 0x80

// Expr is the IR's compact expression sum, "matching source
// expressions" per spec.md §4.6.1.
type Expr interface {
	Tag() ValueTag
}

type NullExpr struct{}

func (NullExpr) Tag() ValueTag { return TagNull }

type BoolExpr struct{ Value bool }

func (BoolExpr) Tag() ValueTag { return TagBool }

type NumberExpr struct{ Value float64 }

func (NumberExpr) Tag() ValueTag { return TagNumber }

// StringExpr holds an id into the Program's StringPool, never the raw
// text, so string interning (O2+) is a pool-level rewrite rather than a
// per-expression one.
type StringExpr struct{ ID uint32 }

func (StringExpr) Tag() ValueTag { return TagString }

// DurationExpr carries the canonical millisecond count plus the
// original unit, so the decompiler can restore "30m" rather than
// "1800000ms" (spec.md §8 scenario 2).
type DurationExpr struct {
	Millis int64
	Unit   uint8
}

func (DurationExpr) Tag() ValueTag { return TagDuration }

type ArrayExpr struct{ Elements []Expr }

func (ArrayExpr) Tag() ValueTag { return TagArray }

// ObjectField is one (key_id, value) pair of an ObjectExpr, matching
// the Property table's generic shape reused for nested objects.
type ObjectField struct {
	KeyID uint32
	Value Expr
}

type ObjectExpr struct{ Fields []ObjectField }

func (ObjectExpr) Tag() ValueTag { return TagObject }

// NamedArg is one `name=value` argument of an AtCallExpr.
type NamedArg struct {
	NameID uint32
	Value  Expr
}

// AtCallExpr is the IR shape for every `@name...` form, including a
// SectionReference or MemoryRef the AST carried as its own dedicated
// node: both lower back to this generic call shape (NameID/MemberID set
// to "memory"/"load" or the section/property pair) since spec.md §4.6.2
// gives `@`-calls exactly one wire tag, 7.
type AtCallExpr struct {
	NameID     uint32
	MemberID   uint32 // 0 when there is no member; only HasMember tells that apart from pool id 0
	HasMember  bool
	Positional []Expr
	Named      []NamedArg
}

func (AtCallExpr) Tag() ValueTag { return TagAtOperatorCall }

// BinaryExpr mirrors ast.BinaryExpr. A source ast.UnaryExpr (unary
// minus, the only unary operator spec.md §3 defines) has no dedicated
// wire tag either, so lowering rewrites `-x` to `0 - x` before it
// reaches this type; see lower.go's lowerExpr.
type BinaryExpr struct {
	Op    ast.BinaryOperator
	Left  Expr
	Right Expr
}

func (BinaryExpr) Tag() ValueTag { return TagBinaryOp }

// VariableExpr is `$NAME` (Lazy=false) or `!NAME!` (Lazy=true); see
// lazyBit's doc comment for how the two are told apart on the wire.
type VariableExpr struct {
	NameID uint32
	Lazy   bool
}

func (VariableExpr) Tag() ValueTag { return TagVariable }

// EnvRefExpr is `@env[NAME]` / `@env(NAME, default)`, both forms
// already folded to one shape by internal/semantic's resolve pass.
type EnvRefExpr struct {
	NameID  uint32
	Default Expr // nil if no default was given
}

func (EnvRefExpr) Tag() ValueTag { return TagEnvRef }

// Prop is one (key_id, ir_expr) pair of a Decl, per spec.md §4.6.1.
type Prop struct {
	KeyID uint32
	Key   string // retained for diagnostics and the decompiler; not re-looked-up from the pool at IR level
	Value Expr
}

// Decl is one flattened IR declaration: a kind tag, an interned symbol
// id, and its properties in source order.
type Decl struct {
	Kind     ast.DeclKind
	SymbolID uint32
	NameID   uint32
	Name     string
	Props    []Prop
}

// Program is the whole-file IR: Decl order mirrors ast.HelixAst.Declarations
// order end-to-end, per spec.md §5's ordering guarantee.
type Program struct {
	FileID string
	Decls  []*Decl
}
