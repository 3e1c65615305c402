package codegen

import (
	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/token"
)

// Lower flattens a validated ast.HelixAst into the IR spec.md §4.6.1
// describes, interning every string it encounters (names, keys, string
// literal contents) into the returned StringPool. tree is expected to
// have already passed through internal/semantic, so EnvRef/MemoryRef/
// SectionReference nodes are already in their resolved shape.
func Lower(tree *ast.HelixAst) (*Program, *StringPool) {
	l := &lowerer{pool: NewStringPool()}
	prog := &Program{FileID: tree.Header.FileID}
	for _, d := range tree.Declarations {
		prog.Decls = append(prog.Decls, l.lowerDecl(d))
	}
	return prog, l.pool
}

type lowerer struct {
	pool *StringPool
}

func (l *lowerer) lowerDecl(d *ast.Declaration) *Decl {
	out := &Decl{
		Kind:     d.Kind,
		SymbolID: l.pool.Intern(d.QualifiedName()),
		NameID:   l.pool.Intern(d.Name),
		Name:     d.Name,
	}
	for _, prop := range d.Properties {
		out.Props = append(out.Props, Prop{
			KeyID: l.pool.Intern(prop.Key),
			Key:   prop.Key,
			Value: l.lowerExpr(prop.Value),
		})
	}
	return out
}

// lowerExpr reduces every ast.Expression variant to one of the 11
// value_tag shapes spec.md §4.6.2 defines, per the reuse mapping
// documented on AtCallExpr/BinaryExpr/ArrayExpr/VariableExpr in ir.go:
// SectionReference and MemoryRef become AtCallExpr (tag 7), UnaryExpr
// becomes a synthetic BinaryExpr (tag 8), and PipelineExpr becomes an
// ArrayExpr of StringExpr stage names (tag 5).
func (l *lowerer) lowerExpr(e ast.Expression) Expr {
	switch n := e.(type) {
	case *ast.NullLit:
		return NullExpr{}
	case *ast.BoolLit:
		return BoolExpr{Value: n.Value}
	case *ast.NumberLit:
		return NumberExpr{Value: n.Value}
	case *ast.StringLit:
		return StringExpr{ID: l.pool.Intern(n.Value)}
	case *ast.IdentifierExpr:
		return StringExpr{ID: l.pool.Intern(n.Name)}
	case *ast.DurationLit:
		return DurationExpr{Millis: n.Millis(), Unit: uint8(n.Unit)}
	case *ast.ArrayLit:
		elems := make([]Expr, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = l.lowerExpr(el)
		}
		return ArrayExpr{Elements: elems}
	case *ast.ObjectLit:
		fields := make([]ObjectField, len(n.Entries))
		for i, entry := range n.Entries {
			fields[i] = ObjectField{KeyID: l.pool.Intern(entry.Key), Value: l.lowerExpr(entry.Value)}
		}
		return ObjectExpr{Fields: fields}
	case *ast.VariableExpr:
		return VariableExpr{NameID: l.pool.Intern(n.Name), Lazy: false}
	case *ast.VariableMarker:
		return VariableExpr{NameID: l.pool.Intern(n.Name), Lazy: true}
	case *ast.EnvRef:
		var def Expr
		if n.Default != nil {
			def = l.lowerExpr(n.Default)
		}
		return EnvRefExpr{NameID: l.pool.Intern(n.Name), Default: def}
	case *ast.MemoryRef:
		return AtCallExpr{
			NameID:     l.pool.Intern("memory"),
			MemberID:   l.pool.Intern("load"),
			HasMember:  true,
			Positional: []Expr{StringExpr{ID: l.pool.Intern(n.Path)}},
		}
	case *ast.SectionReference:
		positional := []Expr{}
		if n.Key != nil {
			positional = append(positional, l.lowerExpr(n.Key))
		}
		call := AtCallExpr{
			NameID:     l.pool.Intern(n.Section),
			Positional: positional,
		}
		if n.Property != "" {
			call.HasMember = true
			call.MemberID = l.pool.Intern(n.Property)
		}
		return call
	case *ast.BinaryExpr:
		return BinaryExpr{Op: n.Op, Left: l.lowerExpr(n.Left), Right: l.lowerExpr(n.Right)}
	case *ast.UnaryExpr:
		// Unary minus has no dedicated wire tag (see ir.go's BinaryExpr
		// doc comment): rewrite `-x` to `0 - x`.
		zero := Expr(NumberExpr{Value: 0})
		return BinaryExpr{Op: ast.Sub, Left: zero, Right: l.lowerExpr(n.Operand)}
	case *ast.PipelineExpr:
		elems := make([]Expr, len(n.Stages))
		for i, stage := range n.Stages {
			elems[i] = StringExpr{ID: l.pool.Intern(stage)}
		}
		return ArrayExpr{Elements: elems}
	case *ast.AtOperatorCall:
		positional := make([]Expr, len(n.Positional))
		for i, arg := range n.Positional {
			positional[i] = l.lowerExpr(arg)
		}
		named := make([]NamedArg, len(n.Named))
		for i, arg := range n.Named {
			named[i] = NamedArg{NameID: l.pool.Intern(arg.Key), Value: l.lowerExpr(arg.Value)}
		}
		call := AtCallExpr{
			NameID:     l.pool.Intern(n.Name),
			Positional: positional,
			Named:      named,
		}
		if n.Member != "" {
			call.HasMember = true
			call.MemberID = l.pool.Intern(n.Member)
		}
		return call
	default:
		// Every Expression variant above is exhaustive over ast.go's
		// current set; an unrecognized node lowers to Null rather than
		// panicking, matching how a malformed or future node should
		// degrade through codegen rather than crash it.
		return NullExpr{}
	}
}

// unitFromByte is the inverse of DurationExpr.Unit, used by the
// decompiler to reconstruct an ast.DurationLit.
func unitFromByte(b uint8) token.TimeUnit {
	return token.TimeUnit(b)
}
