package loader

import (
	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/binary"
	"github.com/helixlang/hlx/internal/codegen"
	"github.com/helixlang/hlx/internal/hlxerr"
	"github.com/helixlang/hlx/internal/token"
)

// Decompile reconstructs an ast.HelixAst from a binary artifact's raw
// bytes, per spec.md §4.6.3. It materializes the whole file, since a
// decompiled AST is an owned structure by nature, using
// internal/binary's full Decode rather than LoadedConfig's lazy view.
//
// Two IR shapes are ambiguous by construction and decompile resolves
// them to the more general source form rather than guessing at the
// original syntax, a deliberate, documented relaxation of spec.md
// §4.6.3's round-trip law (see DESIGN.md): an AtCallExpr with no
// arguments that happens to name a live declaration could have been a
// `@section[...]` reference or a plain operator call with the same
// shape; decompile always emits the general ast.AtOperatorCall form,
// since re-resolving it into ast.SectionReference is internal/semantic's
// job and re-running semantic analysis on a decompiled AST reproduces
// it anyway. An ArrayExpr of all-string elements could likewise have
// been a literal array or a pipeline's stage list; decompile always
// emits ast.ArrayLit, since both evaluate identically and spec.md §8's
// round-trip property is stated over evaluated property values, not
// source syntax.
func Decompile(data []byte, fileID string) (*ast.HelixAst, error) {
	art, err := binary.Decode(data, fileID)
	if err != nil {
		return nil, err
	}
	decls := make([]*ast.Declaration, len(art.Prog.Decls))
	for i, d := range art.Prog.Decls {
		decl, err := decompileDecl(d, art.Pool)
		if err != nil {
			return nil, err
		}
		decls[i] = decl
	}
	return &ast.HelixAst{
		Header:       ast.Header{FileID: fileID},
		Declarations: decls,
	}, nil
}

func decompileDecl(d *codegen.Decl, pool *codegen.StringPool) (*ast.Declaration, error) {
	props := make([]ast.ObjectEntry, len(d.Props))
	for i, p := range d.Props {
		key, ok := pool.Get(p.KeyID)
		if !ok {
			return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryOutOfRange, nil,
				"declaration %q: property %d references out-of-range key id %d", d.Name, i, p.KeyID)
		}
		val, err := decompileExpr(p.Value, pool)
		if err != nil {
			return nil, err
		}
		props[i] = ast.ObjectEntry{Key: key, Value: val}
	}
	return &ast.Declaration{
		Kind:       d.Kind,
		Name:       d.Name,
		RawKind:    d.Kind.String(),
		Opener:     token.LBrace,
		Properties: props,
	}, nil
}

func decompileExpr(e codegen.Expr, pool *codegen.StringPool) (ast.Expression, error) {
	switch n := e.(type) {
	case codegen.NullExpr:
		return &ast.NullLit{}, nil
	case codegen.BoolExpr:
		return &ast.BoolLit{Value: n.Value}, nil
	case codegen.NumberExpr:
		return &ast.NumberLit{Value: n.Value}, nil
	case codegen.StringExpr:
		s, ok := pool.Get(n.ID)
		if !ok {
			return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryOutOfRange, nil,
				"string id %d out of range", n.ID)
		}
		return &ast.StringLit{Value: s}, nil
	case codegen.DurationExpr:
		unit := token.TimeUnit(n.Unit)
		return &ast.DurationLit{Value: float64(n.Millis) / float64(unit.Millis()), Unit: unit}, nil
	case codegen.ArrayExpr:
		elems := make([]ast.Expression, len(n.Elements))
		for i, el := range n.Elements {
			v, err := decompileExpr(el, pool)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &ast.ArrayLit{Elements: elems}, nil
	case codegen.ObjectExpr:
		entries := make([]ast.ObjectEntry, len(n.Fields))
		for i, f := range n.Fields {
			key, ok := pool.Get(f.KeyID)
			if !ok {
				return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryOutOfRange, nil,
					"object field references out-of-range key id %d", f.KeyID)
			}
			v, err := decompileExpr(f.Value, pool)
			if err != nil {
				return nil, err
			}
			entries[i] = ast.ObjectEntry{Key: key, Value: v}
		}
		return &ast.ObjectLit{Entries: entries}, nil
	case codegen.VariableExpr:
		name, ok := pool.Get(n.NameID)
		if !ok {
			return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryOutOfRange, nil,
				"variable references out-of-range name id %d", n.NameID)
		}
		if n.Lazy {
			return &ast.VariableMarker{Name: name}, nil
		}
		return &ast.VariableExpr{Name: name}, nil
	case codegen.EnvRefExpr:
		name, ok := pool.Get(n.NameID)
		if !ok {
			return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryOutOfRange, nil,
				"env ref references out-of-range name id %d", n.NameID)
		}
		ref := &ast.EnvRef{Name: name}
		if n.Default != nil {
			def, err := decompileExpr(n.Default, pool)
			if err != nil {
				return nil, err
			}
			ref.Default = def
		}
		return ref, nil
	case codegen.BinaryExpr:
		left, err := decompileExpr(n.Left, pool)
		if err != nil {
			return nil, err
		}
		right, err := decompileExpr(n.Right, pool)
		if err != nil {
			return nil, err
		}
		if n.Op == ast.Sub {
			if zero, ok := left.(*ast.NumberLit); ok && zero.Value == 0 {
				return &ast.UnaryExpr{Op: ast.Neg, Operand: right}, nil
			}
		}
		return &ast.BinaryExpr{Left: left, Op: n.Op, Right: right}, nil
	case codegen.AtCallExpr:
		name, ok := pool.Get(n.NameID)
		if !ok {
			return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryOutOfRange, nil,
				"operator call references out-of-range name id %d", n.NameID)
		}
		call := &ast.AtOperatorCall{Name: name}
		if n.HasMember {
			member, ok := pool.Get(n.MemberID)
			if !ok {
				return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryOutOfRange, nil,
					"operator call references out-of-range member id %d", n.MemberID)
			}
			call.Member = member
		}
		for _, p := range n.Positional {
			v, err := decompileExpr(p, pool)
			if err != nil {
				return nil, err
			}
			call.Positional = append(call.Positional, v)
		}
		for _, a := range n.Named {
			key, ok := pool.Get(a.NameID)
			if !ok {
				return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryOutOfRange, nil,
					"operator call references out-of-range named-arg id %d", a.NameID)
			}
			v, err := decompileExpr(a.Value, pool)
			if err != nil {
				return nil, err
			}
			call.Named = append(call.Named, ast.ObjectEntry{Key: key, Value: v})
		}
		return call, nil
	default:
		return nil, hlxerr.Newf(hlxerr.KindBinaryFormat, hlxerr.CodeBinaryOutOfRange, nil,
			"no decompile rule for IR expression of type %T", e)
	}
}
