package operator

import (
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/hlxerr"
	"github.com/helixlang/hlx/internal/value"
)

// Evaluator walks an ast.Expression tree, resolving every deferred node
// (AtOperatorCall, EnvRef, MemoryRef, VariableExpr, VariableMarker,
// SectionReference) against a Registry and a Context, per spec.md
// §4.5's "Expression evaluation walks the expression tree" contract.
type Evaluator struct {
	Registry *Registry
	FileID   string
}

// NewEvaluator builds an Evaluator over registry for diagnostics
// anchored against fileID.
func NewEvaluator(fileID string, registry *Registry) *Evaluator {
	return &Evaluator{Registry: registry, FileID: fileID}
}

// Evaluate reduces e to a concrete value.Value under ctx, or returns an
// EvaluationError. It fails fast on the first error, per spec.md §7.
func (ev *Evaluator) Evaluate(e ast.Expression, ctx *Context) (cty.Value, error) {
	switch n := e.(type) {
	case *ast.NullLit:
		return value.Null(), nil
	case *ast.BoolLit:
		return value.Bool(n.Value), nil
	case *ast.NumberLit:
		return value.Number(n.Value), nil
	case *ast.StringLit:
		return ev.evalInterpolatedString(n, ctx)
	case *ast.DurationLit:
		return value.Duration(n.Millis()), nil
	case *ast.IdentifierExpr:
		return value.String(n.Name), nil
	case *ast.ArrayLit:
		elems := make([]cty.Value, len(n.Elements))
		for i, el := range n.Elements {
			v, err := ev.Evaluate(el, ctx)
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = v
		}
		return value.Array(elems), nil
	case *ast.ObjectLit:
		fields := make(map[string]cty.Value, len(n.Entries))
		for _, entry := range n.Entries {
			v, err := ev.Evaluate(entry.Value, ctx)
			if err != nil {
				return cty.NilVal, err
			}
			fields[entry.Key] = v
		}
		return value.Object(fields), nil
	case *ast.VariableExpr:
		return ev.evalVariable(n.Name, n, ctx)
	case *ast.VariableMarker:
		return ev.evalVariable(n.Name, n, ctx)
	case *ast.EnvRef:
		return ev.evalEnvRef(n, ctx)
	case *ast.MemoryRef:
		v, ok := ctx.Memory.Load(n.Path)
		if !ok {
			return cty.NilVal, evalErr(ev.FileID, n.Loc(), hlxerr.CodeEvalBadArgs,
				"no value stored in memory at %q", n.Path)
		}
		return v, nil
	case *ast.SectionReference:
		// A SectionReference names a declaration, not a value the
		// expression evaluator can produce in isolation: resolving it
		// to a Configuration value is internal/config's job, given the
		// full AST. Evaluated standalone (e.g. under `evaluate(expr,
		// ctx)` with no surrounding Configuration) it reduces to the
		// section/property path as a string.
		path := n.Section
		if n.Property != "" {
			path += "." + n.Property
		}
		return value.String(path), nil
	case *ast.BinaryExpr:
		return ev.evalBinary(n, ctx)
	case *ast.UnaryExpr:
		return ev.evalUnary(n, ctx)
	case *ast.PipelineExpr:
		return value.Array(stagesToValues(n.Stages)), nil
	case *ast.AtOperatorCall:
		return ev.evalAtCall(n, ctx)
	default:
		return cty.NilVal, evalErr(ev.FileID, e.Loc(), hlxerr.CodeEvalUnknownOp,
			"no evaluation rule for expression of type %T", e)
	}
}

func stagesToValues(stages []string) []cty.Value {
	out := make([]cty.Value, len(stages))
	for i, s := range stages {
		out[i] = value.String(s)
	}
	return out
}

// evalInterpolatedString resolves any `$NAME` occurrences inside a
// string literal eagerly, per spec.md §4.5's "for $NAME inside a string
// expression, resolution is eager at evaluation time." Strings with no
// `$` are returned unchanged without touching the context, and a bare
// `$_` is kept literally as `@array.map`'s element placeholder.
func (ev *Evaluator) evalInterpolatedString(n *ast.StringLit, ctx *Context) (cty.Value, error) {
	if !strings.Contains(n.Value, "$") {
		return value.String(n.Value), nil
	}
	var b strings.Builder
	s := n.Value
	for {
		i := strings.IndexByte(s, '$')
		if i < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:i])
		rest := s[i+1:]
		j := 0
		for j < len(rest) && isIdentByte(rest[j]) {
			j++
		}
		if j == 0 || rest[:j] == "_" {
			b.WriteByte('$')
			s = rest
			continue
		}
		name := rest[:j]
		v, err := ev.evalVariable(name, n, ctx)
		if err != nil {
			return cty.NilVal, err
		}
		b.WriteString(value.ToString(v))
		s = rest[j:]
	}
	return value.String(b.String()), nil
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (ev *Evaluator) evalVariable(name string, e ast.Expression, ctx *Context) (cty.Value, error) {
	if v, ok := ctx.Lookup(name); ok {
		return v, nil
	}
	return cty.NilVal, evalErr(ev.FileID, e.Loc(), hlxerr.CodeEvalEnvMissing,
		"undefined variable %q: not found in runtime context or process environment", name)
}

// evalEnvRef implements `@env[NAME]` / `@env(NAME, default)`, treated
// as fully equivalent per SPEC_FULL.md §E and spec.md §9's open
// question on the two syntaxes.
func (ev *Evaluator) evalEnvRef(n *ast.EnvRef, ctx *Context) (cty.Value, error) {
	if v, ok := ctx.Lookup(n.Name); ok {
		return v, nil
	}
	if n.Default != nil {
		return ev.Evaluate(n.Default, ctx)
	}
	return cty.NilVal, evalErr(ev.FileID, n.Loc(), hlxerr.CodeEvalEnvMissing,
		"environment variable %q is not set and no default was given", n.Name)
}

func (ev *Evaluator) evalUnary(n *ast.UnaryExpr, ctx *Context) (cty.Value, error) {
	v, err := ev.Evaluate(n.Operand, ctx)
	if err != nil {
		return cty.NilVal, err
	}
	switch n.Op {
	case ast.Neg:
		if value.IsDuration(v) {
			ms, _ := value.AsDuration(v)
			return value.Duration(-ms), nil
		}
		if v.Type() != cty.Number {
			return cty.NilVal, evalErr(ev.FileID, n.Loc(), hlxerr.CodeEvalBadArgs,
				"unary - requires a number or duration, got %s", value.Kind(v))
		}
		f, _ := v.AsBigFloat().Float64()
		return value.Number(-f), nil
	default:
		return cty.NilVal, evalErr(ev.FileID, n.Loc(), hlxerr.CodeEvalUnknownOp, "unknown unary operator")
	}
}

// evalBinary implements spec.md §4.5's expression-evaluation rules:
// `+` on (String,_) or (_,String) concatenates with the non-string side
// converted via to_string; Duration+Duration is permitted arithmetic;
// Duration+Number requires an explicit unit operator, which HLX has no
// syntax for, so it is always an error.
func (ev *Evaluator) evalBinary(n *ast.BinaryExpr, ctx *Context) (cty.Value, error) {
	l, err := ev.Evaluate(n.Left, ctx)
	if err != nil {
		return cty.NilVal, err
	}
	r, err := ev.Evaluate(n.Right, ctx)
	if err != nil {
		return cty.NilVal, err
	}

	if n.Op == ast.Concat {
		return value.String(value.ToString(l) + value.ToString(r)), nil
	}

	lStr, rStr := l.Type() == cty.String, r.Type() == cty.String
	if n.Op == ast.Add && (lStr || rStr) {
		return value.String(value.ToString(l) + value.ToString(r)), nil
	}

	lDur, rDur := value.IsDuration(l), value.IsDuration(r)
	if lDur || rDur {
		if !lDur || !rDur {
			return cty.NilVal, evalErr(ev.FileID, n.Loc(), hlxerr.CodeEvalBadArgs,
				"mixing a duration with a plain number requires an explicit unit operator")
		}
		lms, _ := value.AsDuration(l)
		rms, _ := value.AsDuration(r)
		switch n.Op {
		case ast.Add:
			return value.Duration(lms + rms), nil
		case ast.Sub:
			return value.Duration(lms - rms), nil
		default:
			return cty.NilVal, evalErr(ev.FileID, n.Loc(), hlxerr.CodeEvalBadArgs,
				"operator %s is not defined over two durations", n.Op)
		}
	}

	if l.Type() != cty.Number || r.Type() != cty.Number {
		return cty.NilVal, evalErr(ev.FileID, n.Loc(), hlxerr.CodeEvalBadArgs,
			"operator %s requires numbers, got %s and %s", n.Op, value.Kind(l), value.Kind(r))
	}
	lf, _ := l.AsBigFloat().Float64()
	rf, _ := r.AsBigFloat().Float64()
	switch n.Op {
	case ast.Add:
		return value.Number(lf + rf), nil
	case ast.Sub:
		return value.Number(lf - rf), nil
	case ast.Mul:
		return value.Number(lf * rf), nil
	case ast.Div:
		if rf == 0 {
			return cty.NilVal, evalErr(ev.FileID, n.Loc(), hlxerr.CodeEvalDivByZero, "division by zero")
		}
		return value.Number(lf / rf), nil
	default:
		return cty.NilVal, evalErr(ev.FileID, n.Loc(), hlxerr.CodeEvalUnknownOp, "unknown binary operator")
	}
}

// evalAtCall evaluates every positional and named argument, then
// dispatches to the Registry under the composite key `name` or
// `name.member`.
func (ev *Evaluator) evalAtCall(n *ast.AtOperatorCall, ctx *Context) (cty.Value, error) {
	positional := make([]cty.Value, len(n.Positional))
	for i, arg := range n.Positional {
		v, err := ev.Evaluate(arg, ctx)
		if err != nil {
			return cty.NilVal, err
		}
		positional[i] = v
	}
	named := make(map[string]cty.Value, len(n.Named))
	for _, arg := range n.Named {
		v, err := ev.Evaluate(arg.Value, ctx)
		if err != nil {
			return cty.NilVal, err
		}
		named[arg.Key] = v
	}

	key := n.Name
	if n.Member != "" {
		key = n.Name + "." + n.Member
	}
	fn, ok := ev.Registry.Lookup(key)
	if !ok {
		return cty.NilVal, evalErr(ev.FileID, n.Loc(), hlxerr.CodeEvalUnknownOp,
			"unknown operator @%s", key)
	}
	v, err := fn(ctx, positional, named)
	if err != nil {
		if _, isDiag := err.(*hlxerr.Diagnostic); isDiag {
			return cty.NilVal, err
		}
		code := hlxerr.CodeEvalBadArgs
		switch err.(type) {
		case *divByZeroError:
			code = hlxerr.CodeEvalDivByZero
		case *jsonError:
			code = hlxerr.CodeEvalJSON
		case *indexRangeError:
			code = hlxerr.CodeEvalIndexRange
		}
		return cty.NilVal, evalErr(ev.FileID, n.Loc(), code, "@%s: %v", key, err)
	}
	return v, nil
}
