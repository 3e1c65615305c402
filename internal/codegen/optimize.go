package codegen

import "github.com/helixlang/hlx/internal/ast"

// sideEffecting names the operator keys spec.md §4.6.1 requires stay
// opaque to constant folding at every optimization level: `@env`,
// `@date.now`, `@memory.*`, and `@sys.exec` observe or mutate state
// outside the expression tree, so folding them would change observable
// evaluation semantics.
var sideEffecting = map[string]bool{
	"env":         true,
	"date.now":    true,
	"memory.get":  true,
	"memory.set":  true,
	"memory.load": true,
	"memory.store": true,
	"sys.exec":    true,
}

func callKey(c AtCallExpr, pool *StringPool) string {
	name, _ := pool.Get(c.NameID)
	if !c.HasMember {
		return name
	}
	member, _ := pool.Get(c.MemberID)
	return name + "." + member
}

// Optimize rewrites prog in place per spec.md §4.6.1's O0-O3 cascade,
// the literal level dispatch original_source/compiler/main.rs's
// Compiler.optimize_binary lays out (each level additive over the
// last), with every stage's actual transform filled in against
// spec.md's rules rather than that prototype's empty stubs.
func Optimize(prog *Program, pool *StringPool, level int) {
	if level <= 0 {
		return
	}
	foldConstants(prog, pool)
	eliminateDeadCode(prog)
	if level <= 1 {
		return
	}
	dedupeStrings(prog, pool)
	eliminateCommonSubexpressions(prog)
	inlineSingleUseAliases(prog)
	if level <= 2 {
		return
	}
	flattenReferences(prog, pool)
	packLayout(prog)
}

// foldConstants implements O1's "constant folding on numeric and
// boolean binary ops": a BinaryExpr whose operands are both literals
// (after recursively folding their subtrees) reduces to the literal
// result. Anything touching a side-effecting AtCallExpr, including
// indirectly since an argument may itself fold to one, is left
// untouched by returning the node unchanged rather than descending
// into it.
func foldConstants(prog *Program, pool *StringPool) {
	for _, d := range prog.Decls {
		for i := range d.Props {
			d.Props[i].Value = foldExpr(d.Props[i].Value, pool)
		}
	}
}

func foldExpr(e Expr, pool *StringPool) Expr {
	switch n := e.(type) {
	case BinaryExpr:
		left := foldExpr(n.Left, pool)
		right := foldExpr(n.Right, pool)
		if lv, ok := left.(NumberExpr); ok {
			if rv, ok := right.(NumberExpr); ok {
				if folded, ok := foldNumeric(n.Op, lv.Value, rv.Value); ok {
					return NumberExpr{Value: folded}
				}
			}
		}
		if lv, ok := left.(DurationExpr); ok {
			if rv, ok := right.(DurationExpr); ok {
				switch n.Op {
				case ast.Add:
					return DurationExpr{Millis: lv.Millis + rv.Millis, Unit: lv.Unit}
				case ast.Sub:
					return DurationExpr{Millis: lv.Millis - rv.Millis, Unit: lv.Unit}
				}
			}
		}
		return BinaryExpr{Op: n.Op, Left: left, Right: right}
	case ArrayExpr:
		elems := make([]Expr, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = foldExpr(el, pool)
		}
		return ArrayExpr{Elements: elems}
	case ObjectExpr:
		fields := make([]ObjectField, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = ObjectField{KeyID: f.KeyID, Value: foldExpr(f.Value, pool)}
		}
		return ObjectExpr{Fields: fields}
	case AtCallExpr:
		if sideEffecting[callKey(n, pool)] {
			return n
		}
		positional := make([]Expr, len(n.Positional))
		for i, p := range n.Positional {
			positional[i] = foldExpr(p, pool)
		}
		named := make([]NamedArg, len(n.Named))
		for i, a := range n.Named {
			named[i] = NamedArg{NameID: a.NameID, Value: foldExpr(a.Value, pool)}
		}
		return AtCallExpr{NameID: n.NameID, MemberID: n.MemberID, HasMember: n.HasMember, Positional: positional, Named: named}
	default:
		return e
	}
}

func foldNumeric(op ast.BinaryOperator, l, r float64) (float64, bool) {
	switch op {
	case ast.Add:
		return l + r, true
	case ast.Sub:
		return l - r, true
	case ast.Mul:
		return l * r, true
	case ast.Div:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	default:
		return 0, false
	}
}

// eliminateDeadCode implements O1's "dead-code elimination of
// unreferenced sections not reachable from any declared entrypoint":
// a declaration is reachable if it is a well-known entrypoint kind
// (project, workflow, agent, crew, task, context, memory, pipeline: every
// typed kind spec.md §3 defines, since any of them may be the root a
// caller evaluates) or is referenced via an AtCallExpr/SectionReference
// from a reachable declaration's properties.
func eliminateDeadCode(prog *Program) {
	byName := make(map[string]*Decl, len(prog.Decls))
	for _, d := range prog.Decls {
		byName[d.Name] = d
	}
	reachable := make(map[string]bool, len(prog.Decls))
	var visit func(d *Decl)
	visit = func(d *Decl) {
		if d == nil || reachable[d.Name] {
			return
		}
		reachable[d.Name] = true
		for _, p := range d.Props {
			walkRefs(p.Value, func(name string) {
				visit(byName[name])
			})
		}
	}
	for _, d := range prog.Decls {
		if d.Kind != ast.DeclSection {
			visit(d)
		}
	}
	kept := make([]*Decl, 0, len(prog.Decls))
	for _, d := range prog.Decls {
		if reachable[d.Name] {
			kept = append(kept, d)
		}
	}
	prog.Decls = kept
}

// walkRefs calls fn with every bare section name an AtCallExpr mentions
// as its callee (the shape SectionReference lowers to; see lower.go).
func walkRefs(e Expr, fn func(name string)) {
	switch n := e.(type) {
	case AtCallExpr:
		for _, p := range n.Positional {
			walkRefs(p, fn)
		}
		for _, a := range n.Named {
			walkRefs(a.Value, fn)
		}
	case ArrayExpr:
		for _, el := range n.Elements {
			walkRefs(el, fn)
		}
	case ObjectExpr:
		for _, f := range n.Fields {
			walkRefs(f.Value, fn)
		}
	case BinaryExpr:
		walkRefs(n.Left, fn)
		walkRefs(n.Right, fn)
	}
}

// dedupeStrings implements O2's "string interning across the pool":
// after dead-code elimination some pool entries may no longer be
// referenced by any surviving Decl; this rebuilds the pool from only
// the strings actually reachable and remaps every StringExpr/NameID in
// place.
func dedupeStrings(prog *Program, pool *StringPool) {
	used := make(map[uint32]bool)
	mark := func(id uint32) { used[id] = true }
	for _, d := range prog.Decls {
		mark(d.SymbolID)
		mark(d.NameID)
		for _, p := range d.Props {
			mark(p.KeyID)
			markExprStrings(p.Value, mark)
		}
	}
	live := make([]string, 0, len(used))
	order := make([]uint32, 0, len(used))
	for id := range used {
		order = append(order, id)
	}
	// Stable order: ascending id, so the rebuilt pool is deterministic.
	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			if order[j] < order[i] {
				order[i], order[j] = order[j], order[i]
			}
		}
	}
	for _, id := range order {
		s, _ := pool.Get(id)
		live = append(live, s)
	}
	remap := pool.Rebuild(live)
	for _, d := range prog.Decls {
		d.SymbolID = remap[d.SymbolID]
		d.NameID = remap[d.NameID]
		for i := range d.Props {
			d.Props[i].KeyID = remap[d.Props[i].KeyID]
			d.Props[i].Value = remapExprStrings(d.Props[i].Value, remap)
		}
	}
}

func markExprStrings(e Expr, mark func(uint32)) {
	switch n := e.(type) {
	case StringExpr:
		mark(n.ID)
	case VariableExpr:
		mark(n.NameID)
	case EnvRefExpr:
		mark(n.NameID)
		if n.Default != nil {
			markExprStrings(n.Default, mark)
		}
	case ArrayExpr:
		for _, el := range n.Elements {
			markExprStrings(el, mark)
		}
	case ObjectExpr:
		for _, f := range n.Fields {
			mark(f.KeyID)
			markExprStrings(f.Value, mark)
		}
	case AtCallExpr:
		mark(n.NameID)
		if n.HasMember {
			mark(n.MemberID)
		}
		for _, p := range n.Positional {
			markExprStrings(p, mark)
		}
		for _, a := range n.Named {
			mark(a.NameID)
			markExprStrings(a.Value, mark)
		}
	case BinaryExpr:
		markExprStrings(n.Left, mark)
		markExprStrings(n.Right, mark)
	}
}

func remapExprStrings(e Expr, remap map[uint32]uint32) Expr {
	switch n := e.(type) {
	case StringExpr:
		return StringExpr{ID: remap[n.ID]}
	case VariableExpr:
		return VariableExpr{NameID: remap[n.NameID], Lazy: n.Lazy}
	case EnvRefExpr:
		out := EnvRefExpr{NameID: remap[n.NameID]}
		if n.Default != nil {
			out.Default = remapExprStrings(n.Default, remap)
		}
		return out
	case ArrayExpr:
		elems := make([]Expr, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = remapExprStrings(el, remap)
		}
		return ArrayExpr{Elements: elems}
	case ObjectExpr:
		fields := make([]ObjectField, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = ObjectField{KeyID: remap[f.KeyID], Value: remapExprStrings(f.Value, remap)}
		}
		return ObjectExpr{Fields: fields}
	case AtCallExpr:
		positional := make([]Expr, len(n.Positional))
		for i, p := range n.Positional {
			positional[i] = remapExprStrings(p, remap)
		}
		named := make([]NamedArg, len(n.Named))
		for i, a := range n.Named {
			named[i] = NamedArg{NameID: remap[a.NameID], Value: remapExprStrings(a.Value, remap)}
		}
		out := AtCallExpr{NameID: remap[n.NameID], Positional: positional, Named: named, HasMember: n.HasMember}
		if n.HasMember {
			out.MemberID = remap[n.MemberID]
		}
		return out
	case BinaryExpr:
		return BinaryExpr{Op: n.Op, Left: remapExprStrings(n.Left, remap), Right: remapExprStrings(n.Right, remap)}
	default:
		return e
	}
}

// eliminateCommonSubexpressions implements O2's CSE "inside
// expressions": within a single property's expression tree, two
// structurally identical AtCallExpr subtrees with no side effects
// collapse to the first occurrence, keyed by a textual signature.
func eliminateCommonSubexpressions(prog *Program) {
	for _, d := range prog.Decls {
		for i := range d.Props {
			seen := make(map[string]Expr)
			d.Props[i].Value = cseExpr(d.Props[i].Value, seen)
		}
	}
}

func cseExpr(e Expr, seen map[string]Expr) Expr {
	switch n := e.(type) {
	case AtCallExpr:
		positional := make([]Expr, len(n.Positional))
		for i, p := range n.Positional {
			positional[i] = cseExpr(p, seen)
		}
		named := make([]NamedArg, len(n.Named))
		for i, a := range n.Named {
			named[i] = NamedArg{NameID: a.NameID, Value: cseExpr(a.Value, seen)}
		}
		folded := AtCallExpr{NameID: n.NameID, MemberID: n.MemberID, HasMember: n.HasMember, Positional: positional, Named: named}
		sig := exprSignature(folded)
		if prior, ok := seen[sig]; ok {
			return prior
		}
		seen[sig] = folded
		return folded
	case BinaryExpr:
		return BinaryExpr{Op: n.Op, Left: cseExpr(n.Left, seen), Right: cseExpr(n.Right, seen)}
	case ArrayExpr:
		elems := make([]Expr, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = cseExpr(el, seen)
		}
		return ArrayExpr{Elements: elems}
	default:
		return e
	}
}

// exprSignature is a cheap structural fingerprint, good enough for an
// in-process dedup key (not a content hash used across compilations).
func exprSignature(e Expr) string {
	switch n := e.(type) {
	case NullExpr:
		return "null"
	case BoolExpr:
		if n.Value {
			return "b:1"
		}
		return "b:0"
	case NumberExpr:
		return "n:" + float64Key(n.Value)
	case StringExpr:
		return "s:" + uint32Key(n.ID)
	case DurationExpr:
		return "d:" + int64Key(n.Millis)
	case VariableExpr:
		return "v:" + uint32Key(n.NameID)
	case EnvRefExpr:
		return "e:" + uint32Key(n.NameID)
	case ArrayExpr:
		sig := "a["
		for _, el := range n.Elements {
			sig += exprSignature(el) + ","
		}
		return sig + "]"
	case ObjectExpr:
		sig := "o{"
		for _, f := range n.Fields {
			sig += uint32Key(f.KeyID) + ":" + exprSignature(f.Value) + ","
		}
		return sig + "}"
	case AtCallExpr:
		sig := "c:" + uint32Key(n.NameID) + "." + uint32Key(n.MemberID) + "("
		for _, p := range n.Positional {
			sig += exprSignature(p) + ","
		}
		for _, a := range n.Named {
			sig += uint32Key(a.NameID) + "=" + exprSignature(a.Value) + ","
		}
		return sig + ")"
	case BinaryExpr:
		return "(" + exprSignature(n.Left) + opKey(n.Op) + exprSignature(n.Right) + ")"
	default:
		return "?"
	}
}

func opKey(op ast.BinaryOperator) string { return op.String() }

func uint32Key(v uint32) string  { return itoa64(int64(v)) }
func int64Key(v int64) string    { return itoa64(v) }
func float64Key(v float64) string {
	return itoa64(int64(v * 1e6))
}

// itoa64 avoids pulling in strconv purely for a dedup key; the exact
// textual form doesn't matter, only that distinct ints map to distinct
// strings.
func itoa64(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// inlineSingleUseAliases implements O2's "inlining of single-use
// identifier aliases": a declaration property whose value is exactly a
// bare VariableExpr referencing another property on the same
// declaration, and that alias property is used nowhere else in the
// declaration, is replaced by the aliased property's value directly.
func inlineSingleUseAliases(prog *Program) {
	for _, d := range prog.Decls {
		byKey := make(map[uint32]Expr, len(d.Props))
		for _, p := range d.Props {
			byKey[p.KeyID] = p.Value
		}
		for i, p := range d.Props {
			d.Props[i].Value = inlineAliasExpr(p.Value, d, byKey)
		}
	}
}

func inlineAliasExpr(e Expr, d *Decl, byKey map[uint32]Expr) Expr {
	v, ok := e.(VariableExpr)
	if !ok || v.Lazy {
		return e
	}
	// A variable alias only inlines when its name matches another
	// property's key id on the same declaration; otherwise it is a
	// genuine runtime-context reference, left untouched.
	target, ok := byKey[v.NameID]
	if !ok {
		return e
	}
	if usesCount(d, v.NameID) > 1 {
		return e
	}
	return target
}

func usesCount(d *Decl, nameID uint32) int {
	n := 0
	for _, p := range d.Props {
		countUses(p.Value, nameID, &n)
	}
	return n
}

func countUses(e Expr, nameID uint32, n *int) {
	switch v := e.(type) {
	case VariableExpr:
		if v.NameID == nameID {
			*n++
		}
	case ArrayExpr:
		for _, el := range v.Elements {
			countUses(el, nameID, n)
		}
	case ObjectExpr:
		for _, f := range v.Fields {
			countUses(f.Value, nameID, n)
		}
	case AtCallExpr:
		for _, p := range v.Positional {
			countUses(p, nameID, n)
		}
		for _, a := range v.Named {
			countUses(a.Value, nameID, n)
		}
	case BinaryExpr:
		countUses(v.Left, nameID, n)
		countUses(v.Right, nameID, n)
	}
}

// flattenReferences implements O3's "whole-program reference
// flattening": an AtCallExpr shaped like a SectionReference (see
// lower.go) whose target declaration's named property is itself a
// literal resolves to that literal directly, eliding the indirection.
func flattenReferences(prog *Program, pool *StringPool) {
	byName := make(map[string]*Decl, len(prog.Decls))
	for _, d := range prog.Decls {
		byName[d.Name] = d
	}
	for _, d := range prog.Decls {
		for i := range d.Props {
			d.Props[i].Value = flattenExpr(d.Props[i].Value, pool, byName)
		}
	}
}

func flattenExpr(e Expr, pool *StringPool, byName map[string]*Decl) Expr {
	switch n := e.(type) {
	case AtCallExpr:
		// lower.go puts the referenced declaration's name in the single
		// positional argument; NameID holds the section kind.
		var key StringExpr
		isKey := len(n.Positional) == 1
		if isKey {
			key, isKey = n.Positional[0].(StringExpr)
		}
		if n.HasMember && isKey && len(n.Named) == 0 {
			name, _ := pool.Get(key.ID)
			member, _ := pool.Get(n.MemberID)
			if target, ok := byName[name]; ok {
				for _, p := range target.Props {
					if k, _ := pool.Get(p.KeyID); k == member {
						if isLiteral(p.Value) {
							return p.Value
						}
					}
				}
			}
		}
		positional := make([]Expr, len(n.Positional))
		for i, p := range n.Positional {
			positional[i] = flattenExpr(p, pool, byName)
		}
		named := make([]NamedArg, len(n.Named))
		for i, a := range n.Named {
			named[i] = NamedArg{NameID: a.NameID, Value: flattenExpr(a.Value, pool, byName)}
		}
		return AtCallExpr{NameID: n.NameID, MemberID: n.MemberID, HasMember: n.HasMember, Positional: positional, Named: named}
	case BinaryExpr:
		return BinaryExpr{Op: n.Op, Left: flattenExpr(n.Left, pool, byName), Right: flattenExpr(n.Right, pool, byName)}
	case ArrayExpr:
		elems := make([]Expr, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = flattenExpr(el, pool, byName)
		}
		return ArrayExpr{Elements: elems}
	default:
		return e
	}
}

func isLiteral(e Expr) bool {
	switch e.(type) {
	case NullExpr, BoolExpr, NumberExpr, StringExpr, DurationExpr:
		return true
	default:
		return false
	}
}

// packLayout implements O3's "array/object layout packing": object
// fields are sorted by key id so structurally-equal objects compile to
// byte-identical property lists regardless of source declaration
// order, improving the binary section's compressibility.
func packLayout(prog *Program) {
	for _, d := range prog.Decls {
		for i := range d.Props {
			d.Props[i].Value = packExpr(d.Props[i].Value)
		}
	}
}

func packExpr(e Expr) Expr {
	switch n := e.(type) {
	case ObjectExpr:
		fields := make([]ObjectField, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = ObjectField{KeyID: f.KeyID, Value: packExpr(f.Value)}
		}
		for i := 0; i < len(fields); i++ {
			for j := i + 1; j < len(fields); j++ {
				if fields[j].KeyID < fields[i].KeyID {
					fields[i], fields[j] = fields[j], fields[i]
				}
			}
		}
		return ObjectExpr{Fields: fields}
	case ArrayExpr:
		elems := make([]Expr, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = packExpr(el)
		}
		return ArrayExpr{Elements: elems}
	default:
		return e
	}
}
