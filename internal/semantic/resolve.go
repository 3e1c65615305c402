package semantic

import (
	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/hlxerr"
)

// resolveReferences is pass 2. It lowers every AtOperatorCall the
// parser produced into the dedicated EnvRef, MemoryRef, or
// SectionReference variant when its name identifies one of those
// special forms (see ast.go's doc comments on each type; this pass is
// the "semantic analysis" those comments refer to), and verifies that
// every resulting SectionReference and every workflow step's
// depends_on entry resolves against the symbol table pass 1 built.
func resolveReferences(tree *ast.HelixAst, idx *Index) hlxerr.Diagnostics {
	r := &resolver{fileID: tree.Header.FileID, idx: idx}
	for _, d := range tree.Declarations {
		for i := range d.Properties {
			d.Properties[i].Value = r.lower(d.Properties[i].Value)
		}
		if d.Kind == ast.DeclWorkflow {
			r.checkStepDependsOn(d)
		}
	}
	return r.diags
}

type resolver struct {
	fileID string
	idx    *Index
	diags  hlxerr.Diagnostics
}

// lower recurses into every compound expression so nested @-calls
// (e.g. an argument to another call, or a value inside an array/object)
// are lowered too, then reduces the node itself.
func (r *resolver) lower(e ast.Expression) ast.Expression {
	switch n := e.(type) {
	case *ast.ArrayLit:
		for i := range n.Elements {
			n.Elements[i] = r.lower(n.Elements[i])
		}
		return n
	case *ast.ObjectLit:
		for i := range n.Entries {
			n.Entries[i].Value = r.lower(n.Entries[i].Value)
		}
		return n
	case *ast.BinaryExpr:
		n.Left = r.lower(n.Left)
		n.Right = r.lower(n.Right)
		return n
	case *ast.UnaryExpr:
		n.Operand = r.lower(n.Operand)
		return n
	case *ast.AtOperatorCall:
		for i := range n.Positional {
			n.Positional[i] = r.lower(n.Positional[i])
		}
		for i := range n.Named {
			n.Named[i].Value = r.lower(n.Named[i].Value)
		}
		return r.reduceAtCall(n)
	default:
		return e
	}
}

// reduceAtCall implements SPEC_FULL.md §E's decision that `@env[...]`
// and `@env(...)` are fully equivalent, and narrows `@memory[path]` /
// `@memory.load(path)` to MemoryRef while leaving the mutating
// `@memory.store(...)` form as a plain operator call. Any other name
// that matches a known section kind becomes a SectionReference and is
// validated against the symbol table; everything else is left as-is
// for internal/operator to resolve at evaluation time.
func (r *resolver) reduceAtCall(n *ast.AtOperatorCall) ast.Expression {
	switch n.Name {
	case "env":
		name, _ := literalString(firstArg(n))
		var def ast.Expression
		if v, ok := namedArg(n, "default"); ok {
			def = v
		} else if len(n.Positional) >= 2 {
			def = n.Positional[1]
		}
		return &ast.EnvRef{Base: n.Base, Name: name, Default: def}
	case "memory":
		if n.Member == "" || n.Member == "load" {
			path, _ := literalString(firstArg(n))
			return &ast.MemoryRef{Base: n.Base, Path: path}
		}
		return n
	default:
		if _, known := r.idx.BySection[n.Name]; !known {
			return n
		}
		ref := &ast.SectionReference{Base: n.Base, Section: n.Name, Property: n.Member, Key: firstArg(n)}
		r.checkSectionReference(ref)
		return ref
	}
}

func (r *resolver) checkSectionReference(ref *ast.SectionReference) {
	bucket := r.idx.BySection[ref.Section]
	if ref.Key == nil {
		return // whole-section reference with no instance key: nothing more to check here.
	}
	keyName, ok := literalString(ref.Key)
	if !ok {
		return // dynamic key (variable, nested @-call): resolved only at evaluation time.
	}
	if _, found := bucket[keyName]; !found {
		r.diags = append(r.diags, hlxerr.Newf(hlxerr.KindSemantic, hlxerr.CodeSemanticUnresolvedRef,
			rangeOf(r.fileID, ref.Loc()),
			"reference to undeclared %s %q", ref.Section, keyName).WithHint(suggestHint(keyName, sectionNames(bucket))))
	}
}

// checkStepDependsOn validates each step's depends_on names against
// its sibling steps within the same workflow, per spec.md §4.4 pass
// 2's "depends_on entry must resolve."
func (r *resolver) checkStepDependsOn(workflow *ast.Declaration) {
	steps, ok := workflow.Get("step")
	if !ok {
		return
	}
	stepObjs := asObjectList(steps)
	names := map[string]bool{}
	for _, s := range stepObjs {
		if name, ok := s.Get("__name"); ok {
			if s2, ok2 := literalString(name); ok2 {
				names[s2] = true
			}
		}
	}
	for _, s := range stepObjs {
		deps, ok := s.Get("depends_on")
		if !ok {
			continue
		}
		arr, ok := deps.(*ast.ArrayLit)
		if !ok {
			continue
		}
		for _, el := range arr.Elements {
			dep, ok := literalString(el)
			if !ok || names[dep] {
				continue
			}
			keys := make([]string, 0, len(names))
			for k := range names {
				keys = append(keys, k)
			}
			r.diags = append(r.diags, hlxerr.Newf(hlxerr.KindSemantic, hlxerr.CodeSemanticUnresolvedRef,
				rangeOf(r.fileID, el.Loc()),
				"workflow %q step depends on undeclared step %q", workflow.Name, dep).WithHint(suggestHint(dep, keys)))
		}
	}
}

func firstArg(n *ast.AtOperatorCall) ast.Expression {
	if len(n.Positional) == 0 {
		return nil
	}
	return n.Positional[0]
}

func namedArg(n *ast.AtOperatorCall, key string) (ast.Expression, bool) {
	for _, e := range n.Named {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func literalString(e ast.Expression) (string, bool) {
	switch n := e.(type) {
	case *ast.StringLit:
		return n.Value, true
	case *ast.IdentifierExpr:
		return n.Name, true
	default:
		return "", false
	}
}

func asObjectList(e ast.Expression) []*ast.ObjectLit {
	switch n := e.(type) {
	case *ast.ObjectLit:
		return []*ast.ObjectLit{n}
	case *ast.ArrayLit:
		var out []*ast.ObjectLit
		for _, el := range n.Elements {
			if o, ok := el.(*ast.ObjectLit); ok {
				out = append(out, o)
			}
		}
		return out
	default:
		return nil
	}
}

func sectionNames(bucket map[string]*ast.Declaration) []string {
	names := make([]string, 0, len(bucket))
	for k := range bucket {
		names = append(names, k)
	}
	return names
}

// suggestHint implements spec.md §7's "did you mean `senior-engineer`?"
// requirement via plain Levenshtein edit distance against candidates.
func suggestHint(name string, candidates []string) string {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		d := levenshtein(name, c)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}
	if best == "" || bestDist > 3 {
		return ""
	}
	return "did you mean `" + best + "`?"
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}
