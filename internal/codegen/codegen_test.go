package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/lexer"
	"github.com/helixlang/hlx/internal/parser"
	"github.com/helixlang/hlx/internal/semantic"
)

func mustLower(t *testing.T, src string) (*Program, *StringPool) {
	t.Helper()
	toks, diags := lexer.Tokenize([]byte(src), "t.hlx")
	require.Empty(t, diags)
	tree, diags := parser.Parse(toks, "t.hlx")
	require.Empty(t, diags)
	semantic.Validate(tree, semantic.Options{})
	return Lower(tree)
}

func propByKey(t *testing.T, d *Decl, pool *StringPool, key string) Expr {
	t.Helper()
	for _, p := range d.Props {
		if p.Key == key {
			return p.Value
		}
	}
	t.Fatalf("no property %q on declaration %q", key, d.Name)
	return nil
}

func TestStringPool_InternDeduplicates(t *testing.T) {
	p := NewStringPool()
	id1 := p.Intern("hello")
	id2 := p.Intern("world")
	id3 := p.Intern("hello")
	assert.Equal(t, id1, id3)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, p.Len())
}

func TestStringPool_Rebuild(t *testing.T) {
	p := NewStringPool()
	a := p.Intern("a")
	_ = p.Intern("b")
	remap := p.Rebuild([]string{"a"})
	s, ok := p.Get(remap[a])
	require.True(t, ok)
	assert.Equal(t, "a", s)
	assert.Equal(t, 1, p.Len())
}

func TestLower_Literals(t *testing.T) {
	prog, pool := mustLower(t, `s "n" { a = "hi" b = 5 c = true d = 30m }`)
	require.Len(t, prog.Decls, 1)
	d := prog.Decls[0]

	str, ok := propByKey(t, d, pool, "a").(StringExpr)
	require.True(t, ok)
	got, _ := pool.Get(str.ID)
	assert.Equal(t, "hi", got)

	num, ok := propByKey(t, d, pool, "b").(NumberExpr)
	require.True(t, ok)
	assert.Equal(t, 5.0, num.Value)

	boolean, ok := propByKey(t, d, pool, "c").(BoolExpr)
	require.True(t, ok)
	assert.True(t, boolean.Value)

	dur, ok := propByKey(t, d, pool, "d").(DurationExpr)
	require.True(t, ok)
	assert.Equal(t, int64(1800000), dur.Millis)
}

func TestLower_UnaryMinusBecomesBinarySub(t *testing.T) {
	prog, _ := mustLower(t, `s "n" { a = -5 }`)
	bin, ok := propByKey(t, prog.Decls[0], nil, "a").(BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Sub, bin.Op)
	zero, ok := bin.Left.(NumberExpr)
	require.True(t, ok)
	assert.Equal(t, 0.0, zero.Value)
}

func TestLower_PipelineBecomesArrayOfStrings(t *testing.T) {
	prog, pool := mustLower(t, `
		pipeline "p" { stages = fetch -> parse -> store }
	`)
	arr, ok := propByKey(t, prog.Decls[0], pool, "stages").(ArrayExpr)
	require.True(t, ok)
	require.Len(t, arr.Elements, 3)
	first, ok := arr.Elements[0].(StringExpr)
	require.True(t, ok)
	s, _ := pool.Get(first.ID)
	assert.Equal(t, "fetch", s)
}

func TestLower_VariableMarkerIsLazy(t *testing.T) {
	prog, _ := mustLower(t, `s "n" { a = !NAME! }`)
	v, ok := propByKey(t, prog.Decls[0], nil, "a").(VariableExpr)
	require.True(t, ok)
	assert.True(t, v.Lazy)
}

func TestLower_VariableExprIsEager(t *testing.T) {
	prog, _ := mustLower(t, `s "n" { a = $NAME }`)
	v, ok := propByKey(t, prog.Decls[0], nil, "a").(VariableExpr)
	require.True(t, ok)
	assert.False(t, v.Lazy)
}

func TestLower_SectionReferenceBecomesAtCall(t *testing.T) {
	prog, pool := mustLower(t, `
		agent "bot" { model = "gpt-4" }
		workflow "w" { on_error = @agent["bot"] }
	`)
	wf := prog.Decls[1]
	call, ok := propByKey(t, wf, pool, "on_error").(AtCallExpr)
	require.True(t, ok)
	name, _ := pool.Get(call.NameID)
	assert.Equal(t, "agent", name)
}

func TestLower_AtOperatorCallWithArgs(t *testing.T) {
	prog, pool := mustLower(t, `s "n" { a = @math.add(1, 2) }`)
	call, ok := propByKey(t, prog.Decls[0], pool, "a").(AtCallExpr)
	require.True(t, ok)
	name, _ := pool.Get(call.NameID)
	member, _ := pool.Get(call.MemberID)
	assert.Equal(t, "math", name)
	assert.Equal(t, "add", member)
	require.Len(t, call.Positional, 2)
}

func TestOptimize_O1FoldsConstants(t *testing.T) {
	prog, pool := mustLower(t, `project "n" { a = 1 + 2 }`)
	Optimize(prog, pool, 1)
	num, ok := propByKey(t, prog.Decls[0], pool, "a").(NumberExpr)
	require.True(t, ok)
	assert.Equal(t, 3.0, num.Value)
}

func TestOptimize_O1NeverFoldsEnv(t *testing.T) {
	prog, pool := mustLower(t, `project "n" { a = @env["HOME"] }`)
	Optimize(prog, pool, 1)
	v := propByKey(t, prog.Decls[0], pool, "a")
	_, isEnvRef := v.(EnvRefExpr)
	require.True(t, isEnvRef)
}

func TestOptimize_O1DeadCodeEliminatesUnreachableSection(t *testing.T) {
	prog, pool := mustLower(t, `
		s "unused" { x = 1 }
		project "p" { name = "n" }
	`)
	require.Len(t, prog.Decls, 2)
	Optimize(prog, pool, 1)
	for _, d := range prog.Decls {
		assert.NotEqual(t, "unused", d.Name)
	}
}

func TestOptimize_O2InlinesSingleUseAlias(t *testing.T) {
	prog, pool := mustLower(t, `project "n" { base = 5 a = $base }`)
	Optimize(prog, pool, 2)
	v := propByKey(t, prog.Decls[0], pool, "a")
	_, isVar := v.(VariableExpr)
	assert.False(t, isVar, "single-use alias should have been inlined to the literal")
}

func TestOptimize_O3FlattensLiteralSectionReference(t *testing.T) {
	prog, pool := mustLower(t, `
		agent "bot" { model = "gpt-4" }
		workflow "w" { uses = @agent.model["bot"] }
	`)
	Optimize(prog, pool, 3)
	wf := prog.Decls[1]
	v := propByKey(t, wf, pool, "uses")
	str, ok := v.(StringExpr)
	require.True(t, ok)
	got, _ := pool.Get(str.ID)
	assert.Equal(t, "gpt-4", got)
}

func TestOptimize_O0IsNoOp(t *testing.T) {
	prog, pool := mustLower(t, `s "n" { a = 1 + 2 }`)
	Optimize(prog, pool, 0)
	_, ok := propByKey(t, prog.Decls[0], pool, "a").(BinaryExpr)
	assert.True(t, ok, "O0 must leave the IR untouched")
}
