package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/lexer"
)

func parseSrc(t *testing.T, src string) (*ast.HelixAst, []*hlxDiag) {
	t.Helper()
	toks, lexDiags := lexer.Tokenize([]byte(src), "t.hlx")
	require.Empty(t, lexDiags)
	a, diags := Parse(toks, "t.hlx")
	var out []*hlxDiag
	for _, d := range diags {
		out = append(out, &hlxDiag{d.Message})
	}
	return a, out
}

type hlxDiag struct{ Message string }

func TestParse_EmptyInput(t *testing.T) {
	a, diags := parseSrc(t, "")
	assert.Empty(t, diags)
	assert.Empty(t, a.Declarations)
}

func TestParse_OnlyComments(t *testing.T) {
	a, diags := parseSrc(t, "# just a comment\n# another\n")
	assert.Empty(t, diags)
	assert.Empty(t, a.Declarations)
}

func TestParse_BasicAgent(t *testing.T) {
	a, diags := parseSrc(t, `agent "bot" { model = "gpt-4" temperature = 0.7 }`)
	require.Empty(t, diags)
	require.Len(t, a.Declarations, 1)
	d := a.Declarations[0]
	assert.Equal(t, ast.DeclAgent, d.Kind)
	assert.Equal(t, "bot", d.Name)

	model, ok := d.Get("model")
	require.True(t, ok)
	assert.Equal(t, "gpt-4", model.(*ast.StringLit).Value)

	temp, ok := d.Get("temperature")
	require.True(t, ok)
	assert.Equal(t, 0.7, temp.(*ast.NumberLit).Value)
}

func TestParse_DelimiterEquivalence(t *testing.T) {
	sources := []string{
		`s "n" {a=1}`,
		`s "n" <a=1>`,
		`s "n" [a=1]`,
		`s "n": a=1 ;`,
	}
	var results []*ast.Declaration
	for _, src := range sources {
		a, diags := parseSrc(t, src)
		require.Empty(t, diags, src)
		require.Len(t, a.Declarations, 1, src)
		results = append(results, a.Declarations[0])
	}
	for _, d := range results {
		assert.Equal(t, "n", d.Name)
		v, ok := d.Get("a")
		require.True(t, ok)
		assert.Equal(t, 1.0, v.(*ast.NumberLit).Value)
	}
}

func TestParse_DuplicatePropertyKeyIsError(t *testing.T) {
	_, diags := parseSrc(t, `agent "bot" { model = "a" model = "b" }`)
	require.NotEmpty(t, diags)
}

func TestParse_ArithmeticPrecedence(t *testing.T) {
	a, diags := parseSrc(t, `s "n" { x = 1 + 2 * 3 }`)
	require.Empty(t, diags)
	v, _ := a.Declarations[0].Get("x")
	bin := v.(*ast.BinaryExpr)
	assert.Equal(t, ast.Add, bin.Op)
	assert.Equal(t, 1.0, bin.Left.(*ast.NumberLit).Value)
	rightBin := bin.Right.(*ast.BinaryExpr)
	assert.Equal(t, ast.Mul, rightBin.Op)
}

func TestParse_UnaryMinus(t *testing.T) {
	a, diags := parseSrc(t, `s "n" { x = -5 }`)
	require.Empty(t, diags)
	v, _ := a.Declarations[0].Get("x")
	u := v.(*ast.UnaryExpr)
	assert.Equal(t, ast.Neg, u.Op)
	assert.Equal(t, 5.0, u.Operand.(*ast.NumberLit).Value)
}

func TestParse_ArrayAndObjectLiterals(t *testing.T) {
	a, diags := parseSrc(t, `s "n" { tags = ["a", "b"] meta = { x = 1 } }`)
	require.Empty(t, diags)
	d := a.Declarations[0]
	tags, _ := d.Get("tags")
	arr := tags.(*ast.ArrayLit)
	require.Len(t, arr.Elements, 2)
	assert.Equal(t, "a", arr.Elements[0].(*ast.StringLit).Value)

	meta, _ := d.Get("meta")
	obj := meta.(*ast.ObjectLit)
	x, ok := obj.Get("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, x.(*ast.NumberLit).Value)
}

func TestParse_AtOperatorCallShapes(t *testing.T) {
	a, diags := parseSrc(t, `s "n" {
		a = @env["API_KEY"]
		b = @env("API_KEY", "default")
		c = @math.add(1, 2)
		d = @crypto.hash(alg="sha256", data="x")
	}`)
	require.Empty(t, diags)
	d := a.Declarations[0]

	av, _ := d.Get("a")
	call := av.(*ast.AtOperatorCall)
	assert.Equal(t, "env", call.Name)
	require.Len(t, call.Positional, 1)
	assert.Equal(t, "API_KEY", call.Positional[0].(*ast.StringLit).Value)

	cv, _ := d.Get("c")
	mathCall := cv.(*ast.AtOperatorCall)
	assert.Equal(t, "math", mathCall.Name)
	assert.Equal(t, "add", mathCall.Member)
	require.Len(t, mathCall.Positional, 2)

	dv, _ := d.Get("d")
	hashCall := dv.(*ast.AtOperatorCall)
	require.Len(t, hashCall.Named, 2)
	assert.Equal(t, "alg", hashCall.Named[0].Key)
}

func TestParse_VariableAndMarker(t *testing.T) {
	a, diags := parseSrc(t, `s "n" { a = $API_KEY b = !NAME! c = OTHER! }`)
	require.Empty(t, diags)
	d := a.Declarations[0]

	av, _ := d.Get("a")
	assert.Equal(t, "API_KEY", av.(*ast.VariableExpr).Name)

	bv, _ := d.Get("b")
	assert.Equal(t, "NAME", bv.(*ast.VariableMarker).Name)

	cv, _ := d.Get("c")
	assert.Equal(t, "OTHER", cv.(*ast.VariableMarker).Name)
}

func TestParse_PipelineOnlyInsidePipelineBlock(t *testing.T) {
	a, diags := parseSrc(t, `pipeline "p" { stages = fetch -> clean -> train }`)
	require.Empty(t, diags)
	v, _ := a.Declarations[0].Get("stages")
	pipe := v.(*ast.PipelineExpr)
	assert.Equal(t, []string{"fetch", "clean", "train"}, pipe.Stages)
}

func TestParse_NestedStepBlocksAccumulate(t *testing.T) {
	a, diags := parseSrc(t, `workflow "w" {
		step "one" { action = "a" }
		step "two" { action = "b" }
	}`)
	require.Empty(t, diags)
	d := a.Declarations[0]
	steps, ok := d.Get("step")
	require.True(t, ok)
	arr := steps.(*ast.ArrayLit)
	require.Len(t, arr.Elements, 2)
	first := arr.Elements[0].(*ast.ObjectLit)
	name, ok := first.Get("__name")
	require.True(t, ok)
	assert.Equal(t, "one", name.(*ast.StringLit).Value)
}

func TestParse_SynchronizesPastUnexpectedToken(t *testing.T) {
	a, diags := parseSrc(t, "= workflow \"good\" { y = 2 }")
	require.NotEmpty(t, diags)
	// The parser should still recover and parse the following declaration.
	found := false
	for _, d := range a.Declarations {
		if d.Kind == ast.DeclWorkflow && d.Name == "good" {
			found = true
		}
	}
	assert.True(t, found)
}
