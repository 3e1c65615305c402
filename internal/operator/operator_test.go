package operator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/hlxerr"
	"github.com/helixlang/hlx/internal/lexer"
	"github.com/helixlang/hlx/internal/parser"
	"github.com/helixlang/hlx/internal/semantic"
	"github.com/helixlang/hlx/internal/value"
)

// exprOf parses src (a single declaration) and returns the lowered
// value of its property key, after running the same semantic pass a
// real pipeline invocation would, so EnvRef/MemoryRef/SectionReference
// lowering has already happened by the time the evaluator sees it.
func exprOf(t *testing.T, src, key string) ast.Expression {
	t.Helper()
	toks, diags := lexer.Tokenize([]byte(src), "t.hlx")
	require.Empty(t, diags)
	tree, diags := parser.Parse(toks, "t.hlx")
	require.Empty(t, diags)
	semantic.Validate(tree, semantic.Options{})
	v, ok := tree.Declarations[0].Get(key)
	require.True(t, ok)
	return v
}

func newEval() (*Evaluator, *Context) {
	ev := NewEvaluator("t.hlx", Default())
	ctx := NewContext(nil, FrozenEnv{"API_KEY": "abc"}, FrozenClock{})
	return ev, ctx
}

func TestEvaluate_Literals(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = "hi" b = 5 c = true }`, "b")
	v, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	assert.Equal(t, "number", value.Kind(v))
}

func TestEvaluate_BinaryStringConcat(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = "x" + 1 }`, "a")
	v, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	assert.Equal(t, "x1", v.AsString())
}

func TestEvaluate_DurationArithmetic(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = 30m + 30m }`, "a")
	v, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	ms, ok := value.AsDuration(v)
	require.True(t, ok)
	assert.Equal(t, int64(3600000), ms)
}

func TestEvaluate_DurationPlusNumberIsError(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = 30m + 5 }`, "a")
	_, err := ev.Evaluate(e, ctx)
	require.Error(t, err)
}

func TestEvaluate_MathDivByZero(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = @math.div(1, 0) }`, "a")
	_, err := ev.Evaluate(e, ctx)
	require.Error(t, err)
}

func TestEvaluate_MathAdd(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = @math.add(1, 2, 3) }`, "a")
	v, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	f, _ := v.AsBigFloat().Float64()
	assert.Equal(t, 6.0, f)
}

func TestEvaluate_EnvRefMissingNoDefault(t *testing.T) {
	ev := NewEvaluator("t.hlx", Default())
	ctx := NewContext(nil, FrozenEnv{}, FrozenClock{})
	e := exprOf(t, `s "n" { a = @env["MISSING"] }`, "a")
	_, err := ev.Evaluate(e, ctx)
	require.Error(t, err)
}

func TestEvaluate_EnvRefFromFrozenEnv(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = @env["API_KEY"] }`, "a")
	v, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", v.AsString())
}

func TestEvaluate_EnvRefDefault(t *testing.T) {
	ev := NewEvaluator("t.hlx", Default())
	ctx := NewContext(nil, FrozenEnv{}, FrozenClock{})
	e := exprOf(t, `s "n" { a = @env("MISSING", "fallback") }`, "a")
	v, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	assert.Equal(t, "fallback", v.AsString())
}

func TestEvaluate_VariableMarkerResolvesFromContext(t *testing.T) {
	ev := NewEvaluator("t.hlx", Default())
	ctx := NewContext(map[string]cty.Value{"NAME": value.String("deferred")}, FrozenEnv{}, FrozenClock{})
	e := exprOf(t, `s "n" { a = !NAME! }`, "a")
	v, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	assert.Equal(t, "deferred", v.AsString())
}

func TestEvaluate_StringInterpolationIsEager(t *testing.T) {
	ev := NewEvaluator("t.hlx", Default())
	ctx := NewContext(map[string]cty.Value{"USER": value.String("ada")}, FrozenEnv{}, FrozenClock{})
	e := exprOf(t, `s "n" { a = "hello $USER" }`, "a")
	v, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello ada", v.AsString())
}

func TestEvaluate_JSONRoundTrip(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = @json.parse("{\"x\":1}") }`, "a")
	v, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	assert.True(t, v.Type().IsObjectType())
}

func TestEvaluate_JSONParseErrorIsEvalJSON(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = @json.parse("not json") }`, "a")
	_, err := ev.Evaluate(e, ctx)
	require.Error(t, err)
	var diag *hlxerr.Diagnostic
	require.ErrorAs(t, err, &diag)
	assert.Equal(t, hlxerr.CodeEvalJSON, diag.Code)
}

func TestEvaluate_CryptoHashSHA256(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = @crypto.hash("sha256", "abc") }`, "a")
	v, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", v.AsString())
}

func TestEvaluate_ArrayFilterNonEmpty(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = @array.filter(["x", "", "y"], "non_empty") }`, "a")
	v, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v.LengthInt())
}

func TestEvaluate_ArrayMapTemplate(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = @array.map(["x", "y"], "<$_>") }`, "a")
	v, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	var got []string
	for it := v.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		got = append(got, ev.AsString())
	}
	assert.Equal(t, []string{"<x>", "<y>"}, got)
}

func TestEvaluate_ArrayGetOutOfRange(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = @array.get([1, 2], 5) }`, "a")
	_, err := ev.Evaluate(e, ctx)
	require.Error(t, err)
}

func TestEvaluate_ArrayGetInRange(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = @array.get([1, 2, 3], 1) }`, "a")
	v, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	f, _ := v.AsBigFloat().Float64()
	assert.Equal(t, 2.0, f)
}

func TestEvaluate_MemoryStoreThenLoad(t *testing.T) {
	ev, ctx := newEval()
	store := exprOf(t, `s "n" { a = @memory.store("k", "v") }`, "a")
	_, err := ev.Evaluate(store, ctx)
	require.NoError(t, err)

	load := exprOf(t, `s "n" { a = @memory.load("k") }`, "a")
	v, err := ev.Evaluate(load, ctx)
	require.NoError(t, err)
	assert.Equal(t, "v", v.AsString())
}

func TestEvaluate_TransformConversational(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = @transform("conversational", {user = "hi" assistant = "hello"}) }`, "a")
	v, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	fields, _ := objectFields(v)
	msgs, ok := fields["messages"]
	require.True(t, ok)
	assert.Equal(t, 2, msgs.LengthInt())
}

func TestEvaluate_UnknownOperatorIsError(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = @nope(1) }`, "a")
	_, err := ev.Evaluate(e, ctx)
	require.Error(t, err)
}

func TestEvaluate_Determinism(t *testing.T) {
	ev, ctx := newEval()
	e := exprOf(t, `s "n" { a = @math.add(@math.mul(2, 3), 1) }`, "a")
	v1, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	v2, err := ev.Evaluate(e, ctx)
	require.NoError(t, err)
	assert.True(t, v1.RawEquals(v2))
}
