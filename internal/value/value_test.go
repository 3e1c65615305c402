package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zclconf/go-cty/cty"

	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/token"
)

func TestDuration_RoundTrips(t *testing.T) {
	v := Duration(1800000)
	assert.True(t, IsDuration(v))
	ms, ok := AsDuration(v)
	assert.True(t, ok)
	assert.Equal(t, int64(1800000), ms)
	assert.Equal(t, "duration", Kind(v))
}

func TestBinary_RoundTrips(t *testing.T) {
	v := Binary([]byte{1, 2, 3})
	assert.True(t, IsBinary(v))
	b, ok := AsBinary(v)
	assert.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, b)
}

func TestKind_Scalars(t *testing.T) {
	assert.Equal(t, "null", Kind(Null()))
	assert.Equal(t, "bool", Kind(Bool(true)))
	assert.Equal(t, "number", Kind(Number(1.5)))
	assert.Equal(t, "string", Kind(String("x")))
	assert.Equal(t, "array", Kind(Array([]cty.Value{Number(1)})))
	assert.Equal(t, "object", Kind(Object(map[string]cty.Value{"a": String("b")})))
}

func TestFromLiteral_NestedArrayAndObject(t *testing.T) {
	lit := &ast.ArrayLit{Elements: []ast.Expression{
		&ast.NumberLit{Value: 1},
		&ast.ObjectLit{Entries: []ast.ObjectEntry{
			{Key: "x", Value: &ast.StringLit{Value: "y"}},
		}},
	}}
	v, ok := FromLiteral(lit)
	assert.True(t, ok)
	assert.True(t, v.Type().IsTupleType())
}

func TestFromLiteral_DeferredExpressionFails(t *testing.T) {
	_, ok := FromLiteral(&ast.VariableExpr{Name: "X"})
	assert.False(t, ok)
}

func TestFromLiteral_Duration(t *testing.T) {
	lit := &ast.DurationLit{Value: 30, Unit: token.Minutes}
	v, ok := FromLiteral(lit)
	assert.True(t, ok)
	ms, _ := AsDuration(v)
	assert.Equal(t, int64(1800000), ms)
}

func TestToString_Scalars(t *testing.T) {
	assert.Equal(t, "true", ToString(Bool(true)))
	assert.Equal(t, "3.5", ToString(Number(3.5)))
	assert.Equal(t, "hi", ToString(String("hi")))
	assert.Equal(t, "1800000ms", ToString(Duration(1800000)))
}

func TestToGo_ObjectAndArray(t *testing.T) {
	v := Object(map[string]cty.Value{"a": Number(1), "b": Array([]cty.Value{String("x")})})
	got := ToGo(v).(map[string]any)
	assert.Equal(t, 1.0, got["a"])
	arr := got["b"].([]any)
	assert.Equal(t, "x", arr[0])
}
