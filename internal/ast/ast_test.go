package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlang/hlx/internal/token"
)

func agentDecl(name string, props ...ObjectEntry) *Declaration {
	return &Declaration{
		Kind:       DeclAgent,
		Name:       name,
		RawKind:    "agent",
		Opener:     0,
		Properties: props,
	}
}

func TestDeclaration_Get(t *testing.T) {
	d := agentDecl("bot", ObjectEntry{Key: "model", Value: &StringLit{Value: "gpt-4"}})
	v, ok := d.Get("model")
	require.True(t, ok)
	assert.Equal(t, "gpt-4", v.(*StringLit).Value)

	_, ok = d.Get("missing")
	assert.False(t, ok)
}

func TestDeclaration_QualifiedName(t *testing.T) {
	d := &Declaration{RawKind: "context", Name: "n", Subname: "sub"}
	assert.Equal(t, "context.sub", d.QualifiedName())

	d2 := &Declaration{RawKind: "agent", Name: "bot"}
	assert.Equal(t, "bot", d2.QualifiedName())
}

func TestHelixAst_ByKindAndFind(t *testing.T) {
	a := &HelixAst{Declarations: []*Declaration{
		agentDecl("bot1"),
		{Kind: DeclWorkflow, Name: "w1", RawKind: "workflow"},
		agentDecl("bot2"),
	}}

	agents := a.ByKind(DeclAgent)
	require.Len(t, agents, 2)
	assert.Equal(t, "bot1", agents[0].Name)
	assert.Equal(t, "bot2", agents[1].Name)

	d, ok := a.Find(DeclWorkflow, "w1")
	require.True(t, ok)
	assert.Equal(t, "w1", d.Name)

	_, ok = a.Find(DeclWorkflow, "nope")
	assert.False(t, ok)
}

func TestWalk_VisitsAllExpressions(t *testing.T) {
	a := &HelixAst{Declarations: []*Declaration{
		agentDecl("bot", ObjectEntry{
			Key: "tags",
			Value: &ArrayLit{Elements: []Expression{
				&StringLit{Value: "a"},
				&BinaryExpr{Left: &NumberLit{Value: 1}, Op: Add, Right: &NumberLit{Value: 2}},
			}},
		}),
	}}
	assert.Equal(t, 5, CountExpressions(a)) // ArrayLit, StringLit, BinaryExpr, NumberLit x2
}

func TestPrettyPrint_Basic(t *testing.T) {
	a := &HelixAst{Declarations: []*Declaration{
		agentDecl("bot",
			ObjectEntry{Key: "model", Value: &StringLit{Value: "gpt-4"}},
			ObjectEntry{Key: "temperature", Value: &NumberLit{Value: 0.7}},
		),
	}}
	out := PrettyPrint(a, PrintStyle{})
	assert.Equal(t, "agent \"bot\" {\n    model = \"gpt-4\"\n    temperature = 0.7\n}\n", out)
}

func TestPrettyPrint_CanonicalizeSortsProperties(t *testing.T) {
	a := &HelixAst{Declarations: []*Declaration{
		agentDecl("bot",
			ObjectEntry{Key: "zeta", Value: &BoolLit{Value: true}},
			ObjectEntry{Key: "alpha", Value: &BoolLit{Value: false}},
		),
	}}
	out := PrettyPrint(a, PrintStyle{Canonicalize: true})
	assert.Equal(t, "agent \"bot\" {\n    alpha = false\n    zeta = true\n}\n", out)
}

func TestPrettyPrint_Duration(t *testing.T) {
	assert.Equal(t, "30m", printExpression(&DurationLit{Value: 30, Unit: token.Minutes}, PrintStyle{}, 0))
}

func TestDurationLit_Millis(t *testing.T) {
	d := &DurationLit{Value: 30}
	d.Unit = 1 // Minutes
	assert.Equal(t, int64(1_800_000), d.Millis())
}
