package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/hlxerr"
	"github.com/helixlang/hlx/internal/lexer"
	"github.com/helixlang/hlx/internal/parser"
)

func mustParse(t *testing.T, src string) *ast.HelixAst {
	t.Helper()
	toks, diags := lexer.Tokenize([]byte(src), "t.hlx")
	require.Empty(t, diags)
	tree, diags := parser.Parse(toks, "t.hlx")
	require.Empty(t, diags)
	return tree
}

func TestAnalyze_ValidAgentHasNoDiagnostics(t *testing.T) {
	tree := mustParse(t, `agent "bot" { model = "gpt-4" temperature = 0.7 }`)
	diags := Validate(tree, Options{})
	assert.False(t, diags.HasErrors())
}

func TestAnalyze_DuplicateNameIsError(t *testing.T) {
	tree := mustParse(t, `agent "bot" { model = "a" } agent "bot" { model = "b" }`)
	diags := Validate(tree, Options{})
	require.True(t, diags.HasErrors())
	assert.Equal(t, hlxerr.CodeSemanticDuplicateName, diags.Errors()[0].Code)
}

func TestAnalyze_UnknownSectionReferenceIsError(t *testing.T) {
	tree := mustParse(t, `agent "bot" { model = @memory_profile["x"] }`)
	diags := Validate(tree, Options{})
	require.True(t, diags.HasErrors())
	assert.Equal(t, hlxerr.CodeSemanticUnresolvedRef, diags.Errors()[0].Code)
}

func TestAnalyze_KnownSectionReferenceResolves(t *testing.T) {
	tree := mustParse(t, `
		agent "bot" { model = "gpt-4" }
		workflow "w" { on_error = @agent["bot"] }
	`)
	diags := Validate(tree, Options{})
	assert.False(t, diags.HasErrors())

	wf, ok := tree.Find(ast.DeclWorkflow, "w")
	require.True(t, ok)
	v, _ := wf.Get("on_error")
	ref, ok := v.(*ast.SectionReference)
	require.True(t, ok)
	assert.Equal(t, "agent", ref.Section)
}

func TestAnalyze_EnvRefLowering(t *testing.T) {
	tree := mustParse(t, `agent "bot" { model = @env["API_KEY"] }`)
	Validate(tree, Options{})
	a, _ := tree.Find(ast.DeclAgent, "bot")
	v, _ := a.Get("model")
	ref, ok := v.(*ast.EnvRef)
	require.True(t, ok)
	assert.Equal(t, "API_KEY", ref.Name)
}

func TestAnalyze_TemperatureOutOfRangeIsConstraintError(t *testing.T) {
	tree := mustParse(t, `agent "bot" { model = "gpt-4" temperature = 3.5 }`)
	diags := Validate(tree, Options{})
	require.True(t, diags.HasErrors())
	assert.Equal(t, hlxerr.CodeSemanticConstraint, diags.Errors()[0].Code)
}

func TestAnalyze_UnknownPropertyIsWarningUnlessStrict(t *testing.T) {
	tree := mustParse(t, `agent "bot" { model = "gpt-4" nonexistent = 1 }`)
	diags := Validate(tree, Options{})
	assert.False(t, diags.HasErrors())
	require.NotEmpty(t, diags)

	tree2 := mustParse(t, `agent "bot" { model = "gpt-4" nonexistent = 1 }`)
	diags2 := Validate(tree2, Options{Strict: true})
	assert.True(t, diags2.HasErrors())
}

func TestAnalyze_WorkflowStepCycleIsError(t *testing.T) {
	tree := mustParse(t, `workflow "w" {
		step "a" { depends_on = ["b"] }
		step "b" { depends_on = ["a"] }
	}`)
	diags := Validate(tree, Options{})
	require.True(t, diags.HasErrors())
	assert.Equal(t, hlxerr.CodeSemanticCycle, diags.Errors()[0].Code)
}

func TestAnalyze_WorkflowStepDependsOnUnknownStepIsError(t *testing.T) {
	tree := mustParse(t, `workflow "w" {
		step "a" { depends_on = ["ghost"] }
	}`)
	diags := Validate(tree, Options{})
	require.True(t, diags.HasErrors())
	assert.Equal(t, hlxerr.CodeSemanticUnresolvedRef, diags.Errors()[0].Code)
}

func TestAnalyze_CrewManagerMustBeMember(t *testing.T) {
	tree := mustParse(t, `crew "team" { agents = ["a", "b"] manager = "c" }`)
	diags := Validate(tree, Options{})
	require.True(t, diags.HasErrors())
	assert.Equal(t, hlxerr.CodeSemanticConstraint, diags.Errors()[0].Code)
}

func TestAnalyze_TypeMismatchIsError(t *testing.T) {
	tree := mustParse(t, `agent "bot" { model = 5 }`)
	diags := Validate(tree, Options{})
	require.True(t, diags.HasErrors())
	assert.Equal(t, hlxerr.CodeSemanticTypeMismatch, diags.Errors()[0].Code)
}
