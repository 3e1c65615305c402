package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/lexer"
	"github.com/helixlang/hlx/internal/parser"
)

func mustParse(t *testing.T, src string) *ast.HelixAst {
	t.Helper()
	toks, diags := lexer.Tokenize([]byte(src), "t.hlx")
	require.Empty(t, diags)
	a, diags := parser.Parse(toks, "t.hlx")
	require.Empty(t, diags)
	return a
}

func TestAstToConfig_Project(t *testing.T) {
	a := mustParse(t, `project "demo" { version = "1.0" author = "a" }`)
	cfg := AstToConfig(a, Options{})
	require.Contains(t, cfg.Projects, "demo")
	assert.Equal(t, "1.0", cfg.Projects["demo"].Version)
	assert.Equal(t, "a", cfg.Projects["demo"].Author)
}

func TestAstToConfig_Agent(t *testing.T) {
	a := mustParse(t, `agent "bot" {
		model = "gpt-4"
		temperature = 0.5
		capabilities = ["a", "b"]
	}`)
	cfg := AstToConfig(a, Options{})
	ag := cfg.Agents["bot"]
	require.NotNil(t, ag)
	assert.Equal(t, "gpt-4", ag.Model)
	require.NotNil(t, ag.Temperature)
	assert.Equal(t, 0.5, *ag.Temperature)
	assert.Equal(t, []string{"a", "b"}, ag.Capabilities)
}

func TestAstToConfig_WorkflowWithStepsAndRetry(t *testing.T) {
	a := mustParse(t, `workflow "w" {
		trigger = "manual"
		step "one" {
			agent = "bot"
			retry { max_attempts = 3 backoff = "exponential" }
		}
		step "two" { agent = "bot" depends_on = ["one"] }
	}`)
	cfg := AstToConfig(a, Options{})
	wf := cfg.Workflows["w"]
	require.NotNil(t, wf)
	require.Len(t, wf.Steps, 2)
	assert.Equal(t, "one", wf.Steps[0].Name)
	require.NotNil(t, wf.Steps[0].Retry)
	assert.Equal(t, uint32(3), wf.Steps[0].Retry.MaxAttempts)
	assert.Equal(t, BackoffExponential, wf.Steps[0].Retry.Backoff)
	assert.Equal(t, []string{"one"}, wf.Steps[1].DependsOn)
}

func TestAstToConfig_CrewProcessDefaultsSequential(t *testing.T) {
	a := mustParse(t, `crew "team" { agents = ["a", "b"] }`)
	cfg := AstToConfig(a, Options{})
	crew := cfg.Crews["team"]
	require.NotNil(t, crew)
	assert.Equal(t, ProcessSequential, crew.Process)
}

func TestAstToConfig_Database_TreatedAsSupplementedSection(t *testing.T) {
	a := mustParse(t, `database "vectors" {
		path = "/var/hlx/vectors"
		vector_index { index_type = "hnsw" dimensions = 768 }
	}`)
	cfg := AstToConfig(a, Options{})
	db := cfg.Databases["vectors"]
	require.NotNil(t, db)
	assert.Equal(t, "/var/hlx/vectors", db.Path)
	require.NotNil(t, db.VectorIndex)
	assert.Equal(t, int64(768), db.VectorIndex.Dimensions)

	// Also reachable uniformly via Sections regardless of typed mirror.
	sec, ok := cfg.Sections["database"]["vectors"]
	require.True(t, ok)
	assert.Equal(t, "vectors", sec.Name)
}

func TestAstToConfig_UnknownSectionKindStillRecorded(t *testing.T) {
	a := mustParse(t, `~custom "thing" { x = 1 }`)
	cfg := AstToConfig(a, Options{})
	sec, ok := cfg.Sections["~custom"]["thing"]
	require.True(t, ok)
	v, ok := sec.Get("x")
	require.True(t, ok)
	assert.Equal(t, 1.0, v.(*ast.NumberLit).Value)
}
