package hlx

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/binary"
	"github.com/helixlang/hlx/internal/config"
	"github.com/helixlang/hlx/internal/operator"
	"github.com/helixlang/hlx/internal/semantic"
)

func TestParse_ValidSourceHasNoDiagnostics(t *testing.T) {
	tree, diags := Parse([]byte(`agent "bot" { model = "gpt-4" }`), "t.hlx")
	require.Empty(t, diags)
	require.Len(t, tree.Declarations, 1)
	assert.Equal(t, "bot", tree.Declarations[0].Name)
}

func TestParse_LexAndParseDiagnosticsBothSurface(t *testing.T) {
	_, diags := Parse([]byte(`agent "bot" { model = `), "t.hlx")
	assert.True(t, diags.HasErrors())
}

func TestValidate_ValidAgentHasNoErrors(t *testing.T) {
	tree, diags := Parse([]byte(`agent "bot" { model = "gpt-4" }`), "t.hlx")
	require.Empty(t, diags)
	vdiags := Validate(tree, semantic.Options{})
	assert.False(t, vdiags.HasErrors())
}

func TestAstToConfig_RoundTripsAgentFields(t *testing.T) {
	tree, _ := Parse([]byte(`agent "bot" { model = "gpt-4" temperature = 0.5 }`), "t.hlx")
	cfg := AstToConfig(tree, config.Options{})
	require.Contains(t, cfg.Agents, "bot")
	assert.Equal(t, "gpt-4", cfg.Agents["bot"].Model)
}

func TestCompileLoadDecompile_FullRoundTrip(t *testing.T) {
	src := `agent "bot" { model = "gpt-4" temperature = 0.7 }`
	tree, diags := Parse([]byte(src), "t.hlx")
	require.Empty(t, diags)
	require.False(t, Validate(tree, semantic.Options{}).HasErrors())

	data, err := Compile(tree, CompileOptions{OptLevel: 1, Compression: binary.CompressionNone})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bot.hlxb")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	lc, err := Load(path)
	require.NoError(t, err)
	defer lc.Close()
	assert.Equal(t, []string{"bot"}, lc.SectionNames())

	decompiled, err := Decompile(data, "t.hlx")
	require.NoError(t, err)
	printed := PrettyPrint(decompiled, ast.PrintStyle{})
	assert.Contains(t, printed, `"gpt-4"`)
}

func TestEvaluate_UsesFrozenEnvWhenProvided(t *testing.T) {
	e := &ast.EnvRef{Name: "HLX_TEST_VAR"}
	v, err := Evaluate(e, "t.hlx", EvalOptions{
		Env: operator.FrozenEnv{"HLX_TEST_VAR": "frozen-value"},
	})
	require.NoError(t, err)
	assert.Equal(t, "frozen-value", v.AsString())
}

func TestEvaluate_DefaultsToOSEnvAndSystemClock(t *testing.T) {
	e := &ast.NumberLit{Value: 42}
	v, err := Evaluate(e, "t.hlx", EvalOptions{})
	require.NoError(t, err)
	f, _ := v.AsBigFloat().Float64()
	assert.Equal(t, 42.0, f)
}

func TestBundle_CompilesDirectoryIntoOneArtifact(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hlx"), []byte(`agent "a" { model = "x" }`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.hlx"), []byte(`agent "b" { model = "y" }`), 0o644))

	data, diags, err := Bundle(context.Background(), dir, BundleOptions{OptLevel: 0, NumWorkers: 2})
	require.NoError(t, err)
	assert.False(t, diags.HasErrors())

	path := filepath.Join(t.TempDir(), "bundle.hlxb")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	lc, err := Load(path)
	require.NoError(t, err)
	defer lc.Close()
	assert.ElementsMatch(t, []string{"a", "b"}, lc.SectionNames())
}
