package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/binary"
	"github.com/helixlang/hlx/internal/codegen"
	"github.com/helixlang/hlx/internal/lexer"
	"github.com/helixlang/hlx/internal/parser"
	"github.com/helixlang/hlx/internal/semantic"
)

func compileToTempFile(t *testing.T, src string, level int, compression binary.CompressionMethod) string {
	t.Helper()
	toks, diags := lexer.Tokenize([]byte(src), "t.hlx")
	require.Empty(t, diags)
	tree, diags := parser.Parse(toks, "t.hlx")
	require.Empty(t, diags)
	semantic.Validate(tree, semantic.Options{})
	prog, pool := codegen.Lower(tree)
	codegen.Optimize(prog, pool, level)

	data, err := binary.Encode(prog, pool, level, compression)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.hlxb")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestOpen_VerifiesAndIndexes(t *testing.T) {
	path := compileToTempFile(t, `agent "bot" { model = "gpt-4" }`, 0, binary.CompressionNone)
	lc, err := Open(path)
	require.NoError(t, err)
	defer lc.Close()

	assert.Equal(t, []string{"bot"}, lc.SectionNames())
}

func TestSection_PropertiesIterateLazily(t *testing.T) {
	path := compileToTempFile(t, `agent "bot" { model = "gpt-4" temperature = 0.7 }`, 0, binary.CompressionNone)
	lc, err := Open(path)
	require.NoError(t, err)
	defer lc.Close()

	sec, ok := lc.Section("bot")
	require.True(t, ok)
	assert.Equal(t, uint32(2), sec.PropCount)

	seen := map[string]bool{}
	it := sec.Properties()
	for {
		keyID, _, ok := it.Next()
		if !ok {
			break
		}
		key, found := lc.Pool.String(keyID)
		require.True(t, found)
		seen[key] = true
	}
	require.NoError(t, it.Err())
	assert.True(t, seen["model"])
	assert.True(t, seen["temperature"])
}

func TestSection_StringValuesAreBorrowedSlices(t *testing.T) {
	path := compileToTempFile(t, `agent "bot" { model = "gpt-4" }`, 0, binary.CompressionNone)
	lc, err := Open(path)
	require.NoError(t, err)
	defer lc.Close()

	sec, ok := lc.Section("bot")
	require.True(t, ok)
	it := sec.Properties()
	keyID, value, ok := it.Next()
	require.True(t, ok)
	key, _ := lc.Pool.String(keyID)
	require.Equal(t, "model", key)
	str, ok := value.(codegen.StringExpr)
	require.True(t, ok)
	got, _ := lc.Pool.Get(str.ID)
	assert.Equal(t, "gpt-4", string(got))
}

func TestOpen_UnknownSectionNotFound(t *testing.T) {
	path := compileToTempFile(t, `agent "bot" { model = "gpt-4" }`, 0, binary.CompressionNone)
	lc, err := Open(path)
	require.NoError(t, err)
	defer lc.Close()

	_, ok := lc.Section("does-not-exist")
	assert.False(t, ok)
}

func TestOpen_CompressedArtifactDecompressesAndIndexes(t *testing.T) {
	path := compileToTempFile(t, `agent "bot" { model = "gpt-4 turbo variant" }`, 2, binary.CompressionZstd)
	lc, err := Open(path)
	require.NoError(t, err)
	defer lc.Close()

	assert.Equal(t, binary.CompressionZstd, lc.Header.Compression)
	sec, ok := lc.Section("bot")
	require.True(t, ok)
	it := sec.Properties()
	_, value, ok := it.Next()
	require.True(t, ok)
	str, ok := value.(codegen.StringExpr)
	require.True(t, ok)
	got, _ := lc.Pool.Get(str.ID)
	assert.Equal(t, "gpt-4 turbo variant", string(got))
}

func TestOpen_CorruptArtifactIsRejected(t *testing.T) {
	path := compileToTempFile(t, `agent "bot" { model = "gpt-4" }`, 0, binary.CompressionNone)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[binary.HeaderSize] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Open(path)
	require.Error(t, err)
}

func TestDecompile_RoundTripsThroughPrettyPrint(t *testing.T) {
	src := `agent "bot" { model = "gpt-4" temperature = 0.7 enabled = true }`
	path := compileToTempFile(t, src, 0, binary.CompressionNone)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	decompiled, err := Decompile(data, "t.hlx")
	require.NoError(t, err)
	require.Len(t, decompiled.Declarations, 1)
	assert.Equal(t, "bot", decompiled.Declarations[0].Name)

	printed := ast.PrettyPrint(decompiled, ast.PrintStyle{})
	assert.Contains(t, printed, `"gpt-4"`)
	assert.Contains(t, printed, "temperature = 0.7")
	assert.Contains(t, printed, "enabled = true")
}

func TestDecompile_PreservesAtOperatorCalls(t *testing.T) {
	src := `s "n" { a = @math.add(1, 2) }`
	path := compileToTempFile(t, src, 0, binary.CompressionNone)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	decompiled, err := Decompile(data, "t.hlx")
	require.NoError(t, err)
	v, ok := decompiled.Declarations[0].Get("a")
	require.True(t, ok)
	call, ok := v.(*ast.AtOperatorCall)
	require.True(t, ok)
	assert.Equal(t, "math", call.Name)
	assert.Equal(t, "add", call.Member)
}

func TestDecompile_UnaryMinusRoundTrips(t *testing.T) {
	src := `s "n" { a = -5 }`
	path := compileToTempFile(t, src, 0, binary.CompressionNone)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	decompiled, err := Decompile(data, "t.hlx")
	require.NoError(t, err)
	v, ok := decompiled.Declarations[0].Get("a")
	require.True(t, ok)
	unary, ok := v.(*ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Neg, unary.Op)
	num, ok := unary.Operand.(*ast.NumberLit)
	require.True(t, ok)
	assert.Equal(t, 5.0, num.Value)
}
