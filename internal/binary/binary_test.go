package binary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlang/hlx/internal/codegen"
	"github.com/helixlang/hlx/internal/lexer"
	"github.com/helixlang/hlx/internal/parser"
	"github.com/helixlang/hlx/internal/semantic"
)

func lowerSrc(t *testing.T, src string) (*codegen.Program, *codegen.StringPool) {
	t.Helper()
	toks, diags := lexer.Tokenize([]byte(src), "t.hlx")
	require.Empty(t, diags)
	tree, diags := parser.Parse(toks, "t.hlx")
	require.Empty(t, diags)
	semantic.Validate(tree, semantic.Options{})
	return codegen.Lower(tree)
}

// propByKey resolves a property by name against pool-interned key ids,
// since a Decl decoded off the wire carries no cached Key text (see
// reader.go), only the KeyID into the StringPool.
func propByKey(t *testing.T, d *codegen.Decl, pool *codegen.StringPool, key string) codegen.Expr {
	t.Helper()
	for _, p := range d.Props {
		if s, ok := pool.Get(p.KeyID); ok && s == key {
			return p.Value
		}
	}
	return nil
}

func TestEncodeDecode_HeaderRoundTrips(t *testing.T) {
	prog, pool := lowerSrc(t, `s "n" { a = "hi" }`)
	data, err := Encode(prog, pool, 0, CompressionNone)
	require.NoError(t, err)

	art, err := Decode(data, "t.hlx")
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, art.Header.Version)
	assert.Equal(t, CompressionNone, art.Header.Compression)
	assert.True(t, art.Header.ChecksumPresent)
}

func TestEncodeDecode_StringPoolRoundTrips(t *testing.T) {
	prog, pool := lowerSrc(t, `s "n" { a = "hello world" }`)
	data, err := Encode(prog, pool, 0, CompressionNone)
	require.NoError(t, err)
	art, err := Decode(data, "t.hlx")
	require.NoError(t, err)
	assert.Equal(t, pool.Strings(), art.Pool.Strings())
}

func TestEncodeDecode_DeclarationsRoundTrip(t *testing.T) {
	prog, pool := lowerSrc(t, `
		agent "bot" { model = "gpt-4" temperature = 0.7 enabled = true }
	`)
	data, err := Encode(prog, pool, 0, CompressionNone)
	require.NoError(t, err)
	art, err := Decode(data, "t.hlx")
	require.NoError(t, err)

	require.Len(t, art.Prog.Decls, 1)
	d := art.Prog.Decls[0]
	assert.Equal(t, "bot", d.Name)

	modelExpr := propByKey(t, d, art.Pool, "model")
	require.NotNil(t, modelExpr)
	str, ok := modelExpr.(codegen.StringExpr)
	require.True(t, ok)
	got, _ := art.Pool.Get(str.ID)
	assert.Equal(t, "gpt-4", got)

	tempExpr := propByKey(t, d, art.Pool, "temperature")
	num, ok := tempExpr.(codegen.NumberExpr)
	require.True(t, ok)
	assert.InDelta(t, 0.7, num.Value, 1e-9)

	boolExpr := propByKey(t, d, art.Pool, "enabled")
	b, ok := boolExpr.(codegen.BoolExpr)
	require.True(t, ok)
	assert.True(t, b.Value)
}

func TestEncodeDecode_AtCallWithMemberRoundTrips(t *testing.T) {
	prog, pool := lowerSrc(t, `s "n" { a = @math.add(1, 2) }`)
	data, err := Encode(prog, pool, 0, CompressionNone)
	require.NoError(t, err)
	art, err := Decode(data, "t.hlx")
	require.NoError(t, err)

	v := propByKey(t, art.Prog.Decls[0], art.Pool, "a")
	call, ok := v.(codegen.AtCallExpr)
	require.True(t, ok)
	assert.True(t, call.HasMember)
	name, _ := art.Pool.Get(call.NameID)
	member, _ := art.Pool.Get(call.MemberID)
	assert.Equal(t, "math", name)
	assert.Equal(t, "add", member)
	require.Len(t, call.Positional, 2)
}

func TestEncodeDecode_VariableMarkerLazyBitRoundTrips(t *testing.T) {
	prog, pool := lowerSrc(t, `s "n" { a = !NAME! b = $NAME }`)
	data, err := Encode(prog, pool, 0, CompressionNone)
	require.NoError(t, err)
	art, err := Decode(data, "t.hlx")
	require.NoError(t, err)

	lazy, ok := propByKey(t, art.Prog.Decls[0], art.Pool, "a").(codegen.VariableExpr)
	require.True(t, ok)
	assert.True(t, lazy.Lazy)

	eager, ok := propByKey(t, art.Prog.Decls[0], art.Pool, "b").(codegen.VariableExpr)
	require.True(t, ok)
	assert.False(t, eager.Lazy)
}

func TestEncodeDecode_GzipCompressionRoundTrips(t *testing.T) {
	prog, pool := lowerSrc(t, `s "n" { a = "a repeated value a repeated value a repeated value" }`)
	data, err := Encode(prog, pool, 2, CompressionGzip)
	require.NoError(t, err)
	art, err := Decode(data, "t.hlx")
	require.NoError(t, err)
	assert.Equal(t, CompressionGzip, art.Header.Compression)
	assert.Equal(t, pool.Strings(), art.Pool.Strings())
}

func TestEncodeDecode_ZstdCompressionRoundTrips(t *testing.T) {
	prog, pool := lowerSrc(t, `s "n" { a = "zstd payload" }`)
	data, err := Encode(prog, pool, 3, CompressionZstd)
	require.NoError(t, err)
	art, err := Decode(data, "t.hlx")
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, art.Header.Compression)
}

func TestEncodeDecode_LZ4CompressionRoundTrips(t *testing.T) {
	prog, pool := lowerSrc(t, `s "n" { a = "lz4 payload" }`)
	data, err := Encode(prog, pool, 1, CompressionLZ4)
	require.NoError(t, err)
	art, err := Decode(data, "t.hlx")
	require.NoError(t, err)
	assert.Equal(t, CompressionLZ4, art.Header.Compression)
}

func TestDecode_BadMagicIsRejected(t *testing.T) {
	data := make([]byte, HeaderSize+4)
	copy(data, "NOPE")
	_, err := Decode(data, "t.hlx")
	require.Error(t, err)
}

func TestDecode_FlippedPayloadBitFailsChecksum(t *testing.T) {
	prog, pool := lowerSrc(t, `s "n" { a = "hi" }`)
	data, err := Encode(prog, pool, 0, CompressionNone)
	require.NoError(t, err)

	corrupt := append([]byte(nil), data...)
	corrupt[HeaderSize] ^= 0xFF

	_, err = Decode(corrupt, "t.hlx")
	require.Error(t, err)
}

func TestDecode_TruncatedArtifactIsRejected(t *testing.T) {
	prog, pool := lowerSrc(t, `s "n" { a = "hi" }`)
	data, err := Encode(prog, pool, 0, CompressionNone)
	require.NoError(t, err)

	_, err = Decode(data[:len(data)-2], "t.hlx")
	require.Error(t, err)
}

func TestVerifyChecksum_DetectsCorruption(t *testing.T) {
	prog, pool := lowerSrc(t, `s "n" { a = "hi" }`)
	data, err := Encode(prog, pool, 0, CompressionNone)
	require.NoError(t, err)
	require.NoError(t, VerifyChecksum(data))

	data[HeaderSize+1] ^= 0xFF
	assert.Error(t, VerifyChecksum(data))
}
