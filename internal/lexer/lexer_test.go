package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixlang/hlx/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenize_EmptyInput(t *testing.T) {
	toks, diags := Tokenize([]byte(""), "empty.hlx")
	require.Empty(t, diags)
	require.Len(t, toks, 1)
	assert.Equal(t, token.EOF, toks[0].Kind)
}

func TestTokenize_CommentsAndWhitespace(t *testing.T) {
	src := "  # a comment\n\t# another\n"
	toks, diags := Tokenize([]byte(src), "c.hlx")
	require.Empty(t, diags)
	assert.Equal(t, []token.Kind{token.EOF}, kinds(toks))
}

func TestTokenize_Keywords(t *testing.T) {
	toks, diags := Tokenize([]byte("agent workflow custom_name"), "k.hlx")
	require.Empty(t, diags)
	require.Len(t, toks, 4)
	assert.Equal(t, token.KeywordTok, toks[0].Kind)
	assert.Equal(t, token.Agent, toks[0].Keyword)
	assert.Equal(t, token.KeywordTok, toks[1].Kind)
	assert.Equal(t, token.Workflow, toks[1].Keyword)
	assert.Equal(t, token.Identifier, toks[2].Kind)
	assert.Equal(t, "custom_name", toks[2].Str)
}

func TestTokenize_StringLiteral(t *testing.T) {
	toks, diags := Tokenize([]byte(`"hello \"world\"\n"`), "s.hlx")
	require.Empty(t, diags)
	require.Len(t, toks, 2)
	assert.Equal(t, token.String, toks[0].Kind)
	assert.Equal(t, "hello \"world\"\n", toks[0].Str)
}

func TestTokenize_UnterminatedString(t *testing.T) {
	toks, diags := Tokenize([]byte(`"unterminated`), "s.hlx")
	require.NotEmpty(t, diags)
	require.Len(t, toks, 2)
	assert.Equal(t, token.Error, toks[0].Kind)
}

func TestTokenize_Numbers(t *testing.T) {
	toks, diags := Tokenize([]byte("42 3.14 1.5e-3"), "n.hlx")
	require.Empty(t, diags)
	require.Len(t, toks, 4)
	assert.Equal(t, 42.0, toks[0].Num)
	assert.Equal(t, 3.14, toks[1].Num)
	assert.Equal(t, 1.5e-3, toks[2].Num)
}

func TestTokenize_DurationVsNumberIdentifier(t *testing.T) {
	toks, diags := Tokenize([]byte("30m 30 m 30min"), "d.hlx")
	require.Empty(t, diags)
	// 30m -> Duration
	require.GreaterOrEqual(t, len(toks), 6)
	assert.Equal(t, token.DurationTok, toks[0].Kind)
	assert.Equal(t, 30.0, toks[0].DurVal)
	assert.Equal(t, token.Minutes, toks[0].DurUnit)
	// 30 m -> Number, Identifier
	assert.Equal(t, token.Number, toks[1].Kind)
	assert.Equal(t, token.Identifier, toks[2].Kind)
	assert.Equal(t, "m", toks[2].Str)
	// 30min -> Number, Identifier("min")
	assert.Equal(t, token.Number, toks[3].Kind)
	assert.Equal(t, token.Identifier, toks[4].Kind)
	assert.Equal(t, "min", toks[4].Str)
}

func TestTokenize_VariableAndReference(t *testing.T) {
	toks, diags := Tokenize([]byte("$api_key @env"), "v.hlx")
	require.Empty(t, diags)
	require.Len(t, toks, 3)
	assert.Equal(t, token.Variable, toks[0].Kind)
	assert.Equal(t, "api_key", toks[0].Str)
	assert.Equal(t, token.Reference, toks[1].Kind)
	assert.Equal(t, "env", toks[1].Str)
}

func TestTokenize_BangTokensForVariableMarker(t *testing.T) {
	// The lexer emits plain Bang/Identifier/Bang; the parser is
	// responsible for folding adjacent tokens into VariableMarker.
	toks, diags := Tokenize([]byte("!NAME!"), "vm.hlx")
	require.Empty(t, diags)
	require.Len(t, toks, 4)
	assert.Equal(t, token.Bang, toks[0].Kind)
	assert.Equal(t, token.Identifier, toks[1].Kind)
	assert.Equal(t, "NAME", toks[1].Str)
	assert.Equal(t, token.Bang, toks[2].Kind)
}

func TestTokenize_Delimiters(t *testing.T) {
	toks, diags := Tokenize([]byte("{ } < > [ ] : ; ( ) -> , . ~"), "p.hlx")
	require.Empty(t, diags)
	want := []token.Kind{
		token.LBrace, token.RBrace, token.LAngle, token.RAngle,
		token.LBracket, token.RBracket, token.ColonOpen, token.Semicolon,
		token.LParen, token.RParen, token.Arrow, token.Comma, token.Dot, token.Tilde,
		token.EOF,
	}
	assert.Equal(t, want, kinds(toks))
}

func TestTokenize_UnexpectedByteRecovers(t *testing.T) {
	toks, diags := Tokenize([]byte("agent ` workflow"), "e.hlx")
	require.Len(t, diags, 1)
	require.Len(t, toks, 4)
	assert.Equal(t, token.KeywordTok, toks[0].Kind)
	assert.Equal(t, token.Error, toks[1].Kind)
	assert.Equal(t, token.KeywordTok, toks[2].Kind)
	assert.Equal(t, token.Workflow, toks[2].Keyword)
}

func TestTokenize_LocationTracking(t *testing.T) {
	toks, diags := Tokenize([]byte("agent\n  workflow"), "loc.hlx")
	require.Empty(t, diags)
	require.Len(t, toks, 3)
	assert.Equal(t, 1, toks[0].Location.Line)
	assert.Equal(t, 1, toks[0].Location.Column)
	assert.Equal(t, 2, toks[1].Location.Line)
	assert.Equal(t, 3, toks[1].Location.Column)
}
