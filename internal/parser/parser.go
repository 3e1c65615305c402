// Package parser implements the HLX recursive-descent parser with
// precedence-climbing expression parsing described in spec.md §4.2.
//
// Grounded on original_source/src/parser.rs's Parser (the overall
// declaration/property/array/object parsing shape and its
// precedence-climbing treatment of the pipeline arrow), generalized
// to the uniform Declaration{name, subname?, properties} shape
// spec.md §3 actually specifies, and extended with the +,-,*,/
// arithmetic precedence levels spec.md §4.2 requires but which were
// not present in the retrieved parser.rs (there, only the pipeline
// arrow participates in precedence climbing).
package parser

import (
	"github.com/hashicorp/hcl/v2"

	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/hlxerr"
	"github.com/helixlang/hlx/internal/token"
)

func hcl2Pos(loc token.Location) hcl.Pos {
	return hcl.Pos{Line: loc.Line, Column: loc.Column, Byte: loc.ByteOffset}
}

// Parser consumes a token stream produced by internal/lexer and
// builds a HelixAst, accumulating diagnostics instead of aborting.
type Parser struct {
	toks   []token.Token
	pos    int
	fileID string
	diags  hlxerr.Diagnostics
}

// New creates a Parser over toks (which must terminate in a token.EOF,
// as lexer.Tokenize guarantees).
func New(toks []token.Token, fileID string) *Parser {
	return &Parser{toks: toks, fileID: fileID}
}

// Parse runs the parser to completion and returns the resulting
// (possibly partial) AST plus any diagnostics. Per spec.md §4.2, a
// parse that produced any diagnostics is considered failed overall,
// but the partial AST is still returned for tooling.
func Parse(toks []token.Token, fileID string) (*ast.HelixAst, hlxerr.Diagnostics) {
	p := New(toks, fileID)
	out := &ast.HelixAst{Header: ast.Header{FileID: fileID, Version: "1"}}
	for !p.atEOF() {
		decl := p.parseDeclaration()
		if decl != nil {
			out.Declarations = append(out.Declarations, decl)
		}
	}
	return out, p.diags
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(off int) token.Token {
	i := p.pos + off
	if i >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.cur().Kind == token.EOF }

// adjacent reports whether b immediately follows a in the byte stream,
// with no whitespace or comment between them, the test spec.md §4.1
// uses to distinguish `!NAME!` / `NAME!` from `! NAME !`.
func adjacent(a, b token.Token) bool {
	return a.Location.ByteOffset+a.Location.Length == b.Location.ByteOffset
}

func (p *Parser) errorf(loc token.Location, code hlxerr.Code, format string, args ...any) {
	sr := &hlxerr.SourceRange{FileID: p.fileID, Start: hcl2Pos(loc)}
	p.diags = append(p.diags, hlxerr.Newf(hlxerr.KindParse, code, sr, format, args...))
}

// blockCloser maps a recognized opener to its matching closer, the
// four equivalent delimiter pairs spec.md §4.1 defines.
func blockCloser(opener token.Kind) (token.Kind, bool) {
	switch opener {
	case token.LBrace:
		return token.RBrace, true
	case token.LAngle:
		return token.RAngle, true
	case token.LBracket:
		return token.RBracket, true
	case token.ColonOpen:
		return token.Semicolon, true
	default:
		return token.Invalid, false
	}
}

func isOpener(k token.Kind) bool {
	_, ok := blockCloser(k)
	return ok
}

// isNameToken reports whether k can introduce a declaration's name or
// subname: a quoted string or a bare identifier.
func isNameToken(k token.Kind) bool {
	return k == token.String || k == token.Identifier
}

// topLevelKeywords are the Keyword values that begin a *top-level*
// Declaration, used by synchronize to find a safe resumption point.
var topLevelKeywords = map[token.Keyword]bool{
	token.Project: true, token.Agent: true, token.Workflow: true,
	token.Task: true, token.Context: true, token.Crew: true,
	token.Pipeline: true, token.Memory: true,
}

// synchronize implements spec.md §4.2's recovery rule: skip to the
// next block closer at depth 0, or the next token that starts a known
// top-level declaration, or Eof.
func (p *Parser) synchronize() {
	depth := 0
	for !p.atEOF() {
		t := p.cur()
		if depth == 0 {
			if t.Kind == token.KeywordTok && topLevelKeywords[t.Keyword] {
				return
			}
			if t.Kind == token.Tilde || t.Kind == token.Identifier {
				return
			}
		}
		if isOpener(t.Kind) {
			depth++
		} else if _, ok := closerDepthDelta(t.Kind); ok {
			if depth > 0 {
				depth--
			} else {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

func closerDepthDelta(k token.Kind) (int, bool) {
	switch k {
	case token.RBrace, token.RAngle, token.RBracket, token.Semicolon:
		return -1, true
	default:
		return 0, false
	}
}
