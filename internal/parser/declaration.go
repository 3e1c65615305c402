package parser

import (
	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/hlxerr"
	"github.com/helixlang/hlx/internal/token"
)

// parseDeclaration consumes one top-level Declaration: a leading
// Keyword, Tilde, or Identifier; an optional quoted/bare name and
// subname; a mandatory block opener; properties; the matching closer.
// On error it records a diagnostic and synchronizes, returning nil.
func (p *Parser) parseDeclaration() *ast.Declaration {
	startLoc := p.cur().Location

	var rawKind string
	var kind ast.DeclKind

	switch t := p.cur(); {
	case t.Kind == token.KeywordTok:
		kind, _ = ast.KeywordToDeclKind(t.Keyword)
		rawKind = t.Keyword.String()
		p.advance()
	case t.Kind == token.Tilde:
		p.advance()
		if p.cur().Kind != token.Identifier {
			p.errorf(t.Location, hlxerr.CodeParseUnexpectedToken, "expected identifier after '~'")
			p.synchronize()
			return nil
		}
		rawKind = "~" + p.cur().Str
		kind = ast.DeclSection
		p.advance()
	case t.Kind == token.Identifier:
		rawKind = t.Str
		kind = ast.DeclSection
		p.advance()
	default:
		p.errorf(t.Location, hlxerr.CodeParseUnexpectedToken, "expected a declaration (keyword, '~name', or identifier), found %s", t.String())
		p.synchronize()
		return nil
	}

	name, subname := p.parseOptionalNameAndSubname()

	opener := p.cur().Kind
	closer, ok := blockCloser(opener)
	if !ok {
		p.errorf(p.cur().Location, hlxerr.CodeParseUnexpectedToken, "expected a block opener ('{', '<', '[' or ':'), found %s", p.cur().String())
		p.synchronize()
		return nil
	}
	p.advance()

	props := p.parseProperties(closer, rawKind == "pipeline")

	if p.cur().Kind != closer {
		p.errorf(p.cur().Location, hlxerr.CodeParseMismatchedBlock, "expected closing %s to match opener at %s, found %s", closer.String(), startLoc, p.cur().String())
		p.synchronize()
	} else {
		p.advance()
	}

	return &ast.Declaration{
		Kind:       kind,
		Name:       name,
		Subname:    subname,
		RawKind:    rawKind,
		Location:   startLoc,
		Opener:     opener,
		Properties: props,
	}
}

// parseOptionalNameAndSubname reads up to two consecutive name tokens
// (quoted strings or bare identifiers) before the mandatory block
// opener.
func (p *Parser) parseOptionalNameAndSubname() (name, subname string) {
	if isNameToken(p.cur().Kind) {
		name = p.tokenText(p.cur())
		p.advance()
	}
	if isNameToken(p.cur().Kind) {
		subname = p.tokenText(p.cur())
		p.advance()
	}
	return name, subname
}

func (p *Parser) tokenText(t token.Token) string {
	if t.Kind == token.String {
		return t.Str
	}
	return t.Str
}

// parseProperties parses `identifier = expression` entries (and
// nested sub-blocks, folded into the same property list) until it
// reaches closer, per spec.md §4.2. inPipeline enables `->` chaining
// in expression position.
func (p *Parser) parseProperties(closer token.Kind, inPipeline bool) []ast.ObjectEntry {
	var entries []ast.ObjectEntry
	seen := map[string]bool{}

	for !p.atEOF() && p.cur().Kind != closer {
		if p.cur().Kind == token.Comma {
			p.advance()
			continue
		}

		keyTok := p.cur()
		keyText, ok := p.keyTokenText(keyTok)
		if !ok {
			p.errorf(keyTok.Location, hlxerr.CodeParseUnexpectedToken, "expected a property name, found %s", keyTok.String())
			p.advance()
			continue
		}
		p.advance()

		switch {
		case p.cur().Kind == token.Assign:
			p.advance()
			if seen[keyText] {
				p.errorf(keyTok.Location, hlxerr.CodeParseDuplicateKey, "duplicate property key %q", keyText)
			}
			seen[keyText] = true
			val := p.parseExpression(inPipeline)
			entries = replaceOrAppend(entries, keyText, val)

		case isNameToken(p.cur().Kind) || isOpener(p.cur().Kind):
			// Nested sub-block, e.g. `step "fetch" { ... }` inside a
			// workflow. Repeated keys accumulate into an array so that
			// e.g. multiple `step` blocks are all preserved.
			nestedName, nestedSubname := p.parseOptionalNameAndSubname()
			nestedOpener := p.cur().Kind
			nestedCloser, ok := blockCloser(nestedOpener)
			if !ok {
				p.errorf(p.cur().Location, hlxerr.CodeParseUnexpectedToken, "expected a block opener for nested %q, found %s", keyText, p.cur().String())
				p.advance()
				continue
			}
			p.advance()
			nestedProps := p.parseProperties(nestedCloser, false)
			if p.cur().Kind != nestedCloser {
				p.errorf(p.cur().Location, hlxerr.CodeParseMismatchedBlock, "expected closing %s for nested %q", nestedCloser.String(), keyText)
				p.synchronize()
			} else {
				p.advance()
			}
			obj := &ast.ObjectLit{Entries: nestedProps}
			if nestedName != "" {
				obj.Entries = append([]ast.ObjectEntry{{Key: "__name", Value: &ast.StringLit{Value: nestedName}}}, obj.Entries...)
			}
			if nestedSubname != "" {
				obj.Entries = append([]ast.ObjectEntry{{Key: "__subname", Value: &ast.StringLit{Value: nestedSubname}}}, obj.Entries...)
			}
			entries = accumulate(entries, keyText, obj)

		default:
			p.errorf(p.cur().Location, hlxerr.CodeParseUnexpectedToken, "expected '=' or a block after property name %q, found %s", keyText, p.cur().String())
			p.advance()
		}
	}
	return entries
}

// keyTokenText reports the text of a token usable as a property key:
// an ordinary identifier, or one of the nested-block keywords that
// are otherwise reserved (step, trigger, capabilities, backstory,
// tools, secrets, variables, embeddings, cache, retry).
func (p *Parser) keyTokenText(t token.Token) (string, bool) {
	switch t.Kind {
	case token.Identifier:
		return t.Str, true
	case token.KeywordTok:
		return t.Keyword.String(), true
	default:
		return "", false
	}
}

func replaceOrAppend(entries []ast.ObjectEntry, key string, val ast.Expression) []ast.ObjectEntry {
	for i, e := range entries {
		if e.Key == key {
			entries[i].Value = val
			return entries
		}
	}
	return append(entries, ast.ObjectEntry{Key: key, Value: val})
}

// accumulate folds repeated nested-block keys into an ArrayLit so that
// e.g. several `step "..." { ... }` blocks are all preserved under
// the single key "step".
func accumulate(entries []ast.ObjectEntry, key string, val ast.Expression) []ast.ObjectEntry {
	for i, e := range entries {
		if e.Key != key {
			continue
		}
		if arr, ok := e.Value.(*ast.ArrayLit); ok {
			arr.Elements = append(arr.Elements, val)
			return entries
		}
		entries[i].Value = &ast.ArrayLit{Elements: []ast.Expression{e.Value, val}}
		return entries
	}
	return append(entries, ast.ObjectEntry{Key: key, Value: val})
}
