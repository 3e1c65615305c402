package parser

import (
	"github.com/helixlang/hlx/internal/ast"
	"github.com/helixlang/hlx/internal/hlxerr"
	"github.com/helixlang/hlx/internal/token"
)

// parseExpression parses one expression at Addition/Subtraction
// precedence and below, per spec.md §4.2's "Assignment, Addition/
// Subtraction, Multiplication/Division, Unary, Primary" ladder
// (Assignment itself is handled by the caller, at property level).
// When inPipeline is true and the result is an identifier chain
// joined by `->`, it is folded into a PipelineExpr instead.
func (p *Parser) parseExpression(inPipeline bool) ast.Expression {
	left := p.parseAdditive(inPipeline)
	if inPipeline {
		left = p.maybeExtendPipeline(left)
	}
	return left
}

func (p *Parser) maybeExtendPipeline(left ast.Expression) ast.Expression {
	if p.cur().Kind != token.Arrow {
		return left
	}
	stages, locs := pipelineStages(left)
	if stages == nil {
		p.errorf(p.cur().Location, hlxerr.CodeParseUnexpectedToken, "left side of '->' must be an identifier or pipeline")
		return left
	}
	loc := left.Loc()
	for p.cur().Kind == token.Arrow {
		p.advance()
		right := p.parseAdditive(false)
		switch r := right.(type) {
		case *ast.IdentifierExpr:
			stages = append(stages, r.Name)
			locs = append(locs, r.Loc())
		case *ast.PipelineExpr:
			stages = append(stages, r.Stages...)
			locs = append(locs, r.StageLocs...)
		default:
			p.errorf(right.Loc(), hlxerr.CodeParseUnexpectedToken, "right side of '->' must be an identifier")
			return &ast.PipelineExpr{Base: baseExprAt(loc), Stages: stages, StageLocs: locs}
		}
	}
	return &ast.PipelineExpr{Base: baseExprAt(loc), Stages: stages, StageLocs: locs}
}

func pipelineStages(e ast.Expression) ([]string, []token.Location) {
	switch n := e.(type) {
	case *ast.IdentifierExpr:
		return []string{n.Name}, []token.Location{n.Loc()}
	case *ast.PipelineExpr:
		return append([]string(nil), n.Stages...), append([]token.Location(nil), n.StageLocs...)
	default:
		return nil, nil
	}
}

func (p *Parser) parseAdditive(inPipeline bool) ast.Expression {
	left := p.parseMultiplicative(inPipeline)
	for p.cur().Kind == token.Plus || p.cur().Kind == token.Minus {
		op := ast.Add
		if p.cur().Kind == token.Minus {
			op = ast.Sub
		}
		loc := left.Loc()
		p.advance()
		right := p.parseMultiplicative(inPipeline)
		left = &ast.BinaryExpr{Base: baseExprAt(loc), Left: left, Op: op, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative(inPipeline bool) ast.Expression {
	left := p.parseUnary(inPipeline)
	for p.cur().Kind == token.Star || p.cur().Kind == token.Slash {
		op := ast.Mul
		if p.cur().Kind == token.Slash {
			op = ast.Div
		}
		loc := left.Loc()
		p.advance()
		right := p.parseUnary(inPipeline)
		left = &ast.BinaryExpr{Base: baseExprAt(loc), Left: left, Op: op, Right: right}
	}
	return left
}

func (p *Parser) parseUnary(inPipeline bool) ast.Expression {
	if p.cur().Kind == token.Minus {
		loc := p.cur().Location
		p.advance()
		operand := p.parseUnary(inPipeline)
		return &ast.UnaryExpr{Base: baseExprAt(loc), Op: ast.Neg, Operand: operand}
	}
	return p.parsePrimary()
}

func baseExprAt(loc token.Location) ast.Base { return ast.NewBase(loc) }

func (p *Parser) parsePrimary() ast.Expression {
	t := p.cur()
	switch t.Kind {
	case token.String:
		p.advance()
		return &ast.StringLit{Base: baseExprAt(t.Location), Value: t.Str}
	case token.Number:
		p.advance()
		return &ast.NumberLit{Base: baseExprAt(t.Location), Value: t.Num}
	case token.Bool:
		p.advance()
		return &ast.BoolLit{Base: baseExprAt(t.Location), Value: t.BoolVal}
	case token.DurationTok:
		p.advance()
		return &ast.DurationLit{Base: baseExprAt(t.Location), Value: t.DurVal, Unit: t.DurUnit}
	case token.Variable:
		p.advance()
		return &ast.VariableExpr{Base: baseExprAt(t.Location), Name: t.Str}
	case token.Bang:
		return p.parseBangMarker()
	case token.Reference:
		return p.parseAtCall()
	case token.Identifier:
		p.advance()
		if p.cur().Kind == token.Bang && adjacent(t, p.cur()) {
			p.advance()
			return &ast.VariableMarker{Base: baseExprAt(t.Location), Name: t.Str}
		}
		return &ast.IdentifierExpr{Base: baseExprAt(t.Location), Name: t.Str}
	case token.KeywordTok:
		p.advance()
		return &ast.IdentifierExpr{Base: baseExprAt(t.Location), Name: t.Keyword.String()}
	case token.LBracket:
		return p.parseArrayLit()
	case token.LBrace:
		return p.parseObjectLit()
	default:
		p.errorf(t.Location, hlxerr.CodeParseUnexpectedToken, "unexpected token in expression: %s", t.String())
		p.advance()
		return &ast.NullLit{Base: baseExprAt(t.Location)}
	}
}

// parseBangMarker handles the `!NAME!` bang-wrapped variable marker
// form. The suffix form `NAME!` (no leading bang) is handled directly
// in parsePrimary's Identifier case above.
func (p *Parser) parseBangMarker() ast.Expression {
	bangTok := p.cur()
	p.advance()
	if p.cur().Kind == token.Identifier && adjacent(bangTok, p.cur()) {
		nameTok := p.cur()
		p.advance()
		if p.cur().Kind == token.Bang && adjacent(nameTok, p.cur()) {
			p.advance()
			return &ast.VariableMarker{Base: baseExprAt(bangTok.Location), Name: nameTok.Str}
		}
		// "!NAME" without a closing bang is not a valid expression.
		p.errorf(bangTok.Location, hlxerr.CodeParseUnexpectedToken, "unterminated variable marker '!%s'", nameTok.Str)
		return &ast.IdentifierExpr{Base: baseExprAt(nameTok.Location), Name: nameTok.Str}
	}
	p.errorf(bangTok.Location, hlxerr.CodeParseUnexpectedToken, "unexpected '!' in expression")
	return &ast.NullLit{Base: baseExprAt(bangTok.Location)}
}

func (p *Parser) parseArrayLit() ast.Expression {
	start := p.cur().Location
	p.advance() // consume '['
	var elems []ast.Expression
	for p.cur().Kind != token.RBracket && !p.atEOF() {
		elems = append(elems, p.parseExpression(false))
		if p.cur().Kind == token.Comma {
			p.advance()
		}
	}
	if p.cur().Kind == token.RBracket {
		p.advance()
	} else {
		p.errorf(p.cur().Location, hlxerr.CodeParseMismatchedBlock, "expected ']' to close array")
	}
	return &ast.ArrayLit{Base: baseExprAt(start), Elements: elems}
}

func (p *Parser) parseObjectLit() ast.Expression {
	start := p.cur().Location
	p.advance() // consume '{'
	var entries []ast.ObjectEntry
	for p.cur().Kind != token.RBrace && !p.atEOF() {
		if p.cur().Kind == token.Comma {
			p.advance()
			continue
		}
		keyTok := p.cur()
		keyText, ok := p.keyTokenText(keyTok)
		if !ok {
			p.errorf(keyTok.Location, hlxerr.CodeParseUnexpectedToken, "expected a property name in object literal, found %s", keyTok.String())
			p.advance()
			continue
		}
		p.advance()
		if p.cur().Kind != token.Assign {
			p.errorf(p.cur().Location, hlxerr.CodeParseUnexpectedToken, "expected '=' after object key %q", keyText)
			continue
		}
		p.advance()
		val := p.parseExpression(false)
		entries = append(entries, ast.ObjectEntry{Key: keyText, KeyLoc: keyTok.Location, Value: val})
		if p.cur().Kind == token.Comma {
			p.advance()
		}
	}
	if p.cur().Kind == token.RBrace {
		p.advance()
	} else {
		p.errorf(p.cur().Location, hlxerr.CodeParseMismatchedBlock, "expected '}' to close object")
	}
	return &ast.ObjectLit{Base: baseExprAt(start), Entries: entries}
}

// parseAtCall parses every `@name...` call shape spec.md §4.2 lists
// and reduces all of them to AtOperatorCall{name, positional, named}.
func (p *Parser) parseAtCall() ast.Expression {
	refTok := p.cur()
	p.advance()
	call := &ast.AtOperatorCall{Base: baseExprAt(refTok.Location), Name: refTok.Str}

	if p.cur().Kind == token.Dot {
		p.advance()
		memTok := p.cur()
		text, ok := p.keyTokenText(memTok)
		if !ok {
			p.errorf(memTok.Location, hlxerr.CodeParseUnexpectedToken, "expected a member name after '.'")
		} else {
			call.Member = text
			p.advance()
		}
	}

	switch p.cur().Kind {
	case token.LBracket:
		p.advance()
		key := p.parseExpression(false)
		if p.cur().Kind == token.RBracket {
			p.advance()
		} else {
			p.errorf(p.cur().Location, hlxerr.CodeParseMismatchedBlock, "expected ']' to close @%s[...]", refTok.Str)
		}
		call.Positional = []ast.Expression{key}
	case token.LParen:
		p.advance()
		for p.cur().Kind != token.RParen && !p.atEOF() {
			if p.cur().Kind == token.Comma {
				p.advance()
				continue
			}
			if p.cur().Kind == token.Identifier && p.peekAt(1).Kind == token.Assign {
				nameTok := p.cur()
				p.advance()
				p.advance()
				val := p.parseExpression(false)
				call.Named = append(call.Named, ast.ObjectEntry{Key: nameTok.Str, KeyLoc: nameTok.Location, Value: val})
			} else {
				call.Positional = append(call.Positional, p.parseExpression(false))
			}
			if p.cur().Kind == token.Comma {
				p.advance()
			}
		}
		if p.cur().Kind == token.RParen {
			p.advance()
		} else {
			p.errorf(p.cur().Location, hlxerr.CodeParseMismatchedBlock, "expected ')' to close @%s(...)", refTok.Str)
		}
	}
	return call
}
