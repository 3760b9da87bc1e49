package paql

import (
	"strconv"
	"strings"
)

// Parser consumes a pre-lexed token stream and produces an AST. It is a
// plain recursive-descent parser: each grammar rule in spec §4.5.1 maps
// to one parse* method. Lookahead is not limited to one token:
// findTopLevelKeyword scans the whole token list for HOPS, WHERE and LIMIT.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse lexes and parses a PaQL query into an AST.
func Parse(query string) (*AST, error) {
	lx := NewLexer(query)
	var tokens []Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF {
			break
		}
	}
	p := &Parser{tokens: tokens}
	return p.parseQuery()
}

func (p *Parser) cur() Token  { return p.tokens[p.pos] }
func (p *Parser) advance() Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func isKeyword(t Token, kw string) bool {
	return t.Kind == TokIdent && strings.EqualFold(t.Text, kw)
}

func (p *Parser) expectKeyword(kw string) (Token, error) {
	t := p.cur()
	if !isKeyword(t, kw) {
		return Token{}, ParseErrorAt(t.Offset, "'"+kw+"'", describe(t))
	}
	return p.advance(), nil
}

func describe(t Token) string {
	if t.Kind == TokEOF {
		return "end of input"
	}
	return "'" + t.Text + "'"
}

// parseQuery dispatches to the Graph grammar when the query opens with
// FROM, the Hybrid grammar when a top-level HOPS modifier is present,
// and the Semantic grammar otherwise.
func (p *Parser) parseQuery() (*AST, error) {
	if isKeyword(p.cur(), "FROM") {
		return p.parseGraph()
	}
	if p.findTopLevelKeyword("HOPS") >= 0 {
		return p.parseHybrid()
	}
	return p.parseSemantic()
}

// findTopLevelKeyword returns the token index of the first occurrence of
// kw, or -1 if absent. Quoted strings never match (they lex as
// TokString, not TokIdent).
func (p *Parser) findTopLevelKeyword(kw string) int {
	for i, t := range p.tokens {
		if isKeyword(t, kw) {
			return i
		}
	}
	return -1
}

// parseGraph parses: FROM <id|label> [TRAVERSE <relation>] DEPTH <n>
func (p *Parser) parseGraph() (*AST, error) {
	if _, err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	idTok := p.cur()
	if idTok.Kind != TokIdent && idTok.Kind != TokString {
		return nil, ParseErrorAt(idTok.Offset, "identifier or label", describe(idTok))
	}
	p.advance()
	ast := &AST{Kind: KindGraph, From: idTok.Text}

	if isKeyword(p.cur(), "TRAVERSE") {
		p.advance()
		relTok := p.cur()
		if relTok.Kind != TokIdent {
			return nil, ParseErrorAt(relTok.Offset, "relation name", describe(relTok))
		}
		p.advance()
		ast.Traverse = relTok.Text
	}

	if _, err := p.expectKeyword("DEPTH"); err != nil {
		return nil, err
	}
	depthTok := p.cur()
	n, err := p.parseIntToken(depthTok)
	if err != nil {
		return nil, err
	}
	p.advance()
	ast.Depth = n
	return ast, nil
}

// parseHybrid parses: <free text> HOPS <n>
func (p *Parser) parseHybrid() (*AST, error) {
	idx := p.findTopLevelKeyword("HOPS")
	text := p.joinText(p.pos, idx)
	if strings.TrimSpace(text) == "" {
		return nil, ParseErrorAt(p.cur().Offset, "query text before HOPS", "empty text")
	}
	p.pos = idx
	p.advance() // consume HOPS

	hopsTok := p.cur()
	n, err := p.parseIntToken(hopsTok)
	if err != nil {
		return nil, err
	}
	p.advance()
	return &AST{Kind: KindHybrid, Text: text, Hops: n}, nil
}

// parseSemantic parses: <free text> [WHERE <filter>] [LIMIT <n>]
func (p *Parser) parseSemantic() (*AST, error) {
	whereIdx := p.findTopLevelKeyword("WHERE")
	limitIdx := p.findTopLevelKeyword("LIMIT")

	textEnd := len(p.tokens) - 1 // exclude trailing EOF
	if whereIdx >= 0 {
		textEnd = whereIdx
	} else if limitIdx >= 0 {
		textEnd = limitIdx
	}
	text := p.joinText(p.pos, textEnd)
	p.pos = textEnd

	ast := &AST{Kind: KindSemantic, Text: text}

	if whereIdx >= 0 {
		p.advance() // consume WHERE
		filter, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		ast.Filter = filter
	}

	if isKeyword(p.cur(), "LIMIT") {
		p.advance()
		n, err := p.parseIntToken(p.cur())
		if err != nil {
			return nil, err
		}
		p.advance()
		ast.Limit = n
	}

	if p.cur().Kind != TokEOF {
		return nil, ParseErrorAt(p.cur().Offset, "end of query", describe(p.cur()))
	}
	return ast, nil
}

// joinText reconstructs the free-text span tokens[from:to] as a single
// space-separated string.
func (p *Parser) joinText(from, to int) string {
	if to <= from {
		return ""
	}
	parts := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		parts = append(parts, p.tokens[i].Text)
	}
	return strings.Join(parts, " ")
}

func (p *Parser) parseIntToken(t Token) (int, error) {
	if t.Kind != TokNumber {
		return 0, ParseErrorAt(t.Offset, "number", describe(t))
	}
	f, err := parseNumber(t.Text)
	if err != nil {
		return 0, ParseErrorAt(t.Offset, "number", describe(t))
	}
	return int(f), nil
}

// parseOrExpr handles OR, the lowest-precedence boolean combinator.
func (p *Parser) parseOrExpr() (*FilterExpr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for isKeyword(p.cur(), "OR") {
		p.advance()
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = &FilterExpr{Bool: BoolOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAndExpr() (*FilterExpr, error) {
	left, err := p.parseNotExpr()
	if err != nil {
		return nil, err
	}
	for isKeyword(p.cur(), "AND") {
		p.advance()
		right, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		left = &FilterExpr{Bool: BoolAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNotExpr() (*FilterExpr, error) {
	if isKeyword(p.cur(), "NOT") {
		p.advance()
		operand, err := p.parseNotExpr()
		if err != nil {
			return nil, err
		}
		return &FilterExpr{Bool: BoolNot, Left: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (*FilterExpr, error) {
	if p.cur().Kind == TokLParen {
		p.advance()
		expr, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		if p.cur().Kind != TokRParen {
			return nil, ParseErrorAt(p.cur().Offset, "')'", describe(p.cur()))
		}
		p.advance()
		return expr, nil
	}
	return p.parsePredicate()
}

// parsePredicate parses: field op value, where op is one of the
// comparison operators or the CONTAINS/IN keywords. IN takes a
// parenthesized comma-separated value list.
func (p *Parser) parsePredicate() (*FilterExpr, error) {
	fieldTok := p.cur()
	if fieldTok.Kind != TokIdent {
		return nil, ParseErrorAt(fieldTok.Offset, "field name", describe(fieldTok))
	}
	p.advance()

	opTok := p.cur()
	var op FilterOp
	switch {
	case opTok.Kind == TokOp:
		op = FilterOp(opTok.Text)
		p.advance()
	case isKeyword(opTok, "CONTAINS"):
		op = OpContains
		p.advance()
	case isKeyword(opTok, "IN"):
		op = OpIn
		p.advance()
	default:
		return nil, ParseErrorAt(opTok.Offset, "comparison operator", describe(opTok))
	}

	if op == OpIn {
		values, err := p.parseValueList()
		if err != nil {
			return nil, err
		}
		return &FilterExpr{Field: fieldTok.Text, Op: op, Value: values}, nil
	}

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return &FilterExpr{Field: fieldTok.Text, Op: op, Value: value}, nil
}

func (p *Parser) parseValueList() ([]any, error) {
	if p.cur().Kind != TokLParen {
		return nil, ParseErrorAt(p.cur().Offset, "'('", describe(p.cur()))
	}
	p.advance()
	var values []any
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if p.cur().Kind == TokComma {
			p.advance()
			continue
		}
		break
	}
	if p.cur().Kind != TokRParen {
		return nil, ParseErrorAt(p.cur().Offset, "')'", describe(p.cur()))
	}
	p.advance()
	return values, nil
}

func (p *Parser) parseValue() (any, error) {
	t := p.cur()
	switch t.Kind {
	case TokString:
		p.advance()
		return t.Text, nil
	case TokNumber:
		p.advance()
		f, err := parseNumber(t.Text)
		if err != nil {
			return nil, ParseErrorAt(t.Offset, "number", describe(t))
		}
		return f, nil
	case TokIdent:
		p.advance()
		if b, err := strconv.ParseBool(t.Text); err == nil {
			return b, nil
		}
		return t.Text, nil
	default:
		return nil, ParseErrorAt(t.Offset, "value", describe(t))
	}
}
