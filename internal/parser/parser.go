// Package parser turns a Score token stream into an ast.Script, resolving
// identifier scope (property/global/local) as it walks each handler body.
package parser

import (
	"fmt"

	"github.com/scorelang/scorec/internal/ast"
	"github.com/scorelang/scorec/internal/lexer"
	"github.com/scorelang/scorec/internal/symbols"
)

// ParseError is raised on structural error: unexpected token, duplicate
// declaration, or use of an undeclared variable in a non-call position.
type ParseError struct {
	Pos lexer.Position
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Parser consumes a fixed token slice (produced by the lexer ahead of
// time) and never reads past its end without raising a ParseError.
type Parser struct {
	toks []lexer.Token
	pos  int

	scriptProps   []string
	scriptGlobals []string
	propSet       map[string]bool
	globalSet     map[string]bool

	table *symbols.Table // active handler's scope table, nil at script level
}

// Parse lexes src completely and parses it into a Script.
func Parse(src string) (*ast.Script, error) {
	lx := lexer.New(src)
	toks, err := lx.Tokens()
	if err != nil {
		return nil, err
	}
	p := New(toks)
	return p.ParseScript()
}

// New builds a Parser over an already-lexed token stream.
func New(toks []lexer.Token) *Parser {
	return &Parser{
		toks:      toks,
		propSet:   make(map[string]bool),
		globalSet: make(map[string]bool),
	}
}

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(off int) lexer.Token {
	i := p.pos + off
	if i >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.cur().Kind == lexer.EOF }

func (p *Parser) errorf(pos lexer.Position, format string, args ...interface{}) error {
	return &ParseError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) skipLineEnds() {
	for p.cur().Kind == lexer.LINEEND {
		p.advance()
	}
}

// expectWord consumes a WORD token and returns its text, or errors.
func (p *Parser) expectWord() (string, error) {
	t := p.cur()
	if t.Kind != lexer.WORD {
		return "", p.errorf(t.Pos, "expected identifier, got %s", t)
	}
	p.advance()
	return t.Text, nil
}

func (p *Parser) expectPunct(pt lexer.Punct) error {
	t := p.cur()
	if t.Kind != lexer.PUNCT || t.Punct != pt {
		return p.errorf(t.Pos, "expected %q, got %s", pt, t)
	}
	p.advance()
	return nil
}

func (p *Parser) isPunct(pt lexer.Punct) bool {
	t := p.cur()
	return t.Kind == lexer.PUNCT && t.Punct == pt
}

func (p *Parser) isKeyword(kw lexer.Keyword) bool {
	t := p.cur()
	return t.Kind == lexer.KEYWORD && t.Keyword == kw
}

func (p *Parser) isReserved(w lexer.WordID) bool {
	t := p.cur()
	return t.Kind == lexer.WORD && t.Word == w
}

func (p *Parser) isStatementTerminator() bool {
	t := p.cur()
	return t.Kind == lexer.EOF ||
		t.Kind == lexer.LINEEND ||
		p.isReserved(lexer.WordEnd) ||
		p.isKeyword(lexer.KwElse) ||
		p.isReserved(lexer.WordOtherwise)
}

// ParseScript parses the whole token stream into a Script.
func (p *Parser) ParseScript() (*ast.Script, error) {
	script := &ast.Script{}

	for {
		p.skipLineEnds()
		if p.atEOF() {
			break
		}

		switch {
		case p.isReserved(lexer.WordGlobal):
			names, err := p.parseNameList()
			if err != nil {
				return nil, err
			}
			for _, n := range names {
				if p.globalSet[n] {
					return nil, p.errorf(p.cur().Pos, "duplicate global declaration: %s", n)
				}
				p.globalSet[n] = true
				p.scriptGlobals = append(p.scriptGlobals, n)
			}
			script.Globals = p.scriptGlobals

		case p.isReserved(lexer.WordProperty):
			names, err := p.parseNameList()
			if err != nil {
				return nil, err
			}
			for _, n := range names {
				if p.propSet[n] {
					return nil, p.errorf(p.cur().Pos, "duplicate property declaration: %s", n)
				}
				p.propSet[n] = true
				p.scriptProps = append(p.scriptProps, n)
			}
			script.Properties = p.scriptProps

		case p.isKeyword(lexer.KwOn):
			h, err := p.parseHandler()
			if err != nil {
				return nil, err
			}
			script.Handlers = append(script.Handlers, h)

		default:
			t := p.cur()
			return nil, p.errorf(t.Pos, "unexpected token at script level: %s", t)
		}
	}

	return script, nil
}

// parseNameList parses `KEYWORD name, name, …` up to the line end.
func (p *Parser) parseNameList() ([]string, error) {
	p.advance() // consume `global` or `property`
	var names []string
	for {
		name, err := p.expectWord()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if p.isPunct(lexer.PCOMMA) {
			p.advance()
			continue
		}
		break
	}
	if !p.isStatementTerminator() {
		return nil, p.errorf(p.cur().Pos, "expected end of line after declaration, got %s", p.cur())
	}
	return names, nil
}

// parseHandler parses `on name [params] … end [name]`.
func (p *Parser) parseHandler() (*ast.Handler, error) {
	onTok := p.advance() // `on`

	name, err := p.expectWord()
	if err != nil {
		return nil, err
	}

	h := &ast.Handler{Pos: onTok.Pos, Name: name}

	table := symbols.New(p.scriptProps, p.scriptGlobals)

	var paramNames []string
	switch {
	case p.isPunct(lexer.PLPAREN):
		p.advance()
		if !p.isPunct(lexer.PRPAREN) {
			for {
				pn, err := p.expectWord()
				if err != nil {
					return nil, err
				}
				paramNames = append(paramNames, pn)
				if p.isPunct(lexer.PCOMMA) {
					p.advance()
					continue
				}
				break
			}
		}
		if err := p.expectPunct(lexer.PRPAREN); err != nil {
			return nil, err
		}
	case p.cur().Kind == lexer.LINEEND || p.atEOF():
		// no parameters
	default:
		for {
			pn, err := p.expectWord()
			if err != nil {
				return nil, err
			}
			paramNames = append(paramNames, pn)
			if p.isPunct(lexer.PCOMMA) {
				p.advance()
				continue
			}
			if p.cur().Kind == lexer.LINEEND || p.atEOF() {
				break
			}
		}
	}

	for _, pn := range paramNames {
		if err := table.DeclareParam(pn); err != nil {
			return nil, p.errorf(onTok.Pos, "%s", err)
		}
	}
	h.Params = table.Params()

	p.skipLineEnds()

	p.table = table
	body, err := p.parseStatementList(func() bool { return p.isReserved(lexer.WordEnd) })
	p.table = nil
	if err != nil {
		return nil, err
	}
	h.Body = body

	if !p.isReserved(lexer.WordEnd) {
		return nil, p.errorf(p.cur().Pos, "expected 'end' to close handler %s, got %s", name, p.cur())
	}
	p.advance()
	// Optional trailing echo of the handler name on the same line as `end`.
	for p.cur().Kind == lexer.WORD && p.cur().Kind != lexer.LINEEND {
		p.advance()
		break
	}
	h.Locals = table.Locals()

	return h, nil
}
