package parser

import (
	"github.com/scorelang/scorec/internal/ast"
	"github.com/scorelang/scorec/internal/lexer"
)

func (p *Parser) expectKeyword(kw lexer.Keyword) error {
	t := p.cur()
	if t.Kind != lexer.KEYWORD || t.Keyword != kw {
		return p.errorf(t.Pos, "expected %q, got %s", kw, t)
	}
	p.advance()
	return nil
}

func (p *Parser) consumeEnd(tag string) error {
	if !p.isReserved(lexer.WordEnd) {
		return p.errorf(p.cur().Pos, "expected 'end', got %s", p.cur())
	}
	p.advance()
	if p.cur().Kind == lexer.WORD && p.cur().Text == tag {
		p.advance()
	}
	return nil
}

// parseStatementList parses statements separated by line-ends until stop
// reports true or the stream runs out.
func (p *Parser) parseStatementList(stop func() bool) ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for {
		p.skipLineEnds()
		if p.atEOF() || stop() {
			break
		}
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		if !(p.cur().Kind == lexer.LINEEND || p.atEOF() || stop()) {
			return nil, p.errorf(p.cur().Pos, "expected end of statement, got %s", p.cur())
		}
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	t := p.cur()
	switch {
	case p.isReserved(lexer.WordReturn):
		return p.parseReturn()
	case p.isReserved(lexer.WordPut):
		return p.parsePut()
	case p.isReserved(lexer.WordIf):
		return p.parseIf()
	case p.isReserved(lexer.WordRepeat):
		return p.parseRepeat()
	case p.isReserved(lexer.WordCase):
		return p.parseCase()
	case p.isReserved(lexer.WordGlobal):
		return p.parseHandlerGlobal()
	case t.Kind == lexer.WORD && t.Text == "exit":
		return p.parseExitRepeat()
	case t.Kind == lexer.WORD && t.Text == "next":
		return p.parseNextRepeat()
	case t.Kind == lexer.WORD:
		return p.parseWordStatement()
	default:
		return p.parseExprStmtOrAssign()
	}
}

// parseExprStmtOrAssign parses a statement beginning with an expression:
// either an assignment (target followed by '=') or a bare expression
// evaluated and discarded. The target is parsed through the postfix-chain
// level directly, before any of the binary-operator levels run, so a
// following '=' is seen as the assignment operator rather than being
// swallowed by parseComparison as equality on the way back up. Only once
// '=' is ruled out does parsing resume up the rest of the precedence chain
// from the already-parsed target.
func (p *Parser) parseExprStmtOrAssign() (ast.Stmt, error) {
	pos := p.cur().Pos
	target, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.isPunct(lexer.PEQ) {
		eqPos := p.advance().Pos
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Pos: eqPos, Target: target, Value: val}, nil
	}
	x, err := p.continueExprFrom(target)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Pos: pos, X: x}, nil
}

// isCallLookahead reports whether la is one of the token kinds that,
// following a bareword on the same line, mark it as a handler-invocation
// statement rather than a variable reference.
func isCallLookahead(la lexer.Token) bool {
	switch la.Kind {
	case lexer.LINEEND, lexer.WORD, lexer.STRING, lexer.INT, lexer.FLOAT, lexer.SYMBOL, lexer.EOF:
		return true
	}
	return false
}

// parseHandlerGlobal parses a `global name, name, ...` declaration inside a
// handler body. Unlike the script-level form, it binds names into this
// handler's own scope table rather than the script-wide set, so a name
// declared global in one handler doesn't leak that binding into another.
func (p *Parser) parseHandlerGlobal() (ast.Stmt, error) {
	pos := p.cur().Pos
	names, err := p.parseNameList()
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		p.table.DeclareGlobal(n)
	}
	return &ast.GlobalDeclStmt{Pos: pos, Names: names}, nil
}

// parseWordStatement disambiguates a statement beginning with a bare WORD:
// simple assignment, the handler-invocation oddity, or a generic
// postfix-chain expression (dot/index/paren-call) optionally assigned to.
func (p *Parser) parseWordStatement() (ast.Stmt, error) {
	t := p.cur()
	la := p.peekAt(1)

	if la.Kind == lexer.PUNCT && la.Punct == lexer.PEQ {
		p.advance() // name
		p.advance() // '='
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Pos: t.Pos, Target: p.resolveAssignTarget(t), Value: val}, nil
	}

	if isCallLookahead(la) {
		p.advance()
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		return &ast.CallStmt{Pos: t.Pos, Name: t.Text, Args: args}, nil
	}

	return p.parseExprStmtOrAssign()
}

// resolveAssignTarget builds the Ident for the `name = expr` shorthand,
// auto-declaring a local if name is not yet known in any scope.
func (p *Parser) resolveAssignTarget(t lexer.Token) ast.Expr {
	if p.table == nil {
		return &ast.Ident{Pos: t.Pos, Name: t.Text, Scope: ast.ScopeGlobal}
	}
	scope, _ := p.table.DeclareLocal(t.Text)
	return &ast.Ident{Pos: t.Pos, Name: t.Text, Scope: scope}
}

// parseCallArgs parses the handler-invocation statement's argument list: an
// optional leading comma, then expressions where every separator after the
// first is a required comma.
func (p *Parser) parseCallArgs() ([]ast.Expr, error) {
	if p.isPunct(lexer.PCOMMA) {
		p.advance()
	}
	if p.isStatementTerminator() {
		return nil, nil
	}
	var args []ast.Expr
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	args = append(args, first)
	for p.isPunct(lexer.PCOMMA) {
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
	}
	return args, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	pos := p.advance().Pos
	if p.isStatementTerminator() {
		return &ast.ReturnStmt{Pos: pos}, nil
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Pos: pos, Value: val}, nil
}

func (p *Parser) parsePut() (ast.Stmt, error) {
	pos := p.advance().Pos
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	st := &ast.PutStmt{Pos: pos, Value: val}
	switch {
	case p.isReserved(lexer.WordAfter):
		p.advance()
		st.Target, err = p.parseExpr()
	case p.isReserved(lexer.WordBefore):
		p.advance()
		st.Before = true
		st.Target, err = p.parseExpr()
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (p *Parser) isIfBlockEnd() bool {
	return p.isReserved(lexer.WordEnd) || p.isKeyword(lexer.KwElse)
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	pos := p.advance().Pos
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword(lexer.KwThen); err != nil {
		return nil, err
	}

	st := &ast.IfStmt{Pos: pos, Cond: cond}

	if p.cur().Kind == lexer.LINEEND {
		p.advance()
		st.Then, err = p.parseStatementList(p.isIfBlockEnd)
		if err != nil {
			return nil, err
		}
		for p.isKeyword(lexer.KwElse) {
			p.advance()
			if p.isReserved(lexer.WordIf) {
				p.advance()
				c2, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				if err := p.expectKeyword(lexer.KwThen); err != nil {
					return nil, err
				}
				p.skipLineEnds()
				body, err := p.parseStatementList(p.isIfBlockEnd)
				if err != nil {
					return nil, err
				}
				st.ElseIfs = append(st.ElseIfs, ast.ElseIf{Cond: c2, Body: body})
				continue
			}
			p.skipLineEnds()
			body, err := p.parseStatementList(p.isIfBlockEnd)
			if err != nil {
				return nil, err
			}
			st.Else = body
			break
		}
		if err := p.consumeEnd("if"); err != nil {
			return nil, err
		}
		return st, nil
	}

	thenStmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	st.Then = []ast.Stmt{thenStmt}
	if p.isKeyword(lexer.KwElse) {
		p.advance()
		elseStmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		st.Else = []ast.Stmt{elseStmt}
	}
	return st, nil
}

func (p *Parser) isRepeatEnd() bool { return p.isReserved(lexer.WordEnd) }

func (p *Parser) parseRepeat() (ast.Stmt, error) {
	pos := p.advance().Pos

	switch {
	case p.isReserved(lexer.WordWhile):
		p.advance()
		cond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseStatementList(p.isRepeatEnd)
		if err != nil {
			return nil, err
		}
		if err := p.consumeEnd("repeat"); err != nil {
			return nil, err
		}
		return &ast.RepeatWhileStmt{Pos: pos, Cond: cond, Body: body}, nil

	case p.isReserved(lexer.WordWith):
		p.advance()
		varName, err := p.expectWord()
		if err != nil {
			return nil, err
		}
		if p.table != nil {
			p.table.DeclareLocal(varName)
		}

		switch {
		case p.isPunct(lexer.PEQ):
			p.advance()
			init, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			down := false
			if p.isReserved(lexer.WordDown) {
				p.advance()
				down = true
			}
			if !p.isReserved(lexer.WordTo) {
				return nil, p.errorf(p.cur().Pos, "expected 'to' in repeat-with, got %s", p.cur())
			}
			p.advance()
			stop, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			body, err := p.parseStatementList(p.isRepeatEnd)
			if err != nil {
				return nil, err
			}
			if err := p.consumeEnd("repeat"); err != nil {
				return nil, err
			}
			return &ast.RepeatToStmt{Pos: pos, Var: varName, Init: init, Stop: stop, Down: down, Body: body}, nil

		case p.isReserved(lexer.WordIn):
			p.advance()
			iterable, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			body, err := p.parseStatementList(p.isRepeatEnd)
			if err != nil {
				return nil, err
			}
			if err := p.consumeEnd("repeat"); err != nil {
				return nil, err
			}
			return &ast.RepeatInStmt{Pos: pos, Var: varName, Iterable: iterable, Body: body}, nil
		}
		return nil, p.errorf(p.cur().Pos, "expected '=' or 'in' in repeat-with, got %s", p.cur())
	}
	return nil, p.errorf(p.cur().Pos, "expected 'while' or 'with' after repeat, got %s", p.cur())
}

func (p *Parser) parseExitRepeat() (ast.Stmt, error) {
	pos := p.advance().Pos
	if !p.isReserved(lexer.WordRepeat) {
		return nil, p.errorf(p.cur().Pos, "expected 'repeat' after 'exit', got %s", p.cur())
	}
	p.advance()
	return &ast.ExitRepeatStmt{Pos: pos}, nil
}

func (p *Parser) parseNextRepeat() (ast.Stmt, error) {
	pos := p.advance().Pos
	if !p.isReserved(lexer.WordRepeat) {
		return nil, p.errorf(p.cur().Pos, "expected 'repeat' after 'next', got %s", p.cur())
	}
	p.advance()
	return &ast.NextRepeatStmt{Pos: pos}, nil
}

func (p *Parser) parseCase() (ast.Stmt, error) {
	pos := p.advance().Pos
	subject, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.isReserved(lexer.WordOf) {
		return nil, p.errorf(p.cur().Pos, "expected 'of' after case subject, got %s", p.cur())
	}
	p.advance()

	st := &ast.CaseStmt{Pos: pos, Subject: subject}

	for {
		p.skipLineEnds()
		if p.isReserved(lexer.WordEnd) {
			break
		}
		if p.isReserved(lexer.WordOtherwise) {
			p.advance()
			if err := p.expectPunct(lexer.PCOLON); err != nil {
				return nil, err
			}
			s, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			st.Otherwise = []ast.Stmt{s}
			p.skipLineEnds()
			break
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(lexer.PCOLON); err != nil {
			return nil, err
		}
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		st.Clauses = append(st.Clauses, ast.CaseClause{Value: val, Body: []ast.Stmt{s}})
	}

	if err := p.consumeEnd("case"); err != nil {
		return nil, err
	}
	return st, nil
}
