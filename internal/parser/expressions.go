package parser

import (
	"github.com/scorelang/scorec/internal/ast"
	"github.com/scorelang/scorec/internal/lexer"
)

// theNames is the closed set of environment queries recognised after `the`.
var theNames = map[string]bool{
	"moviepath":    true,
	"frame":        true,
	"dirseparator": true,
	"randomseed":   true,
	"milliseconds": true,
	"platform":     true,
}

// wordLiterals maps the closed set of word-literal constants to their
// folded Literal representation. Populated by init below since it needs
// the Literal constructor helpers.
var wordLiterals map[string]*ast.Literal

func init() {
	lit := func(kind ast.LitKind, i int32, f float64, s string) *ast.Literal {
		return &ast.Literal{Kind: kind, Int: i, Float: f, Str: s}
	}
	wordLiterals = map[string]*ast.Literal{
		"true":      lit(ast.LitInt, 1, 0, ""),
		"false":     lit(ast.LitInt, 0, 0, ""),
		"pi":        lit(ast.LitFloat, 0, 3.14159265358979323846, ""),
		"quote":     lit(ast.LitString, 0, 0, "\""),
		"empty":     lit(ast.LitString, 0, 0, ""),
		"enter":     lit(ast.LitString, 0, 0, "\x03"),
		"return":    lit(ast.LitString, 0, 0, "\r"),
		"space":     lit(ast.LitString, 0, 0, " "),
		"tab":       lit(ast.LitString, 0, 0, "\t"),
		"backspace": lit(ast.LitString, 0, 0, "\x08"),
		"void":      lit(ast.LitVoid, 0, 0, ""),
	}
}

// wordLiteralAt returns a copy of the folded literal for name with pos
// attached, or nil if name is not one of the closed-set word literals.
func wordLiteralAt(name string, pos lexer.Position) *ast.Literal {
	l, ok := wordLiterals[name]
	if !ok {
		return nil
	}
	cp := *l
	cp.Pos = pos
	return &cp
}

// parseExpr parses a full expression at comparison precedence, the lowest
// level in the grammar.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseComparison()
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	return p.parseComparisonFrom(left)
}

// parseComparisonFrom continues comparison-level parsing with left already
// parsed as the first operand, so callers that need to inspect left (e.g.
// for an assignment target) before committing to expression parsing can
// resume the precedence chain partway up instead of reparsing from scratch.
func (p *Parser) parseComparisonFrom(left ast.Expr) (ast.Expr, error) {
	for {
		var op ast.BinOp
		switch {
		case p.isPunct(lexer.PEQ):
			op = ast.OpEq
		case p.isPunct(lexer.PNE):
			op = ast.OpNe
		case p.isPunct(lexer.PLT):
			op = ast.OpLt
		case p.isPunct(lexer.PGT):
			op = ast.OpGt
		case p.isPunct(lexer.PLE):
			op = ast.OpLe
		case p.isPunct(lexer.PGE):
			op = ast.OpGe
		default:
			return left, nil
		}
		pos := p.advance().Pos
		right, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseConcat() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return p.parseConcatFrom(left)
}

func (p *Parser) parseConcatFrom(left ast.Expr) (ast.Expr, error) {
	for {
		var op ast.BinOp
		switch {
		case p.isPunct(lexer.PAMP):
			op = ast.OpConcat
		case p.isPunct(lexer.PANDAND):
			op = ast.OpConcatSp
		default:
			return left, nil
		}
		pos := p.advance().Pos
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMulBool()
	if err != nil {
		return nil, err
	}
	return p.parseAdditiveFrom(left)
}

func (p *Parser) parseAdditiveFrom(left ast.Expr) (ast.Expr, error) {
	for {
		var op ast.BinOp
		switch {
		case p.isPunct(lexer.PPLUS):
			op = ast.OpAdd
		case p.isPunct(lexer.PMINUS):
			op = ast.OpSub
		default:
			return left, nil
		}
		pos := p.advance().Pos
		right, err := p.parseMulBool()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseMulBool() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.parseMulBoolFrom(left)
}

func (p *Parser) parseMulBoolFrom(left ast.Expr) (ast.Expr, error) {
	for {
		var op ast.BinOp
		switch {
		case p.isPunct(lexer.PSTAR):
			op = ast.OpMul
		case p.isPunct(lexer.PSLASH):
			op = ast.OpDiv
		case p.isKeyword(lexer.KwMod):
			op = ast.OpMod
		case p.isKeyword(lexer.KwAnd):
			op = ast.OpAnd
		case p.isKeyword(lexer.KwOr):
			op = ast.OpOr
		default:
			return left, nil
		}
		pos := p.advance().Pos
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Pos: pos, Op: op, Left: left, Right: right}
	}
}

// continueExprFrom resumes the precedence chain above the postfix-chain
// level with left already parsed, climbing mulbool -> additive -> concat ->
// comparison. Used by statement-level assignment parsing, which must parse
// a candidate assignment target through the postfix chain before deciding
// whether a following '=' is an assignment or (further up) an equality
// comparison.
func (p *Parser) continueExprFrom(left ast.Expr) (ast.Expr, error) {
	left, err := p.parseMulBoolFrom(left)
	if err != nil {
		return nil, err
	}
	left, err = p.parseAdditiveFrom(left)
	if err != nil {
		return nil, err
	}
	left, err = p.parseConcatFrom(left)
	if err != nil {
		return nil, err
	}
	return p.parseComparisonFrom(left)
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.isPunct(lexer.PMINUS) {
		pos := p.advance().Pos
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if lit, ok := x.(*ast.Literal); ok {
			switch lit.Kind {
			case ast.LitInt:
				cp := *lit
				cp.Pos = pos
				cp.Int = -cp.Int
				return &cp, nil
			case ast.LitFloat:
				cp := *lit
				cp.Pos = pos
				cp.Float = -cp.Float
				return &cp, nil
			}
		}
		return &ast.UnaryExpr{Pos: pos, Op: ast.OpNeg, X: x}, nil
	}
	if p.isKeyword(lexer.KwNot) {
		pos := p.advance().Pos
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Pos: pos, Op: ast.OpNot, X: x}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct(lexer.PLPAREN):
			ident, ok := x.(*ast.Ident)
			if !ok {
				return x, nil
			}
			pos := p.advance().Pos
			args, err := p.parseArgListUntil(lexer.PRPAREN)
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(lexer.PRPAREN); err != nil {
				return nil, err
			}
			x = &ast.CallExpr{Pos: pos, Name: ident.Name, Args: args}

		case p.isPunct(lexer.PDOT):
			pos := p.advance().Pos
			key, err := p.expectWord()
			if err != nil {
				return nil, err
			}
			x = &ast.DotExpr{Pos: pos, Object: x, Key: key}

		case p.isPunct(lexer.PLBRACK):
			pos := p.advance().Pos
			start, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			var end ast.Expr
			if p.isPunct(lexer.PRANGE) {
				p.advance()
				end, err = p.parseExpr()
				if err != nil {
					return nil, err
				}
			}
			if err := p.expectPunct(lexer.PRBRACK); err != nil {
				return nil, err
			}
			x = &ast.IndexExpr{Pos: pos, Object: x, Start: start, End: end}

		default:
			return x, nil
		}
	}
}

// parseArgListUntil parses a comma-separated expression list up to (but not
// consuming) the closing punctuation close.
func (p *Parser) parseArgListUntil(close lexer.Punct) ([]ast.Expr, error) {
	var args []ast.Expr
	if p.isPunct(close) {
		return args, nil
	}
	for {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.isPunct(lexer.PCOMMA) {
			p.advance()
			continue
		}
		break
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.cur()
	switch t.Kind {
	case lexer.INT:
		p.advance()
		return &ast.Literal{Pos: t.Pos, Kind: ast.LitInt, Int: t.Int}, nil

	case lexer.FLOAT:
		p.advance()
		return &ast.Literal{Pos: t.Pos, Kind: ast.LitFloat, Float: t.Float}, nil

	case lexer.STRING:
		p.advance()
		return &ast.Literal{Pos: t.Pos, Kind: ast.LitString, Str: t.Text}, nil

	case lexer.SYMBOL:
		p.advance()
		return &ast.Literal{Pos: t.Pos, Kind: ast.LitSymbol, Str: t.Text}, nil

	case lexer.PUNCT:
		switch t.Punct {
		case lexer.PLPAREN:
			p.advance()
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(lexer.PRPAREN); err != nil {
				return nil, err
			}
			return x, nil
		case lexer.PLBRACK:
			return p.parseListOrPropList()
		}

	case lexer.WORD:
		if t.Word == lexer.WordThe {
			p.advance()
			name, err := p.expectWord()
			if err != nil {
				return nil, err
			}
			if !theNames[name] {
				return nil, p.errorf(t.Pos, "unknown environment query: the %s", name)
			}
			return &ast.TheExpr{Pos: t.Pos, Name: name}, nil
		}
		if lit := wordLiteralAt(t.Text, t.Pos); lit != nil {
			p.advance()
			return lit, nil
		}
		p.advance()
		if p.table == nil {
			return &ast.Ident{Pos: t.Pos, Name: t.Text, Scope: ast.ScopeGlobal}, nil
		}
		if scope, _, ok := p.table.Resolve(t.Text); ok {
			return &ast.Ident{Pos: t.Pos, Name: t.Text, Scope: scope}, nil
		}
		// Unresolved identifier: only legal immediately followed by `(`,
		// treated as a dynamic-dispatch handler call.
		if p.isPunct(lexer.PLPAREN) {
			return &ast.Ident{Pos: t.Pos, Name: t.Text, Scope: ast.ScopeGlobal}, nil
		}
		return nil, p.errorf(t.Pos, "undeclared identifier: %s", t.Text)
	}

	return nil, p.errorf(t.Pos, "unexpected token in expression: %s", t)
}

// parseListOrPropList parses `[a, b, c]` or `[#k: v, #k: v]` (and `[]`,
// `[:]` for the respective empty forms).
func (p *Parser) parseListOrPropList() (ast.Expr, error) {
	pos := p.advance().Pos // `[`

	if p.isPunct(lexer.PRBRACK) {
		p.advance()
		return &ast.ListExpr{Pos: pos}, nil
	}
	if p.isPunct(lexer.PCOLON) {
		p.advance()
		if err := p.expectPunct(lexer.PRBRACK); err != nil {
			return nil, err
		}
		return &ast.PropListExpr{Pos: pos}, nil
	}

	if p.cur().Kind == lexer.SYMBOL {
		pl := &ast.PropListExpr{Pos: pos}
		for {
			if p.cur().Kind != lexer.SYMBOL {
				return nil, p.errorf(p.cur().Pos, "expected a symbol key, got %s", p.cur())
			}
			key := p.advance().Text
			if err := p.expectPunct(lexer.PCOLON); err != nil {
				return nil, err
			}
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			pl.Keys = append(pl.Keys, key)
			pl.Values = append(pl.Values, val)
			if p.isPunct(lexer.PCOMMA) {
				p.advance()
				continue
			}
			break
		}
		if err := p.expectPunct(lexer.PRBRACK); err != nil {
			return nil, err
		}
		return pl, nil
	}

	lst := &ast.ListExpr{Pos: pos}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		lst.Elems = append(lst.Elems, e)
		if p.isPunct(lexer.PCOMMA) {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(lexer.PRBRACK); err != nil {
		return nil, err
	}
	return lst, nil
}
