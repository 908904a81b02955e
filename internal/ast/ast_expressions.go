package ast

import "github.com/scorelang/scorec/internal/lexer"

// Expr is implemented by every expression node.
type Expr interface {
	Position() lexer.Position
}

// LitKind tags the shape of a Literal.
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitSymbol
	LitVoid
)

// Literal is a constant value folded at parse time: a number, string,
// symbol-literal, or one of the word-literal constants (true, false, pi,
// quote, empty, enter, return, space, tab, backspace, void).
type Literal struct {
	Pos   lexer.Position
	Kind  LitKind
	Int   int32
	Float float64
	Str   string // string/symbol text
}

func (l *Literal) Position() lexer.Position { return l.Pos }

// Ident is a resolved identifier reference.
type Ident struct {
	Pos   lexer.Position
	Name  string
	Scope Scope
}

func (i *Ident) Position() lexer.Position { return i.Pos }

// TheExpr is `the X`, one of the closed set of environment queries.
type TheExpr struct {
	Pos  lexer.Position
	Name string
}

func (t *TheExpr) Position() lexer.Position { return t.Pos }

// ListExpr is a `[a, b, c]` linear-list literal.
type ListExpr struct {
	Pos   lexer.Position
	Elems []Expr
}

func (l *ListExpr) Position() lexer.Position { return l.Pos }

// PropListExpr is a `[#k1: v1, #k2: v2]` property-list literal.
type PropListExpr struct {
	Pos    lexer.Position
	Keys   []string
	Values []Expr
}

func (p *PropListExpr) Position() lexer.Position { return p.Pos }

// BinOp enumerates binary operators.
type BinOp int

const (
	OpEq BinOp = iota
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpConcat   // &
	OpConcatSp // &&
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
)

// BinaryExpr is a binary operator application.
type BinaryExpr struct {
	Pos   lexer.Position
	Op    BinOp
	Left  Expr
	Right Expr
}

func (b *BinaryExpr) Position() lexer.Position { return b.Pos }

// UnOp enumerates unary operators.
type UnOp int

const (
	OpNeg UnOp = iota
	OpNot
)

// UnaryExpr is a unary operator application. Unary minus on a numeric
// literal is folded into a Literal by the parser and never reaches here.
type UnaryExpr struct {
	Pos lexer.Position
	Op  UnOp
	X   Expr
}

func (u *UnaryExpr) Position() lexer.Position { return u.Pos }

// DotExpr is `obj.key`.
type DotExpr struct {
	Pos    lexer.Position
	Object Expr
	Key    string
}

func (d *DotExpr) Position() lexer.Position { return d.Pos }

// IndexExpr is `obj[index]` or, when End is non-nil, the range form
// `obj[start..end]`.
type IndexExpr struct {
	Pos   lexer.Position
	Object Expr
	Start  Expr
	End    Expr // nil unless this is a range index
}

func (x *IndexExpr) Position() lexer.Position { return x.Pos }

// CallExpr is a handler invocation appearing in expression position:
// either an identifier immediately followed by `(`, or a dot/bareword
// dynamic dispatch resolved at parse time to a plain call.
type CallExpr struct {
	Pos  lexer.Position
	Name string
	Args []Expr
}

func (c *CallExpr) Position() lexer.Position { return c.Pos }
