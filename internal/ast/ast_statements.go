package ast

import "github.com/scorelang/scorec/internal/lexer"

// Stmt is implemented by every statement node.
type Stmt interface {
	Position() lexer.Position
}

// ReturnStmt is `return [expr]`.
type ReturnStmt struct {
	Pos   lexer.Position
	Value Expr // nil for a bare `return`
}

func (r *ReturnStmt) Position() lexer.Position { return r.Pos }

// AssignStmt is `target = expr`, where target is an Ident, DotExpr, or
// IndexExpr.
type AssignStmt struct {
	Pos    lexer.Position
	Target Expr
	Value  Expr
}

func (a *AssignStmt) Position() lexer.Position { return a.Pos }

// ExprStmt evaluates an expression and discards the result.
type ExprStmt struct {
	Pos lexer.Position
	X   Expr
}

func (e *ExprStmt) Position() lexer.Position { return e.Pos }

// CallStmt is the handler-invocation statement: a bareword followed on the
// same line by {line-end, word, string, number, #}, parsed as a call to the
// named handler with the remaining comma-separated expressions as arguments.
type CallStmt struct {
	Pos  lexer.Position
	Name string
	Args []Expr
}

func (c *CallStmt) Position() lexer.Position { return c.Pos }

// ElseIf is one `else if cond then` branch of an If.
type ElseIf struct {
	Cond Expr
	Body []Stmt
}

// IfStmt supports both the one-line form (Then/Else hold a single
// statement) and the block form with interleaved else-if/else branches.
type IfStmt struct {
	Pos     lexer.Position
	Cond    Expr
	Then    []Stmt
	ElseIfs []ElseIf
	Else    []Stmt // nil if no else branch
}

func (i *IfStmt) Position() lexer.Position { return i.Pos }

// RepeatWhileStmt is `repeat while cond ... end repeat`.
type RepeatWhileStmt struct {
	Pos  lexer.Position
	Cond Expr
	Body []Stmt
}

func (r *RepeatWhileStmt) Position() lexer.Position { return r.Pos }

// RepeatToStmt is `repeat with var = init [down] to stop ... end repeat`.
type RepeatToStmt struct {
	Pos  lexer.Position
	Var  string
	Init Expr
	Stop Expr
	Down bool
	Body []Stmt
}

func (r *RepeatToStmt) Position() lexer.Position { return r.Pos }

// RepeatInStmt is `repeat with var in iterable ... end repeat`, iterating
// indices 1..length of the iterable.
type RepeatInStmt struct {
	Pos      lexer.Position
	Var      string
	Iterable Expr
	Body     []Stmt
}

func (r *RepeatInStmt) Position() lexer.Position { return r.Pos }

// ExitRepeatStmt is `exit repeat`.
type ExitRepeatStmt struct {
	Pos lexer.Position
}

func (e *ExitRepeatStmt) Position() lexer.Position { return e.Pos }

// NextRepeatStmt is `next repeat`.
type NextRepeatStmt struct {
	Pos lexer.Position
}

func (n *NextRepeatStmt) Position() lexer.Position { return n.Pos }

// PutStmt is bare `put expr` (prints) or `put expr after/before expr`
// (mutates a target string or indexed slot in place).
type PutStmt struct {
	Pos    lexer.Position
	Value  Expr
	Target Expr // nil for a bare print
	Before bool // true for `before`, false for `after`
}

func (p *PutStmt) Position() lexer.Position { return p.Pos }

// CaseClause is one `value: body` arm of a CaseStmt.
type CaseClause struct {
	Value Expr
	Body  []Stmt
}

// GlobalDeclStmt is a `global name, name, ...` declaration appearing inside
// a handler body rather than at script level. It binds the named
// identifiers to global scope for the remainder of the enclosing handler;
// it has no runtime effect of its own, so the emitter skips it.
type GlobalDeclStmt struct {
	Pos   lexer.Position
	Names []string
}

func (g *GlobalDeclStmt) Position() lexer.Position { return g.Pos }

// CaseStmt is `case expr of clause... [otherwise ...] end case`.
type CaseStmt struct {
	Pos       lexer.Position
	Subject   Expr
	Clauses   []CaseClause
	Otherwise []Stmt // nil if no otherwise branch
}

func (c *CaseStmt) Position() lexer.Position { return c.Pos }
