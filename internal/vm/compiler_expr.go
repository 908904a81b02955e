package vm

import (
	"github.com/scorelang/scorec/internal/ast"
)

// emitExpr compiles x so that evaluating it leaves exactly one value on
// the stack.
func (e *emitter) emitExpr(x ast.Expr) error {
	line := e.at(x.Position())

	switch n := x.(type) {
	case *ast.Literal:
		return e.emitLiteral(n, line)

	case *ast.Ident:
		return e.emitLoadIdent(n, line)

	case *ast.TheExpr:
		id, ok := theNameToID[n.Name]
		if !ok {
			return emitErrorf(n.Pos, "unknown environment query: the %s", n.Name)
		}
		e.b.Emit(OpThe, 0, uint8(id), line)
		return nil

	case *ast.ListExpr:
		return e.emitListExpr(n, line)

	case *ast.PropListExpr:
		return e.emitPropListExpr(n, line)

	case *ast.BinaryExpr:
		return e.emitBinary(n)

	case *ast.UnaryExpr:
		if err := e.emitExpr(n.X); err != nil {
			return err
		}
		switch n.Op {
		case ast.OpNeg:
			e.b.Emit(OpUnm, 0, 0, e.at(n.Pos))
		case ast.OpNot:
			e.b.Emit(OpNot, 0, 0, e.at(n.Pos))
		}
		return nil

	case *ast.DotExpr:
		return e.emitDot(n)

	case *ast.IndexExpr:
		return e.emitIndexRead(n)

	case *ast.CallExpr:
		return e.emitCall(n)

	default:
		return emitErrorf(x.Position(), "unhandled expression node")
	}
}

func (e *emitter) emitLiteral(n *ast.Literal, line int) error {
	switch n.Kind {
	case ast.LitVoid:
		e.b.Emit(OpLoadVoid, 0, 0, line)
		return nil
	case ast.LitInt:
		switch n.Int {
		case 0:
			e.b.Emit(OpLoadI0, 0, 0, line)
		case 1:
			e.b.Emit(OpLoadI1, 0, 0, line)
		default:
			k, err := e.b.AddIntConst(n.Int)
			if err != nil {
				return err
			}
			e.b.Emit(OpLoadC, k, 0, line)
		}
		return nil
	case ast.LitFloat:
		k, err := e.b.AddFloatConst(n.Float)
		if err != nil {
			return err
		}
		e.b.Emit(OpLoadC, k, 0, line)
		return nil
	case ast.LitString:
		k, err := e.b.AddStringConst(n.Str)
		if err != nil {
			return err
		}
		e.b.Emit(OpLoadC, k, 0, line)
		return nil
	case ast.LitSymbol:
		k, err := e.b.AddSymbolConst(n.Str)
		if err != nil {
			return err
		}
		e.b.Emit(OpLoadC, k, 0, line)
		return nil
	default:
		return emitErrorf(n.Pos, "unhandled literal kind")
	}
}

func (e *emitter) emitLoadIdent(n *ast.Ident, line int) error {
	switch n.Scope {
	case ast.ScopeLocal:
		slot, ok := e.slots[n.Name]
		if !ok {
			return emitErrorf(n.Pos, "unresolved local %q", n.Name)
		}
		if slot == 0 {
			e.b.Emit(OpLoadL0, 0, 0, line)
		} else {
			e.b.Emit(OpLoadL, uint16(slot), 0, line)
		}
		return nil
	case ast.ScopeGlobal:
		k, err := e.b.AddSymbolConst(n.Name)
		if err != nil {
			return err
		}
		e.b.Emit(OpLoadG, k, 0, line)
		return nil
	case ast.ScopeProperty:
		k, err := e.b.AddSymbolConst(n.Name)
		if err != nil {
			return err
		}
		e.b.Emit(OpLoadL0, 0, 0, line)
		e.b.Emit(OpLoadC, k, 0, line)
		e.b.Emit(OpOidxg, 0, 0, line)
		return nil
	default:
		return emitErrorf(n.Pos, "identifier has no resolved scope")
	}
}

func (e *emitter) emitListExpr(n *ast.ListExpr, line int) error {
	e.b.Emit(OpNewLList, uint16(len(n.Elems)), 0, line)
	addK, err := e.b.AddSymbolConst("add")
	if err != nil {
		return err
	}
	for _, el := range n.Elems {
		e.b.Emit(OpDup, 0, 0, e.at(el.Position()))
		if err := e.emitExpr(el); err != nil {
			return err
		}
		e.b.Emit(OpOcall, addK, 1, e.lastLine)
		e.b.Emit(OpPop, 0, 0, e.lastLine)
	}
	return nil
}

func (e *emitter) emitPropListExpr(n *ast.PropListExpr, line int) error {
	e.b.Emit(OpNewPList, 0, 0, line)
	for i, key := range n.Keys {
		pos := n.Values[i].Position()
		e.b.Emit(OpDup, 0, 0, e.at(pos))
		keyK, err := e.b.AddSymbolConst(key)
		if err != nil {
			return err
		}
		e.b.Emit(OpLoadC, keyK, 0, e.lastLine)
		if err := e.emitExpr(n.Values[i]); err != nil {
			return err
		}
		e.b.Emit(OpOidxs, 0, 0, e.lastLine)
	}
	return nil
}

var binOpcodes = map[ast.BinOp]Opcode{
	ast.OpLt: OpLt, ast.OpGt: OpGt, ast.OpLe: OpLte, ast.OpGe: OpGte,
	ast.OpConcat: OpConcat, ast.OpConcatSp: OpConcatSp,
	ast.OpAdd: OpAdd, ast.OpSub: OpSub, ast.OpMul: OpMul, ast.OpDiv: OpDiv, ast.OpMod: OpMod,
	ast.OpAnd: OpAnd, ast.OpOr: OpOr,
}

func (e *emitter) emitBinary(n *ast.BinaryExpr) error {
	if err := e.emitExpr(n.Left); err != nil {
		return err
	}
	if err := e.emitExpr(n.Right); err != nil {
		return err
	}
	line := e.at(n.Pos)

	switch n.Op {
	case ast.OpEq:
		e.b.Emit(OpEq, 0, 0, line)
		return nil
	case ast.OpNe:
		e.b.Emit(OpEq, 0, 0, line)
		e.b.Emit(OpNot, 0, 0, line)
		return nil
	}
	op, ok := binOpcodes[n.Op]
	if !ok {
		return emitErrorf(n.Pos, "unhandled binary operator")
	}
	e.b.Emit(op, 0, 0, line)
	return nil
}

// emitDot compiles a standalone `obj.key` read. The OIDXK fusion is only
// used when a DotExpr is itself the object of an enclosing IndexExpr; on
// its own, a dot read is plain OIDXG.
func (e *emitter) emitDot(n *ast.DotExpr) error {
	if err := e.emitExpr(n.Object); err != nil {
		return err
	}
	keyK, err := e.b.AddSymbolConst(n.Key)
	if err != nil {
		return err
	}
	line := e.at(n.Pos)
	e.b.Emit(OpLoadC, keyK, 0, line)
	e.b.Emit(OpOidxg, 0, 0, line)
	return nil
}

// emitIndexRead compiles `obj[i]` / `obj[a..b]`, fusing a preceding dot
// into OIDXK/OIDXKR to avoid materialising the intermediate obj.key value,
// and lowering a dot-less ranged index through OIDXKR with a void key
// (interpreted by the VM as "range the object directly").
func (e *emitter) emitIndexRead(n *ast.IndexExpr) error {
	dot, fused := n.Object.(*ast.DotExpr)

	if fused {
		if err := e.emitExpr(dot.Object); err != nil {
			return err
		}
		keyK, err := e.b.AddSymbolConst(dot.Key)
		if err != nil {
			return err
		}
		e.b.Emit(OpLoadC, keyK, 0, e.at(dot.Pos))
	} else {
		if err := e.emitExpr(n.Object); err != nil {
			return err
		}
	}

	if n.End == nil {
		if err := e.emitExpr(n.Start); err != nil {
			return err
		}
		line := e.at(n.Pos)
		if fused {
			e.b.Emit(OpOidxk, 0, 0, line)
		} else {
			e.b.Emit(OpOidxg, 0, 0, line)
		}
		return nil
	}

	if !fused {
		e.b.Emit(OpLoadVoid, 0, 0, e.at(n.Pos))
	}
	if err := e.emitExpr(n.Start); err != nil {
		return err
	}
	if err := e.emitExpr(n.End); err != nil {
		return err
	}
	e.b.Emit(OpOidxkr, 0, 0, e.at(n.Pos))
	return nil
}

func (e *emitter) emitCall(n *ast.CallExpr) error {
	for _, a := range n.Args {
		if err := e.emitExpr(a); err != nil {
			return err
		}
	}
	if len(n.Args) > 255 {
		return emitErrorf(n.Pos, "call has more than 255 arguments")
	}
	k, err := e.b.AddSymbolConst(n.Name)
	if err != nil {
		return err
	}
	e.b.Emit(OpCall, k, uint8(len(n.Args)), e.at(n.Pos))
	return nil
}
