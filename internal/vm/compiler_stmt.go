package vm

import (
	"github.com/scorelang/scorec/internal/ast"
)

// emitStmt compiles one statement, leaving the value stack exactly as it
// was before the call (every pushed intermediate is consumed).
func (e *emitter) emitStmt(s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.ReturnStmt:
		return e.emitReturn(n)
	case *ast.AssignStmt:
		return e.emitAssign(n)
	case *ast.ExprStmt:
		if err := e.emitExpr(n.X); err != nil {
			return err
		}
		e.b.Emit(OpPop, 0, 0, e.lastLine)
		return nil
	case *ast.CallStmt:
		return e.emitCallStmt(n)
	case *ast.IfStmt:
		return e.emitIf(n)
	case *ast.RepeatWhileStmt:
		return e.emitRepeatWhile(n)
	case *ast.RepeatToStmt:
		return e.emitRepeatTo(n)
	case *ast.RepeatInStmt:
		return e.emitRepeatIn(n)
	case *ast.ExitRepeatStmt:
		return e.emitExitRepeat(n)
	case *ast.NextRepeatStmt:
		return e.emitNextRepeat(n)
	case *ast.PutStmt:
		return e.emitPut(n)
	case *ast.CaseStmt:
		return e.emitCaseStmt(n)
	case *ast.GlobalDeclStmt:
		// Scope-only: the parser already bound these names to global
		// storage in its table. Nothing to emit.
		return nil
	default:
		return emitErrorf(s.Position(), "unhandled statement node")
	}
}

func (e *emitter) emitBody(body []ast.Stmt) error {
	for _, s := range body {
		if err := e.emitStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (e *emitter) emitReturn(n *ast.ReturnStmt) error {
	if n.Value == nil {
		e.b.Emit(OpLoadVoid, 0, 0, e.at(n.Pos))
	} else if err := e.emitExpr(n.Value); err != nil {
		return err
	}
	e.b.Emit(OpRet, 0, 0, e.lastLine)
	return nil
}

// emitAssign lowers every assignment target to the emitter's single
// (obj, key, value) push order for OIDXS, and to STOREL/STOREG for plain
// identifiers. See the package doc comment for why property and dot/index
// writes share one convention here.
func (e *emitter) emitAssign(n *ast.AssignStmt) error {
	switch t := n.Target.(type) {
	case *ast.Ident:
		switch t.Scope {
		case ast.ScopeLocal:
			if err := e.emitExpr(n.Value); err != nil {
				return err
			}
			slot, ok := e.slots[t.Name]
			if !ok {
				return emitErrorf(t.Pos, "unresolved local %q", t.Name)
			}
			e.b.Emit(OpStoreL, uint16(slot), 0, e.lastLine)
			return nil
		case ast.ScopeGlobal:
			if err := e.emitExpr(n.Value); err != nil {
				return err
			}
			k, err := e.b.AddSymbolConst(t.Name)
			if err != nil {
				return err
			}
			e.b.Emit(OpStoreG, k, 0, e.lastLine)
			return nil
		case ast.ScopeProperty:
			k, err := e.b.AddSymbolConst(t.Name)
			if err != nil {
				return err
			}
			line := e.at(t.Pos)
			e.b.Emit(OpLoadL0, 0, 0, line)
			e.b.Emit(OpLoadC, k, 0, line)
			if err := e.emitExpr(n.Value); err != nil {
				return err
			}
			e.b.Emit(OpOidxs, 0, 0, e.lastLine)
			return nil
		default:
			return emitErrorf(t.Pos, "identifier has no resolved scope")
		}

	case *ast.DotExpr:
		if err := e.emitExpr(t.Object); err != nil {
			return err
		}
		k, err := e.b.AddSymbolConst(t.Key)
		if err != nil {
			return err
		}
		e.b.Emit(OpLoadC, k, 0, e.at(t.Pos))
		if err := e.emitExpr(n.Value); err != nil {
			return err
		}
		e.b.Emit(OpOidxs, 0, 0, e.lastLine)
		return nil

	case *ast.IndexExpr:
		if t.End != nil {
			return emitErrorf(t.Pos, "ranged index is not a valid assignment target")
		}
		if err := e.emitExpr(t.Object); err != nil {
			return err
		}
		if err := e.emitExpr(t.Start); err != nil {
			return err
		}
		if err := e.emitExpr(n.Value); err != nil {
			return err
		}
		e.b.Emit(OpOidxs, 0, 0, e.lastLine)
		return nil

	default:
		return emitErrorf(n.Pos, "invalid assignment target")
	}
}

func (e *emitter) emitCallStmt(n *ast.CallStmt) error {
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
	line := e.at(n.Pos)
	e.b.Emit(OpCall, k, uint8(len(n.Args)), line)
	e.b.Emit(OpPop, 0, 0, line)
	return nil
}

// emitJump appends a branch/jump with a zero placeholder displacement and
// returns its instruction index for later patching.
func (e *emitter) emitJump(op Opcode, line int) int {
	return e.b.EmitSigned(op, 0, line)
}

func (e *emitter) patchJumpHere(idx int) {
	e.patchJumpTo(idx, e.b.Here())
}

func (e *emitter) patchJumpTo(idx int, target int) {
	disp := target - (idx + 1)
	e.b.PatchOperand(idx, uint16(int16(disp)))
}

func (e *emitter) emitIf(n *ast.IfStmt) error {
	if err := e.emitExpr(n.Cond); err != nil {
		return err
	}
	brf := e.emitJump(OpBrf, e.lastLine)
	if err := e.emitBody(n.Then); err != nil {
		return err
	}
	var endJumps []int
	endJumps = append(endJumps, e.emitJump(OpJmp, e.lastLine))
	e.patchJumpHere(brf)

	for _, ei := range n.ElseIfs {
		if err := e.emitExpr(ei.Cond); err != nil {
			return err
		}
		brf2 := e.emitJump(OpBrf, e.lastLine)
		if err := e.emitBody(ei.Body); err != nil {
			return err
		}
		endJumps = append(endJumps, e.emitJump(OpJmp, e.lastLine))
		e.patchJumpHere(brf2)
	}

	if n.Else != nil {
		if err := e.emitBody(n.Else); err != nil {
			return err
		}
	}

	for _, j := range endJumps {
		e.patchJumpHere(j)
	}
	return nil
}

func (e *emitter) pushLoop() *loopCtx {
	lc := &loopCtx{}
	e.loops = append(e.loops, lc)
	return lc
}

func (e *emitter) popLoop() {
	e.loops = e.loops[:len(e.loops)-1]
}

func (e *emitter) finishLoop(lc *loopCtx, breakTarget int) {
	for _, idx := range lc.breakPatches {
		e.patchJumpTo(idx, breakTarget)
	}
}

func (e *emitter) emitRepeatWhile(n *ast.RepeatWhileStmt) error {
	lc := e.pushLoop()
	start := e.b.Here()
	lc.continueTarget = start

	if err := e.emitExpr(n.Cond); err != nil {
		return err
	}
	brf := e.emitJump(OpBrf, e.lastLine)
	if err := e.emitBody(n.Body); err != nil {
		return err
	}
	e.patchJumpTo(e.emitJump(OpJmp, e.lastLine), start)
	e.patchJumpHere(brf)

	e.finishLoop(lc, e.b.Here())
	e.popLoop()
	return nil
}

// emitRepeatTo lowers `repeat with var = init [down] to stop`. The stop
// bound is evaluated once, into a compiler-synthesised local, so that a
// side-effecting stop expression isn't re-run every iteration.
func (e *emitter) emitRepeatTo(n *ast.RepeatToStmt) error {
	varSlot, ok := e.slots[n.Var]
	if !ok {
		return emitErrorf(n.Pos, "unresolved loop variable %q", n.Var)
	}
	if err := e.emitExpr(n.Init); err != nil {
		return err
	}
	e.b.Emit(OpStoreL, uint16(varSlot), 0, e.lastLine)

	if err := e.emitExpr(n.Stop); err != nil {
		return err
	}
	stopSlot := e.b.AddSynthLocal()
	e.b.Emit(OpStoreL, uint16(stopSlot), 0, e.lastLine)

	lc := e.pushLoop()
	start := e.b.Here()
	lc.continueTarget = start

	e.b.Emit(OpLoadL, uint16(varSlot), 0, e.lastLine)
	e.b.Emit(OpLoadL, uint16(stopSlot), 0, e.lastLine)
	if n.Down {
		e.b.Emit(OpGte, 0, 0, e.lastLine)
	} else {
		e.b.Emit(OpLte, 0, 0, e.lastLine)
	}
	brf := e.emitJump(OpBrf, e.lastLine)

	if err := e.emitBody(n.Body); err != nil {
		return err
	}

	e.b.Emit(OpLoadL, uint16(varSlot), 0, e.lastLine)
	e.b.Emit(OpLoadI1, 0, 0, e.lastLine)
	if n.Down {
		e.b.Emit(OpSub, 0, 0, e.lastLine)
	} else {
		e.b.Emit(OpAdd, 0, 0, e.lastLine)
	}
	e.b.Emit(OpStoreL, uint16(varSlot), 0, e.lastLine)
	e.patchJumpTo(e.emitJump(OpJmp, e.lastLine), start)
	e.patchJumpHere(brf)

	e.finishLoop(lc, e.b.Here())
	e.popLoop()
	return nil
}

// emitRepeatIn lowers `repeat with var in iterable` to iteration over
// indices 1..length(iterable), reusing the repeat-to scaffold: var takes
// each index value, not each element.
func (e *emitter) emitRepeatIn(n *ast.RepeatInStmt) error {
	varSlot, ok := e.slots[n.Var]
	if !ok {
		return emitErrorf(n.Pos, "unresolved loop variable %q", n.Var)
	}
	e.b.Emit(OpLoadI1, 0, 0, e.at(n.Pos))
	e.b.Emit(OpStoreL, uint16(varSlot), 0, e.lastLine)

	if err := e.emitExpr(n.Iterable); err != nil {
		return err
	}
	lengthK, err := e.b.AddSymbolConst("length")
	if err != nil {
		return err
	}
	e.b.Emit(OpOcall, lengthK, 0, e.lastLine)
	stopSlot := e.b.AddSynthLocal()
	e.b.Emit(OpStoreL, uint16(stopSlot), 0, e.lastLine)

	lc := e.pushLoop()
	start := e.b.Here()
	lc.continueTarget = start

	e.b.Emit(OpLoadL, uint16(varSlot), 0, e.lastLine)
	e.b.Emit(OpLoadL, uint16(stopSlot), 0, e.lastLine)
	e.b.Emit(OpLte, 0, 0, e.lastLine)
	brf := e.emitJump(OpBrf, e.lastLine)

	if err := e.emitBody(n.Body); err != nil {
		return err
	}

	e.b.Emit(OpLoadL, uint16(varSlot), 0, e.lastLine)
	e.b.Emit(OpLoadI1, 0, 0, e.lastLine)
	e.b.Emit(OpAdd, 0, 0, e.lastLine)
	e.b.Emit(OpStoreL, uint16(varSlot), 0, e.lastLine)
	e.patchJumpTo(e.emitJump(OpJmp, e.lastLine), start)
	e.patchJumpHere(brf)

	e.finishLoop(lc, e.b.Here())
	e.popLoop()
	return nil
}

func (e *emitter) emitExitRepeat(n *ast.ExitRepeatStmt) error {
	if len(e.loops) == 0 {
		return emitErrorf(n.Pos, "exit repeat outside a loop")
	}
	lc := e.loops[len(e.loops)-1]
	idx := e.emitJump(OpJmp, e.at(n.Pos))
	lc.breakPatches = append(lc.breakPatches, idx)
	return nil
}

func (e *emitter) emitNextRepeat(n *ast.NextRepeatStmt) error {
	if len(e.loops) == 0 {
		return emitErrorf(n.Pos, "next repeat outside a loop")
	}
	lc := e.loops[len(e.loops)-1]
	e.patchJumpTo(e.emitJump(OpJmp, e.at(n.Pos)), lc.continueTarget)
	return nil
}

// emitPut lowers bare `put expr` to PUT, and the after/before mutating
// form to the string-insertion intrinsics: appendstring/prependstring
// when the target is a whole string variable, insertafterindex/
// insertbeforeindex when it's an indexed character slot.
func (e *emitter) emitPut(n *ast.PutStmt) error {
	if n.Target == nil {
		if err := e.emitExpr(n.Value); err != nil {
			return err
		}
		e.b.Emit(OpPut, 0, 0, e.lastLine)
		return nil
	}

	if idx, ok := n.Target.(*ast.IndexExpr); ok && idx.End == nil {
		if err := e.emitExpr(idx.Object); err != nil {
			return err
		}
		if err := e.emitExpr(idx.Start); err != nil {
			return err
		}
		if err := e.emitExpr(n.Value); err != nil {
			return err
		}
		name := "insertafterindex"
		if n.Before {
			name = "insertbeforeindex"
		}
		k, err := e.b.AddSymbolConst(name)
		if err != nil {
			return err
		}
		e.b.Emit(OpOcall, k, 2, e.lastLine)
		e.b.Emit(OpPop, 0, 0, e.lastLine)
		return nil
	}

	if err := e.emitExpr(n.Target); err != nil {
		return err
	}
	if err := e.emitExpr(n.Value); err != nil {
		return err
	}
	name := "appendstring"
	if n.Before {
		name = "prependstring"
	}
	k, err := e.b.AddSymbolConst(name)
	if err != nil {
		return err
	}
	e.b.Emit(OpOcall, k, 1, e.lastLine)
	e.b.Emit(OpPop, 0, 0, e.lastLine)
	return nil
}

// emitCaseStmt lowers `case expr of v1: body1 v2: body2 [otherwise ...]
// end case` to a chain of equality tests against a subject evaluated
// once into a synthesised local. The CASE opcode's single u16 operand
// can't encode a variable-length jump table, so this compiler never
// emits it; see vm_exec.go's execCase.
func (e *emitter) emitCaseStmt(n *ast.CaseStmt) error {
	if err := e.emitExpr(n.Subject); err != nil {
		return err
	}
	subjectSlot := e.b.AddSynthLocal()
	e.b.Emit(OpStoreL, uint16(subjectSlot), 0, e.lastLine)

	var endJumps []int
	for _, clause := range n.Clauses {
		e.b.Emit(OpLoadL, uint16(subjectSlot), 0, e.lastLine)
		if err := e.emitExpr(clause.Value); err != nil {
			return err
		}
		e.b.Emit(OpEq, 0, 0, e.lastLine)
		brf := e.emitJump(OpBrf, e.lastLine)
		if err := e.emitBody(clause.Body); err != nil {
			return err
		}
		endJumps = append(endJumps, e.emitJump(OpJmp, e.lastLine))
		e.patchJumpHere(brf)
	}

	if n.Otherwise != nil {
		if err := e.emitBody(n.Otherwise); err != nil {
			return err
		}
	}

	for _, j := range endJumps {
		e.patchJumpHere(j)
	}
	return nil
}
