package vm

import (
	"fmt"
	"strings"
)

// Disassemble renders every instruction in c as one line each, in the
// `MNEMONIC op1 [op2] ; hint1[, hint2]` format, where the hint renders
// whatever the operand semantically references (a constant's value, a
// local's declared name, or a `the` id's name).
func Disassemble(c *Chunk, symtab *SymbolTable) string {
	if symtab == nil {
		symtab = NewSymbolTable()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", c.Name)
	for i := uint32(0); i < c.NInstr(); i++ {
		sb.WriteString(disassembleInstruction(c, i, symtab))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func disassembleInstruction(c *Chunk, i uint32, symtab *SymbolTable) string {
	in := c.Instr(i)
	op := in.op()

	switch op {
	case OpRet, OpPop, OpDup, OpLoadVoid, OpLoadI0, OpLoadI1, OpLoadL0,
		OpUnm, OpAdd, OpSub, OpMul, OpDiv, OpMod, OpEq, OpLt, OpGt, OpLte, OpGte,
		OpAnd, OpOr, OpNot, OpConcat, OpConcatSp, OpOidxg, OpOidxs, OpOidxk, OpOidxkr,
		OpNewPList, OpPut:
		return simpleInstruction(i, op)

	case OpLoadC:
		return constantInstruction(i, op, in.u16(), c, symtab)

	case OpLoadL, OpStoreL:
		return localInstruction(i, op, in.u16(), c)

	case OpLoadG, OpStoreG:
		return symbolConstInstruction(i, op, in.u16(), c)

	case OpJmp, OpBrf, OpBrt:
		return jumpInstruction(i, op, in.i16())

	case OpCall, OpOcall:
		return callInstruction(i, op, in.u16(), in.trailingU8(), c)

	case OpThe:
		return theInstruction(i, op, in.trailingU8())

	case OpNewLList:
		return fmt.Sprintf("%04d  %-10s %-6d", i, op, in.u16())

	case OpCase:
		return fmt.Sprintf("%04d  %-10s %-6d", i, op, in.u16())

	default:
		return fmt.Sprintf("%04d  ILLEGAL(%d)", i, byte(op))
	}
}

func simpleInstruction(i uint32, op Opcode) string {
	return fmt.Sprintf("%04d  %-10s", i, op)
}

func constantInstruction(i uint32, op Opcode, k uint16, c *Chunk, symtab *SymbolTable) string {
	v := c.Const(k, symtab)
	return fmt.Sprintf("%04d  %-10s %-6d ; %s", i, op, k, v.String())
}

func symbolConstInstruction(i uint32, op Opcode, k uint16, c *Chunk) string {
	name := c.ConstSymbolName(k)
	return fmt.Sprintf("%04d  %-10s %-6d ; %s", i, op, k, name)
}

func localInstruction(i uint32, op Opcode, slot uint16, c *Chunk) string {
	name := c.LocalName(int(slot))
	if name == "" {
		return fmt.Sprintf("%04d  %-10s %-6d", i, op, slot)
	}
	return fmt.Sprintf("%04d  %-10s %-6d ; %s", i, op, slot, name)
}

func jumpInstruction(i uint32, op Opcode, disp int16) string {
	target := int64(i) + 1 + int64(disp)
	return fmt.Sprintf("%04d  %-10s %-6d ; -> %d", i, op, disp, target)
}

func callInstruction(i uint32, op Opcode, k uint16, n uint8, c *Chunk) string {
	name := c.ConstSymbolName(k)
	return fmt.Sprintf("%04d  %-10s %-6d %-4d ; %s, %d args", i, op, k, n, name, n)
}

func theInstruction(i uint32, op Opcode, id uint8) string {
	return fmt.Sprintf("%04d  %-10s %-6d ; the %s", i, op, id, TheID(id).String())
}
