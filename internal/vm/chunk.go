package vm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Chunk is one compiled handler: a self-contained relocatable byte blob.
// Every internal cross-reference is a byte offset from the blob base, so
// resolving any pointer requires nothing beyond the blob itself.
//
// Header layout (all offsets below are byte offsets from index 0):
//
//	0   u8   nargs
//	1   u8   (pad)
//	2   u16  nlocals
//	4   u16  nconsts
//	6   u16  (pad)
//	8   u32  ninstr
//	12  u32  instrOff
//	16  u32  constOff
//	20  u32  stringPoolOff
//	24  u32  localNamesOff
//
// headerSize is 28, already a multiple of 4 so the instruction section
// (made of 4-byte words) starts naturally aligned.
const headerSize = 28

type Chunk struct {
	blob []byte
	// Name is carried alongside the blob for diagnostics and CALL dispatch;
	// it is not part of the serialised format (handler names live in the
	// caller's own constant pool as symbols).
	Name string
}

func (c *Chunk) NArgs() uint8    { return c.blob[0] }
func (c *Chunk) NLocals() uint16 { return binary.LittleEndian.Uint16(c.blob[2:4]) }
func (c *Chunk) NConsts() uint16 { return binary.LittleEndian.Uint16(c.blob[4:6]) }
func (c *Chunk) NInstr() uint32  { return binary.LittleEndian.Uint32(c.blob[8:12]) }

func (c *Chunk) instrOff() uint32  { return binary.LittleEndian.Uint32(c.blob[12:16]) }
func (c *Chunk) constOff() uint32  { return binary.LittleEndian.Uint32(c.blob[16:20]) }
func (c *Chunk) stringOff() uint32 { return binary.LittleEndian.Uint32(c.blob[20:24]) }
func (c *Chunk) localsOff() uint32 { return binary.LittleEndian.Uint32(c.blob[24:28]) }

// NumSlots is nargs+nlocals, the size of the per-call local storage window.
func (c *Chunk) NumSlots() int { return int(c.NArgs()) + int(c.NLocals()) }

// Instr returns the decoded instruction at index i. Bounds violations are a
// corrupted-chunk bug, not a recoverable runtime condition, so it panics.
func (c *Chunk) Instr(i uint32) instr {
	if i >= c.NInstr() {
		panic(fmt.Sprintf("instruction index %d out of range (ninstr=%d)", i, c.NInstr()))
	}
	off := c.instrOff() + i*4
	return instr(binary.LittleEndian.Uint32(c.blob[off : off+4]))
}

// ConstTag identifies the shape of a constant-pool entry.
type ConstTag uint8

const (
	ConstInt ConstTag = iota
	ConstFloat
	ConstString
	ConstSymbol
)

// constEntrySize is the fixed size of one constant-pool record: a 1-byte
// tag, 3 bytes padding to reach 4-byte alignment, an 8-byte payload (an
// int32, a float64, or one uint32 string offset), then 4 bytes of padding.
const constEntrySize = 16

// Const decodes the constant-pool entry at index k into a runtime Value.
// String/symbol entries are read directly out of the chunk's embedded
// string pool and allocate a fresh heap object each call; the emitter's
// constant dedup guarantees there is exactly one pool entry per distinct
// value, not that repeated reads share an object.
func (c *Chunk) Const(k uint16, symtab *SymbolTable) Value {
	if uint32(k) >= uint32(c.NConsts()) {
		panic(fmt.Sprintf("constant index %d out of range (nconsts=%d)", k, c.NConsts()))
	}
	off := c.constOff() + uint32(k)*constEntrySize
	tag := ConstTag(c.blob[off])
	payload := c.blob[off+4 : off+12]
	switch tag {
	case ConstInt:
		return Int(int32(binary.LittleEndian.Uint32(payload)))
	case ConstFloat:
		bits := binary.LittleEndian.Uint64(payload)
		return Float(math.Float64frombits(bits))
	case ConstString:
		strOff := binary.LittleEndian.Uint32(payload[0:4])
		return StringRef(NewString(c.stringAt(strOff)))
	case ConstSymbol:
		strOff := binary.LittleEndian.Uint32(payload[0:4])
		return SymbolRef(symtab.Intern(c.stringAt(strOff)))
	default:
		panic(fmt.Sprintf("corrupt constant tag %d", tag))
	}
}

// ConstSymbolName reads a symbol/string constant's text directly, without
// interning — used when an instruction's constant operand names a global
// or handler rather than producing a value (LOADG/STOREG/CALL/OCALL).
func (c *Chunk) ConstSymbolName(k uint16) string {
	off := c.constOff() + uint32(k)*constEntrySize
	payload := c.blob[off+4 : off+12]
	strOff := binary.LittleEndian.Uint32(payload[0:4])
	return c.stringAt(strOff)
}

func (c *Chunk) stringAt(off uint32) string {
	n := binary.LittleEndian.Uint32(c.blob[off : off+4])
	return string(c.blob[off+4 : off+4+n])
}

// LocalName returns the declared name of local slot i, or "" for a slot
// with no recorded name (the implicit receiver in slot 0 and
// compiler-synthesised scratch locals).
func (c *Chunk) LocalName(slot int) string {
	off := c.localsOff() + uint32(slot)*4
	nameOff := binary.LittleEndian.Uint32(c.blob[off : off+4])
	if nameOff == 0 {
		return ""
	}
	return c.stringAt(nameOff)
}
