package vm

import (
	"encoding/binary"
	"math"
)

// ChunkBuilder accumulates one handler's instructions, constants, and local
// names before Finish packs them into a relocatable Chunk blob.
type ChunkBuilder struct {
	name    string
	nargs   int
	nlocals int

	instrs []instr

	constInts    map[int32]int
	constFloats  map[float64]int
	constStrings map[string]int
	constSymbols map[string]int
	constOrder   []constSlot

	localNames []string // index by slot, "" if unnamed

	// DebugLines records, per emitted instruction index, the source line
	// it came from. Stripped entirely when --no-line-numbers is requested.
	DebugLines []int
}

type constSlot struct {
	tag     ConstTag
	i       int32
	f       float64
	s       string
	present bool
}

func NewChunkBuilder(name string, nargs, nlocals int) *ChunkBuilder {
	return &ChunkBuilder{
		name:         name,
		nargs:        nargs,
		nlocals:      nlocals,
		constInts:    make(map[int32]int),
		constFloats:  make(map[float64]int),
		constStrings: make(map[string]int),
		constSymbols: make(map[string]int),
		localNames:   make([]string, nargs+nlocals),
	}
}

// AddSynthLocal allocates one more local slot beyond those the source
// declared, for compiler-internal scratch storage (loop bounds, case
// subjects) that never needs a name. Must be called before Finish.
func (b *ChunkBuilder) AddSynthLocal() int {
	slot := len(b.localNames)
	b.localNames = append(b.localNames, "")
	b.nlocals++
	return slot
}

func (b *ChunkBuilder) SetLocalName(slot int, name string) {
	if slot >= 0 && slot < len(b.localNames) {
		b.localNames[slot] = name
	}
}

// Emit appends one instruction and returns its index.
func (b *ChunkBuilder) Emit(op Opcode, operand uint16, operand2 uint8, line int) int {
	idx := len(b.instrs)
	b.instrs = append(b.instrs, encodeInstr(op, operand, operand2))
	b.DebugLines = append(b.DebugLines, line)
	return idx
}

// EmitSigned appends an instruction whose operand is a signed 16-bit
// displacement (JMP/BRF/BRT).
func (b *ChunkBuilder) EmitSigned(op Opcode, disp int16, line int) int {
	return b.Emit(op, uint16(disp), 0, line)
}

// PatchOperand rewrites the u16 operand field of an already-emitted
// instruction, used to back-patch forward jump targets.
func (b *ChunkBuilder) PatchOperand(idx int, operand uint16) {
	old := b.instrs[idx]
	b.instrs[idx] = encodeInstr(old.op(), operand, old.trailingU8())
}

// Here returns the index the next instruction will occupy.
func (b *ChunkBuilder) Here() int { return len(b.instrs) }

func (b *ChunkBuilder) AddIntConst(v int32) (uint16, error) {
	if i, ok := b.constInts[v]; ok {
		return uint16(i), nil
	}
	return b.addConst(constSlot{tag: ConstInt, i: v})
}

func (b *ChunkBuilder) AddFloatConst(v float64) (uint16, error) {
	if i, ok := b.constFloats[v]; ok {
		return uint16(i), nil
	}
	return b.addConst(constSlot{tag: ConstFloat, f: v})
}

func (b *ChunkBuilder) AddStringConst(v string) (uint16, error) {
	if i, ok := b.constStrings[v]; ok {
		return uint16(i), nil
	}
	return b.addConst(constSlot{tag: ConstString, s: v})
}

func (b *ChunkBuilder) AddSymbolConst(v string) (uint16, error) {
	if i, ok := b.constSymbols[v]; ok {
		return uint16(i), nil
	}
	return b.addConst(constSlot{tag: ConstSymbol, s: v})
}

func (b *ChunkBuilder) addConst(slot constSlot) (uint16, error) {
	if len(b.constOrder) >= 65535 {
		return 0, &EmitError{Msg: "more than 65535 unique constants in one handler"}
	}
	idx := len(b.constOrder)
	switch slot.tag {
	case ConstInt:
		b.constInts[slot.i] = idx
	case ConstFloat:
		b.constFloats[slot.f] = idx
	case ConstString:
		b.constStrings[slot.s] = idx
	case ConstSymbol:
		b.constSymbols[slot.s] = idx
	}
	b.constOrder = append(b.constOrder, slot)
	return uint16(idx), nil
}

// Finish lays out every section with natural-alignment padding and returns
// the packed, self-contained Chunk.
func (b *ChunkBuilder) Finish() (*Chunk, error) {
	if b.nargs < 1 || b.nargs > 255 {
		return nil, &EmitError{Msg: "handler has more than 255 parameters (including implicit me)"}
	}
	if b.nlocals > 65535 {
		return nil, &EmitError{Msg: "handler has more than 65535 locals"}
	}
	if len(b.instrs) > int(^uint32(0)) {
		return nil, &EmitError{Msg: "handler has more than 2^32-1 instructions"}
	}

	// String pool: collect every string/symbol constant's text plus every
	// named local, each as a (len, bytes, NUL) record padded to 4 bytes.
	// Offset 0 is reserved for the empty string so LocalName can use 0 as
	// its own "no name recorded" sentinel without colliding with a real
	// empty-named entry.
	pool := newStringPoolBuilder()
	pool.intern("")
	stringOffsets := make([]uint32, len(b.constOrder))
	for i, c := range b.constOrder {
		if c.tag == ConstString || c.tag == ConstSymbol {
			stringOffsets[i] = pool.intern(c.s)
		}
	}
	localNameOffsets := make([]uint32, len(b.localNames))
	for i, name := range b.localNames {
		if name != "" {
			localNameOffsets[i] = pool.intern(name)
		}
	}

	instrOff := uint32(headerSize)
	instrBytes := uint32(len(b.instrs)) * 4

	constOff := align(instrOff+instrBytes, 4)
	constBytes := uint32(len(b.constOrder)) * constEntrySize

	stringOff := align(constOff+constBytes, 4)
	poolBytes := pool.bytes()

	localsOff := align(stringOff+uint32(len(poolBytes)), 4)
	localsBytes := uint32(len(b.localNames)) * 4

	total := localsOff + localsBytes
	blob := make([]byte, total)

	blob[0] = byte(b.nargs)
	binary.LittleEndian.PutUint16(blob[2:4], uint16(b.nlocals))
	binary.LittleEndian.PutUint16(blob[4:6], uint16(len(b.constOrder)))
	binary.LittleEndian.PutUint32(blob[8:12], uint32(len(b.instrs)))
	binary.LittleEndian.PutUint32(blob[12:16], instrOff)
	binary.LittleEndian.PutUint32(blob[16:20], constOff)
	binary.LittleEndian.PutUint32(blob[20:24], stringOff)
	binary.LittleEndian.PutUint32(blob[24:28], localsOff)

	for i, in := range b.instrs {
		binary.LittleEndian.PutUint32(blob[instrOff+uint32(i)*4:], uint32(in))
	}

	for i, c := range b.constOrder {
		off := constOff + uint32(i)*constEntrySize
		blob[off] = byte(c.tag)
		switch c.tag {
		case ConstInt:
			binary.LittleEndian.PutUint32(blob[off+4:], uint32(c.i))
		case ConstFloat:
			binary.LittleEndian.PutUint64(blob[off+4:], math.Float64bits(c.f))
		case ConstString, ConstSymbol:
			binary.LittleEndian.PutUint32(blob[off+4:], stringOff+stringOffsets[i])
		}
	}

	copy(blob[stringOff:], poolBytes)

	for i, off := range localNameOffsets {
		if off != 0 {
			off += stringOff
		}
		binary.LittleEndian.PutUint32(blob[localsOff+uint32(i)*4:], off)
	}

	return &Chunk{blob: blob, Name: b.name}, nil
}

func align(off, n uint32) uint32 {
	if off%n == 0 {
		return off
	}
	return off + (n - off%n)
}

// stringPoolBuilder deduplicates strings by exact content and lays each out
// as (u32 length, bytes, NUL) padded to 4-byte alignment.
type stringPoolBuilder struct {
	seen map[string]uint32
	buf  []byte
}

func newStringPoolBuilder() *stringPoolBuilder {
	return &stringPoolBuilder{seen: make(map[string]uint32)}
}

func (p *stringPoolBuilder) intern(s string) uint32 {
	if off, ok := p.seen[s]; ok {
		return off
	}
	off := uint32(len(p.buf))
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	p.buf = append(p.buf, lenBuf[:]...)
	p.buf = append(p.buf, []byte(s)...)
	p.buf = append(p.buf, 0)
	for len(p.buf)%4 != 0 {
		p.buf = append(p.buf, 0)
	}
	p.seen[s] = off
	return off
}

func (p *stringPoolBuilder) bytes() []byte { return p.buf }

// EmitError reports an emission-time failure: parameter/local/constant/
// instruction capacity overflow.
type EmitError struct {
	Msg string
}

func (e *EmitError) Error() string { return e.Msg }
