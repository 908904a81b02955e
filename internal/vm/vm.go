package vm

import (
	"fmt"
)

// TheID identifies one of the closed set of environment queries recognised
// after `the`.
type TheID uint8

const (
	TheMoviePath TheID = iota
	TheFrame
	TheDirSeparator
	TheRandomSeed
	TheMilliseconds
	ThePlatform
)

var theNameToID = map[string]TheID{
	"moviepath":    TheMoviePath,
	"frame":        TheFrame,
	"dirseparator": TheDirSeparator,
	"randomseed":   TheRandomSeed,
	"milliseconds": TheMilliseconds,
	"platform":     ThePlatform,
}

var theIDName = [...]string{"moviepath", "frame", "dirseparator", "randomseed", "milliseconds", "platform"}

func (id TheID) String() string {
	if int(id) < len(theIDName) {
		return theIDName[id]
	}
	return "?"
}

// Intrinsic is a host-provided method implementation reached through
// OCALL when the receiver has no script attached.
type Intrinsic func(vm *VM, receiver Value, args []Value) (Value, error)

// Host is the embedder's side of the dispatch boundary the VM calls
// through for everything outside the interpreter's own state.
type Host interface {
	Put(Value)
	ResolveScriptHandler(name string) (*Chunk, bool)
	ResolveMethod(receiver Value, name string) (chunk *Chunk, intrinsic Intrinsic, ok bool)
	// ResolveFunction is CALL's fallback when name isn't a script handler:
	// the free-function intrinsics (abs, sqrt, rect, point, string, ...)
	// that §6.3 documents as part of the host boundary rather than as
	// methods on a receiver.
	ResolveFunction(name string) (Intrinsic, bool)
	ResolveGlobal(name string) (Value, bool)
	SetGlobal(name string, v Value)
	The(id TheID) (Value, error)
}

// RuntimeError reports a failure during execution: type error, unknown
// handler/method, stack over/underflow, or division by zero.
type RuntimeError struct {
	Chunk string
	IP    uint32
	Msg   string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error in %s @%d: %s", e.Chunk, e.IP, e.Msg)
}

// MaxStack is the value stack's fixed capacity, enforced on every push.
const MaxStack = 256

// MaxFrames is the call-frame stack's fixed capacity.
const MaxFrames = 256

// Frame is one active call: the chunk being executed, its instruction
// pointer, and the base of its locals window in the value stack.
type Frame struct {
	chunk *Chunk
	ip    uint32
	base  int // stack index of local slot 0
}

// VM executes chunks against a typed value stack and call-frame stack,
// using Host to reach outside the interpreter core.
type VM struct {
	stack [MaxStack]Value
	sp    int

	frames [MaxFrames]Frame
	fp     int

	Symbols *SymbolTable
	globals map[string]Value

	Host Host
}

func New(host Host) *VM {
	return &VM{
		Symbols: NewSymbolTable(),
		globals: make(map[string]Value),
		Host:    host,
	}
}

func (vm *VM) push(v Value) error {
	if vm.sp >= MaxStack {
		return &RuntimeError{Msg: "stack overflow"}
	}
	vm.stack[vm.sp] = v
	vm.sp++
	return nil
}

func (vm *VM) pop() (Value, error) {
	if vm.sp == 0 {
		return Value{}, &RuntimeError{Msg: "stack underflow"}
	}
	vm.sp--
	return vm.stack[vm.sp], nil
}

func (vm *VM) peek(depthFromTop int) Value {
	return vm.stack[vm.sp-1-depthFromTop]
}

// Call invokes the named script handler with args as its declared
// parameters and receiver as slot 0 (me). This is the entry point a CLI
// or embedder uses to start a script. Properties live as keys on the
// receiver object (see PropListObj), so passing the same receiver into
// successive top-level calls is what makes property state survive
// between them; a fresh script instance should get a fresh PropListObj.
func (vm *VM) Call(chunk *Chunk, receiver Value, args []Value) (Value, error) {
	if err := vm.push(receiver); err != nil { // slot 0: me
		return Value{}, err
	}
	for _, a := range args {
		if err := vm.push(a); err != nil {
			return Value{}, err
		}
	}
	for i := len(args) + 1; i < chunk.NumSlots(); i++ {
		if err := vm.push(Void()); err != nil {
			return Value{}, err
		}
	}
	return vm.run(chunk, vm.sp-chunk.NumSlots())
}

// run pushes chunk as a new frame and drives the fetch-decode-dispatch loop
// until that frame (and everything it calls) has returned, i.e. until the
// frame stack depth drops back below startDepth. Nested CALL/OCALL push
// further frames onto the same vm.frames array; this loop never recurses.
func (vm *VM) run(chunk *Chunk, base int) (Value, error) {
	if vm.fp >= MaxFrames {
		return Value{}, &RuntimeError{Chunk: chunk.Name, Msg: "call stack overflow"}
	}
	vm.frames[vm.fp] = Frame{chunk: chunk, ip: 0, base: base}
	vm.fp++
	startDepth := vm.fp

	for vm.fp >= startDepth {
		f := &vm.frames[vm.fp-1]
		if f.ip >= f.chunk.NInstr() {
			return Value{}, &RuntimeError{Chunk: f.chunk.Name, IP: f.ip, Msg: "fell off the end of the chunk"}
		}
		in := f.chunk.Instr(f.ip)
		f.ip++

		if err := vm.step(f, in); err != nil {
			return Value{}, err
		}
	}
	return vm.pop()
}

// step executes one instruction against the current top frame.
func (vm *VM) step(f *Frame, in instr) error {
	switch in.op() {
	case OpRet:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.sp = f.base // discard me, params, and locals in one truncation
		vm.fp--
		return vm.push(v)

	case OpPop:
		_, err := vm.pop()
		return err

	case OpDup:
		return vm.push(vm.peek(0))

	case OpLoadVoid:
		return vm.push(Void())

	case OpLoadI0:
		return vm.push(Int(0))

	case OpLoadI1:
		return vm.push(Int(1))

	case OpLoadC:
		return vm.push(f.chunk.Const(in.u16(), vm.Symbols))

	case OpLoadL:
		return vm.push(vm.stack[f.base+int(in.u16())])

	case OpLoadL0:
		return vm.push(vm.stack[f.base])

	case OpStoreL:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.stack[f.base+int(in.u16())] = v
		return nil

	case OpLoadG:
		name := f.chunk.ConstSymbolName(in.u16())
		return vm.push(vm.loadGlobal(name))

	case OpStoreG:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		name := f.chunk.ConstSymbolName(in.u16())
		vm.storeGlobal(name, v)
		return nil

	case OpJmp:
		f.ip = uint32(int32(f.ip) + int32(in.i16()))
		return nil

	case OpBrf:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		cond, err := branchCond(v)
		if err != nil {
			return &RuntimeError{Chunk: f.chunk.Name, IP: f.ip - 1, Msg: err.Error()}
		}
		if !cond {
			f.ip = uint32(int32(f.ip) + int32(in.i16()))
		}
		return nil

	case OpBrt:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		cond, err := branchCond(v)
		if err != nil {
			return &RuntimeError{Chunk: f.chunk.Name, IP: f.ip - 1, Msg: err.Error()}
		}
		if cond {
			f.ip = uint32(int32(f.ip) + int32(in.i16()))
		}
		return nil

	case OpThe:
		v, err := vm.Host.The(TheID(in.trailingU8()))
		if err != nil {
			return &RuntimeError{Chunk: f.chunk.Name, IP: f.ip - 1, Msg: err.Error()}
		}
		return vm.push(v)

	case OpNewLList:
		return vm.push(ListRef(NewList(int(in.u16()))))

	case OpNewPList:
		return vm.push(PropListRef(NewPropList()))

	case OpPut:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		vm.Host.Put(v)
		return nil

	case OpCall, OpOcall:
		return vm.execCall(f, in)

	case OpCase:
		return vm.execCase(f, in)

	default:
		return vm.execArithOrIndex(f, in)
	}
}

func (vm *VM) loadGlobal(name string) Value {
	if vm.Host != nil {
		if v, ok := vm.Host.ResolveGlobal(name); ok {
			return v
		}
	}
	if v, ok := vm.globals[name]; ok {
		return v
	}
	return Void()
}

func (vm *VM) storeGlobal(name string, v Value) {
	vm.globals[name] = v
	if vm.Host != nil {
		vm.Host.SetGlobal(name, v)
	}
}

// branchCond narrows a popped branch operand to the bool OpBrf/OpBrt
// actually accept: an int (zero is false, nonzero is true) or void (always
// false). Any other type is a type error rather than a silent truthiness
// coercion, matching every other string/list/proplist operand type being
// rejected outright rather than treated as always-true.
func branchCond(v Value) (bool, error) {
	switch v.Type {
	case TVoid:
		return false, nil
	case TInt:
		return v.Int() != 0, nil
	default:
		return false, fmt.Errorf("branch condition must be an integer or void, got %s", v.Type)
	}
}
