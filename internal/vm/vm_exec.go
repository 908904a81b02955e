package vm

// execCall implements both CALL (global handler dispatch) and OCALL
// (method dispatch on an explicit receiver). It pushes a new Frame onto
// the shared frame array and returns; the caller's dispatch loop in run
// picks the new frame up on its next iteration, so this never recurses
// into vm.run itself.
func (vm *VM) execCall(f *Frame, in instr) error {
	name := f.chunk.ConstSymbolName(in.u16())
	n := int(in.trailingU8())

	if vm.sp < n {
		return &RuntimeError{Chunk: f.chunk.Name, IP: f.ip - 1, Msg: "stack underflow in call arguments"}
	}
	argsBase := vm.sp - n

	switch in.op() {
	case OpCall:
		// A global call shares the calling frame's own receiver: properties
		// set by one handler remain visible to handlers it calls in turn.
		receiver := vm.stack[f.base]

		if callee, ok := vm.Host.ResolveScriptHandler(name); ok {
			// Open a slot under the arguments so the receiver lands in the
			// callee's slot 0 and the arguments in slots 1..n.
			if err := vm.push(Void()); err != nil {
				return err
			}
			copy(vm.stack[argsBase+1:vm.sp], vm.stack[argsBase:vm.sp-1])
			vm.stack[argsBase] = receiver
			return vm.pushCallFrame(callee, receiver, argsBase, n+1, f)
		}
		if intrinsic, ok := vm.Host.ResolveFunction(name); ok {
			args := make([]Value, n)
			copy(args, vm.stack[argsBase:vm.sp])
			vm.sp = argsBase
			result, err := intrinsic(vm, receiver, args)
			if err != nil {
				return &RuntimeError{Chunk: f.chunk.Name, IP: f.ip - 1, Msg: err.Error()}
			}
			return vm.push(result)
		}
		return &RuntimeError{Chunk: f.chunk.Name, IP: f.ip - 1, Msg: "unknown handler: " + name}

	case OpOcall:
		if argsBase < 1 {
			return &RuntimeError{Chunk: f.chunk.Name, IP: f.ip - 1, Msg: "stack underflow in method receiver"}
		}
		receiver := vm.stack[argsBase-1]
		args := vm.stack[argsBase:vm.sp]

		if result, handled, err := builtinIntrinsic(name, receiver, args); handled {
			vm.sp = argsBase - 1
			if err != nil {
				return &RuntimeError{Chunk: f.chunk.Name, IP: f.ip - 1, Msg: err.Error()}
			}
			return vm.push(result)
		}

		callee, intrinsic, ok := vm.Host.ResolveMethod(receiver, name)
		if !ok {
			return &RuntimeError{Chunk: f.chunk.Name, IP: f.ip - 1, Msg: "unknown method: " + name}
		}
		if intrinsic != nil {
			argsCopy := make([]Value, n)
			copy(argsCopy, args)
			vm.sp = argsBase - 1 // discard receiver and args
			result, err := intrinsic(vm, receiver, argsCopy)
			if err != nil {
				return &RuntimeError{Chunk: f.chunk.Name, IP: f.ip - 1, Msg: err.Error()}
			}
			return vm.push(result)
		}
		// Script method: shift the stack so the receiver occupies the
		// callee's slot 0, immediately followed by its arguments.
		vm.stack[argsBase-1] = receiver
		return vm.pushCallFrame(callee, receiver, argsBase-1, n+1, f)

	default:
		return &RuntimeError{Chunk: f.chunk.Name, IP: f.ip - 1, Msg: "not a call opcode"}
	}
}

// pushCallFrame lays out callee's local window starting at slotsBase
// (where the receiver already sits), pads missing parameters/locals with
// void, and pushes the new Frame. slotsBase..slotsBase+nArgsGiven-1 must
// already hold the receiver followed by nArgsGiven-1 arguments.
func (vm *VM) pushCallFrame(callee *Chunk, receiver Value, slotsBase int, nArgsGiven int, caller *Frame) error {
	want := callee.NumSlots()
	have := nArgsGiven // receiver plus arguments, already in place
	vm.sp = slotsBase + have
	for i := have; i < want; i++ {
		if err := vm.push(Void()); err != nil {
			return err
		}
	}
	if vm.fp >= MaxFrames {
		return &RuntimeError{Chunk: caller.chunk.Name, IP: caller.ip, Msg: "call stack overflow"}
	}
	vm.frames[vm.fp] = Frame{chunk: callee, ip: 0, base: slotsBase}
	vm.fp++
	return nil
}

// builtinIntrinsic implements the container protocol the emitter lowers
// NEWLLIST population, `repeat with var in iterable`, and `put ... after/
// before` onto: add on lists, length on lists, strings and prop-lists, and the insertion
// primitives backing put's mutate-in-place form. Anything else falls
// through to the host (handled=false).
func builtinIntrinsic(name string, receiver Value, args []Value) (result Value, handled bool, err error) {
	switch name {
	case "add":
		if receiver.Type != TList || len(args) != 1 {
			return Value{}, false, nil
		}
		receiver.List().Add(args[0])
		return Void(), true, nil

	case "length":
		switch receiver.Type {
		case TList:
			return Int(int32(receiver.List().Len())), true, nil
		case TString:
			return Int(int32(receiver.Str().Len())), true, nil
		case TPropList:
			return Int(int32(receiver.PropList().Len())), true, nil
		default:
			return Value{}, false, nil
		}

	case "appendstring":
		if receiver.Type != TString || len(args) != 1 {
			return Value{}, false, nil
		}
		receiver.Str().InsertAfter(receiver.Str().Len(), args[0].String())
		return Void(), true, nil

	case "prependstring":
		if receiver.Type != TString || len(args) != 1 {
			return Value{}, false, nil
		}
		receiver.Str().InsertAfter(0, args[0].String())
		return Void(), true, nil

	case "insertafterindex":
		if receiver.Type != TString || len(args) != 2 || args[0].Type != TInt {
			return Value{}, false, nil
		}
		receiver.Str().InsertAfter(int(args[0].Int()), args[1].String())
		return Void(), true, nil

	case "insertbeforeindex":
		if receiver.Type != TString || len(args) != 2 || args[0].Type != TInt {
			return Value{}, false, nil
		}
		receiver.Str().InsertAfter(int(args[0].Int())-1, args[1].String())
		return Void(), true, nil

	default:
		return Value{}, false, nil
	}
}

// execCase exists to keep the opcode table exhaustive for the
// disassembler. case statements are lowered to a chain of LOADC/EQ/BRF
// comparisons by the emitter — a real jump table doesn't fit in one u16
// operand — so CASE is never actually emitted.
func (vm *VM) execCase(f *Frame, in instr) error {
	return &RuntimeError{Chunk: f.chunk.Name, IP: f.ip - 1, Msg: "CASE opcode not emitted by this compiler"}
}
