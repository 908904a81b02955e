package vm

import (
	"math"
	"strconv"
	"strings"
)

// execArithOrIndex handles every opcode not given its own case in step:
// arithmetic, comparison, logical, concatenation, unary, and the OIDX*
// container-access family.
func (vm *VM) execArithOrIndex(f *Frame, in instr) error {
	switch in.op() {
	case OpUnm:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		switch v.Type {
		case TInt:
			return vm.push(Int(-v.Int()))
		case TFloat:
			return vm.push(Float(-v.Float()))
		default:
			return vm.typeError(f, "unary - on non-numeric value")
		}

	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return vm.execArith(f, in.op())

	case OpEq:
		return vm.execEq(f)

	case OpLt, OpGt, OpLte, OpGte:
		return vm.execCompare(f, in.op())

	case OpAnd, OpOr:
		return vm.execLogical(f, in.op())

	case OpNot:
		v, err := vm.pop()
		if err != nil {
			return err
		}
		if v.Type != TInt {
			return vm.push(Int(0))
		}
		return vm.push(boolVal(v.Int() == 0))

	case OpConcat, OpConcatSp:
		b, err := vm.pop()
		if err != nil {
			return err
		}
		a, err := vm.pop()
		if err != nil {
			return err
		}
		if in.op() == OpConcatSp {
			return vm.push(StringRef(NewString(a.String() + " " + b.String())))
		}
		return vm.push(StringRef(NewString(a.String() + b.String())))

	case OpOidxg:
		return vm.execOidxg(f)

	case OpOidxs:
		return vm.execOidxs(f)

	case OpOidxk:
		return vm.execOidxk(f)

	case OpOidxkr:
		return vm.execOidxkr(f)

	default:
		return vm.typeError(f, "illegal opcode")
	}
}

func boolVal(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

func (vm *VM) typeError(f *Frame, msg string) error {
	return &RuntimeError{Chunk: f.chunk.Name, IP: f.ip - 1, Msg: msg}
}

// numeric coerces a value to a float64/isFloat pair for promotion, or
// reports that it isn't numeric.
func numeric(v Value) (f float64, isFloat bool, ok bool) {
	switch v.Type {
	case TInt:
		return float64(v.Int()), false, true
	case TFloat:
		return v.Float(), true, true
	default:
		return 0, false, false
	}
}

func (vm *VM) execArith(f *Frame, op Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	af, afIsFloat, aok := numeric(a)
	bf, bfIsFloat, bok := numeric(b)
	if !aok || !bok {
		return vm.typeError(f, "arithmetic on non-numeric value")
	}
	resultFloat := afIsFloat || bfIsFloat

	if op == OpDiv && !resultFloat {
		bi := int32(bf)
		if bi == 0 {
			return vm.typeError(f, "division by zero")
		}
		return vm.push(Int(int32(af) / bi))
	}

	switch op {
	case OpAdd:
		if resultFloat {
			return vm.push(Float(af + bf))
		}
		return vm.push(Int(int32(af) + int32(bf)))
	case OpSub:
		if resultFloat {
			return vm.push(Float(af - bf))
		}
		return vm.push(Int(int32(af) - int32(bf)))
	case OpMul:
		if resultFloat {
			return vm.push(Float(af * bf))
		}
		return vm.push(Int(int32(af) * int32(bf)))
	case OpDiv:
		return vm.push(Float(af / bf))
	case OpMod:
		if resultFloat {
			return vm.push(Float(math.Mod(af, bf)))
		}
		bi := int32(bf)
		if bi == 0 {
			return vm.typeError(f, "division by zero")
		}
		return vm.push(Int(int32(af) % bi))
	}
	return nil
}

// parseNumber mirrors the numeric-string coercion EQ needs when comparing
// a number against a string: float if the text contains '.', int
// otherwise. Returns ok=false if the text doesn't parse as a number at
// all.
func parseNumber(s string) (f float64, ok bool) {
	if strings.Contains(s, ".") {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v, true
		}
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 32); err == nil {
		return float64(i), true
	}
	return 0, false
}

func (vm *VM) execEq(f *Frame) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	eq, err := valuesEqual(a, b)
	if err != nil {
		return vm.typeError(f, err.Error())
	}
	return vm.push(boolVal(eq))
}

func valuesEqual(a, b Value) (bool, error) {
	if a.Type == TVoid || b.Type == TVoid {
		return a.Type == TVoid && b.Type == TVoid, nil
	}
	af, _, aNum := numeric(a)
	bf, _, bNum := numeric(b)
	if aNum && bNum {
		return af == bf, nil
	}
	if aNum != bNum {
		// One numeric, one not: only a string operand can still compare
		// equal, by parsing it as a number.
		var numSide float64
		var other Value
		if aNum {
			numSide, other = af, b
		} else {
			numSide, other = bf, a
		}
		if other.Type != TString {
			return false, nil
		}
		parsed, ok := parseNumber(other.Str().String())
		if !ok {
			return false, &RuntimeError{Msg: "cannot compare number with non-numeric string"}
		}
		return numSide == parsed, nil
	}
	// Neither operand is numeric.
	switch {
	case a.Type == TString && (b.Type == TString || b.Type == TSymbol):
		return a.Str().String() == stringOf(b), nil
	case b.Type == TString && a.Type == TSymbol:
		return stringOf(a) == b.Str().String(), nil
	case a.Type == TSymbol && b.Type == TSymbol:
		return a.Symbol() == b.Symbol(), nil
	default:
		return false, nil
	}
}

func stringOf(v Value) string {
	if v.Type == TSymbol {
		return v.Symbol().Name
	}
	return v.Str().String()
}

func (vm *VM) execCompare(f *Frame, op Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	af, _, aok := numeric(a)
	bf, _, bok := numeric(b)
	if aok && bok {
		return vm.push(boolVal(compareFloats(af, bf, op)))
	}
	if a.Type == TString && b.Type == TString {
		return vm.push(boolVal(compareStrings(a.Str().String(), b.Str().String(), op)))
	}
	return vm.typeError(f, "ordering comparison on non-numeric, non-string value")
}

func compareFloats(a, b float64, op Opcode) bool {
	switch op {
	case OpLt:
		return a < b
	case OpGt:
		return a > b
	case OpLte:
		return a <= b
	case OpGte:
		return a >= b
	}
	return false
}

func compareStrings(a, b string, op Opcode) bool {
	switch op {
	case OpLt:
		return a < b
	case OpGt:
		return a > b
	case OpLte:
		return a <= b
	case OpGte:
		return a >= b
	}
	return false
}

func (vm *VM) execLogical(f *Frame, op Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	at, bt := a.Truthy(), b.Truthy()
	if op == OpAnd {
		return vm.push(boolVal(at && bt))
	}
	return vm.push(boolVal(at || bt))
}

// execOidxg implements `obj[key]` / `obj.key` reads: OIDXG pops (obj, key),
// pushes the looked-up value.
func (vm *VM) execOidxg(f *Frame) error {
	key, err := vm.pop()
	if err != nil {
		return err
	}
	obj, err := vm.pop()
	if err != nil {
		return err
	}
	v, err := vm.indexGet(obj, key)
	if err != nil {
		return vm.typeError(f, err.Error())
	}
	return vm.push(v)
}

// execOidxs implements property/dot/index writes, all lowered by the
// emitter to the same (obj, key, value) push order: pops 3, no push.
func (vm *VM) execOidxs(f *Frame) error {
	value, err := vm.pop()
	if err != nil {
		return err
	}
	key, err := vm.pop()
	if err != nil {
		return err
	}
	obj, err := vm.pop()
	if err != nil {
		return err
	}
	if err := vm.indexSet(obj, key, value); err != nil {
		return vm.typeError(f, err.Error())
	}
	return nil
}

// execOidxk implements the fused `obj.key[i]` read: pops (obj, key, i),
// resolves obj.key first, then indexes the result by i.
func (vm *VM) execOidxk(f *Frame) error {
	idx, err := vm.pop()
	if err != nil {
		return err
	}
	key, err := vm.pop()
	if err != nil {
		return err
	}
	obj, err := vm.pop()
	if err != nil {
		return err
	}
	inner, err := vm.indexGet(obj, key)
	if err != nil {
		return vm.typeError(f, err.Error())
	}
	v, err := vm.indexGet(inner, idx)
	if err != nil {
		return vm.typeError(f, err.Error())
	}
	return vm.push(v)
}

// execOidxkr implements the fused ranged read `obj.key[a..b]`, and also
// the plain ranged read `obj[a..b]` with no preceding dot: the emitter
// lowers the latter with a void key, which this treats as "range obj
// itself" rather than resolving obj[key] first.
func (vm *VM) execOidxkr(f *Frame) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	key, err := vm.pop()
	if err != nil {
		return err
	}
	obj, err := vm.pop()
	if err != nil {
		return err
	}
	target := obj
	if key.Type != TVoid {
		target, err = vm.indexGet(obj, key)
		if err != nil {
			return vm.typeError(f, err.Error())
		}
	}
	v, err := vm.rangeGet(target, a, b)
	if err != nil {
		return vm.typeError(f, err.Error())
	}
	return vm.push(v)
}

func asIndex(v Value) (int32, bool) {
	if v.Type != TInt {
		return 0, false
	}
	return v.Int(), true
}

// indexGet dispatches obj[key] by obj's runtime kind: list by integer
// index, prop-list/point/quad/receiver by symbol key, string by integer
// character index.
func (vm *VM) indexGet(obj, key Value) (Value, error) {
	switch obj.Type {
	case TList:
		i, ok := asIndex(key)
		if !ok {
			return Value{}, &RuntimeError{Msg: "list index must be an integer"}
		}
		v, ok := obj.List().Get(i)
		if !ok {
			return Value{}, &RuntimeError{Msg: "list index out of range"}
		}
		return v, nil

	case TPropList:
		sym, err := vm.keySymbol(key)
		if err != nil {
			return Value{}, err
		}
		v, ok := obj.PropList().Get(sym)
		if !ok {
			return Value{}, &RuntimeError{Msg: "key not found: #" + sym.Name}
		}
		return v, nil

	case TPoint:
		sym, err := vm.keySymbol(key)
		if err != nil {
			return Value{}, err
		}
		p := obj.Point()
		switch sym.Name {
		case "locH", "x":
			return Float(p.X), nil
		case "locV", "y":
			return Float(p.Y), nil
		}
		return Value{}, &RuntimeError{Msg: "point has no field #" + sym.Name}

	case TQuad:
		sym, err := vm.keySymbol(key)
		if err != nil {
			return Value{}, err
		}
		q := obj.Quad()
		switch sym.Name {
		case "left", "a":
			return Float(q.A), nil
		case "top", "b":
			return Float(q.B), nil
		case "right", "c":
			return Float(q.C), nil
		case "bottom", "d":
			return Float(q.D), nil
		}
		return Value{}, &RuntimeError{Msg: "rect has no field #" + sym.Name}

	case TString:
		i, ok := asIndex(key)
		if !ok {
			return Value{}, &RuntimeError{Msg: "string index must be an integer"}
		}
		s := obj.Str()
		if i < 1 || int(i) > s.Len() {
			return Value{}, &RuntimeError{Msg: "string index out of range"}
		}
		return StringRef(NewString(string(s.Bytes[i-1]))), nil

	default:
		return Value{}, &RuntimeError{Msg: "cannot index value of this type"}
	}
}

func (vm *VM) indexSet(obj, key, value Value) error {
	switch obj.Type {
	case TList:
		i, ok := asIndex(key)
		if !ok {
			return &RuntimeError{Msg: "list index must be an integer"}
		}
		if !obj.List().Set(i, value) {
			return &RuntimeError{Msg: "list index out of range"}
		}
		return nil

	case TPropList:
		sym, err := vm.keySymbol(key)
		if err != nil {
			return err
		}
		obj.PropList().Set(sym, value)
		return nil

	case TPoint:
		sym, err := vm.keySymbol(key)
		if err != nil {
			return err
		}
		p := obj.Point()
		f := value.AsFloat64()
		switch sym.Name {
		case "locH", "x":
			p.X = f
		case "locV", "y":
			p.Y = f
		default:
			return &RuntimeError{Msg: "point has no field #" + sym.Name}
		}
		return nil

	case TQuad:
		sym, err := vm.keySymbol(key)
		if err != nil {
			return err
		}
		q := obj.Quad()
		f := value.AsFloat64()
		switch sym.Name {
		case "left", "a":
			q.A = f
		case "top", "b":
			q.B = f
		case "right", "c":
			q.C = f
		case "bottom", "d":
			q.D = f
		default:
			return &RuntimeError{Msg: "rect has no field #" + sym.Name}
		}
		return nil

	default:
		return &RuntimeError{Msg: "cannot assign into value of this type"}
	}
}

func (vm *VM) rangeGet(obj Value, a, b Value) (Value, error) {
	lo, ok1 := asIndex(a)
	hi, ok2 := asIndex(b)
	if !ok1 || !ok2 {
		return Value{}, &RuntimeError{Msg: "range bounds must be integers"}
	}
	switch obj.Type {
	case TList:
		return ListRef(obj.List().Range(lo, hi)), nil
	case TString:
		s := obj.Str()
		if lo < 1 {
			lo = 1
		}
		if int(hi) > s.Len() {
			hi = int32(s.Len())
		}
		if lo > hi {
			return StringRef(NewString("")), nil
		}
		return StringRef(NewString(string(s.Bytes[lo-1 : hi]))), nil
	default:
		return Value{}, &RuntimeError{Msg: "cannot range-index value of this type"}
	}
}

// keySymbol accepts either a symbol value or a string value as a key,
// since LOADC for a dotted field name always pushes a symbol but keys
// arriving through OIDXG from a dynamic `obj[expr]` may be strings.
func (vm *VM) keySymbol(key Value) (*Symbol, error) {
	switch key.Type {
	case TSymbol:
		return key.Symbol(), nil
	case TString:
		return vm.Symbols.Intern(key.Str().String()), nil
	default:
		return nil, &RuntimeError{Msg: "key must be a symbol or string"}
	}
}
