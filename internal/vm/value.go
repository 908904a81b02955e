package vm

import (
	"fmt"
	"math"
)

// ValueType tags the variant carried by a Value.
type ValueType uint8

const (
	TVoid ValueType = iota
	TInt
	TFloat
	TString
	TSymbol
	TList
	TPropList
	TPoint
	TQuad
)

func (t ValueType) String() string {
	switch t {
	case TVoid:
		return "void"
	case TInt:
		return "integer"
	case TFloat:
		return "float"
	case TString:
		return "string"
	case TSymbol:
		return "symbol"
	case TList:
		return "list"
	case TPropList:
		return "proplist"
	case TPoint:
		return "point"
	case TQuad:
		return "quad"
	default:
		return "?"
	}
}

// Value is the VM's tagged-union runtime variant. Scalars (int, float) live
// entirely in Data; reference variants hold their payload in Obj and keep it
// reachable for as long as the Value is reachable.
type Value struct {
	Type ValueType
	Data uint64
	Obj  HeapObject
}

func Void() Value { return Value{Type: TVoid} }

func Int(v int32) Value { return Value{Type: TInt, Data: uint64(uint32(v))} }

func Float(v float64) Value { return Value{Type: TFloat, Data: math.Float64bits(v)} }

func StringRef(s *StringObj) Value { return Value{Type: TString, Obj: s} }

func SymbolRef(s *Symbol) Value { return Value{Type: TSymbol, Obj: s} }

func ListRef(l *ListObj) Value { return Value{Type: TList, Obj: l} }

func PropListRef(p *PropListObj) Value { return Value{Type: TPropList, Obj: p} }

func PointRef(p *PointObj) Value { return Value{Type: TPoint, Obj: p} }

func QuadRef(q *QuadObj) Value { return Value{Type: TQuad, Obj: q} }

func (v Value) Int() int32 { return int32(uint32(v.Data)) }

func (v Value) Float() float64 { return math.Float64frombits(v.Data) }

func (v Value) Str() *StringObj { return v.Obj.(*StringObj) }

func (v Value) Symbol() *Symbol { return v.Obj.(*Symbol) }

func (v Value) List() *ListObj { return v.Obj.(*ListObj) }

func (v Value) PropList() *PropListObj { return v.Obj.(*PropListObj) }

func (v Value) Point() *PointObj { return v.Obj.(*PointObj) }

func (v Value) Quad() *QuadObj { return v.Obj.(*QuadObj) }

// Truthy implements the boolean domain: 0 and void are false, everything
// else (including non-zero int and every reference variant) is true.
func (v Value) Truthy() bool {
	switch v.Type {
	case TVoid:
		return false
	case TInt:
		return v.Int() != 0
	default:
		return true
	}
}

// IsNumeric reports whether v is int or float.
func (v Value) IsNumeric() bool { return v.Type == TInt || v.Type == TFloat }

// AsFloat64 widens an int or float value to float64. It does not panic on a
// non-numeric value; it returns Float()'s reading of that value's payload,
// which is meaningless, so callers check IsNumeric first.
func (v Value) AsFloat64() float64 {
	if v.Type == TInt {
		return float64(v.Int())
	}
	return v.Float()
}

// String renders v the way PUT and string-concatenation render it.
func (v Value) String() string {
	switch v.Type {
	case TVoid:
		return ""
	case TInt:
		return fmt.Sprintf("%d", v.Int())
	case TFloat:
		return formatFloat(v.Float())
	case TString:
		return v.Str().String()
	case TSymbol:
		return "#" + v.Symbol().Name
	case TList:
		return v.List().String()
	case TPropList:
		return v.PropList().String()
	case TPoint:
		p := v.Point()
		return fmt.Sprintf("point(%s, %s)", formatFloat(p.X), formatFloat(p.Y))
	case TQuad:
		q := v.Quad()
		return fmt.Sprintf("rect(%s, %s, %s, %s)", formatFloat(q.A), formatFloat(q.B), formatFloat(q.C), formatFloat(q.D))
	default:
		return "?"
	}
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}
