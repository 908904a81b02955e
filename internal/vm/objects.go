package vm

import "strings"

// HeapObject is implemented by every reference variant's payload: strings,
// symbols, lists, prop-lists, points, quads. The VM's garbage collector
// roots (value stack, call frames, globals, the symbol table) keep these
// objects alive; Go's own collector does the rest.
type HeapObject interface {
	heapTag() string
}

// StringObj is a mutable byte buffer, the backing store for the string
// variant. `put ... after`/`before` mutate it in place.
type StringObj struct {
	Bytes []byte
}

func NewString(s string) *StringObj { return &StringObj{Bytes: []byte(s)} }

func (s *StringObj) heapTag() string { return "string" }
func (s *StringObj) String() string  { return string(s.Bytes) }
func (s *StringObj) Len() int        { return len(s.Bytes) }

func (s *StringObj) InsertAfter(pos int, text string) {
	if pos > len(s.Bytes) {
		pos = len(s.Bytes)
	}
	s.Bytes = append(s.Bytes[:pos:pos], append([]byte(text), s.Bytes[pos:]...)...)
}

// Symbol is an interned, content-keyed identifier. Two symbols with equal
// content produced through the same table are the same pointer.
type Symbol struct {
	Name string
}

func (s *Symbol) heapTag() string { return "symbol" }

// SymbolTable interns symbols by content for one VM's lifetime.
type SymbolTable struct {
	byName map[string]*Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: make(map[string]*Symbol)}
}

func (t *SymbolTable) Intern(name string) *Symbol {
	if s, ok := t.byName[name]; ok {
		return s
	}
	s := &Symbol{Name: name}
	t.byName[name] = s
	return s
}

// ListObj is an ordered, mutable sequence of values (1-indexed from script
// code, but stored 0-indexed internally).
type ListObj struct {
	Elems []Value
}

func NewList(capacity int) *ListObj {
	return &ListObj{Elems: make([]Value, 0, capacity)}
}

func (l *ListObj) heapTag() string { return "list" }

func (l *ListObj) Add(v Value) { l.Elems = append(l.Elems, v) }

func (l *ListObj) Len() int { return len(l.Elems) }

// Get returns the element at 1-based index idx.
func (l *ListObj) Get(idx int32) (Value, bool) {
	i := int(idx) - 1
	if i < 0 || i >= len(l.Elems) {
		return Value{}, false
	}
	return l.Elems[i], true
}

func (l *ListObj) Set(idx int32, v Value) bool {
	i := int(idx) - 1
	if i < 0 || i >= len(l.Elems) {
		return false
	}
	l.Elems[i] = v
	return true
}

// Range returns a new list holding elements [a, b] inclusive, 1-indexed.
func (l *ListObj) Range(a, b int32) *ListObj {
	lo, hi := int(a)-1, int(b)-1
	if lo < 0 {
		lo = 0
	}
	if hi >= len(l.Elems) {
		hi = len(l.Elems) - 1
	}
	out := NewList(0)
	if lo > hi {
		return out
	}
	out.Elems = append(out.Elems, l.Elems[lo:hi+1]...)
	return out
}

func (l *ListObj) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range l.Elems {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// PropListObj is an ordered mapping from symbol to value, preserving
// insertion order on iteration as the spec requires.
type PropListObj struct {
	keys []*Symbol
	idx  map[*Symbol]int
	vals []Value
}

func NewPropList() *PropListObj {
	return &PropListObj{idx: make(map[*Symbol]int)}
}

func (p *PropListObj) heapTag() string { return "proplist" }

func (p *PropListObj) Get(key *Symbol) (Value, bool) {
	i, ok := p.idx[key]
	if !ok {
		return Value{}, false
	}
	return p.vals[i], true
}

func (p *PropListObj) Set(key *Symbol, v Value) {
	if i, ok := p.idx[key]; ok {
		p.vals[i] = v
		return
	}
	p.idx[key] = len(p.keys)
	p.keys = append(p.keys, key)
	p.vals = append(p.vals, v)
}

func (p *PropListObj) Len() int { return len(p.keys) }

func (p *PropListObj) Keys() []*Symbol { return p.keys }

func (p *PropListObj) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, k := range p.keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("#")
		sb.WriteString(k.Name)
		sb.WriteString(": ")
		sb.WriteString(p.vals[i].String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// PointObj is a two-component (x, y) value.
type PointObj struct{ X, Y float64 }

func (p *PointObj) heapTag() string { return "point" }

// QuadObj is a four-component value, used for rects among other shapes.
type QuadObj struct{ A, B, C, D float64 }

func (q *QuadObj) heapTag() string { return "quad" }
