// Emitter: walks a parsed script and produces one Chunk per handler.
//
// The stack-machine conventions below resolve a gap in how the two
// documented assignment lowerings order their pushes: property writes and
// dot/index writes are emitted here with an identical (obj, key, value)
// push order so OIDXS has one pop convention (value, then key, then obj)
// rather than one per call site. See DESIGN.md for the rationale.
package vm

import (
	"fmt"

	"github.com/scorelang/scorec/internal/ast"
	"github.com/scorelang/scorec/internal/lexer"
)

// EmitScript compiles every handler in script into a Chunk, keyed by
// handler name, plus the handler names in source declaration order.
// keepLines controls whether the builder keeps its per-instruction debug
// line records; the CLI clears it for --no-line-numbers. Finish does not
// write those records into the Chunk, so no chunk carries line records
// either way.
func EmitScript(script *ast.Script, keepLines bool) (map[string]*Chunk, []string, error) {
	chunks := make(map[string]*Chunk, len(script.Handlers))
	order := make([]string, 0, len(script.Handlers))
	props := toSet(script.Properties)
	globals := toSet(script.Globals)

	for _, h := range script.Handlers {
		c, err := emitHandler(h, props, globals, keepLines)
		if err != nil {
			return nil, nil, err
		}
		chunks[h.Name] = c
		order = append(order, h.Name)
	}
	return chunks, order, nil
}

func toSet(names []string) map[string]bool {
	s := make(map[string]bool, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

// emitter holds the per-handler compilation state: the slot map rebuilt
// from the handler's recorded parameter/local order, and a stack of active
// loops for exit/next repeat.
type emitter struct {
	b        *ChunkBuilder
	slots    map[string]int
	props    map[string]bool
	globals  map[string]bool
	keepLine bool
	loops    []*loopCtx
	lastLine int
}

type loopCtx struct {
	continueTarget int   // instruction index the loop's condition check starts at
	breakPatches   []int // indices of forward JMPs needing patch to the loop's end
}

func emitHandler(h *ast.Handler, props, globals map[string]bool, keepLines bool) (*Chunk, error) {
	nargs := len(h.Params) + 1 // slot 0 is always the implicit receiver
	nlocals := len(h.Locals)

	b := NewChunkBuilder(h.Name, nargs, nlocals)
	for i, p := range h.Params {
		b.SetLocalName(i+1, p)
	}
	for i, l := range h.Locals {
		b.SetLocalName(nargs+i, l)
	}

	slots := make(map[string]int, nargs+nlocals)
	for i, p := range h.Params {
		slots[p] = i + 1
	}
	for i, l := range h.Locals {
		slots[l] = nargs + i
	}

	e := &emitter{b: b, slots: slots, props: props, globals: globals, keepLine: keepLines}

	for _, s := range h.Body {
		if err := e.emitStmt(s); err != nil {
			return nil, err
		}
	}
	b.Emit(OpLoadVoid, 0, 0, e.lastLine)
	b.Emit(OpRet, 0, 0, e.lastLine)

	if !keepLines {
		b.DebugLines = nil
	}
	return b.Finish()
}

func (e *emitter) at(p lexer.Position) int {
	e.lastLine = p.Line
	return p.Line
}

func emitErrorf(pos lexer.Position, format string, args ...interface{}) error {
	return &EmitError{Msg: fmt.Sprintf("%d:%d: %s", pos.Line, pos.Column, fmt.Sprintf(format, args...))}
}
