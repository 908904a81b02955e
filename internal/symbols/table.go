// Package symbols implements the scope-resolution table the parser
// consults while walking a handler body: property beats global beats
// local at the script level; within a handler, locals and parameters
// share one namespace and an unresolved identifier in a non-call position
// is a compile error.
package symbols

import "github.com/scorelang/scorec/internal/ast"

// Table resolves identifiers for a single handler against the script's
// property/global sets and the handler's own parameter/local namespace.
type Table struct {
	props   map[string]bool
	globals map[string]bool

	params   []string
	paramIdx map[string]int

	locals   []string
	localIdx map[string]int
}

// New builds a Table for one handler, seeded with the script's
// already-declared property and global names.
func New(properties, scriptGlobals []string) *Table {
	t := &Table{
		props:    toSet(properties),
		globals:  toSet(scriptGlobals),
		paramIdx: make(map[string]int),
		localIdx: make(map[string]int),
	}
	return t
}

func toSet(names []string) map[string]bool {
	s := make(map[string]bool, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

// DeclareParam registers a handler parameter in declaration order. It
// returns an error if the name duplicates an earlier parameter.
func (t *Table) DeclareParam(name string) error {
	if _, ok := t.paramIdx[name]; ok {
		return &DuplicateError{Name: name, Kind: "parameter"}
	}
	t.paramIdx[name] = len(t.params)
	t.params = append(t.params, name)
	return nil
}

// DeclareGlobal marks name as resolving to global scope for the remainder
// of this handler (mirrors a script-level `global` declaration visible to
// every handler).
func (t *Table) DeclareGlobal(name string) {
	t.globals[name] = true
}

// Resolve looks up name against property, global, then local/parameter
// scope, in that priority order. ok is false if name is not yet known to
// this table.
func (t *Table) Resolve(name string) (scope ast.Scope, slot int, ok bool) {
	if t.props[name] {
		return ast.ScopeProperty, -1, true
	}
	if t.globals[name] {
		return ast.ScopeGlobal, -1, true
	}
	if i, found := t.paramIdx[name]; found {
		// slot 0 is always the implicit receiver; declared parameters
		// start at slot 1.
		return ast.ScopeLocal, i + 1, true
	}
	if i, found := t.localIdx[name]; found {
		return ast.ScopeLocal, 1 + len(t.params) + i, true
	}
	return ast.ScopeLocal, -1, false
}

// DeclareLocal auto-declares name as a new local (used by the `name = expr`
// assignment shorthand) and returns its slot index. If name is already
// known in any scope, DeclareLocal is a no-op and returns the existing
// resolution instead of shadowing it.
func (t *Table) DeclareLocal(name string) (scope ast.Scope, slot int) {
	if scope, slot, ok := t.Resolve(name); ok {
		return scope, slot
	}
	t.localIdx[name] = len(t.locals)
	t.locals = append(t.locals, name)
	return ast.ScopeLocal, 1 + len(t.params) + len(t.locals) - 1
}

// NumParams returns the number of declared parameters (not counting the
// implicit receiver).
func (t *Table) NumParams() int { return len(t.params) }

// NumLocals returns the number of auto-declared locals.
func (t *Table) NumLocals() int { return len(t.locals) }

// Params returns the declared parameter names in slot order (slot 1
// onward; slot 0 is always the implicit receiver).
func (t *Table) Params() []string {
	return append([]string(nil), t.params...)
}

// Locals returns the auto-declared local names in slot order, following
// the parameters.
func (t *Table) Locals() []string {
	return append([]string(nil), t.locals...)
}

// DuplicateError reports a redeclaration at the same scope level.
type DuplicateError struct {
	Name string
	Kind string
}

func (e *DuplicateError) Error() string {
	return "duplicate " + e.Kind + " declaration: " + e.Name
}
