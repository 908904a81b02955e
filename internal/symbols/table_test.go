package symbols_test

import (
	"testing"

	"github.com/scorelang/scorec/internal/ast"
	"github.com/scorelang/scorec/internal/symbols"
)

func TestTableResolvePriorityPropertyBeatsGlobalBeatsLocal(t *testing.T) {
	tbl := symbols.New([]string{"x"}, []string{"x"})
	tbl.DeclareParam("x")

	scope, _, ok := tbl.Resolve("x")
	if !ok || scope != ast.ScopeProperty {
		t.Fatalf("got scope=%v ok=%v, want ScopeProperty", scope, ok)
	}
}

func TestTableResolveGlobalBeatsLocal(t *testing.T) {
	tbl := symbols.New(nil, []string{"y"})
	tbl.DeclareParam("y")

	scope, _, ok := tbl.Resolve("y")
	if !ok || scope != ast.ScopeGlobal {
		t.Fatalf("got scope=%v ok=%v, want ScopeGlobal", scope, ok)
	}
}

func TestTableParamSlotsStartAfterReceiver(t *testing.T) {
	tbl := symbols.New(nil, nil)
	tbl.DeclareParam("a")
	tbl.DeclareParam("b")

	_, slot, ok := tbl.Resolve("a")
	if !ok || slot != 1 {
		t.Errorf("a slot = %d, want 1", slot)
	}
	_, slot, ok = tbl.Resolve("b")
	if !ok || slot != 2 {
		t.Errorf("b slot = %d, want 2", slot)
	}
}

func TestTableDeclareParamDuplicateErrors(t *testing.T) {
	tbl := symbols.New(nil, nil)
	if err := tbl.DeclareParam("a"); err != nil {
		t.Fatalf("first declare: %v", err)
	}
	err := tbl.DeclareParam("a")
	if err == nil {
		t.Fatal("expected a DuplicateError for redeclaring parameter a")
	}
	if _, ok := err.(*symbols.DuplicateError); !ok {
		t.Fatalf("got %T, want *symbols.DuplicateError", err)
	}
}

func TestTableDeclareLocalSlotsFollowParams(t *testing.T) {
	tbl := symbols.New(nil, nil)
	tbl.DeclareParam("a")

	_, slot := tbl.DeclareLocal("x")
	if slot != 2 {
		t.Errorf("first local slot = %d, want 2", slot)
	}
	_, slot = tbl.DeclareLocal("y")
	if slot != 3 {
		t.Errorf("second local slot = %d, want 3", slot)
	}
}

func TestTableDeclareLocalOnKnownNameIsNoOp(t *testing.T) {
	tbl := symbols.New([]string{"p"}, nil)
	tbl.DeclareParam("a")

	scope, slot := tbl.DeclareLocal("p")
	if scope != ast.ScopeProperty {
		t.Errorf("declaring already-known property name should not shadow it, got scope=%v", scope)
	}

	scope, slot = tbl.DeclareLocal("a")
	if scope != ast.ScopeLocal || slot != 1 {
		t.Errorf("declaring already-known parameter should resolve to its own slot, got scope=%v slot=%d", scope, slot)
	}

	if tbl.NumLocals() != 0 {
		t.Errorf("NumLocals = %d, want 0 (no new locals should have been created)", tbl.NumLocals())
	}
}

func TestTableHandlerLocalGlobalDeclaration(t *testing.T) {
	tbl := symbols.New(nil, nil)
	tbl.DeclareParam("g")

	// before the handler-local `global g` declaration, g resolves to its
	// parameter slot.
	scope, _, _ := tbl.Resolve("g")
	if scope != ast.ScopeLocal {
		t.Fatalf("expected g to resolve local before global decl, got %v", scope)
	}

	tbl.DeclareGlobal("g")

	scope, _, ok := tbl.Resolve("g")
	if !ok || scope != ast.ScopeGlobal {
		t.Errorf("after DeclareGlobal, g should resolve global, got scope=%v ok=%v", scope, ok)
	}
}

func TestTableResolveUnknownNameNotOk(t *testing.T) {
	tbl := symbols.New(nil, nil)
	_, _, ok := tbl.Resolve("nope")
	if ok {
		t.Error("expected an undeclared name to resolve ok=false")
	}
}

func TestTableParamsAndLocalsOrder(t *testing.T) {
	tbl := symbols.New(nil, nil)
	tbl.DeclareParam("a")
	tbl.DeclareParam("b")
	tbl.DeclareLocal("x")
	tbl.DeclareLocal("y")

	params := tbl.Params()
	if len(params) != 2 || params[0] != "a" || params[1] != "b" {
		t.Errorf("Params() = %v, want [a b]", params)
	}
	locals := tbl.Locals()
	if len(locals) != 2 || locals[0] != "x" || locals[1] != "y" {
		t.Errorf("Locals() = %v, want [x y]", locals)
	}
}
