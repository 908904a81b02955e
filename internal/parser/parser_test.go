package parser_test

import (
	"testing"

	"github.com/scorelang/scorec/internal/ast"
	"github.com/scorelang/scorec/internal/parser"
)

func mustParse(t *testing.T, src string) *ast.Script {
	t.Helper()
	script, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return script
}

func TestParseEmptyHandler(t *testing.T) {
	script := mustParse(t, "on main\nend main\n")
	if len(script.Handlers) != 1 {
		t.Fatalf("got %d handlers, want 1", len(script.Handlers))
	}
	h := script.Handlers[0]
	if h.Name != "main" {
		t.Errorf("name = %q, want main", h.Name)
	}
	if len(h.Params) != 0 || len(h.Body) != 0 {
		t.Errorf("expected no params/body, got params=%v body=%v", h.Params, h.Body)
	}
}

func TestParseHandlerParamsParenForm(t *testing.T) {
	script := mustParse(t, "on add(a, b)\n  return a + b\nend add\n")
	h := script.Handlers[0]
	if len(h.Params) != 2 || h.Params[0] != "a" || h.Params[1] != "b" {
		t.Fatalf("params = %v, want [a b]", h.Params)
	}
	if len(h.Body) != 1 {
		t.Fatalf("body = %v, want one return statement", h.Body)
	}
	ret, ok := h.Body[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.ReturnStmt", h.Body[0])
	}
	bin, ok := ret.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("return value = %#v, want BinaryExpr(OpAdd)", ret.Value)
	}
}

func TestParseHandlerParamsBareForm(t *testing.T) {
	script := mustParse(t, "on add a, b\n  return a + b\nend add\n")
	h := script.Handlers[0]
	if len(h.Params) != 2 || h.Params[0] != "a" || h.Params[1] != "b" {
		t.Fatalf("params = %v, want [a b]", h.Params)
	}
}

func TestParseScriptLevelGlobalAndProperty(t *testing.T) {
	script := mustParse(t, "global counter\nproperty name, age\non main\nend main\n")
	if len(script.Globals) != 1 || script.Globals[0] != "counter" {
		t.Errorf("globals = %v, want [counter]", script.Globals)
	}
	if len(script.Properties) != 2 || script.Properties[0] != "name" || script.Properties[1] != "age" {
		t.Errorf("properties = %v, want [name age]", script.Properties)
	}
}

func TestParseDuplicateGlobalErrors(t *testing.T) {
	_, err := parser.Parse("global x\nglobal x\non main\nend main\n")
	if err == nil {
		t.Fatal("expected a ParseError for duplicate global declaration")
	}
}

func TestParseHandlerLocalGlobalDeclaration(t *testing.T) {
	script := mustParse(t, "global counter\non bump\n  global counter\n  counter = counter + 1\nend bump\n")
	h := script.Handlers[0]
	if len(h.Body) != 2 {
		t.Fatalf("body = %v, want 2 statements", h.Body)
	}
	if _, ok := h.Body[0].(*ast.GlobalDeclStmt); !ok {
		t.Fatalf("body[0] = %T, want *ast.GlobalDeclStmt", h.Body[0])
	}
	assign, ok := h.Body[1].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("body[1] = %T, want *ast.AssignStmt", h.Body[1])
	}
	target, ok := assign.Target.(*ast.Ident)
	if !ok || target.Scope != ast.ScopeGlobal {
		t.Errorf("assignment target = %#v, want Ident with ScopeGlobal", assign.Target)
	}
}

func TestParseIndexAssignTarget(t *testing.T) {
	script := mustParse(t, "on main(x)\n  x[2] = 9\nend main\n")
	h := script.Handlers[0]
	assign, ok := h.Body[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.AssignStmt", h.Body[0])
	}
	if _, ok := assign.Target.(*ast.IndexExpr); !ok {
		t.Fatalf("assignment target = %#v, want *ast.IndexExpr", assign.Target)
	}
}

func TestParseDotAssignTarget(t *testing.T) {
	script := mustParse(t, "on main(x)\n  x.b = 9\nend main\n")
	h := script.Handlers[0]
	assign, ok := h.Body[0].(*ast.AssignStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.AssignStmt", h.Body[0])
	}
	dot, ok := assign.Target.(*ast.DotExpr)
	if !ok || dot.Key != "b" {
		t.Fatalf("assignment target = %#v, want *ast.DotExpr(key=b)", assign.Target)
	}
}

func TestParsePropertyResolvesBeforeLocal(t *testing.T) {
	script := mustParse(t, "property x\non set_x x\n  return x\nend set_x\n")
	h := script.Handlers[0]
	// `x` is declared as both a property and a parameter of the same name;
	// property scope wins per the table's resolution priority.
	if len(h.Params) != 1 || h.Params[0] != "x" {
		t.Fatalf("params = %v, want [x]", h.Params)
	}
	ret, ok := h.Body[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.ReturnStmt", h.Body[0])
	}
	id, ok := ret.Value.(*ast.Ident)
	if !ok || id.Scope != ast.ScopeProperty {
		t.Errorf("return value = %#v, want Ident with ScopeProperty", ret.Value)
	}
}

func TestParseIfStmtBlockForm(t *testing.T) {
	script := mustParse(t, "on main\n  if 1 < 2 then\n    return 1\n  else\n    return 0\n  end if\nend main\n")
	h := script.Handlers[0]
	ifs, ok := h.Body[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.IfStmt", h.Body[0])
	}
	if len(ifs.Then) != 1 || len(ifs.Else) != 1 {
		t.Errorf("then/else = %v / %v, want one statement each", ifs.Then, ifs.Else)
	}
}

func TestParseRepeatWithInIteratesIndices(t *testing.T) {
	script := mustParse(t, "on main(mylist)\n  repeat with i in mylist\n    put i\n  end repeat\nend main\n")
	h := script.Handlers[0]
	rep, ok := h.Body[0].(*ast.RepeatInStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.RepeatInStmt", h.Body[0])
	}
	if rep.Var != "i" {
		t.Errorf("loop var = %q, want i", rep.Var)
	}
}

func TestParseCaseStmt(t *testing.T) {
	script := mustParse(t, "on main(x)\n  case x of\n    1: put \"one\"\n    2: put \"two\"\n    otherwise: put \"other\"\n  end case\nend main\n")
	h := script.Handlers[0]
	cs, ok := h.Body[0].(*ast.CaseStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.CaseStmt", h.Body[0])
	}
	if len(cs.Clauses) != 2 {
		t.Errorf("clauses = %v, want 2", cs.Clauses)
	}
	if cs.Otherwise == nil {
		t.Error("expected an otherwise branch")
	}
}

func TestParseCallStmtHandlerInvocation(t *testing.T) {
	script := mustParse(t, "on main\n  beep 3\nend main\n")
	h := script.Handlers[0]
	call, ok := h.Body[0].(*ast.CallStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.CallStmt", h.Body[0])
	}
	if call.Name != "beep" || len(call.Args) != 1 {
		t.Errorf("call = %#v, want beep(3)", call)
	}
}

func TestParseCallStmtWithSymbolArgument(t *testing.T) {
	script := mustParse(t, "on main\n  beep #foo\nend main\n")
	h := script.Handlers[0]
	call, ok := h.Body[0].(*ast.CallStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.CallStmt", h.Body[0])
	}
	if call.Name != "beep" || len(call.Args) != 1 {
		t.Fatalf("call = %#v, want beep(#foo)", call)
	}
	lit, ok := call.Args[0].(*ast.Literal)
	if !ok || lit.Kind != ast.LitSymbol || lit.Str != "foo" {
		t.Fatalf("call arg = %#v, want Literal(LitSymbol, foo)", call.Args[0])
	}
}

func TestParseTheExpr(t *testing.T) {
	script := mustParse(t, "on main\n  put the moviepath\nend main\n")
	h := script.Handlers[0]
	put, ok := h.Body[0].(*ast.PutStmt)
	if !ok {
		t.Fatalf("body[0] = %T, want *ast.PutStmt", h.Body[0])
	}
	the, ok := put.Value.(*ast.TheExpr)
	if !ok || the.Name != "moviepath" {
		t.Fatalf("put value = %#v, want TheExpr(moviepath)", put.Value)
	}
}

func TestParseTheExprUnknownNameErrors(t *testing.T) {
	_, err := parser.Parse("on main\n  put the bogus\nend main\n")
	if err == nil {
		t.Fatal("expected a ParseError for an unrecognized `the` environment query")
	}
}

func TestParseUndeclaredIdentifierInNonCallPositionErrors(t *testing.T) {
	_, err := parser.Parse("on main\n  return undeclaredvalue + 1\nend main\n")
	if err == nil {
		t.Fatal("expected a ParseError for an undeclared identifier used as a value")
	}
}

func TestParsePutAfterTarget(t *testing.T) {
	script := mustParse(t, "on main\n  x = \"ab\"\n  put \"c\" after x\nend main\n")
	h := script.Handlers[0]
	put, ok := h.Body[1].(*ast.PutStmt)
	if !ok {
		t.Fatalf("body[1] = %T, want *ast.PutStmt", h.Body[1])
	}
	if put.Target == nil || put.Before {
		t.Errorf("put = %#v, want a non-nil Target with Before=false", put)
	}
}

func TestParseWordLiteralConstantsFold(t *testing.T) {
	script := mustParse(t, "on main\n  return true\nend main\n")
	ret := script.Handlers[0].Body[0].(*ast.ReturnStmt)
	lit, ok := ret.Value.(*ast.Literal)
	if !ok || lit.Kind != ast.LitInt || lit.Int != 1 {
		t.Fatalf("return value = %#v, want Literal(LitInt, 1)", ret.Value)
	}
}

func TestParseListLiteral(t *testing.T) {
	script := mustParse(t, "on main\n  return [1, 2, 3]\nend main\n")
	ret := script.Handlers[0].Body[0].(*ast.ReturnStmt)
	list, ok := ret.Value.(*ast.ListExpr)
	if !ok || len(list.Elems) != 3 {
		t.Fatalf("return value = %#v, want ListExpr with 3 elements", ret.Value)
	}
}

func TestParsePropListLiteral(t *testing.T) {
	script := mustParse(t, "on main\n  return [#a: 1, #b: 2]\nend main\n")
	ret := script.Handlers[0].Body[0].(*ast.ReturnStmt)
	pl, ok := ret.Value.(*ast.PropListExpr)
	if !ok || len(pl.Keys) != 2 || pl.Keys[0] != "a" || pl.Keys[1] != "b" {
		t.Fatalf("return value = %#v, want PropListExpr(a, b)", ret.Value)
	}
}

func TestParseMissingEndHandlerErrors(t *testing.T) {
	_, err := parser.Parse("on main\n  return 1\n")
	if err == nil {
		t.Fatal("expected a ParseError for a handler missing its closing end")
	}
}

func TestParseUnexpectedTopLevelTokenErrors(t *testing.T) {
	_, err := parser.Parse("return 1\n")
	if err == nil {
		t.Fatal("expected a ParseError for a statement appearing at script level")
	}
}
