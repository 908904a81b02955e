package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/scorelang/scorec/internal/config"
	"github.com/scorelang/scorec/internal/host"
	"github.com/scorelang/scorec/internal/parser"
	"github.com/scorelang/scorec/internal/vm"
)

// runScript compiles src and calls its "main" handler, returning whatever
// main returned plus everything it put to output.
func runScript(t *testing.T, src string) (vm.Value, string) {
	t.Helper()
	script, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	chunks, _, err := vm.EmitScript(script, true)
	if err != nil {
		t.Fatalf("emit error: %v", err)
	}
	main, ok := chunks["main"]
	if !ok {
		t.Fatal("script has no main handler")
	}
	var buf bytes.Buffer
	h := host.New(chunks, &buf, config.HostConfig{})
	m := vm.New(h)
	ret, err := m.Call(main, h.Receiver, nil)
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return ret, buf.String()
}

func TestScenarioArithmeticPrintsThree(t *testing.T) {
	_, out := runScript(t, "on main\n  put 1 + 2\nend main\n")
	if strings.TrimRight(out, "\n") != "3" {
		t.Errorf("output = %q, want 3", out)
	}
}

func TestScenarioStringConcatenation(t *testing.T) {
	_, out := runScript(t, "on main\n  put \"a\" & \"b\"\n  put \"a\" && \"b\"\nend main\n")
	want := "ab\na b\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestScenarioTruthyBranch(t *testing.T) {
	_, out := runScript(t, "on main\n  if 1 then\n    put \"yes\"\n  else\n    put \"no\"\n  end if\nend main\n")
	if strings.TrimRight(out, "\n") != "yes" {
		t.Errorf("output = %q, want yes", out)
	}
}

func TestScenarioBooleanLiteralsAreIntegers(t *testing.T) {
	_, out := runScript(t, "on main\n  put true\n  put false\nend main\n")
	want := "1\n0\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestScenarioPropertySurvivesAcrossCalls(t *testing.T) {
	script, err := parser.Parse("property x\non setx\n  x = 5\nend setx\non showx\n  put x\nend showx\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	chunks, _, err := vm.EmitScript(script, true)
	if err != nil {
		t.Fatalf("emit error: %v", err)
	}
	var buf bytes.Buffer
	h := host.New(chunks, &buf, config.HostConfig{})
	m := vm.New(h)

	if _, err := m.Call(chunks["setx"], h.Receiver, nil); err != nil {
		t.Fatalf("setx: %v", err)
	}
	if _, err := m.Call(chunks["showx"], h.Receiver, nil); err != nil {
		t.Fatalf("showx: %v", err)
	}
	if _, err := m.Call(chunks["showx"], h.Receiver, nil); err != nil {
		t.Fatalf("showx (2nd): %v", err)
	}

	want := "5\n5\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q (property should persist across calls sharing a receiver)", buf.String(), want)
	}
}

func TestScenarioRecursiveFactorial(t *testing.T) {
	script, err := parser.Parse("on fact(n)\n  if n <= 1 then\n    return 1\n  else\n    return n * fact(n - 1)\n  end if\nend fact\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	chunks, _, err := vm.EmitScript(script, true)
	if err != nil {
		t.Fatalf("emit error: %v", err)
	}
	var buf bytes.Buffer
	h := host.New(chunks, &buf, config.HostConfig{})
	m := vm.New(h)

	ret, err := m.Call(chunks["fact"], h.Receiver, []vm.Value{vm.Int(5)})
	if err != nil {
		t.Fatalf("call error: %v", err)
	}
	if ret.Type != vm.TInt || ret.Int() != 120 {
		t.Errorf("fact(5) = %v, want 120", ret)
	}
}

func TestZeroParamHandlerStillGetsReceiverSlot(t *testing.T) {
	script, err := parser.Parse("on main\nend main\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	chunks, _, err := vm.EmitScript(script, true)
	if err != nil {
		t.Fatalf("emit error: %v", err)
	}
	if chunks["main"].NumSlots() != 1 {
		t.Errorf("NumSlots() = %d, want 1 (the implicit receiver only)", chunks["main"].NumSlots())
	}
}

func TestEmptyHandlerReturnsVoid(t *testing.T) {
	ret, _ := runScript(t, "on main\nend main\n")
	if ret.Type != vm.TVoid {
		t.Errorf("return value = %v, want void", ret)
	}
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	script, err := parser.Parse("on main\n  return 1 / 0\nend main\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	chunks, _, err := vm.EmitScript(script, true)
	if err != nil {
		t.Fatalf("emit error: %v", err)
	}
	var buf bytes.Buffer
	h := host.New(chunks, &buf, config.HostConfig{})
	m := vm.New(h)

	_, err = m.Call(chunks["main"], h.Receiver, nil)
	if err == nil {
		t.Fatal("expected a RuntimeError for integer division by zero")
	}
	if _, ok := err.(*vm.RuntimeError); !ok {
		t.Fatalf("got %T, want *vm.RuntimeError", err)
	}
}

func TestListLiteralAndIndexing(t *testing.T) {
	ret, _ := runScript(t, "on main\n  x = [10, 20, 30]\n  return x[2]\nend main\n")
	if ret.Type != vm.TInt || ret.Int() != 20 {
		t.Errorf("x[2] = %v, want 20", ret)
	}
}

func TestPropListLiteralAndDotAccess(t *testing.T) {
	ret, _ := runScript(t, "on main\n  x = [#a: 1, #b: 2]\n  return x.b\nend main\n")
	if ret.Type != vm.TInt || ret.Int() != 2 {
		t.Errorf("x.b = %v, want 2", ret)
	}
}

func TestIndexAssignMutatesList(t *testing.T) {
	ret, _ := runScript(t, "on main\n  x = [10, 20, 30]\n  x[2] = 9\n  return x[2]\nend main\n")
	if ret.Type != vm.TInt || ret.Int() != 9 {
		t.Errorf("x[2] after assignment = %v, want 9", ret)
	}
}

func TestDotAssignMutatesPropList(t *testing.T) {
	ret, _ := runScript(t, "on main\n  x = [#a: 1, #b: 2]\n  x.b = 9\n  return x.b\nend main\n")
	if ret.Type != vm.TInt || ret.Int() != 9 {
		t.Errorf("x.b after assignment = %v, want 9", ret)
	}
}

func TestBranchOnNonIntNonVoidIsRuntimeError(t *testing.T) {
	script, err := parser.Parse("on main\n  if \"yes\" then\n    put \"taken\"\n  end if\nend main\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	chunks, _, err := vm.EmitScript(script, true)
	if err != nil {
		t.Fatalf("emit error: %v", err)
	}
	var buf bytes.Buffer
	h := host.New(chunks, &buf, config.HostConfig{})
	m := vm.New(h)

	_, err = m.Call(chunks["main"], h.Receiver, nil)
	if err == nil {
		t.Fatal("expected a RuntimeError for a non-int, non-void branch condition")
	}
	if _, ok := err.(*vm.RuntimeError); !ok {
		t.Fatalf("got %T, want *vm.RuntimeError", err)
	}
}

func TestRepeatWithToAccumulates(t *testing.T) {
	ret, _ := runScript(t, "on main\n  total = 0\n  repeat with i = 1 to 5\n    total = total + i\n  end repeat\n  return total\nend main\n")
	if ret.Type != vm.TInt || ret.Int() != 15 {
		t.Errorf("sum 1..5 = %v, want 15", ret)
	}
}

func TestPutAfterMutatesStringInPlace(t *testing.T) {
	ret, _ := runScript(t, "on main\n  s = \"ab\"\n  put \"c\" after s\n  return s\nend main\n")
	if ret.Type != vm.TString || ret.Str().String() != "abc" {
		t.Errorf("s after put-after = %v, want abc", ret)
	}
}
