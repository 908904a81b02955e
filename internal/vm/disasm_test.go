package vm_test

import (
	"strings"
	"testing"

	"github.com/scorelang/scorec/internal/parser"
	"github.com/scorelang/scorec/internal/vm"
)

func TestDisassembleRendersOneLinePerInstructionWithHints(t *testing.T) {
	script, err := parser.Parse("on add(a, b)\n  return a + b\nend add\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	chunks, _, err := vm.EmitScript(script, true)
	if err != nil {
		t.Fatalf("emit error: %v", err)
	}
	out := vm.Disassemble(chunks["add"], nil)

	if !strings.HasPrefix(out, "== add ==\n") {
		t.Fatalf("output header = %q, want it to start with '== add =='", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// header + NInstr() instruction lines
	wantLines := 1 + int(chunks["add"].NInstr())
	if len(lines) != wantLines {
		t.Fatalf("got %d lines, want %d (header + one per instruction): %v", len(lines), wantLines, lines)
	}
	// local hints should name the declared parameters.
	if !strings.Contains(out, "; a") || !strings.Contains(out, "; b") {
		t.Errorf("expected local-slot hints naming a and b, got:\n%s", out)
	}
}

func TestDisassembleConstantHintsRenderValue(t *testing.T) {
	script, err := parser.Parse("on main\n  put 42\nend main\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	chunks, _, err := vm.EmitScript(script, true)
	if err != nil {
		t.Fatalf("emit error: %v", err)
	}
	out := vm.Disassemble(chunks["main"], nil)
	if !strings.Contains(out, "; 42") {
		t.Errorf("expected a constant hint rendering 42, got:\n%s", out)
	}
}
