package codegen

import (
	"strings"
	"testing"

	"github.com/chazu/brainfrick/compiler"
)

func emit(t *testing.T, src string, tapeSize int) string {
	t.Helper()
	prog, err := compiler.Compile(src)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", src, err)
	}
	return EmitText(prog, tapeSize)
}

func TestEmitDeclarations(t *testing.T) {
	ll := emit(t, "+.", 0)

	for _, want := range []string{
		"@getchar",
		"@putchar",
		"@main",
		"@memset",
		"[30000 x i8]",
		"call i32 @putchar",
	} {
		if !strings.Contains(ll, want) {
			t.Errorf("module missing %q:\n%s", want, ll)
		}
	}
}

func TestEmitTapeSize(t *testing.T) {
	if ll := emit(t, "+", 64); !strings.Contains(ll, "[64 x i8]") {
		t.Errorf("module missing 64-cell tape:\n%s", ll)
	}
	// Zero falls back to the machine default
	if ll := emit(t, "+", 0); !strings.Contains(ll, "[30000 x i8]") {
		t.Errorf("module missing default tape:\n%s", ll)
	}
}

func TestEmitLoopBranches(t *testing.T) {
	// "[-.]" survives folding, so the module needs a real loop: a compare
	// and a conditional branch at both ends.
	ll := emit(t, "+[-.]", 0)

	if got := strings.Count(ll, "icmp ne i8"); got != 2 {
		t.Errorf("icmp count = %d, want 2 (loop head and tail):\n%s", got, ll)
	}
	if got := strings.Count(ll, "br i1"); got != 2 {
		t.Errorf("conditional branch count = %d, want 2:\n%s", got, ll)
	}
}

func TestEmitShiftWraps(t *testing.T) {
	// Pointer movement lowers to the double-srem wrap
	ll := emit(t, ">.", 0)
	if got := strings.Count(ll, "srem i64"); got != 2 {
		t.Errorf("srem count = %d, want 2:\n%s", got, ll)
	}
}

func TestEmitFoldedInstructions(t *testing.T) {
	// "[->++<]" compiles to Copy(2,1) then Clear
	ll := emit(t, "[->++<]", 0)

	if !strings.Contains(ll, "mul i8") {
		t.Errorf("copy did not lower to a multiply:\n%s", ll)
	}
	if !strings.Contains(ll, "store i8 0") {
		t.Errorf("clear did not lower to a zero store:\n%s", ll)
	}
	if strings.Contains(ll, "br i1") {
		t.Errorf("folded program still branches:\n%s", ll)
	}
}

func TestEmitInput(t *testing.T) {
	ll := emit(t, ",.", 0)
	if !strings.Contains(ll, "call i8 @getchar") {
		t.Errorf("input did not lower to a getchar call:\n%s", ll)
	}
}

func TestEmitDeterministic(t *testing.T) {
	prog, err := compiler.Compile("++[->+<].")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if EmitText(prog, 0) != EmitText(prog, 0) {
		t.Error("two emissions of the same program differ")
	}
}

func TestEmitNoOpPanics(t *testing.T) {
	prog := &compiler.Program{
		Instructions: []compiler.Instruction{compiler.NoOp},
		LoopMap:      []int{0},
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("backend lowered a NoOp without panicking")
		}
	}()
	_ = EmitModule(prog, 0)
}
