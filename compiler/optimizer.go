package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Optimizer pipeline: ordered peephole rewrite passes
// ---------------------------------------------------------------------------

// Pass identifies one rewrite pass of the optimizer pipeline.
type Pass uint8

const (
	// PassContraction merges maximal runs of adjacent Shift or Alter
	// instructions into a single instruction with the summed delta.
	PassContraction Pass = iota

	// PassNoOpReduction removes NoOp, Alter(0) and Shift(0). It runs after
	// contraction so that cancelling runs have already been summed to zero.
	PassNoOpReduction

	// PassClearLoop folds the window [LoopOpen, Alter(-1), LoopClose]
	// into a single Clear.
	PassClearLoop

	// PassCopyLoop folds both orderings of the copy-loop idiom into a
	// Copy followed by a Clear.
	PassCopyLoop
)

// passOrder is the pipeline in application order. Later passes depend on
// the guarantees of earlier ones.
var passOrder = [...]Pass{PassContraction, PassNoOpReduction, PassClearLoop, PassCopyLoop}

// Passes returns the optimizer pipeline in application order.
func Passes() []Pass {
	return passOrder[:]
}

// String returns a human-readable pass name.
func (p Pass) String() string {
	switch p {
	case PassContraction:
		return "contraction"
	case PassNoOpReduction:
		return "no-op reduction"
	case PassClearLoop:
		return "clear-loop folding"
	case PassCopyLoop:
		return "copy-loop folding"
	default:
		return fmt.Sprintf("Pass(%d)", uint8(p))
	}
}

// Apply runs a single pass over the sequence. It returns the rewritten
// sequence and the number of rewrites performed: instructions eliminated
// for the contraction and no-op passes, loops folded for the fold passes.
// Every pass is total over any instruction sequence and idempotent on its
// own output.
func (p Pass) Apply(ins []Instruction) ([]Instruction, int) {
	switch p {
	case PassContraction:
		return contract(ins)
	case PassNoOpReduction:
		return reduceNoOps(ins)
	case PassClearLoop:
		return foldClearLoops(ins)
	case PassCopyLoop:
		return foldCopyLoops(ins)
	default:
		panic(fmt.Sprintf("compiler: unknown optimization pass %d", uint8(p)))
	}
}

// Optimize runs the full pipeline in order. The input slice is left
// unmodified; the returned sequence is free of NoOp, Alter(0) and Shift(0).
func Optimize(ins []Instruction) ([]Instruction, Stats) {
	var stats Stats
	stats.Lexed = len(ins)

	out := ins
	for _, p := range passOrder {
		var n int
		out, n = p.Apply(out)
		switch p {
		case PassContraction:
			stats.Contracted = n
		case PassNoOpReduction:
			stats.Removed = n
		case PassClearLoop:
			stats.ClearLoops = n
		case PassCopyLoop:
			stats.CopyLoops = n
		}
	}
	return out, stats
}

// contract merges runs of consecutive Shift instructions and runs of
// consecutive Alter instructions. Runs end at any other instruction kind.
func contract(ins []Instruction) ([]Instruction, int) {
	out := make([]Instruction, 0, len(ins))
	for _, in := range ins {
		if len(out) > 0 && (in.Op == OpShift || in.Op == OpAlter) {
			if last := &out[len(out)-1]; last.Op == in.Op {
				last.Arg += in.Arg
				continue
			}
		}
		out = append(out, in)
	}
	return out, len(ins) - len(out)
}

// reduceNoOps drops every instruction with no effect.
func reduceNoOps(ins []Instruction) ([]Instruction, int) {
	out := make([]Instruction, 0, len(ins))
	for _, in := range ins {
		if isNoEffect(in) {
			continue
		}
		out = append(out, in)
	}
	return out, len(ins) - len(out)
}

// isNoEffect reports whether dropping the instruction leaves program
// behavior unchanged.
func isNoEffect(in Instruction) bool {
	switch in.Op {
	case OpNoOp:
		return true
	case OpShift, OpAlter:
		return in.Arg == 0
	}
	return false
}

// foldClearLoops rewrites cell-zeroing loops into Clear. The window check
// runs against the most recently emitted instructions after each append, so
// a fold may consume output produced earlier in the same pass.
func foldClearLoops(ins []Instruction) ([]Instruction, int) {
	out := make([]Instruction, 0, len(ins))
	folds := 0
	for _, in := range ins {
		out = append(out, in)
		if n := len(out); n >= 3 && isClearLoop(out[n-3:]) {
			out = append(out[:n-3], Clear)
			folds++
		}
	}
	return out, folds
}

// isClearLoop matches the exact window [LoopOpen, Alter(-1), LoopClose].
func isClearLoop(w []Instruction) bool {
	return w[0] == LoopOpen && w[1] == Alter(-1) && w[2] == LoopClose
}

// foldCopyLoops rewrites copy loops into a Copy/Clear pair, using the same
// emitted-window mechanics as foldClearLoops.
func foldCopyLoops(ins []Instruction) ([]Instruction, int) {
	out := make([]Instruction, 0, len(ins))
	folds := 0
	for _, in := range ins {
		out = append(out, in)
		if n := len(out); n >= 6 {
			if mul, offset, ok := matchCopyLoop(out[n-6:]); ok {
				out = append(out[:n-6], Copy(mul, offset), Clear)
				folds++
			}
		}
	}
	return out, folds
}

// matchCopyLoop recognizes the two orderings of the copy-loop idiom:
//
//	[->>+++<<]   LoopOpen Alter(-1) Shift(o) Alter(x) Shift(-o) LoopClose
//	[>>+++<<-]   LoopOpen Shift(o) Alter(x) Shift(-o) Alter(-1) LoopClose
//
// The shifts must cancel exactly and x must be positive. The multiplier is
// truncated to 8 bits, which is exact under mod-256 cell arithmetic.
func matchCopyLoop(w []Instruction) (mul uint8, offset int, ok bool) {
	if w[0] != LoopOpen || w[5] != LoopClose {
		return 0, 0, false
	}

	var shiftOut, alter, shiftBack Instruction
	switch {
	case w[1] == Alter(-1):
		shiftOut, alter, shiftBack = w[2], w[3], w[4]
	case w[4] == Alter(-1):
		shiftOut, alter, shiftBack = w[1], w[2], w[3]
	default:
		return 0, 0, false
	}

	if shiftOut.Op != OpShift || shiftBack.Op != OpShift || shiftOut.Arg != -shiftBack.Arg {
		return 0, 0, false
	}
	if alter.Op != OpAlter || alter.Arg <= 0 {
		return 0, 0, false
	}
	return uint8(alter.Arg), shiftOut.Arg, true
}
