package compiler

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Compiler: pipeline driver and compiled program representation
// ---------------------------------------------------------------------------

// ErrUnbalanced is returned when loop brackets in the source do not pair up.
var ErrUnbalanced = errors.New("unbalanced loop brackets")

// Stats records what the optimizer pipeline did to a program.
type Stats struct {
	Lexed      int // instructions produced by the lexer
	Contracted int // instructions eliminated by contraction
	Removed    int // no-ops removed
	ClearLoops int // loops folded into Clear
	CopyLoops  int // loops folded into Copy/Clear pairs
}

// Program is a compiled program: the optimized instruction sequence plus
// the loop jump table. A Program is immutable after compilation and may be
// shared read-only across any number of executors. Callers must not modify
// the exposed slices.
type Program struct {
	Instructions []Instruction
	LoopMap      []int // partner position for every bracket; meaningless elsewhere
	Stats        Stats
	SourceHash   [32]byte // SHA-256 of the source text
}

// Compile runs the full pipeline over source text: lex, optimize in fixed
// pass order, then pair loop brackets over the final sequence. The only
// failure mode is structurally unbalanced brackets; no partial Program is
// ever returned.
func Compile(source string) (*Program, error) {
	ins, stats := Optimize(Lex(source))
	loopMap, err := matchBrackets(ins)
	if err != nil {
		return nil, err
	}
	return &Program{
		Instructions: ins,
		LoopMap:      loopMap,
		Stats:        stats,
		SourceHash:   sha256.Sum256([]byte(source)),
	}, nil
}

// Len returns the number of compiled instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// matchBrackets pairs loop boundaries with a single left-to-right scan and
// a stack of open positions. The result is a dense array indexed by
// instruction position, recording the partner position symmetrically. It
// must run after all optimizer passes, since folding moves positions.
func matchBrackets(ins []Instruction) ([]int, error) {
	loopMap := make([]int, len(ins))
	var stack []int

	for pos, in := range ins {
		switch in.Op {
		case OpLoopOpen:
			stack = append(stack, pos)
		case OpLoopClose:
			if len(stack) == 0 {
				return nil, fmt.Errorf("compiler: close bracket at instruction %d has no open: %w", pos, ErrUnbalanced)
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			loopMap[open] = pos
			loopMap[pos] = open
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("compiler: %d unclosed bracket(s) at end of program: %w", len(stack), ErrUnbalanced)
	}
	return loopMap, nil
}
