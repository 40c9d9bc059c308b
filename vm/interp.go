package vm

import (
	"fmt"
	"strings"

	"github.com/chazu/brainfrick/compiler"
)

// ---------------------------------------------------------------------------
// Interpreter: naive unoptimized execution
// ---------------------------------------------------------------------------

// Interpreter executes raw source without the optimizer pipeline, resolving
// loop brackets by scanning when they are first taken and memoizing the
// pairs. The tape survives across Run calls, which is what an interactive
// session wants; Reset starts over.
//
// It is much slower than Machine and exists as an independent execution
// path: the REPL feeds it statements incrementally, and tests run the two
// engines against each other.
type Interpreter struct {
	tape []byte
	ptr  int
	io   ByteIO
}

// NewInterpreter creates an interpreter with the default tape size.
func NewInterpreter(io ByteIO) *Interpreter {
	return NewInterpreterSize(io, TapeSize)
}

// NewInterpreterSize creates an interpreter with a custom tape length.
// Lengths of zero or below fall back to the default.
func NewInterpreterSize(io ByteIO, tapeLen int) *Interpreter {
	if tapeLen <= 0 {
		tapeLen = TapeSize
	}
	return &Interpreter{
		tape: make([]byte, tapeLen),
		io:   io,
	}
}

// Run lexes and executes source against the current tape state. Unbalanced
// brackets surface as an error at the moment execution first needs the
// missing partner, not up front.
func (interp *Interpreter) Run(source string) error {
	ins := compiler.Lex(source)
	pairs := make(map[int]int)
	n := len(interp.tape)

	for ip := 0; ip < len(ins); ip++ {
		switch in := ins[ip]; in.Op {
		case compiler.OpShift:
			interp.ptr = wrap(interp.ptr+in.Arg, n)

		case compiler.OpAlter:
			interp.tape[interp.ptr] += byte(in.Arg)

		case compiler.OpOutput:
			if err := interp.io.WriteByte(interp.tape[interp.ptr]); err != nil {
				return fmt.Errorf("vm: write at instruction %d: %w", ip, err)
			}

		case compiler.OpInput:
			c, err := interp.io.ReadByte()
			if err != nil {
				return fmt.Errorf("vm: read at instruction %d: %w", ip, err)
			}
			interp.tape[interp.ptr] = c

		case compiler.OpLoopOpen:
			if interp.tape[interp.ptr] == 0 {
				end, err := findClose(ins, pairs, ip)
				if err != nil {
					return err
				}
				ip = end
			}

		case compiler.OpLoopClose:
			if interp.tape[interp.ptr] != 0 {
				start, err := findOpen(ins, pairs, ip)
				if err != nil {
					return err
				}
				ip = start
			}
		}
	}
	return nil
}

// Reset zeroes the tape and moves the pointer back to cell 0.
func (interp *Interpreter) Reset() {
	for i := range interp.tape {
		interp.tape[i] = 0
	}
	interp.ptr = 0
}

// Dump renders the pointer position and the tape up to its last non-zero
// cell, sixteen cells per row.
func (interp *Interpreter) Dump() string {
	last := len(interp.tape) - 1
	for last >= 0 && interp.tape[last] == 0 {
		last--
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "ptr=%d", interp.ptr)
	for i := 0; i <= last; i++ {
		if i%16 == 0 {
			fmt.Fprintf(&sb, "\n%5d:", i)
		}
		fmt.Fprintf(&sb, " %3d", interp.tape[i])
	}
	sb.WriteString("\n")
	return sb.String()
}

// findClose locates the close bracket matching the open at ip with a
// forward depth-counting scan, memoizing the pair for later iterations.
func findClose(ins []compiler.Instruction, pairs map[int]int, ip int) (int, error) {
	if end, ok := pairs[ip]; ok {
		return end, nil
	}
	depth := 0
	for pos := ip + 1; pos < len(ins); pos++ {
		switch ins[pos].Op {
		case compiler.OpLoopOpen:
			depth++
		case compiler.OpLoopClose:
			if depth == 0 {
				pairs[ip] = pos
				pairs[pos] = ip
				return pos, nil
			}
			depth--
		}
	}
	return 0, fmt.Errorf("vm: open bracket at instruction %d is never closed: %w", ip, compiler.ErrUnbalanced)
}

// findOpen is the backward counterpart of findClose.
func findOpen(ins []compiler.Instruction, pairs map[int]int, ip int) (int, error) {
	if start, ok := pairs[ip]; ok {
		return start, nil
	}
	depth := 0
	for pos := ip - 1; pos >= 0; pos-- {
		switch ins[pos].Op {
		case compiler.OpLoopClose:
			depth++
		case compiler.OpLoopOpen:
			if depth == 0 {
				pairs[ip] = pos
				pairs[pos] = ip
				return pos, nil
			}
			depth--
		}
	}
	return 0, fmt.Errorf("vm: close bracket at instruction %d has no open: %w", ip, compiler.ErrUnbalanced)
}
