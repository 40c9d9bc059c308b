package vm

import (
	"fmt"

	"github.com/chazu/brainfrick/compiler"
)

// ---------------------------------------------------------------------------
// Machine: the tape executor for compiled programs
// ---------------------------------------------------------------------------

// TapeSize is the default tape length in cells.
const TapeSize = 30000

// Machine executes one compiled program against a fixed-length byte tape.
// A machine is built for a single run and discarded afterwards; the program
// it executes is read-only and may be shared between machines.
type Machine struct {
	prog *compiler.Program
	tape []byte
	ptr  int
	io   ByteIO
}

// NewMachine creates a machine with the default tape size.
func NewMachine(prog *compiler.Program, io ByteIO) *Machine {
	return NewMachineSize(prog, io, TapeSize)
}

// NewMachineSize creates a machine with a custom tape length. Lengths of
// zero or below fall back to the default.
func NewMachineSize(prog *compiler.Program, io ByteIO, tapeLen int) *Machine {
	if tapeLen <= 0 {
		tapeLen = TapeSize
	}
	return &Machine{
		prog: prog,
		tape: make([]byte, tapeLen),
		io:   io,
	}
}

// Run executes the program to completion. It returns the first I/O error
// the capability reports; a program that never terminates keeps running,
// which is the caller's concern, not the machine's.
//
// A NoOp instruction reaching the machine means the optimizer pipeline is
// broken; that is an assertion failure and panics rather than returning.
func (m *Machine) Run() error {
	ins := m.prog.Instructions
	loopMap := m.prog.LoopMap
	n := len(m.tape)

	for ip := 0; ip < len(ins); ip++ {
		in := ins[ip]
		switch in.Op {
		case compiler.OpShift:
			m.ptr = wrap(m.ptr+in.Arg, n)

		case compiler.OpAlter:
			m.tape[m.ptr] += byte(in.Arg)

		case compiler.OpOutput:
			if err := m.io.WriteByte(m.tape[m.ptr]); err != nil {
				return fmt.Errorf("vm: write at instruction %d: %w", ip, err)
			}

		case compiler.OpInput:
			c, err := m.io.ReadByte()
			if err != nil {
				return fmt.Errorf("vm: read at instruction %d: %w", ip, err)
			}
			m.tape[m.ptr] = c

		case compiler.OpLoopOpen:
			// Jump lands one past the matching close via the loop ip++.
			if m.tape[m.ptr] == 0 {
				ip = loopMap[ip]
			}

		case compiler.OpLoopClose:
			if m.tape[m.ptr] != 0 {
				ip = loopMap[ip]
			}

		case compiler.OpClear:
			m.tape[m.ptr] = 0

		case compiler.OpCopy:
			target := wrap(m.ptr+in.Arg, n)
			m.tape[target] += m.tape[m.ptr] * in.Mul

		case compiler.OpNoOp:
			panic(fmt.Sprintf("vm: NoOp reached the machine at instruction %d", ip))

		default:
			panic(fmt.Sprintf("vm: unknown opcode %d at instruction %d", in.Op, ip))
		}
	}
	return nil
}

// wrap returns i modulo n adjusted into [0, n), so negative indexes wrap
// to the far end of the tape.
func wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
