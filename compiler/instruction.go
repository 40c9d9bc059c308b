package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Instruction set
// ---------------------------------------------------------------------------

// Opcode identifies an instruction kind. The numeric values are part of the
// artifact wire format; do not reorder them.
type Opcode uint8

const (
	OpShift     Opcode = 0 // Move the data pointer: OpShift <delta:int>
	OpAlter     Opcode = 1 // Add to the current cell: OpAlter <delta:int>
	OpOutput    Opcode = 2 // Write the current cell to the I/O capability
	OpInput     Opcode = 3 // Read one byte into the current cell
	OpLoopOpen  Opcode = 4 // Enter loop, or skip it when the cell is zero
	OpLoopClose Opcode = 5 // Repeat loop while the cell is non-zero
	OpNoOp      Opcode = 6 // Placeholder; never survives optimization
	OpClear     Opcode = 7 // Set the current cell to zero
	OpCopy      Opcode = 8 // Multiply-add into another cell: OpCopy <offset:int> <mul:u8>
)

// String returns the mnemonic for an opcode.
func (op Opcode) String() string {
	switch op {
	case OpShift:
		return "SHIFT"
	case OpAlter:
		return "ALTER"
	case OpOutput:
		return "OUTPUT"
	case OpInput:
		return "INPUT"
	case OpLoopOpen:
		return "LOOP_OPEN"
	case OpLoopClose:
		return "LOOP_CLOSE"
	case OpNoOp:
		return "NOOP"
	case OpClear:
		return "CLEAR"
	case OpCopy:
		return "COPY"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(op))
	}
}

// IsBracket reports whether the opcode is a loop boundary marker.
func (op Opcode) IsBracket() bool {
	return op == OpLoopOpen || op == OpLoopClose
}

// Instruction is a single executable operation. Arg holds the pointer delta
// for OpShift, the cell delta for OpAlter, and the target offset for OpCopy.
// Mul is the OpCopy multiplier. Both are zero for every other opcode.
type Instruction struct {
	Op  Opcode
	Arg int
	Mul uint8
}

// Shift returns an instruction that moves the data pointer by delta cells,
// wrapping around the tape in either direction.
func Shift(delta int) Instruction {
	return Instruction{Op: OpShift, Arg: delta}
}

// Alter returns an instruction that adds delta to the current cell with
// 8-bit wraparound.
func Alter(delta int) Instruction {
	return Instruction{Op: OpAlter, Arg: delta}
}

// Copy returns an instruction that adds current_cell*mul to the cell at the
// given relative offset. The source cell is left untouched; the optimizer
// always emits a Clear immediately after.
func Copy(mul uint8, offset int) Instruction {
	return Instruction{Op: OpCopy, Arg: offset, Mul: mul}
}

// Operand-free instructions.
var (
	Output    = Instruction{Op: OpOutput}
	Input     = Instruction{Op: OpInput}
	LoopOpen  = Instruction{Op: OpLoopOpen}
	LoopClose = Instruction{Op: OpLoopClose}
	NoOp      = Instruction{Op: OpNoOp}
	Clear     = Instruction{Op: OpClear}
)

// FromChar maps one source character to its primitive instruction. The
// second return value is false for characters with no meaning; the language
// treats those as comments.
func FromChar(c byte) (Instruction, bool) {
	switch c {
	case '>':
		return Shift(1), true
	case '<':
		return Shift(-1), true
	case '+':
		return Alter(1), true
	case '-':
		return Alter(-1), true
	case '.':
		return Output, true
	case ',':
		return Input, true
	case '[':
		return LoopOpen, true
	case ']':
		return LoopClose, true
	default:
		return NoOp, false
	}
}

// String renders an instruction the way it appears in program listings.
func (in Instruction) String() string {
	switch in.Op {
	case OpShift:
		return fmt.Sprintf("Shift(%d)", in.Arg)
	case OpAlter:
		return fmt.Sprintf("Alter(%d)", in.Arg)
	case OpOutput:
		return "Output"
	case OpInput:
		return "Input"
	case OpLoopOpen:
		return "LoopOpen"
	case OpLoopClose:
		return "LoopClose"
	case OpNoOp:
		return "NoOp"
	case OpClear:
		return "Clear"
	case OpCopy:
		return fmt.Sprintf("Copy(x%d, %+d)", in.Mul, in.Arg)
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(in.Op))
	}
}
