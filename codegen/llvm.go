// Package codegen lowers compiled programs to LLVM IR for ahead-of-time
// builds. The emitted module is freestanding C-callable code: it declares
// getchar/putchar externs for I/O and a main that runs the program.
package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/chazu/brainfrick/compiler"
	"github.com/chazu/brainfrick/vm"
)

// loop tracks the block pair of one open bracket while its body is being
// emitted.
type loop struct {
	body *ir.Block
	end  *ir.Block
}

type emitter struct {
	fn      *ir.Func
	block   *ir.Block
	getchar *ir.Func
	putchar *ir.Func
	tapeTy  *types.ArrayType
	tape    value.Value
	pos     value.Value
	size    int64
}

// EmitModule lowers a compiled program to an LLVM module with a main
// function over a zeroed tape of tapeSize cells. Sizes of zero or below
// fall back to the machine default. The program must come out of Compile
// or Deserialize; like the machine, the backend treats a NoOp or an
// unknown opcode as a broken pipeline and panics.
func EmitModule(prog *compiler.Program, tapeSize int) *ir.Module {
	if tapeSize <= 0 {
		tapeSize = vm.TapeSize
	}

	mod := ir.NewModule()

	e := &emitter{size: int64(tapeSize)}
	e.getchar = mod.NewFunc("getchar", types.I8)
	e.putchar = mod.NewFunc("putchar", types.I32, ir.NewParam("ch", types.I8))
	memset := mod.NewFunc("memset", types.Void,
		ir.NewParam("ptr", types.I8Ptr),
		ir.NewParam("val", types.I8),
		ir.NewParam("len", types.I64))

	e.fn = mod.NewFunc("main", types.I32)
	e.block = e.fn.NewBlock("")

	e.tapeTy = types.NewArray(uint64(tapeSize), types.I8)
	e.tape = e.block.NewAlloca(e.tapeTy)
	e.block.NewCall(memset,
		e.block.NewGetElementPtr(e.tapeTy, e.tape, constant.NewInt(types.I64, 0), constant.NewInt(types.I64, 0)),
		constant.NewInt(types.I8, 0),
		constant.NewInt(types.I64, e.size))

	e.pos = e.block.NewAlloca(types.I64)
	e.block.NewStore(constant.NewInt(types.I64, 0), e.pos)

	var stack []loop
	for ip, in := range prog.Instructions {
		switch in.Op {
		case compiler.OpShift:
			e.emitShift(in.Arg)

		case compiler.OpAlter:
			e.emitAlter(in.Arg)

		case compiler.OpOutput:
			e.block.NewCall(e.putchar, e.block.NewLoad(types.I8, e.cellPtr()))

		case compiler.OpInput:
			e.block.NewStore(e.block.NewCall(e.getchar), e.cellPtr())

		case compiler.OpLoopOpen:
			lp := loop{
				body: e.fn.NewBlock(""),
				end:  e.fn.NewBlock(""),
			}
			stack = append(stack, lp)
			e.block.NewCondBr(e.cellIsNonZero(), lp.body, lp.end)
			e.block = lp.body

		case compiler.OpLoopClose:
			if len(stack) == 0 {
				panic(fmt.Sprintf("codegen: unmatched close bracket at instruction %d", ip))
			}
			lp := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			e.block.NewCondBr(e.cellIsNonZero(), lp.body, lp.end)
			e.block = lp.end

		case compiler.OpClear:
			e.block.NewStore(constant.NewInt(types.I8, 0), e.cellPtr())

		case compiler.OpCopy:
			e.emitCopy(in.Mul, in.Arg)

		case compiler.OpNoOp:
			panic(fmt.Sprintf("codegen: NoOp reached the backend at instruction %d", ip))

		default:
			panic(fmt.Sprintf("codegen: unknown opcode %d at instruction %d", in.Op, ip))
		}
	}
	if len(stack) != 0 {
		panic(fmt.Sprintf("codegen: %d unclosed bracket(s) at end of program", len(stack)))
	}

	e.block.NewRet(constant.NewInt(types.I32, 0))
	return mod
}

// EmitText renders the lowered module as LLVM assembly, ready for clang.
func EmitText(prog *compiler.Program, tapeSize int) string {
	return EmitModule(prog, tapeSize).String()
}

// cellPtr emits the address computation for the cell under the pointer.
func (e *emitter) cellPtr() value.Value {
	idx := e.block.NewLoad(types.I64, e.pos)
	return e.block.NewGetElementPtr(e.tapeTy, e.tape, constant.NewInt(types.I64, 0), idx)
}

// cellIsNonZero emits the loop condition: current cell != 0.
func (e *emitter) cellIsNonZero() value.Value {
	cell := e.block.NewLoad(types.I8, e.cellPtr())
	return e.block.NewICmp(enum.IPredNE, cell, constant.NewInt(types.I8, 0))
}

// wrappedIndex emits ((pos+delta) % size + size) % size, the same
// wrap-to-range rule the machine applies to pointer movement.
func (e *emitter) wrappedIndex(delta int) value.Value {
	cur := e.block.NewLoad(types.I64, e.pos)
	moved := e.block.NewAdd(cur, constant.NewInt(types.I64, int64(delta)))
	rem := e.block.NewSRem(moved, constant.NewInt(types.I64, e.size))
	shifted := e.block.NewAdd(rem, constant.NewInt(types.I64, e.size))
	return e.block.NewSRem(shifted, constant.NewInt(types.I64, e.size))
}

func (e *emitter) emitShift(delta int) {
	e.block.NewStore(e.wrappedIndex(delta), e.pos)
}

// emitAlter adds the delta to the current cell. The delta is reduced to
// eight bits first; i8 adds wrap exactly like tape cells.
func (e *emitter) emitAlter(delta int) {
	ptr := e.cellPtr()
	cur := e.block.NewLoad(types.I8, ptr)
	sum := e.block.NewAdd(cur, constant.NewInt(types.I8, int64(int8(byte(delta)))))
	e.block.NewStore(sum, ptr)
}

// emitCopy adds cell*mul into the cell at the wrapped offset, leaving the
// source untouched.
func (e *emitter) emitCopy(mul uint8, offset int) {
	src := e.block.NewLoad(types.I8, e.cellPtr())
	product := e.block.NewMul(src, constant.NewInt(types.I8, int64(int8(mul))))

	tptr := e.block.NewGetElementPtr(e.tapeTy, e.tape, constant.NewInt(types.I64, 0), e.wrappedIndex(offset))
	sum := e.block.NewAdd(e.block.NewLoad(types.I8, tptr), product)
	e.block.NewStore(sum, tptr)
}
