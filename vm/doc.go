// Package vm executes compiled tape programs.
//
// This package contains:
//   - The ByteIO capability and its three adapters (terminal, null, buffer)
//   - Machine, the executor for optimized compiled programs
//   - Interpreter, the naive unoptimized execution path behind the REPL
package vm
