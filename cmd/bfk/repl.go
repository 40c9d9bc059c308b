package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/chazu/brainfrick/manifest"
	"github.com/chazu/brainfrick/vm"
)

const historyFile = ".bfk_history"

// runREPL starts an interactive session on a persistent interpreter, so
// tape state carries across lines.
func runREPL(man *manifest.Manifest) {
	fmt.Println("Brainfrick REPL (Ctrl-D to exit, :help for commands)")

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	interp := vm.NewInterpreterSize(vm.NewStdIO(), man.Machine.TapeSize)

	for {
		line, err := ln.Prompt("bfk> ")
		if errors.Is(err, io.EOF) {
			fmt.Println()
			break
		}
		if err != nil {
			// Ctrl-C aborts the current line.
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			if done := handleREPLCommand(interp, trimmed); done {
				break
			}
			ln.AppendHistory(line)
			continue
		}

		if err := interp.Run(line); err != nil {
			fmt.Println(err)
			continue
		}
		ln.AppendHistory(line)
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
}

// handleREPLCommand handles REPL meta-commands. Returns true to exit.
func handleREPLCommand(interp *vm.Interpreter, cmd string) bool {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Println("REPL Commands:")
		fmt.Println("  :help, :h, :?     Show this help")
		fmt.Println("  :dump             Show the data pointer and tape prefix")
		fmt.Println("  :reset            Clear the tape and reset the pointer")
		fmt.Println("  :quit, :exit      Exit the REPL")
	case ":dump":
		fmt.Print(interp.Dump())
	case ":reset":
		interp.Reset()
		fmt.Println("Tape reset")
	case ":quit", ":exit":
		return true
	default:
		fmt.Printf("Unknown command: %s (type :help for commands)\n", cmd)
	}
	return false
}
