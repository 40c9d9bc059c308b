package compiler

import (
	"fmt"
	"io"
	"strings"
)

// ---------------------------------------------------------------------------
// Listing: human-readable rendering of a compiled program
// ---------------------------------------------------------------------------

// WriteListing writes an indentation-aware listing of the program to w:
// a short stats header, then one instruction per line, indented two spaces
// per loop depth. Loop bodies indent after LoopOpen; each LoopClose prints
// aligned with its matching open.
func (p *Program) WriteListing(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "; %d instructions (%d lexed)\n", len(p.Instructions), p.Stats.Lexed); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "; contracted %d, removed %d no-ops, folded %d clear / %d copy loops\n",
		p.Stats.Contracted, p.Stats.Removed, p.Stats.ClearLoops, p.Stats.CopyLoops); err != nil {
		return err
	}

	depth := 0
	for _, in := range p.Instructions {
		if in.Op == OpLoopClose && depth > 0 {
			depth--
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), in); err != nil {
			return err
		}
		if in.Op == OpLoopOpen {
			depth++
		}
	}
	return nil
}

// String returns the listing as a string.
func (p *Program) String() string {
	var sb strings.Builder
	_ = p.WriteListing(&sb) // strings.Builder writes cannot fail
	return sb.String()
}
