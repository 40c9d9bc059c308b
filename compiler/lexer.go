package compiler

// ---------------------------------------------------------------------------
// Lexer: source text to primitive instructions
// ---------------------------------------------------------------------------

// Lex maps source text to the ordered sequence of primitive instructions.
// Each of the eight command characters produces exactly one instruction;
// every other byte is a comment and is dropped without error.
func Lex(source string) []Instruction {
	out := make([]Instruction, 0, len(source))
	for i := 0; i < len(source); i++ {
		if in, ok := FromChar(source[i]); ok {
			out = append(out, in)
		}
	}
	return out
}
