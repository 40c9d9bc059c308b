package vm

import (
	"strings"
	"testing"

	"github.com/chazu/brainfrick/compiler"
)

// The optimizing machine and the naive interpreter are independent
// implementations of the same semantics. Any program that runs cleanly on
// both must produce byte-identical output.
func TestEnginesAgree(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		input string
	}{
		{"hello world", helloProgram, ""},
		{"digits", digitsProgram, ""},
		{"pi", piProgram, ""},
		{"echo until zero", echoProgram, "brainfrick\x00"},
		{"nested multiply", "++[>+++[>+++++++<-]<-]>>.", ""},
		{"negative offset copy", ">++[<+++>-]<.", ""},
		{"cancelling runs", "+++>><<->.<.", ""},
		{"cell wrap", strings.Repeat("+", 300) + ".", ""},
		{"clear loop", "+++++[-].", ""},
		{"increment inputs", ",+.,+.", "AZ"},
		{"all folds mixed", "++++[->++<]>[->+++<]>.", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prog, err := compiler.Compile(tc.src)
			if err != nil {
				t.Fatalf("Compile failed: %v", err)
			}

			mio := NewBufferIO([]byte(tc.input))
			if err := NewMachine(prog, mio).Run(); err != nil {
				t.Fatalf("machine run failed: %v", err)
			}

			iio := NewBufferIO([]byte(tc.input))
			if err := NewInterpreter(iio).Run(tc.src); err != nil {
				t.Fatalf("interpreter run failed: %v", err)
			}

			if mio.Output() != iio.Output() {
				t.Errorf("engines disagree:\nmachine:     %q\ninterpreter: %q",
					mio.Output(), iio.Output())
			}
		})
	}
}
