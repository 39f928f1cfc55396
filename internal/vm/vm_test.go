package vm

import (
	"bytes"
	"io"
	"os"
	"testing"

	"loxvm/internal/compiler"
)

type vmTestCase struct {
	input    string
	expected string
}

func TestArithmeticAndPrint(t *testing.T) {
	tests := []vmTestCase{
		{"print 1 + 2 * 3;", "7\n"},
		{"print (1 + 2) * 3;", "9\n"},
		{"print -(-5);", "5\n"},
		{"print 50 / 2 * 2 + 10;", "60\n"},
	}
	runVmTests(t, tests)
}

func TestStringsAndBooleans(t *testing.T) {
	tests := []vmTestCase{
		{`print "foo" + "bar";`, "foobar\n"},
		{"print 1 < 2;", "true\n"},
		{"print 1 == 1;", "true\n"},
		{"print 1 != 1;", "false\n"},
		{"print !false;", "true\n"},
		{"print nil;", "nil\n"},
	}
	runVmTests(t, tests)
}

func TestGlobalsAndLocals(t *testing.T) {
	tests := []vmTestCase{
		{"var a = 1; a = a + 41; print a;", "42\n"},
		{"var a; print a;", "nil\n"},
		{"{ var x = 10; { var x = 99; print x; } print x; }", "99\n10\n"},
	}
	runVmTests(t, tests)
}

func TestControlFlow(t *testing.T) {
	tests := []vmTestCase{
		{`if (1 < 2) print "y"; else print "n";`, "y\n"},
		{`if (1 > 2) print "y"; else print "n";`, "n\n"},
	}
	runVmTests(t, tests)
}

func runVmTests(t *testing.T, tests []vmTestCase) {
	for _, tt := range tests {
		c, err := compiler.Compile(tt.input)
		if err != nil {
			t.Fatalf("compile error for %q: %s", tt.input, err)
		}

		got := captureStdout(t, func() {
			vm := New(false)
			if res := vm.Run(c); res != Ok {
				t.Errorf("vm error for %q: result=%d", tt.input, res)
			}
		})

		if got != tt.expected {
			t.Errorf("input %q: got %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRuntimeErrorTypeMismatch(t *testing.T) {
	c, err := compiler.Compile(`"a" + 1;`)
	if err != nil {
		t.Fatalf("unexpected compile error: %s", err)
	}
	vm := New(false)
	if res := vm.Run(c); res != RuntimeError {
		t.Fatalf("expected RuntimeError, got %d", res)
	}
}

func TestSetGlobalRequiresPriorDefine(t *testing.T) {
	c, err := compiler.Compile(`a = 1;`)
	if err != nil {
		t.Fatalf("unexpected compile error: %s", err)
	}
	vm := New(false)
	if res := vm.Run(c); res != RuntimeError {
		t.Fatalf("expected RuntimeError for assignment to undeclared global, got %d", res)
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %s", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}
