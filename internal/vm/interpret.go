package vm

import "loxvm/internal/compiler"

// Interpret compiles source and, if compilation succeeds, runs it on
// machine. This is the external interface named by the rest of the
// system: a thin driver maps its result to an exit code.
func Interpret(source string, machine *VM) InterpretResult {
	c, err := compiler.Compile(source)
	if err != nil {
		return CompileError
	}
	return machine.Run(c)
}
