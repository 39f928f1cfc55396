// Package vm executes a compiled Chunk with a fetch-decode-dispatch loop
// over a value stack and a name-keyed table of globals.
package vm

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"loxvm/internal/chunk"
	"loxvm/internal/value"
)

type InterpretResult int

const (
	Ok InterpretResult = iota
	CompileError
	RuntimeError
)

// VM owns the value stack and the table of global bindings. Globals
// persist across calls to Run on the same VM, which is what lets a REPL
// keep state between lines; a one-shot script run uses a fresh VM.
type VM struct {
	chunk *chunk.Chunk
	ip    int

	stack []value.Value

	Globals map[string]value.Value
	Debug   bool
}

func New(debug bool) *VM {
	return &VM{
		Globals: make(map[string]value.Value),
		Debug:   debug,
	}
}

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	last := len(vm.stack) - 1
	v := vm.stack[last]
	vm.stack = vm.stack[:last]
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

// Run executes a Chunk to completion. The stack is reset at the start
// of every run; Globals is left alone.
func (vm *VM) Run(c *chunk.Chunk) InterpretResult {
	vm.chunk = c
	vm.ip = 0
	vm.stack = vm.stack[:0]

	for {
		if vm.Debug {
			vm.traceInstruction()
		}

		op := chunk.OpCode(c.Code[vm.ip])
		line := c.Lines[vm.ip]
		vm.ip++

		switch op {
		case chunk.OP_CONSTANT:
			vm.push(c.Constants[vm.readByte()])

		case chunk.OP_NIL:
			vm.push(value.Nil())
		case chunk.OP_TRUE:
			vm.push(value.NewBool(true))
		case chunk.OP_FALSE:
			vm.push(value.NewBool(false))

		case chunk.OP_POP:
			vm.pop()

		case chunk.OP_GET_LOCAL:
			vm.push(vm.stack[vm.readByte()])
		case chunk.OP_SET_LOCAL:
			vm.stack[vm.readByte()] = vm.peek(0)

		case chunk.OP_GET_GLOBAL:
			name := c.Constants[vm.readByte()].AsString()
			v, ok := vm.Globals[name]
			if !ok {
				vm.runtimeError(line, "Undefined variable '%s'.", name)
				return RuntimeError
			}
			vm.push(v)

		case chunk.OP_DEFINE_GLOBAL:
			name := c.Constants[vm.readByte()].AsString()
			vm.Globals[name] = vm.peek(0)
			vm.pop()

		case chunk.OP_SET_GLOBAL:
			name := c.Constants[vm.readByte()].AsString()
			if _, ok := vm.Globals[name]; !ok {
				vm.runtimeError(line, "Undefined variable '%s'.", name)
				return RuntimeError
			}
			vm.Globals[name] = vm.peek(0)

		case chunk.OP_EQUAL:
			b, a := vm.pop(), vm.pop()
			vm.push(value.NewBool(value.Equal(a, b)))

		case chunk.OP_GREATER:
			res, ok := vm.numericComparison(line, func(a, b float64) bool { return a > b })
			if !ok {
				return RuntimeError
			}
			vm.push(res)

		case chunk.OP_LESS:
			res, ok := vm.numericComparison(line, func(a, b float64) bool { return a < b })
			if !ok {
				return RuntimeError
			}
			vm.push(res)

		case chunk.OP_ADD:
			if !vm.add(line) {
				return RuntimeError
			}

		case chunk.OP_SUBTRACT:
			if !vm.numericBinary(line, func(a, b float64) float64 { return a - b }) {
				return RuntimeError
			}
		case chunk.OP_MULTIPLY:
			if !vm.numericBinary(line, func(a, b float64) float64 { return a * b }) {
				return RuntimeError
			}
		case chunk.OP_DIVIDE:
			if !vm.numericBinary(line, func(a, b float64) float64 { return a / b }) {
				return RuntimeError
			}

		case chunk.OP_NOT:
			vm.push(value.NewBool(vm.pop().IsFalsey()))

		case chunk.OP_NEGATE:
			if !vm.peek(0).IsNumber() {
				vm.runtimeError(line, "Operand must be a number.")
				return RuntimeError
			}
			v := vm.pop()
			vm.push(value.NewNumber(-v.AsFloat))

		case chunk.OP_PRINT:
			fmt.Println(vm.pop().String())

		case chunk.OP_JUMP:
			vm.ip += int(vm.readShort())

		case chunk.OP_JUMP_IF_FALSE:
			offset := vm.readShort()
			if vm.peek(0).IsFalsey() {
				vm.ip += int(offset)
			}

		case chunk.OP_LOOP:
			vm.ip -= int(vm.readShort())

		case chunk.OP_RETURN:
			return Ok

		default:
			vm.runtimeError(line, "Unknown opcode %d.", op)
			return RuntimeError
		}
	}
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readShort() uint16 {
	hi, lo := vm.chunk.Code[vm.ip], vm.chunk.Code[vm.ip+1]
	vm.ip += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) add(line int) bool {
	b, a := vm.peek(0), vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(value.NewNumber(a.AsFloat + b.AsFloat))
		return true
	case a.IsString() && b.IsString():
		vm.pop()
		vm.pop()
		vm.push(value.NewString(a.AsString() + b.AsString()))
		return true
	default:
		vm.runtimeError(line, "Operands must be two numbers or two strings.")
		return false
	}
}

func (vm *VM) numericBinary(line int, op func(a, b float64) float64) bool {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.runtimeError(line, "Operands must be numbers.")
		return false
	}
	b, a := vm.pop(), vm.pop()
	vm.push(value.NewNumber(op(a.AsFloat, b.AsFloat)))
	return true
}

func (vm *VM) numericComparison(line int, op func(a, b float64) bool) (value.Value, bool) {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.runtimeError(line, "Operands must be numbers.")
		return value.Value{}, false
	}
	b, a := vm.pop(), vm.pop()
	return value.NewBool(op(a.AsFloat, b.AsFloat)), true
}

func (vm *VM) runtimeError(line int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "[line %d] %s\n", line, msg)
}

func (vm *VM) traceInstruction() {
	var sb []string
	for _, v := range vm.stack {
		sb = append(sb, fmt.Sprintf("[ %s ]", v.String()))
	}
	logrus.Debugf("%s", sb)
	vm.chunk.DisassembleInstruction(vm.ip)
}
