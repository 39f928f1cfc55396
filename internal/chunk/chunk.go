// Package chunk holds compiled bytecode: a flat instruction stream, the
// constant pool it indexes into, and a line table mapping each byte back
// to the source line that produced it.
package chunk

import (
	"fmt"

	"loxvm/internal/value"
)

type OpCode byte

const (
	OP_CONSTANT OpCode = iota
	OP_NIL
	OP_TRUE
	OP_FALSE
	OP_POP
	OP_GET_LOCAL
	OP_SET_LOCAL
	OP_GET_GLOBAL
	OP_DEFINE_GLOBAL
	OP_SET_GLOBAL
	OP_EQUAL
	OP_GREATER
	OP_LESS
	OP_ADD
	OP_SUBTRACT
	OP_MULTIPLY
	OP_DIVIDE
	OP_NOT
	OP_NEGATE
	OP_PRINT
	OP_JUMP
	OP_JUMP_IF_FALSE
	OP_LOOP
	OP_RETURN
)

func (op OpCode) String() string {
	switch op {
	case OP_CONSTANT:
		return "OP_CONSTANT"
	case OP_NIL:
		return "OP_NIL"
	case OP_TRUE:
		return "OP_TRUE"
	case OP_FALSE:
		return "OP_FALSE"
	case OP_POP:
		return "OP_POP"
	case OP_GET_LOCAL:
		return "OP_GET_LOCAL"
	case OP_SET_LOCAL:
		return "OP_SET_LOCAL"
	case OP_GET_GLOBAL:
		return "OP_GET_GLOBAL"
	case OP_DEFINE_GLOBAL:
		return "OP_DEFINE_GLOBAL"
	case OP_SET_GLOBAL:
		return "OP_SET_GLOBAL"
	case OP_EQUAL:
		return "OP_EQUAL"
	case OP_GREATER:
		return "OP_GREATER"
	case OP_LESS:
		return "OP_LESS"
	case OP_ADD:
		return "OP_ADD"
	case OP_SUBTRACT:
		return "OP_SUBTRACT"
	case OP_MULTIPLY:
		return "OP_MULTIPLY"
	case OP_DIVIDE:
		return "OP_DIVIDE"
	case OP_NOT:
		return "OP_NOT"
	case OP_NEGATE:
		return "OP_NEGATE"
	case OP_PRINT:
		return "OP_PRINT"
	case OP_JUMP:
		return "OP_JUMP"
	case OP_JUMP_IF_FALSE:
		return "OP_JUMP_IF_FALSE"
	case OP_LOOP:
		return "OP_LOOP"
	case OP_RETURN:
		return "OP_RETURN"
	default:
		return fmt.Sprintf("OP_%d", op)
	}
}

// Chunk is a unit of compiled bytecode: one per program (there are no
// functions, so a program compiles to exactly one chunk).
type Chunk struct {
	Code      []byte
	Constants []value.Value
	Lines     []int
	FileName  string
}

func New() *Chunk {
	return &Chunk{
		Code:      []byte{},
		Constants: []value.Value{},
		Lines:     []int{},
		FileName:  "",
	}
}

func (c *Chunk) Write(byteCode byte, line int) {
	c.Code = append(c.Code, byteCode)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends v to the constant pool and returns its index.
// Callers needing an operand byte must check the index still fits in a
// byte (the 256-constant-per-chunk limit) themselves.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Disassemble prints a purely informative, non-normative listing of the
// chunk's instructions; nothing at runtime depends on its output.
func (c *Chunk) Disassemble(name string) {
	fmt.Printf("== %s ==\n", name)

	for offset := 0; offset < len(c.Code); {
		offset = c.DisassembleInstruction(offset)
	}
}

func (c *Chunk) DisassembleInstruction(offset int) int {
	fmt.Printf("%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Printf("   | ")
	} else {
		fmt.Printf("%4d ", c.Lines[offset])
	}

	instruction := OpCode(c.Code[offset])
	switch instruction {
	case OP_CONSTANT:
		return c.constantInstruction("OP_CONSTANT", offset)
	case OP_NIL:
		return c.simpleInstruction("OP_NIL", offset)
	case OP_TRUE:
		return c.simpleInstruction("OP_TRUE", offset)
	case OP_FALSE:
		return c.simpleInstruction("OP_FALSE", offset)
	case OP_POP:
		return c.simpleInstruction("OP_POP", offset)
	case OP_GET_LOCAL:
		return c.byteInstruction("OP_GET_LOCAL", offset)
	case OP_SET_LOCAL:
		return c.byteInstruction("OP_SET_LOCAL", offset)
	case OP_GET_GLOBAL:
		return c.constantInstruction("OP_GET_GLOBAL", offset)
	case OP_DEFINE_GLOBAL:
		return c.constantInstruction("OP_DEFINE_GLOBAL", offset)
	case OP_SET_GLOBAL:
		return c.constantInstruction("OP_SET_GLOBAL", offset)
	case OP_EQUAL:
		return c.simpleInstruction("OP_EQUAL", offset)
	case OP_GREATER:
		return c.simpleInstruction("OP_GREATER", offset)
	case OP_LESS:
		return c.simpleInstruction("OP_LESS", offset)
	case OP_ADD:
		return c.simpleInstruction("OP_ADD", offset)
	case OP_SUBTRACT:
		return c.simpleInstruction("OP_SUBTRACT", offset)
	case OP_MULTIPLY:
		return c.simpleInstruction("OP_MULTIPLY", offset)
	case OP_DIVIDE:
		return c.simpleInstruction("OP_DIVIDE", offset)
	case OP_NOT:
		return c.simpleInstruction("OP_NOT", offset)
	case OP_NEGATE:
		return c.simpleInstruction("OP_NEGATE", offset)
	case OP_PRINT:
		return c.simpleInstruction("OP_PRINT", offset)
	case OP_JUMP:
		return c.jumpInstruction("OP_JUMP", 1, offset)
	case OP_JUMP_IF_FALSE:
		return c.jumpInstruction("OP_JUMP_IF_FALSE", 1, offset)
	case OP_LOOP:
		return c.jumpInstruction("OP_LOOP", -1, offset)
	case OP_RETURN:
		return c.simpleInstruction("OP_RETURN", offset)
	default:
		fmt.Printf("Unknown opcode %d\n", instruction)
		return offset + 1
	}
}

func (c *Chunk) simpleInstruction(name string, offset int) int {
	fmt.Printf("%s\n", name)
	return offset + 1
}

func (c *Chunk) constantInstruction(name string, offset int) int {
	constant := c.Code[offset+1]
	fmt.Printf("%-16s %4d '", name, constant)
	fmt.Print(c.Constants[constant])
	fmt.Printf("'\n")
	return offset + 2
}

func (c *Chunk) byteInstruction(name string, offset int) int {
	slot := c.Code[offset+1]
	fmt.Printf("%-16s %4d\n", name, slot)
	return offset + 2
}

func (c *Chunk) jumpInstruction(name string, sign int, offset int) int {
	jump := uint16(c.Code[offset+1])<<8 | uint16(c.Code[offset+2])
	fmt.Printf("%-16s %4d -> %d\n", name, offset, offset+3+sign*int(jump))
	return offset + 3
}
