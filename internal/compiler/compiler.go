// Package compiler is a single-pass Pratt parser that emits bytecode
// directly: there is no intermediate AST. Each prefix/infix handler's
// net effect on the emitted stack discipline must stay stable regardless
// of which operator drove it.
package compiler

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"loxvm/internal/chunk"
	"loxvm/internal/scanner"
	"loxvm/internal/token"
	"loxvm/internal/value"
)

type Prec int

const (
	PrecNone   Prec = iota
	PrecAssign      // =
	PrecOr          // or
	PrecAnd         // and
	PrecEqual       // == !=
	PrecComp        // < > <= >=
	PrecTerm        // + -
	PrecFactor      // * /
	PrecUnary       // ! -
	PrecCall        // . ()
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix, infix parseFn
	prec          Prec
}

var rules map[token.TokenType]parseRule

func init() {
	rules = map[token.TokenType]parseRule{
		token.LPAREN: {(*Compiler).grouping, nil, PrecNone},
		token.MINUS:  {(*Compiler).unary, (*Compiler).binary, PrecTerm},
		token.PLUS:   {nil, (*Compiler).binary, PrecTerm},
		token.SLASH:  {nil, (*Compiler).binary, PrecFactor},
		token.STAR:   {nil, (*Compiler).binary, PrecFactor},
		token.NOT:    {(*Compiler).unary, nil, PrecNone},
		token.NEQ:    {nil, (*Compiler).binary, PrecEqual},
		token.EQ:     {nil, (*Compiler).binary, PrecEqual},
		token.GT:     {nil, (*Compiler).binary, PrecComp},
		token.GTE:    {nil, (*Compiler).binary, PrecComp},
		token.LT:     {nil, (*Compiler).binary, PrecComp},
		token.LTE:    {nil, (*Compiler).binary, PrecComp},

		token.IDENTIFIER: {(*Compiler).variable, nil, PrecNone},
		token.STRING:      {(*Compiler).str, nil, PrecNone},
		token.NUMBER:       {(*Compiler).number, nil, PrecNone},

		token.FALSE: {(*Compiler).literal, nil, PrecNone},
		token.NIL:   {(*Compiler).literal, nil, PrecNone},
		token.TRUE:  {(*Compiler).literal, nil, PrecNone},
	}
}

func ruleFor(t token.TokenType) parseRule {
	return rules[t] // zero value {nil, nil, PrecNone} for every other kind
}

const uninitialized = -1
const maxLocals = 256

type local struct {
	name  token.Token
	depth int
}

// Compiler owns a Scanner, the Chunk it is emitting into, a one-token
// lookahead, and the compile-time bookkeeping (scope depth and local
// slots) that lets local reads/writes become direct stack-slot opcodes.
type Compiler struct {
	scanner *scanner.Scanner
	chunk   *chunk.Chunk

	previous token.Token
	current  token.Token

	hadError  bool
	panicMode bool
	errors    *multierror.Error

	locals     []local
	scopeDepth int
}

// Compile runs a whole program through the compiler and returns the
// finished Chunk, or an aggregated compile error if any diagnostic
// fired. It never invokes the VM.
func Compile(source string) (*chunk.Chunk, error) {
	c := &Compiler{
		scanner: scanner.New(source),
		chunk:   chunk.New(),
	}

	c.advance()
	for !c.check(token.EOF) {
		c.declaration()
	}
	c.emitReturn()

	if c.hadError {
		return nil, c.errors.ErrorOrNil()
	}
	return c.chunk, nil
}

/* token stream */

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.ScanToken()
		if c.current.Type != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Literal)
	}
}

func (c *Compiler) check(kind token.TokenType) bool {
	return c.current.Type == kind
}

func (c *Compiler) match(kind token.TokenType) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind token.TokenType, msg string) {
	if c.current.Type == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

/* declarations and statements */

func (c *Compiler) declaration() {
	if c.match(token.VAR) {
		c.varDeclaration()
	} else {
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.ASSIGN) {
		c.expression()
	} else {
		c.emitByte(byte(chunk.OP_NIL))
	}
	c.consume(token.SEMI, "Expect ';' after variable declaration.")

	c.defineVariable(global)
}

// parseVariable consumes the identifier and, at global scope, interns
// its lexeme into the constant pool; at local scope it declares the
// local and returns 0 (unused by defineVariable in that case).
func (c *Compiler) parseVariable(msg string) byte {
	c.consume(token.IDENTIFIER, msg)

	c.declareVariable()
	if c.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

func (c *Compiler) identifierConstant(name token.Token) byte {
	return c.makeConstant(value.NewString(name.Literal))
}

func (c *Compiler) declareVariable() {
	if c.scopeDepth == 0 {
		return
	}
	name := c.previous
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != uninitialized && l.depth < c.scopeDepth {
			break
		}
		if l.name.Literal == name.Literal {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name token.Token) {
	if len(c.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.locals = append(c.locals, local{name: name, depth: uninitialized})
}

func (c *Compiler) defineVariable(global byte) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(byte(chunk.OP_DEFINE_GLOBAL), global)
}

func (c *Compiler) markInitialized() {
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMI, "Expect ';' after value.")
	c.emitByte(byte(chunk.OP_PRINT))
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMI, "Expect ';' after expression.")
	c.emitByte(byte(chunk.OP_POP))
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := c.emitJump(chunk.OP_JUMP_IF_FALSE)
	c.emitByte(byte(chunk.OP_POP))
	c.statement()

	elseJump := c.emitJump(chunk.OP_JUMP)
	c.patchJump(thenJump)
	c.emitByte(byte(chunk.OP_POP))

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "Expect '}' after block.")
}

func (c *Compiler) beginScope() { c.scopeDepth++ }

func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emitByte(byte(chunk.OP_POP))
		c.locals = c.locals[:len(c.locals)-1]
	}
}

/* expressions */

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssign)
}

func (c *Compiler) parsePrecedence(prec Prec) {
	c.advance()
	prefix := ruleFor(c.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssign
	prefix(c, canAssign)

	for prec <= ruleFor(c.current.Type).prec {
		c.advance()
		infix := ruleFor(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.error("Invalid assignment target.")
	}
}

func (c *Compiler) number(_ bool) {
	f, err := strconv.ParseFloat(c.previous.Literal, 64)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstant(value.NewNumber(f))
}

func (c *Compiler) str(_ bool) {
	c.emitConstant(value.NewString(c.previous.Literal))
}

func (c *Compiler) literal(_ bool) {
	switch c.previous.Type {
	case token.FALSE:
		c.emitByte(byte(chunk.OP_FALSE))
	case token.NIL:
		c.emitByte(byte(chunk.OP_NIL))
	case token.TRUE:
		c.emitByte(byte(chunk.OP_TRUE))
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RPAREN, "Expect ')' after expression.")
}

func (c *Compiler) unary(_ bool) {
	op := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch op {
	case token.MINUS:
		c.emitByte(byte(chunk.OP_NEGATE))
	case token.NOT:
		c.emitByte(byte(chunk.OP_NOT))
	}
}

func (c *Compiler) binary(_ bool) {
	op := c.previous.Type
	rule := ruleFor(op)
	c.parsePrecedence(rule.prec + 1)

	switch op {
	case token.PLUS:
		c.emitByte(byte(chunk.OP_ADD))
	case token.MINUS:
		c.emitByte(byte(chunk.OP_SUBTRACT))
	case token.STAR:
		c.emitByte(byte(chunk.OP_MULTIPLY))
	case token.SLASH:
		c.emitByte(byte(chunk.OP_DIVIDE))
	case token.EQ:
		c.emitByte(byte(chunk.OP_EQUAL))
	case token.NEQ:
		c.emitBytes(byte(chunk.OP_EQUAL), byte(chunk.OP_NOT))
	case token.GT:
		c.emitByte(byte(chunk.OP_GREATER))
	case token.GTE:
		c.emitBytes(byte(chunk.OP_LESS), byte(chunk.OP_NOT))
	case token.LT:
		c.emitByte(byte(chunk.OP_LESS))
	case token.LTE:
		c.emitBytes(byte(chunk.OP_GREATER), byte(chunk.OP_NOT))
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp chunk.OpCode
	arg, isLocal := c.resolveLocal(name)
	if isLocal {
		getOp, setOp = chunk.OP_GET_LOCAL, chunk.OP_SET_LOCAL
	} else {
		arg = c.identifierConstant(name)
		getOp, setOp = chunk.OP_GET_GLOBAL, chunk.OP_SET_GLOBAL
	}

	if canAssign && c.match(token.ASSIGN) {
		c.expression()
		c.emitBytes(byte(setOp), arg)
	} else {
		c.emitBytes(byte(getOp), arg)
	}
}

// resolveLocal scans locals top-down by name; a match whose depth is
// still uninitialized means the name is being read inside its own
// initializer, which is a compile error.
func (c *Compiler) resolveLocal(name token.Token) (slot byte, found bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.name.Literal == name.Literal {
			if l.depth == uninitialized {
				c.error("Can't read local variable in its own initializer.")
			}
			return byte(i), true
		}
	}
	return 0, false
}

/* emission */

func (c *Compiler) emitByte(b byte) {
	c.chunk.Write(b, c.previous.Line)
}

func (c *Compiler) emitBytes(a, b byte) {
	c.emitByte(a)
	c.emitByte(b)
}

func (c *Compiler) emitReturn() {
	c.emitByte(byte(chunk.OP_RETURN))
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitBytes(byte(chunk.OP_CONSTANT), c.makeConstant(v))
}

func (c *Compiler) makeConstant(v value.Value) byte {
	idx := c.chunk.AddConstant(v)
	if idx > math.MaxUint8 {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (c *Compiler) emitJump(op chunk.OpCode) int {
	c.emitByte(byte(op))
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk.Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk.Code) - offset - 2
	if jump > math.MaxUint16 {
		c.error("Too much code to jump over.")
		return
	}
	c.chunk.Code[offset] = byte(jump >> 8 & 0xff)
	c.chunk.Code[offset+1] = byte(jump & 0xff)
}

/* diagnostics */

// synchronize discards tokens until a likely statement boundary, so one
// bad statement doesn't cascade into spurious follow-on diagnostics.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for c.current.Type != token.EOF {
		if c.previous.Type == token.SEMI {
			return
		}
		switch c.current.Type {
		case token.CLASS, token.FUN, token.VAR, token.FOR,
			token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

func (c *Compiler) error(msg string) {
	c.errorAt(c.previous, msg)
}

func (c *Compiler) errorAtCurrent(msg string) {
	c.errorAt(c.current, msg)
}

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	var where string
	switch tok.Type {
	case token.EOF:
		where = "end"
	case token.ERROR:
		where = ""
	default:
		where = tok.Literal
	}

	diag := fmt.Sprintf("[line %d] Error at %s: %s", tok.Line, where, msg)
	fmt.Fprintln(os.Stderr, diag)
	logrus.Debugln(diag)
	c.errors = multierror.Append(c.errors, fmt.Errorf("%s", diag))
}
