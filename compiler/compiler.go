package compiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/chazu/clox/vm"
)

// DefaultChunkName is the heading used when a chunk is disassembled.
const DefaultChunkName = "code"

// Compiler turns source text into a chunk in a single pass. Tokens are
// pulled from the scanner on demand and instructions are emitted as soon as
// each operator's operands have been compiled; no syntax tree is built.
//
// A Compiler may be reused; each call to Compile starts from scratch.
type Compiler struct {
	scanner *Scanner
	chunk   *vm.Chunk

	previous Token
	current  Token

	errs      *multierror.Error
	panicMode bool // set after the first error, suppresses the rest

	name   string
	disasm io.Writer
	log    *logrus.Entry
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithDisassembly sets where the disassembly of a successfully compiled
// chunk is written. A nil writer disables it.
func WithDisassembly(w io.Writer) Option {
	return func(c *Compiler) { c.disasm = w }
}

// WithName sets the chunk name shown in the disassembly heading.
func WithName(name string) Option {
	return func(c *Compiler) { c.name = name }
}

// WithLogger sets the logger used for token tracing and failed-chunk dumps.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Compiler) { c.log = l.WithField("component", "compiler") }
}

// New creates a compiler that writes disassembly to stdout.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		name:   DefaultChunkName,
		disasm: os.Stdout,
		log:    logrus.WithField("component", "compiler"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles source with a default compiler.
func Compile(source string) (*vm.Chunk, error) {
	return New().Compile(source)
}

// Compile compiles a single expression. The returned chunk always ends with
// OpReturn. If any error was reported the chunk is discarded and a
// *CompileError is returned.
func (c *Compiler) Compile(source string) (*vm.Chunk, error) {
	c.scanner = NewScanner(source)
	c.chunk = vm.NewChunk()
	c.errs = nil
	c.panicMode = false
	c.previous = Token{Type: TokenEOF, ID: NoString, Line: 1}
	c.current = c.previous

	c.advance()
	c.expression()
	c.consume(TokenEOF, "Expect end of expression.")

	return c.endCompiler()
}

func (c *Compiler) endCompiler() (*vm.Chunk, error) {
	c.emitOp(vm.OpReturn)

	if c.errs != nil {
		if c.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
			c.log.Debugf("discarding chunk:\n%s", c.chunk.Disassemble(c.name))
		}
		return nil, &CompileError{errs: c.errs}
	}

	if c.disasm != nil {
		if err := c.chunk.DisassembleTo(c.disasm, c.name); err != nil {
			return nil, fmt.Errorf("compiler: write disassembly: %w", err)
		}
	}
	return c.chunk, nil
}

// ---------------------------------------------------------------------------
// Token stream
// ---------------------------------------------------------------------------

// advance moves to the next valid token. Scanner errors are reported and
// skipped.
func (c *Compiler) advance() {
	c.previous = c.current

	for {
		tok, err := c.scanner.ScanToken()
		if err == nil {
			c.current = tok
			break
		}
		c.report(err)
	}

	if c.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		lexeme, _ := c.scanner.Lexeme(c.current)
		c.log.Tracef("token %-10s %q line %d", c.current.Type, lexeme, c.current.Line)
	}
}

// consume advances past the current token if it has type t and reports an
// error otherwise.
func (c *Compiler) consume(t TokenType, message string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAt(c.current, message, ErrExpectedToken)
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

// parsePrecedence compiles an expression whose operators bind at least as
// tightly as prec.
func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := GetRule(c.previous.Type).Prefix
	if prefix == FnNone {
		c.errorAt(c.previous, "Expect expression.", ErrUnexpectedToken)
		return
	}
	c.dispatch(prefix)

	for prec <= GetRule(c.current.Type).Precedence {
		c.advance()
		c.dispatch(GetRule(c.previous.Type).Infix)
	}
}

func (c *Compiler) dispatch(fn ParseFn) {
	switch fn {
	case FnGrouping:
		c.grouping()
	case FnUnary:
		c.unary()
	case FnBinary:
		c.binary()
	case FnNumber:
		c.number()
	case FnLiteral:
		c.literal()
	}
}

func (c *Compiler) grouping() {
	c.expression()
	c.consume(TokenRightParen, "Expect ')' after expression.")
}

func (c *Compiler) unary() {
	op := c.previous.Type

	c.parsePrecedence(PrecUnary)

	switch op {
	case TokenMinus:
		c.emitOp(vm.OpNegate)
	case TokenBang:
		c.emitOp(vm.OpNot)
	}
}

// binary compiles the right operand one level tighter than the operator,
// which makes every binary operator left-associative.
func (c *Compiler) binary() {
	op := c.previous.Type
	rule := GetRule(op)
	c.parsePrecedence(rule.Precedence.Next())

	switch op {
	case TokenBangEqual:
		c.emitOps(vm.OpEqual, vm.OpNot)
	case TokenEqualEqual:
		c.emitOp(vm.OpEqual)
	case TokenGreater:
		c.emitOp(vm.OpGreater)
	case TokenGreaterEqual:
		c.emitOps(vm.OpLess, vm.OpNot)
	case TokenLess:
		c.emitOp(vm.OpLess)
	case TokenLessEqual:
		c.emitOps(vm.OpGreater, vm.OpNot)
	case TokenPlus:
		c.emitOp(vm.OpAdd)
	case TokenMinus:
		c.emitOp(vm.OpSub)
	case TokenStar:
		c.emitOp(vm.OpMul)
	case TokenSlash:
		c.emitOp(vm.OpDiv)
	}
}

func (c *Compiler) number() {
	lexeme, err := c.scanner.Lexeme(c.previous)
	if err != nil {
		c.errorAt(c.previous, err.Error(), err)
		return
	}
	n, err := strconv.ParseFloat(lexeme, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		c.errorAt(c.previous, "Invalid number.", ErrUnexpectedToken)
		return
	}
	c.emitConstant(vm.Number(n))
}

func (c *Compiler) literal() {
	switch c.previous.Type {
	case TokenFalse:
		c.emitOp(vm.OpFalse)
	case TokenNil:
		c.emitOp(vm.OpNil)
	case TokenTrue:
		c.emitOp(vm.OpTrue)
	}
}

// ---------------------------------------------------------------------------
// Emission
// ---------------------------------------------------------------------------

func (c *Compiler) emitOp(op vm.Opcode) {
	c.chunk.WriteOp(op, c.previous.Line)
}

func (c *Compiler) emitOps(ops ...vm.Opcode) {
	for _, op := range ops {
		c.emitOp(op)
	}
}

func (c *Compiler) emitConstant(v vm.Value) {
	c.chunk.WriteConstant(v, c.previous.Line)
}

// ---------------------------------------------------------------------------
// Error reporting
// ---------------------------------------------------------------------------

// report records err unless the compiler is already recovering from an
// earlier error.
func (c *Compiler) report(err error) {
	if c.panicMode {
		c.log.WithError(err).Debug("suppressed error")
		return
	}
	c.panicMode = true
	c.errs = multierror.Append(c.errs, err)
}

func (c *Compiler) errorAt(tok Token, message string, kind error) {
	err := &SyntaxError{
		Line:    tok.Line,
		Message: message,
		Err:     kind,
	}
	switch tok.Type {
	case TokenEOF:
		err.Where = "at end"
	case TokenError:
	default:
		lexeme, _ := c.scanner.Lexeme(tok)
		err.Where = fmt.Sprintf("at '%s'", lexeme)
	}
	c.report(err)
}
