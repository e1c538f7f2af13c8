package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// VM executes compiled chunks.
//
// A VM is single-threaded: it owns its stack and instruction pointer for the
// duration of Run and must not be shared between goroutines while running.
// A VM may be reused for several chunks in sequence.
type VM struct {
	chunk *Chunk // chunk being executed
	ip    int    // instruction pointer
	stack *Stack

	out io.Writer // receives the value printed by OpReturn
	log *logrus.Entry

	// Trace logs every instruction and the stack at debug level.
	Trace bool
}

// Option configures a VM.
type Option func(*VM)

// WithOutput sets the writer that receives printed results.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) { vm.out = w }
}

// WithTrace enables instruction tracing.
func WithTrace(trace bool) Option {
	return func(vm *VM) { vm.Trace = trace }
}

// WithLogger sets the logger used for tracing and fault reports.
func WithLogger(l *logrus.Logger) Option {
	return func(vm *VM) { vm.log = l.WithField("component", "vm") }
}

// New creates a VM that prints results to stdout.
func New(opts ...Option) *VM {
	vm := &VM{
		stack: NewStack(),
		out:   os.Stdout,
		log:   logrus.WithField("component", "vm"),
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Run executes chunk from its first instruction until OpReturn or a fault.
//
// On OpReturn the popped value is printed to the VM's output and returned.
// Any fault aborts execution immediately and is returned as a *RuntimeError;
// side effects of instructions before the fault are kept.
func (vm *VM) Run(chunk *Chunk) (Value, error) {
	vm.chunk = chunk
	vm.ip = 0
	vm.stack.Reset()
	return vm.run()
}

// StackDepth returns the number of values currently on the stack.
func (vm *VM) StackDepth() int {
	return vm.stack.Len()
}

// run is the main execution loop.
func (vm *VM) run() (Value, error) {
	for {
		ins, ok := vm.chunk.GetAt(vm.ip)
		if !ok {
			return Nil, vm.fault(OpReturn, ErrNoReturn, "")
		}

		if vm.Trace {
			vm.log.Debugf("%-24s %s", vm.stack, vm.chunk.DisassembleInstruction(vm.ip))
		}

		switch ins.Op {
		case OpReturn:
			v, err := vm.stack.Pop()
			if err != nil {
				return Nil, vm.fault(ins.Op, err, "")
			}
			if _, err := fmt.Fprintln(vm.out, v); err != nil {
				return v, fmt.Errorf("vm: print result: %w", err)
			}
			return v, nil

		// ============ Constants ============
		case OpConstant:
			vm.stack.Push(ins.Operand)

		case OpNil:
			vm.stack.Push(Nil)

		case OpTrue:
			vm.stack.Push(True)

		case OpFalse:
			vm.stack.Push(False)

		// ============ Arithmetic ============
		case OpAdd, OpSub, OpMul, OpDiv, OpGreater, OpLess:
			if err := vm.binaryOp(ins.Op); err != nil {
				return Nil, err
			}

		case OpNegate:
			v, err := vm.stack.Peek(0)
			if err != nil {
				return Nil, vm.fault(ins.Op, err, "")
			}
			if !v.IsNumber() {
				return Nil, vm.fault(ins.Op, ErrTypeMismatch, fmt.Sprintf("operand must be a number, got %s", v.Kind()))
			}
			vm.stack.Pop()
			vm.stack.Push(Number(-v.AsNumber()))

		// ============ Comparison and logic ============
		case OpEqual:
			if vm.stack.Len() < 2 {
				return Nil, vm.fault(ins.Op, ErrStackUnderflow, "")
			}
			b, _ := vm.stack.Pop()
			a, _ := vm.stack.Pop()
			vm.stack.Push(Bool(a.Equal(b)))

		case OpNot:
			v, err := vm.stack.Peek(0)
			if err != nil {
				return Nil, vm.fault(ins.Op, err, "")
			}
			switch v.Kind() {
			case KindBool:
				vm.stack.Pop()
				vm.stack.Push(Bool(!v.AsBool()))
			case KindNil:
				vm.stack.Pop()
				vm.stack.Push(True)
			default:
				return Nil, vm.fault(ins.Op, ErrTypeMismatch, fmt.Sprintf("cannot negate a %s", v.Kind()))
			}

		default:
			return Nil, vm.fault(ins.Op, ErrInvalidOpcode, fmt.Sprintf("0x%02X", byte(ins.Op)))
		}

		vm.ip++
	}
}

// binaryOp applies a numeric operator to the top two stack values. Both
// operands are checked before anything is popped, so a type mismatch leaves
// the stack untouched.
func (vm *VM) binaryOp(op Opcode) error {
	if vm.stack.Len() < 2 {
		return vm.fault(op, ErrStackUnderflow, "")
	}
	b, _ := vm.stack.Peek(0)
	a, _ := vm.stack.Peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		return vm.fault(op, ErrTypeMismatch, fmt.Sprintf("operands must be numbers, got %s and %s", a.Kind(), b.Kind()))
	}
	vm.stack.Pop()
	vm.stack.Pop()

	x, y := a.AsNumber(), b.AsNumber()
	switch op {
	case OpAdd:
		vm.stack.Push(Number(x + y))
	case OpSub:
		vm.stack.Push(Number(x - y))
	case OpMul:
		vm.stack.Push(Number(x * y))
	case OpDiv:
		vm.stack.Push(Number(x / y))
	case OpGreater:
		vm.stack.Push(Bool(x > y))
	case OpLess:
		vm.stack.Push(Bool(x < y))
	}
	return nil
}

// fault builds a RuntimeError for the current instruction.
func (vm *VM) fault(op Opcode, err error, detail string) error {
	rerr := &RuntimeError{
		Offset: vm.ip,
		Line:   vm.chunk.Line(vm.ip),
		Op:     op,
		Detail: detail,
		Err:    err,
	}
	vm.log.WithField("stack", vm.stack.String()).Debug(rerr.Error())
	return rerr
}
