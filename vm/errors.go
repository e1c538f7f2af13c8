package vm

import (
	"errors"
	"fmt"
)

// Runtime errors
var (
	ErrStackUnderflow = errors.New("stack underflow")
	ErrTypeMismatch   = errors.New("operand type mismatch")
	ErrNoReturn       = errors.New("reached end of chunk without return")
	ErrInvalidOpcode  = errors.New("invalid opcode")
)

// RuntimeError is a fault raised while executing a chunk. Execution stops at
// the first RuntimeError; Err holds one of the sentinel errors above.
type RuntimeError struct {
	Offset int    // instruction offset
	Line   int    // source line, 0 when unknown
	Op     Opcode // faulting opcode, meaningless for ErrNoReturn
	Detail string // optional operand description
	Err    error
}

func (e *RuntimeError) Error() string {
	var where string
	if e.Line > 0 {
		where = fmt.Sprintf("[line %d] ", e.Line)
	}
	if errors.Is(e.Err, ErrNoReturn) {
		return fmt.Sprintf("%sruntime error at %04d: %v", where, e.Offset, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%sruntime error at %04d in %s: %v: %s", where, e.Offset, e.Op, e.Err, e.Detail)
	}
	return fmt.Sprintf("%sruntime error at %04d in %s: %v", where, e.Offset, e.Op, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}
