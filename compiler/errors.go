package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Compile errors
var (
	ErrUnexpectedToken        = errors.New("unexpected token")
	ErrExpectedToken          = errors.New("expected token")
	ErrStringIndexOutOfBounds = errors.New("string index out of bounds")
	ErrCompile                = errors.New("compile error")
)

// UnexpectedCharError reports a character that does not start any token.
type UnexpectedCharError struct {
	Line int
	Char rune
}

func (e *UnexpectedCharError) Error() string {
	return fmt.Sprintf("[line %d] Error: Unexpected character %q.", e.Line, e.Char)
}

func (e *UnexpectedCharError) Unwrap() error {
	return ErrUnexpectedToken
}

// UnterminatedStringError reports a string literal that runs to the end of
// the input. Line is the line the literal started on.
type UnterminatedStringError struct {
	Line int
}

func (e *UnterminatedStringError) Error() string {
	return fmt.Sprintf("[line %d] Error: Unterminated string.", e.Line)
}

// SyntaxError is a parse error located at a token.
type SyntaxError struct {
	Line    int
	Where   string // "at end", "at 'x'", or empty
	Message string
	Err     error // ErrUnexpectedToken or ErrExpectedToken
}

func (e *SyntaxError) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("[line %d] Error %s: %s", e.Line, e.Where, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// CompileError is returned when compilation fails. It collects every error
// reported before the compiler gave up; no chunk is produced.
type CompileError struct {
	errs *multierror.Error
}

// Errors returns the individual errors in the order they were reported.
func (e *CompileError) Errors() []error {
	if e.errs == nil {
		return nil
	}
	return e.errs.Errors
}

func (e *CompileError) Error() string {
	errs := e.Errors()
	if len(errs) == 0 {
		return ErrCompile.Error()
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *CompileError) Unwrap() []error {
	return e.Errors()
}

// Is makes every CompileError match ErrCompile.
func (e *CompileError) Is(target error) bool {
	return target == ErrCompile
}

// ErrorLine returns the source line carried by a compile error, or 0.
func ErrorLine(err error) int {
	var synErr *SyntaxError
	if errors.As(err, &synErr) {
		return synErr.Line
	}
	var strErr *UnterminatedStringError
	if errors.As(err, &strErr) {
		return strErr.Line
	}
	var charErr *UnexpectedCharError
	if errors.As(err, &charErr) {
		return charErr.Line
	}
	return 0
}
