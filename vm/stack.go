package vm

import "strings"

// Stack is the VM operand stack.
type Stack struct {
	values []Value
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{values: make([]Value, 0, 64)}
}

// Push places v on top of the stack.
func (s *Stack) Push(v Value) {
	s.values = append(s.values, v)
}

// Pop removes and returns the top value. Popping an empty stack returns
// ErrStackUnderflow.
func (s *Stack) Pop() (Value, error) {
	n := len(s.values)
	if n == 0 {
		return Nil, ErrStackUnderflow
	}
	v := s.values[n-1]
	s.values = s.values[:n-1]
	return v, nil
}

// Peek returns the value distance slots below the top without removing it.
// Peek(0) is the top of the stack.
func (s *Stack) Peek(distance int) (Value, error) {
	idx := len(s.values) - 1 - distance
	if distance < 0 || idx < 0 {
		return Nil, ErrStackUnderflow
	}
	return s.values[idx], nil
}

// Len returns the number of values on the stack.
func (s *Stack) Len() int {
	return len(s.values)
}

// Reset empties the stack, keeping its capacity.
func (s *Stack) Reset() {
	s.values = s.values[:0]
}

// String renders the stack bottom to top as "[a][b][c]".
func (s *Stack) String() string {
	var sb strings.Builder
	for _, v := range s.values {
		sb.WriteString("[")
		sb.WriteString(v.String())
		sb.WriteString("]")
	}
	return sb.String()
}
