package vm

import (
	"errors"
	"testing"
)

func TestStackPushPop(t *testing.T) {
	s := NewStack()
	s.Push(Number(1))
	s.Push(True)
	s.Push(Nil)

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}

	want := []Value{Nil, True, Number(1)}
	for i, w := range want {
		v, err := s.Pop()
		if err != nil {
			t.Fatalf("Pop %d: %v", i, err)
		}
		if !v.Equal(w) {
			t.Errorf("Pop %d = %v, want %v", i, v, w)
		}
	}

	if _, err := s.Pop(); !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("Pop on empty stack err = %v, want ErrStackUnderflow", err)
	}
}

func TestStackPeek(t *testing.T) {
	s := NewStack()
	s.Push(Number(1))
	s.Push(Number(2))

	top, err := s.Peek(0)
	if err != nil || top.AsNumber() != 2 {
		t.Errorf("Peek(0) = %v, %v; want 2", top, err)
	}
	below, err := s.Peek(1)
	if err != nil || below.AsNumber() != 1 {
		t.Errorf("Peek(1) = %v, %v; want 1", below, err)
	}
	if _, err := s.Peek(2); !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("Peek(2) err = %v, want ErrStackUnderflow", err)
	}
	if _, err := s.Peek(-1); !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("Peek(-1) err = %v, want ErrStackUnderflow", err)
	}
	if s.Len() != 2 {
		t.Errorf("Peek changed the stack: Len() = %d", s.Len())
	}
}

func TestStackString(t *testing.T) {
	s := NewStack()
	if s.String() != "" {
		t.Errorf("empty stack String() = %q", s.String())
	}
	s.Push(Number(1))
	s.Push(False)
	s.Push(Nil)
	if got := s.String(); got != "[1][false][nil]" {
		t.Errorf("String() = %q, want %q", got, "[1][false][nil]")
	}

	s.Reset()
	if s.Len() != 0 {
		t.Errorf("Reset left %d values", s.Len())
	}
}
