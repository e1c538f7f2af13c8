package vm

import "fmt"

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// Opcode represents a single bytecode instruction.
type Opcode byte

// Return
const (
	OpReturn Opcode = 0x00 // pop and print top of stack, halt
)

// Push Constants
const (
	OpConstant Opcode = 0x10 // push the instruction's inline operand
	OpNil      Opcode = 0x11 // push nil
	OpTrue     Opcode = 0x12 // push true
	OpFalse    Opcode = 0x13 // push false
)

// Arithmetic
const (
	OpAdd    Opcode = 0x20 // a + b where b is TOS
	OpSub    Opcode = 0x21 // a - b
	OpMul    Opcode = 0x22 // a * b
	OpDiv    Opcode = 0x23 // a / b
	OpNegate Opcode = 0x24 // -TOS
)

// Comparison and logic
const (
	OpEqual   Opcode = 0x30 // push a == b
	OpGreater Opcode = 0x31 // push a > b
	OpLess    Opcode = 0x32 // push a < b
	OpNot     Opcode = 0x33 // logical negation of TOS
)

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name       string // disassembly mnemonic
	StackPop   int    // values popped
	StackPush  int    // values pushed
	HasOperand bool   // instruction carries an inline Value
}

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[Opcode]OpcodeInfo{
	OpReturn: {"OP_RETURN", 1, 0, false},

	// Push constants
	OpConstant: {"OP_CONSTANT", 0, 1, true},
	OpNil:      {"OP_NIL", 0, 1, false},
	OpTrue:     {"OP_TRUE", 0, 1, false},
	OpFalse:    {"OP_FALSE", 0, 1, false},

	// Arithmetic
	OpAdd:    {"OP_ADD", 2, 1, false},
	OpSub:    {"OP_SUB", 2, 1, false},
	OpMul:    {"OP_MUL", 2, 1, false},
	OpDiv:    {"OP_DIV", 2, 1, false},
	OpNegate: {"OP_NEGATE", 1, 1, false},

	// Comparison and logic
	OpEqual:   {"OP_EQUAL", 2, 1, false},
	OpGreater: {"OP_GREATER", 2, 1, false},
	OpLess:    {"OP_LESS", 2, 1, false},
	OpNot:     {"OP_NOT", 1, 1, false},
}

// Info returns metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// Name returns the mnemonic for an opcode.
func (op Opcode) Name() string {
	return op.Info().Name
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Name()
}

// Valid reports whether op is part of the instruction set.
func (op Opcode) Valid() bool {
	_, ok := opcodeTable[op]
	return ok
}

// IsBinary returns true for opcodes that consume two operands.
func (op Opcode) IsBinary() bool {
	return op.Info().StackPop == 2
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeTable)
}

// ---------------------------------------------------------------------------
// Instruction
// ---------------------------------------------------------------------------

// Instruction is one opcode together with its inline operand. Only
// OpConstant uses the operand; there is no separate constant pool.
type Instruction struct {
	_       struct{} `cbor:",toarray"`
	Op      Opcode
	Operand Value
}

// Simple returns an instruction without an operand.
func Simple(op Opcode) Instruction {
	return Instruction{Op: op}
}

// Constant returns an OpConstant instruction carrying v.
func Constant(v Value) Instruction {
	return Instruction{Op: OpConstant, Operand: v}
}

// String returns the mnemonic, followed by the operand for constants.
func (ins Instruction) String() string {
	if ins.Op.Info().HasOperand {
		return fmt.Sprintf("%s %s", ins.Op, ins.Operand)
	}
	return ins.Op.String()
}
