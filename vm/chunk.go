package vm

import "fmt"

// ChunkVersion is the current chunk format version.
// Increment when making incompatible changes to the wire format.
const ChunkVersion uint16 = 1

// Chunk is a compiled instruction sequence. Lines[i] is the source line of
// Code[i]; the two slices always have the same length.
type Chunk struct {
	Version uint16        `cbor:"1,keyasint"`
	Code    []Instruction `cbor:"2,keyasint"`
	Lines   []int         `cbor:"3,keyasint"`
}

// NewChunk creates a new empty chunk with the current version.
func NewChunk() *Chunk {
	return &Chunk{
		Version: ChunkVersion,
		Code:    make([]Instruction, 0, 16),
		Lines:   make([]int, 0, 16),
	}
}

// Write appends an instruction and the line it came from.
func (c *Chunk) Write(ins Instruction, line int) int {
	offset := len(c.Code)
	c.Code = append(c.Code, ins)
	c.Lines = append(c.Lines, line)
	return offset
}

// WriteOp appends an operand-less instruction.
func (c *Chunk) WriteOp(op Opcode, line int) int {
	return c.Write(Simple(op), line)
}

// WriteConstant appends an OpConstant carrying v.
func (c *Chunk) WriteConstant(v Value, line int) int {
	return c.Write(Constant(v), line)
}

// GetAt returns the instruction at offset. The boolean is false past the
// end of the chunk.
func (c *Chunk) GetAt(offset int) (Instruction, bool) {
	if offset < 0 || offset >= len(c.Code) {
		return Instruction{}, false
	}
	return c.Code[offset], true
}

// Line returns the source line for offset, or 0 if there is none.
func (c *Chunk) Line(offset int) int {
	if offset < 0 || offset >= len(c.Lines) {
		return 0
	}
	return c.Lines[offset]
}

// Len returns the number of instructions.
func (c *Chunk) Len() int {
	return len(c.Code)
}

// Opcodes returns the opcode of every instruction in program order.
func (c *Chunk) Opcodes() []Opcode {
	ops := make([]Opcode, len(c.Code))
	for i, ins := range c.Code {
		ops[i] = ins.Op
	}
	return ops
}

// Validate checks the structural invariants of a chunk that did not come
// straight from the compiler.
func (c *Chunk) Validate() error {
	if c.Version > ChunkVersion {
		return fmt.Errorf("chunk version %d is newer than supported version %d", c.Version, ChunkVersion)
	}
	if len(c.Code) != len(c.Lines) {
		return fmt.Errorf("chunk has %d instructions but %d line entries", len(c.Code), len(c.Lines))
	}
	for i, ins := range c.Code {
		if !ins.Op.Valid() {
			return fmt.Errorf("invalid opcode 0x%02X at offset %d", byte(ins.Op), i)
		}
	}
	return nil
}
