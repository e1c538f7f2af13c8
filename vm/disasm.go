package vm

import (
	"fmt"
	"io"
	"strings"
)

// Disassemble returns a human-readable listing of the chunk.
//
// Each row shows the offset, the source line and the mnemonic. The line
// column is replaced by "|" when it repeats the previous instruction's line.
// Constants print their inline value in quotes.
func (c *Chunk) Disassemble(name string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("== %s ==\n", name))
	for offset := range c.Code {
		sb.WriteString(c.DisassembleInstruction(offset))
		sb.WriteString("\n")
	}
	return sb.String()
}

// DisassembleTo writes the listing produced by Disassemble to w.
func (c *Chunk) DisassembleTo(w io.Writer, name string) error {
	_, err := io.WriteString(w, c.Disassemble(name))
	return err
}

// DisassembleInstruction returns a single listing row for offset.
func (c *Chunk) DisassembleInstruction(offset int) string {
	ins, ok := c.GetAt(offset)
	if !ok {
		return fmt.Sprintf("%04d <end of code>", offset)
	}

	var lineCol string
	if offset > 0 && c.Line(offset) == c.Line(offset-1) {
		lineCol = "   |"
	} else {
		lineCol = fmt.Sprintf("%4d", c.Line(offset))
	}

	if ins.Op.Info().HasOperand {
		return fmt.Sprintf("%04d %s %-16s '%s'", offset, lineCol, ins.Op.Name(), ins.Operand)
	}
	return fmt.Sprintf("%04d %s %s", offset, lineCol, ins.Op.Name())
}

// DisassembleToLines returns the listing rows without the header.
func (c *Chunk) DisassembleToLines() []string {
	lines := make([]string, 0, len(c.Code))
	for offset := range c.Code {
		lines = append(lines, c.DisassembleInstruction(offset))
	}
	return lines
}
