// Package vm implements the clox virtual machine.
//
// This package contains:
//   - Tagged value representation (number, boolean, nil)
//   - The instruction set and its metadata table
//   - Chunks: instruction sequences with a parallel line table
//   - The disassembler
//   - The stack-based interpreter loop
//   - Canonical CBOR encoding of chunks
package vm
