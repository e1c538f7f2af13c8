package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborEncMode uses canonical options so equal chunks encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalChunk serializes a Chunk to CBOR bytes.
func MarshalChunk(c *Chunk) ([]byte, error) {
	if len(c.Code) != len(c.Lines) {
		return nil, fmt.Errorf("vm: marshal chunk: %d instructions but %d line entries", len(c.Code), len(c.Lines))
	}
	return cborEncMode.Marshal(c)
}

// UnmarshalChunk deserializes a Chunk from CBOR bytes and validates it.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	var c Chunk
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("vm: unmarshal chunk: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("vm: unmarshal chunk: %w", err)
	}
	return &c, nil
}
