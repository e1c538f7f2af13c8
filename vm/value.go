package vm

import (
	"fmt"
	"math"
	"strconv"

	"github.com/fxamacker/cbor/v2"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindNil ValueKind = iota
	KindBool
	KindNumber
)

func (k ValueKind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value is a runtime value: a number, a boolean or nil.
//
// Values are plain structs and are copied by assignment. There is no heap
// representation and nothing is shared between copies.
type Value struct {
	kind ValueKind
	num  float64
	b    bool
}

// Pre-defined values
var (
	Nil   = Value{kind: KindNil}
	True  = Value{kind: KindBool, b: true}
	False = Value{kind: KindBool, b: false}
)

// Number returns a number value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsNil returns true if v is nil.
func (v Value) IsNil() bool { return v.kind == KindNil }

// IsBool returns true if v is a boolean.
func (v Value) IsBool() bool { return v.kind == KindBool }

// IsNumber returns true if v is a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// AsNumber returns the float payload. The result is 0 for non-numbers;
// callers check IsNumber first.
func (v Value) AsNumber() float64 { return v.num }

// AsBool returns the boolean payload. The result is false for non-booleans.
func (v Value) AsBool() bool { return v.b }

// Equal reports structural equality. Values of different kinds are never
// equal. Numbers compare with IEEE semantics, so NaN is not equal to itself.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.num == other.num
	}
	return false
}

// String returns the display form used when a result is printed.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.num)
	}
	return fmt.Sprintf("<invalid value kind %d>", v.kind)
}

// formatNumber renders n in its shortest round-tripping decimal form without
// an exponent: 9 prints as "9", 4.6 as "4.6".
func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// ---------------------------------------------------------------------------
// Wire encoding
// ---------------------------------------------------------------------------

// wireValue is the CBOR shape of a Value: [kind, number, bool].
type wireValue struct {
	_    struct{} `cbor:",toarray"`
	Kind ValueKind
	Num  float64
	Bool bool
}

// MarshalCBOR implements cbor.Marshaler.
func (v Value) MarshalCBOR() ([]byte, error) {
	return cborEncMode.Marshal(wireValue{Kind: v.kind, Num: v.num, Bool: v.b})
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (v *Value) UnmarshalCBOR(data []byte) error {
	var w wireValue
	if err := cbor.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Kind {
	case KindNil:
		*v = Nil
	case KindBool:
		*v = Bool(w.Bool)
	case KindNumber:
		*v = Number(w.Num)
	default:
		return fmt.Errorf("vm: unknown value kind %d", w.Kind)
	}
	return nil
}
