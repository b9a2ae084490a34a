package abi

import (
	"ffigen/internal/ir"
)

//go:generate go tool stringer -type=NativeKind -output=nativekind_string.go

// flagPrim is the discriminant primitive of presence and result blocks.
const flagPrim = ir.PrimU8

// NativeKind discriminates the native-side shapes a TypeRef lowers to.
type NativeKind int

const (
	NativeInvalid NativeKind = iota

	// NativeVoid is the absent value (unit returns, unit success payloads).
	NativeVoid
	// NativeScalar is one fixed-width integer or float slot.
	NativeScalar
	// NativePointer is one address slot: opaque handles and by-reference
	// struct views.
	NativePointer
	// NativeBuffer is a (pointer, length) pair describing a contiguous view.
	NativeBuffer
	// NativeSink is a pointer to a caller-allocated growable byte sink.
	NativeSink
	// NativePresence is the {is_some, value} block carrying nullable
	// non-pointer payloads.
	NativePresence
	// NativeResult is the {is_ok, ok, err} block carrying fallible returns.
	NativeResult
	// NativeBlock is a by-value struct with C layout.
	NativeBlock

	// NativeTotal is the number of native kinds defined (excluding invalid).
	NativeTotal = int(iota) - 1
)

func (k NativeKind) IsValid() bool {
	return k > NativeInvalid && int(k) <= NativeTotal
}

// NativeType describes one value as it crosses the boundary. Exactly the
// fields relevant to Kind are populated.
type NativeType struct {
	Kind NativeKind

	// Prim is the primitive of a scalar, and the element primitive of a
	// buffer (text encodings lower their code units to u8/u16). Bool crosses
	// as one byte holding 0 or 1, char as its u32 scalar value; the original
	// kind is preserved here for host-side mapping.
	Prim ir.PrimKind

	// Type names the enum, struct or opaque definition behind this shape;
	// zero for anonymous shapes. Glue headers spell named shapes with it.
	Type ir.TypeID

	// Strings marks a buffer whose elements are (pointer, length) string
	// views rather than bare primitives.
	Strings bool

	// Nullable marks pointers and buffers where null is a legal value.
	Nullable bool

	// Const marks pointers and buffers the callee must not write through.
	Const bool

	// Elem is the wrapped value of a presence block, and the success payload
	// of a result block (nil for unit success).
	Elem *NativeType

	// Err is the error payload of a result block.
	Err *NativeType

	// Fields are the members of a struct block, in declaration order.
	Fields []NativeField
}

// NativeField is one member of a struct block.
type NativeField struct {
	Name string
	Type NativeType
}

// Scalar builds the native shape of one wire primitive.
func Scalar(k ir.PrimKind) NativeType {
	return NativeType{Kind: NativeScalar, Prim: k}
}

// Void is the absent value.
func Void() NativeType {
	return NativeType{Kind: NativeVoid}
}

// IsVoid reports whether the shape carries no value.
func (t NativeType) IsVoid() bool {
	return t.Kind == NativeVoid
}
