package ir

//go:generate go tool stringer -type=PrimKind -output=primkind_string.go

// PrimKind enumerates the built-in primitive types that cross the boundary
// with identical bit width and signedness on both sides.
type PrimKind int

const (
	_ PrimKind = iota // zero value is reserved as "no primitive"

	PrimBool
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimF32
	PrimF64
	PrimChar // Unicode scalar value, u32 on the wire

	// PrimTotal is the number of primitive kinds defined.
	PrimTotal = int(iota) - 1
)

func (k PrimKind) IsValid() bool {
	return k > 0 && int(k) <= PrimTotal
}

func (k PrimKind) IsInteger() bool {
	switch k {
	default:
		return false
	case PrimI8, PrimI16, PrimI32, PrimI64,
		PrimU8, PrimU16, PrimU32, PrimU64:
		return true
	}
}

func (k PrimKind) IsSigned() bool {
	switch k {
	default:
		return false
	case PrimI8, PrimI16, PrimI32, PrimI64:
		return true
	}
}

func (k PrimKind) IsUnsigned() bool {
	switch k {
	default:
		return false
	case PrimU8, PrimU16, PrimU32, PrimU64, PrimChar:
		return true
	}
}

func (k PrimKind) IsFloat() bool {
	return k == PrimF32 || k == PrimF64
}

// Bits returns the bit width of the primitive on the wire.
func (k PrimKind) Bits() int {
	switch k {
	default:
		panic("no wire width for primitive kind: " + k.String())
	case PrimBool, PrimI8, PrimU8:
		return 8
	case PrimI16, PrimU16:
		return 16
	case PrimI32, PrimU32, PrimF32, PrimChar:
		return 32
	case PrimI64, PrimU64, PrimF64:
		return 64
	}
}

// ABISize returns the size in bytes the primitive occupies in native memory.
func (k PrimKind) ABISize() int {
	return k.Bits() / 8
}

// ABIAlign returns the native alignment in bytes. Primitives are naturally
// aligned.
func (k PrimKind) ABIAlign() int {
	return k.ABISize()
}

// ParsePrimKind maps the IR spelling of a primitive to its kind.
// Returns the zero PrimKind for unknown spellings.
func ParsePrimKind(s string) PrimKind {
	switch s {
	case "bool":
		return PrimBool
	case "i8":
		return PrimI8
	case "i16":
		return PrimI16
	case "i32":
		return PrimI32
	case "i64":
		return PrimI64
	case "u8":
		return PrimU8
	case "u16":
		return PrimU16
	case "u32":
		return PrimU32
	case "u64":
		return PrimU64
	case "f32":
		return PrimF32
	case "f64":
		return PrimF64
	case "char":
		return PrimChar
	}

	return 0
}

// Spelling returns the IR spelling of the primitive (the inverse of
// ParsePrimKind).
func (k PrimKind) Spelling() string {
	switch k {
	default:
		return ""
	case PrimBool:
		return "bool"
	case PrimI8:
		return "i8"
	case PrimI16:
		return "i16"
	case PrimI32:
		return "i32"
	case PrimI64:
		return "i64"
	case PrimU8:
		return "u8"
	case PrimU16:
		return "u16"
	case PrimU32:
		return "u32"
	case PrimU64:
		return "u64"
	case PrimF32:
		return "f32"
	case PrimF64:
		return "f64"
	case PrimChar:
		return "char"
	}
}
