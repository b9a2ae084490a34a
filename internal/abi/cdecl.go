package abi

import (
	"fmt"
	"strings"

	"ffigen/internal/ir"
)

// C spellings of the shared boundary types declared by the prelude header.
const (
	// CStrType is a (pointer, length) UTF-8 string view.
	CStrType = "ffigen_str"
	// CSinkType is a caller-allocated growable byte sink.
	CSinkType = "ffigen_sink"
)

// CPrim spells a primitive in C. Bool and char are spelled as their wire
// integers.
func CPrim(k ir.PrimKind) string {
	switch k {
	case ir.PrimBool:
		return "uint8_t"
	case ir.PrimI8:
		return "int8_t"
	case ir.PrimI16:
		return "int16_t"
	case ir.PrimI32:
		return "int32_t"
	case ir.PrimI64:
		return "int64_t"
	case ir.PrimU8:
		return "uint8_t"
	case ir.PrimU16:
		return "uint16_t"
	case ir.PrimU32:
		return "uint32_t"
	case ir.PrimU64:
		return "uint64_t"
	case ir.PrimF32:
		return "float"
	case ir.PrimF64:
		return "double"
	case ir.PrimChar:
		return "uint32_t"
	default:
		panic("no C spelling for primitive kind: " + k.String())
	}
}

// CTypeName spells the canonical C name of a defined type.
func CTypeName(id ir.TypeID) string {
	return id.Library + "_" + id.Name
}

// CEnumConst spells the C constant of one enum variant.
func CEnumConst(id ir.TypeID, variant string) string {
	return CTypeName(id) + "_" + variant
}

// CMember renders one struct member declaration without the trailing
// semicolon. Anonymous composite shapes are inlined as unnamed structs,
// which is legal for members (unlike prototypes).
func CMember(t NativeType, name string) string {
	switch t.Kind {
	case NativeScalar:
		if !t.Type.IsZero() {
			return CTypeName(t.Type) + " " + name
		}

		return CPrim(t.Prim) + " " + name
	case NativePointer:
		if t.Const {
			return "const " + CTypeName(t.Type) + " *" + name
		}

		return CTypeName(t.Type) + " *" + name
	case NativeBuffer, NativePresence, NativeResult:
		return cComposite(t) + " " + name
	case NativeBlock:
		return CTypeName(t.Type) + " " + name
	default:
		panic("no C member spelling for native kind: " + t.Kind.String())
	}
}

// cComposite spells the unnamed struct form of a composite shape.
func cComposite(t NativeType) string {
	switch t.Kind {
	case NativeBuffer:
		return fmt.Sprintf("struct { %s; size_t len; }", bufferDataMember(t, "ptr"))
	case NativePresence:
		return fmt.Sprintf("struct { uint8_t is_some; %s; }", CMember(*t.Elem, "value"))
	case NativeResult:
		var sb strings.Builder
		sb.WriteString("struct { uint8_t is_ok; ")

		if t.Elem != nil {
			sb.WriteString(CMember(*t.Elem, "ok"))
			sb.WriteString("; ")
		}

		sb.WriteString(CMember(*t.Err, "err"))
		sb.WriteString("; }")

		return sb.String()
	default:
		panic("not a composite native kind: " + t.Kind.String())
	}
}

// bufferDataMember spells the data pointer of a buffer.
func bufferDataMember(t NativeType, name string) string {
	if t.Strings {
		return "const " + CStrType + " *" + name
	}

	return "const " + CPrim(t.Prim) + " *" + name
}

// CTypedef renders the typedef giving a composite shape the name it needs
// to appear in prototypes.
func CTypedef(t NativeType, name string) string {
	return "typedef " + cComposite(t) + " " + name + ";"
}

// CTypedefName is the agreed name of the per-method typedef declared for an
// anonymous composite parameter slot.
func CTypedefName(symbol, slot string) string {
	return symbol + "__" + slot
}

// CReturnTypedefName is the agreed name of the per-method typedef declared
// for an anonymous composite return shape.
func CReturnTypedefName(symbol string) string {
	return symbol + "__ret"
}

// CParam renders one prototype parameter. anon is the typedef name the
// caller declared for anonymous composite shapes; it is consulted only for
// slots whose shape has no canonical name.
func CParam(s Slot, anon string) string {
	switch s.Role {
	case RoleValue:
		switch s.Type.Kind {
		case NativeScalar:
			if !s.Type.Type.IsZero() {
				return CTypeName(s.Type.Type) + " " + s.Name
			}

			return CPrim(s.Type.Prim) + " " + s.Name
		case NativePointer:
			if s.Type.Const {
				return "const " + CTypeName(s.Type.Type) + " *" + s.Name
			}

			return CTypeName(s.Type.Type) + " *" + s.Name
		case NativeBlock:
			return CTypeName(s.Type.Type) + " " + s.Name
		case NativePresence:
			return anon + " " + s.Name
		default:
			panic("no C param spelling for native kind: " + s.Type.Kind.String())
		}
	case RoleData:
		return bufferDataMember(s.Type, s.Name)
	case RoleLen:
		return "size_t " + s.Name
	case RoleSink:
		return CSinkType + " *" + s.Name
	case RoleOut:
		if s.Type.Kind == NativeBlock {
			return CTypeName(s.Type.Type) + " *" + s.Name
		}

		return anon + " *" + s.Name
	default:
		panic("unknown slot role")
	}
}

// CReturnType spells the native return type of a signature.
func CReturnType(ret ReturnPlan) string {
	if ret.Mode != ReturnDirect {
		return "void"
	}

	t := ret.Type
	switch t.Kind {
	case NativeScalar:
		if !t.Type.IsZero() {
			return CTypeName(t.Type)
		}

		return CPrim(t.Prim)
	case NativePointer:
		if t.Const {
			return "const " + CTypeName(t.Type) + " *"
		}

		return CTypeName(t.Type) + " *"
	case NativeBlock:
		return CTypeName(t.Type)
	default:
		panic("native kind cannot return directly: " + t.Kind.String())
	}
}

// NeedsTypedef reports whether the shape has no canonical C name and must
// be given a per-method typedef before appearing in a prototype.
func NeedsTypedef(t NativeType) bool {
	switch t.Kind {
	case NativeBuffer, NativePresence, NativeResult:
		return true
	default:
		return false
	}
}
