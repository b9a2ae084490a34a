package gobe

import (
	"fmt"

	"ffigen/internal/ir"
	"ffigen/internal/registry"
	"ffigen/internal/typemap"
)

// Dialect spells host types for the Go surface.
type Dialect struct{}

// Name returns the backend name this dialect serves.
func (Dialect) Name() string { return "go" }

// HostType spells ref as seen from the unit generated for type from. Types
// of the same library are spelled bare; foreign types are qualified with
// their library name, which is also the generated package name.
func (d Dialect) HostType(reg *registry.Registry, from ir.TypeID, ref ir.TypeRef) (typemap.HostRepr, error) {
	switch ref.Kind {
	case ir.RefPrimitive:
		if !ref.Target.IsZero() {
			def, err := reg.Resolve(ref.Target)
			if err != nil {
				return typemap.HostRepr{}, err
			}

			return typemap.HostRepr{Type: qualify(from, ref.Target), Zero: goPrimZero(def.Prim)}, nil
		}

		return typemap.HostRepr{Type: goPrim(ref.Prim), Zero: goPrimZero(ref.Prim)}, nil

	case ir.RefOpaque:
		return typemap.HostRepr{Type: "*" + qualify(from, ref.Target), Zero: "nil"}, nil

	case ir.RefStruct:
		// Views are copied at the boundary, so both flavors surface as the
		// plain struct value.
		name := qualify(from, ref.Target)
		return typemap.HostRepr{Type: name, Zero: name + "{}"}, nil

	case ir.RefEnum:
		name := qualify(from, ref.Target)
		return typemap.HostRepr{Type: name, Zero: name + "(0)"}, nil

	case ir.RefSlice:
		switch ref.Encoding {
		case ir.EncodingUTF8:
			return typemap.HostRepr{Type: "string", Zero: `""`}, nil
		case ir.EncodingUTF16:
			return typemap.HostRepr{Type: "[]uint16", Zero: "nil"}, nil
		case ir.EncodingStrings:
			return typemap.HostRepr{Type: "[]string", Zero: "nil"}, nil
		case ir.EncodingPrimitive:
			return typemap.HostRepr{Type: "[]" + goPrim(ref.Prim), Zero: "nil"}, nil
		default:
			return typemap.HostRepr{}, fmt.Errorf("slice reference without an encoding")
		}

	case ir.RefWriteable:
		return typemap.HostRepr{Type: "*bytes.Buffer", Zero: "nil"}, nil

	case ir.RefNullable:
		if ref.Elem == nil {
			return typemap.HostRepr{}, fmt.Errorf("nullable reference without a wrapped type")
		}

		inner, err := d.HostType(reg, from, *ref.Elem)
		if err != nil {
			return typemap.HostRepr{}, err
		}

		switch ref.Elem.Kind {
		case ir.RefOpaque:
			// Already a nil-able pointer.
			return typemap.HostRepr{Type: inner.Type, Zero: "nil"}, nil
		case ir.RefSlice:
			if ref.Elem.Encoding == ir.EncodingUTF8 {
				// A Go string cannot be nil, so absence needs a pointer.
				return typemap.HostRepr{Type: "*string", Zero: "nil"}, nil
			}

			return typemap.HostRepr{Type: inner.Type, Zero: "nil"}, nil
		case ir.RefWriteable, ir.RefNullable, ir.RefFallible:
			return typemap.HostRepr{}, fmt.Errorf("%s cannot be nullable", ref.Elem.Kind)
		default:
			return typemap.HostRepr{Type: "*" + inner.Type, Zero: "nil"}, nil
		}

	case ir.RefFallible:
		// The Go surface of a fallible is the (value, error) pair; Zero is
		// the value half, used on the error path.
		if ref.Elem == nil {
			return typemap.HostRepr{Type: "error", Zero: ""}, nil
		}

		ok, err := d.HostType(reg, from, *ref.Elem)
		if err != nil {
			return typemap.HostRepr{}, err
		}

		return typemap.HostRepr{Type: "(" + ok.Type + ", error)", Zero: ok.Zero}, nil

	default:
		return typemap.HostRepr{}, fmt.Errorf("invalid type reference")
	}
}

// qualify spells the host name of a defined type relative to the library the
// unit is generated for.
func qualify(from ir.TypeID, id ir.TypeID) string {
	if id.Library == from.Library {
		return id.Name
	}

	return id.Library + "." + id.Name
}

// goPrim spells a primitive on the Go surface. Unlike the wire spelling,
// bool stays bool and char surfaces as rune.
func goPrim(k ir.PrimKind) string {
	switch k {
	case ir.PrimBool:
		return "bool"
	case ir.PrimI8:
		return "int8"
	case ir.PrimI16:
		return "int16"
	case ir.PrimI32:
		return "int32"
	case ir.PrimI64:
		return "int64"
	case ir.PrimU8:
		return "uint8"
	case ir.PrimU16:
		return "uint16"
	case ir.PrimU32:
		return "uint32"
	case ir.PrimU64:
		return "uint64"
	case ir.PrimF32:
		return "float32"
	case ir.PrimF64:
		return "float64"
	case ir.PrimChar:
		return "rune"
	default:
		panic("no Go spelling for primitive kind: " + k.String())
	}
}

func goPrimZero(k ir.PrimKind) string {
	if k == ir.PrimBool {
		return "false"
	}

	return "0"
}
