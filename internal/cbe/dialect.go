package cbe

import (
	"fmt"

	"ffigen/internal/abi"
	"ffigen/internal/ir"
	"ffigen/internal/registry"
	"ffigen/internal/typemap"
)

// Dialect spells host types for the C surface. C is also the glue language,
// so spellings come straight from the ABI's canonical C forms.
type Dialect struct{}

// Name returns the backend name this dialect serves.
func (Dialect) Name() string { return "c" }

// HostType spells ref as a C consumer sees it. The from type is irrelevant
// here: C has no package scoping, every name is already global.
func (d Dialect) HostType(reg *registry.Registry, from ir.TypeID, ref ir.TypeRef) (typemap.HostRepr, error) {
	switch ref.Kind {
	case ir.RefPrimitive:
		if !ref.Target.IsZero() {
			return typemap.HostRepr{Type: abi.CTypeName(ref.Target), Zero: "0"}, nil
		}

		return typemap.HostRepr{Type: abi.CPrim(ref.Prim), Zero: "0"}, nil

	case ir.RefOpaque:
		return typemap.HostRepr{Type: abi.CTypeName(ref.Target) + " *", Zero: "NULL"}, nil

	case ir.RefStruct:
		if ref.Borrowed {
			return typemap.HostRepr{Type: "const " + abi.CTypeName(ref.Target) + " *", Zero: "NULL"}, nil
		}

		return typemap.HostRepr{Type: abi.CTypeName(ref.Target), Zero: "{0}"}, nil

	case ir.RefEnum:
		return typemap.HostRepr{Type: abi.CTypeName(ref.Target), Zero: "0"}, nil

	case ir.RefSlice:
		switch ref.Encoding {
		case ir.EncodingUTF8:
			return typemap.HostRepr{Type: abi.CStrType, Zero: "{0}"}, nil
		case ir.EncodingUTF16:
			return typemap.HostRepr{Type: "const uint16_t *", Zero: "NULL"}, nil
		case ir.EncodingStrings:
			return typemap.HostRepr{Type: "const " + abi.CStrType + " *", Zero: "NULL"}, nil
		case ir.EncodingPrimitive:
			return typemap.HostRepr{Type: "const " + abi.CPrim(ref.Prim) + " *", Zero: "NULL"}, nil
		default:
			return typemap.HostRepr{}, fmt.Errorf("slice reference without an encoding")
		}

	case ir.RefWriteable:
		return typemap.HostRepr{Type: abi.CSinkType + " *", Zero: "NULL"}, nil

	case ir.RefNullable:
		if ref.Elem == nil {
			return typemap.HostRepr{}, fmt.Errorf("nullable reference without a wrapped type")
		}

		inner, err := d.HostType(reg, from, *ref.Elem)
		if err != nil {
			return typemap.HostRepr{}, err
		}

		if ref.Elem.IsPointerShaped() || ref.Elem.Kind == ir.RefSlice {
			// Null itself signals absence.
			return inner, nil
		}

		// Non-pointer payloads travel in a presence block; the consumer
		// spells it through the per-method typedef.
		return typemap.HostRepr{Type: inner.Type, Zero: inner.Zero}, nil

	case ir.RefFallible:
		// The C surface of a fallible is the result block behind the hidden
		// out pointer; its spelling is the per-method return typedef.
		if ref.Err == nil {
			return typemap.HostRepr{}, fmt.Errorf("fallible reference without an error payload")
		}

		return typemap.HostRepr{Type: "/* result block */", Zero: "{0}"}, nil

	default:
		return typemap.HostRepr{}, fmt.Errorf("invalid type reference")
	}
}
