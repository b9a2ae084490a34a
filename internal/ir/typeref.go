package ir

import "strings"

//go:generate go tool stringer -type=RefKind,SliceEncoding -output=refkind_string.go

// RefKind tags the variant of a TypeRef.
type RefKind int

const (
	RefInvalid RefKind = iota
	RefPrimitive
	RefOpaque
	RefStruct
	RefEnum
	RefSlice
	RefWriteable
	RefNullable
	RefFallible

	// RefTotal is the number of reference kinds defined (excluding RefInvalid).
	RefTotal = int(iota) - 1
)

// SliceEncoding selects the element encoding of a Slice reference.
type SliceEncoding int

const (
	EncodingInvalid SliceEncoding = iota
	EncodingPrimitive
	EncodingUTF8
	EncodingUTF16
	EncodingStrings // array of (pointer, length) UTF-8 string views
)

// TypeRef is one parameter or return type: a tagged variant over the closed
// set the generator understands. Exactly the fields relevant to Kind are
// populated.
type TypeRef struct {
	Kind RefKind

	// Prim is set for RefPrimitive and for RefSlice with EncodingPrimitive
	// (the element type).
	Prim PrimKind

	// Target names the referenced TypeDef for RefOpaque, RefStruct and
	// RefEnum. A RefPrimitive may also carry a Target when it references a
	// named Primitive alias.
	Target TypeID

	// Borrowed distinguishes borrowed from owned for RefOpaque, and by-ref
	// from by-value for RefStruct.
	Borrowed bool

	// Encoding is set for RefSlice.
	Encoding SliceEncoding

	// Elem is the wrapped type for RefNullable and the success payload for
	// RefFallible (nil success payload means unit).
	Elem *TypeRef

	// Err is the error payload for RefFallible.
	Err *TypeRef
}

// Convenience constructors. These keep call sites in tests and in the irfile
// lowering readable; they perform no validation.

func Prim(k PrimKind) TypeRef {
	return TypeRef{Kind: RefPrimitive, Prim: k}
}

func NamedPrim(k PrimKind, alias TypeID) TypeRef {
	return TypeRef{Kind: RefPrimitive, Prim: k, Target: alias}
}

func Opaque(id TypeID, borrowed bool) TypeRef {
	return TypeRef{Kind: RefOpaque, Target: id, Borrowed: borrowed}
}

func Struct(id TypeID, byRef bool) TypeRef {
	return TypeRef{Kind: RefStruct, Target: id, Borrowed: byRef}
}

func Enum(id TypeID) TypeRef {
	return TypeRef{Kind: RefEnum, Target: id}
}

func Slice(enc SliceEncoding, elem PrimKind) TypeRef {
	return TypeRef{Kind: RefSlice, Encoding: enc, Prim: elem}
}

func Writeable() TypeRef {
	return TypeRef{Kind: RefWriteable}
}

func Nullable(inner TypeRef) TypeRef {
	return TypeRef{Kind: RefNullable, Elem: &inner}
}

// Fallible wraps a success payload (nil for unit) and an error payload.
func Fallible(ok *TypeRef, err TypeRef) TypeRef {
	return TypeRef{Kind: RefFallible, Elem: ok, Err: &err}
}

// IsPointerShaped reports whether the reference crosses the boundary as a
// single nullable-capable pointer. Nullability of such references is
// expressed by the null pointer itself rather than a presence flag.
func (r TypeRef) IsPointerShaped() bool {
	switch r.Kind {
	case RefOpaque, RefWriteable:
		return true
	default:
		return false
	}
}

// ReferencedIDs appends every TypeID this reference mentions, recursing
// through Nullable and Fallible wrappers, and returns the extended slice.
func (r TypeRef) ReferencedIDs(ids []TypeID) []TypeID {
	if !r.Target.IsZero() {
		ids = append(ids, r.Target)
	}

	if r.Elem != nil {
		ids = r.Elem.ReferencedIDs(ids)
	}

	if r.Err != nil {
		ids = r.Err.ReferencedIDs(ids)
	}

	return ids
}

// String renders the reference in IR syntax, e.g. "i32", "&decimal.Decoder",
// "slice<utf8>", "nullable<u8>", "fallible<i32, my.Error>".
func (r TypeRef) String() string {
	switch r.Kind {
	case RefPrimitive:
		if !r.Target.IsZero() {
			return r.Target.String()
		}

		return r.Prim.Spelling()
	case RefOpaque:
		if r.Borrowed {
			return "&" + r.Target.String()
		}

		return r.Target.String()
	case RefStruct:
		if r.Borrowed {
			return "&" + r.Target.String()
		}

		return r.Target.String()
	case RefEnum:
		return r.Target.String()
	case RefSlice:
		switch r.Encoding {
		case EncodingUTF8:
			return "slice<utf8>"
		case EncodingUTF16:
			return "slice<utf16>"
		case EncodingStrings:
			return "slice<strings>"
		case EncodingPrimitive:
			return "slice<" + r.Prim.Spelling() + ">"
		}

		return "slice<invalid>"
	case RefWriteable:
		return "writeable"
	case RefNullable:
		var sb strings.Builder
		sb.WriteString("nullable<")

		if r.Elem != nil {
			sb.WriteString(r.Elem.String())
		}

		sb.WriteString(">")

		return sb.String()
	case RefFallible:
		var sb strings.Builder
		sb.WriteString("fallible<")

		if r.Elem != nil {
			sb.WriteString(r.Elem.String())
		} else {
			sb.WriteString("unit")
		}

		sb.WriteString(", ")

		if r.Err != nil {
			sb.WriteString(r.Err.String())
		}

		sb.WriteString(">")

		return sb.String()
	}

	return "invalid"
}
