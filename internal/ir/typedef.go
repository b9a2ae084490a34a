package ir

import "ffigen/internal/common"

// TypeKind tags the variant of a TypeDef.
type TypeKind int

const (
	TypeKindUnknown TypeKind = iota
	TypeKindOpaque
	TypeKindStruct
	TypeKindEnum
	TypeKindPrimitive // named alias of a primitive
)

// String returns a human-readable kind name.
func (k TypeKind) String() string {
	switch k {
	case TypeKindOpaque:
		return "opaque"
	case TypeKindStruct:
		return "struct"
	case TypeKindEnum:
		return "enum"
	case TypeKindPrimitive:
		return "primitive"
	default:
		return common.UnknownStr
	}
}

// TypeDef is one exported declaration of the native library.
type TypeDef struct {
	ID   TypeID
	Kind TypeKind
	Docs string

	// Methods are declared for Opaque and Struct types.
	Methods []MethodDef

	// Fields are declared for Struct types.
	Fields []FieldDef

	// Variants are declared for Enum types.
	Variants []EnumVariant

	// Prim is the alias target for Primitive types.
	Prim PrimKind

	// Attrs is the resolved enable/disable attribute state.
	Attrs AttrSpec
}

// FieldDef is a struct field; fields cross the boundary by value.
type FieldDef struct {
	Name string
	Type TypeRef
	Docs string
}

// EnumVariant is one enum case. Ordinal values are identical bit-for-bit on
// both sides of the boundary (int32 wire representation).
type EnumVariant struct {
	Name    string
	Ordinal int32
	Docs    string
}

// SelfKind describes the receiver of a method.
type SelfKind int

const (
	SelfNone     SelfKind = iota // static method
	SelfBorrowed                 // receiver passed as borrowed pointer (Opaque)
	SelfValue                    // receiver passed by value (Struct)
)

// String returns a human-readable self-parameter name.
func (k SelfKind) String() string {
	switch k {
	case SelfNone:
		return "static"
	case SelfBorrowed:
		return "&self"
	case SelfValue:
		return "self"
	default:
		return common.UnknownStr
	}
}

// MethodDef is one callable entry point declared on a TypeDef.
type MethodDef struct {
	// Name is the IR spelling (snake_case); it is used verbatim in the
	// native symbol and re-cased per host language by the backends.
	Name string

	Self   SelfKind
	Params []ParamDef

	// Return is nil for methods that return nothing.
	Return *TypeRef

	Attrs AttrSpec
	Docs  string
}

// ParamDef is one declared parameter.
type ParamDef struct {
	Name string
	Type TypeRef
}

// ReferencedIDs collects every TypeID mentioned in the method signature,
// in declaration order, params before return.
func (m *MethodDef) ReferencedIDs() []TypeID {
	var ids []TypeID
	for _, p := range m.Params {
		ids = p.Type.ReferencedIDs(ids)
	}

	if m.Return != nil {
		ids = m.Return.ReferencedIDs(ids)
	}

	return ids
}
