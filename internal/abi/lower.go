package abi

import (
	"ffigen/internal/common"
	"ffigen/internal/diagnostic"
	"ffigen/internal/ir"
	"ffigen/internal/registry"
)

// Position is where a reference occurs. Several combinators are only legal
// in some positions: fallible only as a return, writeable only at the call
// boundary, and struct fields carry value semantics only.
type Position int

const (
	PosParam Position = iota
	PosReturn
	PosField
	PosPayload
)

func (p Position) String() string {
	switch p {
	case PosParam:
		return "parameter"
	case PosReturn:
		return "return"
	case PosField:
		return "field"
	case PosPayload:
		return "payload"
	default:
		return common.UnknownStr
	}
}

// NativeTypeOf lowers one reference to its native shape. The registry must
// have been built successfully; combinators the contract cannot express are
// reported as unsupported-type errors carrying the offending reference.
func NativeTypeOf(reg *registry.Registry, ref ir.TypeRef, pos Position) (NativeType, error) {
	switch ref.Kind {
	case ir.RefPrimitive:
		prim := ref.Prim
		if !ref.Target.IsZero() {
			def, err := reg.Resolve(ref.Target)
			if err != nil {
				return NativeType{}, errf(diagnostic.CodeUnknownTypeID, "%v", err)
			}

			prim = def.Prim
		}

		return NativeType{Kind: NativeScalar, Prim: prim, Type: ref.Target}, nil

	case ir.RefOpaque:
		if pos == PosField {
			return NativeType{}, errf(diagnostic.CodeUnsupportedType,
				"opaque reference %s cannot be a struct field; handles do not live inside value blocks", ref)
		}

		return NativeType{Kind: NativePointer, Type: ref.Target}, nil

	case ir.RefStruct:
		if ref.Borrowed {
			if pos == PosField {
				return NativeType{}, errf(diagnostic.CodeUnsupportedType,
					"by-reference struct view %s cannot be a struct field", ref)
			}

			return NativeType{Kind: NativePointer, Type: ref.Target, Const: true}, nil
		}

		def, err := reg.Resolve(ref.Target)
		if err != nil {
			return NativeType{}, errf(diagnostic.CodeUnknownTypeID, "%v", err)
		}

		fields := make([]NativeField, len(def.Fields))
		for i, f := range def.Fields {
			ft, ferr := NativeTypeOf(reg, f.Type, PosField)
			if ferr != nil {
				return NativeType{}, errf(CodeOf(ferr), "field %q of %s: %v", f.Name, ref.Target, ferr)
			}

			fields[i] = NativeField{Name: f.Name, Type: ft}
		}

		return NativeType{Kind: NativeBlock, Type: ref.Target, Fields: fields}, nil

	case ir.RefEnum:
		return NativeType{Kind: NativeScalar, Prim: ir.PrimI32, Type: ref.Target}, nil

	case ir.RefSlice:
		if pos == PosField {
			return NativeType{}, errf(diagnostic.CodeUnsupportedType,
				"%s cannot be a struct field; views do not live inside value blocks", ref)
		}

		nt := NativeType{Kind: NativeBuffer, Const: true}

		switch ref.Encoding {
		case ir.EncodingPrimitive:
			nt.Prim = ref.Prim
		case ir.EncodingUTF8:
			nt.Prim = ir.PrimU8
		case ir.EncodingUTF16:
			nt.Prim = ir.PrimU16
		case ir.EncodingStrings:
			nt.Strings = true
		default:
			return NativeType{}, errf(diagnostic.CodeLowering, "slice reference without an encoding")
		}

		return nt, nil

	case ir.RefWriteable:
		if pos != PosParam && pos != PosReturn {
			return NativeType{}, errf(diagnostic.CodeUnsupportedType,
				"writeable is only legal as a parameter or a return, not as a %s", pos)
		}

		return NativeType{Kind: NativeSink}, nil

	case ir.RefNullable:
		if ref.Elem == nil {
			return NativeType{}, errf(diagnostic.CodeLowering, "nullable reference without a wrapped type")
		}

		switch ref.Elem.Kind {
		case ir.RefNullable:
			return NativeType{}, errf(diagnostic.CodeUnsupportedType, "%s: nested nullability is not expressible", ref)
		case ir.RefFallible:
			return NativeType{}, errf(diagnostic.CodeUnsupportedType, "%s: a fallible cannot be nullable", ref)
		}

		innerPos := PosPayload
		if pos == PosField {
			innerPos = PosField
		}

		nt, err := NativeTypeOf(reg, *ref.Elem, innerPos)
		if err != nil {
			return NativeType{}, err
		}

		switch nt.Kind {
		case NativePointer, NativeBuffer:
			// Null itself signals absence; the shape is unchanged.
			nt.Nullable = true
			return nt, nil
		default:
			return NativeType{Kind: NativePresence, Elem: &nt}, nil
		}

	case ir.RefFallible:
		if pos != PosReturn {
			return NativeType{}, errf(diagnostic.CodeUnsupportedType,
				"fallible is only legal in return position, not as a %s", pos)
		}

		if ref.Err == nil {
			return NativeType{}, errf(diagnostic.CodeLowering, "fallible reference without an error payload")
		}

		nt := NativeType{Kind: NativeResult}

		if ref.Elem != nil {
			ok, err := NativeTypeOf(reg, *ref.Elem, PosPayload)
			if err != nil {
				return NativeType{}, err
			}

			nt.Elem = &ok
		}

		errShape, err := NativeTypeOf(reg, *ref.Err, PosPayload)
		if err != nil {
			return NativeType{}, err
		}

		nt.Err = &errShape

		return nt, nil

	default:
		return NativeType{}, errf(diagnostic.CodeLowering, "invalid type reference")
	}
}

// ReturnMode is how a value travels back across the boundary.
type ReturnMode int

const (
	// ReturnVoid: nothing comes back.
	ReturnVoid ReturnMode = iota
	// ReturnDirect: the native function returns the value.
	ReturnDirect
	// ReturnOut: the value is written through a hidden trailing
	// caller-allocated out pointer; the native function returns void.
	ReturnOut
	// ReturnSink: the method returns a writeable, lowered to a trailing sink
	// parameter; the native function returns void.
	ReturnSink
)

func (m ReturnMode) String() string {
	switch m {
	case ReturnVoid:
		return "void"
	case ReturnDirect:
		return "direct"
	case ReturnOut:
		return "out"
	case ReturnSink:
		return "sink"
	default:
		return common.UnknownStr
	}
}

// ReturnPlan is the lowering of a method return: its logical shape and the
// mode that transports it.
type ReturnPlan struct {
	Mode ReturnMode
	Type NativeType
}

// SlotRole is the physical function of one C parameter within a signature.
type SlotRole int

const (
	// RoleValue: the parameter is the value itself.
	RoleValue SlotRole = iota
	// RoleData: the data pointer half of a buffer.
	RoleData
	// RoleLen: the element count half of a buffer, spelled size_t.
	RoleLen
	// RoleOut: the hidden caller-allocated out pointer.
	RoleOut
	// RoleSink: a pointer to a caller-allocated growable sink.
	RoleSink
)

func (r SlotRole) String() string {
	switch r {
	case RoleValue:
		return "value"
	case RoleData:
		return "data"
	case RoleLen:
		return "len"
	case RoleOut:
		return "out"
	case RoleSink:
		return "sink"
	default:
		return common.UnknownStr
	}
}

// Slot is one parameter of the native prototype. Type is the logical shape
// the slot belongs to; buffers occupy two slots sharing one Type.
type Slot struct {
	Name string
	Type NativeType
	Role SlotRole
}

// Signature is the full native prototype of one symbol.
type Signature struct {
	Symbol string
	Slots  []Slot
	Return ReturnPlan
}

// Param is one declared method parameter: its IR name, original reference
// and lowered shape.
type Param struct {
	Name string
	Ref  ir.TypeRef
	Type NativeType
}

// MethodABI is the complete lowering of one method.
type MethodABI struct {
	Owner  ir.TypeID
	Method string

	Self ir.SelfKind
	// SelfType is the lowered self shape; nil for static methods.
	SelfType *NativeType

	// Params are the declared parameters in source order, before slot
	// expansion.
	Params []Param

	Sig Signature
}

// Reserved slot names. Using them for declared parameters would collide
// with the self and out slots of the prototype.
const (
	selfSlotName = "self"
	outSlotName  = "out"
)

// LowerMethod lowers one method of owner to its signature. The returned
// error carries the diagnostic code the failure reports as.
func LowerMethod(reg *registry.Registry, owner *ir.TypeDef, m *ir.MethodDef) (*MethodABI, error) {
	if err := ValidateSymbolPart(m.Name); err != nil {
		return nil, err
	}

	abi := &MethodABI{
		Owner:  owner.ID,
		Method: m.Name,
		Self:   m.Self,
	}

	var slots []Slot

	switch m.Self {
	case ir.SelfNone:
	case ir.SelfBorrowed:
		st := NativeType{Kind: NativePointer, Type: owner.ID}
		abi.SelfType = &st
		slots = append(slots, Slot{Name: selfSlotName, Type: st, Role: RoleValue})
	case ir.SelfValue:
		st, err := NativeTypeOf(reg, ir.Struct(owner.ID, false), PosParam)
		if err != nil {
			return nil, err
		}

		abi.SelfType = &st
		slots = append(slots, Slot{Name: selfSlotName, Type: st, Role: RoleValue})
	}

	for i := range m.Params {
		p := m.Params[i]

		if err := ValidateSymbolPart(p.Name); err != nil {
			return nil, errf(CodeOf(err), "parameter %d: %v", i, err)
		}

		if p.Name == selfSlotName || p.Name == outSlotName {
			return nil, errf(diagnostic.CodeNamingConflict, "parameter name %q is reserved", p.Name)
		}

		nt, err := NativeTypeOf(reg, p.Type, PosParam)
		if err != nil {
			return nil, errf(CodeOf(err), "parameter %q: %v", p.Name, err)
		}

		abi.Params = append(abi.Params, Param{Name: p.Name, Ref: p.Type, Type: nt})
		slots = append(slots, expandParam(p.Name, nt)...)
	}

	ret, err := planReturn(reg, m.Return)
	if err != nil {
		return nil, errf(CodeOf(err), "return: %v", err)
	}

	switch ret.Mode {
	case ReturnOut:
		slots = append(slots, Slot{Name: outSlotName, Type: ret.Type, Role: RoleOut})
	case ReturnSink:
		slots = append(slots, Slot{Name: outSlotName, Type: ret.Type, Role: RoleSink})
	}

	if err := checkSlotNames(slots); err != nil {
		return nil, err
	}

	abi.Sig = Signature{
		Symbol: MethodSymbol(owner.ID, m.Name),
		Slots:  slots,
		Return: ret,
	}

	return abi, nil
}

func expandParam(name string, nt NativeType) []Slot {
	switch nt.Kind {
	case NativeBuffer:
		return []Slot{
			{Name: name + "_ptr", Type: nt, Role: RoleData},
			{Name: name + "_len", Type: nt, Role: RoleLen},
		}
	case NativeSink:
		return []Slot{{Name: name, Type: nt, Role: RoleSink}}
	default:
		return []Slot{{Name: name, Type: nt, Role: RoleValue}}
	}
}

func planReturn(reg *registry.Registry, ret *ir.TypeRef) (ReturnPlan, error) {
	if ret == nil {
		return ReturnPlan{Mode: ReturnVoid, Type: Void()}, nil
	}

	nt, err := NativeTypeOf(reg, *ret, PosReturn)
	if err != nil {
		return ReturnPlan{}, err
	}

	switch {
	case nt.Kind == NativeSink:
		return ReturnPlan{Mode: ReturnSink, Type: nt}, nil
	case nt.ReturnsDirect():
		return ReturnPlan{Mode: ReturnDirect, Type: nt}, nil
	default:
		return ReturnPlan{Mode: ReturnOut, Type: nt}, nil
	}
}

func checkSlotNames(slots []Slot) error {
	seen := make(map[string]struct{}, len(slots))

	for _, s := range slots {
		if _, dup := seen[s.Name]; dup {
			return errf(diagnostic.CodeNamingConflict, "expanded parameter slots collide on %q", s.Name)
		}

		seen[s.Name] = struct{}{}
	}

	return nil
}

// TypeABI is the lowered contract of one type: every method signature plus
// the destructor symbol for opaque types.
type TypeABI struct {
	ID      ir.TypeID
	Kind    ir.TypeKind
	Methods []MethodABI

	// Destructor is the destructor symbol; empty for non-opaque types.
	Destructor string
}

// Symbols lists every native symbol the type exports, in declaration order,
// destructor last.
func (t *TypeABI) Symbols() []string {
	syms := make([]string, 0, len(t.Methods)+1)
	for i := range t.Methods {
		syms = append(syms, t.Methods[i].Sig.Symbol)
	}

	if t.Destructor != "" {
		syms = append(syms, t.Destructor)
	}

	return syms
}

// LowerType lowers one type with the given (already filtered) methods.
// Every failure is collected into diags scoped to the type; when anything
// failed the result is nil and the type must not be emitted.
func LowerType(reg *registry.Registry, def *ir.TypeDef, methods []ir.MethodDef, diags *diagnostic.Diagnostics) *TypeABI {
	failed := false

	fail := func(method string, err error) {
		diags.AddError(CodeOf(err), def.ID.String(), method, err.Error())

		failed = true
	}

	if err := ValidateSymbolPart(def.ID.Library); err != nil {
		fail("", err)
	}

	if err := ValidateSymbolPart(def.ID.Name); err != nil {
		fail("", err)
	}

	for _, f := range def.Fields {
		if err := ValidateSymbolPart(f.Name); err != nil {
			fail("", errf(CodeOf(err), "field: %v", err))
		}
	}

	for _, v := range def.Variants {
		if err := ValidateSymbolPart(v.Name); err != nil {
			fail("", errf(CodeOf(err), "variant: %v", err))
		}
	}

	out := &TypeABI{ID: def.ID, Kind: def.Kind}

	if def.Kind == ir.TypeKindOpaque {
		out.Destructor = DestroySymbol(def.ID)
	}

	seen := map[string]string{}
	if out.Destructor != "" {
		seen[out.Destructor] = "generated destructor"
	}

	for i := range methods {
		m := &methods[i]

		abi, err := LowerMethod(reg, def, m)
		if err != nil {
			fail(m.Name, err)
			continue
		}

		if prev, dup := seen[abi.Sig.Symbol]; dup {
			fail(m.Name, errf(diagnostic.CodeNamingConflict,
				"symbol %q already taken by %s", abi.Sig.Symbol, prev))

			continue
		}

		seen[abi.Sig.Symbol] = "method " + m.Name
		out.Methods = append(out.Methods, *abi)
	}

	if failed {
		return nil
	}

	return out
}
