package typemap

import (
	"fmt"

	"ffigen/internal/abi"
	"ffigen/internal/ir"
	"ffigen/internal/registry"
)

// HostRepr is how a dialect spells one reference on the host surface.
type HostRepr struct {
	// Type is the host-language type expression, e.g. "[]uint16" or
	// "geo.Point".
	Type string
	// Zero is an expression of that type usable as an early-return value.
	Zero string
}

// Dialect spells host types for one backend. Implementations may assume the
// reference already passed native lowering, so they only ever see shapes the
// ABI can carry.
type Dialect interface {
	// Name identifies the dialect, matching the backend it serves.
	Name() string
	// HostType spells ref as seen from the unit generated for type from.
	// The originating type matters because dialects qualify references
	// that cross a library boundary.
	HostType(reg *registry.Registry, from ir.TypeID, ref ir.TypeRef) (HostRepr, error)
}

// Mapping binds one reference to both of its lowered forms.
type Mapping struct {
	Ref    ir.TypeRef
	Host   HostRepr
	Native abi.NativeType
}

// Map lowers ref to its native shape and asks the dialect for the host
// spelling. Lowering runs first so every unsupported combination is refused
// with an ABI error before the dialect is consulted.
func Map(reg *registry.Registry, d Dialect, from ir.TypeID, ref ir.TypeRef, pos abi.Position) (Mapping, error) {
	native, err := abi.NativeTypeOf(reg, ref, pos)
	if err != nil {
		return Mapping{}, err
	}
	host, err := d.HostType(reg, from, ref)
	if err != nil {
		return Mapping{}, err
	}
	return Mapping{Ref: ref, Host: host, Native: native}, nil
}

// Signature is the mapped boundary of one method: Params aligns with the
// declared parameter list, Return is nil for void methods. The self handle
// is implicit and carries no mapping of its own.
type Signature struct {
	Params []Mapping
	Return *Mapping
}

// MapSignature runs every declared crossing of one method through Map.
func MapSignature(reg *registry.Registry, d Dialect, from ir.TypeID, m *ir.MethodDef) (Signature, error) {
	sig := Signature{Params: make([]Mapping, len(m.Params))}

	for i := range m.Params {
		p := &m.Params[i]

		mp, err := Map(reg, d, from, p.Type, abi.PosParam)
		if err != nil {
			return Signature{}, fmt.Errorf("parameter %q: %w", p.Name, err)
		}

		sig.Params[i] = mp
	}

	if m.Return != nil {
		mr, err := Map(reg, d, from, *m.Return, abi.PosReturn)
		if err != nil {
			return Signature{}, fmt.Errorf("return: %w", err)
		}

		sig.Return = &mr
	}

	return sig, nil
}

// MapFields maps the declared fields of a value type.
func MapFields(reg *registry.Registry, d Dialect, from ir.TypeID, fields []ir.FieldDef) ([]Mapping, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	out := make([]Mapping, len(fields))

	for i := range fields {
		f := &fields[i]

		mf, err := Map(reg, d, from, f.Type, abi.PosField)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}

		out[i] = mf
	}

	return out, nil
}
