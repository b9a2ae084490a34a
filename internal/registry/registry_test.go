package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ffigen/internal/ir"
)

func decoderID() ir.TypeID  { return ir.TypeID{Library: "decimal", Name: "Decoder"} }
func pointID() ir.TypeID    { return ir.TypeID{Library: "geo", Name: "Point"} }
func modeID() ir.TypeID     { return ir.TypeID{Library: "geo", Name: "Mode"} }
func parseErrID() ir.TypeID { return ir.TypeID{Library: "decimal", Name: "ParseError"} }

func validDefs() []ir.TypeDef {
	return []ir.TypeDef{
		{
			ID:   decoderID(),
			Kind: ir.TypeKindOpaque,
			Methods: []ir.MethodDef{
				{
					Name: "digits",
					Self: ir.SelfBorrowed,
					Return: &ir.TypeRef{
						Kind: ir.RefPrimitive, Prim: ir.PrimU32,
					},
				},
				{
					Name: "parse",
					Self: ir.SelfBorrowed,
					Params: []ir.ParamDef{
						{Name: "text", Type: ir.Slice(ir.EncodingUTF8, 0)},
					},
					Return: refPtr(ir.Fallible(refPtr(ir.Prim(ir.PrimF64)), ir.Enum(parseErrID()))),
				},
			},
		},
		{
			ID:   pointID(),
			Kind: ir.TypeKindStruct,
			Fields: []ir.FieldDef{
				{Name: "x", Type: ir.Prim(ir.PrimF64)},
				{Name: "y", Type: ir.Prim(ir.PrimF64)},
			},
			Methods: []ir.MethodDef{
				{
					Name:   "magnitude",
					Self:   ir.SelfValue,
					Return: refPtr(ir.Prim(ir.PrimF64)),
				},
			},
		},
		{
			ID:   modeID(),
			Kind: ir.TypeKindEnum,
			Variants: []ir.EnumVariant{
				{Name: "planar", Ordinal: 0},
				{Name: "spherical", Ordinal: 1},
			},
		},
		{
			ID:   parseErrID(),
			Kind: ir.TypeKindEnum,
			Variants: []ir.EnumVariant{
				{Name: "empty", Ordinal: 0},
				{Name: "overflow", Ordinal: 1},
			},
		},
	}
}

func refPtr(r ir.TypeRef) *ir.TypeRef { return &r }

func TestBuildValid(t *testing.T) {
	reg, err := Build(validDefs())
	require.NoError(t, err)
	require.NotNil(t, reg)

	assert.Equal(t, 4, reg.Len())
	assert.True(t, reg.Has(decoderID()))
	assert.False(t, reg.Has(ir.TypeID{Library: "decimal", Name: "Encoder"}))
}

func TestBuildCopiesInput(t *testing.T) {
	defs := validDefs()
	reg, err := Build(defs)
	require.NoError(t, err)

	defs[0].Methods[0].Name = "mutated"

	def, err := reg.Resolve(decoderID())
	require.NoError(t, err)
	assert.Equal(t, "digits", def.Methods[0].Name)
}

func TestAllTypesDeterministicOrder(t *testing.T) {
	// Insertion order deliberately scrambled relative to TypeID order.
	defs := validDefs()
	defs[0], defs[2] = defs[2], defs[0]
	defs[1], defs[3] = defs[3], defs[1]

	reg, err := Build(defs)
	require.NoError(t, err)

	entries := reg.AllTypes()
	require.Len(t, entries, 4)

	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.ID.String())
	}

	assert.Equal(t, []string{
		"decimal.Decoder",
		"decimal.ParseError",
		"geo.Mode",
		"geo.Point",
	}, got)
}

func TestResolveUnknown(t *testing.T) {
	reg, err := Build(validDefs())
	require.NoError(t, err)

	_, err = reg.Resolve(ir.TypeID{Library: "decimal", Name: "Missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTypeID)
	assert.Contains(t, err.Error(), "decimal.Missing")
}

func TestBuildRejectsDuplicates(t *testing.T) {
	defs := validDefs()
	defs = append(defs, ir.TypeDef{ID: pointID(), Kind: ir.TypeKindStruct})

	_, err := Build(defs)
	require.Error(t, err)

	var berr *BuildError
	require.ErrorAs(t, err, &berr)
	assert.Len(t, berr.Problems, 1)
	assert.Contains(t, berr.Problems[0], "duplicate TypeID")
	assert.Contains(t, berr.Problems[0], "geo.Point")
}

func TestBuildRejectsDanglingReference(t *testing.T) {
	defs := validDefs()
	defs[1].Fields = append(defs[1].Fields, ir.FieldDef{
		Name: "frame",
		Type: ir.Struct(ir.TypeID{Library: "geo", Name: "Frame"}, false),
	})

	_, err := Build(defs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `reference to undefined type "geo.Frame"`)
}

func TestBuildRejectsKindMismatch(t *testing.T) {
	defs := validDefs()
	// Mode is an enum; referencing it as a struct must fail.
	defs[1].Fields = append(defs[1].Fields, ir.FieldDef{
		Name: "mode",
		Type: ir.Struct(modeID(), false),
	})

	_, err := Build(defs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geo.Mode")
	assert.Contains(t, err.Error(), "enum")
}

func TestBuildRejectsDuplicateOrdinals(t *testing.T) {
	defs := validDefs()
	defs[2].Variants = append(defs[2].Variants, ir.EnumVariant{Name: "cylindrical", Ordinal: 1})

	_, err := Build(defs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share ordinal 1")
	assert.Contains(t, err.Error(), "spherical")
	assert.Contains(t, err.Error(), "cylindrical")
}

func TestBuildRejectsSelfKindMismatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(defs []ir.TypeDef)
		want   string
	}{
		{
			name: "borrowed self on struct",
			mutate: func(defs []ir.TypeDef) {
				defs[1].Methods[0].Self = ir.SelfBorrowed
			},
			want: "borrowed self on a non-opaque owner",
		},
		{
			name: "by-value self on opaque",
			mutate: func(defs []ir.TypeDef) {
				defs[0].Methods[0].Self = ir.SelfValue
			},
			want: "by-value self on a non-struct owner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := validDefs()
			tt.mutate(defs)

			_, err := Build(defs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildRejectsMembersOnWrongKinds(t *testing.T) {
	tests := []struct {
		name string
		def  ir.TypeDef
		want string
	}{
		{
			name: "fields on opaque",
			def: ir.TypeDef{
				ID:     ir.TypeID{Library: "x", Name: "Handle"},
				Kind:   ir.TypeKindOpaque,
				Fields: []ir.FieldDef{{Name: "n", Type: ir.Prim(ir.PrimI32)}},
			},
			want: "opaque types declare neither fields nor variants",
		},
		{
			name: "variants on struct",
			def: ir.TypeDef{
				ID:       ir.TypeID{Library: "x", Name: "Pair"},
				Kind:     ir.TypeKindStruct,
				Variants: []ir.EnumVariant{{Name: "a", Ordinal: 0}},
			},
			want: "struct types declare no variants",
		},
		{
			name: "methods on enum",
			def: ir.TypeDef{
				ID:       ir.TypeID{Library: "x", Name: "Flag"},
				Kind:     ir.TypeKindEnum,
				Variants: []ir.EnumVariant{{Name: "on", Ordinal: 0}},
				Methods:  []ir.MethodDef{{Name: "flip", Self: ir.SelfNone}},
			},
			want: "enum types declare neither fields nor methods",
		},
		{
			name: "primitive alias without kind",
			def: ir.TypeDef{
				ID:   ir.TypeID{Library: "x", Name: "Meters"},
				Kind: ir.TypeKindPrimitive,
			},
			want: "primitive alias without a primitive kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build([]ir.TypeDef{tt.def})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildRejectsMalformedRefs(t *testing.T) {
	tests := []struct {
		name string
		ref  ir.TypeRef
		want string
	}{
		{
			name: "slice without encoding",
			ref:  ir.TypeRef{Kind: ir.RefSlice},
			want: "slice without an encoding",
		},
		{
			name: "primitive slice without element",
			ref:  ir.TypeRef{Kind: ir.RefSlice, Encoding: ir.EncodingPrimitive},
			want: "primitive slice without an element kind",
		},
		{
			name: "nullable without wrapped type",
			ref:  ir.TypeRef{Kind: ir.RefNullable},
			want: "nullable without a wrapped type",
		},
		{
			name: "fallible without error payload",
			ref:  ir.TypeRef{Kind: ir.RefFallible},
			want: "fallible without an error payload",
		},
		{
			name: "zero-valued reference",
			ref:  ir.TypeRef{},
			want: "invalid type reference",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := []ir.TypeDef{
				{
					ID:   ir.TypeID{Library: "x", Name: "Box"},
					Kind: ir.TypeKindOpaque,
					Methods: []ir.MethodDef{
						{
							Name:   "probe",
							Self:   ir.SelfBorrowed,
							Params: []ir.ParamDef{{Name: "v", Type: tt.ref}},
						},
					},
				},
			}

			_, err := Build(defs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildRejectsValueStructCycles(t *testing.T) {
	a := ir.TypeID{Library: "x", Name: "A"}
	b := ir.TypeID{Library: "x", Name: "B"}

	tests := []struct {
		name string
		defs []ir.TypeDef
		want string
	}{
		{
			name: "self embedding",
			defs: []ir.TypeDef{{
				ID:     a,
				Kind:   ir.TypeKindStruct,
				Fields: []ir.FieldDef{{Name: "next", Type: ir.Struct(a, false)}},
			}},
			want: `field "next" closes a by-value struct cycle`,
		},
		{
			name: "mutual embedding through nullable",
			defs: []ir.TypeDef{
				{
					ID:     a,
					Kind:   ir.TypeKindStruct,
					Fields: []ir.FieldDef{{Name: "b", Type: ir.Struct(b, false)}},
				},
				{
					ID:     b,
					Kind:   ir.TypeKindStruct,
					Fields: []ir.FieldDef{{Name: "a", Type: ir.Nullable(ir.Struct(a, false))}},
				},
			},
			want: "closes a by-value struct cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.defs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildAllowsByReferenceCycles(t *testing.T) {
	a := ir.TypeID{Library: "x", Name: "Node"}

	defs := []ir.TypeDef{{
		ID:     a,
		Kind:   ir.TypeKindStruct,
		Fields: []ir.FieldDef{{Name: "next", Type: ir.Struct(a, true)}},
	}}

	_, err := Build(defs)
	require.NoError(t, err)
}

func TestBuildAggregatesProblems(t *testing.T) {
	defs := []ir.TypeDef{
		{ID: ir.TypeID{}, Kind: ir.TypeKindOpaque},
		{
			ID:     ir.TypeID{Library: "x", Name: "Handle"},
			Kind:   ir.TypeKindOpaque,
			Fields: []ir.FieldDef{{Name: "n", Type: ir.Prim(ir.PrimI32)}},
			Methods: []ir.MethodDef{
				{
					Name:   "get",
					Self:   ir.SelfBorrowed,
					Return: refPtr(ir.Opaque(ir.TypeID{Library: "x", Name: "Gone"}, false)),
				},
			},
		},
	}

	_, err := Build(defs)
	require.Error(t, err)

	var berr *BuildError
	require.ErrorAs(t, err, &berr)
	assert.Len(t, berr.Problems, 3)
	assert.Contains(t, err.Error(), "3 problem(s)")
}
