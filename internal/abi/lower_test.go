package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ffigen/internal/diagnostic"
	"ffigen/internal/ir"
	"ffigen/internal/registry"
)

var (
	decoderID = ir.TypeID{Library: "decimal", Name: "Decoder"}
	pointID   = ir.TypeID{Library: "geo", Name: "Point"}
	rectID    = ir.TypeID{Library: "geo", Name: "Rect"}
	modeID    = ir.TypeID{Library: "geo", Name: "Mode"}
	errID     = ir.TypeID{Library: "decimal", Name: "ParseError"}
	metersID  = ir.TypeID{Library: "units", Name: "Meters"}
)

func refPtr(r ir.TypeRef) *ir.TypeRef { return &r }

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg, err := registry.Build([]ir.TypeDef{
		{ID: decoderID, Kind: ir.TypeKindOpaque},
		{
			ID:   pointID,
			Kind: ir.TypeKindStruct,
			Fields: []ir.FieldDef{
				{Name: "x", Type: ir.Prim(ir.PrimF64)},
				{Name: "y", Type: ir.Prim(ir.PrimF64)},
			},
		},
		{
			ID:   rectID,
			Kind: ir.TypeKindStruct,
			Fields: []ir.FieldDef{
				{Name: "min", Type: ir.Struct(pointID, false)},
				{Name: "max", Type: ir.Struct(pointID, false)},
			},
		},
		{
			ID:   modeID,
			Kind: ir.TypeKindEnum,
			Variants: []ir.EnumVariant{
				{Name: "planar", Ordinal: 0},
				{Name: "spherical", Ordinal: 1},
			},
		},
		{
			ID:   errID,
			Kind: ir.TypeKindEnum,
			Variants: []ir.EnumVariant{
				{Name: "empty", Ordinal: 0},
				{Name: "overflow", Ordinal: 1},
			},
		},
		{ID: metersID, Kind: ir.TypeKindPrimitive, Prim: ir.PrimF64},
	})
	require.NoError(t, err)

	return reg
}

func TestNativeTypeOfShapes(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name string
		ref  ir.TypeRef
		pos  Position
		want func(t *testing.T, nt NativeType)
	}{
		{
			name: "primitive scalar",
			ref:  ir.Prim(ir.PrimI32),
			pos:  PosParam,
			want: func(t *testing.T, nt NativeType) {
				assert.Equal(t, NativeScalar, nt.Kind)
				assert.Equal(t, ir.PrimI32, nt.Prim)
			},
		},
		{
			name: "primitive alias resolves underlying kind",
			ref:  ir.NamedPrim(0, metersID),
			pos:  PosParam,
			want: func(t *testing.T, nt NativeType) {
				assert.Equal(t, NativeScalar, nt.Kind)
				assert.Equal(t, ir.PrimF64, nt.Prim)
				assert.Equal(t, metersID, nt.Type)
			},
		},
		{
			name: "owned opaque is a pointer",
			ref:  ir.Opaque(decoderID, false),
			pos:  PosParam,
			want: func(t *testing.T, nt NativeType) {
				assert.Equal(t, NativePointer, nt.Kind)
				assert.Equal(t, decoderID, nt.Type)
				assert.False(t, nt.Nullable)
			},
		},
		{
			name: "by-value struct resolves fields recursively",
			ref:  ir.Struct(rectID, false),
			pos:  PosParam,
			want: func(t *testing.T, nt NativeType) {
				require.Equal(t, NativeBlock, nt.Kind)
				require.Len(t, nt.Fields, 2)
				assert.Equal(t, "min", nt.Fields[0].Name)
				assert.Equal(t, NativeBlock, nt.Fields[0].Type.Kind)
				assert.Len(t, nt.Fields[0].Type.Fields, 2)
			},
		},
		{
			name: "by-reference struct is a const pointer",
			ref:  ir.Struct(pointID, true),
			pos:  PosParam,
			want: func(t *testing.T, nt NativeType) {
				assert.Equal(t, NativePointer, nt.Kind)
				assert.True(t, nt.Const)
			},
		},
		{
			name: "enum is an i32 scalar",
			ref:  ir.Enum(modeID),
			pos:  PosParam,
			want: func(t *testing.T, nt NativeType) {
				assert.Equal(t, NativeScalar, nt.Kind)
				assert.Equal(t, ir.PrimI32, nt.Prim)
				assert.Equal(t, modeID, nt.Type)
			},
		},
		{
			name: "utf8 slice is a u8 buffer",
			ref:  ir.Slice(ir.EncodingUTF8, 0),
			pos:  PosParam,
			want: func(t *testing.T, nt NativeType) {
				assert.Equal(t, NativeBuffer, nt.Kind)
				assert.Equal(t, ir.PrimU8, nt.Prim)
				assert.True(t, nt.Const)
			},
		},
		{
			name: "string-array slice",
			ref:  ir.Slice(ir.EncodingStrings, 0),
			pos:  PosParam,
			want: func(t *testing.T, nt NativeType) {
				assert.Equal(t, NativeBuffer, nt.Kind)
				assert.True(t, nt.Strings)
			},
		},
		{
			name: "nullable opaque stays a pointer",
			ref:  ir.Nullable(ir.Opaque(decoderID, false)),
			pos:  PosParam,
			want: func(t *testing.T, nt NativeType) {
				assert.Equal(t, NativePointer, nt.Kind)
				assert.True(t, nt.Nullable)
			},
		},
		{
			name: "nullable slice stays a buffer",
			ref:  ir.Nullable(ir.Slice(ir.EncodingUTF8, 0)),
			pos:  PosParam,
			want: func(t *testing.T, nt NativeType) {
				assert.Equal(t, NativeBuffer, nt.Kind)
				assert.True(t, nt.Nullable)
			},
		},
		{
			name: "nullable scalar becomes a presence block",
			ref:  ir.Nullable(ir.Prim(ir.PrimU8)),
			pos:  PosParam,
			want: func(t *testing.T, nt NativeType) {
				require.Equal(t, NativePresence, nt.Kind)
				require.NotNil(t, nt.Elem)
				assert.Equal(t, NativeScalar, nt.Elem.Kind)
				assert.Equal(t, ir.PrimU8, nt.Elem.Prim)
			},
		},
		{
			name: "nullable struct becomes a presence block",
			ref:  ir.Nullable(ir.Struct(pointID, false)),
			pos:  PosParam,
			want: func(t *testing.T, nt NativeType) {
				require.Equal(t, NativePresence, nt.Kind)
				assert.Equal(t, NativeBlock, nt.Elem.Kind)
			},
		},
		{
			name: "fallible return with payloads",
			ref:  ir.Fallible(refPtr(ir.Prim(ir.PrimF64)), ir.Enum(errID)),
			pos:  PosReturn,
			want: func(t *testing.T, nt NativeType) {
				require.Equal(t, NativeResult, nt.Kind)
				require.NotNil(t, nt.Elem)
				assert.Equal(t, ir.PrimF64, nt.Elem.Prim)
				require.NotNil(t, nt.Err)
				assert.Equal(t, errID, nt.Err.Type)
			},
		},
		{
			name: "fallible unit success",
			ref:  ir.Fallible(nil, ir.Enum(errID)),
			pos:  PosReturn,
			want: func(t *testing.T, nt NativeType) {
				require.Equal(t, NativeResult, nt.Kind)
				assert.Nil(t, nt.Elem)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nt, err := NativeTypeOf(reg, tt.ref, tt.pos)
			require.NoError(t, err)
			tt.want(t, nt)
		})
	}
}

func TestNativeTypeOfUnsupported(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name string
		ref  ir.TypeRef
		pos  Position
		msg  string
	}{
		{
			name: "nested nullable",
			ref:  ir.Nullable(ir.Nullable(ir.Prim(ir.PrimU8))),
			pos:  PosParam,
			msg:  "nested nullability",
		},
		{
			name: "nullable fallible",
			ref:  ir.Nullable(ir.Fallible(nil, ir.Enum(errID))),
			pos:  PosReturn,
			msg:  "cannot be nullable",
		},
		{
			name: "fallible as parameter",
			ref:  ir.Fallible(nil, ir.Enum(errID)),
			pos:  PosParam,
			msg:  "only legal in return position",
		},
		{
			name: "fallible inside fallible",
			ref:  ir.Fallible(refPtr(ir.Fallible(nil, ir.Enum(errID))), ir.Enum(errID)),
			pos:  PosReturn,
			msg:  "only legal in return position",
		},
		{
			name: "writeable as field",
			ref:  ir.Writeable(),
			pos:  PosField,
			msg:  "only legal as a parameter or a return",
		},
		{
			name: "writeable inside nullable",
			ref:  ir.Nullable(ir.Writeable()),
			pos:  PosParam,
			msg:  "only legal as a parameter or a return",
		},
		{
			name: "opaque as field",
			ref:  ir.Opaque(decoderID, false),
			pos:  PosField,
			msg:  "cannot be a struct field",
		},
		{
			name: "nullable opaque as field",
			ref:  ir.Nullable(ir.Opaque(decoderID, false)),
			pos:  PosField,
			msg:  "cannot be a struct field",
		},
		{
			name: "slice as field",
			ref:  ir.Slice(ir.EncodingUTF8, 0),
			pos:  PosField,
			msg:  "cannot be a struct field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NativeTypeOf(reg, tt.ref, tt.pos)
			require.Error(t, err)
			assert.Equal(t, diagnostic.CodeUnsupportedType, CodeOf(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLowerMethodStatic(t *testing.T) {
	reg := testRegistry(t)
	owner := &ir.TypeDef{ID: decoderID, Kind: ir.TypeKindOpaque}

	m := &ir.MethodDef{
		Name:   "add_two",
		Self:   ir.SelfNone,
		Params: []ir.ParamDef{{Name: "n", Type: ir.Prim(ir.PrimI32)}},
		Return: refPtr(ir.Prim(ir.PrimI32)),
	}

	abi, err := LowerMethod(reg, owner, m)
	require.NoError(t, err)

	assert.Equal(t, "Decoder_add_two", abi.Sig.Symbol)
	assert.Nil(t, abi.SelfType)
	require.Len(t, abi.Sig.Slots, 1)
	assert.Equal(t, "n", abi.Sig.Slots[0].Name)
	assert.Equal(t, RoleValue, abi.Sig.Slots[0].Role)
	assert.Equal(t, ReturnDirect, abi.Sig.Return.Mode)
}

func TestLowerMethodSelfAndSliceExpansion(t *testing.T) {
	reg := testRegistry(t)
	owner := &ir.TypeDef{ID: decoderID, Kind: ir.TypeKindOpaque}

	m := &ir.MethodDef{
		Name: "parse",
		Self: ir.SelfBorrowed,
		Params: []ir.ParamDef{
			{Name: "text", Type: ir.Slice(ir.EncodingUTF8, 0)},
			{Name: "mode", Type: ir.Enum(modeID)},
		},
		Return: refPtr(ir.Fallible(refPtr(ir.Prim(ir.PrimF64)), ir.Enum(errID))),
	}

	abi, err := LowerMethod(reg, owner, m)
	require.NoError(t, err)

	require.NotNil(t, abi.SelfType)
	assert.Equal(t, NativePointer, abi.SelfType.Kind)

	names := make([]string, 0, len(abi.Sig.Slots))
	roles := make([]SlotRole, 0, len(abi.Sig.Slots))

	for _, s := range abi.Sig.Slots {
		names = append(names, s.Name)
		roles = append(roles, s.Role)
	}

	assert.Equal(t, []string{"self", "text_ptr", "text_len", "mode", "out"}, names)
	assert.Equal(t, []SlotRole{RoleValue, RoleData, RoleLen, RoleValue, RoleOut}, roles)
	assert.Equal(t, ReturnOut, abi.Sig.Return.Mode)
	assert.Equal(t, NativeResult, abi.Sig.Return.Type.Kind)
}

func TestLowerMethodReturnModes(t *testing.T) {
	reg := testRegistry(t)
	owner := &ir.TypeDef{ID: decoderID, Kind: ir.TypeKindOpaque}

	tests := []struct {
		name string
		ret  *ir.TypeRef
		mode ReturnMode
	}{
		{"no return", nil, ReturnVoid},
		{"scalar", refPtr(ir.Prim(ir.PrimI64)), ReturnDirect},
		{"enum", refPtr(ir.Enum(modeID)), ReturnDirect},
		{"owned opaque", refPtr(ir.Opaque(decoderID, false)), ReturnDirect},
		{"nullable opaque", refPtr(ir.Nullable(ir.Opaque(decoderID, false))), ReturnDirect},
		{"struct beyond register width", refPtr(ir.Struct(pointID, false)), ReturnOut},
		{"borrowed struct view", refPtr(ir.Struct(pointID, true)), ReturnDirect},
		{"slice", refPtr(ir.Slice(ir.EncodingUTF8, 0)), ReturnOut},
		{"presence", refPtr(ir.Nullable(ir.Prim(ir.PrimU8))), ReturnOut},
		{"fallible", refPtr(ir.Fallible(nil, ir.Enum(errID))), ReturnOut},
		{"writeable", refPtr(ir.Writeable()), ReturnSink},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &ir.MethodDef{Name: "probe", Self: ir.SelfBorrowed, Return: tt.ret}

			abi, err := LowerMethod(reg, owner, m)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, abi.Sig.Return.Mode)
		})
	}
}

func TestLowerMethodSmallStructReturnsDirect(t *testing.T) {
	reg, err := registry.Build([]ir.TypeDef{
		{
			ID:   ir.TypeID{Library: "x", Name: "Pair"},
			Kind: ir.TypeKindStruct,
			Fields: []ir.FieldDef{
				{Name: "a", Type: ir.Prim(ir.PrimI32)},
				{Name: "b", Type: ir.Prim(ir.PrimI32)},
			},
		},
		{ID: ir.TypeID{Library: "x", Name: "Box"}, Kind: ir.TypeKindOpaque},
	})
	require.NoError(t, err)

	owner, err := reg.Resolve(ir.TypeID{Library: "x", Name: "Box"})
	require.NoError(t, err)

	m := &ir.MethodDef{
		Name:   "pair",
		Self:   ir.SelfBorrowed,
		Return: refPtr(ir.Struct(ir.TypeID{Library: "x", Name: "Pair"}, false)),
	}

	abi, lerr := LowerMethod(reg, owner, m)
	require.NoError(t, lerr)
	assert.Equal(t, ReturnDirect, abi.Sig.Return.Mode)
}

func TestLowerMethodNamingConflicts(t *testing.T) {
	reg := testRegistry(t)
	owner := &ir.TypeDef{ID: decoderID, Kind: ir.TypeKindOpaque}

	tests := []struct {
		name string
		m    ir.MethodDef
		msg  string
	}{
		{
			name: "reserved self parameter",
			m: ir.MethodDef{
				Name:   "probe",
				Params: []ir.ParamDef{{Name: "self", Type: ir.Prim(ir.PrimI32)}},
			},
			msg: "reserved",
		},
		{
			name: "reserved out parameter",
			m: ir.MethodDef{
				Name:   "probe",
				Params: []ir.ParamDef{{Name: "out", Type: ir.Prim(ir.PrimI32)}},
			},
			msg: "reserved",
		},
		{
			name: "expanded slots collide",
			m: ir.MethodDef{
				Name: "probe",
				Params: []ir.ParamDef{
					{Name: "x", Type: ir.Slice(ir.EncodingUTF8, 0)},
					{Name: "x_ptr", Type: ir.Prim(ir.PrimI32)},
				},
			},
			msg: "collide",
		},
		{
			name: "method name not a symbol part",
			m:    ir.MethodDef{Name: "with space"},
			msg:  "not a symbol character",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LowerMethod(reg, owner, &tt.m)
			require.Error(t, err)
			assert.Equal(t, diagnostic.CodeNamingConflict, CodeOf(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLowerTypeOpaque(t *testing.T) {
	reg := testRegistry(t)
	def := &ir.TypeDef{
		ID:   decoderID,
		Kind: ir.TypeKindOpaque,
		Methods: []ir.MethodDef{
			{Name: "digits", Self: ir.SelfBorrowed, Return: refPtr(ir.Prim(ir.PrimU32))},
			{Name: "reset", Self: ir.SelfBorrowed},
		},
	}

	diags := &diagnostic.Diagnostics{}
	abi := LowerType(reg, def, def.Methods, diags)
	require.True(t, diags.IsValid(), "unexpected diagnostics: %v", diags.Errors)
	require.NotNil(t, abi)

	assert.Equal(t, "Decoder_destroy", abi.Destructor)
	assert.Equal(t, []string{"Decoder_digits", "Decoder_reset", "Decoder_destroy"}, abi.Symbols())
}

func TestLowerTypeSymbolCollisions(t *testing.T) {
	reg := testRegistry(t)

	tests := []struct {
		name    string
		methods []ir.MethodDef
		msg     string
	}{
		{
			name: "duplicate method names",
			methods: []ir.MethodDef{
				{Name: "reset", Self: ir.SelfBorrowed},
				{Name: "reset", Self: ir.SelfBorrowed},
			},
			msg: "already taken by method reset",
		},
		{
			name: "method collides with generated destructor",
			methods: []ir.MethodDef{
				{Name: "destroy", Self: ir.SelfBorrowed},
			},
			msg: "already taken by generated destructor",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := &ir.TypeDef{ID: decoderID, Kind: ir.TypeKindOpaque, Methods: tt.methods}

			diags := &diagnostic.Diagnostics{}
			abi := LowerType(reg, def, def.Methods, diags)

			assert.Nil(t, abi)
			require.True(t, diags.HasErrors())
			assert.Equal(t, diagnostic.CodeNamingConflict, diags.Errors[0].Code)
			assert.Contains(t, diags.Errors[0].Message, tt.msg)
		})
	}
}

func TestLowerTypeCollectsAllMethodFailures(t *testing.T) {
	reg := testRegistry(t)
	def := &ir.TypeDef{
		ID:   decoderID,
		Kind: ir.TypeKindOpaque,
		Methods: []ir.MethodDef{
			{Name: "a", Self: ir.SelfBorrowed, Params: []ir.ParamDef{
				{Name: "r", Type: ir.Fallible(nil, ir.Enum(errID))},
			}},
			{Name: "b", Self: ir.SelfBorrowed, Params: []ir.ParamDef{
				{Name: "w", Type: ir.Nullable(ir.Nullable(ir.Prim(ir.PrimU8)))},
			}},
			{Name: "c", Self: ir.SelfBorrowed},
		},
	}

	diags := &diagnostic.Diagnostics{}
	abi := LowerType(reg, def, def.Methods, diags)

	assert.Nil(t, abi)
	require.Len(t, diags.Errors, 2)
	assert.Equal(t, "a", diags.Errors[0].Method)
	assert.Equal(t, "b", diags.Errors[1].Method)
}

func TestValidateSymbolPart(t *testing.T) {
	assert.NoError(t, ValidateSymbolPart("Decoder"))
	assert.NoError(t, ValidateSymbolPart("add_two"))
	assert.NoError(t, ValidateSymbolPart("utf8_len"))
	assert.NoError(t, ValidateSymbolPart("café"))

	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{"empty", "", "empty name"},
		{"digit start", "2fast", "starts with a digit"},
		{"space", "two words", "not a symbol character"},
		{"dash", "kebab-case", "not a symbol character"},
		{"not nfc", "café", "not NFC-normalized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSymbolPart(tt.in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
