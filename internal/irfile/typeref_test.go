package irfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ffigen/internal/ir"
)

// refDefs is the resolution context of the reference tests: one type of
// every kind under the "geo" library.
func refDefs() map[ir.TypeID]*ir.TypeDef {
	mk := func(name string, kind ir.TypeKind) *ir.TypeDef {
		return &ir.TypeDef{ID: ir.TypeID{Library: "geo", Name: name}, Kind: kind}
	}

	meters := mk("Meters", ir.TypeKindPrimitive)
	meters.Prim = ir.PrimF64

	return map[ir.TypeID]*ir.TypeDef{
		meters.ID:                              meters,
		{Library: "geo", Name: "Index"}:        mk("Index", ir.TypeKindOpaque),
		{Library: "geo", Name: "Point"}:        mk("Point", ir.TypeKindStruct),
		{Library: "geo", Name: "Mode"}:         mk("Mode", ir.TypeKindEnum),
		{Library: "util", Name: "ParseError"}:  {ID: ir.TypeID{Library: "util", Name: "ParseError"}, Kind: ir.TypeKindEnum},
	}
}

func TestLowerRef(t *testing.T) {
	defs := refDefs()

	indexID := ir.TypeID{Library: "geo", Name: "Index"}
	pointID := ir.TypeID{Library: "geo", Name: "Point"}
	modeID := ir.TypeID{Library: "geo", Name: "Mode"}
	metersID := ir.TypeID{Library: "geo", Name: "Meters"}
	parseErrID := ir.TypeID{Library: "util", Name: "ParseError"}

	pointRef := ir.Struct(pointID, false)

	tests := []struct {
		expr     string
		expected ir.TypeRef
	}{
		{"i32", ir.Prim(ir.PrimI32)},
		{"f64", ir.Prim(ir.PrimF64)},
		{"bool", ir.Prim(ir.PrimBool)},
		{"writeable", ir.Writeable()},
		{"Meters", ir.NamedPrim(ir.PrimF64, metersID)},
		{"Index", ir.Opaque(indexID, false)},
		{"&Index", ir.Opaque(indexID, true)},
		{"geo.Index", ir.Opaque(indexID, false)},
		{"Point", ir.Struct(pointID, false)},
		{"&Point", ir.Struct(pointID, true)},
		{"Mode", ir.Enum(modeID)},
		{"slice<utf8>", ir.Slice(ir.EncodingUTF8, 0)},
		{"slice<utf16>", ir.Slice(ir.EncodingUTF16, 0)},
		{"slice<strings>", ir.Slice(ir.EncodingStrings, 0)},
		{"slice<u8>", ir.Slice(ir.EncodingPrimitive, ir.PrimU8)},
		{"nullable<i32>", ir.Nullable(ir.Prim(ir.PrimI32))},
		{"nullable<&Index>", ir.Nullable(ir.Opaque(indexID, true))},
		{"fallible<Point, util.ParseError>", ir.Fallible(&pointRef, ir.Enum(parseErrID))},
		{"fallible<unit, util.ParseError>", ir.Fallible(nil, ir.Enum(parseErrID))},
		{" nullable< i32 > ", ir.Nullable(ir.Prim(ir.PrimI32))},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := lowerRef(tt.expr, "geo", defs)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLowerRefErrors(t *testing.T) {
	defs := refDefs()

	tests := []struct {
		name string
		expr string
	}{
		{"empty", ""},
		{"undefined name", "Missing"},
		{"borrowed enum", "&Mode"},
		{"borrowed primitive alias", "&Meters"},
		{"borrowed combinator", "&nullable<i32>"},
		{"unknown constructor", "boxed<i32>"},
		{"slice arity", "slice<u8, u16>"},
		{"slice bad encoding", "slice<Mode>"},
		{"nullable arity", "nullable<i32, i64>"},
		{"fallible arity", "fallible<i32>"},
		{"unbalanced open", "nullable<i32"},
		{"stray close", "i32>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lowerRef(tt.expr, "geo", defs)
			assert.Error(t, err)
		})
	}
}

func TestSplitGenericNesting(t *testing.T) {
	head, args, err := splitGeneric("fallible<nullable<geo.Point>, util.ParseError>")
	require.NoError(t, err)
	assert.Equal(t, "fallible", head)
	require.Len(t, args, 2)
	assert.Equal(t, "nullable<geo.Point>", args[0])
	assert.Equal(t, " util.ParseError", args[1])
}
