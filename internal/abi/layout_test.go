package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ffigen/internal/ir"
)

func TestLayoutScalarsAndPointers(t *testing.T) {
	tests := []struct {
		name string
		t    NativeType
		want Layout
	}{
		{"bool is one byte", Scalar(ir.PrimBool), Layout{1, 1}},
		{"char is four bytes", Scalar(ir.PrimChar), Layout{4, 4}},
		{"i64", Scalar(ir.PrimI64), Layout{8, 8}},
		{"pointer", NativeType{Kind: NativePointer}, Layout{8, 8}},
		{"sink", NativeType{Kind: NativeSink}, Layout{8, 8}},
		{"buffer is ptr plus len", NativeType{Kind: NativeBuffer, Prim: ir.PrimU8}, Layout{16, 8}},
		{"void", Void(), Layout{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.t.Layout())
		})
	}
}

func TestLayoutBlocks(t *testing.T) {
	point := NativeType{Kind: NativeBlock, Fields: []NativeField{
		{Name: "x", Type: Scalar(ir.PrimF64)},
		{Name: "y", Type: Scalar(ir.PrimF64)},
	}}
	assert.Equal(t, Layout{16, 8}, point.Layout())
	assert.Equal(t, []uint32{0, 8}, point.Offsets())

	// Padding between a one-byte member and an eight-byte member.
	mixed := NativeType{Kind: NativeBlock, Fields: []NativeField{
		{Name: "flag", Type: Scalar(ir.PrimBool)},
		{Name: "value", Type: Scalar(ir.PrimF64)},
		{Name: "count", Type: Scalar(ir.PrimU16)},
	}}
	assert.Equal(t, Layout{24, 8}, mixed.Layout())
	assert.Equal(t, []uint32{0, 8, 16}, mixed.Offsets())
}

func TestLayoutPresence(t *testing.T) {
	small := Scalar(ir.PrimU8)
	presence := NativeType{Kind: NativePresence, Elem: &small}
	assert.Equal(t, Layout{2, 1}, presence.Layout())
	assert.Equal(t, []uint32{0, 1}, presence.Offsets())

	wide := Scalar(ir.PrimF64)
	presenceWide := NativeType{Kind: NativePresence, Elem: &wide}
	assert.Equal(t, Layout{16, 8}, presenceWide.Layout())
	assert.Equal(t, []uint32{0, 8}, presenceWide.Offsets())
}

func TestLayoutResult(t *testing.T) {
	ok := Scalar(ir.PrimF64)
	errShape := Scalar(ir.PrimI32)

	res := NativeType{Kind: NativeResult, Elem: &ok, Err: &errShape}
	assert.Equal(t, Layout{24, 8}, res.Layout())
	assert.Equal(t, []uint32{0, 8, 16}, res.Offsets())

	unit := NativeType{Kind: NativeResult, Err: &errShape}
	assert.Equal(t, Layout{8, 4}, unit.Layout())
	assert.Equal(t, []uint32{0, 4}, unit.Offsets())
}

func TestReturnsDirect(t *testing.T) {
	require.True(t, Scalar(ir.PrimI32).ReturnsDirect())
	require.True(t, NativeType{Kind: NativePointer}.ReturnsDirect())

	small := NativeType{Kind: NativeBlock, Fields: []NativeField{
		{Name: "a", Type: Scalar(ir.PrimI32)},
		{Name: "b", Type: Scalar(ir.PrimI32)},
	}}
	assert.True(t, small.ReturnsDirect())

	big := NativeType{Kind: NativeBlock, Fields: []NativeField{
		{Name: "a", Type: Scalar(ir.PrimF64)},
		{Name: "b", Type: Scalar(ir.PrimF64)},
	}}
	assert.False(t, big.ReturnsDirect())

	u8 := Scalar(ir.PrimU8)
	assert.False(t, NativeType{Kind: NativePresence, Elem: &u8}.ReturnsDirect())
	assert.False(t, NativeType{Kind: NativeBuffer, Prim: ir.PrimU8}.ReturnsDirect())
}
