package abi

import (
	"fortio.org/safecast"
)

// Target word width. The contract is fixed to 64-bit platforms.
const (
	PointerSize  = 8
	PointerAlign = 8
)

// directReturnLimit is the largest struct block returned in a register.
const directReturnLimit = 8

// Layout is the size and alignment of a native shape, in bytes.
type Layout struct {
	Size  uint32
	Align uint32
}

// Layout computes the C layout of the shape. Panics on invalid shapes;
// lowering never produces them.
func (t NativeType) Layout() Layout {
	switch t.Kind {
	case NativeVoid:
		return Layout{}
	case NativeScalar:
		return primLayout(t.Prim.ABISize())
	case NativePointer, NativeSink:
		return Layout{Size: PointerSize, Align: PointerAlign}
	case NativeBuffer:
		// {ptr, len}
		return Layout{Size: 2 * PointerSize, Align: PointerAlign}
	case NativePresence:
		_, l := structLayout([]NativeType{Scalar(flagPrim), *t.Elem})
		return l
	case NativeResult:
		members := []NativeType{Scalar(flagPrim)}
		if t.Elem != nil {
			members = append(members, *t.Elem)
		}

		members = append(members, *t.Err)

		_, l := structLayout(members)

		return l
	case NativeBlock:
		members := make([]NativeType, 0, len(t.Fields))
		for _, f := range t.Fields {
			members = append(members, f.Type)
		}

		_, l := structLayout(members)

		return l
	default:
		panic("no layout for native kind: " + t.Kind.String())
	}
}

// Offsets returns the byte offset of every member of a composite shape, in
// member order: presence {flag, value}, result {flag, ok?, err}, block
// fields. Panics on non-composite shapes.
func (t NativeType) Offsets() []uint32 {
	switch t.Kind {
	case NativePresence:
		offs, _ := structLayout([]NativeType{Scalar(flagPrim), *t.Elem})
		return offs
	case NativeResult:
		members := []NativeType{Scalar(flagPrim)}
		if t.Elem != nil {
			members = append(members, *t.Elem)
		}

		members = append(members, *t.Err)

		offs, _ := structLayout(members)

		return offs
	case NativeBlock:
		members := make([]NativeType, 0, len(t.Fields))
		for _, f := range t.Fields {
			members = append(members, f.Type)
		}

		offs, _ := structLayout(members)

		return offs
	default:
		panic("no member offsets for native kind: " + t.Kind.String())
	}
}

// ReturnsDirect reports whether the shape travels back in the native return
// register. Discriminated blocks and buffers always go through the out
// pointer, whatever their size.
func (t NativeType) ReturnsDirect() bool {
	switch t.Kind {
	case NativeScalar, NativePointer:
		return true
	case NativeBlock:
		return t.Layout().Size <= directReturnLimit
	default:
		return false
	}
}

// structLayout lays members out per the C rules: each at the next multiple
// of its alignment, total size rounded up to the struct alignment.
func structLayout(members []NativeType) ([]uint32, Layout) {
	offsets := make([]uint32, len(members))

	var size, align uint32

	for i, m := range members {
		ml := m.Layout()
		if ml.Align > align {
			align = ml.Align
		}

		size = roundUp(size, ml.Align)
		offsets[i] = size
		size += ml.Size
	}

	if align == 0 {
		align = 1
	}

	size = roundUp(size, align)

	return offsets, Layout{Size: size, Align: align}
}

func roundUp(n, to uint32) uint32 {
	if to == 0 {
		return n
	}

	return (n + to - 1) / to * to
}

func primLayout(bytes int) Layout {
	n, err := safecast.Conv[uint32](bytes)
	if err != nil {
		panic("primitive size out of range: " + err.Error())
	}

	return Layout{Size: n, Align: n}
}
