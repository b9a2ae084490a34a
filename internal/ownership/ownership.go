package ownership

import (
	"fmt"

	"ffigen/internal/abi"
	"ffigen/internal/common"
	"ffigen/internal/diagnostic"
	"ffigen/internal/ir"
)

// Transfer is what a call does with one parameter.
type Transfer int

const (
	// TransferCopy: the value is copied across; neither side retains the
	// other's memory.
	TransferCopy Transfer = iota
	// TransferBorrow: the callee may use the value during the call only.
	TransferBorrow
	// TransferOwn: the callee takes ownership; the caller must not touch the
	// value again.
	TransferOwn
)

func (t Transfer) String() string {
	switch t {
	case TransferCopy:
		return "copy"
	case TransferBorrow:
		return "borrow"
	case TransferOwn:
		return "own"
	default:
		return common.UnknownStr
	}
}

// ReturnKind is the strongest obligation a return places on the host.
type ReturnKind int

const (
	// ReturnNone: nothing comes back.
	ReturnNone ReturnKind = iota
	// ReturnCopy: the host receives a value copy and owes nothing.
	ReturnCopy
	// ReturnView: the host receives a borrowed view anchored to self; it
	// must not outlive the owner.
	ReturnView
	// ReturnOwned: the host receives an owned handle and must destroy it
	// exactly once.
	ReturnOwned
)

func (k ReturnKind) String() string {
	switch k {
	case ReturnNone:
		return "none"
	case ReturnCopy:
		return "copy"
	case ReturnView:
		return "view"
	case ReturnOwned:
		return "owned"
	default:
		return common.UnknownStr
	}
}

// Classify returns the transfer semantics of one parameter reference.
func Classify(ref ir.TypeRef) Transfer {
	switch ref.Kind {
	case ir.RefOpaque:
		if ref.Borrowed {
			return TransferBorrow
		}

		return TransferOwn
	case ir.RefStruct:
		if ref.Borrowed {
			return TransferBorrow
		}

		return TransferCopy
	case ir.RefSlice:
		// The callee sees the host's buffer for the duration of the call.
		return TransferBorrow
	case ir.RefWriteable:
		return TransferBorrow
	case ir.RefNullable:
		if ref.Elem != nil {
			return Classify(*ref.Elem)
		}

		return TransferCopy
	default:
		return TransferCopy
	}
}

// ClassifyReturn walks a return reference, through nullable and fallible
// payloads, and reports the strongest obligation found. A fallible whose
// error payload is an owned handle obliges the host on the error path too.
func ClassifyReturn(ref *ir.TypeRef) ReturnKind {
	if ref == nil {
		return ReturnNone
	}

	switch ref.Kind {
	case ir.RefOpaque:
		if ref.Borrowed {
			return ReturnView
		}

		return ReturnOwned
	case ir.RefStruct:
		if ref.Borrowed {
			return ReturnView
		}

		return ReturnCopy
	case ir.RefSlice:
		return ReturnView
	case ir.RefNullable:
		return maxKind(ReturnCopy, ClassifyReturn(ref.Elem))
	case ir.RefFallible:
		kind := ClassifyReturn(ref.Err)
		if ref.Elem != nil {
			kind = maxKind(kind, ClassifyReturn(ref.Elem))
		}

		return maxKind(ReturnCopy, kind)
	default:
		return ReturnCopy
	}
}

func maxKind(a, b ReturnKind) ReturnKind {
	if b > a {
		return b
	}

	return a
}

// ValidateMethod checks the borrow contract of one method: a returned view
// has no lifetime of its own and must be anchored by a borrowed self.
func ValidateMethod(m *ir.MethodDef) error {
	if ClassifyReturn(m.Return) != ReturnView {
		return nil
	}

	if m.Self != ir.SelfBorrowed {
		return fmt.Errorf("returns a borrowed view %s with no self to anchor its lifetime", m.Return)
	}

	return nil
}

// MethodContract is the ownership summary of one method, parallel to its
// declared parameters.
type MethodContract struct {
	Name   string
	Params []Transfer
	Return ReturnKind
}

// Plan is the ownership contract of one type.
type Plan struct {
	ID ir.TypeID

	// Destructor is the symbol the sole owner must call exactly once;
	// empty for non-opaque types.
	Destructor string

	Methods []MethodContract
}

// Anchored reports whether the named method returns a view into self.
func (p *Plan) Anchored(method string) bool {
	for i := range p.Methods {
		if p.Methods[i].Name == method {
			return p.Methods[i].Return == ReturnView
		}
	}

	return false
}

// PlanType builds the ownership contract for one type's enabled methods.
// Contract violations are collected into diags as unsupported-type errors;
// a type with any violation yields nil and must not be emitted.
func PlanType(def *ir.TypeDef, methods []ir.MethodDef, diags *diagnostic.Diagnostics) *Plan {
	plan := &Plan{ID: def.ID}

	if def.Kind == ir.TypeKindOpaque {
		plan.Destructor = abi.DestroySymbol(def.ID)
	}

	failed := false

	for i := range methods {
		m := &methods[i]

		if err := ValidateMethod(m); err != nil {
			diags.AddError(diagnostic.CodeUnsupportedType, def.ID.String(), m.Name, err.Error())

			failed = true

			continue
		}

		contract := MethodContract{
			Name:   m.Name,
			Params: make([]Transfer, len(m.Params)),
			Return: ClassifyReturn(m.Return),
		}

		for pi := range m.Params {
			contract.Params[pi] = Classify(m.Params[pi].Type)
		}

		plan.Methods = append(plan.Methods, contract)
	}

	if failed {
		return nil
	}

	return plan
}
