package nativesim

import (
	"fmt"
	"reflect"

	"ffigen/internal/abi"
	"ffigen/internal/ir"
)

// Call carries one invocation across the simulated boundary.
type Call struct {
	sig   *abi.Signature
	slots []any

	returned bool
	failed   bool
	ret      any
	errv     any
}

// Slot returns the value of the i-th signature slot.
func (c *Call) Slot(i int) any {
	return c.slots[i]
}

// Arg returns the value of the named slot. Buffers occupy two slots named
// {param}_ptr and {param}_len.
func (c *Call) Arg(name string) any {
	for i, s := range c.sig.Slots {
		if s.Name == name {
			return c.slots[i]
		}
	}

	panic("nativesim: no slot named " + name)
}

// Return records the call's success value (nil for a unit success).
func (c *Call) Return(v any) {
	c.returned = true
	c.ret = v
}

// Fail records the call's error payload. Only fallible returns may fail.
func (c *Call) Fail(payload any) {
	c.failed = true
	c.errv = payload
}

// CallError is the host-side error of a failed fallible call, carrying the
// unmarshaled error payload.
type CallError struct {
	Payload any
}

func (e *CallError) Error() string {
	return fmt.Sprintf("native call failed: %v", e.Payload)
}

// Caller executes lowered methods against a library the way a rendered
// host wrapper would.
type Caller struct {
	Lib *Library
}

// Invoke marshals (self, args) per the method's native signature, invokes
// the symbol, and unmarshals the outcome per the return plan. args align
// with the method's declared parameters; nil stands for an absent nullable.
func (c *Caller) Invoke(m *abi.MethodABI, self any, args ...any) (any, error) {
	fn, err := c.Lib.Lookup(m.Sig.Symbol)
	if err != nil {
		return nil, err
	}

	if len(args) != len(m.Params) {
		return nil, fmt.Errorf("nativesim: %s takes %d arguments, got %d", m.Sig.Symbol, len(m.Params), len(args))
	}

	call := &Call{sig: &m.Sig}

	var sink *Sink

	pi := 0

	for _, s := range m.Sig.Slots {
		switch {
		case s.Role == abi.RoleOut:
			// The cell behind the hidden out pointer is the call record
			// itself: the native side fills it through Return and Fail.
			call.slots = append(call.slots, nil)

		case s.Role == abi.RoleSink && pi >= len(m.Params):
			// The trailing sink a writeable return lowers to.
			sink = &Sink{}
			call.slots = append(call.slots, sink)

		case s.Name == "self" && m.SelfType != nil && pi == 0 && len(call.slots) == 0:
			call.slots = append(call.slots, self)

		case s.Role == abi.RoleData:
			data, n := bufferHalves(args[pi])
			call.slots = append(call.slots, data, n)

		case s.Role == abi.RoleLen:
			// Consumed together with RoleData.
			pi++

		default:
			v, err := marshalParam(&m.Params[pi], args[pi])
			if err != nil {
				return nil, err
			}

			call.slots = append(call.slots, v)
			pi++
		}
	}

	fn(call)

	return unmarshalReturn(call, m.Sig.Return, sink)
}

// marshalParam lowers one host argument to its slot value.
func marshalParam(p *abi.Param, v any) (any, error) {
	switch p.Type.Kind {
	case abi.NativePointer:
		if v == nil {
			if !p.Type.Nullable {
				return nil, fmt.Errorf("nativesim: nil for non-nullable parameter %q", p.Name)
			}

			// Absence is the null pointer itself; nothing is dereferenced.
			return nil, nil
		}

		if h, ok := v.(*Handle); ok {
			if ownedOpaque(p.Ref) {
				h.Release()
			}

			return h, nil
		}

		return v, nil

	case abi.NativePresence:
		if v == nil {
			return Option{}, nil
		}

		return Option{Some: true, Value: v}, nil

	case abi.NativeSink:
		s, ok := v.(*Sink)
		if !ok {
			return nil, fmt.Errorf("nativesim: parameter %q needs a *Sink, got %T", p.Name, v)
		}

		return s, nil

	default:
		return v, nil
	}
}

// bufferHalves lowers one host buffer argument to its (data, len) slots.
// A nil buffer crosses as (nil, 0).
func bufferHalves(v any) (any, int) {
	if v == nil {
		return nil, 0
	}

	switch b := v.(type) {
	case string:
		return b, len(b)
	case *string:
		if b == nil {
			return nil, 0
		}

		return *b, len(*b)
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice {
			return v, rv.Len()
		}

		return v, 0
	}
}

// ownedOpaque reports whether the reference passes an owned handle,
// looking through a nullable wrapper.
func ownedOpaque(ref ir.TypeRef) bool {
	if ref.Kind == ir.RefNullable && ref.Elem != nil {
		ref = *ref.Elem
	}

	return ref.Kind == ir.RefOpaque && !ref.Borrowed
}

// unmarshalReturn interprets the call outcome per the return plan.
func unmarshalReturn(call *Call, plan abi.ReturnPlan, sink *Sink) (any, error) {
	switch plan.Mode {
	case abi.ReturnVoid:
		return nil, nil

	case abi.ReturnSink:
		return sink.Bytes(), nil

	case abi.ReturnDirect:
		if !call.returned {
			return nil, fmt.Errorf("nativesim: %s returned no value", call.sig.Symbol)
		}

		return call.ret, nil

	case abi.ReturnOut:
		if plan.Type.Kind == abi.NativeResult {
			// Exactly one payload per call outcome: never both, never
			// neither.
			if call.returned == call.failed {
				return nil, fmt.Errorf("nativesim: %s violated the fallible contract (returned=%v, failed=%v)",
					call.sig.Symbol, call.returned, call.failed)
			}

			if call.failed {
				return nil, &CallError{Payload: call.errv}
			}

			return call.ret, nil
		}

		if !call.returned {
			return nil, fmt.Errorf("nativesim: %s filled no out value", call.sig.Symbol)
		}

		return call.ret, nil

	default:
		return nil, fmt.Errorf("nativesim: unknown return mode %v", plan.Mode)
	}
}
