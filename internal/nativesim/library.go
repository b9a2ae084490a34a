package nativesim

import (
	"bytes"
	"fmt"
	"sync"
)

// Func is one simulated native entry point. Arguments arrive through the
// call, one value per signature slot.
type Func func(c *Call)

// Library is the simulated native side: exported symbols plus the set of
// live objects behind opaque handles.
type Library struct {
	mu    sync.Mutex
	funcs map[string]Func
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{funcs: make(map[string]Func)}
}

// Define registers one symbol. Redefining a symbol is a setup bug and
// panics.
func (l *Library) Define(symbol string, fn Func) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.funcs[symbol]; dup {
		panic("nativesim: symbol already defined: " + symbol)
	}

	l.funcs[symbol] = fn
}

// DefineDestructor registers the standard destructor behavior for a
// destroy symbol: the self slot's handle is marked destroyed.
func (l *Library) DefineDestructor(symbol string) {
	l.Define(symbol, func(c *Call) {
		h, _ := c.Slot(0).(*Handle)
		if h != nil {
			h.Destroys++
		}
	})
}

// Lookup returns the registered function for symbol.
func (l *Library) Lookup(symbol string) (Func, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fn, ok := l.funcs[symbol]
	if !ok {
		return nil, fmt.Errorf("nativesim: undefined symbol %q", symbol)
	}

	return fn, nil
}

// Handle is one simulated opaque object. It plays both roles of the real
// boundary: the native pointer and the host wrapper around it.
type Handle struct {
	// State is whatever the simulated library stores behind the pointer.
	State any

	// Destroys counts destructor invocations. The host contract promises
	// exactly one per owned handle; tests read this to verify it.
	Destroys int

	lib        *Library
	destructor string
	released   bool
	closed     bool
}

// NewHandle allocates an object whose destructor is the given symbol.
func (l *Library) NewHandle(destructor string, state any) *Handle {
	return &Handle{State: state, lib: l, destructor: destructor}
}

// Release detaches the native object from the wrapper: ownership has
// transferred, so Close must no longer destroy.
func (h *Handle) Release() {
	h.released = true
}

// Close is the host wrapper's scoped teardown: it invokes the destructor
// exactly once for a still-owned handle and is a no-op afterwards.
func (h *Handle) Close() error {
	if h == nil || h.closed {
		return nil
	}

	h.closed = true

	if h.released {
		return nil
	}

	fn, err := h.lib.Lookup(h.destructor)
	if err != nil {
		return err
	}

	fn(&Call{slots: []any{h}})

	return nil
}

// Sink is the simulated caller-allocated growable output buffer.
type Sink struct {
	buf bytes.Buffer
}

// Append grows the sink by data, as the native side would.
func (s *Sink) Append(data []byte) {
	s.buf.Write(data)
}

// AppendString grows the sink by the bytes of text.
func (s *Sink) AppendString(text string) {
	s.buf.WriteString(text)
}

// Bytes returns the accumulated content.
func (s *Sink) Bytes() []byte {
	return s.buf.Bytes()
}

// Option is the simulated presence block: a nullable non-pointer payload.
type Option struct {
	Some  bool
	Value any
}
