package gobe

import (
	"fmt"
	"go/token"
	"strings"

	"ffigen/internal/abi"
	"ffigen/internal/backend"
	"ffigen/internal/diagnostic"
	"ffigen/internal/ir"
	"ffigen/internal/naming"
	"ffigen/internal/ownership"
	"ffigen/internal/typemap"
)

// methodWriter assembles the Go wrapper of one native call: signature,
// marshaling prologue, the call, the keep-alive epilogue and the result
// conversion. Statement lines are emitted unindented; gofmt settles layout.
type methodWriter struct {
	b        *Backend
	u        *backend.TypeUnit
	m        *ir.MethodDef
	mabi     *abi.MethodABI
	sig      *typemap.Signature
	hostName string
	imports  map[string]importSpec

	names map[string]struct{}

	params []string // Go parameter names, aligned with m.Params
	pre    []string // statements before the call
	args   []string // native call arguments
	call   string   // the call statement itself
	post   []string // statements right after the call
	ret    []string // result conversion, ending in return
}

func newMethodWriter(b *Backend, u *backend.TypeUnit, m *ir.MethodDef, mabi *abi.MethodABI, sig *typemap.Signature, hostName string, imports map[string]importSpec) *methodWriter {
	w := &methodWriter{
		b:        b,
		u:        u,
		m:        m,
		mabi:     mabi,
		sig:      sig,
		hostName: hostName,
		imports:  imports,
		names:    map[string]struct{}{"self": {}},
	}

	w.params = make([]string, len(m.Params))
	for i := range m.Params {
		w.params[i] = w.paramName(m.Params[i].Name)
	}

	return w
}

// paramName picks the Go spelling of a declared parameter, dodging keywords
// and camel-case collisions deterministically.
func (w *methodWriter) paramName(name string) string {
	n := naming.CamelCase(name)
	if n == "" || token.IsKeyword(n) {
		n = name + "_"
	}

	if _, taken := w.names[n]; taken {
		return naming.NewStem(n, w.names).Next()
	}

	w.names[n] = struct{}{}

	return n
}

// fresh allocates a local identifier, preferring the bare stem.
func (w *methodWriter) fresh(stem string) string {
	if _, taken := w.names[stem]; !taken {
		w.names[stem] = struct{}{}
		return stem
	}

	return naming.NewStem(stem, w.names).Next()
}

func (w *methodWriter) line(list *[]string, format string, args ...any) {
	*list = append(*list, fmt.Sprintf(format, args...))
}

func (w *methodWriter) render() (string, error) {
	sig, err := w.signature()
	if err != nil {
		return "", err
	}

	if err := w.emitSelf(); err != nil {
		return "", err
	}

	for i := range w.mabi.Params {
		if err := w.emitParam(&w.mabi.Params[i], w.params[i]); err != nil {
			return "", err
		}
	}

	if err := w.emitCall(); err != nil {
		return "", err
	}

	var sb strings.Builder

	w.writeMethodDoc(&sb)
	sb.WriteString(sig)
	sb.WriteString(" {\n")

	for _, group := range [][]string{w.pre, {w.call}, w.post, w.ret} {
		for _, line := range group {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("}")

	return sb.String(), nil
}

func (w *methodWriter) signature() (string, error) {
	var sb strings.Builder

	sb.WriteString("func ")

	switch w.m.Self {
	case ir.SelfBorrowed:
		fmt.Fprintf(&sb, "(self *%s) ", w.u.Def.ID.Name)
	case ir.SelfValue:
		fmt.Fprintf(&sb, "(self %s) ", w.u.Def.ID.Name)
	}

	sb.WriteString(w.hostName)
	sb.WriteString("(")

	for i := range w.m.Params {
		p := &w.m.Params[i]

		if p.Type.Kind == ir.RefWriteable {
			addImport(w.imports, "bytes")
		}

		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(w.params[i] + " " + w.sig.Params[i].Host.Type)
	}

	sb.WriteString(")")

	switch w.mabi.Sig.Return.Mode {
	case abi.ReturnVoid:
	case abi.ReturnSink:
		sb.WriteString(" []byte")
	default:
		sb.WriteString(" " + w.sig.Return.Host.Type)
	}

	return sb.String(), nil
}

func (w *methodWriter) emitSelf() error {
	switch w.m.Self {
	case ir.SelfBorrowed:
		w.args = append(w.args, fmt.Sprintf("(*C.%s)(self.Handle())", abi.CTypeName(w.u.Def.ID)))
		w.line(&w.post, "runtime.KeepAlive(self)")
		addImport(w.imports, "runtime")
	case ir.SelfValue:
		arg, err := w.blockArg("self", w.u.Def.ID)
		if err != nil {
			return err
		}

		w.args = append(w.args, arg)
	}

	return nil
}

func (w *methodWriter) emitParam(p *abi.Param, goName string) error {
	switch p.Type.Kind {
	case abi.NativeScalar:
		w.args = append(w.args, w.scalarToC(p.Type, goName))
		return nil
	case abi.NativePointer:
		return w.pointerParam(p, goName)
	case abi.NativeBuffer:
		return w.bufferParam(p, goName)
	case abi.NativeSink:
		w.sinkParam(goName)
		return nil
	case abi.NativePresence:
		return w.presenceParam(p, goName)
	case abi.NativeBlock:
		arg, err := w.blockArg(goName, p.Type.Type)
		if err != nil {
			return err
		}

		w.args = append(w.args, arg)

		return nil
	default:
		return errf(diagnostic.CodeEmit, "parameter %q has no Go marshaling", p.Name)
	}
}

func (w *methodWriter) pointerParam(p *abi.Param, goName string) error {
	base := unwrapNullable(p.Ref)

	switch base.Kind {
	case ir.RefOpaque:
		if base.Borrowed {
			w.args = append(w.args, fmt.Sprintf("(*C.%s)(%s.Handle())", abi.CTypeName(p.Type.Type), goName))
			w.line(&w.post, "runtime.KeepAlive(%s)", goName)
			addImport(w.imports, "runtime")
		} else {
			w.args = append(w.args, fmt.Sprintf("(*C.%s)(%s.Release())", abi.CTypeName(p.Type.Type), goName))
		}

		return nil
	case ir.RefStruct:
		if p.Ref.Kind == ir.RefNullable {
			pp := w.fresh(goName + "Ptr")
			w.line(&w.pre, "var %s *C.%s", pp, abi.CTypeName(p.Type.Type))
			w.line(&w.pre, "if %s != nil {", goName)

			arg, err := w.blockArg("(*"+goName+")", p.Type.Type)
			if err != nil {
				return err
			}

			w.line(&w.pre, "%s = &%s", pp, arg)
			w.line(&w.pre, "}")
			w.args = append(w.args, pp)

			return nil
		}

		arg, err := w.blockArg(goName, p.Type.Type)
		if err != nil {
			return err
		}

		w.args = append(w.args, "&"+arg)

		return nil
	default:
		return errf(diagnostic.CodeEmit, "parameter %q: pointer to %s has no Go marshaling", p.Name, base.Kind)
	}
}

func (w *methodWriter) bufferParam(p *abi.Param, goName string) error {
	base := unwrapNullable(p.Ref)
	nullable := p.Ref.Kind == ir.RefNullable

	switch base.Encoding {
	case ir.EncodingUTF8:
		if nullable {
			pp := w.fresh(goName + "Ptr")
			pl := w.fresh(goName + "Len")
			w.line(&w.pre, "var %s unsafe.Pointer", pp)
			w.line(&w.pre, "var %s C.size_t", pl)
			w.line(&w.pre, "if %s != nil {", goName)
			w.line(&w.pre, "%s = ffigenStrData(*%s)", pp, goName)
			w.line(&w.pre, "if %s == nil {", pp)
			w.line(&w.pre, "%s = ffigenEmpty()", pp)
			w.line(&w.pre, "}")
			w.line(&w.pre, "%s = C.size_t(len(*%s))", pl, goName)
			w.line(&w.pre, "}")
			w.args = append(w.args, fmt.Sprintf("(*C.uint8_t)(%s)", pp), pl)
			addImport(w.imports, "unsafe")

			return nil
		}

		w.args = append(w.args,
			fmt.Sprintf("(*C.uint8_t)(ffigenStrData(%s))", goName),
			fmt.Sprintf("C.size_t(len(%s))", goName))

		return nil

	case ir.EncodingUTF16, ir.EncodingPrimitive:
		elem := "uint16_t"
		if base.Encoding == ir.EncodingPrimitive {
			elem = abi.CPrim(base.Prim)
		}

		if nullable {
			pp := w.fresh(goName + "Ptr")
			w.line(&w.pre, "var %s unsafe.Pointer", pp)
			w.line(&w.pre, "if %s != nil {", goName)
			w.line(&w.pre, "%s = ffigenData(%s)", pp, goName)
			w.line(&w.pre, "if %s == nil {", pp)
			w.line(&w.pre, "%s = ffigenEmpty()", pp)
			w.line(&w.pre, "}")
			w.line(&w.pre, "}")
			w.args = append(w.args,
				fmt.Sprintf("(*C.%s)(%s)", elem, pp),
				fmt.Sprintf("C.size_t(len(%s))", goName))
			addImport(w.imports, "unsafe")

			return nil
		}

		w.args = append(w.args,
			fmt.Sprintf("(*C.%s)(ffigenData(%s))", elem, goName),
			fmt.Sprintf("C.size_t(len(%s))", goName))

		return nil

	case ir.EncodingStrings:
		// A nil Go slice already crosses as (NULL, 0), so the absent and
		// empty cases need no separate path here.
		arr := w.fresh(goName + "Arr")
		n := w.fresh(goName + "N")
		w.line(&w.pre, "%s, %s := ffigenStrs(%s)", arr, n, goName)
		w.args = append(w.args, arr, n)
		w.line(&w.post, "ffigenStrsFree(%s, %s)", arr, n)

		return nil

	default:
		return errf(diagnostic.CodeEmit, "parameter %q: slice without an encoding", goName)
	}
}

func (w *methodWriter) sinkParam(goName string) {
	s := w.fresh(goName + "Sink")
	d := w.fresh(goName + "Data")

	w.line(&w.pre, "var %s C.ffigen_sink", s)
	w.args = append(w.args, "&"+s)
	w.line(&w.post, "%s := ffigenSinkBytes(&%s)", d, s)
	w.line(&w.post, "if %s != nil {", goName)
	w.line(&w.post, "%s.Write(%s)", goName, d)
	w.line(&w.post, "}")
}

func (w *methodWriter) presenceParam(p *abi.Param, goName string) error {
	pv := w.fresh(goName + "Opt")
	inner := *p.Ref.Elem
	shape := *p.Type.Elem

	w.line(&w.pre, "var %s C.%s", pv, abi.CTypedefName(w.mabi.Sig.Symbol, p.Name))
	w.line(&w.pre, "if %s != nil {", goName)
	w.line(&w.pre, "%s.is_some = 1", pv)

	switch shape.Kind {
	case abi.NativeBlock:
		if err := w.blockAssign(pv+".value", "(*"+goName+")", inner.Target); err != nil {
			return err
		}
	default:
		w.line(&w.pre, "%s.value = %s", pv, w.scalarToC(shape, "*"+goName))
	}

	w.line(&w.pre, "}")
	w.args = append(w.args, pv)

	return nil
}

// blockArg materializes a Go struct value as a native block in a temporary
// and returns the temporary's name.
func (w *methodWriter) blockArg(src string, id ir.TypeID) (string, error) {
	tmp := w.fresh("blk")
	w.line(&w.pre, "var %s C.%s", tmp, abi.CTypeName(id))

	if err := w.blockAssign(tmp, src, id); err != nil {
		return "", err
	}

	return tmp, nil
}

// blockAssign fills the native block dst field by field from the Go struct
// value src.
func (w *methodWriter) blockAssign(dst, src string, id ir.TypeID) error {
	def, err := w.u.Reg.Resolve(id)
	if err != nil {
		return errf(diagnostic.CodeEmit, "%v", err)
	}

	for _, f := range def.Fields {
		cField := dst + "." + f.Name
		goField := src + "." + naming.PascalCase(f.Name)

		switch f.Type.Kind {
		case ir.RefStruct:
			if err := w.blockAssign(cField, goField, f.Type.Target); err != nil {
				return err
			}
		case ir.RefNullable:
			inner := *f.Type.Elem

			w.line(&w.pre, "if %s != nil {", goField)
			w.line(&w.pre, "%s.is_some = 1", cField)

			if inner.Kind == ir.RefStruct {
				if err := w.blockAssign(cField+".value", "(*"+goField+")", inner.Target); err != nil {
					return err
				}
			} else {
				shape, serr := abi.NativeTypeOf(w.u.Reg, inner, abi.PosField)
				if serr != nil {
					return serr
				}

				w.line(&w.pre, "%s.value = %s", cField, w.scalarToC(shape, "*"+goField))
			}

			w.line(&w.pre, "}")
		default:
			shape, serr := abi.NativeTypeOf(w.u.Reg, f.Type, abi.PosField)
			if serr != nil {
				return serr
			}

			w.line(&w.pre, "%s = %s", cField, w.scalarToC(shape, goField))
		}
	}

	return nil
}

// scalarToC spells the C form of a Go scalar expression.
func (w *methodWriter) scalarToC(t abi.NativeType, expr string) string {
	if t.Prim == ir.PrimBool {
		expr = "ffigenBool(" + expr + ")"
		if t.Type.IsZero() {
			return expr
		}
	}

	if !t.Type.IsZero() {
		return "C." + abi.CTypeName(t.Type) + "(" + expr + ")"
	}

	return "C." + abi.CPrim(t.Prim) + "(" + expr + ")"
}

// scalarToGo spells the Go form of a C scalar expression.
func (w *methodWriter) scalarToGo(t abi.NativeType, expr string) string {
	if t.Prim == ir.PrimBool {
		expr = expr + " != 0"
		if t.Type.IsZero() {
			return expr
		}

		return w.hostTypeName(t.Type) + "(" + expr + ")"
	}

	if !t.Type.IsZero() {
		return w.hostTypeName(t.Type) + "(" + expr + ")"
	}

	if t.Prim == ir.PrimChar {
		return "rune(" + expr + ")"
	}

	return goPrim(t.Prim) + "(" + expr + ")"
}

func (w *methodWriter) hostTypeName(id ir.TypeID) string {
	return qualify(w.u.Def.ID, id)
}

func (w *methodWriter) wrapName(id ir.TypeID) string {
	if id.Library == w.u.Def.ID.Library {
		return "Wrap" + id.Name
	}

	return id.Library + ".Wrap" + id.Name
}

func (w *methodWriter) emitCall() error {
	sym := w.mabi.Sig.Symbol
	plan := w.mabi.Sig.Return

	switch plan.Mode {
	case abi.ReturnVoid:
		w.call = fmt.Sprintf("C.%s(%s)", sym, strings.Join(w.args, ", "))
		return nil

	case abi.ReturnSink:
		out := w.fresh("out")
		w.line(&w.pre, "var %s C.ffigen_sink", out)
		w.args = append(w.args, "&"+out)
		w.call = fmt.Sprintf("C.%s(%s)", sym, strings.Join(w.args, ", "))
		w.line(&w.ret, "return ffigenSinkBytes(&%s)", out)

		return nil

	case abi.ReturnDirect:
		retv := w.fresh("ret")
		w.call = fmt.Sprintf("%s := C.%s(%s)", retv, sym, strings.Join(w.args, ", "))

		return w.directReturn(retv, plan.Type)

	case abi.ReturnOut:
		out := w.fresh("out")

		ctype := "C." + abi.CReturnTypedefName(sym)
		if plan.Type.Kind == abi.NativeBlock {
			ctype = "C." + abi.CTypeName(plan.Type.Type)
		}

		w.line(&w.pre, "var %s %s", out, ctype)
		w.args = append(w.args, "&"+out)
		w.call = fmt.Sprintf("C.%s(%s)", sym, strings.Join(w.args, ", "))

		return w.outReturn(out, plan.Type)

	default:
		return errf(diagnostic.CodeEmit, "return mode %s has no Go marshaling", plan.Mode)
	}
}

func (w *methodWriter) directReturn(retv string, t abi.NativeType) error {
	switch t.Kind {
	case abi.NativeScalar:
		w.line(&w.ret, "return %s", w.scalarToGo(t, retv))
		return nil

	case abi.NativePointer:
		base := unwrapNullable(*w.m.Return)

		if base.Kind == ir.RefOpaque {
			w.line(&w.ret, "return %s", w.wrapExpr(t.Type, retv, base.Borrowed))
			return nil
		}

		// A struct view: copy the pointed-at block out.
		host := w.hostTypeName(t.Type)

		if t.Nullable {
			w.line(&w.ret, "if %s == nil {", retv)
			w.line(&w.ret, "return nil")
			w.line(&w.ret, "}")
		}

		v := w.fresh("v")
		w.line(&w.ret, "var %s %s", v, host)

		if err := w.blockToGo(v, retv, t.Type); err != nil {
			return err
		}

		if t.Nullable {
			w.line(&w.ret, "return &%s", v)
		} else {
			w.line(&w.ret, "return %s", v)
		}

		return nil

	case abi.NativeBlock:
		v := w.fresh("v")
		w.line(&w.ret, "var %s %s", v, w.hostTypeName(t.Type))

		if err := w.blockToGo(v, retv, t.Type); err != nil {
			return err
		}

		w.line(&w.ret, "return %s", v)

		return nil

	default:
		return errf(diagnostic.CodeEmit, "native kind %s cannot return directly", t.Kind)
	}
}

// wrapExpr spells the wrapper adoption of a returned handle, anchoring
// borrowed handles to the receiver they were borrowed from.
func (w *methodWriter) wrapExpr(id ir.TypeID, expr string, borrowed bool) string {
	addImport(w.imports, "unsafe")

	out := fmt.Sprintf("%s(unsafe.Pointer(%s), %v)", w.wrapName(id), expr, !borrowed)
	if borrowed && w.m.Self == ir.SelfBorrowed {
		out += ".AnchorTo(self)"
	}

	return out
}

func (w *methodWriter) outReturn(out string, t abi.NativeType) error {
	ret := *w.m.Return

	switch t.Kind {
	case abi.NativeBlock, abi.NativeBuffer, abi.NativePresence:
		v := w.fresh("v")
		if err := w.valueToGo(v, out, ret, t); err != nil {
			return err
		}

		w.line(&w.ret, "return %s", v)

		return nil

	case abi.NativeResult:
		errHost, err := w.b.d.HostType(w.u.Reg, w.u.Def.ID, *ret.Err)
		if err != nil {
			return errf(diagnostic.CodeEmit, "error payload: %v", err)
		}

		w.line(&w.ret, "if %s.is_ok == 0 {", out)

		e := w.fresh("e")
		if err := w.valueToGo(e, out+".err", *ret.Err, *t.Err); err != nil {
			return err
		}

		callErr := fmt.Sprintf("&CallError[%s]{Payload: %s}", errHost.Type, e)

		if ret.Elem == nil {
			w.line(&w.ret, "return %s", callErr)
			w.line(&w.ret, "}")
			w.line(&w.ret, "return nil")

			return nil
		}

		okHost, err := w.b.d.HostType(w.u.Reg, w.u.Def.ID, *ret.Elem)
		if err != nil {
			return errf(diagnostic.CodeEmit, "success payload: %v", err)
		}

		w.line(&w.ret, "return %s, %s", okHost.Zero, callErr)
		w.line(&w.ret, "}")

		v := w.fresh("v")
		if err := w.valueToGo(v, out+".ok", *ret.Elem, *t.Elem); err != nil {
			return err
		}

		w.line(&w.ret, "return %s, nil", v)

		return nil

	default:
		return errf(diagnostic.CodeEmit, "native kind %s has no out-mode unmarshaling", t.Kind)
	}
}

// valueToGo declares dst and fills it with the Go form of the native value
// at src.
func (w *methodWriter) valueToGo(dst, src string, ref ir.TypeRef, t abi.NativeType) error {
	switch t.Kind {
	case abi.NativeScalar:
		w.line(&w.ret, "%s := %s", dst, w.scalarToGo(t, src))
		return nil

	case abi.NativePointer:
		base := unwrapNullable(ref)

		if base.Kind == ir.RefOpaque {
			w.line(&w.ret, "%s := %s", dst, w.wrapExpr(t.Type, src, base.Borrowed))
			return nil
		}

		host := w.hostTypeName(t.Type)

		if t.Nullable {
			v := w.fresh("v")
			w.line(&w.ret, "var %s *%s", dst, host)
			w.line(&w.ret, "if %s != nil {", src)
			w.line(&w.ret, "var %s %s", v, host)

			if err := w.blockToGo(v, src, t.Type); err != nil {
				return err
			}

			w.line(&w.ret, "%s = &%s", dst, v)
			w.line(&w.ret, "}")

			return nil
		}

		w.line(&w.ret, "var %s %s", dst, host)

		return w.blockToGo(dst, src, t.Type)

	case abi.NativeBlock:
		w.line(&w.ret, "var %s %s", dst, w.hostTypeName(t.Type))
		return w.blockToGo(dst, src, t.Type)

	case abi.NativeBuffer:
		return w.bufferToGo(dst, src, ref, t)

	case abi.NativePresence:
		inner := *ref.Elem
		shape := *t.Elem

		innerHost, err := w.b.d.HostType(w.u.Reg, w.u.Def.ID, inner)
		if err != nil {
			return errf(diagnostic.CodeEmit, "optional payload: %v", err)
		}

		w.line(&w.ret, "var %s *%s", dst, innerHost.Type)
		w.line(&w.ret, "if %s.is_some != 0 {", src)

		v := w.fresh("v")

		switch shape.Kind {
		case abi.NativeBlock:
			w.line(&w.ret, "var %s %s", v, innerHost.Type)

			if err := w.blockToGo(v, src+".value", shape.Type); err != nil {
				return err
			}
		default:
			w.line(&w.ret, "%s := %s", v, w.scalarToGo(shape, src+".value"))
		}

		w.line(&w.ret, "%s = &%s", dst, v)
		w.line(&w.ret, "}")

		return nil

	default:
		return errf(diagnostic.CodeEmit, "native kind %s has no Go form", t.Kind)
	}
}

// bufferToGo copies a native view out into a fresh Go value named dst.
func (w *methodWriter) bufferToGo(dst, src string, ref ir.TypeRef, t abi.NativeType) error {
	base := unwrapNullable(ref)
	nullable := ref.Kind == ir.RefNullable

	addImport(w.imports, "unsafe")

	copyExpr := func() (string, bool) {
		switch base.Encoding {
		case ir.EncodingUTF8:
			return fmt.Sprintf("string(unsafe.Slice((*byte)(unsafe.Pointer(%s.ptr)), int(%s.len)))", src, src), true
		case ir.EncodingUTF16:
			return fmt.Sprintf("append([]uint16(nil), unsafe.Slice((*uint16)(unsafe.Pointer(%s.ptr)), int(%s.len))...)", src, src), true
		case ir.EncodingPrimitive:
			if base.Prim == ir.PrimBool {
				return "", false
			}

			elem := goPrim(base.Prim)

			return fmt.Sprintf("append([]%s(nil), unsafe.Slice((*%s)(unsafe.Pointer(%s.ptr)), int(%s.len))...)", elem, elem, src, src), true
		default:
			return "", false
		}
	}

	emitBody := func(assign string) error {
		if expr, ok := copyExpr(); ok {
			w.line(&w.ret, "%s %s", assign, expr)
			return nil
		}

		switch {
		case base.Encoding == ir.EncodingStrings:
			views := w.fresh("views")
			w.line(&w.ret, "%s := unsafe.Slice(%s.ptr, int(%s.len))", views, src, src)

			tmp := w.fresh("v")
			w.line(&w.ret, "%s := make([]string, len(%s))", tmp, views)
			w.line(&w.ret, "for i := range %s {", views)
			w.line(&w.ret, "%s[i] = string(unsafe.Slice((*byte)(unsafe.Pointer(%s[i].ptr)), int(%s[i].len)))", tmp, views, views)
			w.line(&w.ret, "}")
			w.line(&w.ret, "%s %s", assign, tmp)

			return nil
		case base.Encoding == ir.EncodingPrimitive && base.Prim == ir.PrimBool:
			raw := w.fresh("raw")
			w.line(&w.ret, "%s := unsafe.Slice((*uint8)(unsafe.Pointer(%s.ptr)), int(%s.len))", raw, src, src)

			tmp := w.fresh("v")
			w.line(&w.ret, "%s := make([]bool, len(%s))", tmp, raw)
			w.line(&w.ret, "for i := range %s {", raw)
			w.line(&w.ret, "%s[i] = %s[i] != 0", tmp, raw)
			w.line(&w.ret, "}")
			w.line(&w.ret, "%s %s", assign, tmp)

			return nil
		default:
			return errf(diagnostic.CodeEmit, "slice without an encoding has no Go form")
		}
	}

	if !nullable {
		return emitBody(dst + " :=")
	}

	host, err := w.b.d.HostType(w.u.Reg, w.u.Def.ID, ref)
	if err != nil {
		return errf(diagnostic.CodeEmit, "optional slice: %v", err)
	}

	w.line(&w.ret, "var %s %s", dst, host.Type)
	w.line(&w.ret, "if %s.ptr != nil {", src)

	if base.Encoding == ir.EncodingUTF8 {
		tmp := w.fresh("v")
		if err := emitBody(tmp + " :="); err != nil {
			return err
		}

		w.line(&w.ret, "%s = &%s", dst, tmp)
	} else {
		if err := emitBody(dst + " ="); err != nil {
			return err
		}
	}

	w.line(&w.ret, "}")

	return nil
}

// blockToGo fills the declared Go struct dst field by field from the native
// block at src.
func (w *methodWriter) blockToGo(dst, src string, id ir.TypeID) error {
	def, err := w.u.Reg.Resolve(id)
	if err != nil {
		return errf(diagnostic.CodeEmit, "%v", err)
	}

	for _, f := range def.Fields {
		goField := dst + "." + naming.PascalCase(f.Name)
		cField := src + "." + f.Name

		switch f.Type.Kind {
		case ir.RefStruct:
			if err := w.blockToGo(goField, cField, f.Type.Target); err != nil {
				return err
			}
		case ir.RefNullable:
			inner := *f.Type.Elem

			w.line(&w.ret, "if %s.is_some != 0 {", cField)

			v := w.fresh("v")

			if inner.Kind == ir.RefStruct {
				w.line(&w.ret, "var %s %s", v, w.hostTypeName(inner.Target))

				if err := w.blockToGo(v, cField+".value", inner.Target); err != nil {
					return err
				}
			} else {
				shape, serr := abi.NativeTypeOf(w.u.Reg, inner, abi.PosField)
				if serr != nil {
					return serr
				}

				w.line(&w.ret, "%s := %s", v, w.scalarToGo(shape, cField+".value"))
			}

			w.line(&w.ret, "%s = &%s", goField, v)
			w.line(&w.ret, "}")
		default:
			shape, serr := abi.NativeTypeOf(w.u.Reg, f.Type, abi.PosField)
			if serr != nil {
				return serr
			}

			w.line(&w.ret, "%s = %s", goField, w.scalarToGo(shape, cField))
		}
	}

	return nil
}

func (w *methodWriter) writeMethodDoc(sb *strings.Builder) {
	writeDoc(sb, w.m.Docs, fmt.Sprintf("%s calls the native %s.", w.hostName, w.mabi.Sig.Symbol))

	var notes []string

	if contract := w.contract(); contract != nil {
		for pi, tr := range contract.Params {
			if tr == ownership.TransferOwn {
				notes = append(notes, fmt.Sprintf("Ownership of %s transfers to the native side; its wrapper is emptied.", w.params[pi]))
			}
		}

		switch contract.Return {
		case ownership.ReturnOwned:
			notes = append(notes, "The caller owns the returned handle; release it with Close.")
		case ownership.ReturnView:
			if handleView(w.m.Return) {
				notes = append(notes, "The returned handle borrows from the receiver and must not outlive it.")
			} else {
				notes = append(notes, "The result is copied out of a native view during the call.")
			}
		}
	}

	for _, n := range notes {
		sb.WriteString("//\n// ")
		sb.WriteString(n)
		sb.WriteString("\n")
	}
}

func (w *methodWriter) contract() *ownership.MethodContract {
	if w.u.Own == nil {
		return nil
	}

	for i := range w.u.Own.Methods {
		if w.u.Own.Methods[i].Name == w.m.Name {
			return &w.u.Own.Methods[i]
		}
	}

	return nil
}

func unwrapNullable(ref ir.TypeRef) ir.TypeRef {
	if ref.Kind == ir.RefNullable && ref.Elem != nil {
		return *ref.Elem
	}

	return ref
}

// handleView reports whether the return carries a borrowed handle (rather
// than view data that is copied out).
func handleView(ref *ir.TypeRef) bool {
	if ref == nil {
		return false
	}

	switch ref.Kind {
	case ir.RefOpaque:
		return ref.Borrowed
	case ir.RefNullable, ir.RefFallible:
		return handleView(ref.Elem) || handleView(ref.Err)
	default:
		return false
	}
}
