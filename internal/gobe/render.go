package gobe

import (
	"bytes"
	"fmt"
	"go/format"
	"path"
	"sort"
	"strings"
	"text/template"

	"ffigen/internal/abi"
	"ffigen/internal/backend"
	"ffigen/internal/diagnostic"
	"ffigen/internal/ir"
	"ffigen/internal/naming"
	"ffigen/internal/typemap"
)

// Config holds configuration for the Go backend.
type Config struct {
	// ImportBase is the module prefix generated packages import each other
	// under: library geo becomes "<ImportBase>/geo".
	ImportBase string
	// CFlags and LDFlags are forwarded into the per-library support unit as
	// #cgo directives, e.g. LDFlags "-ldecimal" links the native library.
	CFlags  string
	LDFlags string
}

// Backend renders one cgo unit per type.
type Backend struct {
	cfg Config
	d   Dialect
}

// New creates a Go backend with the given configuration.
func New(cfg Config) *Backend {
	return &Backend{cfg: cfg}
}

// Name returns the backend name.
func (b *Backend) Name() string { return "go" }

// Dialect returns the Go host-type speller.
func (b *Backend) Dialect() typemap.Dialect { return b.d }

// FileName returns the host unit path for one type.
func (b *Backend) FileName(def *ir.TypeDef) string {
	return path.Join(def.ID.Library, def.ID.Name+".go")
}

// Render produces the cgo unit for one type. On a formatting failure the
// unformatted content is returned alongside the error to aid debugging.
func (b *Backend) Render(u *backend.TypeUnit) (backend.File, error) {
	data := &unitData{
		Package:  u.Def.ID.Library,
		Filename: b.FileName(u.Def),
	}

	imports := make(map[string]importSpec)

	var err error

	switch u.Def.Kind {
	case ir.TypeKindPrimitive:
		err = b.aliasDecls(u, data)
	case ir.TypeKindEnum:
		err = b.enumDecls(u, data, imports)
	case ir.TypeKindStruct:
		err = b.structDecls(u, data, imports)
	case ir.TypeKindOpaque:
		err = b.opaqueDecls(u, data, imports)
	default:
		err = errf(diagnostic.CodeEmit, "no Go rendering for %s type %s", u.Def.Kind, u.Def.ID)
	}

	if err != nil {
		return backend.File{}, err
	}

	b.collectImports(u, imports)

	for _, imp := range imports {
		data.Imports = append(data.Imports, imp)
	}

	sort.Slice(data.Imports, func(i, j int) bool {
		return data.Imports[i].Path < data.Imports[j].Path
	})

	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, data); err != nil {
		return backend.File{}, errf(diagnostic.CodeEmit, "executing unit template: %v", err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return backend.File{Path: data.Filename, Content: buf.Bytes()},
			errf(diagnostic.CodeEmit, "formatting %s: %v (unformatted content returned)", data.Filename, err)
	}

	return backend.File{Path: data.Filename, Content: formatted}, nil
}

// Support emits one support unit per library: the shared marshaling helpers
// and the typed call error every unit of that package relies on.
func (b *Backend) Support(libs []string) ([]backend.File, error) {
	files := make([]backend.File, 0, len(libs))

	for _, lib := range libs {
		data := &supportData{
			Package: lib,
			CFlags:  b.cfg.CFlags,
			LDFlags: b.cfg.LDFlags,
		}

		var buf bytes.Buffer
		if err := supportTemplate.Execute(&buf, data); err != nil {
			return nil, errf(diagnostic.CodeEmit, "executing support template for %s: %v", lib, err)
		}

		formatted, err := format.Source(buf.Bytes())
		if err != nil {
			return nil, errf(diagnostic.CodeEmit, "formatting support unit for %s: %v", lib, err)
		}

		files = append(files, backend.File{
			Path:    path.Join(lib, "ffigen_support.go"),
			Content: formatted,
		})
	}

	return files, nil
}

func errf(code diagnostic.Code, format string, args ...any) error {
	return &abi.Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// unitData holds everything the unit template needs. Decls are pre-rendered
// declaration blocks in emission order.
type unitData struct {
	Filename string
	Package  string
	Includes []string
	Imports  []importSpec
	Decls    []string
}

type importSpec struct {
	Alias string
	Path  string
}

var unitTemplate = template.Must(template.New("unit").Parse(`// Code generated by ffigen. DO NOT EDIT.

package {{.Package}}

{{if .Includes}}/*
{{range .Includes}}#include "{{.}}"
{{end}}*/
import "C"

{{end}}{{if .Imports}}import (
{{range .Imports}}	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{end}})

{{end}}{{range .Decls}}{{.}}

{{end}}`))

// aliasDecls renders a named primitive as a Go type alias, so values stay
// assignable with the underlying primitive on both sides.
func (b *Backend) aliasDecls(u *backend.TypeUnit, data *unitData) error {
	def := u.Def

	var sb strings.Builder

	writeDoc(&sb, def.Docs, fmt.Sprintf("%s is an alias of the native %s scalar.", def.ID.Name, abi.CTypeName(def.ID)))
	fmt.Fprintf(&sb, "type %s = %s", def.ID.Name, goPrim(def.Prim))

	data.Decls = append(data.Decls, sb.String())

	return nil
}

// enumDecls renders the enum type, its value constants and the String and
// IsValid helpers.
func (b *Backend) enumDecls(u *backend.TypeUnit, data *unitData, imports map[string]importSpec) error {
	def := u.Def
	name := def.ID.Name

	hostNames := make([]string, len(def.Variants))
	seen := make(map[string]string, len(def.Variants))

	for i, v := range def.Variants {
		hn := name + naming.PascalCase(v.Name)
		if prev, dup := seen[hn]; dup {
			return errf(diagnostic.CodeNamingConflict,
				"enum values %q and %q both surface as %s", prev, v.Name, hn)
		}

		seen[hn] = v.Name
		hostNames[i] = hn
	}

	var sb strings.Builder

	writeDoc(&sb, def.Docs, fmt.Sprintf("%s matches the native %s values.", name, abi.CTypeName(def.ID)))
	fmt.Fprintf(&sb, "type %s int32\n\n", name)
	fmt.Fprintf(&sb, "// %s values.\nconst (\n", name)

	for i, v := range def.Variants {
		if v.Docs != "" {
			writeDoc(&sb, v.Docs, "")
		}

		fmt.Fprintf(&sb, "%s %s = %d\n", hostNames[i], name, v.Ordinal)
	}

	sb.WriteString(")")
	data.Decls = append(data.Decls, sb.String())

	sb.Reset()
	fmt.Fprintf(&sb, "// String returns the declared name of the value.\nfunc (v %s) String() string {\nswitch v {\n", name)

	for i, v := range def.Variants {
		fmt.Fprintf(&sb, "case %s:\nreturn %q\n", hostNames[i], v.Name)
	}

	fmt.Fprintf(&sb, "default:\nreturn fmt.Sprintf(\"%s(%%d)\", int32(v))\n}\n}", name)
	data.Decls = append(data.Decls, sb.String())

	sb.Reset()
	fmt.Fprintf(&sb, "// IsValid reports whether v is a declared value.\nfunc (v %s) IsValid() bool {\nswitch v {\ncase %s:\nreturn true\ndefault:\nreturn false\n}\n}",
		name, strings.Join(hostNames, ", "))
	data.Decls = append(data.Decls, sb.String())

	addImport(imports, "fmt")

	return nil
}

// structDecls renders the mirrored Go struct and its methods.
func (b *Backend) structDecls(u *backend.TypeUnit, data *unitData, imports map[string]importSpec) error {
	def := u.Def
	name := def.ID.Name

	reserved := make(map[string]string, len(def.Fields))

	var sb strings.Builder

	writeDoc(&sb, def.Docs, fmt.Sprintf("%s mirrors the native %s block.", name, abi.CTypeName(def.ID)))
	fmt.Fprintf(&sb, "type %s struct {\n", name)

	for i, f := range def.Fields {
		hn := naming.PascalCase(f.Name)
		if prev, dup := reserved[hn]; dup {
			return errf(diagnostic.CodeNamingConflict,
				"field %q surfaces as %s, which collides with %s", f.Name, hn, prev)
		}

		reserved[hn] = fmt.Sprintf("field %q", f.Name)

		if f.Docs != "" {
			writeDoc(&sb, f.Docs, "")
		}

		fmt.Fprintf(&sb, "%s %s\n", hn, u.FieldMaps[i].Host.Type)
	}

	sb.WriteString("}")
	data.Decls = append(data.Decls, sb.String())

	if len(u.Methods) > 0 {
		data.Includes = []string{name + ".ffi.h"}
	}

	return b.methodDecls(u, data, imports, reserved)
}

// opaqueDecls renders the handle wrapper, its lifetime API and its methods.
func (b *Backend) opaqueDecls(u *backend.TypeUnit, data *unitData, imports map[string]importSpec) error {
	def := u.Def
	name := def.ID.Name
	cname := abi.CTypeName(def.ID)

	data.Includes = []string{name + ".ffi.h"}
	addImport(imports, "runtime")
	addImport(imports, "unsafe")

	var sb strings.Builder

	writeDoc(&sb, def.Docs, fmt.Sprintf("%s is a handle to a native %s.", name, cname))
	fmt.Fprintf(&sb, `type %[1]s struct {
	ptr    unsafe.Pointer
	owned  bool
	anchor any
}`, name)
	data.Decls = append(data.Decls, sb.String())

	data.Decls = append(data.Decls, fmt.Sprintf(`// Wrap%[1]s adopts a raw native pointer. When owned is true the wrapper
// destroys the native object on Close, with a finalizer as backstop.
func Wrap%[1]s(ptr unsafe.Pointer, owned bool) *%[1]s {
	if ptr == nil {
		return nil
	}
	h := &%[1]s{ptr: ptr, owned: owned}
	if owned {
		runtime.SetFinalizer(h, (*%[1]s).Close)
	}
	return h
}`, name))

	data.Decls = append(data.Decls, fmt.Sprintf(`// Handle returns the raw native pointer, nil for a nil wrapper. The pointer
// stays valid only while the wrapper is reachable.
func (self *%[1]s) Handle() unsafe.Pointer {
	if self == nil {
		return nil
	}
	return self.ptr
}`, name))

	data.Decls = append(data.Decls, fmt.Sprintf(`// Release detaches and returns the native pointer. The caller assumes
// ownership; the wrapper is emptied and its finalizer cleared.
func (self *%[1]s) Release() unsafe.Pointer {
	if self == nil {
		return nil
	}
	ptr := self.ptr
	self.ptr = nil
	self.owned = false
	self.anchor = nil
	runtime.SetFinalizer(self, nil)
	return ptr
}`, name))

	data.Decls = append(data.Decls, fmt.Sprintf(`// AnchorTo keeps owner reachable for as long as this wrapper is. Borrowed
// handles are anchored to the object they were borrowed from.
func (self *%[1]s) AnchorTo(owner any) *%[1]s {
	if self != nil {
		self.anchor = owner
	}
	return self
}`, name))

	data.Decls = append(data.Decls, fmt.Sprintf(`// Close destroys the native object for owned wrappers and empties the
// wrapper either way. It is safe to call more than once.
func (self *%[1]s) Close() error {
	if self == nil || self.ptr == nil {
		return nil
	}
	if self.owned {
		C.%[2]s((*C.%[3]s)(self.ptr))
		runtime.SetFinalizer(self, nil)
	}
	self.ptr = nil
	self.owned = false
	self.anchor = nil
	return nil
}`, name, abi.DestroySymbol(def.ID), cname))

	reserved := map[string]string{
		"Close":    "the generated Close",
		"Handle":   "the generated Handle",
		"Release":  "the generated Release",
		"AnchorTo": "the generated AnchorTo",
	}

	return b.methodDecls(u, data, imports, reserved)
}

// methodDecls renders every enabled method. reserved maps host identifiers
// already taken on this type to a description of their owner.
func (b *Backend) methodDecls(u *backend.TypeUnit, data *unitData, imports map[string]importSpec, reserved map[string]string) error {
	for i := range u.Methods {
		m := &u.Methods[i]
		mabi := &u.ABI.Methods[i]

		hostName := hostMethodName(u.Def.ID.Name, m)
		if prev, dup := reserved[hostName]; dup {
			return errf(diagnostic.CodeNamingConflict,
				"method %q surfaces as %s, which collides with %s", m.Name, hostName, prev)
		}

		reserved[hostName] = fmt.Sprintf("method %q", m.Name)

		w := newMethodWriter(b, u, m, mabi, &u.Sigs[i], hostName, imports)

		decl, err := w.render()
		if err != nil {
			return err
		}

		data.Decls = append(data.Decls, decl)
	}

	return nil
}

// hostMethodName is the Go spelling of one method: methods keep their own
// name, statics are package functions prefixed with the type name.
func hostMethodName(typeName string, m *ir.MethodDef) string {
	if m.Self == ir.SelfNone {
		return typeName + naming.PascalCase(m.Name)
	}

	return naming.PascalCase(m.Name)
}

// collectImports registers the cross-library packages every rendered
// reference relies on.
func (b *Backend) collectImports(u *backend.TypeUnit, imports map[string]importSpec) {
	var ids []ir.TypeID

	for _, f := range u.Def.Fields {
		ids = f.Type.ReferencedIDs(ids)
	}

	for i := range u.Methods {
		ids = append(ids, u.Methods[i].ReferencedIDs()...)
	}

	for _, id := range ids {
		if id.Library == u.Def.ID.Library {
			continue
		}

		addImport(imports, b.cfg.ImportBase+"/"+id.Library)
	}
}

func addImport(imports map[string]importSpec, path string) {
	imports[path] = importSpec{Path: path}
}

// writeDoc renders docs as comment lines, falling back to a generated
// one-liner when the IR carries none.
func writeDoc(sb *strings.Builder, docs, fallback string) {
	text := docs
	if text == "" {
		text = fallback
	}

	if text == "" {
		return
	}

	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		sb.WriteString("// ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

// supportData parameterizes the per-library support unit.
type supportData struct {
	Package string
	CFlags  string
	LDFlags string
}

var supportTemplate = template.Must(template.New("support").Parse(`// Code generated by ffigen. DO NOT EDIT.

package {{.Package}}

/*
{{if .CFlags}}#cgo CFLAGS: {{.CFlags}}
{{end}}{{if .LDFlags}}#cgo LDFLAGS: {{.LDFlags}}
{{end}}#include <stdlib.h>
#include <string.h>
#include "ffigen.ffi.h"
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// CallError carries the typed error payload of a failed native call.
type CallError[E any] struct {
	Payload E
}

func (e *CallError[E]) Error() string {
	return fmt.Sprintf("native call failed: %v", e.Payload)
}

// ffigenBool is the wire form of a bool.
func ffigenBool(b bool) C.uint8_t {
	if b {
		return 1
	}
	return 0
}

// ffigenData returns the data pointer of a slice, nil when empty.
func ffigenData[T any](s []T) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Pointer(&s[0])
}

// ffigenStrData returns the byte pointer of a string, nil when empty.
func ffigenStrData(s string) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.StringData(s))
}

var ffigenEmptyByte C.uint8_t

// ffigenEmpty is a stable non-null pointer marking a present empty buffer,
// distinguishing it from an absent optional one.
func ffigenEmpty() unsafe.Pointer {
	return unsafe.Pointer(&ffigenEmptyByte)
}

// ffigenStrs builds a C-owned array of string views for the duration of a
// call. Release it with ffigenStrsFree.
func ffigenStrs(ss []string) (*C.ffigen_str, C.size_t) {
	if ss == nil {
		return nil, 0
	}
	n := len(ss)
	if n == 0 {
		return (*C.ffigen_str)(C.malloc(1)), 0
	}
	arr := (*C.ffigen_str)(C.malloc(C.size_t(n) * C.sizeof_ffigen_str))
	views := unsafe.Slice(arr, n)
	for i, s := range ss {
		p := C.malloc(C.size_t(len(s) + 1))
		if len(s) > 0 {
			C.memcpy(p, unsafe.Pointer(unsafe.StringData(s)), C.size_t(len(s)))
		}
		views[i] = C.ffigen_str{ptr: (*C.uint8_t)(p), len: C.size_t(len(s))}
	}
	return arr, C.size_t(n)
}

// ffigenStrsFree releases an array built by ffigenStrs.
func ffigenStrsFree(arr *C.ffigen_str, n C.size_t) {
	if arr == nil {
		return
	}
	views := unsafe.Slice(arr, int(n))
	for i := range views {
		C.free(unsafe.Pointer(views[i].ptr))
	}
	C.free(unsafe.Pointer(arr))
}

// ffigenSinkBytes copies out and releases a native-filled sink.
func ffigenSinkBytes(s *C.ffigen_sink) []byte {
	if s.data == nil {
		return nil
	}
	out := append([]byte(nil), unsafe.Slice((*byte)(unsafe.Pointer(s.data)), int(s.len))...)
	C.ffigen_sink_free(s)
	return out
}
`))
