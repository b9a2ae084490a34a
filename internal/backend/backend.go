// Package backend defines the contract every host-language backend
// implements. Backends are pure renderers: all validation and lowering has
// happened by the time a TypeUnit reaches them.
package backend

import (
	"ffigen/internal/abi"
	"ffigen/internal/attrs"
	"ffigen/internal/ir"
	"ffigen/internal/ownership"
	"ffigen/internal/registry"
	"ffigen/internal/typemap"
)

// File is one generated artifact, addressed relative to the output root.
type File struct {
	Path    string
	Content []byte
}

// TypeUnit bundles everything needed to render the host unit of one type.
// Methods holds the attribute-enabled methods only; it aligns one to one
// with ABI.Methods and with Sigs.
type TypeUnit struct {
	Def     *ir.TypeDef
	Methods []ir.MethodDef
	ABI     *abi.TypeABI
	Own     *ownership.Plan
	Reg     *registry.Registry
	Target  attrs.Target

	// Sigs holds the host/native pairing of every enabled method's
	// signature; FieldMaps the pairing of the declared fields.
	Sigs      []typemap.Signature
	FieldMaps []typemap.Mapping
}

// Backend is the interface all host-language backends implement.
// Render must be deterministic: the same TypeUnit renders to the same bytes.
type Backend interface {
	// Name returns the backend name (e.g. "go", "c").
	Name() string
	// Dialect spells host types for this backend; the pipeline runs every
	// declared crossing through it before Render sees the unit.
	Dialect() typemap.Dialect
	// FileName returns the host unit path for one type, relative to the
	// output root.
	FileName(def *ir.TypeDef) string
	// Render produces the host unit for one type.
	Render(u *TypeUnit) (File, error)
	// Support produces run-wide files the host units rely on. It receives
	// the sorted list of libraries that produced at least one unit.
	Support(libs []string) ([]File, error)
}
