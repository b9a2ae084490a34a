package irfile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ffigen/internal/ir"
	"ffigen/internal/registry"
)

// SnapshotExt marks msgpack registry snapshots; everything else is parsed
// as an authored YAML document.
const SnapshotExt = ".mpk"

// Load reads IR from the given paths (YAML documents and/or msgpack
// snapshots) and lowers everything into one flat definition list.
func Load(paths ...string) ([]ir.TypeDef, error) {
	var (
		docs []*Document
		defs []ir.TypeDef
	)

	for _, p := range paths {
		if filepath.Ext(p) == SnapshotExt {
			snap, err := LoadSnapshot(p)
			if err != nil {
				return nil, err
			}

			defs = append(defs, snap...)

			continue
		}

		doc, err := LoadFile(p)
		if err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	lowered, err := Lower(docs)
	if err != nil {
		return nil, err
	}

	return append(defs, lowered...), nil
}

// BuildRegistry loads the given paths and freezes the result into a
// Registry. Any failure here is the fatal precondition of a run: generation
// must not proceed on a registry that failed to build.
func BuildRegistry(paths ...string) (*registry.Registry, error) {
	defs, err := Load(paths...)
	if err != nil {
		return nil, fmt.Errorf("loading IR: %w", err)
	}

	reg, err := registry.Build(defs)
	if err != nil {
		return nil, fmt.Errorf("building registry: %w", err)
	}

	return reg, nil
}

// LoadFile loads and parses one YAML IR document.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read IR document %s: %w", path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return doc, nil
}

// Parse parses YAML data into a Document.
func Parse(data []byte) (*Document, error) {
	var doc Document

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse IR YAML: %w", err)
	}

	if doc.Library == "" {
		return nil, fmt.Errorf("document declares no library")
	}

	return &doc, nil
}

// Lower resolves a set of documents into definitions. It is a two-phase
// pass: first every declared name and kind is collected, then references
// are resolved against the full set, so documents may reference each other
// in any order.
func Lower(docs []*Document) ([]ir.TypeDef, error) {
	defs := make(map[ir.TypeID]*ir.TypeDef)

	var order []ir.TypeID

	for _, doc := range docs {
		for i := range doc.Types {
			td := &doc.Types[i]
			id := ir.TypeID{Library: doc.Library, Name: td.Name}

			if td.Name == "" {
				return nil, fmt.Errorf("library %s: type %d declares no name", doc.Library, i)
			}

			if _, dup := defs[id]; dup {
				return nil, fmt.Errorf("duplicate type %q", id)
			}

			def, err := shellDef(id, td)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", id, err)
			}

			defs[id] = def
			order = append(order, id)
		}
	}

	for _, doc := range docs {
		for i := range doc.Types {
			td := &doc.Types[i]
			id := ir.TypeID{Library: doc.Library, Name: td.Name}

			if err := fillDef(defs[id], td, doc.Library, defs); err != nil {
				return nil, fmt.Errorf("%s: %w", id, err)
			}
		}
	}

	out := make([]ir.TypeDef, 0, len(order))
	for _, id := range order {
		out = append(out, *defs[id])
	}

	return out, nil
}

// shellDef lowers everything about a type that needs no reference
// resolution: identity, kind, attributes, enum variants and the alias
// primitive.
func shellDef(id ir.TypeID, td *TypeDoc) (*ir.TypeDef, error) {
	def := &ir.TypeDef{ID: id, Docs: td.Docs}

	switch td.Kind {
	case "opaque":
		def.Kind = ir.TypeKindOpaque
	case "struct":
		def.Kind = ir.TypeKindStruct
	case "enum":
		def.Kind = ir.TypeKindEnum
	case "primitive":
		def.Kind = ir.TypeKindPrimitive

		def.Prim = ir.ParsePrimKind(td.Prim)
		if !def.Prim.IsValid() {
			return nil, fmt.Errorf("primitive alias needs a prim spelling, got %q", td.Prim)
		}
	default:
		return nil, fmt.Errorf("kind must be opaque, struct, enum or primitive, got %q", td.Kind)
	}

	attrs, err := resolveAttrs(td.Attrs)
	if err != nil {
		return nil, err
	}

	def.Attrs = attrs

	next := int32(0)

	for _, v := range td.Variants {
		ordinal := next
		if v.Ordinal != nil {
			ordinal = *v.Ordinal
		}

		next = ordinal + 1

		def.Variants = append(def.Variants, ir.EnumVariant{Name: v.Name, Ordinal: ordinal, Docs: v.Docs})
	}

	return def, nil
}

// fillDef lowers the reference-bearing members of a type: fields and
// methods.
func fillDef(def *ir.TypeDef, td *TypeDoc, lib string, defs map[ir.TypeID]*ir.TypeDef) error {
	for _, f := range td.Fields {
		ref, err := lowerRef(f.Type, lib, defs)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}

		def.Fields = append(def.Fields, ir.FieldDef{Name: f.Name, Type: ref, Docs: f.Docs})
	}

	for _, m := range td.Methods {
		method, err := lowerMethod(&m, lib, defs)
		if err != nil {
			return fmt.Errorf("method %q: %w", m.Name, err)
		}

		def.Methods = append(def.Methods, method)
	}

	return nil
}

func lowerMethod(m *MethodDoc, lib string, defs map[ir.TypeID]*ir.TypeDef) (ir.MethodDef, error) {
	method := ir.MethodDef{Name: m.Name, Docs: m.Docs}

	switch m.Self {
	case "", "static":
		method.Self = ir.SelfNone
	case "borrowed":
		method.Self = ir.SelfBorrowed
	case "value":
		method.Self = ir.SelfValue
	default:
		return ir.MethodDef{}, fmt.Errorf("self must be static, borrowed or value, got %q", m.Self)
	}

	attrs, err := resolveAttrs(m.Attrs)
	if err != nil {
		return ir.MethodDef{}, err
	}

	method.Attrs = attrs

	for _, p := range m.Params {
		ref, err := lowerRef(p.Type, lib, defs)
		if err != nil {
			return ir.MethodDef{}, fmt.Errorf("param %q: %w", p.Name, err)
		}

		method.Params = append(method.Params, ir.ParamDef{Name: p.Name, Type: ref})
	}

	if m.Returns != "" {
		ref, err := lowerRef(m.Returns, lib, defs)
		if err != nil {
			return ir.MethodDef{}, fmt.Errorf("return: %w", err)
		}

		method.Return = &ref
	}

	return method, nil
}

func lowerRef(expr, lib string, defs map[ir.TypeID]*ir.TypeDef) (ir.TypeRef, error) {
	raw, err := parseRef(expr)
	if err != nil {
		return ir.TypeRef{}, err
	}

	return resolve(raw, lib, defs)
}
