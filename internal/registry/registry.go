package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ffigen/internal/ir"
)

// ErrUnknownTypeID is returned by Resolve for a TypeID absent from the
// registry.
var ErrUnknownTypeID = errors.New("unknown type id")

// BuildError aggregates every structural problem found while building a
// Registry. It is the lowering failure: when Build returns one, generation
// must not start.
type BuildError struct {
	Problems []string
}

// Error lists all problems, one per line.
func (e *BuildError) Error() string {
	return fmt.Sprintf("registry build failed with %d problem(s):\n  %s",
		len(e.Problems), strings.Join(e.Problems, "\n  "))
}

// Entry pairs a TypeID with its definition for traversal.
type Entry struct {
	ID  ir.TypeID
	Def *ir.TypeDef
}

// Registry is the immutable set of all IR type definitions for one run.
type Registry struct {
	types map[ir.TypeID]*ir.TypeDef
	order []ir.TypeID
}

// Build validates the definitions and freezes them into a Registry.
// The input slice is copied; callers keep ownership of defs.
func Build(defs []ir.TypeDef) (*Registry, error) {
	r := &Registry{
		types: make(map[ir.TypeID]*ir.TypeDef, len(defs)),
	}

	var problems []string

	addProblem := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	for i := range defs {
		def := defs[i]

		if def.ID.IsZero() {
			addProblem("definition %d has an empty TypeID", i)
			continue
		}

		if _, dup := r.types[def.ID]; dup {
			addProblem("duplicate TypeID %q", def.ID)
			continue
		}

		copied := def
		r.types[def.ID] = &copied
		r.order = append(r.order, def.ID)
	}

	sort.Slice(r.order, func(i, j int) bool { return r.order[i].Less(r.order[j]) })

	for _, id := range r.order {
		r.validateDef(id, r.types[id], addProblem)
	}

	r.checkValueCycles(addProblem)

	if len(problems) > 0 {
		return nil, &BuildError{Problems: problems}
	}

	return r, nil
}

// checkValueCycles rejects struct definitions that embed themselves by value
// (directly or through other structs). Such a type has no finite layout.
// Edges follow by-value struct fields, including through nullable wrappers;
// by-reference fields break the cycle.
func (r *Registry) checkValueCycles(addProblem func(string, ...any)) {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	colors := make(map[ir.TypeID]int, len(r.order))

	var visit func(id ir.TypeID) bool

	visit = func(id ir.TypeID) bool {
		switch colors[id] {
		case gray:
			return true
		case black:
			return false
		}

		colors[id] = gray

		def := r.types[id]
		for _, f := range def.Fields {
			for _, dep := range valueStructDeps(f.Type, nil) {
				if _, ok := r.types[dep]; !ok {
					continue
				}

				if visit(dep) {
					addProblem("%s: field %q closes a by-value struct cycle", id, f.Name)
				}
			}
		}

		colors[id] = black

		return false
	}

	for _, id := range r.order {
		if r.types[id].Kind == ir.TypeKindStruct {
			visit(id)
		}
	}
}

// valueStructDeps collects struct TypeIDs that ref embeds by value.
func valueStructDeps(ref ir.TypeRef, deps []ir.TypeID) []ir.TypeID {
	switch ref.Kind {
	case ir.RefStruct:
		if !ref.Borrowed {
			deps = append(deps, ref.Target)
		}
	case ir.RefNullable:
		if ref.Elem != nil {
			deps = valueStructDeps(*ref.Elem, deps)
		}
	}

	return deps
}

// validateDef checks kind-consistency of one definition and that every
// reference it makes resolves to a definition of the matching kind.
func (r *Registry) validateDef(id ir.TypeID, def *ir.TypeDef, addProblem func(string, ...any)) {
	switch def.Kind {
	case ir.TypeKindOpaque:
		if len(def.Fields) > 0 || len(def.Variants) > 0 {
			addProblem("%s: opaque types declare neither fields nor variants", id)
		}
	case ir.TypeKindStruct:
		if len(def.Variants) > 0 {
			addProblem("%s: struct types declare no variants", id)
		}

		if len(def.Fields) == 0 {
			addProblem("%s: struct types need at least one field", id)
		}
	case ir.TypeKindEnum:
		if len(def.Fields) > 0 || len(def.Methods) > 0 {
			addProblem("%s: enum types declare neither fields nor methods", id)
		}

		if len(def.Variants) == 0 {
			addProblem("%s: enum types need at least one variant", id)
		}

		seen := make(map[int32]string, len(def.Variants))
		for _, v := range def.Variants {
			if prev, dup := seen[v.Ordinal]; dup {
				addProblem("%s: variants %q and %q share ordinal %d", id, prev, v.Name, v.Ordinal)
			}

			seen[v.Ordinal] = v.Name
		}
	case ir.TypeKindPrimitive:
		if !def.Prim.IsValid() {
			addProblem("%s: primitive alias without a primitive kind", id)
		}

		if len(def.Methods) > 0 || len(def.Fields) > 0 || len(def.Variants) > 0 {
			addProblem("%s: primitive aliases declare no members", id)
		}
	default:
		addProblem("%s: unknown type kind %d", id, def.Kind)
	}

	for fi := range def.Fields {
		r.validateRef(fmt.Sprintf("%s.%s", id, def.Fields[fi].Name), def.Fields[fi].Type, addProblem)
	}

	for mi := range def.Methods {
		m := &def.Methods[mi]

		switch m.Self {
		case ir.SelfNone:
		case ir.SelfBorrowed:
			if def.Kind != ir.TypeKindOpaque {
				addProblem("%s.%s: borrowed self on a non-opaque owner", id, m.Name)
			}
		case ir.SelfValue:
			if def.Kind != ir.TypeKindStruct {
				addProblem("%s.%s: by-value self on a non-struct owner", id, m.Name)
			}
		default:
			addProblem("%s.%s: unknown self kind %d", id, m.Name, m.Self)
		}

		scope := fmt.Sprintf("%s.%s", id, m.Name)
		for _, p := range m.Params {
			r.validateRef(scope, p.Type, addProblem)
		}

		if m.Return != nil {
			r.validateRef(scope, *m.Return, addProblem)
		}
	}
}

// validateRef checks that a reference resolves and points at the kind of
// definition its variant promises. Enable/disable state is deliberately not
// consulted here: references into disabled types are a generation-time
// concern, not a lowering failure.
func (r *Registry) validateRef(scope string, ref ir.TypeRef, addProblem func(string, ...any)) {
	check := func(target ir.TypeID, want ir.TypeKind) {
		def, ok := r.types[target]
		if !ok {
			addProblem("%s: reference to undefined type %q", scope, target)
			return
		}

		if def.Kind != want {
			addProblem("%s: %q is %s, referenced as %s", scope, target, def.Kind, want)
		}
	}

	switch ref.Kind {
	case ir.RefPrimitive:
		if !ref.Target.IsZero() {
			check(ref.Target, ir.TypeKindPrimitive)
		} else if !ref.Prim.IsValid() {
			addProblem("%s: primitive reference without a primitive kind", scope)
		}
	case ir.RefOpaque:
		check(ref.Target, ir.TypeKindOpaque)
	case ir.RefStruct:
		check(ref.Target, ir.TypeKindStruct)
	case ir.RefEnum:
		check(ref.Target, ir.TypeKindEnum)
	case ir.RefSlice:
		if ref.Encoding == ir.EncodingPrimitive && !ref.Prim.IsValid() {
			addProblem("%s: primitive slice without an element kind", scope)
		}

		if ref.Encoding == ir.EncodingInvalid {
			addProblem("%s: slice without an encoding", scope)
		}
	case ir.RefWriteable:
	case ir.RefNullable:
		if ref.Elem == nil {
			addProblem("%s: nullable without a wrapped type", scope)
			return
		}

		r.validateRef(scope, *ref.Elem, addProblem)
	case ir.RefFallible:
		if ref.Err == nil {
			addProblem("%s: fallible without an error payload", scope)
			return
		}

		if ref.Elem != nil {
			r.validateRef(scope, *ref.Elem, addProblem)
		}

		r.validateRef(scope, *ref.Err, addProblem)
	default:
		addProblem("%s: invalid type reference", scope)
	}
}

// AllTypes returns every definition in deterministic (TypeID) order.
func (r *Registry) AllTypes() []Entry {
	entries := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, Entry{ID: id, Def: r.types[id]})
	}

	return entries
}

// Resolve returns the definition for id, or ErrUnknownTypeID.
func (r *Registry) Resolve(id ir.TypeID) (*ir.TypeDef, error) {
	def, ok := r.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTypeID, id)
	}

	return def, nil
}

// Has reports whether id is defined.
func (r *Registry) Has(id ir.TypeID) bool {
	_, ok := r.types[id]
	return ok
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.order)
}
