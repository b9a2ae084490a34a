package cglue

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"ffigen/internal/abi"
	"ffigen/internal/backend"
	"ffigen/internal/diagnostic"
	"ffigen/internal/ir"
	"ffigen/internal/ownership"
	"ffigen/internal/registry"
)

// HeaderPath is where the glue header of one type lives, relative to the
// output root. Host units of the same library include it by bare name.
func HeaderPath(id ir.TypeID) string {
	return path.Join(id.Library, id.Name+".ffi.h")
}

// Header renders the glue header of one lowered type. methods must be the
// attribute-enabled methods, aligned one to one with tabi.Methods.
func Header(reg *registry.Registry, def *ir.TypeDef, methods []ir.MethodDef, tabi *abi.TypeABI, own *ownership.Plan) (backend.File, error) {
	var sb strings.Builder

	guard := guardMacro(def.ID)

	fmt.Fprintf(&sb, "// Code generated by ffigen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&sb, "#ifndef %s\n#define %s\n\n", guard, guard)
	sb.WriteString("#include \"ffigen.ffi.h\"\n")

	for _, dep := range dependencyIDs(def, methods) {
		sb.WriteString("#include " + includeSpec(def.ID, dep) + "\n")
	}

	sb.WriteString("\n")

	if err := writeTypeDecl(&sb, reg, def); err != nil {
		return backend.File{}, err
	}

	for i := range tabi.Methods {
		writeMethod(&sb, &methods[i], &tabi.Methods[i], own)
	}

	if tabi.Destructor != "" {
		fmt.Fprintf(&sb, "// Releases the %s behind self. Call exactly once per owned\n", abi.CTypeName(def.ID))
		fmt.Fprintf(&sb, "// handle; self is dead afterwards. NULL is ignored.\n")
		fmt.Fprintf(&sb, "void %s(%s *self);\n\n", tabi.Destructor, abi.CTypeName(def.ID))
	}

	fmt.Fprintf(&sb, "#endif // %s\n", guard)

	return backend.File{Path: HeaderPath(def.ID), Content: []byte(sb.String())}, nil
}

func guardMacro(id ir.TypeID) string {
	return "FFIGEN_" + strings.ToUpper(id.Library) + "_" + strings.ToUpper(id.Name) + "_FFI_H"
}

// includeSpec spells the include of a dependency's glue header relative to
// the including library's directory.
func includeSpec(from, dep ir.TypeID) string {
	if dep.Library == from.Library {
		return fmt.Sprintf("%q", dep.Name+".ffi.h")
	}

	return fmt.Sprintf("%q", "../"+dep.Library+"/"+dep.Name+".ffi.h")
}

// dependencyIDs lists every foreign TypeID the header must see declared,
// sorted, self excluded.
func dependencyIDs(def *ir.TypeDef, methods []ir.MethodDef) []ir.TypeID {
	var ids []ir.TypeID

	for _, f := range def.Fields {
		ids = f.Type.ReferencedIDs(ids)
	}

	for i := range methods {
		ids = append(ids, methods[i].ReferencedIDs()...)
	}

	seen := map[ir.TypeID]struct{}{def.ID: {}}
	out := ids[:0]

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })

	return out
}

func writeTypeDecl(sb *strings.Builder, reg *registry.Registry, def *ir.TypeDef) error {
	cname := abi.CTypeName(def.ID)

	switch def.Kind {
	case ir.TypeKindOpaque:
		fmt.Fprintf(sb, "typedef struct %s %s;\n\n", cname, cname)

	case ir.TypeKindStruct:
		block, err := abi.NativeTypeOf(reg, ir.Struct(def.ID, false), abi.PosParam)
		if err != nil {
			return err
		}

		fmt.Fprintf(sb, "typedef struct {\n")

		for _, f := range block.Fields {
			fmt.Fprintf(sb, "    %s;\n", abi.CMember(f.Type, f.Name))
		}

		fmt.Fprintf(sb, "} %s;\n\n", cname)

	case ir.TypeKindEnum:
		fmt.Fprintf(sb, "typedef int32_t %s;\n", cname)
		fmt.Fprintf(sb, "enum {\n")

		for _, v := range def.Variants {
			fmt.Fprintf(sb, "    %s = %d,\n", abi.CEnumConst(def.ID, v.Name), v.Ordinal)
		}

		fmt.Fprintf(sb, "};\n\n")

	case ir.TypeKindPrimitive:
		fmt.Fprintf(sb, "typedef %s %s;\n\n", abi.CPrim(def.Prim), cname)

	default:
		return &abi.Error{
			Code: diagnostic.CodeEmit,
			Msg:  fmt.Sprintf("no glue declaration for %s type %s", def.Kind, def.ID),
		}
	}

	return nil
}

func writeMethod(sb *strings.Builder, m *ir.MethodDef, mabi *abi.MethodABI, own *ownership.Plan) {
	sym := mabi.Sig.Symbol

	// Anonymous composite shapes need named typedefs before they can appear
	// in the prototype.
	for _, s := range mabi.Sig.Slots {
		switch s.Role {
		case abi.RoleValue:
			if abi.NeedsTypedef(s.Type) {
				fmt.Fprintf(sb, "%s\n", abi.CTypedef(s.Type, abi.CTypedefName(sym, s.Name)))
			}
		case abi.RoleOut:
			if abi.NeedsTypedef(s.Type) {
				fmt.Fprintf(sb, "%s\n", abi.CTypedef(s.Type, abi.CReturnTypedefName(sym)))
			}
		}
	}

	for _, line := range methodNotes(m, own) {
		fmt.Fprintf(sb, "// %s\n", line)
	}

	params := make([]string, 0, len(mabi.Sig.Slots))

	for _, s := range mabi.Sig.Slots {
		anon := abi.CTypedefName(sym, s.Name)
		if s.Role == abi.RoleOut {
			anon = abi.CReturnTypedefName(sym)
		}

		params = append(params, abi.CParam(s, anon))
	}

	if len(params) == 0 {
		params = append(params, "void")
	}

	ret := abi.CReturnType(mabi.Sig.Return)
	if !strings.HasSuffix(ret, "*") {
		ret += " "
	}

	fmt.Fprintf(sb, "%s%s(%s);\n\n", ret, sym, strings.Join(params, ", "))
}

// methodNotes renders the ownership contract of one method as comment lines.
func methodNotes(m *ir.MethodDef, own *ownership.Plan) []string {
	var notes []string

	if own == nil {
		return notes
	}

	var contract *ownership.MethodContract

	for i := range own.Methods {
		if own.Methods[i].Name == m.Name {
			contract = &own.Methods[i]
			break
		}
	}

	if contract == nil {
		return notes
	}

	for pi, tr := range contract.Params {
		switch tr {
		case ownership.TransferOwn:
			notes = append(notes, fmt.Sprintf("Takes ownership of %s; the caller must not use or destroy it afterwards.", m.Params[pi].Name))
		case ownership.TransferBorrow:
			if m.Params[pi].Type.Kind == ir.RefOpaque || (m.Params[pi].Type.Kind == ir.RefNullable && m.Params[pi].Type.Elem.Kind == ir.RefOpaque) {
				notes = append(notes, fmt.Sprintf("Borrows %s for the duration of the call only.", m.Params[pi].Name))
			}
		}
	}

	switch contract.Return {
	case ownership.ReturnOwned:
		notes = append(notes, fmt.Sprintf("The caller owns the result; release it with %s.", ownedDestructor(m.Return)))
	case ownership.ReturnView:
		notes = append(notes, "The result borrows from self and must not outlive it.")
	}

	return notes
}

// ownedDestructor names the destructor of the owned handle a return carries,
// walking through nullable and fallible wrappers.
func ownedDestructor(ref *ir.TypeRef) string {
	if ref == nil {
		return ""
	}

	switch ref.Kind {
	case ir.RefOpaque:
		return abi.DestroySymbol(ref.Target)
	case ir.RefNullable, ir.RefFallible:
		if s := ownedDestructor(ref.Elem); s != "" {
			return s
		}

		return ownedDestructor(ref.Err)
	default:
		return ""
	}
}
