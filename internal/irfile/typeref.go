package irfile

import (
	"fmt"
	"strings"

	"ffigen/internal/ir"
)

// rawKind tags a parsed-but-unresolved reference. Named references cannot
// pick their TypeRef variant until every document is loaded, because the
// variant depends on what kind of type the name declares.
type rawKind int

const (
	rawPrim rawKind = iota
	rawNamed
	rawSlice
	rawWriteable
	rawNullable
	rawFallible
)

// rawRef is the parse tree of one type expression.
type rawRef struct {
	kind     rawKind
	borrowed bool
	name     string // qualified or bare named reference
	prim     ir.PrimKind
	enc      ir.SliceEncoding
	elem     *rawRef // nullable payload, fallible success (nil for unit)
	err      *rawRef // fallible error
}

// parseRef parses one type expression, e.g. "i32", "&geo.Point",
// "slice<utf8>", "nullable<decimal.Decoder>", "fallible<unit, io.Error>".
func parseRef(s string) (*rawRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty type expression")
	}

	if rest, ok := strings.CutPrefix(s, "&"); ok {
		inner, err := parseRef(rest)
		if err != nil {
			return nil, err
		}

		if inner.kind != rawNamed {
			return nil, fmt.Errorf("%q: only named types can be borrowed", s)
		}

		inner.borrowed = true

		return inner, nil
	}

	head, args, err := splitGeneric(s)
	if err != nil {
		return nil, err
	}

	if args == nil {
		switch {
		case head == "writeable":
			return &rawRef{kind: rawWriteable}, nil
		case ir.ParsePrimKind(head).IsValid():
			return &rawRef{kind: rawPrim, prim: ir.ParsePrimKind(head)}, nil
		default:
			return &rawRef{kind: rawNamed, name: head}, nil
		}
	}

	switch head {
	case "slice":
		if len(args) != 1 {
			return nil, fmt.Errorf("%q: slice takes one encoding argument", s)
		}

		return parseSlice(args[0])

	case "nullable":
		if len(args) != 1 {
			return nil, fmt.Errorf("%q: nullable takes one argument", s)
		}

		elem, err := parseRef(args[0])
		if err != nil {
			return nil, err
		}

		return &rawRef{kind: rawNullable, elem: elem}, nil

	case "fallible":
		if len(args) != 2 {
			return nil, fmt.Errorf("%q: fallible takes a success and an error argument", s)
		}

		out := &rawRef{kind: rawFallible}

		if strings.TrimSpace(args[0]) != "unit" {
			elem, err := parseRef(args[0])
			if err != nil {
				return nil, err
			}

			out.elem = elem
		}

		errRef, err := parseRef(args[1])
		if err != nil {
			return nil, err
		}

		out.err = errRef

		return out, nil

	default:
		return nil, fmt.Errorf("%q: unknown type constructor %q", s, head)
	}
}

func parseSlice(arg string) (*rawRef, error) {
	arg = strings.TrimSpace(arg)

	switch arg {
	case "utf8":
		return &rawRef{kind: rawSlice, enc: ir.EncodingUTF8}, nil
	case "utf16":
		return &rawRef{kind: rawSlice, enc: ir.EncodingUTF16}, nil
	case "strings":
		return &rawRef{kind: rawSlice, enc: ir.EncodingStrings}, nil
	}

	prim := ir.ParsePrimKind(arg)
	if !prim.IsValid() {
		return nil, fmt.Errorf("slice<%s>: element must be utf8, utf16, strings or a primitive", arg)
	}

	return &rawRef{kind: rawSlice, enc: ir.EncodingPrimitive, prim: prim}, nil
}

// splitGeneric splits "head<a, b>" into head and top-level arguments.
// A plain name returns nil arguments.
func splitGeneric(s string) (string, []string, error) {
	open := strings.IndexByte(s, '<')
	if open < 0 {
		if strings.ContainsAny(s, ">,") {
			return "", nil, fmt.Errorf("%q: malformed type expression", s)
		}

		return s, nil, nil
	}

	if !strings.HasSuffix(s, ">") {
		return "", nil, fmt.Errorf("%q: missing closing '>'", s)
	}

	head := strings.TrimSpace(s[:open])
	body := s[open+1 : len(s)-1]

	var args []string

	depth := 0
	start := 0

	for i := range len(body) {
		switch body[i] {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return "", nil, fmt.Errorf("%q: unbalanced '>'", s)
			}
		case ',':
			if depth == 0 {
				args = append(args, body[start:i])
				start = i + 1
			}
		}
	}

	if depth != 0 {
		return "", nil, fmt.Errorf("%q: unbalanced '<'", s)
	}

	args = append(args, body[start:])

	return head, args, nil
}

// resolve lowers a parse tree into a TypeRef, binding named references to
// the kind their definition declares. lib qualifies bare names.
func resolve(raw *rawRef, lib string, defs map[ir.TypeID]*ir.TypeDef) (ir.TypeRef, error) {
	switch raw.kind {
	case rawPrim:
		return ir.Prim(raw.prim), nil

	case rawWriteable:
		return ir.Writeable(), nil

	case rawSlice:
		return ir.Slice(raw.enc, raw.prim), nil

	case rawNullable:
		elem, err := resolve(raw.elem, lib, defs)
		if err != nil {
			return ir.TypeRef{}, err
		}

		return ir.Nullable(elem), nil

	case rawFallible:
		var okRef *ir.TypeRef

		if raw.elem != nil {
			elem, err := resolve(raw.elem, lib, defs)
			if err != nil {
				return ir.TypeRef{}, err
			}

			okRef = &elem
		}

		errRef, err := resolve(raw.err, lib, defs)
		if err != nil {
			return ir.TypeRef{}, err
		}

		return ir.Fallible(okRef, errRef), nil

	case rawNamed:
		id := parseTypeID(raw.name, lib)

		def, ok := defs[id]
		if !ok {
			return ir.TypeRef{}, fmt.Errorf("reference to undefined type %q", id)
		}

		switch def.Kind {
		case ir.TypeKindOpaque:
			return ir.Opaque(id, raw.borrowed), nil
		case ir.TypeKindStruct:
			return ir.Struct(id, raw.borrowed), nil
		case ir.TypeKindEnum:
			if raw.borrowed {
				return ir.TypeRef{}, fmt.Errorf("%q: enums cross by value and cannot be borrowed", id)
			}

			return ir.Enum(id), nil
		case ir.TypeKindPrimitive:
			if raw.borrowed {
				return ir.TypeRef{}, fmt.Errorf("%q: primitives cross by value and cannot be borrowed", id)
			}

			return ir.NamedPrim(def.Prim, id), nil
		default:
			return ir.TypeRef{}, fmt.Errorf("%q: unknown kind", id)
		}

	default:
		return ir.TypeRef{}, fmt.Errorf("invalid parse tree")
	}
}

// parseTypeID resolves a possibly qualified name against the document's
// library.
func parseTypeID(name, lib string) ir.TypeID {
	if before, after, found := strings.Cut(name, "."); found {
		return ir.TypeID{Library: before, Name: after}
	}

	return ir.TypeID{Library: lib, Name: name}
}
