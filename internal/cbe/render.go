package cbe

import (
	"fmt"
	"path"
	"strings"

	"ffigen/internal/abi"
	"ffigen/internal/backend"
	"ffigen/internal/ir"
	"ffigen/internal/typemap"
)

// Backend renders one consumer header per type.
type Backend struct {
	d Dialect
}

// New creates a C backend.
func New() *Backend {
	return &Backend{}
}

// Name returns the backend name.
func (b *Backend) Name() string { return "c" }

// Dialect returns the C host-type speller.
func (b *Backend) Dialect() typemap.Dialect { return b.d }

// FileName returns the host unit path for one type.
func (b *Backend) FileName(def *ir.TypeDef) string {
	return path.Join(def.ID.Library, def.ID.Name+".h")
}

// Render produces the consumer header for one type: the glue include plus
// the scoped-lifetime helpers C code uses to uphold the ownership contract.
func (b *Backend) Render(u *backend.TypeUnit) (backend.File, error) {
	def := u.Def
	cname := abi.CTypeName(def.ID)
	guard := "FFIGEN_" + strings.ToUpper(def.ID.Library) + "_" + strings.ToUpper(def.ID.Name) + "_H"

	var sb strings.Builder

	fmt.Fprintf(&sb, "// Code generated by ffigen. DO NOT EDIT.\n")

	if def.Docs != "" {
		sb.WriteString("//\n")

		for _, line := range strings.Split(strings.TrimRight(def.Docs, "\n"), "\n") {
			fmt.Fprintf(&sb, "// %s\n", line)
		}
	}

	fmt.Fprintf(&sb, "\n#ifndef %s\n#define %s\n\n", guard, guard)
	fmt.Fprintf(&sb, "#include %q\n\n", def.ID.Name+".ffi.h")

	if def.Kind == ir.TypeKindOpaque {
		b.writeLifetimeHelpers(&sb, u, cname)
	}

	fmt.Fprintf(&sb, "#endif // %s\n", guard)

	return backend.File{Path: b.FileName(def), Content: []byte(sb.String())}, nil
}

// writeLifetimeHelpers emits the cleanup hook binding the destructor to
// scope exit. The attribute form needs GCC or Clang; other compilers keep
// the plain helper and call the destructor explicitly.
func (b *Backend) writeLifetimeHelpers(sb *strings.Builder, u *backend.TypeUnit, cname string) {
	destroy := u.ABI.Destructor
	upper := strings.ToUpper(cname)

	fmt.Fprintf(sb, `// Destroys *self if set and nulls it, so scope-exit cleanup runs the
// destructor exactly once even after an early ownership transfer.
static inline void %[1]s_cleanup(%[2]s **self) {
    if (self && *self) {
        %[3]s(*self);
        *self = NULL;
    }
}

#if defined(__GNUC__) || defined(__clang__)
// Declares an owned handle destroyed on scope exit:
//   %[4]s_SCOPED %[2]s *d = ...;
#define %[4]s_SCOPED __attribute__((cleanup(%[1]s_cleanup)))
#endif

`, cname, cname, destroy, upper)
}

// Support emits no run-wide files: the prelude and glue headers already
// carry everything a C consumer needs.
func (b *Backend) Support(libs []string) ([]backend.File, error) {
	return nil, nil
}
