// Package ir defines the typed intermediate representation of a native
// library's public surface.
//
// The IR is a closed set of tagged variants:
//   - TypeDef: Opaque, Struct, Enum, Primitive (named alias)
//   - TypeRef: Primitive, Opaque (owned/borrowed), Struct, Enum, Slice,
//     Writeable, Nullable<T>, Fallible<S, E>
//
// Every pass over the IR (filtering, mapping, signature formatting) switches
// exhaustively over these kinds; adding a variant is meant to break every
// consumer at compile time.
//
// The package holds pure data. Construction and validation live in
// internal/irfile and internal/registry.
package ir
