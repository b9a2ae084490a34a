// Package gobe is the Go backend: it spells host types for the Go surface
// and renders one cgo unit per type over the generated glue headers.
//
// Generated packages are self-contained: a unit includes its own type's glue
// header, marshals through the shared per-library support file, and depends
// only on the standard library. Opaque handles hold their native pointer as
// unsafe.Pointer so wrappers can cross package boundaries; each unit casts
// to its package-local C pointer type at the call site.
package gobe
