// Package registry provides the immutable store of IR type definitions.
//
// A Registry is built exactly once per generation run and is read-only
// afterwards; every downstream pass receives it explicitly and only reads
// from it. Build performs the structural validation that generation depends
// on (unique ids, resolvable references, kind-consistent declarations); a
// Build failure is the fatal lowering precondition, so generation must not
// proceed without a Registry.
package registry
