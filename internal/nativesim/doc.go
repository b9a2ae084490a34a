// Package nativesim is an in-memory stand-in for the native library the
// generated bindings would link against: a symbol table of Go functions,
// a handle table with destructor tracking, and a caller that executes one
// lowered method exactly the way a rendered host wrapper would: marshal
// per the native shape, invoke the symbol, unmarshal per the return plan.
//
// It exists for tests: the end-to-end, nullability, fallibility and
// destructor properties of the generator are all observable here without a
// C toolchain in the loop.
package nativesim
