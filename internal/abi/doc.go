// Package abi lowers IR methods to the C calling contract the generated
// bindings and the native library agree on: symbol names, flattened
// parameter slots, return conventions and memory layout.
//
// The contract targets 64-bit platforms (8-byte pointers). A value returns
// directly when it fits the native return register: scalars, enums, pointers
// and struct blocks of at most eight bytes. Everything else, and every
// result or presence block regardless of size, travels through one hidden
// trailing caller-allocated out pointer; the native function then returns
// void. Heap boxing is never part of the contract.
//
// Lowering assumes a validated Registry: dangling references, kind
// mismatches and by-value struct cycles are rejected when the Registry is
// built, not here. What is detected here are the combinators the contract
// cannot express (UnsupportedType) and colliding symbols (NamingConflict).
package abi
