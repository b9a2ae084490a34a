// Package cglue renders the native-side glue: one C header per generated
// type declaring its native representation and every exported symbol, plus
// the per-library prelude with the shared boundary types. The headers are
// the ABI contract in written form; both host backends emit source against
// them rather than re-deriving any spelling.
package cglue
