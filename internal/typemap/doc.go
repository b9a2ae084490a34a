// Package typemap pairs the two sides of the boundary for every reference:
// the host-surface type a backend dialect spells, and the native shape the
// ABI contract prescribes. The mapper owns no policy of its own; illegal
// combinators are rejected by the native lowering, and spelling belongs to
// the dialect.
package typemap
