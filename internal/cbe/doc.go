// Package cbe is the C backend: the host language is C itself, so the host
// unit of a type is a consumer-facing header over its glue header. What the
// backend adds on top of the raw ABI contract is the host-side lifetime
// discipline: a scoped-cleanup hook per opaque type so owned handles reach
// their destructor exactly once on scope exit.
package cbe
