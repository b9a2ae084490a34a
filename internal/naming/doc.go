// Package naming converts IR identifiers (snake_case methods, PascalCase
// types) into host-language spellings and allocates collision-free derived
// names.
//
// Native symbols always use the IR spelling verbatim; only host-surface
// names are re-cased here.
package naming
