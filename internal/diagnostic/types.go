package diagnostic

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"ffigen/internal/common"
)

// Code identifies one class of diagnostic.
type Code string

// Error codes. Any diagnostic carrying one of these makes the run fail.
const (
	// CodeUnresolvedTypeReference: an enabled method references a type that
	// is disabled (or absent) for the target backend.
	CodeUnresolvedTypeReference Code = "unresolved_type_reference"
	// CodeNamingConflict: two generated native symbols collide.
	CodeNamingConflict Code = "naming_conflict"
	// CodeUnsupportedType: an IR variant or combinator this backend does not
	// implement (e.g., nullable<nullable<...>>).
	CodeUnsupportedType Code = "unsupported_type"
	// CodeAttributeResolution: contradictory or malformed resolved attribute
	// state was handed to the core.
	CodeAttributeResolution Code = "attribute_resolution_error"
	// CodeLowering: the registry itself failed to build; fatal precondition.
	CodeLowering Code = "lowering_error"
	// CodeUnknownTypeID: a TypeID does not resolve in the registry.
	CodeUnknownTypeID Code = "unknown_type_id"
	// CodeEmit: a backend failed to render or format a unit.
	CodeEmit Code = "emit_error"
)

// Informational codes.
const (
	// CodeDisabledByAttribute records a type or method excluded by the
	// attribute filter. Always an info: exclusion is never an error.
	CodeDisabledByAttribute Code = "disabled_by_attribute"
)

// Severity is the level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// Diagnostic is one collected message, scoped to the type (and optionally
// the method) it concerns.
type Diagnostic struct {
	Severity Severity
	Code     Code
	// Type is the string form of the TypeID this concerns, if any.
	Type string
	// Method is the IR method name this concerns, if any.
	Method string
	// Message is the human-readable description.
	Message string
}

// String renders "[code] type.method: message".
func (d Diagnostic) String() string {
	var scope []string
	if d.Type != "" {
		scope = append(scope, d.Type)
	}

	if d.Method != "" {
		scope = append(scope, d.Method)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(scope) > 0 {
		return strings.Join(scope, ".") + ": " + msg
	}

	return msg
}

// Diagnostics aggregates everything a run produced.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// AddError records an error diagnostic.
func (d *Diagnostics) AddError(code Code, typeName, method, message string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Type:     typeName,
		Method:   method,
		Message:  message,
	})
}

// AddErrorf records an error diagnostic with a formatted message.
func (d *Diagnostics) AddErrorf(code Code, typeName, method, format string, args ...any) {
	d.AddError(code, typeName, method, fmt.Sprintf(format, args...))
}

// AddWarning records a warning diagnostic.
func (d *Diagnostics) AddWarning(code Code, typeName, method, message string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Type:     typeName,
		Method:   method,
		Message:  message,
	})
}

// AddInfo records an info diagnostic.
func (d *Diagnostics) AddInfo(code Code, typeName, method, message string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity: SeverityInfo,
		Code:     code,
		Type:     typeName,
		Method:   method,
		Message:  message,
	})
}

// HasErrors returns true if any error diagnostic was collected.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Merge appends another Diagnostics into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// Sort orders every bucket by type, method, code, then message, so that
// aggregated output is deterministic regardless of processing order.
func (d *Diagnostics) Sort() {
	for _, bucket := range [][]Diagnostic{d.Errors, d.Warnings, d.Infos} {
		sort.SliceStable(bucket, func(i, j int) bool {
			a, b := bucket[i], bucket[j]
			if a.Type != b.Type {
				return a.Type < b.Type
			}

			if a.Method != b.Method {
				return a.Method < b.Method
			}

			if a.Code != b.Code {
				return a.Code < b.Code
			}

			return a.Message < b.Message
		})
	}
}

// Error folds all error diagnostics into a single error, or nil if valid.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	var parts []string
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}
