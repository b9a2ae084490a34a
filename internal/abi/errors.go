package abi

import (
	"errors"
	"fmt"

	"ffigen/internal/diagnostic"
)

// Error is a lowering failure tagged with the diagnostic code it reports as.
type Error struct {
	Code diagnostic.Code
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func errf(code diagnostic.Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the diagnostic code from a lowering error. Errors from
// outside this package classify as lowering failures.
func CodeOf(err error) diagnostic.Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return diagnostic.CodeLowering
}
