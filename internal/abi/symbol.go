package abi

import (
	"unicode"

	"golang.org/x/text/unicode/norm"

	"ffigen/internal/diagnostic"
	"ffigen/internal/ir"
)

// destroySuffix names the generated destructor of every opaque type.
const destroySuffix = "destroy"

// MethodSymbol formats the exported native symbol of one method:
// the owner's IR type name and the IR method name joined by an underscore.
func MethodSymbol(owner ir.TypeID, method string) string {
	return owner.Name + "_" + method
}

// DestroySymbol formats the destructor symbol of an opaque type.
func DestroySymbol(owner ir.TypeID) string {
	return owner.Name + "_" + destroySuffix
}

// ValidateSymbolPart checks that an IR name can form one part of a native
// symbol: letters, digits and underscores, not starting with a digit, and
// NFC-normalized so that equal-looking names produce equal symbol bytes.
// IR names reach us from arbitrary frontends and are validated before any
// symbol is formatted from them.
func ValidateSymbolPart(name string) error {
	if name == "" {
		return errf(diagnostic.CodeNamingConflict, "empty name cannot form a symbol")
	}

	if !norm.NFC.IsNormalString(name) {
		return errf(diagnostic.CodeNamingConflict, "name %q is not NFC-normalized", name)
	}

	for i, r := range name {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case unicode.IsDigit(r):
			if i == 0 {
				return errf(diagnostic.CodeNamingConflict, "name %q starts with a digit", name)
			}
		default:
			return errf(diagnostic.CodeNamingConflict, "name %q contains %q, not a symbol character", name, r)
		}
	}

	return nil
}
