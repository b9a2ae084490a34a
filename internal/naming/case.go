package naming

import (
	"strings"
	"unicode"
)

// Tokens splits an identifier into word tokens.
// Examples:
//   - "add_two" -> ["add", "two"]
//   - "OrderID" -> ["Order", "ID"]
//   - "to_utf8_string" -> ["to", "utf8", "string"]
//   - "XMLParser" -> ["XML", "Parser"]
func Tokens(s string) []string {
	if s == "" {
		return nil
	}

	var tokens []string

	var current strings.Builder

	runes := []rune(s)
	for i := range runes {
		r := runes[i]

		// Separators end the current token.
		if isSeparator(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

			continue
		}

		if i == 0 {
			current.WriteRune(r)

			continue
		}

		if startsNewToken(runes, i) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// isSeparator returns true if the rune is a common identifier separator.
func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' '
}

// startsNewToken determines if a new token should start at position i.
func startsNewToken(runes []rune, i int) bool {
	r := runes[i]
	prev := runes[i-1]
	isUpper := unicode.IsUpper(r)
	isPrevUpper := unicode.IsUpper(prev)
	isPrevSep := isSeparator(prev)

	// lowercase-to-uppercase transition: "orderID" splits before 'I'
	if isUpper && !isPrevUpper && !isPrevSep {
		return true
	}

	// End of an acronym: "XMLParser" splits before 'P'.
	hasNextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
	if isUpper && isPrevUpper && hasNextLower {
		return true
	}

	// letter-to-digit boundary is NOT a split ("utf8" stays one token).
	return false
}

// PascalCase renders tokens with every token capitalized: "add_two" ->
// "AddTwo". Tokens that are already all-caps acronyms are preserved.
func PascalCase(s string) string {
	var sb strings.Builder
	for _, tok := range Tokens(s) {
		sb.WriteString(capitalize(tok))
	}

	return sb.String()
}

// CamelCase renders the first token lowercase and the rest capitalized:
// "add_two" -> "addTwo".
func CamelCase(s string) string {
	tokens := Tokens(s)
	if len(tokens) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(strings.ToLower(tokens[0]))

	for _, tok := range tokens[1:] {
		sb.WriteString(capitalize(tok))
	}

	return sb.String()
}

// SnakeCase renders tokens joined by underscores, all lowercase:
// "OrderID" -> "order_id".
func SnakeCase(s string) string {
	tokens := Tokens(s)
	for i, tok := range tokens {
		tokens[i] = strings.ToLower(tok)
	}

	return strings.Join(tokens, "_")
}

// capitalize upper-cases the first rune, preserving the remainder so that
// acronym tokens ("ID", "UTF") survive round trips.
func capitalize(tok string) string {
	if tok == "" {
		return tok
	}

	runes := []rune(tok)
	runes[0] = unicode.ToUpper(runes[0])

	return string(runes)
}
