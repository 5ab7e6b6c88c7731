package compiler

import (
	"strings"
	"unicode"
)

// reservedWords is the set of ECMAScript reserved words, including strict-mode
// and contextual module-level reservations. A camelCased class name landing on
// one of these cannot be emitted as a named export.
//
// Source: ECMA-262 §12.7.2 (ReservedWord) plus the strict-mode additions.
var reservedWords = map[string]bool{
	"await":      true,
	"break":      true,
	"case":       true,
	"catch":      true,
	"class":      true,
	"const":      true,
	"continue":   true,
	"debugger":   true,
	"default":    true,
	"delete":     true,
	"do":         true,
	"else":       true,
	"enum":       true,
	"export":     true,
	"extends":    true,
	"false":      true,
	"finally":    true,
	"for":        true,
	"function":   true,
	"if":         true,
	"implements": true,
	"import":     true,
	"in":         true,
	"instanceof": true,
	"interface":  true,
	"let":        true,
	"new":        true,
	"null":       true,
	"package":    true,
	"private":    true,
	"protected":  true,
	"public":     true,
	"return":     true,
	"static":     true,
	"super":      true,
	"switch":     true,
	"this":       true,
	"throw":      true,
	"true":       true,
	"try":        true,
	"typeof":     true,
	"var":        true,
	"void":       true,
	"while":      true,
	"with":       true,
	"yield":      true,
}

// IsReservedWord reports whether name cannot be used as a JS identifier.
func IsReservedWord(name string) bool {
	return reservedWords[name]
}

// CamelCase converts a dashed or underscored class name to camelCase.
// "secondary-text" → "secondaryText", "fooBar" → "fooBar".
func CamelCase(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	upper := false
	for _, r := range name {
		if r == '-' || r == '_' {
			if b.Len() > 0 {
				upper = true
			}
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// KebabCase converts a camelCased class name to its dashed CSS form.
// "fooBar" → "foo-bar", "secondary-text" → "secondary-text".
func KebabCase(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// sanitizeAlnum strips everything but ASCII letters and digits. Used when
// deriving scoping patterns from file names and package versions, which may
// contain dots, dashes and other characters invalid in CSS identifiers.
func sanitizeAlnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
