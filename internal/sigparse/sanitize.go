package sigparse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var invalidIdentChars = regexp.MustCompile(`[^0-9A-Za-z_]+`)

// luaKeywords are the reserved words that actually collide with parameter
// names in the manual.
var luaKeywords = map[string]bool{
	"end":    true,
	"in":     true,
	"for":    true,
	"repeat": true,
}

// knownTypes are the primitive type names a bare parameter or return-value
// token may use without an explicit name.
var knownTypes = map[string]bool{
	"boolean":  true,
	"string":   true,
	"number":   true,
	"integer":  true,
	"function": true,
}

// SanitizeIdentifier rewrites raw text into a valid identifier: every run
// of characters outside [0-9A-Za-z_] collapses to a single underscore, and
// reserved words or digit-leading results gain an underscore prefix.
func SanitizeIdentifier(name string) string {
	name = invalidIdentChars.ReplaceAllString(name, "_")
	if luaKeywords[name] {
		name = "_" + name
	}
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// bareType reports whether a single token may stand alone as a type: one of
// the known primitives, or shaped like a class name (leading uppercase
// letter).
func bareType(tok string) bool {
	if knownTypes[tok] {
		return true
	}
	r, _ := utf8.DecodeRuneInString(tok)
	return unicode.IsUpper(r)
}

// derivedName is the auto-generated name for a bare type token: its first
// three letters, lowercased. "MediaItem" becomes "med".
func derivedName(typeName string) string {
	r := []rune(typeName)
	if len(r) > 3 {
		r = r[:3]
	}
	return strings.ToLower(string(r))
}
