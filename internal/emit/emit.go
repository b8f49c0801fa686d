// Package emit renders parsed API calls into declaration files. Two
// dialects are supported: EmmyLua annotation comments for Lua language
// servers, and TypeScript declarations for TypeScript-to-Lua setups.
package emit

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"reascribe/internal/diag"
	"reascribe/internal/sigparse"
)

// ErrMixedNamespace marks a namespace whose calls mix class methods and
// plain functions. That points at a bug upstream, not at the manual.
var ErrMixedNamespace = errors.New("namespace mixes class methods and plain functions")

// Dialect selects the output flavor.
type Dialect int8

const (
	DialectEmmyLua Dialect = iota
	DialectTypeScript
)

func (d Dialect) String() string {
	switch d {
	case DialectEmmyLua:
		return "emmylua"
	case DialectTypeScript:
		return "typescript"
	default:
		return fmt.Sprintf("dialect(%d)", int8(d))
	}
}

// DefaultFilename is the conventional output name for the dialect.
func (d Dialect) DefaultFilename() string {
	if d == DialectTypeScript {
		return "reaper.d.ts"
	}
	return "reaper.lua"
}

// ParseDialect maps user-facing names onto a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lua", "emmylua":
		return DialectEmmyLua, nil
	case "ts", "typescript", "dts":
		return DialectTypeScript, nil
	default:
		return 0, fmt.Errorf("unknown dialect %q", s)
	}
}

// AnnotatedCall pairs a parsed call with its documentation metadata.
type AnnotatedCall struct {
	Call        *sigparse.FunctionCall
	Description string
	Deprecated  bool
}

// Annotate builds an AnnotatedCall, deriving the deprecation flag from a
// case-insensitive "deprecated" match in the description.
func Annotate(call *sigparse.FunctionCall, description string) AnnotatedCall {
	return AnnotatedCall{
		Call:        call,
		Description: description,
		Deprecated:  strings.Contains(strings.ToLower(description), "deprecated"),
	}
}

// Emit renders the calls in the selected dialect. Diagnostics about
// best-effort output (such as undeclarable opaque types) go to log.
func Emit(dialect Dialect, calls []AnnotatedCall, log *diag.Log) (string, error) {
	switch dialect {
	case DialectEmmyLua:
		return EmitEmmyLua(calls, log)
	case DialectTypeScript:
		return EmitTypeScript(calls, log)
	default:
		return "", fmt.Errorf("unknown dialect %d", dialect)
	}
}

// namespaceGroup is one namespace's calls in first-seen order.
type namespaceGroup struct {
	name  string
	calls []AnnotatedCall
	class bool
}

// groupByNamespace buckets calls by namespace, preserving first-seen order
// of namespaces and of calls within each namespace. A namespace mixing
// class methods and plain functions fails with ErrMixedNamespace.
func groupByNamespace(calls []AnnotatedCall) ([]namespaceGroup, error) {
	var groups []namespaceGroup
	index := make(map[string]int)
	for _, c := range calls {
		ns := c.Call.Namespace
		i, ok := index[ns]
		if !ok {
			i = len(groups)
			index[ns] = i
			groups = append(groups, namespaceGroup{name: ns, class: c.Call.IsClassMethod})
		}
		if c.Call.IsClassMethod != groups[i].class {
			return nil, fmt.Errorf("namespace %q: %w", ns, ErrMixedNamespace)
		}
		groups[i].calls = append(groups[i].calls, c)
	}
	return groups, nil
}

// unknownTypes collects every referenced type the dialect has no built-in
// for, sorted lexicographically.
func unknownTypes(calls []AnnotatedCall, known func(string) bool) []string {
	seen := make(map[string]bool)
	for _, c := range calls {
		for _, p := range c.Call.Params {
			seen[p.Type] = true
		}
		for _, r := range c.Call.Retvals {
			seen[r.Type] = true
		}
	}
	var out []string
	for t := range seen {
		if !known(t) {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// indentLines prefixes every line that is not only whitespace.
func indentLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// startsLower reports whether the namespace starts with anything but an
// uppercase letter. Such globals need a lowercase-global annotation in
// EmmyLua output.
func startsLower(s string) bool {
	if s == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r == unicode.ToLower(r)
}
