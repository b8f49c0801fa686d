package emit

import (
	"errors"
	"fmt"
	"strings"

	"reascribe/internal/diag"
	"reascribe/internal/sigparse"
)

const tsPreamble = "/** @noSelfInFile **/"

// tsTypeMap maps the manual's type names onto TypeScript types. A table
// may be a list or a dict, so it stays any.
var tsTypeMap = map[string]string{
	"nil":      "null",
	"any":      "any",
	"boolean":  "boolean",
	"string":   "string",
	"number":   "number",
	"integer":  "number",
	"function": "Function",
	"table":    "any",
}

func tsType(name string) string {
	if t, ok := tsTypeMap[name]; ok {
		return t
	}
	return name
}

// EmitTypeScript renders the calls as an ambient TypeScript declaration
// file. Types without a mapping are declared as nominal opaque types.
func EmitTypeScript(calls []AnnotatedCall, log *diag.Log) (string, error) {
	groups, err := groupByNamespace(calls)
	if err != nil {
		return "", err
	}

	blocks := []string{tsPreamble}
	known := func(t string) bool { _, ok := tsTypeMap[t]; return ok }
	if types := unknownTypes(calls, known); len(types) > 0 {
		blocks = append(blocks, declareOpaqueTypes(types, log))
	}
	for _, g := range groups {
		if g.class {
			block, err := tsClassNamespace(g)
			if err != nil {
				return "", err
			}
			blocks = append(blocks, block)
		} else {
			blocks = append(blocks, tsPlainNamespace(g))
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}

// declareOpaqueTypes declares each unknown type as a nominal opaque type.
// A name containing a dot cannot be declared; it is reported and skipped,
// though declarations still reference it by name.
func declareOpaqueTypes(types []string, log *diag.Log) string {
	parts := []string{
		"// https://stackoverflow.com/questions/56737033/how-to-define-an-opaque-type-in-typescript",
		"declare const opaqueTypeTag: unique symbol;",
		"",
	}
	for _, t := range types {
		if strings.Contains(t, ".") {
			log.Errorf("", "type name %q contains a dot character, skipping its declaration", t)
			continue
		}
		parts = append(parts, fmt.Sprintf("declare type %s = { readonly [opaqueTypeTag]: '%s' };", t, t))
	}
	return strings.Join(parts, "\n")
}

func tsPlainNamespace(g namespaceGroup) string {
	rendered := make([]string, 0, len(g.calls))
	for _, c := range g.calls {
		rendered = append(rendered, tsFunction(c))
	}
	return strings.Join([]string{
		fmt.Sprintf("declare namespace %s {", g.name),
		indentLines(strings.Join(rendered, "\n\n"), "  "),
		"}",
	}, "\n")
}

func tsClassNamespace(g namespaceGroup) (string, error) {
	if len(g.calls) == 0 {
		return "", errors.New("no functions given")
	}
	parts := []string{fmt.Sprintf("declare class %s {", g.name)}
	for _, c := range g.calls {
		parts = append(parts, indentLines(tsMethod(c), "  "))
	}
	parts = append(parts, "}")
	return strings.Join(parts, "\n"), nil
}

func tsFunction(c AnnotatedCall) string {
	return fmt.Sprintf("%s\nfunction %s(%s): %s;", tsDocstring(c), c.Call.Name, tsParams(c), tsRetvals(c.Call.Retvals))
}

func tsMethod(c AnnotatedCall) string {
	return fmt.Sprintf("%s\n%s(%s): %s;", tsDocstring(c), c.Call.Name, tsParams(c), tsRetvals(c.Call.Retvals))
}

func tsParams(c AnnotatedCall) string {
	rendered := make([]string, 0, len(c.Call.Params))
	for _, p := range c.Call.Params {
		marker := ""
		if p.Optional {
			marker = "?"
		}
		rendered = append(rendered, fmt.Sprintf("%s%s: %s", p.Name, marker, tsType(p.Type)))
	}
	return strings.Join(rendered, ", ")
}

// tsRetvals maps the return values onto a single TypeScript return type.
// Multiple values become a LuaMultiReturn tuple.
func tsRetvals(retvals []sigparse.RetVal) string {
	switch len(retvals) {
	case 0:
		return "void"
	case 1:
		t := tsType(retvals[0].Type)
		if retvals[0].Optional {
			return t + " | null"
		}
		return t
	default:
		types := make([]string, 0, len(retvals))
		for _, r := range retvals {
			types = append(types, tsType(r.Type))
		}
		return fmt.Sprintf("LuaMultiReturn<[%s]>", strings.Join(types, ", "))
	}
}

// tsDocstring builds the JSDoc block: the canonical signature in a code
// fence, the description, and @deprecated when applicable. Comment-closing
// sequences in the text are defused.
func tsDocstring(c AnnotatedCall) string {
	parts := []string{fmt.Sprintf("```\n%s\n```", c.Call)}
	if c.Description != "" {
		parts = append(parts, c.Description)
	}
	if c.Deprecated {
		parts = append(parts, "@deprecated")
	}

	var lines []string
	for _, part := range parts {
		for _, line := range strings.Split(part, "\n") {
			lines = append(lines, " * "+line)
		}
	}
	body := strings.ReplaceAll(strings.Join(lines, "\n"), "*/", "* /")
	doc := "/**\n" + body + "\n */"

	outLines := strings.Split(doc, "\n")
	for i, line := range outLines {
		outLines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(outLines, "\n")
}
