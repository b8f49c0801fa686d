package emit

import (
	"errors"
	"fmt"
	"strings"

	"reascribe/internal/diag"
)

const emmyPreamble = "---@diagnostic disable: missing-return"

// emmyBuiltins are the types the Lua language server knows natively.
// https://luals.github.io/wiki/annotations/
var emmyBuiltins = map[string]bool{
	"nil":           true,
	"any":           true,
	"boolean":       true,
	"string":        true,
	"number":        true,
	"integer":       true,
	"function":      true,
	"table":         true,
	"thread":        true,
	"userdata":      true,
	"lightuserdata": true,
}

// EmitEmmyLua renders the calls as a Lua stub file with EmmyLua annotation
// comments. Unknown types are declared up front as annotation-only classes.
func EmitEmmyLua(calls []AnnotatedCall, _ *diag.Log) (string, error) {
	groups, err := groupByNamespace(calls)
	if err != nil {
		return "", err
	}

	blocks := []string{emmyPreamble}
	if types := unknownTypes(calls, func(t string) bool { return emmyBuiltins[t] }); len(types) > 0 {
		blocks = append(blocks, declareEmmyClasses(types))
	}
	for _, g := range groups {
		if g.class {
			block, err := emmyClassNamespace(g)
			if err != nil {
				return "", err
			}
			blocks = append(blocks, block)
		} else {
			blocks = append(blocks, emmyPlainNamespace(g))
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}

// declareEmmyClasses declares opaque handle types:
//
//	---@class MediaTrack
//	---@class ReaProject
//	local _ = {}
func declareEmmyClasses(types []string) string {
	lines := make([]string, 0, len(types)+1)
	for _, t := range types {
		lines = append(lines, "---@class "+t)
	}
	lines = append(lines, "local _ = {}")
	return strings.Join(lines, "\n")
}

// emmyPlainNamespace renders a namespace as a global table literal with
// one entry per call.
func emmyPlainNamespace(g namespaceGroup) string {
	rendered := make([]string, 0, len(g.calls))
	for _, c := range g.calls {
		rendered = append(rendered, emmyFunction(c))
	}
	var parts []string
	if startsLower(g.name) {
		parts = append(parts, "---@diagnostic disable-next-line: lowercase-global")
	}
	parts = append(parts,
		g.name+" = {",
		indentLines(strings.Join(rendered, "\n\n"), "    "),
		"}",
	)
	return strings.Join(parts, "\n")
}

// emmyClassNamespace renders a class namespace: an annotation-only class
// followed by method declarations on a throwaway local.
func emmyClassNamespace(g namespaceGroup) (string, error) {
	if len(g.calls) == 0 {
		return "", errors.New("no functions given")
	}
	parts := []string{fmt.Sprintf("---@class %s\nlocal _ = {}", g.name)}
	for _, c := range g.calls {
		parts = append(parts, emmyMethod(c, "_"))
	}
	return strings.Join(parts, "\n\n"), nil
}

func emmyFunction(c AnnotatedCall) string {
	return fmt.Sprintf("%s\n%s = function(%s) end,", emmyDocstring(c), c.Call.Name, paramNames(c))
}

func emmyMethod(c AnnotatedCall, variable string) string {
	return fmt.Sprintf("%s\nfunction %s:%s(%s) end", emmyDocstring(c), variable, c.Call.Name, paramNames(c))
}

func paramNames(c AnnotatedCall) string {
	names := make([]string, 0, len(c.Call.Params))
	for _, p := range c.Call.Params {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

// emmyDocstring builds the annotation comment block: the canonical
// signature in a code fence, the description, @param and @return lines,
// and @deprecated when applicable. Text lines get a "--- " prefix,
// annotation lines "---", and trailing whitespace is trimmed.
func emmyDocstring(c AnnotatedCall) string {
	parts := []string{fmt.Sprintf("```\n%s\n```", c.Call)}
	if c.Description != "" {
		parts = append(parts, c.Description)
	}
	for _, p := range c.Call.Params {
		marker := ""
		if p.Optional {
			marker = "?"
		}
		parts = append(parts, fmt.Sprintf("@param %s%s %s", p.Name, marker, p.Type))
	}
	if len(c.Call.Retvals) > 0 {
		types := make([]string, 0, len(c.Call.Retvals))
		for _, r := range c.Call.Retvals {
			types = append(types, r.Type)
		}
		parts = append(parts, "@return "+strings.Join(types, ", "))
	}
	if c.Deprecated {
		parts = append(parts, "@deprecated")
	}

	var lines []string
	for _, part := range parts {
		prefix := "--- "
		if strings.HasPrefix(part, "@") {
			prefix = "---"
		}
		for _, line := range strings.Split(part, "\n") {
			lines = append(lines, strings.TrimRight(prefix+line, " \t"))
		}
	}
	return strings.Join(lines, "\n")
}
