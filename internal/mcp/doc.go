package mcp

import (
	"fmt"
	"strings"

	"reascribe/internal/docparse"
	"reascribe/internal/index"
)

// EntryURI returns the resource URI of an indexed function.
func EntryURI(e *index.Entry) string {
	return "reascript://" + e.Namespace + "/" + e.Name
}

// EntryDoc renders one indexed function as a markdown document: the
// canonical Lua signature in a code fence, the description, parameter
// and return tables, and the signatures in the other ReaScript
// languages.
func EntryDoc(e *index.Entry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s.%s\n\n", e.Namespace, e.Name)
	fmt.Fprintf(&b, "```\n%s\n```\n", e.Signature)

	if e.Deprecated {
		b.WriteString("\n**Deprecated.**\n")
	}
	if e.Description != "" {
		b.WriteString("\n" + e.Description + "\n")
	}

	if len(e.Params) > 0 {
		b.WriteString("\n## Parameters\n\n")
		b.WriteString("| Name | Type | Optional |\n|---|---|---|\n")
		for _, p := range e.Params {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", p.Name, p.Type, optionalMark(p.Optional))
		}
	}
	if e.Varargs {
		b.WriteString("\nAdditional arguments are accepted (`...`).\n")
	}

	if len(e.Retvals) > 0 {
		b.WriteString("\n## Returns\n\n")
		b.WriteString("| Name | Type | Optional |\n|---|---|---|\n")
		for _, r := range e.Retvals {
			name := r.Name
			if name == "" {
				name = "_"
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", name, r.Type, optionalMark(r.Optional))
		}
	}

	if langs := otherLanguages(e); len(langs) > 0 {
		b.WriteString("\n## Other languages\n")
		for _, l := range langs {
			fmt.Fprintf(&b, "\n**%s**\n\n```\n%s\n```\n", l, e.Raw[l])
		}
	}

	return b.String()
}

// otherLanguages lists the non-Lua languages the manual section had
// call text for, in the manual's order. The Lua text is omitted since
// the canonical signature above is derived from it.
func otherLanguages(e *index.Entry) []docparse.Language {
	var out []docparse.Language
	for _, l := range []docparse.Language{docparse.LangC, docparse.LangEEL, docparse.LangPython} {
		if _, ok := e.Raw[l]; ok {
			out = append(out, l)
		}
	}
	return out
}

func optionalMark(optional bool) string {
	if optional {
		return "yes"
	}
	return ""
}
