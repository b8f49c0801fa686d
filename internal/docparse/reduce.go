package docparse

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// reduceSection turns one chunk of section markup into a Section. Sections
// with no call text in any language come back as GenericSection.
func reduceSection(name, markup string) (Section, error) {
	root, err := sectionTree(markup)
	if err != nil {
		return nil, fmt.Errorf("parsing section %q: %w", name, err)
	}

	// Worked examples live under an <h2>; they are not part of the
	// definition.
	if h2 := findFirst(root, "h2"); h2 != nil {
		pruneAfter(root, h2)
		detach(h2)
	}

	if lang, ok := singleLanguageFor(name); ok {
		return reduceSingleLanguage(name, lang, root), nil
	}
	return reduceMultilingual(name, root)
}

// reduceSingleLanguage handles sections whose name carries a language
// prefix. The first <code> element is the signature; everything before it
// is the language label and is dropped.
func reduceSingleLanguage(name string, lang Language, root *html.Node) Section {
	code := findFirst(root, "code")
	if code == nil {
		return &GenericSection{Name: name, Description: descriptionText(root)}
	}
	pruneBefore(root, code)
	call := nestedText(code)
	detach(code)
	return &CallSection{
		Name:        name,
		Description: descriptionText(root),
		Calls:       map[Language]string{lang: call},
	}
}

// reduceMultilingual extracts the language-labeled blocks from a section
// body. Each block must start with its literal language tag, and a
// language may only be declared once.
func reduceMultilingual(name string, root *html.Node) (Section, error) {
	calls := make(map[Language]string)
	for _, block := range collectLanguageBlocks(root) {
		lang, _ := classLanguage(block)
		if _, dup := calls[lang]; dup {
			return nil, fmt.Errorf("section %q: %w: %s", name, ErrDuplicateLanguage, lang)
		}
		text := nestedText(block)
		prefix := languagePrefixes[lang]
		if !strings.HasPrefix(text, prefix) {
			return nil, fmt.Errorf("section %q: %s block does not start with %q", name, lang, prefix)
		}
		calls[lang] = strings.TrimSpace(strings.TrimPrefix(text, prefix))
		detach(block)
	}
	desc := descriptionText(root)
	if len(calls) == 0 {
		return &GenericSection{Name: name, Description: desc}, nil
	}
	return &CallSection{Name: name, Description: desc, Calls: calls}, nil
}

// singleLanguageFor matches the section-name prefixes that mark
// single-language sections.
func singleLanguageFor(name string) (Language, bool) {
	switch {
	case strings.HasPrefix(name, "eel_"):
		return LangEEL, true
	case strings.HasPrefix(name, "lua_"):
		return LangLua, true
	case strings.HasPrefix(name, "python_"):
		return LangPython, true
	}
	return 0, false
}

// sectionTree parses section markup as a body fragment and reattaches the
// top-level nodes under a synthetic container.
func sectionTree(markup string) (*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, err
	}
	root := &html.Node{Type: html.ElementNode, Data: "div"}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// findFirst returns the first element with the given tag in document
// order, or nil.
func findFirst(root *html.Node, tag string) *html.Node {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// classLanguage reports the language of a div carrying one of the
// multilingual block classes.
func classLanguage(n *html.Node) (Language, bool) {
	if n.Type != html.ElementNode || n.Data != "div" {
		return 0, false
	}
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, tok := range strings.Fields(attr.Val) {
			if lang, ok := languageClasses[tok]; ok {
				return lang, true
			}
		}
	}
	return 0, false
}

// collectLanguageBlocks gathers the multilingual divs in document order.
func collectLanguageBlocks(root *html.Node) []*html.Node {
	var blocks []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if _, ok := classLanguage(c); ok {
				blocks = append(blocks, c)
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return blocks
}

// pruneAfter removes everything following n, walking up to the container:
// at each ancestor level, all later siblings are dropped.
func pruneAfter(root, n *html.Node) {
	for ; n != nil && n != root; n = n.Parent {
		for sib := n.NextSibling; sib != nil; {
			next := sib.NextSibling
			n.Parent.RemoveChild(sib)
			sib = next
		}
	}
}

// pruneBefore removes everything preceding n, walking up to the container.
func pruneBefore(root, n *html.Node) {
	for ; n != nil && n != root; n = n.Parent {
		for sib := n.PrevSibling; sib != nil; {
			prev := sib.PrevSibling
			n.Parent.RemoveChild(sib)
			sib = prev
		}
	}
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// nestedText joins the text of all descendant text nodes with single
// spaces. Used for call text, where markup may interrupt the signature.
func nestedText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(strings.Join(parts, " "))
}

var newlineRuns = regexp.MustCompile(`\n+`)

// descriptionText flattens what is left of a section tree into its
// description: text nodes concatenated in document order, space and tab
// runs collapsed, and newline runs turned into paragraph breaks.
func descriptionText(root *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return ""
	}
	text = newlineRuns.ReplaceAllString(text, "\n")
	return strings.ReplaceAll(text, "\n", "\n\n")
}
