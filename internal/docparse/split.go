// Package docparse splits the scraped ReaScript HTML manual into named
// sections. A section starts at an anchor that declares a name attribute
// and carries no href, and runs until the next such anchor. Sections are
// reduced to their per-language call text plus a plain-text description;
// everything from an embedded <h2> onward (worked examples) is dropped.
package docparse

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

var (
	// ErrMissingBody marks a document without a literal <body> element.
	ErrMissingBody = errors.New("document has no <body> element")

	// ErrDuplicateLanguage marks a section declaring the same language
	// twice.
	ErrDuplicateLanguage = errors.New("multiple declarations for the same language")
)

// rawChunk is the markup between two section boundaries.
type rawChunk struct {
	name   string
	markup string
}

// Split parses the raw manual and returns its sections in document order.
// Markup before the first boundary and the table-of-contents sections are
// dropped. Structural problems (no body, duplicate language declarations)
// abort the whole split.
func Split(doc string) ([]Section, error) {
	chunks, err := splitChunks(doc)
	if err != nil {
		return nil, err
	}
	sections := make([]Section, 0, len(chunks))
	for _, c := range chunks {
		if ignoredSections[c.name] {
			continue
		}
		sec, err := reduceSection(c.name, c.markup)
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

// splitChunks tokenizes the document and slices the raw markup inside
// <body> at every section boundary.
func splitChunks(doc string) ([]rawChunk, error) {
	z := html.NewTokenizer(strings.NewReader(doc))
	var (
		chunks  []rawChunk
		current *rawChunk
		buf     strings.Builder
		inBody  bool
		sawBody bool
	)
	flush := func() {
		if current != nil {
			current.markup = buf.String()
			chunks = append(chunks, *current)
			current = nil
		}
		buf.Reset()
	}
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("tokenizing document: %w", err)
			}
			break
		}
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			tag, hasAttr := z.TagName()
			switch string(tag) {
			case "body":
				inBody = true
				sawBody = true
				continue
			case "a":
				if inBody && hasAttr {
					if name, ok := boundaryName(z); ok {
						flush()
						current = &rawChunk{name: name}
						continue
					}
				}
			}
		case html.EndTagToken:
			tag, _ := z.TagName()
			if string(tag) == "body" {
				flush()
				inBody = false
				continue
			}
		}
		if current != nil {
			buf.Write(z.Raw())
		}
	}
	flush()
	if !sawBody {
		return nil, ErrMissingBody
	}
	return chunks, nil
}

// boundaryName reads the current anchor tag's attributes and reports
// whether it opens a section: a name attribute must be present and href
// absent.
func boundaryName(z *html.Tokenizer) (string, bool) {
	var name string
	hasName, hasHref := false, false
	for {
		k, v, more := z.TagAttr()
		switch string(k) {
		case "name":
			hasName = true
			name = string(v)
		case "href":
			hasHref = true
		}
		if !more {
			break
		}
	}
	return name, hasName && !hasHref
}
