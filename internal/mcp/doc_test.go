package mcp

import (
	"strings"
	"testing"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	gmparser "github.com/gomarkdown/markdown/parser"

	"reascribe/internal/docparse"
	"reascribe/internal/index"
	"reascribe/internal/sigparse"
)

func richEntry() *index.Entry {
	return &index.Entry{
		Section:     "GetProjExtState",
		Namespace:   "reaper",
		Name:        "GetProjExtState",
		Signature:   "integer retval, string val = reaper.GetProjExtState(ReaProject proj, string extname, string key)",
		Description: "Read the extended state value for a specific section and key.",
		Params: []sigparse.FuncParam{
			{Type: "ReaProject", Name: "proj"},
			{Type: "string", Name: "extname"},
			{Type: "string", Name: "key"},
		},
		Retvals: []sigparse.RetVal{
			{Type: "integer", Name: "retval"},
			{Type: "string", Name: "val"},
		},
		Raw: map[docparse.Language]string{
			docparse.LangC:   "int GetProjExtState(ReaProject* proj, const char* extname, const char* key, char* valOutNeedBig, int valOutNeedBig_sz)",
			docparse.LangLua: "integer retval, string val = reaper.GetProjExtState(ReaProject proj, string extname, string key)",
		},
	}
}

func TestEntryURI(t *testing.T) {
	t.Parallel()

	if got := EntryURI(richEntry()); got != "reascript://reaper/GetProjExtState" {
		t.Errorf("got %s", got)
	}
	if got := EntryURI(&index.Entry{Namespace: "reaper.array", Name: "clear"}); got != "reascript://reaper.array/clear" {
		t.Errorf("got %s", got)
	}
}

func TestEntryDoc(t *testing.T) {
	t.Parallel()

	got := EntryDoc(richEntry())
	want := strings.Join([]string{
		"# reaper.GetProjExtState",
		"",
		"```",
		"integer retval, string val = reaper.GetProjExtState(ReaProject proj, string extname, string key)",
		"```",
		"",
		"Read the extended state value for a specific section and key.",
		"",
		"## Parameters",
		"",
		"| Name | Type | Optional |",
		"|---|---|---|",
		"| proj | ReaProject |  |",
		"| extname | string |  |",
		"| key | string |  |",
		"",
		"## Returns",
		"",
		"| Name | Type | Optional |",
		"|---|---|---|",
		"| retval | integer |  |",
		"| val | string |  |",
		"",
		"## Other languages",
		"",
		"**C**",
		"",
		"```",
		"int GetProjExtState(ReaProject* proj, const char* extname, const char* key, char* valOutNeedBig, int valOutNeedBig_sz)",
		"```",
		"",
	}, "\n")
	if got != want {
		t.Errorf("doc mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

// The renderer output must hold together as markdown: description text
// from the manual sits next to fences and tables, and a malformed doc
// would silently break MCP clients. Parse it back and check the shape.
func TestEntryDoc_MarkdownStructure(t *testing.T) {
	t.Parallel()

	entry := richEntry()
	doc := gm.Parse([]byte(EntryDoc(entry)), gmparser.NewWithExtensions(
		gmparser.CommonExtensions|gmparser.Autolink,
	))

	var headings []int
	var fences []string
	tables := 0
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n := node.(type) {
		case *ast.Heading:
			headings = append(headings, n.Level)
		case *ast.CodeBlock:
			fences = append(fences, string(n.Literal))
		case *ast.Table:
			tables++
		}
		return ast.GoToNext
	})

	wantHeadings := []int{1, 2, 2, 2}
	if len(headings) != len(wantHeadings) {
		t.Fatalf("expected %d headings, got %v", len(wantHeadings), headings)
	}
	for i, level := range wantHeadings {
		if headings[i] != level {
			t.Errorf("heading %d: expected level %d, got %d", i, level, headings[i])
		}
	}

	if len(fences) != 2 {
		t.Fatalf("expected 2 code fences, got %d", len(fences))
	}
	if strings.TrimRight(fences[0], "\n") != entry.Signature {
		t.Errorf("first fence should hold the signature, got %q", fences[0])
	}

	if tables != 2 {
		t.Errorf("expected 2 tables, got %d", tables)
	}
}

func TestEntryDoc_Deprecated(t *testing.T) {
	t.Parallel()

	e := &index.Entry{
		Namespace:   "gfx",
		Name:        "update",
		Signature:   "gfx.update()",
		Description: "Updates the graphics display.",
		Deprecated:  true,
	}
	got := EntryDoc(e)

	marker := strings.Index(got, "**Deprecated.**")
	desc := strings.Index(got, "Updates the graphics display.")
	if marker < 0 {
		t.Fatal("expected a deprecation note")
	}
	if desc < 0 || marker > desc {
		t.Error("deprecation note should precede the description")
	}
}

func TestEntryDoc_VarargsAndAnonymousReturn(t *testing.T) {
	t.Parallel()

	e := &index.Entry{
		Namespace: "reaper",
		Name:      "format_timestr",
		Signature: "string = reaper.format_timestr(number tpos, ...)",
		Varargs:   true,
		Params:    []sigparse.FuncParam{{Type: "number", Name: "tpos"}},
		Retvals:   []sigparse.RetVal{{Type: "string"}},
	}
	got := EntryDoc(e)

	if !strings.Contains(got, "Additional arguments are accepted (`...`).") {
		t.Error("expected a varargs note")
	}
	if !strings.Contains(got, "| _ | string |  |") {
		t.Error("anonymous return values should render with a placeholder name")
	}
}

func TestEntryDoc_NoOtherLanguages(t *testing.T) {
	t.Parallel()

	e := &index.Entry{
		Namespace: "gfx",
		Name:      "update",
		Signature: "gfx.update()",
		Raw: map[docparse.Language]string{
			docparse.LangLua: "gfx.update()",
		},
	}
	if got := EntryDoc(e); strings.Contains(got, "## Other languages") {
		t.Errorf("Lua-only entries should not list other languages:\n%s", got)
	}
}
