package index

import (
	"path/filepath"
	"testing"

	"reascribe/internal/convert"
	"reascribe/internal/docparse"
	"reascribe/internal/sigparse"
)

func testIndex(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := New(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("creating test index: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testEntries(t *testing.T) []convert.Entry {
	t.Helper()

	defs := []struct {
		section    string
		sig        string
		desc       string
		deprecated bool
		raw        map[docparse.Language]string
	}{
		{
			section: "GetProjExtState",
			sig:     "integer retval, string val = reaper.GetProjExtState(ReaProject proj, string extname, string key)",
			desc:    "Read the extended state value for a specific section and key.",
			raw: map[docparse.Language]string{
				docparse.LangC:   "int GetProjExtState(ReaProject* proj, const char* extname, const char* key, char* valOutNeedBig, int valOutNeedBig_sz)",
				docparse.LangLua: "integer retval, string val = reaper.GetProjExtState(ReaProject proj, string extname, string key)",
			},
		},
		{
			section: "CountTracks",
			sig:     "integer reaper.CountTracks(ReaProject proj)",
			desc:    "Count the number of tracks in the project, excluding the master track.",
			raw: map[docparse.Language]string{
				docparse.LangLua: "integer reaper.CountTracks(ReaProject proj)",
			},
		},
		{
			section:    "lua_gfx.update",
			sig:        "gfx.update()",
			desc:       "Updates the graphics display. Deprecated, the display updates automatically.",
			deprecated: true,
			raw: map[docparse.Language]string{
				docparse.LangLua: "gfx.update()",
			},
		},
		{
			section: "lua_array.clear",
			sig:     "boolean retval = {reaper.array}.clear(optional number value, optional number offset, optional number size)",
			desc:    "Sets the value of zero or more items in the array.",
			raw: map[docparse.Language]string{
				docparse.LangLua: "boolean retval = {reaper.array}.clear(optional number value, optional number offset, optional number size)",
			},
		},
	}

	entries := make([]convert.Entry, 0, len(defs))
	for _, d := range defs {
		call, warns, err := sigparse.Parse(d.sig)
		if err != nil {
			t.Fatalf("parsing %q: %v", d.sig, err)
		}
		if len(warns) != 0 {
			t.Fatalf("unexpected warnings for %q: %v", d.sig, warns)
		}
		entries = append(entries, convert.Entry{
			Section:     d.section,
			Call:        call,
			Description: d.desc,
			Deprecated:  d.deprecated,
			Raw:         d.raw,
		})
	}
	return entries
}

func TestImportManual_ReplacesSameSource(t *testing.T) {
	db := testIndex(t)
	entries := testEntries(t)

	m1, err := db.ImportManual("reascripthelp.html", entries)
	if err != nil {
		t.Fatal(err)
	}
	if m1.Source != "reascripthelp.html" {
		t.Errorf("expected source reascripthelp.html, got %s", m1.Source)
	}

	stats, err := db.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Manuals != 1 || stats.Entries != 4 || stats.Namespaces != 3 {
		t.Errorf("after first import: %+v", stats)
	}

	m2, err := db.ImportManual("reascripthelp.html", entries[:1])
	if err != nil {
		t.Fatal(err)
	}
	if m2.ID == m1.ID {
		t.Error("expected a fresh manual id on re-import")
	}

	stats, err = db.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Manuals != 1 || stats.Entries != 1 {
		t.Errorf("after re-import: %+v", stats)
	}

	e, err := db.Lookup("gfx", "update")
	if err != nil {
		t.Fatal(err)
	}
	if e != nil {
		t.Error("entry from the replaced import should be gone")
	}
}

func TestReadsTargetLatestImport(t *testing.T) {
	db := testIndex(t)
	entries := testEntries(t)

	if _, err := db.ImportManual("old.html", entries[:2]); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ImportManual("new.html", entries[2:3]); err != nil {
		t.Fatal(err)
	}

	m, err := db.LatestManual()
	if err != nil {
		t.Fatal(err)
	}
	if m == nil || m.Source != "new.html" {
		t.Fatalf("expected latest manual new.html, got %+v", m)
	}

	e, err := db.Lookup("reaper", "CountTracks")
	if err != nil {
		t.Fatal(err)
	}
	if e != nil {
		t.Error("entry from the older import should not be visible")
	}

	e, err = db.Lookup("gfx", "update")
	if err != nil {
		t.Fatal(err)
	}
	if e == nil {
		t.Fatal("expected gfx.update from the latest import")
	}

	stats, err := db.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Manuals != 2 || stats.Entries != 1 || stats.Namespaces != 1 {
		t.Errorf("stats should count entries of the latest import only: %+v", stats)
	}
}

func TestLookup(t *testing.T) {
	db := testIndex(t)
	if _, err := db.ImportManual("reascripthelp.html", testEntries(t)); err != nil {
		t.Fatal(err)
	}

	t.Run("roundtrip", func(t *testing.T) {
		e, err := db.Lookup("reaper", "GetProjExtState")
		if err != nil {
			t.Fatal(err)
		}
		if e == nil {
			t.Fatal("expected an entry")
		}
		if e.Section != "GetProjExtState" {
			t.Errorf("section: got %s", e.Section)
		}
		want := "integer retval, string val = reaper.GetProjExtState(ReaProject proj, string extname, string key)"
		if e.Signature != want {
			t.Errorf("signature:\n got %s\nwant %s", e.Signature, want)
		}
		if len(e.Params) != 3 {
			t.Fatalf("expected 3 params, got %d", len(e.Params))
		}
		if e.Params[0] != (sigparse.FuncParam{Type: "ReaProject", Name: "proj"}) {
			t.Errorf("params[0]: %+v", e.Params[0])
		}
		if len(e.Retvals) != 2 || e.Retvals[1].Name != "val" || e.Retvals[1].Type != "string" {
			t.Errorf("retvals: %+v", e.Retvals)
		}
		if e.Deprecated || e.ClassMethod || e.Varargs {
			t.Errorf("unexpected flags: %+v", e)
		}
		if len(e.Raw) != 2 {
			t.Fatalf("expected 2 raw texts, got %d", len(e.Raw))
		}
		if got := e.Raw[docparse.LangC]; got == "" {
			t.Error("expected the raw C text to survive")
		}
	})

	t.Run("class_method", func(t *testing.T) {
		e, err := db.Lookup("reaper.array", "clear")
		if err != nil {
			t.Fatal(err)
		}
		if e == nil {
			t.Fatal("expected an entry")
		}
		if !e.ClassMethod {
			t.Error("expected a class method")
		}
		if len(e.Params) != 3 || !e.Params[0].Optional {
			t.Errorf("params: %+v", e.Params)
		}
	})

	t.Run("deprecated_flag", func(t *testing.T) {
		e, err := db.Lookup("gfx", "update")
		if err != nil {
			t.Fatal(err)
		}
		if e == nil || !e.Deprecated {
			t.Errorf("expected a deprecated entry, got %+v", e)
		}
	})

	t.Run("missing", func(t *testing.T) {
		e, err := db.Lookup("reaper", "NoSuchFunction")
		if err != nil {
			t.Fatal(err)
		}
		if e != nil {
			t.Errorf("expected nil, got %+v", e)
		}
	})
}

func TestResolve(t *testing.T) {
	db := testIndex(t)
	if _, err := db.ImportManual("reascripthelp.html", testEntries(t)); err != nil {
		t.Fatal(err)
	}

	t.Run("bare", func(t *testing.T) {
		got, err := db.Resolve("CountTracks")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Namespace != "reaper" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("qualified", func(t *testing.T) {
		got, err := db.Resolve("gfx.update")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Name != "update" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("dotted_namespace", func(t *testing.T) {
		got, err := db.Resolve("reaper.array.clear")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || !got[0].ClassMethod {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("qualified_miss", func(t *testing.T) {
		got, err := db.Resolve("gfx.CountTracks")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("expected no matches, got %+v", got)
		}
	})
}

func TestLookupByName(t *testing.T) {
	db := testIndex(t)
	if _, err := db.ImportManual("reascripthelp.html", testEntries(t)); err != nil {
		t.Fatal(err)
	}

	matches, err := db.LookupByName("update")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Namespace != "gfx" || !matches[0].Deprecated {
		t.Errorf("got %+v", matches[0])
	}

	matches, err = db.LookupByName("NoSuchFunction")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}
}

func TestSearch(t *testing.T) {
	db := testIndex(t)
	if _, err := db.ImportManual("reascripthelp.html", testEntries(t)); err != nil {
		t.Fatal(err)
	}

	t.Run("name_case_insensitive", func(t *testing.T) {
		got, err := db.Search("counttracks", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Name != "CountTracks" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("description", func(t *testing.T) {
		got, err := db.Search("extended state", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].Name != "GetProjExtState" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("namespace_ordering", func(t *testing.T) {
		got, err := db.Search("REAPER", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 matches, got %d", len(got))
		}
		if got[0].Name != "CountTracks" || got[1].Name != "GetProjExtState" || got[2].Name != "clear" {
			t.Errorf("order: %s, %s, %s", got[0].Name, got[1].Name, got[2].Name)
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, err := db.Search("reaper", 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 matches, got %d", len(got))
		}
	})

	t.Run("wildcards_are_literal", func(t *testing.T) {
		got, err := db.Search("%", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("a literal %% should match nothing, got %d results", len(got))
		}
	})

	t.Run("no_match", func(t *testing.T) {
		got, err := db.Search("zzz", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("expected no matches, got %d", len(got))
		}
	})
}

func TestNamespaces(t *testing.T) {
	db := testIndex(t)
	if _, err := db.ImportManual("reascripthelp.html", testEntries(t)); err != nil {
		t.Fatal(err)
	}

	ns, err := db.Namespaces()
	if err != nil {
		t.Fatal(err)
	}
	want := []NamespaceCount{
		{Name: "gfx", Entries: 1},
		{Name: "reaper", Entries: 2},
		{Name: "reaper.array", Entries: 1},
	}
	if len(ns) != len(want) {
		t.Fatalf("expected %d namespaces, got %d", len(want), len(ns))
	}
	for i := range want {
		if ns[i] != want[i] {
			t.Errorf("namespaces[%d]: got %+v, want %+v", i, ns[i], want[i])
		}
	}
}

func TestEmptyIndex(t *testing.T) {
	db := testIndex(t)

	m, err := db.LatestManual()
	if err != nil {
		t.Fatal(err)
	}
	if m != nil {
		t.Errorf("expected no manual, got %+v", m)
	}

	e, err := db.Lookup("reaper", "CountTracks")
	if err != nil {
		t.Fatal(err)
	}
	if e != nil {
		t.Errorf("expected nil entry, got %+v", e)
	}

	matches, err := db.LookupByName("CountTracks")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}

	results, err := db.Search("anything", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}

	ns, err := db.Namespaces()
	if err != nil {
		t.Fatal(err)
	}
	if len(ns) != 0 {
		t.Errorf("expected no namespaces, got %d", len(ns))
	}

	stats, err := db.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if *stats != (Stats{}) {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}
