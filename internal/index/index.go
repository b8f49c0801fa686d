// Package index persists parsed manual entries in an embedded DuckDB
// database so lookup and search work without re-parsing the manual.
package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"reascribe/internal/convert"
	"reascribe/internal/docparse"
	"reascribe/internal/sigparse"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_manual_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_entry_id START 1;`,

		`CREATE TABLE IF NOT EXISTS manuals (
			id INTEGER PRIMARY KEY,
			source TEXT NOT NULL,
			imported_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_manuals_source ON manuals (source)`,

		`CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY,
			manual_id INTEGER NOT NULL REFERENCES manuals(id),
			section TEXT NOT NULL,
			namespace TEXT NOT NULL,
			name TEXT NOT NULL,
			signature TEXT NOT NULL,
			description TEXT NOT NULL,
			deprecated BOOLEAN NOT NULL,
			class_method BOOLEAN NOT NULL,
			varargs BOOLEAN NOT NULL,
			params TEXT NOT NULL,
			retvals TEXT NOT NULL,
			raw_c TEXT,
			raw_eel TEXT,
			raw_lua TEXT,
			raw_python TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_manual ON entries (manual_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_name ON entries (name)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_qualified ON entries (namespace, name)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// Manual is one imported manual document.
type Manual struct {
	ID         int
	Source     string
	ImportedAt time.Time
}

// Entry is one indexed API function. Params and Retvals are decoded
// from their stored JSON form; Raw holds the per-language call texts
// that were present in the manual section.
type Entry struct {
	ID          int
	Section     string
	Namespace   string
	Name        string
	Signature   string
	Description string
	Deprecated  bool
	ClassMethod bool
	Varargs     bool
	Params      []sigparse.FuncParam
	Retvals     []sigparse.RetVal
	Raw         map[docparse.Language]string
}

// Stats summarizes the index: total imports, plus entry and namespace
// counts for the most recent import.
type Stats struct {
	Manuals    int
	Entries    int
	Namespaces int
}

// NamespaceCount is one namespace and how many entries it has.
type NamespaceCount struct {
	Name    string
	Entries int
}

// ImportManual stores the entries parsed from one manual, replacing any
// previous import from the same source. The whole import is one
// transaction, so a failed import leaves the old data in place.
func (db *DB) ImportManual(source string, entries []convert.Entry) (*Manual, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("starting import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM entries WHERE manual_id IN (SELECT id FROM manuals WHERE source = ?)`, source,
	); err != nil {
		return nil, fmt.Errorf("clearing previous entries: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM manuals WHERE source = ?`, source); err != nil {
		return nil, fmt.Errorf("clearing previous import: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO manuals (id, source) VALUES (nextval('seq_manual_id'), ?)`, source,
	); err != nil {
		return nil, fmt.Errorf("inserting manual: %w", err)
	}

	var m Manual
	if err := tx.QueryRow(`SELECT currval('seq_manual_id')`).Scan(&m.ID); err != nil {
		return nil, fmt.Errorf("getting manual id: %w", err)
	}

	for _, e := range entries {
		params, err := json.Marshal(e.Call.Params)
		if err != nil {
			return nil, fmt.Errorf("encoding params for %s: %w", e.Call.Name, err)
		}
		retvals, err := json.Marshal(e.Call.Retvals)
		if err != nil {
			return nil, fmt.Errorf("encoding retvals for %s: %w", e.Call.Name, err)
		}

		if _, err := tx.Exec(
			`INSERT INTO entries (id, manual_id, section, namespace, name, signature, description,
				deprecated, class_method, varargs, params, retvals, raw_c, raw_eel, raw_lua, raw_python)
			 VALUES (nextval('seq_entry_id'), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, e.Section, e.Call.Namespace, e.Call.Name, e.Call.String(), e.Description,
			e.Deprecated, e.Call.IsClassMethod, e.Call.Varargs, string(params), string(retvals),
			rawText(e.Raw, docparse.LangC), rawText(e.Raw, docparse.LangEEL),
			rawText(e.Raw, docparse.LangLua), rawText(e.Raw, docparse.LangPython),
		); err != nil {
			return nil, fmt.Errorf("inserting entry %s: %w", e.Call.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}

	m.Source = source
	m.ImportedAt = time.Now()
	return &m, nil
}

// rawText keeps the column NULL when the manual section had no call
// text for the language.
func rawText(raw map[docparse.Language]string, lang docparse.Language) interface{} {
	if s, ok := raw[lang]; ok {
		return s
	}
	return nil
}

// LatestManual returns the most recent import, or nil when the index
// is empty.
func (db *DB) LatestManual() (*Manual, error) {
	var m Manual
	err := db.conn.QueryRow(
		`SELECT id, source, imported_at FROM manuals ORDER BY imported_at DESC, id DESC LIMIT 1`,
	).Scan(&m.ID, &m.Source, &m.ImportedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const entryCols = `e.id, e.section, e.namespace, e.name, e.signature, e.description,
	e.deprecated, e.class_method, e.varargs, e.params, e.retvals,
	e.raw_c, e.raw_eel, e.raw_lua, e.raw_python`

// Lookup returns the entry with the given namespace and name from the
// most recent import, or nil when none matches.
func (db *DB) Lookup(namespace, name string) (*Entry, error) {
	m, err := db.LatestManual()
	if err != nil || m == nil {
		return nil, err
	}

	e, err := scanEntry(db.conn.QueryRow(
		`SELECT `+entryCols+` FROM entries e WHERE e.manual_id = ? AND e.namespace = ? AND e.name = ?`,
		m.ID, namespace, name,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Resolve looks up a possibly namespace-qualified name: "ns.Name"
// resolves exactly, a bare name can match in more than one namespace.
func (db *DB) Resolve(name string) ([]Entry, error) {
	if i := strings.LastIndex(name, "."); i >= 0 {
		e, err := db.Lookup(name[:i], name[i+1:])
		if err != nil || e == nil {
			return nil, err
		}
		return []Entry{*e}, nil
	}
	return db.LookupByName(name)
}

// LookupByName returns every entry with the given name from the most
// recent import, regardless of namespace, ordered by namespace.
func (db *DB) LookupByName(name string) ([]Entry, error) {
	m, err := db.LatestManual()
	if err != nil || m == nil {
		return nil, err
	}

	rows, err := db.conn.Query(
		`SELECT `+entryCols+` FROM entries e WHERE e.manual_id = ? AND e.name = ? ORDER BY e.namespace`,
		m.ID, name,
	)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", name, err)
	}
	return collectEntries(rows)
}

// Search returns entries from the most recent import whose namespace,
// name, or description contains the query, case-insensitively. The
// query is matched literally, not as a pattern. Results are ordered by
// namespace, name, then id.
func (db *DB) Search(query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	m, err := db.LatestManual()
	if err != nil || m == nil {
		return nil, err
	}

	rows, err := db.conn.Query(
		`SELECT `+entryCols+` FROM entries e
		 WHERE e.manual_id = ?
		   AND (contains(lower(e.namespace), lower(?))
		     OR contains(lower(e.name), lower(?))
		     OR contains(lower(e.description), lower(?)))
		 ORDER BY e.namespace, e.name, e.id
		 LIMIT ?`,
		m.ID, query, query, query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching entries: %w", err)
	}
	return collectEntries(rows)
}

// Namespaces returns the namespaces in the most recent import with
// their entry counts, ordered by name.
func (db *DB) Namespaces() ([]NamespaceCount, error) {
	m, err := db.LatestManual()
	if err != nil || m == nil {
		return nil, err
	}

	rows, err := db.conn.Query(
		`SELECT namespace, COUNT(*) FROM entries WHERE manual_id = ? GROUP BY namespace ORDER BY namespace`,
		m.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing namespaces: %w", err)
	}
	defer rows.Close()

	var out []NamespaceCount
	for rows.Next() {
		var n NamespaceCount
		if err := rows.Scan(&n.Name, &n.Entries); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (db *DB) Stats() (*Stats, error) {
	var s Stats
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM manuals`).Scan(&s.Manuals); err != nil {
		return nil, fmt.Errorf("counting manuals: %w", err)
	}

	m, err := db.LatestManual()
	if err != nil {
		return nil, err
	}
	if m == nil {
		return &s, nil
	}

	if err := db.conn.QueryRow(
		`SELECT COUNT(*), COUNT(DISTINCT namespace) FROM entries WHERE manual_id = ?`, m.ID,
	).Scan(&s.Entries, &s.Namespaces); err != nil {
		return nil, fmt.Errorf("counting entries: %w", err)
	}
	return &s, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var params, retvals string
	var rawC, rawEEL, rawLua, rawPython sql.NullString
	if err := row.Scan(
		&e.ID, &e.Section, &e.Namespace, &e.Name, &e.Signature, &e.Description,
		&e.Deprecated, &e.ClassMethod, &e.Varargs, &params, &retvals,
		&rawC, &rawEEL, &rawLua, &rawPython,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(params), &e.Params); err != nil {
		return nil, fmt.Errorf("decoding params for %s: %w", e.Name, err)
	}
	if err := json.Unmarshal([]byte(retvals), &e.Retvals); err != nil {
		return nil, fmt.Errorf("decoding retvals for %s: %w", e.Name, err)
	}

	e.Raw = make(map[docparse.Language]string)
	for lang, col := range map[docparse.Language]sql.NullString{
		docparse.LangC:      rawC,
		docparse.LangEEL:    rawEEL,
		docparse.LangLua:    rawLua,
		docparse.LangPython: rawPython,
	} {
		if col.Valid {
			e.Raw[lang] = col.String
		}
	}
	return &e, nil
}

func collectEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
