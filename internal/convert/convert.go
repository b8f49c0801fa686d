// Package convert wires the pipeline together: split the manual into
// sections, parse the Lua signature of each one, and render the requested
// declaration dialect. Per-section failures are downgraded to diagnostics;
// only structural document errors abort a run.
package convert

import (
	"context"
	"runtime"
	"sync"

	"reascribe/internal/diag"
	"reascribe/internal/docparse"
	"reascribe/internal/emit"
	"reascribe/internal/sigparse"
)

// Result is the outcome of one conversion run.
type Result struct {
	Output    string
	Sections  int // sections found in the document
	Functions int // calls that made it into the output
	Skipped   int // sections without a Lua function definition
	Failed    int // sections whose signature could not be parsed
	Log       *diag.Log
}

// Entry is one successfully parsed API entry, including the raw
// per-language call texts. The indexer stores these.
type Entry struct {
	Section     string
	Call        *sigparse.FunctionCall
	Description string
	Deprecated  bool
	Raw         map[docparse.Language]string
}

// Document converts one manual document into declaration text in the
// given dialect.
func Document(ctx context.Context, src string, dialect emit.Dialect) (*Result, error) {
	res, entries, err := run(ctx, src)
	if err != nil {
		return nil, err
	}

	calls := make([]emit.AnnotatedCall, len(entries))
	for i, e := range entries {
		calls[i] = emit.AnnotatedCall{Call: e.Call, Description: e.Description, Deprecated: e.Deprecated}
	}
	out, err := emit.Emit(dialect, calls, res.Log)
	if err != nil {
		return nil, err
	}
	res.Output = out
	return res, nil
}

// Entries parses the document and returns every successfully parsed API
// entry without rendering any output.
func Entries(ctx context.Context, src string) ([]Entry, *diag.Log, error) {
	res, entries, err := run(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	return entries, res.Log, nil
}

func run(ctx context.Context, src string) (*Result, []Entry, error) {
	sections, err := docparse.Split(src)
	if err != nil {
		return nil, nil, err
	}
	parsed, err := parseSections(ctx, sections)
	if err != nil {
		return nil, nil, err
	}

	// Assemble sequentially so diagnostics and output follow source order.
	log := &diag.Log{}
	res := &Result{Sections: len(sections), Log: log}
	var entries []Entry
	for i, sec := range sections {
		switch s := sec.(type) {
		case *docparse.GenericSection:
			log.Infof(s.Name, "skipping section with no function definition")
			res.Skipped++
		case *docparse.CallSection:
			if _, ok := s.Call(docparse.LangLua); !ok {
				log.Infof(s.Name, "skipping section with no Lua function definition")
				res.Skipped++
				continue
			}
			r := parsed[i]
			if r.err != nil {
				log.Warnf(s.Name, "%v", r.err)
				res.Failed++
				continue
			}
			for _, w := range r.warns {
				log.Warnf(s.Name, "%s", w)
			}
			ac := emit.Annotate(r.call, s.Description)
			entries = append(entries, Entry{
				Section:     s.Name,
				Call:        ac.Call,
				Description: ac.Description,
				Deprecated:  ac.Deprecated,
				Raw:         s.Calls,
			})
			res.Functions++
		}
	}
	return res, entries, nil
}

type sectionResult struct {
	call  *sigparse.FunctionCall
	warns []string
	err   error
}

// parseSections parses the Lua call text of every section across a small
// worker pool. Results land in a slice indexed by section position, so the
// assembly pass can walk them in source order. Sections without Lua text
// keep a zero result.
func parseSections(ctx context.Context, sections []docparse.Section) ([]sectionResult, error) {
	results := make([]sectionResult, len(sections))
	jobs := make(chan int)

	workers := runtime.NumCPU()
	if workers > len(sections) {
		workers = len(sections)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				cs, ok := sections[i].(*docparse.CallSection)
				if !ok {
					continue
				}
				text, ok := cs.Call(docparse.LangLua)
				if !ok {
					continue
				}
				call, warns, err := sigparse.Parse(text)
				results[i] = sectionResult{call: call, warns: warns, err: err}
			}
		}()
	}

feed:
	for i := range sections {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
