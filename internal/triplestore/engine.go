// Package triplestore is the RDF-shaped substrate the long-term memory store
// is built on. There is no SPARQL engine anywhere in this codebase's
// dependency corpus, so triples are represented as 3-ary Mangle facts
// (subject, predicate, object) and queried by scanning and Go-side
// filtering rather than by compiling SPARQL text. See engine, adapter,
// queries and ontology for the layering: engine is the bare fact store,
// adapter is the session-scoped memory-record mapping, ontology seeds the
// schema, queries holds the IRI/predicate vocabulary shared by both.
package triplestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	"github.com/google/mangle/factstore"
	_ "github.com/google/mangle/packages"
	"github.com/google/mangle/parse"
)

// Triple is one (subject, predicate, object) statement. All three positions
// are plain strings: IRIs for subject/predicate and either an IRI or a
// literal for object, matching how the adapter layer encodes RDF terms.
type Triple struct {
	Subject   string
	Predicate string
	Object    string
}

// tripleDecl is the only schema declaration the engine ever loads. Keeping
// triples generic (rather than one Mangle predicate per RDF property, as the
// teacher's code-fact engine does per fact kind) lets the adapter add new
// predicates without touching the schema.
const tripleDecl = `Decl triple(Subject, Predicate, Object).`

// Engine is a single session's fact store: an in-memory, schema-checked
// collection of triples with load/add/scan/remove operations. It is safe
// for concurrent use.
type Engine struct {
	mu        sync.RWMutex
	baseStore factstore.FactStoreWithRemove
	store     factstore.ConcurrentFactStore
	predicate ast.PredicateSym
	loaded    bool
}

// NewEngine creates an engine with the triple schema already analyzed (but
// with no facts loaded).
func NewEngine() (*Engine, error) {
	base := factstore.NewSimpleInMemoryStore()
	e := &Engine{
		baseStore: base,
		store:     factstore.NewConcurrentFactStore(base),
	}
	if err := e.loadSchema(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) loadSchema() error {
	unit, err := parse.Unit(bytes.NewReader([]byte(tripleDecl)))
	if err != nil {
		return fmt.Errorf("parse triple schema: %w", err)
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return fmt.Errorf("analyze triple schema: %w", err)
	}
	for sym := range info.Decls {
		if sym.Symbol == "triple" {
			e.predicate = sym
			e.loaded = true
			return nil
		}
	}
	return fmt.Errorf("triple predicate missing from analyzed schema")
}

func (e *Engine) toAtom(t Triple) ast.Atom {
	return ast.Atom{
		Predicate: e.predicate,
		Args: []ast.BaseTerm{
			ast.String(t.Subject),
			ast.String(t.Predicate),
			ast.String(t.Object),
		},
	}
}

// Add inserts a triple. Returns false if it was already present (Mangle
// fact stores are sets; re-adding is a no-op).
func (e *Engine) Add(t Triple) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Add(e.toAtom(t))
}

// Remove deletes a triple if present, returning whether it was removed.
func (e *Engine) Remove(t Triple) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.baseStore.Remove(e.toAtom(t))
}

// Scan calls fn for every triple currently stored. Iteration order is
// unspecified (it is whatever the underlying fact store chooses).
func (e *Engine) Scan(fn func(Triple)) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_ = e.store.GetFacts(ast.NewQuery(e.predicate), func(atom ast.Atom) error {
		if len(atom.Args) != 3 {
			return nil
		}
		fn(Triple{
			Subject:   termToString(atom.Args[0]),
			Predicate: termToString(atom.Args[1]),
			Object:    termToString(atom.Args[2]),
		})
		return nil
	})
}

// All returns every stored triple as a slice.
func (e *Engine) All() []Triple {
	var out []Triple
	e.Scan(func(t Triple) { out = append(out, t) })
	return out
}

// Count returns the number of stored triples.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.EstimateFactCount()
}

func termToString(term ast.BaseTerm) string {
	if c, ok := term.(ast.Constant); ok {
		return c.Symbol
	}
	return fmt.Sprintf("%v", term)
}

// snapshot is the on-disk representation written by Save/loaded by Load,
// standing in for the spec's "triple store persistent files" contract since
// the underlying Mangle fact store is in-memory only.
type snapshot struct {
	Triples []Triple `json:"triples"`
}

// Save writes every triple to path as JSON.
func (e *Engine) Save(path string) error {
	data, err := json.Marshal(snapshot{Triples: e.All()})
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// Load reads triples from path (written by Save) into the engine. A missing
// file is not an error: a fresh store simply starts empty.
func (e *Engine) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("unmarshal snapshot %s: %w", path, err)
	}
	for _, t := range snap.Triples {
		e.Add(t)
	}
	return nil
}
