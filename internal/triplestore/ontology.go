package triplestore

import (
	"fmt"

	"github.com/jido-ai/memorycore/internal/types"
)

// document is one named, ordered slice of schema triples. The ontology is
// split into documents the way the glossary describes it (core vocabulary
// first, then one document per domain area) even though the substrate has
// no file-per-document storage: each document here is just the seed triples
// a real TTL file of that name would have asserted.
type document struct {
	name    string
	triples func() []Triple
}

// classHierarchy declares every MemoryKind as a subclass of the root
// MemoryItem class.
func classHierarchy(kinds ...types.MemoryKind) []Triple {
	out := make([]Triple, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, Triple{
			Subject:   types.ClassIRI(k),
			Predicate: PredType,
			Object:    types.OntologyNS + "MemoryItem",
		})
	}
	return out
}

// documents is the fixed, ordered sequence of ontology documents loaded into
// every freshly opened store. Order matters only in that core must load
// first (later documents reference the MemoryItem root it declares); the
// rest is load-order-independent since facts are a set.
var documents = []document{
	{
		name: "core",
		triples: func() []Triple {
			return []Triple{
				{Subject: types.OntologyNS + "MemoryItem", Predicate: PredType, Object: types.OntologyNS + "Class"},
			}
		},
	},
	{
		name:    "knowledge",
		triples: func() []Triple { return classHierarchy(types.KindFact, types.KindAssumption, types.KindHypothesis, types.KindDiscovery) },
	},
	{
		name:    "decision",
		triples: func() []Triple { return classHierarchy(types.KindDecision, types.KindArchitecturalDecision) },
	},
	{
		name:    "convention",
		triples: func() []Triple { return classHierarchy(types.KindConvention, types.KindCodingStandard) },
	},
	{
		name:    "error",
		triples: func() []Triple { return classHierarchy(types.KindError, types.KindBug, types.KindRisk, types.KindLessonLearned, types.KindUnknown) },
	},
	{
		name: "session",
		triples: func() []Triple {
			return []Triple{{Subject: types.OntologyNS + "Session", Predicate: PredType, Object: types.OntologyNS + "Class"}}
		},
	},
	{
		name: "agent",
		triples: func() []Triple {
			return []Triple{{Subject: types.OntologyNS + "Agent", Predicate: PredType, Object: types.OntologyNS + "Class"}}
		},
	},
	{
		name: "project",
		triples: func() []Triple {
			return []Triple{{Subject: types.OntologyNS + "Project", Predicate: PredType, Object: types.OntologyNS + "Class"}}
		},
	},
	{
		name: "task",
		triples: func() []Triple {
			return []Triple{{Subject: types.OntologyNS + "Task", Predicate: PredType, Object: types.OntologyNS + "Class"}}
		},
	},
	{
		name: "code",
		triples: func() []Triple {
			return []Triple{{Subject: types.OntologyNS + "CodeArtifact", Predicate: PredType, Object: types.OntologyNS + "Class"}}
		},
	},
}

// LoadReport summarizes one ontology load pass.
type LoadReport struct {
	DocumentsLoaded []string
	TriplesSeeded   int
}

// LoadOntology seeds the fixed class-hierarchy documents into engine, in
// order, and reports what was loaded. Re-running against an already-seeded
// engine is a no-op for already-present triples (the fact store is a set),
// so this is safe to call once per store open without tracking state
// elsewhere.
func LoadOntology(engine *Engine) (LoadReport, error) {
	report := LoadReport{DocumentsLoaded: make([]string, 0, len(documents))}
	for _, doc := range documents {
		triples := doc.triples()
		for _, t := range triples {
			if t.Subject == "" || t.Predicate == "" || t.Object == "" {
				return report, fmt.Errorf("ontology document %q produced an incomplete triple", doc.name)
			}
			if engine.Add(t) {
				report.TriplesSeeded++
			}
		}
		report.DocumentsLoaded = append(report.DocumentsLoaded, doc.name)
	}
	return report, nil
}
