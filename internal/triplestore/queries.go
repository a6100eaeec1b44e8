package triplestore

import (
	"strings"

	"github.com/jido-ai/memorycore/internal/types"
)

// Predicate IRIs used for memory-record triples. This is the single source
// of truth C11 is responsible for: every other component resolves property
// names through these constants rather than spelling out literals.
const (
	PredType              = types.OntologyNS + "rdf_type"
	PredSummary           = types.OntologyNS + "summary"
	PredHasConfidence     = types.OntologyNS + "has_confidence"
	PredHasSourceType     = types.OntologyNS + "has_source_type"
	PredAssertedIn        = types.OntologyNS + "asserted_in"
	PredAssertedBy        = types.OntologyNS + "asserted_by"
	PredAppliesToProject  = types.OntologyNS + "applies_to_project"
	PredHasTimestamp      = types.OntologyNS + "has_timestamp"
	PredRationale         = types.OntologyNS + "rationale"
	PredAccessCount       = types.OntologyNS + "access_count"
	PredLastAccessed      = types.OntologyNS + "last_accessed"
	PredSupersededBy      = types.OntologyNS + "superseded_by"
	PredSupersededAt      = types.OntologyNS + "superseded_at"
	PredHasEvidence       = types.OntologyNS + "derived_from"
)

// relationshipPredicateIRI maps a closed-set relationship name to its
// predicate IRI (relationship predicates share the "derived_from" /
// "superseded_by" IRIs with the structural predicates above by design: the
// ontology glossary lists them once, not twice).
func relationshipPredicateIRI(rel types.RelationshipPredicate) string {
	return types.OntologyNS + string(rel)
}

// MemoryRecord is the adapter's in-memory view of one long-term memory,
// assembled from its triples.
type MemoryRecord struct {
	ID              string
	Content         string
	MemoryType      types.MemoryKind
	ConfidenceLevel types.ConfidenceLevel
	SourceType      types.SourceKind
	SessionID       string
	AgentID         string
	ProjectID       string
	Rationale       string
	EvidenceRefs    []string
	CreatedAt       string // RFC3339; kept as string, the substrate has no native time type
	SupersededBy    string
	SupersededAt    string
	AccessCount     int
	LastAccessed    string
}

// IsDeleted reports whether the record was soft-deleted (Delete, which is
// equivalent to Supersede with no replacement): superseded_by points at the
// well-known DeletedMarker individual rather than another memory.
func (r MemoryRecord) IsDeleted() bool {
	return r.SupersededBy == types.DeletedMarker
}

// QueryOptions are the filters accepted by query_by_type / query_all,
// mirroring the spec's SPARQL SELECT option set. QueryRelated takes no
// QueryOptions.
type QueryOptions struct {
	MemoryType        *types.MemoryKind
	MinConfidence     *float64
	IncludeSuperseded bool
	Limit             int
	QuerySubstring    string // matched against Content; client-side per the Open Question decision below.
}

// matchesSubstring applies QuerySubstring as a client-side CONTAINS filter.
// The substrate has no SPARQL FILTER evaluator, so this Open Question
// (§9, "applied as a SPARQL FILTER CONTAINS or client-side filter") is
// resolved as: always client-side, case-insensitive.
func (o QueryOptions) matchesSubstring(content string) bool {
	if o.QuerySubstring == "" {
		return true
	}
	return strings.Contains(strings.ToLower(content), strings.ToLower(o.QuerySubstring))
}

// Matches reports whether record satisfies every filter in o. Supersession
// is handled separately by callers (it depends on whether the caller asked
// for include_superseded before even building candidate ids).
func (o QueryOptions) Matches(record MemoryRecord) bool {
	if o.MemoryType != nil && record.MemoryType != *o.MemoryType {
		return false
	}
	if o.MinConfidence != nil && types.LevelToNumeric(record.ConfidenceLevel) < *o.MinConfidence {
		return false
	}
	return o.matchesSubstring(record.Content)
}
