// Package types defines the closed vocabularies (memory kinds, confidence
// levels, source kinds, promotion status) and the Jido ontology IRI builders
// shared by every memory-core component.
package types

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// MemoryKind is the closed set of memory record classifications.
type MemoryKind string

const (
	KindFact                 MemoryKind = "fact"
	KindAssumption           MemoryKind = "assumption"
	KindHypothesis           MemoryKind = "hypothesis"
	KindDiscovery            MemoryKind = "discovery"
	KindRisk                 MemoryKind = "risk"
	KindUnknown              MemoryKind = "unknown"
	KindDecision             MemoryKind = "decision"
	KindArchitecturalDecision MemoryKind = "architectural_decision"
	KindConvention            MemoryKind = "convention"
	KindCodingStandard        MemoryKind = "coding_standard"
	KindLessonLearned         MemoryKind = "lesson_learned"
	KindError                 MemoryKind = "error"
	KindBug                   MemoryKind = "bug"
	// KindNone marks a context key as ephemeral: never promote it.
	KindNone MemoryKind = "none"
)

// ValidMemoryKind reports whether k is a declared memory kind. It returns
// true for the KindNone sentinel too, even though KindNone is never promoted.
func ValidMemoryKind(k MemoryKind) bool {
	switch k {
	case KindFact, KindAssumption, KindHypothesis, KindDiscovery, KindRisk, KindUnknown,
		KindDecision, KindArchitecturalDecision, KindConvention, KindCodingStandard,
		KindLessonLearned, KindError, KindBug, KindNone:
		return true
	default:
		return false
	}
}

// className returns the CamelCase ontology class name for a memory kind.
func (k MemoryKind) className() string {
	parts := strings.Split(string(k), "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// ConfidenceLevel is the coarse, ontology-facing confidence band.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// LevelToNumeric maps a confidence level to its representative numeric value.
func LevelToNumeric(level ConfidenceLevel) float64 {
	switch level {
	case ConfidenceHigh:
		return 0.9
	case ConfidenceMedium:
		return 0.6
	case ConfidenceLow:
		return 0.3
	default:
		return 0.3
	}
}

// NumericToLevel maps a numeric confidence to its band:
// >=0.8 high, >=0.5 medium, else low.
func NumericToLevel(value float64) ConfidenceLevel {
	switch {
	case value >= 0.8:
		return ConfidenceHigh
	case value >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ClampConfidence clamps a numeric confidence to [0, 1].
func ClampConfidence(value float64) float64 {
	switch {
	case value < 0:
		return 0
	case value > 1:
		return 1
	default:
		return value
	}
}

// SourceKind identifies who or what asserted a memory.
type SourceKind string

const (
	SourceUser     SourceKind = "user"
	SourceAgent    SourceKind = "agent"
	SourceTool     SourceKind = "tool"
	SourceExternal SourceKind = "external"
)

// WorkingContextSource identifies how a working-context item was populated.
type WorkingContextSource string

const (
	SourceInferred WorkingContextSource = "inferred"
	SourceExplicit WorkingContextSource = "explicit"
	SourceToolItem WorkingContextSource = "tool"
)

// AccessKind identifies the kind of access recorded in the access log.
type AccessKind string

const (
	AccessRead  AccessKind = "read"
	AccessWrite AccessKind = "write"
	AccessQuery AccessKind = "query"
)

// PromotionSource identifies who proposed a pending memory for promotion.
type PromotionSource string

const (
	PromotionImplicit PromotionSource = "implicit"
	PromotionAgent    PromotionSource = "agent"
)

// RelationshipPredicate is the closed set of long-term memory relationship
// edges exposed by TripleStoreAdapter.QueryRelated.
type RelationshipPredicate string

const (
	RelRefines              RelationshipPredicate = "refines"
	RelConfirms             RelationshipPredicate = "confirms"
	RelContradicts          RelationshipPredicate = "contradicts"
	RelHasAlternative       RelationshipPredicate = "has_alternative"
	RelSelectedAlternative  RelationshipPredicate = "selected_alternative"
	RelHasTradeOff          RelationshipPredicate = "has_trade_off"
	RelJustifiedBy          RelationshipPredicate = "justified_by"
	RelHasRootCause         RelationshipPredicate = "has_root_cause"
	RelProducedLesson       RelationshipPredicate = "produced_lesson"
	RelRelatedError         RelationshipPredicate = "related_error"
	RelDerivedFrom          RelationshipPredicate = "derived_from"
	RelSupersededBy         RelationshipPredicate = "superseded_by"
)

// ValidRelationship reports whether p is one of the closed relationship
// predicates.
func ValidRelationship(p RelationshipPredicate) bool {
	switch p {
	case RelRefines, RelConfirms, RelContradicts, RelHasAlternative, RelSelectedAlternative,
		RelHasTradeOff, RelJustifiedBy, RelHasRootCause, RelProducedLesson, RelRelatedError,
		RelDerivedFrom, RelSupersededBy:
		return true
	default:
		return false
	}
}

// ContextKey is the closed set of short working-context identifiers.
type ContextKey string

const (
	KeyFramework         ContextKey = "framework"
	KeyPrimaryLanguage   ContextKey = "primary_language"
	KeyProjectRoot       ContextKey = "project_root"
	KeyActiveFile        ContextKey = "active_file"
	KeyUserIntent        ContextKey = "user_intent"
	KeyCurrentTask       ContextKey = "current_task"
	KeyDiscoveredPatterns ContextKey = "discovered_patterns"
	KeyFileRelationships  ContextKey = "file_relationships"
	KeyActiveErrors       ContextKey = "active_errors"
	KeyPendingQuestions   ContextKey = "pending_questions"
)

// ValidContextKey reports whether k is a declared working-context key.
func ValidContextKey(k ContextKey) bool {
	switch k {
	case KeyFramework, KeyPrimaryLanguage, KeyProjectRoot, KeyActiveFile, KeyUserIntent,
		KeyCurrentTask, KeyDiscoveredPatterns, KeyFileRelationships, KeyActiveErrors, KeyPendingQuestions:
		return true
	default:
		return false
	}
}

// SuggestedKind returns the default MemoryKind that a working-context key
// infers for a given write source, per the inference table in the glossary.
// KindNone marks the key as ephemeral (never promoted).
func SuggestedKind(key ContextKey, source WorkingContextSource) MemoryKind {
	switch key {
	case KeyFramework, KeyPrimaryLanguage, KeyProjectRoot, KeyActiveFile:
		if source == SourceToolItem {
			return KindFact
		}
		return KindAssumption
	case KeyUserIntent, KeyCurrentTask:
		return KindAssumption
	case KeyDiscoveredPatterns, KeyFileRelationships:
		return KindDiscovery
	case KeyActiveErrors:
		return KindNone
	case KeyPendingQuestions:
		return KindUnknown
	default:
		return KindUnknown
	}
}

// Salience returns the table lookup used by the importance scorer's
// salience component.
func Salience(k MemoryKind) float64 {
	switch k {
	case KindArchitecturalDecision, KindCodingStandard, KindConvention, KindDecision, KindLessonLearned, KindRisk:
		return 1.0
	case KindFact, KindDiscovery:
		return 0.7
	case KindAssumption, KindHypothesis:
		return 0.4
	case KindUnknown, KindError, KindBug:
		return 0.3
	default:
		return 0.3
	}
}

// Ontology IRI vocabulary. Every schema IRI lives under the Jido namespace;
// instance IRIs are built locally from ids supplied by callers.
const (
	OntologyNS  = "https://jido.ai/ontology#"
	DeletedMarker = OntologyNS + "DeletedMarker"
)

// MemoryIRI builds the subject IRI for a memory with the given id.
func MemoryIRI(id string) string { return OntologyNS + "memory_" + id }

// SessionIRI builds the IRI for a session.
func SessionIRI(sessionID string) string { return OntologyNS + "session_" + sessionID }

// AgentIRI builds the IRI for an agent.
func AgentIRI(agentID string) string { return OntologyNS + "agent_" + agentID }

// ProjectIRI builds the IRI for a project.
func ProjectIRI(projectID string) string { return OntologyNS + "project_" + projectID }

// EvidenceIRI builds the IRI for an evidence reference, content-addressed so
// that the same reference string always maps to the same IRI.
func EvidenceIRI(ref string) string {
	sum := sha1.Sum([]byte(ref))
	return OntologyNS + "evidence_" + hex.EncodeToString(sum[:8])
}

// ClassIRI maps a memory kind to its ontology class IRI.
func ClassIRI(k MemoryKind) string { return OntologyNS + k.className() }

// LevelIRI maps a confidence level to its ontology individual IRI.
func LevelIRI(level ConfidenceLevel) string { return OntologyNS + string(level) }

// SourceIRI maps a source kind to its ontology individual IRI.
func SourceIRI(s SourceKind) string { return OntologyNS + string(s) }

// LocalID strips a known IRI prefix, returning the bare local id. Returns the
// input unchanged if it does not carry the given prefix.
func LocalID(iri, prefix string) string {
	if strings.HasPrefix(iri, OntologyNS+prefix) {
		return strings.TrimPrefix(iri, OntologyNS+prefix)
	}
	return iri
}

// NewPendingID generates a pending-memory id in the `pending-<ts>-<rand>`
// shape described by the spec, given a millisecond timestamp and a random
// suffix supplied by the caller (kept injectable so callers control
// randomness sourcing).
func NewPendingID(tsMillis int64, randSuffix string) string {
	return fmt.Sprintf("pending-%d-%s", tsMillis, randSuffix)
}
