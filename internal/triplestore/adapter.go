package triplestore

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jido-ai/memorycore/internal/logging"
	"github.com/jido-ai/memorycore/internal/telemetry"
	"github.com/jido-ai/memorycore/internal/types"
)

// AdapterError is the error taxonomy TripleStoreAdapter returns. Callers
// switch on Code rather than parsing message text.
type AdapterError struct {
	Code    string
	Message string
}

func (e *AdapterError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func errNotFound(id string) error {
	telemetry.AdapterError(id, "query_by_id", "not_found")
	return &AdapterError{Code: "not_found", Message: fmt.Sprintf("memory %s not found", id)}
}

func errSessionMismatch(id string) error {
	telemetry.AdapterError(id, "query_by_id", "session_mismatch")
	return &AdapterError{Code: "session_mismatch", Message: fmt.Sprintf("memory %s does not belong to this session", id)}
}

func errInvalidInput(msg string) error {
	return &AdapterError{Code: "invalid_input", Message: msg}
}

// PersistInput is the caller-supplied shape for Adapter.Persist.
type PersistInput struct {
	Content      string
	MemoryType   types.MemoryKind
	Confidence   float64
	SourceType   types.SourceKind
	AgentID      string
	ProjectID    string
	Rationale    string
	EvidenceRefs []string
	CreatedAt    time.Time
}

// Adapter is the session-scoped mapping between MemoryRecord values and the
// triples stored in an Engine. record_access does a read-modify-write on the
// access-count triple, so every mutating call is serialized through mu: the
// Open Question of whether record_access needs per-memory serialization is
// resolved as "yes, adapter-wide" rather than finer-grained, since contention
// on a single session's store is expected to be low.
type Adapter struct {
	mu        sync.Mutex
	engine    *Engine
	factLimit int
}

// NewAdapter wraps engine in a session-scoped memory-record adapter. A
// factLimit <= 0 means unbounded.
func NewAdapter(engine *Engine, factLimit int) *Adapter {
	return &Adapter{engine: engine, factLimit: factLimit}
}

// Persist writes a new memory record as a batch of triples, scoped to
// sessionID, and returns its id.
func (a *Adapter) Persist(sessionID string, in PersistInput) (string, error) {
	if sessionID == "" {
		return "", errInvalidInput("session_id is required")
	}
	if in.Content == "" {
		return "", errInvalidInput("content is required")
	}
	if !types.ValidMemoryKind(in.MemoryType) || in.MemoryType == types.KindNone {
		return "", errInvalidInput(fmt.Sprintf("unknown memory_type %q", in.MemoryType))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.factLimit > 0 && a.engine.Count() >= a.factLimit {
		return "", &AdapterError{Code: "store_full", Message: fmt.Sprintf("triple store at its %d fact limit", a.factLimit)}
	}

	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	subject := types.MemoryIRI(id)
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	triples := []Triple{
		{Subject: subject, Predicate: PredType, Object: types.ClassIRI(in.MemoryType)},
		{Subject: subject, Predicate: PredSummary, Object: in.Content},
		{Subject: subject, Predicate: PredHasConfidence, Object: types.LevelIRI(types.NumericToLevel(types.ClampConfidence(in.Confidence)))},
		{Subject: subject, Predicate: PredHasSourceType, Object: types.SourceIRI(in.SourceType)},
		{Subject: subject, Predicate: PredAssertedIn, Object: types.SessionIRI(sessionID)},
		{Subject: subject, Predicate: PredHasTimestamp, Object: createdAt.UTC().Format(time.RFC3339)},
		{Subject: subject, Predicate: PredAccessCount, Object: "0"},
	}
	if in.AgentID != "" {
		triples = append(triples, Triple{Subject: subject, Predicate: PredAssertedBy, Object: types.AgentIRI(in.AgentID)})
	}
	if in.ProjectID != "" {
		triples = append(triples, Triple{Subject: subject, Predicate: PredAppliesToProject, Object: types.ProjectIRI(in.ProjectID)})
	}
	if in.Rationale != "" {
		triples = append(triples, Triple{Subject: subject, Predicate: PredRationale, Object: in.Rationale})
	}
	for _, ref := range in.EvidenceRefs {
		triples = append(triples, Triple{Subject: subject, Predicate: PredHasEvidence, Object: types.EvidenceIRI(ref)})
	}

	for _, t := range triples {
		a.engine.Add(t)
	}
	logging.Get(logging.CategoryTripleStore).Debug("persisted memory: id=%s type=%s session=%s", id, in.MemoryType, sessionID)
	return id, nil
}

// recordsBySubject groups every stored triple by subject, for assembly into
// MemoryRecord values.
func (a *Adapter) recordsBySubject() map[string]*MemoryRecord {
	out := make(map[string]*MemoryRecord)
	a.engine.Scan(func(t Triple) {
		if !strings.HasPrefix(t.Subject, types.OntologyNS+"memory_") {
			return
		}
		id := types.LocalID(t.Subject, "memory_")
		rec, ok := out[id]
		if !ok {
			rec = &MemoryRecord{ID: id}
			out[id] = rec
		}
		applyTriple(rec, t)
	})
	return out
}

func applyTriple(rec *MemoryRecord, t Triple) {
	switch t.Predicate {
	case PredType:
		rec.MemoryType = classIRIToKind(t.Object)
	case PredSummary:
		rec.Content = t.Object
	case PredHasConfidence:
		rec.ConfidenceLevel = types.ConfidenceLevel(types.LocalID(t.Object, ""))
	case PredHasSourceType:
		rec.SourceType = types.SourceKind(types.LocalID(t.Object, ""))
	case PredAssertedIn:
		rec.SessionID = types.LocalID(t.Object, "session_")
	case PredAssertedBy:
		rec.AgentID = types.LocalID(t.Object, "agent_")
	case PredAppliesToProject:
		rec.ProjectID = types.LocalID(t.Object, "project_")
	case PredHasTimestamp:
		rec.CreatedAt = t.Object
	case PredRationale:
		rec.Rationale = t.Object
	case PredAccessCount:
		if n, err := strconv.Atoi(t.Object); err == nil {
			rec.AccessCount = n
		}
	case PredLastAccessed:
		rec.LastAccessed = t.Object
	case PredSupersededBy:
		rec.SupersededBy = types.LocalID(t.Object, "memory_")
	case PredSupersededAt:
		rec.SupersededAt = t.Object
	case PredHasEvidence:
		rec.EvidenceRefs = append(rec.EvidenceRefs, t.Object)
	}
}

// classIRIToKind reverses types.ClassIRI for the closed MemoryKind set.
func classIRIToKind(classIRI string) types.MemoryKind {
	for _, k := range []types.MemoryKind{
		types.KindFact, types.KindAssumption, types.KindHypothesis, types.KindDiscovery, types.KindRisk,
		types.KindUnknown, types.KindDecision, types.KindArchitecturalDecision, types.KindConvention,
		types.KindCodingStandard, types.KindLessonLearned, types.KindError, types.KindBug,
	} {
		if types.ClassIRI(k) == classIRI {
			return k
		}
	}
	return types.KindUnknown
}

// QueryByID returns the record for id. A record soft-deleted via Delete
// (superseded_by the DeletedMarker individual) is reported as not_found, not
// returned with its deleted state visible: a record merely superseded by
// another real memory still surfaces here (its superseded_by is surfaced to
// the caller), only the DeletedMarker case is treated as gone. If
// enforceSession is true, a record belonging to a different session yields
// session_mismatch rather than the record.
func (a *Adapter) QueryByID(sessionID, id string, enforceSession bool) (MemoryRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	records := a.recordsBySubject()
	rec, ok := records[id]
	if !ok || rec.Content == "" || rec.IsDeleted() {
		return MemoryRecord{}, errNotFound(id)
	}
	if enforceSession && rec.SessionID != sessionID {
		return MemoryRecord{}, errSessionMismatch(id)
	}
	return *rec, nil
}

// queryForSupersession looks up id for sessionID the way QueryByID does,
// except it does not treat a record already soft-deleted as not_found:
// Supersede and Delete must remain callable against a record they
// themselves already superseded, so repeated calls stay idempotent instead
// of erroring on the second call.
func (a *Adapter) queryForSupersession(sessionID, id string) (MemoryRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	records := a.recordsBySubject()
	rec, ok := records[id]
	if !ok || rec.Content == "" {
		return MemoryRecord{}, errNotFound(id)
	}
	if rec.SessionID != sessionID {
		return MemoryRecord{}, errSessionMismatch(id)
	}
	return *rec, nil
}

// QueryByType returns every record in sessionID matching opts, newest first.
func (a *Adapter) QueryByType(sessionID string, opts QueryOptions) ([]MemoryRecord, error) {
	if sessionID == "" {
		return nil, errInvalidInput("session_id is required")
	}
	a.mu.Lock()
	records := a.recordsBySubject()
	a.mu.Unlock()

	var out []MemoryRecord
	for _, rec := range records {
		if rec.SessionID != sessionID {
			continue
		}
		// A soft-deleted record is superseded by DeletedMarker, so this also
		// hides deleted records unless IncludeSuperseded is set.
		if !opts.IncludeSuperseded && rec.SupersededBy != "" {
			continue
		}
		if !opts.Matches(*rec) {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// QueryAll is QueryByType with no memory-type filter.
func (a *Adapter) QueryAll(sessionID string, opts QueryOptions) ([]MemoryRecord, error) {
	opts.MemoryType = nil
	return a.QueryByType(sessionID, opts)
}

// Supersede marks oldID as superseded by newID. Both must belong to
// sessionID. Idempotent: calling it again removes any prior
// superseded_by/superseded_at triples for oldID before adding the new ones,
// so the store never accumulates more than one of each per subject,
// mirroring RecordAccess's remove-then-add shape.
func (a *Adapter) Supersede(sessionID, oldID, newID string) error {
	old, err := a.queryForSupersession(sessionID, oldID)
	if err != nil {
		return err
	}
	if _, err := a.QueryByID(sessionID, newID, true); err != nil {
		return err
	}
	a.replaceSupersession(old, types.MemoryIRI(newID))
	logging.Get(logging.CategoryTripleStore).Debug("superseded memory: old=%s new=%s session=%s", oldID, newID, sessionID)
	return nil
}

// Delete soft-deletes id: equivalent to Supersede(id, nil). It is never
// removed from the store, only marked superseded by the well-known
// DeletedMarker individual so queries skip it by default and QueryByID
// reports it as not_found.
func (a *Adapter) Delete(sessionID, id string) error {
	rec, err := a.queryForSupersession(sessionID, id)
	if err != nil {
		return err
	}
	a.replaceSupersession(rec, types.DeletedMarker)
	logging.Get(logging.CategoryTripleStore).Debug("deleted memory: id=%s session=%s", id, sessionID)
	return nil
}

// replaceSupersession removes any existing superseded_by/superseded_at
// triples for old's subject before adding the new pair, so Supersede and
// Delete both stay idempotent under repeated calls instead of accumulating
// duplicate triples. replacementObject is either a memory IRI or
// types.DeletedMarker.
func (a *Adapter) replaceSupersession(old MemoryRecord, replacementObject string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	subject := types.MemoryIRI(old.ID)
	if old.SupersededBy != "" {
		prevObject := old.SupersededBy
		if prevObject != types.DeletedMarker {
			prevObject = types.MemoryIRI(prevObject)
		}
		a.engine.Remove(Triple{Subject: subject, Predicate: PredSupersededBy, Object: prevObject})
	}
	if old.SupersededAt != "" {
		a.engine.Remove(Triple{Subject: subject, Predicate: PredSupersededAt, Object: old.SupersededAt})
	}
	a.engine.Add(Triple{Subject: subject, Predicate: PredSupersededBy, Object: replacementObject})
	a.engine.Add(Triple{Subject: subject, Predicate: PredSupersededAt, Object: time.Now().UTC().Format(time.RFC3339)})
}

// RecordAccess increments id's access_count and refreshes last_accessed.
// This is the one adapter operation that mutates an existing scalar triple
// rather than only adding new ones, hence the read-modify-write under mu.
func (a *Adapter) RecordAccess(sessionID, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.recordsBySubject()[id]
	if !ok || rec.Content == "" || rec.IsDeleted() {
		return errNotFound(id)
	}
	if rec.SessionID != sessionID {
		return errSessionMismatch(id)
	}

	subject := types.MemoryIRI(id)
	a.engine.Remove(Triple{Subject: subject, Predicate: PredAccessCount, Object: strconv.Itoa(rec.AccessCount)})
	a.engine.Add(Triple{Subject: subject, Predicate: PredAccessCount, Object: strconv.Itoa(rec.AccessCount + 1)})
	if rec.LastAccessed != "" {
		a.engine.Remove(Triple{Subject: subject, Predicate: PredLastAccessed, Object: rec.LastAccessed})
	}
	a.engine.Add(Triple{Subject: subject, Predicate: PredLastAccessed, Object: time.Now().UTC().Format(time.RFC3339)})
	return nil
}

// Relate asserts a directed relationship edge between two memories owned by
// the same session. Not part of the read surface, but required for
// QueryRelated to ever return anything.
func (a *Adapter) Relate(sessionID, fromID string, predicate types.RelationshipPredicate, toID string) error {
	if !types.ValidRelationship(predicate) {
		return errInvalidInput(fmt.Sprintf("unknown relationship predicate %q", predicate))
	}
	if _, err := a.QueryByID(sessionID, fromID, true); err != nil {
		return err
	}
	if _, err := a.QueryByID(sessionID, toID, true); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.engine.Add(Triple{Subject: types.MemoryIRI(fromID), Predicate: relationshipPredicateIRI(predicate), Object: types.MemoryIRI(toID)})
	return nil
}

// QueryRelated returns every memory reachable from id via predicate, scoped
// to sessionID.
func (a *Adapter) QueryRelated(sessionID, id string, predicate types.RelationshipPredicate) ([]MemoryRecord, error) {
	if !types.ValidRelationship(predicate) {
		return nil, errInvalidInput(fmt.Sprintf("unknown relationship predicate %q", predicate))
	}
	if _, err := a.QueryByID(sessionID, id, true); err != nil {
		return nil, err
	}

	a.mu.Lock()
	var targets []string
	subject := types.MemoryIRI(id)
	want := relationshipPredicateIRI(predicate)
	a.engine.Scan(func(t Triple) {
		if t.Subject == subject && t.Predicate == want {
			targets = append(targets, types.LocalID(t.Object, "memory_"))
		}
	})
	records := a.recordsBySubject()
	a.mu.Unlock()

	var out []MemoryRecord
	for _, targetID := range targets {
		rec, ok := records[targetID]
		if !ok || rec.SessionID != sessionID || rec.IsDeleted() {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

// Count returns the number of non-deleted, non-superseded memories owned by
// sessionID.
func (a *Adapter) Count(sessionID string) (int, error) {
	recs, err := a.QueryByType(sessionID, QueryOptions{IncludeSuperseded: false})
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// Stats is the shape GetStats returns: triple_count plus distinct-term
// counts, matching the teacher's Engine.GetStats per-predicate counting
// idiom generalized to subjects/predicates/objects. ByType and
// SupersededCount are kept alongside it as a convenience breakdown a caller
// can use without a second query.
type Stats struct {
	TripleCount        int
	DistinctSubjects   int
	DistinctPredicates int
	DistinctObjects    int
	ByType             map[types.MemoryKind]int
	SupersededCount    int
}

// GetStats summarizes sessionID's store: triple_count, distinct_subjects,
// distinct_predicates and distinct_objects over the triples belonging to
// that session's memories, plus a by-type breakdown of its non-deleted,
// non-superseded records.
func (a *Adapter) GetStats(sessionID string) (Stats, error) {
	if sessionID == "" {
		return Stats{}, errInvalidInput("session_id is required")
	}
	a.mu.Lock()
	records := a.recordsBySubject()
	subjects := make(map[string]struct{})
	predicates := make(map[string]struct{})
	objects := make(map[string]struct{})
	tripleCount := 0
	sessionSubjects := make(map[string]struct{}, len(records))
	for id, rec := range records {
		if rec.SessionID == sessionID {
			sessionSubjects[types.MemoryIRI(id)] = struct{}{}
		}
	}
	a.engine.Scan(func(t Triple) {
		if _, ok := sessionSubjects[t.Subject]; !ok {
			return
		}
		tripleCount++
		subjects[t.Subject] = struct{}{}
		predicates[t.Predicate] = struct{}{}
		objects[t.Object] = struct{}{}
	})
	a.mu.Unlock()

	stats := Stats{
		TripleCount:        tripleCount,
		DistinctSubjects:   len(subjects),
		DistinctPredicates: len(predicates),
		DistinctObjects:    len(objects),
		ByType:             make(map[types.MemoryKind]int),
	}
	for _, rec := range records {
		if rec.SessionID != sessionID || rec.IsDeleted() {
			continue
		}
		if rec.SupersededBy != "" {
			stats.SupersededCount++
			continue
		}
		stats.ByType[rec.MemoryType]++
	}
	return stats, nil
}
