// Package facade is the external surface of the memory core: remember,
// recall, forget, supersede, get, query_related, get_stats, and count,
// each scoped to a session and backed by that session's own open triple
// store and in-memory State actor.
package facade

import (
	"context"
	"fmt"
	"sync"

	"github.com/jido-ai/memorycore/internal/config"
	"github.com/jido-ai/memorycore/internal/session"
	"github.com/jido-ai/memorycore/internal/triplestore"
	"github.com/jido-ai/memorycore/internal/types"
)

// Error is the facade's error taxonomy. Code is one of session_not_found,
// not_found, invalid_input, session_mismatch, or store_full (passed through
// from the adapter when a session's store is at its fact limit).
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func errSessionNotFound(sessionID string, cause error) error {
	return &Error{Code: "session_not_found", Message: fmt.Sprintf("could not open session %s: %v", sessionID, cause)}
}

func errInvalidInput(msg string) error {
	return &Error{Code: "invalid_input", Message: msg}
}

// fromAdapterError translates a *triplestore.AdapterError into a facade
// Error with the same code, so callers only ever switch on one taxonomy.
func fromAdapterError(err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*triplestore.AdapterError); ok {
		return &Error{Code: ae.Code, Message: ae.Message}
	}
	return err
}

// Facade is the memory core's single entry point. One Facade serves every
// session in the process; sessions are opened lazily on first use.
type Facade struct {
	manager *triplestore.StoreManager
	cfg     config.MemoryConfig

	mu       sync.Mutex
	sessions map[string]*session.State
}

// New creates a facade rooted at basePath with the given configuration.
func New(basePath string, cfg config.MemoryConfig, smCfg config.StoreManagerConfig) (*Facade, error) {
	manager, err := triplestore.NewStoreManager(basePath, smCfg, cfg.TripleStore)
	if err != nil {
		return nil, fmt.Errorf("create store manager: %w", err)
	}
	return &Facade{
		manager:  manager,
		cfg:      cfg,
		sessions: make(map[string]*session.State),
	}, nil
}

// ensure returns (and lazily creates) the session.State and open store for
// sessionID.
func (f *Facade) ensure(sessionID string) (*session.State, error) {
	if sessionID == "" {
		return nil, errInvalidInput("session_id is required")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if st, ok := f.sessions[sessionID]; ok {
		return st, nil
	}

	store, err := f.manager.GetOrCreate(sessionID)
	if err != nil {
		return nil, errSessionNotFound(sessionID, err)
	}
	st := session.New(sessionID, store.Adapter, f.cfg)
	f.sessions[sessionID] = st
	return st, nil
}

// Remember persists a new long-term memory directly (bypassing pending
// staging), for callers that already know a fact belongs in long-term
// memory right now.
func (f *Facade) Remember(sessionID string, in triplestore.PersistInput) (string, error) {
	st, err := f.ensure(sessionID)
	if err != nil {
		return "", err
	}
	id, err := st.Adapter.Persist(sessionID, in)
	return id, fromAdapterError(err)
}

// Recall queries long-term memories for sessionID matching opts.
func (f *Facade) Recall(sessionID string, opts triplestore.QueryOptions) ([]triplestore.MemoryRecord, error) {
	st, err := f.ensure(sessionID)
	if err != nil {
		return nil, err
	}
	recs, err := st.Adapter.QueryAll(sessionID, opts)
	return recs, fromAdapterError(err)
}

// Get returns one memory by id and records the access.
func (f *Facade) Get(sessionID, id string) (triplestore.MemoryRecord, error) {
	st, err := f.ensure(sessionID)
	if err != nil {
		return triplestore.MemoryRecord{}, err
	}
	if err := st.Adapter.RecordAccess(sessionID, id); err != nil {
		return triplestore.MemoryRecord{}, fromAdapterError(err)
	}
	rec, err := st.Adapter.QueryByID(sessionID, id, true)
	if err != nil {
		return triplestore.MemoryRecord{}, fromAdapterError(err)
	}
	st.RecordAccess(id, types.AccessRead)
	return rec, nil
}

// Forget soft-deletes a memory.
func (f *Facade) Forget(sessionID, id string) error {
	st, err := f.ensure(sessionID)
	if err != nil {
		return err
	}
	return fromAdapterError(st.Adapter.Delete(sessionID, id))
}

// Supersede marks oldID superseded by newID.
func (f *Facade) Supersede(sessionID, oldID, newID string) error {
	st, err := f.ensure(sessionID)
	if err != nil {
		return err
	}
	return fromAdapterError(st.Adapter.Supersede(sessionID, oldID, newID))
}

// QueryRelated returns memories connected to id via predicate.
func (f *Facade) QueryRelated(sessionID, id string, predicate types.RelationshipPredicate) ([]triplestore.MemoryRecord, error) {
	st, err := f.ensure(sessionID)
	if err != nil {
		return nil, err
	}
	recs, err := st.Adapter.QueryRelated(sessionID, id, predicate)
	return recs, fromAdapterError(err)
}

// GetStats summarizes sessionID's long-term store.
func (f *Facade) GetStats(sessionID string) (triplestore.Stats, error) {
	st, err := f.ensure(sessionID)
	if err != nil {
		return triplestore.Stats{}, err
	}
	stats, err := st.Adapter.GetStats(sessionID)
	return stats, fromAdapterError(err)
}

// Count returns the number of active long-term memories for sessionID.
func (f *Facade) Count(sessionID string) (int, error) {
	st, err := f.ensure(sessionID)
	if err != nil {
		return 0, err
	}
	count, err := st.Adapter.Count(sessionID)
	return count, fromAdapterError(err)
}

// Session returns the session.State for sessionID, for callers that need
// working-context/pending-memory access rather than just the facade's
// long-term-memory surface.
func (f *Facade) Session(sessionID string) (*session.State, error) {
	return f.ensure(sessionID)
}

// CloseSession stops sessionID's promotion timer, runs a final
// session_close promotion pass, and closes its triple store.
func (f *Facade) CloseSession(sessionID string) error {
	f.mu.Lock()
	st, ok := f.sessions[sessionID]
	if ok {
		delete(f.sessions, sessionID)
	}
	f.mu.Unlock()

	if ok {
		st.Close()
	}
	return f.manager.Close(sessionID)
}

// Shutdown closes every open session store, bounded by the store manager's
// per-store close timeout.
func (f *Facade) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	for _, st := range f.sessions {
		st.DisablePromotion()
	}
	f.sessions = make(map[string]*session.State)
	f.mu.Unlock()
	return f.manager.CloseAll(ctx)
}
