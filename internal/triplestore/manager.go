package triplestore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/jido-ai/memorycore/internal/config"
	"github.com/jido-ai/memorycore/internal/logging"
	"github.com/jido-ai/memorycore/internal/telemetry"
)

// Store is one session's open triple store: its fact engine, the adapter
// wrapping it, and the bookkeeping StoreManager needs to evict it.
type Store struct {
	SessionID      string
	Engine         *Engine
	Adapter        *Adapter
	OntologyReport LoadReport

	mu       sync.Mutex
	lastUsed time.Time
}

func (s *Store) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

func (s *Store) idleSince() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastUsed)
}

// Metadata is the caller-facing summary returned by GetMetadata.
type Metadata struct {
	SessionID   string
	TripleCount int
	OpenedAt    time.Time
	IdleFor     time.Duration
}

// PoolHealth is the aggregate report returned by StoreManager.PoolHealth.
type PoolHealth struct {
	OpenStores int
	Capacity   int
}

// HealthState is the per-session result Health returns: "healthy",
// "unhealthy" (with Reason set), or "not_found".
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthUnhealthy HealthState = "unhealthy"
	HealthNotFound  HealthState = "not_found"
)

// HealthStatus is the per-session result of StoreManager.Health.
type HealthStatus struct {
	State  HealthState
	Reason string
}

// StoreManager owns the LRU-bounded pool of open per-session triple stores,
// persisting each session's snapshot to SnapshotDir on eviction/close and
// sweeping idle stores on a ticker. One store is one independent
// serialization domain: concurrent access to different sessions never
// blocks on each other, matching the rest of the memory core's per-session
// actor model.
type StoreManager struct {
	mu       sync.Mutex
	cfg      config.StoreManagerConfig
	tsCfg    config.TripleStoreConfig
	basePath string
	cache    *lru.Cache[string, *Store]

	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewStoreManager creates a manager rooted at basePath (used for snapshot
// files when tsCfg.SnapshotDir is relative) and starts its idle-cleanup
// ticker.
func NewStoreManager(basePath string, cfg config.StoreManagerConfig, tsCfg config.TripleStoreConfig) (*StoreManager, error) {
	if cfg.MaxOpenStores <= 0 {
		return nil, fmt.Errorf("invalid_input: max_open_stores must be positive")
	}
	m := &StoreManager{
		cfg:         cfg,
		tsCfg:       tsCfg,
		basePath:    basePath,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
	cache, err := lru.NewWithEvict[string, *Store](cfg.MaxOpenStores, m.onEvict)
	if err != nil {
		return nil, fmt.Errorf("create store LRU: %w", err)
	}
	m.cache = cache

	if cfg.CleanupIntervalMS > 0 {
		go m.runCleanup(time.Duration(cfg.CleanupIntervalMS) * time.Millisecond)
	} else {
		close(m.cleanupDone)
	}
	return m, nil
}

func (m *StoreManager) onEvict(sessionID string, store *Store) {
	if err := m.persist(store); err != nil {
		logging.Get(logging.CategoryTripleStore).Warn("evict persist failed: session=%s err=%v", sessionID, err)
	}
	logging.Get(logging.CategoryTripleStore).Info("store evicted: session=%s", sessionID)
	telemetry.StoreClosed(sessionID, "evicted")
}

func (m *StoreManager) snapshotPath(sessionID string) string {
	if m.tsCfg.SnapshotDir == "" {
		return ""
	}
	dir := m.tsCfg.SnapshotDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(m.basePath, dir)
	}
	return filepath.Join(dir, sessionID+".json")
}

func (m *StoreManager) persist(store *Store) error {
	path := m.snapshotPath(store.SessionID)
	if path == "" {
		return nil
	}
	return store.Engine.Save(path)
}

// GetOrCreate returns the open store for sessionID, opening and loading it
// (snapshot, then ontology) if it is not already open. Ontology is loaded
// exactly once per open, not once per call.
func (m *StoreManager) GetOrCreate(sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("invalid_input: session_id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.cache.Get(sessionID); ok {
		store.touch()
		return store, nil
	}

	engine, err := NewEngine()
	if err != nil {
		return nil, fmt.Errorf("open store for session %s: %w", sessionID, err)
	}
	if path := m.snapshotPath(sessionID); path != "" {
		if err := engine.Load(path); err != nil {
			return nil, fmt.Errorf("load snapshot for session %s: %w", sessionID, err)
		}
	}
	report, err := LoadOntology(engine)
	if err != nil {
		return nil, fmt.Errorf("load ontology for session %s: %w", sessionID, err)
	}

	store := &Store{
		SessionID:      sessionID,
		Engine:         engine,
		Adapter:        NewAdapter(engine, m.tsCfg.FactLimit),
		OntologyReport: report,
		lastUsed:       time.Now(),
	}
	m.cache.Add(sessionID, store)
	logging.Get(logging.CategoryTripleStore).Info("store opened: session=%s documents=%d", sessionID, len(report.DocumentsLoaded))
	telemetry.StoreOpened(sessionID, len(report.DocumentsLoaded), report.TriplesSeeded)
	return store, nil
}

// Get returns the store for sessionID if it is already open, without
// creating it.
func (m *StoreManager) Get(sessionID string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	store, ok := m.cache.Get(sessionID)
	if ok {
		store.touch()
	}
	return store, ok
}

// IsOpen reports whether sessionID currently has an open store, without
// affecting LRU recency.
func (m *StoreManager) IsOpen(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Contains(sessionID)
}

// Close persists and closes sessionID's store, if open. Closing a store
// that is not open is not an error.
func (m *StoreManager) Close(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cache.Contains(sessionID) {
		return nil
	}
	m.cache.Remove(sessionID) // triggers onEvict, which persists
	return nil
}

// CloseAll closes every open store, bounded to cfg.CloseTimeoutMS per store,
// running up to len(keys) closes concurrently via errgroup.
func (m *StoreManager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	keys := m.cache.Keys()
	m.mu.Unlock()

	timeout := time.Duration(m.cfg.CloseTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, sessionID := range keys {
		sessionID := sessionID
		g.Go(func() error {
			done := make(chan error, 1)
			go func() { done <- m.Close(sessionID) }()
			select {
			case err := <-done:
				return err
			case <-time.After(timeout):
				return fmt.Errorf("close store %s: timed out after %s", sessionID, timeout)
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	return g.Wait()
}

// ListOpen returns the session ids with a currently open store.
func (m *StoreManager) ListOpen() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Keys()
}

// BasePath returns the manager's base directory.
func (m *StoreManager) BasePath() string { return m.basePath }

// GetMetadata summarizes an open store. Returns an error if sessionID is not open.
func (m *StoreManager) GetMetadata(sessionID string) (Metadata, error) {
	store, ok := m.Get(sessionID)
	if !ok {
		return Metadata{}, fmt.Errorf("not_found: session %s is not open", sessionID)
	}
	return Metadata{
		SessionID:   sessionID,
		TripleCount: store.Engine.Count(),
		IdleFor:     store.idleSince(),
	}, nil
}

// PoolHealth reports current pool occupancy.
func (m *StoreManager) PoolHealth() PoolHealth {
	m.mu.Lock()
	defer m.mu.Unlock()
	return PoolHealth{OpenStores: m.cache.Len(), Capacity: m.cfg.MaxOpenStores}
}

// Health probes sessionID's store, mirroring the teacher's "touch the store
// before trusting it" idiom: a closed session reports not_found, an open one
// is confirmed healthy by actually running a cheap query against it rather
// than just checking pool membership.
func (m *StoreManager) Health(sessionID string) HealthStatus {
	store, ok := m.Get(sessionID)
	if !ok {
		return HealthStatus{State: HealthNotFound}
	}
	if err := probeStore(store); err != nil {
		return HealthStatus{State: HealthUnhealthy, Reason: err.Error()}
	}
	return HealthStatus{State: HealthHealthy}
}

func probeStore(store *Store) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("store probe panicked: %v", r)
		}
	}()
	store.Engine.Count()
	return nil
}

func (m *StoreManager) runCleanup(interval time.Duration) {
	defer close(m.cleanupDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	idleTimeout := time.Duration(m.cfg.IdleTimeoutMS) * time.Millisecond

	for {
		select {
		case <-m.stopCleanup:
			return
		case <-ticker.C:
			if idleTimeout <= 0 {
				continue
			}
			for _, sessionID := range m.ListOpen() {
				store, ok := m.cache.Peek(sessionID)
				if !ok {
					continue
				}
				if store.idleSince() >= idleTimeout {
					logging.Get(logging.CategoryTripleStore).Info("closing idle store: session=%s", sessionID)
					_ = m.Close(sessionID)
				}
			}
		}
	}
}

// StopCleanup halts the idle-sweep goroutine. Safe to call once; CloseAll
// does not call it implicitly, since a manager may be reused after CloseAll.
func (m *StoreManager) StopCleanup() {
	select {
	case <-m.stopCleanup:
		// already closed
	default:
		close(m.stopCleanup)
		<-m.cleanupDone
	}
}
